package playback

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/domain/playlist"
	"github.com/osa030/moodbox/internal/domain/track"
)

// Errors
var (
	ErrNoPlaylist      = errors.New("no playlist loaded")
	ErrEmptyPlaylist   = errors.New("playlist is empty")
	ErrNoTrack         = errors.New("no track playing")
	ErrNotPlaying      = errors.New("not playing")
	ErrNotPaused       = errors.New("not paused")
	ErrEndOfPlaylist   = errors.New("no next track")
	ErrStartOfPlaylist = errors.New("no previous track")
)

const (
	DefaultVolume     = 0.7
	DefaultVolumeStep = 0.1

	eventBufferSize = 16
	tickInterval    = 100 * time.Millisecond
)

// Config holds player configuration.
type Config struct {
	Volume      float64 // Initial volume in [0,1]; zero selects DefaultVolume
	AutoAdvance bool    // Move to the next track when the current one reaches its duration
}

// Status is a point-in-time view of the player.
type Status struct {
	State        State
	Track        *track.Track
	Index        int
	PlaylistID   string
	PlaylistName string
	TrackCount   int
	Volume       float64
	Muted        bool
	Position     time.Duration
}

// Player walks a playlist and drives an Output.
type Player struct {
	mu sync.Mutex

	output   Output
	config   Config
	playlist *playlist.Playlist

	current       *track.Track
	state         State
	startTime     time.Time
	pausedAt      *time.Time
	pausedElapsed time.Duration

	volume        float64
	unmutedVolume float64
	muted         bool

	// Timer
	timerCancel func()
	timerGen    uint64

	// Events
	eventCh chan Event

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPlayer creates a player writing to output. A nil output uses NopOutput.
func NewPlayer(output Output, config Config) *Player {
	if output == nil {
		output = NopOutput{}
	}
	if config.Volume <= 0 || config.Volume > 1 {
		config.Volume = DefaultVolume
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		output:  output,
		config:  config,
		state:   StateIdle,
		volume:  config.Volume,
		eventCh: make(chan Event, eventBufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	if err := output.SetVolume(p.volume); err != nil {
		zlog.Warn().Err(err).Msg("failed to set initial volume")
	}
	return p
}

// Events returns the event channel.
func (p *Player) Events() <-chan Event {
	return p.eventCh
}

// Load replaces the playlist, stopping playback and resetting the cursor.
func (p *Player) Load(pl *playlist.Playlist) error {
	if pl == nil || pl.IsEmpty() {
		return ErrEmptyPlaylist
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.haltLocked()
	p.playlist = pl
	pl.Reset()
	zlog.Info().Msgf("loaded playlist: %s (%d tracks)", pl.Name, pl.Len())

	p.sendEventLocked(Event{Type: EventPlaylistLoaded, State: p.state, PlaylistID: pl.ID})
	return nil
}

// Playlist returns the loaded playlist, or nil.
func (p *Player) Playlist() *playlist.Playlist {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playlist
}

// Play starts the track under the cursor, or resumes if paused.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playlist == nil {
		return ErrNoPlaylist
	}
	switch p.state {
	case StatePlaying:
		return nil
	case StatePaused:
		return p.resumeLocked()
	}
	t := p.playlist.Current()
	if t == nil {
		return ErrEmptyPlaylist
	}
	return p.playTrackLocked(t)
}

// Pause pauses the current playback.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pauseLocked()
}

func (p *Player) pauseLocked() error {
	if p.current == nil {
		return ErrNoTrack
	}
	if p.state != StatePlaying {
		return ErrNotPlaying
	}
	if err := p.output.Pause(); err != nil {
		return errors.Wrap(err, "output pause failed")
	}

	p.stopTimerLocked()
	now := toWallTime(time.Now())
	p.pausedAt = &now
	p.state = StatePaused

	p.sendEventLocked(Event{Type: EventStateChanged, Track: p.current, State: p.state, PlaylistID: p.playlistIDLocked()})
	return nil
}

// Resume resumes paused playback.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resumeLocked()
}

func (p *Player) resumeLocked() error {
	if p.current == nil {
		return ErrNoTrack
	}
	if p.state != StatePaused {
		return ErrNotPaused
	}
	if err := p.output.Resume(); err != nil {
		return errors.Wrap(err, "output resume failed")
	}

	if p.pausedAt != nil {
		p.pausedElapsed += toWallTime(time.Now()).Sub(*p.pausedAt)
	}
	p.pausedAt = nil
	p.state = StatePlaying

	if p.config.AutoAdvance && p.current.Duration() > 0 {
		if remaining := p.current.Duration() - p.positionLocked(); remaining > 0 {
			p.startTimerLocked(remaining)
		}
	}

	p.sendEventLocked(Event{Type: EventStateChanged, Track: p.current, State: p.state, PlaylistID: p.playlistIDLocked()})
	return nil
}

// TogglePlayPause pauses when playing and plays otherwise.
func (p *Player) TogglePlayPause() error {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()

	if state == StatePlaying {
		return p.Pause()
	}
	return p.Play()
}

// Stop stops playback. The playlist cursor is kept.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateIdle {
		return nil
	}
	p.haltLocked()
	p.sendEventLocked(Event{Type: EventStateChanged, State: p.state, PlaylistID: p.playlistIDLocked()})
	return nil
}

// Next plays the following track.
func (p *Player) Next() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playlist == nil {
		return ErrNoPlaylist
	}
	t := p.playlist.Next()
	if t == nil {
		return ErrEndOfPlaylist
	}
	return p.playTrackLocked(t)
}

// Previous plays the preceding track.
func (p *Player) Previous() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playlist == nil {
		return ErrNoPlaylist
	}
	t := p.playlist.Previous()
	if t == nil {
		return ErrStartOfPlaylist
	}
	return p.playTrackLocked(t)
}

// PlayAt plays the track at index.
func (p *Player) PlayAt(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playlist == nil {
		return ErrNoPlaylist
	}
	t, err := p.playlist.JumpTo(index)
	if err != nil {
		return err
	}
	return p.playTrackLocked(t)
}

// Shuffle reorders the loaded playlist randomly. A nil rng uses the global source.
func (p *Player) Shuffle(rng *rand.Rand) error {
	return p.reorder(func(pl *playlist.Playlist) error {
		pl.Shuffle(rng)
		return nil
	})
}

// Sort reorders the loaded playlist by key.
func (p *Player) Sort(key playlist.SortKey) error {
	return p.reorder(func(pl *playlist.Playlist) error {
		return pl.SortBy(key)
	})
}

// reorder applies fn to the playlist and moves the cursor back onto the current track.
func (p *Player) reorder(fn func(pl *playlist.Playlist) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playlist == nil {
		return ErrNoPlaylist
	}
	if err := fn(p.playlist); err != nil {
		return err
	}
	if p.current != nil {
		for i, id := range p.playlist.TrackIDs() {
			if id != p.current.ID() {
				continue
			}
			if _, err := p.playlist.JumpTo(i); err != nil {
				return err
			}
			break
		}
	}
	p.sendEventLocked(Event{Type: EventPlaylistReordered, Track: p.current, State: p.state, PlaylistID: p.playlist.ID})
	return nil
}

// SetVolume sets the volume, clamped to [0,1], and clears mute.
func (p *Player) SetVolume(v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = false
	return p.setVolumeLocked(v)
}

// IncreaseVolume raises the volume by step (DefaultVolumeStep when step <= 0).
func (p *Player) IncreaseVolume(step float64) error {
	if step <= 0 {
		step = DefaultVolumeStep
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = false
	return p.setVolumeLocked(p.volume + step)
}

// DecreaseVolume lowers the volume by step (DefaultVolumeStep when step <= 0).
func (p *Player) DecreaseVolume(step float64) error {
	if step <= 0 {
		step = DefaultVolumeStep
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = false
	return p.setVolumeLocked(p.volume - step)
}

// Mute silences the output, remembering the current volume.
func (p *Player) Mute() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.muted {
		return nil
	}
	p.unmutedVolume = p.volume
	if err := p.setVolumeLocked(0); err != nil {
		return err
	}
	p.muted = true
	return nil
}

// Unmute restores the volume from before Mute.
func (p *Player) Unmute() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.muted {
		return nil
	}
	v := p.unmutedVolume
	if v <= 0 {
		v = DefaultVolume
	}
	p.muted = false
	return p.setVolumeLocked(v)
}

func (p *Player) setVolumeLocked(v float64) error {
	v = max(0, min(1, v))
	if err := p.output.SetVolume(v); err != nil {
		return errors.Wrap(err, "output set volume failed")
	}
	p.volume = v
	return nil
}

// Status returns the current player status.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Status{
		State:    p.state,
		Track:    p.current,
		Volume:   p.volume,
		Muted:    p.muted,
		Position: p.positionLocked(),
	}
	if p.playlist != nil {
		s.Index = p.playlist.CurrentIndex()
		s.PlaylistID = p.playlist.ID
		s.PlaylistName = p.playlist.Name
		s.TrackCount = p.playlist.Len()
	}
	return s
}

// Close stops playback and releases the timer goroutine.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.haltLocked()
	p.cancel()
}

func (p *Player) playTrackLocked(t *track.Track) error {
	p.stopTimerLocked()
	if err := p.output.Play(t.FilePath()); err != nil {
		p.state = StateIdle
		p.current = nil
		return errors.Wrapf(err, "failed to play %s", t.ID())
	}

	t.IncrementPlayCount()
	p.current = t
	p.state = StatePlaying
	p.startTime = toWallTime(time.Now())
	p.pausedAt = nil
	p.pausedElapsed = 0

	if p.config.AutoAdvance && t.Duration() > 0 {
		p.startTimerLocked(t.Duration())
	}

	zlog.Info().Msgf("now playing: %s", t)
	p.sendEventLocked(Event{Type: EventTrackStarted, Track: t, State: p.state, PlaylistID: p.playlistIDLocked()})
	return nil
}

// haltLocked stops output and timers and returns to idle without emitting events.
func (p *Player) haltLocked() {
	p.stopTimerLocked()
	if p.state != StateIdle {
		if err := p.output.Stop(); err != nil {
			zlog.Warn().Err(err).Msg("output stop failed")
		}
	}
	p.state = StateIdle
	p.current = nil
	p.pausedAt = nil
	p.pausedElapsed = 0
}

// onTrackEnd advances to the next track or goes idle at the end of the playlist.
func (p *Player) onTrackEnd(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.timerGen || p.state != StatePlaying {
		return
	}
	p.timerCancel = nil
	ended := p.current
	p.sendEventLocked(Event{Type: EventTrackEnded, Track: ended, State: p.state, PlaylistID: p.playlistIDLocked()})

	if next := p.playlist.Next(); next != nil {
		if err := p.playTrackLocked(next); err != nil {
			zlog.Error().Err(err).Msg("auto-advance failed")
		}
		return
	}

	p.haltLocked()
	p.sendEventLocked(Event{Type: EventPlaylistEnded, Track: ended, State: p.state, PlaylistID: p.playlistIDLocked()})
}

func (p *Player) positionLocked() time.Duration {
	if p.current == nil || p.startTime.IsZero() {
		return 0
	}
	now := toWallTime(time.Now())
	if p.pausedAt != nil {
		now = *p.pausedAt
	}
	pos := now.Sub(p.startTime) - p.pausedElapsed
	if pos < 0 {
		return 0
	}
	return pos
}

func (p *Player) playlistIDLocked() string {
	if p.playlist == nil {
		return ""
	}
	return p.playlist.ID
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (p *Player) sendEventLocked(e Event) {
	select {
	case p.eventCh <- e:
	case <-p.ctx.Done():
	default:
		zlog.Warn().Msgf("playback event dropped: %s", e.Type)
	}
}

func (p *Player) startTimerLocked(d time.Duration) {
	p.stopTimerLocked()
	p.timerGen++
	gen := p.timerGen
	p.timerCancel = p.startWallClockTimer(d, func() { p.onTrackEnd(gen) })
}

func (p *Player) stopTimerLocked() {
	if p.timerCancel != nil {
		p.timerCancel()
		p.timerCancel = nil
	}
	p.timerGen++
}

// startWallClockTimer runs callback once d of wall-clock time has passed.
func (p *Player) startWallClockTimer(d time.Duration, callback func()) func() {
	ctx, cancel := context.WithCancel(p.ctx)
	go func() {
		endTime := toWallTime(time.Now()).Add(d)
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if toWallTime(time.Now()).After(endTime) {
					callback()
					return
				}
			}
		}
	}()
	return cancel
}

// toWallTime returns the time with the monotonic clock reading stripped.
func toWallTime(t time.Time) time.Time {
	return time.Unix(t.Unix(), int64(t.Nanosecond()))
}
