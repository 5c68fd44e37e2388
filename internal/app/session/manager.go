// Package session provides the session manager that ties profiles,
// recommendations and playback together.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/app/filter"
	"github.com/osa030/moodbox/internal/app/notification"
	"github.com/osa030/moodbox/internal/app/playback"
	"github.com/osa030/moodbox/internal/app/recommend"
	"github.com/osa030/moodbox/internal/app/session/registry"
	"github.com/osa030/moodbox/internal/app/stats"
	"github.com/osa030/moodbox/internal/domain/listener"
	"github.com/osa030/moodbox/internal/domain/mood"
	"github.com/osa030/moodbox/internal/domain/playlist"
	"github.com/osa030/moodbox/internal/domain/track"
	"github.com/osa030/moodbox/internal/infra/catalogfile"
	"github.com/osa030/moodbox/internal/infra/config"
)

var (
	ErrManagerClosed      = errors.New("session manager is closed")
	ErrNoMatches          = errors.New("no tracks available for this mood")
	ErrUnknownSearchField = errors.New("search field must be title, artist or mood")
)

// Fields accepted by FindTracks.
const (
	SearchByTitle  = "title"
	SearchByArtist = "artist"
	SearchByMood   = "mood"
)

// ProfileStore persists listener profiles.
type ProfileStore interface {
	SaveProfile(ctx context.Context, p *listener.Profile) error
	LoadProfiles(ctx context.Context) ([]*listener.Profile, error)
}

// MoodInput describes a mood as entered by a listener.
// A non-empty Secondary makes the mood blended.
type MoodInput struct {
	Emotion            string
	Intensity          int
	Secondary          string
	SecondaryIntensity int
	Description        string
}

// Build validates the input and creates a mood record.
func (in MoodInput) Build() (mood.Record, error) {
	if in.Secondary != "" {
		return mood.NewBlended(in.Emotion, in.Intensity, in.Secondary, in.SecondaryIntensity, in.Description)
	}
	return mood.NewBasic(in.Emotion, in.Intensity, in.Description)
}

// PreferencesUpdate changes a profile. Nil fields are left untouched.
type PreferencesUpdate struct {
	DisplayName    *string
	Email          *string
	FavoriteGenres []string // replaces the favorites when non-nil
	PreferredTempo *string
}

// StrategyInfo describes a registered recommendation strategy.
type StrategyInfo struct {
	Name        string
	Description string
	Active      bool
}

// Manager owns the catalog, the active recommender, the profiles and the player.
type Manager struct {
	mu sync.Mutex

	// Configuration
	config *config.Config

	// Components
	catalog     *recommend.Catalog
	recommender recommend.Recommender
	filterChain *filter.Chain
	profiles    *registry.ProfileRegistry
	player      *playback.Player
	store       ProfileStore
	notifier    *notification.Manager

	// Owner of the playlist loaded into the player
	activePlaylistID string
	activeProfileID  string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a session manager. A nil output plays nothing.
func NewManager(cfg *config.Config, store ProfileStore, output playback.Output) (*Manager, error) {
	chain, err := filter.Build(FilterSettings(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter chain")
	}

	catalog := recommend.NewCatalog(nil)
	rec, err := recommend.New(cfg.Recommender.Strategy, catalog, cfg.Recommender.Settings)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create recommender")
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config:      cfg,
		catalog:     catalog,
		recommender: rec,
		filterChain: chain,
		profiles:    registry.NewProfileRegistry(),
		player: playback.NewPlayer(output, playback.Config{
			Volume:      cfg.Playback.Volume,
			AutoAdvance: cfg.Playback.AutoAdvance,
		}),
		store:    store,
		notifier: notification.NewManager(),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	return m, nil
}

// FilterSettings converts the configured filters into chain settings.
func FilterSettings(cfg *config.Config) map[string]filter.Settings {
	out := make(map[string]filter.Settings, len(cfg.Filters))
	for name, f := range cfg.Filters {
		out[name] = filter.Settings{Enabled: f.Enabled, Settings: f.Settings}
	}
	return out
}

// Start restores stored profiles, loads the catalog and starts consuming player events.
func (m *Manager) Start(ctx context.Context) error {
	if m.store != nil {
		stored, err := m.store.LoadProfiles(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to load profiles")
		}
		for _, p := range stored {
			p.SetMaxRecentPlays(m.config.Playback.MaxRecentPlays)
			m.profiles.Put(p)
		}
		zlog.Info().Msgf("restored %d profiles", len(stored))
	}

	if _, err := m.ReloadCatalog(ctx); err != nil {
		return err
	}

	go m.eventLoop()
	zlog.Info().Msgf("session started: strategy=%s tracks=%d", m.recommender.Name(), m.catalog.Len())
	return nil
}

// Close stops playback and the event loop.
func (m *Manager) Close() {
	m.cancel()
	m.player.Close()
	m.notifier.Close()
}

// Subscribe registers a stream for player notifications and sends it the
// current state. Call Unsubscribe with the returned ID when done.
func (m *Manager) Subscribe(stream notification.Stream) (string, error) {
	if m.ctx.Err() != nil {
		return "", ErrManagerClosed
	}
	id := m.notifier.Subscribe(stream)
	n := statusNotification(m.player.Status())
	n.Type = notification.TypeInitialState
	n.SequenceNo = m.notifier.NextSequenceNo()
	if err := m.notifier.Send(id, n); err != nil {
		m.notifier.Unsubscribe(id)
		return "", errors.Wrap(err, "failed to send initial state")
	}
	return id, nil
}

// Unsubscribe removes a notification subscription.
func (m *Manager) Unsubscribe(id string) {
	m.notifier.Unsubscribe(id)
}

func statusNotification(s playback.Status) *notification.Notification {
	n := &notification.Notification{
		State:        s.State.String(),
		PlaylistID:   s.PlaylistID,
		PlaylistName: s.PlaylistName,
	}
	if s.Track != nil {
		r := s.Track.Record()
		n.Track = &r
	}
	return n
}

// Done is closed once the event loop has exited.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// ReloadCatalog re-reads the catalog file and swaps in the admitted tracks.
// The catalog is left unchanged on error.
func (m *Manager) ReloadCatalog(ctx context.Context) (filter.Report, error) {
	tracks, err := catalogfile.Load(ctx, m.config.Catalog.Path)
	if err != nil {
		return filter.Report{}, errors.Wrap(err, "failed to load catalog")
	}
	return m.ReplaceCatalog(ctx, tracks, filter.SourceCatalogFile), nil
}

// ReplaceCatalog runs tracks through the filter chain and installs the admitted ones.
func (m *Manager) ReplaceCatalog(ctx context.Context, tracks []*track.Track, source filter.Source) filter.Report {
	admitted, report := m.filterChain.Admit(ctx, tracks, source)
	m.catalog.Update(admitted)
	for code, n := range report.Rejected {
		zlog.Info().Msgf("catalog: %d tracks rejected (%s)", n, code)
	}
	return report
}

// Catalog returns a snapshot of the catalog.
func (m *Manager) Catalog() []*track.Track {
	return m.catalog.Snapshot()
}

// SaveCatalog writes play counts back to the catalog file. Entries the
// filters rejected stay in the file as they are.
func (m *Manager) SaveCatalog(ctx context.Context) error {
	counts := make(map[string]int, m.catalog.Len())
	for _, t := range m.catalog.Snapshot() {
		counts[t.ID()] = t.PlayCount()
	}
	if pl := m.player.Playlist(); pl != nil {
		for _, t := range pl.Tracks() {
			if n, ok := counts[t.ID()]; ok && t.PlayCount() > n {
				counts[t.ID()] = t.PlayCount()
			}
		}
	}
	return catalogfile.UpdatePlayCounts(ctx, m.config.Catalog.Path, counts)
}

// Strategies lists the registered strategies.
func (m *Manager) Strategies() []StrategyInfo {
	m.mu.Lock()
	active := m.recommender.Name()
	m.mu.Unlock()

	names := recommend.Names()
	infos := make([]StrategyInfo, 0, len(names))
	for _, name := range names {
		r, err := recommend.New(name, m.catalog, nil)
		if err != nil {
			continue
		}
		infos = append(infos, StrategyInfo{Name: name, Description: r.Description(), Active: name == active})
	}
	return infos
}

// SetStrategy switches the active recommender.
func (m *Manager) SetStrategy(name string, settings map[string]any) error {
	rec, err := recommend.New(name, m.catalog, settings)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.recommender = rec
	m.mu.Unlock()
	zlog.Info().Msgf("recommendation strategy changed: %s", name)
	return nil
}

// CreateProfile registers and persists a new profile.
func (m *Manager) CreateProfile(ctx context.Context, displayName, email string) (*listener.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.profiles.Create(displayName, email)
	if err != nil {
		return nil, err
	}
	p.SetMaxRecentPlays(m.config.Playback.MaxRecentPlays)
	if err := m.persistLocked(ctx, p); err != nil {
		m.profiles.Remove(p.ID)
		return nil, err
	}
	zlog.Info().Msgf("profile created: %s", p)
	return p, nil
}

// GetProfile returns the profile with id.
func (m *Manager) GetProfile(id string) (*listener.Profile, error) {
	return m.profiles.Get(id)
}

// ViewProfile calls fn with the profile while holding the session lock.
// fn must not retain the profile.
func (m *Manager) ViewProfile(id string, fn func(p *listener.Profile)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.profiles.Get(id)
	if err != nil {
		return err
	}
	fn(p)
	return nil
}

// ListProfiles returns all profiles, oldest first.
func (m *Manager) ListProfiles() []*listener.Profile {
	return m.profiles.All()
}

// UpdatePreferences applies u to the profile and persists it.
// The profile is left untouched when any field fails validation or the store fails.
func (m *Manager) UpdatePreferences(ctx context.Context, id string, u PreferencesUpdate) (*listener.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.profiles.Get(id)
	if err != nil {
		return nil, err
	}

	next := p.Clone()
	if u.DisplayName != nil {
		if err := next.SetDisplayName(*u.DisplayName); err != nil {
			return nil, err
		}
	}
	if u.Email != nil && *u.Email != "" {
		if err := next.SetEmail(*u.Email); err != nil {
			return nil, err
		}
	} else if u.Email != nil {
		next.Email = ""
	}
	if u.PreferredTempo != nil {
		if err := next.Preferences.SetPreferredTempo(*u.PreferredTempo); err != nil {
			return nil, err
		}
	}
	if u.FavoriteGenres != nil {
		next.Preferences.FavoriteGenres = nil
		for _, g := range u.FavoriteGenres {
			next.Preferences.AddFavoriteGenre(g)
		}
	}

	if err := m.commitLocked(ctx, p, next); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("preferences updated: %s", p)
	return p, nil
}

// Recommend builds a playlist for the mood, records the mood in the profile
// history and loads the playlist into the player. An empty profileID
// recommends for a guest without recording anything.
func (m *Manager) Recommend(ctx context.Context, profileID string, in MoodInput, count int) (*playlist.Playlist, error) {
	if err := m.ctx.Err(); err != nil {
		return nil, ErrManagerClosed
	}
	record, err := in.Build()
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = m.config.Recommender.DefaultCount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var p *listener.Profile
	if profileID != "" {
		if p, err = m.profiles.Get(profileID); err != nil {
			return nil, err
		}
	}

	pl, err := m.recommender.Recommend(record, p, count)
	if err != nil {
		return nil, err
	}
	if pl.IsEmpty() {
		return nil, errors.Wrapf(ErrNoMatches, "emotion %s", record.Emotion)
	}
	zlog.Info().Msgf("recommended %q: %d tracks via %s", pl.Name, pl.Len(), m.recommender.Name())

	if p != nil {
		next := p.Clone()
		next.RecordMood(record, pl.ID, time.Time{})
		if err := m.commitLocked(ctx, p, next); err != nil {
			return nil, err
		}
	}

	if err := m.player.Load(pl); err != nil {
		return nil, err
	}
	m.activePlaylistID = pl.ID
	m.activeProfileID = profileID

	if m.config.Playback.AutoPlay {
		if err := m.player.Play(); err != nil {
			zlog.Warn().Err(err).Msg("auto play failed")
		}
	}
	return pl, nil
}

// RecordMood adds a mood to the profile history without recommending.
func (m *Manager) RecordMood(ctx context.Context, profileID string, in MoodInput) (listener.HistoryEntry, error) {
	record, err := in.Build()
	if err != nil {
		return listener.HistoryEntry{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.profiles.Get(profileID)
	if err != nil {
		return listener.HistoryEntry{}, err
	}
	next := p.Clone()
	entry := next.RecordMood(record, "", time.Time{})
	if err := m.commitLocked(ctx, p, next); err != nil {
		return listener.HistoryEntry{}, err
	}
	return entry, nil
}

// Statistics summarizes the profile's mood history.
func (m *Manager) Statistics(profileID string) (listener.MoodStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.profiles.Get(profileID)
	if err != nil {
		return listener.MoodStatistics{}, err
	}
	return p.MoodStatistics(), nil
}

// RecentMoods returns the last n moods of the profile, newest last.
func (m *Manager) RecentMoods(profileID string, n int) ([]listener.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.profiles.Get(profileID)
	if err != nil {
		return nil, err
	}
	return p.RecentMoods(n), nil
}

// WeeklyReport builds the seven-day report ending on end. A zero end means today.
func (m *Manager) WeeklyReport(profileID string, end time.Time) (stats.WeeklyReport, error) {
	if end.IsZero() {
		end = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.profiles.Get(profileID)
	if err != nil {
		return stats.WeeklyReport{}, err
	}
	return stats.BuildWeeklyReport(p.History(), end), nil
}

// DailySummary summarizes the moods recorded on day. A zero day means today.
func (m *Manager) DailySummary(profileID string, day time.Time) (stats.DaySummary, error) {
	if day.IsZero() {
		day = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.profiles.Get(profileID)
	if err != nil {
		return stats.DaySummary{}, err
	}
	return stats.DailySummary(p.HistoryByDate(day), day), nil
}

// ListeningPatterns counts the profile's moods per time of day.
func (m *Manager) ListeningPatterns(profileID string) (map[listener.TimeOfDay]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.profiles.Get(profileID)
	if err != nil {
		return nil, err
	}
	return stats.ListeningPatterns(p.History()), nil
}

// History returns the profile's moods, oldest first. A non-empty emotion
// keeps only that emotion; a non-zero day keeps only that calendar day.
func (m *Manager) History(profileID, emotion string, day time.Time) ([]listener.HistoryEntry, error) {
	var e mood.Emotion
	if emotion != "" {
		var err error
		if e, err = mood.ParseEmotion(emotion); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.profiles.Get(profileID)
	if err != nil {
		return nil, err
	}
	var entries []listener.HistoryEntry
	switch {
	case e != "" && !day.IsZero():
		for _, h := range p.HistoryByDate(day) {
			if h.Emotion == e {
				entries = append(entries, h)
			}
		}
	case e != "":
		entries = p.HistoryByEmotion(e)
	case !day.IsZero():
		entries = p.HistoryByDate(day)
	default:
		entries = p.History()
	}
	return entries, nil
}

// ExportHistory writes the profile's mood history as CSV.
func (m *Manager) ExportHistory(profileID string, w io.Writer) error {
	m.mu.Lock()
	p, err := m.profiles.Get(profileID)
	var history []listener.HistoryEntry
	if err == nil {
		history = p.History()
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return stats.ExportCSV(w, history)
}

// PlayerStatus returns the current player status.
func (m *Manager) PlayerStatus() playback.Status {
	return m.player.Status()
}

// Play starts or resumes the loaded playlist.
func (m *Manager) Play() error { return m.withPlayer(m.player.Play) }

// Pause pauses playback.
func (m *Manager) Pause() error { return m.withPlayer(m.player.Pause) }

// Resume resumes paused playback.
func (m *Manager) Resume() error { return m.withPlayer(m.player.Resume) }

// Stop stops playback.
func (m *Manager) Stop() error { return m.withPlayer(m.player.Stop) }

// Next skips to the next track.
func (m *Manager) Next() error { return m.withPlayer(m.player.Next) }

// Previous goes back one track.
func (m *Manager) Previous() error { return m.withPlayer(m.player.Previous) }

// PlayAt plays the track at index.
func (m *Manager) PlayAt(index int) error {
	return m.withPlayer(func() error { return m.player.PlayAt(index) })
}

// TogglePlayPause pauses when playing and plays otherwise.
func (m *Manager) TogglePlayPause() error { return m.withPlayer(m.player.TogglePlayPause) }

// Shuffle shuffles the loaded playlist. The current track keeps playing.
func (m *Manager) Shuffle() error {
	return m.withPlayer(func() error { return m.player.Shuffle(nil) })
}

// SortPlaylist sorts the loaded playlist by title, artist, rating or duration.
func (m *Manager) SortPlaylist(key string) error {
	return m.withPlayer(func() error { return m.player.Sort(playlist.SortKey(key)) })
}

// FindTracks searches the loaded playlist by title, artist or mood tag.
func (m *Manager) FindTracks(field, query string) ([]*track.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pl := m.player.Playlist()
	if pl == nil {
		return nil, playback.ErrNoPlaylist
	}
	switch field {
	case SearchByTitle:
		return pl.FindByTitle(query), nil
	case SearchByArtist:
		return pl.FindByArtist(query), nil
	case SearchByMood:
		return pl.TracksByMood(query), nil
	default:
		return nil, errors.Wrapf(ErrUnknownSearchField, "got %q", field)
	}
}

// AdjustVolume raises the volume by delta, or lowers it when delta is negative.
// A zero delta raises it by playback.DefaultVolumeStep.
func (m *Manager) AdjustVolume(delta float64) error {
	if delta < 0 {
		return m.withPlayer(func() error { return m.player.DecreaseVolume(-delta) })
	}
	return m.withPlayer(func() error { return m.player.IncreaseVolume(delta) })
}

// SetVolume sets the volume, clamped to [0,1].
func (m *Manager) SetVolume(v float64) error {
	return m.withPlayer(func() error { return m.player.SetVolume(v) })
}

// SetMuted mutes or unmutes the player.
func (m *Manager) SetMuted(muted bool) error {
	if muted {
		return m.withPlayer(m.player.Mute)
	}
	return m.withPlayer(m.player.Unmute)
}

func (m *Manager) withPlayer(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx.Err() != nil {
		return ErrManagerClosed
	}
	return fn()
}

func (m *Manager) persistLocked(ctx context.Context, p *listener.Profile) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.SaveProfile(ctx, p); err != nil {
		return errors.Wrapf(err, "failed to persist profile %s", p.ID)
	}
	return nil
}

// commitLocked persists next and, once stored, copies it over p.
func (m *Manager) commitLocked(ctx context.Context, p, next *listener.Profile) error {
	if err := m.persistLocked(ctx, next); err != nil {
		return err
	}
	*p = *next
	return nil
}

func (m *Manager) eventLoop() {
	defer close(m.done)
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("panic in event loop: %v", r)
		}
	}()

	for {
		select {
		case <-m.ctx.Done():
			return
		case event := <-m.player.Events():
			m.handlePlaybackEvent(event)
		}
	}
}

func (m *Manager) handlePlaybackEvent(event playback.Event) {
	switch event.Type {
	case playback.EventTrackStarted:
		m.onTrackStarted(event)
	case playback.EventPlaylistEnded:
		zlog.Info().Msgf("playlist finished: %s", event.PlaylistID)
	default:
		zlog.Debug().Msgf("playback event: %s", event.Type)
	}
	m.broadcast(event)
}

func (m *Manager) broadcast(event playback.Event) {
	if m.notifier.SubscriberCount() == 0 {
		return
	}
	n := statusNotification(m.player.Status())
	n.Event = event.Type.String()
	n.State = event.State.String()
	switch event.Type {
	case playback.EventTrackStarted, playback.EventTrackEnded:
		n.Type = notification.TypeTrackChanged
		if event.Track != nil {
			r := event.Track.Record()
			n.Track = &r
		}
	case playback.EventPlaylistLoaded, playback.EventPlaylistEnded, playback.EventPlaylistReordered:
		n.Type = notification.TypePlaylist
	default:
		n.Type = notification.TypeStateChanged
	}
	if event.PlaylistID != "" {
		n.PlaylistID = event.PlaylistID
	}
	m.notifier.Broadcast(n)
}

// onTrackStarted remembers the play in the profile that owns the playlist.
func (m *Manager) onTrackStarted(event playback.Event) {
	if event.Track == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeProfileID == "" || event.PlaylistID != m.activePlaylistID {
		return
	}
	p, err := m.profiles.Get(m.activeProfileID)
	if err != nil {
		zlog.Warn().Err(err).Msg("active profile vanished")
		return
	}
	p.RecordPlay(event.Track.ID())
	if err := m.persistLocked(m.ctx, p); err != nil {
		zlog.Error().Err(err).Msg("failed to persist recent plays")
	}
}
