// Package playlist provides the Playlist domain entity.
package playlist

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/osa030/moodbox/internal/domain/mood"
	"github.com/osa030/moodbox/internal/domain/track"
)

var (
	ErrEmptyName       = errors.New("playlist name must not be empty")
	ErrIndexOutOfRange = errors.New("playlist index out of range")
	ErrUnknownSortKey  = errors.New("unknown sort key")
)

// SortKey selects the ordering used by SortBy.
type SortKey string

const (
	SortByTitle    SortKey = "title"
	SortByArtist   SortKey = "artist"
	SortByRating   SortKey = "rating"
	SortByDuration SortKey = "duration"
)

// Playlist is an ordered, navigable list of catalog tracks.
// It is not safe for concurrent use.
type Playlist struct {
	ID        string
	Name      string
	Mood      *mood.Record // mood the playlist was generated for, may be nil
	CreatedAt time.Time

	tracks  []*track.Track
	current int
}

// New creates an empty playlist.
func New(name string, m *mood.Record) (*Playlist, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	return &Playlist{
		ID:        uuid.New().String(),
		Name:      name,
		Mood:      m,
		CreatedAt: time.Now(),
	}, nil
}

// SetName renames the playlist.
func (p *Playlist) SetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	p.Name = name
	return nil
}

// Tracks returns a copy of the track list.
func (p *Playlist) Tracks() []*track.Track {
	out := make([]*track.Track, len(p.tracks))
	copy(out, p.tracks)
	return out
}

// Len returns the number of tracks.
func (p *Playlist) Len() int { return len(p.tracks) }

// IsEmpty reports whether the playlist has no tracks.
func (p *Playlist) IsEmpty() bool { return len(p.tracks) == 0 }

// CurrentIndex returns the cursor position.
func (p *Playlist) CurrentIndex() int { return p.current }

// TrackIDs returns all track IDs in order.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.tracks))
	for i, t := range p.tracks {
		ids[i] = t.ID()
	}
	return ids
}

// Contains reports whether a track with the given ID is in the playlist.
func (p *Playlist) Contains(id string) bool {
	return p.indexOf(id) >= 0
}

func (p *Playlist) indexOf(id string) int {
	for i, t := range p.tracks {
		if t.ID() == id {
			return i
		}
	}
	return -1
}

// Add appends a track. It returns false if the track is nil or already present.
func (p *Playlist) Add(t *track.Track) bool {
	if t == nil || p.Contains(t.ID()) {
		return false
	}
	p.tracks = append(p.tracks, t)
	return true
}

// AddAll appends tracks in order and returns how many were added.
func (p *Playlist) AddAll(tracks []*track.Track) int {
	n := 0
	for _, t := range tracks {
		if p.Add(t) {
			n++
		}
	}
	return n
}

// Remove removes the track with the given ID. It returns false if absent.
func (p *Playlist) Remove(id string) bool {
	i := p.indexOf(id)
	if i < 0 {
		return false
	}
	p.removeAt(i)
	return true
}

// RemoveAt removes the track at index.
func (p *Playlist) RemoveAt(index int) error {
	if index < 0 || index >= len(p.tracks) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d, length %d", index, len(p.tracks))
	}
	p.removeAt(index)
	return nil
}

func (p *Playlist) removeAt(i int) {
	p.tracks = append(p.tracks[:i], p.tracks[i+1:]...)
	if p.current >= len(p.tracks) {
		p.current = max(len(p.tracks)-1, 0)
	}
}

// Clear removes all tracks and resets the cursor.
func (p *Playlist) Clear() {
	p.tracks = nil
	p.current = 0
}

// Current returns the track under the cursor, or nil if the playlist is empty.
func (p *Playlist) Current() *track.Track {
	if p.current < 0 || p.current >= len(p.tracks) {
		return nil
	}
	return p.tracks[p.current]
}

// Next advances the cursor. It returns nil without moving at the end.
func (p *Playlist) Next() *track.Track {
	if !p.HasNext() {
		return nil
	}
	p.current++
	return p.tracks[p.current]
}

// Previous moves the cursor back. It returns nil without moving at the start.
func (p *Playlist) Previous() *track.Track {
	if !p.HasPrevious() {
		return nil
	}
	p.current--
	return p.tracks[p.current]
}

func (p *Playlist) HasNext() bool     { return p.current < len(p.tracks)-1 }
func (p *Playlist) HasPrevious() bool { return p.current > 0 }

// JumpTo moves the cursor to index and returns the track there.
func (p *Playlist) JumpTo(index int) (*track.Track, error) {
	if index < 0 || index >= len(p.tracks) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "index %d, length %d", index, len(p.tracks))
	}
	p.current = index
	return p.tracks[index], nil
}

// Reset moves the cursor back to the first track.
func (p *Playlist) Reset() { p.current = 0 }

// Shuffle permutes the tracks uniformly and resets the cursor.
// A nil rng uses the global source.
func (p *Playlist) Shuffle(rng *rand.Rand) {
	swap := func(i, j int) { p.tracks[i], p.tracks[j] = p.tracks[j], p.tracks[i] }
	if rng == nil {
		rand.Shuffle(len(p.tracks), swap)
	} else {
		rng.Shuffle(len(p.tracks), swap)
	}
	p.current = 0
}

// SortBy reorders the tracks stably and resets the cursor.
// Rating sorts descending; the other keys ascending.
func (p *Playlist) SortBy(key SortKey) error {
	var less func(a, b *track.Track) bool
	switch key {
	case SortByTitle:
		less = func(a, b *track.Track) bool { return strings.ToLower(a.Title()) < strings.ToLower(b.Title()) }
	case SortByArtist:
		less = func(a, b *track.Track) bool { return strings.ToLower(a.Artist()) < strings.ToLower(b.Artist()) }
	case SortByRating:
		less = func(a, b *track.Track) bool { return a.Rating() > b.Rating() }
	case SortByDuration:
		less = func(a, b *track.Track) bool { return a.Duration() < b.Duration() }
	default:
		return errors.Wrapf(ErrUnknownSortKey, "%q", key)
	}
	sort.SliceStable(p.tracks, func(i, j int) bool { return less(p.tracks[i], p.tracks[j]) })
	p.current = 0
	return nil
}

// TotalDuration returns the summed duration of all tracks.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.tracks {
		total += t.Duration()
	}
	return total
}

// FormattedTotalDuration returns the total duration as HH:MM:SS or MM:SS.
func (p *Playlist) FormattedTotalDuration() string {
	return track.FormatDuration(p.TotalDuration())
}

// AverageRating returns the mean rating rounded to two decimals, 0 when empty.
func (p *Playlist) AverageRating() float64 {
	if len(p.tracks) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, t := range p.tracks {
		sum = sum.Add(decimal.NewFromFloat(t.Rating()))
	}
	avg, _ := sum.Div(decimal.NewFromInt(int64(len(p.tracks)))).Round(2).Float64()
	return avg
}

// Genres returns the sorted distinct genres.
func (p *Playlist) Genres() []string {
	set := make(map[string]struct{})
	for _, t := range p.tracks {
		set[t.Genre()] = struct{}{}
	}
	return sortedKeys(set)
}

// MoodTags returns the sorted union of all track tags.
func (p *Playlist) MoodTags() []string {
	set := make(map[string]struct{})
	for _, t := range p.tracks {
		for _, tag := range t.MoodTags() {
			set[tag] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FindByTitle returns tracks whose title contains q, case-insensitively.
func (p *Playlist) FindByTitle(q string) []*track.Track {
	return p.find(func(t *track.Track) string { return t.Title() }, q)
}

// FindByArtist returns tracks whose artist contains q, case-insensitively.
func (p *Playlist) FindByArtist(q string) []*track.Track {
	return p.find(func(t *track.Track) string { return t.Artist() }, q)
}

func (p *Playlist) find(field func(*track.Track) string, q string) []*track.Track {
	q = strings.ToLower(q)
	var out []*track.Track
	for _, t := range p.tracks {
		if strings.Contains(strings.ToLower(field(t)), q) {
			out = append(out, t)
		}
	}
	return out
}

// TracksByMood returns tracks tagged with the given tag.
func (p *Playlist) TracksByMood(tag string) []*track.Track {
	var out []*track.Track
	for _, t := range p.tracks {
		if t.HasTag(tag) {
			out = append(out, t)
		}
	}
	return out
}

// Snapshot is the serialized form of a playlist.
type Snapshot struct {
	PlaylistID             string         `json:"playlist_id"`
	Name                   string         `json:"name"`
	SongCount              int            `json:"song_count"`
	Songs                  []track.Record `json:"songs"`
	CreatedForEmotion      *mood.Snapshot `json:"created_for_emotion"`
	CreatedAt              string         `json:"created_at"`
	TotalDuration          int            `json:"total_duration"`
	TotalDurationFormatted string         `json:"total_duration_formatted"`
	AverageRating          float64        `json:"average_rating"`
	Genres                 []string       `json:"genres"`
}

// Snapshot returns the serialized form of the playlist.
func (p *Playlist) Snapshot() Snapshot {
	songs := make([]track.Record, len(p.tracks))
	for i, t := range p.tracks {
		songs[i] = t.Record()
	}
	s := Snapshot{
		PlaylistID:             p.ID,
		Name:                   p.Name,
		SongCount:              len(p.tracks),
		Songs:                  songs,
		CreatedAt:              p.CreatedAt.Format(time.RFC3339),
		TotalDuration:          int(p.TotalDuration() / time.Second),
		TotalDurationFormatted: p.FormattedTotalDuration(),
		AverageRating:          p.AverageRating(),
		Genres:                 p.Genres(),
	}
	if p.Mood != nil {
		ms := p.Mood.Snapshot()
		s.CreatedForEmotion = &ms
	}
	return s
}
