// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultGenre is assigned when a track has no genre.
const DefaultGenre = "Unknown"

// MaxRating is the upper bound of a track rating.
const MaxRating = 5.0

var (
	ErrInvalidRating = errors.New("rating must be between 0 and 5")
	ErrInvalidTempo  = errors.New("tempo must be slow, medium or fast")
	ErrEmptyField    = errors.New("field must not be empty")
)

// Tempo is the coarse speed class of a track.
type Tempo string

const (
	TempoSlow   Tempo = "slow"
	TempoMedium Tempo = "medium"
	TempoFast   Tempo = "fast"
)

// ParseTempo validates and normalizes a tempo string.
func ParseTempo(s string) (Tempo, error) {
	switch t := Tempo(strings.ToLower(strings.TrimSpace(s))); t {
	case TempoSlow, TempoMedium, TempoFast:
		return t, nil
	default:
		return "", errors.Wrapf(ErrInvalidTempo, "got %q", s)
	}
}

// Track represents an audio file in the catalog.
// Identity is fixed at construction; metadata setters validate their input.
// Tracks are shared by pointer and must not be copied.
type Track struct {
	id        string
	title     string
	artist    string
	filePath  string
	tags      map[string]struct{}
	tempo     Tempo
	genre     string
	duration  time.Duration
	playCount atomic.Int64 // bumped by the player goroutine
	rating    float64
}

// New creates a track with the given identity and default metadata
// (no tags, medium tempo, Unknown genre, zero rating).
func New(id, title, artist, filePath string) (*Track, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.Wrap(ErrEmptyField, "id")
	}
	t := &Track{
		id:       id,
		filePath: filePath,
		tags:     make(map[string]struct{}),
		tempo:    TempoMedium,
		genre:    DefaultGenre,
	}
	if err := t.SetTitle(title); err != nil {
		return nil, err
	}
	if err := t.SetArtist(artist); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Track) ID() string              { return t.id }
func (t *Track) Title() string           { return t.title }
func (t *Track) Artist() string          { return t.artist }
func (t *Track) FilePath() string        { return t.filePath }
func (t *Track) Tempo() Tempo            { return t.tempo }
func (t *Track) Genre() string           { return t.genre }
func (t *Track) Duration() time.Duration { return t.duration }
func (t *Track) PlayCount() int          { return int(t.playCount.Load()) }
func (t *Track) Rating() float64         { return t.rating }

// SetTitle updates the title.
func (t *Track) SetTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.Wrap(ErrEmptyField, "title")
	}
	t.title = title
	return nil
}

// SetArtist updates the artist.
func (t *Track) SetArtist(artist string) error {
	if strings.TrimSpace(artist) == "" {
		return errors.Wrap(ErrEmptyField, "artist")
	}
	t.artist = artist
	return nil
}

// SetTempo updates the tempo class.
func (t *Track) SetTempo(s string) error {
	tempo, err := ParseTempo(s)
	if err != nil {
		return err
	}
	t.tempo = tempo
	return nil
}

// SetGenre updates the genre. An empty genre resets it to DefaultGenre.
func (t *Track) SetGenre(genre string) {
	if strings.TrimSpace(genre) == "" {
		genre = DefaultGenre
	}
	t.genre = genre
}

// SetDuration updates the duration. Negative durations are clamped to zero.
func (t *Track) SetDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.duration = d
}

// SetRating updates the rating, which must be within [0,5].
func (t *Track) SetRating(r float64) error {
	if r < 0 || r > MaxRating {
		return errors.Wrapf(ErrInvalidRating, "got %.2f", r)
	}
	t.rating = r
	return nil
}

// IncrementPlayCount records one more play.
func (t *Track) IncrementPlayCount() {
	t.playCount.Add(1)
}

// SetPlayCount overwrites the play count. Negative values are clamped to zero.
func (t *Track) SetPlayCount(n int) {
	t.playCount.Store(int64(max(0, n)))
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// AddMoodTag adds a tag. Tags are stored lower-cased and trimmed; empty tags are ignored.
func (t *Track) AddMoodTag(tag string) {
	n := normalizeTag(tag)
	if n == "" {
		return
	}
	t.tags[n] = struct{}{}
}

// RemoveMoodTag removes a tag if present.
func (t *Track) RemoveMoodTag(tag string) {
	delete(t.tags, normalizeTag(tag))
}

// HasTag reports whether the track carries the tag (case-insensitive).
func (t *Track) HasTag(tag string) bool {
	_, ok := t.tags[normalizeTag(tag)]
	return ok
}

// MoodTags returns the tags in sorted order.
func (t *Track) MoodTags() []string {
	tags := make([]string, 0, len(t.tags))
	for tag := range t.tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// FormattedDuration returns the duration as MM:SS.
func (t *Track) FormattedDuration() string {
	return FormatDuration(t.duration)
}

// FormatDuration formats d as MM:SS, or HH:MM:SS once it reaches an hour.
func FormatDuration(d time.Duration) string {
	secs := int(d / time.Second)
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func (t *Track) String() string {
	return fmt.Sprintf("%s - %s (%s)", t.title, t.artist, t.genre)
}
