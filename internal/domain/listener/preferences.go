package listener

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/osa030/moodbox/internal/domain/track"
)

// TimeOfDay is a listening-hour bucket.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// TimesOfDay lists the buckets in tie-break order.
var TimesOfDay = []TimeOfDay{Morning, Afternoon, Evening, Night}

// TimeOfDayForHour buckets an hour of the day (0-23).
func TimeOfDayForHour(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}

// Preferences holds a listener's taste settings.
type Preferences struct {
	FavoriteGenres []string
	PreferredTempo track.Tempo
	ListeningHours map[TimeOfDay]int
}

// NewPreferences returns fresh defaults: no favorites, medium tempo, empty histogram.
func NewPreferences() *Preferences {
	hours := make(map[TimeOfDay]int, len(TimesOfDay))
	for _, t := range TimesOfDay {
		hours[t] = 0
	}
	return &Preferences{
		PreferredTempo: track.TempoMedium,
		ListeningHours: hours,
	}
}

var titleCaser = cases.Title(language.Und)

func normalizeGenre(genre string) string {
	return titleCaser.String(strings.TrimSpace(genre))
}

// AddFavoriteGenre adds genre in title case. Duplicates and empty names are ignored.
func (p *Preferences) AddFavoriteGenre(genre string) {
	g := normalizeGenre(genre)
	if g == "" || p.HasFavoriteGenre(g) {
		return
	}
	p.FavoriteGenres = append(p.FavoriteGenres, g)
}

// RemoveFavoriteGenre removes genre if present.
func (p *Preferences) RemoveFavoriteGenre(genre string) {
	g := normalizeGenre(genre)
	for i, f := range p.FavoriteGenres {
		if f == g {
			p.FavoriteGenres = append(p.FavoriteGenres[:i], p.FavoriteGenres[i+1:]...)
			return
		}
	}
}

// HasFavoriteGenre reports whether genre is a favorite, ignoring case.
func (p *Preferences) HasFavoriteGenre(genre string) bool {
	g := normalizeGenre(genre)
	for _, f := range p.FavoriteGenres {
		if f == g {
			return true
		}
	}
	return false
}

// SetPreferredTempo validates and sets the preferred tempo.
func (p *Preferences) SetPreferredTempo(s string) error {
	t, err := track.ParseTempo(s)
	if err != nil {
		return err
	}
	p.PreferredTempo = t
	return nil
}

// FavoriteTime returns the bucket with the most recorded moods, or "unknown" if none.
func (p *Preferences) FavoriteTime() string {
	best, bestCount := TimeOfDay(""), 0
	for _, t := range TimesOfDay {
		if c := p.ListeningHours[t]; c > bestCount {
			best, bestCount = t, c
		}
	}
	if bestCount == 0 {
		return "unknown"
	}
	return string(best)
}

// Clone returns a deep copy of the preferences.
func (p *Preferences) Clone() *Preferences {
	hours := make(map[TimeOfDay]int, len(p.ListeningHours))
	for t, n := range p.ListeningHours {
		hours[t] = n
	}
	return &Preferences{
		FavoriteGenres: append([]string(nil), p.FavoriteGenres...),
		PreferredTempo: p.PreferredTempo,
		ListeningHours: hours,
	}
}
