// Package listener provides the listener Profile domain entity.
package listener

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/osa030/moodbox/internal/domain/track"
)

// DefaultMaxRecentPlays bounds the recent-play list.
const DefaultMaxRecentPlays = 3

var (
	ErrInvalidDisplayName = errors.New("display name must be at least 3 characters")
	ErrInvalidEmail       = errors.New("invalid email format")
)

var validate = validator.New()

// Profile represents a listener with preferences and mood history.
// It is not safe for concurrent use; callers serialize access.
type Profile struct {
	ID          string
	DisplayName string
	Email       string
	CreatedAt   time.Time
	Preferences *Preferences

	history     []HistoryEntry
	recentPlays []string
	maxRecent   int
}

// NewProfile creates a profile. Email may be empty.
func NewProfile(id, displayName, email string) (*Profile, error) {
	p := &Profile{
		ID:          id,
		CreatedAt:   time.Now(),
		Preferences: NewPreferences(),
		maxRecent:   DefaultMaxRecentPlays,
	}
	if err := p.SetDisplayName(displayName); err != nil {
		return nil, err
	}
	if email != "" {
		if err := p.SetEmail(email); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Restore rebuilds a persisted profile without re-validating it.
// The recent-play window is widened to hold every restored play.
func Restore(id, displayName, email string, createdAt time.Time, prefs *Preferences, history []HistoryEntry, recentPlays []string) *Profile {
	if prefs == nil {
		prefs = NewPreferences()
	}
	p := &Profile{
		ID:          id,
		DisplayName: displayName,
		Email:       email,
		CreatedAt:   createdAt,
		Preferences: prefs,
		history:     append([]HistoryEntry(nil), history...),
		maxRecent:   max(DefaultMaxRecentPlays, len(recentPlays)),
	}
	for _, id := range recentPlays {
		p.RecordPlay(id)
	}
	return p
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Preferences = p.Preferences.Clone()
	c.history = append([]HistoryEntry(nil), p.history...)
	c.recentPlays = append([]string(nil), p.recentPlays...)
	return &c
}

// SetDisplayName validates and sets the display name.
func (p *Profile) SetDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if err := validate.Var(name, "min=3"); err != nil {
		return errors.Wrapf(ErrInvalidDisplayName, "got %q", name)
	}
	p.DisplayName = name
	return nil
}

// SetEmail validates and sets the email address.
func (p *Profile) SetEmail(email string) error {
	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return errors.Wrapf(ErrInvalidEmail, "got %q", email)
	}
	p.Email = email
	return nil
}

// SetMaxRecentPlays changes the recent-play window. Values below 1 are ignored.
func (p *Profile) SetMaxRecentPlays(n int) {
	if n < 1 {
		return
	}
	p.maxRecent = n
	if len(p.recentPlays) > n {
		p.recentPlays = p.recentPlays[len(p.recentPlays)-n:]
	}
}

// RecordPlay remembers a played track ID. The oldest entry drops out once the window is full.
func (p *Profile) RecordPlay(trackID string) {
	if trackID == "" {
		return
	}
	for i, id := range p.recentPlays {
		if id == trackID {
			p.recentPlays = append(p.recentPlays[:i], p.recentPlays[i+1:]...)
			break
		}
	}
	p.recentPlays = append(p.recentPlays, trackID)
	if len(p.recentPlays) > p.maxRecent {
		p.recentPlays = p.recentPlays[len(p.recentPlays)-p.maxRecent:]
	}
}

// RecentPlays returns the recently played track IDs, oldest first.
func (p *Profile) RecentPlays() []string {
	return append([]string(nil), p.recentPlays...)
}

// PlayedRecently reports whether trackID is in the recent-play window.
func (p *Profile) PlayedRecently(trackID string) bool {
	for _, id := range p.recentPlays {
		if id == trackID {
			return true
		}
	}
	return false
}

// IsFavoriteGenre reports whether genre is one of the favorites.
func (p *Profile) IsFavoriteGenre(genre string) bool {
	return p.Preferences.HasFavoriteGenre(genre)
}

// PreferredTempo returns the preferred tempo.
func (p *Profile) PreferredTempo() track.Tempo {
	return p.Preferences.PreferredTempo
}

func (p *Profile) String() string {
	return fmt.Sprintf("Listener: %s (ID: %s)", p.DisplayName, p.ID)
}
