// Package registry holds the in-memory set of listener profiles.
package registry

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/osa030/moodbox/internal/domain/listener"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRegistry manages listener profiles with thread-safe access.
type ProfileRegistry struct {
	mu       sync.RWMutex
	profiles map[string]*listener.Profile
}

// NewProfileRegistry creates an empty registry.
func NewProfileRegistry() *ProfileRegistry {
	return &ProfileRegistry{
		profiles: make(map[string]*listener.Profile),
	}
}

// Create builds a new profile with a generated ID and registers it.
func (r *ProfileRegistry) Create(displayName, email string) (*listener.Profile, error) {
	p, err := listener.NewProfile(uuid.New().String(), displayName, email)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = p
	return p, nil
}

// Put registers an existing profile, replacing any profile with the same ID.
func (r *ProfileRegistry) Put(p *listener.Profile) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = p
}

// Get retrieves a profile by ID.
func (r *ProfileRegistry) Get(id string) (*listener.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, errors.Wrapf(ErrProfileNotFound, "id %q", id)
	}
	return p, nil
}

// Remove deletes a profile. It reports whether the profile existed.
func (r *ProfileRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[id]; !ok {
		return false
	}
	delete(r.profiles, id)
	return true
}

// All returns all profiles ordered by creation time.
func (r *ProfileRegistry) All() []*listener.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*listener.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Count returns the number of profiles.
func (r *ProfileRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}
