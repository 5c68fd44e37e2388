package recommend

import (
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/domain/track"
)

// Catalog is the shared track list read by every strategy.
type Catalog struct {
	mu     sync.RWMutex
	tracks []*track.Track
	byID   map[string]*track.Track
}

// NewCatalog creates a catalog holding tracks.
func NewCatalog(tracks []*track.Track) *Catalog {
	c := &Catalog{}
	c.Update(tracks)
	return c
}

// Update replaces the catalog contents. Later duplicates of an ID are dropped.
// A replaced track keeps the higher of its old and new play counts.
func (c *Catalog) Update(tracks []*track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := make([]*track.Track, 0, len(tracks))
	byID := make(map[string]*track.Track, len(tracks))
	for _, t := range tracks {
		if t == nil {
			continue
		}
		if _, dup := byID[t.ID()]; dup {
			zlog.Warn().Msgf("catalog: duplicate track id %s ignored", t.ID())
			continue
		}
		if prev, ok := c.byID[t.ID()]; ok && prev != t && prev.PlayCount() > t.PlayCount() {
			t.SetPlayCount(prev.PlayCount())
		}
		byID[t.ID()] = t
		list = append(list, t)
	}
	c.tracks = list
	c.byID = byID

	zlog.Info().Msgf("catalog updated with %d tracks", len(list))
}

// Snapshot returns the current track list. The slice is a copy; the tracks are shared.
func (c *Catalog) Snapshot() []*track.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*track.Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// Get returns the track with the given ID.
func (c *Catalog) Get(id string) (*track.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	return t, ok
}

// Len returns the number of tracks.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracks)
}
