package recommend

import (
	"fmt"
	"sort"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/domain/listener"
	"github.com/osa030/moodbox/internal/domain/mood"
	"github.com/osa030/moodbox/internal/domain/playlist"
	"github.com/osa030/moodbox/internal/domain/track"
)

// SimpleStrategy ranks mood-matching tracks by Score alone.
type SimpleStrategy struct {
	catalog *Catalog
}

// NewSimpleStrategy creates a simple strategy over c.
func NewSimpleStrategy(c *Catalog) *SimpleStrategy {
	return &SimpleStrategy{catalog: c}
}

func (s *SimpleStrategy) Name() string {
	return "simple"
}

func (s *SimpleStrategy) Description() string {
	return "Rule-based: tag match, tempo fit and rating"
}

func (s *SimpleStrategy) Configure(settings map[string]any) error {
	return nil
}

func (s *SimpleStrategy) Recommend(m mood.Record, _ *listener.Profile, count int) (*playlist.Playlist, error) {
	pl, err := newPlaylist(fmt.Sprintf("%s Mix", m.Emotion.Title()), m)
	if err != nil || count <= 0 {
		return pl, err
	}

	candidates := matching(s.catalog.Snapshot(), m)
	scores := make(map[string]int, len(candidates))
	for _, t := range candidates {
		scores[t.ID()] = Score(t, m)
	}
	ranked := append([]*track.Track(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].ID()] > scores[ranked[j].ID()]
	})

	if len(ranked) > count {
		ranked = ranked[:count]
	}
	pl.AddAll(ranked)
	zlog.Debug().Msgf("simple: %d/%d tracks for %s", pl.Len(), len(candidates), m.Emotion)
	return pl, nil
}

func init() {
	Register("simple", func(c *Catalog) Recommender {
		return NewSimpleStrategy(c)
	})
}
