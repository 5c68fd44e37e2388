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

// guestName is used in playlist names when no profile is given.
const guestName = "Guest"

// PersonalizedConfig represents the configuration for PersonalizedStrategy.
type PersonalizedConfig struct {
	GenreBonus        float64 `yaml:"genre_bonus" mapstructure:"genre_bonus" default:"15" validate:"gte=0"`
	TempoBonus        float64 `yaml:"tempo_bonus" mapstructure:"tempo_bonus" default:"10" validate:"gte=0"`
	RatingWeight      float64 `yaml:"rating_weight" mapstructure:"rating_weight" default:"5" validate:"gte=0"`
	DiversityGenres   int     `yaml:"diversity_genres" mapstructure:"diversity_genres" default:"3" validate:"gte=1"`
	RecentPlayPenalty float64 `yaml:"recent_play_penalty" mapstructure:"recent_play_penalty" default:"10" validate:"gte=0"`
}

// PersonalizedStrategy adds listener preferences to the base score and
// spreads the selection over several genres.
type PersonalizedStrategy struct {
	catalog *Catalog
	config  PersonalizedConfig
}

// NewPersonalizedStrategy creates a personalized strategy over c with default settings.
func NewPersonalizedStrategy(c *Catalog) *PersonalizedStrategy {
	s := &PersonalizedStrategy{catalog: c}
	_ = s.Configure(nil)
	return s
}

func (s *PersonalizedStrategy) Name() string {
	return "personalized"
}

func (s *PersonalizedStrategy) Description() string {
	return "Preference-aware: favorite genres, preferred tempo, recent plays and genre diversity"
}

func (s *PersonalizedStrategy) Configure(settings map[string]any) error {
	var config PersonalizedConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	s.config = config
	zlog.Debug().Msgf("personalized strategy config: %+v", config)
	return nil
}

// Config returns the active settings.
func (s *PersonalizedStrategy) Config() PersonalizedConfig {
	return s.config
}

// score returns the preference-adjusted score of t, clamped to [0,100].
func (s *PersonalizedStrategy) score(t *track.Track, m mood.Record, p *listener.Profile) float64 {
	total := float64(Score(t, m)) + t.Rating()*s.config.RatingWeight
	if p != nil {
		if p.IsFavoriteGenre(t.Genre()) {
			total += s.config.GenreBonus
		}
		if t.Tempo() == p.PreferredTempo() {
			total += s.config.TempoBonus
		}
		if p.PlayedRecently(t.ID()) {
			total -= s.config.RecentPlayPenalty
		}
	}
	return max(0, min(maxScore, total))
}

func (s *PersonalizedStrategy) Recommend(m mood.Record, p *listener.Profile, count int) (*playlist.Playlist, error) {
	name := guestName
	if p != nil {
		name = p.DisplayName
	}
	pl, err := newPlaylist(fmt.Sprintf("Personal Mix for %s: %s", name, m.Emotion.Title()), m)
	if err != nil || count <= 0 {
		return pl, err
	}

	candidates := matching(s.catalog.Snapshot(), m)
	scores := make(map[string]float64, len(candidates))
	for _, t := range candidates {
		scores[t.ID()] = s.score(t, m, p)
	}
	ranked := append([]*track.Track(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].ID()] > scores[ranked[j].ID()]
	})

	pl.AddAll(s.selectDiverse(ranked, count))
	zlog.Debug().Msgf("personalized: %d/%d tracks for %s (%s)", pl.Len(), len(candidates), m.Emotion, name)
	return pl, nil
}

// selectDiverse takes tracks in rank order, skipping repeated genres until
// DiversityGenres distinct genres are in, then fills from rank order.
func (s *PersonalizedStrategy) selectDiverse(ranked []*track.Track, count int) []*track.Track {
	selected := make([]*track.Track, 0, count)
	taken := make(map[string]bool)
	genres := make(map[string]bool)

	for _, t := range ranked {
		if len(selected) >= count {
			break
		}
		if !genres[t.Genre()] || len(genres) >= s.config.DiversityGenres {
			selected = append(selected, t)
			taken[t.ID()] = true
			genres[t.Genre()] = true
		}
	}
	for _, t := range ranked {
		if len(selected) >= count {
			break
		}
		if !taken[t.ID()] {
			selected = append(selected, t)
			taken[t.ID()] = true
		}
	}
	return selected
}

func init() {
	Register("personalized", func(c *Catalog) Recommender {
		return NewPersonalizedStrategy(c)
	})
}
