// Package recommend turns a mood into a playlist drawn from the catalog.
package recommend

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/moodbox/internal/domain/listener"
	"github.com/osa030/moodbox/internal/domain/mood"
	"github.com/osa030/moodbox/internal/domain/playlist"
)

var (
	ErrUnknownStrategy = errors.New("unknown recommender strategy")
	ErrInvalidSettings = errors.New("invalid strategy settings")
)

// Recommender builds playlists for a mood.
type Recommender interface {
	// Name returns the strategy name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// Configure decodes and validates strategy settings.
	Configure(settings map[string]any) error
	// Recommend returns at most count tracks for m. p may be nil.
	Recommend(m mood.Record, p *listener.Profile, count int) (*playlist.Playlist, error)
}

// registry holds registered strategy factories.
var registry = make(map[string]func(c *Catalog) Recommender)

// Register registers a strategy factory.
func Register(name string, factory func(c *Catalog) Recommender) {
	registry[name] = factory
}

// GetRegistered returns all registered strategy factories.
func GetRegistered() map[string]func(c *Catalog) Recommender {
	return registry
}

// Names returns the registered strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates and configures the named strategy.
func New(name string, c *Catalog, settings map[string]any) (Recommender, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStrategy, "%q", name)
	}
	r := factory(c)
	if err := r.Configure(settings); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "strategy %s", name), ErrInvalidSettings)
	}
	return r, nil
}

// decodeSettings applies defaults to cfg, decodes settings over them and validates it.
// An explicit zero in settings overrides the default.
func decodeSettings(settings map[string]any, cfg any) error {
	if err := defaults.Set(cfg); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}

func newPlaylist(name string, m mood.Record) (*playlist.Playlist, error) {
	p, err := playlist.New(name, &m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create playlist")
	}
	return p, nil
}
