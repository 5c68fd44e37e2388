package filter

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/domain/track"
)

// Settings is the per-filter configuration consumed by Build.
type Settings struct {
	Enabled  bool
	Settings map[string]any
}

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Build creates a chain of the enabled filters in name order, validating each configuration.
func Build(configs map[string]Settings) (*Chain, error) {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	chain := NewChain()
	for _, name := range names {
		cfg := configs[name]
		if !cfg.Enabled {
			continue
		}
		factory, ok := registry[name]
		if !ok {
			return nil, errors.Newf("unknown filter %q", name)
		}
		f := factory()
		if err := f.ValidateConfig(cfg.Settings); err != nil {
			return nil, errors.Wrapf(err, "invalid config for filter %s", name)
		}
		chain.Add(f)
		zlog.Info().Msgf("filter enabled: %s", name)
	}
	return chain, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters applying to source against t.
// Returns immediately if any filter rejects the track.
func (c *Chain) Execute(ctx context.Context, t *track.Track, admitted []*track.Track, source Source) Result {
	for _, f := range c.filters {
		if !f.AppliesTo(source) {
			continue
		}

		result := f.Check(ctx, t, admitted)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Report summarizes an Admit run.
type Report struct {
	Admitted int
	Rejected map[string]int // rejection code -> count
}

// Admit runs the chain over tracks in order and returns the accepted ones.
func (c *Chain) Admit(ctx context.Context, tracks []*track.Track, source Source) ([]*track.Track, Report) {
	admitted := make([]*track.Track, 0, len(tracks))
	report := Report{Rejected: make(map[string]int)}
	for _, t := range tracks {
		result := c.Execute(ctx, t, admitted, source)
		if !result.Accepted {
			report.Rejected[result.Code]++
			zlog.Debug().Msgf("track rejected: %s (%s)", t, result.Code)
			continue
		}
		admitted = append(admitted, t)
	}
	report.Admitted = len(admitted)
	return admitted, report
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
