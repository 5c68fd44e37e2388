// Package filter provides the admission filter chain run when the catalog is loaded.
package filter

import (
	"context"

	"github.com/osa030/moodbox/internal/domain/track"
)

// Source identifies where a track being admitted comes from.
type Source string

const (
	SourceCatalogFile Source = "catalog_file"
	SourceImport      Source = "import"
)

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "file_not_found", "duplicate_track"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for catalog admission filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter configuration.
	ValidateConfig(settings map[string]any) error
	// AppliesTo returns true if this filter should be applied to tracks from source.
	AppliesTo(source Source) bool
	// Check decides whether t may join the catalog. admitted holds the tracks accepted so far.
	Check(ctx context.Context, t *track.Track, admitted []*track.Track) Result
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}
