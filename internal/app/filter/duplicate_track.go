package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/osa030/moodbox/internal/domain/track"
)

// DuplicateTrackFilter rejects tracks already admitted to the catalog.
// Detects:
// - Exact track ID matches
// - Remasters and alternate versions (normalized title + same main artist)
// Excludes:
// - Cover songs (same title but different artist)
type DuplicateTrackFilter struct{}

// NewDuplicateTrackFilter creates a new duplicate track filter.
func NewDuplicateTrackFilter() *DuplicateTrackFilter {
	return &DuplicateTrackFilter{}
}

func (f *DuplicateTrackFilter) Name() string {
	return "duplicate_track_filter"
}

func (f *DuplicateTrackFilter) Description() string {
	return "Rejects tracks whose ID or remastered/alternate version is already in the catalog; covers are kept"
}

func (f *DuplicateTrackFilter) ReturnCodes() []string {
	return []string{"duplicate_track"}
}

func (f *DuplicateTrackFilter) AppliesTo(source Source) bool {
	return true
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateTrackFilter) ValidateConfig(settings map[string]any) error {
	// No configuration needed
	return nil
}

func (f *DuplicateTrackFilter) Check(ctx context.Context, t *track.Track, admitted []*track.Track) Result {
	title := normalizeTitle(t.Title())
	for _, a := range admitted {
		if a.ID() == t.ID() {
			return Reject("duplicate_track")
		}
		if normalizeTitle(a.Title()) == title && isSameArtist(a.Artist(), t.Artist()) {
			return Reject("duplicate_track")
		}
	}
	return Accept()
}

var (
	remasterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
		regexp.MustCompile(`\s*\(remaster(ed)?\s*\d{0,4}\)`),     // "(Remastered 2023)"
		regexp.MustCompile(`\s*\[remaster(ed)?\s*\d{0,4}\]`),     // "[Remastered]"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
		regexp.MustCompile(`\s*\(.*?remaster.*?\)`),
		regexp.MustCompile(`\s*\[.*?remaster.*?\]`),
	}
	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(.*?version\)`), // "(Single Version)"
		regexp.MustCompile(`\s*\(.*?edit\)`),    // "(Radio Edit)"
		regexp.MustCompile(`\s*\(live\)`),
		regexp.MustCompile(`\s+-\s*live$`),
		regexp.MustCompile(`\s*-?\s*radio\s+edit`),
		regexp.MustCompile(`\s*-?\s*single\s+version`),
	}
	spaces = regexp.MustCompile(`\s+`)

	artistSeparators = []string{",", " & ", " feat.", " feat ", " ft.", " x "}
)

// normalizeTitle strips remaster and version markers from a title.
func normalizeTitle(title string) string {
	normalized := strings.ToLower(title)
	for _, p := range remasterPatterns {
		normalized = p.ReplaceAllString(normalized, "")
	}
	for _, p := range versionPatterns {
		normalized = p.ReplaceAllString(normalized, "")
	}
	normalized = spaces.ReplaceAllString(strings.TrimSpace(normalized), " ")
	return strings.TrimRight(normalized, " -")
}

// mainArtist returns the first credited artist.
func mainArtist(artist string) string {
	a := strings.ToLower(artist)
	for _, sep := range artistSeparators {
		if i := strings.Index(a, sep); i >= 0 {
			a = a[:i]
		}
	}
	return strings.TrimSpace(a)
}

func isSameArtist(a, b string) bool {
	ma, mb := mainArtist(a), mainArtist(b)
	if ma == "" || mb == "" {
		return false
	}
	return ma == mb
}

func init() {
	Register("duplicate_track_filter", func() Filter {
		return NewDuplicateTrackFilter()
	})
}
