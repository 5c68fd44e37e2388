// Package importer builds catalog tracks from Spotify playlists tagged with Last.fm tags.
package importer

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/osa030/moodbox/internal/app/filter"
	"github.com/osa030/moodbox/internal/domain/mood"
	"github.com/osa030/moodbox/internal/domain/track"
	"github.com/osa030/moodbox/internal/infra/lastfm"
	"github.com/osa030/moodbox/internal/infra/spotify"
)

// Tempo bucket boundaries in BPM.
const (
	SlowBelowBPM   = 90
	MediumBelowBPM = 120
)

// DefaultMaxTags is the number of Last.fm tags considered per track.
const DefaultMaxTags = 5

// TrackSource supplies playlist tracks and their tempos.
type TrackSource interface {
	PlaylistTracks(ctx context.Context, playlistURL string) ([]spotify.Candidate, error)
	Tempos(ctx context.Context, trackIDs []string) (map[string]float64, error)
}

// TagSource supplies descriptive tags for a track.
type TagSource interface {
	GetTopTags(ctx context.Context, trackName, artistName string, limit int) ([]lastfm.Tag, error)
}

// Importer converts playlist tracks into catalog tracks.
type Importer struct {
	tracks  TrackSource
	tags    TagSource
	maxTags int
}

// New creates an importer. tags may be nil, in which case tracks get no tags and an Unknown genre.
func New(tracks TrackSource, tags TagSource, maxTags int) *Importer {
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}
	return &Importer{tracks: tracks, tags: tags, maxTags: maxTags}
}

// TempoForBPM buckets a BPM value. Unknown (zero or negative) values are medium.
func TempoForBPM(bpm float64) track.Tempo {
	switch {
	case bpm <= 0:
		return track.TempoMedium
	case bpm < SlowBelowBPM:
		return track.TempoSlow
	case bpm < MediumBelowBPM:
		return track.TempoMedium
	default:
		return track.TempoFast
	}
}

// RatingForPopularity maps Spotify popularity (0..100) onto the 0..5 rating scale.
func RatingForPopularity(popularity int) float64 {
	p := min(max(popularity, 0), 100)
	r, _ := decimal.NewFromInt(int64(p)).Div(decimal.NewFromInt(20)).Round(1).Float64()
	return r
}

var genreCaser = cases.Title(language.Und)

// splitTags separates mood tags from the genre. The first non-mood tag becomes the genre.
func splitTags(tags []lastfm.Tag) (moods []string, genre string) {
	for _, t := range tags {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" {
			continue
		}
		if mood.IsMoodTag(name) {
			moods = append(moods, name)
			continue
		}
		if genre == "" {
			genre = genreCaser.String(name)
		}
	}
	if genre == "" {
		genre = track.DefaultGenre
	}
	return moods, genre
}

// Import fetches the playlist and returns one track per playable item.
// Tempo and tag lookups that fail are logged and the track keeps its defaults.
func (im *Importer) Import(ctx context.Context, playlistURL string) ([]*track.Track, error) {
	candidates, err := im.tracks.PlaylistTracks(ctx, playlistURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch playlist")
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	tempos, err := im.tracks.Tempos(ctx, ids)
	if err != nil {
		zlog.Warn().Err(err).Msg("audio features unavailable, tempo defaults to medium")
		tempos = map[string]float64{}
	}

	tracks := make([]*track.Track, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := im.convert(ctx, c, tempos[c.ID])
		if err != nil {
			zlog.Warn().Msgf("import: skipping %s: %v", c.ID, err)
			continue
		}
		tracks = append(tracks, t)
	}

	zlog.Info().Msgf("imported %d of %d playlist tracks", len(tracks), len(candidates))
	return tracks, nil
}

func (im *Importer) convert(ctx context.Context, c spotify.Candidate, bpm float64) (*track.Track, error) {
	t, err := track.New(c.ID, c.Title, strings.Join(c.Artists, ", "), c.URL)
	if err != nil {
		return nil, err
	}
	if err := t.SetTempo(string(TempoForBPM(bpm))); err != nil {
		return nil, err
	}
	t.SetDuration(c.Duration)
	if err := t.SetRating(RatingForPopularity(c.Popularity)); err != nil {
		return nil, err
	}

	if im.tags == nil {
		return t, nil
	}
	tags, err := im.tags.GetTopTags(ctx, c.Title, c.MainArtist(), im.maxTags)
	if err != nil {
		zlog.Warn().Msgf("import: no tags for %s: %v", t, err)
		return t, nil
	}
	moods, genre := splitTags(tags)
	for _, m := range moods {
		t.AddMoodTag(m)
	}
	t.SetGenre(genre)
	return t, nil
}

// Merge admits imported tracks into an existing catalog through the filter chain.
// Existing tracks are kept as they are; imported ones are checked against everything admitted before them.
func Merge(ctx context.Context, chain *filter.Chain, existing, imported []*track.Track) ([]*track.Track, filter.Report) {
	merged := append(make([]*track.Track, 0, len(existing)+len(imported)), existing...)
	report := filter.Report{Rejected: make(map[string]int)}
	for _, t := range imported {
		result := chain.Execute(ctx, t, merged, filter.SourceImport)
		if !result.Accepted {
			report.Rejected[result.Code]++
			zlog.Debug().Msgf("import rejected: %s (%s)", t, result.Code)
			continue
		}
		merged = append(merged, t)
		report.Admitted++
	}
	return merged, report
}
