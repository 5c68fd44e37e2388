package importer

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/moodbox/internal/app/filter"
	"github.com/osa030/moodbox/internal/domain/track"
	"github.com/osa030/moodbox/internal/infra/lastfm"
	"github.com/osa030/moodbox/internal/infra/spotify"
)

type fakeTracks struct {
	candidates []spotify.Candidate
	tempos     map[string]float64
	err        error
	tempoErr   error
}

func (f *fakeTracks) PlaylistTracks(context.Context, string) ([]spotify.Candidate, error) {
	return f.candidates, f.err
}

func (f *fakeTracks) Tempos(context.Context, []string) (map[string]float64, error) {
	return f.tempos, f.tempoErr
}

type fakeTags map[string][]lastfm.Tag

func (f fakeTags) GetTopTags(_ context.Context, title, _ string, _ int) ([]lastfm.Tag, error) {
	tags, ok := f[title]
	if !ok {
		return nil, errors.New("track not found")
	}
	return tags, nil
}

func candidates() []spotify.Candidate {
	return []spotify.Candidate{
		{ID: "a", Title: "Sunny", Artists: []string{"Bobby", "Guest"}, Duration: 3 * time.Minute, URL: spotify.GetTrackURL("a"), Popularity: 73},
		{ID: "b", Title: "Blue", Artists: []string{"Joni"}, Duration: 4 * time.Minute, URL: spotify.GetTrackURL("b")},
		{ID: "c", Title: "", Artists: []string{"Nobody"}},
	}
}

func TestTempoForBPM(t *testing.T) {
	tests := []struct {
		bpm  float64
		want track.Tempo
	}{
		{0, track.TempoMedium},
		{60, track.TempoSlow},
		{89.9, track.TempoSlow},
		{90, track.TempoMedium},
		{119.9, track.TempoMedium},
		{120, track.TempoFast},
		{175, track.TempoFast},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TempoForBPM(tt.bpm), "bpm %v", tt.bpm)
	}
}

func TestRatingForPopularity(t *testing.T) {
	assert.Equal(t, 0.0, RatingForPopularity(-5))
	assert.Equal(t, 3.7, RatingForPopularity(73))
	assert.Equal(t, 5.0, RatingForPopularity(100))
	assert.Equal(t, 5.0, RatingForPopularity(250))
}

func TestImport(t *testing.T) {
	src := &fakeTracks{candidates: candidates(), tempos: map[string]float64{"a": 128, "b": 72}}
	tags := fakeTags{
		"Sunny": {{Name: "Happy"}, {Name: "soul"}, {Name: "upbeat"}, {Name: "70s"}},
		"Blue":  {{Name: "folk rock"}},
	}

	got, err := New(src, tags, 0).Import(context.Background(), "spotify:playlist:x")
	require.NoError(t, err)
	require.Len(t, got, 2)

	sunny := got[0]
	assert.Equal(t, "a", sunny.ID())
	assert.Equal(t, "Bobby, Guest", sunny.Artist())
	assert.Equal(t, "https://open.spotify.com/track/a", sunny.FilePath())
	assert.Equal(t, track.TempoFast, sunny.Tempo())
	assert.Equal(t, []string{"happy", "upbeat"}, sunny.MoodTags())
	assert.Equal(t, "Soul", sunny.Genre())
	assert.Equal(t, 3*time.Minute, sunny.Duration())
	assert.Equal(t, 3.7, sunny.Rating())

	blue := got[1]
	assert.Equal(t, track.TempoSlow, blue.Tempo())
	assert.Empty(t, blue.MoodTags())
	assert.Equal(t, "Folk Rock", blue.Genre())
}

func TestImport_Degraded(t *testing.T) {
	src := &fakeTracks{candidates: candidates(), tempoErr: errors.New("403 forbidden")}

	got, err := New(src, fakeTags{}, 3).Import(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, tr := range got {
		assert.Equal(t, track.TempoMedium, tr.Tempo())
		assert.Equal(t, track.DefaultGenre, tr.Genre())
	}

	got, err = New(src, nil, 3).Import(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = New(&fakeTracks{err: errors.New("boom")}, nil, 3).Import(context.Background(), "x")
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	existing, err := track.New("old", "Sunny", "Bobby", "/music/sunny.mp3")
	require.NoError(t, err)

	src := &fakeTracks{candidates: candidates()}
	imported, err := New(src, nil, 0).Import(context.Background(), "x")
	require.NoError(t, err)

	chain := filter.NewChain()
	chain.Add(filter.NewDuplicateTrackFilter())
	chain.Add(filter.NewFileExistsFilter())

	merged, report := Merge(context.Background(), chain, []*track.Track{existing}, imported)
	ids := make([]string, 0, len(merged))
	for _, tr := range merged {
		ids = append(ids, tr.ID())
	}
	assert.Equal(t, []string{"old", "b"}, ids)
	assert.Equal(t, 1, report.Admitted)
	assert.Equal(t, 1, report.Rejected["duplicate_track"])
}
