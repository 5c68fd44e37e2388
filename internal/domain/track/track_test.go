package track

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrack(t *testing.T) *Track {
	t.Helper()
	tr, err := New("s1", "Sunrise", "The Band", "music/sunrise.mp3")
	require.NoError(t, err)
	return tr
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		title   string
		artist  string
		wantErr error
	}{
		{name: "valid", id: "s1", title: "Song", artist: "Artist"},
		{name: "empty id", id: "", title: "Song", artist: "Artist", wantErr: ErrEmptyField},
		{name: "empty title", id: "s1", title: "  ", artist: "Artist", wantErr: ErrEmptyField},
		{name: "empty artist", id: "s1", title: "Song", artist: "", wantErr: ErrEmptyField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.id, tt.title, tt.artist, "")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, tr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, TempoMedium, tr.Tempo())
			assert.Equal(t, DefaultGenre, tr.Genre())
			assert.Equal(t, 0, tr.PlayCount())
			assert.Empty(t, tr.MoodTags())
		})
	}
}

func TestTrack_SetRating(t *testing.T) {
	tests := []struct {
		name    string
		rating  float64
		wantErr bool
	}{
		{name: "zero", rating: 0},
		{name: "max", rating: 5},
		{name: "middle", rating: 3.7},
		{name: "negative", rating: -0.1, wantErr: true},
		{name: "too high", rating: 5.01, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTrack(t)
			err := tr.SetRating(tt.rating)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidRating))
				assert.Equal(t, 0.0, tr.Rating())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.rating, tr.Rating())
		})
	}
}

func TestTrack_SetTempo(t *testing.T) {
	tr := newTestTrack(t)

	require.NoError(t, tr.SetTempo("FAST"))
	assert.Equal(t, TempoFast, tr.Tempo())

	err := tr.SetTempo("allegro")
	assert.True(t, errors.Is(err, ErrInvalidTempo))
	assert.Equal(t, TempoFast, tr.Tempo())
}

func TestTrack_SetTitleArtist(t *testing.T) {
	tr := newTestTrack(t)

	assert.Error(t, tr.SetTitle(""))
	assert.Error(t, tr.SetArtist(" "))
	assert.Equal(t, "Sunrise", tr.Title())
	assert.Equal(t, "The Band", tr.Artist())

	require.NoError(t, tr.SetTitle("Sunset"))
	assert.Equal(t, "Sunset", tr.Title())
}

func TestTrack_MoodTags(t *testing.T) {
	tr := newTestTrack(t)

	tr.AddMoodTag("Happy")
	tr.AddMoodTag(" happy ")
	tr.AddMoodTag("upbeat")
	tr.AddMoodTag("")

	assert.Equal(t, []string{"happy", "upbeat"}, tr.MoodTags())
	assert.True(t, tr.HasTag("HAPPY"))
	assert.False(t, tr.HasTag("sad"))

	tr.RemoveMoodTag("Happy")
	assert.Equal(t, []string{"upbeat"}, tr.MoodTags())
	tr.RemoveMoodTag("missing")
	assert.Equal(t, []string{"upbeat"}, tr.MoodTags())
}

func TestTrack_Metadata(t *testing.T) {
	tr := newTestTrack(t)

	tr.SetGenre("")
	assert.Equal(t, DefaultGenre, tr.Genre())
	tr.SetGenre("Rock")
	assert.Equal(t, "Rock", tr.Genre())

	tr.SetDuration(-time.Second)
	assert.Equal(t, time.Duration(0), tr.Duration())

	tr.SetDuration(185 * time.Second)
	assert.Equal(t, "03:05", tr.FormattedDuration())

	tr.IncrementPlayCount()
	tr.IncrementPlayCount()
	assert.Equal(t, 2, tr.PlayCount())

	assert.Equal(t, "Sunrise - The Band (Rock)", tr.String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00", FormatDuration(0))
	assert.Equal(t, "01:00", FormatDuration(time.Minute))
	assert.Equal(t, "59:59", FormatDuration(59*time.Minute+59*time.Second))
	assert.Equal(t, "01:02:03", FormatDuration(time.Hour+2*time.Minute+3*time.Second))
}

func TestRecord_RoundTrip(t *testing.T) {
	tr := newTestTrack(t)
	tr.AddMoodTag("happy")
	tr.AddMoodTag("energetic")
	require.NoError(t, tr.SetTempo("fast"))
	require.NoError(t, tr.SetRating(4.5))
	tr.SetGenre("Pop")
	tr.SetDuration(210 * time.Second)
	tr.IncrementPlayCount()

	got, err := FromRecord(tr.Record())
	require.NoError(t, err)

	assert.Equal(t, tr.ID(), got.ID())
	assert.Equal(t, tr.Title(), got.Title())
	assert.Equal(t, tr.Artist(), got.Artist())
	assert.Equal(t, tr.FilePath(), got.FilePath())
	assert.Equal(t, tr.MoodTags(), got.MoodTags())
	assert.Equal(t, tr.Tempo(), got.Tempo())
	assert.Equal(t, tr.Genre(), got.Genre())
	assert.Equal(t, tr.Duration(), got.Duration())
	assert.Equal(t, tr.PlayCount(), got.PlayCount())
	assert.Equal(t, tr.Rating(), got.Rating())
}

func TestFromRecord_Invalid(t *testing.T) {
	base := Record{SongID: "s1", Title: "T", Artist: "A", Tempo: "slow", Rating: 3}

	tests := []struct {
		name    string
		mutate  func(r *Record)
		wantErr error
	}{
		{name: "bad rating", mutate: func(r *Record) { r.Rating = 7 }, wantErr: ErrInvalidRating},
		{name: "bad tempo", mutate: func(r *Record) { r.Tempo = "presto" }, wantErr: ErrInvalidTempo},
		{name: "missing id", mutate: func(r *Record) { r.SongID = "" }, wantErr: ErrEmptyField},
		{name: "missing title", mutate: func(r *Record) { r.Title = "" }, wantErr: ErrEmptyField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mutate(&r)
			_, err := FromRecord(r)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	_, err := FromRecord(Record{SongID: "s2", Title: "T", Artist: "A", Duration: -1})
	assert.Error(t, err)
}

func TestFromRecord_Defaults(t *testing.T) {
	got, err := FromRecord(Record{SongID: "s1", Title: "T", Artist: "A"})
	require.NoError(t, err)
	assert.Equal(t, TempoMedium, got.Tempo())
	assert.Equal(t, DefaultGenre, got.Genre())
}
