package playlist

import (
	"math/rand"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/moodbox/internal/domain/mood"
	"github.com/osa030/moodbox/internal/domain/track"
)

type trackFields struct {
	id       string
	title    string
	artist   string
	genre    string
	rating   float64
	duration time.Duration
	tags     []string
}

func makeTrack(t *testing.T, s trackFields) *track.Track {
	t.Helper()
	title, artist := s.title, s.artist
	if title == "" {
		title = "Title " + s.id
	}
	if artist == "" {
		artist = "Artist " + s.id
	}
	tr, err := track.New(s.id, title, artist, "")
	require.NoError(t, err)
	tr.SetGenre(s.genre)
	require.NoError(t, tr.SetRating(s.rating))
	tr.SetDuration(s.duration)
	for _, tag := range s.tags {
		tr.AddMoodTag(tag)
	}
	return tr
}

func newPlaylist(t *testing.T, ids ...string) *Playlist {
	t.Helper()
	p, err := New("Test", nil)
	require.NoError(t, err)
	for _, id := range ids {
		p.Add(makeTrack(t, trackFields{id: id}))
	}
	return p
}

func TestNew(t *testing.T) {
	_, err := New("  ", nil)
	assert.True(t, errors.Is(err, ErrEmptyName))

	p, err := New("Morning", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.IsEmpty())
	assert.Nil(t, p.Current())

	assert.Error(t, p.SetName(""))
	require.NoError(t, p.SetName("Evening"))
	assert.Equal(t, "Evening", p.Name)
}

func TestPlaylist_Add(t *testing.T) {
	p := newPlaylist(t)
	a := makeTrack(t, trackFields{id: "a"})

	assert.True(t, p.Add(a))
	assert.False(t, p.Add(a))
	assert.False(t, p.Add(makeTrack(t, trackFields{id: "a"})))
	assert.False(t, p.Add(nil))

	n := p.AddAll([]*track.Track{a, makeTrack(t, trackFields{id: "b"}), makeTrack(t, trackFields{id: "c"})})
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "b", "c"}, p.TrackIDs())
}

func TestPlaylist_Navigation(t *testing.T) {
	p := newPlaylist(t, "a", "b", "c")

	assert.Equal(t, "a", p.Current().ID())
	assert.False(t, p.HasPrevious())
	assert.Nil(t, p.Previous())
	assert.Equal(t, 0, p.CurrentIndex())

	assert.Equal(t, "b", p.Next().ID())
	assert.Equal(t, "c", p.Next().ID())
	assert.False(t, p.HasNext())
	assert.Nil(t, p.Next())
	assert.Equal(t, 2, p.CurrentIndex())

	assert.Equal(t, "b", p.Previous().ID())

	got, err := p.JumpTo(0)
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID())

	_, err = p.JumpTo(3)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = p.JumpTo(-1)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	p.Next()
	p.Reset()
	assert.Equal(t, 0, p.CurrentIndex())
}

func TestPlaylist_Remove(t *testing.T) {
	tests := []struct {
		name       string
		cursor     int
		remove     string
		wantIDs    []string
		wantCursor int
		wantOK     bool
	}{
		{name: "remove before cursor keeps index", cursor: 1, remove: "a", wantIDs: []string{"b", "c"}, wantCursor: 1, wantOK: true},
		{name: "remove last clamps cursor", cursor: 2, remove: "c", wantIDs: []string{"a", "b"}, wantCursor: 1, wantOK: true},
		{name: "missing id", cursor: 0, remove: "z", wantIDs: []string{"a", "b", "c"}, wantCursor: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPlaylist(t, "a", "b", "c")
			_, err := p.JumpTo(tt.cursor)
			require.NoError(t, err)

			assert.Equal(t, tt.wantOK, p.Remove(tt.remove))
			assert.Equal(t, tt.wantIDs, p.TrackIDs())
			assert.Equal(t, tt.wantCursor, p.CurrentIndex())
		})
	}
}

func TestPlaylist_RemoveAt(t *testing.T) {
	p := newPlaylist(t, "a")
	assert.True(t, errors.Is(p.RemoveAt(1), ErrIndexOutOfRange))

	require.NoError(t, p.RemoveAt(0))
	assert.True(t, p.IsEmpty())
	assert.Equal(t, 0, p.CurrentIndex())
	assert.Nil(t, p.Current())

	p = newPlaylist(t, "a", "b")
	p.Clear()
	assert.Equal(t, 0, p.Len())
}

func TestPlaylist_Shuffle(t *testing.T) {
	p := newPlaylist(t, "a", "b", "c", "d", "e")
	p.Next()
	p.Shuffle(rand.New(rand.NewSource(1)))

	assert.Equal(t, 0, p.CurrentIndex())
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, p.TrackIDs())

	q := newPlaylist(t, "a", "b", "c", "d", "e")
	q.Shuffle(rand.New(rand.NewSource(1)))
	assert.Equal(t, p.TrackIDs(), q.TrackIDs())
}

func TestPlaylist_SortBy(t *testing.T) {
	build := func() *Playlist {
		p := newPlaylist(t)
		p.AddAll([]*track.Track{
			makeTrack(t, trackFields{id: "1", title: "beta", artist: "Zed", rating: 3, duration: 200 * time.Second}),
			makeTrack(t, trackFields{id: "2", title: "Alpha", artist: "amy", rating: 5, duration: 100 * time.Second}),
			makeTrack(t, trackFields{id: "3", title: "gamma", artist: "Bob", rating: 3, duration: 150 * time.Second}),
		})
		p.Next()
		return p
	}

	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortByTitle, []string{"2", "1", "3"}},
		{SortByArtist, []string{"2", "3", "1"}},
		{SortByRating, []string{"2", "1", "3"}},
		{SortByDuration, []string{"2", "3", "1"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			p := build()
			require.NoError(t, p.SortBy(tt.key))
			assert.Equal(t, tt.want, p.TrackIDs())
			assert.Equal(t, 0, p.CurrentIndex())
		})
	}

	assert.True(t, errors.Is(build().SortBy("bpm"), ErrUnknownSortKey))
}

func TestPlaylist_Aggregates(t *testing.T) {
	p := newPlaylist(t)
	p.AddAll([]*track.Track{
		makeTrack(t, trackFields{id: "1", genre: "Rock", rating: 4, duration: 30 * time.Minute, tags: []string{"happy", "upbeat"}}),
		makeTrack(t, trackFields{id: "2", genre: "Jazz", rating: 3, duration: 40 * time.Minute, tags: []string{"calm"}}),
		makeTrack(t, trackFields{id: "3", genre: "Rock", rating: 4, duration: 5 * time.Second, tags: []string{"happy"}}),
	})

	assert.Equal(t, 70*time.Minute+5*time.Second, p.TotalDuration())
	assert.Equal(t, "01:10:05", p.FormattedTotalDuration())
	assert.Equal(t, 3.67, p.AverageRating())
	assert.Equal(t, []string{"Jazz", "Rock"}, p.Genres())
	assert.Equal(t, []string{"calm", "happy", "upbeat"}, p.MoodTags())
	assert.Len(t, p.TracksByMood("HAPPY"), 2)

	empty := newPlaylist(t)
	assert.Equal(t, 0.0, empty.AverageRating())
	assert.Equal(t, "00:00", empty.FormattedTotalDuration())
}

func TestPlaylist_Find(t *testing.T) {
	p := newPlaylist(t)
	p.AddAll([]*track.Track{
		makeTrack(t, trackFields{id: "1", title: "Here Comes the Sun", artist: "The Beatles"}),
		makeTrack(t, trackFields{id: "2", title: "Sunflower", artist: "Post Malone"}),
		makeTrack(t, trackFields{id: "3", title: "Yesterday", artist: "the beatles"}),
	})

	assert.Len(t, p.FindByTitle("sun"), 2)
	assert.Len(t, p.FindByArtist("BEATLES"), 2)
	assert.Empty(t, p.FindByTitle("moon"))
}

func TestPlaylist_Snapshot(t *testing.T) {
	m, err := mood.NewBasic("happy", 8, "")
	require.NoError(t, err)
	p, err := New("Happy Mix", &m)
	require.NoError(t, err)
	p.Add(makeTrack(t, trackFields{id: "1", genre: "Pop", rating: 4.5, duration: 90 * time.Second}))

	s := p.Snapshot()
	assert.Equal(t, p.ID, s.PlaylistID)
	assert.Equal(t, "Happy Mix", s.Name)
	assert.Equal(t, 1, s.SongCount)
	assert.Len(t, s.Songs, 1)
	assert.Equal(t, 90, s.TotalDuration)
	assert.Equal(t, "01:30", s.TotalDurationFormatted)
	assert.Equal(t, 4.5, s.AverageRating)
	assert.Equal(t, []string{"Pop"}, s.Genres)
	require.NotNil(t, s.CreatedForEmotion)
	assert.Equal(t, mood.Happy, s.CreatedForEmotion.EmotionType)
}
