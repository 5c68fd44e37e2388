package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/moodbox/internal/domain/listener"
	"github.com/osa030/moodbox/internal/domain/mood"
	"github.com/osa030/moodbox/internal/domain/track"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleProfile(t *testing.T) *listener.Profile {
	t.Helper()
	p, err := listener.NewProfile("p-1", "Alice", "alice@example.com")
	require.NoError(t, err)
	p.Preferences.AddFavoriteGenre("pop")
	p.Preferences.AddFavoriteGenre("jazz")
	require.NoError(t, p.Preferences.SetPreferredTempo("fast"))

	happy, err := mood.NewBasic("happy", 8, "")
	require.NoError(t, err)
	calm, err := mood.NewBasic("calm", 3, "")
	require.NoError(t, err)
	p.RecordMood(happy, "pl-1", time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC))
	p.RecordMood(calm, "", time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC))
	p.RecordPlay("t1")
	p.RecordPlay("t2")
	return p
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	p := sampleProfile(t)
	require.NoError(t, s.SaveProfile(ctx, p))

	got, err := s.LoadProfile(ctx, "p-1")
	require.NoError(t, err)

	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, []string{"Pop", "Jazz"}, got.Preferences.FavoriteGenres)
	assert.Equal(t, track.TempoFast, got.PreferredTempo())
	assert.Equal(t, 1, got.Preferences.ListeningHours[listener.Morning])
	assert.Equal(t, 1, got.Preferences.ListeningHours[listener.Night])
	assert.Equal(t, 0, got.Preferences.ListeningHours[listener.Evening])
	assert.Equal(t, []string{"t1", "t2"}, got.RecentPlays())

	history := got.History()
	require.Len(t, history, 2)
	assert.Equal(t, mood.Emotion("happy"), history[0].Emotion)
	assert.Equal(t, 8, history[0].Intensity)
	assert.Equal(t, "pl-1", history[0].PlaylistID)
	assert.Equal(t, listener.Morning, history[0].TimeOfDay)
	assert.True(t, history[0].Timestamp.Equal(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, mood.Emotion("calm"), history[1].Emotion)
}

func TestStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	p := sampleProfile(t)
	require.NoError(t, s.SaveProfile(ctx, p))

	p.ClearHistory()
	p.Preferences.RemoveFavoriteGenre("pop")
	require.NoError(t, p.SetDisplayName("Alicia"))
	require.NoError(t, s.SaveProfile(ctx, p))

	got, err := s.LoadProfile(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.DisplayName)
	assert.Empty(t, got.History())
	assert.Equal(t, []string{"Jazz"}, got.Preferences.FavoriteGenres)
}

func TestStore_NotFoundAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.LoadProfile(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.SaveProfile(ctx, sampleProfile(t)))
	require.NoError(t, s.DeleteProfile(ctx, "p-1"))
	_, err = s.LoadProfile(ctx, "p-1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_LoadProfilesOrdered(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveProfile(ctx, listener.Restore("b", "Bravo", "", base.Add(time.Hour), nil, nil, nil)))
	require.NoError(t, s.SaveProfile(ctx, listener.Restore("a", "Alpha", "", base, nil, nil, nil)))

	all, err := s.LoadProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}

func TestStore_FileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "moodbox.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveProfile(ctx, sampleProfile(t)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.LoadProfile(ctx, "p-1")
	require.NoError(t, err)
	assert.Len(t, got.History(), 2)
}
