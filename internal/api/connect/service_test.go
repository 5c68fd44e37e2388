package connect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/moodbox/internal/app/notification"
	"github.com/osa030/moodbox/internal/app/session"
	"github.com/osa030/moodbox/internal/infra/config"
)

const catalogJSON = `[
  {"song_id": "h1", "title": "Sunny Day", "artist": "Band A", "mood_tags": ["happy"], "tempo": "fast", "genre": "Pop", "rating": 4.5, "duration": 200},
  {"song_id": "h2", "title": "Good Times", "artist": "Band B", "mood_tags": ["joyful"], "tempo": "medium", "genre": "Rock", "rating": 4.0, "duration": 180},
  {"song_id": "h3", "title": "Sunny Day (Remastered)", "artist": "Band A", "mood_tags": ["happy"], "tempo": "fast", "genre": "Pop"},
  {"song_id": "s1", "title": "Blue", "artist": "Band C", "mood_tags": ["sad"], "tempo": "slow", "genre": "Folk", "rating": 5.0}
]`

const adminToken = "secret"

type testServer struct {
	mood   *MoodServiceClient
	player *PlayerServiceClient
	admin  *AdminServiceClient
	url    string
	client *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	for _, k := range []string{"ADMIN_TOKEN", "SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "SPOTIFY_REFRESH_TOKEN", "LASTFM_API_KEY"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "songs.json")
	require.NoError(t, os.WriteFile(path, []byte(catalogJSON), 0o600))
	cfg, err := config.Parse([]byte(fmt.Sprintf(`
admin:
  token: %s
catalog:
  path: %q
playback:
  auto_advance: false
filters:
  duplicate_track_filter:
    enabled: true
`, adminToken, path)))
	require.NoError(t, err)

	m, err := session.NewManager(cfg, nil, nil)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(m.Close)

	mux := http.NewServeMux()
	mux.Handle(NewMoodServiceHandler(NewMoodService(m)))
	mux.Handle(NewPlayerServiceHandler(NewPlayerService(m)))
	mux.Handle(NewAdminServiceHandler(NewAdminService(m),
		connect.WithInterceptors(NewAdminAuthInterceptor(cfg.Admin.Token))))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testServer{
		mood:   NewMoodServiceClient(srv.Client(), srv.URL),
		player: NewPlayerServiceClient(srv.Client(), srv.URL),
		admin: NewAdminServiceClient(srv.Client(), srv.URL,
			connect.WithInterceptors(WithAdminToken(adminToken))),
		url:    srv.URL,
		client: srv.Client(),
	}
}

func songIDs(resp *RecommendResponse) []string {
	ids := make([]string, 0, len(resp.Playlist.Songs))
	for _, s := range resp.Playlist.Songs {
		ids = append(ids, s.SongID)
	}
	return ids
}

func TestMoodService_Profiles(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	created, err := ts.mood.CreateProfile(ctx, &CreateProfileRequest{DisplayName: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	id := created.Profile.ProfileID
	assert.NotEmpty(t, id)
	assert.Equal(t, "Alice", created.Profile.DisplayName)
	assert.Equal(t, "medium", created.Profile.PreferredTempo)

	got, err := ts.mood.GetProfile(ctx, &GetProfileRequest{ProfileID: id})
	require.NoError(t, err)
	assert.Equal(t, created.Profile, got.Profile)

	tempo := "fast"
	updated, err := ts.mood.UpdatePreferences(ctx, &UpdatePreferencesRequest{
		ProfileID:      id,
		FavoriteGenres: []string{"pop", "Rock"},
		PreferredTempo: &tempo,
	})
	require.NoError(t, err)
	assert.Equal(t, "fast", updated.Profile.PreferredTempo)
	assert.Len(t, updated.Profile.FavoriteGenres, 2)

	tests := []struct {
		name string
		call func() error
		code connect.Code
	}{
		{"unknown profile", func() error {
			_, err := ts.mood.GetProfile(ctx, &GetProfileRequest{ProfileID: "nope"})
			return err
		}, connect.CodeNotFound},
		{"empty display name", func() error {
			_, err := ts.mood.CreateProfile(ctx, &CreateProfileRequest{DisplayName: " "})
			return err
		}, connect.CodeInvalidArgument},
		{"invalid email", func() error {
			_, err := ts.mood.CreateProfile(ctx, &CreateProfileRequest{DisplayName: "Bob", Email: "bob"})
			return err
		}, connect.CodeInvalidArgument},
		{"invalid tempo", func() error {
			bad := "glacial"
			_, err := ts.mood.UpdatePreferences(ctx, &UpdatePreferencesRequest{ProfileID: id, PreferredTempo: &bad})
			return err
		}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.code, connect.CodeOf(err))
		})
	}
}

func TestMoodService_RecommendAndStatistics(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	created, err := ts.mood.CreateProfile(ctx, &CreateProfileRequest{DisplayName: "Alice"})
	require.NoError(t, err)
	id := created.Profile.ProfileID

	resp, err := ts.mood.Recommend(ctx, &RecommendRequest{ProfileID: id, Mood: MoodRequest{Emotion: "happy", Intensity: 8}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"h1", "h2"}, songIDs(resp))
	assert.Contains(t, resp.Tags, "happy")
	require.NotNil(t, resp.Playlist.CreatedForEmotion)

	_, err = ts.mood.Recommend(ctx, &RecommendRequest{Mood: MoodRequest{Emotion: "hangry"}})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = ts.mood.Recommend(ctx, &RecommendRequest{Mood: MoodRequest{Emotion: "angry"}})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	rec, err := ts.mood.RecordMood(ctx, &RecordMoodRequest{ProfileID: id, Mood: MoodRequest{Emotion: "sad", Intensity: 4}})
	require.NoError(t, err)
	assert.Equal(t, "sad", rec.Entry.Emotion)
	assert.Equal(t, 4, rec.Entry.Intensity)

	st, err := ts.mood.GetStatistics(ctx, &GetStatisticsRequest{ProfileID: id})
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalRecords)
	assert.InDelta(t, 6.0, st.AverageIntensity, 1e-9)
	assert.Equal(t, map[string]int{"happy": 1, "sad": 1}, st.Distribution)
	assert.Len(t, st.RecentMoods, 2)
	assert.Len(t, st.ListeningPatterns, 4)
	assert.Equal(t, 2, st.ListeningPatterns[st.FavoriteTime])

	daily, err := ts.mood.GetDailySummary(ctx, &GetDailySummaryRequest{ProfileID: id})
	require.NoError(t, err)
	assert.Equal(t, 2, daily.Summary.TotalRecords)
	_, err = ts.mood.GetDailySummary(ctx, &GetDailySummaryRequest{ProfileID: id, Date: "01/02/2025"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	history, err := ts.mood.GetHistory(ctx, &GetHistoryRequest{ProfileID: id, Emotion: "sad"})
	require.NoError(t, err)
	require.Len(t, history.Entries, 1)
	assert.Equal(t, 4, history.Entries[0].Intensity)
	history, err = ts.mood.GetHistory(ctx, &GetHistoryRequest{ProfileID: id, Date: "2001-01-07"})
	require.NoError(t, err)
	assert.Empty(t, history.Entries)
	_, err = ts.mood.GetHistory(ctx, &GetHistoryRequest{ProfileID: id, Emotion: "hangry"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	report, err := ts.mood.GetWeeklyReport(ctx, &GetWeeklyReportRequest{ProfileID: id})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Report.TotalRecords)
	assert.Len(t, report.Report.Days, 7)
	assert.Equal(t, report.Report.Period(), report.Period)

	_, err = ts.mood.GetWeeklyReport(ctx, &GetWeeklyReportRequest{ProfileID: id, EndDate: "yesterday"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	old, err := ts.mood.GetWeeklyReport(ctx, &GetWeeklyReportRequest{ProfileID: id, EndDate: "2001-01-07"})
	require.NoError(t, err)
	assert.Equal(t, 0, old.Report.TotalRecords)
}

func TestPlayerService(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	status, err := ts.player.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "idle", status.State)

	_, err = ts.player.Play(ctx)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = ts.mood.Recommend(ctx, &RecommendRequest{Mood: MoodRequest{Emotion: "happy"}})
	require.NoError(t, err)

	status, err = ts.player.Play(ctx)
	require.NoError(t, err)
	assert.Equal(t, "playing", status.State)
	require.NotNil(t, status.Track)
	assert.Equal(t, 2, status.TrackCount)
	assert.Equal(t, 0, status.Index)

	_, err = ts.player.Previous(ctx)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	status, err = ts.player.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Index)

	_, err = ts.player.PlayAt(ctx, 5)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	status, err = ts.player.Pause(ctx)
	require.NoError(t, err)
	assert.Equal(t, "paused", status.State)

	status, err = ts.player.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "playing", status.State)

	vol, muted := 0.3, true
	status, err = ts.player.SetVolume(ctx, &SetVolumeRequest{Volume: &vol})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, status.Volume, 1e-9)

	status, err = ts.player.SetVolume(ctx, &SetVolumeRequest{Muted: &muted})
	require.NoError(t, err)
	assert.True(t, status.Muted)

	status, err = ts.player.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "idle", status.State)
	assert.Nil(t, status.Track)
}

func TestPlayerService_PlaylistControls(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.player.Shuffle(ctx)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = ts.mood.Recommend(ctx, &RecommendRequest{Mood: MoodRequest{Emotion: "happy", Intensity: 8}})
	require.NoError(t, err)

	status, err := ts.player.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "playing", status.State)
	playing := status.Track.SongID

	status, err = ts.player.Sort(ctx, "duration")
	require.NoError(t, err)
	assert.Equal(t, playing, status.Track.SongID)
	_, err = ts.player.Sort(ctx, "bpm")
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	status, err = ts.player.Shuffle(ctx)
	require.NoError(t, err)
	assert.Equal(t, playing, status.Track.SongID)
	assert.Equal(t, 2, status.TrackCount)

	found, err := ts.player.FindTracks(ctx, &FindTracksRequest{By: "artist", Query: "band b"})
	require.NoError(t, err)
	require.Len(t, found.Tracks, 1)
	assert.Equal(t, "h2", found.Tracks[0].SongID)
	found, err = ts.player.FindTracks(ctx, &FindTracksRequest{By: "mood", Query: "sad"})
	require.NoError(t, err)
	assert.Empty(t, found.Tracks)
	_, err = ts.player.FindTracks(ctx, &FindTracksRequest{By: "genre", Query: "pop"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	vol, step := 0.5, -0.2
	_, err = ts.player.SetVolume(ctx, &SetVolumeRequest{Volume: &vol})
	require.NoError(t, err)
	status, err = ts.player.SetVolume(ctx, &SetVolumeRequest{Step: &step})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, status.Volume, 1e-9)

	status, err = ts.player.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "paused", status.State)
}

func TestAdminService(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	t.Run("rejects missing token", func(t *testing.T) {
		anon := NewAdminServiceClient(ts.client, ts.url)
		_, err := anon.ListStrategies(ctx)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("rejects wrong token", func(t *testing.T) {
		bad := NewAdminServiceClient(ts.client, ts.url, connect.WithInterceptors(WithAdminToken("guess")))
		_, err := bad.ListProfiles(ctx)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("strategies", func(t *testing.T) {
		resp, err := ts.admin.ListStrategies(ctx)
		require.NoError(t, err)
		require.Len(t, resp.Strategies, 2)
		assert.Equal(t, "personalized", resp.Strategies[0].Name)
		assert.True(t, resp.Strategies[0].Active)

		resp, err = ts.admin.SetStrategy(ctx, &SetStrategyRequest{Name: "simple"})
		require.NoError(t, err)
		assert.True(t, resp.Strategies[1].Active)
		assert.False(t, resp.Strategies[0].Active)

		_, err = ts.admin.SetStrategy(ctx, &SetStrategyRequest{Name: "oracle"})
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

		_, err = ts.admin.SetStrategy(ctx, &SetStrategyRequest{
			Name:     "personalized",
			Settings: map[string]any{"diversity_genres": 0},
		})
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	})

	t.Run("reload catalog", func(t *testing.T) {
		resp, err := ts.admin.ReloadCatalog(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Admitted)
		assert.Equal(t, map[string]int{"duplicate_track": 1}, resp.Rejected)
	})

	t.Run("profiles", func(t *testing.T) {
		resp, err := ts.admin.ListProfiles(ctx)
		require.NoError(t, err)
		assert.Empty(t, resp.Profiles)

		_, err = ts.mood.CreateProfile(ctx, &CreateProfileRequest{DisplayName: "Alice"})
		require.NoError(t, err)
		_, err = ts.mood.CreateProfile(ctx, &CreateProfileRequest{DisplayName: "Bob"})
		require.NoError(t, err)

		resp, err = ts.admin.ListProfiles(ctx)
		require.NoError(t, err)
		require.Len(t, resp.Profiles, 2)
		assert.Equal(t, "Alice", resp.Profiles[0].DisplayName)
	})
}

func TestPlayerService_Watch(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := ts.player.Watch(ctx)
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive(), "initial state: %v", stream.Err())
	assert.Equal(t, notification.TypeInitialState, stream.Msg().Type)
	assert.Equal(t, "idle", stream.Msg().State)

	_, err = ts.mood.Recommend(context.Background(), &RecommendRequest{Mood: MoodRequest{Emotion: "happy"}})
	require.NoError(t, err)

	require.True(t, stream.Receive(), "playlist event: %v", stream.Err())
	assert.Equal(t, notification.TypePlaylist, stream.Msg().Type)
	assert.Equal(t, "playlist_loaded", stream.Msg().Event)
	assert.NotEmpty(t, stream.Msg().PlaylistID)
}
