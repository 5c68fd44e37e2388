package lastfm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	c, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, c.baseURL)
}

func TestGetTopTags(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "track.getTopTags", r.URL.Query().Get("method"))
		assert.Equal(t, "test_artist", r.URL.Query().Get("artist"))
		assert.Equal(t, "test_track", r.URL.Query().Get("track"))
		assert.Equal(t, "test_key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		response := `{
			"toptags": {
				"tag": [
					{"name": "rock", "count": 100, "url": "http://last.fm/tag/rock"},
					{"name": "happy", "count": 80, "url": "http://last.fm/tag/happy"},
					{"name": "90s", "count": 20, "url": "http://last.fm/tag/90s"}
				]
			}
		}`
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, response)
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "test_key", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	ctx := context.Background()
	tags, err := client.GetTopTags(ctx, "test_track", "test_artist", 2)
	require.NoError(t, err)
	assert.Equal(t, []Tag{{Name: "rock", Count: 100}, {Name: "happy", Count: 80}}, tags)

	all, err := client.GetTopTags(ctx, "test_track", "Test_Artist", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 1, calls, "second lookup should be served from cache")
}

func TestGetTopTags_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("track") {
		case "missing":
			fmt.Fprint(w, `{"error": 6, "message": "Track not found"}`)
		case "broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			fmt.Fprint(w, `{"toptags": `)
		}
	}))
	defer server.Close()

	client, err := New(Config{APIKey: "k", BaseURL: server.URL + "/"})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.GetTopTags(ctx, "", "artist", 5)
	assert.Error(t, err)

	_, err = client.GetTopTags(ctx, "missing", "artist", 5)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 6, apiErr.Code)

	_, err = client.GetTopTags(ctx, "broken", "artist", 5)
	assert.Error(t, err)

	_, err = client.GetTopTags(ctx, "truncated", "artist", 5)
	assert.Error(t, err)
}
