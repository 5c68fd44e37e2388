// Package spotify provides a client for the Spotify API.
package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	pageLimit           = 100
	maxTracksPerRequest = 100
)

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string
}

// Candidate is a Spotify track considered for import into the catalog.
type Candidate struct {
	ID         string
	Title      string
	Artists    []string
	Duration   time.Duration
	URL        string
	Popularity int
}

// MainArtist returns the first credited artist.
func (c Candidate) MainArtist() string {
	if len(c.Artists) == 0 {
		return ""
	}
	return c.Artists[0]
}

// New creates a new Spotify client authenticated with a refresh token.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(spotifyauth.ScopePlaylistReadPrivate),
	)

	httpClient := auth.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	return newClient(spotify.New(httpClient), cfg.Market), nil
}

// NewWithHTTPClient creates a client that sends requests through httpClient to baseURL.
// It is meant for tests and proxies.
func NewWithHTTPClient(httpClient *http.Client, baseURL, market string) *Client {
	return newClient(spotify.New(httpClient, spotify.WithBaseURL(baseURL)), market)
}

func newClient(c *spotify.Client, market string) *Client {
	if market == "" {
		market = "JP"
	}
	return &Client{
		client:     c,
		market:     market,
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// PlaylistTracks retrieves every track of a playlist. Episodes are skipped.
func (c *Client) PlaylistTracks(ctx context.Context, playlistURL string) ([]Candidate, error) {
	playlistID := extractPlaylistID(playlistURL)
	if playlistID == "" {
		return nil, errors.New("invalid playlist URL")
	}

	var candidates []Candidate
	offset := 0
	for {
		var page *spotify.PlaylistItemPage
		err := c.retry(ctx, func() error {
			p, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
				spotify.Limit(pageLimit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get playlist items")
		}

		for _, item := range page.Items {
			if item.Track.Track != nil && item.Track.Track.ID != "" {
				candidates = append(candidates, convertTrack(item.Track.Track))
			}
		}

		if len(page.Items) < pageLimit {
			break
		}
		offset += pageLimit
	}

	zlog.Debug().Msgf("spotify: %d tracks in playlist %s", len(candidates), playlistID)
	return candidates, nil
}

// Tempos returns the tempo in BPM for each track ID that has audio features.
// IDs may be Spotify IDs, URLs, or URIs; the result is keyed by plain ID.
func (c *Client) Tempos(ctx context.Context, trackIDs []string) (map[string]float64, error) {
	tempos := make(map[string]float64, len(trackIDs))
	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(extractTrackID(id))
	}

	for i := 0; i < len(ids); i += maxTracksPerRequest {
		batch := ids[i:min(i+maxTracksPerRequest, len(ids))]

		var features []*spotify.AudioFeatures
		err := c.retry(ctx, func() error {
			f, err := c.client.GetAudioFeatures(ctx, batch...)
			if err != nil {
				return err
			}
			features = f
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get audio features (batch %d)", i/maxTracksPerRequest+1)
		}

		for _, f := range features {
			if f == nil || f.Tempo <= 0 {
				continue
			}
			tempos[f.ID.String()] = float64(f.Tempo)
		}
	}
	return tempos, nil
}

// GetTrackURL returns the Spotify URL for a track.
func GetTrackURL(trackID string) string {
	return fmt.Sprintf("https://open.spotify.com/track/%s", trackID)
}

func convertTrack(t *spotify.FullTrack) Candidate {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}
	return Candidate{
		ID:         string(t.ID),
		Title:      t.Name,
		Artists:    artists,
		Duration:   time.Duration(t.Duration) * time.Millisecond,
		URL:        GetTrackURL(string(t.ID)),
		Popularity: int(t.Popularity),
	}
}

// retry retries an operation with linear backoff.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			select {
			case <-time.After(c.retryDelay * time.Duration(i+1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se spotify.Error
	if errors.As(err, &se) {
		return se.Status == http.StatusTooManyRequests || se.Status >= 500
	}
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractID pulls the ID of kind ("playlist" or "track") out of a URL or URI.
func extractID(input, kind string) string {
	input = strings.TrimSpace(input)
	if id, ok := strings.CutPrefix(input, "spotify:"+kind+":"); ok {
		return id
	}

	// https://open.spotify.com/<kind>/ID or https://open.spotify.com/intl-XX/<kind>/ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/"+kind+"/") {
		parts := strings.Split(input, "/"+kind+"/")
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	return input
}

func extractPlaylistID(input string) string { return extractID(input, "playlist") }
func extractTrackID(input string) string    { return extractID(input, "track") }
