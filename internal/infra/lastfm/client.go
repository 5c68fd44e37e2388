// Package lastfm provides a client for the Last.fm API.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

// Client is a Last.fm API client. Track tags are cached per client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	cacheMu  sync.RWMutex
	tagCache map[string][]Tag
}

// Config represents Last.fm client configuration.
type Config struct {
	APIKey  string
	BaseURL string // defaults to the public API endpoint
}

// Tag represents a Last.fm tag.
type Tag struct {
	Name  string
	Count int // relative weight, 0..100
}

type topTagsResponse struct {
	TopTags struct {
		Tag []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"tag"`
	} `json:"toptags"`
}

// APIError is an error reported by the Last.fm API.
type APIError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("last.fm API error %d: %s", e.Code, e.Message)
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tagCache:   make(map[string][]Tag),
	}, nil
}

// GetTopTags retrieves up to limit top tags for a track, most popular first.
// Reference: https://www.last.fm/api/show/track.getTopTags
func (c *Client) GetTopTags(ctx context.Context, trackName, artistName string, limit int) ([]Tag, error) {
	if trackName == "" || artistName == "" {
		return nil, errors.New("track name and artist name are required")
	}

	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	cacheKey := strings.ToLower(artistName + "\x00" + trackName)
	c.cacheMu.RLock()
	tags, ok := c.tagCache[cacheKey]
	c.cacheMu.RUnlock()
	if !ok {
		params := url.Values{}
		params.Set("method", "track.getTopTags")
		params.Set("artist", artistName)
		params.Set("track", trackName)
		params.Set("autocorrect", "1")

		var response topTagsResponse
		if err := c.call(ctx, params, &response); err != nil {
			return nil, errors.Wrapf(err, "top tags for %s - %s", artistName, trackName)
		}

		tags = make([]Tag, 0, len(response.TopTags.Tag))
		for _, t := range response.TopTags.Tag {
			tags = append(tags, Tag{Name: t.Name, Count: t.Count})
		}

		c.cacheMu.Lock()
		c.tagCache[cacheKey] = tags
		c.cacheMu.Unlock()
		zlog.Debug().Msgf("cached tags for track: %s - %s (count: %d)", artistName, trackName, len(tags))
	}

	if len(tags) > limit {
		tags = tags[:limit]
	}
	return append([]Tag(nil), tags...), nil
}

// call performs a GET request and decodes the JSON body into out.
func (c *Client) call(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		return &apiErr
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("unexpected status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}
