// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig            `yaml:"server"`
	Admin       AdminConfig             `yaml:"admin"`
	Log         LogConfig               `yaml:"log"`
	Catalog     CatalogConfig           `yaml:"catalog"`
	Store       StoreConfig             `yaml:"store"`
	Recommender RecommenderConfig       `yaml:"recommender"`
	Playback    PlaybackConfig          `yaml:"playback"`
	Filters     map[string]FilterConfig `yaml:"filters"`
	Spotify     SpotifyConfig           `yaml:"spotify"`
	LastFM      LastFMConfig            `yaml:"lastfm"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr            string `yaml:"addr" default:":8080"`
	ShutdownTimeout int    `yaml:"shutdown_timeout_sec" default:"10" validate:"gte=1,lte=120"`
}

// AdminConfig represents admin-related configuration.
type AdminConfig struct {
	Token string `yaml:"token" validate:"required"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Output string `yaml:"output" default:"stdout"`
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
}

// CatalogConfig points at the JSON song catalog.
type CatalogConfig struct {
	Path string `yaml:"path" default:"songs.json" validate:"required"`
}

// StoreConfig represents the profile store configuration.
type StoreConfig struct {
	// DSN is a sqlite data source name. ":memory:" keeps profiles in memory only.
	DSN string `yaml:"dsn" default:"moodbox.db" validate:"required"`
}

// RecommenderConfig selects and configures the recommendation strategy.
type RecommenderConfig struct {
	Strategy     string         `yaml:"strategy" default:"personalized" validate:"required"`
	DefaultCount int            `yaml:"default_count" default:"10" validate:"gte=1,lte=100"`
	Settings     map[string]any `yaml:"settings,omitempty"`
}

// PlaybackConfig represents player configuration.
type PlaybackConfig struct {
	Volume         float64 `yaml:"volume" default:"0.7" validate:"gte=0,lte=1"`
	AutoAdvance    bool    `yaml:"auto_advance" default:"true"`
	AutoPlay       bool    `yaml:"auto_play"`
	MaxRecentPlays int     `yaml:"max_recent_plays" default:"3" validate:"gte=1,lte=50"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// SpotifyConfig represents Spotify API configuration. It is only needed for importing.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// LastFMConfig represents Last.fm API configuration. It is only needed for importing.
type LastFMConfig struct {
	APIKey  string `yaml:"api_key"`
	MaxTags int    `yaml:"max_tags" default:"5" validate:"gte=1,lte=50"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	// Defaults go first so explicit zero values in the file survive.
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFM.APIKey = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// HasSpotify reports whether Spotify credentials are complete.
func (c *Config) HasSpotify() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != "" && c.Spotify.RefreshToken != ""
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}
