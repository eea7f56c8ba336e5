package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Sources     SourcesConfig     `toml:"sources"`
	Enrich      EnrichConfig      `toml:"enrich"`
	NTS         NTSConfig         `toml:"nts"`
	Output      OutputConfig      `toml:"output"`
	Database    DatabaseConfig    `toml:"database"`
	Metrics     MetricsConfig     `toml:"metrics"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify     SpotifyConfig     `toml:"spotify"`
	LastFM      LastFMConfig      `toml:"lastfm"`
	MusicBrainz MusicBrainzConfig `toml:"musicbrainz"`
}

// SpotifyConfig contains Spotify client credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenURL     string `toml:"token_url"`
}

// LastFMConfig contains the Last.fm API key.
type LastFMConfig struct {
	APIKey string `toml:"api_key"`
}

// MusicBrainzConfig identifies the application to MusicBrainz.
// The API is anonymous but rejects requests without a descriptive User-Agent.
type MusicBrainzConfig struct {
	UserAgent string `toml:"user_agent"`
	Contact   string `toml:"contact"`
}

// SourcesConfig contains per-source transport settings.
type SourcesConfig struct {
	Spotify     SourceConfig `toml:"spotify"`
	LastFM      SourceConfig `toml:"lastfm"`
	MusicBrainz SourceConfig `toml:"musicbrainz"`
}

// SourceConfig contains the endpoint and pacing for a single metadata source.
type SourceConfig struct {
	BaseURL        string `toml:"base_url"`
	IntervalMS     int    `toml:"interval_ms"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Disabled       bool   `toml:"disabled"`
}

// Interval returns the minimum spacing between two calls to the source.
func (s SourceConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMS) * time.Millisecond
}

// Timeout returns the per-request timeout, defaulting to 10 seconds.
func (s SourceConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// EnrichConfig contains batch runner settings.
type EnrichConfig struct {
	TitleColumn        string `toml:"title_column"`
	ArtistColumn       string `toml:"artist_column"`
	Concurrency        int    `toml:"concurrency"`
	ParallelSources    bool   `toml:"parallel_sources"`
	TokenMarginSeconds int    `toml:"token_margin_seconds"`
}

// TokenMargin returns the safety margin subtracted from token lifetimes.
func (e EnrichConfig) TokenMargin() time.Duration {
	return time.Duration(e.TokenMarginSeconds) * time.Second
}

// NTSConfig contains episode discovery and scraping settings.
type NTSConfig struct {
	APIURL    string  `toml:"api_url"`
	SiteURL   string  `toml:"site_url"`
	PageSize  int     `toml:"page_size"`
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
	UserAgent string  `toml:"user_agent"`
}

// OutputConfig contains output sink settings.
type OutputConfig struct {
	Format string `toml:"format"`
}

// DatabaseConfig contains database connection settings for the sqlite sink.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// MetricsConfig contains the Prometheus listener address. Empty disables the listener.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig contains log level and optional log file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults of the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
