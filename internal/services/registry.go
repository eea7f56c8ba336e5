package services

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/shared"
)

// Registry holds the configured sources in aggregation order plus the Spotify token manager.
type Registry struct {
	Tokens  *TokenManager
	Sources []Source
}

// NewRegistry builds Spotify, Last.fm and MusicBrainz sources from the config.
//
// Each source owns a limiter paced by its configured interval and a client with its configured timeout.
func NewRegistry(cfg *shared.Config, store *shared.CredentialStore, logger *log.Logger) *Registry {
	sourceOpts := func(name string, sc shared.SourceConfig) []Option {
		limiter := NewLimiter(sc.Interval())
		logger.Debug("source configured", "source", name, "interval", limiter.Interval(), "timeout", sc.Timeout(), "disabled", sc.Disabled)
		return []Option{
			WithBaseURL(sc.BaseURL),
			WithHTTPClient(&http.Client{Timeout: sc.Timeout()}),
			WithLimiter(limiter),
			WithLogger(logger),
			WithDisabled(sc.Disabled),
		}
	}

	tokens := NewTokenManager(store, cfg.Credentials.Spotify.TokenURL,
		WithTokenMargin(cfg.Enrich.TokenMargin()),
		WithTokenHTTPClient(&http.Client{Timeout: cfg.Sources.Spotify.Timeout()}),
		WithTokenLogger(logger),
	)
	lastFMKey, _ := store.LastFMKey()

	return &Registry{
		Tokens: tokens,
		Sources: []Source{
			NewSpotifySource(tokens, sourceOpts(models.SourceSpotify, cfg.Sources.Spotify)...),
			NewLastFMSource(lastFMKey, sourceOpts(models.SourceLastFM, cfg.Sources.LastFM)...),
			NewMusicBrainzSource(store.UserAgent(), sourceOpts(models.SourceMusicBrainz, cfg.Sources.MusicBrainz)...),
		},
	}
}

// Enabled returns the names of the sources that will make network calls.
func (r *Registry) Enabled() []string {
	var names []string
	for _, s := range r.Sources {
		if s.Enabled() {
			names = append(names, s.Name())
		}
	}
	return names
}
