package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ntscat/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// DefaultTokenMargin is subtracted from the provider's token lifetime.
	DefaultTokenMargin = 300 * time.Second

	// defaultTokenTTL is assumed when the token response carries no lifetime.
	defaultTokenTTL = time.Hour

	// DefaultTokenRetryDelay is how long a failed exchange is remembered before the next attempt.
	DefaultTokenRetryDelay = 30 * time.Second
)

// TokenProvider supplies bearer tokens to a source.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenManager obtains and caches a client-credentials bearer token.
//
// The token is reused while now < expiresAt, where expiresAt = fetch time + lifetime - margin.
// Concurrent callers share a single refresh.
//
// A failed exchange is remembered: credentials rejected by the provider are never retried,
// and any other failure blocks new exchanges until the retry delay has passed.
type TokenManager struct {
	config     *clientcredentials.Config
	httpClient *http.Client
	margin     time.Duration
	retryDelay time.Duration
	now        func() time.Time
	logger     *log.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	rejected  error
	lastErr   error
	retryAt   time.Time
}

// TokenOption configures a [TokenManager].
type TokenOption func(*TokenManager)

// WithTokenClock replaces the time source used for expiry checks.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithTokenMargin overrides [DefaultTokenMargin].
func WithTokenMargin(d time.Duration) TokenOption {
	return func(m *TokenManager) {
		if d >= 0 {
			m.margin = d
		}
	}
}

// WithTokenRetryDelay overrides [DefaultTokenRetryDelay].
func WithTokenRetryDelay(d time.Duration) TokenOption {
	return func(m *TokenManager) {
		if d >= 0 {
			m.retryDelay = d
		}
	}
}

// WithTokenHTTPClient sets the client used for the token exchange.
func WithTokenHTTPClient(hc *http.Client) TokenOption {
	return func(m *TokenManager) {
		if hc != nil {
			m.httpClient = hc
		}
	}
}

// WithTokenLogger sets the logger.
func WithTokenLogger(l *log.Logger) TokenOption {
	return func(m *TokenManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewTokenManager creates a manager for the Spotify client credentials held by store.
// An empty tokenURL uses the Spotify accounts endpoint.
func NewTokenManager(store *shared.CredentialStore, tokenURL string, opts ...TokenOption) *TokenManager {
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}

	m := &TokenManager{
		httpClient: http.DefaultClient,
		margin:     DefaultTokenMargin,
		retryDelay: DefaultTokenRetryDelay,
		now:        time.Now,
		logger:     shared.NewLogger(io.Discard),
	}

	if id, secret, ok := store.SpotifyClient(); ok {
		m.config = &clientcredentials.Config{
			ClientID:     id,
			ClientSecret: secret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Configured reports whether client credentials are present.
func (m *TokenManager) Configured() bool {
	return m.config != nil
}

// Token returns a valid bearer token, exchanging credentials only when the cached one has expired.
//
// Errors wrap [shared.ErrCredentialUnavailable]. A missing client id or secret additionally wraps
// [shared.ErrMissingCredentials], credentials the provider rejected wrap [shared.ErrInvalidCredentials]
// and a call made while a previous failure is being waited out wraps [shared.ErrServiceUnavailable].
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if m.config == nil {
		return "", fmt.Errorf("%w: %w", shared.ErrCredentialUnavailable, shared.ErrMissingCredentials)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Before(m.expiresAt) {
		return m.token, nil
	}
	if m.rejected != nil {
		return "", m.rejected
	}
	if m.lastErr != nil && m.now().Before(m.retryAt) {
		return "", fmt.Errorf("%w: %w: retrying after %s: %v",
			shared.ErrCredentialUnavailable, shared.ErrServiceUnavailable, m.retryAt.Format(time.RFC3339), m.lastErr)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	tok, err := m.config.Token(ctx)
	if err != nil {
		return "", m.fail(err)
	}
	if tok.AccessToken == "" {
		return "", m.fail(errors.New("token response has no access_token"))
	}
	m.lastErr = nil

	ttl := tokenTTL(tok)
	m.token = tok.AccessToken
	m.expiresAt = m.now().Add(ttl - m.margin)
	m.logger.Info("spotify token acquired", "ttl", ttl, "expires_at", m.expiresAt.Format(time.RFC3339))

	return m.token, nil
}

// fail records a failed exchange. Must be called with mu held.
func (m *TokenManager) fail(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) && rErr.Response != nil &&
		(rErr.Response.StatusCode == http.StatusBadRequest || rErr.Response.StatusCode == http.StatusUnauthorized) {
		m.rejected = fmt.Errorf("%w: %w: %v", shared.ErrCredentialUnavailable, shared.ErrInvalidCredentials, err)
		m.logger.Error("spotify rejected client credentials; source disabled for this run", "error", err)
		return m.rejected
	}

	m.lastErr = err
	m.retryAt = m.now().Add(m.retryDelay)
	m.logger.Error("spotify token exchange failed", "error", err, "retry_at", m.retryAt.Format(time.RFC3339))
	return fmt.Errorf("%w: token exchange failed: %v", shared.ErrCredentialUnavailable, err)
}

// ExpiresAt returns the time after which the cached token will be refreshed.
func (m *TokenManager) ExpiresAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt
}

// tokenTTL reads expires_in from the raw response, falling back to the parsed expiry.
func tokenTTL(tok *oauth2.Token) time.Duration {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	case int64:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	if !tok.Expiry.IsZero() {
		if ttl := time.Until(tok.Expiry).Round(time.Second); ttl > 0 {
			return ttl
		}
	}
	return defaultTokenTTL
}
