package shared

import (
	"fmt"
	"strings"
)

// CredentialStore is the read-only view of every source credential.
//
// It is built once at startup from the config (after [Config.ApplyEnv]) and never changes afterwards.
type CredentialStore struct {
	spotifyID     string
	spotifySecret string
	lastFMKey     string
	userAgent     string
}

// NewCredentialStore snapshots the credentials section of cfg.
func NewCredentialStore(cfg *Config) *CredentialStore {
	mb := cfg.Credentials.MusicBrainz
	ua := strings.TrimSpace(mb.UserAgent)
	if ua == "" {
		ua = "ntscat/1.0"
	}
	if contact := strings.TrimSpace(mb.Contact); contact != "" {
		ua = fmt.Sprintf("%s ( %s )", ua, contact)
	}

	return &CredentialStore{
		spotifyID:     strings.TrimSpace(cfg.Credentials.Spotify.ClientID),
		spotifySecret: strings.TrimSpace(cfg.Credentials.Spotify.ClientSecret),
		lastFMKey:     strings.TrimSpace(cfg.Credentials.LastFM.APIKey),
		userAgent:     ua,
	}
}

// SpotifyClient returns the client id and secret, and whether both are present.
func (c *CredentialStore) SpotifyClient() (id, secret string, ok bool) {
	return c.spotifyID, c.spotifySecret, c.spotifyID != "" && c.spotifySecret != ""
}

// LastFMKey returns the Last.fm API key and whether it is present.
func (c *CredentialStore) LastFMKey() (string, bool) {
	return c.lastFMKey, c.lastFMKey != ""
}

// UserAgent returns the identifying User-Agent sent to MusicBrainz.
func (c *CredentialStore) UserAgent() string {
	return c.userAgent
}
