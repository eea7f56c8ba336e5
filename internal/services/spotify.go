// Spotify Web API implementation of [Source]
//
// Field names follow https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/shared"
	"github.com/tidwall/gjson"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// spotifyTrackFields maps search result paths to columns.
var spotifyTrackFields = []struct{ path, column string }{
	{"id", "spotify_id"},
	{"popularity", "spotify_popularity"},
	{"duration_ms", "spotify_duration_ms"},
	{"explicit", "spotify_explicit"},
	{"preview_url", "spotify_preview_url"},
	{"album.name", "spotify_album"},
	{"album.release_date", "spotify_release_date"},
}

// spotifyFeatureFields maps audio-features paths to columns.
var spotifyFeatureFields = []struct{ path, column string }{
	{"danceability", "spotify_danceability"},
	{"energy", "spotify_energy"},
	{"key", "spotify_key"},
	{"loudness", "spotify_loudness"},
	{"mode", "spotify_mode"},
	{"speechiness", "spotify_speechiness"},
	{"acousticness", "spotify_acousticness"},
	{"instrumentalness", "spotify_instrumentalness"},
	{"liveness", "spotify_liveness"},
	{"valence", "spotify_valence"},
	{"tempo", "spotify_tempo"},
	{"time_signature", "spotify_time_signature"},
}

// SpotifySource searches the Spotify catalog and adds audio features for the best match.
type SpotifySource struct {
	client
	tokens TokenProvider
}

// NewSpotifySource creates the Spotify source. Tokens come from tokens, usually a [TokenManager].
func NewSpotifySource(tokens TokenProvider, opts ...Option) *SpotifySource {
	return &SpotifySource{
		client: newClient(models.SourceSpotify, spotifyBaseURL, opts...),
		tokens: tokens,
	}
}

func (s *SpotifySource) Name() string { return models.SourceSpotify }

func (s *SpotifySource) Columns() []string { return models.SpotifyColumns }

// Enabled reports whether the source is on and client credentials are configured.
func (s *SpotifySource) Enabled() bool {
	if s.disabled || s.tokens == nil {
		return false
	}
	if m, ok := s.tokens.(*TokenManager); ok {
		return m.Configured()
	}
	return true
}

// Lookup searches for the track, then fetches its audio features.
//
// A failed audio-features request keeps the search fields.
func (s *SpotifySource) Lookup(ctx context.Context, q models.TrackQuery) Result {
	if s.disabled || s.tokens == nil {
		return disabled(s.name, shared.ErrMissingCredentials)
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrMissingCredentials) || errors.Is(err, shared.ErrInvalidCredentials) {
			return disabled(s.name, err)
		}
		return s.logResult(q, failed(s.name, err))
	}
	header := http.Header{"Authorization": {"Bearer " + token}}

	params := url.Values{
		"q":     {fmt.Sprintf("track:%s artist:%s", q.Title, q.Artist)},
		"type":  {"track"},
		"limit": {"1"},
	}
	body, err := s.getJSON(ctx, "/search", params, header)
	if err != nil {
		return s.logResult(q, failed(s.name, err))
	}

	items := gjson.GetBytes(body, "tracks.items")
	if !items.IsArray() || len(items.Array()) == 0 {
		return s.logResult(q, miss(s.name, "no tracks in search result"))
	}

	track := items.Array()[0]
	id := track.Get("id").String()
	if id == "" {
		return s.logResult(q, miss(s.name, "search result has no id"))
	}

	rec := models.SourceRecord{}
	for _, f := range spotifyTrackFields {
		put(rec, f.column, track.Get(f.path))
	}

	features, err := s.getJSON(ctx, "/audio-features/"+url.PathEscape(id), nil, header)
	if err != nil {
		s.logger.Debug("could not get audio features", "track", q.String(), "id", id, "error", err)
		return s.logResult(q, hit(s.name, rec))
	}

	parsed := gjson.ParseBytes(features)
	for _, f := range spotifyFeatureFields {
		put(rec, f.column, parsed.Get(f.path))
	}

	return s.logResult(q, hit(s.name, rec))
}
