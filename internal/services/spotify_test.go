package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/shared"
	tu "github.com/desertthunder/ntscat/internal/testing"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token(context.Context) (string, error) { return s.token, s.err }

const spotifySearchBody = `{
  "tracks": {
    "items": [{
      "id": "6I9VzXrHxO9rA9A5euc8Ak",
      "name": "Toxic",
      "popularity": 84,
      "duration_ms": 198800,
      "explicit": false,
      "preview_url": null,
      "album": {"name": "In The Zone", "release_date": "2003-11-12"}
    }]
  }
}`

const spotifyFeaturesBody = `{
  "danceability": 0.774,
  "energy": 0.838,
  "key": 5,
  "loudness": -3.914,
  "mode": 0,
  "speechiness": 0.114,
  "acousticness": 0.0249,
  "instrumentalness": 0.025,
  "liveness": 0.242,
  "valence": 0.924,
  "tempo": 143.04,
  "time_signature": 4
}`

func spotifyServer(t *testing.T, featuresStatus int) *tu.CountingServer {
	t.Helper()
	return tu.NewCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			tu.WriteJSON(w, http.StatusOK, spotifySearchBody)
		case strings.HasPrefix(r.URL.Path, "/audio-features/"):
			if featuresStatus != http.StatusOK {
				tu.WriteJSON(w, featuresStatus, `{"error":{"status":403,"message":"Forbidden"}}`)
				return
			}
			tu.WriteJSON(w, http.StatusOK, spotifyFeaturesBody)
		default:
			http.NotFound(w, r)
		}
	})
}

func TestSpotifySource(t *testing.T) {
	query := models.TrackQuery{Title: "Toxic", Artist: "Britney Spears"}

	t.Run("Search And Audio Features", func(t *testing.T) {
		srv := spotifyServer(t, http.StatusOK)
		src := NewSpotifySource(staticTokens{token: "tok"}, WithBaseURL(srv.URL))

		res := src.Lookup(context.Background(), query)
		if res.Outcome != Hit {
			t.Fatalf("expected hit, got %v (%v)", res.Outcome, res.Err)
		}

		want := map[string]string{
			"spotify_id":             "6I9VzXrHxO9rA9A5euc8Ak",
			"spotify_popularity":     "84",
			"spotify_duration_ms":    "198800",
			"spotify_explicit":       "false",
			"spotify_album":          "In The Zone",
			"spotify_release_date":   "2003-11-12",
			"spotify_danceability":   "0.774",
			"spotify_key":            "5",
			"spotify_loudness":       "-3.914",
			"spotify_tempo":          "143.04",
			"spotify_time_signature": "4",
		}
		for k, v := range want {
			if res.Record[k] != v {
				t.Errorf("expected %s=%s, got %q", k, v, res.Record[k])
			}
		}

		if _, ok := res.Record["spotify_preview_url"]; ok {
			t.Error("expected null preview_url to be absent")
		}
		if srv.Hits("/search") != 1 || srv.Hits("/audio-features/") != 1 {
			t.Errorf("expected one search and one detail request, got %d and %d", srv.Hits("/search"), srv.Hits("/audio-features/"))
		}
	})

	t.Run("Sends Query And Bearer Token", func(t *testing.T) {
		var q, typ, limit, auth string
		srv := tu.NewCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/search" {
				q = r.URL.Query().Get("q")
				typ = r.URL.Query().Get("type")
				limit = r.URL.Query().Get("limit")
				auth = r.Header.Get("Authorization")
			}
			tu.WriteJSON(w, http.StatusOK, `{"tracks":{"items":[]}}`)
		})

		NewSpotifySource(staticTokens{token: "tok"}, WithBaseURL(srv.URL)).Lookup(context.Background(), query)

		if q != "track:Toxic artist:Britney Spears" {
			t.Errorf("unexpected query %q", q)
		}
		if typ != "track" || limit != "1" {
			t.Errorf("expected type=track limit=1, got type=%s limit=%s", typ, limit)
		}
		if auth != "Bearer tok" {
			t.Errorf("expected bearer header, got %q", auth)
		}
	})

	t.Run("Audio Features Failure Keeps Primary Fields", func(t *testing.T) {
		srv := spotifyServer(t, http.StatusForbidden)
		src := NewSpotifySource(staticTokens{token: "tok"}, WithBaseURL(srv.URL))

		res := src.Lookup(context.Background(), query)
		if res.Outcome != Hit {
			t.Fatalf("expected hit, got %v (%v)", res.Outcome, res.Err)
		}
		if res.Record["spotify_id"] != "6I9VzXrHxO9rA9A5euc8Ak" || res.Record["spotify_album"] != "In The Zone" {
			t.Errorf("expected primary fields, got %v", res.Record)
		}
		if _, ok := res.Record["spotify_danceability"]; ok {
			t.Error("expected audio features to be absent")
		}
	})

	t.Run("No Results Is A Miss", func(t *testing.T) {
		srv := tu.NewCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusOK, `{"tracks":{"items":[]}}`)
		})

		res := NewSpotifySource(staticTokens{token: "tok"}, WithBaseURL(srv.URL)).Lookup(context.Background(), query)
		if res.Outcome != Miss || !errors.Is(res.Err, shared.ErrSourceMiss) {
			t.Errorf("expected miss, got %v (%v)", res.Outcome, res.Err)
		}
		if res.OK() {
			t.Error("miss should not be OK")
		}
		if srv.Hits("/audio-features/") != 0 {
			t.Error("expected no detail request after a miss")
		}
	})

	t.Run("Search Error Is A Failure", func(t *testing.T) {
		srv := tu.NewCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		res := NewSpotifySource(staticTokens{token: "tok"}, WithBaseURL(srv.URL)).Lookup(context.Background(), query)
		if res.Outcome != Failed || !errors.Is(res.Err, shared.ErrAPIRequest) {
			t.Errorf("expected failed with ErrAPIRequest, got %v (%v)", res.Outcome, res.Err)
		}
	})

	t.Run("Transport Error Is A Failure", func(t *testing.T) {
		hc := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		res := NewSpotifySource(staticTokens{token: "tok"}, WithHTTPClient(hc)).Lookup(context.Background(), query)

		if res.Outcome != Failed || !errors.Is(res.Err, shared.ErrTransport) {
			t.Errorf("expected failed with ErrTransport, got %v (%v)", res.Outcome, res.Err)
		}
	})

	t.Run("Token Exchange Failure Is A Failure", func(t *testing.T) {
		srv := spotifyServer(t, http.StatusOK)
		tokens := staticTokens{err: shared.ErrCredentialUnavailable}

		res := NewSpotifySource(tokens, WithBaseURL(srv.URL)).Lookup(context.Background(), query)
		if res.Outcome != Failed {
			t.Errorf("expected failed, got %v", res.Outcome)
		}
		if srv.Hits("/") != 0 {
			t.Error("expected no API requests without a token")
		}
	})

	t.Run("Missing Credentials Disables Source", func(t *testing.T) {
		srv := spotifyServer(t, http.StatusOK)
		tokens := NewTokenManager(spotifyStore("", ""), srv.URL)
		src := NewSpotifySource(tokens, WithBaseURL(srv.URL))

		if src.Enabled() {
			t.Error("expected source to be disabled")
		}
		res := src.Lookup(context.Background(), query)
		if res.Outcome != Disabled {
			t.Errorf("expected disabled, got %v", res.Outcome)
		}
		if srv.Hits("/") != 0 {
			t.Errorf("expected no network calls, got %d", srv.Hits("/"))
		}
	})

	t.Run("Rejected Credentials Exchange Once Per Batch", func(t *testing.T) {
		srv := spotifyServer(t, http.StatusOK)
		auth := tokenServer(t, http.StatusBadRequest, `{"error":"invalid_client"}`)
		tokens := NewTokenManager(spotifyStore("client", "wrong"), auth.URL)
		src := NewSpotifySource(tokens, WithBaseURL(srv.URL), WithLimiter(NewLimiter(500*time.Millisecond)))

		start := time.Now()
		for i := 0; i < 20; i++ {
			res := src.Lookup(context.Background(), query)
			if res.Outcome != Disabled {
				t.Fatalf("expected disabled, got %v (%v)", res.Outcome, res.Err)
			}
		}

		if auth.Hits("/") != 1 {
			t.Errorf("expected 1 token request over 20 lookups, got %d", auth.Hits("/"))
		}
		if srv.Hits("/") != 0 {
			t.Errorf("expected no API requests, got %d", srv.Hits("/"))
		}
		if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
			t.Errorf("expected lookups to return without pacing delays, took %v", elapsed)
		}
	})

	t.Run("Search And Detail Are Paced", func(t *testing.T) {
		srv := spotifyServer(t, http.StatusOK)
		clock := tu.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		var slept []time.Duration
		limiter := NewLimiter(100*time.Millisecond, WithLimiterClock(clock.Now, func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			clock.Advance(d)
			return nil
		}))
		src := NewSpotifySource(staticTokens{token: "tok"}, WithBaseURL(srv.URL), WithLimiter(limiter))

		src.Lookup(context.Background(), query)

		if len(slept) != 1 || slept[0] != 100*time.Millisecond {
			t.Errorf("expected detail request to wait 100ms after search, got %v", slept)
		}
	})
}
