package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/shared"
	"github.com/tidwall/gjson"
)

const lastFMBaseURL = "https://ws.audioscrobbler.com/2.0/"

// LastFMSource reads listener statistics and top tags from the Last.fm track.getInfo method.
type LastFMSource struct {
	client
	apiKey string
}

// NewLastFMSource creates the Last.fm source. An empty apiKey disables it.
func NewLastFMSource(apiKey string, opts ...Option) *LastFMSource {
	return &LastFMSource{
		client: newClient(models.SourceLastFM, lastFMBaseURL, opts...),
		apiKey: apiKey,
	}
}

func (s *LastFMSource) Name() string { return models.SourceLastFM }

func (s *LastFMSource) Columns() []string { return models.LastFMColumns }

func (s *LastFMSource) Enabled() bool { return !s.disabled && s.apiKey != "" }

// Lookup calls track.getInfo. A body carrying an "error" field is a miss.
func (s *LastFMSource) Lookup(ctx context.Context, q models.TrackQuery) Result {
	if !s.Enabled() {
		return disabled(s.name, shared.ErrMissingCredentials)
	}

	params := url.Values{
		"method":  {"track.getInfo"},
		"api_key": {s.apiKey},
		"artist":  {q.Artist},
		"track":   {q.Title},
		"format":  {"json"},
	}
	resp, err := s.get(ctx, "/", params, nil)
	if err != nil {
		return s.logResult(q, failed(s.name, err))
	}

	if gjson.ValidBytes(resp.body) {
		if e := gjson.GetBytes(resp.body, "error"); e.Exists() {
			msg := gjson.GetBytes(resp.body, "message").String()
			return s.logResult(q, miss(s.name, fmt.Sprintf("error %s: %s", e.String(), msg)))
		}
	}
	if !resp.ok() {
		return s.logResult(q, failed(s.name, fmt.Errorf("%w: lastfm API error: status %d", shared.ErrAPIRequest, resp.status)))
	}
	if !gjson.ValidBytes(resp.body) {
		return s.logResult(q, failed(s.name, fmt.Errorf("failed to decode response: invalid JSON from %s", s.name)))
	}

	track := gjson.GetBytes(resp.body, "track")
	if !track.IsObject() {
		return s.logResult(q, miss(s.name, "response has no track"))
	}

	rec := models.SourceRecord{}
	put(rec, "lastfm_playcount", track.Get("playcount"))
	put(rec, "lastfm_listeners", track.Get("listeners"))
	if tags := joinTags(track.Get("toptags.tag")); tags != "" {
		rec["lastfm_tags"] = tags
	}
	put(rec, "lastfm_url", track.Get("url"))

	return s.logResult(q, hit(s.name, rec))
}
