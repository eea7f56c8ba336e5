package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/desertthunder/ntscat/internal/models"
	"github.com/tidwall/gjson"
)

const musicBrainzBaseURL = "https://musicbrainz.org/ws/2"

// MusicBrainzSource searches recordings on the anonymous MusicBrainz web service.
//
// MusicBrainz rejects clients without an identifying User-Agent, so one is always sent.
type MusicBrainzSource struct {
	client
}

// NewMusicBrainzSource creates the MusicBrainz source with the given User-Agent.
func NewMusicBrainzSource(userAgent string, opts ...Option) *MusicBrainzSource {
	c := newClient(models.SourceMusicBrainz, musicBrainzBaseURL, opts...)
	if userAgent == "" {
		userAgent = "ntscat/1.0"
	}
	c.userAgent = userAgent
	return &MusicBrainzSource{client: c}
}

func (s *MusicBrainzSource) Name() string { return models.SourceMusicBrainz }

func (s *MusicBrainzSource) Columns() []string { return models.MusicBrainzColumns }

func (s *MusicBrainzSource) Enabled() bool { return !s.disabled }

// Lookup reads the first recording of the search result.
// Missing nested collections leave their fields absent.
func (s *MusicBrainzSource) Lookup(ctx context.Context, q models.TrackQuery) Result {
	if s.disabled {
		return disabled(s.name, nil)
	}

	params := url.Values{
		"query": {fmt.Sprintf(`recording:"%s" AND artist:"%s"`, q.Title, q.Artist)},
		"fmt":   {"json"},
		"limit": {"1"},
	}
	body, err := s.getJSON(ctx, "/recording/", params, nil)
	if err != nil {
		return s.logResult(q, failed(s.name, err))
	}

	recording := gjson.GetBytes(body, "recordings.0")
	if !recording.IsObject() {
		return s.logResult(q, miss(s.name, "no recordings in search result"))
	}

	rec := models.SourceRecord{}
	put(rec, "musicbrainz_id", recording.Get("id"))
	put(rec, "musicbrainz_title", recording.Get("title"))
	put(rec, "musicbrainz_length", recording.Get("length"))
	if tags := joinTags(recording.Get("tags")); tags != "" {
		rec["musicbrainz_tags"] = tags
	}
	put(rec, "musicbrainz_country", recording.Get("releases.0.country"))
	put(rec, "musicbrainz_date", recording.Get("releases.0.date"))

	return s.logResult(q, hit(s.name, rec))
}
