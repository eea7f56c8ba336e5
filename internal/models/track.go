package models

import (
	"strings"
)

// Source names, used as prefixes for enrichment columns and as keys for hit counters.
const (
	SourceSpotify     = "spotify"
	SourceLastFM      = "lastfm"
	SourceMusicBrainz = "musicbrainz"
)

// Sources lists every metadata source in aggregation order.
var Sources = []string{SourceSpotify, SourceLastFM, SourceMusicBrainz}

// SpotifyColumns are the enrichment columns produced by the Spotify source.
var SpotifyColumns = []string{
	"spotify_id",
	"spotify_popularity",
	"spotify_duration_ms",
	"spotify_explicit",
	"spotify_preview_url",
	"spotify_album",
	"spotify_release_date",
	"spotify_danceability",
	"spotify_energy",
	"spotify_key",
	"spotify_loudness",
	"spotify_mode",
	"spotify_speechiness",
	"spotify_acousticness",
	"spotify_instrumentalness",
	"spotify_liveness",
	"spotify_valence",
	"spotify_tempo",
	"spotify_time_signature",
}

// LastFMColumns are the enrichment columns produced by the Last.fm source.
var LastFMColumns = []string{
	"lastfm_playcount",
	"lastfm_listeners",
	"lastfm_tags",
	"lastfm_url",
}

// MusicBrainzColumns are the enrichment columns produced by the MusicBrainz source.
var MusicBrainzColumns = []string{
	"musicbrainz_id",
	"musicbrainz_title",
	"musicbrainz_length",
	"musicbrainz_tags",
	"musicbrainz_country",
	"musicbrainz_date",
}

// EnrichmentColumns returns the fixed enrichment header in output order.
func EnrichmentColumns() []string {
	cols := make([]string, 0, len(SpotifyColumns)+len(LastFMColumns)+len(MusicBrainzColumns))
	cols = append(cols, SpotifyColumns...)
	cols = append(cols, LastFMColumns...)
	cols = append(cols, MusicBrainzColumns...)
	return cols
}

// TrackQuery is the (title, artist) pair submitted to each source.
// Empty strings are valid and produce a lookup that will most likely miss.
type TrackQuery struct {
	Title  string
	Artist string
}

// String renders the query as "artist - title" for logs and progress messages.
func (q TrackQuery) String() string {
	return q.Artist + " - " + q.Title
}

// Row is a single input record keyed by column name.
type Row map[string]string

// Clone returns a copy of the row so enrichment never touches the caller's map.
func (r Row) Clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Table is an input file: ordered column names plus rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// Column returns the actual header name matching name case-insensitively.
func (t *Table) Column(name string) (string, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return c, true
		}
	}
	return "", false
}

// SourceRecord maps a source-prefixed field name to its scalar value rendered as text.
// A key that is not present is a null value.
type SourceRecord map[string]string

// Merge copies every field of other into r.
func (r SourceRecord) Merge(other SourceRecord) {
	for k, v := range other {
		r[k] = v
	}
}

// EnrichedTrack is an input row plus the merged enrichment fields.
type EnrichedTrack struct {
	Input   Row          // Original input record, unmodified
	Fields  SourceRecord // Merged enrichment fields
	Sources []string     // Sources that contributed at least one field, in aggregation order
}

// Value reads a column, preferring the input record, then enrichment.
func (e EnrichedTrack) Value(col string) (string, bool) {
	if v, ok := e.Input[col]; ok {
		return v, true
	}
	v, ok := e.Fields[col]
	return v, ok
}

// Has reports whether source contributed to this track.
func (e EnrichedTrack) Has(source string) bool {
	for _, s := range e.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// SourceStat is the hit counter for one source within a run.
type SourceStat struct {
	Source string `json:"source"`
	Hits   int    `json:"hits"`
	Total  int    `json:"total"`
}

// HitRate returns the hit percentage, or 0 for an empty run.
func (s SourceStat) HitRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Total) * 100
}

// BatchResult is the output of a single enrichment run.
type BatchResult struct {
	RunID   string
	Columns []string // Input columns followed by the enrichment columns
	Tracks  []EnrichedTrack
	Stats   []SourceStat
	Total   int
	Skipped int // Rows passed through without lookups because the run was cancelled
}

// Stat returns the counter for source.
func (b *BatchResult) Stat(source string) SourceStat {
	for _, s := range b.Stats {
		if s.Source == source {
			return s
		}
	}
	return SourceStat{Source: source, Total: b.Total}
}
