package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/shared"
	th "github.com/desertthunder/ntscat/internal/testing"
)

func sampleResult() *models.BatchResult {
	columns := append([]string{"TITLE", "ARTIST"}, models.EnrichmentColumns()...)
	return &models.BatchResult{
		RunID:   "run-1",
		Columns: columns,
		Total:   2,
		Tracks: []models.EnrichedTrack{
			{
				Input:   models.Row{"TITLE": "Toxic", "ARTIST": "Britney Spears"},
				Fields:  models.SourceRecord{"spotify_id": "abc", "lastfm_tags": "pop; dance"},
				Sources: []string{"spotify", "lastfm"},
			},
			{
				Input:  models.Row{"TITLE": "Unknown, Song", "ARTIST": "Nobody"},
				Fields: models.SourceRecord{},
			},
		},
		Stats: []models.SourceStat{
			{Source: "spotify", Hits: 1, Total: 2},
			{Source: "lastfm", Hits: 1, Total: 2},
			{Source: "musicbrainz", Hits: 0, Total: 2},
		},
	}
}

func TestReadCSV(t *testing.T) {
	t.Run("Header And Rows", func(t *testing.T) {
		table, err := ReadCSV(strings.NewReader("TITLE,ARTIST,YEAR\nToxic,Britney Spears,2003\n\"Hello, World\",Someone,\n"))
		if err != nil {
			t.Fatalf("ReadCSV failed: %v", err)
		}
		if len(table.Columns) != 3 || len(table.Rows) != 2 {
			t.Fatalf("expected 3 columns and 2 rows, got %d and %d", len(table.Columns), len(table.Rows))
		}
		if table.Rows[1]["TITLE"] != "Hello, World" {
			t.Errorf("expected quoted title, got %q", table.Rows[1]["TITLE"])
		}
		if v, ok := table.Rows[1]["YEAR"]; !ok || v != "" {
			t.Errorf("expected empty YEAR cell, got %q (%v)", v, ok)
		}
	})

	t.Run("Byte Order Mark", func(t *testing.T) {
		table, err := ReadCSV(strings.NewReader("\ufeffTITLE,ARTIST\nToxic,Britney Spears\n"))
		if err != nil {
			t.Fatalf("ReadCSV failed: %v", err)
		}
		if _, ok := table.Column("TITLE"); !ok {
			t.Errorf("expected TITLE column after BOM, got %v", table.Columns)
		}
	})

	t.Run("Short Rows Are Padded", func(t *testing.T) {
		table, err := ReadCSV(strings.NewReader("TITLE,ARTIST,YEAR\nToxic\n"))
		if err != nil {
			t.Fatalf("ReadCSV failed: %v", err)
		}
		if table.Rows[0]["ARTIST"] != "" || len(table.Rows[0]) != 3 {
			t.Errorf("expected padded row, got %v", table.Rows[0])
		}
	})

	t.Run("Whitespace Line Is A Row", func(t *testing.T) {
		table, err := ReadCSV(strings.NewReader("TITLE,ARTIST\nToxic,Britney Spears\n   \n\nHyperballad,Björk\n"))
		if err != nil {
			t.Fatalf("ReadCSV failed: %v", err)
		}
		if len(table.Rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(table.Rows))
		}
		if table.Rows[1]["TITLE"] != "   " || table.Rows[1]["ARTIST"] != "" {
			t.Errorf("expected whitespace row to be kept, got %v", table.Rows[1])
		}
	})

	t.Run("Header Only", func(t *testing.T) {
		table, err := ReadCSV(strings.NewReader("TITLE,ARTIST\n"))
		if err != nil {
			t.Fatalf("ReadCSV failed: %v", err)
		}
		if len(table.Rows) != 0 {
			t.Errorf("expected no rows, got %d", len(table.Rows))
		}
	})

	t.Run("Empty File", func(t *testing.T) {
		if _, err := ReadCSV(strings.NewReader("")); !errors.Is(err, shared.ErrEmptyInput) {
			t.Errorf("expected ErrEmptyInput, got %v", err)
		}
	})

	t.Run("Malformed Quotes", func(t *testing.T) {
		if _, err := ReadCSV(strings.NewReader("TITLE,ARTIST\n\"unterminated,x\n")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		if _, err := ReadCSVFile(filepath.Join(t.TempDir(), "nope.csv")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleResult())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
		}
		if !strings.HasPrefix(lines[0], "TITLE,ARTIST,spotify_id,spotify_popularity") {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if !strings.HasSuffix(lines[0], "musicbrainz_date") {
			t.Errorf("expected last header musicbrainz_date, got: %s", lines[0])
		}
		if got := strings.Count(lines[0], ","); got != 30 {
			t.Errorf("expected 31 columns, got %d", got+1)
		}
		if !strings.HasPrefix(lines[1], "Toxic,Britney Spears,abc,") {
			t.Errorf("unexpected first row: %s", lines[1])
		}
		if !strings.Contains(lines[1], "pop; dance") {
			t.Errorf("CSV missing lastfm tags")
		}
		if !strings.HasPrefix(lines[2], `"Unknown, Song",Nobody,,`) {
			t.Errorf("unexpected second row: %s", lines[2])
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleResult())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var out struct {
			RunID   string `json:"run_id"`
			Total   int    `json:"total"`
			Sources []struct {
				Source  string  `json:"source"`
				HitRate float64 `json:"hit_rate"`
			} `json:"sources"`
			Tracks []map[string]*string `json:"tracks"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}

		if out.RunID != "run-1" || out.Total != 2 {
			t.Errorf("unexpected header fields %+v", out)
		}
		if len(out.Sources) != 3 || out.Sources[0].HitRate != 50 {
			t.Errorf("unexpected sources %+v", out.Sources)
		}
		if len(out.Tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(out.Tracks))
		}
		if v := out.Tracks[0]["spotify_id"]; v == nil || *v != "abc" {
			t.Errorf("expected spotify_id abc, got %v", v)
		}
		if v, ok := out.Tracks[1]["spotify_id"]; !ok || v != nil {
			t.Errorf("expected explicit null spotify_id, got %v (%v)", v, ok)
		}
	})

	t.Run("ExportTracklistCSV", func(t *testing.T) {
		data, err := ExportTracklistCSV([]models.TracklistEntry{
			{Title: "hyph mngo", Artist: "joy orbison", EpisodeURL: "https://www.nts.live/shows/x/episodes/a"},
		})
		if err != nil {
			t.Fatalf("ExportTracklistCSV failed: %v", err)
		}
		want := "TITLE,ARTIST,EPISODE_URL\nhyph mngo,joy orbison,https://www.nts.live/shows/x/episodes/a\n"
		if string(data) != want {
			t.Errorf("expected %q, got %q", want, string(data))
		}
	})

	t.Run("TracklistTable", func(t *testing.T) {
		table := TracklistTable([]models.TracklistEntry{{Title: "a", Artist: "b", EpisodeURL: "u"}})
		if len(table.Rows) != 1 || table.Rows[0]["EPISODE_URL"] != "u" {
			t.Errorf("unexpected table %+v", table)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("DefaultOutputPath", func(t *testing.T) {
		tc := []struct {
			input, format, want string
		}{
			{"tracks.csv", FormatCSV, "tracks_enriched.csv"},
			{"dir/tracks.csv", FormatJSON, "dir/tracks_enriched.json"},
			{"tracks", "", "tracks_enriched.csv"},
		}
		for _, tt := range tc {
			if got := DefaultOutputPath(tt.input, tt.format); got != tt.want {
				t.Errorf("DefaultOutputPath(%q, %q) = %q, want %q", tt.input, tt.format, got, tt.want)
			}
		}
	})

	t.Run("WriteEnrichedExport Defaults", func(t *testing.T) {
		tempDir := t.TempDir()
		input := filepath.Join(tempDir, "show.csv")

		path, err := WriteEnrichedExport(sampleResult(), FormatCSV, input, "")
		if err != nil {
			t.Fatalf("WriteEnrichedExport failed: %v", err)
		}
		if path != filepath.Join(tempDir, "show_enriched.csv") {
			t.Errorf("unexpected path %s", path)
		}
		th.AssertFileExists(t, path)

		table, err := ReadCSVFile(path)
		if err != nil {
			t.Fatalf("failed to read back output: %v", err)
		}
		if len(table.Rows) != 2 || table.Rows[0]["spotify_id"] != "abc" {
			t.Errorf("unexpected round trip %+v", table.Rows)
		}
	})

	t.Run("WriteEnrichedExport Rejects SQLite", func(t *testing.T) {
		_, err := WriteEnrichedExport(sampleResult(), FormatSQLite, "x.csv", filepath.Join(t.TempDir(), "x"))
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("WriteTracklistCSV Defaults", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		path, err := WriteTracklistCSV([]models.TracklistEntry{{Title: "a", Artist: "b"}}, "the-trip", "")
		if err != nil {
			t.Fatalf("WriteTracklistCSV failed: %v", err)
		}
		if path != "the-trip_complete.csv" {
			t.Errorf("unexpected path %s", path)
		}
		th.AssertFileExists(t, filepath.Join(tempDir, path))
	})

	t.Run("Unwritable Path", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "missing", "out.csv")
		if _, err := WriteTracklistCSV(nil, "x", bad); err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("ParseFormat", func(t *testing.T) {
		for in, want := range map[string]string{"": "csv", "CSV": "csv", " json ": "json", "sqlite": "sqlite"} {
			if got, err := ParseFormat(in); err != nil || got != want {
				t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
			}
		}
		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}
