// package formatter reads track tables and writes enrichment results (CSV, JSON) and scraped tracklists (CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/shared"
)

// Output formats
const (
	FormatCSV    = "csv"
	FormatJSON   = "json"
	FormatSQLite = "sqlite"
)

const utf8BOM = "\ufeff"

// ParseFormat validates an output format name, defaulting to csv.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON, FormatSQLite:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want csv, json or sqlite)", shared.ErrInvalidFlag, s)
	}
}

// ReadCSV parses a CSV document with a header row into a [models.Table].
//
// Short rows are padded with empty cells and extra cells are dropped.
func ReadCSV(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file has no header row", shared.ErrEmptyInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", shared.ErrInvalidInput, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	table := &models.Table{Columns: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read CSV record: %v", shared.ErrInvalidInput, err)
		}
		row := make(models.Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ReadCSVFile opens path and parses it with [ReadCSV].
func ReadCSVFile(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open input file: %v", shared.ErrInvalidInput, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ExportToCSV renders an enrichment result: input columns first, then every enrichment column.
// Absent values are written as empty cells.
func ExportToCSV(res *models.BatchResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(res.Columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	record := make([]string, len(res.Columns))
	for _, track := range res.Tracks {
		for i, col := range res.Columns {
			record[i], _ = track.Value(col)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// sourceSummary is the JSON form of a [models.SourceStat].
type sourceSummary struct {
	Source  string  `json:"source"`
	Hits    int     `json:"hits"`
	Total   int     `json:"total"`
	HitRate float64 `json:"hit_rate"`
}

type jsonExport struct {
	RunID   string               `json:"run_id"`
	Total   int                  `json:"total"`
	Columns []string             `json:"columns"`
	Sources []sourceSummary      `json:"sources"`
	Tracks  []map[string]*string `json:"tracks"`
}

// ExportToJSON renders an enrichment result with a per-source summary.
// Absent values are null.
func ExportToJSON(res *models.BatchResult) ([]byte, error) {
	out := jsonExport{
		RunID:   res.RunID,
		Total:   res.Total,
		Columns: res.Columns,
		Sources: make([]sourceSummary, 0, len(res.Stats)),
		Tracks:  make([]map[string]*string, 0, len(res.Tracks)),
	}
	for _, s := range res.Stats {
		out.Sources = append(out.Sources, sourceSummary{Source: s.Source, Hits: s.Hits, Total: s.Total, HitRate: s.HitRate()})
	}
	for _, track := range res.Tracks {
		obj := make(map[string]*string, len(res.Columns))
		for _, col := range res.Columns {
			if v, ok := track.Value(col); ok {
				obj[col] = &v
			} else {
				obj[col] = nil
			}
		}
		out.Tracks = append(out.Tracks, obj)
	}
	return shared.MarshalJSON(out, true)
}

// DefaultOutputPath derives the output file from the input path: {base}_enriched.{ext}.
func DefaultOutputPath(input, format string) string {
	ext := FormatCSV
	if format == FormatJSON {
		ext = FormatJSON
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return fmt.Sprintf("%s_enriched.%s", base, ext)
}

// WriteEnrichedExport writes res to path in the given format (csv or json) and returns the path written.
//
// Defaults to {base}_enriched.csv next to the input file when path is empty.
func WriteEnrichedExport(res *models.BatchResult, format, input, path string) (string, error) {
	if path == "" {
		path = DefaultOutputPath(input, format)
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = ExportToJSON(res)
	case FormatCSV, "":
		data, err = ExportToCSV(res)
	default:
		return "", fmt.Errorf("%w: %s is not a file format", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	return path, nil
}

// ExportTracklistCSV renders scraped entries with the TITLE, ARTIST, EPISODE_URL columns.
func ExportTracklistCSV(entries []models.TracklistEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(models.TracklistColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, e := range entries {
		if err := writer.Write([]string{e.Title, e.Artist, e.EpisodeURL}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// DefaultTracklistPath returns {show}_complete.csv.
func DefaultTracklistPath(show string) string {
	return fmt.Sprintf("%s_complete.csv", show)
}

// WriteTracklistCSV writes entries to path, defaulting to [DefaultTracklistPath].
func WriteTracklistCSV(entries []models.TracklistEntry, show, path string) (string, error) {
	if path == "" {
		path = DefaultTracklistPath(show)
	}

	data, err := ExportTracklistCSV(entries)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}
	return path, nil
}

// TracklistTable converts scraped entries into an input table for enrichment.
func TracklistTable(entries []models.TracklistEntry) *models.Table {
	t := &models.Table{Columns: append([]string{}, models.TracklistColumns...)}
	for _, e := range entries {
		t.Rows = append(t.Rows, e.Row())
	}
	return t
}
