package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/shared"
)

// EnrichedTrackRepository stores the output rows of a run.
//
// The input row is kept as JSON; every enrichment field has its own nullable column.
type EnrichedTrackRepository struct {
	db      *sql.DB
	columns []string
}

// NewEnrichedTrackRepository creates a new EnrichedTrackRepository with the given database connection
func NewEnrichedTrackRepository(db *sql.DB) *EnrichedTrackRepository {
	return &EnrichedTrackRepository{db: db, columns: models.EnrichmentColumns()}
}

// SaveBatch inserts tracks for runID in a single transaction, using the slice index as position
func (r *EnrichedTrackRepository) SaveBatch(runID string, tracks []models.EnrichedTrack) error {
	return withTx(r.db, func(tx *sql.Tx) error {
		return r.insert(tx, runID, tracks)
	})
}

func (r *EnrichedTrackRepository) insert(ex execer, runID string, tracks []models.EnrichedTrack) error {
	if runID == "" {
		return fmt.Errorf("%w: run id is required", shared.ErrInvalidArgument)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(r.columns)+4), ", ")
	query := fmt.Sprintf(
		"INSERT INTO enriched_tracks (run_id, position, input, sources, %s) VALUES (%s)",
		strings.Join(r.columns, ", "), placeholders,
	)

	stmt, err := ex.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, track := range tracks {
		input, err := shared.MarshalJSON(track.Input, false)
		if err != nil {
			return fmt.Errorf("failed to encode input row %d: %w", i, err)
		}

		args := make([]any, 0, len(r.columns)+4)
		args = append(args, runID, i, string(input), strings.Join(track.Sources, ","))
		for _, col := range r.columns {
			if v, ok := track.Fields[col]; ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}

		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert track %d: %w", i, err)
		}
	}
	return nil
}

// ListByRun retrieves the tracks of a run in input order
func (r *EnrichedTrackRepository) ListByRun(runID string) ([]models.EnrichedTrack, error) {
	query := fmt.Sprintf(
		"SELECT input, sources, %s FROM enriched_tracks WHERE run_id = ? ORDER BY position ASC",
		strings.Join(r.columns, ", "),
	)

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.EnrichedTrack
	for rows.Next() {
		track, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tracks, nil
}

// CountBySource returns how many tracks of a run source contributed to
func (r *EnrichedTrackRepository) CountBySource(runID, source string) (int, error) {
	var n int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM enriched_tracks WHERE run_id = ? AND (',' || sources || ',') LIKE ?",
		runID, "%,"+source+",%",
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}

// scanRow scans a single [sql.Rows] row into a [models.EnrichedTrack]
func (r *EnrichedTrackRepository) scanRow(rows *sql.Rows) (models.EnrichedTrack, error) {
	var input, sources string
	values := make([]sql.NullString, len(r.columns))

	dest := make([]any, 0, len(r.columns)+2)
	dest = append(dest, &input, &sources)
	for i := range values {
		dest = append(dest, &values[i])
	}

	if err := rows.Scan(dest...); err != nil {
		return models.EnrichedTrack{}, fmt.Errorf("failed to scan track: %w", err)
	}

	track := models.EnrichedTrack{Fields: models.SourceRecord{}}
	if err := json.Unmarshal([]byte(input), &track.Input); err != nil {
		return models.EnrichedTrack{}, fmt.Errorf("failed to decode input row: %w", err)
	}
	if sources != "" {
		track.Sources = strings.Split(sources, ",")
	}
	for i, col := range r.columns {
		if values[i].Valid {
			track.Fields[col] = values[i].String
		}
	}
	return track, nil
}
