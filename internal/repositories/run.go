package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/shared"
)

var _ models.Repository[*models.EnrichmentRun] = (*RunRepository)(nil)

// RunRepository implements models.Repository[*models.EnrichmentRun].
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run, generating an ID when the run has none
func (r *RunRepository) Create(run *models.EnrichmentRun) error {
	return r.insert(r.db, run)
}

func (r *RunRepository) insert(ex execer, run *models.EnrichmentRun) error {
	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	stats, err := encodeStats(run.Stats())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO enrichment_runs (id, input, total, stats, created_at, updated_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = ex.Exec(query,
		run.ID(),
		run.Input(),
		run.Total(),
		stats,
		run.CreatedAt(),
		run.UpdatedAt(),
		run.FinishedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.EnrichmentRun, error) {
	query := `
		SELECT id, input, total, stats, created_at, updated_at, finished_at
		FROM enrichment_runs
		WHERE id = ?
	`
	return r.scan(r.db.QueryRow(query, id))
}

// Update stores the run's counters and completion time
func (r *RunRepository) Update(run *models.EnrichmentRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	stats, err := encodeStats(run.Stats())
	if err != nil {
		return err
	}

	if run.FinishedAt() == nil {
		run.SetUpdatedAt(time.Now())
	}

	query := `
		UPDATE enrichment_runs
		SET total = ?, stats = ?, updated_at = ?, finished_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query, run.Total(), stats, run.UpdatedAt(), run.FinishedAt(), run.ID())
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", run.ID())
	}
	return nil
}

// List retrieves runs, newest first. Supported criteria: "input" (string), "finished" (bool).
func (r *RunRepository) List(criteria map[string]any) ([]*models.EnrichmentRun, error) {
	query := `
		SELECT id, input, total, stats, created_at, updated_at, finished_at
		FROM enrichment_runs
		WHERE 1 = 1
	`
	args := []any{}

	if input, ok := criteria["input"].(string); ok && input != "" {
		query += " AND input = ?"
		args = append(args, input)
	}
	if finished, ok := criteria["finished"].(bool); ok {
		if finished {
			query += " AND finished_at IS NOT NULL"
		} else {
			query += " AND finished_at IS NULL"
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.EnrichmentRun
	for rows.Next() {
		run, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads a single run from a [sql.Row] or [sql.Rows]
func (r *RunRepository) scan(row scanner) (*models.EnrichmentRun, error) {
	var (
		id, input, stats     string
		total                int
		createdAt, updatedAt time.Time
		finishedAt           sql.NullTime
	)

	err := row.Scan(&id, &input, &total, &stats, &createdAt, &updatedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	var decoded []models.SourceStat
	if err := json.Unmarshal([]byte(stats), &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode run stats: %w", err)
	}

	var fin *time.Time
	if finishedAt.Valid {
		fin = &finishedAt.Time
	}
	return models.RestoreEnrichmentRun(id, input, total, decoded, createdAt, updatedAt, fin), nil
}

func encodeStats(stats []models.SourceStat) (string, error) {
	if stats == nil {
		stats = []models.SourceStat{}
	}
	data, err := shared.MarshalJSON(stats, false)
	if err != nil {
		return "", fmt.Errorf("failed to encode run stats: %w", err)
	}
	return string(data), nil
}
