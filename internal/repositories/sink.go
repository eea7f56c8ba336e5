package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ntscat/internal/models"
)

// Sink writes complete enrichment results to the database.
type Sink struct {
	db     *sql.DB
	runs   *RunRepository
	tracks *EnrichedTrackRepository
}

// NewSink creates a sink over db, which must already be migrated.
func NewSink(db *sql.DB) *Sink {
	return &Sink{db: db, runs: NewRunRepository(db), tracks: NewEnrichedTrackRepository(db)}
}

// SaveResult stores res as a finished run for input and returns the stored run.
// The run and its tracks are written in one transaction; on error nothing is stored.
func (s *Sink) SaveResult(input string, res *models.BatchResult) (*models.EnrichmentRun, error) {
	run := models.NewEnrichmentRun(input, res.Total)
	run.SetID(res.RunID)
	run.SetStats(res.Stats)
	run.Finish(time.Now())

	err := withTx(s.db, func(tx *sql.Tx) error {
		if err := s.runs.insert(tx, run); err != nil {
			return fmt.Errorf("failed to create run: %w", err)
		}
		if err := s.tracks.insert(tx, run.ID(), res.Tracks); err != nil {
			return fmt.Errorf("failed to save tracks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Runs exposes the run repository for history queries.
func (s *Sink) Runs() *RunRepository { return s.runs }

// Tracks exposes the track repository.
func (s *Sink) Tracks() *EnrichedTrackRepository { return s.tracks }
