package models

import (
	"fmt"
	"time"
)

var _ Model = (*EnrichmentRun)(nil)

// EnrichmentRun is a persisted record of one batch run and its hit counters.
type EnrichmentRun struct {
	id         string
	input      string
	total      int
	stats      []SourceStat
	createdAt  time.Time
	updatedAt  time.Time
	finishedAt *time.Time
}

// NewEnrichmentRun creates a run for the given input path. The ID is assigned on insert.
func NewEnrichmentRun(input string, total int) *EnrichmentRun {
	now := time.Now()
	return &EnrichmentRun{
		input:     input,
		total:     total,
		createdAt: now,
		updatedAt: now,
	}
}

// RestoreEnrichmentRun rebuilds a run from stored columns.
func RestoreEnrichmentRun(id, input string, total int, stats []SourceStat, createdAt, updatedAt time.Time, finishedAt *time.Time) *EnrichmentRun {
	return &EnrichmentRun{
		id:         id,
		input:      input,
		total:      total,
		stats:      stats,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
		finishedAt: finishedAt,
	}
}

func (r *EnrichmentRun) ID() string { return r.id }
func (r *EnrichmentRun) Input() string { return r.input }
func (r *EnrichmentRun) Total() int { return r.total }
func (r *EnrichmentRun) Stats() []SourceStat { return r.stats }
func (r *EnrichmentRun) CreatedAt() time.Time { return r.createdAt }
func (r *EnrichmentRun) UpdatedAt() time.Time { return r.updatedAt }
func (r *EnrichmentRun) FinishedAt() *time.Time { return r.finishedAt }

func (r *EnrichmentRun) SetID(id string) { r.id = id }
func (r *EnrichmentRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *EnrichmentRun) SetStats(stats []SourceStat) { r.stats = stats }

// Finish marks the run complete at t.
func (r *EnrichmentRun) Finish(t time.Time) {
	r.finishedAt = &t
	r.updatedAt = t
}

// Validate checks required fields.
func (r *EnrichmentRun) Validate() error {
	if r.id == "" {
		return fmt.Errorf("run id is required")
	}
	if r.total < 0 {
		return fmt.Errorf("run total must not be negative, got %d", r.total)
	}
	return nil
}
