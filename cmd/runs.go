package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/repositories"
	"github.com/desertthunder/ntscat/internal/shared"
	"github.com/urfave/cli/v3"
)

type runSummary struct {
	ID         string              `json:"id"`
	Input      string              `json:"input"`
	Total      int                 `json:"total"`
	Stats      []models.SourceStat `json:"stats"`
	CreatedAt  time.Time           `json:"created_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

func newRunSummary(run *models.EnrichmentRun) runSummary {
	return runSummary{
		ID:         run.ID(),
		Input:      run.Input(),
		Total:      run.Total(),
		Stats:      run.Stats(),
		CreatedAt:  run.CreatedAt(),
		FinishedAt: run.FinishedAt(),
	}
}

// RunsList prints the runs stored by the sqlite format.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if input := cmd.String("input"); input != "" {
		criteria["input"] = input
	}

	runs, err := repositories.NewRunRepository(db).List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]runSummary, len(runs))
		for i, run := range runs {
			out[i] = newRunSummary(run)
		}
		return r.writeJSON(out, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs stored\n")
	}

	r.writePlainHeader(fmt.Sprintf("Runs (%d)", len(runs)))
	for _, run := range runs {
		status := "unfinished"
		if run.FinishedAt() != nil {
			status = "finished"
		}
		r.writePlain("%s  %s  %d tracks  %s  (%s)\n",
			run.ID(), run.CreatedAt().Format(time.DateTime), run.Total(), run.Input(), status)
	}
	return nil
}

// RunsShow prints one stored run with hit counts recomputed from its stored tracks.
func (r *Runner) RunsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id is required", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	sink := repositories.NewSink(db)
	run, err := sink.Runs().Get(id)
	if err != nil {
		return err
	}

	r.writePlainHeader("Run " + run.ID())
	r.writePlain("Input: %s\n", run.Input())
	r.writePlain("Tracks: %d\n", run.Total())
	r.writePlain("Created: %s\n\n", run.CreatedAt().Format(time.DateTime))

	for _, s := range run.Stats() {
		stored, err := sink.Tracks().CountBySource(run.ID(), s.Source)
		if err != nil {
			return err
		}
		r.writePlain("%-12s %d/%d (%.1f%%), %d stored\n", s.Source, s.Hits, s.Total, s.HitRate(), stored)
	}
	return nil
}
