package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ntscat/internal/formatter"
	"github.com/desertthunder/ntscat/internal/metrics"
	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/repositories"
	"github.com/desertthunder/ntscat/internal/shared"
	"github.com/desertthunder/ntscat/internal/tasks"
	"github.com/desertthunder/ntscat/internal/ui"
	"github.com/urfave/cli/v3"
)

// Enrich reads a track CSV, enriches every row and writes the result.
func (r *Runner) Enrich(ctx context.Context, cmd *cli.Command) error {
	input := cmd.StringArg("input")
	if input == "" {
		return fmt.Errorf("%w: input CSV path is required", shared.ErrMissingArgument)
	}

	table, err := formatter.ReadCSVFile(input)
	if err != nil {
		return err
	}
	r.logger.Info("loaded input", "path", input, "tracks", len(table.Rows), "columns", len(table.Columns))

	_, _, err = r.enrichTable(ctx, cmd, table, input, cmd.StringArg("output"))
	return err
}

// enrichTable runs the batch runner over table and writes the result to output,
// or next to input when output is empty.
func (r *Runner) enrichTable(ctx context.Context, cmd *cli.Command, table *models.Table, input, output string) (*models.BatchResult, string, error) {
	format := cmd.String("format")
	if format == "" {
		format = r.config.Output.Format
	}
	format, err := formatter.ParseFormat(format)
	if err != nil {
		return nil, "", err
	}

	recorder := metrics.NewRecorder()
	if addr := r.metricsAddr(cmd); addr != "" {
		mctx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := recorder.Serve(mctx, addr, r.logger); err != nil {
			return nil, "", err
		}
	}

	if cmd.Bool("tui") {
		defer r.detachLogger()()
	}

	registry := r.sources()
	if enabled := registry.Enabled(); len(enabled) < len(registry.Sources) {
		r.logger.Warn("some sources are not configured and will be skipped", "enabled", enabled)
	}

	agg := tasks.NewAggregator(registry.Sources,
		tasks.WithParallelSources(cmd.Bool("parallel-sources") || r.config.Enrich.ParallelSources),
		tasks.WithObserver(recorder),
		tasks.WithAggregatorLogger(r.logger),
	)
	runner := tasks.NewBatchRunner(agg, r.batchOpts(cmd), r.logger)

	var res *models.BatchResult
	if cmd.Bool("tui") {
		res, err = r.runTUI(ctx, runner, table)
	} else {
		res, err = r.runPlain(ctx, runner, table)
	}
	if err != nil {
		return nil, "", err
	}

	path, err := r.writeResult(cmd, res, format, input, output)
	if err != nil {
		return res, "", err
	}

	r.writePlain("\n%s", ui.Summary(res, path))

	if res.Skipped > 0 || ctx.Err() != nil {
		r.logger.Warn("run interrupted; output contains unenriched rows", "skipped", res.Skipped, "output", path)
		return res, path, fmt.Errorf("%w: %d of %d tracks skipped: %w", shared.ErrInterrupted, res.Skipped, res.Total, context.Canceled)
	}
	return res, path, nil
}

// batchOpts merges the [enrich] config section with command flags.
func (r *Runner) batchOpts(cmd *cli.Command) tasks.BatchOpts {
	opts := tasks.BatchOpts{
		TitleColumn:  r.config.Enrich.TitleColumn,
		ArtistColumn: r.config.Enrich.ArtistColumn,
		Concurrency:  r.config.Enrich.Concurrency,
	}
	if v := cmd.String("title-column"); v != "" {
		opts.TitleColumn = v
	}
	if v := cmd.String("artist-column"); v != "" {
		opts.ArtistColumn = v
	}
	if v := cmd.Int("concurrency"); v > 0 {
		opts.Concurrency = int(v)
	}
	return opts
}

func (r *Runner) metricsAddr(cmd *cli.Command) string {
	if addr := cmd.String("metrics-addr"); addr != "" {
		return addr
	}
	return r.config.Metrics.Addr
}

// runPlain runs the batch and prints progress lines as they arrive.
func (r *Runner) runPlain(ctx context.Context, runner *tasks.BatchRunner, table *models.Table) (*models.BatchResult, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.Validate:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.Enrich:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	res, err := runner.Run(ctx, table, progressCh)
	close(progressCh)
	<-done

	return res, err
}

// writeResult writes res in format and returns where it went.
func (r *Runner) writeResult(cmd *cli.Command, res *models.BatchResult, format, input, output string) (string, error) {
	if format != formatter.FormatSQLite {
		return formatter.WriteEnrichedExport(res, format, input, output)
	}

	db, err := r.openDatabase(cmd)
	if err != nil {
		return "", err
	}
	defer db.Close()

	run, err := repositories.NewSink(db).SaveResult(input, res)
	if err != nil {
		return "", err
	}
	r.logger.Info("saved run", "id", run.ID(), "tracks", run.Total())

	path := cmd.String("db")
	if path == "" {
		path = r.config.Database.Path
	}
	return fmt.Sprintf("%s (run %s)", path, run.ID()), nil
}
