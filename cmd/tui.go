package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ntscat/internal/models"
	"github.com/desertthunder/ntscat/internal/shared"
	"github.com/desertthunder/ntscat/internal/tasks"
	"github.com/desertthunder/ntscat/internal/ui"
)

// runTUI runs the batch inside the interactive progress view.
// Quitting early cancels the run; the rows not yet looked up are still returned.
func (r *Runner) runTUI(ctx context.Context, runner *tasks.BatchRunner, table *models.Table) (*models.BatchResult, error) {
	model := ui.NewModel(ctx, runner, table)
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, r.tuiOptions...)

	if _, err := tea.NewProgram(model, opts...).Run(); err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	return model.Result()
}

// detachLogger redirects logging away from the terminal while the TUI owns it.
// Logs go to the log file when one is configured. The returned func restores the logger.
func (r *Runner) detachLogger() func() {
	prev := r.logger
	logger := shared.NewLogger(io.Discard)
	if r.logFile != "" {
		if fileLogger, closer, err := shared.NewFileLogger(io.Discard, r.logFile); err == nil {
			r.closers = append(r.closers, closer)
			logger = fileLogger
		}
	}
	shared.SetLogLevel(logger, prev.GetLevel())
	r.SetLogger(logger)

	return func() { r.SetLogger(prev) }
}
