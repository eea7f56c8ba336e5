package main

import (
	"context"

	"github.com/desertthunder/ntscat/internal/ui"
	"github.com/urfave/cli/v3"
)

type sourceStatus struct {
	Name    string   `json:"name"`
	Enabled bool     `json:"enabled"`
	Columns []string `json:"columns"`
}

// Sources lists the metadata sources in aggregation order and whether each is configured.
func (r *Runner) Sources(ctx context.Context, cmd *cli.Command) error {
	registry := r.sources()

	statuses := make([]sourceStatus, len(registry.Sources))
	names := make([]string, len(registry.Sources))
	enabled := make(map[string]bool, len(registry.Sources))
	for i, s := range registry.Sources {
		statuses[i] = sourceStatus{Name: s.Name(), Enabled: s.Enabled(), Columns: s.Columns()}
		names[i] = s.Name()
		enabled[s.Name()] = s.Enabled()
	}

	if cmd.Bool("json") {
		return r.writeJSON(statuses, true)
	}
	return r.writePlain("%s", ui.Sources(names, enabled))
}
