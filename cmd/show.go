package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ntscat/internal/formatter"
	"github.com/desertthunder/ntscat/internal/nts"
	"github.com/desertthunder/ntscat/internal/repositories"
	"github.com/desertthunder/ntscat/internal/shared"
	"github.com/desertthunder/ntscat/internal/tasks"
	"github.com/desertthunder/ntscat/internal/ui"
	"github.com/urfave/cli/v3"
)

// Show scrapes every episode tracklist of a show into a CSV.
func (r *Runner) Show(ctx context.Context, cmd *cli.Command) error {
	show := cmd.StringArg("show")
	if show == "" {
		return fmt.Errorf("%w: show name is required", shared.ErrMissingArgument)
	}

	catalog, err := r.scrape(ctx, show)
	if err != nil {
		return err
	}

	path, err := formatter.WriteTracklistCSV(catalog.Entries, show, cmd.StringArg("output"))
	if err != nil {
		return err
	}

	if cmd.Bool("save") {
		db, err := r.openDatabase(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := repositories.NewTracklistRepository(db).Save(show, catalog.Entries); err != nil {
			return fmt.Errorf("failed to save tracklist: %w", err)
		}
		r.logger.Info("saved tracklist", "show", show, "tracks", len(catalog.Entries))
	}

	r.writePlain("\n%s", ui.CatalogSummary(show, len(catalog.Episodes), catalog.EpisodesWithTracks(),
		len(catalog.Entries), catalog.AverageTracks(), path))
	return nil
}

// Catalog scrapes a show, writes its tracklist and enriches every track.
func (r *Runner) Catalog(ctx context.Context, cmd *cli.Command) error {
	show := cmd.StringArg("show")
	if show == "" {
		return fmt.Errorf("%w: show name is required", shared.ErrMissingArgument)
	}

	catalog, err := r.scrape(ctx, show)
	if err != nil {
		return err
	}

	input, err := formatter.WriteTracklistCSV(catalog.Entries, show, "")
	if err != nil {
		return err
	}
	r.writePlain("\n%s", ui.CatalogSummary(show, len(catalog.Episodes), catalog.EpisodesWithTracks(),
		len(catalog.Entries), catalog.AverageTracks(), input))

	_, _, err = r.enrichTable(ctx, cmd, formatter.TracklistTable(catalog.Entries), input, cmd.StringArg("output"))
	return err
}

// scrape runs discovery and extraction, printing progress lines.
func (r *Runner) scrape(ctx context.Context, show string) (*nts.Catalog, error) {
	r.writePlain("Discovering episodes for %s...\n", show)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.DiscoverEpisodes:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.ExtractTracklists:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	catalog, err := r.ntsClient().Catalog(ctx, show, progressCh)
	close(progressCh)
	<-done

	if errors.Is(err, shared.ErrNoTracks) {
		r.logger.Warn("no tracks found", "show", show, "episodes", len(catalog.Episodes))
	}
	if err != nil {
		return nil, err
	}
	return catalog, nil
}
