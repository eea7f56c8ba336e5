// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// enrichFlags are shared by the commands that run the enrichment pipeline.
func enrichFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (csv, json or sqlite)",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Number of tracks enriched at once",
		},
		&cli.BoolFlag{
			Name:  "parallel-sources",
			Usage: "Query the sources of a track concurrently",
		},
		&cli.StringFlag{
			Name:  "title-column",
			Usage: "Name of the title column",
		},
		&cli.StringFlag{
			Name:  "artist-column",
			Usage: "Name of the artist column",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Show an interactive progress view",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve Prometheus metrics on this address during the run (e.g. :9090)",
		},
		dbFlag(),
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "db",
		Usage: "SQLite database path (overrides database.path)",
	}
}

// enrichCommand enriches a CSV file of tracks.
func enrichCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "enrich",
		Usage: "Enrich a CSV of tracks (TITLE, ARTIST) with source metadata",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "input"},
			&cli.StringArg{Name: "output"},
		},
		Flags:  enrichFlags(),
		Action: r.Enrich,
	}
}

// showCommand scrapes every tracklist of an NTS show.
func showCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Discover the episodes of an NTS show and write its tracklist CSV",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "show"},
			&cli.StringArg{Name: "output"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Also store the tracklist in the database",
			},
			dbFlag(),
		},
		Action: r.Show,
	}
}

// catalogCommand scrapes a show and enriches its tracks.
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Scrape an NTS show and enrich every track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "show"},
			&cli.StringArg{Name: "output"},
		},
		Flags:  enrichFlags(),
		Action: r.Catalog,
	}
}

// sourcesCommand reports which metadata sources are configured.
func sourcesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "List metadata sources and whether they are configured",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Sources,
	}
}

// runsCommand inspects enrichment runs stored by the sqlite format.
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect stored enrichment runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored runs, newest first",
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "input",
						Usage: "Only runs of this input file",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsList,
			},
			{
				Name:  "show",
				Usage: "Show a stored run and its per-source counts",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{dbFlag()},
				Action: r.RunsShow,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Create config.toml from the example configuration",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					dbFlag(),
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
