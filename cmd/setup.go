package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ntscat/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Configuration written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Add Spotify client credentials and a Last.fm API key (or set %s, %s, %s)\n",
		shared.EnvSpotifyClientID, shared.EnvSpotifyClientSecret, shared.EnvLastFMAPIKey)
	r.writePlain("2. Run 'ntscat sources' to check which sources are enabled\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("db")
	if path == "" {
		path = r.config.Database.Path
	}
	r.logger.Info("initializing database", "path", path)

	db, err := r.openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", path)
	r.writePlain("✓ Database ready at %s\n", path)
	return nil
}
