package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotifetch/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("creating config file", "path", r.configPath)
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.writePlain("✓ Config written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set client_id and client_secret under [credentials.spotify], or export %s and %s\n",
		shared.EnvClientID, shared.EnvClientSecret)
	r.writePlain("2. Run 'spotifetch auth token' to verify the credentials\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}
