package admin

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/pillarpress/internal/config"
	"github.com/cloo-solutions/pillarpress/internal/database"
	"github.com/cloo-solutions/pillarpress/internal/logfields"
)

var errNoDatabase = errors.New("PILLARPRESS_DATABASE_URL is not set")

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Apply all pending migrations, or roll back the latest one with --down",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}

	cmd.Flags().Bool("down", false, "Roll back the most recent migration")

	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logfields.Setup(cfg.Debug)

	if !cfg.HasDatabase() {
		return errNoDatabase
	}

	if down, _ := cmd.Flags().GetBool("down"); down {
		if err := database.MigrateDown(cfg.DatabaseURL); err != nil {
			return err
		}
		slog.Info("migrations: rolled back one step")
		return nil
	}

	return database.Migrate(cfg.DatabaseURL)
}
