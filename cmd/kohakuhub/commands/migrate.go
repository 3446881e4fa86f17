package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/pkg/config"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations for the hub database.

This command applies pending database migrations to the configured hub
database (SQLite or PostgreSQL). It is required after upgrading KohakuHub
when schema changes have been made.

Examples:
  # Run migrations with default config
  kohakuhub migrate

  # Run migrations with custom config
  kohakuhub migrate --config /etc/kohakuhub/config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	logger.Info("Running database migrations", "type", cfg.Database.Type)

	// Opening the store triggers auto-migration
	hubStore, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer func() { _ = hubStore.Close() }()

	logger.Info("Database migrations completed successfully")
	fmt.Println("Migrations applied successfully")

	return nil
}
