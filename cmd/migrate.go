package cmd

import (
	"fmt"

	"sapataria/core/config"
	"sapataria/core/database"
	"sapataria/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd creates or updates the schema without starting the server.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		l, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		all := models()
		if err := database.Migrate(db, all...); err != nil {
			return err
		}
		l.Info("Schema migrated", zap.String("driver", cfg.Database.Driver), zap.Int("tables", len(all)))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
