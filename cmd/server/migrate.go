package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"interntrack/internal/config"
	"interntrack/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.StoreDriver != "postgres" {
			logger.Info("nothing to migrate", zap.String("store_driver", cfg.StoreDriver))
			return nil
		}

		conn, err := db.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := db.RunMigrations(cmd.Context(), conn); err != nil {
			return err
		}
		logger.Info("migrations applied")
		return nil
	},
}
