package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/migrations"
	"github.com/zosarillana/prs-be/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := database.Open(database.Config{Path: cfg.Database.Path}, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := database.NewMigrator(db, migrations.FS, logger).Run()
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("Migrations complete", zap.Int("applied", n))
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
		return nil
	},
}
