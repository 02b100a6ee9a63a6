package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sparkops/job-analytics/internal/config"
	"github.com/sparkops/job-analytics/internal/store"
	"github.com/sparkops/job-analytics/pkg/log"
	"github.com/sparkops/job-analytics/pkg/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}

		logger := log.InitLog(log.Level(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Migrating the database")
		defer zap.S().Info("Db migrated")

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		st := store.NewStore(db)
		defer st.Close()

		if cfg.Database.Type != "pgsql" {
			return st.InitialMigration()
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pool, err := newPgxPool(ctx, cfg)
		if err != nil {
			zap.S().Fatalw("creating pgx pool", "error", err)
		}
		defer pool.Close()

		if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder, pool); err != nil {
			zap.S().Fatalw("running migrations", "error", err)
		}

		return nil
	},
}
