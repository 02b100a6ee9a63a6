package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lthibault/jitterbug/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/sparkops/job-analytics/internal/api_server"
	"github.com/sparkops/job-analytics/internal/cache"
	"github.com/sparkops/job-analytics/internal/config"
	"github.com/sparkops/job-analytics/internal/events"
	"github.com/sparkops/job-analytics/internal/jobs"
	"github.com/sparkops/job-analytics/internal/service"
	"github.com/sparkops/job-analytics/internal/store"
	"github.com/sparkops/job-analytics/pkg/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the analytics api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}

		logger := log.InitLog(log.Level(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting analytics service")
		defer zap.S().Info("Analytics service stopped")

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		st := store.NewStore(db)
		defer st.Close()

		if cfg.Database.Type != "pgsql" {
			// sqlite runs migrate inline; postgres deployments use the
			// migrate command
			if err := st.InitialMigration(); err != nil {
				zap.S().Fatalw("running initial migration", "error", err)
			}
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		producer := events.NewEventProducer(&events.StdoutWriter{})
		defer func() { _ = producer.Close() }()

		artifactCache := cache.NewMemoryCache(time.Duration(cfg.Service.CacheTTLSeconds) * time.Second)
		analyticsSrv := service.NewAnalyticsService(st, artifactCache).WithEventProducer(producer)
		ingestSrv := service.NewIngestService(st, artifactCache).WithEventProducer(producer)

		if cfg.Database.Type == "pgsql" {
			pool, err := newPgxPool(ctx, cfg)
			if err != nil {
				zap.S().Fatalw("creating pgx pool", "error", err)
			}
			defer pool.Close()

			riverClient, err := jobs.NewClient(ctx, pool, analyticsSrv)
			if err != nil {
				zap.S().Fatalw("creating river client", "error", err)
			}
			if err := riverClient.Start(ctx); err != nil {
				zap.S().Fatalw("starting river client", "error", err)
			}
			defer func() {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer stopCancel()
				if err := riverClient.Stop(stopCtx); err != nil {
					zap.S().Named("run").Warnw("failed to stop river client", "error", err)
				}
			}()

			ingestSrv = ingestSrv.WithEnqueuer(riverClient)

			go sweepPendingJobs(ctx, cfg, st, riverClient)
		}

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, listener, ingestSrv, analyticsSrv)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("running api server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating metrics listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("running metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

// sweepPendingJobs periodically enqueues processing for jobs that still have
// pending event logs, picking up anything the on-close enqueue missed.
func sweepPendingJobs(ctx context.Context, cfg *config.Config, st store.Store, enqueuer service.Enqueuer) {
	interval := time.Duration(cfg.Service.ProcessIntervalSeconds) * time.Second
	ticker := jitterbug.New(interval, &jitterbug.Norm{Stdev: time.Second, Mean: 0})
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jobIDs, err := st.Event().PendingJobIDs(ctx, cfg.Service.ProcessBatchSize)
			if err != nil {
				zap.S().Named("sweep").Errorw("failed to list pending jobs", "error", err)
				continue
			}
			for _, jobID := range jobIDs {
				if err := enqueuer.EnqueueProcessJob(ctx, jobID); err != nil {
					zap.S().Named("sweep").Errorw("failed to enqueue job", "job_id", jobID, "error", err)
				}
			}
			if len(jobIDs) > 0 {
				zap.S().Named("sweep").Infof("enqueued %d jobs for processing", len(jobIDs))
			}
		}
	}
}

func newPgxPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s port=%d dbname=%s",
		cfg.Database.Hostname,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Port,
		cfg.Database.Name,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	poolCfg.MaxConns = 20
	poolCfg.MinConns = 5
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
