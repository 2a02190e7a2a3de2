package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stockroomhq/stockroom-backend/internal/alerts"
	"github.com/stockroomhq/stockroom-backend/internal/cron"
	"github.com/stockroomhq/stockroom-backend/internal/inventory"
	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/metrics"
	"github.com/stockroomhq/stockroom-backend/pkg/migrate"
	"github.com/stockroomhq/stockroom-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "scan-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "scan-worker"

	logg = logger.New(logger.Options{
		ServiceName: "scan-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	repo := inventory.NewRepository(dbClient.DB())
	sink, err := alerts.NewLogSink(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create alert sink", err)
		os.Exit(1)
	}

	dailyJob, err := cron.NewDailyStockCheckJob(logg, repo, sink)
	if err != nil {
		logg.Error(context.Background(), "failed to create daily stock check job", err)
		os.Exit(1)
	}
	criticalJob, err := cron.NewCriticalStockJob(logg, repo, sink,
		cfg.Scanner.BusinessHoursStart, cfg.Scanner.BusinessHoursEnd)
	if err != nil {
		logg.Error(context.Background(), "failed to create critical stock job", err)
		os.Exit(1)
	}
	reconciliationJob, err := cron.NewReconciliationJob(logg, repo, sink)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciliation job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(
		cron.Entry{Job: dailyJob, Every: cfg.Scanner.FullScanInterval, Timeout: cfg.Scanner.PassTimeout},
		cron.Entry{Job: criticalJob, Every: cfg.Scanner.CriticalScanInterval, Timeout: cfg.Scanner.PassTimeout},
		cron.Entry{Job: reconciliationJob, Every: cfg.Scanner.ReconciliationInterval, Timeout: cfg.Scanner.PassTimeout},
	)

	lock, err := cron.NewRedisLock(redisClient, 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create scan lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scan service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting scan worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "scan worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "scan worker shutting down gracefully")
}
