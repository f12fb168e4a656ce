package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/internal/cron"
	"github.com/electrogest/electrogest-backend/internal/promotions"
	"github.com/electrogest/electrogest-backend/pkg/backup"
	"github.com/electrogest/electrogest-backend/pkg/cache"
	"github.com/electrogest/electrogest-backend/pkg/config"
	"github.com/electrogest/electrogest-backend/pkg/db"
	"github.com/electrogest/electrogest-backend/pkg/logger"
	"github.com/electrogest/electrogest-backend/pkg/metrics"
	"github.com/electrogest/electrogest-backend/pkg/migrate"
)

const lockKeyFormat = "electrogest:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	// a shared redis lock only matters with multiple replicas; the default
	// single-instance deployment uses an in-process lock
	var lock cron.Lock = cron.NewLocalLock()
	if cfg.Cache.IsRedis() {
		redisStore, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisLock, err := cron.NewRedisLock(redisStore.Client(), lockKey(cfg.App.Env), 0)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
		lock = redisLock
	}

	trail, err := audit.NewService(audit.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}
	promotionService, err := promotions.NewService(promotions.NewRepository(dbClient.DB()), trail)
	if err != nil {
		logg.Error(context.Background(), "failed to create promotion service", err)
		os.Exit(1)
	}

	backupJob, err := cron.NewBackupJob(backup.NewManager(cfg.Backup, dbClient, logg), trail, cfg.Cron.BackupInterval)
	if err != nil {
		logg.Error(context.Background(), "failed to create backup job", err)
		os.Exit(1)
	}
	promotionJob, err := cron.NewPromotionStatusJob(promotionService, cfg.Cron.PromotionInterval)
	if err != nil {
		logg.Error(context.Background(), "failed to create promotion job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:       logg,
		Registry:     cron.NewRegistry(promotionJob, backupJob),
		Lock:         lock,
		Metrics:      metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		TickInterval: cfg.Cron.TickInterval,
		JobTimeout:   cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
