package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/rugstore-backend/internal/cart"
	"github.com/angelmondragon/rugstore-backend/internal/cron"
	"github.com/angelmondragon/rugstore-backend/pkg/app"
	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/metrics"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox"
)

const serviceKind = "cron-worker"

func main() {
	if err := run(); err != nil {
		app.Exit(serviceKind, err)
	}
}

func run() error {
	ctx, stop := app.SignalContext()
	defer stop()

	rt, err := app.Boot(ctx, serviceKind)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, logg := rt.Config, rt.Logger

	redisClient, err := rt.Redis(ctx)
	if err != nil {
		return err
	}

	jobs, err := buildJobs(rt)
	if err != nil {
		return err
	}
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg), 0)
	if err != nil {
		return err
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "cron.worker.start")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logg.Info(ctx, "cron.worker.stop")
	return nil
}

func buildJobs(rt *app.Runtime) (*cron.Registry, error) {
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        rt.Logger,
		DB:            rt.DB,
		Repository:    outbox.NewRepository(rt.DB.DB()),
		RetentionDays: rt.Config.Cron.OutboxRetentionDays,
	})
	if err != nil {
		return nil, err
	}
	staleCarts, err := cron.NewStaleCartJob(cron.StaleCartJobParams{
		Logger:     rt.Logger,
		Repository: cart.NewRepository(rt.DB.DB()),
		AfterDays:  rt.Config.Cron.StaleCartDays,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(retention, staleCarts)
}

// lockKey suffixes the configured key with the environment.
func lockKey(cfg *config.Config) string {
	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	return cfg.Cron.LockKey + ":" + env
}
