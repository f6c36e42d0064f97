// Package app holds the start-up sequence shared by every binary: env file,
// config, logger, database and dev auto-migrate.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/db"
	"github.com/angelmondragon/rugstore-backend/pkg/instance"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
	"github.com/angelmondragon/rugstore-backend/pkg/migrate"
	"github.com/angelmondragon/rugstore-backend/pkg/redis"
)

// Runtime owns the shared dependencies of one process. Close releases them
// in reverse order of acquisition.
type Runtime struct {
	Kind   string
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client

	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// Boot loads configuration and opens the database for the binary named kind.
func Boot(ctx context.Context, kind string) (*Runtime, error) {
	bootLog := logger.New(logger.Options{ServiceName: kind})
	if err := godotenv.Load(); err != nil {
		bootLog.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = kind

	rt := &Runtime{
		Kind:   kind,
		Config: cfg,
		Logger: logger.New(logger.Options{
			ServiceName: kind,
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
			Fields:      map[string]any{"instance": instance.GetID(), "env": cfg.App.Env},
		}),
	}

	rt.DB, err = db.New(ctx, cfg.DB, rt.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	rt.onClose("database", rt.DB.Close)

	if err := migrate.AutoRun(ctx, cfg, rt.Logger, rt.DB); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// Redis connects to Redis and ties the connection to the runtime lifetime.
func (rt *Runtime) Redis(ctx context.Context) (*redis.Client, error) {
	client, err := redis.New(ctx, rt.Config.Redis, rt.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap redis: %w", err)
	}
	rt.onClose("redis", client.Close)
	return client, nil
}

func (rt *Runtime) onClose(name string, fn func() error) {
	rt.closers = append(rt.closers, namedCloser{name: name, close: fn})
}

// OnClose registers an extra resource to release on shutdown.
func (rt *Runtime) OnClose(name string, fn func() error) {
	rt.onClose(name, fn)
}

func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		c := rt.closers[i]
		if err := c.close(); err != nil {
			rt.Logger.Error(rt.Logger.WithField(context.Background(), "resource", c.name), "shutdown.close_failed", err)
		}
	}
	rt.closers = nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Exit logs err and terminates the process with status 1.
func Exit(kind string, err error) {
	logger.New(logger.Options{ServiceName: kind}).Error(context.Background(), kind+" exited", err)
	os.Exit(1)
}
