package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/rugstore-backend/pkg/app"
	"github.com/angelmondragon/rugstore-backend/pkg/broker"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox/registry"
)

const serviceKind = "outbox-publisher"

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

	events, err := registry.NewEventRegistry(cfg.Eventing)
	if err != nil {
		return fmt.Errorf("build event registry: %w", err)
	}
	publisher, err := broker.New(ctx, cfg, logg)
	if err != nil {
		return fmt.Errorf("bootstrap broker: %w", err)
	}
	rt.OnClose("broker", publisher.Close)

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         rt.DB,
		Broker:     publisher,
		Repository: outbox.NewRepository(rt.DB.DB()),
		Registry:   events,
	})
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{"broker": cfg.Eventing.Broker, "topics": events.Topics()})
	logg.Info(ctx, "outbox.publisher.start")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logg.Info(ctx, "outbox.publisher.stop")
	return nil
}
