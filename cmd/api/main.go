package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/rugstore-backend/api/controllers"
	"github.com/angelmondragon/rugstore-backend/api/routes"
	"github.com/angelmondragon/rugstore-backend/internal/auth"
	"github.com/angelmondragon/rugstore-backend/internal/blogs"
	"github.com/angelmondragon/rugstore-backend/internal/cart"
	"github.com/angelmondragon/rugstore-backend/internal/enquiries"
	"github.com/angelmondragon/rugstore-backend/internal/orders"
	"github.com/angelmondragon/rugstore-backend/internal/payments"
	"github.com/angelmondragon/rugstore-backend/internal/products"
	"github.com/angelmondragon/rugstore-backend/internal/users"
	"github.com/angelmondragon/rugstore-backend/pkg/app"
	"github.com/angelmondragon/rugstore-backend/pkg/auth/session"
	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/db"
	"github.com/angelmondragon/rugstore-backend/pkg/env"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
	"github.com/angelmondragon/rugstore-backend/pkg/metrics"
	"github.com/angelmondragon/rugstore-backend/pkg/outbox"
	"github.com/angelmondragon/rugstore-backend/pkg/razorpay"
)

const (
	serviceKind     = "api"
	shutdownTimeout = 15 * time.Second
)

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
	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	params, err := buildServices(cfg, logg, rt.DB, sessionManager, metrics.NewWorkflowMetrics(registry))
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	params.Config = cfg
	params.Logger = logg
	params.Readiness = map[string]controllers.Pinger{"db": rt.DB, "redis": redisClient}
	params.Sessions = sessionManager
	params.RateLimiter = redisClient
	params.Idempotency = redisClient
	params.HTTPMetrics = metrics.NewHTTPMetrics(registry)
	params.MetricsGatherer = registry

	server := &http.Server{
		Addr:              ":" + env.Get("PORT", cfg.App.Port),
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(logg.WithField(ctx, "addr", server.Addr), logg, server)
}

// serve runs server until it fails or ctx is cancelled, then drains
// in-flight requests for up to shutdownTimeout.
func serve(ctx context.Context, logg *logger.Logger, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	logg.Info(ctx, "api.server.start")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logg.Info(ctx, "api.server.stop")
	return nil
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessions *session.Manager, workflow *metrics.WorkflowMetrics) (routes.Params, error) {
	var p routes.Params
	gdb := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(gdb), logg)
	userRepo := users.NewRepository(gdb)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return p, err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return p, err
	}

	cartRepo := cart.NewRepository(gdb)
	cartService, err := cart.NewService(cartRepo, dbClient)
	if err != nil {
		return p, err
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(gdb),
		Carts:    cartRepo,
		TxRunner: dbClient,
		Outbox:   emitter,
		Metrics:  workflow,
		Logger:   logg,
		Config:   cfg.Orders,
	})
	if err != nil {
		return p, err
	}

	productService, err := products.NewService(products.ServiceParams{
		Repo:       products.NewRepository(gdb),
		TxRunner:   dbClient,
		Deliveries: orderService,
		Users:      userRepo,
		Outbox:     emitter,
	})
	if err != nil {
		return p, err
	}

	gateway, err := razorpay.NewClient(cfg.Razorpay, logg)
	if err != nil {
		return p, err
	}
	paymentService, err := payments.NewService(payments.ServiceParams{
		Gateway:  gateway,
		Orders:   orders.NewRepository(gdb),
		TxRunner: dbClient,
		Outbox:   emitter,
		Metrics:  workflow,
		Logger:   logg,
	})
	if err != nil {
		return p, err
	}

	enquiryService, err := enquiries.NewService(enquiries.NewRepository(gdb), dbClient, emitter)
	if err != nil {
		return p, err
	}
	blogService, err := blogs.NewService(blogs.NewRepository(gdb))
	if err != nil {
		return p, err
	}

	p.Auth = authService
	p.Register = registerService
	p.Products = productService
	p.Cart = cartService
	p.Orders = orderService
	p.Payments = paymentService
	p.Enquiries = enquiryService
	p.Blogs = blogService
	return p, nil
}
