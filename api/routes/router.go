package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/rugstore-backend/api/controllers"
	blogcontrollers "github.com/angelmondragon/rugstore-backend/api/controllers/blogs"
	cartcontrollers "github.com/angelmondragon/rugstore-backend/api/controllers/cart"
	enquirycontrollers "github.com/angelmondragon/rugstore-backend/api/controllers/enquiries"
	ordercontrollers "github.com/angelmondragon/rugstore-backend/api/controllers/orders"
	paymentcontrollers "github.com/angelmondragon/rugstore-backend/api/controllers/payments"
	productcontrollers "github.com/angelmondragon/rugstore-backend/api/controllers/products"
	"github.com/angelmondragon/rugstore-backend/api/middleware"
	"github.com/angelmondragon/rugstore-backend/internal/auth"
	"github.com/angelmondragon/rugstore-backend/internal/cart"
	"github.com/angelmondragon/rugstore-backend/internal/orders"
	"github.com/angelmondragon/rugstore-backend/internal/products"
	"github.com/angelmondragon/rugstore-backend/pkg/auth/session"
	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/logger"
	"github.com/angelmondragon/rugstore-backend/pkg/metrics"
	"github.com/angelmondragon/rugstore-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (session.Rotated, error)
	Revoke(context.Context, string) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Params carries everything the HTTP surface is built from. Nil stores
// disable the middleware that depends on them.
type Params struct {
	Config          *config.Config
	Logger          *logger.Logger
	Readiness       map[string]controllers.Pinger
	Sessions        sessionManager
	RateLimiter     rateLimiter
	Idempotency     redis.IdempotencyStore
	HTTPMetrics     *metrics.HTTPMetrics
	MetricsGatherer prometheus.Gatherer

	Auth      auth.Service
	Register  auth.RegisterService
	Products  products.Service
	Cart      cart.Service
	Orders    orders.Service
	Payments  paymentcontrollers.Service
	Enquiries enquirycontrollers.Service
	Blogs     blogcontrollers.Service
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	loginLimit := middleware.AuthRateLimit(loginPolicy, p.RateLimiter, logg)
	registerLimit := middleware.AuthRateLimit(registerPolicy, p.RateLimiter, logg)
	if p.RateLimiter == nil {
		loginLimit = passthrough
		registerLimit = passthrough
	}

	authenticated := middleware.Auth(cfg.JWT, p.Sessions, logg)
	idempotent := passthrough
	if p.Idempotency != nil {
		idempotent = middleware.Idempotency(p.Idempotency, logg)
	}
	admin := middleware.RequireAdmin(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.Readiness, logg))
	})
	if p.MetricsGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.With(loginLimit).Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.With(registerLimit, idempotent).Post("/register", controllers.AuthRegister(p.Register, p.Auth, logg))
		if cfg.FeatureFlags.AllowAdminRegister && !cfg.App.IsProd() {
			r.With(registerLimit).Post("/admin/register", controllers.AdminAuthRegister(p.Register, p.Auth, logg))
		}
		r.Post("/refresh", controllers.AuthRefresh(p.Sessions, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(p.Sessions, cfg.JWT, logg))
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", productcontrollers.ProductList(p.Products, logg))
		r.Get("/featured", productcontrollers.ProductFeatured(p.Products, logg))
		r.Get("/filter", productcontrollers.ProductFilter(p.Products, logg))
		r.Get("/category/{category}", productcontrollers.ProductsByCategory(p.Products, logg))
		r.Get("/id/{id}", productcontrollers.ProductDetail(p.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated, idempotent)
			r.Post("/{id}/review", productcontrollers.ProductAddReview(p.Products, logg))
			r.Get("/{id}/can-review", productcontrollers.ProductCanReview(p.Products, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated, admin)
			r.Post("/", productcontrollers.ProductCreate(p.Products, logg))
			r.Put("/{id}", productcontrollers.ProductUpdate(p.Products, logg))
			r.Delete("/{id}", productcontrollers.ProductDelete(p.Products, logg))
		})
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authenticated, idempotent)
		r.Get("/", cartcontrollers.CartFetch(p.Cart, logg))
		r.Post("/add", cartcontrollers.CartAdd(p.Cart, logg))
		r.Post("/update", cartcontrollers.CartUpdate(p.Cart, logg))
		r.Post("/clear", cartcontrollers.CartClear(p.Cart, logg))
		r.Delete("/{productId}", cartcontrollers.CartRemove(p.Cart, logg))
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authenticated, idempotent)
		r.Post("/", ordercontrollers.OrderPlace(p.Orders, logg))
		r.Get("/my", ordercontrollers.OrderListMine(p.Orders, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(admin)
			r.Get("/all", ordercontrollers.AdminOrderList(p.Orders, logg))
			r.Get("/stats", ordercontrollers.AdminOrderStats(p.Orders, logg))
			r.Put("/{id}/status", ordercontrollers.AdminOrderStatus(p.Orders, logg))
		})
	})

	r.Route("/api/razorpay", func(r chi.Router) {
		r.Use(authenticated, idempotent)
		r.Post("/create-order", paymentcontrollers.CreateOrder(p.Payments, logg))
		r.Post("/verify-payment", paymentcontrollers.VerifyPayment(p.Payments, logg))
	})

	r.Route("/api/enquiries", func(r chi.Router) {
		r.With(idempotent).Post("/", enquirycontrollers.EnquiryCreate(p.Enquiries, logg))
		r.Group(func(r chi.Router) {
			r.Use(authenticated, admin)
			r.Get("/", enquirycontrollers.EnquiryList(p.Enquiries, logg))
			r.Delete("/{id}", enquirycontrollers.EnquiryDelete(p.Enquiries, logg))
		})
	})

	r.Route("/api/blogs", func(r chi.Router) {
		r.Get("/", blogcontrollers.BlogList(p.Blogs, logg))
		r.Get("/{id}", blogcontrollers.BlogDetail(p.Blogs, logg))
		r.Group(func(r chi.Router) {
			r.Use(authenticated, admin)
			r.Post("/", blogcontrollers.BlogCreate(p.Blogs, logg))
			r.Put("/{id}", blogcontrollers.BlogUpdate(p.Blogs, logg))
			r.Delete("/{id}", blogcontrollers.BlogDelete(p.Blogs, logg))
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler { return next }
