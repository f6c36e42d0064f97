package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/rugstore-backend/api/controllers"
	"github.com/angelmondragon/rugstore-backend/internal/auth"
	"github.com/angelmondragon/rugstore-backend/internal/cart"
	"github.com/angelmondragon/rugstore-backend/internal/orders"
	"github.com/angelmondragon/rugstore-backend/internal/products"
	pkgAuth "github.com/angelmondragon/rugstore-backend/pkg/auth"
	"github.com/angelmondragon/rugstore-backend/pkg/auth/session"
	"github.com/angelmondragon/rugstore-backend/pkg/config"
	"github.com/angelmondragon/rugstore-backend/pkg/enums"
	"github.com/angelmondragon/rugstore-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, errors.New("not implemented")
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest, role enums.UserRole) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (session.Rotated, error) {
	return session.Rotated{}, session.ErrInvalidRefreshToken
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error { return nil }

type stubProductService struct{ products.Service }

func (stubProductService) List(ctx context.Context) ([]products.ProductDTO, error) {
	return []products.ProductDTO{}, nil
}

type stubCartService struct{ cart.Service }

func (stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cart.CartDTO, error) {
	return &cart.CartDTO{}, nil
}

type stubOrderService struct{ orders.Service }

func (stubOrderService) ListAll(ctx context.Context, actor pkgAuth.Actor) ([]orders.OrderDTO, error) {
	return []orders.OrderDTO{}, nil
}

func (stubOrderService) Stats(ctx context.Context, actor pkgAuth.Actor, q orders.StatsQuery) (*orders.StatsDTO, error) {
	return &orders.StatsDTO{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "0", CORSOrigins: []string{"http://localhost:5173"}},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "rugstore", ExpirationMinutes: 10},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewRouter(Params{
		Config:          cfg,
		Readiness:       map[string]controllers.Pinger{"db": stubPinger{}, "redis": stubPinger{}},
		Sessions:        stubSessionManager{},
		HTTPMetrics:     metrics.NewHTTPMetrics(reg),
		MetricsGatherer: reg,
		Auth:            stubAuthService{},
		Register:        stubRegisterService{},
		Products:        stubProductService{},
		Cart:            stubCartService{},
		Orders:          stubOrderService{},
	})
}

func bearer(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func serve(router http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, testConfig())
	for _, path := range []string{"/health/live", "/health/ready"} {
		if resp := serve(router, http.MethodGet, path, ""); resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestCatalogIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig())
	if resp := serve(router, http.MethodGet, "/api/products", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCartRequiresJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	if resp := serve(router, http.MethodGet, "/api/cart", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if resp := serve(router, http.MethodGet, "/api/cart", bearer(t, cfg, enums.UserRoleCustomer)); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAdminOrderRoutesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	resp := serve(router, http.MethodGet, "/api/orders/admin/all", bearer(t, cfg, enums.UserRoleCustomer))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	resp = serve(router, http.MethodGet, "/api/orders/admin/stats", bearer(t, cfg, enums.UserRoleAdmin))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("Cache-Control") != "no-store" {
		t.Fatal("expected stats to disable caching")
	}
}

func TestProductWritesRequireAdmin(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	resp := serve(router, http.MethodDelete, "/api/products/"+uuid.NewString(), bearer(t, cfg, enums.UserRoleCustomer))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAdminRegisterMountedOnlyWhenFlagged(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	if resp := serve(router, http.MethodPost, "/api/auth/admin/register", ""); resp.Code != http.StatusNotFound && resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected admin register to be unmounted, got %d", resp.Code)
	}

	cfg.FeatureFlags.AllowAdminRegister = true
	router = newTestRouter(t, cfg)
	if resp := serve(router, http.MethodPost, "/api/auth/admin/register", ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty body got %d", resp.Code)
	}
}

func TestMetricsEndpointExposesRequestCounter(t *testing.T) {
	router := newTestRouter(t, testConfig())
	serve(router, http.MethodGet, "/health/live", "")

	resp := serve(router, http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "rugstore_http_requests_total") {
		t.Fatal("expected request counter in exposition")
	}
}
