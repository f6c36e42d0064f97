package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/rugstore-backend/pkg/errors"
)

type memoryIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryIdempotencyStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key], _ = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	_, taken := m.data[key]
	m.mu.Unlock()
	if taken {
		return false, nil
	}
	return true, m.Set(ctx, key, value, ttl)
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func routedRequest(method, path, pattern, body, key string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload.Error.Code
}

func TestRouteTTLSelection(t *testing.T) {
	cases := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		ok      bool
	}{
		{"place order", http.MethodPost, "/api/orders", criticalIdempotencyTTL, true},
		{"verify payment", http.MethodPost, "/api/razorpay/verify-payment", criticalIdempotencyTTL, true},
		{"create razorpay order", http.MethodPost, "/api/razorpay/create-order", defaultIdempotencyTTL, true},
		{"cart add", http.MethodPost, "/api/cart/add", defaultIdempotencyTTL, true},
		{"review template", http.MethodPost, "/api/products/{id}/review", defaultIdempotencyTTL, true},
		{"review concrete", http.MethodPost, "/api/products/6f1c/review", defaultIdempotencyTTL, true},
		{"admin status", http.MethodPut, "/api/orders/admin/{id}/status", defaultIdempotencyTTL, true},
		{"trailing slash", http.MethodPost, "/api/enquiries/", defaultIdempotencyTTL, true},
		{"wildcard group pattern", http.MethodPost, "/api/orders/*", 0, false},
		{"read", http.MethodGet, "/api/orders", 0, false},
		{"login", http.MethodPost, "/api/auth/login", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ttl, ok := routeTTL(tc.method, tc.pattern)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, ttl)
		})
	}
}

func TestIdempotencyWithoutKeyAlwaysRunsHandler(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, routedRequest(http.MethodPost, "/api/orders", "/api/orders", `{"paymentMethod":"COD"}`, ""))
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.data)
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"paymentMethod":"COD"}`, string(body), "handler must see the original body")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"orderNumber":"RUG-1001"}}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, routedRequest(http.MethodPost, "/api/orders", "/api/orders", `{"paymentMethod":"COD"}`, "order-1"))
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, routedRequest(http.MethodPost, "/api/orders", "/api/orders", `{"paymentMethod":"COD"}`, "order-1"))

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, "true", second.Header().Get(replayedHeader))
	assert.Equal(t, first.Body.String(), second.Body.String())
	for key, ttl := range store.ttls {
		if strings.Contains(store.data[key], `"status"`) {
			assert.Equal(t, criticalIdempotencyTTL, ttl)
		}
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newMemoryIdempotencyStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), routedRequest(http.MethodPost, "/api/cart/add", "/api/cart/add", `{"quantity":1}`, "k"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, routedRequest(http.MethodPost, "/api/cart/add", "/api/cart/add", `{"quantity":2}`, "k"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, rec.Body.Bytes()))
}

func TestIdempotencyDuplicateWhileInFlightIsConflict(t *testing.T) {
	store := newMemoryIdempotencyStore()
	release := make(chan struct{})
	entered := make(chan struct{})
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusCreated)
	}))

	done := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, routedRequest(http.MethodPost, "/api/orders", "/api/orders", `{}`, "dup"))
		done <- rec.Code
	}()
	<-entered

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, routedRequest(http.MethodPost, "/api/orders", "/api/orders", `{}`, "dup"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeConflict), errorCode(t, rec.Body.Bytes()))
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	close(release)
	assert.Equal(t, http.StatusCreated, <-done)
}

func TestIdempotencyServerErrorReleasesKey(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	var codes []int
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, routedRequest(http.MethodPost, "/api/razorpay/verify-payment", "/api/razorpay/verify-payment", `{"orderId":"1"}`, "pay-1"))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusServiceUnavailable, http.StatusOK}, codes)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyKeysAreScopedPerShopper(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for _, user := range []string{"user-a", "user-b"} {
		req := routedRequest(http.MethodPost, "/api/orders", "/api/orders", `{}`, "same-key")
		req = req.WithContext(context.WithValue(req.Context(), ctxUserID, user))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotencyInsideChiRouteGroup(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	r := chi.NewRouter()
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(Idempotency(store, nil))
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusCreated)
		})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"paymentMethod":"ONLINE"}`))
		req.Header.Set(idempotencyHeader, "order-7")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, 1, calls)
}
