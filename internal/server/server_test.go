package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"catalog-api/internal/config"
	"catalog-api/internal/middleware"
	"catalog-api/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "server-test-secret"

type stubHealth map[string]string

func (h stubHealth) Health(context.Context) map[string]string { return h }

// failingTransactor answers every transaction with err without touching a store
type failingTransactor struct {
	err   error
	calls int
}

func (f *failingTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	f.calls++
	return f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "development"},
		JWT:       config.JWTConfig{Secret: testSecret},
		Catalog:   config.CatalogConfig{MaxSKUsPerProduct: 100, ProductCacheTTL: time.Minute},
		RateLimit: config.RateLimitConfig{Requests: 1, Window: time.Minute},
	}
}

func newTestRouter(t *testing.T, deps Dependencies) http.Handler {
	t.Helper()
	if deps.Database == nil {
		deps.Database = stubHealth{"status": "up"}
	}
	if deps.Transactor == nil {
		deps.Transactor = &failingTransactor{err: repository.ErrProductNotFound}
	}
	return NewRouter(testConfig(), zap.NewNop(), deps)
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		health stubHealth
		want   int
	}{
		{name: "database up", health: stubHealth{"status": "up", "open_connections": "1"}, want: http.StatusOK},
		{name: "database down", health: stubHealth{"status": "down", "error": "refused"}, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, Dependencies{Database: tt.health})

			rec := get(router, "/health")

			require.Equal(t, tt.want, rec.Code)
			var body map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.health["status"], body["status"])
		})
	}
}

func TestProductRoutesAreWired(t *testing.T) {
	tx := &failingTransactor{err: repository.ErrProductNotFound}
	router := newTestRouter(t, Dependencies{Transactor: tx})

	rec := get(router, "/api/products/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, tx.calls)

	rec = get(router, "/api/products/not-an-id")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, tx.calls)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsExposeRequestsByRoute(t *testing.T) {
	router := newTestRouter(t, Dependencies{Registry: prometheus.NewRegistry()})

	get(router, "/api/products/"+uuid.NewString())
	rec := get(router, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `catalog_http_requests_total{method="GET",route="/api/products/{id}",status="404"} 1`)
	assert.Contains(t, string(body), "catalog_cache_lookups_total")
}

func TestRedisEnablesRateLimiting(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	router := newTestRouter(t, Dependencies{Redis: client})

	token, err := middleware.IssueToken(testSecret, uuid.New(), "seller", time.Hour)
	require.NoError(t, err)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/products/", strings.NewReader(`{"title":"x","type":"unknown"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusBadRequest, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
}

func TestWithoutRedisRequestsAreNotLimited(t *testing.T) {
	router := newTestRouter(t, Dependencies{})

	token, err := middleware.IssueToken(testSecret, uuid.New(), "seller", time.Hour)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/products/", strings.NewReader(`{"title":"x","type":"unknown"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}
