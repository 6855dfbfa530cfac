package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newLimitedHandler(t *testing.T, limit int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	config := RateLimitConfig{RequestsPerWindow: limit, Window: time.Minute, KeyPrefix: "catalog_rate_limit"}
	return RateLimitMiddleware(client, config, zap.NewNop())(okHandler()), mr
}

func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("exactly the limit passes, the excess gets 429", prop.ForAll(
		func(limit int, excess int) bool {
			handler, _ := newLimitedHandler(t, limit)

			passed, blocked := 0, 0
			for i := 0; i < limit+excess; i++ {
				req := httptest.NewRequest(http.MethodPatch, "/api/products/x", nil)
				req.RemoteAddr = "192.168.1.100"
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusOK:
					passed++
				case http.StatusTooManyRequests:
					blocked++
				}
			}
			return passed == limit && blocked == excess
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimit_KeyedByUser(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1)

	serve := func(userID uuid.UUID) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
		req.RemoteAddr = "10.0.0.1"
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	alice, bob := uuid.New(), uuid.New()
	assert.Equal(t, http.StatusOK, serve(alice).Code)
	assert.Equal(t, http.StatusOK, serve(bob).Code, "same address, different user")

	blocked := serve(alice)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, serve(alice).Code, "window expired")
}

func TestRateLimit_FailsOpenWithoutRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	config := RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, KeyPrefix: "catalog_rate_limit"}
	handler := RateLimitMiddleware(client, config, zap.NewNop())(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
