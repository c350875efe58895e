package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maildraft/maildraft/internal/config"
	"github.com/maildraft/maildraft/internal/logger"
	"github.com/maildraft/maildraft/internal/middleware"
)

func newRateLimited(t *testing.T, limit int, enabled bool) http.Handler {
	t.Helper()

	cfg := &config.Config{
		RateLimiting: config.RateLimitingConfig{Enabled: enabled, Limit: limit, Window: 15 * time.Minute},
	}
	mw := middleware.New(middleware.NewMemoryCounterStore(), logger.New("disabled", "json"), cfg)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mw.RateLimit(middleware.RateLimitConfig{
		Limit:  limit,
		Window: 15 * time.Minute,
		KeyFn:  middleware.IPKey,
	})(next)
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	t.Parallel()

	h := newRateLimited(t, 3, true)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	t.Parallel()

	h := newRateLimited(t, 2, true)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		h.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), "rate_limit_exceeded")
}

func TestRateLimitScopesByClient(t *testing.T) {
	t.Parallel()

	h := newRateLimited(t, 1, true)

	first := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	first.Header.Set("X-Forwarded-For", "10.0.0.1")
	second := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	second.Header.Set("X-Forwarded-For", "10.0.0.2")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	// A different client gets its own window
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The first client is now over its limit
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitDisabled(t *testing.T) {
	t.Parallel()

	h := newRateLimited(t, 1, false)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestMemoryCounterStoreWindowReset(t *testing.T) {
	t.Parallel()

	store := middleware.NewMemoryCounterStore()
	ctx := context.Background()

	count, remaining, err := store.Incr(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Positive(t, remaining)

	count, _, err = store.Incr(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	time.Sleep(15 * time.Millisecond)

	count, _, err = store.Incr(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "expired window restarts the count")
}
