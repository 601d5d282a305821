package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryRateStore(func() time.Time { return now })

	r := gin.New()
	r.Use(RateLimit(store, 2, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, "60", w.Header().Get("Retry-After"))

	now = now.Add(61 * time.Second)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
}

type failingRateStore struct{}

func (failingRateStore) Increment(context.Context, string, time.Duration) (int, time.Duration, error) {
	return 0, 0, context.DeadlineExceeded
}

func TestRateLimitLetsRequestsThroughWhenStoreFails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimit(failingRateStore{}, 1, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestMemoryRateStoreSweepsExpiredCounters(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryRateStore(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < memorySweepThreshold; i++ {
		_, _, err := store.Increment(ctx, time.Duration(i).String(), time.Second)
		require.NoError(t, err)
	}
	require.Len(t, store.data, memorySweepThreshold)

	now = now.Add(2 * time.Second)
	count, ttl, err := store.Increment(ctx, "fresh", time.Second)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, time.Second, ttl)
	require.Len(t, store.data, 1)
}

func TestRedisRateStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisRateStore(client, "test:")
	ctx := context.Background()

	count, ttl, err := store.Increment(ctx, "1.2.3.4|/api/auth/login", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, time.Minute, ttl)

	count, _, err = store.Increment(ctx, "1.2.3.4|/api/auth/login", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.True(t, mr.Exists("test:1.2.3.4|/api/auth/login"))

	mr.FastForward(time.Minute + time.Second)

	count, _, err = store.Increment(ctx, "1.2.3.4|/api/auth/login", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRedisRateStoreSharesCountersAcrossLimiters(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	newInstance := func() *gin.Engine {
		r := gin.New()
		r.Use(RateLimit(NewRedisRateStore(client, ""), 2, time.Minute))
		r.POST("/api/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}
	first, second := newInstance(), newInstance()

	codes := make([]int, 0, 3)
	for _, r := range []*gin.Engine{first, second, first} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
		codes = append(codes, w.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
