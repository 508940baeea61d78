package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/config"
)

func newLimiter(t *testing.T, limit int, window time.Duration) (echo.MiddlewareFunc, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cfg := config.RateLimitConfig{Enabled: true, Limit: limit, Window: window, Prefix: "rl"}
	return RateLimit(cfg, rdb), m
}

func hitLimiter(t *testing.T, mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/events")

	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	return rec
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	mw, _ := newLimiter(t, 2, time.Minute)

	assert.Equal(t, http.StatusOK, hitLimiter(t, mw).Code)
	assert.Equal(t, http.StatusOK, hitLimiter(t, mw).Code)

	rec := hitLimiter(t, mw)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitResetsAfterWindow(t *testing.T) {
	mw, m := newLimiter(t, 1, time.Minute)

	assert.Equal(t, http.StatusOK, hitLimiter(t, mw).Code)
	assert.Equal(t, http.StatusTooManyRequests, hitLimiter(t, mw).Code)

	m.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, hitLimiter(t, mw).Code)
}

func TestRateLimitSetsCounterTTL(t *testing.T) {
	mw, m := newLimiter(t, 5, time.Minute)

	hitLimiter(t, mw)
	key := "rl:192.0.2.1:GET /v1/events"
	require.True(t, m.Exists(key))
	assert.Greater(t, m.TTL(key), time.Duration(0))
}

// A counter that lost its TTL would throttle the client for good; the
// limiter re-arms the window when it sees such a key.
func TestRateLimitReArmsMissingTTL(t *testing.T) {
	mw, m := newLimiter(t, 5, time.Minute)

	key := "rl:192.0.2.1:GET /v1/events"
	require.NoError(t, m.Set(key, "3"))
	require.Equal(t, time.Duration(0), m.TTL(key))

	assert.Equal(t, http.StatusOK, hitLimiter(t, mw).Code)
	assert.Greater(t, m.TTL(key), time.Duration(0))
}
