package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/config"
)

// RateLimit returns a fixed-window request limiter keyed by client IP and
// route. The counter lives in Redis with the window as its TTL: the first
// request of a window creates the key, and requests past the limit get 429
// with a Retry-After header. When the limiter is disabled, Redis is down
// or unset, requests pass through untouched.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key := fmt.Sprintf("%s:%s:%s %s", cfg.Prefix, ip, c.Request().Method, c.Path())
			ctx := c.Request().Context()

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				// Redis trouble never blocks traffic.
				return next(c)
			}
			if count == 1 {
				if err := rdb.Expire(ctx, key, cfg.Window).Err(); err != nil {
					// A counter without a TTL would throttle this client
					// forever. Drop it and let the request through.
					_ = rdb.Del(ctx, key).Err()
					return next(c)
				}
			} else if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl < 0 {
				// An earlier Expire was lost; re-arm the window so the
				// key cannot outlive it.
				_ = rdb.Expire(ctx, key, cfg.Window).Err()
			}

			remaining := int64(cfg.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(cfg.Limit) {
				ttl, err := rdb.TTL(ctx, key).Result()
				if err != nil || ttl < 0 {
					ttl = cfg.Window
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(ttl/time.Second)+1))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too many requests",
					"retry_after": int(ttl / time.Second),
				})
			}
			return next(c)
		}
	}
}
