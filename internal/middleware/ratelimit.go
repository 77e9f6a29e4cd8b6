package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/media-catalog/internal/config"
	"github.com/iliyamo/media-catalog/internal/logging"
)

// bucketScript takes one token from the bucket at KEYS[1] after crediting
// whole refill intervals since the last credit.  ARGV is now_ms, capacity,
// refill, interval_ms and ttl_s.  The reply is {allowed, left, wait_ms}.
var bucketScript = redis.NewScript(`
local now, cap, refill, every, ttl =
	tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

local left = tonumber(redis.call('HGET', KEYS[1], 'left') or cap)
local since = tonumber(redis.call('HGET', KEYS[1], 'since') or now)

local steps = math.floor(math.max(0, now - since) / every)
if steps > 0 then
	left = math.min(cap, left + steps * refill)
	since = since + steps * every
end

local wait = 0
if left >= 1 then
	left = left - 1
else
	wait = math.max(0, since + every - now)
end

redis.call('HSET', KEYS[1], 'left', left, 'since', since)
redis.call('EXPIRE', KEYS[1], ttl)
if wait > 0 then
	return {0, left, wait}
end
return {1, left, 0}
`)

// NewTokenBucket limits requests per key with a token bucket kept in Redis,
// so several server processes share one limit.  Without Redis, or when the
// script fails, every request is allowed.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			args := []interface{}{
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL / time.Second),
			}

			ctx := c.Request().Context()
			vals, err := bucketScript.Run(ctx, rdb, []string{key}, args...).Result()
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("rate limit check failed; allowing request")
				return next(c)
			}
			allowed, remaining, retryMs, ok := parseBucketResult(vals)
			if !ok {
				logging.Ctx(ctx).Warn().Str("key", key).Interface("result", vals).Msg("unexpected rate limit script result")
				return next(c)
			}

			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := retryAfterSeconds(retryMs)
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					logging.Ctx(ctx).Info().Str("key", key).Int64("retry_ms", retryMs).Msg("rate limited")
				}
				return c.String(http.StatusTooManyRequests,
					fmt.Sprintf("Too many attempts. Please try again in %d seconds.", secs))
			}

			if cfg.Debug {
				c.Response().Header().Set("X-RateLimit-Key", key)
			}
			return next(c)
		}
	}
}

// parseBucketResult decodes the script's reply.
func parseBucketResult(vals interface{}) (allowed bool, remaining, retryMs int64, ok bool) {
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return false, 0, 0, false
	}
	return asInt64(arr[0]) == 1, asInt64(arr[1]), asInt64(arr[2]), true
}

func retryAfterSeconds(ms int64) int {
	secs := int(math.Ceil(float64(ms) / 1000.0))
	if secs < 0 {
		return 0
	}
	return secs
}

// asInt64 reads a script reply element.  Lua numbers arrive as int64.
func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

// rateKey names the bucket a form submission draws from.  Buckets are per
// form, so failed sign-ins do not use up registrations.  The strategy picks
// what else goes in the key: "username" throttles guesses against one account
// from anywhere, "ip_username" one client against one account, and anything
// else one client across all accounts.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	form := strings.Trim(c.Path(), "/")
	if form == "" {
		form = "root"
	}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	username := strings.ToLower(strings.TrimSpace(c.FormValue("username")))

	key := cfg.Prefix + ":" + form
	switch strings.ToLower(cfg.KeyStrategy) {
	case "username":
		if username != "" {
			return key + ":user:" + username
		}
	case "ip_username":
		if username != "" {
			return key + ":ip:" + ip + ":user:" + username
		}
	}
	return key + ":ip:" + ip
}
