package middleware

import (
	"math"     // Retry-After rounding
	"net/http" // status codes
	"strconv"  // header values
	"time"     // clock for the bucket script

	"github.com/labstack/echo/v4"  // Echo framework types for middleware
	"github.com/redis/go-redis/v9" // Redis client and Lua script runner

	"github.com/iliyamo/acrux-trazabilidad/internal/config" // limiter settings
	"github.com/iliyamo/acrux-trazabilidad/internal/logger" // process-wide logger
)

// KeyFunc names the bucket a request draws from.
type KeyFunc func(c echo.Context) string

// ByIP buckets requests by client address.  Used for login.
func ByIP(c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// ByIdentity buckets authenticated requests per user, falling back to IP.
func ByIdentity(c echo.Context) string {
	if id := identityKey(c); id != "guest" {
		return id
	}
	return ByIP(c)
}

// tokenBucket refills whole intervals only and returns
// {allowed, remaining, retry_after_ms}.  The bucket state is a hash with
// the token count and the time of the last refill; the key expires after
// ttl_seconds without traffic.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
  tokens = capacity
  last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
  local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
  if intervals > 0 then
    tokens = math.min(capacity, tokens + intervals * refill_tokens)
    last_refill = last_refill + intervals * interval_ms
  end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return { allowed, tokens, retry_after_ms }
`)

// NewTokenBucket limits requests with a Redis token bucket per key.  Redis
// errors let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, keyOf KeyFunc) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if keyOf == nil {
		keyOf = ByIdentity
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// One bucket per key, e.g. rl:user:7 or login:ip:10.0.0.1.
			key := cfg.Prefix + ":" + keyOf(c)
			vals, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Int64Slice()
			// A failed check lets the request through.
			if err != nil || len(vals) != 3 {
				logger.Logger.WithError(err).WithField("key", key).Warn("rate limit check failed")
				return next(c)
			}
			allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]

			// Limit headers go out on allowed and rejected responses alike.
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if allowed {
				return next(c)
			}
			// Rejected: tell the client how many whole seconds to wait.
			secs := int(math.Ceil(float64(retryMs) / 1000))
			h.Set("Retry-After", strconv.Itoa(secs))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "demasiadas solicitudes",
				"retry_after": secs,
			})
		}
	}
}
