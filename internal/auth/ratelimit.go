package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/originhq/origin/internal/apperror"
	"github.com/originhq/origin/internal/telemetry"
	"github.com/originhq/origin/pkg/tenant"
)

// tokenBucketScript atomically refills and withdraws from a per-tenant
// token bucket, so concurrent requests never race each other's refill.
// KEYS[1] = tokens key, KEYS[2] = last_refill key.
// ARGV: capacity, refill_per_second, ttl_seconds, now_unix_ms.
var tokenBucketScript = redis.NewScript(`
local tokens_key = KEYS[1]
local refill_key = KEYS[2]
local capacity = tonumber(ARGV[1])
local refill_per_second = tonumber(ARGV[2])
local ttl_seconds = tonumber(ARGV[3])
local now_ms = tonumber(ARGV[4])

local tokens = tonumber(redis.call("GET", tokens_key))
local last_refill = tonumber(redis.call("GET", refill_key))

if tokens == nil then
  tokens = capacity
  last_refill = now_ms
end

local elapsed_seconds = math.max(0, (now_ms - last_refill) / 1000)
tokens = math.min(capacity, tokens + elapsed_seconds * refill_per_second)

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("SET", tokens_key, tokens, "EX", ttl_seconds)
redis.call("SET", refill_key, now_ms, "EX", ttl_seconds)

return {allowed, tokens}
`)

// RateLimiter enforces each tenant's configured token-bucket quota
// (spec.md §3 Tenant.RateLimit, §4.12). Buckets are Redis-backed so
// they're shared across every API instance.
type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{redis: rdb}
}

// Allow withdraws one token from t's bucket, refilling for elapsed time
// since the last check. now is passed in rather than read via time.Now
// so callers control the clock used for the Redis script's arithmetic.
func (rl *RateLimiter) Allow(ctx context.Context, t *tenant.Tenant, now time.Time) (bool, error) {
	ttl := t.RateLimit.TTLSeconds
	if ttl <= 0 {
		ttl = 600
	}

	tokensKey := fmt.Sprintf("rate_limit:%s", t.ID)
	refillKey := fmt.Sprintf("rate_limit:%s:last_refill", t.ID)

	res, err := tokenBucketScript.Run(ctx, rl.redis,
		[]string{tokensKey, refillKey},
		t.RateLimit.Capacity, t.RateLimit.RefillPerSecond, ttl, now.UnixMilli(),
	).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: running token bucket script: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return false, fmt.Errorf("ratelimit: unexpected script result %T", res)
	}
	allowed, _ := values[0].(int64)
	return allowed == 1, nil
}

// Middleware rejects requests once the authenticated tenant's bucket is
// exhausted, returning 429 with Retry-After set to one refill interval.
func Middleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := tenant.FromContext(r.Context())
			if t == nil {
				respondAppError(w, r, apperror.Unauthorized("authentication required"))
				return
			}

			allowed, err := limiter.Allow(r.Context(), t, time.Now())
			if err != nil {
				respondAppError(w, r, apperror.Unavailable("rate limiter unavailable"))
				return
			}
			if !allowed {
				telemetry.RateLimitDeniedTotal.WithLabelValues(t.ID.String()).Inc()
				retryAfter := time.Second
				if t.RateLimit.RefillPerSecond > 0 {
					retryAfter = time.Second / time.Duration(t.RateLimit.RefillPerSecond)
				}
				respondAppError(w, r, apperror.RateLimited(retryAfter))
				return
			}

			next.ServeHTTP(w, r.WithContext(r.Context()))
		})
	}
}
