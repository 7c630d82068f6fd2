package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ilumap/pqr-api/internal/service"
	"github.com/ilumap/pqr-api/pkg/config"
	appErrors "github.com/ilumap/pqr-api/pkg/errors"
	"github.com/ilumap/pqr-api/pkg/response"
)

// tokenBucketScript refills, takes one token and reports {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
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
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + (intervals * refill_tokens))
		last_refill = last_refill + (intervals * interval_ms)
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

// RateDecision is the outcome of taking one token.
type RateDecision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// RateLimiter takes a token for key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
}

// RedisTokenBucket is a RateLimiter whose state lives in a Redis hash per key.
type RedisTokenBucket struct {
	client redis.Scripter
	cfg    config.RateLimitConfig
	now    func() time.Time
}

// NewRedisTokenBucket builds a limiter on top of client.
func NewRedisTokenBucket(client redis.Scripter, cfg config.RateLimitConfig) *RedisTokenBucket {
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return &RedisTokenBucket{client: client, cfg: cfg, now: time.Now}
}

// Allow runs the bucket script atomically.
func (b *RedisTokenBucket) Allow(ctx context.Context, key string) (RateDecision, error) {
	args := []interface{}{
		b.now().UnixMilli(),
		b.cfg.Capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		int64(b.cfg.TTL / time.Second),
	}
	vals, err := tokenBucketScript.Run(ctx, b.client, []string{key}, args...).Result()
	if err != nil {
		return RateDecision{}, err
	}
	return parseBucketResult(vals)
}

func parseBucketResult(vals interface{}) (RateDecision, error) {
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return RateDecision{}, fmt.Errorf("unexpected rate limit script result %#v", vals)
	}
	return RateDecision{
		Allowed:    asInt64(arr[0]) == 1,
		Remaining:  asInt64(arr[1]),
		RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// RateLimit throttles requests per client IP. A nil limiter or a disabled
// config lets every request through, and limiter failures fail open.
func RateLimit(limiter RateLimiter, cfg config.RateLimitConfig, metrics *service.MetricsService, logger *zap.Logger) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "rl"
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		key := prefix + ":ip:" + ip

		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))

		if !decision.Allowed {
			secs := int(math.Ceil(decision.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			metrics.RecordRateLimited()
			logger.Info("request rate limited", zap.String("key", key), zap.Int("retry_after", secs))
			response.Error(c, appErrors.Clone(appErrors.ErrTooManyRequests, "too many attempts, retry later"))
			return
		}
		c.Next()
	}
}
