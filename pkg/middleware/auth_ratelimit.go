package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fairgo/ai-ivr/pkg/errors"
	"github.com/fairgo/ai-ivr/pkg/logger"
)

// AuthRateLimiter throttles login attempts per client IP and blocks the IP
// for a while once the limit is exceeded.
type AuthRateLimiter struct {
	client      redis.Cmdable
	maxAttempts int
	window      time.Duration
	block       time.Duration
}

func NewAuthRateLimiter(client redis.Cmdable, maxAttempts int, window, block time.Duration) *AuthRateLimiter {
	return &AuthRateLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
		block:       block,
	}
}

// Middleware fails open when Redis is unavailable.
func (arl *AuthRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		key := fmt.Sprintf("auth_ratelimit:%s", ip)
		blockKey := fmt.Sprintf("auth_blocked:%s", ip)
		ctx := c.Request.Context()

		c.Header("X-RateLimit-Limit", strconv.Itoa(arl.maxAttempts))

		if ttl, err := arl.client.TTL(ctx, blockKey).Result(); err == nil && ttl > 0 {
			rejectTooMany(c, ttl, "too many authentication attempts")
			return
		}

		count, err := arl.client.Incr(ctx, key).Result()
		if err != nil {
			logger.Named("ratelimit").Warn("Auth rate limit check failed, allowing request", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			arl.client.Expire(ctx, key, arl.window)
		}

		if count > int64(arl.maxAttempts) {
			arl.client.Set(ctx, blockKey, "1", arl.block)
			rejectTooMany(c, arl.block, "too many authentication attempts")
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(arl.maxAttempts-int(count)))
		c.Next()
	}
}

func rejectTooMany(c *gin.Context, retryAfter time.Duration, detail string) {
	c.Header("X-RateLimit-Remaining", "0")
	c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	errors.TooManyRequests(c, detail)
	c.Abort()
}
