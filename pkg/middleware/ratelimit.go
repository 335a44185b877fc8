package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fairgo/ai-ivr/pkg/logger"
)

// RateLimiter is a fixed one-minute window per tenant, falling back to the
// client IP for unauthenticated routes.
type RateLimiter struct {
	client      redis.Cmdable
	maxRequests int
	window      time.Duration
}

func NewRateLimiter(client redis.Cmdable, maxRequestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		client:      client,
		maxRequests: maxRequestsPerMinute,
		window:      time.Minute,
	}
}

func (rl *RateLimiter) key(c *gin.Context) string {
	if tenant := c.GetString(ContextTenantID); tenant != "" {
		return "ratelimit:tenant:" + tenant
	}
	return "ratelimit:ip:" + c.ClientIP()
}

// Middleware fails open when Redis is unavailable.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.maxRequests <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := rl.key(c)

		count, err := rl.client.Incr(ctx, key).Result()
		if err != nil {
			logger.Named("ratelimit").Warn("Rate limit check failed, allowing request",
				zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			rl.client.Expire(ctx, key, rl.window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.maxRequests))
		if count > int64(rl.maxRequests) {
			rejectTooMany(c, rl.window, fmt.Sprintf("rate limit of %d requests per minute exceeded", rl.maxRequests))
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.maxRequests-int(count)))
		c.Next()
	}
}
