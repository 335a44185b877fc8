package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fairgo/ai-ivr/pkg/errors"
	"github.com/fairgo/ai-ivr/pkg/logger"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour
	// Upper bound on how long a first request may hold its key.
	idempotencyLockTTL = 2 * time.Minute
	// Larger responses (long synthesized audio) are not stored.
	maxIdempotentBody = 1 << 20
)

type storedResponse struct {
	Status      int               `json:"status"`
	ContentType string            `json:"content_type"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        []byte            `json:"body"`
}

// Response headers replayed along with the body.
var replayHeaders = []string{"X-TTS-Cache", "X-TTS-Job-ID", "X-Dialect"}

type recordingWriter struct {
	gin.ResponseWriter
	buf      bytes.Buffer
	overflow bool
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.buf.Len()+len(b) > maxIdempotentBody {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// IdempotencyMiddleware replays the stored response of a successful POST
// carrying the same Idempotency-Key for the same tenant.
func IdempotencyMiddleware(redisClient redis.Cmdable) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		cacheKey := "idempotency:" + c.GetString(ContextTenantID) + ":" + hashIdempotencyKey(c.FullPath()+"|"+key)
		ctx := c.Request.Context()

		if raw, err := redisClient.Get(ctx, cacheKey).Bytes(); err == nil {
			var stored storedResponse
			if json.Unmarshal(raw, &stored) == nil {
				for k, v := range stored.Headers {
					c.Header(k, v)
				}
				c.Header("X-Idempotency-Replayed", "true")
				c.Data(stored.Status, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
		}

		lockKey := cacheKey + ":lock"
		acquired, err := redisClient.SetNX(ctx, lockKey, 1, idempotencyLockTTL).Result()
		if err == nil && !acquired {
			errors.Conflict(c, "a request with this Idempotency-Key is still in progress")
			c.Abort()
			return
		}
		if err == nil {
			defer redisClient.Del(context.WithoutCancel(ctx), lockKey)
		}

		rec := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 || rec.overflow {
			return
		}

		stored := storedResponse{
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Headers:     map[string]string{},
			Body:        rec.buf.Bytes(),
		}
		for _, h := range replayHeaders {
			if v := rec.Header().Get(h); v != "" {
				stored.Headers[h] = v
			}
		}
		raw, err := json.Marshal(stored)
		if err != nil {
			return
		}
		if err := redisClient.Set(ctx, cacheKey, raw, idempotencyTTL).Err(); err != nil {
			logger.Named("idempotency").Warn("Failed to store idempotent response", zap.Error(err))
		}
	}
}

func hashIdempotencyKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
