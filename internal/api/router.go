// Package api assembles the HTTP surface of the service.
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fairgo/ai-ivr/internal/api/handlers"
	"github.com/fairgo/ai-ivr/pkg/auth"
	"github.com/fairgo/ai-ivr/pkg/env"
	"github.com/fairgo/ai-ivr/pkg/middleware"
	"github.com/fairgo/ai-ivr/pkg/otel"
)

const maxRequestBody = 1 << 20

// NewRouter wires middleware and routes. redisClient may be nil, in which
// case rate limiting and idempotent replay are disabled.
func NewRouter(cfg *env.Config, h *handlers.Handler, redisClient redis.Cmdable, log *zap.Logger) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(maxRequestBody))
	if cfg.OTELEnabled {
		router.Use(otel.GinMiddleware())
	}
	router.Use(requestLogger(log))
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", h.GetMetrics)
	router.GET("/metrics/prometheus", h.GetPrometheusMetrics)

	requireAuth := middleware.AuthMiddleware(h.Signer())

	authGroup := router.Group("/auth")
	if redisClient != nil {
		authGroup.Use(middleware.NewAuthRateLimiter(redisClient, 5, 15*time.Minute, 30*time.Minute).Middleware())
	}
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", requireAuth, h.Logout)
	}

	api := router.Group("/api")
	api.Use(requireAuth)
	if redisClient != nil {
		api.Use(middleware.NewRateLimiter(redisClient, cfg.APIRateLimitRPM).Middleware())
		api.Use(middleware.IdempotencyMiddleware(redisClient))
	}
	{
		dialects := api.Group("/dialects")
		{
			dialects.GET("", h.ListDialects)
			dialects.POST("/transform", h.TransformText)
			dialects.GET("/:dialect", middleware.ValidateDialectParam("dialect"), h.GetDialect)
		}

		ttsGroup := api.Group("/tts")
		{
			ttsGroup.POST("", h.Synthesize)
			ttsGroup.GET("/history", h.ListHistory)
			ttsGroup.GET("/voices", h.ListVoices)
		}

		api.GET("/audit-logs", middleware.RoleMiddleware(auth.RoleAdmin, auth.RoleAuditor), h.ListAuditLogs)
	}

	router.GET("/ws/dialect/preview", middleware.QueryTokenAuth(h.Signer()), h.PreviewSocket)

	return router
}

func corsConfig(allowedOrigins string) cors.Config {
	cfg := cors.DefaultConfig()
	if allowedOrigins == "" || allowedOrigins == "*" {
		cfg.AllowAllOrigins = true
	} else {
		for _, o := range strings.Split(allowedOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, o)
			}
		}
		cfg.AllowCredentials = true
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Trace-ID"}
	cfg.ExposeHeaders = []string{"X-TTS-Cache", "X-TTS-Job-ID", "X-Dialect", "X-Trace-ID", "X-Request-ID"}
	return cfg
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("trace_id", c.GetString("trace_id")),
		)
	}
}
