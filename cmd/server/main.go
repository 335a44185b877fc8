package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fairgo/ai-ivr/internal/api"
	"github.com/fairgo/ai-ivr/internal/api/handlers"
	"github.com/fairgo/ai-ivr/pkg/audit"
	"github.com/fairgo/ai-ivr/pkg/auth"
	"github.com/fairgo/ai-ivr/pkg/env"
	"github.com/fairgo/ai-ivr/pkg/logger"
	"github.com/fairgo/ai-ivr/pkg/mongo"
	"github.com/fairgo/ai-ivr/pkg/otel"
	"github.com/fairgo/ai-ivr/pkg/speech"
	"github.com/fairgo/ai-ivr/pkg/tts"
	"github.com/fairgo/ai-ivr/pkg/ttscache"
)

func main() {
	cfg, err := env.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.LogLevel, cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize OpenTelemetry if enabled
	if cfg.OTELEnabled {
		shutdown, err := otel.InitTracing("ai-ivr", "1.0.0", cfg.OTELEndpoint)
		if err != nil {
			logger.Log.Warn("Failed to initialize OpenTelemetry", zap.Error(err))
		} else {
			defer shutdown()
			logger.Log.Info("OpenTelemetry tracing enabled", zap.String("endpoint", cfg.OTELEndpoint))
		}
	}

	logger.Log.Info("Starting dialect speech server",
		zap.String("env", cfg.AppEnv),
		zap.String("port", cfg.AppPort),
		zap.String("default_dialect", cfg.DefaultDialect),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Redis only backs rate limiting and idempotency; run without it.
	var redisClient *redis.Client
	if opt, err := redis.ParseURL(cfg.RedisURL); err != nil {
		logger.Log.Warn("Invalid Redis URL, rate limiting disabled", zap.Error(err))
	} else {
		redisClient = redis.NewClient(opt)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Log.Warn("Redis unreachable, rate limiting disabled", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		}
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	mongoClient, err := mongo.NewClient(cfg.MongoURI, cfg.DBName)
	if err != nil {
		logger.Log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Log.Warn("Failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	if err := mongoClient.EnsureIndexes(ctx); err != nil {
		logger.Log.Warn("Failed to ensure MongoDB indexes", zap.Error(err))
	}

	history := speech.NewMongoHistory(mongoClient)
	speechOpts := []speech.Option{speech.WithHistory(history)}

	var cacheStats handlers.CacheStats
	cache, err := ttscache.New(ttscache.Options{
		Dir:        cfg.TTSCacheDir,
		MaxEntries: cfg.TTSCacheMaxEntries,
		MaxBytes:   cfg.TTSCacheMaxBytes,
	}, logger.Named("ttscache"))
	if err != nil {
		logger.Log.Warn("TTS cache disabled", zap.String("dir", cfg.TTSCacheDir), zap.Error(err))
	} else {
		speechOpts = append(speechOpts, speech.WithCache(cache))
		cacheStats = cache
	}

	// Speech synthesis providers, tried in order.
	var synth speech.Synthesizer
	var voices handlers.VoiceLister
	if cfg.FeatureTTS {
		providers := []tts.Synthesizer{}

		backend := tts.NewBackendProvider(cfg.PythonBackendURL, cfg.TTSTimeout(), logger.Named("tts"))
		if backend.IsAvailable() {
			providers = append(providers, backend)
			logger.Log.Info("Backend TTS provider initialized", zap.String("url", cfg.PythonBackendURL))
		}

		elevenLabs := tts.NewElevenLabsProvider(
			cfg.ElevenLabsApiKey,
			cfg.ElevenLabsVoiceID,
			cfg.ElevenLabsModel,
			cfg.ElevenLabsOutputFormat,
			cfg.TTSTimeout(),
			logger.Named("tts"),
		)
		if elevenLabs.IsAvailable() {
			providers = append(providers, elevenLabs)
			voices = elevenLabs
			logger.Log.Info("ElevenLabs TTS provider initialized", zap.String("model", cfg.ElevenLabsModel))
		}

		if len(providers) > 0 {
			synth = tts.NewManager(providers, logger.Named("tts"))
		} else {
			logger.Log.Warn("FEATURE_TTS is enabled but no TTS provider is configured")
		}
	}

	signer := auth.Signer{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
		AccessTTL: time.Duration(cfg.AccessTTLMin) * time.Minute,
	}

	checks := map[string]handlers.HealthCheck{
		"mongodb": mongoClient.Ping,
	}
	var limiterClient redis.Cmdable
	if redisClient != nil {
		limiterClient = redisClient
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	h := handlers.NewHandler(handlers.Deps{
		Config:  cfg,
		Signer:  signer,
		Speech:  speech.NewService(synth, logger.Named("speech"), speechOpts...),
		History: history,
		Users:   auth.NewUserStore(mongoClient),
		Tokens:  auth.NewRefreshStore(mongoClient, time.Duration(cfg.RefreshTTLDays)*24*time.Hour),
		Audit:   audit.New(mongoClient),
		Voices:  voices,
		Cache:   cacheStats,
		Checks:  checks,
		Logger:  logger.Named("api"),
	})

	router := api.NewRouter(cfg, h, limiterClient, logger.Named("http"))

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.TTSTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
