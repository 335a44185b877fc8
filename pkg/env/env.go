package env

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // TZ must resolve in slim containers

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	AppPort        string
	TZ             string
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTTLMin   int
	RefreshTTLDays int

	RedisURL string

	MongoURI string
	DBName   string

	// Dialect defaults
	DefaultDialect string

	// Speech synthesis
	PythonBackendURL string
	TTSTimeoutMs     int
	FeatureTTS       bool

	ElevenLabsApiKey       string
	ElevenLabsVoiceID      string
	ElevenLabsModel        string
	ElevenLabsOutputFormat string

	// Synthesized audio cache
	TTSCacheDir        string
	TTSCacheMaxEntries int
	TTSCacheMaxBytes   int64

	APIRateLimitRPM int

	LogLevel           string
	CORSAllowedOrigins string

	OTELEndpoint string
	OTELEnabled  bool
}

// TTSTimeout returns the synthesis timeout, falling back to 30s when unset.
func (c *Config) TTSTimeout() time.Duration {
	if c.TTSTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TTSTimeoutMs) * time.Millisecond
}

func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// A missing .env is fine; production injects variables directly.
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	jwtSecret, err := requireEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		AppPort:        getEnv("APP_PORT", "8080"),
		TZ:             getEnv("TZ", "Asia/Kolkata"),
		JWTSecret:      jwtSecret,
		JWTIssuer:      getEnv("JWT_ISSUER", "fairgo-ai-ivr"),
		JWTAudience:    getEnv("JWT_AUDIENCE", "fairgo-dashboard"),
		AccessTTLMin:   getEnvInt("ACCESS_TTL_MIN", 15),
		RefreshTTLDays: getEnvInt("REFRESH_TTL_DAYS", 14),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:   getEnv("DB_NAME", "fairgo"),

		DefaultDialect: getEnv("DEFAULT_DIALECT", "standard"),

		PythonBackendURL: getEnv("PYTHON_BACKEND_URL", "http://localhost:8000"),
		TTSTimeoutMs:     getEnvInt("TTS_TIMEOUT_MS", 15000),
		FeatureTTS:       getEnvBool("FEATURE_TTS", true),

		ElevenLabsApiKey:       getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:      getEnv("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		ElevenLabsModel:        getEnv("ELEVENLABS_MODEL", "eleven_multilingual_v2"),
		ElevenLabsOutputFormat: getEnv("ELEVENLABS_OUTPUT_FORMAT", "mp3_44100_128"),

		TTSCacheDir:        getEnv("TTS_CACHE_DIR", "/data/tts-cache"),
		TTSCacheMaxEntries: getEnvInt("TTS_CACHE_MAX_ENTRIES", 500),
		TTSCacheMaxBytes:   getEnvInt64("TTS_CACHE_MAX_BYTES", 256<<20),

		APIRateLimitRPM: getEnvInt("API_RATE_LIMIT_RPM", 180),

		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),

		OTELEndpoint: getEnv("OTEL_ENDPOINT", ""),
		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
	}

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", cfg.TZ, err)
	}
	time.Local = loc

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

func getEnvInt(key string, defaultValue int) int {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) int64 {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(strValue, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(strValue)
	if err != nil {
		return defaultValue
	}
	return value
}
