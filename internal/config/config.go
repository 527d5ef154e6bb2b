package config

import (
	"os"
	"strings"
	"time"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port            string
	Env             string
	PostgresDSN     string
	MongoURI        string
	MongoDB         string
	RedisAddr       string
	RedisPassword   string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool
	MinioPublicURL  string
	GeminiAPIURL    string
	GeminiAPIKey    string
	GeminiModel     string
	JWTSecret       string
	SessionTTL      time.Duration
	UpstreamTimeout time.Duration
	AllowedOrigins  []string
}

func Load() *Config {
	return &Config{
		Port:            getenv("PORT", "8080"),
		Env:             getenv("APP_ENV", "development"),
		PostgresDSN:     getenv("POSTGRES_DSN", ""),
		MongoURI:        getenv("MONGO_URI", ""),
		MongoDB:         getenv("MONGO_DB", "captionit"),
		RedisAddr:       getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:   getenv("REDIS_PASSWORD", ""),
		MinioEndpoint:   getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey:  getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:     getenv("MINIO_BUCKET", "post-images"),
		MinioUseSSL:     getenv("MINIO_USE_SSL", "false") == "true",
		MinioPublicURL:  getenv("MINIO_PUBLIC_URL", "http://localhost:9000"),
		GeminiAPIURL:    getenv("GEMINI_API_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIKey:    getenv("GEMINI_API_KEY", ""),
		GeminiModel:     getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		JWTSecret:       getenv("JWT_SECRET", ""),
		SessionTTL:      getduration("SESSION_TTL", 24*time.Hour),
		UpstreamTimeout: getduration("UPSTREAM_TIMEOUT", 30*time.Second),
		AllowedOrigins: strings.Split(
			getenv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
	}
}

// IsProduction reports whether the service runs in a production-like
// environment; it controls the Secure flag on the session cookie.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
