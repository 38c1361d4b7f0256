package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port    int
	BaseURL string

	Environment string
	LogLevel    string

	// MaxUploadSize is the hard cap enforced before any bytes reach storage.
	MaxUploadSize int64

	// StorageBackend selects "local" or "minio".
	StorageBackend string
	StorageDir     string
	StorageTTL     time.Duration

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIORegion    string

	// RedisURL, when set, backs the upload/processing gates with a shared
	// store so multiple instances coordinate. Empty means in-process gates.
	RedisURL string

	// UploadLockTTL bounds how long a crashed instance can hold the shared
	// upload gate before it expires.
	UploadLockTTL time.Duration

	CORSAllowedOrigins []string

	TracingEnabled bool
	OTLPEndpoint   string
	SampleRate     float64
}

func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	cfg.Port = getEnvInt("PORT", 8080)
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.Environment = getEnvString("ENVIRONMENT", "development")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	cfg.MaxUploadSize = getEnvInt64("MAX_UPLOAD_SIZE", 10*1024*1024)

	cfg.StorageBackend = getEnvString("STORAGE_BACKEND", "local")
	cfg.StorageDir = getEnvString("STORAGE_DIR", "./data/uploads")
	cfg.StorageTTL, err = getEnvDuration("STORAGE_TTL", "24h")
	if err != nil {
		return nil, fmt.Errorf("invalid STORAGE_TTL: %w", err)
	}

	if cfg.StorageBackend == "minio" {
		cfg.MinIOEndpoint = os.Getenv("MINIO_ENDPOINT")
		if cfg.MinIOEndpoint == "" {
			return nil, fmt.Errorf("MINIO_ENDPOINT is required when STORAGE_BACKEND=minio")
		}
		cfg.MinIOAccessKey = os.Getenv("MINIO_ACCESS_KEY")
		if cfg.MinIOAccessKey == "" {
			return nil, fmt.Errorf("MINIO_ACCESS_KEY is required when STORAGE_BACKEND=minio")
		}
		cfg.MinIOSecretKey = os.Getenv("MINIO_SECRET_KEY")
		if cfg.MinIOSecretKey == "" {
			return nil, fmt.Errorf("MINIO_SECRET_KEY is required when STORAGE_BACKEND=minio")
		}
		cfg.MinIOBucket = getEnvString("MINIO_BUCKET", "imageforge")
		cfg.MinIOUseSSL = getEnvBool("MINIO_USE_SSL", false)
		cfg.MinIORegion = getEnvString("MINIO_REGION", "us-east-1")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.UploadLockTTL, err = getEnvDuration("UPLOAD_LOCK_TTL", "5m")
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_LOCK_TTL: %w", err)
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = splitAndTrim(origins)
	} else {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	cfg.TracingEnabled = getEnvBool("TRACING_ENABLED", false)
	cfg.OTLPEndpoint = getEnvString("OTLP_ENDPOINT", "localhost:4317")
	cfg.SampleRate = getEnvFloat("TRACE_SAMPLE_RATE", 1.0)

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.MaxUploadSize < 1 {
		return fmt.Errorf("invalid max upload size: %d", c.MaxUploadSize)
	}

	if c.StorageBackend != "local" && c.StorageBackend != "minio" {
		return fmt.Errorf("invalid storage backend: %q", c.StorageBackend)
	}

	if c.StorageTTL <= 0 {
		return fmt.Errorf("invalid storage TTL: %s", c.StorageTTL)
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	return time.ParseDuration(value)
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
