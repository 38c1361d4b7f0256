package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/imageforge/imageforge/internal/config"
	"github.com/imageforge/imageforge/internal/health"
	"github.com/imageforge/imageforge/internal/lifecycle"
	"github.com/imageforge/imageforge/internal/logger"
	"github.com/imageforge/imageforge/internal/pipeline"
	imgpipe "github.com/imageforge/imageforge/internal/pipeline/image"
	"github.com/imageforge/imageforge/internal/storage"
	"github.com/imageforge/imageforge/internal/tracing"
	"github.com/imageforge/imageforge/internal/web"
	"github.com/imageforge/imageforge/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Init(cfg.LogLevel)
	log := logger.Default()

	log.Info("configuration loaded", "storage", cfg.StorageBackend, "environment", cfg.Environment)

	ctx := context.Background()

	if cfg.TracingEnabled {
		shutdownTracing, err := tracing.Init(ctx, &tracing.Config{
			ServiceName:    "api",
			ServiceVersion: "1.0.0",
			Environment:    cfg.Environment,
			OTLPEndpoint:   cfg.OTLPEndpoint,
			Enabled:        true,
			SampleRate:     cfg.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer func() { _ = shutdownTracing(ctx) }()
		log.Info("tracing enabled", "endpoint", cfg.OTLPEndpoint, "sample_rate", cfg.SampleRate)
	}

	store, err := buildStorage(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info("storage ready", "backend", cfg.StorageBackend)

	var redisClient *redis.Client
	uploadGate := lifecycle.Gate(lifecycle.NewMemoryGate())
	processGate := lifecycle.Gate(lifecycle.NewMemoryGate())

	if cfg.RedisURL != "" {
		log.Info("connecting to redis")
		redisOpt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}
		redisClient = redis.NewClient(redisOpt)
		defer func() { _ = redisClient.Close() }()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}

		uploadGate = lifecycle.NewRedisGate(redisClient, "imageforge:gate:upload", cfg.UploadLockTTL)
		processGate = lifecycle.NewRedisGate(redisClient, "imageforge:gate:process", cfg.UploadLockTTL)
		log.Info("redis gates configured", "lock_ttl", cfg.UploadLockTTL.String())
	}

	engine := imgpipe.NewEngine(&pipeline.Config{TempDir: os.TempDir()})
	svc := lifecycle.NewService(store, engine, uploadGate, processGate).
		WithMaxFileSize(cfg.MaxUploadSize)
	registry := lifecycle.NewRegistry()

	checker := health.NewChecker(store)
	if redisClient != nil {
		checker = checker.WithRedis(redisClient)
	}

	handlers := web.NewHandlers(svc, registry, store)
	router := web.NewRouter(handlers, checker, web.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		ServiceName:    "api",
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	cleanupCtx, cancelCleanup := context.WithCancel(ctx)
	defer cancelCleanup()
	go worker.RunCleanupLoop(cleanupCtx, &worker.CleanupDependencies{
		Storage: store,
		TTL:     cfg.StorageTTL,
	}, time.Hour)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "url", cfg.BaseURL)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("shutdown signal received", "signal", sig)
		cancelCleanup()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("server stopped")
	}

	return nil
}

func buildStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case "minio":
		store, err := storage.NewMinIOStorage(&storage.Config{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
			Region:    cfg.MinIORegion,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewLocalStorage(cfg.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
		return store, nil
	}
}
