package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"renoquote_backend/internal/adapters/storage"
	"renoquote_backend/internal/analysis"
	"renoquote_backend/internal/contractors"
	"renoquote_backend/internal/estimates"
	"renoquote_backend/internal/events"
	"renoquote_backend/internal/scheduler"
	"renoquote_backend/platform/cache"
	"renoquote_backend/platform/config"
	"renoquote_backend/platform/db"
	"renoquote_backend/platform/logger"
	"renoquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// Photo storage so expired analyses can drop their objects
	var photoStore storage.PhotoStore
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		photoStore = storageSvc
	} else {
		log.Warn("MINIO_ENDPOINT not configured; photo cleanup disabled")
	}

	// Search cache so directory warm-ups have somewhere to write
	var searchCache *cache.Cache
	if cfg.IsCacheEnabled() {
		searchCache, err = cache.New(ctx, cfg)
		if err != nil {
			log.Warn("search cache unavailable, directory warm-ups will be no-ops", "error", err)
			searchCache = nil
		} else {
			defer searchCache.Close()
		}
	}

	// Worker-side module wiring (no HTTP handlers required).
	analysisModule := analysis.NewModule(pool, nil, photoStore, cfg.GetMinioBucketJobPhotos(), nil, eventBus, val, cfg, log)

	estimatesModule, err := estimates.NewModule(pool, analysisModule.Repository(), eventBus, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize estimates module", "error", err)
		panic("failed to initialize estimates module: " + err.Error())
	}
	analysisModule.SetEstimateLookup(estimatesModule.Repository())

	contractorsModule, err := contractors.NewModule(pool, searchCache, nil, eventBus, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize contractors module", "error", err)
		panic("failed to initialize contractors module: " + err.Error())
	}

	cleanupInterval := getDurationEnv("ESTIMATE_CLEANUP_INTERVAL", time.Hour)
	estimateCleanup := scheduler.NewEstimateCleanup(estimatesModule.Repository(), analysisModule.Repository(), photoStore, cfg.GetMinioBucketJobPhotos(), log, cleanupInterval)
	go estimateCleanup.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, contractorsModule.Service(), analysisModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
