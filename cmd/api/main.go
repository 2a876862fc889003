package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"renoquote_backend/internal/adapters/storage"
	"renoquote_backend/internal/analysis"
	anservice "renoquote_backend/internal/analysis/service"
	"renoquote_backend/internal/analysis/vision"
	"renoquote_backend/internal/contractors"
	"renoquote_backend/internal/estimates"
	"renoquote_backend/internal/events"
	"renoquote_backend/internal/exports"
	apphttp "renoquote_backend/internal/http"
	"renoquote_backend/internal/http/router"
	"renoquote_backend/internal/scheduler"
	"renoquote_backend/platform/cache"
	"renoquote_backend/platform/config"
	"renoquote_backend/platform/db"
	"renoquote_backend/platform/logger"
	"renoquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.PhotoStore, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	taskClient, closeTaskClient := initTaskClient(cfg, log)
	if closeTaskClient != nil {
		defer closeTaskClient()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for photo uploads (MinIO)
	var photoStore storage.PhotoStore
	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		ensureBucket(ctx, log, storageSvc, "job-photos", cfg.GetMinioBucketJobPhotos())
		photoStore = storageSvc
		log.Info("storage service initialized", "jobPhotosBucket", cfg.GetMinioBucketJobPhotos())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; photo intake disabled")
	}

	// Redis-backed cache for contractor search results
	var searchCache *cache.Cache
	if cfg.IsCacheEnabled() {
		searchCache, err = cache.New(ctx, cfg)
		if err != nil {
			log.Warn("search cache unavailable, continuing without it", "error", err)
			searchCache = nil
		} else {
			defer searchCache.Close()
			log.Info("search cache initialized")
		}
	}

	// Gemini vision client for photo assessment
	var assessor anservice.Assessor
	if cfg.IsVisionEnabled() {
		visionClient, err := vision.New(ctx, cfg)
		if err != nil {
			log.Warn("vision client unavailable, analyses degrade to base rates", "error", err)
		} else {
			assessor = visionClient
			log.Info("vision client initialized", "model", cfg.GetGeminiModel())
		}
	} else {
		log.Warn("GEMINI_API_KEY not configured; photo assessment disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	var analysisExpiry anservice.ExpiryScheduler
	if taskClient != nil {
		analysisExpiry = taskClient
	}
	analysisModule := analysis.NewModule(pool, assessor, photoStore, cfg.GetMinioBucketJobPhotos(), analysisExpiry, eventBus, val, cfg, log)

	estimatesModule, err := estimates.NewModule(pool, analysisModule.Repository(), eventBus, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize estimates module", "error", err)
		panic("failed to initialize estimates module: " + err.Error())
	}

	// Wire estimate lookup into analysis (breaks circular dependency)
	analysisModule.SetEstimateLookup(estimatesModule.Repository())

	var directoryRefresher scheduler.DirectoryRefresher
	if taskClient != nil {
		directoryRefresher = taskClient
	}
	contractorsModule, err := contractors.NewModule(pool, searchCache, directoryRefresher, eventBus, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize contractors module", "error", err)
		panic("failed to initialize contractors module: " + err.Error())
	}
	contractorsModule.RegisterHandlers(eventBus)

	exportsModule := exports.NewModule(pool, estimatesModule.Repository(), contractorsModule.Repository())

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			estimatesModule,
			analysisModule,
			contractorsModule,
			exportsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initTaskClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; background tasks disabled")
		return nil, nil
	}

	taskClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		return nil, nil
	}

	return taskClient, func() {
		_ = taskClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
