package scheduler

import (
	"context"
	"errors"
	"time"

	"renoquote_backend/internal/adapters/storage"
	analysisrepo "renoquote_backend/internal/analysis/repository"
	estimaterepo "renoquote_backend/internal/estimates/repository"
	"renoquote_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultCleanupInterval = time.Hour
	defaultCleanupBatch    = 100
)

// EstimateCleanup periodically deletes estimates whose retention window
// has passed, including the photo analysis and stored photos linked to
// them.
type EstimateCleanup struct {
	estimates *estimaterepo.Repository
	analyses  *analysisrepo.Repository
	store     storage.PhotoStore
	bucket    string
	log       *logger.Logger
	interval  time.Duration
	batchSize int
}

func NewEstimateCleanup(estimates *estimaterepo.Repository, analyses *analysisrepo.Repository, store storage.PhotoStore, bucket string, log *logger.Logger, interval time.Duration) *EstimateCleanup {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}

	return &EstimateCleanup{
		estimates: estimates,
		analyses:  analyses,
		store:     store,
		bucket:    bucket,
		log:       log,
		interval:  interval,
		batchSize: defaultCleanupBatch,
	}
}

func (c *EstimateCleanup) Run(ctx context.Context) {
	if c == nil || c.estimates == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *EstimateCleanup) cleanup(ctx context.Context) {
	expired, err := c.estimates.ListExpired(ctx, time.Now(), c.batchSize)
	if err != nil {
		c.log.Warn("expired estimate query failed", "error", err)
		return
	}

	deleted := 0
	for _, est := range expired {
		if est.AnalysisID != nil {
			c.removeAnalysis(ctx, *est.AnalysisID)
		}

		if err := c.estimates.Delete(ctx, est.ID); err != nil {
			c.log.Warn("expired estimate delete failed", "estimateId", est.ID, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		c.log.Info("expired estimates removed", "count", deleted)
	}
}

func (c *EstimateCleanup) removeAnalysis(ctx context.Context, analysisID uuid.UUID) {
	if c.analyses == nil {
		return
	}

	analysis, err := c.analyses.GetByID(ctx, analysisID)
	if err != nil {
		if !errors.Is(err, analysisrepo.ErrAnalysisNotFound) {
			c.log.Warn("analysis lookup failed", "analysisId", analysisID, "error", err)
		}
		return
	}

	if c.store != nil {
		for _, photo := range analysis.Photos {
			if err := c.store.DeleteObject(ctx, c.bucket, photo.FileKey); err != nil {
				c.log.Warn("stored photo delete failed", "fileKey", photo.FileKey, "error", err)
			}
		}
	}

	if err := c.analyses.Delete(ctx, analysisID); err != nil && !errors.Is(err, analysisrepo.ErrAnalysisNotFound) {
		c.log.Warn("analysis delete failed", "analysisId", analysisID, "error", err)
	}
}
