// Package service implements the photo analysis pipeline: storage
// intake, EXIF inspection and the vision assessment that yields a price
// adjustment. Vision failures degrade to a neutral adjustment instead
// of failing the request.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/google/uuid"

	"renoquote_backend/internal/adapters/storage"
	"renoquote_backend/internal/analysis/costadjust"
	"renoquote_backend/internal/analysis/exifmeta"
	"renoquote_backend/internal/analysis/repository"
	"renoquote_backend/internal/analysis/transport"
	"renoquote_backend/internal/analysis/vision"
	"renoquote_backend/internal/events"
	"renoquote_backend/internal/scheduler"
	"renoquote_backend/platform/apperr"
	"renoquote_backend/platform/config"
	"renoquote_backend/platform/logger"
)

const uploadFolder = "analysis"

// Assessor produces a vision verdict for a photo set.
type Assessor interface {
	Assess(ctx context.Context, req vision.AssessmentRequest) (vision.Verdict, error)
	Model() string
}

// AnalysisStore persists analyses.
type AnalysisStore interface {
	Create(ctx context.Context, params repository.CreateAnalysisParams) (repository.PhotoAnalysis, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.PhotoAnalysis, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// EstimateLookup reports whether an estimate references an analysis.
type EstimateLookup interface {
	HasEstimateForAnalysis(ctx context.Context, analysisID uuid.UUID) (bool, error)
}

// ExpiryScheduler schedules the deferred cleanup of an analysis.
type ExpiryScheduler interface {
	ScheduleAnalysisExpiry(ctx context.Context, payload scheduler.AnalysisExpirePayload, runAt time.Time) error
}

// Service provides business logic for photo analysis.
type Service struct {
	assessor  Assessor
	store     storage.PhotoStore
	bucket    string
	repo      AnalysisStore
	estimates EstimateLookup
	expiry    ExpiryScheduler
	bus       events.Bus
	cfg       config.AnalysisConfig
	retention time.Duration
	log       *logger.Logger
}

// New creates an analysis service. The assessor may be nil when the
// vision integration is disabled; estimates and expiry may be nil.
func New(assessor Assessor, store storage.PhotoStore, bucket string, repo AnalysisStore, estimates EstimateLookup, expiry ExpiryScheduler, bus events.Bus, cfg config.AnalysisConfig, retention time.Duration, log *logger.Logger) *Service {
	return &Service{
		assessor:  assessor,
		store:     store,
		bucket:    bucket,
		repo:      repo,
		estimates: estimates,
		expiry:    expiry,
		bus:       bus,
		cfg:       cfg,
		retention: retention,
		log:       log,
	}
}

// Analyze stores the uploaded photos, runs the vision assessment and
// persists the outcome. A failing or disabled vision backend yields a
// degraded analysis with a neutral adjustment, never an error.
func (s *Service) Analyze(ctx context.Context, req transport.AnalyzePhotosRequest) (transport.AnalysisResponse, error) {
	if s.store == nil {
		return transport.AnalysisResponse{}, apperr.Unavailable("photo storage is not configured")
	}
	if len(req.Photos) == 0 {
		return transport.AnalysisResponse{}, apperr.Validation("at least one photo is required")
	}
	if maxPhotos := s.cfg.GetAnalysisMaxPhotos(); maxPhotos > 0 && len(req.Photos) > maxPhotos {
		return transport.AnalysisResponse{}, apperr.Validation(fmt.Sprintf("at most %d photos are allowed", maxPhotos))
	}
	for _, photo := range req.Photos {
		if err := s.store.ValidateContentType(photo.ContentType); err != nil {
			return transport.AnalysisResponse{}, apperr.Validation(fmt.Sprintf("%s: %s", photo.Filename, err.Error()))
		}
		if err := s.store.ValidateFileSize(int64(len(photo.Data))); err != nil {
			return transport.AnalysisResponse{}, apperr.Validation(fmt.Sprintf("%s: %s", photo.Filename, err.Error()))
		}
	}

	stored, err := s.storePhotos(ctx, req.Photos)
	if err != nil {
		return transport.AnalysisResponse{}, apperr.Wrap(apperr.KindInternal, "photo upload failed", err)
	}

	outcome := s.assess(ctx, req)

	confidence := outcome.result.Confidence
	if s.cfg.IsConfidenceDisplayBandEnabled() {
		confidence = costadjust.ClampDisplayBand(confidence, s.cfg.GetConfidenceDisplayFloor(), s.cfg.GetConfidenceDisplayCeil())
	}

	analysis, err := s.repo.Create(ctx, repository.CreateAnalysisParams{
		ServiceType:     strings.TrimSpace(req.ServiceType),
		Summary:         outcome.summary,
		Observations:    outcome.observations,
		ConfidenceLevel: outcome.confidenceLevel,
		Factors:         factorMap(outcome.factors),
		Adjustment:      outcome.result.Adjustment,
		Confidence:      confidence,
		Degraded:        outcome.degraded,
		ModelName:       outcome.model,
		Photos:          stored,
	})
	if err != nil {
		return transport.AnalysisResponse{}, err
	}

	if s.expiry != nil && s.retention > 0 {
		payload := scheduler.AnalysisExpirePayload{AnalysisID: analysis.ID.String()}
		if err := s.expiry.ScheduleAnalysisExpiry(ctx, payload, time.Now().Add(s.retention)); err != nil {
			s.log.Warn("analysis expiry scheduling failed", "analysisId", analysis.ID, "error", err)
		}
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.PhotoAnalysisCompleted{
			BaseEvent:  events.NewBaseEvent(),
			AnalysisID: analysis.ID,
			PhotoCount: len(analysis.Photos),
			Adjustment: analysis.Adjustment,
			Confidence: analysis.Confidence,
			Degraded:   analysis.Degraded,
		})
	}

	s.log.Info("photo analysis completed",
		"analysisId", analysis.ID,
		"photos", len(analysis.Photos),
		"adjustment", analysis.Adjustment,
		"degraded", analysis.Degraded,
	)

	return s.toResponse(ctx, analysis), nil
}

// SetEstimateLookup wires the estimates dependency after both modules
// exist, breaking the construction cycle between analysis and
// estimates.
func (s *Service) SetEstimateLookup(estimates EstimateLookup) {
	s.estimates = estimates
}

// MaxUploadBytes returns the per-photo size limit, or 0 when storage is
// not configured.
func (s *Service) MaxUploadBytes() int64 {
	if s.store == nil {
		return 0
	}
	return s.store.GetMaxFileSize()
}

// GetAnalysis returns a stored analysis with fresh photo URLs.
func (s *Service) GetAnalysis(ctx context.Context, id uuid.UUID) (transport.AnalysisResponse, error) {
	analysis, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAnalysisNotFound) {
			return transport.AnalysisResponse{}, apperr.NotFound("analysis not found")
		}
		return transport.AnalysisResponse{}, err
	}
	return s.toResponse(ctx, analysis), nil
}

// PurgeOrphanedAnalysis deletes an analysis and its stored photos when
// no estimate has claimed it. Claimed analyses are cleaned up together
// with their estimate.
func (s *Service) PurgeOrphanedAnalysis(ctx context.Context, analysisID uuid.UUID) error {
	if s.estimates != nil {
		claimed, err := s.estimates.HasEstimateForAnalysis(ctx, analysisID)
		if err != nil {
			return err
		}
		if claimed {
			return nil
		}
	}

	analysis, err := s.repo.GetByID(ctx, analysisID)
	if err != nil {
		if errors.Is(err, repository.ErrAnalysisNotFound) {
			return nil
		}
		return err
	}

	if s.store != nil {
		for _, photo := range analysis.Photos {
			if photo.FileKey == "" {
				continue
			}
			if err := s.store.DeleteObject(ctx, s.bucket, photo.FileKey); err != nil {
				s.log.Warn("stored photo delete failed", "fileKey", photo.FileKey, "error", err)
			}
		}
	}

	if err := s.repo.Delete(ctx, analysisID); err != nil && !errors.Is(err, repository.ErrAnalysisNotFound) {
		return err
	}

	s.log.Info("orphaned analysis purged", "analysisId", analysisID)
	return nil
}

// storePhotos uploads the photos concurrently and pairs each stored key
// with the EXIF metadata read from the image bytes.
func (s *Service) storePhotos(ctx context.Context, photos []transport.PhotoUpload) ([]repository.StoredPhoto, error) {
	stored := make([]repository.StoredPhoto, len(photos))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, photo := range photos {
		group.Go(func() error {
			meta := exifmeta.Inspect(photo.Data)
			fileKey, err := s.store.UploadFile(groupCtx, s.bucket, uploadFolder, photo.Filename, photo.ContentType, bytes.NewReader(photo.Data), int64(len(photo.Data)))
			if err != nil {
				return fmt.Errorf("upload %s: %w", photo.Filename, err)
			}
			stored[i] = repository.StoredPhoto{
				FileKey:     fileKey,
				Filename:    photo.Filename,
				ContentType: photo.ContentType,
				SizeBytes:   int64(len(photo.Data)),
				Meta:        meta,
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return stored, nil
}

type assessOutcome struct {
	summary         string
	observations    []string
	confidenceLevel string
	factors         costadjust.Assessment
	result          costadjust.Result
	degraded        bool
	model           string
}

func (s *Service) assess(ctx context.Context, req transport.AnalyzePhotosRequest) assessOutcome {
	if s.assessor == nil {
		return assessOutcome{result: costadjust.Fallback(), degraded: true}
	}

	images := make([]vision.ImageData, 0, len(req.Photos))
	for _, photo := range req.Photos {
		images = append(images, vision.ImageData{
			MIMEType: photo.ContentType,
			Data:     photo.Data,
			Filename: photo.Filename,
		})
	}

	verdict, err := s.assessor.Assess(ctx, vision.AssessmentRequest{
		Images:      images,
		ServiceType: strings.TrimSpace(req.ServiceType),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		s.log.Warn("vision assessment failed", "photos", len(req.Photos), "error", err)
		if s.bus != nil {
			s.bus.Publish(ctx, events.PhotoAnalysisFailed{
				BaseEvent:  events.NewBaseEvent(),
				PhotoCount: len(req.Photos),
				Reason:     err.Error(),
			})
		}
		return assessOutcome{result: costadjust.Fallback(), degraded: true, model: s.assessor.Model()}
	}

	return assessOutcome{
		summary:         verdict.Summary,
		observations:    verdict.Observations,
		confidenceLevel: verdict.ConfidenceLevel,
		factors:         verdict.Factors,
		result:          costadjust.Compose(verdict.Factors),
		model:           s.assessor.Model(),
	}
}

func (s *Service) toResponse(ctx context.Context, analysis repository.PhotoAnalysis) transport.AnalysisResponse {
	photos := make([]transport.PhotoResponse, 0, len(analysis.Photos))
	for _, photo := range analysis.Photos {
		resp := transport.PhotoResponse{
			Filename:    photo.Filename,
			ContentType: photo.ContentType,
			SizeBytes:   photo.SizeBytes,
			CapturedAt:  photo.Meta.CapturedAt,
			HasLocation: photo.Meta.HasLocation,
		}
		if s.store != nil && photo.FileKey != "" {
			presigned, err := s.store.GenerateDownloadURL(ctx, s.bucket, photo.FileKey)
			if err != nil {
				s.log.Warn("photo url generation failed", "fileKey", photo.FileKey, "error", err)
			} else {
				resp.URL = presigned.URL
			}
		}
		photos = append(photos, resp)
	}

	return transport.AnalysisResponse{
		ID:              analysis.ID,
		ServiceType:     analysis.ServiceType,
		Summary:         analysis.Summary,
		Observations:    analysis.Observations,
		ConfidenceLevel: analysis.ConfidenceLevel,
		Factors:         analysis.Factors,
		Adjustment:      analysis.Adjustment,
		Confidence:      analysis.Confidence,
		Degraded:        analysis.Degraded,
		Photos:          photos,
		CreatedAt:       analysis.CreatedAt,
	}
}

// factorMap keeps only the factors the model actually returned.
func factorMap(assessment costadjust.Assessment) map[string]float64 {
	factors := make(map[string]float64, 4)
	if assessment.Complexity.Present {
		factors["complexity"] = assessment.Complexity.Value
	}
	if assessment.Condition.Present {
		factors["condition"] = assessment.Condition.Value
	}
	if assessment.Access.Present {
		factors["access"] = assessment.Access.Value
	}
	if assessment.MaterialQuality.Present {
		factors["materialQuality"] = assessment.MaterialQuality.Value
	}
	if len(factors) == 0 {
		return nil
	}
	return factors
}
