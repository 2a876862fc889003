// Package service implements estimate pricing: rate card resolution,
// regional and urgency factors, the photo analysis adjustment and the
// shareable result.
package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	analysisrepo "renoquote_backend/internal/analysis/repository"
	"renoquote_backend/internal/estimates/rates"
	"renoquote_backend/internal/estimates/repository"
	"renoquote_backend/internal/estimates/transport"
	"renoquote_backend/internal/events"
	"renoquote_backend/platform/anonymize"
	"renoquote_backend/platform/apperr"
	"renoquote_backend/platform/config"
	"renoquote_backend/platform/logger"
	"renoquote_backend/platform/phone"
	"renoquote_backend/platform/sanitize"
)

const (
	defaultUrgency = "standard"
	currencyEUR    = "EUR"
)

// EstimateStore persists estimates.
type EstimateStore interface {
	Create(ctx context.Context, params repository.CreateEstimateParams) (repository.Estimate, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Estimate, error)
}

// AnalysisReader loads a photo analysis so its adjustment can flow into
// the estimate.
type AnalysisReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (analysisrepo.PhotoAnalysis, error)
}

// Service provides business logic for estimates.
type Service struct {
	rates      *rates.Resolver
	repo       EstimateStore
	analyses   AnalysisReader
	anonymizer *anonymize.Anonymizer
	bus        events.Bus
	cfg        config.EstimatesConfig
	log        *logger.Logger
}

// New creates an estimates service. The analyses reader may be nil when
// photo analysis is not deployed.
func New(rateResolver *rates.Resolver, repo EstimateStore, analyses AnalysisReader, anonymizer *anonymize.Anonymizer, bus events.Bus, cfg config.EstimatesConfig, log *logger.Logger) *Service {
	return &Service{
		rates:      rateResolver,
		repo:       repo,
		analyses:   analyses,
		anonymizer: anonymizer,
		bus:        bus,
		cfg:        cfg,
		log:        log,
	}
}

// CreateEstimate prices a job request. The base range comes from the
// rate card; the province factor, urgency multiplier and the optional
// analysis adjustment scale it. Contact details are reduced to a salted
// digest before anything is stored.
func (s *Service) CreateEstimate(ctx context.Context, req transport.CreateEstimateRequest) (transport.EstimateResponse, error) {
	category := strings.ToLower(strings.TrimSpace(req.Category))
	serviceType := strings.ToLower(strings.TrimSpace(req.ServiceType))
	province := strings.TrimSpace(req.Province)
	urgency := strings.TrimSpace(req.Urgency)
	if urgency == "" {
		urgency = defaultUrgency
	}

	adjustment := 1.0
	confidence := 0
	degraded := false
	if req.AnalysisID != nil {
		if s.analyses == nil {
			return transport.EstimateResponse{}, apperr.Validation("photo analysis is not available")
		}
		analysis, err := s.analyses.GetByID(ctx, *req.AnalysisID)
		if err != nil {
			if errors.Is(err, analysisrepo.ErrAnalysisNotFound) {
				return transport.EstimateResponse{}, apperr.Validation("analysis not found")
			}
			return transport.EstimateResponse{}, err
		}
		adjustment = analysis.Adjustment
		confidence = analysis.Confidence
		degraded = analysis.Degraded
	}

	rate := s.rates.Resolve(category, serviceType)
	locationFactor := s.rates.LocationFactor(province)
	urgencyMultiplier := s.rates.UrgencyMultiplier(urgency)

	lowCents := applyFactors(rate.LowCents, locationFactor, urgencyMultiplier, adjustment)
	highCents := applyFactors(rate.HighCents, locationFactor, urgencyMultiplier, adjustment)

	var contactDigest *string
	if req.Contact != nil && s.anonymizer != nil {
		if digest := s.contactDigest(*req.Contact); digest != "" {
			contactDigest = &digest
		}
	}

	est, err := s.repo.Create(ctx, repository.CreateEstimateParams{
		Category:          category,
		ServiceType:       serviceType,
		Urgency:           urgency,
		Province:          province,
		City:              req.City,
		Description:       sanitize.TextPtr(req.Description),
		BaseLowCents:      rate.LowCents,
		BaseHighCents:     rate.HighCents,
		LowCents:          lowCents,
		HighCents:         highCents,
		LocationFactor:    locationFactor,
		UrgencyMultiplier: urgencyMultiplier,
		Adjustment:        adjustment,
		Confidence:        confidence,
		Degraded:          degraded,
		AnalysisID:        req.AnalysisID,
		ContactDigest:     contactDigest,
		ExpiresAt:         time.Now().Add(s.cfg.GetEstimateRetention()),
	})
	if err != nil {
		return transport.EstimateResponse{}, err
	}

	if s.bus != nil {
		digest := ""
		if contactDigest != nil {
			digest = *contactDigest
		}
		s.bus.Publish(ctx, events.EstimateCreated{
			BaseEvent:     events.NewBaseEvent(),
			EstimateID:    est.ID,
			Category:      est.Category,
			ServiceType:   est.ServiceType,
			Province:      est.Province,
			LowCents:      est.LowCents,
			HighCents:     est.HighCents,
			Degraded:      est.Degraded,
			ContactDigest: digest,
		})
	}

	s.log.Info("estimate created",
		"estimateId", est.ID,
		"category", est.Category,
		"province", est.Province,
		"lowCents", est.LowCents,
		"highCents", est.HighCents,
	)

	return s.toResponse(est, rate), nil
}

// GetEstimate returns an estimate by ID with fresh share fields.
func (s *Service) GetEstimate(ctx context.Context, id uuid.UUID) (transport.EstimateResponse, error) {
	est, err := s.loadLiveEstimate(ctx, id)
	if err != nil {
		return transport.EstimateResponse{}, err
	}
	return s.toResponse(est, s.rates.Resolve(est.Category, est.ServiceType)), nil
}

// GetSharedEstimate resolves a share token to its read-only estimate
// view. Expired tokens and expired estimates both yield a gone error.
func (s *Service) GetSharedEstimate(ctx context.Context, rawToken string) (transport.SharedEstimateResponse, error) {
	id, err := parseShareToken(s.cfg.GetEstimateShareSecret(), rawToken)
	if err != nil {
		if errors.Is(err, errShareTokenExpired) {
			return transport.SharedEstimateResponse{}, apperr.Gone("share link expired")
		}
		return transport.SharedEstimateResponse{}, apperr.NotFound("estimate not found")
	}

	est, err := s.loadLiveEstimate(ctx, id)
	if err != nil {
		return transport.SharedEstimateResponse{}, err
	}

	rate := s.rates.Resolve(est.Category, est.ServiceType)
	return transport.SharedEstimateResponse{
		Category:    est.Category,
		ServiceType: est.ServiceType,
		Urgency:     est.Urgency,
		Province:    est.Province,
		LowCents:    est.LowCents,
		HighCents:   est.HighCents,
		Currency:    currencyEUR,
		Duration:    rate.Duration,
		Included:    rate.Included,
		Notes:       rate.Notes,
		Confidence:  est.Confidence,
		Degraded:    est.Degraded,
		CreatedAt:   est.CreatedAt,
		ExpiresAt:   est.ExpiresAt,
	}, nil
}

func (s *Service) loadLiveEstimate(ctx context.Context, id uuid.UUID) (repository.Estimate, error) {
	est, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEstimateNotFound) {
			return repository.Estimate{}, apperr.NotFound("estimate not found")
		}
		return repository.Estimate{}, err
	}
	if time.Now().After(est.ExpiresAt) {
		return repository.Estimate{}, apperr.Gone("estimate expired")
	}
	return est, nil
}

func (s *Service) toResponse(est repository.Estimate, rate rates.ServiceRate) transport.EstimateResponse {
	resp := transport.EstimateResponse{
		ID:          est.ID,
		Category:    est.Category,
		ServiceType: est.ServiceType,
		Urgency:     est.Urgency,
		Province:    est.Province,
		City:        est.City,
		LowCents:    est.LowCents,
		HighCents:   est.HighCents,
		Currency:    currencyEUR,
		Duration:    rate.Duration,
		Included:    rate.Included,
		Notes:       rate.Notes,
		Adjustment:  est.Adjustment,
		Confidence:  est.Confidence,
		Degraded:    est.Degraded,
		ExpiresAt:   est.ExpiresAt,
		CreatedAt:   est.CreatedAt,
	}

	token, err := s.mintShareToken(est.ID)
	if err != nil {
		s.log.Warn("share token minting failed", "estimateId", est.ID, "error", err)
		return resp
	}
	resp.ShareToken = token
	resp.ShareURL = s.shareURL(token)
	return resp
}

// contactDigest hashes the primary contact identifier. Email wins over
// phone; phone numbers are normalized to E.164 first so formatting
// variants produce the same digest.
func (s *Service) contactDigest(contact transport.ContactDetails) string {
	if email := strings.TrimSpace(contact.Email); email != "" {
		return s.anonymizer.ContactDigest(email)
	}
	if strings.TrimSpace(contact.Phone) != "" {
		return s.anonymizer.ContactDigest(phone.NormalizeE164(contact.Phone))
	}
	return ""
}

func applyFactors(baseCents int64, factors ...float64) int64 {
	value := float64(baseCents)
	for _, factor := range factors {
		value *= factor
	}
	return int64(math.Round(value))
}
