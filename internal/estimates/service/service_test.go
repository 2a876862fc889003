package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	analysisrepo "renoquote_backend/internal/analysis/repository"
	"renoquote_backend/internal/estimates/rates"
	"renoquote_backend/internal/estimates/repository"
	"renoquote_backend/internal/estimates/transport"
	"renoquote_backend/platform/anonymize"
	"renoquote_backend/platform/apperr"
	"renoquote_backend/platform/logger"
)

type stubEstimateRepo struct {
	created []repository.CreateEstimateParams
	stored  map[uuid.UUID]repository.Estimate
}

func newStubEstimateRepo() *stubEstimateRepo {
	return &stubEstimateRepo{stored: make(map[uuid.UUID]repository.Estimate)}
}

func (s *stubEstimateRepo) Create(ctx context.Context, params repository.CreateEstimateParams) (repository.Estimate, error) {
	s.created = append(s.created, params)
	est := repository.Estimate{
		ID:                uuid.New(),
		Category:          params.Category,
		ServiceType:       params.ServiceType,
		Urgency:           params.Urgency,
		Province:          params.Province,
		City:              params.City,
		Description:       params.Description,
		BaseLowCents:      params.BaseLowCents,
		BaseHighCents:     params.BaseHighCents,
		LowCents:          params.LowCents,
		HighCents:         params.HighCents,
		LocationFactor:    params.LocationFactor,
		UrgencyMultiplier: params.UrgencyMultiplier,
		Adjustment:        params.Adjustment,
		Confidence:        params.Confidence,
		Degraded:          params.Degraded,
		AnalysisID:        params.AnalysisID,
		ContactDigest:     params.ContactDigest,
		CreatedAt:         time.Now(),
		ExpiresAt:         params.ExpiresAt,
	}
	s.stored[est.ID] = est
	return est, nil
}

func (s *stubEstimateRepo) GetByID(ctx context.Context, id uuid.UUID) (repository.Estimate, error) {
	est, ok := s.stored[id]
	if !ok {
		return repository.Estimate{}, repository.ErrEstimateNotFound
	}
	return est, nil
}

type stubAnalysisReader struct {
	analysis analysisrepo.PhotoAnalysis
	err      error
}

func (s *stubAnalysisReader) GetByID(ctx context.Context, id uuid.UUID) (analysisrepo.PhotoAnalysis, error) {
	if s.err != nil {
		return analysisrepo.PhotoAnalysis{}, s.err
	}
	return s.analysis, nil
}

type estimatesTestConfig struct {
	baseURL   string
	secret    string
	shareTTL  time.Duration
	retention time.Duration
}

func (c estimatesTestConfig) GetAppBaseURL() string              { return c.baseURL }
func (c estimatesTestConfig) GetEstimateShareSecret() string     { return c.secret }
func (c estimatesTestConfig) GetEstimateShareTTL() time.Duration { return c.shareTTL }
func (c estimatesTestConfig) GetEstimateRetention() time.Duration {
	return c.retention
}

func defaultEstimatesConfig() estimatesTestConfig {
	return estimatesTestConfig{
		baseURL:   "https://renoquote.example",
		secret:    "test-share-secret",
		shareTTL:  time.Hour,
		retention: 30 * 24 * time.Hour,
	}
}

func newTestEstimatesService(t *testing.T, repo EstimateStore, analyses AnalysisReader, cfg estimatesTestConfig) *Service {
	t.Helper()
	resolver, err := rates.Load()
	if err != nil {
		t.Fatalf("rate card failed to load: %v", err)
	}
	return New(resolver, repo, analyses, anonymize.New("test-salt"), nil, cfg, logger.New("development"))
}

func TestCreateEstimateAppliesAllFactors(t *testing.T) {
	repo := newStubEstimateRepo()
	svc := newTestEstimatesService(t, repo, nil, defaultEstimatesConfig())

	result, err := svc.CreateEstimate(context.Background(), transport.CreateEstimateRequest{
		Category:    "Plumbing",
		ServiceType: "leaky_faucet",
		Urgency:     "same_day",
		Province:    "Noord-Holland",
	})
	if err != nil {
		t.Fatalf("create estimate failed: %v", err)
	}

	// Base 7500-15000, Noord-Holland factor 1.12, same-day 1.25.
	if result.LowCents != 10500 {
		t.Errorf("expected low 10500, got %d", result.LowCents)
	}
	if result.HighCents != 21000 {
		t.Errorf("expected high 21000, got %d", result.HighCents)
	}
	if result.Currency != "EUR" {
		t.Errorf("expected EUR, got %q", result.Currency)
	}
	if result.Adjustment != 1.0 {
		t.Errorf("expected neutral adjustment without analysis, got %v", result.Adjustment)
	}

	params := repo.created[0]
	if params.BaseLowCents != 7500 || params.BaseHighCents != 15000 {
		t.Errorf("expected base range persisted, got %d-%d", params.BaseLowCents, params.BaseHighCents)
	}
	if params.LocationFactor != 1.12 {
		t.Errorf("expected location factor 1.12, got %v", params.LocationFactor)
	}
	if params.UrgencyMultiplier != 1.25 {
		t.Errorf("expected urgency multiplier 1.25, got %v", params.UrgencyMultiplier)
	}
}

func TestCreateEstimateUnknownCategoryFallsBack(t *testing.T) {
	repo := newStubEstimateRepo()
	svc := newTestEstimatesService(t, repo, nil, defaultEstimatesConfig())

	result, err := svc.CreateEstimate(context.Background(), transport.CreateEstimateRequest{
		Category: "onbekend vak",
		Province: "Atlantis",
	})
	if err != nil {
		t.Fatalf("create estimate failed: %v", err)
	}

	// General default range with neutral factors.
	if result.LowCents != 4500 || result.HighCents != 9500 {
		t.Errorf("expected fallback range 4500-9500, got %d-%d", result.LowCents, result.HighCents)
	}
	if result.Urgency != "standard" {
		t.Errorf("expected default urgency, got %q", result.Urgency)
	}
}

func TestCreateEstimateUsesAnalysisAdjustment(t *testing.T) {
	analysisID := uuid.New()
	analyses := &stubAnalysisReader{analysis: analysisrepo.PhotoAnalysis{
		ID:         analysisID,
		Adjustment: 1.2,
		Confidence: 80,
	}}
	repo := newStubEstimateRepo()
	svc := newTestEstimatesService(t, repo, analyses, defaultEstimatesConfig())

	result, err := svc.CreateEstimate(context.Background(), transport.CreateEstimateRequest{
		Category:   "onbekend",
		Province:   "Atlantis",
		AnalysisID: &analysisID,
	})
	if err != nil {
		t.Fatalf("create estimate failed: %v", err)
	}

	if result.LowCents != 5400 || result.HighCents != 11400 {
		t.Errorf("expected adjusted range 5400-11400, got %d-%d", result.LowCents, result.HighCents)
	}
	if result.Adjustment != 1.2 {
		t.Errorf("expected adjustment 1.2, got %v", result.Adjustment)
	}
	if result.Confidence != 80 {
		t.Errorf("expected confidence 80, got %d", result.Confidence)
	}
}

func TestCreateEstimateUnknownAnalysisRejected(t *testing.T) {
	analysisID := uuid.New()
	analyses := &stubAnalysisReader{err: analysisrepo.ErrAnalysisNotFound}
	svc := newTestEstimatesService(t, newStubEstimateRepo(), analyses, defaultEstimatesConfig())

	_, err := svc.CreateEstimate(context.Background(), transport.CreateEstimateRequest{
		Category:   "painting",
		Province:   "Utrecht",
		AnalysisID: &analysisID,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for unknown analysis, got %v", err)
	}
}

func TestCreateEstimateHashesContact(t *testing.T) {
	repo := newStubEstimateRepo()
	svc := newTestEstimatesService(t, repo, nil, defaultEstimatesConfig())

	_, err := svc.CreateEstimate(context.Background(), transport.CreateEstimateRequest{
		Category: "painting",
		Province: "Utrecht",
		Contact:  &transport.ContactDetails{Email: "Jan@Example.com"},
	})
	if err != nil {
		t.Fatalf("create estimate failed: %v", err)
	}

	params := repo.created[0]
	if params.ContactDigest == nil {
		t.Fatal("expected contact digest to be set")
	}
	want := anonymize.New("test-salt").ContactDigest("jan@example.com")
	if *params.ContactDigest != want {
		t.Errorf("digest mismatch: got %s want %s", *params.ContactDigest, want)
	}
	if strings.Contains(*params.ContactDigest, "@") {
		t.Error("digest must not contain the raw address")
	}
}

func TestCreateEstimateStripsHTMLFromDescription(t *testing.T) {
	repo := newStubEstimateRepo()
	svc := newTestEstimatesService(t, repo, nil, defaultEstimatesConfig())

	description := `Lekkende kraan <script>alert("x")</script> in de keuken`
	_, err := svc.CreateEstimate(context.Background(), transport.CreateEstimateRequest{
		Category:    "plumbing",
		Province:    "Utrecht",
		Description: &description,
	})
	if err != nil {
		t.Fatalf("create estimate failed: %v", err)
	}

	stored := repo.created[0].Description
	if stored == nil {
		t.Fatal("expected description to be persisted")
	}
	if strings.Contains(*stored, "<script>") {
		t.Errorf("expected HTML stripped, got %q", *stored)
	}
	if !strings.Contains(*stored, "Lekkende kraan") {
		t.Errorf("expected text content preserved, got %q", *stored)
	}
}

func TestCreateEstimatePhoneDigestIgnoresFormatting(t *testing.T) {
	repo := newStubEstimateRepo()
	svc := newTestEstimatesService(t, repo, nil, defaultEstimatesConfig())

	variants := []string{"+31 6 12345678", "0612345678"}
	for _, variant := range variants {
		_, err := svc.CreateEstimate(context.Background(), transport.CreateEstimateRequest{
			Category: "painting",
			Province: "Utrecht",
			Contact:  &transport.ContactDetails{Phone: variant},
		})
		if err != nil {
			t.Fatalf("create estimate for %q failed: %v", variant, err)
		}
	}

	first, second := repo.created[0].ContactDigest, repo.created[1].ContactDigest
	if first == nil || second == nil {
		t.Fatal("expected digests for both variants")
	}
	if *first != *second {
		t.Errorf("formatting variants must share a digest: %s vs %s", *first, *second)
	}
}

func TestShareTokenRoundTrip(t *testing.T) {
	repo := newStubEstimateRepo()
	svc := newTestEstimatesService(t, repo, nil, defaultEstimatesConfig())

	created, err := svc.CreateEstimate(context.Background(), transport.CreateEstimateRequest{
		Category:    "plumbing",
		ServiceType: "leaky_faucet",
		Province:    "Utrecht",
	})
	if err != nil {
		t.Fatalf("create estimate failed: %v", err)
	}

	if created.ShareToken == "" {
		t.Fatal("expected a share token")
	}
	if !strings.HasPrefix(created.ShareURL, "https://renoquote.example/estimates/shared/") {
		t.Errorf("unexpected share URL: %q", created.ShareURL)
	}

	shared, err := svc.GetSharedEstimate(context.Background(), created.ShareToken)
	if err != nil {
		t.Fatalf("shared lookup failed: %v", err)
	}
	if shared.LowCents != created.LowCents || shared.HighCents != created.HighCents {
		t.Errorf("shared view range mismatch: %+v vs %+v", shared, created)
	}
	if shared.Category != "plumbing" {
		t.Errorf("expected category in shared view, got %q", shared.Category)
	}
}

func TestSharedEstimateRejectsGarbageToken(t *testing.T) {
	svc := newTestEstimatesService(t, newStubEstimateRepo(), nil, defaultEstimatesConfig())

	_, err := svc.GetSharedEstimate(context.Background(), "not-a-jwt")
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for garbage token, got %v", err)
	}
}

func TestSharedEstimateExpiredTokenIsGone(t *testing.T) {
	cfg := defaultEstimatesConfig()
	cfg.shareTTL = -time.Hour
	repo := newStubEstimateRepo()
	svc := newTestEstimatesService(t, repo, nil, cfg)

	created, err := svc.CreateEstimate(context.Background(), transport.CreateEstimateRequest{
		Category: "painting",
		Province: "Utrecht",
	})
	if err != nil {
		t.Fatalf("create estimate failed: %v", err)
	}

	_, err = svc.GetSharedEstimate(context.Background(), created.ShareToken)
	if apperr.GetKind(err) != apperr.KindGone {
		t.Fatalf("expected gone for expired token, got %v", err)
	}
}

func TestExpiredEstimateIsGone(t *testing.T) {
	cfg := defaultEstimatesConfig()
	cfg.retention = -time.Hour
	repo := newStubEstimateRepo()
	svc := newTestEstimatesService(t, repo, nil, cfg)

	created, err := svc.CreateEstimate(context.Background(), transport.CreateEstimateRequest{
		Category: "painting",
		Province: "Utrecht",
	})
	if err != nil {
		t.Fatalf("create estimate failed: %v", err)
	}

	_, err = svc.GetEstimate(context.Background(), created.ID)
	if apperr.GetKind(err) != apperr.KindGone {
		t.Fatalf("expected gone for expired estimate, got %v", err)
	}
}

func TestGetEstimateNotFound(t *testing.T) {
	svc := newTestEstimatesService(t, newStubEstimateRepo(), nil, defaultEstimatesConfig())

	_, err := svc.GetEstimate(context.Background(), uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestShareQRProducesPNG(t *testing.T) {
	repo := newStubEstimateRepo()
	svc := newTestEstimatesService(t, repo, nil, defaultEstimatesConfig())

	created, err := svc.CreateEstimate(context.Background(), transport.CreateEstimateRequest{
		Category: "tiling",
		Province: "Utrecht",
	})
	if err != nil {
		t.Fatalf("create estimate failed: %v", err)
	}

	png, err := svc.ShareQR(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("qr rendering failed: %v", err)
	}

	pngHeader := []byte{0x89, 'P', 'N', 'G'}
	if !bytes.HasPrefix(png, pngHeader) {
		t.Errorf("expected PNG output, got leading bytes %v", png[:4])
	}
}
