// Package analysis provides the photo analysis bounded context.
package analysis

import (
	"renoquote_backend/internal/adapters/storage"
	"renoquote_backend/internal/analysis/handler"
	"renoquote_backend/internal/analysis/repository"
	"renoquote_backend/internal/analysis/service"
	"renoquote_backend/internal/events"
	apphttp "renoquote_backend/internal/http"
	"renoquote_backend/platform/config"
	"renoquote_backend/platform/logger"
	"renoquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the photo analysis module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the analysis module. The assessor
// is nil when the vision integration is disabled; storageSvc and expiry
// may be nil as well. The estimate lookup is wired afterwards via
// SetEstimateLookup.
func NewModule(pool *pgxpool.Pool, assessor service.Assessor, storageSvc storage.PhotoStore, bucket string, expiry service.ExpiryScheduler, bus events.Bus, val *validator.Validator, cfg *config.Config, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(assessor, storageSvc, bucket, repo, nil, expiry, bus, cfg, cfg.GetEstimateRetention(), log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// SetEstimateLookup wires the estimates repository into the analysis
// service once the estimates module has been constructed.
func (m *Module) SetEstimateLookup(estimates service.EstimateLookup) {
	m.service.SetEstimateLookup(estimates)
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "analysis"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the analysis repository.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts photo analysis routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/analysis/photos", m.handler.AnalyzePhotos)
	ctx.V1.GET("/analysis/photos/:id", m.handler.GetAnalysis)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
