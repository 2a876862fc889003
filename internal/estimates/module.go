// Package estimates provides the price estimation bounded context.
package estimates

import (
	"fmt"

	"renoquote_backend/internal/estimates/handler"
	"renoquote_backend/internal/estimates/rates"
	"renoquote_backend/internal/estimates/repository"
	"renoquote_backend/internal/estimates/service"
	"renoquote_backend/internal/events"
	apphttp "renoquote_backend/internal/http"
	"renoquote_backend/platform/anonymize"
	"renoquote_backend/platform/config"
	"renoquote_backend/platform/logger"
	"renoquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the estimates bounded context module implementing
// http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the estimates module. The analyses
// reader may be nil when photo analysis is not deployed.
func NewModule(pool *pgxpool.Pool, analyses service.AnalysisReader, bus events.Bus, val *validator.Validator, cfg *config.Config, log *logger.Logger) (*Module, error) {
	rateResolver, err := rates.Load()
	if err != nil {
		return nil, fmt.Errorf("rate card: %w", err)
	}

	repo := repository.New(pool)
	svc := service.New(rateResolver, repo, analyses, anonymize.New(cfg.GetAnonymizeSalt()), bus, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "estimates"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the estimates repository.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts estimate routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/estimates", m.handler.CreateEstimate)
	ctx.V1.GET("/estimates/:id", m.handler.GetEstimate)
	ctx.V1.GET("/estimates/:id/qr", m.handler.GetEstimateQR)
	ctx.V1.GET("/shared/estimates/:token", m.handler.GetSharedEstimate)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
