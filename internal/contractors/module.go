// Package contractors provides the contractor search bounded context.
package contractors

import (
	"context"
	"fmt"

	"renoquote_backend/internal/contractors/handler"
	"renoquote_backend/internal/contractors/places"
	"renoquote_backend/internal/contractors/ranking"
	"renoquote_backend/internal/contractors/repository"
	"renoquote_backend/internal/contractors/service"
	"renoquote_backend/internal/events"
	apphttp "renoquote_backend/internal/http"
	"renoquote_backend/internal/scheduler"
	"renoquote_backend/platform/cache"
	"renoquote_backend/platform/config"
	"renoquote_backend/platform/logger"
	"renoquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the contractor search module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	service   *service.Service
	repo      *repository.Repository
	refresher scheduler.DirectoryRefresher
	log       *logger.Logger
}

// NewModule creates and initializes the contractors module. The places
// searcher is only wired when an API key is configured; the cache and
// refresher may be nil.
func NewModule(pool *pgxpool.Pool, resultCache *cache.Cache, refresher scheduler.DirectoryRefresher, bus events.Bus, val *validator.Validator, cfg *config.Config, log *logger.Logger) (*Module, error) {
	rankCfg := ranking.Config{
		StrictMinRating:   cfg.GetRankStrictMinRating(),
		StrictMinReviews:  cfg.GetRankStrictMinReviews(),
		RelaxedMinRating:  cfg.GetRankRelaxedMinRating(),
		RelaxedMinReviews: cfg.GetRankRelaxedMinReviews(),
		MinAcceptable:     cfg.GetRankMinAcceptable(),
		TopN:              cfg.GetRankTopN(),
	}
	if err := rankCfg.Validate(); err != nil {
		return nil, fmt.Errorf("ranking config: %w", err)
	}

	var searcher service.Searcher
	if cfg.IsPlacesEnabled() {
		searcher = places.NewClient(cfg, log)
	} else {
		log.Warn("places api key not configured, contractor search disabled")
	}

	var searchCache service.ResultCache
	if resultCache != nil {
		searchCache = resultCache
	}

	repo := repository.New(pool)
	svc := service.New(searcher, ranking.New(rankCfg), searchCache, repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler:   h,
		service:   svc,
		repo:      repo,
		refresher: refresher,
		log:       log,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contractors"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the search log repository.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts contractor search routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/contractors/search", m.handler.SearchContractors)
}

// RegisterHandlers subscribes to domain events.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.EstimateCreated{}.EventName(), m)
}

// Handle enqueues a directory cache refresh after each new estimate so
// the follow-up contractor search is fast.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.EstimateCreated:
		if m.refresher == nil {
			return nil
		}
		err := m.refresher.EnqueueDirectoryRefresh(ctx, scheduler.DirectoryRefreshPayload{
			Trade:    e.Category,
			Location: e.Province,
		})
		if err != nil {
			m.log.Warn("directory refresh enqueue failed", "category", e.Category, "error", err)
		}
		return nil
	default:
		return nil
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
