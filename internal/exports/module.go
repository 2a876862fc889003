package exports

import (
	contractorrepo "renoquote_backend/internal/contractors/repository"
	estimaterepo "renoquote_backend/internal/estimates/repository"
	apphttp "renoquote_backend/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

// NewModule creates and initializes the exports module.
func NewModule(pool *pgxpool.Pool, estimates *estimaterepo.Repository, searches *contractorrepo.Repository) *Module {
	repo := NewRepository(pool)
	handler := NewHandler(repo, estimates, searches)

	return &Module{
		handler: handler,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// Repository returns the API key repository for provisioning tools.
func (m *Module) Repository() *Repository {
	return m.repo
}

// RegisterRoutes mounts export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/exports")
	group.Use(APIKeyAuthMiddleware(m.repo))
	group.GET("/estimates.csv", m.handler.ExportEstimatesCSV)
	group.GET("/search-misses", m.handler.ExportSearchMisses)
}

var _ apphttp.Module = (*Module)(nil)
