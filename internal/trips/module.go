// Package trips provides the trips bounded context module.
// It owns trip persistence, the per-stage status rows, and the
// stage-advancement service that is the single writer of current_stage.
package trips

import (
	"journeyon_backend/internal/events"
	apphttp "journeyon_backend/internal/http"
	"journeyon_backend/internal/trips/handler"
	"journeyon_backend/internal/trips/repository"
	"journeyon_backend/internal/trips/service"
	"journeyon_backend/platform/logger"
	"journeyon_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the trips bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the trips module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "trips"
}

// Service returns the service layer for cross-module use (agent orchestrator).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts trip routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/trips")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.Get)
	group.GET("/:id/stages", m.handler.ListStages)
	group.PATCH("/:id/stages/:stageName", m.handler.UpdateStageStatus)
	group.POST("/:id/advance-stage", m.handler.AdvanceStage)
	group.POST("/:id/archive", m.handler.Archive)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
