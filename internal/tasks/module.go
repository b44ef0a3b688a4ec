// Package tasks manages per-stage preparation and follow-up items of a trip.
package tasks

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "journeyon_backend/internal/http"
	"journeyon_backend/internal/tasks/handler"
	"journeyon_backend/internal/tasks/repository"
	"journeyon_backend/internal/tasks/service"
	"journeyon_backend/platform/logger"
	"journeyon_backend/platform/validator"
)

// Module bundles the trip tasks feature.
type Module struct {
	handler *handler.Handler
}

var _ apphttp.Module = (*Module)(nil)

// NewModule wires the tasks module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.NewRepo(pool)
	svc := service.New(repo, log)
	return &Module{handler: handler.NewHandler(svc, val)}
}

// Name returns the module name.
func (m *Module) Name() string { return "tasks" }

// RegisterRoutes mounts the task endpoints under the trip resource.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/trips/:id/tasks")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.PATCH("/:taskId", m.handler.Update)
	group.DELETE("/:taskId", m.handler.Delete)
}
