// Package itinerary manages the day-by-day schedule of a trip.
package itinerary

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "journeyon_backend/internal/http"
	"journeyon_backend/internal/itinerary/handler"
	"journeyon_backend/internal/itinerary/repository"
	"journeyon_backend/internal/itinerary/service"
	"journeyon_backend/platform/logger"
	"journeyon_backend/platform/validator"
)

// Module bundles the itinerary feature.
type Module struct {
	handler *handler.Handler
}

var _ apphttp.Module = (*Module)(nil)

// NewModule wires the itinerary module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.NewRepo(pool)
	svc := service.New(repo, log)
	return &Module{handler: handler.NewHandler(svc, val)}
}

// Name returns the module name.
func (m *Module) Name() string { return "itinerary" }

// RegisterRoutes mounts the itinerary endpoints under the trip resource.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/trips/:id/itinerary")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.PATCH("/:itemId", m.handler.Update)
	group.DELETE("/:itemId", m.handler.Delete)
}
