// Package reports stores generated trip report files in object storage.
package reports

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"journeyon_backend/internal/adapters/storage"
	"journeyon_backend/internal/events"
	apphttp "journeyon_backend/internal/http"
	"journeyon_backend/internal/reports/handler"
	"journeyon_backend/internal/reports/repository"
	"journeyon_backend/internal/reports/service"
	"journeyon_backend/platform/logger"
	"journeyon_backend/platform/validator"
)

// Module bundles the trip reports feature.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

var _ apphttp.Module = (*Module)(nil)

// NewModule wires the reports module.
func NewModule(pool *pgxpool.Pool, store storage.ObjectStore, bucket string, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.NewRepo(pool)
	svc := service.New(repo, store, bucket, bus, log)
	return &Module{
		handler: handler.NewHandler(svc, val),
		service: svc,
	}
}

// Name returns the module name.
func (m *Module) Name() string { return "reports" }

// RegisterRoutes mounts the report endpoints under the trip resource.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/trips/:id/reports")
	group.POST("", m.handler.Upload)
	group.GET("", m.handler.List)
	group.GET("/:reportId", m.handler.Get)
	group.GET("/:reportId/download", m.handler.Download)
	group.GET("/:reportId/download-url", m.handler.PresignDownload)
	group.DELETE("/:reportId", m.handler.Delete)
}
