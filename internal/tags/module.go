// Package tags manages user preference tags learned from conversations
// and trips.
package tags

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "journeyon_backend/internal/http"
	"journeyon_backend/internal/tags/handler"
	"journeyon_backend/internal/tags/repository"
	"journeyon_backend/internal/tags/service"
	"journeyon_backend/platform/logger"
	"journeyon_backend/platform/validator"
)

// Module bundles the user tags feature.
type Module struct {
	handler *handler.Handler
}

var _ apphttp.Module = (*Module)(nil)

// NewModule wires the tags module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.NewRepo(pool)
	svc := service.New(repo, log)
	return &Module{handler: handler.NewHandler(svc, val)}
}

// Name returns the module name.
func (m *Module) Name() string { return "tags" }

// RegisterRoutes mounts the user tag endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/user-tags")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.POST("/bulk-upsert", m.handler.BulkUpsert)
	group.PATCH("/:tagId", m.handler.Update)
	group.DELETE("/:tagId", m.handler.Delete)
}
