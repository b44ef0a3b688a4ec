// Package conversations persists and serves per-trip chat history.
package conversations

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"journeyon_backend/internal/conversations/handler"
	"journeyon_backend/internal/conversations/repository"
	"journeyon_backend/internal/conversations/service"
	apphttp "journeyon_backend/internal/http"
	"journeyon_backend/platform/logger"
)

// Module bundles the conversation history feature.
type Module struct {
	svc     *service.Service
	handler *handler.Handler
}

var _ apphttp.Module = (*Module)(nil)

// NewModule wires the conversations module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.NewRepo(pool)
	svc := service.New(repo, log)
	return &Module{
		svc:     svc,
		handler: handler.NewHandler(svc),
	}
}

// Name returns the module name.
func (m *Module) Name() string { return "conversations" }

// RegisterRoutes mounts the conversation endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/trips/:id/conversations", m.handler.ListByTrip)
}

// Service exposes the conversation service for cross-module wiring.
func (m *Module) Service() *service.Service { return m.svc }
