// Package auth provides account registration, login and token issuance.
package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"journeyon_backend/internal/auth/handler"
	"journeyon_backend/internal/auth/repository"
	"journeyon_backend/internal/auth/service"
	"journeyon_backend/internal/events"
	apphttp "journeyon_backend/internal/http"
	"journeyon_backend/platform/config"
	"journeyon_backend/platform/logger"
	"journeyon_backend/platform/validator"
)

// Module is the auth bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

var _ apphttp.Module = (*Module)(nil)

// NewModule wires the auth module.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.NewRepo(pool)
	svc := service.New(repo, cfg, bus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "auth" }

// Service exposes the auth service for cross-module wiring.
func (m *Module) Service() *service.Service { return m.service }

// RegisterRoutes mounts auth routes. Public credential endpoints get the
// stricter auth rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	authGroup := ctx.V1.Group("/auth")
	authGroup.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterRoutes(authGroup)

	ctx.Protected.GET("/users/me", m.handler.GetMe)
}
