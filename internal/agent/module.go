package agent

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"journeyon_backend/internal/events"
	apphttp "journeyon_backend/internal/http"
	tripsservice "journeyon_backend/internal/trips/service"
	"journeyon_backend/platform/cache"
	"journeyon_backend/platform/httpkit"
	"journeyon_backend/platform/logger"
	"journeyon_backend/platform/validator"
)

// Module is the agent bounded context module implementing http.Module.
type Module struct {
	handler     *Handler
	orch        *Orchestrator
	chatLimiter cache.Limiter
}

// NewModule wires the orchestrator over the trips service. The advisor may be
// nil when no model is configured; replies then come from the stage handlers.
func NewModule(trips *tripsservice.Service, conversations ConversationLog, advisor Advisor, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	orch := NewOrchestrator(trips, trips, advisor, bus, log)
	h := NewHandler(orch, conversations, val, log)
	return &Module{handler: h, orch: orch}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agent"
}

// Orchestrator returns the chat orchestrator for direct use.
func (m *Module) Orchestrator() *Orchestrator {
	return m.orch
}

// SetChatLimiter installs a per-user rate limiter on the chat endpoints.
// Model runs are expensive, so agent traffic gets a tighter budget than
// the global per-IP limit.
func (m *Module) SetChatLimiter(l cache.Limiter) {
	m.chatLimiter = l
}

// RegisterRoutes mounts agent routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/agent")
	if m.chatLimiter != nil {
		group.Use(m.rateLimitChat())
	}
	group.POST("/chat", m.handler.Chat)
	group.POST("/chat/stream", m.handler.ChatStream)
}

func (m *Module) rateLimitChat() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := httpkit.GetIdentity(c)
		if identity == nil {
			c.Next()
			return
		}
		key := "agent:chat:" + strconv.FormatInt(identity.UserID(), 10)
		if !m.chatLimiter.Allow(c.Request.Context(), key) {
			httpkit.Error(c, http.StatusTooManyRequests, "too many chat requests", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
