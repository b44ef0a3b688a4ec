package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"journeyon_backend/internal/conversations/repository"
	"journeyon_backend/internal/conversations/service"
	"journeyon_backend/internal/trips/domain"
	"journeyon_backend/platform/httpkit"
)

// Handler exposes conversation history over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler creates a conversation handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// ListByTrip handles GET /trips/:id/conversations. Supports optional
// stage and limit query parameters.
func (h *Handler) ListByTrip(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	tripID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid trip id", nil)
		return
	}

	var filter repository.ListFilter
	if stage := c.Query("stage"); stage != "" {
		parsed, err := domain.ParseStage(stage)
		if httpkit.HandleError(c, err) {
			return
		}
		filter.Stage = string(parsed)
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			httpkit.Error(c, http.StatusBadRequest, "limit must be between 1 and 500", nil)
			return
		}
		filter.Limit = limit
	}

	messages, err := h.svc.ListByTrip(c.Request.Context(), tripID, identity.UserID(), filter)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"messages": messages, "count": len(messages)})
}
