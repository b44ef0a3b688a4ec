package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"journeyon_backend/platform/httpkit"
	"journeyon_backend/platform/logger"
	"journeyon_backend/platform/validator"
)

// SavedMessage is the persisted-conversation echo included in chat responses.
type SavedMessage struct {
	ID        int64          `json:"id"`
	Role      string         `json:"role"`
	Stage     string         `json:"stage"`
	CreatedAt string         `json:"created_at"`
	Meta      map[string]any `json:"message_meta"`
}

// ConversationLog persists chat messages for later retrieval.
type ConversationLog interface {
	Record(ctx context.Context, tripID, userID int64, stage, role, message string, meta map[string]any) (SavedMessage, error)
}

// ChatRequest is the inbound payload for both chat endpoints.
type ChatRequest struct {
	TripID    int64          `json:"trip_id" validate:"required,min=1"`
	Stage     string         `json:"stage" validate:"required"`
	Message   string         `json:"message" validate:"required"`
	ClientCtx map[string]any `json:"client_ctx,omitempty"`
	Cards     bool           `json:"cards,omitempty"`
}

// Card is a structured display block derived from the reply text.
type Card struct {
	Type  string     `json:"type"`
	Title string     `json:"title"`
	Items []CardItem `json:"items"`
}

// CardItem is one renderable element of a card.
type CardItem struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Handler exposes the orchestrator over HTTP.
type Handler struct {
	orch          *Orchestrator
	conversations ConversationLog
	val           *validator.Validator
	log           *logger.Logger
}

// NewHandler creates the agent HTTP handler.
func NewHandler(orch *Orchestrator, conversations ConversationLog, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{orch: orch, conversations: conversations, val: val, log: log}
}

func (h *Handler) bindChatRequest(c *gin.Context) (ChatRequest, bool) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return ChatRequest{}, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return ChatRequest{}, false
	}
	return req, true
}

func (h *Handler) recordUserMessage(c *gin.Context, req ChatRequest, userID int64, endpointVersion string) *SavedMessage {
	meta := map[string]any{
		"client_ctx":       req.ClientCtx,
		"endpoint_version": endpointVersion,
	}
	if req.ClientCtx == nil {
		meta["client_ctx"] = map[string]any{}
	}

	saved, err := h.conversations.Record(c.Request.Context(), req.TripID, userID, req.Stage, RoleUser, req.Message, meta)
	if err != nil {
		// Conversation history is best effort; the chat itself proceeds.
		h.log.Warn("record user message failed", "tripId", req.TripID, "error", err)
		return nil
	}
	return &saved
}

func buildCards(stage, text string) []Card {
	item := []CardItem{{Kind: "text", Text: text}}
	switch stage {
	case "pre":
		return []Card{{Type: "planning", Title: "行程规划草案", Items: item}}
	case "on":
		return []Card{{Type: "daily_schedule", Title: "当日行程与提醒", Items: item}}
	default:
		return []Card{{Type: "summary", Title: "旅行回顾", Items: item}}
	}
}

// Chat runs a synchronous agent conversation turn.
// POST /api/v1/agent/chat
func (h *Handler) Chat(c *gin.Context) {
	req, ok := h.bindChatRequest(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	userID := identity.UserID()

	conversation := h.recordUserMessage(c, req, userID, "v2-sync")

	result := h.orch.Chat(c.Request.Context(), ChatParams{
		TripID:    req.TripID,
		UserID:    userID,
		Stage:     req.Stage,
		Message:   req.Message,
		ClientCtx: req.ClientCtx,
	})

	payload := gin.H{
		"conversation": conversation,
		"agent":        result,
	}
	if req.Cards {
		payload["cards"] = buildCards(req.Stage, result.Reply)
		payload["cards_enabled"] = true
	}
	httpkit.OK(c, payload)
}

// ChatStream runs the same chat flow and replays it as server-sent events.
// POST /api/v1/agent/chat/stream
func (h *Handler) ChatStream(c *gin.Context) {
	req, ok := h.bindChatRequest(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	userID := identity.UserID()

	h.recordUserMessage(c, req, userID, "v2-stream")

	streamEvents := h.orch.Stream(c.Request.Context(), ChatParams{
		TripID:    req.TripID,
		UserID:    userID,
		Stage:     req.Stage,
		Message:   req.Message,
		ClientCtx: req.ClientCtx,
	})

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	for _, event := range streamEvents {
		data, err := json.Marshal(event)
		if err != nil {
			h.log.Error("marshal stream event failed", "sequence", event.Sequence, "error", err)
			continue
		}
		fmt.Fprintf(c.Writer, "event: %s\nid: %d\ndata: %s\n\n", event.Event, event.Sequence, data)
		c.Writer.Flush()
	}
}
