package conversations

import (
	"context"

	"journeyon_backend/internal/agent"
	"journeyon_backend/internal/conversations/repository"
	"journeyon_backend/internal/conversations/service"
)

// AgentLog adapts the conversation service to the chat handler's
// persistence interface.
type AgentLog struct {
	svc *service.Service
}

var _ agent.ConversationLog = (*AgentLog)(nil)

// NewAgentLog creates the adapter.
func NewAgentLog(svc *service.Service) *AgentLog {
	return &AgentLog{svc: svc}
}

// Record persists one chat turn and returns the stored echo.
func (l *AgentLog) Record(ctx context.Context, tripID, userID int64, stage, role, message string, meta map[string]any) (agent.SavedMessage, error) {
	saved, err := l.svc.Record(ctx, repository.SaveParams{
		TripID:  tripID,
		UserID:  userID,
		Stage:   stage,
		Role:    role,
		Message: message,
		Meta:    meta,
	})
	if err != nil {
		return agent.SavedMessage{}, err
	}
	return agent.SavedMessage{
		ID:        saved.ID,
		Role:      saved.Role,
		Stage:     saved.Stage,
		CreatedAt: saved.CreatedAt,
		Meta:      saved.Meta,
	}, nil
}
