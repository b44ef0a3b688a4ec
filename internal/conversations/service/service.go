// Package service holds conversation history use-cases.
package service

import (
	"context"

	"journeyon_backend/internal/conversations/repository"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/logger"
)

// Message roles accepted for persisted conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

var knownRoles = map[string]bool{
	RoleUser:      true,
	RoleAssistant: true,
	RoleSystem:    true,
}

// Service implements conversation history operations.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a conversation service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Record persists one conversation turn for a trip.
func (s *Service) Record(ctx context.Context, params repository.SaveParams) (repository.Message, error) {
	if !knownRoles[params.Role] {
		return repository.Message{}, apperr.BadRequest("invalid_role")
	}
	return s.repo.Save(ctx, params)
}

// ListByTrip returns a trip's conversation history, optionally filtered by stage.
func (s *Service) ListByTrip(ctx context.Context, tripID, userID int64, filter repository.ListFilter) ([]repository.Message, error) {
	return s.repo.ListByTrip(ctx, tripID, userID, filter)
}
