// Package service holds trip task use-cases.
package service

import (
	"context"

	"journeyon_backend/internal/tasks/repository"
	"journeyon_backend/internal/trips/domain"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/logger"
)

// Task statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

var knownStatuses = map[string]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
}

// Service implements trip task operations.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a task service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create adds a task to one of the trip's stages.
func (s *Service) Create(ctx context.Context, params repository.CreateParams) (repository.Task, error) {
	if _, err := domain.ParseStage(params.Stage); err != nil {
		return repository.Task{}, err
	}
	if params.Priority < 1 || params.Priority > 5 {
		return repository.Task{}, apperr.BadRequest("priority must be between 1 and 5")
	}
	return s.repo.Create(ctx, params)
}

// ListByTrip returns the trip's tasks, optionally filtered by stage.
func (s *Service) ListByTrip(ctx context.Context, tripID, userID int64, stage string) ([]repository.Task, error) {
	if stage != "" {
		if _, err := domain.ParseStage(stage); err != nil {
			return nil, err
		}
	}
	return s.repo.ListByTrip(ctx, tripID, userID, stage)
}

// Update patches a task owned by the user.
func (s *Service) Update(ctx context.Context, taskID, userID int64, params repository.UpdateParams) (repository.Task, error) {
	if params.Status != nil && !knownStatuses[*params.Status] {
		return repository.Task{}, apperr.BadRequest("invalid_status")
	}
	if params.Priority != nil && (*params.Priority < 1 || *params.Priority > 5) {
		return repository.Task{}, apperr.BadRequest("priority must be between 1 and 5")
	}
	return s.repo.Update(ctx, taskID, userID, params)
}

// Delete removes a task owned by the user.
func (s *Service) Delete(ctx context.Context, taskID, userID int64) error {
	return s.repo.Delete(ctx, taskID, userID)
}
