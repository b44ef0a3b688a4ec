// Package service holds itinerary use-cases.
package service

import (
	"context"

	"journeyon_backend/internal/itinerary/repository"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/logger"
)

// Service implements itinerary operations.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates an itinerary service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create adds an item to the trip's day plan.
func (s *Service) Create(ctx context.Context, params repository.CreateParams) (repository.Item, error) {
	if params.Day < 1 {
		return repository.Item{}, apperr.BadRequest("day must be positive")
	}
	return s.repo.Create(ctx, params)
}

// ListByTrip returns the trip's items, optionally filtered by day.
func (s *Service) ListByTrip(ctx context.Context, tripID, userID int64, day int) ([]repository.Item, error) {
	if day < 0 {
		return nil, apperr.BadRequest("day must be positive")
	}
	return s.repo.ListByTrip(ctx, tripID, userID, day)
}

// Update patches an item owned by the user.
func (s *Service) Update(ctx context.Context, itemID, userID int64, params repository.UpdateParams) (repository.Item, error) {
	if params.Day != nil && *params.Day < 1 {
		return repository.Item{}, apperr.BadRequest("day must be positive")
	}
	return s.repo.Update(ctx, itemID, userID, params)
}

// Delete removes an item owned by the user.
func (s *Service) Delete(ctx context.Context, itemID, userID int64) error {
	return s.repo.Delete(ctx, itemID, userID)
}
