// Package service implements trip lifecycle use cases, including the
// stage-advancement rules that drive a trip through pre -> on -> post.
package service

import (
	"context"

	"journeyon_backend/internal/events"
	"journeyon_backend/internal/trips/domain"
	"journeyon_backend/internal/trips/repository"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/logger"
)

// Service coordinates trip persistence with stage-advancement policy.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new trips service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Create persists a trip with its three stage rows and publishes TripCreated.
func (s *Service) Create(ctx context.Context, params repository.CreateParams) (repository.Trip, error) {
	trip, err := s.repo.Create(ctx, params)
	if err != nil {
		return repository.Trip{}, err
	}

	event := events.TripCreated{
		BaseEvent: events.NewBaseEvent(),
		TripID:    trip.ID,
		UserID:    trip.UserID,
		StartDate: trip.StartDate,
	}
	if trip.Destination != nil {
		event.Destination = *trip.Destination
	}
	s.bus.Publish(ctx, event)

	s.log.Info("trip created", "tripId", trip.ID, "userId", trip.UserID)
	return trip, nil
}

// Get retrieves a trip scoped to its owner.
func (s *Service) Get(ctx context.Context, tripID, userID int64) (repository.Trip, error) {
	return s.repo.GetByID(ctx, tripID, userID)
}

// List retrieves all trips owned by a user.
func (s *Service) List(ctx context.Context, userID int64) ([]repository.Trip, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListStages returns the stage rows for an owned trip in canonical order.
func (s *Service) ListStages(ctx context.Context, tripID, userID int64) ([]repository.TripStage, error) {
	if _, err := s.repo.GetByID(ctx, tripID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListStages(ctx, tripID)
}

// Advance moves a trip one stage forward. The target must be the current
// stage (idempotent no-op) or the immediately following one; rewinds and
// skips are rejected. The commit is atomic: stage rows, the trip's current
// stage pointer and the audit entry change together or not at all.
func (s *Service) Advance(ctx context.Context, tripID, userID int64, target domain.Stage) (repository.AdvanceResult, error) {
	if domain.StageIndex(target) < 0 {
		return repository.AdvanceResult{}, apperr.BadRequest("invalid_stage")
	}

	result, err := s.repo.AdvanceStage(ctx, tripID, userID, target)
	if err != nil {
		return repository.AdvanceResult{}, err
	}

	s.log.StageTransition(tripID, string(result.FromStage), string(result.ToStage), result.Updated)
	if result.Updated {
		s.bus.Publish(ctx, events.TripStageAdvanced{
			BaseEvent: events.NewBaseEvent(),
			TripID:    tripID,
			UserID:    userID,
			FromStage: string(result.FromStage),
			ToStage:   string(result.ToStage),
		})
	}
	return result, nil
}

// AdvanceNext advances a trip to the stage after its current one.
func (s *Service) AdvanceNext(ctx context.Context, tripID, userID int64) (repository.AdvanceResult, error) {
	trip, err := s.repo.GetByID(ctx, tripID, userID)
	if err != nil {
		return repository.AdvanceResult{}, err
	}

	next, ok := domain.NextStage(trip.CurrentStage)
	if !ok {
		return repository.AdvanceResult{}, apperr.BadRequest("already_at_last_stage")
	}
	return s.Advance(ctx, tripID, userID, next)
}

// UpdateStageStatus applies a status change to one stage row, enforcing the
// pending -> in_progress -> completed state machine.
func (s *Service) UpdateStageStatus(ctx context.Context, tripID, userID int64, stageName, status string) (repository.TripStage, error) {
	stage, err := domain.ParseStage(stageName)
	if err != nil {
		return repository.TripStage{}, err
	}
	if !domain.IsKnownStatus(status) {
		return repository.TripStage{}, apperr.BadRequest("invalid_status")
	}
	return s.repo.UpdateStageStatus(ctx, tripID, userID, stage, status)
}

// Archive drives a trip to the post stage if it is not there yet, then marks
// it archived. Stage progression still goes through Advance so every hop is
// validated and audited.
func (s *Service) Archive(ctx context.Context, tripID, userID int64) (repository.Trip, error) {
	trip, err := s.repo.GetByID(ctx, tripID, userID)
	if err != nil {
		return repository.Trip{}, err
	}

	for trip.CurrentStage != domain.StagePost {
		next, ok := domain.NextStage(trip.CurrentStage)
		if !ok {
			break
		}
		if _, err := s.Advance(ctx, tripID, userID, next); err != nil {
			return repository.Trip{}, err
		}
		trip, err = s.repo.GetByID(ctx, tripID, userID)
		if err != nil {
			return repository.Trip{}, err
		}
	}

	return s.repo.Archive(ctx, tripID, userID)
}
