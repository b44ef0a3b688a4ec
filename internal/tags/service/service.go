// Package service holds user preference tag use-cases.
package service

import (
	"context"
	"strings"

	"journeyon_backend/internal/tags/repository"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/logger"
)

const maxTagLength = 64

// Service implements user tag operations.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a tag service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func validateTagName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.BadRequest("tag must not be empty")
	}
	if len(name) > maxTagLength {
		return apperr.BadRequest("tag too long")
	}
	return nil
}

// Create adds a preference tag for the user.
func (s *Service) Create(ctx context.Context, params repository.CreateParams) (repository.Tag, error) {
	if err := validateTagName(params.Tag); err != nil {
		return repository.Tag{}, err
	}
	return s.repo.Create(ctx, params)
}

// List returns the user's tags, newest first.
func (s *Service) List(ctx context.Context, userID int64, filter repository.ListFilter) ([]repository.Tag, error) {
	if filter.Limit < 0 || filter.Limit > 200 {
		return nil, apperr.BadRequest("limit must be between 1 and 200")
	}
	return s.repo.List(ctx, userID, filter)
}

// Update patches a tag owned by the user.
func (s *Service) Update(ctx context.Context, tagID, userID int64, params repository.UpdateParams) (repository.Tag, error) {
	if params.Tag != nil {
		if err := validateTagName(*params.Tag); err != nil {
			return repository.Tag{}, err
		}
	}
	return s.repo.Update(ctx, tagID, userID, params)
}

// Delete removes a tag owned by the user.
func (s *Service) Delete(ctx context.Context, tagID, userID int64) error {
	return s.repo.Delete(ctx, tagID, userID)
}

// BulkUpsert creates or updates tags by name. Items without a tag name are
// skipped rather than failing the whole batch.
func (s *Service) BulkUpsert(ctx context.Context, userID int64, items []repository.UpsertItem) ([]repository.Tag, error) {
	valid := make([]repository.UpsertItem, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Tag) == "" {
			continue
		}
		if len(item.Tag) > maxTagLength {
			return nil, apperr.BadRequest("tag too long")
		}
		valid = append(valid, item)
	}
	if len(valid) == 0 {
		return []repository.Tag{}, nil
	}
	return s.repo.BulkUpsert(ctx, userID, valid)
}
