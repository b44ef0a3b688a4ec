// Package service holds trip report use-cases.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"journeyon_backend/internal/adapters/storage"
	"journeyon_backend/internal/events"
	"journeyon_backend/internal/reports/repository"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/logger"
)

// UploadParams are the inputs for storing a new report.
type UploadParams struct {
	TripID      int64
	UserID      int64
	Filename    string
	Format      *string
	ContentType *string
	Data        []byte
	Meta        map[string]any
}

// Service stores report files in object storage and records them in the
// database.
type Service struct {
	repo   repository.Repository
	store  storage.ObjectStore
	bucket string
	bus    events.Bus
	log    *logger.Logger
}

// New creates a report service.
func New(repo repository.Repository, store storage.ObjectStore, bucket string, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, store: store, bucket: bucket, bus: bus, log: log}
}

// Upload stores the file and records the report. The format defaults to the
// file extension when not provided.
func (s *Service) Upload(ctx context.Context, params UploadParams) (repository.Report, error) {
	contentType := "application/octet-stream"
	if params.ContentType != nil && *params.ContentType != "" {
		contentType = *params.ContentType
		if err := s.store.ValidateContentType(contentType); err != nil {
			return repository.Report{}, apperr.BadRequest(err.Error())
		}
	}
	if err := s.store.ValidateFileSize(int64(len(params.Data))); err != nil {
		return repository.Report{}, apperr.BadRequest(err.Error())
	}

	format := params.Format
	if format == nil {
		if ext := path.Ext(params.Filename); ext != "" {
			inferred := strings.ToLower(strings.TrimPrefix(ext, "."))
			format = &inferred
		}
	}

	folder := fmt.Sprintf("trips/%d/reports", params.TripID)
	storageKey, err := s.store.Upload(ctx, s.bucket, folder, params.Filename, contentType,
		bytes.NewReader(params.Data), int64(len(params.Data)))
	if err != nil {
		return repository.Report{}, fmt.Errorf("store report file: %w", err)
	}

	report, err := s.repo.Create(ctx, repository.CreateParams{
		TripID:      params.TripID,
		UserID:      params.UserID,
		Filename:    params.Filename,
		Format:      format,
		ContentType: params.ContentType,
		FileSize:    int64(len(params.Data)),
		StorageKey:  storageKey,
		Meta:        params.Meta,
	})
	if err != nil {
		// The database rejected the row, so the object is orphaned.
		if delErr := s.store.Delete(ctx, s.bucket, storageKey); delErr != nil {
			s.log.Warn("orphaned report object cleanup failed", "storageKey", storageKey, "error", delErr)
		}
		return repository.Report{}, err
	}

	s.log.Info("report uploaded", "reportId", report.ID, "tripId", report.TripID, "size", report.FileSize)
	s.bus.Publish(ctx, events.TripReportGenerated{
		BaseEvent:  events.NewBaseEvent(),
		ReportID:   report.ID,
		TripID:     report.TripID,
		UserID:     params.UserID,
		StorageKey: report.StorageKey,
	})
	return report, nil
}

// ListByTrip returns the trip's reports.
func (s *Service) ListByTrip(ctx context.Context, tripID, userID int64) ([]repository.Report, error) {
	return s.repo.ListByTrip(ctx, tripID, userID)
}

// Get fetches one report.
func (s *Service) Get(ctx context.Context, reportID, tripID, userID int64) (repository.Report, error) {
	return s.repo.Get(ctx, reportID, tripID, userID)
}

// Open returns the report row and a reader over its file content.
// The caller closes the reader.
func (s *Service) Open(ctx context.Context, reportID, tripID, userID int64) (repository.Report, io.ReadCloser, error) {
	report, err := s.repo.Get(ctx, reportID, tripID, userID)
	if err != nil {
		return repository.Report{}, nil, err
	}
	reader, err := s.store.Download(ctx, s.bucket, report.StorageKey)
	if err != nil {
		return repository.Report{}, nil, apperr.NotFound("file_missing")
	}
	return report, reader, nil
}

// PresignDownload returns a time-limited download URL for the report file.
func (s *Service) PresignDownload(ctx context.Context, reportID, tripID, userID int64) (*storage.PresignedURL, error) {
	report, err := s.repo.Get(ctx, reportID, tripID, userID)
	if err != nil {
		return nil, err
	}
	return s.store.PresignDownload(ctx, s.bucket, report.StorageKey)
}

// Delete removes the report row and its stored object.
func (s *Service) Delete(ctx context.Context, reportID, tripID, userID int64) error {
	storageKey, err := s.repo.Delete(ctx, reportID, tripID, userID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, s.bucket, storageKey); err != nil {
		// The row is gone; the object failure is logged, not surfaced.
		s.log.Warn("report object delete failed", "storageKey", storageKey, "error", err)
	}
	return nil
}
