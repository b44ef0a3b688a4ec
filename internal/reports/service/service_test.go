package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"journeyon_backend/internal/adapters/storage"
	"journeyon_backend/internal/events"
	"journeyon_backend/internal/reports/repository"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/logger"
)

type fakeReportRepo struct {
	nextID    int64
	ownedTrip int64
	reports   map[int64]repository.Report
	createErr error
}

func newFakeReportRepo(ownedTrip int64) *fakeReportRepo {
	return &fakeReportRepo{nextID: 1, ownedTrip: ownedTrip, reports: map[int64]repository.Report{}}
}

func (r *fakeReportRepo) Create(_ context.Context, params repository.CreateParams) (repository.Report, error) {
	if r.createErr != nil {
		return repository.Report{}, r.createErr
	}
	if params.TripID != r.ownedTrip {
		return repository.Report{}, apperr.NotFound("trip_not_found")
	}
	report := repository.Report{
		ID:          r.nextID,
		TripID:      params.TripID,
		Filename:    params.Filename,
		Format:      params.Format,
		ContentType: params.ContentType,
		FileSize:    params.FileSize,
		StorageKey:  params.StorageKey,
		Meta:        params.Meta,
	}
	r.reports[report.ID] = report
	r.nextID++
	return report, nil
}

func (r *fakeReportRepo) ListByTrip(_ context.Context, tripID, _ int64) ([]repository.Report, error) {
	out := make([]repository.Report, 0)
	for _, rep := range r.reports {
		if rep.TripID == tripID {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (r *fakeReportRepo) Get(_ context.Context, reportID, tripID, _ int64) (repository.Report, error) {
	rep, ok := r.reports[reportID]
	if !ok || rep.TripID != tripID {
		return repository.Report{}, apperr.NotFound("report_not_found")
	}
	return rep, nil
}

func (r *fakeReportRepo) Delete(_ context.Context, reportID, tripID, _ int64) (string, error) {
	rep, ok := r.reports[reportID]
	if !ok || rep.TripID != tripID {
		return "", apperr.NotFound("report_not_found")
	}
	delete(r.reports, reportID)
	return rep.StorageKey, nil
}

type fakeStore struct {
	objects map[string][]byte
	deleted []string
	maxSize int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, maxSize: 1 << 20}
}

func (s *fakeStore) EnsureBucketExists(context.Context, string) error { return nil }

func (s *fakeStore) Upload(_ context.Context, _, folder, fileName, _ string, reader io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s", folder, fileName)
	s.objects[key] = data
	return key, nil
}

func (s *fakeStore) Download(_ context.Context, _, fileKey string) (io.ReadCloser, error) {
	data, ok := s.objects[fileKey]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStore) PresignDownload(_ context.Context, _, fileKey string) (*storage.PresignedURL, error) {
	if _, ok := s.objects[fileKey]; !ok {
		return nil, errors.New("object not found")
	}
	return &storage.PresignedURL{URL: "https://example.test/" + fileKey, FileKey: fileKey}, nil
}

func (s *fakeStore) Delete(_ context.Context, _, fileKey string) error {
	delete(s.objects, fileKey)
	s.deleted = append(s.deleted, fileKey)
	return nil
}

func (s *fakeStore) ValidateContentType(contentType string) error {
	if !strings.HasPrefix(contentType, "text/") && contentType != "application/pdf" {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

func (s *fakeStore) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes <= 0 || sizeBytes > s.maxSize {
		return fmt.Errorf("file size %d out of bounds", sizeBytes)
	}
	return nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func strPtr(s string) *string { return &s }

func newTestService(ownedTrip int64) (*Service, *fakeReportRepo, *fakeStore, *recordingBus) {
	repo := newFakeReportRepo(ownedTrip)
	store := newFakeStore()
	bus := &recordingBus{}
	return New(repo, store, "trip-reports", bus, logger.New("test")), repo, store, bus
}

func TestUploadStoresFileAndPublishes(t *testing.T) {
	svc, _, store, bus := newTestService(5)

	report, err := svc.Upload(context.Background(), UploadParams{
		TripID:      5,
		UserID:      1,
		Filename:    "summary.pdf",
		ContentType: strPtr("application/pdf"),
		Data:        []byte("%PDF-1.7 fake"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if report.Format == nil || *report.Format != "pdf" {
		t.Fatalf("format = %v, want inferred pdf", report.Format)
	}
	if _, ok := store.objects[report.StorageKey]; !ok {
		t.Fatal("file must be written to object storage")
	}
	if len(bus.published) != 1 || bus.published[0].EventName() != "reports.report.generated" {
		t.Fatalf("published = %+v, want one report.generated event", bus.published)
	}
}

func TestUploadRejectsDisallowedContentType(t *testing.T) {
	svc, _, store, _ := newTestService(5)

	_, err := svc.Upload(context.Background(), UploadParams{
		TripID:      5,
		UserID:      1,
		Filename:    "payload.bin",
		ContentType: strPtr("application/x-msdownload"),
		Data:        []byte{0x4d, 0x5a},
	})
	if apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("kind = %v, want bad request", apperr.GetKind(err))
	}
	if len(store.objects) != 0 {
		t.Fatal("nothing may be stored for a rejected upload")
	}
}

func TestUploadCleansUpOrphanOnDBFailure(t *testing.T) {
	svc, repo, store, bus := newTestService(5)
	repo.createErr = errors.New("connection reset")

	_, err := svc.Upload(context.Background(), UploadParams{
		TripID:   5,
		UserID:   1,
		Filename: "notes.txt",
		Data:     []byte("trip notes"),
	})
	if err == nil {
		t.Fatal("upload must fail when the row cannot be recorded")
	}
	if len(store.objects) != 0 || len(store.deleted) != 1 {
		t.Fatalf("orphaned object must be deleted, objects=%d deleted=%d", len(store.objects), len(store.deleted))
	}
	if len(bus.published) != 0 {
		t.Fatal("no event may be published for a failed upload")
	}
}

func TestDeleteRemovesRowAndObject(t *testing.T) {
	svc, repo, store, _ := newTestService(5)

	report, err := svc.Upload(context.Background(), UploadParams{
		TripID:   5,
		UserID:   1,
		Filename: "notes.txt",
		Data:     []byte("trip notes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := svc.Delete(context.Background(), report.ID, 5, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.reports) != 0 {
		t.Fatal("report row must be removed")
	}
	if _, ok := store.objects[report.StorageKey]; ok {
		t.Fatal("stored object must be removed")
	}
}

func TestOpenMissingObjectMapsToNotFound(t *testing.T) {
	svc, _, store, _ := newTestService(5)

	report, err := svc.Upload(context.Background(), UploadParams{
		TripID:   5,
		UserID:   1,
		Filename: "notes.txt",
		Data:     []byte("trip notes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	delete(store.objects, report.StorageKey)

	_, _, err = svc.Open(context.Background(), report.ID, 5, 1)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want not found", apperr.GetKind(err))
	}
}
