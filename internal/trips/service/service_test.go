package service

import (
	"context"
	"testing"
	"time"

	"journeyon_backend/internal/events"
	"journeyon_backend/internal/trips/domain"
	"journeyon_backend/internal/trips/repository"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/logger"
)

// fakeRepo is an in-memory Repository with the same transition semantics as
// the PostgreSQL implementation.
type fakeRepo struct {
	trips    map[int64]repository.Trip
	statuses map[int64]map[string]string
	audit    []string
	nextID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		trips:    make(map[int64]repository.Trip),
		statuses: make(map[int64]map[string]string),
		nextID:   1,
	}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Trip, error) {
	trip := repository.Trip{
		ID:           f.nextID,
		UserID:       params.UserID,
		Title:        params.Title,
		Destination:  params.Destination,
		StartDate:    params.StartDate,
		Currency:     params.Currency,
		CurrentStage: domain.StagePre,
		Status:       "active",
	}
	f.nextID++
	f.trips[trip.ID] = trip
	f.statuses[trip.ID] = map[string]string{
		"pre":  domain.StatusInProgress,
		"on":   domain.StatusPending,
		"post": domain.StatusPending,
	}
	return trip, nil
}

func (f *fakeRepo) GetByID(_ context.Context, tripID, userID int64) (repository.Trip, error) {
	trip, ok := f.trips[tripID]
	if !ok || trip.UserID != userID {
		return repository.Trip{}, apperr.NotFound("trip_not_found")
	}
	return trip, nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID int64) ([]repository.Trip, error) {
	var out []repository.Trip
	for _, t := range f.trips {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListStages(_ context.Context, tripID int64) ([]repository.TripStage, error) {
	var out []repository.TripStage
	for _, stage := range domain.StageOrder {
		out = append(out, repository.TripStage{
			TripID:    tripID,
			StageName: stage,
			Status:    f.statuses[tripID][string(stage)],
		})
	}
	return out, nil
}

func (f *fakeRepo) StageStatuses(_ context.Context, tripID int64) (map[string]string, error) {
	snapshot := make(map[string]string)
	for k, v := range f.statuses[tripID] {
		snapshot[k] = v
	}
	return snapshot, nil
}

func (f *fakeRepo) ListDeparturesBetween(context.Context, time.Time, time.Time) ([]repository.Trip, error) {
	return nil, nil
}

func (f *fakeRepo) AdvanceStage(ctx context.Context, tripID, userID int64, target domain.Stage) (repository.AdvanceResult, error) {
	trip, err := f.GetByID(ctx, tripID, userID)
	if err != nil {
		return repository.AdvanceResult{}, err
	}

	currentIndex := domain.StageIndex(trip.CurrentStage)
	targetIndex := domain.StageIndex(target)
	switch {
	case targetIndex < 0:
		return repository.AdvanceResult{}, apperr.BadRequest("invalid_stage")
	case targetIndex < currentIndex:
		return repository.AdvanceResult{}, apperr.BadRequest("cannot_rewind_stage")
	case targetIndex > currentIndex+1:
		return repository.AdvanceResult{}, apperr.BadRequest("invalid_transition")
	}

	result := repository.AdvanceResult{TripID: tripID, FromStage: trip.CurrentStage, ToStage: target}
	if targetIndex == currentIndex {
		result.StageStatuses, _ = f.StageStatuses(ctx, tripID)
		return result, nil
	}

	f.statuses[tripID][string(trip.CurrentStage)] = domain.StatusCompleted
	if f.statuses[tripID][string(target)] != domain.StatusCompleted {
		f.statuses[tripID][string(target)] = domain.StatusInProgress
	}
	trip.CurrentStage = target
	f.trips[tripID] = trip
	f.audit = append(f.audit, string(result.FromStage)+"->"+string(target))

	result.Updated = true
	result.StageStatuses, _ = f.StageStatuses(ctx, tripID)
	return result, nil
}

func (f *fakeRepo) UpdateStageStatus(ctx context.Context, tripID, userID int64, stage domain.Stage, status string) (repository.TripStage, error) {
	if _, err := f.GetByID(ctx, tripID, userID); err != nil {
		return repository.TripStage{}, err
	}
	current := f.statuses[tripID][string(stage)]
	if reason := domain.ValidateStatusTransition(current, status); reason != "" {
		return repository.TripStage{}, apperr.BadRequest(reason)
	}
	f.statuses[tripID][string(stage)] = status
	return repository.TripStage{TripID: tripID, StageName: stage, Status: status}, nil
}

func (f *fakeRepo) Archive(ctx context.Context, tripID, userID int64) (repository.Trip, error) {
	trip, err := f.GetByID(ctx, tripID, userID)
	if err != nil {
		return repository.Trip{}, err
	}
	trip.Status = "archived"
	f.trips[tripID] = trip
	return trip, nil
}

var _ repository.Repository = (*fakeRepo)(nil)

// recordingBus captures published events synchronously.
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

func newTestService(t *testing.T) (*Service, *fakeRepo, *recordingBus) {
	t.Helper()
	repo := newFakeRepo()
	bus := &recordingBus{}
	return New(repo, bus, logger.New("test")), repo, bus
}

func createTrip(t *testing.T, svc *Service, userID int64) repository.Trip {
	t.Helper()
	trip, err := svc.Create(context.Background(), repository.CreateParams{UserID: userID})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	return trip
}

func TestCreateInitializesStageRows(t *testing.T) {
	svc, repo, bus := newTestService(t)
	trip := createTrip(t, svc, 7)

	statuses, _ := repo.StageStatuses(context.Background(), trip.ID)
	want := map[string]string{"pre": "in_progress", "on": "pending", "post": "pending"}
	for stage, status := range want {
		if statuses[stage] != status {
			t.Errorf("stage %s = %s, want %s", stage, statuses[stage], status)
		}
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one TripCreated event, got %d", len(bus.published))
	}
}

func TestAdvanceHappyPath(t *testing.T) {
	svc, repo, bus := newTestService(t)
	trip := createTrip(t, svc, 7)
	bus.published = nil

	result, err := svc.Advance(context.Background(), trip.ID, 7, domain.StageOn)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !result.Updated {
		t.Fatal("expected updated=true")
	}
	if result.FromStage != domain.StagePre || result.ToStage != domain.StageOn {
		t.Fatalf("unexpected transition %s->%s", result.FromStage, result.ToStage)
	}
	if result.StageStatuses["pre"] != "completed" || result.StageStatuses["on"] != "in_progress" || result.StageStatuses["post"] != "pending" {
		t.Fatalf("unexpected snapshot: %v", result.StageStatuses)
	}
	if got := repo.trips[trip.ID].CurrentStage; got != domain.StageOn {
		t.Fatalf("current stage = %s, want on", got)
	}
	if len(repo.audit) != 1 || repo.audit[0] != "pre->on" {
		t.Fatalf("unexpected audit trail: %v", repo.audit)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one TripStageAdvanced event, got %d", len(bus.published))
	}
}

func TestAdvanceIdempotentNoOp(t *testing.T) {
	svc, repo, bus := newTestService(t)
	trip := createTrip(t, svc, 7)

	if _, err := svc.Advance(context.Background(), trip.ID, 7, domain.StageOn); err != nil {
		t.Fatalf("first advance: %v", err)
	}
	bus.published = nil

	for i := 0; i < 3; i++ {
		result, err := svc.Advance(context.Background(), trip.ID, 7, domain.StageOn)
		if err != nil {
			t.Fatalf("no-op advance %d: %v", i, err)
		}
		if result.Updated {
			t.Fatal("no-op advance must report updated=false")
		}
	}
	if len(repo.audit) != 1 {
		t.Fatalf("no-op advances must not add audit entries, got %v", repo.audit)
	}
	if len(bus.published) != 0 {
		t.Fatal("no-op advances must not publish events")
	}
}

func TestAdvanceRejectsSkipAndRewind(t *testing.T) {
	svc, repo, _ := newTestService(t)
	trip := createTrip(t, svc, 7)

	if _, err := svc.Advance(context.Background(), trip.ID, 7, domain.StagePost); apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("skip to post should fail with bad request, got %v", err)
	}
	statuses, _ := repo.StageStatuses(context.Background(), trip.ID)
	if statuses["pre"] != "in_progress" || statuses["post"] != "pending" {
		t.Fatalf("failed skip must leave state unchanged: %v", statuses)
	}

	if _, err := svc.Advance(context.Background(), trip.ID, 7, domain.StageOn); err != nil {
		t.Fatalf("advance to on: %v", err)
	}
	if _, err := svc.Advance(context.Background(), trip.ID, 7, domain.StagePre); apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("rewind should fail with bad request, got %v", err)
	}
}

func TestAdvanceUnknownTripAndStage(t *testing.T) {
	svc, _, _ := newTestService(t)
	trip := createTrip(t, svc, 7)

	if _, err := svc.Advance(context.Background(), 999, 7, domain.StageOn); apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("unknown trip should be not found, got %v", err)
	}
	if _, err := svc.Advance(context.Background(), trip.ID, 8, domain.StageOn); apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("other user's trip should be not found, got %v", err)
	}
	if _, err := svc.Advance(context.Background(), trip.ID, 7, domain.Stage("during")); apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("unknown stage should be bad request, got %v", err)
	}
}

func TestAdvanceNextWalksTheOrder(t *testing.T) {
	svc, repo, _ := newTestService(t)
	trip := createTrip(t, svc, 7)

	for _, want := range []domain.Stage{domain.StageOn, domain.StagePost} {
		result, err := svc.AdvanceNext(context.Background(), trip.ID, 7)
		if err != nil {
			t.Fatalf("advance next: %v", err)
		}
		if result.ToStage != want {
			t.Fatalf("advanced to %s, want %s", result.ToStage, want)
		}
	}
	if _, err := svc.AdvanceNext(context.Background(), trip.ID, 7); apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("advancing past post should fail, got %v", err)
	}
	if got := repo.trips[trip.ID].CurrentStage; got != domain.StagePost {
		t.Fatalf("current stage = %s, want post", got)
	}
}

func TestUpdateStageStatusValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	trip := createTrip(t, svc, 7)
	ctx := context.Background()

	if _, err := svc.UpdateStageStatus(ctx, trip.ID, 7, "during", "pending"); apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("invalid stage name should be bad request, got %v", err)
	}
	if _, err := svc.UpdateStageStatus(ctx, trip.ID, 7, "on", "done"); apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("invalid status should be bad request, got %v", err)
	}

	row, err := svc.UpdateStageStatus(ctx, trip.ID, 7, "on", "in_progress")
	if err != nil {
		t.Fatalf("pending -> in_progress: %v", err)
	}
	if row.Status != "in_progress" {
		t.Fatalf("status = %s", row.Status)
	}

	if _, err := svc.UpdateStageStatus(ctx, trip.ID, 7, "on", "completed"); err != nil {
		t.Fatalf("in_progress -> completed: %v", err)
	}
	// completed is terminal
	if _, err := svc.UpdateStageStatus(ctx, trip.ID, 7, "on", "in_progress"); apperr.GetKind(err) != apperr.KindBadRequest {
		t.Fatalf("terminal status must reject writes, got %v", err)
	}
}

func TestArchiveDrivesTripToPost(t *testing.T) {
	svc, repo, _ := newTestService(t)
	trip := createTrip(t, svc, 7)

	archived, err := svc.Archive(context.Background(), trip.ID, 7)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archived.Status != "archived" {
		t.Fatalf("status = %s, want archived", archived.Status)
	}
	if repo.trips[trip.ID].CurrentStage != domain.StagePost {
		t.Fatalf("archive must advance to post, got %s", repo.trips[trip.ID].CurrentStage)
	}
	if len(repo.audit) != 2 {
		t.Fatalf("expected two audited hops, got %v", repo.audit)
	}
}
