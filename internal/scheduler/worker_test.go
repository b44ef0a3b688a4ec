package scheduler

import (
	"context"
	"testing"
	"time"

	"journeyon_backend/internal/events"
	tripsrepo "journeyon_backend/internal/trips/repository"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/logger"
)

type fakeTripReader struct {
	trips      map[int64]tripsrepo.Trip
	departures []tripsrepo.Trip
}

func (f *fakeTripReader) GetByID(_ context.Context, tripID, userID int64) (tripsrepo.Trip, error) {
	trip, ok := f.trips[tripID]
	if !ok || trip.UserID != userID {
		return tripsrepo.Trip{}, apperr.NotFound("trip_not_found")
	}
	return trip, nil
}

func (f *fakeTripReader) ListByUser(context.Context, int64) ([]tripsrepo.Trip, error) {
	return nil, nil
}

func (f *fakeTripReader) ListStages(context.Context, int64) ([]tripsrepo.TripStage, error) {
	return nil, nil
}

func (f *fakeTripReader) StageStatuses(context.Context, int64) (map[string]string, error) {
	return nil, nil
}

func (f *fakeTripReader) ListDeparturesBetween(context.Context, time.Time, time.Time) ([]tripsrepo.Trip, error) {
	return f.departures, nil
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

func newTestWorker(trips *fakeTripReader, bus *recordingBus) *Worker {
	return &Worker{trips: trips, bus: bus, log: logger.New("test")}
}

func departingTrip(id, userID int64, startDate time.Time) tripsrepo.Trip {
	destination := "Kyoto"
	return tripsrepo.Trip{
		ID:          id,
		UserID:      userID,
		Destination: &destination,
		StartDate:   &startDate,
		Status:      "active",
	}
}

func TestDepartureReminderPublishesForActiveTrip(t *testing.T) {
	start := time.Now().Add(12 * time.Hour)
	trips := &fakeTripReader{trips: map[int64]tripsrepo.Trip{7: departingTrip(7, 3, start)}}
	bus := &recordingBus{}
	w := newTestWorker(trips, bus)

	task, err := NewDepartureReminderTask(DepartureReminderPayload{
		TripID: 7, UserID: 3, Destination: "Kyoto", DepartureDate: start,
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	if err := w.handleDepartureReminder(context.Background(), task); err != nil {
		t.Fatalf("handle reminder: %v", err)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(bus.published))
	}
	due, ok := bus.published[0].(events.DepartureReminderDue)
	if !ok {
		t.Fatalf("expected DepartureReminderDue, got %T", bus.published[0])
	}
	if due.TripID != 7 || due.UserID != 3 || due.Destination != "Kyoto" {
		t.Fatalf("unexpected event payload: %+v", due)
	}
}

func TestDepartureReminderSkipsMissingOrInactiveTrip(t *testing.T) {
	start := time.Now().Add(12 * time.Hour)
	archived := departingTrip(8, 3, start)
	archived.Status = "archived"
	trips := &fakeTripReader{trips: map[int64]tripsrepo.Trip{8: archived}}
	bus := &recordingBus{}
	w := newTestWorker(trips, bus)

	for _, tripID := range []int64{8, 99} {
		task, err := NewDepartureReminderTask(DepartureReminderPayload{
			TripID: tripID, UserID: 3, DepartureDate: start,
		})
		if err != nil {
			t.Fatalf("build task: %v", err)
		}
		if err := w.handleDepartureReminder(context.Background(), task); err != nil {
			t.Fatalf("handle reminder for trip %d: %v", tripID, err)
		}
	}
	if len(bus.published) != 0 {
		t.Fatalf("expected no events, got %d", len(bus.published))
	}
}

func TestDepartureScanPublishesPerUpcomingTrip(t *testing.T) {
	start := time.Now().Add(6 * time.Hour)
	trips := &fakeTripReader{departures: []tripsrepo.Trip{
		departingTrip(1, 3, start),
		departingTrip(2, 4, start),
	}}
	bus := &recordingBus{}
	w := newTestWorker(trips, bus)

	if err := w.handleDepartureScan(context.Background(), nil); err != nil {
		t.Fatalf("handle scan: %v", err)
	}
	if len(bus.published) != 2 {
		t.Fatalf("expected 2 events, got %d", len(bus.published))
	}
	for i, tripID := range []int64{1, 2} {
		due := bus.published[i].(events.DepartureReminderDue)
		if due.TripID != tripID {
			t.Fatalf("event %d: expected trip %d, got %d", i, tripID, due.TripID)
		}
	}
}
