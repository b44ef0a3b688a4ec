package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"journeyon_backend/internal/events"
	tripsrepo "journeyon_backend/internal/trips/repository"
	"journeyon_backend/platform/config"
	"journeyon_backend/platform/logger"
)

// departureLookahead is the window the sweep looks into for upcoming trips.
const departureLookahead = 24 * time.Hour

// Worker consumes scheduled trip tasks and republishes them on the event bus.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	trips  tripsrepo.TripReader
	bus    events.Bus
	log    *logger.Logger
}

// NewWorker creates the asynq worker with its task handlers registered.
func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		trips:  tripsrepo.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskDepartureReminder, w.handleDepartureReminder)
	mux.HandleFunc(TaskDepartureScan, w.handleDepartureScan)

	return w, nil
}

// Run blocks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleDepartureReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDepartureReminderPayload(task)
	if err != nil {
		return err
	}

	// The trip may have been archived or rescheduled since the reminder
	// was enqueued; re-check before notifying.
	trip, err := w.trips.GetByID(ctx, payload.TripID, payload.UserID)
	if err != nil {
		w.log.Info("skipping reminder for missing trip", "tripId", payload.TripID)
		return nil
	}
	if trip.Status != "active" || trip.StartDate == nil {
		return nil
	}

	destination := payload.Destination
	if destination == "" && trip.Destination != nil {
		destination = *trip.Destination
	}

	w.bus.Publish(ctx, events.DepartureReminderDue{
		BaseEvent:     events.NewBaseEvent(),
		TripID:        trip.ID,
		UserID:        trip.UserID,
		Destination:   destination,
		DepartureDate: *trip.StartDate,
	})
	return nil
}

func (w *Worker) handleDepartureScan(ctx context.Context, _ *asynq.Task) error {
	now := time.Now()
	trips, err := w.trips.ListDeparturesBetween(ctx, now, now.Add(departureLookahead))
	if err != nil {
		return fmt.Errorf("scan departures: %w", err)
	}

	for _, trip := range trips {
		destination := ""
		if trip.Destination != nil {
			destination = *trip.Destination
		}
		w.bus.Publish(ctx, events.DepartureReminderDue{
			BaseEvent:     events.NewBaseEvent(),
			TripID:        trip.ID,
			UserID:        trip.UserID,
			Destination:   destination,
			DepartureDate: *trip.StartDate,
		})
	}

	w.log.Info("departure scan completed", "upcoming", len(trips))
	return nil
}
