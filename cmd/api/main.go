package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"journeyon_backend/internal/adapters/storage"
	"journeyon_backend/internal/agent"
	"journeyon_backend/internal/audit"
	"journeyon_backend/internal/auth"
	"journeyon_backend/internal/conversations"
	"journeyon_backend/internal/events"
	apphttp "journeyon_backend/internal/http"
	"journeyon_backend/internal/http/router"
	"journeyon_backend/internal/itinerary"
	"journeyon_backend/internal/kb"
	"journeyon_backend/internal/notification"
	"journeyon_backend/internal/reports"
	"journeyon_backend/internal/scheduler"
	"journeyon_backend/internal/tags"
	"journeyon_backend/internal/tasks"
	"journeyon_backend/internal/trips"
	"journeyon_backend/platform/cache"
	"journeyon_backend/platform/config"
	"journeyon_backend/platform/db"
	"journeyon_backend/platform/logger"
	"journeyon_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// departureReminderLead is how far before the departure date the reminder fires.
const departureReminderLead = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Redis is optional; without it the scheduler and distributed chat
	// limiting are disabled and the limiter falls back to a local bucket.
	redisClient, err := cache.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	if redisClient != nil {
		if err := cache.Ping(ctx, redisClient); err != nil {
			log.Warn("redis unreachable at startup", "error", err)
		}
		defer func() { _ = redisClient.Close() }()
	}

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events and fans them out
	// to connected SSE clients.
	notificationModule := notification.NewModule(eventBus, log)
	defer notificationModule.Hub().Close()

	authModule := auth.NewModule(pool, cfg, eventBus, val, log)
	tripsModule := trips.NewModule(pool, eventBus, val, log)
	conversationsModule := conversations.NewModule(pool, log)

	var advisor agent.Advisor
	if cfg.IsAdvisorEnabled() {
		travelAdvisor, err := agent.NewTravelAdvisor(cfg, log)
		if err != nil {
			log.Error("failed to initialize travel advisor", "error", err)
			panic("failed to initialize travel advisor: " + err.Error())
		}
		advisor = travelAdvisor
		log.Info("travel advisor initialized", "model", cfg.GetMoonshotModel())
	} else {
		log.Warn("MOONSHOT_API_KEY not configured; chat replies use stage handlers only")
	}

	agentLog := conversations.NewAgentLog(conversationsModule.Service())
	agentModule := agent.NewModule(tripsModule.Service(), agentLog, advisor, eventBus, val, log)
	// 20 chat requests per user per minute.
	agentModule.SetChatLimiter(cache.NewRedisLimiter(redisClient, 20, time.Minute, log))

	modules := []apphttp.Module{
		authModule,
		tripsModule,
		agentModule,
		conversationsModule,
		tasks.NewModule(pool, val, log),
		itinerary.NewModule(pool, val, log),
		tags.NewModule(pool, val, log),
		audit.NewModule(pool),
		kb.NewModule(pool, val),
		notificationModule,
	}

	// Reports need object storage; without MinIO the endpoints are not mounted.
	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIOStore(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		bucket := cfg.GetMinioBucketTripReports()
		if err := withRetry(ctx, log, "ensure trip-reports bucket", 5, 2*time.Second, func() error {
			return store.EnsureBucketExists(ctx, bucket)
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		modules = append(modules, reports.NewModule(pool, store, bucket, eventBus, val, log))
		log.Info("storage service initialized", "tripReportsBucket", bucket)
	} else {
		log.Warn("MINIO_ENDPOINT not configured; report endpoints disabled")
	}

	// Schedule a departure reminder as soon as a trip with a start date
	// is created. The worker re-checks trip state before delivering.
	if reminderScheduler != nil {
		eventBus.Subscribe(events.TripCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
			created, ok := event.(events.TripCreated)
			if !ok {
				return fmt.Errorf("unexpected event type %T", event)
			}
			if created.StartDate == nil {
				return nil
			}
			runAt := created.StartDate.Add(-departureReminderLead)
			return reminderScheduler.ScheduleDepartureReminder(ctx, scheduler.DepartureReminderPayload{
				TripID:        created.TripID,
				UserID:        created.UserID,
				Destination:   created.Destination,
				DepartureDate: *created.StartDate,
			}, runAt)
		}))
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules:  modules,
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; departure reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
