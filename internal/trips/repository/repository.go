package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"journeyon_backend/internal/trips/domain"
	"journeyon_backend/platform/apperr"
)

const tripNotFoundMessage = "trip_not_found"

const tripColumns = `
	id, user_id, title, origin, origin_lat, origin_lng,
	destination, destination_lat, destination_lng,
	start_date, duration_days, budget, currency,
	current_stage, status, preferences, agent_context, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new trips repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (Trip, error) {
	var t Trip
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Origin, &t.OriginLat, &t.OriginLng,
		&t.Destination, &t.DestinationLat, &t.DestinationLng,
		&t.StartDate, &t.DurationDays, &t.Budget, &t.Currency,
		&t.CurrentStage, &t.Status, &t.Preferences, &t.AgentContext, &createdAt, &updatedAt,
	)
	if err != nil {
		return Trip{}, err
	}

	t.CreatedAt = createdAt.Format(time.RFC3339)
	t.UpdatedAt = updatedAt.Format(time.RFC3339)
	return t, nil
}

func scanStage(row rowScanner) (TripStage, error) {
	var s TripStage
	var confirmedAt *time.Time
	var createdAt time.Time

	err := row.Scan(&s.ID, &s.TripID, &s.StageName, &s.Status, &confirmedAt, &createdAt)
	if err != nil {
		return TripStage{}, err
	}

	if confirmedAt != nil {
		formatted := confirmedAt.Format(time.RFC3339)
		s.ConfirmedAt = &formatted
	}
	s.CreatedAt = createdAt.Format(time.RFC3339)
	return s, nil
}

// Create inserts a trip together with its three stage rows atomically.
// The pre stage starts in_progress; on and post start pending.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Trip, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Trip{}, fmt.Errorf("begin create trip: %w", err)
	}
	defer tx.Rollback(ctx)

	currency := params.Currency
	if currency == "" {
		currency = "CNY"
	}

	query := `
		INSERT INTO trips (
			user_id, title, origin, origin_lat, origin_lng,
			destination, destination_lat, destination_lng,
			start_date, duration_days, budget, currency, preferences, agent_context
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + tripColumns

	trip, err := scanTrip(tx.QueryRow(ctx, query,
		params.UserID, params.Title, params.Origin, params.OriginLat, params.OriginLng,
		params.Destination, params.DestinationLat, params.DestinationLng,
		params.StartDate, params.DurationDays, params.Budget, currency,
		params.Preferences, params.AgentContext,
	))
	if err != nil {
		return Trip{}, fmt.Errorf("insert trip: %w", err)
	}

	initial := map[domain.Stage]string{
		domain.StagePre:  domain.StatusInProgress,
		domain.StageOn:   domain.StatusPending,
		domain.StagePost: domain.StatusPending,
	}
	for _, stage := range domain.StageOrder {
		if _, err := tx.Exec(ctx,
			`INSERT INTO trip_stages (trip_id, stage_name, status) VALUES ($1, $2, $3)`,
			trip.ID, stage, initial[stage],
		); err != nil {
			return Trip{}, fmt.Errorf("insert trip stage %s: %w", stage, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Trip{}, fmt.Errorf("commit create trip: %w", err)
	}
	return trip, nil
}

// GetByID retrieves a trip by id scoped to its owner.
func (r *Repo) GetByID(ctx context.Context, tripID, userID int64) (Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 AND user_id = $2`

	trip, err := scanTrip(r.pool.QueryRow(ctx, query, tripID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Trip{}, apperr.NotFound(tripNotFoundMessage)
		}
		return Trip{}, fmt.Errorf("get trip by id: %w", err)
	}
	return trip, nil
}

// ListByUser retrieves all trips owned by a user, newest first.
func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	trips := make([]Trip, 0)
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// ListStages retrieves the stage rows for a trip in canonical order.
func (r *Repo) ListStages(ctx context.Context, tripID int64) ([]TripStage, error) {
	query := `
		SELECT id, trip_id, stage_name, status, confirmed_at, created_at
		FROM trip_stages
		WHERE trip_id = $1
		ORDER BY array_position(ARRAY['pre','on','post'], stage_name)`

	rows, err := r.pool.Query(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("list trip stages: %w", err)
	}
	defer rows.Close()

	stages := make([]TripStage, 0, len(domain.StageOrder))
	for rows.Next() {
		stage, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trip stage: %w", err)
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

// StageStatuses returns the stage name to status mapping for a trip.
func (r *Repo) StageStatuses(ctx context.Context, tripID int64) (map[string]string, error) {
	return stageStatuses(ctx, r.pool, tripID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func stageStatuses(ctx context.Context, q querier, tripID int64) (map[string]string, error) {
	rows, err := q.Query(ctx,
		`SELECT stage_name, status FROM trip_stages WHERE trip_id = $1`, tripID)
	if err != nil {
		return nil, fmt.Errorf("read stage statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]string, len(domain.StageOrder))
	for rows.Next() {
		var name, status string
		if err := rows.Scan(&name, &status); err != nil {
			return nil, fmt.Errorf("scan stage status: %w", err)
		}
		statuses[name] = status
	}
	return statuses, rows.Err()
}

// AdvanceStage validates and commits a forward stage transition as a single
// atomic unit: the trip row is locked for the duration, so two concurrent
// advance calls cannot both observe the same current stage.
func (r *Repo) AdvanceStage(ctx context.Context, tripID, userID int64, target domain.Stage) (AdvanceResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return AdvanceResult{}, fmt.Errorf("begin advance stage: %w", err)
	}
	defer tx.Rollback(ctx)

	var current domain.Stage
	err = tx.QueryRow(ctx,
		`SELECT current_stage FROM trips WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		tripID, userID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AdvanceResult{}, apperr.NotFound(tripNotFoundMessage)
		}
		return AdvanceResult{}, fmt.Errorf("lock trip for advance: %w", err)
	}

	currentIndex := domain.StageIndex(current)
	targetIndex := domain.StageIndex(target)
	if targetIndex < 0 {
		return AdvanceResult{}, apperr.BadRequest("invalid_stage")
	}
	if targetIndex < currentIndex {
		return AdvanceResult{}, apperr.BadRequest("cannot_rewind_stage")
	}
	if targetIndex > currentIndex+1 {
		return AdvanceResult{}, apperr.BadRequest("invalid_transition")
	}

	result := AdvanceResult{
		TripID:    tripID,
		FromStage: current,
		ToStage:   target,
	}

	if targetIndex == currentIndex {
		// Idempotent no-op: report the current snapshot without writing.
		statuses, err := stageStatuses(ctx, tx, tripID)
		if err != nil {
			return AdvanceResult{}, err
		}
		result.StageStatuses = statuses
		return result, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE trip_stages SET status = $1, confirmed_at = now()
		 WHERE trip_id = $2 AND stage_name = $3`,
		domain.StatusCompleted, tripID, current,
	); err != nil {
		return AdvanceResult{}, fmt.Errorf("complete current stage: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE trip_stages SET status = $1
		 WHERE trip_id = $2 AND stage_name = $3 AND status <> $4`,
		domain.StatusInProgress, tripID, target, domain.StatusCompleted,
	); err != nil {
		return AdvanceResult{}, fmt.Errorf("start target stage: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE trips SET current_stage = $1, updated_at = now() WHERE id = $2`,
		target, tripID,
	); err != nil {
		return AdvanceResult{}, fmt.Errorf("update trip current stage: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO audit_logs (user_id, trip_id, action, detail) VALUES ($1, $2, $3, $4)`,
		userID, tripID, "trip_stage_advanced", fmt.Sprintf("%s->%s", current, target),
	); err != nil {
		return AdvanceResult{}, fmt.Errorf("write advance audit entry: %w", err)
	}

	statuses, err := stageStatuses(ctx, tx, tripID)
	if err != nil {
		return AdvanceResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return AdvanceResult{}, fmt.Errorf("commit advance stage: %w", err)
	}

	result.Updated = true
	result.StageStatuses = statuses
	return result, nil
}

// UpdateStageStatus applies a validated status change to a single stage row,
// writing an audit entry in the same transaction.
func (r *Repo) UpdateStageStatus(ctx context.Context, tripID, userID int64, stage domain.Stage, status string) (TripStage, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return TripStage{}, fmt.Errorf("begin update stage status: %w", err)
	}
	defer tx.Rollback(ctx)

	var owned bool
	err = tx.QueryRow(ctx,
		`SELECT true FROM trips WHERE id = $1 AND user_id = $2`, tripID, userID,
	).Scan(&owned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TripStage{}, apperr.NotFound(tripNotFoundMessage)
		}
		return TripStage{}, fmt.Errorf("check trip ownership: %w", err)
	}

	var rowID int64
	var current string
	err = tx.QueryRow(ctx,
		`SELECT id, status FROM trip_stages WHERE trip_id = $1 AND stage_name = $2 FOR UPDATE`,
		tripID, stage,
	).Scan(&rowID, &current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TripStage{}, apperr.NotFound("stage_not_found")
		}
		return TripStage{}, fmt.Errorf("lock stage row: %w", err)
	}

	if reason := domain.ValidateStatusTransition(current, status); reason != "" {
		return TripStage{}, apperr.BadRequest(reason)
	}

	query := `UPDATE trip_stages SET status = $1 WHERE id = $2
		RETURNING id, trip_id, stage_name, status, confirmed_at, created_at`
	if current != domain.StatusCompleted && status == domain.StatusCompleted {
		query = `UPDATE trip_stages SET status = $1, confirmed_at = now() WHERE id = $2
			RETURNING id, trip_id, stage_name, status, confirmed_at, created_at`
	}

	updated, err := scanStage(tx.QueryRow(ctx, query, status, rowID))
	if err != nil {
		return TripStage{}, fmt.Errorf("update stage status: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO audit_logs (user_id, trip_id, action, detail) VALUES ($1, $2, $3, $4)`,
		userID, tripID, "trip_stage_status_updated",
		fmt.Sprintf("%s:%s->%s", stage, current, updated.Status),
	); err != nil {
		return TripStage{}, fmt.Errorf("write status audit entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return TripStage{}, fmt.Errorf("commit update stage status: %w", err)
	}
	return updated, nil
}

// Archive marks a trip archived. Stage progression to post, when needed, is
// driven by the service through AdvanceStage before this is called.
func (r *Repo) Archive(ctx context.Context, tripID, userID int64) (Trip, error) {
	query := `UPDATE trips SET status = 'archived', updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + tripColumns

	trip, err := scanTrip(r.pool.QueryRow(ctx, query, tripID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Trip{}, apperr.NotFound(tripNotFoundMessage)
		}
		return Trip{}, fmt.Errorf("archive trip: %w", err)
	}
	return trip, nil
}

// ListDeparturesBetween returns active trips whose start date falls inside the
// window. Used by the departure reminder scheduler.
func (r *Repo) ListDeparturesBetween(ctx context.Context, from, to time.Time) ([]Trip, error) {
	query := `SELECT ` + tripColumns + `
		FROM trips
		WHERE status = 'active' AND start_date IS NOT NULL AND start_date >= $1 AND start_date <= $2
		ORDER BY start_date ASC`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list departures: %w", err)
	}
	defer rows.Close()

	trips := make([]Trip, 0)
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan departure trip: %w", err)
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}
