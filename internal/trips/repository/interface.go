package repository

import (
	"context"
	"time"

	"journeyon_backend/internal/trips/domain"
)

// Trip is a user-owned travel plan progressing through the three lifecycle stages.
type Trip struct {
	ID             int64          `db:"id"`
	UserID         int64          `db:"user_id"`
	Title          *string        `db:"title"`
	Origin         *string        `db:"origin"`
	OriginLat      *float64       `db:"origin_lat"`
	OriginLng      *float64       `db:"origin_lng"`
	Destination    *string        `db:"destination"`
	DestinationLat *float64       `db:"destination_lat"`
	DestinationLng *float64       `db:"destination_lng"`
	StartDate      *time.Time     `db:"start_date"`
	DurationDays   *int           `db:"duration_days"`
	Budget         *float64       `db:"budget"`
	Currency       string         `db:"currency"`
	CurrentStage   domain.Stage   `db:"current_stage"`
	Status         string         `db:"status"`
	Preferences    map[string]any `db:"preferences"`
	AgentContext   map[string]any `db:"agent_context"`
	CreatedAt      string         `db:"created_at"`
	UpdatedAt      string         `db:"updated_at"`
}

// TripStage is the persisted per-(trip, stage) progress row, distinct from the
// trip's single current_stage pointer.
type TripStage struct {
	ID          int64        `db:"id"`
	TripID      int64        `db:"trip_id"`
	StageName   domain.Stage `db:"stage_name"`
	Status      string       `db:"status"`
	ConfirmedAt *string      `db:"confirmed_at"`
	CreatedAt   string       `db:"created_at"`
}

// CreateParams contains parameters for creating a trip.
type CreateParams struct {
	UserID         int64
	Title          *string
	Origin         *string
	OriginLat      *float64
	OriginLng      *float64
	Destination    *string
	DestinationLat *float64
	DestinationLng *float64
	StartDate      *time.Time
	DurationDays   *int
	Budget         *float64
	Currency       string
	Preferences    map[string]any
	AgentContext   map[string]any
}

// AdvanceResult reports the outcome of an advance commit, including the full
// stage-status snapshot re-read after the transaction.
type AdvanceResult struct {
	TripID        int64
	FromStage     domain.Stage
	ToStage       domain.Stage
	Updated       bool
	StageStatuses map[string]string
}

// TripReader provides read operations for trips and their stage rows.
type TripReader interface {
	GetByID(ctx context.Context, tripID, userID int64) (Trip, error)
	ListByUser(ctx context.Context, userID int64) ([]Trip, error)
	ListStages(ctx context.Context, tripID int64) ([]TripStage, error)
	StageStatuses(ctx context.Context, tripID int64) (map[string]string, error)
	ListDeparturesBetween(ctx context.Context, from, to time.Time) ([]Trip, error)
}

// TripWriter provides write operations for trips and their stage rows.
// AdvanceStage is the single writer of trip.current_stage.
type TripWriter interface {
	Create(ctx context.Context, params CreateParams) (Trip, error)
	AdvanceStage(ctx context.Context, tripID, userID int64, target domain.Stage) (AdvanceResult, error)
	UpdateStageStatus(ctx context.Context, tripID, userID int64, stage domain.Stage, status string) (TripStage, error)
	Archive(ctx context.Context, tripID, userID int64) (Trip, error)
}

// Repository combines trip persistence operations.
type Repository interface {
	TripReader
	TripWriter
}
