package transport

import (
	"time"

	"journeyon_backend/internal/trips/repository"
)

// CreateTripRequest contains data for creating a new trip.
type CreateTripRequest struct {
	Title          *string        `json:"title,omitempty" validate:"omitempty,max=255"`
	Origin         *string        `json:"origin,omitempty" validate:"omitempty,max=255"`
	OriginLat      *float64       `json:"origin_lat,omitempty" validate:"omitempty,min=-90,max=90"`
	OriginLng      *float64       `json:"origin_lng,omitempty" validate:"omitempty,min=-180,max=180"`
	Destination    *string        `json:"destination,omitempty" validate:"omitempty,max=255"`
	DestinationLat *float64       `json:"destination_lat,omitempty" validate:"omitempty,min=-90,max=90"`
	DestinationLng *float64       `json:"destination_lng,omitempty" validate:"omitempty,min=-180,max=180"`
	StartDate      *string        `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DurationDays   *int           `json:"duration_days,omitempty" validate:"omitempty,min=1,max=365"`
	Budget         *float64       `json:"budget,omitempty" validate:"omitempty,min=0"`
	Currency       string         `json:"currency,omitempty" validate:"omitempty,max=8"`
	Preferences    map[string]any `json:"preferences,omitempty"`
	AgentContext   map[string]any `json:"agent_context,omitempty"`
}

// ToParams converts the request into repository create parameters.
func (r CreateTripRequest) ToParams(userID int64) (repository.CreateParams, error) {
	params := repository.CreateParams{
		UserID:         userID,
		Title:          r.Title,
		Origin:         r.Origin,
		OriginLat:      r.OriginLat,
		OriginLng:      r.OriginLng,
		Destination:    r.Destination,
		DestinationLat: r.DestinationLat,
		DestinationLng: r.DestinationLng,
		DurationDays:   r.DurationDays,
		Budget:         r.Budget,
		Currency:       r.Currency,
		Preferences:    r.Preferences,
		AgentContext:   r.AgentContext,
	}
	if r.StartDate != nil {
		start, err := time.Parse("2006-01-02", *r.StartDate)
		if err != nil {
			return repository.CreateParams{}, err
		}
		params.StartDate = &start
	}
	return params, nil
}

// AdvanceStageRequest optionally names the target stage. When omitted the
// trip advances to the stage after its current one.
type AdvanceStageRequest struct {
	ToStage *string `json:"to_stage,omitempty" validate:"omitempty,oneof=pre on post"`
}

// UpdateStageStatusRequest carries the new status for one stage row.
type UpdateStageStatusRequest struct {
	NewStatus string `json:"new_status" validate:"required,oneof=pending in_progress completed"`
}

// TripResponse represents a trip in API responses.
type TripResponse struct {
	ID           int64          `json:"id"`
	Title        *string        `json:"title"`
	Origin       *string        `json:"origin"`
	Destination  *string        `json:"destination"`
	StartDate    *string        `json:"start_date"`
	DurationDays *int           `json:"duration_days"`
	Budget       *float64       `json:"budget"`
	Currency     string         `json:"currency"`
	CurrentStage string         `json:"current_stage"`
	Status       string         `json:"status"`
	Archived     bool           `json:"archived"`
	Preferences  map[string]any `json:"preferences,omitempty"`
	AgentContext map[string]any `json:"agent_context,omitempty"`
	CreatedAt    string         `json:"created_at"`
}

// StageResponse represents one stage row in API responses.
type StageResponse struct {
	TripID      int64   `json:"trip_id"`
	StageName   string  `json:"stage_name"`
	Status      string  `json:"status"`
	ConfirmedAt *string `json:"confirmed_at"`
}

// AdvanceStageResponse reports the outcome of a stage advance.
type AdvanceStageResponse struct {
	TripID        int64             `json:"trip_id"`
	FromStage     string            `json:"from_stage"`
	ToStage       string            `json:"to_stage"`
	Updated       bool              `json:"updated"`
	StageStatuses map[string]string `json:"stage_statuses"`
}

// FromTrip maps a repository trip onto the response shape.
func FromTrip(t repository.Trip) TripResponse {
	resp := TripResponse{
		ID:           t.ID,
		Title:        t.Title,
		Origin:       t.Origin,
		Destination:  t.Destination,
		DurationDays: t.DurationDays,
		Budget:       t.Budget,
		Currency:     t.Currency,
		CurrentStage: string(t.CurrentStage),
		Status:       t.Status,
		Archived:     t.Status == "archived",
		Preferences:  t.Preferences,
		AgentContext: t.AgentContext,
		CreatedAt:    t.CreatedAt,
	}
	if t.StartDate != nil {
		formatted := t.StartDate.Format("2006-01-02")
		resp.StartDate = &formatted
	}
	return resp
}

// FromStage maps a repository stage row onto the response shape.
func FromStage(s repository.TripStage) StageResponse {
	return StageResponse{
		TripID:      s.TripID,
		StageName:   string(s.StageName),
		Status:      s.Status,
		ConfirmedAt: s.ConfirmedAt,
	}
}

// FromAdvanceResult maps an advance outcome onto the response shape.
func FromAdvanceResult(r repository.AdvanceResult) AdvanceStageResponse {
	return AdvanceStageResponse{
		TripID:        r.TripID,
		FromStage:     string(r.FromStage),
		ToStage:       string(r.ToStage),
		Updated:       r.Updated,
		StageStatuses: r.StageStatuses,
	}
}
