// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"journeyon_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Auth Domain Events
// =============================================================================

// UserRegistered is published when a new user successfully registers.
type UserRegistered struct {
	BaseEvent
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (e UserRegistered) EventName() string { return "auth.user.registered" }

// =============================================================================
// Trips Domain Events
// =============================================================================

// TripCreated is published when a trip and its stage rows are created.
type TripCreated struct {
	BaseEvent
	TripID      int64      `json:"tripId"`
	UserID      int64      `json:"userId"`
	Destination string     `json:"destination"`
	StartDate   *time.Time `json:"startDate,omitempty"`
}

func (e TripCreated) EventName() string { return "trips.trip.created" }

// TripStageAdvanced is published when a trip moves to its next stage.
type TripStageAdvanced struct {
	BaseEvent
	TripID    int64  `json:"tripId"`
	UserID    int64  `json:"userId"`
	FromStage string `json:"fromStage"`
	ToStage   string `json:"toStage"`
}

func (e TripStageAdvanced) EventName() string { return "trips.stage.advanced" }

// =============================================================================
// Agent Domain Events
// =============================================================================

// AgentReplyProduced is published after an orchestrator run finishes,
// whether or not a stage transition happened alongside it.
type AgentReplyProduced struct {
	BaseEvent
	RunID        string `json:"runId"`
	TripID       int64  `json:"tripId"`
	UserID       int64  `json:"userId"`
	Stage        string `json:"stage"`
	Transitioned bool   `json:"transitioned"`
}

func (e AgentReplyProduced) EventName() string { return "agent.reply.produced" }

// =============================================================================
// Reports Domain Events
// =============================================================================

// TripReportGenerated is published when a post-trip report is stored.
type TripReportGenerated struct {
	BaseEvent
	ReportID   int64  `json:"reportId"`
	TripID     int64  `json:"tripId"`
	UserID     int64  `json:"userId"`
	StorageKey string `json:"storageKey,omitempty"`
}

func (e TripReportGenerated) EventName() string { return "reports.report.generated" }

// =============================================================================
// Scheduler Domain Events
// =============================================================================

// DepartureReminderDue is published by the scheduler worker when a trip's
// departure date is close enough to warrant a reminder.
type DepartureReminderDue struct {
	BaseEvent
	TripID        int64     `json:"tripId"`
	UserID        int64     `json:"userId"`
	Destination   string    `json:"destination"`
	DepartureDate time.Time `json:"departureDate"`
}

func (e DepartureReminderDue) EventName() string { return "scheduler.departure_reminder.due" }
