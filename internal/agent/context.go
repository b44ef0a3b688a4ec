// Package agent implements the linear stage-agent graph and the orchestrator
// that drives trip-stage conversations: intent detection, the per-stage
// handler walk, and the conditional stage-advancement commit.
package agent

import "journeyon_backend/internal/trips/domain"

// Context is the mutable per-request state passed between graph nodes.
// It is created fresh for every orchestrator run and discarded afterwards.
type Context struct {
	TripID    int64
	UserID    int64
	Stage     domain.Stage
	Message   string
	ClientCtx map[string]any
	// AdvanceStage is the caller-supplied "wants to advance" signal. The
	// graph consumes it exactly once: after the first hop it is reset so a
	// single confirmation never cascades through multiple stages.
	AdvanceStage bool
	// Extra is scratch space for handler-to-handler data within one run.
	Extra map[string]any
}

// RunResult is the structured output of one stage handler invocation.
// Immutable once produced; the ordered list of results forms the run's
// stage history.
type RunResult struct {
	Stage         domain.Stage   `json:"stage"`
	Message       string         `json:"message"`
	Status        string         `json:"status"`
	ShouldProceed bool           `json:"should_proceed"`
	NextStage     *domain.Stage  `json:"next_stage"`
	Data          map[string]any `json:"data"`
}

// Handler statuses reported in RunResult.Status.
const (
	StatusAwaitingConfirmation = "awaiting_confirmation"
	StatusReadyToProceed       = "ready_to_proceed"
	StatusInProgress           = "in_progress"
	StatusCompleted            = "completed"
)
