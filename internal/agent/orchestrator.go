package agent

import (
	"context"

	"github.com/google/uuid"

	"journeyon_backend/internal/events"
	"journeyon_backend/internal/trips/domain"
	"journeyon_backend/internal/trips/repository"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/logger"
)

// TripStore is the ownership-scoped trip lookup the orchestrator consumes.
type TripStore interface {
	Get(ctx context.Context, tripID, userID int64) (repository.Trip, error)
}

// StageAdvancer commits a validated single-step stage transition.
type StageAdvancer interface {
	Advance(ctx context.Context, tripID, userID int64, target domain.Stage) (repository.AdvanceResult, error)
}

// Advisor optionally enriches a stage reply with model-generated text.
// Implementations must degrade to the fallback on any failure.
type Advisor interface {
	Enrich(ctx context.Context, trip repository.Trip, stage domain.Stage, message, fallback string) (string, bool)
}

// ChatParams are the inputs of one orchestrator run.
type ChatParams struct {
	TripID    int64
	UserID    int64
	Stage     string
	Message   string
	ClientCtx map[string]any
}

// Transition mirrors the stage-advance outcome in chat responses.
type Transition struct {
	TripID        int64             `json:"trip_id"`
	FromStage     string            `json:"from_stage"`
	ToStage       string            `json:"to_stage"`
	Updated       bool              `json:"updated"`
	StageStatuses map[string]string `json:"stage_statuses"`
}

// TripSnapshot is the trip identity included in chat responses for display.
type TripSnapshot struct {
	ID           int64   `json:"id"`
	CurrentStage string  `json:"current_stage"`
	Destination  *string `json:"destination"`
}

// ChatResult is the unified outcome of a chat run. Every failure path still
// produces a well-formed result with a human-readable reply and an error
// code, never a bare error.
type ChatResult struct {
	Reply        string         `json:"reply"`
	RunID        string         `json:"run_id"`
	Tools        []string       `json:"tools"`
	ToolResults  map[string]any `json:"tool_results"`
	StageHistory []RunResult    `json:"stage_history"`
	Transition   *Transition    `json:"transition"`
	Trip         *TripSnapshot  `json:"trip,omitempty"`
	Source       string         `json:"source"`
	ErrorCode    string         `json:"error,omitempty"`
}

// Error codes reported in ChatResult.ErrorCode.
const (
	ErrCodeInvalidStage = "invalid_stage"
	ErrCodeTripNotFound = "trip_not_found"
	ErrCodeGraphFailed  = "graph_run_failed"
	ErrCodeEmptyResult  = "empty_result"
)

// Orchestrator ties intent detection, the agent graph and the
// stage-advancement commit into one request-scoped flow.
type Orchestrator struct {
	trips    TripStore
	advancer StageAdvancer
	graph    *Graph
	advisor  Advisor
	bus      events.Bus
	log      *logger.Logger
}

// NewOrchestrator creates an orchestrator. The advisor may be nil, in which
// case replies come solely from the stage handlers.
func NewOrchestrator(trips TripStore, advancer StageAdvancer, advisor Advisor, bus events.Bus, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		trips:    trips,
		advancer: advancer,
		graph:    NewGraph(),
		advisor:  advisor,
		bus:      bus,
		log:      log,
	}
}

func errorResult(runID, code, reply string) ChatResult {
	return ChatResult{
		Reply:        reply,
		RunID:        runID,
		Tools:        []string{},
		ToolResults:  map[string]any{},
		StageHistory: []RunResult{},
		Source:       "agent",
		ErrorCode:    code,
	}
}

// Chat runs one conversation turn: parse and load, detect intent, walk the
// graph, then commit the transition if the run ended on a later stage.
// A failed commit never discards the already-produced reply; the result
// carries transition=nil instead.
func (o *Orchestrator) Chat(ctx context.Context, params ChatParams) ChatResult {
	runID := uuid.NewString()

	stage, err := domain.ParseStage(params.Stage)
	if err != nil {
		return errorResult(runID, ErrCodeInvalidStage, "无效的行程阶段，请选择 pre、on 或 post。")
	}

	trip, err := o.trips.Get(ctx, params.TripID, params.UserID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			return errorResult(runID, ErrCodeTripNotFound, "未找到对应行程或没有访问权限。")
		}
		o.log.Error("load trip for chat failed", "runId", runID, "tripId", params.TripID, "error", err)
		return errorResult(runID, ErrCodeTripNotFound, "未找到对应行程或没有访问权限。")
	}

	rc := &Context{
		TripID:       params.TripID,
		UserID:       params.UserID,
		Stage:        stage,
		Message:      params.Message,
		ClientCtx:    params.ClientCtx,
		AdvanceStage: ShouldAdvance(params.Message, stage),
		Extra:        map[string]any{},
	}

	results, err := o.graph.Run(rc)
	if err != nil {
		// ErrUnknownStage should be unreachable after ParseStage, but the
		// orchestrator must not crash on it.
		o.log.Error("graph run failed", "runId", runID, "tripId", params.TripID, "error", err)
		return errorResult(runID, ErrCodeGraphFailed, "智能体运行失败，请稍后重试。")
	}
	if len(results) == 0 {
		return errorResult(runID, ErrCodeEmptyResult, "智能体未产生任何结果，请稍后重试。")
	}

	final := results[len(results)-1]
	var transition *Transition
	if final.Stage != stage {
		// The commit is a server-side consistency operation: it must run to
		// completion or rollback even if the client disconnects mid-request.
		commitCtx := context.WithoutCancel(ctx)
		result, err := o.advancer.Advance(commitCtx, params.TripID, params.UserID, final.Stage)
		if err != nil {
			o.log.Warn("stage transition commit failed",
				"runId", runID, "tripId", params.TripID,
				"fromStage", string(stage), "toStage", string(final.Stage), "error", err)
		} else {
			transition = &Transition{
				TripID:        result.TripID,
				FromStage:     string(result.FromStage),
				ToStage:       string(result.ToStage),
				Updated:       result.Updated,
				StageStatuses: result.StageStatuses,
			}
			trip.CurrentStage = result.ToStage
		}
	}

	reply := final.Message
	source := "agent"
	if o.advisor != nil {
		if enriched, ok := o.advisor.Enrich(ctx, trip, final.Stage, params.Message, reply); ok {
			reply = enriched
			source = "llm"
		}
	}

	o.log.AgentRun(runID, params.TripID, string(stage), string(final.Stage), len(results))
	o.bus.Publish(ctx, events.AgentReplyProduced{
		BaseEvent:    events.NewBaseEvent(),
		RunID:        runID,
		TripID:       params.TripID,
		UserID:       params.UserID,
		Stage:        string(final.Stage),
		Transitioned: transition != nil && transition.Updated,
	})

	return ChatResult{
		Reply:        reply,
		RunID:        runID,
		Tools:        []string{},
		ToolResults:  map[string]any{},
		StageHistory: results,
		Transition:   transition,
		Trip: &TripSnapshot{
			ID:           trip.ID,
			CurrentStage: string(trip.CurrentStage),
			Destination:  trip.Destination,
		},
		Source: source,
	}
}
