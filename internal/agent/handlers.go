package agent

import "journeyon_backend/internal/trips/domain"

// StageHandler produces the reply and advance recommendation for one stage.
// Handlers are pure functions of the context: they never touch the trip or
// its stage rows, and their output is deterministic for equal input.
type StageHandler func(rc *Context) RunResult

func handlerNotes(rc *Context) map[string]any {
	return map[string]any{
		"stage":             string(rc.Stage),
		"requested_message": rc.Message,
		"advance_stage":     rc.AdvanceStage,
	}
}

func stagePtr(stage domain.Stage) *domain.Stage { return &stage }

// preTripHandler prepares travellers before departure. It always points at
// the on stage as "where we would go", even when not proceeding.
func preTripHandler(rc *Context) RunResult {
	status := StatusAwaitingConfirmation
	message := "🧳 这是行前筹备建议。确认后可进入行中阶段。"
	if rc.AdvanceStage {
		status = StatusReadyToProceed
		message = "🧳 行前准备完成。请确认是否进入行中阶段。"
	}
	return RunResult{
		Stage:         domain.StagePre,
		Message:       message,
		Status:        status,
		ShouldProceed: rc.AdvanceStage,
		NextStage:     stagePtr(domain.StageOn),
		Data:          handlerNotes(rc),
	}
}

// onTripHandler guides travellers while the trip is in progress.
func onTripHandler(rc *Context) RunResult {
	status := StatusInProgress
	message := "🧭 这是行中阶段建议，可在完成后确认进入下一阶段。"
	if rc.AdvanceStage {
		status = StatusReadyToProceed
		message = "🧭 行程建议已生成，确认后进入行后总结阶段。"
	}
	return RunResult{
		Stage:         domain.StageOn,
		Message:       message,
		Status:        status,
		ShouldProceed: rc.AdvanceStage,
		NextStage:     stagePtr(domain.StagePost),
		Data:          handlerNotes(rc),
	}
}

// postTripHandler summarises the trip. The post stage is terminal, so it
// never proceeds and has no next stage regardless of the advance signal.
func postTripHandler(rc *Context) RunResult {
	return RunResult{
		Stage:         domain.StagePost,
		Message:       "📒 行后总结完成，欢迎随时发起新的旅行计划。",
		Status:        StatusCompleted,
		ShouldProceed: false,
		NextStage:     nil,
		Data:          handlerNotes(rc),
	}
}

// stageHandlers dispatches by stage tag. The set is closed: exactly the three
// lifecycle stages.
var stageHandlers = map[domain.Stage]StageHandler{
	domain.StagePre:  preTripHandler,
	domain.StageOn:   onTripHandler,
	domain.StagePost: postTripHandler,
}
