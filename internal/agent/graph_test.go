package agent

import (
	"errors"
	"testing"

	"journeyon_backend/internal/trips/domain"
)

func newRunContext(stage domain.Stage, advance bool) *Context {
	return &Context{
		TripID:       1,
		UserID:       1,
		Stage:        stage,
		Message:      "hello",
		AdvanceStage: advance,
		Extra:        map[string]any{},
	}
}

func stagesOf(results []RunResult) []domain.Stage {
	out := make([]domain.Stage, 0, len(results))
	for _, r := range results {
		out = append(out, r.Stage)
	}
	return out
}

func TestGraphUnknownStage(t *testing.T) {
	_, err := NewGraph().Run(newRunContext(domain.Stage("during"), false))
	if !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
}

func TestGraphStopsWithoutAdvanceSignal(t *testing.T) {
	results, err := NewGraph().Run(newRunContext(domain.StagePre, false))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := stagesOf(results); len(got) != 1 || got[0] != domain.StagePre {
		t.Fatalf("stages = %v, want [pre]", got)
	}
	if results[0].Status != StatusAwaitingConfirmation {
		t.Fatalf("status = %s, want awaiting_confirmation", results[0].Status)
	}
	if results[0].NextStage == nil || *results[0].NextStage != domain.StageOn {
		t.Fatal("next_stage must point at on even when not proceeding")
	}
}

func TestGraphSingleConsumptionOfAdvanceSignal(t *testing.T) {
	rc := newRunContext(domain.StagePre, true)
	results, err := NewGraph().Run(rc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// One confirmation advances exactly one stage: pre runs and proceeds,
	// on runs with the flag already consumed and stops. post is never reached.
	got := stagesOf(results)
	if len(got) != 2 || got[0] != domain.StagePre || got[1] != domain.StageOn {
		t.Fatalf("stages = %v, want [pre on]", got)
	}
	if !results[0].ShouldProceed {
		t.Fatal("pre must proceed when advance was requested")
	}
	if results[1].ShouldProceed {
		t.Fatal("on must not proceed; the advance flag is consumed after the first hop")
	}
	if rc.AdvanceStage {
		t.Fatal("context advance flag must be reset after the hop")
	}
}

func TestGraphAdvanceFromOnReachesPostAndStops(t *testing.T) {
	results, err := NewGraph().Run(newRunContext(domain.StageOn, true))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := stagesOf(results)
	if len(got) != 2 || got[0] != domain.StageOn || got[1] != domain.StagePost {
		t.Fatalf("stages = %v, want [on post]", got)
	}
	last := results[len(results)-1]
	if last.ShouldProceed || last.NextStage != nil {
		t.Fatal("post is terminal: no proceed, no next stage")
	}
	if last.Status != StatusCompleted {
		t.Fatalf("post status = %s, want completed", last.Status)
	}
}

func TestGraphPostIsTerminalEvenWithAdvanceSignal(t *testing.T) {
	results, err := NewGraph().Run(newRunContext(domain.StagePost, true))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := stagesOf(results); len(got) != 1 || got[0] != domain.StagePost {
		t.Fatalf("stages = %v, want [post]", got)
	}
}

func TestGraphHandlersObserveTheirOwnStage(t *testing.T) {
	results, err := NewGraph().Run(newRunContext(domain.StagePre, true))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, result := range results {
		if result.Data["stage"] != string(result.Stage) {
			t.Fatalf("handler for %s observed stage %v", result.Stage, result.Data["stage"])
		}
	}
}
