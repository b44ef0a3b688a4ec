package agent

import (
	"context"
	"testing"

	"journeyon_backend/internal/trips/domain"
	"journeyon_backend/internal/trips/repository"
)

func TestStreamEventOrderAndSequencing(t *testing.T) {
	orch, _ := newTestOrchestrator(&fakeTripStore{trip: activeTrip()}, &fakeAdvancer{}, nil)

	evts := orch.Stream(context.Background(), ChatParams{TripID: 7, UserID: 3, Stage: "pre", Message: "帮我规划行程"})

	wantOrder := []string{EventRunStarted, EventMessage, EventMessage, EventRunCompleted}
	if len(evts) != len(wantOrder) {
		t.Fatalf("got %d events, want %d", len(evts), len(wantOrder))
	}
	for i, e := range evts {
		if e.Event != wantOrder[i] {
			t.Fatalf("event[%d] = %s, want %s", i, e.Event, wantOrder[i])
		}
		if e.Sequence != i {
			t.Fatalf("event[%d] sequence = %d, want %d", i, e.Sequence, i)
		}
	}

	if evts[1].Message == nil || evts[1].Message.Role != RoleUser || evts[1].Message.Content != "帮我规划行程" {
		t.Fatalf("second event must echo the user message, got %+v", evts[1].Message)
	}
	if evts[2].Message == nil || evts[2].Message.Role != RoleAssistant || evts[2].Message.Content == "" {
		t.Fatalf("third event must carry the assistant reply, got %+v", evts[2].Message)
	}
	if evts[2].Message.Meta["source"] != "agent" {
		t.Fatalf("assistant meta source = %v, want agent", evts[2].Message.Meta["source"])
	}

	runID := evts[0].Data["run_id"]
	if runID == "" || runID != evts[len(evts)-1].Data["run_id"] {
		t.Fatal("run_started and run_completed must share the run id")
	}
	if evts[0].Data["stage"] != "pre" {
		t.Fatalf("run_started stage = %v, want pre", evts[0].Data["stage"])
	}
}

func TestStreamCompletionCarriesTransition(t *testing.T) {
	advancer := &fakeAdvancer{result: repository.AdvanceResult{
		FromStage:     domain.StagePre,
		Updated:       true,
		StageStatuses: map[string]string{"pre": "completed", "on": "in_progress", "post": "pending"},
	}}
	orch, _ := newTestOrchestrator(&fakeTripStore{trip: activeTrip()}, advancer, nil)

	evts := orch.Stream(context.Background(), ChatParams{TripID: 7, UserID: 3, Stage: "pre", Message: "确认"})

	last := evts[len(evts)-1]
	if last.Event != EventRunCompleted {
		t.Fatalf("last event = %s, want run_completed", last.Event)
	}
	transition, ok := last.Data["transition"].(*Transition)
	if !ok || transition == nil || transition.ToStage != "on" {
		t.Fatalf("run_completed transition = %v, want committed pre->on", last.Data["transition"])
	}
	history, ok := last.Data["stage_history"].([]RunResult)
	if !ok || len(history) != 2 {
		t.Fatalf("run_completed stage_history = %v, want two entries", last.Data["stage_history"])
	}
	if last.Data["tool_count"] != 0 {
		t.Fatalf("tool_count = %v, want 0", last.Data["tool_count"])
	}
}

func TestStreamErrorRunStillTerminates(t *testing.T) {
	orch, _ := newTestOrchestrator(&fakeTripStore{trip: activeTrip()}, &fakeAdvancer{}, nil)

	evts := orch.Stream(context.Background(), ChatParams{TripID: 7, UserID: 3, Stage: "nowhere", Message: "hi"})

	if evts[0].Event != EventRunStarted || evts[len(evts)-1].Event != EventRunCompleted {
		t.Fatal("even a failed run must be framed by run_started and run_completed")
	}
	var assistant *StreamMessage
	for _, e := range evts {
		if e.Event == EventMessage && e.Message.Role == RoleAssistant {
			assistant = e.Message
		}
	}
	if assistant == nil || assistant.Meta["error"] != ErrCodeInvalidStage {
		t.Fatalf("assistant message must surface the error code, got %+v", assistant)
	}
}
