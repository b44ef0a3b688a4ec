package agent

import (
	"context"
	"errors"
	"testing"

	"journeyon_backend/internal/events"
	"journeyon_backend/internal/trips/domain"
	"journeyon_backend/internal/trips/repository"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/logger"
)

type fakeTripStore struct {
	trip repository.Trip
	err  error
}

func (f *fakeTripStore) Get(_ context.Context, tripID, userID int64) (repository.Trip, error) {
	if f.err != nil {
		return repository.Trip{}, f.err
	}
	return f.trip, nil
}

type fakeAdvancer struct {
	calls  []domain.Stage
	err    error
	result repository.AdvanceResult
}

func (f *fakeAdvancer) Advance(_ context.Context, tripID, userID int64, target domain.Stage) (repository.AdvanceResult, error) {
	f.calls = append(f.calls, target)
	if f.err != nil {
		return repository.AdvanceResult{}, f.err
	}
	res := f.result
	res.TripID = tripID
	res.ToStage = target
	return res, nil
}

type fakeAdvisor struct {
	reply string
	ok    bool
}

func (f *fakeAdvisor) Enrich(_ context.Context, _ repository.Trip, _ domain.Stage, _, fallback string) (string, bool) {
	if !f.ok {
		return fallback, false
	}
	return f.reply, true
}

// recordingBus captures published events synchronously.
type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newTestOrchestrator(store TripStore, advancer StageAdvancer, advisor Advisor) (*Orchestrator, *recordingBus) {
	bus := &recordingBus{}
	return NewOrchestrator(store, advancer, advisor, bus, logger.New("test")), bus
}

func destination(s string) *string { return &s }

func activeTrip() repository.Trip {
	return repository.Trip{ID: 7, UserID: 3, Destination: destination("Kyoto"), CurrentStage: domain.StagePre, Status: "active"}
}

func TestChatInvalidStage(t *testing.T) {
	advancer := &fakeAdvancer{}
	orch, _ := newTestOrchestrator(&fakeTripStore{trip: activeTrip()}, advancer, nil)

	res := orch.Chat(context.Background(), ChatParams{TripID: 7, UserID: 3, Stage: "during", Message: "hi"})

	if res.ErrorCode != ErrCodeInvalidStage {
		t.Fatalf("error = %q, want invalid_stage", res.ErrorCode)
	}
	if res.Reply == "" || res.RunID == "" {
		t.Fatal("error results must still carry a reply and run id")
	}
	if len(advancer.calls) != 0 {
		t.Fatal("no transition may be attempted for an invalid stage")
	}
}

func TestChatTripNotFound(t *testing.T) {
	store := &fakeTripStore{err: apperr.NotFound("trip_not_found")}
	orch, _ := newTestOrchestrator(store, &fakeAdvancer{}, nil)

	res := orch.Chat(context.Background(), ChatParams{TripID: 99, UserID: 3, Stage: "pre", Message: "hi"})

	if res.ErrorCode != ErrCodeTripNotFound {
		t.Fatalf("error = %q, want trip_not_found", res.ErrorCode)
	}
	if len(res.StageHistory) != 0 {
		t.Fatal("no stages may run when the trip lookup fails")
	}
}

func TestChatWithoutConfirmationDoesNotAdvance(t *testing.T) {
	advancer := &fakeAdvancer{}
	orch, _ := newTestOrchestrator(&fakeTripStore{trip: activeTrip()}, advancer, nil)

	res := orch.Chat(context.Background(), ChatParams{TripID: 7, UserID: 3, Stage: "pre", Message: "帮我规划行程"})

	if res.ErrorCode != "" {
		t.Fatalf("unexpected error %q", res.ErrorCode)
	}
	if res.Transition != nil {
		t.Fatal("transition must be nil without a confirmation")
	}
	if len(advancer.calls) != 0 {
		t.Fatal("advancer must not be called without a confirmation")
	}
	if len(res.StageHistory) != 1 || res.StageHistory[0].Stage != domain.StagePre {
		t.Fatalf("history = %+v, want a single pre result", res.StageHistory)
	}
	if res.Trip == nil || res.Trip.CurrentStage != "pre" {
		t.Fatal("trip snapshot must reflect the unchanged stage")
	}
	if res.Source != "agent" {
		t.Fatalf("source = %q, want agent", res.Source)
	}
}

func TestChatConfirmationCommitsOneTransition(t *testing.T) {
	advancer := &fakeAdvancer{result: repository.AdvanceResult{
		FromStage:     domain.StagePre,
		Updated:       true,
		StageStatuses: map[string]string{"pre": "completed", "on": "in_progress", "post": "pending"},
	}}
	orch, bus := newTestOrchestrator(&fakeTripStore{trip: activeTrip()}, advancer, nil)

	res := orch.Chat(context.Background(), ChatParams{TripID: 7, UserID: 3, Stage: "pre", Message: "确认"})

	if len(advancer.calls) != 1 || advancer.calls[0] != domain.StageOn {
		t.Fatalf("advancer calls = %v, want exactly [on]", advancer.calls)
	}
	if res.Transition == nil || !res.Transition.Updated || res.Transition.ToStage != "on" {
		t.Fatalf("transition = %+v, want committed pre->on", res.Transition)
	}
	if res.Trip.CurrentStage != "on" {
		t.Fatalf("trip snapshot stage = %s, want on", res.Trip.CurrentStage)
	}
	if len(res.StageHistory) != 2 {
		t.Fatalf("history length = %d, want 2 (pre then on)", len(res.StageHistory))
	}
	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want one reply event", len(bus.published))
	}
	if e, ok := bus.published[0].(events.AgentReplyProduced); !ok || !e.Transitioned {
		t.Fatalf("published = %+v, want a transitioned AgentReplyProduced", bus.published[0])
	}
}

func TestChatCommitFailureKeepsReply(t *testing.T) {
	advancer := &fakeAdvancer{err: errors.New("deadlock detected")}
	orch, _ := newTestOrchestrator(&fakeTripStore{trip: activeTrip()}, advancer, nil)

	res := orch.Chat(context.Background(), ChatParams{TripID: 7, UserID: 3, Stage: "pre", Message: "确认"})

	if res.ErrorCode != "" {
		t.Fatalf("a failed commit must not turn the run into an error, got %q", res.ErrorCode)
	}
	if res.Transition != nil {
		t.Fatal("transition must be nil when the commit fails")
	}
	if res.Reply == "" || len(res.StageHistory) != 2 {
		t.Fatal("the graph reply must survive a failed commit")
	}
	if res.Trip.CurrentStage != "pre" {
		t.Fatal("trip snapshot must keep the pre-commit stage when the commit fails")
	}
}

func TestChatAdvisorEnrichesReply(t *testing.T) {
	advisor := &fakeAdvisor{reply: "详细的京都三日行程建议", ok: true}
	orch, _ := newTestOrchestrator(&fakeTripStore{trip: activeTrip()}, &fakeAdvancer{}, advisor)

	res := orch.Chat(context.Background(), ChatParams{TripID: 7, UserID: 3, Stage: "pre", Message: "帮我规划"})

	if res.Reply != advisor.reply {
		t.Fatalf("reply = %q, want the enriched advisor text", res.Reply)
	}
	if res.Source != "llm" {
		t.Fatalf("source = %q, want llm", res.Source)
	}
}

func TestChatAdvisorFallbackKeepsHandlerReply(t *testing.T) {
	orch, _ := newTestOrchestrator(&fakeTripStore{trip: activeTrip()}, &fakeAdvancer{}, &fakeAdvisor{ok: false})

	res := orch.Chat(context.Background(), ChatParams{TripID: 7, UserID: 3, Stage: "pre", Message: "帮我规划"})

	if res.Source != "agent" {
		t.Fatalf("source = %q, want agent when the advisor declines", res.Source)
	}
	if res.Reply == "" {
		t.Fatal("the handler reply must remain")
	}
}
