package agent

import (
	"context"

	"github.com/google/uuid"
)

// Event types emitted by the streaming replay.
const (
	EventRunStarted   = "run_started"
	EventMessage      = "message"
	EventToolCall     = "tool_call"
	EventToolResult   = "tool_result"
	EventRunCompleted = "run_completed"
)

// Message roles used in message events.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// StreamMessage is the message payload of a message event.
type StreamMessage struct {
	Role    string         `json:"role"`
	Content string         `json:"content"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// StreamToolCall describes one tool invocation in the replay.
type StreamToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// StreamToolResult carries a tool's output keyed to its call ID.
type StreamToolResult struct {
	ID     string         `json:"id"`
	Output map[string]any `json:"output"`
}

// StreamEvent is one element of the ordered event sequence. Sequence numbers
// are monotonic per run, starting at 0.
type StreamEvent struct {
	Sequence   int               `json:"sequence"`
	Event      string            `json:"event"`
	Data       map[string]any    `json:"data,omitempty"`
	Message    *StreamMessage    `json:"message,omitempty"`
	ToolCall   *StreamToolCall   `json:"tool_call,omitempty"`
	ToolResult *StreamToolResult `json:"tool_result,omitempty"`
}

// Stream runs the full chat synchronously, then replays the outcome as a
// discrete event sequence: run_started, the user's message echo, any tool
// call/result pairs, the assistant reply, and run_completed carrying the
// stage history and transition in its trailing metadata.
func (o *Orchestrator) Stream(ctx context.Context, params ChatParams) []StreamEvent {
	result := o.Chat(ctx, params)

	sequence := 0
	next := func() int {
		seq := sequence
		sequence++
		return seq
	}

	events := make([]StreamEvent, 0, 4+2*len(result.Tools))
	events = append(events, StreamEvent{
		Sequence: next(),
		Event:    EventRunStarted,
		Data:     map[string]any{"run_id": result.RunID, "stage": params.Stage},
	})
	events = append(events, StreamEvent{
		Sequence: next(),
		Event:    EventMessage,
		Message:  &StreamMessage{Role: RoleUser, Content: params.Message},
	})

	for _, tool := range result.Tools {
		toolID := uuid.NewString()
		events = append(events, StreamEvent{
			Sequence: next(),
			Event:    EventToolCall,
			ToolCall: &StreamToolCall{ID: toolID, Name: tool, Input: map[string]any{}},
		})
		if output, ok := result.ToolResults[tool]; ok {
			events = append(events, StreamEvent{
				Sequence:   next(),
				Event:      EventToolResult,
				ToolResult: &StreamToolResult{ID: toolID, Output: map[string]any{"result": output}},
			})
		}
	}

	assistantMeta := map[string]any{"source": result.Source}
	if result.ErrorCode != "" {
		assistantMeta["error"] = result.ErrorCode
	}
	events = append(events, StreamEvent{
		Sequence: next(),
		Event:    EventMessage,
		Message:  &StreamMessage{Role: RoleAssistant, Content: result.Reply, Meta: assistantMeta},
	})

	completed := map[string]any{
		"run_id":        result.RunID,
		"tool_count":    len(result.Tools),
		"stage_history": result.StageHistory,
		"transition":    result.Transition,
	}
	events = append(events, StreamEvent{
		Sequence: next(),
		Event:    EventRunCompleted,
		Data:     completed,
	})

	return events
}
