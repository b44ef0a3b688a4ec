package agent

import (
	"errors"
	"fmt"

	"journeyon_backend/internal/trips/domain"
)

// ErrUnknownStage indicates the graph was started on a stage outside the
// fixed lifecycle. It signals a programming or data error, never retried.
var ErrUnknownStage = errors.New("unknown_stage")

// Graph walks the stage handlers in canonical order starting at the
// context's stage, stopping at the first handler that does not recommend
// advancing or at a structural dead end.
type Graph struct {
	handlers map[domain.Stage]StageHandler
}

// NewGraph creates the linear stage graph over the built-in handlers.
func NewGraph() *Graph {
	return &Graph{handlers: stageHandlers}
}

// Run executes the graph and returns the ordered stage results. Given a
// valid starting stage the list is never empty: at least one handler runs.
func (g *Graph) Run(rc *Context) ([]RunResult, error) {
	index := domain.StageIndex(rc.Stage)
	if index < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, rc.Stage)
	}

	results := make([]RunResult, 0, len(domain.StageOrder)-index)
	for index < len(domain.StageOrder) {
		stage := domain.StageOrder[index]
		// Handlers observe the stage they are asked to run, even mid-loop.
		rc.Stage = stage

		result := g.handlers[stage](rc)
		results = append(results, result)

		if !result.ShouldProceed {
			break
		}
		if result.NextStage == nil {
			break
		}
		nextIndex := domain.StageIndex(*result.NextStage)
		if nextIndex < 0 || nextIndex <= index {
			break
		}

		index = nextIndex
		// The advance intent is consumed exactly once per run: a single
		// confirmation moves the trip one stage, never two.
		rc.AdvanceStage = false
	}

	return results, nil
}
