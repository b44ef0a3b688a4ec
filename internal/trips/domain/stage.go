// Package domain provides core business rules for the trips bounded context:
// the fixed three-stage trip lifecycle and the per-stage status state machine.
package domain

import "journeyon_backend/platform/apperr"

// Stage identifies one of the three fixed phases of a trip's lifecycle.
type Stage string

const (
	StagePre  Stage = "pre"
	StageOn   Stage = "on"
	StagePost Stage = "post"
)

// StageOrder is the canonical progression. A trip only ever moves forward
// through this sequence, one step at a time.
var StageOrder = []Stage{StagePre, StageOn, StagePost}

// ParseStage validates a raw stage string.
func ParseStage(raw string) (Stage, error) {
	switch Stage(raw) {
	case StagePre, StageOn, StagePost:
		return Stage(raw), nil
	default:
		return "", apperr.BadRequest("invalid_stage")
	}
}

// StageIndex returns the position of a stage in StageOrder, or -1 when the
// stage is unknown.
func StageIndex(stage Stage) int {
	for i, s := range StageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// NextStage returns the stage after the given one, or false when the stage is
// terminal or unknown.
func NextStage(stage Stage) (Stage, bool) {
	idx := StageIndex(stage)
	if idx < 0 || idx+1 >= len(StageOrder) {
		return "", false
	}
	return StageOrder[idx+1], true
}

func (s Stage) String() string { return string(s) }
