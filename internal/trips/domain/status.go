package domain

// Per-stage progress statuses. Progression is monotonic:
// pending -> in_progress -> completed, with completed terminal.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

var knownStatuses = map[string]struct{}{
	StatusPending:    {},
	StatusInProgress: {},
	StatusCompleted:  {},
}

// IsKnownStatus reports whether the string is a valid stage status.
func IsKnownStatus(status string) bool {
	_, ok := knownStatuses[status]
	return ok
}

// IsTerminalStatus reports whether a stage status permits no further writes.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted
}

// ValidateStatusTransition enforces the stage-status state machine. Returns a
// non-empty reason when the transition must be blocked. Same-status writes are
// permitted (idempotent no-ops); completed is terminal.
func ValidateStatusTransition(current, next string) string {
	if current == "" {
		current = StatusPending
	}
	switch {
	case current == next:
		return ""
	case current == StatusPending && next == StatusInProgress:
		return ""
	case current == StatusInProgress && next == StatusCompleted:
		return ""
	default:
		return "invalid_transition"
	}
}
