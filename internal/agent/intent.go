package agent

import (
	"strings"

	"journeyon_backend/internal/trips/domain"
)

// Substrings that signal confirmation anywhere in the message.
var advanceSubstrings = []string{
	"确认",
	"下一阶段",
	"confirm",
	"next stage",
	"proceed",
}

// Exact (whole-message) affirmatives after normalization.
var advanceExact = map[string]struct{}{
	"yes":  {},
	"ok":   {},
	"next": {},
	"y":    {},
}

// ShouldAdvance decides whether a free-text message asks to move the trip to
// its next stage. It is deliberately a simple keyword heuristic, not NLU.
// At the post stage it is always false: there is nothing to advance to.
func ShouldAdvance(message string, stage domain.Stage) bool {
	if stage == domain.StagePost {
		return false
	}

	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return false
	}
	if _, ok := advanceExact[normalized]; ok {
		return true
	}
	for _, keyword := range advanceSubstrings {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}
