package domain

import "testing"

func TestParseStage(t *testing.T) {
	for _, raw := range []string{"pre", "on", "post"} {
		stage, err := ParseStage(raw)
		if err != nil {
			t.Fatalf("ParseStage(%q) returned error: %v", raw, err)
		}
		if string(stage) != raw {
			t.Fatalf("ParseStage(%q) = %q", raw, stage)
		}
	}

	for _, raw := range []string{"", "during", "PRE", "pre ", "done"} {
		if _, err := ParseStage(raw); err == nil {
			t.Fatalf("ParseStage(%q) should have failed", raw)
		}
	}
}

func TestStageIndexFollowsOrder(t *testing.T) {
	if StageIndex(StagePre) != 0 || StageIndex(StageOn) != 1 || StageIndex(StagePost) != 2 {
		t.Fatal("stage indices do not match the canonical order")
	}
	if StageIndex(Stage("during")) != -1 {
		t.Fatal("unknown stage must have index -1")
	}
}

func TestNextStage(t *testing.T) {
	tests := []struct {
		stage Stage
		next  Stage
		ok    bool
	}{
		{StagePre, StageOn, true},
		{StageOn, StagePost, true},
		{StagePost, "", false},
		{Stage("during"), "", false},
	}
	for _, tc := range tests {
		next, ok := NextStage(tc.stage)
		if ok != tc.ok || next != tc.next {
			t.Errorf("NextStage(%q) = (%q, %v), want (%q, %v)", tc.stage, next, ok, tc.next, tc.ok)
		}
	}
}

func TestValidateStatusTransition(t *testing.T) {
	tests := []struct {
		name    string
		current string
		next    string
		blocked bool
	}{
		{"pending to in_progress", StatusPending, StatusInProgress, false},
		{"in_progress to completed", StatusInProgress, StatusCompleted, false},
		{"same status pending", StatusPending, StatusPending, false},
		{"same status completed", StatusCompleted, StatusCompleted, false},
		{"empty treated as pending", "", StatusInProgress, false},
		{"pending skips to completed", StatusPending, StatusCompleted, true},
		{"completed is terminal", StatusCompleted, StatusInProgress, true},
		{"completed back to pending", StatusCompleted, StatusPending, true},
		{"in_progress back to pending", StatusInProgress, StatusPending, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reason := ValidateStatusTransition(tc.current, tc.next)
			if tc.blocked && reason == "" {
				t.Fatalf("transition %q -> %q should be blocked", tc.current, tc.next)
			}
			if !tc.blocked && reason != "" {
				t.Fatalf("transition %q -> %q blocked: %s", tc.current, tc.next, reason)
			}
		})
	}
}
