package agent

import (
	"testing"

	"journeyon_backend/internal/trips/domain"
)

func TestShouldAdvance(t *testing.T) {
	tests := []struct {
		name    string
		message string
		stage   domain.Stage
		want    bool
	}{
		{"chinese confirm", "确认，出发！", domain.StagePre, true},
		{"chinese next stage", "进入下一阶段吧", domain.StageOn, true},
		{"english confirm substring", "I confirm the plan", domain.StagePre, true},
		{"english next stage phrase", "let's go to the NEXT STAGE", domain.StageOn, true},
		{"proceed substring", "please proceed", domain.StagePre, true},
		{"exact yes", "yes", domain.StagePre, true},
		{"exact yes padded", "  YES  ", domain.StagePre, true},
		{"exact ok", "ok", domain.StageOn, true},
		{"exact next", "next", domain.StageOn, true},
		{"exact y", "y", domain.StagePre, true},
		{"exact word embedded is not a match", "the sky is yellow", domain.StagePre, false},
		{"plain question", "帮我看看行程安排", domain.StagePre, false},
		{"empty message", "", domain.StagePre, false},
		{"post never advances", "确认", domain.StagePost, false},
		{"post exact never advances", "yes", domain.StagePost, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldAdvance(tt.message, tt.stage); got != tt.want {
				t.Fatalf("ShouldAdvance(%q, %s) = %v, want %v", tt.message, tt.stage, got, tt.want)
			}
		})
	}
}
