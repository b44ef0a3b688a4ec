package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	adkagent "google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/google/uuid"

	"journeyon_backend/internal/trips/domain"
	"journeyon_backend/internal/trips/repository"
	"journeyon_backend/platform/ai/moonshot"
	"journeyon_backend/platform/config"
	"journeyon_backend/platform/logger"
)

const advisorSystemPrompt = "你是 JourneyOn 的旅行规划智能体，需要根据用户行程阶段提供帮助。" +
	"请结合旅行目的地、时间和预算，回复中文并给出可执行建议。"

var advisorStageLabels = map[domain.Stage]string{
	domain.StagePre:  "行前筹备",
	domain.StageOn:   "行中",
	domain.StagePost: "行后总结",
}

// TravelAdvisor enriches stage replies through a Moonshot-backed ADK agent.
// Every failure path degrades to the static stage reply; the orchestrator
// never waits past the configured timeout.
type TravelAdvisor struct {
	runner         *runner.Runner
	sessionService session.Service
	appName        string
	timeout        time.Duration
	log            *logger.Logger
}

// NewTravelAdvisor builds the advisor agent over the configured Moonshot model.
func NewTravelAdvisor(cfg config.AgentConfig, log *logger.Logger) (*TravelAdvisor, error) {
	model := moonshot.NewModel(moonshot.Config{
		APIKey:  cfg.GetMoonshotAPIKey(),
		BaseURL: cfg.GetMoonshotBaseURL(),
		Model:   cfg.GetMoonshotModel(),
	})

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "TravelAdvisor",
		Model:       model,
		Description: "Travel planning assistant that tailors stage advice to the traveller's trip.",
		Instruction: advisorSystemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("create advisor agent: %w", err)
	}

	sessionService := session.InMemoryService()
	appName := "travel_advisor"

	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("create advisor runner: %w", err)
	}

	return &TravelAdvisor{
		runner:         r,
		sessionService: sessionService,
		appName:        appName,
		timeout:        cfg.GetAdvisorTimeout(),
		log:            log,
	}, nil
}

var _ Advisor = (*TravelAdvisor)(nil)

// Enrich asks the model for a stage-aware reply. Returns the fallback and
// false on timeout or any model failure.
func (a *TravelAdvisor) Enrich(ctx context.Context, trip repository.Trip, stage domain.Stage, message, fallback string) (string, bool) {
	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	userID := fmt.Sprintf("trip-%d", trip.ID)
	sessionID := uuid.NewString()

	if _, err := a.sessionService.Create(runCtx, &session.CreateRequest{
		AppName:   a.appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		a.log.Warn("advisor session create failed", "tripId", trip.ID, "error", err)
		return fallback, false
	}
	defer func() {
		deleteReq := &session.DeleteRequest{
			AppName:   a.appName,
			UserID:    userID,
			SessionID: sessionID,
		}
		if err := a.sessionService.Delete(context.WithoutCancel(ctx), deleteReq); err != nil {
			a.log.Warn("advisor session delete failed", "tripId", trip.ID, "error", err)
		}
	}()

	output, err := a.run(runCtx, userID, sessionID, buildAdvisorPrompt(trip, stage, message))
	if err != nil {
		a.log.Warn("advisor run failed, using static reply", "tripId", trip.ID, "stage", string(stage), "error", err)
		return fallback, false
	}
	if strings.TrimSpace(output) == "" {
		return fallback, false
	}
	return output, true
}

func (a *TravelAdvisor) run(ctx context.Context, userID, sessionID string, content *genai.Content) (string, error) {
	var output string
	runConfig := adkagent.RunConfig{
		StreamingMode: adkagent.StreamingModeNone,
	}

	for event, err := range a.runner.Run(ctx, userID, sessionID, content, runConfig) {
		if err != nil {
			return "", fmt.Errorf("advisor run: %w", err)
		}
		if event.Content != nil {
			for _, part := range event.Content.Parts {
				output += part.Text
			}
		}
	}
	return output, nil
}

func buildAdvisorPrompt(trip repository.Trip, stage domain.Stage, message string) *genai.Content {
	meta := map[string]any{
		"destination": trip.Destination,
		"budget":      trip.Budget,
		"currency":    trip.Currency,
	}
	if trip.StartDate != nil {
		meta["start_date"] = trip.StartDate.Format("2006-01-02")
	}
	if trip.DurationDays != nil {
		meta["duration_days"] = *trip.DurationDays
	}

	encoded, err := json.Marshal(meta)
	if err != nil {
		encoded = []byte("{}")
	}

	prompt := fmt.Sprintf("行程信息: %s\n阶段: %s（%s）\n用户消息: %s",
		encoded, stage, advisorStageLabels[stage], message)
	return &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}
}
