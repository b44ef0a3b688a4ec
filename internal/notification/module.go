// Package notification streams trip lifecycle events to connected clients.
package notification

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"journeyon_backend/internal/events"
	apphttp "journeyon_backend/internal/http"
	"journeyon_backend/internal/notification/sse"
	"journeyon_backend/platform/httpkit"
	"journeyon_backend/platform/logger"
)

// Module bridges the event bus to per-user SSE streams.
type Module struct {
	hub *sse.Hub
	log *logger.Logger
}

var _ apphttp.Module = (*Module)(nil)

// NewModule wires the notification module and subscribes it to the
// lifecycle events it forwards.
func NewModule(bus events.Bus, log *logger.Logger) *Module {
	m := &Module{
		hub: sse.NewHub(log),
		log: log,
	}

	bus.Subscribe(events.TripStageAdvanced{}.EventName(), events.HandlerFunc(m.onStageAdvanced))
	bus.Subscribe(events.AgentReplyProduced{}.EventName(), events.HandlerFunc(m.onAgentReply))
	bus.Subscribe(events.TripReportGenerated{}.EventName(), events.HandlerFunc(m.onReportGenerated))
	bus.Subscribe(events.DepartureReminderDue{}.EventName(), events.HandlerFunc(m.onDepartureReminder))

	return m
}

// Name returns the module name.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes mounts the SSE stream endpoint. Token auth also accepts
// the query parameter form used by EventSource clients.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/notifications/stream", m.hub.Handler(func(c *gin.Context) (int64, bool) {
		identity := httpkit.GetIdentity(c)
		if !identity.IsAuthenticated() {
			return 0, false
		}
		return identity.UserID(), true
	}))
}

// Hub exposes the SSE hub for shutdown.
func (m *Module) Hub() *sse.Hub { return m.hub }

func (m *Module) onStageAdvanced(_ context.Context, event events.Event) error {
	e, ok := event.(events.TripStageAdvanced)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventName())
	}
	m.hub.Publish(e.UserID, sse.Event{
		Type:    sse.EventStageAdvanced,
		TripID:  e.TripID,
		Message: fmt.Sprintf("行程已进入 %s 阶段", e.ToStage),
		Data:    gin.H{"from_stage": e.FromStage, "to_stage": e.ToStage},
	})
	return nil
}

func (m *Module) onAgentReply(_ context.Context, event events.Event) error {
	e, ok := event.(events.AgentReplyProduced)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventName())
	}
	m.hub.Publish(e.UserID, sse.Event{
		Type:   sse.EventAgentReply,
		TripID: e.TripID,
		Data:   gin.H{"run_id": e.RunID, "stage": e.Stage, "transitioned": e.Transitioned},
	})
	return nil
}

func (m *Module) onReportGenerated(_ context.Context, event events.Event) error {
	e, ok := event.(events.TripReportGenerated)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventName())
	}
	m.hub.Publish(e.UserID, sse.Event{
		Type:    sse.EventReportGenerated,
		TripID:  e.TripID,
		Message: "行程报告已生成",
		Data:    gin.H{"report_id": e.ReportID},
	})
	return nil
}

func (m *Module) onDepartureReminder(_ context.Context, event events.Event) error {
	e, ok := event.(events.DepartureReminderDue)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventName())
	}
	m.hub.Publish(e.UserID, sse.Event{
		Type:    sse.EventDepartureReminder,
		TripID:  e.TripID,
		Message: fmt.Sprintf("您前往 %s 的行程即将出发", e.Destination),
		Data:    gin.H{"departure_date": e.DepartureDate},
	})
	return nil
}
