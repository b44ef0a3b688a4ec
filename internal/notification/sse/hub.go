// Package sse pushes real-time trip notifications to connected clients
// over Server-Sent Events.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"journeyon_backend/platform/logger"
)

// EventType names the notification events pushed to clients.
type EventType string

const (
	EventStageAdvanced     EventType = "stage_advanced"
	EventAgentReply        EventType = "agent_reply"
	EventReportGenerated   EventType = "report_generated"
	EventDepartureReminder EventType = "departure_reminder"
)

// Event is one notification pushed to a user's open streams.
type Event struct {
	Type    EventType `json:"type"`
	TripID  int64     `json:"trip_id,omitempty"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
}

type client struct {
	userID int64
	events chan Event
}

// Hub tracks connected clients and fans events out per user.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64][]*client
	log     *logger.Logger
}

// NewHub creates an SSE hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[int64][]*client),
		log:     log,
	}
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.userID] = append(h.clients[c.userID], c)
}

// removeClient closes the channel only when it actually removes the
// client; a client already gone from the registry was closed by Close.
func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[c.userID]
	for i, cl := range clients {
		if cl != c {
			continue
		}
		h.clients[c.userID] = append(clients[:i], clients[i+1:]...)
		if len(h.clients[c.userID]) == 0 {
			delete(h.clients, c.userID)
		}
		close(c.events)
		return
	}
}

// Publish sends an event to all open streams of one user. Slow clients
// drop events rather than block the publisher.
func (h *Hub) Publish(userID int64, event Event) {
	h.mu.RLock()
	clients := h.clients[userID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.events <- event:
		default:
			h.log.Warn("notification buffer full, dropping event", "userId", userID, "type", string(event.Type))
		}
	}
}

// Handler returns the gin handler for GET /notifications/stream.
func (h *Hub) Handler(getUserID func(*gin.Context) (int64, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			userID: userID,
			events: make(chan Event, 32),
		}
		h.addClient(cl)
		defer h.removeClient(cl)

		c.SSEvent("connected", gin.H{"user_id": userID})
		c.Writer.Flush()
		h.log.Debug("notification stream opened", "userId", userID)

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				h.log.Debug("notification stream closed", "userId", userID)
				return
			case event, open := <-cl.events:
				if !open {
					return
				}
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	h.clients = make(map[int64][]*client)
}
