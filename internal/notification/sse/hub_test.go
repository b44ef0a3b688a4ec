package sse

import (
	"testing"

	"journeyon_backend/platform/logger"
)

func TestPublishReachesOnlyTargetUser(t *testing.T) {
	hub := NewHub(logger.New("test"))

	alice := &client{userID: 1, events: make(chan Event, 4)}
	bob := &client{userID: 2, events: make(chan Event, 4)}
	hub.addClient(alice)
	hub.addClient(bob)

	hub.Publish(1, Event{Type: EventStageAdvanced, TripID: 9})

	select {
	case e := <-alice.events:
		if e.Type != EventStageAdvanced || e.TripID != 9 {
			t.Fatalf("unexpected event %+v", e)
		}
	default:
		t.Fatal("alice must receive the event")
	}
	select {
	case e := <-bob.events:
		t.Fatalf("bob must not receive alice's event, got %+v", e)
	default:
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(logger.New("test"))

	slow := &client{userID: 1, events: make(chan Event, 1)}
	hub.addClient(slow)

	hub.Publish(1, Event{Type: EventAgentReply})
	// Buffer is full now; this publish must not block.
	hub.Publish(1, Event{Type: EventAgentReply})

	if got := len(slow.events); got != 1 {
		t.Fatalf("buffered events = %d, want 1", got)
	}
}

func TestRemoveClientClosesChannel(t *testing.T) {
	hub := NewHub(logger.New("test"))

	c := &client{userID: 1, events: make(chan Event, 1)}
	hub.addClient(c)
	hub.removeClient(c)

	if _, open := <-c.events; open {
		t.Fatal("channel must be closed after removal")
	}
	hub.Publish(1, Event{Type: EventAgentReply})
}

func TestCloseThenStreamTeardownDoesNotPanic(t *testing.T) {
	hub := NewHub(logger.New("test"))

	a := &client{userID: 1, events: make(chan Event, 1)}
	b := &client{userID: 2, events: make(chan Event, 1)}
	hub.addClient(a)
	hub.addClient(b)

	hub.Close()

	// Each handler goroutine still runs its deferred removal after the
	// hub shut down; the channel must not be closed twice.
	hub.removeClient(a)
	hub.removeClient(b)

	if _, open := <-a.events; open {
		t.Fatal("channel must be closed after hub shutdown")
	}
}

func TestRemoveClientTwiceDoesNotPanic(t *testing.T) {
	hub := NewHub(logger.New("test"))

	c := &client{userID: 1, events: make(chan Event, 1)}
	hub.addClient(c)
	hub.removeClient(c)
	hub.removeClient(c)
}
