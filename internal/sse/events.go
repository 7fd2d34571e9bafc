// Package sse streams change-feed events to clients over Server-Sent Events.
package sse

import (
	"time"

	"github.com/quillapp/quill/internal/remote"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventConnected is sent once when a stream is established.
	EventConnected EventType = "connected"
	// EventChange carries one change-feed notification.
	EventChange EventType = "change"
	// EventHeartbeat is a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event is one SSE event as sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Type      EventType `json:"type"`
}

// NewConnectedEvent builds the initial stream-established event.
func NewConnectedEvent(ownerID string) Event {
	return Event{
		Type:      EventConnected,
		Timestamp: time.Now(),
		Data:      map[string]string{"owner_id": ownerID},
	}
}

// NewChangeEvent wraps a change-feed notification.
func NewChangeEvent(change remote.Change) Event {
	return Event{
		Type:      EventChange,
		Timestamp: time.Now(),
		Data:      change,
	}
}

// NewHeartbeatEvent builds a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
	}
}
