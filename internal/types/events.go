package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventMediaConfirmed EventType = "media.confirmed"
	EventMediaDeleted   EventType = "media.deleted"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp string    `json:"timestamp"`
}

// MediaConfirmedEvent is sent to the owner after a confirm batch created rows
type MediaConfirmedEvent struct {
	MediaIDs    []string `json:"media_ids"`
	Failed      int      `json:"failed"`
	ConfirmedAt string   `json:"confirmed_at"`
}

// MediaDeletedEvent is sent to the owner after a media item was removed
type MediaDeletedEvent struct {
	MediaID   string `json:"media_id"`
	DeletedAt string `json:"deleted_at"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data any) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
