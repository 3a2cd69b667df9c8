package events

import (
	"time"

	"github.com/princekumarofficial/atlasnap-service/internal/types"
	"github.com/princekumarofficial/atlasnap-service/internal/types/media"
)

// EventPublisher pushes media lifecycle events to the owner's WebSocket.
type EventPublisher struct {
	hub WebSocketHub
	now func() time.Time
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	IsUserConnected(userID string) bool
}

func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
		now: time.Now,
	}
}

// PublishMediaConfirmed tells the owner which uploads became media rows.
func (p *EventPublisher) PublishMediaConfirmed(ownerID string, result media.ConfirmResult) error {
	if !p.hub.IsUserConnected(ownerID) {
		return nil
	}

	eventData := &types.MediaConfirmedEvent{
		MediaIDs:    result.MediaIDs,
		Failed:      result.Failed,
		ConfirmedAt: p.now().UTC().Format(time.RFC3339),
	}

	p.hub.BroadcastToUser(ownerID, types.NewEvent(types.EventMediaConfirmed, eventData))
	return nil
}

func (p *EventPublisher) PublishMediaDeleted(ownerID, mediaID string) error {
	if !p.hub.IsUserConnected(ownerID) {
		return nil
	}

	eventData := &types.MediaDeletedEvent{
		MediaID:   mediaID,
		DeletedAt: p.now().UTC().Format(time.RFC3339),
	}

	p.hub.BroadcastToUser(ownerID, types.NewEvent(types.EventMediaDeleted, eventData))
	return nil
}
