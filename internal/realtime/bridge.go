package realtime

import (
	"context"

	"github.com/spec-kit/helpdesk-core/internal/events"
)

// Bridge converts domain events into ticket-room broadcasts.
type Bridge struct {
	registry *Registry
}

// NewBridge constructs the bridge.
func NewBridge(registry *Registry) *Bridge {
	return &Bridge{registry: registry}
}

// RegisterHandlers subscribes the bridge to every room-relevant event type.
func (b *Bridge) RegisterHandlers(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventAlertLevelChanged,
		events.EventTicketAssigned,
		events.EventReopenRequested,
		events.EventReopenReviewed,
		events.EventTicketReopened,
		events.EventChatUnlocked,
	} {
		dispatcher.Subscribe(eventType, b.handle)
	}
}

func (b *Bridge) handle(_ context.Context, event events.Event) error {
	b.registry.BroadcastToTicketRoom(event.TicketID, string(event.Type), event.Payload)
	return nil
}
