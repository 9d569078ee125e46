package notify

import (
	"context"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/realtime"
)

// RealtimeChannel pushes notifications over live connections. A recipient
// without a live connection is a silent no-op, not an error.
type RealtimeChannel struct {
	registry *realtime.Registry
}

// NewRealtimeChannel constructs the provider.
func NewRealtimeChannel(registry *realtime.Registry) *RealtimeChannel {
	return &RealtimeChannel{registry: registry}
}

func (c *RealtimeChannel) Type() domain.ChannelType {
	return domain.ChannelRealtime
}

func (c *RealtimeChannel) IsEnabledFor(_ context.Context, userID string) bool {
	return c.registry.IsUserConnected(userID)
}

func (c *RealtimeChannel) Deliver(_ context.Context, userID string, n *domain.Notification) error {
	c.registry.SendToUser(userID, realtime.Event{
		Name: "notification",
		Payload: map[string]any{
			"id":       n.ID,
			"title":    n.Title,
			"message":  n.Message,
			"type":     n.Type,
			"priority": n.Priority,
		},
	})
	return nil
}
