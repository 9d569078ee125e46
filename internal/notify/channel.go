package notify

import (
	"context"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// Channel is one notification delivery mechanism. IsEnabledFor must be
// consulted before Deliver; Deliver fails closed (nil, no send) for a
// recipient the channel cannot reach rather than returning an error.
type Channel interface {
	Type() domain.ChannelType
	IsEnabledFor(ctx context.Context, userID string) bool
	Deliver(ctx context.Context, userID string, n *domain.Notification) error
}

// UserDirectory is the slice of the user collaborator the channels need.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// PreferenceSource exposes stored per-user channel config to providers.
type PreferenceSource interface {
	ListByUser(ctx context.Context, userID string) ([]domain.ChannelPreference, error)
}

// Registry resolves a channel type to its provider instance. A plain map
// over a closed set of variants; no reflection.
type Registry struct {
	channels map[domain.ChannelType]Channel
}

// NewRegistry indexes the given providers by type.
func NewRegistry(channels ...Channel) *Registry {
	index := make(map[domain.ChannelType]Channel, len(channels))
	for _, ch := range channels {
		index[ch.Type()] = ch
	}
	return &Registry{channels: index}
}

// Resolve returns the provider for a channel type.
func (r *Registry) Resolve(t domain.ChannelType) (Channel, bool) {
	ch, ok := r.channels[t]
	return ch, ok
}

// configFor extracts one channel's stored config from a preference set.
func configFor(prefs []domain.ChannelPreference, t domain.ChannelType) map[string]string {
	for _, pref := range prefs {
		if pref.Channel == t {
			return pref.Config
		}
	}
	return nil
}
