package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// NotificationResponse response.
type NotificationResponse struct {
	ID        string                      `json:"id"`
	Title     string                      `json:"title"`
	Message   string                      `json:"message"`
	Type      domain.NotificationType     `json:"type"`
	Priority  domain.NotificationPriority `json:"priority"`
	IsRead    bool                        `json:"is_read"`
	ReadAt    *time.Time                  `json:"read_at"`
	Metadata  map[string]any              `json:"metadata,omitempty"`
	ActionURL *string                     `json:"action_url,omitempty"`
	CreatedAt time.Time                   `json:"created_at"`
}

// NewNotificationResponse maps a domain notification.
func NewNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Priority:  n.Priority,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		Metadata:  n.Metadata,
		ActionURL: n.ActionURL,
		CreatedAt: n.CreatedAt,
	}
}

// UpdatePreferenceRequest payload.
type UpdatePreferenceRequest struct {
	Enabled bool              `json:"enabled"`
	Config  map[string]string `json:"config"`
}

// PreferenceResponse response.
type PreferenceResponse struct {
	Channel domain.ChannelType `json:"channel"`
	Enabled bool               `json:"enabled"`
	Config  map[string]string  `json:"config,omitempty"`
}

// NewPreferenceResponse maps a channel preference.
func NewPreferenceResponse(p *domain.ChannelPreference) PreferenceResponse {
	return PreferenceResponse{
		Channel: p.Channel,
		Enabled: p.Enabled,
		Config:  p.Config,
	}
}
