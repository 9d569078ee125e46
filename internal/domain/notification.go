package domain

import "time"

// NotificationPriority enumerates delivery urgency.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "LOW"
	NotificationPriorityNormal NotificationPriority = "NORMAL"
	NotificationPriorityHigh   NotificationPriority = "HIGH"
	NotificationPriorityUrgent NotificationPriority = "URGENT"
)

// NotificationType categorizes what a notification is about.
type NotificationType string

const (
	NotificationTypeAlertEscalated NotificationType = "ALERT_ESCALATED"
	NotificationTypeTicketAssigned NotificationType = "TICKET_ASSIGNED"
	NotificationTypeReopenRequest  NotificationType = "REOPEN_REQUESTED"
	NotificationTypeReopenReviewed NotificationType = "REOPEN_REVIEWED"
)

// Notification is the durable in-app record persisted once per dispatch.
// Immutable after creation except for read state.
type Notification struct {
	ID              string
	RecipientUserID string
	TenantID        string
	Title           string
	Message         string
	Type            NotificationType
	Priority        NotificationPriority
	IsRead          bool
	ReadAt          *time.Time
	Metadata        map[string]any
	ActionURL       *string
	CreatedAt       time.Time
}
