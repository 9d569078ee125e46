package events

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAlertLevelChanged EventType = "alert_level_changed"
	EventTicketAssigned    EventType = "ticket_assigned"
	EventReopenRequested   EventType = "reopen_requested"
	EventReopenReviewed    EventType = "reopen_reviewed"
	EventTicketReopened    EventType = "ticket_reopened"
	EventChatUnlocked      EventType = "chat_unlocked"
)

// Event represents a domain event emitted by services. Every event is
// scoped to a ticket so the realtime bridge can route it to the ticket room.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	TenantID  string      `json:"tenant_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AlertLevelChangedPayload payload.
type AlertLevelChangedPayload struct {
	OldLevel domain.AlertLevel `json:"old_level"`
	NewLevel domain.AlertLevel `json:"new_level"`
	Elapsed  string            `json:"elapsed"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedEmployeeID string `json:"assigned_employee_id"`
}

// ReopenRequestedPayload payload.
type ReopenRequestedPayload struct {
	RequestID         string `json:"request_id"`
	RequestedByUserID string `json:"requested_by_user_id"`
	Reason            string `json:"reason"`
}

// ReopenReviewedPayload payload.
type ReopenReviewedPayload struct {
	RequestID        string              `json:"request_id"`
	Decision         domain.ReopenStatus `json:"decision"`
	ReviewedByUserID string              `json:"reviewed_by_user_id"`
}

// TicketReopenedPayload payload.
type TicketReopenedPayload struct {
	NewStatus domain.TicketStatus `json:"new_status"`
}
