package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// AlertLevel is the time-derived severity semaphore for an open ticket.
type AlertLevel string

const (
	AlertLevelGreen  AlertLevel = "GREEN"
	AlertLevelYellow AlertLevel = "YELLOW"
	AlertLevelOrange AlertLevel = "ORANGE"
	AlertLevelRed    AlertLevel = "RED"
)

// Ticket is the aggregate for tenant-scoped support incidents.
type Ticket struct {
	ID                  string
	TenantID            string
	Title               string
	Description         string
	Status              TicketStatus
	AlertLevel          AlertLevel
	AssignedEmployeeID  *string
	CreatedByUserID     string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	FinalStateReachedAt *time.Time
	// ReopenedAt, when set, replaces CreatedAt as the escalation epoch.
	ReopenedAt           *time.Time
	ImageUploadEnabled   bool
	ImageUploadExpiresAt *time.Time
	Active               bool
}

// IsOpen reports whether the ticket is still being worked.
func (t *Ticket) IsOpen() bool {
	return t.Active && (t.Status == TicketStatusPending || t.Status == TicketStatusInProgress)
}

// IsTerminal reports whether the ticket has reached a final status.
func (t *Ticket) IsTerminal() bool {
	switch t.Status {
	case TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled:
		return true
	}
	return false
}

// EscalationEpoch returns the instant escalation elapsed time is measured from.
func (t *Ticket) EscalationEpoch() time.Time {
	if t.ReopenedAt != nil {
		return *t.ReopenedAt
	}
	return t.CreatedAt
}
