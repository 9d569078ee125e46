package domain

import "time"

// ReopenStatus enumerates states of a reopen request.
type ReopenStatus string

const (
	ReopenStatusPending  ReopenStatus = "PENDING"
	ReopenStatusApproved ReopenStatus = "APPROVED"
	ReopenStatusRejected ReopenStatus = "REJECTED"
)

// ReopenRequest is a client petition to move a terminal ticket back into
// active handling. At most one PENDING request may exist per ticket.
type ReopenRequest struct {
	ID                string
	TicketID          string
	TenantID          string
	RequestedByUserID string
	ClientReason      string
	Status            ReopenStatus
	ReviewedByUserID  *string
	ReviewNotes       *string
	ReviewedAt        *time.Time
	CreatedAt         time.Time
}
