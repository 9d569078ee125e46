package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// CreateReopenRequest payload.
type CreateReopenRequest struct {
	Reason string `json:"reason"`
}

// ReviewReopenRequest payload.
type ReviewReopenRequest struct {
	Decision domain.ReopenStatus `json:"decision"`
	Notes    string              `json:"notes"`
}

// ReopenRequestResponse response.
type ReopenRequestResponse struct {
	ID                string              `json:"id"`
	TicketID          string              `json:"ticket_id"`
	RequestedByUserID string              `json:"requested_by_user_id"`
	ClientReason      string              `json:"client_reason"`
	Status            domain.ReopenStatus `json:"status"`
	ReviewedByUserID  *string             `json:"reviewed_by_user_id"`
	ReviewNotes       *string             `json:"review_notes"`
	ReviewedAt        *time.Time          `json:"reviewed_at"`
	CreatedAt         time.Time           `json:"created_at"`
}

// NewReopenRequestResponse maps a domain reopen request.
func NewReopenRequestResponse(r *domain.ReopenRequest) ReopenRequestResponse {
	return ReopenRequestResponse{
		ID:                r.ID,
		TicketID:          r.TicketID,
		RequestedByUserID: r.RequestedByUserID,
		ClientReason:      r.ClientReason,
		Status:            r.Status,
		ReviewedByUserID:  r.ReviewedByUserID,
		ReviewNotes:       r.ReviewNotes,
		ReviewedAt:        r.ReviewedAt,
		CreatedAt:         r.CreatedAt,
	}
}
