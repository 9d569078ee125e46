package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TransitionTicketRequest payload for status changes.
type TransitionTicketRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// TicketResponse response.
type TicketResponse struct {
	ID                  string              `json:"id"`
	TenantID            string              `json:"tenant_id"`
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	Status              domain.TicketStatus `json:"status"`
	AlertLevel          domain.AlertLevel   `json:"alert_level"`
	AssignedEmployeeID  *string             `json:"assigned_employee_id"`
	CreatedByUserID     string              `json:"created_by_user_id"`
	FinalStateReachedAt *time.Time          `json:"final_state_reached_at"`
	ReopenedAt          *time.Time          `json:"reopened_at"`
	ImageUploadEnabled  bool                `json:"image_upload_enabled"`
	ImageUploadUntil    *time.Time          `json:"image_upload_expires_at"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// TicketMessageResponse represents one thread entry.
type TicketMessageResponse struct {
	ID         string                   `json:"id"`
	AuthorType domain.MessageAuthorType `json:"author_type"`
	AuthorID   *string                  `json:"author_id"`
	Body       string                   `json:"body"`
	CreatedAt  time.Time                `json:"created_at"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body string `json:"body"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                  t.ID,
		TenantID:            t.TenantID,
		Title:               t.Title,
		Description:         t.Description,
		Status:              t.Status,
		AlertLevel:          t.AlertLevel,
		AssignedEmployeeID:  t.AssignedEmployeeID,
		CreatedByUserID:     t.CreatedByUserID,
		FinalStateReachedAt: t.FinalStateReachedAt,
		ReopenedAt:          t.ReopenedAt,
		ImageUploadEnabled:  t.ImageUploadEnabled,
		ImageUploadUntil:    t.ImageUploadExpiresAt,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

// NewTicketMessageResponse maps a domain message.
func NewTicketMessageResponse(m *domain.TicketMessage) TicketMessageResponse {
	return TicketMessageResponse{
		ID:         m.ID,
		AuthorType: m.AuthorType,
		AuthorID:   m.AuthorID,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
	}
}
