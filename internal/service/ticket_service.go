package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// TicketService covers ticket creation and status transitions. Creation
// hands off to the assignment selector; moving into a final status stamps
// the moment the reopen window starts counting from.
type TicketService struct {
	tickets  repository.TicketRepository
	assigner *AssignmentService
	logger   *zap.Logger
	now      func() time.Time
}

// NewTicketService creates the service.
func NewTicketService(tickets repository.TicketRepository, assigner *AssignmentService, logger *zap.Logger) *TicketService {
	return &TicketService{
		tickets:  tickets,
		assigner: assigner,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateTicketInput carries the client-provided fields.
type CreateTicketInput struct {
	Title       string
	Description string
}

// imageUploadWindow is how long the client may attach images after a
// ticket becomes (or returns to being) active.
const imageUploadWindow = 24 * time.Hour

// Create persists a new ticket and routes it to the least-loaded employee.
// Assignment failures degrade to an unassigned ticket; the sweep will still
// escalate it and a later manual assignment can pick it up.
func (s *TicketService) Create(ctx context.Context, tenantID, creatorID string, input CreateTicketInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	uploadUntil := s.now().Add(imageUploadWindow)
	ticket := &domain.Ticket{
		TenantID:             tenantID,
		Title:                title,
		Description:          strings.TrimSpace(input.Description),
		Status:               domain.TicketStatusPending,
		AlertLevel:           domain.AlertLevelGreen,
		CreatedByUserID:      creatorID,
		ImageUploadEnabled:   true,
		ImageUploadExpiresAt: &uploadUntil,
		Active:               true,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	assigned, err := s.assigner.AutoAssign(ctx, tenantID, ticket.ID)
	if err != nil {
		s.logger.Warn("auto-assignment failed; ticket left unassigned",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		return ticket, nil
	}
	return assigned, nil
}

// Get returns one ticket scoped to the tenant.
func (s *TicketService) Get(ctx context.Context, tenantID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.TenantID != tenantID {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

// Transition moves a ticket to the requested status. Entering a final
// status records when it happened; that timestamp anchors the reopen window.
func (s *TicketService) Transition(ctx context.Context, tenantID, ticketID string, target domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := s.Get(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == target {
		return ticket, nil
	}
	if ticket.IsTerminal() {
		return nil, apperrors.NewConflict("ticket already in a final status", map[string]any{
			"status": ticket.Status,
		})
	}
	switch target {
	case domain.TicketStatusInProgress:
		ticket.Status = target
	case domain.TicketStatusResolved, domain.TicketStatusClosed, domain.TicketStatusCancelled:
		now := s.now()
		ticket.Status = target
		ticket.FinalStateReachedAt = &now
		ticket.ImageUploadEnabled = false
		ticket.ImageUploadExpiresAt = nil
	default:
		return nil, apperrors.NewValidationError("unsupported status transition", map[string]any{
			"target": target,
		})
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}
