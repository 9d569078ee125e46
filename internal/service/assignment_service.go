package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// AssignmentService picks the least-loaded eligible employee for a tenant.
// The pick is advisory: no capacity is reserved, so concurrent ticket
// creation bursts may route two tickets to the same employee. That race is
// an accepted load-balancing heuristic, not a correctness violation.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// LeastLoaded returns the eligible employee with the fewest open tickets,
// or nil when the tenant has no eligible employees. Candidates arrive in
// deterministic order (created_at, id) and ties go to the first discovered.
func (s *AssignmentService) LeastLoaded(ctx context.Context, tenantID string) (*string, error) {
	candidates, err := s.users.ListAssignable(ctx, tenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	workloads, err := s.workloads(ctx, candidates)
	if err != nil {
		return nil, err
	}
	best := workloads[0]
	for _, w := range workloads[1:] {
		if w.OpenCount < best.OpenCount {
			best = w
		}
	}
	return &best.EmployeeID, nil
}

// workloads derives the open-ticket count for each candidate, preserving
// candidate order.
func (s *AssignmentService) workloads(ctx context.Context, candidates []domain.User) ([]domain.EmployeeWorkload, error) {
	result := make([]domain.EmployeeWorkload, 0, len(candidates))
	for i := range candidates {
		count, err := s.tickets.CountOpenAssigned(ctx, candidates[i].ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		result = append(result, domain.EmployeeWorkload{
			EmployeeID: candidates[i].ID,
			OpenCount:  count,
		})
	}
	return result, nil
}

// AutoAssign applies the least-loaded pick to an unassigned ticket and
// publishes a ticket-assigned event. A tenant with no eligible employees
// leaves the ticket unassigned without error.
func (s *AssignmentService) AutoAssign(ctx context.Context, tenantID, ticketID string) (*domain.Ticket, error) {
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
	if ticket.AssignedEmployeeID != nil {
		return ticket, nil
	}

	employeeID, err := s.LeastLoaded(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if employeeID == nil {
		s.logger.Info("no eligible employees for auto-assignment",
			zap.String("tenant_id", tenantID),
			zap.String("ticket_id", ticketID))
		return ticket, nil
	}

	ticket.AssignedEmployeeID = employeeID
	if ticket.Status == domain.TicketStatusPending {
		ticket.Status = domain.TicketStatusInProgress
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketAssigned,
			TicketID:  ticket.ID,
			TenantID:  ticket.TenantID,
			Timestamp: time.Now(),
			Payload:   events.TicketAssignedPayload{AssignedEmployeeID: *employeeID},
		})
	}
	return ticket, nil
}
