package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// ChatPoster is the chat collaborator surface the workflow needs.
type ChatPoster interface {
	AppendSystemMessage(ctx context.Context, ticketID, authorID, text string) error
}

// ReopenService runs the client-initiated reopen approval workflow: one
// PENDING request per ticket, reviewed by a reopen-permission holder.
// Notification fan-out is asynchronous relative to the state transition;
// the transition is committed and returned before any delivery completes.
type ReopenService struct {
	tickets    repository.TicketRepository
	reopens    repository.ReopenRequestRepository
	users      repository.UserRepository
	chat       ChatPoster
	notifier   Notifier
	dispatcher events.Dispatcher
	window     time.Duration
	minNote    int
	logger     *zap.Logger
	now        func() time.Time
	async      func(fn func())
}

// ReopenDependencies bundles collaborators.
type ReopenDependencies struct {
	TicketRepo repository.TicketRepository
	ReopenRepo repository.ReopenRequestRepository
	UserRepo   repository.UserRepository
	Chat       ChatPoster
	Notifier   Notifier
	Dispatcher events.Dispatcher
	Window     time.Duration
	MinNote    int
	Logger     *zap.Logger
}

// NewReopenService creates the service.
func NewReopenService(deps ReopenDependencies) *ReopenService {
	window := deps.Window
	if window <= 0 {
		window = 72 * time.Hour
	}
	minNote := deps.MinNote
	if minNote <= 0 {
		minNote = 10
	}
	return &ReopenService{
		tickets:    deps.TicketRepo,
		reopens:    deps.ReopenRepo,
		users:      deps.UserRepo,
		chat:       deps.Chat,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		window:     window,
		minNote:    minNote,
		logger:     deps.Logger,
		now:        time.Now,
		async:      func(fn func()) { go fn() },
	}
}

// Create files a reopen request for a terminal ticket. Only the ticket's
// original creator may request, within the configured window measured from
// the moment the final state was reached.
func (s *ReopenService) Create(ctx context.Context, ticketID, clientID, reason string) (*domain.ReopenRequest, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.CreatedByUserID != clientID {
		return nil, apperrors.NewForbidden("only the ticket creator may request a reopen")
	}
	if !ticket.IsTerminal() {
		return nil, apperrors.NewValidationError("ticket is not in a final status", map[string]any{
			"status": ticket.Status,
		})
	}
	if ticket.FinalStateReachedAt == nil {
		return nil, apperrors.NewValidationError("ticket has no final state timestamp", nil)
	}
	deadline := ticket.FinalStateReachedAt.Add(s.window)
	if s.now().After(deadline) {
		return nil, apperrors.NewValidationError("reopen window has elapsed", map[string]any{
			"deadline": deadline,
		})
	}
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("reason required", nil)
	}
	pending, err := s.reopens.HasPending(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if pending {
		return nil, apperrors.NewConflict("a pending reopen request already exists", map[string]any{
			"ticket_id": ticketID,
		})
	}

	request := &domain.ReopenRequest{
		TicketID:          ticket.ID,
		TenantID:          ticket.TenantID,
		RequestedByUserID: clientID,
		ClientReason:      strings.TrimSpace(reason),
		Status:            domain.ReopenStatusPending,
	}
	if err := s.reopens.Create(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.chat.AppendSystemMessage(ctx, ticket.ID, clientID,
		fmt.Sprintf("Reopen requested: %s", request.ClientReason)); err != nil {
		s.logger.Warn("appending reopen system message failed",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:     events.EventReopenRequested,
		TicketID: ticket.ID,
		TenantID: ticket.TenantID,
		ActorID:  &clientID,
		Payload: events.ReopenRequestedPayload{
			RequestID:         request.ID,
			RequestedByUserID: clientID,
			Reason:            request.ClientReason,
		},
	})

	s.notifyReviewersAsync(ctx, ticket, request)
	return request, nil
}

// Review settles a pending request. Approval moves the ticket back to
// IN_PROGRESS and restarts the escalation epoch; rejection requires a
// justification note and informs only the requesting client. Requests in
// another tenant are invisible to the reviewer.
func (s *ReopenService) Review(ctx context.Context, tenantID, requestID, reviewerID string, decision domain.ReopenStatus, notes string) (*domain.ReopenRequest, error) {
	request, err := s.reopens.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("reopen request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	if request.TenantID != tenantID {
		return nil, apperrors.NewNotFound("reopen request", map[string]any{"request_id": requestID})
	}
	if request.Status != domain.ReopenStatusPending {
		return nil, apperrors.NewConflict("reopen request already reviewed", map[string]any{
			"status": request.Status,
		})
	}

	allowed, err := s.users.CanReviewReopens(ctx, reviewerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !allowed {
		return nil, apperrors.NewForbidden("reviewer lacks reopen permission")
	}

	notes = strings.TrimSpace(notes)
	switch decision {
	case domain.ReopenStatusApproved:
		// approval needs no justification
	case domain.ReopenStatusRejected:
		if len(notes) < s.minNote {
			return nil, apperrors.NewValidationError("rejection requires a justification note", map[string]any{
				"min_length": s.minNote,
			})
		}
	default:
		return nil, apperrors.NewValidationError("decision must be APPROVED or REJECTED", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, request.TicketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	reviewedAt := s.now()
	request.Status = decision
	request.ReviewedByUserID = &reviewerID
	request.ReviewedAt = &reviewedAt
	if notes != "" {
		request.ReviewNotes = &notes
	}
	if err := s.reopens.Update(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}

	if decision == domain.ReopenStatusApproved {
		if err := s.applyApproval(ctx, ticket, reviewerID, reviewedAt); err != nil {
			return nil, err
		}
		s.notifyApprovalAsync(ctx, ticket, request, reviewerID)
	} else {
		s.publish(ctx, events.Event{
			Type:     events.EventReopenReviewed,
			TicketID: ticket.ID,
			TenantID: ticket.TenantID,
			ActorID:  &reviewerID,
			Payload: events.ReopenReviewedPayload{
				RequestID:        request.ID,
				Decision:         decision,
				ReviewedByUserID: reviewerID,
			},
		})
		s.notifyRejectionAsync(ctx, ticket, request, notes)
	}

	return request, nil
}

// ListByTicket returns the full reopen history of one ticket, scoped to
// the caller's tenant.
func (s *ReopenService) ListByTicket(ctx context.Context, tenantID, ticketID string) ([]domain.ReopenRequest, error) {
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
	list, err := s.reopens.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// applyApproval commits the ticket-side transition: back to IN_PROGRESS,
// final state cleared, alert level reset with a fresh escalation epoch.
func (s *ReopenService) applyApproval(ctx context.Context, ticket *domain.Ticket, reviewerID string, at time.Time) error {
	ticket.Status = domain.TicketStatusInProgress
	ticket.FinalStateReachedAt = nil
	ticket.ReopenedAt = &at
	ticket.AlertLevel = domain.AlertLevelGreen
	uploadUntil := at.Add(imageUploadWindow)
	ticket.ImageUploadEnabled = true
	ticket.ImageUploadExpiresAt = &uploadUntil
	ticket.Active = true
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return apperrors.MapError(err)
	}

	if err := s.chat.AppendSystemMessage(ctx, ticket.ID, reviewerID, "Ticket reopened after review."); err != nil {
		s.logger.Warn("appending reopened system message failed",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketReopened,
		TicketID: ticket.ID,
		TenantID: ticket.TenantID,
		ActorID:  &reviewerID,
		Payload:  events.TicketReopenedPayload{NewStatus: ticket.Status},
	})
	s.publish(ctx, events.Event{
		Type:     events.EventChatUnlocked,
		TicketID: ticket.ID,
		TenantID: ticket.TenantID,
		ActorID:  &reviewerID,
	})
	return nil
}

func (s *ReopenService) notifyReviewersAsync(ctx context.Context, ticket *domain.Ticket, request *domain.ReopenRequest) {
	detached := context.WithoutCancel(ctx)
	s.async(func() {
		reviewers, err := s.users.ListReopenReviewers(detached, ticket.TenantID)
		if err != nil {
			s.logger.Warn("listing reopen reviewers failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
			return
		}
		for _, reviewer := range reviewers {
			s.sendQuietly(detached, reviewer.ID, ticket.TenantID, NotificationInput{
				Title:    "Reopen request awaiting review",
				Message:  fmt.Sprintf("Ticket %q has a new reopen request: %s", ticket.Title, request.ClientReason),
				Type:     domain.NotificationTypeReopenRequest,
				Priority: domain.NotificationPriorityHigh,
				Metadata: map[string]any{"ticket_id": ticket.ID, "request_id": request.ID},
			})
		}
	})
}

func (s *ReopenService) notifyApprovalAsync(ctx context.Context, ticket *domain.Ticket, request *domain.ReopenRequest, reviewerID string) {
	detached := context.WithoutCancel(ctx)
	s.async(func() {
		metadata := map[string]any{"ticket_id": ticket.ID, "request_id": request.ID}

		s.sendQuietly(detached, request.RequestedByUserID, ticket.TenantID, NotificationInput{
			Title:    "Your reopen request was approved",
			Message:  fmt.Sprintf("Ticket %q is active again.", ticket.Title),
			Type:     domain.NotificationTypeReopenReviewed,
			Priority: domain.NotificationPriorityHigh,
			Metadata: metadata,
		})

		assigneeID := ""
		if ticket.AssignedEmployeeID != nil {
			assigneeID = *ticket.AssignedEmployeeID
		}
		if assigneeID != "" && assigneeID != reviewerID {
			s.sendQuietly(detached, assigneeID, ticket.TenantID, NotificationInput{
				Title:    "Assigned ticket reopened",
				Message:  fmt.Sprintf("Ticket %q was reopened after review.", ticket.Title),
				Type:     domain.NotificationTypeReopenReviewed,
				Priority: domain.NotificationPriorityNormal,
				Metadata: metadata,
			})
		}

		reviewers, err := s.users.ListReopenReviewers(detached, ticket.TenantID)
		if err != nil {
			s.logger.Warn("listing reopen reviewers failed",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
			return
		}
		for _, reviewer := range reviewers {
			if reviewer.ID == reviewerID || reviewer.ID == assigneeID {
				continue
			}
			s.sendQuietly(detached, reviewer.ID, ticket.TenantID, NotificationInput{
				Title:    "Reopen request approved",
				Message:  fmt.Sprintf("Ticket %q was reopened.", ticket.Title),
				Type:     domain.NotificationTypeReopenReviewed,
				Priority: domain.NotificationPriorityLow,
				Metadata: metadata,
			})
		}
	})
}

func (s *ReopenService) notifyRejectionAsync(ctx context.Context, ticket *domain.Ticket, request *domain.ReopenRequest, notes string) {
	detached := context.WithoutCancel(ctx)
	s.async(func() {
		s.sendQuietly(detached, request.RequestedByUserID, ticket.TenantID, NotificationInput{
			Title:    "Your reopen request was rejected",
			Message:  fmt.Sprintf("Ticket %q stays closed: %s", ticket.Title, notes),
			Type:     domain.NotificationTypeReopenReviewed,
			Priority: domain.NotificationPriorityNormal,
			Metadata: map[string]any{"ticket_id": ticket.ID, "request_id": request.ID},
		})
	})
}

// sendQuietly dispatches one notification, logging instead of propagating
// failures: deliveries never roll back a committed transition.
func (s *ReopenService) sendQuietly(ctx context.Context, userID, tenantID string, input NotificationInput) {
	if _, err := s.notifier.SendToUser(ctx, userID, tenantID, input); err != nil {
		s.logger.Warn("reopen notification dispatch failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func (s *ReopenService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
