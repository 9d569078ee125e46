package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/escalation"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// Notifier is the dispatch entry point consumed by the lifecycle services.
type Notifier interface {
	SendToUser(ctx context.Context, userID, tenantID string, input NotificationInput) (*domain.Notification, error)
}

// SweepStats aggregates one re-scan tick.
type SweepStats struct {
	Scanned  int
	Updated  int
	Notified int
	Failed   int
}

// EscalationService re-evaluates open tickets against the time-driven
// severity thresholds and triggers persistence, room broadcasts and
// assignee notifications on level changes.
type EscalationService struct {
	tickets    repository.TicketRepository
	notifier   Notifier
	dispatcher events.Dispatcher
	thresholds escalation.Thresholds
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// EscalationDependencies bundles collaborators.
type EscalationDependencies struct {
	TicketRepo repository.TicketRepository
	Notifier   Notifier
	Dispatcher events.Dispatcher
	Thresholds escalation.Thresholds
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewEscalationService creates the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	return &EscalationService{
		tickets:    deps.TicketRepo,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		thresholds: deps.Thresholds,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        time.Now,
	}
}

// RunSweep evaluates every open active ticket once. A failure on one
// ticket is logged and skipped; it never aborts the remaining tickets.
func (s *EscalationService) RunSweep(ctx context.Context) SweepStats {
	start := s.now()
	var stats SweepStats

	tickets, err := s.tickets.ListOpenActive(ctx)
	if err != nil {
		s.logger.Error("escalation sweep: listing open tickets failed", zap.Error(err))
		s.metrics.RecordSweep(true)
		return stats
	}

	for i := range tickets {
		stats.Scanned++
		updated, notified, err := s.evaluate(ctx, &tickets[i])
		if err != nil {
			stats.Failed++
			s.logger.Warn("escalation sweep: ticket evaluation failed",
				zap.String("ticket_id", tickets[i].ID),
				zap.Error(err))
			continue
		}
		if updated {
			stats.Updated++
		}
		if notified {
			stats.Notified++
		}
	}

	s.logger.Info("escalation sweep complete",
		zap.Int("scanned", stats.Scanned),
		zap.Int("updated", stats.Updated),
		zap.Int("notified", stats.Notified),
		zap.Int("failed", stats.Failed),
		zap.Duration("duration", s.now().Sub(start)))
	s.metrics.RecordSweep(stats.Failed > 0)
	return stats
}

// EvaluateTicket is the idempotent forced re-run for a single ticket,
// exposed as an ops hook. The tenant check runs before any side effect;
// closed or inactive tickets are returned untouched.
func (s *EscalationService) EvaluateTicket(ctx context.Context, tenantID, ticketID string) (*domain.Ticket, error) {
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
	if !ticket.IsOpen() {
		return ticket, nil
	}
	if _, _, err := s.evaluate(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// evaluate derives the level for one ticket and applies side effects on a
// change. Levels only move forward here; they reset solely through an
// approved reopen, which restarts the escalation epoch.
func (s *EscalationService) evaluate(ctx context.Context, ticket *domain.Ticket) (updated, notified bool, err error) {
	elapsed := s.now().Sub(ticket.EscalationEpoch())
	newLevel := escalation.LevelFor(elapsed, s.thresholds)
	if !escalation.IsEscalation(ticket.AlertLevel, newLevel) {
		return false, false, nil
	}

	if err := s.tickets.UpdateAlertLevel(ctx, ticket.ID, newLevel); err != nil {
		return false, false, err
	}
	oldLevel := ticket.AlertLevel
	ticket.AlertLevel = newLevel

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventAlertLevelChanged,
			TicketID:  ticket.ID,
			TenantID:  ticket.TenantID,
			Timestamp: s.now(),
			Payload: events.AlertLevelChangedPayload{
				OldLevel: oldLevel,
				NewLevel: newLevel,
				Elapsed:  elapsed.Round(time.Second).String(),
			},
		})
	}

	if ticket.AssignedEmployeeID == nil || newLevel == domain.AlertLevelGreen {
		return true, false, nil
	}

	_, sendErr := s.notifier.SendToUser(ctx, *ticket.AssignedEmployeeID, ticket.TenantID, NotificationInput{
		Title:    fmt.Sprintf("Ticket escalated to %s", newLevel),
		Message:  fmt.Sprintf("Ticket %q has been waiting %s and is now %s.", ticket.Title, elapsed.Round(time.Minute), newLevel),
		Type:     domain.NotificationTypeAlertEscalated,
		Priority: escalation.PriorityFor(newLevel),
		Metadata: map[string]any{
			"ticket_id":   ticket.ID,
			"alert_level": string(newLevel),
		},
	})
	if sendErr != nil {
		s.logger.Warn("escalation notification dispatch failed",
			zap.String("ticket_id", ticket.ID),
			zap.String("employee_id", *ticket.AssignedEmployeeID),
			zap.Error(sendErr))
		return true, false, nil
	}
	return true, true, nil
}
