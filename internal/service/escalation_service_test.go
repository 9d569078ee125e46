package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/escalation"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

type escalationFixture struct {
	tickets    *fakeTicketRepo
	notifier   *fakeNotifier
	dispatcher events.Dispatcher
	published  *[]events.Event
	svc        *EscalationService
	clock      *time.Time
}

func newEscalationFixture(t *testing.T, start time.Time) *escalationFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	notifier := &fakeNotifier{}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())

	var published []events.Event
	dispatcher.Subscribe(events.EventAlertLevelChanged, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	svc := NewEscalationService(EscalationDependencies{
		TicketRepo: tickets,
		Notifier:   notifier,
		Dispatcher: dispatcher,
		Thresholds: escalation.DefaultThresholds(),
		Logger:     zap.NewNop(),
		Metrics:    observability.NewMetrics(),
	})
	clock := start
	svc.now = func() time.Time { return clock }

	return &escalationFixture{
		tickets:    tickets,
		notifier:   notifier,
		dispatcher: dispatcher,
		published:  &published,
		svc:        svc,
		clock:      &clock,
	}
}

func (f *escalationFixture) advanceTo(t time.Time) { *f.clock = t }

func TestEscalation_LifecycleWalk(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	f := newEscalationFixture(t, t0)

	ticket := f.tickets.add(&domain.Ticket{
		TenantID:        "tenant-1",
		Title:           "printer down",
		Status:          domain.TicketStatusPending,
		AlertLevel:      domain.AlertLevelGreen,
		CreatedByUserID: "client-1",
		CreatedAt:       t0,
		Active:          true,
	})

	// 4 minutes in: orange, but nobody assigned so nobody is notified.
	f.advanceTo(t0.Add(4 * time.Minute))
	stats := f.svc.RunSweep(context.Background())
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 0, stats.Notified)

	got, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertLevelOrange, got.AlertLevel)
	assert.Empty(t, f.notifier.sent)

	// assign an employee
	employeeID := "emp-1"
	got.AssignedEmployeeID = &employeeID
	require.NoError(t, f.tickets.Update(context.Background(), got))

	// 6 minutes in: red, the assignee gets an urgent notification.
	f.advanceTo(t0.Add(6 * time.Minute))
	stats = f.svc.RunSweep(context.Background())
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Notified)

	got, err = f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertLevelRed, got.AlertLevel)

	sent := f.notifier.sentTo(employeeID)
	require.Len(t, sent, 1)
	assert.Equal(t, domain.NotificationPriorityUrgent, sent[0].Input.Priority)
	assert.Equal(t, domain.NotificationTypeAlertEscalated, sent[0].Input.Type)

	assert.Len(t, *f.published, 2)
}

func TestEscalation_SweepIsIdempotent(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	f := newEscalationFixture(t, t0)

	employeeID := "emp-1"
	f.tickets.add(&domain.Ticket{
		TenantID:           "tenant-1",
		Title:              "vpn flaky",
		Status:             domain.TicketStatusInProgress,
		AlertLevel:         domain.AlertLevelGreen,
		AssignedEmployeeID: &employeeID,
		CreatedByUserID:    "client-1",
		CreatedAt:          t0,
		Active:             true,
	})

	f.advanceTo(t0.Add(2 * time.Minute))
	first := f.svc.RunSweep(context.Background())
	assert.Equal(t, 1, first.Updated)
	assert.Equal(t, 1, first.Notified)

	second := f.svc.RunSweep(context.Background())
	assert.Equal(t, 1, second.Scanned)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 0, second.Notified)
	assert.Len(t, f.notifier.sentTo(employeeID), 1)
}

func TestEscalation_ReopenedEpochRestartsClock(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	f := newEscalationFixture(t, t0)

	reopenedAt := t0.Add(59 * time.Minute)
	ticket := f.tickets.add(&domain.Ticket{
		TenantID:        "tenant-1",
		Title:           "old but reopened",
		Status:          domain.TicketStatusInProgress,
		AlertLevel:      domain.AlertLevelGreen,
		CreatedByUserID: "client-1",
		CreatedAt:       t0,
		ReopenedAt:      &reopenedAt,
		Active:          true,
	})

	// an hour after creation, but under a minute after the reopen
	f.advanceTo(t0.Add(60 * time.Minute))
	stats := f.svc.RunSweep(context.Background())
	assert.Equal(t, 0, stats.Updated)

	got, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertLevelGreen, got.AlertLevel)
}

func TestEscalation_ClosedTicketsUntouched(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	f := newEscalationFixture(t, t0)

	final := t0.Add(time.Minute)
	ticket := f.tickets.add(&domain.Ticket{
		TenantID:            "tenant-1",
		Title:               "done",
		Status:              domain.TicketStatusResolved,
		AlertLevel:          domain.AlertLevelYellow,
		CreatedByUserID:     "client-1",
		CreatedAt:           t0,
		FinalStateReachedAt: &final,
		Active:              true,
	})

	f.advanceTo(t0.Add(time.Hour))
	stats := f.svc.RunSweep(context.Background())
	assert.Equal(t, 0, stats.Scanned)

	got, err := f.svc.EvaluateTicket(context.Background(), "tenant-1", ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertLevelYellow, got.AlertLevel)
}

func TestEscalation_NotificationFailureDoesNotFailTicket(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	f := newEscalationFixture(t, t0)
	f.notifier.err = assert.AnError

	employeeID := "emp-1"
	ticket := f.tickets.add(&domain.Ticket{
		TenantID:           "tenant-1",
		Title:              "notify me",
		Status:             domain.TicketStatusInProgress,
		AlertLevel:         domain.AlertLevelGreen,
		AssignedEmployeeID: &employeeID,
		CreatedByUserID:    "client-1",
		CreatedAt:          t0,
		Active:             true,
	})

	f.advanceTo(t0.Add(10 * time.Minute))
	stats := f.svc.RunSweep(context.Background())
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 0, stats.Notified)
	assert.Equal(t, 0, stats.Failed)

	got, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertLevelRed, got.AlertLevel)
}

func TestEscalation_EvaluateTicketNotFound(t *testing.T) {
	f := newEscalationFixture(t, time.Now())
	_, err := f.svc.EvaluateTicket(context.Background(), "tenant-1", "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestEscalation_EvaluateTicketOtherTenantInvisible(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	f := newEscalationFixture(t, t0)

	employeeID := "emp-1"
	ticket := f.tickets.add(&domain.Ticket{
		TenantID:           "tenant-1",
		Title:              "scoped",
		Status:             domain.TicketStatusInProgress,
		AlertLevel:         domain.AlertLevelGreen,
		AssignedEmployeeID: &employeeID,
		CreatedByUserID:    "client-1",
		CreatedAt:          t0,
		Active:             true,
	})

	f.advanceTo(t0.Add(10 * time.Minute))
	_, err := f.svc.EvaluateTicket(context.Background(), "tenant-2", ticket.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	// nothing ran: no level change, no notification, no event
	got, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertLevelGreen, got.AlertLevel)
	assert.Empty(t, f.notifier.sent)
	assert.Empty(t, *f.published)
}
