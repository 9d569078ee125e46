package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
)

func newAssignmentFixture(workloads map[string]int) (*AssignmentService, *fakeTicketRepo, events.Dispatcher) {
	tickets := newFakeTicketRepo()
	var users []domain.User
	i := 0
	for _, id := range sortedKeys(workloads) {
		users = append(users, domain.User{
			ID:        id,
			TenantID:  "tenant-1",
			Active:    true,
			CreatedAt: time.Unix(int64(i), 0),
		})
		i++
		for j := 0; j < workloads[id]; j++ {
			employeeID := id
			tickets.add(&domain.Ticket{
				TenantID:           "tenant-1",
				Title:              fmt.Sprintf("open %s %d", id, j),
				Status:             domain.TicketStatusInProgress,
				AssignedEmployeeID: &employeeID,
				CreatedByUserID:    "client-1",
				Active:             true,
			})
		}
	}

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	svc := NewAssignmentService(AssignmentDependencies{
		TicketRepo: tickets,
		UserRepo:   &fakeUserRepo{users: users},
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
	return svc, tickets, dispatcher
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	return keys
}

func TestLeastLoaded_PicksFewestOpenTickets(t *testing.T) {
	svc, _, _ := newAssignmentFixture(map[string]int{"emp-a": 3, "emp-b": 1, "emp-c": 2})

	got, err := svc.LeastLoaded(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "emp-b", *got)
}

func TestLeastLoaded_TieGoesToFirstDiscovered(t *testing.T) {
	svc, _, _ := newAssignmentFixture(map[string]int{"emp-a": 1, "emp-b": 1})

	got, err := svc.LeastLoaded(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "emp-a", *got)
}

func TestLeastLoaded_NoEligibleEmployees(t *testing.T) {
	svc, _, _ := newAssignmentFixture(map[string]int{})

	got, err := svc.LeastLoaded(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLeastLoaded_ResolvedTicketsDoNotCount(t *testing.T) {
	svc, tickets, _ := newAssignmentFixture(map[string]int{"emp-a": 0, "emp-b": 0})

	// emp-a carries only closed work, which must not count against them
	employeeID := "emp-a"
	final := time.Now()
	tickets.add(&domain.Ticket{
		TenantID:            "tenant-1",
		Title:               "finished",
		Status:              domain.TicketStatusResolved,
		AssignedEmployeeID:  &employeeID,
		CreatedByUserID:     "client-1",
		FinalStateReachedAt: &final,
		Active:              true,
	})

	got, err := svc.LeastLoaded(context.Background(), "tenant-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "emp-a", *got)
}

func TestAutoAssign_AssignsAndStartsProgress(t *testing.T) {
	svc, tickets, dispatcher := newAssignmentFixture(map[string]int{"emp-a": 2, "emp-b": 0})

	var assigned []string
	dispatcher.Subscribe(events.EventTicketAssigned, func(_ context.Context, e events.Event) error {
		payload := e.Payload.(events.TicketAssignedPayload)
		assigned = append(assigned, payload.AssignedEmployeeID)
		return nil
	})

	ticket := tickets.add(&domain.Ticket{
		TenantID:        "tenant-1",
		Title:           "fresh",
		Status:          domain.TicketStatusPending,
		CreatedByUserID: "client-1",
		Active:          true,
	})

	got, err := svc.AutoAssign(context.Background(), "tenant-1", ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedEmployeeID)
	assert.Equal(t, "emp-b", *got.AssignedEmployeeID)
	assert.Equal(t, domain.TicketStatusInProgress, got.Status)
	assert.Equal(t, []string{"emp-b"}, assigned)
}

func TestAutoAssign_AlreadyAssignedIsNoOp(t *testing.T) {
	svc, tickets, _ := newAssignmentFixture(map[string]int{"emp-a": 0, "emp-b": 5})

	employeeID := "emp-b"
	ticket := tickets.add(&domain.Ticket{
		TenantID:           "tenant-1",
		Title:              "taken",
		Status:             domain.TicketStatusInProgress,
		AssignedEmployeeID: &employeeID,
		CreatedByUserID:    "client-1",
		Active:             true,
	})

	got, err := svc.AutoAssign(context.Background(), "tenant-1", ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "emp-b", *got.AssignedEmployeeID)
}

func TestAutoAssign_NoCandidatesLeavesUnassigned(t *testing.T) {
	svc, tickets, _ := newAssignmentFixture(map[string]int{})

	ticket := tickets.add(&domain.Ticket{
		TenantID:        "tenant-1",
		Title:           "orphan",
		Status:          domain.TicketStatusPending,
		CreatedByUserID: "client-1",
		Active:          true,
	})

	got, err := svc.AutoAssign(context.Background(), "tenant-1", ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedEmployeeID)
	assert.Equal(t, domain.TicketStatusPending, got.Status)
}
