package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// In-memory fakes backing the service tests.

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) add(t *domain.Ticket) *domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		r.seq++
		t.ID = fmt.Sprintf("t%d", r.seq)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	clone := *t
	r.tickets[t.ID] = &clone
	return t
}

func (r *fakeTicketRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.add(t)
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *t
	r.tickets[t.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTicketRepo) ListOpenActive(_ context.Context) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, t := range r.tickets {
		if t.Active && t.IsOpen() {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeTicketRepo) UpdateAlertLevel(_ context.Context, id string, level domain.AlertLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.AlertLevel = level
	return nil
}

func (r *fakeTicketRepo) CountOpenAssigned(_ context.Context, employeeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, t := range r.tickets {
		if t.AssignedEmployeeID != nil && *t.AssignedEmployeeID == employeeID && t.IsOpen() {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	users     []domain.User
	reviewers map[string]bool
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for i := range r.users {
		if r.users[i].ID == id {
			clone := r.users[i]
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListAssignable(_ context.Context, tenantID string) ([]domain.User, error) {
	var result []domain.User
	for _, u := range r.users {
		if u.TenantID == tenantID && u.Active {
			result = append(result, u)
		}
	}
	return result, nil
}

func (r *fakeUserRepo) ListReopenReviewers(_ context.Context, tenantID string) ([]domain.User, error) {
	var result []domain.User
	for _, u := range r.users {
		if u.TenantID == tenantID && u.Active && r.reviewers[u.ID] {
			result = append(result, u)
		}
	}
	return result, nil
}

func (r *fakeUserRepo) CanReviewReopens(_ context.Context, userID string) (bool, error) {
	return r.reviewers[userID], nil
}

type fakeReopenRepo struct {
	mu       sync.Mutex
	seq      int
	requests map[string]*domain.ReopenRequest
}

func newFakeReopenRepo() *fakeReopenRepo {
	return &fakeReopenRepo{requests: map[string]*domain.ReopenRequest{}}
}

func (r *fakeReopenRepo) Create(_ context.Context, req *domain.ReopenRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	req.ID = fmt.Sprintf("rr%d", r.seq)
	req.CreatedAt = time.Now()
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *fakeReopenRepo) Update(_ context.Context, req *domain.ReopenRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *fakeReopenRepo) GetByID(_ context.Context, id string) (*domain.ReopenRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *req
	return &clone, nil
}

func (r *fakeReopenRepo) HasPending(_ context.Context, ticketID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.TicketID == ticketID && req.Status == domain.ReopenStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReopenRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.ReopenRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ReopenRequest
	for _, req := range r.requests {
		if req.TicketID == ticketID {
			result = append(result, *req)
		}
	}
	return result, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	seq           int
	notifications []*domain.Notification
	createErr     error
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	n.ID = fmt.Sprintf("n%d", r.seq)
	n.CreatedAt = time.Now()
	clone := *n
	r.notifications = append(r.notifications, &clone)
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id {
			clone := *n
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeNotificationRepo) ListByRecipient(_ context.Context, userID string, unreadOnly bool, _, _ int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Notification
	for _, n := range r.notifications {
		if n.RecipientUserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, *n)
	}
	return result, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id && n.RecipientUserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &at
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifications {
		if n.RecipientUserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) byRecipient(userID string) []domain.Notification {
	list, _ := r.ListByRecipient(context.Background(), userID, false, 0, 0)
	return list
}

type fakePrefRepo struct {
	prefs map[string][]domain.ChannelPreference
}

func (r *fakePrefRepo) ListByUser(_ context.Context, userID string) ([]domain.ChannelPreference, error) {
	return r.prefs[userID], nil
}

func (r *fakePrefRepo) Upsert(_ context.Context, pref *domain.ChannelPreference) error {
	if r.prefs == nil {
		r.prefs = map[string][]domain.ChannelPreference{}
	}
	for i := range r.prefs[pref.UserID] {
		if r.prefs[pref.UserID][i].Channel == pref.Channel {
			r.prefs[pref.UserID][i] = *pref
			return nil
		}
	}
	r.prefs[pref.UserID] = append(r.prefs[pref.UserID], *pref)
	return nil
}

func (r *fakePrefRepo) EnsureDefaults(_ context.Context, userID string) ([]domain.ChannelPreference, error) {
	if existing, ok := r.prefs[userID]; ok {
		return existing, nil
	}
	return domain.DefaultPreferences(userID), nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []domain.TicketMessage
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.TicketMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = fmt.Sprintf("m%d", len(r.messages)+1)
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketMessage
	for _, msg := range r.messages {
		if msg.TicketID == ticketID {
			result = append(result, msg)
		}
	}
	return result, nil
}

type sentNotification struct {
	UserID string
	Input  NotificationInput
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *fakeNotifier) SendToUser(_ context.Context, userID, tenantID string, input NotificationInput) (*domain.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return nil, n.err
	}
	n.sent = append(n.sent, sentNotification{UserID: userID, Input: input})
	return &domain.Notification{RecipientUserID: userID, TenantID: tenantID}, nil
}

func (n *fakeNotifier) sentTo(userID string) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var result []sentNotification
	for _, s := range n.sent {
		if s.UserID == userID {
			result = append(result, s)
		}
	}
	return result
}
