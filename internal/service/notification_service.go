package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/notify"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/persistence"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// NotificationInput describes one dispatch payload.
type NotificationInput struct {
	Title     string
	Message   string
	Type      domain.NotificationType
	Priority  domain.NotificationPriority
	Metadata  map[string]any
	ActionURL *string
}

// NotificationService is the sole notification entry point for the rest of
// the system. It persists a durable record first, then fans out across the
// recipient's enabled channels with per-channel failure isolation.
type NotificationService struct {
	notifications  repository.NotificationRepository
	prefs          repository.ChannelPreferenceRepository
	channels       *notify.Registry
	cache          *persistence.Redis
	logger         *zap.Logger
	metrics        *observability.Metrics
	deliverTimeout time.Duration
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	PreferenceRepo   repository.ChannelPreferenceRepository
	Channels         *notify.Registry
	Cache            *persistence.Redis
	Logger           *zap.Logger
	Metrics          *observability.Metrics
	DeliverTimeout   time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	timeout := deps.DeliverTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NotificationService{
		notifications:  deps.NotificationRepo,
		prefs:          deps.PreferenceRepo,
		channels:       deps.Channels,
		cache:          deps.Cache,
		logger:         deps.Logger,
		metrics:        deps.Metrics,
		deliverTimeout: timeout,
	}
}

// SendToUser persists the notification, then attempts delivery on every
// enabled channel concurrently. Success is defined solely by persistence:
// channel failures are logged and counted, never returned. The persisted
// record, not a delivery receipt, is returned.
func (s *NotificationService) SendToUser(ctx context.Context, userID, tenantID string, input NotificationInput) (*domain.Notification, error) {
	n := &domain.Notification{
		RecipientUserID: userID,
		TenantID:        tenantID,
		Title:           input.Title,
		Message:         input.Message,
		Type:            input.Type,
		Priority:        input.Priority,
		Metadata:        input.Metadata,
		ActionURL:       input.ActionURL,
	}
	if n.Priority == "" {
		n.Priority = domain.NotificationPriorityNormal
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateUnread(ctx, userID)

	prefs, err := s.prefs.EnsureDefaults(ctx, userID)
	if err != nil {
		s.logger.Warn("loading channel preferences failed; notification persisted without fan-out",
			zap.String("user_id", userID),
			zap.String("notification_id", n.ID),
			zap.Error(err))
		return n, nil
	}

	var wg sync.WaitGroup
	for _, pref := range prefs {
		if !pref.Enabled {
			continue
		}
		channel, ok := s.channels.Resolve(pref.Channel)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(channel notify.Channel) {
			defer wg.Done()
			s.deliverOn(ctx, channel, userID, n)
		}(channel)
	}
	wg.Wait()

	return n, nil
}

// deliverOn attempts one channel under a bounded time budget. The attempt
// is detached from the caller's cancellation so an aborted request cannot
// strand a half-sent delivery, but stays bounded by the channel timeout.
func (s *NotificationService) deliverOn(ctx context.Context, channel notify.Channel, userID string, n *domain.Notification) {
	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deliverTimeout)
	defer cancel()

	if !channel.IsEnabledFor(attemptCtx, userID) {
		return
	}
	if err := channel.Deliver(attemptCtx, userID, n); err != nil {
		s.metrics.RecordDelivery(string(channel.Type()), false)
		s.logger.Warn("channel delivery failed",
			zap.String("user_id", userID),
			zap.String("channel", string(channel.Type())),
			zap.String("notification_id", n.ID),
			zap.Error(err))
		return
	}
	s.metrics.RecordDelivery(string(channel.Type()), true)
}

// ListForUser returns the recipient's in-app notification list.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	list, err := s.notifications.ListByRecipient(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// MarkRead flips one notification's read state for its recipient.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	if err := s.notifications.MarkRead(ctx, notificationID, userID, time.Now()); err != nil {
		return apperrors.MapError(err)
	}
	s.invalidateUnread(ctx, userID)
	return nil
}

// UnreadCount returns the recipient's unread total, cached in redis.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if cache := s.cache.Handle(); cache != nil {
		if v, err := cache.Get(ctx, unreadKey(userID)).Int(); err == nil {
			return v, nil
		}
	}
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if cache := s.cache.Handle(); cache != nil {
		if err := cache.Set(ctx, unreadKey(userID), strconv.Itoa(count), time.Minute).Err(); err != nil {
			s.logger.Debug("unread count cache write failed", zap.Error(err))
		}
	}
	return count, nil
}

func (s *NotificationService) invalidateUnread(ctx context.Context, userID string) {
	if cache := s.cache.Handle(); cache != nil {
		if err := cache.Del(ctx, unreadKey(userID)).Err(); err != nil {
			s.logger.Debug("unread count cache invalidation failed", zap.Error(err))
		}
	}
}

func unreadKey(userID string) string {
	return "notifications:unread:" + userID
}
