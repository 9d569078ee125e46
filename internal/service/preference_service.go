package service

import (
	"context"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// PreferenceService manages per-user channel settings.
type PreferenceService struct {
	prefs repository.ChannelPreferenceRepository
}

// NewPreferenceService creates the service.
func NewPreferenceService(prefs repository.ChannelPreferenceRepository) *PreferenceService {
	return &PreferenceService{prefs: prefs}
}

// ListForUser returns the user's full preference set, materializing
// defaults for channels the user has never touched.
func (s *PreferenceService) ListForUser(ctx context.Context, userID string) ([]domain.ChannelPreference, error) {
	prefs, err := s.prefs.EnsureDefaults(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return prefs, nil
}

// Update stores one channel's enable flag and config.
func (s *PreferenceService) Update(ctx context.Context, userID string, channel domain.ChannelType, enabled bool, config map[string]string) (*domain.ChannelPreference, error) {
	known := false
	for _, ch := range domain.AllChannels {
		if ch == channel {
			known = true
			break
		}
	}
	if !known {
		return nil, apperrors.NewValidationError("unknown channel", map[string]any{"channel": channel})
	}

	pref := &domain.ChannelPreference{
		UserID:  userID,
		Channel: channel,
		Enabled: enabled,
		Config:  config,
	}
	if err := s.prefs.Upsert(ctx, pref); err != nil {
		return nil, apperrors.MapError(err)
	}
	return pref, nil
}
