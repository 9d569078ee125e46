package escalation

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// Thresholds are the upper bounds (inclusive) of each level below RED.
type Thresholds struct {
	GreenUntil  time.Duration
	YellowUntil time.Duration
	OrangeUntil time.Duration
}

// DefaultThresholds: green for the first minute, yellow through minute 3,
// orange through minute 5, red from minute 6 on.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GreenUntil:  1 * time.Minute,
		YellowUntil: 3 * time.Minute,
		OrangeUntil: 5 * time.Minute,
	}
}

// ThresholdsFromConfig builds thresholds from env-driven minute values.
func ThresholdsFromConfig(cfg config.EscalationConfig) Thresholds {
	th := DefaultThresholds()
	if cfg.GreenUntilMinutes > 0 {
		th.GreenUntil = time.Duration(cfg.GreenUntilMinutes) * time.Minute
	}
	if cfg.YellowUntilMinutes > 0 {
		th.YellowUntil = time.Duration(cfg.YellowUntilMinutes) * time.Minute
	}
	if cfg.OrangeUntilMinutes > 0 {
		th.OrangeUntil = time.Duration(cfg.OrangeUntilMinutes) * time.Minute
	}
	return th
}

// LevelFor maps elapsed time since the escalation epoch to an alert level.
// Pure and monotone: more elapsed time never yields a lower level.
func LevelFor(elapsed time.Duration, th Thresholds) domain.AlertLevel {
	switch {
	case elapsed <= th.GreenUntil:
		return domain.AlertLevelGreen
	case elapsed <= th.YellowUntil:
		return domain.AlertLevelYellow
	case elapsed <= th.OrangeUntil:
		return domain.AlertLevelOrange
	default:
		return domain.AlertLevelRed
	}
}

// PriorityFor maps a non-green alert level to notification urgency.
func PriorityFor(level domain.AlertLevel) domain.NotificationPriority {
	switch level {
	case domain.AlertLevelYellow:
		return domain.NotificationPriorityNormal
	case domain.AlertLevelOrange:
		return domain.NotificationPriorityHigh
	case domain.AlertLevelRed:
		return domain.NotificationPriorityUrgent
	default:
		return domain.NotificationPriorityLow
	}
}

// rank orders levels for monotonicity checks and forward-only updates.
var rank = map[domain.AlertLevel]int{
	domain.AlertLevelGreen:  0,
	domain.AlertLevelYellow: 1,
	domain.AlertLevelOrange: 2,
	domain.AlertLevelRed:    3,
}

// IsEscalation reports whether moving from old to new goes forward.
func IsEscalation(old, new domain.AlertLevel) bool {
	return rank[new] > rank[old]
}
