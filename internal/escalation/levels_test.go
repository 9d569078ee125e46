package escalation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
)

func TestLevelFor_StepFunction(t *testing.T) {
	th := DefaultThresholds()

	cases := []struct {
		minutes float64
		want    domain.AlertLevel
	}{
		{0, domain.AlertLevelGreen},
		{0.5, domain.AlertLevelGreen},
		{1, domain.AlertLevelGreen},
		{1.1, domain.AlertLevelYellow},
		{2, domain.AlertLevelYellow},
		{3, domain.AlertLevelYellow},
		{3.5, domain.AlertLevelOrange},
		{4, domain.AlertLevelOrange},
		{5, domain.AlertLevelOrange},
		{5.5, domain.AlertLevelRed},
		{6, domain.AlertLevelRed},
		{60, domain.AlertLevelRed},
	}
	for _, tc := range cases {
		elapsed := time.Duration(tc.minutes * float64(time.Minute))
		assert.Equal(t, tc.want, LevelFor(elapsed, th), "elapsed %v", elapsed)
	}
}

func TestLevelFor_Monotone(t *testing.T) {
	th := DefaultThresholds()

	prev := LevelFor(0, th)
	for s := 0; s <= 600; s += 5 {
		level := LevelFor(time.Duration(s)*time.Second, th)
		assert.False(t, IsEscalation(level, prev), "level regressed at %ds: %s -> %s", s, prev, level)
		prev = level
	}
	assert.Equal(t, domain.AlertLevelRed, prev)
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, domain.NotificationPriorityNormal, PriorityFor(domain.AlertLevelYellow))
	assert.Equal(t, domain.NotificationPriorityHigh, PriorityFor(domain.AlertLevelOrange))
	assert.Equal(t, domain.NotificationPriorityUrgent, PriorityFor(domain.AlertLevelRed))
	assert.Equal(t, domain.NotificationPriorityLow, PriorityFor(domain.AlertLevelGreen))
}

func TestThresholdsFromConfig_Defaults(t *testing.T) {
	th := ThresholdsFromConfig(config.EscalationConfig{})
	assert.Equal(t, DefaultThresholds(), th)
}
