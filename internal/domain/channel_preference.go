package domain

import "time"

// ChannelType identifies a notification delivery mechanism.
type ChannelType string

const (
	ChannelRealtime ChannelType = "REALTIME"
	ChannelEmail    ChannelType = "EMAIL"
	ChannelSlack    ChannelType = "SLACK"
)

// AllChannels lists every supported channel in registration order.
var AllChannels = []ChannelType{ChannelRealtime, ChannelEmail, ChannelSlack}

// ChannelPreference stores a user's per-channel enable flag and opaque
// channel-specific config. Unique per (user, channel).
type ChannelPreference struct {
	ID        string
	UserID    string
	Channel   ChannelType
	Enabled   bool
	Config    map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultPreferences returns the lazily-materialized defaults for a user:
// the always-available channels enabled, handle-based channels disabled
// until configured.
func DefaultPreferences(userID string) []ChannelPreference {
	return []ChannelPreference{
		{UserID: userID, Channel: ChannelRealtime, Enabled: true, Config: map[string]string{}},
		{UserID: userID, Channel: ChannelEmail, Enabled: true, Config: map[string]string{}},
		{UserID: userID, Channel: ChannelSlack, Enabled: false, Config: map[string]string{}},
	}
}
