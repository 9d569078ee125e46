package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/realtime"
)

type fakeDirectory struct {
	users map[string]*domain.User
}

func (d *fakeDirectory) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := d.users[id]; ok {
		return user, nil
	}
	return nil, errors.New("no rows")
}

type fakePrefs struct {
	prefs map[string][]domain.ChannelPreference
}

func (p *fakePrefs) ListByUser(_ context.Context, userID string) ([]domain.ChannelPreference, error) {
	return p.prefs[userID], nil
}

type fakeConn struct{ events []realtime.Event }

func (c *fakeConn) WriteJSON(v interface{}) error {
	if event, ok := v.(realtime.Event); ok {
		c.events = append(c.events, event)
	}
	return nil
}
func (c *fakeConn) Close() error { return nil }

func TestRegistry_Resolve(t *testing.T) {
	registry := NewRegistry(NewRealtimeChannel(realtime.NewRegistry(zap.NewNop())))

	ch, ok := registry.Resolve(domain.ChannelRealtime)
	require.True(t, ok)
	assert.Equal(t, domain.ChannelRealtime, ch.Type())

	_, ok = registry.Resolve(domain.ChannelSlack)
	assert.False(t, ok)
}

func TestRealtimeChannel_SilentWhenOffline(t *testing.T) {
	connections := realtime.NewRegistry(zap.NewNop())
	channel := NewRealtimeChannel(connections)

	assert.False(t, channel.IsEnabledFor(context.Background(), "u1"))

	conn := &fakeConn{}
	connections.Register("u1", conn)
	assert.True(t, channel.IsEnabledFor(context.Background(), "u1"))

	n := &domain.Notification{ID: "n1", Title: "Escalated", Priority: domain.NotificationPriorityUrgent}
	require.NoError(t, channel.Deliver(context.Background(), "u1", n))
	require.Len(t, conn.events, 1)
	assert.Equal(t, "notification", conn.events[0].Name)
}

func TestEmailChannel_DisabledWithoutSMTPOrAddress(t *testing.T) {
	directory := &fakeDirectory{users: map[string]*domain.User{
		"u1": {ID: "u1", Email: "agent@example.com"},
		"u2": {ID: "u2", Email: ""},
	}}

	unconfigured := NewEmailChannel(config.NotifyConfig{}, directory)
	assert.False(t, unconfigured.IsEnabledFor(context.Background(), "u1"))

	configured := NewEmailChannel(config.NotifyConfig{SMTPAddr: "smtp.example.com:587"}, directory)
	assert.True(t, configured.IsEnabledFor(context.Background(), "u1"))
	assert.False(t, configured.IsEnabledFor(context.Background(), "u2"))
	assert.False(t, configured.IsEnabledFor(context.Background(), "missing"))
}

func TestEmailChannel_DeliverUsesHook(t *testing.T) {
	directory := &fakeDirectory{users: map[string]*domain.User{
		"u1": {ID: "u1", Email: "agent@example.com"},
	}}
	channel := NewEmailChannel(config.NotifyConfig{
		SMTPAddr:  "smtp.example.com:587",
		EmailFrom: "helpdesk@example.com",
	}, directory)

	var gotTo []string
	orig := sendMailHook
	sendMailHook = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotTo = to
		return nil
	}
	t.Cleanup(func() { sendMailHook = orig })

	n := &domain.Notification{Title: "Ticket escalated", Message: "RED"}
	require.NoError(t, channel.Deliver(context.Background(), "u1", n))
	assert.Equal(t, []string{"agent@example.com"}, gotTo)
}

func TestSlackChannel_FailsClosedWithoutHandle(t *testing.T) {
	prefs := &fakePrefs{prefs: map[string][]domain.ChannelPreference{
		"configured": {{
			UserID:  "configured",
			Channel: domain.ChannelSlack,
			Enabled: true,
			Config:  map[string]string{"slack_user_id": "U123"},
		}},
	}}

	noToken := NewSlackChannel("", prefs)
	assert.False(t, noToken.IsEnabledFor(context.Background(), "configured"))
	assert.NoError(t, noToken.Deliver(context.Background(), "configured", &domain.Notification{}))

	poster := &fakePoster{}
	channel := &SlackChannel{client: poster, prefs: prefs}
	assert.True(t, channel.IsEnabledFor(context.Background(), "configured"))
	assert.False(t, channel.IsEnabledFor(context.Background(), "unconfigured"))

	require.NoError(t, channel.Deliver(context.Background(), "unconfigured", &domain.Notification{}))
	assert.Zero(t, poster.calls)

	require.NoError(t, channel.Deliver(context.Background(), "configured", &domain.Notification{Title: "Hi"}))
	assert.Equal(t, 1, poster.calls)
	assert.Equal(t, "U123", poster.lastChannel)
}

type fakePoster struct {
	calls       int
	lastChannel string
}

func (p *fakePoster) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	p.calls++
	p.lastChannel = channelID
	return "", "", nil
}
