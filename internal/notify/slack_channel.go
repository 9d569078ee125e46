package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

const slackUserKey = "slack_user_id"

// slackPoster is the slice of the slack client the channel needs.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackChannel is a bot-relay provider: it requires a per-user external
// handle stored in the channel preference config. Without a handle the
// channel reports disabled and Deliver is never invoked.
type SlackChannel struct {
	client slackPoster
	prefs  PreferenceSource
}

// NewSlackChannel constructs the provider from a bot token. An empty token
// leaves the channel permanently disabled.
func NewSlackChannel(botToken string, prefs PreferenceSource) *SlackChannel {
	var client slackPoster
	if strings.TrimSpace(botToken) != "" {
		client = slack.New(botToken)
	}
	return &SlackChannel{client: client, prefs: prefs}
}

func (c *SlackChannel) Type() domain.ChannelType {
	return domain.ChannelSlack
}

func (c *SlackChannel) IsEnabledFor(ctx context.Context, userID string) bool {
	if c.client == nil {
		return false
	}
	return c.handleFor(ctx, userID) != ""
}

func (c *SlackChannel) Deliver(ctx context.Context, userID string, n *domain.Notification) error {
	if c.client == nil {
		return nil
	}
	handle := c.handleFor(ctx, userID)
	if handle == "" {
		// fail closed: unconfigured recipient is not a delivery error
		return nil
	}

	text := fmt.Sprintf("*%s*\n%s", n.Title, n.Message)
	_, _, err := c.client.PostMessageContext(ctx, handle,
		slack.MsgOptionText(text, false))
	if err != nil {
		return apperrors.NewDeliveryError(string(domain.ChannelSlack), err)
	}
	return nil
}

func (c *SlackChannel) handleFor(ctx context.Context, userID string) string {
	prefs, err := c.prefs.ListByUser(ctx, userID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(configFor(prefs, domain.ChannelSlack)[slackUserKey])
}
