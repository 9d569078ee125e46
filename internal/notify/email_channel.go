package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// test hook
var sendMailHook = smtp.SendMail

// EmailChannel delivers via SMTP whenever an address is resolvable for the
// recipient.
type EmailChannel struct {
	cfg   config.NotifyConfig
	users UserDirectory
}

// NewEmailChannel constructs the provider.
func NewEmailChannel(cfg config.NotifyConfig, users UserDirectory) *EmailChannel {
	return &EmailChannel{cfg: cfg, users: users}
}

func (c *EmailChannel) Type() domain.ChannelType {
	return domain.ChannelEmail
}

func (c *EmailChannel) IsEnabledFor(ctx context.Context, userID string) bool {
	if strings.TrimSpace(c.cfg.SMTPAddr) == "" {
		return false
	}
	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return false
	}
	return strings.TrimSpace(user.Email) != ""
}

func (c *EmailChannel) Deliver(ctx context.Context, userID string, n *domain.Notification) error {
	user, err := c.users.GetByID(ctx, userID)
	if err != nil || strings.TrimSpace(user.Email) == "" {
		// fail closed: unresolvable recipient is not a delivery error
		return nil
	}

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		c.cfg.EmailFrom, user.Email, n.Title, n.Message)

	var auth smtp.Auth
	if c.cfg.SMTPUser != "" {
		host := c.cfg.SMTPAddr
		if idx := strings.Index(host, ":"); idx >= 0 {
			host = host[:idx]
		}
		auth = smtp.PlainAuth("", c.cfg.SMTPUser, c.cfg.SMTPPassword, host)
	}

	if err := sendMailHook(c.cfg.SMTPAddr, auth, c.cfg.EmailFrom, []string{user.Email}, []byte(body)); err != nil {
		return apperrors.NewDeliveryError(string(domain.ChannelEmail), err)
	}
	return nil
}
