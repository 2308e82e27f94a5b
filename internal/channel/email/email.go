// Package email delivers alerts by email through the provider registry.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"alert-dispatcher/internal/channel"
	"alert-dispatcher/internal/channel/email/provider"
	"alert-dispatcher/internal/channel/payload"
	"alert-dispatcher/internal/channel/retry"
	"alert-dispatcher/internal/database"
)

// Sender sends a prepared email. *provider.Chain satisfies it.
type Sender interface {
	Send(ctx context.Context, req *provider.EmailRequest) error
}

// Channel implements channel.Channel for email.
type Channel struct {
	sender Sender
	from   string
	retry  retry.Config
}

// New creates an email channel sending from the given address.
func New(sender Sender, from string, cfg retry.Config) *Channel {
	return &Channel{
		sender: sender,
		from:   from,
		retry:  cfg,
	}
}

// Type returns the channel key this channel handles.
func (c *Channel) Type() string {
	return channel.KindEmail
}

// Send emails the alert to user.Email. Transient provider errors are retried.
func (c *Channel) Send(ctx context.Context, user *database.User, alert *database.Alert) channel.Result {
	if res, ok := channel.CheckInput(user, alert); !ok {
		return res
	}

	msg := payload.BuildEmailPayload(alert)
	req := &provider.EmailRequest{
		From:    c.from,
		To:      []string{user.Email},
		Subject: msg.Subject,
		Body:    msg.Body,
	}

	err := retry.Do(ctx, c.retry, "email notification", func() error {
		return c.sender.Send(ctx, req)
	})
	if err != nil {
		slog.Error("Failed to send email notification",
			"error", err,
			"alert_uuid", alert.AlertUUID,
			"user_email", user.Email,
		)
		return channel.Failure(fmt.Sprintf("Failed to email alert %s: %v", alert.AlertUUID, err))
	}

	slog.Info("Successfully sent email notification",
		"to", user.Email,
		"subject", msg.Subject,
		"alert_uuid", alert.AlertUUID,
	)
	return channel.Success(fmt.Sprintf("Alert emailed to %s: %s", user.Email, alert.AlertUUID))
}

var _ channel.Channel = (*Channel)(nil)
