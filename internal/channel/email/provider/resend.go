package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ResendName selects Resend with -email-provider.
const ResendName = "resend"

type resendAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Resend sends through the Resend HTTP API.
type Resend struct {
	emails resendAPI
}

// NewResend returns an unconfigured provider when apiKey is empty.
func NewResend(apiKey string) *Resend {
	if apiKey == "" {
		return &Resend{}
	}
	return &Resend{emails: resend.NewClient(apiKey).Emails}
}

func (p *Resend) Name() string       { return ResendName }
func (p *Resend) IsConfigured() bool { return p.emails != nil }

// Send submits the text part and, when set, the HTML part.
func (p *Resend) Send(ctx context.Context, req *EmailRequest) error {
	if p.emails == nil {
		return errors.New("resend: client not initialized")
	}
	if err := req.validate(); err != nil {
		return err
	}

	out, err := p.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    req.From,
		To:      req.To,
		Subject: req.Subject,
		Text:    req.Body,
		Html:    req.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}

	slog.Debug("Email accepted by Resend", "email_id", out.Id, "to", req.To)
	return nil
}
