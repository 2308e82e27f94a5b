package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESName selects SES with -email-provider.
const SESName = "ses"

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES sends through Amazon SES v2 using the default credential chain.
type SES struct {
	client sesAPI
}

// NewSES loads the AWS config for region. On failure the provider is
// returned unconfigured and NewChain skips it.
func NewSES(ctx context.Context, region string) *SES {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		slog.Warn("Failed to load AWS config, SES unavailable", "region", region, "error", err)
		return &SES{}
	}
	return &SES{client: sesv2.NewFromConfig(cfg)}
}

func (p *SES) Name() string       { return SESName }
func (p *SES) IsConfigured() bool { return p.client != nil }

// Send submits a simple message with a text part and, when set, an HTML part.
func (p *SES) Send(ctx context.Context, req *EmailRequest) error {
	if p.client == nil {
		return errors.New("ses: client not initialized")
	}
	if err := req.validate(); err != nil {
		return err
	}

	body := &types.Body{Text: &types.Content{Data: aws.String(req.Body), Charset: aws.String("UTF-8")}}
	if req.HTML != "" {
		body.Html = &types.Content{Data: aws.String(req.HTML), Charset: aws.String("UTF-8")}
	}

	out, err := p.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(req.From),
		Destination:      &types.Destination{ToAddresses: req.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(req.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses: %w", err)
	}

	slog.Debug("Email accepted by SES", "message_id", aws.ToString(out.MessageId), "to", req.To)
	return nil
}
