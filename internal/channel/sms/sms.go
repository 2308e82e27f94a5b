// Package sms delivers alerts as text messages through AWS SNS.
package sms

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"alert-dispatcher/internal/channel"
	"alert-dispatcher/internal/channel/payload"
	"alert-dispatcher/internal/channel/retry"
	"alert-dispatcher/internal/database"
)

// InfoMissingPhone is reported for users without a phone number.
const InfoMissingPhone = "User does not have a phone number"

// Publisher is the subset of the SNS client used to send texts.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Channel implements channel.Channel for SMS.
type Channel struct {
	publisher Publisher
	retry     retry.Config
}

// New creates an SMS channel on top of publisher.
func New(publisher Publisher, cfg retry.Config) *Channel {
	return &Channel{
		publisher: publisher,
		retry:     cfg,
	}
}

// NewFromRegion builds an SNS client for region using the default AWS
// credential chain.
func NewFromRegion(ctx context.Context, region string, cfg retry.Config) (*Channel, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	slog.Info("SNS SMS channel initialized", "region", region)
	return New(sns.NewFromConfig(awsCfg), cfg), nil
}

// Type returns the channel key this channel handles.
func (c *Channel) Type() string {
	return channel.KindSMS
}

// Send texts a short alert summary to user.Phone.
func (c *Channel) Send(ctx context.Context, user *database.User, alert *database.Alert) channel.Result {
	if res, ok := channel.CheckInput(user, alert); !ok {
		return res
	}
	if user.Phone == "" {
		return channel.Failure(InfoMissingPhone)
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(user.Phone),
		Message:     aws.String(payload.BuildSMSText(alert)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}

	var messageID string
	err := retry.Do(ctx, c.retry, "sms notification", func() error {
		out, err := c.publisher.Publish(ctx, input)
		if err != nil {
			return err
		}
		messageID = aws.ToString(out.MessageId)
		return nil
	})
	if err != nil {
		slog.Error("Failed to send SMS notification",
			"error", err,
			"alert_uuid", alert.AlertUUID,
			"user_email", user.Email,
		)
		return channel.Failure(fmt.Sprintf("Failed to text alert %s: %v", alert.AlertUUID, err))
	}

	slog.Info("Successfully sent SMS notification",
		"message_id", messageID,
		"alert_uuid", alert.AlertUUID,
		"user_email", user.Email,
	)
	return channel.Success(fmt.Sprintf("Alert texted to %s: %s", user.Phone, alert.AlertUUID))
}

var _ channel.Channel = (*Channel)(nil)
