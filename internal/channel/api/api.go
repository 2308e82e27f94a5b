// Package api delivers alerts to an external notification API via HTTP POST.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"alert-dispatcher/internal/channel"
	"alert-dispatcher/internal/channel/payload"
	"alert-dispatcher/internal/channel/retry"
	"alert-dispatcher/internal/database"
)

// HookPath is appended to the configured API root.
const HookPath = "/webhook/notifications"

// InfoMissingAPIUID is reported for users without an API identity.
const InfoMissingAPIUID = "User does not have an API UID"

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 5 * time.Second

// maxDrainBytes bounds how much of a response body is read before closing.
const maxDrainBytes = 64 << 10

// Config configures the API channel. Values are fixed for the life of the channel.
type Config struct {
	Root    string        // Base URL of the notification API
	Timeout time.Duration // Per-attempt HTTP timeout
	Retry   retry.Config  // Transport-level retry policy
}

// Channel implements channel.Channel for the notification API.
type Channel struct {
	httpClient *http.Client
	hookURL    string
	retry      retry.Config
}

// New creates an API channel posting to <cfg.Root>/webhook/notifications.
func New(cfg Config) *Channel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Channel{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		hookURL: HookURL(cfg.Root),
		retry:   cfg.Retry,
	}
}

// HookURL joins an API root and HookPath without doubling slashes.
func HookURL(root string) string {
	return strings.TrimRight(root, "/") + HookPath
}

// Type returns the channel key this channel handles.
func (c *Channel) Type() string {
	return channel.KindAPI
}

// URL returns the endpoint alerts are posted to.
func (c *Channel) URL() string {
	return c.hookURL
}

// Send posts the alert to the notification API on behalf of user.
// Transport failures are retried; any non-200 response is final.
func (c *Channel) Send(ctx context.Context, user *database.User, alert *database.Alert) channel.Result {
	if res, ok := channel.CheckInput(user, alert); !ok {
		return res
	}
	if user.APIUID == "" {
		return channel.Failure(InfoMissingAPIUID)
	}

	body, err := json.Marshal(payload.BuildAPIPayload(user, alert))
	if err != nil {
		return channel.Failure(channel.InfoInvalidAlert)
	}

	var status int
	err = retry.DoIf(ctx, c.retry, "api notification", retry.IsTransportError, func() error {
		code, err := c.post(ctx, body)
		if err != nil {
			return err
		}
		status = code
		return nil
	})
	if err != nil {
		slog.Error("Failed to reach notification API",
			"error", err,
			"url", c.hookURL,
			"alert_uuid", alert.AlertUUID,
			"user_email", user.Email,
		)
		return channel.Failure(fmt.Sprintf("Failed to send alert %s. No response from API: %s. Error: %v",
			alert.AlertUUID, c.hookURL, err))
	}

	if status != http.StatusOK {
		slog.Error("Notification API returned error status",
			"status_code", status,
			"url", c.hookURL,
			"alert_uuid", alert.AlertUUID,
			"user_email", user.Email,
		)
		return channel.Failure(fmt.Sprintf("Failed to send alert %s. Status: %d - %s",
			alert.AlertUUID, status, http.StatusText(status)))
	}

	slog.Info("Successfully sent API notification",
		"url", c.hookURL,
		"alert_uuid", alert.AlertUUID,
		"user_email", user.Email,
	)
	return channel.Success(fmt.Sprintf("Alert sent to %s: %s", user.Email, alert.AlertUUID))
}

// post performs one POST attempt and returns the response status.
func (c *Channel) post(ctx context.Context, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.hookURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	return resp.StatusCode, nil
}

var _ channel.Channel = (*Channel)(nil)
