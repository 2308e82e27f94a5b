// Package config provides configuration parsing and validation for the alert-dispatcher.
package config

import (
	"fmt"
	"strconv"
	"time"

	"alert-dispatcher/internal/channel/email/provider"
	"alert-dispatcher/internal/channel/retry"
	"alert-dispatcher/internal/dispatch"
	"alert-dispatcher/internal/validation"
)

// Config holds all configuration parameters for the alert-dispatcher.
type Config struct {
	HTTPPort    string
	PostgresDSN string
	Migrate     bool
	LogLevel    string

	RedisAddr             string // empty disables Redis metrics
	KafkaBrokers          string // empty disables event publishing
	AlertsDispatchedTopic string

	AlertAPIRoot    string
	AlertAPITimeout int // seconds
	AlertAPIRetries int
	AlertAPIBackoff int // seconds

	DispatchWorkers int
	DispatchAsync   bool
	DeliveryTimeout int // seconds

	EmailProvider string // "", "ses" or "resend"
	EmailFrom     string
	ResendAPIKey  string
	SMSEnabled    bool
	AWSRegion     string
}

// Validate checks that all required configuration fields are set and have valid values.
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.HTTPPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("http-port must be a valid port number, got %q", c.HTTPPort)
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.KafkaBrokers != "" && c.AlertsDispatchedTopic == "" {
		return fmt.Errorf("alerts-dispatched-topic cannot be empty when kafka-brokers is set")
	}
	if !validation.IsValidURL(c.AlertAPIRoot) {
		return fmt.Errorf("alert-api-root must be an http or https URL, got %q", c.AlertAPIRoot)
	}
	if c.AlertAPITimeout <= 0 {
		return fmt.Errorf("alert-api-timeout must be positive")
	}
	if c.AlertAPIRetries < 0 {
		return fmt.Errorf("alert-api-retries cannot be negative")
	}
	if c.AlertAPIBackoff <= 0 {
		return fmt.Errorf("alert-api-backoff must be positive")
	}
	if c.DispatchWorkers <= 0 {
		return fmt.Errorf("dispatch-workers must be positive")
	}
	if c.DeliveryTimeout <= 0 {
		return fmt.Errorf("delivery-timeout must be positive")
	}

	switch c.EmailProvider {
	case "":
	case provider.SESName, provider.ResendName:
		if !validation.IsValidEmail(c.EmailFrom) {
			return fmt.Errorf("email-from must be a valid address when email-provider is set")
		}
	default:
		return fmt.Errorf("email-provider must be one of %q, %q or empty, got %q", provider.SESName, provider.ResendName, c.EmailProvider)
	}

	if (c.EmailProvider == provider.SESName || c.SMSEnabled) && c.AWSRegion == "" {
		return fmt.Errorf("aws-region cannot be empty when AWS channels are enabled")
	}
	return nil
}

// APIRetry returns the retry policy for the API channel. The backoff
// factor doubles as the initial backoff.
func (c *Config) APIRetry() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = c.AlertAPIRetries
	cfg.InitialBackoff = time.Duration(c.AlertAPIBackoff) * time.Second
	return cfg
}

// APITimeout returns the per-request API timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.AlertAPITimeout) * time.Second
}

// Dispatch returns the dispatcher concurrency settings.
func (c *Config) Dispatch() dispatch.Config {
	return dispatch.Config{
		Workers:         c.DispatchWorkers,
		DeliveryTimeout: time.Duration(c.DeliveryTimeout) * time.Second,
		Async:           c.DispatchAsync,
	}
}
