// Package retry runs delivery attempts with exponential backoff and decides
// which failures are worth another attempt.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"
)

// Config is fixed for the life of a channel.
type Config struct {
	MaxRetries     int           // attempts after the first; 0 disables retries
	InitialBackoff time.Duration // wait before the first retry
	MaxBackoff     time.Duration // cap per wait; 0 means uncapped
	BackoffFactor  float64       // growth per retry
}

// DefaultConfig returns 5 retries starting at 1s and doubling up to 2m.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     5,
		InitialBackoff: time.Second,
		MaxBackoff:     2 * time.Minute,
		BackoffFactor:  2.0,
	}
}

// Backoff returns the wait before retry number attempt+1:
// InitialBackoff * BackoffFactor^attempt, capped, with ±25% jitter.
func (c Config) Backoff(attempt int) time.Duration {
	d := float64(c.InitialBackoff) * math.Pow(c.BackoffFactor, float64(attempt))
	if c.MaxBackoff > 0 && d > float64(c.MaxBackoff) {
		d = float64(c.MaxBackoff)
	}
	return time.Duration(d * (0.75 + rand.Float64()*0.5))
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not retryable regardless of its text.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Provider error texts that mean the request itself is wrong.
var permanentMarkers = []string{
	"not verified",     // SES sandbox recipient
	"validation error", // SDK input validation
	"invalid",
	"malformed",
	"no recipients",
	"opted out", // SNS recipient opted out
}

// Provider error texts that mean the backend is briefly unavailable.
var transientMarkers = []string{
	"timeout",
	"connection refused",
	"connection reset",
	"temporary",
	"rate limit",
	"throttl",
	"too many requests",
	"try again",
	"502",
	"503",
	"504",
}

// IsRetryable reports whether err is transient. Permanent errors,
// cancellation and permanent markers win over everything else. Network
// errors and transient markers are retried; anything unrecognised is not.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}

	msg := strings.ToLower(err.Error())
	if containsAny(msg, permanentMarkers) {
		return false
	}
	return IsTransportError(err) || containsAny(msg, transientMarkers)
}

// IsTransportError reports whether err came from the network layer
// (dial, connection reset, I/O timeout) rather than from a response.
func IsTransportError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Do runs fn, retrying errors accepted by IsRetryable.
func Do(ctx context.Context, cfg Config, operation string, fn func() error) error {
	return DoIf(ctx, cfg, operation, IsRetryable, fn)
}

// DoIf runs fn up to cfg.MaxRetries+1 times, retrying only errors for which
// retryable returns true. If ctx ends during a backoff the last error is
// joined with ctx.Err().
func DoIf(ctx context.Context, cfg Config, operation string, retryable func(error) bool, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		switch {
		case err == nil:
			if attempt > 0 {
				slog.Info("Succeeded after retry", "operation", operation, "attempts", attempt+1)
			}
			return nil
		case !retryable(err):
			return err
		case attempt >= cfg.MaxRetries:
			slog.Warn("Giving up after retries", "operation", operation, "attempts", attempt+1, "error", err)
			return err
		}

		wait := cfg.Backoff(attempt)
		slog.Warn("Attempt failed, retrying",
			"operation", operation,
			"attempt", attempt+1,
			"of", cfg.MaxRetries+1,
			"backoff", wait,
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}
