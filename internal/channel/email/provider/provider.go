// Package provider defines the email backends (SES, Resend) and the Chain
// that sends through a primary backend with ordered fallbacks.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"alert-dispatcher/internal/channel/retry"
)

// ErrNoProvider is returned when the requested primary is missing or
// unconfigured.
var ErrNoProvider = errors.New("no configured email provider available")

// EmailRequest is one outgoing message.
type EmailRequest struct {
	From    string
	To      []string
	Subject string
	Body    string // plain text, always sent
	HTML    string // optional
}

// validate rejects requests no backend can deliver.
func (r *EmailRequest) validate() error {
	if r.From == "" {
		return retry.Permanent(errors.New("invalid email request: missing sender"))
	}
	if len(r.To) == 0 {
		return retry.Permanent(errors.New("invalid email request: no recipients"))
	}
	return nil
}

// Provider is one email backend.
type Provider interface {
	Name() string
	Send(ctx context.Context, req *EmailRequest) error
	// IsConfigured reports whether credentials were available at startup.
	IsConfigured() bool
}

// Chain is an immutable, ordered list of configured providers. The first
// entry is the primary.
type Chain struct {
	providers []Provider
}

// NewChain keeps the configured providers, orders primary first and the
// rest by name, and fails with ErrNoProvider when primary is not among the
// configured ones.
func NewChain(primary string, providers ...Provider) (*Chain, error) {
	var first Provider
	rest := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p == nil || !p.IsConfigured() {
			if p != nil {
				slog.Warn("Email provider not configured, skipping", "provider", p.Name())
			}
			continue
		}
		if p.Name() == primary && first == nil {
			first = p
			continue
		}
		rest = append(rest, p)
	}
	if first == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoProvider, primary)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Name() < rest[j].Name() })

	return &Chain{providers: append([]Provider{first}, rest...)}, nil
}

// Primary returns the name of the first provider.
func (c *Chain) Primary() string {
	return c.providers[0].Name()
}

// Names returns provider names in send order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Send tries each provider in order and stops at the first success. When
// all fail the primary's error is returned, so retry classification follows
// the primary backend.
func (c *Chain) Send(ctx context.Context, req *EmailRequest) error {
	var primaryErr error
	for i, p := range c.providers {
		err := p.Send(ctx, req)
		if err == nil {
			if i > 0 {
				slog.Info("Email sent via fallback provider", "provider", p.Name(), "primary", c.Primary())
			}
			return nil
		}
		if i == 0 {
			primaryErr = fmt.Errorf("%s: %w", p.Name(), err)
		}
		if ctx.Err() != nil {
			break
		}
		slog.Warn("Email provider failed", "provider", p.Name(), "error", err)
	}
	return primaryErr
}
