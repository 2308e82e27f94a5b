package main

import (
	"context"
	"fmt"
	"log/slog"

	"alert-dispatcher/internal/channel"
	"alert-dispatcher/internal/channel/api"
	"alert-dispatcher/internal/channel/email"
	"alert-dispatcher/internal/channel/email/provider"
	"alert-dispatcher/internal/channel/retry"
	"alert-dispatcher/internal/channel/sms"
	"alert-dispatcher/internal/config"
)

// buildChannels registers the API channel plus email and sms when enabled.
func buildChannels(ctx context.Context, cfg *config.Config) (*channel.Registry, error) {
	channels := channel.NewRegistry()

	apiCh := api.New(api.Config{
		Root:    cfg.AlertAPIRoot,
		Timeout: cfg.APITimeout(),
		Retry:   cfg.APIRetry(),
	})
	channels.Register(apiCh)
	slog.Info("API channel initialized", "url", apiCh.URL())

	if cfg.EmailProvider != "" {
		providers, err := buildEmailProviders(ctx, cfg)
		if err != nil {
			return nil, err
		}
		channels.Register(email.New(providers, cfg.EmailFrom, retry.DefaultConfig()))
		slog.Info("Email channel initialized", "primary", cfg.EmailProvider, "providers", providers.Names())
	}

	if cfg.SMSEnabled {
		smsCh, err := sms.NewFromRegion(ctx, cfg.AWSRegion, retry.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("sms channel: %w", err)
		}
		channels.Register(smsCh)
		slog.Info("SMS channel initialized", "region", cfg.AWSRegion)
	}

	return channels, nil
}

// buildEmailProviders chains every configured backend behind the chosen
// primary.
func buildEmailProviders(ctx context.Context, cfg *config.Config) (*provider.Chain, error) {
	chain, err := provider.NewChain(cfg.EmailProvider,
		provider.NewSES(ctx, cfg.AWSRegion),
		provider.NewResend(cfg.ResendAPIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("email providers: %w", err)
	}
	return chain, nil
}
