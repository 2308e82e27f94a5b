// Package handlers provides HTTP handlers for the alert-dispatcher API.
package handlers

import (
	"alert-dispatcher/internal/channel"
	"alert-dispatcher/internal/database"
	"alert-dispatcher/internal/dispatch"
	"alert-dispatcher/internal/metrics"
	pkgmetrics "alert-dispatcher/pkg/metrics"
)

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	db            Repository
	dispatcher    AlertDispatcher
	channels      ChannelLister
	metricsReader MetricsReader // nil when Redis is disabled
	metrics       metrics.Recorder
}

// Option is a functional option for configuring Handlers.
type Option func(*Handlers)

// WithMetrics sets a custom metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(h *Handlers) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithMetricsReader enables the service metrics endpoint.
func WithMetricsReader(r *pkgmetrics.Reader) Option {
	return func(h *Handlers) {
		if r != nil {
			h.metricsReader = r
		}
	}
}

// NewHandlers creates a new handlers instance.
func NewHandlers(db *database.DB, d *dispatch.Dispatcher, channels *channel.Registry, opts ...Option) *Handlers {
	h := &Handlers{
		db:         db,
		dispatcher: d,
		channels:   channels,
		metrics:    metrics.NoOp{}, // never nil
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewHandlersWithDeps creates handlers with explicit interface dependencies.
// This constructor is primarily for testing.
func NewHandlersWithDeps(db Repository, d AlertDispatcher, channels ChannelLister, reader MetricsReader, m metrics.Recorder) *Handlers {
	if m == nil {
		m = metrics.NoOp{}
	}
	return &Handlers{
		db:            db,
		dispatcher:    d,
		channels:      channels,
		metricsReader: reader,
		metrics:       m,
	}
}

// Metrics returns the recorder used by the handlers, for middleware use.
func (h *Handlers) Metrics() metrics.Recorder {
	return h.metrics
}
