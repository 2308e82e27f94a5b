package router

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"alert-dispatcher/internal/handlers"
)

// DefaultWriteTimeout bounds response writes. Synchronous dispatch needs a
// longer value since the request waits for every delivery.
const DefaultWriteTimeout = 15 * time.Second

// ServerOption configures NewServer.
type ServerOption func(*serverOptions)

type serverOptions struct {
	gatherer     prometheus.Gatherer
	writeTimeout time.Duration
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(o *serverOptions) {
		o.gatherer = g
	}
}

// WithWriteTimeout overrides DefaultWriteTimeout.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(o *serverOptions) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

// NewServer creates a new HTTP server with the router configured.
func NewServer(port string, h *handlers.Handlers, opts ...ServerOption) *http.Server {
	o := serverOptions{writeTimeout: DefaultWriteTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	router := NewRouter(h, o.gatherer)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: o.writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
}
