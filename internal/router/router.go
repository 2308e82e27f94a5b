// Package router provides HTTP routing configuration for the alert-dispatcher API.
// It sets up routes and applies CORS and metrics middleware.
package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alert-dispatcher/internal/handlers"
)

// Router wraps the HTTP mux and provides route configuration.
type Router struct {
	mux      *http.ServeMux
	handlers *handlers.Handlers
	gatherer prometheus.Gatherer
}

// NewRouter creates a new router with all routes configured.
// A nil gatherer serves the default Prometheus registry on /metrics.
func NewRouter(h *handlers.Handlers, gatherer prometheus.Gatherer) *Router {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r := &Router{
		mux:      http.NewServeMux(),
		handlers: h,
		gatherer: gatherer,
	}
	r.setupRoutes()
	return r
}

// setupRoutes configures all HTTP routes for the API.
func (r *Router) setupRoutes() {
	// Alert intake
	receive := func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPost {
			r.handlers.ReceiveAlert(w, req)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
	r.mux.HandleFunc("/webhooks/alerts/", receive)
	r.mux.HandleFunc("/webhooks/alerts", receive)

	// User endpoints
	r.mux.HandleFunc("/api/v1/users", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			r.handlers.CreateUser(w, req)
		case http.MethodGet:
			if req.URL.Query().Get("email") != "" {
				r.handlers.GetUser(w, req)
			} else {
				r.handlers.ListUsers(w, req)
			}
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Store endpoints
	r.mux.HandleFunc("/api/v1/stores", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			r.handlers.CreateStore(w, req)
		case http.MethodGet:
			if req.URL.Query().Get("location") != "" {
				r.handlers.GetStore(w, req)
			} else {
				r.handlers.ListStores(w, req)
			}
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Subscription endpoints
	r.mux.HandleFunc("/api/v1/subscriptions", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			r.handlers.CreateSubscription(w, req)
		case http.MethodGet:
			r.handlers.ListSubscriptions(w, req)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Audit endpoints
	r.mux.HandleFunc("/api/v1/alerts", r.handlers.ListAlerts)
	r.mux.HandleFunc("/api/v1/notifications", r.handlers.ListNotifications)

	r.mux.HandleFunc("/api/v1/channels", r.handlers.ListChannels)
	r.mux.HandleFunc("/api/v1/services/metrics", r.handlers.GetServiceMetrics)

	r.mux.Handle("/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))

	// Health check endpoint
	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Handler returns the HTTP handler with metrics and CORS middleware applied.
func (r *Router) Handler() http.Handler {
	return corsMiddleware(metricsMiddleware(r.handlers.Metrics())(r.mux))
}
