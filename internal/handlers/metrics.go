package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"alert-dispatcher/pkg/metrics"
)

// ServiceMetricsResponse is the body of GET /api/v1/services/metrics.
// Every name in KnownServices has an entry in Services, offline or not.
type ServiceMetricsResponse struct {
	Services      map[string]*metrics.ServiceMetrics `json:"services"`
	KnownServices []string                           `json:"known_services"`
}

// GetServiceMetrics serves the Redis snapshots, or one of them with
// ?service=name. A service without a snapshot is reported offline.
// GET /api/v1/services/metrics
func (h *Handlers) GetServiceMetrics(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if h.metricsReader == nil {
		http.Error(w, "Service metrics unavailable: Redis is not configured", http.StatusServiceUnavailable)
		return
	}

	if name := r.URL.Query().Get("service"); name != "" {
		h.writeOneServiceMetrics(w, r, name)
		return
	}

	snapshots, err := h.metricsReader.GetAllServiceMetrics(r.Context())
	if err != nil {
		slog.Error("Failed to read service metrics", "error", err)
		http.Error(w, "Failed to retrieve service metrics", http.StatusInternalServerError)
		return
	}
	if snapshots == nil {
		snapshots = make(map[string]*metrics.ServiceMetrics)
	}
	for _, name := range metrics.ServiceNames {
		if snapshots[name] == nil {
			snapshots[name] = metrics.Offline(name)
		}
	}

	writeJSON(w, http.StatusOK, ServiceMetricsResponse{
		Services:      snapshots,
		KnownServices: metrics.ServiceNames,
	})
}

func (h *Handlers) writeOneServiceMetrics(w http.ResponseWriter, r *http.Request, name string) {
	snapshot, err := h.metricsReader.GetServiceMetrics(r.Context(), name)
	switch {
	case errors.Is(err, metrics.ErrNoSnapshot):
		snapshot = metrics.Offline(name)
	case err != nil:
		slog.Error("Failed to read service metrics", "service", name, "error", err)
		http.Error(w, "Failed to retrieve service metrics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
