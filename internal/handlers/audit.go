package handlers

import (
	"net/http"
	"strconv"

	"alert-dispatcher/internal/database"
)

// ListAlerts retrieves received alerts, optionally filtered by location.
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	p := parsePagination(r)
	page, err := h.db.ListAlerts(r.Context(), optionalQueryParam(r, "location"), p.Limit, p.Offset)
	if err != nil {
		handleDBError(w, err, "Alerts", "")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// ListNotifications retrieves delivery audit records, optionally filtered
// by alert_uuid and sent.
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	filter := database.NotificationFilter{
		AlertUUID: optionalQueryParam(r, "alert_uuid"),
	}
	if sentStr := r.URL.Query().Get("sent"); sentStr != "" {
		sent, err := strconv.ParseBool(sentStr)
		if err != nil {
			http.Error(w, "sent must be true or false", http.StatusBadRequest)
			return
		}
		filter.Sent = &sent
	}
	p := parsePagination(r)

	page, err := h.db.ListNotifications(r.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		handleDBError(w, err, "Notifications", "")
		return
	}

	writeJSON(w, http.StatusOK, page)
}
