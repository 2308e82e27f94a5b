package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"alert-dispatcher/internal/dispatch"
	"alert-dispatcher/internal/events"
)

// Webhook status texts.
const (
	StatusAlertReceived   = "Alert correctly received"
	StatusNoSubscriptions = "No user subscriptions found"
)

// DispatchStatusHeader carries the status text on responses without a body.
const DispatchStatusHeader = "X-Dispatch-Status"

// StatusResponse is the webhook acknowledgement body.
type StatusResponse struct {
	Status string `json:"status"`
}

// ReceiveAlert accepts a detector alert and runs it through the pipeline.
// POST /webhooks/alerts/
func (h *Handlers) ReceiveAlert(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var in dispatch.AlertInput
	if !decodeJSON(w, r, &in) {
		h.metrics.RecordRejected()
		return
	}

	res, err := h.dispatcher.Dispatch(r.Context(), in)
	if err != nil {
		var verr *dispatch.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, verr.Fields)
			return
		}
		slog.Error("Failed to process alert", "alert_uuid", in.AlertUUID, "error", err)
		http.Error(w, "Failed to process alert", http.StatusInternalServerError)
		return
	}

	if res.Outcome == events.OutcomeNoRecipients {
		w.Header().Set(DispatchStatusHeader, StatusNoSubscriptions)
		writeJSON(w, http.StatusNoContent, StatusResponse{Status: StatusNoSubscriptions})
		return
	}

	w.Header().Set(DispatchStatusHeader, StatusAlertReceived)
	writeJSON(w, http.StatusOK, StatusResponse{Status: StatusAlertReceived})
}
