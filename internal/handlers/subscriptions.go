package handlers

import (
	"net/http"
	"strings"

	"alert-dispatcher/internal/channel"
	"alert-dispatcher/internal/database"
	"alert-dispatcher/internal/severity"
)

// CreateSubscriptionRequest represents a request to subscribe a user to a store.
type CreateSubscriptionRequest struct {
	User                string `json:"user"`
	Store               string `json:"store"`
	AlertPreference     string `json:"alert_preference"`
	NotificationChannel string `json:"notification_channel"`
}

// CreateSubscription creates a subscription. Duplicates are allowed.
func (h *Handlers) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req CreateSubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.AlertPreference = strings.ToLower(strings.TrimSpace(req.AlertPreference))
	req.NotificationChannel = strings.ToLower(strings.TrimSpace(req.NotificationChannel))

	if req.User == "" {
		http.Error(w, "user is required", http.StatusBadRequest)
		return
	}
	if req.Store == "" {
		http.Error(w, "store is required", http.StatusBadRequest)
		return
	}
	if !severity.IsValidPreference(req.AlertPreference) {
		http.Error(w, "alert_preference must be one of: "+strings.Join(severity.Preferences, ", "), http.StatusBadRequest)
		return
	}
	if !channel.IsKnownKind(req.NotificationChannel) {
		http.Error(w, "notification_channel must be one of: "+strings.Join(channel.Kinds, ", "), http.StatusBadRequest)
		return
	}

	sub, err := h.db.CreateSubscription(r.Context(), req.User, req.Store, req.AlertPreference, req.NotificationChannel)
	if err != nil {
		handleDBError(w, err, "Subscription", req.User)
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

// ListSubscriptions retrieves subscriptions, optionally filtered by store and user.
func (h *Handlers) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	filter := database.SubscriptionFilter{
		StoreLocation: optionalQueryParam(r, "store"),
		UserEmail:     optionalQueryParam(r, "user"),
	}
	p := parsePagination(r)

	page, err := h.db.ListSubscriptions(r.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		handleDBError(w, err, "Subscriptions", "")
		return
	}

	writeJSON(w, http.StatusOK, page)
}
