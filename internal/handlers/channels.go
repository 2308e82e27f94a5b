package handlers

import (
	"net/http"

	"alert-dispatcher/internal/channel"
)

// ChannelsResponse lists the channel keys subscriptions may use and those
// with a live implementation.
type ChannelsResponse struct {
	Known      []string `json:"known"`
	Registered []string `json:"registered"`
}

// ListChannels returns known and registered channel keys.
// GET /api/v1/channels
func (h *Handlers) ListChannels(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, http.StatusOK, ChannelsResponse{
		Known:      channel.Kinds,
		Registered: h.channels.List(),
	})
}
