package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"alert-dispatcher/internal/database"
)

// handleDBError maps repository errors to HTTP responses.
// resource is the display name used in messages (e.g. "User").
func handleDBError(w http.ResponseWriter, err error, resource, resourceID string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		http.Error(w, resource+" not found", http.StatusNotFound)
	case errors.Is(err, database.ErrAlreadyExists):
		http.Error(w, resource+" already exists", http.StatusConflict)
	case errors.Is(err, database.ErrInvalidReference):
		http.Error(w, "Referenced user or store does not exist", http.StatusBadRequest)
	default:
		slog.Error("Database error", "error", err, "resource", resource, "resource_id", resourceID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
