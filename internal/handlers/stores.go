package handlers

import (
	"net/http"
	"strings"
)

// CreateStoreRequest represents a request to create a store.
type CreateStoreRequest struct {
	Location string `json:"location"`
	Name     string `json:"name"`
}

// CreateStore creates a new store.
func (h *Handlers) CreateStore(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req CreateStoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Location = strings.TrimSpace(req.Location)
	req.Name = strings.TrimSpace(req.Name)

	if req.Location == "" {
		http.Error(w, "location is required", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	store, err := h.db.CreateStore(r.Context(), req.Location, req.Name)
	if err != nil {
		handleDBError(w, err, "Store", req.Location)
		return
	}

	writeJSON(w, http.StatusCreated, store)
}

// GetStore retrieves a store by location.
func (h *Handlers) GetStore(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	location := r.URL.Query().Get("location")
	store, err := h.db.GetStore(r.Context(), location)
	if err != nil {
		handleDBError(w, err, "Store", location)
		return
	}

	writeJSON(w, http.StatusOK, store)
}

// ListStores retrieves stores with pagination.
func (h *Handlers) ListStores(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	p := parsePagination(r)
	page, err := h.db.ListStores(r.Context(), p.Limit, p.Offset)
	if err != nil {
		handleDBError(w, err, "Stores", "")
		return
	}

	writeJSON(w, http.StatusOK, page)
}
