package handlers

import (
	"net/http"
	"strings"

	"alert-dispatcher/internal/validation"
)

// CreateUserRequest represents a request to create a user.
type CreateUserRequest struct {
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	APIUID string `json:"api_uid"`
}

// CreateUser creates a new user.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if req.Email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}
	if !validation.IsValidEmail(req.Email) {
		http.Error(w, "email must be a valid address", http.StatusBadRequest)
		return
	}

	user, err := h.db.CreateUser(r.Context(), req.Email, strings.TrimSpace(req.Phone), strings.TrimSpace(req.APIUID))
	if err != nil {
		handleDBError(w, err, "User", req.Email)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// GetUser retrieves a user by email.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	email := r.URL.Query().Get("email")
	user, err := h.db.GetUser(r.Context(), email)
	if err != nil {
		handleDBError(w, err, "User", email)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ListUsers retrieves users with pagination.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	p := parsePagination(r)
	page, err := h.db.ListUsers(r.Context(), p.Limit, p.Offset)
	if err != nil {
		handleDBError(w, err, "Users", "")
		return
	}

	writeJSON(w, http.StatusOK, page)
}
