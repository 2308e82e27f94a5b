package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// requireMethod writes 405 and returns false unless r uses method.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// decodeJSON reads at most maxBodyBytes of JSON into v, writing 400 on
// failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON encodes v with status. 204 responses carry no body.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if statusCode == http.StatusNoContent {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// optionalQueryParam returns a pointer to a non-empty query value, or nil.
func optionalQueryParam(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}

// Page limits for list endpoints.
const (
	defaultLimit = 50
	maxLimit     = 500
)

// Pagination is the limit/offset pair of a list request.
type Pagination struct {
	Limit  int
	Offset int
}

// parsePagination reads ?limit and ?offset. Missing or malformed values
// fall back to the defaults and limit is capped at maxLimit.
func parsePagination(r *http.Request) Pagination {
	q := r.URL.Query()
	p := Pagination{
		Limit:  queryInt(q.Get("limit"), defaultLimit, 1),
		Offset: queryInt(q.Get("offset"), 0, 0),
	}
	p.Limit = min(p.Limit, maxLimit)
	return p
}

// queryInt parses raw, returning def when it is empty, not a number or
// below floor.
func queryInt(raw string, def, floor int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < floor {
		return def
	}
	return n
}
