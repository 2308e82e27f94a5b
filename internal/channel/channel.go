// Package channel defines the delivery channel interface and the registry
// the dispatcher uses to look channels up by key.
package channel

import (
	"context"
	"sort"

	"alert-dispatcher/internal/database"
)

// Channel keys known to the system. A subscription may only name one of these.
const (
	KindAPI   = "api"
	KindEmail = "email"
	KindSMS   = "sms"
)

// Kinds lists every channel key a subscription may reference.
// A known kind is not necessarily registered at runtime.
var Kinds = []string{KindAPI, KindEmail, KindSMS}

// IsKnownKind reports whether key is one of Kinds.
func IsKnownKind(key string) bool {
	for _, k := range Kinds {
		if k == key {
			return true
		}
	}
	return false
}

// Shared diagnostic texts for malformed input.
const (
	InfoInvalidUser  = "Invalid user"
	InfoInvalidAlert = "Invalid parameters for alert"
)

// Result is the outcome of one delivery attempt.
type Result struct {
	Success bool   `json:"success"`
	Info    string `json:"info"`
}

// Failure builds an unsuccessful Result.
func Failure(info string) Result {
	return Result{Success: false, Info: info}
}

// Success builds a successful Result.
func Success(info string) Result {
	return Result{Success: true, Info: info}
}

// Channel delivers an alert to a single user through one medium.
// Send never returns an error: every failure is reported in the Result.
type Channel interface {
	Send(ctx context.Context, user *database.User, alert *database.Alert) Result

	// Type returns the channel key this implementation handles (e.g. "api").
	Type() string
}

// CheckInput validates the arguments common to all channels.
// Returns a failure Result and false when they are unusable.
func CheckInput(user *database.User, alert *database.Alert) (Result, bool) {
	if user == nil || user.Email == "" {
		return Failure(InfoInvalidUser), false
	}
	if alert == nil || alert.AlertUUID == "" {
		return Failure(InfoInvalidAlert), false
	}
	return Result{}, true
}

// Registry maps channel keys to implementations.
// It is populated at startup and read-only afterwards.
type Registry struct {
	channels map[string]Channel
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]Channel),
	}
}

// Register adds a channel under its Type. A later registration for the same key replaces the earlier one.
func (r *Registry) Register(ch Channel) {
	r.channels[ch.Type()] = ch
}

// Get retrieves a channel by key.
func (r *Registry) Get(key string) (Channel, bool) {
	ch, ok := r.channels[key]
	return ch, ok
}

// List returns the registered channel keys in sorted order.
func (r *Registry) List() []string {
	keys := make([]string, 0, len(r.channels))
	for k := range r.channels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
