// Package events defines the events published by the dispatcher.
package events

import "time"

// SchemaVersion is the current AlertDispatched schema version.
const SchemaVersion = 1

// Dispatch outcomes.
const (
	OutcomeDispatched   = "dispatched"
	OutcomeNoRecipients = "no_recipients"
)

// AlertDispatched summarizes one completed dispatch. It is published to the
// alerts.dispatched topic keyed by alert_uuid.
type AlertDispatched struct {
	SchemaVersion int    `json:"schema_version"`
	AlertUUID     string `json:"alert_uuid"`
	Location      string `json:"location"`
	Label         string `json:"label"`
	Severity      string `json:"severity"`
	Outcome       string `json:"outcome"`
	Recipients    int    `json:"recipients"`
	Sent          int    `json:"sent"`
	Failed        int    `json:"failed"`
	Skipped       int    `json:"skipped"`
	DispatchedAt  int64  `json:"dispatched_at"` // Unix timestamp
}

// Time returns DispatchedAt as a time.Time.
func (e *AlertDispatched) Time() time.Time {
	return time.Unix(e.DispatchedAt, 0)
}
