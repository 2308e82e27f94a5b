// Package payload provides payload builders for the delivery channels.
package payload

import (
	"fmt"
	"strings"
	"time"

	"alert-dispatcher/internal/database"
	"alert-dispatcher/internal/severity"
)

// APIPayload is the JSON body posted to the notification webhook.
type APIPayload struct {
	URL          string `json:"url"`
	AlertUUID    string `json:"alert_uuid"`
	Location     string `json:"location"`
	Label        string `json:"label"`
	TargetUserID string `json:"target_user_id"`
}

// BuildAPIPayload builds the webhook body addressed to the user's API identity.
func BuildAPIPayload(user *database.User, alert *database.Alert) APIPayload {
	return APIPayload{
		URL:          alert.URL,
		AlertUUID:    alert.AlertUUID,
		Location:     alert.Location,
		Label:        alert.Label,
		TargetUserID: user.APIUID,
	}
}

// EmailPayload represents email message content.
type EmailPayload struct {
	Subject string
	Body    string
}

// BuildEmailPayload builds email subject and body from an alert.
func BuildEmailPayload(alert *database.Alert) EmailPayload {
	tier := severity.Classify(alert.Label)
	return EmailPayload{
		Subject: fmt.Sprintf("Alert: %s - %s at %s", tier, alert.Label, alert.Location),
		Body:    buildEmailBody(alert, tier),
	}
}

func buildEmailBody(alert *database.Alert, tier severity.Tier) string {
	var sb strings.Builder
	sb.WriteString("Security Alert\n")
	sb.WriteString("==============\n\n")
	fmt.Fprintf(&sb, "Severity: %s\n", tier)
	fmt.Fprintf(&sb, "Label: %s\n", alert.Label)
	fmt.Fprintf(&sb, "Location: %s\n", alert.Location)
	fmt.Fprintf(&sb, "Spotted at: %s\n", spottedAt(alert.TimeSpotted))
	fmt.Fprintf(&sb, "Alert ID: %s\n", alert.AlertUUID)
	fmt.Fprintf(&sb, "Evidence: %s\n", alert.URL)
	return sb.String()
}

// BuildSMSText builds a short single-message text for an alert.
func BuildSMSText(alert *database.Alert) string {
	tier := severity.Classify(alert.Label)
	return fmt.Sprintf("[%s] %s at %s (%s) %s",
		strings.ToUpper(string(tier)),
		alert.Label,
		alert.Location,
		spottedAt(alert.TimeSpotted),
		alert.URL,
	)
}

// spottedAt renders a producer timestamp in seconds as RFC 3339 UTC.
func spottedAt(ts float64) string {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC().Format(time.RFC3339)
}
