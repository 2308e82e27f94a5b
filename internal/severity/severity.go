// Package severity classifies alert labels into severity tiers.
package severity

import "strings"

// Tier is the urgency class used to filter subscriptions.
type Tier string

const (
	Critical Tier = "critical"
	Standard Tier = "standard"
)

// Both is the subscription preference that matches every tier.
const Both = "both"

// Alert labels accepted at ingestion.
const (
	LabelTheft      = "theft"
	LabelSuspicious = "suspicious"
	LabelNormal     = "normal"
)

// Labels lists the accepted alert labels in display order.
var Labels = []string{LabelTheft, LabelSuspicious, LabelNormal}

var classification = map[string]Tier{
	LabelTheft:      Critical,
	LabelSuspicious: Standard,
	LabelNormal:     Standard,
}

// Classify maps an alert label to its severity tier.
// Matching is case-insensitive; unrecognized labels are Standard.
func Classify(label string) Tier {
	if tier, ok := classification[Normalize(label)]; ok {
		return tier
	}
	return Standard
}

// Filter returns the subscription preferences that should receive an alert of tier t.
func Filter(t Tier) []string {
	return []string{string(t), Both}
}

// Normalize lowercases and trims a label.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// IsKnownLabel reports whether label is one of Labels, ignoring case.
func IsKnownLabel(label string) bool {
	_, ok := classification[Normalize(label)]
	return ok
}

var validPreferences = map[string]struct{}{
	string(Standard): {},
	string(Critical): {},
	Both:             {},
}

// Preferences lists the valid subscription preferences.
var Preferences = []string{string(Standard), string(Critical), Both}

// IsValidPreference reports whether p is a valid subscription preference.
func IsValidPreference(p string) bool {
	_, ok := validPreferences[p]
	return ok
}
