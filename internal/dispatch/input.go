package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"alert-dispatcher/internal/severity"
	"alert-dispatcher/internal/validation"
)

// Field error messages returned to webhook callers.
const (
	MsgRequired       = "This field is required."
	MsgInvalidURL     = "Enter a valid URL."
	MsgInvalidNumber  = "A valid number is required."
	MsgDuplicateAlert = "alert with this alert uuid already exists."
	MsgNotAString     = "Not a valid string."
)

// Column limits of the alerts table, in characters.
const (
	MaxURLLength      = 200
	MaxLocationLength = 100
	MaxUUIDLength     = 100
)

// Webhook field names.
const (
	FieldURL         = "url"
	FieldLocation    = "location"
	FieldAlertUUID   = "alert_uuid"
	FieldLabel       = "label"
	FieldTimeSpotted = "time_spotted"
)

// AlertInput is the webhook payload describing one detector alert.
type AlertInput struct {
	URL         string   `json:"url"`
	Location    string   `json:"location"`
	AlertUUID   string   `json:"alert_uuid"`
	Label       string   `json:"label"`
	TimeSpotted SpotTime `json:"time_spotted"`

	// fields whose JSON value was neither a string nor a number
	badType map[string]bool
}

// UnmarshalJSON implements json.Unmarshaler. String fields also accept
// numbers, kept as their JSON text. Any other type is recorded and
// reported by Validate instead of failing the decode.
func (in *AlertInput) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*in = AlertInput{}
	texts := map[string]*string{
		FieldURL:       &in.URL,
		FieldLocation:  &in.Location,
		FieldAlertUUID: &in.AlertUUID,
		FieldLabel:     &in.Label,
	}
	for field, dst := range texts {
		v, ok := raw[field]
		if !ok {
			continue
		}
		s, ok := textValue(v)
		if !ok {
			if in.badType == nil {
				in.badType = make(map[string]bool)
			}
			in.badType[field] = true
			continue
		}
		*dst = s
	}

	if v, ok := raw[FieldTimeSpotted]; ok {
		return in.TimeSpotted.UnmarshalJSON(v)
	}
	return nil
}

// textValue reads a JSON string, or a number as its literal text. null
// reads as empty.
func textValue(v json.RawMessage) (string, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || string(v) == "null" {
		return "", true
	}
	switch c := v[0]; {
	case c == '"':
		var s string
		err := json.Unmarshal(v, &s)
		return s, err == nil
	case c == '-' || (c >= '0' && c <= '9'):
		return string(v), true
	}
	return "", false
}

// SpotTime is the producer-supplied detection time in seconds.
// It accepts a JSON number or a numeric string.
type SpotTime struct {
	Value float64
	Set   bool // a non-null, non-empty value was present
	Valid bool // the value parsed as a finite number
}

// UnmarshalJSON implements json.Unmarshaler. It never fails; malformed
// values are reported through Valid so they surface as field errors.
func (s *SpotTime) UnmarshalJSON(data []byte) error {
	*s = SpotTime{}
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		s.Set = true
		s.setFloat(strconv.ParseFloat(raw, 64))
		return nil
	}

	s.Set = true
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		s.setFloat(f, nil)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s SpotTime) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

func (s *SpotTime) setFloat(f float64, err error) {
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return
	}
	s.Value = f
	s.Valid = true
}

// Spot returns a valid SpotTime holding seconds.
func Spot(seconds float64) SpotTime {
	return SpotTime{Value: seconds, Set: true, Valid: true}
}

// ValidationError reports field-level problems with an alert. No alert is
// persisted when it is returned.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid alert: " + strings.Join(names, ", ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func fieldError(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.add(field, msg)
	return e
}

// InvalidChoice is the message for a label outside the accepted set.
func InvalidChoice(label string) string {
	return fmt.Sprintf("%q is not a valid choice.", label)
}

// TooLong is the message for a value over limit characters.
func TooLong(limit int) string {
	return fmt.Sprintf("Ensure this field has no more than %d characters.", limit)
}

// UnknownStore is the message for a location that names no store.
func UnknownStore(location string) string {
	return fmt.Sprintf("Invalid pk %q - object does not exist.", location)
}

// Validate checks the shape of in. Store existence and uniqueness are
// checked by the insert.
func (in *AlertInput) Validate() *ValidationError {
	e := &ValidationError{}

	if in.checkText(e, FieldURL, in.URL, MaxURLLength) && !validation.IsValidURL(in.URL) {
		e.add(FieldURL, MsgInvalidURL)
	}
	in.checkText(e, FieldLocation, in.Location, MaxLocationLength)
	in.checkText(e, FieldAlertUUID, in.AlertUUID, MaxUUIDLength)
	if in.checkText(e, FieldLabel, in.Label, 0) && !severity.IsKnownLabel(in.Label) {
		e.add(FieldLabel, InvalidChoice(in.Label))
	}

	switch {
	case !in.TimeSpotted.Set:
		e.add(FieldTimeSpotted, MsgRequired)
	case !in.TimeSpotted.Valid:
		e.add(FieldTimeSpotted, MsgInvalidNumber)
	}

	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// checkText adds the type, required and length errors for a string field
// and reports whether it passed them. limit <= 0 means unbounded.
func (in *AlertInput) checkText(e *ValidationError, field, value string, limit int) bool {
	switch {
	case in.badType[field]:
		e.add(field, MsgNotAString)
	case strings.TrimSpace(value) == "":
		e.add(field, MsgRequired)
	case limit > 0 && utf8.RuneCountInString(value) > limit:
		e.add(field, TooLong(limit))
	default:
		return true
	}
	return false
}
