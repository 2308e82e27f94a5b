// Package validation provides shared input validation helpers.
package validation

import (
	"net/mail"
	"net/url"
	"strings"
)

// IsValidURL checks if a string is an absolute HTTP/HTTPS URL with a host.
func IsValidURL(s string) bool {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Host != ""
}

// IsValidEmail checks if s is a bare email address (no display name).
func IsValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}
