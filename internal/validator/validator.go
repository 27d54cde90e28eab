// Package validator provides input validation for account
// configuration.
package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidEmail = errors.New("invalid email format")
	ErrInvalidHost  = errors.New("invalid host format")
	ErrInputTooLong = errors.New("input exceeds maximum length")
	ErrEmptyInput   = errors.New("input cannot be empty")
)

// Host regex: DNS labels of alphanumerics and hyphens, joined by dots.
// Labels must start and end with an alphanumeric and are max 63 chars.
var hostRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)

// ValidateEmail validates email address format according to RFC 5322.
// Returns nil if valid, or an appropriate error.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" {
		return ErrEmptyInput
	}

	// RFC 5321 specifies max email length of 254 characters
	if utf8.RuneCountInString(email) > 254 {
		return ErrInputTooLong
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateHost validates a server hostname against DNS standards.
// Returns nil if valid, or an appropriate error.
func ValidateHost(host string) error {
	host = strings.TrimSpace(strings.ToLower(host))

	if host == "" {
		return ErrEmptyInput
	}

	// RFC 1035 limits a full domain name to 253 characters
	if utf8.RuneCountInString(host) > 253 {
		return ErrInputTooLong
	}

	if !hostRegex.MatchString(host) {
		return ErrInvalidHost
	}

	return nil
}
