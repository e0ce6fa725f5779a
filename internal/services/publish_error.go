package services

import (
	"errors"
	"strings"
)

// PublishError is a user-facing failure raised by a publish plugin. Title is
// the one-line summary shown next to the instance; Description is a short
// markdown block explaining the issue and Hint the remediation.
type PublishError struct {
	Marker      error
	Title       string
	Description string
	Hint        string
}

// NewValidationError returns a PublishError tagged with ErrValidation.
func NewValidationError(title, description string) *PublishError {
	return &PublishError{Marker: ErrValidation, Title: title, Description: description}
}

// NewConfigurationError returns a PublishError tagged with ErrConfiguration.
func NewConfigurationError(title, hint string) *PublishError {
	return &PublishError{Marker: ErrConfiguration, Title: title, Hint: hint}
}

func (e *PublishError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := strings.TrimSpace(e.Title)
	if msg == "" {
		msg = "publish error"
	}
	if hint := strings.TrimSpace(e.Hint); hint != "" {
		msg += " (hint: " + hint + ")"
	}
	return msg
}

// Unwrap exposes the marker so errors.Is works against the sentinels.
func (e *PublishError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Marker
}

// DescribeError returns the markdown description attached to err, if any.
func DescribeError(err error) string {
	var pe *PublishError
	if errors.As(err, &pe) {
		return strings.TrimSpace(pe.Description)
	}
	return ""
}
