package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrUnsupported   = errors.New("unsupported environment")
	ErrNotFound      = errors.New("not found")
)

// Outcome classifies a failed publish step for reporting.
type Outcome string

const (
	// OutcomeUserError marks failures the artist can fix in the session
	// (missing selection, ambiguous exporter output).
	OutcomeUserError Outcome = "needs_attention"
	// OutcomeFailed marks failures of the host or its exporters.
	OutcomeFailed Outcome = "failed"
	// OutcomeFatal marks failures that make the whole run pointless.
	OutcomeFatal Outcome = "fatal"
)

// Wrap builds an error message that includes plugin context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, plugin, operation, message string, err error) error {
	detail := buildDetail(plugin, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a plugin error to the outcome the publish report records.
func Classify(err error) Outcome {
	switch {
	case errors.Is(err, ErrUnsupported):
		return OutcomeFatal
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return OutcomeUserError
	default:
		return OutcomeFailed
	}
}

func buildDetail(plugin, operation, message string) string {
	parts := make([]string, 0, 3)
	if plugin = strings.TrimSpace(plugin); plugin != "" {
		parts = append(parts, plugin)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "plugin failure"
	}
	return strings.Join(parts, ": ")
}
