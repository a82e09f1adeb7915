package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks caller input problems (bad URL, unsupported language).
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks lookups that matched no live record.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrAcquisition marks source fetch failures (network, removed video, bad format).
	ErrAcquisition = errors.New("acquisition error")
	// ErrTranscription marks transcription backend failures.
	ErrTranscription = errors.New("transcription error")
	// ErrExternalTool marks generic external binary or service failures.
	ErrExternalTool = errors.New("external tool error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Message extracts a human-readable failure message from a stage error,
// stripping the leading sentinel prefix when present.
func Message(err error) string {
	if err == nil {
		return ""
	}
	text := strings.TrimSpace(err.Error())
	for _, marker := range []error{ErrValidation, ErrNotFound, ErrConfiguration, ErrAcquisition, ErrTranscription, ErrExternalTool} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(text, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}
	return text
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
