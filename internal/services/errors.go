package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration  = errors.New("configuration error")
	ErrValidation     = errors.New("validation error")
	ErrConnection     = errors.New("connection error")
	ErrPresenceUpdate = errors.New("presence update error")
	ErrExternalTool   = errors.New("external tool error")
	ErrTimeout        = errors.New("timeout")
	ErrTransient      = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorHint maps a classified error to the next step an operator should take.
func ErrorHint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "Discord did not answer in time; it will be retried next tick"
	case errors.Is(err, ErrConnection):
		return "make sure the Discord desktop client is running"
	case errors.Is(err, ErrPresenceUpdate):
		return "presence push failed; a reconnect will be attempted"
	case errors.Is(err, ErrValidation):
		return "check the supplied value"
	case errors.Is(err, ErrConfiguration):
		return "check the config file and DAW catalog"
	case errors.Is(err, ErrExternalTool):
		return "check that dawpresence may list processes"
	default:
		return "check logs for details"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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
