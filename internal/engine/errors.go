package engine

import (
	"errors"
	"fmt"
)

// SettingsError reports bench settings that cannot produce a run.
type SettingsError struct {
	// Code identifies the error category.
	Code SettingsErrorCode

	// Field names the offending setting.
	Field string

	// Message is a human-readable description.
	Message string
}

// SettingsErrorCode categorizes settings errors.
type SettingsErrorCode string

const (
	// ErrCodeOutOfRange indicates a numeric setting outside its bounds.
	ErrCodeOutOfRange SettingsErrorCode = "OUT_OF_RANGE"

	// ErrCodeUnbounded indicates a run that could never stop.
	ErrCodeUnbounded SettingsErrorCode = "UNBOUNDED_RUN"
)

// Error implements the error interface.
func (e *SettingsError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsSettingsError returns true if err is or wraps a SettingsError.
func IsSettingsError(err error) bool {
	var se *SettingsError
	return errors.As(err, &se)
}

func newOutOfRange(field string, format string, args ...any) *SettingsError {
	return &SettingsError{
		Code:    ErrCodeOutOfRange,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
