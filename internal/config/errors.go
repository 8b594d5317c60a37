package config

import (
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"
)

// Error codes.
const (
	ErrCodeNotFound     = "CONFIG_NOT_FOUND"
	ErrCodeSyntax       = "CONFIG_SYNTAX"
	ErrCodeSchema       = "CONFIG_SCHEMA"
	ErrCodeUnknownMode  = "UNKNOWN_DIAGNOSTIC_MODE"
	ErrCodeUnknownColor = "UNKNOWN_COLOR"
)

// ConfigError is a malformed configuration. Load returns it for files that
// cannot be used; Normalize returns it as a warning for values that were
// replaced.
type ConfigError struct {
	Code    string
	Field   string
	Value   string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Field != "" {
		fmt.Fprintf(&b, " (field=%s", e.Field)
		if e.Value != "" {
			fmt.Fprintf(&b, ", value=%q", e.Value)
		}
		b.WriteByte(')')
	}
	return b.String()
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
