// Package config loads bench configuration files.
//
// A configuration file is CUE (JSON is accepted as a subset) unified with
// the embedded #Bench schema. Schema violations are errors. Unknown
// diagnostic modes and colours are not: Normalize reports them as warnings
// and falls back to the defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"go.uber.org/zap"

	"github.com/roach88/mulcheck/internal/dut"
	"github.com/roach88/mulcheck/internal/engine"
	"github.com/roach88/mulcheck/internal/scoreboard"
)

//go:embed schema.cue
var schemaSource []byte

// Color selects when the banner is coloured.
type Color string

const (
	ColorAuto   Color = "auto"
	ColorAlways Color = "always"
	ColorNever  Color = "never"
)

// Colors lists the valid colour modes, default first.
func Colors() []Color {
	return []Color{ColorAuto, ColorAlways, ColorNever}
}

// Config mirrors #Bench.
type Config struct {
	Seed                  uint64            `json:"seed"`
	Transactions          int64             `json:"transactions"`
	StopOnClosure         bool              `json:"stop_on_closure"`
	HalfPeriodNS          int64             `json:"half_period_ns"`
	HeartbeatCycles       int64             `json:"heartbeat_cycles"`
	ResponseTimeoutCycles int               `json:"response_timeout_cycles"`
	DUT                   DUTConfig         `json:"dut"`
	Diagnostics           DiagnosticsConfig `json:"diagnostics"`

	// Source is the file the config was read from; empty for defaults.
	Source string `json:"-"`
}

// DUTConfig configures the component model.
type DUTConfig struct {
	Latency int    `json:"latency"`
	Fault   string `json:"fault"`
}

// DiagnosticsConfig configures console output.
type DiagnosticsConfig struct {
	Mode  string `json:"mode"`
	Color string `json:"color"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg, err := decode(cuecontext.New(), nil, "")
	if err != nil {
		// The embedded schema is part of the binary; failing here is a
		// build defect.
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &ConfigError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}
	}
	if err != nil {
		return nil, &ConfigError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading config file: %v", err)}
	}
	return Parse(data, path)
}

// Parse validates config source. filename is used in error positions.
func Parse(data []byte, filename string) (*Config, error) {
	return decode(cuecontext.New(), data, filename)
}

func decode(ctx *cue.Context, data []byte, filename string) (*Config, error) {
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, cueError(ErrCodeSchema, "compiling schema", err)
	}
	value := schema.LookupPath(cue.ParsePath("#Bench"))

	if data != nil {
		file := ctx.CompileBytes(data, cue.Filename(filename))
		if err := file.Err(); err != nil {
			return nil, cueError(ErrCodeSyntax, "parsing config", err)
		}
		value = value.Unify(file)
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeSchema, "config does not match schema", err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, cueError(ErrCodeSchema, "decoding config", err)
	}
	cfg.Source = filename
	return &cfg, nil
}

// Normalize replaces unknown diagnostic modes and colours with their
// defaults. Each replacement is returned as a warning.
func (c *Config) Normalize() []*ConfigError {
	var warnings []*ConfigError

	if _, err := scoreboard.ParseDiagnosticMode(c.Diagnostics.Mode); err != nil {
		warnings = append(warnings, &ConfigError{
			Code:    ErrCodeUnknownMode,
			Field:   "diagnostics.mode",
			Value:   c.Diagnostics.Mode,
			Message: fmt.Sprintf("unknown diagnostic mode, using %q", scoreboard.DiagMismatch),
		})
		c.Diagnostics.Mode = string(scoreboard.DiagMismatch)
	}

	if _, err := ParseColor(c.Diagnostics.Color); err != nil {
		warnings = append(warnings, &ConfigError{
			Code:    ErrCodeUnknownColor,
			Field:   "diagnostics.color",
			Value:   c.Diagnostics.Color,
			Message: fmt.Sprintf("unknown colour mode, using %q", ColorAuto),
		})
		c.Diagnostics.Color = string(ColorAuto)
	}
	return warnings
}

// LogWarnings normalizes c and logs every replacement as a warning.
func (c *Config) LogWarnings(logger *zap.Logger) {
	for _, w := range c.Normalize() {
		logger.Warn("configuration error",
			zap.String("code", w.Code),
			zap.String("field", w.Field),
			zap.String("value", w.Value),
			zap.String("detail", w.Message),
		)
	}
}

// Settings converts a normalized config into engine settings.
func (c *Config) Settings() (engine.Settings, error) {
	fault, err := dut.ParseFault(c.DUT.Fault)
	if err != nil {
		return engine.Settings{}, &ConfigError{Code: ErrCodeSchema, Field: "dut.fault", Value: c.DUT.Fault, Message: err.Error()}
	}
	mode, err := scoreboard.ParseDiagnosticMode(c.Diagnostics.Mode)
	if err != nil {
		mode = scoreboard.DiagMismatch
	}

	return engine.Settings{
		Seed:            c.Seed,
		Transactions:    c.Transactions,
		StopOnClosure:   c.StopOnClosure,
		HalfPeriod:      time.Duration(c.HalfPeriodNS) * time.Nanosecond,
		HeartbeatCycles: c.HeartbeatCycles,
		ResponseTimeout: c.ResponseTimeoutCycles,
		DUTLatency:      c.DUT.Latency,
		DUTFault:        fault,
		Diagnostics:     mode,
	}, nil
}

// ParseColor validates a colour mode. The empty string selects ColorAuto.
func ParseColor(s string) (Color, error) {
	if s == "" {
		return ColorAuto, nil
	}
	for _, c := range Colors() {
		if string(c) == strings.ToLower(s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown colour mode %q", s)
}

func cueError(code, msg string, err error) *ConfigError {
	ce := &ConfigError{Code: code, Message: fmt.Sprintf("%s: %s", msg, cueerrors.Details(err, nil))}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		ce.Pos = errs[0].Position()
	}
	return ce
}
