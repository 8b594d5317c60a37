package engine

import (
	"time"

	"github.com/roach88/mulcheck/internal/driver"
	"github.com/roach88/mulcheck/internal/dut"
	"github.com/roach88/mulcheck/internal/scoreboard"
	"github.com/roach88/mulcheck/internal/sim"
)

// Defaults for Settings fields.
const (
	DefaultSeed            = 1
	DefaultTransactions    = 1000
	DefaultHeartbeatCycles = 1000
)

// Settings parameterise one run.
type Settings struct {
	// Seed feeds the stimulus generator. Ignored when a source is supplied.
	Seed uint64

	// Transactions is the budget, RESETs included. Zero means no budget,
	// which is only valid together with StopOnClosure or a finite source.
	Transactions int64

	// StopOnClosure ends the run once every coverage goal is hit.
	StopOnClosure bool

	HalfPeriod      time.Duration
	HeartbeatCycles int64 // zero disables the heartbeat
	ResponseTimeout int   // cycles

	DUTLatency int
	DUTFault   dut.Fault

	Diagnostics scoreboard.DiagnosticMode
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Seed:            DefaultSeed,
		Transactions:    DefaultTransactions,
		HalfPeriod:      sim.DefaultHalfPeriod,
		HeartbeatCycles: DefaultHeartbeatCycles,
		ResponseTimeout: driver.DefaultResponseTimeout,
		DUTLatency:      dut.DefaultLatency,
		DUTFault:        dut.FaultNone,
		Diagnostics:     scoreboard.DiagMismatch,
	}
}

// Validate checks the settings. finiteSource reports whether the stimulus
// source runs dry on its own.
func (s Settings) Validate(finiteSource bool) error {
	if s.Transactions < 0 {
		return newOutOfRange("transactions", "must be >= 0, got %d", s.Transactions)
	}
	if s.HalfPeriod <= 0 {
		return newOutOfRange("half_period", "must be positive, got %s", s.HalfPeriod)
	}
	if s.HeartbeatCycles < 0 {
		return newOutOfRange("heartbeat_cycles", "must be >= 0, got %d", s.HeartbeatCycles)
	}
	if s.ResponseTimeout < 1 {
		return newOutOfRange("response_timeout_cycles", "must be >= 1, got %d", s.ResponseTimeout)
	}
	if s.DUTLatency < 1 {
		return newOutOfRange("dut.latency", "must be >= 1, got %d", s.DUTLatency)
	}
	if s.Transactions == 0 && !s.StopOnClosure && !finiteSource {
		return &SettingsError{
			Code:    ErrCodeUnbounded,
			Field:   "transactions",
			Message: "no transaction budget, no closure stop and an endless stimulus source",
		}
	}
	return nil
}
