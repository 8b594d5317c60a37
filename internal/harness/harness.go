package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/mulcheck/internal/dut"
	"github.com/roach88/mulcheck/internal/engine"
	"github.com/roach88/mulcheck/internal/stimulus"
)

// Result is the outcome of a scenario execution.
type Result struct {
	Scenario string `json:"scenario"`

	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Errors holds one message per failed expectation. Empty if Pass.
	Errors []string `json:"errors,omitempty"`

	Report *engine.Report `json:"report"`
}

func newResult(name string, report *engine.Report) *Result {
	return &Result{Scenario: name, Pass: true, Errors: []string{}, Report: report}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

type options struct {
	logger *zap.Logger
}

// Option configures Run.
type Option func(*options)

// WithLogger routes bench logs to l. Scenarios run silently by default.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Settings returns the engine settings a scenario runs with.
func (s *Scenario) Settings() (engine.Settings, error) {
	settings := engine.DefaultSettings()
	settings.Transactions = 0
	if s.Seed != 0 {
		settings.Seed = s.Seed
	}
	fault, err := dut.ParseFault(s.DUT.Fault)
	if err != nil {
		return engine.Settings{}, err
	}
	settings.DUTFault = fault
	if s.DUT.Latency > 0 {
		settings.DUTLatency = s.DUT.Latency
	}
	if s.ResponseTimeout > 0 {
		settings.ResponseTimeout = s.ResponseTimeout
	}
	return settings, nil
}

// Run executes a scenario and checks its expectations.
//
// The returned error covers failures to run at all (bad scenario, protocol
// error, cancellation). Unmet expectations are reported on the Result.
func Run(ctx context.Context, sc *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	settings, err := sc.Settings()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	script, err := sc.Script()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	eng := engine.New(settings,
		engine.WithSource(func() stimulus.Source { return stimulus.NewScripted(script...) }),
		engine.WithRunIDGenerator(engine.NewFixedGenerator(sc.Name)),
		engine.WithLogger(o.logger.With(zap.String("scenario", sc.Name))),
	)
	report, err := eng.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	result := newResult(sc.Name, report)
	for _, e := range checkExpectations(sc.Expect, report) {
		result.AddError(e.Error())
	}
	return result, nil
}
