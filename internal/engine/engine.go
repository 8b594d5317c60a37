package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/mulcheck/internal/coverage"
	"github.com/roach88/mulcheck/internal/driver"
	"github.com/roach88/mulcheck/internal/dut"
	"github.com/roach88/mulcheck/internal/scoreboard"
	"github.com/roach88/mulcheck/internal/sim"
	"github.com/roach88/mulcheck/internal/stimulus"
)

// StopClosure is the stop reason when coverage closure ends the run.
const StopClosure = "coverage closure"

// Engine runs benches built from one set of settings.
//
// Thread-safety model:
//   - Run(): safe to call repeatedly and concurrently; every call builds
//     its own bench
type Engine struct {
	settings Settings
	source   func() stimulus.Source
	finite   bool
	runIDs   RunIDGenerator
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource replaces the random generator. newSource is called once per
// run so repeated runs replay the same stimulus.
func WithSource(newSource func() stimulus.Source) Option {
	return func(e *Engine) {
		e.source = newSource
		e.finite = true
	}
}

// WithRunIDGenerator sets how runs are named.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.runIDs = g
		}
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine. Settings are checked by Run.
func New(s Settings, opts ...Option) *Engine {
	e := &Engine{
		settings: s,
		runIDs:   UUIDv7Generator{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.source == nil {
		seed := s.Seed
		e.source = func() stimulus.Source { return stimulus.NewGenerator(seed) }
	}
	return e
}

// Settings returns the engine settings.
func (e *Engine) Settings() Settings { return e.settings }

// bench is the wired set of components for one run.
type bench struct {
	runID      string
	logger     *zap.Logger
	clock      *sim.Clock
	kernel     *sim.Kernel
	pins       *sim.Pins
	model      *dut.Model
	driver     *driver.Driver
	scoreboard *scoreboard.Scoreboard
	coverage   *coverage.Model
}

func (e *Engine) build() *bench {
	s := e.settings
	runID := e.runIDs.Generate()
	logger := e.logger.With(zap.String("run_id", runID))

	clock := sim.NewClock(s.HalfPeriod)
	b := &bench{
		runID:  runID,
		logger: logger,
		clock:  clock,
		kernel: sim.NewKernel(clock, sim.WithKernelLogger(logger.Named("kernel"))),
		pins:   sim.NewPins(),
	}

	b.model = dut.New(b.pins,
		dut.WithLatency(s.DUTLatency),
		dut.WithFault(s.DUTFault),
		dut.WithLogger(logger.Named("dut")),
	)
	b.driver = driver.New(b.pins, e.source(),
		driver.WithBudget(s.Transactions),
		driver.WithResponseTimeout(s.ResponseTimeout),
		driver.WithLogger(logger.Named("driver")),
	)
	b.scoreboard = scoreboard.New(b.pins, b.driver,
		scoreboard.WithClock(clock),
		scoreboard.WithDiagnosticMode(s.Diagnostics),
		scoreboard.WithLogger(logger.Named("scoreboard")),
	)
	b.driver.SetFailureRecorder(b.scoreboard)

	b.coverage = coverage.NewModel()
	samplerOpts := []coverage.SamplerOption{coverage.WithLogger(logger.Named("coverage"))}
	if s.StopOnClosure {
		samplerOpts = append(samplerOpts, coverage.WithOnClosure(func() { b.driver.Drain(StopClosure) }))
	}
	sampler := coverage.NewSampler(b.coverage, b.pins, b.driver, samplerOpts...)

	b.kernel.Spawn("dut", b.model.Run)
	b.kernel.Spawn("scoreboard-front", b.scoreboard.FrontEnd)
	b.kernel.Spawn("coverage", sampler.Run)
	b.kernel.Spawn("driver", b.driver.Run)
	b.kernel.Spawn("scoreboard-back", b.scoreboard.BackEnd)
	if s.HeartbeatCycles > 0 {
		b.kernel.Spawn("heartbeat", b.heartbeat(s.HeartbeatCycles))
	}
	return b
}

// Run executes one run to completion.
//
// The returned error is nil for both PASSED and FAILED runs; the verdict
// is in the Report. A non-nil error means the run could not be trusted: a
// settings error (no Report), a protocol error or cancellation (partial
// Report).
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	if err := e.settings.Validate(e.finite); err != nil {
		return nil, err
	}

	b := e.build()
	b.logger.Info("run starting",
		zap.Uint64("seed", e.settings.Seed),
		zap.Int64("transactions", e.settings.Transactions),
		zap.Bool("stop_on_closure", e.settings.StopOnClosure),
		zap.String("fault", string(e.settings.DUTFault)),
	)

	runErr := b.kernel.Run(ctx)
	report := b.report(e.settings)

	if runErr != nil {
		b.logger.Error("run aborted", zap.Error(runErr), zap.Int64("cycle", report.Cycles))
		return report, fmt.Errorf("run %s: %w", b.runID, runErr)
	}

	b.logger.Info("run finished",
		zap.String("verdict", report.Verdict),
		zap.String("stop_reason", report.StopReason),
		zap.Int64("cycles", report.Cycles),
		zap.Int64("checked", report.Checked),
		zap.Int("mismatches", len(report.Mismatches)),
		zap.Int("coverage_pct", report.Coverage.Percent),
	)
	return report, nil
}
