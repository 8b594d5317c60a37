package coverage

import (
	"context"

	"go.uber.org/zap"

	"github.com/roach88/mulcheck/internal/sim"
	"github.com/roach88/mulcheck/internal/txn"
)

// InFlightSource exposes the transaction currently on the pins.
type InFlightSource interface {
	InFlight() (txn.Transaction, bool)
}

// Sampler feeds the model from the pins. It runs on rising edges and uses
// the same two-beat counter as the scoreboard front end.
type Sampler struct {
	model     *Model
	pins      *sim.Pins
	source    InFlightSource
	logger    *zap.Logger
	onClosure func()

	secondBeat bool
	a          int16
	parityA    bool
	wasReset   bool
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithLogger sets the sampler logger.
func WithLogger(l *zap.Logger) SamplerOption {
	return func(s *Sampler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOnClosure registers fn to be called once, on the sample that closes
// coverage.
func WithOnClosure(fn func()) SamplerOption {
	return func(s *Sampler) { s.onClosure = fn }
}

// NewSampler creates a sampler recording into model.
func NewSampler(model *Model, pins *sim.Pins, source InFlightSource, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		model:  model,
		pins:   pins,
		source: source,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the model being filled.
func (s *Sampler) Model() *Model { return s.model }

// Run is the sim process body.
func (s *Sampler) Run(ctx context.Context, p *sim.Process) error {
	for {
		if err := p.WaitRising(ctx); err != nil {
			return err
		}
		if s.sample() {
			s.logger.Info("coverage closed", zap.Int64("cycle", p.Clock().Cycle()))
			if s.onClosure != nil {
				s.onClosure()
			}
		}
	}
}

// sample handles one rising edge and reports whether coverage just closed.
func (s *Sampler) sample() bool {
	pins := s.pins
	if pins.InReset() {
		s.secondBeat = false
		asserted := !s.wasReset
		s.wasReset = true
		if asserted {
			return s.model.SampleReset()
		}
		return false
	}
	s.wasReset = false

	if !pins.DataInValid {
		return false
	}
	if !s.secondBeat {
		s.a, s.parityA = pins.DataIn, pins.DataInParity
		s.secondBeat = true
		return false
	}
	s.secondBeat = false

	t := txn.Transaction{A: s.a, ParityA: s.parityA, B: pins.DataIn, ParityB: pins.DataInParity, Op: txn.OpMultiply}
	if declared, ok := s.source.InFlight(); ok && declared.SameOperands(t) {
		t.Op = declared.Op
		t.Seq = declared.Seq
	} else {
		// The scoreboard front end reports the inconsistency; coverage
		// only records what it saw.
		s.logger.Debug("sampled beats without a matching in-flight transaction", zap.Stringer("observed", t))
	}
	return s.model.Sample(t)
}
