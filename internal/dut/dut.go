// Package dut is a behavioural model of the multiplier under test.
//
// The harness treats the component as a black box behind sim.Pins; this
// model exists so the harness can be run end to end, and so its failure
// paths can be exercised through fault injection.
//
// Protocol, sampled on rising edges:
//   - reset_n low clears all state, busy and data_out_valid
//   - data_in_valid while not busy latches an operand beat; the first beat
//     is A, the second B
//   - after B, busy is held for Latency cycles, then busy drops and
//     data_out_valid pulses for exactly one cycle with the result
package dut

import (
	"context"
	"fmt"
	"math/bits"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/mulcheck/internal/sim"
	"github.com/roach88/mulcheck/internal/txn"
)

// Fault selects a deliberate defect in the model.
type Fault string

const (
	// FaultNone is a correct multiplier.
	FaultNone Fault = "none"
	// FaultParityCheckStuckLow never reports an input parity error.
	FaultParityCheckStuckLow Fault = "parity-check-stuck-low"
	// FaultProductLSBFlip inverts bit 0 of every product.
	FaultProductLSBFlip Fault = "product-lsb-flip"
	// FaultProductParityInvert reports the wrong product parity.
	FaultProductParityInvert Fault = "product-parity-invert"
	// FaultDropResponse finishes computing but never raises data_out_valid.
	FaultDropResponse Fault = "drop-response"
)

// Faults lists every supported fault, FaultNone first.
func Faults() []Fault {
	return []Fault{FaultNone, FaultParityCheckStuckLow, FaultProductLSBFlip, FaultProductParityInvert, FaultDropResponse}
}

// ParseFault validates a fault name. The empty string means FaultNone.
func ParseFault(s string) (Fault, error) {
	if s == "" {
		return FaultNone, nil
	}
	for _, f := range Faults() {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown fault %q", s)
}

// DefaultLatency is the number of cycles busy is held after the B beat.
const DefaultLatency = 2

// Model is the component model. It is driven by Run as a sim process.
type Model struct {
	pins    *sim.Pins
	latency int
	fault   Fault
	logger  *zap.Logger

	secondBeat bool
	a          int16
	parityA    bool
	countdown  int
	pending    txn.Response
	completed  int64
}

// Option configures a Model.
type Option func(*Model)

// WithLatency sets the compute latency in cycles (minimum 1).
func WithLatency(cycles int) Option {
	return func(m *Model) {
		if cycles >= 1 {
			m.latency = cycles
		}
	}
}

// WithFault injects a defect.
func WithFault(f Fault) Option {
	return func(m *Model) {
		if f != "" {
			m.fault = f
		}
	}
}

// WithLogger sets the model logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a model attached to pins.
func New(pins *sim.Pins, opts ...Option) *Model {
	m := &Model{
		pins:    pins,
		latency: DefaultLatency,
		fault:   FaultNone,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fault returns the injected fault.
func (m *Model) Fault() Fault { return m.fault }

// Completed returns the number of products computed since time zero.
func (m *Model) Completed() int64 { return m.completed }

// Run is the sim process body: one Step per rising edge.
func (m *Model) Run(ctx context.Context, p *sim.Process) error {
	for {
		if err := p.WaitRising(ctx); err != nil {
			return err
		}
		m.Step()
	}
}

// Step applies one rising edge.
func (m *Model) Step() {
	pins := m.pins
	pins.DataOutValid = false

	if pins.InReset() {
		m.clear()
		return
	}

	if m.countdown > 0 {
		m.countdown--
		if m.countdown == 0 {
			m.complete()
		}
		return
	}

	if !pins.DataInValid || pins.Busy {
		return
	}

	if !m.secondBeat {
		m.a, m.parityA = pins.DataIn, pins.DataInParity
		m.secondBeat = true
		return
	}

	m.pending = m.compute(m.a, m.parityA, pins.DataIn, pins.DataInParity)
	m.secondBeat = false
	m.countdown = m.latency
	pins.Busy = true
}

func (m *Model) clear() {
	m.secondBeat = false
	m.countdown = 0
	m.pending = txn.Response{}
	m.pins.Busy = false
	m.pins.DataOutValid = false
}

func (m *Model) complete() {
	pins := m.pins
	pins.Busy = false
	m.completed++
	if m.fault == FaultDropResponse {
		m.logger.Debug("dropping response", zap.Int64("completed", m.completed))
		return
	}
	pins.DataOut = m.pending.Product
	pins.DataOutParity = m.pending.ProductParity
	pins.InputParityError = m.pending.InputParityError
	pins.DataOutValid = true
}

// compute is the datapath: a shift-and-add multiplier over the magnitudes
// with a sign fix-up, plus the parity trees.
func (m *Model) compute(a int16, pa bool, b int16, pb bool) txn.Response {
	neg := (a < 0) != (b < 0)
	ma, mb := magnitude(a), magnitude(b)

	var acc uint32
	for i := 0; i < 16; i++ {
		if mb&(1<<i) != 0 {
			acc += ma << i
		}
	}
	product := int32(acc)
	if neg {
		product = -product
	}

	parityErr := (bits.OnesCount16(uint16(a))&1 == 1) != pa || (bits.OnesCount16(uint16(b))&1 == 1) != pb
	switch m.fault {
	case FaultParityCheckStuckLow:
		parityErr = false
	case FaultProductLSBFlip:
		product ^= 1
	}

	parity := bits.OnesCount32(uint32(product))&1 == 1
	if m.fault == FaultProductParityInvert {
		parity = !parity
	}

	return txn.Response{Product: product, ProductParity: parity, InputParityError: parityErr}
}

func magnitude(v int16) uint32 {
	if v < 0 {
		return uint32(-int32(v))
	}
	return uint32(v)
}
