package scoreboard

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/mulcheck/internal/refmodel"
	"github.com/roach88/mulcheck/internal/sim"
	"github.com/roach88/mulcheck/internal/txn"
)

// InFlightSource exposes the transaction currently being presented on the
// pins. The driver implements it.
type InFlightSource interface {
	InFlight() (txn.Transaction, bool)
}

// DiagnosticMode selects which checks produce log records.
type DiagnosticMode string

const (
	// DiagMismatch logs failures only.
	DiagMismatch DiagnosticMode = "mismatch"
	// DiagAll logs every check, passing ones included.
	DiagAll DiagnosticMode = "all"
	// DiagQuiet logs nothing per check; failures are still recorded.
	DiagQuiet DiagnosticMode = "quiet"
)

// DiagnosticModes lists the valid modes, default first.
func DiagnosticModes() []DiagnosticMode {
	return []DiagnosticMode{DiagMismatch, DiagAll, DiagQuiet}
}

// ParseDiagnosticMode validates a mode name. The empty string selects
// DiagMismatch.
func ParseDiagnosticMode(s string) (DiagnosticMode, error) {
	if s == "" {
		return DiagMismatch, nil
	}
	for _, m := range DiagnosticModes() {
		if string(m) == strings.ToLower(s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown diagnostic mode %q", s)
}

// Failure kinds.
const (
	KindMismatch = "mismatch"
	KindTimeout  = "timeout"
)

// Response field names used in diagnostics.
const (
	FieldProduct          = "product"
	FieldProductParity    = "product_parity"
	FieldInputParityError = "input_parity_error"
)

// FieldDiff is one disagreeing response field. Bits are reported as 0/1.
type FieldDiff struct {
	Field    string `json:"field"`
	Expected int64  `json:"expected"`
	Observed int64  `json:"observed"`
}

// Mismatch is the diagnostic recorded for a failed check.
type Mismatch struct {
	Kind     string          `json:"kind"`
	Cycle    int64           `json:"cycle"`
	Txn      txn.Transaction `json:"transaction"`
	Expected txn.Response    `json:"expected"`
	Observed txn.Response    `json:"observed"`
	Fields   []FieldDiff     `json:"fields,omitempty"`
	Detail   string          `json:"detail,omitempty"`
}

// Summary renders the diagnostic on one line.
func (m Mismatch) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at cycle %d: %s", m.Kind, m.Cycle, m.Txn)
	for _, f := range m.Fields {
		fmt.Fprintf(&b, "; %s expected %d observed %d", f.Field, f.Expected, f.Observed)
	}
	if m.Detail != "" {
		fmt.Fprintf(&b, "; %s", m.Detail)
	}
	return b.String()
}

// Scoreboard matches responses to transactions.
//
// Thread-safety model: FrontEnd and BackEnd run as sim processes and are
// serialized by the kernel. Accessors (Mismatches, Checked, ...) are meant
// to be read after the kernel has stopped.
type Scoreboard struct {
	pins    *sim.Pins
	source  InFlightSource
	queue   *Queue
	verdict *Verdict
	logger  *zap.Logger
	mode    DiagnosticMode
	clock   *sim.Clock

	// front end beat counter
	secondBeat bool
	a          int16
	parityA    bool

	checked    int64
	mismatches []Mismatch
}

// Option configures a Scoreboard.
type Option func(*Scoreboard)

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scoreboard) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDiagnosticMode selects which checks are logged.
func WithDiagnosticMode(m DiagnosticMode) Option {
	return func(s *Scoreboard) {
		if m != "" {
			s.mode = m
		}
	}
}

// WithClock lets diagnostics carry the cycle number.
func WithClock(c *sim.Clock) Option {
	return func(s *Scoreboard) { s.clock = c }
}

// New creates a scoreboard watching pins. source supplies the declared
// operation of each beat pair.
func New(pins *sim.Pins, source InFlightSource, opts ...Option) *Scoreboard {
	s := &Scoreboard{
		pins:    pins,
		source:  source,
		queue:   NewQueue(),
		verdict: &Verdict{},
		logger:  zap.NewNop(),
		mode:    DiagMismatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FrontEnd is the rising-edge process body.
func (s *Scoreboard) FrontEnd(ctx context.Context, p *sim.Process) error {
	for {
		if err := p.WaitRising(ctx); err != nil {
			return err
		}
		if err := s.sampleInputs(); err != nil {
			return err
		}
	}
}

// BackEnd is the falling-edge process body.
func (s *Scoreboard) BackEnd(ctx context.Context, p *sim.Process) error {
	for {
		if err := p.WaitFalling(ctx); err != nil {
			return err
		}
		if err := s.checkOutputs(); err != nil {
			return err
		}
	}
}

// sampleInputs runs the front end for one rising edge.
func (s *Scoreboard) sampleInputs() error {
	pins := s.pins
	if pins.InReset() {
		if n := s.queue.Clear(); n > 0 {
			s.logger.Debug("reset discarded outstanding transactions", zap.Int("dropped", n))
		}
		s.secondBeat = false
		return nil
	}
	if !pins.DataInValid {
		return nil
	}

	if !s.secondBeat {
		s.a, s.parityA = pins.DataIn, pins.DataInParity
		s.secondBeat = true
		return nil
	}
	s.secondBeat = false

	observed := txn.Transaction{A: s.a, ParityA: s.parityA, B: pins.DataIn, ParityB: pins.DataInParity}
	declared, ok := s.source.InFlight()
	if !ok {
		return NewNoInFlightError(observed)
	}
	if !declared.SameOperands(observed) {
		return NewOperandMismatchError(declared, observed)
	}
	if declared.Op == txn.OpReset {
		return nil
	}

	s.queue.Enqueue(declared)
	return nil
}

// checkOutputs runs the back end for one falling edge.
func (s *Scoreboard) checkOutputs() error {
	pins := s.pins
	if !pins.DataOutValid {
		return nil
	}

	observed := txn.Response{
		Product:          pins.DataOut,
		ProductParity:    pins.DataOutParity,
		InputParityError: pins.InputParityError,
	}
	t, ok := s.queue.TryDequeue()
	if !ok {
		return NewUnderflowError(observed)
	}

	s.check(t, observed)
	return nil
}

// check compares observed against the reference model and records the
// outcome.
func (s *Scoreboard) check(t txn.Transaction, observed txn.Response) {
	s.checked++
	expected := refmodel.Predict(t)

	var diffs []FieldDiff
	if expected.Product != observed.Product {
		diffs = append(diffs, FieldDiff{FieldProduct, int64(expected.Product), int64(observed.Product)})
	}
	if expected.ProductParity != observed.ProductParity {
		diffs = append(diffs, FieldDiff{FieldProductParity, int64(txn.Bit(expected.ProductParity)), int64(txn.Bit(observed.ProductParity))})
	}
	if expected.InputParityError != observed.InputParityError {
		diffs = append(diffs, FieldDiff{FieldInputParityError, int64(txn.Bit(expected.InputParityError)), int64(txn.Bit(observed.InputParityError))})
	}

	if len(diffs) == 0 {
		if s.mode == DiagAll {
			s.logger.Info("check passed", transactionFields(t, expected)...)
		}
		return
	}

	s.record(Mismatch{
		Kind:     KindMismatch,
		Cycle:    s.cycle(),
		Txn:      t,
		Expected: expected,
		Observed: observed,
		Fields:   diffs,
	})
}

// RecordFailure records a failure detected outside the compare path, such
// as a response timeout, and latches FAILED.
func (s *Scoreboard) RecordFailure(kind string, t txn.Transaction, detail string) {
	s.record(Mismatch{
		Kind:     kind,
		Cycle:    s.cycle(),
		Txn:      t,
		Expected: refmodel.Predict(t),
		Detail:   detail,
	})
}

func (s *Scoreboard) record(m Mismatch) {
	s.mismatches = append(s.mismatches, m)
	if s.verdict.Fail() {
		s.logger.Warn("verdict latched FAILED", zap.Int64("seq", m.Txn.Seq), zap.Int64("cycle", m.Cycle))
	}
	if s.mode == DiagQuiet {
		return
	}

	fields := transactionFields(m.Txn, m.Expected)
	fields = append(fields, zap.String("kind", m.Kind), zap.Int64("cycle", m.Cycle))
	for _, d := range m.Fields {
		fields = append(fields,
			zap.Int64(d.Field+"_expected", d.Expected),
			zap.Int64(d.Field+"_observed", d.Observed),
		)
	}
	if m.Detail != "" {
		fields = append(fields, zap.String("detail", m.Detail))
	}
	s.logger.Error("check failed", fields...)
}

func transactionFields(t txn.Transaction, expected txn.Response) []zap.Field {
	return []zap.Field{
		zap.Int64("seq", t.Seq),
		zap.Int16("a", t.A),
		zap.Int("parity_a", txn.Bit(t.ParityA)),
		zap.Int16("b", t.B),
		zap.Int("parity_b", txn.Bit(t.ParityB)),
		zap.Int32("expected_product", expected.Product),
	}
}

func (s *Scoreboard) cycle() int64 {
	if s.clock == nil {
		return 0
	}
	return s.clock.Cycle()
}

// Verdict returns the run verdict.
func (s *Scoreboard) Verdict() *Verdict { return s.verdict }

// Queue returns the outstanding-transaction queue.
func (s *Scoreboard) Queue() *Queue { return s.queue }

// Checked returns the number of responses compared.
func (s *Scoreboard) Checked() int64 { return s.checked }

// Outstanding returns the number of transactions awaiting a response.
func (s *Scoreboard) Outstanding() int { return s.queue.Len() }

// Mismatches returns a copy of the recorded failures in detection order.
func (s *Scoreboard) Mismatches() []Mismatch {
	out := make([]Mismatch, len(s.mismatches))
	copy(out, s.mismatches)
	return out
}
