// Package driver sequences transactions onto the pins through the two-beat
// input handshake.
//
// The driver acts on falling edges only, so its pin writes are stable by
// the time the component samples them on the next rising edge. It is
// single-outstanding: a MULTIPLY is followed by a wait for data_out_valid
// before the next transaction starts.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/mulcheck/internal/scoreboard"
	"github.com/roach88/mulcheck/internal/sim"
	"github.com/roach88/mulcheck/internal/stimulus"
	"github.com/roach88/mulcheck/internal/txn"
)

// State is a handshake state.
type State uint8

const (
	StateIdle State = iota
	StateReset
	StateAwaitNotBusyA
	StateDriveA
	StateDriveADeassert
	StateAwaitNotBusyB
	StateDriveB
	StateAwaitResponse
)

var stateNames = [...]string{
	StateIdle:           "IDLE",
	StateReset:          "RESET",
	StateAwaitNotBusyA:  "AWAIT_NOT_BUSY_A",
	StateDriveA:         "DRIVE_A",
	StateDriveADeassert: "DRIVE_A_DEASSERT",
	StateAwaitNotBusyB:  "AWAIT_NOT_BUSY_B",
	StateDriveB:         "DRIVE_B",
	StateAwaitResponse:  "AWAIT_RESPONSE",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Stop reasons the driver hands to the kernel.
const (
	StopBudget    = "transaction budget exhausted"
	StopExhausted = "stimulus exhausted"
)

// DefaultResponseTimeout is the default bound, in cycles, on every wait for
// the component.
const DefaultResponseTimeout = 1000

// FailureRecorder receives failures the driver detects itself.
type FailureRecorder interface {
	RecordFailure(kind string, t txn.Transaction, detail string)
}

// errTimedOut aborts the current transaction after a timeout was recorded.
var errTimedOut = errors.New("driver: component timed out")

// Driver dispatches transactions from a stimulus source.
type Driver struct {
	pins     *sim.Pins
	source   stimulus.Source
	failures FailureRecorder
	logger   *zap.Logger
	budget   int64
	timeout  int

	// owned by the Run process
	state      State
	inflight   txn.Transaction
	hasFlight  bool
	seq        int64
	dispatched int64
	timeouts   int64

	mu    sync.Mutex
	drain string
}

// Option configures a Driver.
type Option func(*Driver)

// WithBudget limits the run to n transactions, RESETs included. Zero means
// no limit.
func WithBudget(n int64) Option {
	return func(d *Driver) {
		if n >= 0 {
			d.budget = n
		}
	}
}

// WithResponseTimeout bounds every wait on the component to cycles.
func WithResponseTimeout(cycles int) Option {
	return func(d *Driver) {
		if cycles > 0 {
			d.timeout = cycles
		}
	}
}

// WithFailureRecorder sets where timeouts are reported.
func WithFailureRecorder(r FailureRecorder) Option {
	return func(d *Driver) { d.failures = r }
}

// SetFailureRecorder sets where timeouts are reported, for wiring that has
// to build the recorder after the driver. Call before Run.
func (d *Driver) SetFailureRecorder(r FailureRecorder) { d.failures = r }

// WithLogger sets the driver logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a driver writing to pins.
func New(pins *sim.Pins, source stimulus.Source, opts ...Option) *Driver {
	d := &Driver{
		pins:    pins,
		source:  source,
		logger:  zap.NewNop(),
		timeout: DefaultResponseTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// InFlight returns the transaction currently being driven.
func (d *Driver) InFlight() (txn.Transaction, bool) {
	return d.inflight, d.hasFlight
}

// State returns the current handshake state.
func (d *Driver) State() State { return d.state }

// Dispatched returns the number of transactions started.
func (d *Driver) Dispatched() int64 { return d.dispatched }

// Timeouts returns the number of waits that timed out.
func (d *Driver) Timeouts() int64 { return d.timeouts }

// Drain asks the driver to stop the kernel with reason once the current
// transaction is finished. Safe from any process.
func (d *Driver) Drain(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drain == "" {
		d.drain = reason
	}
}

func (d *Driver) drainReason() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.drain
}

// Run is the sim process body. It resets the component, then dispatches
// transactions until the budget or the source runs out, or Drain is
// called.
func (d *Driver) Run(ctx context.Context, p *sim.Process) error {
	d.setState(StateIdle)
	if err := d.reset(ctx, p); err != nil {
		return err
	}

	for {
		if reason := d.drainReason(); reason != "" {
			p.Kernel().Stop(reason)
			return nil
		}
		if d.budget > 0 && d.dispatched >= d.budget {
			p.Kernel().Stop(StopBudget)
			return nil
		}
		t, ok := d.source.Next()
		if !ok {
			p.Kernel().Stop(StopExhausted)
			return nil
		}

		err := d.execute(ctx, p, t)
		d.hasFlight = false
		d.setState(StateIdle)
		if errors.Is(err, errTimedOut) {
			continue
		}
		if err != nil {
			return err
		}
	}
}

func (d *Driver) execute(ctx context.Context, p *sim.Process, t txn.Transaction) error {
	d.seq++
	t = t.WithSeq(d.seq)
	d.inflight, d.hasFlight = t, true
	d.dispatched++
	d.logger.Debug("dispatch", zap.Stringer("txn", t), zap.Int64("cycle", p.Clock().Cycle()))

	d.setState(StateAwaitNotBusyA)
	if err := d.awaitNotBusy(ctx, p, t); err != nil {
		return err
	}
	d.setState(StateDriveA)
	d.beat(t.A, t.ParityA)

	d.setState(StateDriveADeassert)
	if err := p.WaitFalling(ctx); err != nil {
		return err
	}
	d.pins.DataInValid = false

	d.setState(StateAwaitNotBusyB)
	if err := d.awaitNotBusy(ctx, p, t); err != nil {
		return err
	}
	d.setState(StateDriveB)
	d.beat(t.B, t.ParityB)

	if t.Op == txn.OpReset {
		return d.reset(ctx, p)
	}
	d.setState(StateAwaitResponse)
	return d.awaitResponse(ctx, p, t)
}

// beat presents one operand. The caller is on a falling edge.
func (d *Driver) beat(v int16, parity bool) {
	d.pins.DataIn = v
	d.pins.DataInParity = parity
	d.pins.DataInValid = true
}

// reset holds reset_n low for one period, starting at the next falling
// edge.
func (d *Driver) reset(ctx context.Context, p *sim.Process) error {
	d.setState(StateReset)
	if err := p.WaitFalling(ctx); err != nil {
		return err
	}
	d.pins.DataInValid = false
	d.pins.ResetN = false
	if err := p.WaitFalling(ctx); err != nil {
		return err
	}
	d.pins.ResetN = true
	return nil
}

// awaitNotBusy returns on the first falling edge with busy low.
func (d *Driver) awaitNotBusy(ctx context.Context, p *sim.Process, t txn.Transaction) error {
	for waited := 0; ; waited++ {
		if waited >= d.timeout {
			return d.timedOut(ctx, p, t, fmt.Sprintf("busy still high after %d cycles", waited))
		}
		if err := p.WaitFalling(ctx); err != nil {
			return err
		}
		if !d.pins.Busy {
			return nil
		}
	}
}

// awaitResponse deasserts the B beat on the next falling edge, then waits
// for data_out_valid.
func (d *Driver) awaitResponse(ctx context.Context, p *sim.Process, t txn.Transaction) error {
	for waited := 0; ; waited++ {
		if waited >= d.timeout {
			return d.timedOut(ctx, p, t, fmt.Sprintf("no data_out_valid within %d cycles", waited))
		}
		if err := p.WaitFalling(ctx); err != nil {
			return err
		}
		d.pins.DataInValid = false
		if d.pins.DataOutValid {
			return nil
		}
	}
}

// timedOut records the failure and resets the component so the run can go
// on.
func (d *Driver) timedOut(ctx context.Context, p *sim.Process, t txn.Transaction, detail string) error {
	d.timeouts++
	d.logger.Warn("component timed out",
		zap.String("state", d.state.String()),
		zap.Int64("seq", t.Seq),
		zap.String("detail", detail),
	)
	if d.failures != nil {
		d.failures.RecordFailure(scoreboard.KindTimeout, t, detail)
	}
	if err := d.reset(ctx, p); err != nil {
		return err
	}
	return errTimedOut
}

func (d *Driver) setState(s State) {
	if d.state != s {
		d.logger.Debug("state", zap.Stringer("from", d.state), zap.Stringer("to", s))
	}
	d.state = s
}
