package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrStopped is returned from Process.Wait once the Kernel has finished.
// Processes should return it (or any error wrapping it) unchanged; the
// Kernel treats it as a clean exit.
var ErrStopped = errors.New("sim: kernel stopped")

// Stop reasons recorded when the Kernel winds down on its own.
const (
	StopAllDone = "all processes finished"
)

// ProcessFunc is the body of a process. It must suspend only through the
// Process it is given.
type ProcessFunc func(ctx context.Context, p *Process) error

// Process is the handle a running process uses to suspend itself.
type Process struct {
	name   string
	fn     ProcessFunc
	kernel *Kernel
	resume chan struct{}

	// owned by the kernel loop goroutine
	wait Edge
	done bool
}

// Name returns the name the process was spawned with.
func (p *Process) Name() string { return p.name }

// Kernel returns the kernel running the process.
func (p *Process) Kernel() *Kernel { return p.kernel }

// Clock returns the kernel clock.
func (p *Process) Clock() *Clock { return p.kernel.clock }

// Wait suspends the process until the next edge of the given kind.
//
// Returns ErrStopped if the kernel finished while the process was suspended,
// or the context error if ctx was cancelled.
func (p *Process) Wait(ctx context.Context, e Edge) error {
	if e != Rising && e != Falling {
		return fmt.Errorf("sim: process %s: invalid wait edge %d", p.name, e)
	}
	k := p.kernel
	select {
	case k.yields <- yield{edge: e}:
	case <-k.halt:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-p.resume:
		return nil
	case <-k.halt:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitRising is shorthand for Wait(ctx, Rising).
func (p *Process) WaitRising(ctx context.Context) error { return p.Wait(ctx, Rising) }

// WaitFalling is shorthand for Wait(ctx, Falling).
func (p *Process) WaitFalling(ctx context.Context) error { return p.Wait(ctx, Falling) }

// yield is what a process hands back to the kernel when it suspends or ends.
type yield struct {
	edge Edge
	done bool
	err  error
}

// Kernel schedules processes against a Clock.
//
// Thread-safety model:
//   - Spawn(): before Run only
//   - Stop(), StopReason(): safe from any goroutine
//   - Run(): exactly once
type Kernel struct {
	clock  *Clock
	logger *zap.Logger
	procs  []*Process
	yields chan yield
	halt   chan struct{}

	mu         sync.Mutex
	stopReason string
	stopping   bool
	ran        bool
}

// KernelOption configures a Kernel.
type KernelOption func(*Kernel)

// WithKernelLogger sets the logger for scheduling events.
func WithKernelLogger(l *zap.Logger) KernelOption {
	return func(k *Kernel) {
		if l != nil {
			k.logger = l
		}
	}
}

// NewKernel creates a kernel driving the given clock.
func NewKernel(clock *Clock, opts ...KernelOption) *Kernel {
	k := &Kernel{
		clock:  clock,
		logger: zap.NewNop(),
		yields: make(chan yield),
		halt:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Clock returns the kernel clock.
func (k *Kernel) Clock() *Clock { return k.clock }

// Spawn registers a process. Processes are resumed in registration order
// within each phase.
func (k *Kernel) Spawn(name string, fn ProcessFunc) {
	k.procs = append(k.procs, &Process{
		name:   name,
		fn:     fn,
		kernel: k,
		resume: make(chan struct{}),
	})
}

// Stop asks the kernel to finish after the current phase. The first reason
// given is kept.
func (k *Kernel) Stop(reason string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.stopping {
		k.stopping = true
		k.stopReason = reason
	}
}

// StopReason returns the reason passed to the first Stop call.
func (k *Kernel) StopReason() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.stopReason
}

func (k *Kernel) stopRequested() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.stopping
}

// Run starts every process and drives the clock until Stop is called, all
// processes return, a process fails, or ctx is cancelled.
//
// Returns nil on a clean stop. A failing process yields its error wrapped
// with the process name; cancellation yields ctx.Err().
func (k *Kernel) Run(ctx context.Context) error {
	k.mu.Lock()
	if k.ran {
		k.mu.Unlock()
		return errors.New("sim: kernel already ran")
	}
	k.ran = true
	k.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range k.procs {
		g.Go(func() error {
			return k.runProcess(gctx, p)
		})
	}
	g.Go(func() error {
		defer close(k.halt)
		return k.loop(gctx)
	})
	return g.Wait()
}

// runProcess is the goroutine wrapper around a process body.
func (k *Kernel) runProcess(ctx context.Context, p *Process) error {
	select {
	case <-p.resume:
	case <-k.halt:
		return nil
	case <-ctx.Done():
		return nil
	}

	err := p.fn(ctx, p)
	if errors.Is(err, ErrStopped) || (err != nil && ctx.Err() != nil) {
		return nil
	}

	select {
	case k.yields <- yield{done: true, err: err}:
	case <-k.halt:
	case <-ctx.Done():
	}
	return nil
}

// loop drives the clock. Runs in its own goroutine and is the only
// goroutine touching Process.wait and Process.done.
func (k *Kernel) loop(ctx context.Context) error {
	// Time zero: every process runs up to its first suspension point.
	if err := k.phase(ctx, 0); err != nil {
		return err
	}

	for !k.stopRequested() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if k.allDone() {
			k.Stop(StopAllDone)
			break
		}
		edge := k.clock.Tick()
		if err := k.phase(ctx, edge); err != nil {
			return err
		}
	}

	k.logger.Debug("kernel stopped",
		zap.String("reason", k.StopReason()),
		zap.Int64("cycle", k.clock.Cycle()),
		zap.Duration("sim_time", k.clock.Now()),
	)
	return nil
}

// phase resumes, in registration order, every live process waiting on edge
// and waits for each to suspend again before resuming the next.
func (k *Kernel) phase(ctx context.Context, edge Edge) error {
	for _, p := range k.procs {
		if p.done || p.wait != edge {
			continue
		}

		select {
		case p.resume <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		var y yield
		select {
		case y = <-k.yields:
		case <-ctx.Done():
			return ctx.Err()
		}

		if y.err != nil {
			return fmt.Errorf("process %s at cycle %d (%s edge): %w", p.name, k.clock.Cycle(), edge, y.err)
		}
		if y.done {
			p.done = true
			k.logger.Debug("process finished", zap.String("process", p.name), zap.Int64("cycle", k.clock.Cycle()))
			continue
		}
		p.wait = y.edge
	}
	return nil
}

func (k *Kernel) allDone() bool {
	for _, p := range k.procs {
		if !p.done {
			return false
		}
	}
	return true
}
