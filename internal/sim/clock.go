package sim

import (
	"sync/atomic"
	"time"
)

// Edge identifies a clock transition.
type Edge uint8

const (
	// Rising is the low-to-high transition.
	Rising Edge = iota + 1
	// Falling is the high-to-low transition.
	Falling
)

func (e Edge) String() string {
	switch e {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	default:
		return "start"
	}
}

// DefaultHalfPeriod matches a 100 MHz clock.
const DefaultHalfPeriod = 5 * time.Nanosecond

// Clock is a free-running clock with a fixed half-period. It starts low, so
// the first Tick is a rising edge, and alternates forever.
//
// Simulated time is ticks × half-period; no wall-clock delay is involved.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// although only the Kernel calls Tick.
type Clock struct {
	halfPeriod time.Duration
	ticks      atomic.Int64
}

// NewClock creates a clock at time zero. A non-positive halfPeriod selects
// DefaultHalfPeriod.
func NewClock(halfPeriod time.Duration) *Clock {
	if halfPeriod <= 0 {
		halfPeriod = DefaultHalfPeriod
	}
	return &Clock{halfPeriod: halfPeriod}
}

// Tick advances the clock by one half-period and returns the edge produced.
func (c *Clock) Tick() Edge {
	if c.ticks.Add(1)%2 == 1 {
		return Rising
	}
	return Falling
}

// High reports the current clock level.
func (c *Clock) High() bool {
	return c.ticks.Load()%2 == 1
}

// Edges returns the number of edges produced so far.
func (c *Clock) Edges() int64 {
	return c.ticks.Load()
}

// Cycle returns the number of rising edges produced so far.
func (c *Clock) Cycle() int64 {
	return (c.ticks.Load() + 1) / 2
}

// Now returns the simulated time.
func (c *Clock) Now() time.Duration {
	return time.Duration(c.ticks.Load()) * c.halfPeriod
}

// HalfPeriod returns the configured half-period.
func (c *Clock) HalfPeriod() time.Duration {
	return c.halfPeriod
}
