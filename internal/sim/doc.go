// Package sim is the clocked process scheduler the verification bench runs on.
//
// ARCHITECTURE:
//
// Cooperative, edge-phased processes:
// Every process (component model, driver, scoreboard halves, coverage
// sampler, heartbeat) is a goroutine, but only one runs at a time. The
// Kernel owns the Clock and, for each edge, resumes the processes waiting on
// that edge in registration order. A resumed process runs until its next
// Wait call, which hands control back to the Kernel. This guarantees:
//   - Rising-edge work fully settles before falling-edge work begins
//   - No two processes advance between a pair of suspension points
//   - Pins and shared state need no locking while accessed from processes
//
// Time zero:
// Before the first edge every process runs once up to its first Wait.
//
// Termination:
// Stop may be called from any process. It takes effect when the current
// phase has finished, so every process waiting on that edge still sees it.
// A process returning an error aborts the run; the error is returned from
// Kernel.Run wrapped with the process name.
package sim
