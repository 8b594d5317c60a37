// Package engine assembles the verification bench and runs it.
//
// A run wires one of each component onto a shared sim.Pins and spawns them
// as sim processes, in this order:
//
//	dut               rising   behavioural component model
//	scoreboard-front  rising   enqueues completed MULTIPLY transactions
//	coverage          rising   samples completed transactions and resets
//	driver            falling  two-beat handshake, reset, budget
//	scoreboard-back   falling  pops, predicts, compares
//	heartbeat         rising   periodic progress record
//
// Registration order is the resume order inside each phase, so the
// component's outputs are settled before anything samples them on the same
// rising edge, and the driver sees data_out_valid in the same falling
// phase the back end checks it.
//
// TERMINATION:
//
// The driver stops the kernel when the transaction budget or the stimulus
// source runs out. With StopOnClosure set, coverage closure drains the
// driver: the current transaction finishes, then the kernel stops. A
// protocol error from any process aborts the run; Run still returns the
// partial Report alongside the error.
package engine
