// Package scoreboard pairs each dispatched transaction with the response the
// component eventually produces and checks it against the reference model.
//
// Two processes share one FIFO queue:
//
//	front end (rising edge)  - watches data_in_valid; on every second beat
//	                           enqueues the in-flight MULTIPLY transaction;
//	                           reset_n low clears the queue and beat counter
//	back end (falling edge)  - on data_out_valid pops the oldest transaction,
//	                           predicts, compares field by field
//
// The edge separation means enqueue, dequeue and clear never interleave
// within a phase; the queue is mutex-protected as well so it stays safe if
// it is ever driven from outside the sim kernel.
//
// ERROR TAXONOMY:
//
// Mismatch: the component answered wrongly. Recorded, logged, the Verdict
// latches FAILED, and the run continues.
//
// ProtocolError: the harness itself is inconsistent (queue underflow, pin
// operands disagreeing with the driver). Returned from the process, which
// aborts the run.
package scoreboard
