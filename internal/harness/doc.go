// Package harness runs directed scenarios against the verification bench.
//
// A scenario replaces the random stimulus with an explicit transaction list
// and states what the run must produce.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: corners
//	description: "Every signed extreme against every other"
//	dut:
//	  fault: none          # optional, any dut.Fault
//	  latency: 2           # optional, cycles
//	transactions:
//	  - { a: -32768, b: -32768 }
//	  - { a: 5, b: -3, parity_a: wrong }
//	  - { a: 1, b: 1, op: reset }
//	expect:
//	  verdict: PASSED
//	  mismatches: 0
//	  covered:
//	    - corner:min,min
//	  not_covered:
//	    - parity:both_bad
//
// parity_a and parity_b are "correct" (default) or "wrong". op is
// "multiply" (default) or "reset". Unknown keys are rejected.
//
// # Determinism
//
// Each scenario runs with its name as the run ID and a scripted stimulus
// source, so the canonical report is identical on every run and can be
// compared against a golden file under testdata/golden.
package harness
