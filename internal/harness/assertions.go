package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/mulcheck/internal/engine"
)

// Expectation types, used in AssertionError.Type.
const (
	AssertVerdict    = "verdict"
	AssertMismatches = "mismatches"
	AssertChecked    = "checked"
	AssertTimeouts   = "timeouts"
	AssertCovered    = "covered"
	AssertNotCovered = "not_covered"
)

// AssertionError is returned when an expectation fails.
// It includes the recorded failures to help debug it.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Failures []string // summaries of recorded mismatches
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "expectation failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
	for i, f := range e.Failures {
		fmt.Fprintf(&buf, "\n  [%d] %s", i+1, f)
	}
	return buf.String()
}

// checkExpectations evaluates every set field of want against the report.
func checkExpectations(want Expect, r *engine.Report) []*AssertionError {
	var failures []string
	for _, m := range r.Mismatches {
		failures = append(failures, m.Summary())
	}

	var errs []*AssertionError
	fail := func(typ, expected, actual string) {
		errs = append(errs, &AssertionError{Type: typ, Expected: expected, Actual: actual, Failures: failures})
	}

	if want.Verdict != "" && want.Verdict != r.Verdict {
		fail(AssertVerdict, want.Verdict, r.Verdict)
	}
	if want.Mismatches != nil && *want.Mismatches != len(r.Mismatches) {
		fail(AssertMismatches, fmt.Sprint(*want.Mismatches), fmt.Sprint(len(r.Mismatches)))
	}
	if want.Checked != nil && *want.Checked != r.Checked {
		fail(AssertChecked, fmt.Sprint(*want.Checked), fmt.Sprint(r.Checked))
	}
	if want.Timeouts != nil && *want.Timeouts != r.Timeouts {
		fail(AssertTimeouts, fmt.Sprint(*want.Timeouts), fmt.Sprint(r.Timeouts))
	}

	hits := make(map[string]int64, len(r.Coverage.Bins))
	for _, b := range r.Coverage.Bins {
		hits[b.Class] = b.Hits
	}
	for _, class := range want.Covered {
		if hits[class] == 0 {
			fail(AssertCovered, fmt.Sprintf("class %s hit", class), "no hits")
		}
	}
	for _, class := range want.NotCovered {
		if n := hits[class]; n > 0 {
			fail(AssertNotCovered, fmt.Sprintf("class %s not hit", class), fmt.Sprintf("%d hits", n))
		}
	}
	return errs
}
