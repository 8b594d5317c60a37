package scoreboard

import "sync/atomic"

// Verdict strings, as printed in the final banner.
const (
	Passed = "PASSED"
	Failed = "FAILED"
)

// Verdict is the single pass/fail outcome of a run. It starts PASSED and
// latches FAILED on the first failure; nothing resets it.
type Verdict struct {
	failed atomic.Bool
}

// Fail latches FAILED. Returns true if this call caused the transition.
func (v *Verdict) Fail() bool {
	return v.failed.CompareAndSwap(false, true)
}

// Passed reports whether no failure has been recorded.
func (v *Verdict) Passed() bool {
	return !v.failed.Load()
}

func (v *Verdict) String() string {
	if v.Passed() {
		return Passed
	}
	return Failed
}
