package engine

import (
	"time"

	"github.com/roach88/mulcheck/internal/coverage"
	"github.com/roach88/mulcheck/internal/scoreboard"
	"github.com/roach88/mulcheck/internal/txn"
)

// Report is the outcome of one run.
type Report struct {
	RunID       string                `json:"run_id"`
	Seed        uint64                `json:"seed"`
	Budget      int64                 `json:"budget"`
	Fault       string                `json:"fault"`
	Verdict     string                `json:"verdict"`
	StopReason  string                `json:"stop_reason"`
	Cycles      int64                 `json:"cycles"`
	SimTime     time.Duration         `json:"sim_time_ns"`
	Dispatched  int64                 `json:"dispatched"`
	Checked     int64                 `json:"checked"`
	Outstanding int                   `json:"outstanding"`
	Timeouts    int64                 `json:"timeouts"`
	Mismatches  []scoreboard.Mismatch `json:"mismatches"`
	Coverage    CoverageReport        `json:"coverage"`
}

// CoverageReport summarises the coverage model at the end of a run.
type CoverageReport struct {
	Closed   bool           `json:"closed"`
	GoalsHit int            `json:"goals_hit"`
	Goals    int            `json:"goals"`
	Percent  int            `json:"percent"`
	Missing  []string       `json:"missing,omitempty"`
	Bins     []coverage.Bin `json:"bins"`
}

// Passed reports whether the verdict is PASSED.
func (r *Report) Passed() bool { return r.Verdict == scoreboard.Passed }

// ClosedEarly reports whether coverage closure ended the run.
func (r *Report) ClosedEarly() bool { return r.StopReason == StopClosure }

func (b *bench) report(s Settings) *Report {
	hit, total := b.coverage.GoalsHit()
	return &Report{
		RunID:       b.runID,
		Seed:        s.Seed,
		Budget:      s.Transactions,
		Fault:       string(b.model.Fault()),
		Verdict:     b.scoreboard.Verdict().String(),
		StopReason:  b.kernel.StopReason(),
		Cycles:      b.clock.Cycle(),
		SimTime:     b.clock.Now(),
		Dispatched:  b.driver.Dispatched(),
		Checked:     b.scoreboard.Checked(),
		Outstanding: b.scoreboard.Outstanding(),
		Timeouts:    b.driver.Timeouts(),
		Mismatches:  b.scoreboard.Mismatches(),
		Coverage: CoverageReport{
			Closed:   b.coverage.Closed(),
			GoalsHit: hit,
			Goals:    total,
			Percent:  b.coverage.Percent(),
			Missing:  b.coverage.Missing(),
			Bins:     b.coverage.Snapshot(),
		},
	}
}

// CanonicalMap renders the report for canonical JSON. Coverage lists only
// the bins that were hit.
func (r *Report) CanonicalMap() map[string]any {
	mismatches := make([]any, 0, len(r.Mismatches))
	for _, m := range r.Mismatches {
		mismatches = append(mismatches, mismatchMap(m))
	}

	bins := make([]any, 0, len(r.Coverage.Bins))
	for _, b := range r.Coverage.Bins {
		if !b.Hit() {
			continue
		}
		bins = append(bins, map[string]any{"class": b.Class, "goal": b.Goal, "hits": b.Hits})
	}
	missing := make([]string, len(r.Coverage.Missing))
	copy(missing, r.Coverage.Missing)

	return map[string]any{
		"run_id":      r.RunID,
		"budget":      r.Budget,
		"fault":       r.Fault,
		"verdict":     r.Verdict,
		"stop_reason": r.StopReason,
		"cycles":      r.Cycles,
		"sim_time_ns": int64(r.SimTime),
		"dispatched":  r.Dispatched,
		"checked":     r.Checked,
		"outstanding": r.Outstanding,
		"timeouts":    r.Timeouts,
		"mismatches":  mismatches,
		"coverage": map[string]any{
			"closed":    r.Coverage.Closed,
			"goals_hit": r.Coverage.GoalsHit,
			"goals":     r.Coverage.Goals,
			"percent":   r.Coverage.Percent,
			"missing":   missing,
			"hit_bins":  bins,
		},
	}
}

func mismatchMap(m scoreboard.Mismatch) map[string]any {
	fields := make([]any, 0, len(m.Fields))
	for _, f := range m.Fields {
		fields = append(fields, map[string]any{"field": f.Field, "expected": f.Expected, "observed": f.Observed})
	}
	out := map[string]any{
		"kind":        m.Kind,
		"cycle":       m.Cycle,
		"transaction": m.Txn.CanonicalMap(),
		"expected":    m.Expected.CanonicalMap(),
		"fields":      fields,
	}
	if m.Kind != scoreboard.KindTimeout {
		out["observed"] = m.Observed.CanonicalMap()
	}
	if m.Detail != "" {
		out["detail"] = m.Detail
	}
	return out
}

// MarshalCanonical renders the report as canonical JSON.
func (r *Report) MarshalCanonical() ([]byte, error) {
	return txn.MarshalCanonical(r.CanonicalMap())
}
