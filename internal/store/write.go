package store

import (
	"context"
	"fmt"

	"github.com/roach88/mulcheck/internal/engine"
	"github.com/roach88/mulcheck/internal/txn"
)

// WriteRun appends a run report with its mismatches and coverage bins.
//
// Uses ON CONFLICT(id) DO NOTHING: writing the same run twice is a no-op
// and reports inserted=false.
func (s *Store) WriteRun(ctx context.Context, r *engine.Report) (inserted bool, err error) {
	report, err := r.MarshalCanonical()
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seed, budget, fault, verdict, stop_reason, cycles, sim_time_ns,
		 dispatched, checked, outstanding, timeouts, coverage_pct, coverage_closed, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.RunID,
		int64(r.Seed),
		r.Budget,
		r.Fault,
		r.Verdict,
		r.StopReason,
		r.Cycles,
		int64(r.SimTime),
		r.Dispatched,
		r.Checked,
		r.Outstanding,
		r.Timeouts,
		r.Coverage.Percent,
		boolToInt(r.Coverage.Closed),
		string(report),
	)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run: rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	for i, m := range r.Mismatches {
		id, err := txn.ID(m.Txn)
		if err != nil {
			return false, fmt.Errorf("write run: mismatch %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO mismatches
			(run_id, ordinal, kind, cycle, txn_id, txn_seq, a, parity_a, b, parity_b, summary)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			r.RunID, i, m.Kind, m.Cycle, id, m.Txn.Seq,
			m.Txn.A, boolToInt(m.Txn.ParityA), m.Txn.B, boolToInt(m.Txn.ParityB),
			m.Summary(),
		)
		if err != nil {
			return false, fmt.Errorf("write run: mismatch %d: %w", i, err)
		}
	}

	for _, b := range r.Coverage.Bins {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO coverage_bins (run_id, class, goal, hits)
			VALUES (?, ?, ?, ?)
		`, r.RunID, b.Class, boolToInt(b.Goal), b.Hits)
		if err != nil {
			return false, fmt.Errorf("write run: coverage bin %s: %w", b.Class, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run: commit: %w", err)
	}
	return true, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
