package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/mulcheck/internal/coverage"
)

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("store: run not found")

// RunSummary is one row of run history.
type RunSummary struct {
	Seq            int64     `json:"seq"`
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at,omitempty"`
	Seed           uint64    `json:"seed"`
	Budget         int64     `json:"budget"`
	Fault          string    `json:"fault"`
	Verdict        string    `json:"verdict"`
	StopReason     string    `json:"stop_reason"`
	Cycles         int64     `json:"cycles"`
	Dispatched     int64     `json:"dispatched"`
	Checked        int64     `json:"checked"`
	Mismatches     int64     `json:"mismatches"`
	CoveragePct    int       `json:"coverage_pct"`
	CoverageClosed bool      `json:"coverage_closed"`
}

// MismatchRecord is a stored failure.
type MismatchRecord struct {
	Ordinal int    `json:"ordinal"`
	Kind    string `json:"kind"`
	Cycle   int64  `json:"cycle"`
	TxnID   string `json:"txn_id"`
	TxnSeq  int64  `json:"txn_seq"`
	A       int16  `json:"a"`
	ParityA bool   `json:"parity_a"`
	B       int16  `json:"b"`
	ParityB bool   `json:"parity_b"`
	Summary string `json:"summary"`
}

// ListOptions filters ListRuns.
type ListOptions struct {
	// Limit caps the number of rows; zero means no cap.
	Limit int
	// FailedOnly keeps FAILED runs only.
	FailedOnly bool
}

const summaryColumns = `
	r.seq, r.id, r.seed, r.budget, r.fault, r.verdict, r.stop_reason, r.cycles,
	r.dispatched, r.checked,
	(SELECT COUNT(*) FROM mismatches m WHERE m.run_id = r.id),
	r.coverage_pct, r.coverage_closed`

// ListRuns returns run history, newest first (ORDER BY seq DESC).
//
// Returns an empty slice (not nil) when there is no history.
func (s *Store) ListRuns(ctx context.Context, opts ListOptions) ([]RunSummary, error) {
	var q strings.Builder
	q.WriteString("SELECT " + summaryColumns + " FROM runs r")
	var args []any
	if opts.FailedOnly {
		q.WriteString(" WHERE r.verdict = ?")
		args = append(args, "FAILED")
	}
	q.WriteString(" ORDER BY r.seq DESC")
	if opts.Limit > 0 {
		q.WriteString(" LIMIT ?")
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		r, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns the summary and canonical JSON report of one run.
func (s *Store) ReadRun(ctx context.Context, id string) (RunSummary, []byte, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+summaryColumns+", r.report FROM runs r WHERE r.id = ?", id)

	var (
		r      RunSummary
		seed   int64
		closed int
		report string
	)
	err := row.Scan(&r.Seq, &r.ID, &seed, &r.Budget, &r.Fault, &r.Verdict, &r.StopReason, &r.Cycles,
		&r.Dispatched, &r.Checked, &r.Mismatches, &r.CoveragePct, &closed, &report)
	if errors.Is(err, sql.ErrNoRows) {
		return RunSummary{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return RunSummary{}, nil, fmt.Errorf("read run %s: %w", id, err)
	}
	finishSummary(&r, seed, closed)
	return r, []byte(report), nil
}

// ReadMismatches returns the failures of a run in detection order.
func (s *Store) ReadMismatches(ctx context.Context, runID string) ([]MismatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ordinal, kind, cycle, txn_id, txn_seq, a, parity_a, b, parity_b, summary
		FROM mismatches
		WHERE run_id = ?
		ORDER BY ordinal ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query mismatches: %w", err)
	}
	defer rows.Close()

	out := []MismatchRecord{}
	for rows.Next() {
		var m MismatchRecord
		var pa, pb int
		if err := rows.Scan(&m.Ordinal, &m.Kind, &m.Cycle, &m.TxnID, &m.TxnSeq, &m.A, &pa, &m.B, &pb, &m.Summary); err != nil {
			return nil, fmt.Errorf("scan mismatch: %w", err)
		}
		m.ParityA, m.ParityB = pa != 0, pb != 0
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mismatches: %w", err)
	}
	return out, nil
}

// ReadCoverage returns the coverage bins of a run, sorted by class with
// binary collation so the order matches coverage.Model.Snapshot.
func (s *Store) ReadCoverage(ctx context.Context, runID string) ([]coverage.Bin, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT class, goal, hits
		FROM coverage_bins
		WHERE run_id = ?
		ORDER BY class COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query coverage: %w", err)
	}
	defer rows.Close()

	out := []coverage.Bin{}
	for rows.Next() {
		var b coverage.Bin
		var goal int
		if err := rows.Scan(&b.Class, &goal, &b.Hits); err != nil {
			return nil, fmt.Errorf("scan coverage bin: %w", err)
		}
		b.Goal = goal != 0
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coverage: %w", err)
	}
	return out, nil
}

func scanSummary(rows *sql.Rows) (RunSummary, error) {
	var (
		r      RunSummary
		seed   int64
		closed int
	)
	if err := rows.Scan(&r.Seq, &r.ID, &seed, &r.Budget, &r.Fault, &r.Verdict, &r.StopReason, &r.Cycles,
		&r.Dispatched, &r.Checked, &r.Mismatches, &r.CoveragePct, &closed); err != nil {
		return RunSummary{}, fmt.Errorf("scan run: %w", err)
	}
	finishSummary(&r, seed, closed)
	return r, nil
}

// finishSummary fills the fields that are not stored as-is. Seeds are
// stored as their int64 bit pattern.
func finishSummary(r *RunSummary, seed int64, closed int) {
	r.Seed = uint64(seed)
	r.CoverageClosed = closed != 0
	if id, err := uuid.Parse(r.ID); err == nil && id.Version() == 7 {
		sec, nsec := id.Time().UnixTime()
		r.StartedAt = time.Unix(sec, nsec).UTC()
	}
}
