package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/mulcheck/internal/coverage"
	"github.com/roach88/mulcheck/internal/dut"
	"github.com/roach88/mulcheck/internal/scoreboard"
	"github.com/roach88/mulcheck/internal/stimulus"
	"github.com/roach88/mulcheck/internal/txn"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func scripted(txns ...txn.Transaction) Option {
	return WithSource(func() stimulus.Source { return stimulus.NewScripted(txns...) })
}

func runOnce(t *testing.T, s Settings, opts ...Option) *Report {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	report, err := New(s, opts...).Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, report)
	return report
}

func TestEngine_MultiplyPasses(t *testing.T) {
	s := DefaultSettings()
	s.Transactions = 0

	r := runOnce(t, s, scripted(txn.NewMultiply(5, -3)), WithRunIDGenerator(NewFixedGenerator("run-1")))

	assert.Equal(t, "run-1", r.RunID)
	assert.True(t, r.Passed())
	assert.Equal(t, scoreboard.Passed, r.Verdict)
	assert.Equal(t, "stimulus exhausted", r.StopReason)
	assert.Equal(t, int64(1), r.Dispatched)
	assert.Equal(t, int64(1), r.Checked)
	assert.Equal(t, 0, r.Outstanding)
	assert.Empty(t, r.Mismatches)

	// reset (2 cycles), A, gap, B, then two cycles of latency
	assert.Equal(t, int64(8), r.Cycles)
	assert.Equal(t, 80*time.Nanosecond, r.SimTime)

	assert.Equal(t, 3, r.Coverage.GoalsHit)
	assert.Equal(t, 23, r.Coverage.Percent)
	assert.False(t, r.Coverage.Closed)
}

func TestEngine_MissedParityErrorFails(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := DefaultSettings()
	s.Transactions = 0
	s.DUTFault = dut.FaultParityCheckStuckLow

	tx := txn.NewMultiply(5, -3)
	tx.ParityA = !tx.ParityA
	r := runOnce(t, s, scripted(tx), WithLogger(zap.New(core)))

	assert.False(t, r.Passed())
	require.Len(t, r.Mismatches, 1)
	m := r.Mismatches[0]
	assert.Equal(t, int16(5), m.Txn.A)
	assert.Equal(t, int16(-3), m.Txn.B)
	assert.True(t, m.Expected.InputParityError)
	assert.False(t, m.Observed.InputParityError)
	assert.Equal(t, int32(-15), m.Observed.Product)
	assert.Equal(t, int64(8), m.Cycle)

	failed := logs.FilterMessage("check failed").All()
	require.Len(t, failed, 1)
	ctx := failed[0].ContextMap()
	assert.EqualValues(t, 5, ctx["a"])
	assert.EqualValues(t, -3, ctx["b"])
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Equal(t, "scoreboard", failed[0].LoggerName)

	assert.Equal(t, 1, logs.FilterMessage("run finished").Len())
	assert.Equal(t, int64(1), r.Coverage.Bins[indexOf(t, r.Coverage.Bins, coverage.ParityClassID(coverage.ParityABad))].Hits)
}

func indexOf(t *testing.T, bins []coverage.Bin, class string) int {
	t.Helper()
	for i, b := range bins {
		if b.Class == class {
			return i
		}
	}
	t.Fatalf("no bin %q", class)
	return -1
}

func TestEngine_RandomRunPassesAndCloses(t *testing.T) {
	s := DefaultSettings()
	s.Transactions = 2000

	r := runOnce(t, s)
	assert.True(t, r.Passed(), "%v", r.Mismatches)
	assert.Equal(t, int64(2000), r.Dispatched)
	assert.Equal(t, "transaction budget exhausted", r.StopReason)
	assert.True(t, r.Coverage.Closed, "missing %v", r.Coverage.Missing)
	assert.False(t, r.ClosedEarly())
	assert.Equal(t, 100, r.Coverage.Percent)
}

func TestEngine_StopOnClosure(t *testing.T) {
	s := DefaultSettings()
	s.Transactions = 0
	s.StopOnClosure = true
	s.Seed = 11

	r := runOnce(t, s)
	assert.True(t, r.ClosedEarly())
	assert.Equal(t, StopClosure, r.StopReason)
	assert.True(t, r.Coverage.Closed)
	assert.Equal(t, 0, r.Outstanding, "the closing transaction is finished before stopping")
	assert.True(t, r.Passed())
}

func TestEngine_SameSeedSameReport(t *testing.T) {
	s := DefaultSettings()
	s.Transactions = 300
	ids := NewFixedGenerator("same", "same")
	e := New(s, WithRunIDGenerator(ids))

	r1, err := e.Run(context.Background())
	require.NoError(t, err)
	r2, err := e.Run(context.Background())
	require.NoError(t, err)

	b1, err := r1.MarshalCanonical()
	require.NoError(t, err)
	b2, err := r2.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
}

func TestEngine_EveryFaultIsCaught(t *testing.T) {
	for _, f := range dut.Faults() {
		if f == dut.FaultNone {
			continue
		}
		t.Run(string(f), func(t *testing.T) {
			s := DefaultSettings()
			s.Transactions = 300
			s.DUTFault = f
			s.ResponseTimeout = 20
			s.Diagnostics = scoreboard.DiagQuiet

			r := runOnce(t, s)
			assert.False(t, r.Passed())
			assert.NotEmpty(t, r.Mismatches)
			if f == dut.FaultDropResponse {
				assert.Positive(t, r.Timeouts)
				assert.Equal(t, int64(0), r.Checked)
			}
		})
	}
}

func TestEngine_Heartbeat(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := DefaultSettings()
	s.Transactions = 40
	s.HeartbeatCycles = 25

	r := runOnce(t, s, WithLogger(zap.New(core)))

	beats := logs.FilterMessage("heartbeat").All()
	require.Len(t, beats, int(r.Cycles/25))
	for i, b := range beats {
		assert.EqualValues(t, int64(25*(i+1)), b.ContextMap()["cycle"])
		assert.Contains(t, b.ContextMap(), "coverage_pct")
		assert.Contains(t, b.ContextMap(), "outstanding")
		assert.Contains(t, b.ContextMap(), "dispatched")
	}
}

func TestEngine_CancelReturnsPartialReport(t *testing.T) {
	s := DefaultSettings()
	s.Transactions = 0
	e := New(s, WithSource(func() stimulus.Source { return stimulus.NewGenerator(1) }))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	r, err := e.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, r)
	assert.Positive(t, r.Cycles)
}

func TestEngine_InvalidSettings(t *testing.T) {
	s := DefaultSettings()
	s.Transactions = 0
	_, err := New(s).Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsSettingsError(err))

	var se *SettingsError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeUnbounded, se.Code)

	s = DefaultSettings()
	s.DUTLatency = 0
	_, err = New(s).Run(context.Background())
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeOutOfRange, se.Code)
	assert.Equal(t, "dut.latency", se.Field)
}

func TestReport_CanonicalJSON(t *testing.T) {
	s := DefaultSettings()
	s.Transactions = 0
	r := runOnce(t, s, scripted(txn.NewMultiply(5, -3)), WithRunIDGenerator(NewFixedGenerator("r")))

	got, err := r.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"budget":0,"checked":1,"coverage":{"closed":false,"goals":13,"goals_hit":3,"hit_bins":[`+
			`{"class":"corner:other,other","goal":false,"hits":1},`+
			`{"class":"parity:both_ok","goal":true,"hits":1},`+
			`{"class":"seq:multiply","goal":true,"hits":1},`+
			`{"class":"seq:reset","goal":false,"hits":1},`+
			`{"class":"seq:reset->multiply","goal":true,"hits":1}],`+
			`"missing":["corner:max,max","corner:max,min","corner:min,max","corner:min,min","corner:ones,ones","corner:zero,zero",`+
			`"parity:a_bad","parity:b_bad","parity:both_bad","seq:multiply->reset"],"percent":23},`+
			`"cycles":8,"dispatched":1,"fault":"none","mismatches":[],"outstanding":0,"run_id":"r",`+
			`"sim_time_ns":80,"stop_reason":"stimulus exhausted","timeouts":0,"verdict":"PASSED"}`,
		string(got))
}
