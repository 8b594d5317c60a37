package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/mulcheck/internal/engine"
	"github.com/roach88/mulcheck/internal/txn"
)

func TestRunScript(t *testing.T) {
	r := RunScript(t, engine.DefaultSettings(), "script", txn.NewMultiply(5, -3))

	assert.Equal(t, "script", r.RunID)
	assert.True(t, r.Passed())
	assert.Equal(t, "stimulus exhausted", r.StopReason)
	assert.Equal(t, int64(1), r.Checked)
	assert.Equal(t, int64(0), r.Budget)
}

func TestRunBench(t *testing.T) {
	s := engine.DefaultSettings()
	s.Transactions = 25

	a := RunBench(t, s, "a")
	b := RunBench(t, s, "b")
	assert.Equal(t, int64(25), a.Dispatched)
	assert.Equal(t, a.Cycles, b.Cycles, "same seed, same run")
	assert.Equal(t, "b", b.RunID)
}

func TestObservedLogger(t *testing.T) {
	logger, logs := ObservedLogger(zapcore.WarnLevel)
	logger.Info("ignored")
	logger.Warn("kept", zap.Int64("cycle", 8))
	logger.Warn("kept", zap.Int64("cycle", 14))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, []map[string]any{{"cycle": int64(8)}, {"cycle": int64(14)}}, Fields(logs, "kept"))
	assert.Empty(t, Fields(logs, "ignored"))
}
