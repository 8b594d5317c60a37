package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/mulcheck/internal/scoreboard"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mustParse(t *testing.T, content string) *Scenario {
	t.Helper()
	sc, err := ParseScenario([]byte(content))
	require.NoError(t, err)
	return sc
}

func TestRun_ExpectationsHold(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/reset_sequencing.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "reset_sequencing", result.Scenario)
	assert.Equal(t, "reset_sequencing", result.Report.RunID)
	assert.Equal(t, int64(3), result.Report.Dispatched)
}

func TestRun_ExpectationsFail(t *testing.T) {
	sc := mustParse(t, `
name: wrong_expectations
description: "Every expectation is deliberately wrong"
transactions:
  - { a: 2, b: 3 }
expect:
  verdict: FAILED
  mismatches: 2
  checked: 5
  timeouts: 1
  covered:
    - corner:zero,zero
  not_covered:
    - seq:multiply
`)
	result, err := Run(context.Background(), sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[0], "verdict: expected FAILED, got PASSED")
	assert.Contains(t, result.Errors[1], "mismatches: expected 2, got 0")
	assert.Contains(t, result.Errors[4], "class corner:zero,zero hit")
	assert.Contains(t, result.Errors[5], "1 hits")
}

func TestRun_FaultIsCaught(t *testing.T) {
	sc := mustParse(t, `
name: lsb_flip
description: "A flipped product LSB fails every check"
dut:
  fault: product-lsb-flip
transactions:
  - { a: 3, b: 3 }
  - { a: -7, b: 11 }
expect:
  verdict: FAILED
  mismatches: 2
  checked: 2
`)
	result, err := Run(context.Background(), sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	for _, m := range result.Report.Mismatches {
		assert.Equal(t, scoreboard.KindMismatch, m.Kind)
	}
}

func TestRun_DroppedResponseTimesOut(t *testing.T) {
	sc := mustParse(t, `
name: dropped
description: "A component that never answers times out and is reset"
response_timeout: 8
dut:
  fault: drop-response
transactions:
  - { a: 3, b: 3 }
  - { a: 4, b: 4 }
expect:
  verdict: FAILED
  mismatches: 2
  checked: 0
  timeouts: 2
`)
	result, err := Run(context.Background(), sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, scoreboard.KindTimeout, result.Report.Mismatches[0].Kind)
}

func TestRun_WithLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sc, err := LoadScenario("testdata/scenarios/missed_parity_error.yaml")
	require.NoError(t, err)

	_, err = Run(context.Background(), sc, WithLogger(zap.New(core)))
	require.NoError(t, err)

	failed := logs.FilterMessage("check failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "missed_parity_error", failed[0].ContextMap()["scenario"])
}

func TestRun_Cancelled(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/corners.yaml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, sc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunSuite(t *testing.T) {
	scenarios, err := LoadSuite("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 4)

	results, err := RunSuite(context.Background(), scenarios)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.True(t, r.Pass, "%s: %v", r.Scenario, r.Errors)
	}
}
