package harness

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Regenerate with: go test ./internal/harness -run TestGolden -update
func TestGolden_Scenarios(t *testing.T) {
	scenarios, err := LoadSuite("testdata/scenarios")
	require.NoError(t, err)

	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, sc)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestGolden_Deterministic(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/corners.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), sc)
	require.NoError(t, err)
	second, err := Run(context.Background(), sc)
	require.NoError(t, err)

	a, err := first.Report.MarshalCanonical()
	require.NoError(t, err)
	b, err := second.Report.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestGolden_FileMatchesCanonicalBytes(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/single_multiply.yaml")
	require.NoError(t, err)
	result, err := Run(context.Background(), sc)
	require.NoError(t, err)

	want, err := os.ReadFile("testdata/golden/single_multiply.golden")
	require.NoError(t, err)
	got, err := result.Report.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got), "golden files hold the exact canonical report, no trailing newline")
}
