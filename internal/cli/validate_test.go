package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	out, err := execute(t, nil, "validate", "testdata/quick.cue")
	require.NoError(t, err)
	assert.Equal(t, "✓ testdata/quick.cue is valid\n", out)
}

func TestValidate_WarningOnly(t *testing.T) {
	out, err := execute(t, nil, "validate", "testdata/warnings.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "warning testdata/warnings.cue: [UNKNOWN_DIAGNOSTIC_MODE]")
	assert.Contains(t, out, `(field=diagnostics.mode, value="loud")`)
	assert.Contains(t, out, "✓ testdata/warnings.cue is valid")
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		code string
	}{
		{"schema violation", "testdata/bad_latency.cue", "CONFIG_SCHEMA"},
		{"unbounded run", "testdata/unbounded.cue", "UNBOUNDED_RUN"},
		{"missing file", "testdata/nope.cue", "CONFIG_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, nil, "validate", tt.file)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), "1 error(s)")
			assert.Contains(t, out, "error   ")
			assert.Contains(t, out, "["+tt.code+"]")
			assert.NotContains(t, out, "is valid")
		})
	}
}

func TestValidate_JSON(t *testing.T) {
	out, err := execute(t, nil, "--format", "json", "validate", "testdata/warnings.cue")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Empty(t, resp.Data.Errors)
	require.Len(t, resp.Data.Warnings, 1)
	assert.Equal(t, "UNKNOWN_DIAGNOSTIC_MODE", resp.Data.Warnings[0].Code)

	require.NotNil(t, resp.Data.Config)
	assert.Equal(t, int64(10), resp.Data.Config.Transactions)
	assert.Equal(t, "mismatch", resp.Data.Config.Diagnostics.Mode, "config is reported normalized")
}

func TestValidate_JSONInvalid(t *testing.T) {
	out, err := execute(t, nil, "--format", "json", "validate", "testdata/unbounded.cue")
	require.Error(t, err)

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, ValidationIssue{
		Code:    "UNBOUNDED_RUN",
		Field:   "transactions",
		Message: "no transaction budget, no closure stop and an endless stimulus source",
	}, resp.Data.Errors[0])
	assert.Nil(t, resp.Data.Config)
}

func TestIssueFrom_PlainError(t *testing.T) {
	issue := issueFrom(assert.AnError)
	assert.Equal(t, "CONFIG_INVALID", issue.Code)
	assert.Equal(t, assert.AnError.Error(), issue.Message)
}

func TestFormatIssue(t *testing.T) {
	assert.Equal(t, "a.cue:3:7: [CONFIG_SCHEMA] bad (field=dut.latency)",
		formatIssue("a.cue", ValidationIssue{Code: "CONFIG_SCHEMA", Field: "dut.latency", Message: "bad", Line: 3, Column: 7}))
	assert.Equal(t, "a.cue: [UNKNOWN_COLOR] odd (field=diagnostics.color, value=\"neon\")",
		formatIssue("a.cue", ValidationIssue{Code: "UNKNOWN_COLOR", Field: "diagnostics.color", Value: "neon", Message: "odd"}))
	assert.Equal(t, "a.cue: [X] plain", formatIssue("a.cue", ValidationIssue{Code: "X", Message: "plain"}))
}
