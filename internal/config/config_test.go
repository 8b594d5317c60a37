package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/mulcheck/internal/dut"
	"github.com/roach88/mulcheck/internal/engine"
	"github.com/roach88/mulcheck/internal/scoreboard"
)

func TestDefault_MatchesEngineDefaults(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Normalize())

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultSettings(), s)
	assert.Equal(t, "auto", cfg.Diagnostics.Color)
}

func TestLoad_CUE(t *testing.T) {
	cfg, err := Load("testdata/bench.cue")
	require.NoError(t, err)
	assert.Equal(t, "testdata/bench.cue", cfg.Source)

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), s.Seed)
	assert.Equal(t, int64(0), s.Transactions)
	assert.True(t, s.StopOnClosure)
	assert.Equal(t, 4, s.DUTLatency)
	assert.Equal(t, dut.FaultNone, s.DUTFault)
	assert.Equal(t, scoreboard.DiagAll, s.Diagnostics)
	assert.Equal(t, 5*time.Nanosecond, s.HalfPeriod)
	assert.Equal(t, "never", cfg.Diagnostics.Color)
}

func TestLoad_JSON(t *testing.T) {
	cfg, err := Load("testdata/bench.json")
	require.NoError(t, err)

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), s.Seed)
	assert.Equal(t, int64(25), s.Transactions)
	assert.Equal(t, dut.FaultProductLSBFlip, s.DUTFault)
	assert.Equal(t, int64(1000), s.HeartbeatCycles)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing file", "testdata/nope.cue", ErrCodeNotFound},
		{"fault outside the enum", "testdata/bad_fault.cue", ErrCodeSchema},
		{"field not in schema", "testdata/unknown_field.cue", ErrCodeSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)
			assert.True(t, IsConfigError(err))

			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.code, ce.Code)
		})
	}
}

func TestParse_Syntax(t *testing.T) {
	_, err := Parse([]byte("seed: {"), "broken.cue")
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeSyntax, ce.Code)
}

func TestParse_RangeViolation(t *testing.T) {
	_, err := Parse([]byte("dut: latency: 0"), "inline.cue")
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeSchema, ce.Code)
}

func TestNormalize_UnknownModeAndColorFallBack(t *testing.T) {
	cfg, err := Load("testdata/unknown_mode.cue")
	require.NoError(t, err, "unknown modes are not schema errors")

	warnings := cfg.Normalize()
	require.Len(t, warnings, 2)
	assert.Equal(t, ErrCodeUnknownMode, warnings[0].Code)
	assert.Equal(t, "verbose", warnings[0].Value)
	assert.Equal(t, ErrCodeUnknownColor, warnings[1].Code)
	assert.Contains(t, warnings[1].Error(), `value="rainbow"`)

	assert.Equal(t, "mismatch", cfg.Diagnostics.Mode)
	assert.Equal(t, "auto", cfg.Diagnostics.Color)
	assert.Empty(t, cfg.Normalize(), "normalizing twice is a no-op")
}

func TestLogWarnings(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg, err := Load("testdata/unknown_mode.cue")
	require.NoError(t, err)

	cfg.LogWarnings(zap.New(core))
	entries := logs.FilterMessage("configuration error").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "diagnostics.mode", entries[0].ContextMap()["field"])
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("")
	require.NoError(t, err)
	assert.Equal(t, ColorAuto, c)

	c, err = ParseColor("Always")
	require.NoError(t, err)
	assert.Equal(t, ColorAlways, c)

	_, err = ParseColor("sometimes")
	assert.Error(t, err)
}
