package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", cfg.Symbol)
	assert.Equal(t, 5, cfg.Engine.PivotLength)
	assert.InDelta(t, 0.5, cfg.Engine.WidthMult, 1e-9)
	assert.Equal(t, 5, cfg.Engine.MaxZonesPerSide)
	assert.InDelta(t, 0.997, cfg.Engine.DecayRate, 1e-9)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
symbol: ETHUSDT
engine:
  pivot_length: 3
  width_mult: 1.0
  max_zones_per_side: 8
  decay_rate: 0.99
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", cfg.Symbol)
	assert.Equal(t, 3, cfg.Engine.PivotLength)
	assert.InDelta(t, 1.0, cfg.Engine.WidthMult, 1e-9)
	assert.Equal(t, 8, cfg.Engine.MaxZonesPerSide)
}

func TestLoad_RejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"width mult above cap", "engine:\n  width_mult: 3.0\n"},
		{"decay rate below floor", "engine:\n  decay_rate: 0.5\n"},
		{"too many zones per side", "engine:\n  max_zones_per_side: 50\n"},
		{"pivot length zero", "engine:\n  pivot_length: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err, "out-of-range values must be rejected, never clamped")
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ZONERUN_SYMBOL", "SOLUSDT")
	t.Setenv("ZONERUN_MAX_ZONES_PER_SIDE", "2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "SOLUSDT", cfg.Symbol)
	assert.Equal(t, 2, cfg.Engine.MaxZonesPerSide)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestEngineConfigMapping(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	ec := cfg.EngineConfig()
	assert.Equal(t, cfg.Engine.PivotLength, ec.PivotLength)
	assert.InDelta(t, cfg.Engine.WidthMult, ec.WidthMult, 1e-9)
	assert.Equal(t, cfg.Engine.MaxZonesPerSide, ec.MaxZonesPerSide)
	assert.InDelta(t, cfg.Engine.DecayRate, ec.DecayRate, 1e-9)
	assert.Equal(t, 100, ec.Resamples, "bootstrap constants keep engine defaults")
	assert.InDelta(t, 0.5, ec.ConfidenceFloor, 1e-9)
}
