package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FRONTIER_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, 50, cfg.FrontierPoints)
	assert.Equal(t, 2000, cfg.MonteCarloSamples)
	assert.True(t, cfg.FrontierClipLower)
	assert.Equal(t, 365, cfg.LookbackDays)
	assert.Equal(t, 12*time.Hour, cfg.PriceCacheTTL)
	assert.Empty(t, cfg.Watchlist)
	assert.Equal(t, filepath.Join(dir, "cache.db"), cfg.CacheDBPath())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FRONTIER_DATA_DIR", t.TempDir())
	t.Setenv("FRONTIER_POINTS", "25")
	t.Setenv("FRONTIER_CLIP_LOWER", "false")
	t.Setenv("SOLVER_TOLERANCE", "1e-7")
	t.Setenv("SOLVER_TIMEOUT", "3s")
	t.Setenv("WATCHLIST", " aapl, msft ,,goog")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.FrontierPoints)
	assert.False(t, cfg.FrontierClipLower)
	assert.Equal(t, 1e-7, cfg.SolverTolerance)
	assert.Equal(t, 3*time.Second, cfg.SolverTimeout)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, cfg.Watchlist)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("FRONTIER_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "not-a-number")
	t.Setenv("PRICE_CACHE_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, 12*time.Hour, cfg.PriceCacheTTL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:                     8001,
			LookbackDays:             365,
			FrontierPoints:           50,
			FrontierWorkers:          2,
			MonteCarloSamples:        100,
			SolverMaxIterations:      100,
			SolverMaxOuterIterations: 10,
			SolverTolerance:          1e-9,
			SolverTimeout:            time.Second,
			PriceCacheTTL:            time.Hour,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"short lookback", func(c *Config) { c.LookbackDays = 1 }},
		{"no frontier points", func(c *Config) { c.FrontierPoints = 0 }},
		{"no workers", func(c *Config) { c.FrontierWorkers = 0 }},
		{"negative samples", func(c *Config) { c.MonteCarloSamples = -1 }},
		{"zero iterations", func(c *Config) { c.SolverMaxIterations = 0 }},
		{"zero tolerance", func(c *Config) { c.SolverTolerance = 0 }},
		{"zero timeout", func(c *Config) { c.SolverTimeout = 0 }},
		{"zero ttl", func(c *Config) { c.PriceCacheTTL = 0 }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
