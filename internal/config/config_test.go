package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.Auth.Mode)
	assert.True(t, cfg.DBMigrate)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadHeaderTimeout)
	assert.Equal(t, DefaultSolver(), cfg.Solver)
	assert.NoError(t, cfg.Solver.AnnealOptions().Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_MODE", "hmac")
	t.Setenv("AUTH_HMAC_SECRET", "s3cret")
	t.Setenv("RATE_RPS", "2.5")
	t.Setenv("HTTP_SOLVE_TIMEOUT", "3s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "hmac", cfg.Auth.Mode)
	assert.Equal(t, "s3cret", cfg.Auth.HMACSecret)
	assert.Equal(t, 2.5, cfg.Rate.RPS)
	assert.Equal(t, 3*time.Second, cfg.HTTP.SolveTimeout)
}

func TestLoadSolverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cooling_factor: 0.95\nmax_processing_time: 2.5\nstarts: 4\n"), 0o600))
	t.Setenv("SOLVER_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.95, cfg.Solver.CoolingFactor)
	assert.Equal(t, 4, cfg.Solver.Starts)
	assert.Equal(t, 500, cfg.Solver.TriesPerTemperature)
	assert.True(t, cfg.Solver.Randomize)
	assert.Equal(t, 2500*time.Millisecond, cfg.Solver.AnnealOptions().TimeLimit)
}

func TestLoadSolverFileMissing(t *testing.T) {
	t.Setenv("SOLVER_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestWithOverrides(t *testing.T) {
	s, err := DefaultSolver().WithOverrides(map[string]any{"randomize": false, "tries_per_temperature": 10, "unknown": "x"})
	require.NoError(t, err)
	assert.False(t, s.Randomize)
	assert.Equal(t, 10, s.TriesPerTemperature)
	assert.Equal(t, 0.9, s.CoolingFactor)

	_, err = DefaultSolver().WithOverrides(map[string]any{"tries_per_temperature": "many"})
	assert.Error(t, err)
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown", "k", 1)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)

	buf.Reset()
	NewLogger(&buf, "bogus").Info("fallback")
	assert.Contains(t, buf.String(), "fallback")
}
