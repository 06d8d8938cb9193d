package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `planner:
  algorithm: "cbs"
  obstacle_code: "#"
  seed: 42
  max_cbs_nodes: 500
  parallel: false
  horizon: 64
logging:
  level: "debug"
metrics:
  namespace: "wh"
  textfile: "/tmp/pick.prom"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"algorithm", cfg.Planner.Algorithm, "cbs"},
		{"obstacle_code", cfg.Planner.ObstacleCode, "#"},
		{"seed", cfg.Planner.Seed, int64(42)},
		{"max_cbs_nodes", cfg.Planner.MaxCBSNodes, 500},
		{"parallel", cfg.Planner.IsParallel(), false},
		{"horizon", cfg.Planner.Horizon, 64},
		{"level", cfg.Logging.Level, "debug"},
		{"namespace", cfg.Metrics.Namespace, "wh"},
		{"textfile", cfg.Metrics.Textfile, "/tmp/pick.prom"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
}

func TestLoadJSONDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"planner": {"seed": 7}}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, AlgorithmCA, cfg.Planner.Algorithm)
	assert.Equal(t, "8", cfg.Planner.ObstacleCode)
	assert.Equal(t, 20000, cfg.Planner.MaxCBSNodes)
	assert.True(t, cfg.Planner.IsParallel())
	assert.Equal(t, int64(7), cfg.Planner.Seed)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "pickplan", cfg.Metrics.Namespace)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("planner:\n  algorithm: ca\n"), 0o644))
	t.Setenv("PICK_PLANNER__ALGORITHM", "cbs")
	t.Setenv("PICK_LOGGING__LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, AlgorithmCBS, cfg.Planner.Algorithm)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Planner.Algorithm, cfg.Planner.Algorithm)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("planner:\n  algorithm: astar\n"), 0o644))

	_, err := Load(bad)
	assert.ErrorContains(t, err, "unknown algorithm")

	_, err = Load(filepath.Join(dir, "config.toml"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative nodes", func(c *Config) { c.Planner.MaxCBSNodes = -1 }},
		{"negative horizon", func(c *Config) { c.Planner.Horizon = -3 }},
		{"empty obstacle", func(c *Config) { c.Planner.ObstacleCode = "" }},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad namespace", func(c *Config) { c.Metrics.Namespace = "pick-plan" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}
