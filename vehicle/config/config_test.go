package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.1, cfg.Planner.TimeStep)
	assert.Equal(t, 2.5, cfg.Planner.AxisDistance)
	assert.Equal(t, 3, cfg.Planner.MaxDepth)
	assert.Empty(t, cfg.Beacon.Port, "bench mode by default")
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eagleeye.yaml")
	content := `
planner:
  time_step: 0.05
  max_depth: 2
beacon:
  port: /dev/ttyUSB0
obstacles:
  - {x: 4.0, y: 0.5, radius: 0.4}
  - {x: 8.0, y: -1.0, radius: 0.6}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Planner.TimeStep)
	assert.Equal(t, 2, cfg.Planner.MaxDepth)
	// Unset keys keep their defaults.
	assert.Equal(t, 1000.0, cfg.Planner.CollisionPenalty)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Beacon.Port)

	circles := cfg.Circles()
	require.Len(t, circles, 2)
	assert.Equal(t, 0.4, circles[0].Radius)
	assert.Equal(t, 8.0, circles[1].Center.X)
}

func TestTrajectoryCurve(t *testing.T) {
	// The default reference curve is a usable straight line, not the zero
	// value, so the lateral controller has something to track out of the box.
	curve := Default().Trajectory.Curve()
	assert.NotZero(t, curve)
	assert.Equal(t, 10.0, curve.P3.X)

	path := filepath.Join(t.TempDir(), "eagleeye.yaml")
	content := `
trajectory:
  p0: {x: 1.0, y: 2.0}
  p1: {x: 3.0, y: 2.5}
  p2: {x: 5.0, y: 1.0}
  p3: {x: 7.0, y: 0.0}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	loaded := cfg.Trajectory.Curve()
	assert.Equal(t, 1.0, loaded.P0.X)
	assert.Equal(t, 2.5, loaded.P1.Y)
	assert.Equal(t, 7.0, loaded.P3.X)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("planner:\n  time_step: -1\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidateCatchesBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero time step", func(c *Config) { c.Planner.TimeStep = 0 }},
		{"negative penalty", func(c *Config) { c.Planner.CollisionPenalty = -5 }},
		{"negative depth", func(c *Config) { c.Planner.MaxDepth = -1 }},
		{"zero wheelbase", func(c *Config) { c.Planner.AxisDistance = 0 }},
		{"zero cross-track gain", func(c *Config) { c.Controller.GainCrossTrack = 0 }},
		{"zero estimator noise", func(c *Config) { c.Estimator.StdYaw = 0 }},
		{"negative obstacle radius", func(c *Config) { c.Obstacles = []Obstacle{{Radius: -1}} }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
