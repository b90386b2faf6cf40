package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/spawnpool/pkg/errors"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spawnpool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv("SPARK_TARGET", "7")

	path := writeFile(t, `
name: boss-room
pools:
  - kind: Spark
    class: effect
    target_size: ${SPARK_TARGET}
    lifetime: 150ms
  - kind: Bolt
    class: projectile
    target_size: 0
warmup:
  strategy: async
  interval: 2ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "boss-room", cfg.Name)
	require.Len(t, cfg.Pools, 2)
	assert.Equal(t, 7, cfg.Pools[0].TargetSize)
	assert.Equal(t, 150*time.Millisecond, cfg.Pools[0].Lifetime)
	assert.Equal(t, 0, cfg.Pools[1].TargetSize)
	assert.True(t, cfg.Warmup.IsAsync())
	assert.Equal(t, 2*time.Millisecond, cfg.Warmup.Interval)

	// untouched sections keep their defaults
	assert.Equal(t, Default().Simulation.Ticks, cfg.Simulation.Ticks)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := writeFile(t, "pools: [kind: : :")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Name = "saved"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Name, loaded.Name)
	assert.Equal(t, cfg.TotalTarget(), loaded.TotalTarget())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing name", func(c *Config) { c.Name = "" }, "name is required"},
		{"empty kind", func(c *Config) { c.Pools[0].Kind = "" }, "kind is required"},
		{"duplicate kind", func(c *Config) { c.Pools[1].Kind = c.Pools[0].Kind }, "duplicate kind"},
		{"negative target", func(c *Config) { c.Pools[0].TargetSize = -1 }, "target_size cannot be negative"},
		{"negative lifetime", func(c *Config) { c.Pools[0].Lifetime = -time.Second }, "lifetime cannot be negative"},
		{"bad strategy", func(c *Config) { c.Warmup.Strategy = "eager" }, "warmup.strategy"},
		{"negative ticks", func(c *Config) { c.Simulation.Ticks = -5 }, "simulation.ticks"},
		{"chaos out of range", func(c *Config) { c.Simulation.ChaosRate = 1.5 }, "chaos_rate"},
		{"empty wave", func(c *Config) { c.Simulation.Waves[0].Count = 0 }, "waves[0]"},
		{"metrics without address", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Address = ""
		}, "metrics.address"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 2 }, "sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestZeroTargetIsAccepted(t *testing.T) {
	cfg := Default()
	cfg.Pools[0].TargetSize = 0
	assert.NoError(t, cfg.Validate())
}

func TestKindLookup(t *testing.T) {
	cfg := Default()

	k, ok := cfg.Kind("Explosion")
	assert.True(t, ok)
	assert.Equal(t, "effect", k.Class)

	_, ok = cfg.Kind("Missing")
	assert.False(t, ok)
}
