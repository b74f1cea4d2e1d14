package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lineage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("merge_threshold: 0.9\nmax_lifespan: 110\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.MergeThreshold)
	assert.Equal(t, 110, cfg.MaxLifespan)
	assert.Equal(t, Default().ReviewLow, cfg.ReviewLow, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lineage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("merge_threshold: 0.9\n"), 0o644))
	t.Setenv("LINEAGE_MERGE_THRESHOLD", "0.97")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.97, cfg.MergeThreshold)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lineage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("merge_threshold: 1.5\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"merge threshold above one", func(c *Config) { c.MergeThreshold = 1.2 }},
		{"negative review low", func(c *Config) { c.ReviewLow = -0.1 }},
		{"inverted review band", func(c *Config) { c.ReviewLow = 0.9; c.ReviewHigh = 0.8 }},
		{"negative parent age", func(c *Config) { c.MinParentAge = -1 }},
		{"inverted parent ages", func(c *Config) { c.MinParentAge = 50; c.MaxParentAge = 20 }},
		{"zero lifespan", func(c *Config) { c.MaxLifespan = 0 }},
		{"zero lock ttl", func(c *Config) { c.LockTTLSeconds = 0 }},
		{"zero rate", func(c *Config) { c.RatePerSecond = 0 }},
		{"zero breaker threshold", func(c *Config) { c.BreakerFailureThreshold = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 300*time.Second, cfg.LockTTL())
	assert.Equal(t, 250*time.Millisecond, cfg.MinCallSpacing())
	assert.Equal(t, 60*time.Second, cfg.BreakerWindow())
	assert.Equal(t, 30*time.Second, cfg.BreakerCooldown())
	assert.Equal(t, time.Hour, cfg.CacheTTL())
}
