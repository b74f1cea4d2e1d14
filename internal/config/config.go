// Package config loads engine configuration with the precedence
// defaults < config file < LINEAGE_* environment variables.
//
// There is deliberately no package-level singleton: callers load a Config
// once and pass it into the decision engine and reconciler at
// construction time.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable the engine reads. All thresholds operate on
// normalized [0,1] scores.
type Config struct {
	// MergeThreshold is the base score at or above which an automatic
	// merge is allowed.
	MergeThreshold float64 `mapstructure:"merge_threshold" yaml:"merge_threshold"`

	// ReviewLow..ReviewHigh is the band requiring human adjudication.
	ReviewLow  float64 `mapstructure:"review_low" yaml:"review_low"`
	ReviewHigh float64 `mapstructure:"review_high" yaml:"review_high"`

	// WeakEvidenceMargin is added to MergeThreshold when the candidate's
	// vital dates are known only to year precision.
	WeakEvidenceMargin float64 `mapstructure:"weak_evidence_margin" yaml:"weak_evidence_margin"`

	// Timeline plausibility bounds. Violations are hard blocks.
	MinParentAge int `mapstructure:"min_parent_age" yaml:"min_parent_age"`
	MaxParentAge int `mapstructure:"max_parent_age" yaml:"max_parent_age"`
	MaxLifespan  int `mapstructure:"max_lifespan" yaml:"max_lifespan"`

	// LockTTLSeconds is the default TTL for per-fact advisory leases.
	LockTTLSeconds int `mapstructure:"lock_ttl_seconds" yaml:"lock_ttl_seconds"`

	// Reconciler knobs.
	RatePerSecond           float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	MinCallSpacingMillis    int     `mapstructure:"min_call_spacing_ms" yaml:"min_call_spacing_ms"`
	BreakerFailureThreshold int     `mapstructure:"breaker_failure_threshold" yaml:"breaker_failure_threshold"`
	BreakerWindowSeconds    int     `mapstructure:"breaker_window_seconds" yaml:"breaker_window_seconds"`
	BreakerCooldownSeconds  int     `mapstructure:"breaker_cooldown_seconds" yaml:"breaker_cooldown_seconds"`
	CacheTTLMinutes         int     `mapstructure:"cache_ttl_minutes" yaml:"cache_ttl_minutes"`
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		MergeThreshold:          0.95,
		ReviewLow:               0.80,
		ReviewHigh:              0.95,
		WeakEvidenceMargin:      0.03,
		MinParentAge:            12,
		MaxParentAge:            60,
		MaxLifespan:             120,
		LockTTLSeconds:          300,
		RatePerSecond:           2,
		MinCallSpacingMillis:    250,
		BreakerFailureThreshold: 5,
		BreakerWindowSeconds:    60,
		BreakerCooldownSeconds:  30,
		CacheTTLMinutes:         60,
	}
}

// Load reads configuration from an optional YAML file and the
// environment. An empty path skips the file layer entirely.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("merge_threshold", def.MergeThreshold)
	v.SetDefault("review_low", def.ReviewLow)
	v.SetDefault("review_high", def.ReviewHigh)
	v.SetDefault("weak_evidence_margin", def.WeakEvidenceMargin)
	v.SetDefault("min_parent_age", def.MinParentAge)
	v.SetDefault("max_parent_age", def.MaxParentAge)
	v.SetDefault("max_lifespan", def.MaxLifespan)
	v.SetDefault("lock_ttl_seconds", def.LockTTLSeconds)
	v.SetDefault("rate_per_second", def.RatePerSecond)
	v.SetDefault("min_call_spacing_ms", def.MinCallSpacingMillis)
	v.SetDefault("breaker_failure_threshold", def.BreakerFailureThreshold)
	v.SetDefault("breaker_window_seconds", def.BreakerWindowSeconds)
	v.SetDefault("breaker_cooldown_seconds", def.BreakerCooldownSeconds)
	v.SetDefault("cache_ttl_minutes", def.CacheTTLMinutes)

	v.SetEnvPrefix("LINEAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the decision engine cannot reason
// about. Note there is no knob that downgrades timeline blocks.
func (c Config) Validate() error {
	inUnit := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1] (got %v)", name, v)
		}
		return nil
	}
	if err := inUnit("merge_threshold", c.MergeThreshold); err != nil {
		return err
	}
	if err := inUnit("review_low", c.ReviewLow); err != nil {
		return err
	}
	if err := inUnit("review_high", c.ReviewHigh); err != nil {
		return err
	}
	if err := inUnit("weak_evidence_margin", c.WeakEvidenceMargin); err != nil {
		return err
	}
	if c.ReviewLow > c.ReviewHigh {
		return fmt.Errorf("review_low (%v) must not exceed review_high (%v)", c.ReviewLow, c.ReviewHigh)
	}
	if c.MinParentAge < 0 || c.MaxParentAge < c.MinParentAge {
		return fmt.Errorf("parent age bounds invalid: [%d,%d]", c.MinParentAge, c.MaxParentAge)
	}
	if c.MaxLifespan <= 0 {
		return fmt.Errorf("max_lifespan must be positive (got %d)", c.MaxLifespan)
	}
	if c.LockTTLSeconds <= 0 {
		return fmt.Errorf("lock_ttl_seconds must be positive (got %d)", c.LockTTLSeconds)
	}
	if c.RatePerSecond <= 0 {
		return fmt.Errorf("rate_per_second must be positive (got %v)", c.RatePerSecond)
	}
	if c.BreakerFailureThreshold <= 0 {
		return fmt.Errorf("breaker_failure_threshold must be positive (got %d)", c.BreakerFailureThreshold)
	}
	return nil
}

// LockTTL returns the lease TTL as a duration.
func (c Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// MinCallSpacing returns the minimum inter-call spacing as a duration.
func (c Config) MinCallSpacing() time.Duration {
	return time.Duration(c.MinCallSpacingMillis) * time.Millisecond
}

// BreakerWindow returns the failure-counting window as a duration.
func (c Config) BreakerWindow() time.Duration {
	return time.Duration(c.BreakerWindowSeconds) * time.Second
}

// BreakerCooldown returns the open-state cooldown as a duration.
func (c Config) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSeconds) * time.Second
}

// CacheTTL returns the reconciliation memory-cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}
