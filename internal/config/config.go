package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tokentoll/tokentoll/internal/pricing"
)

// Config is the top-level configuration, loaded from YAML with environment
// fallbacks for store credentials.
type Config struct {
	Redis    RedisConfig    `yaml:"redis"`
	Backfill BackfillConfig `yaml:"backfill"`
	Reports  ReportsConfig  `yaml:"reports"`
	Pricing  PricingConfig  `yaml:"pricing"`
}

// RedisConfig locates the counter store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// BackfillConfig tunes the reclassification job.
type BackfillConfig struct {
	DefaultTier string  `yaml:"default_tier"` // tier for untagged historical records
	ScanCount   int64   `yaml:"scan_count"`
	Concurrency int     `yaml:"concurrency"`
	RateLimit   float64 `yaml:"rate_limit"` // keys/sec, 0 = unlimited
}

// ReportsConfig locates report outputs.
type ReportsConfig struct {
	Dir       string `yaml:"dir"`
	HistoryDB string `yaml:"history_db"`
}

// PricingConfig tunes the dynamic pricing feed.
type PricingConfig struct {
	FeedURL string        `yaml:"feed_url"`
	Offline bool          `yaml:"offline"`
	Refresh time.Duration `yaml:"refresh"`
}

// Default returns a config with all defaults applied.
func Default() *Config {
	return &Config{
		Redis: RedisConfig{Addr: DefaultRedisAddr},
		Backfill: BackfillConfig{
			DefaultTier: DefaultDefaultTier,
			ScanCount:   DefaultScanCount,
			Concurrency: DefaultConcurrency,
		},
		Reports: ReportsConfig{Dir: DefaultReportDir, HistoryDB: DefaultHistoryDB},
		Pricing: PricingConfig{Refresh: DefaultFeedRefresh},
	}
}

// Load reads a YAML config file on top of the defaults. An empty path yields
// the defaults. REDIS_ADDR and REDIS_PASSWORD override the file when set.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must not be empty")
	}
	if _, ok := pricing.ParseTier(c.Backfill.DefaultTier); !ok {
		return fmt.Errorf("backfill.default_tier must be %q or %q, got %q",
			pricing.TierShort, pricing.TierLong, c.Backfill.DefaultTier)
	}
	if c.Backfill.ScanCount <= 0 {
		return fmt.Errorf("backfill.scan_count must be > 0, got %d", c.Backfill.ScanCount)
	}
	if c.Backfill.Concurrency <= 0 {
		return fmt.Errorf("backfill.concurrency must be > 0, got %d", c.Backfill.Concurrency)
	}
	if c.Backfill.RateLimit < 0 {
		return fmt.Errorf("backfill.rate_limit must be >= 0, got %f", c.Backfill.RateLimit)
	}
	return nil
}

// DefaultTier returns the validated default tier.
func (c *Config) DefaultTier() pricing.Tier {
	t, _ := pricing.ParseTier(c.Backfill.DefaultTier)
	return t
}
