package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	PostgresURL string `mapstructure:"POSTGRES_URL"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`
	ServerPort  string `mapstructure:"SERVER_PORT"`

	BaseURL string `mapstructure:"CHART_BASE_URL"`

	Headless        bool `mapstructure:"CHROME_HEADLESS"`
	PageLoadTimeout int  `mapstructure:"PAGE_LOAD_TIMEOUT"` // seconds
	LocatorTimeout  int  `mapstructure:"LOCATOR_TIMEOUT"`   // seconds, per strategy
	SettleDelayMS   int  `mapstructure:"SETTLE_DELAY_MS"`   // after a view switch

	MaxAttempts   int  `mapstructure:"MAX_ATTEMPTS"`
	RetryDelayMS  int  `mapstructure:"RETRY_DELAY_MS"`
	RetryJitterMS int  `mapstructure:"RETRY_JITTER_MS"`

	SnapshotDir       string `mapstructure:"SNAPSHOT_DIR"`
	OutputDir         string `mapstructure:"OUTPUT_DIR"`
	ExportFormats     string `mapstructure:"EXPORT_FORMATS"` // comma-separated: csv,json,excel,parquet
	DeduplicationDays int    `mapstructure:"DEDUPLICATION_DAYS"`

	OpenAIKey string `mapstructure:"OPENAI_API_KEY"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables.
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("CHART_BASE_URL", "https://kworb.net/spotify")
	viper.SetDefault("CHROME_HEADLESS", true)
	viper.SetDefault("PAGE_LOAD_TIMEOUT", 45)
	viper.SetDefault("LOCATOR_TIMEOUT", 5)
	viper.SetDefault("SETTLE_DELAY_MS", 1500)
	viper.SetDefault("MAX_ATTEMPTS", 3)
	viper.SetDefault("RETRY_DELAY_MS", 2000)
	viper.SetDefault("RETRY_JITTER_MS", 500)
	viper.SetDefault("EXPORT_FORMATS", "csv")
	viper.SetDefault("SNAPSHOT_DIR", "data/raw")
	viper.SetDefault("OUTPUT_DIR", "data/processed")
	viper.SetDefault("DEDUPLICATION_DAYS", 2)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures the retry and timeout knobs are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("chart base URL cannot be empty")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	if c.RetryDelayMS < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	if c.RetryJitterMS < 0 {
		return fmt.Errorf("retry jitter cannot be negative")
	}
	if c.PageLoadTimeout <= 0 {
		return fmt.Errorf("page load timeout must be positive")
	}
	if c.LocatorTimeout <= 0 {
		return fmt.Errorf("locator timeout must be positive")
	}
	return nil
}

// RetryDelay returns the configured base delay between attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// RetryJitter returns the configured maximum random addition to the delay.
func (c *Config) RetryJitter() time.Duration {
	return time.Duration(c.RetryJitterMS) * time.Millisecond
}

// SettleDelay returns the pause inserted after a view switch before the page
// is trusted to have re-rendered.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}
