package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		BaseURL:         "https://kworb.net/spotify",
		PageLoadTimeout: 45,
		LocatorTimeout:  5,
		MaxAttempts:     3,
		RetryDelayMS:    2000,
		RetryJitterMS:   500,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are coherent", func(c *Config) {}, false},
		{"missing base URL", func(c *Config) { c.BaseURL = "" }, true},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, true},
		{"negative retry delay", func(c *Config) { c.RetryDelayMS = -1 }, true},
		{"negative jitter", func(c *Config) { c.RetryJitterMS = -1 }, true},
		{"zero page load timeout", func(c *Config) { c.PageLoadTimeout = 0 }, true},
		{"zero locator timeout", func(c *Config) { c.LocatorTimeout = 0 }, true},
		{"zero delay is allowed", func(c *Config) { c.RetryDelayMS = 0; c.RetryJitterMS = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := &Config{RetryDelayMS: 2000, RetryJitterMS: 500, SettleDelayMS: 1500}
	assert.Equal(t, 2*time.Second, cfg.RetryDelay())
	assert.Equal(t, 500*time.Millisecond, cfg.RetryJitter())
	assert.Equal(t, 1500*time.Millisecond, cfg.SettleDelay())
}
