package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 0.3, cfg.LLM.Temperature)
	assert.Equal(t, 2500, cfg.LLM.MaxTokens)
	assert.Equal(t, MaxLLMRetries, cfg.LLM.MaxRetries)
	assert.Equal(t, FetchHTTP, cfg.Fetch.Mode)
	assert.Equal(t, EnrichmentStatic, cfg.Enrichment.Mode)
	assert.Equal(t, "DMY", cfg.Extract.DateOrder)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMatchesDefault(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOMIE_SERVER_PORT", "9000")
	t.Setenv("HOMIE_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("HOMIE_LLM_TIMEOUT", "5s")
	t.Setenv("HOMIE_FETCH_MODE", "browser")
	t.Setenv("HOMIE_EXTRACT_DATE_ORDER", "MDY")
	t.Setenv("HOMIE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, FetchBrowser, cfg.Fetch.Mode)
	assert.Equal(t, "MDY", cfg.Extract.DateOrder)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"live enrichment", func(c *Config) { c.Enrichment.Mode = EnrichmentLive }, true},
		{"unknown fetch mode", func(c *Config) { c.Fetch.Mode = "carrier-pigeon" }, false},
		{"scrapingbee without key", func(c *Config) { c.Fetch.Mode = FetchScrapingBee }, false},
		{"scrapingbee with key", func(c *Config) {
			c.Fetch.Mode = FetchScrapingBee
			c.Fetch.ScrapingBeeKey = "key"
		}, true},
		{"unknown enrichment", func(c *Config) { c.Enrichment.Mode = "magic" }, false},
		{"unknown date order", func(c *Config) { c.Extract.DateOrder = "YMD" }, false},
		{"too many retries", func(c *Config) { c.LLM.MaxRetries = 3 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
