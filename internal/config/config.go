// Package config loads homie configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name. Variables are
// named HOMIE_<SECTION>_<FIELD>, e.g. HOMIE_LLM_API_KEY.
const Prefix = "HOMIE"

// Fetch modes.
const (
	FetchHTTP        = "http"
	FetchBrowser     = "browser"
	FetchScrapingBee = "scrapingbee"
)

// Enrichment modes.
const (
	EnrichmentStatic = "static"
	EnrichmentLive   = "live"
)

// MaxLLMRetries bounds retries of upstream model calls.
const MaxLLMRetries = 2

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	LLM        LLMConfig
	Fetch      FetchConfig
	Extract    ExtractConfig
	Enrichment EnrichmentConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `split_words:"true" default:"8080"`
	Host         string        `split_words:"true" default:"0.0.0.0"`
	ReadTimeout  time.Duration `split_words:"true" default:"15s"`
	WriteTimeout time.Duration `split_words:"true" default:"120s"`
}

// DatabaseConfig holds the cache store location.
type DatabaseConfig struct {
	Path string `split_words:"true" default:"data/homie.db"`
}

// LLMConfig holds upstream model settings.
type LLMConfig struct {
	BaseURL           string        `split_words:"true" default:"https://api.openai.com/v1"`
	APIKey            string        `split_words:"true"`
	Model             string        `split_words:"true" default:"gpt-4o"`
	Temperature       float64       `split_words:"true" default:"0.3"`
	MaxTokens         int           `split_words:"true" default:"2500"`
	Timeout           time.Duration `split_words:"true" default:"60s"`
	MaxRetries        int           `split_words:"true" default:"2"`
	MinBackoff        time.Duration `split_words:"true" default:"1s"`
	MaxBackoff        time.Duration `split_words:"true" default:"8s"`
	RequestsPerSecond float64       `split_words:"true" default:"0"`
}

// FetchConfig holds page fetcher settings.
type FetchConfig struct {
	Mode           string        `split_words:"true" default:"http"`
	Headless       bool          `split_words:"true" default:"true"`
	ScrapingBeeKey string        `split_words:"true"`
	Delay          time.Duration `split_words:"true" default:"2s"`
	Timeout        time.Duration `split_words:"true" default:"30s"`
	UserAgent      string        `split_words:"true"`
}

// ExtractConfig holds extraction settings.
type ExtractConfig struct {
	DateOrder      string `split_words:"true" default:"DMY"`
	CurrencyLocale string `split_words:"true" default:"en-AU"`
}

// EnrichmentConfig selects the school and market data provider.
type EnrichmentConfig struct {
	Mode        string  `split_words:"true" default:"static"`
	SchoolsPath string  `split_words:"true"`
	SchoolsURL  string  `split_words:"true"`
	RadiusKm    float64 `split_words:"true" default:"5"`
	GeocoderURL string  `split_words:"true" default:"https://nominatim.openstreetmap.org"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `split_words:"true" default:"info"`
	Development bool   `split_words:"true" default:"false"`
}

// Load reads .env when present, then the HOMIE_* environment.
func Load() (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Host:         "0.0.0.0",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "data/homie.db",
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o",
			Temperature: 0.3,
			MaxTokens:   2500,
			Timeout:     60 * time.Second,
			MaxRetries:  MaxLLMRetries,
			MinBackoff:  time.Second,
			MaxBackoff:  8 * time.Second,
		},
		Fetch: FetchConfig{
			Mode:     FetchHTTP,
			Headless: true,
			Delay:    2 * time.Second,
			Timeout:  30 * time.Second,
		},
		Extract: ExtractConfig{
			DateOrder:      "DMY",
			CurrencyLocale: "en-AU",
		},
		Enrichment: EnrichmentConfig{
			Mode:        EnrichmentStatic,
			RadiusKm:    5,
			GeocoderURL: "https://nominatim.openstreetmap.org",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate rejects unknown modes and out-of-range limits.
func (c *Config) Validate() error {
	var errs []error
	switch c.Fetch.Mode {
	case FetchHTTP, FetchBrowser:
	case FetchScrapingBee:
		if c.Fetch.ScrapingBeeKey == "" {
			errs = append(errs, errors.New("fetch mode scrapingbee needs a ScrapingBee key"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown fetch mode %q", c.Fetch.Mode))
	}
	switch c.Enrichment.Mode {
	case EnrichmentStatic, EnrichmentLive:
	default:
		errs = append(errs, fmt.Errorf("unknown enrichment mode %q", c.Enrichment.Mode))
	}
	switch c.Extract.DateOrder {
	case "DMY", "MDY":
	default:
		errs = append(errs, fmt.Errorf("unknown date order %q", c.Extract.DateOrder))
	}
	if c.LLM.MaxRetries < 0 || c.LLM.MaxRetries > MaxLLMRetries {
		errs = append(errs, fmt.Errorf("llm max retries must be between 0 and %d", MaxLLMRetries))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
