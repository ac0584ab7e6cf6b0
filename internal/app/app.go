// Package app wires configuration into the extraction, analysis and storage
// components shared by the homie binaries.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"homie/internal/analysis"
	"homie/internal/config"
	"homie/internal/db"
	"homie/internal/demographics"
	"homie/internal/enrichment"
	"homie/internal/extract"
	"homie/internal/geo"
	"homie/internal/httpclient"
	"homie/internal/llm"
	"homie/internal/scraper"
)

// App holds the wired components.
type App struct {
	Config     *config.Config
	DB         *db.DB
	LLM        *llm.Client
	Currency   *analysis.CurrencyFormatter
	Extractor  *extract.Extractor
	Normalizer *demographics.Normalizer
	Forecaster *analysis.Forecaster
	Analysis   *analysis.Service
	Fetcher    scraper.Fetcher
	Scraper    *scraper.Scraper

	closers []func()
}

// New opens the database and builds every component from cfg.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a := &App{Config: cfg, DB: database}
	a.closers = append(a.closers, func() { database.Close() })

	a.LLM = llm.New(llmConfig(cfg.LLM), log.Named("llm"))
	a.Currency = analysis.NewCurrencyFormatter(cfg.Extract.CurrencyLocale)
	a.Forecaster = analysis.NewForecaster(a.LLM, database, a.Currency, log.Named("forecast"))

	// demographics are fetched upstream only when a key is configured
	var fetcher demographics.Fetcher
	if cfg.LLM.APIKey != "" {
		fetcher = a.LLM
	}
	a.Normalizer = demographics.NewNormalizer(fetcher, database, log.Named("demographics"))

	provider, err := enrichmentProvider(ctx, cfg.Enrichment, a.Forecaster, log.Named("enrichment"))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Extractor = extract.New(log.Named("extract"),
		extract.WithDateOrder(extract.DateOrder(cfg.Extract.DateOrder)),
		extract.WithEnrichment(provider),
	)

	a.Analysis = analysis.NewService(a.LLM, database, a.Normalizer, log.Named("analysis"),
		analysis.WithForecaster(a.Forecaster),
		analysis.WithCurrency(a.Currency),
	)

	a.Fetcher = a.newFetcher(cfg.Fetch, log.Named("fetch"))
	a.Scraper = scraper.New(a.Fetcher, a.Extractor, a.Normalizer, database, a.Analysis, scraper.Config{
		DelayBetween: cfg.Fetch.Delay,
	}, log.Named("scraper"))

	return a, nil
}

// Close releases the browser and database.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func llmConfig(c config.LLMConfig) llm.Config {
	return llm.Config{
		BaseURL:           c.BaseURL,
		APIKey:            c.APIKey,
		Model:             c.Model,
		Temperature:       c.Temperature,
		MaxTokens:         c.MaxTokens,
		Timeout:           c.Timeout,
		MaxRetries:        c.MaxRetries,
		MinBackoff:        c.MinBackoff,
		MaxBackoff:        c.MaxBackoff,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

func (a *App) newFetcher(c config.FetchConfig, log *zap.Logger) scraper.Fetcher {
	switch c.Mode {
	case config.FetchBrowser:
		bc := scraper.DefaultBrowserConfig()
		bc.Headless = c.Headless
		if c.Timeout > bc.Timeout {
			bc.Timeout = c.Timeout
		}
		browser := scraper.NewBrowserFetcher(bc, log)
		a.closers = append(a.closers, browser.Close)
		return browser
	case config.FetchScrapingBee:
		return scraper.NewScrapingBeeFetcher(c.ScrapingBeeKey, "", scraper.DefaultListingOptions(), log)
	default:
		hc := httpclient.DefaultConfig()
		hc.Timeout = c.Timeout
		hc.UserAgent = c.UserAgent
		return scraper.NewHTTPFetcher(hc)
	}
}

func enrichmentProvider(ctx context.Context, c config.EnrichmentConfig, growth enrichment.GrowthSource, log *zap.Logger) (enrichment.Provider, error) {
	if c.Mode != config.EnrichmentLive {
		return enrichment.Static{}, nil
	}

	var schools *geo.SchoolIndex
	switch {
	case c.SchoolsPath != "":
		idx, err := geo.LoadFile(c.SchoolsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load schools: %w", err)
		}
		schools = idx
	case c.SchoolsURL != "":
		idx, err := geo.FetchSchools(ctx, httpclient.New(httpclient.DefaultConfig()), c.SchoolsURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch schools: %w", err)
		}
		schools = idx
	default:
		schools = geo.SampleSchools()
	}
	log.Info("school dataset loaded", zap.Int("schools", len(schools.Schools)))

	live := &enrichment.Live{
		Schools:  schools,
		Geocoder: geo.NewGeocoder(c.GeocoderURL),
		Growth:   growth,
		RadiusKm: c.RadiusKm,
		Log:      log,
	}
	return enrichment.Fallback{Primary: live, Secondary: enrichment.Static{}}, nil
}
