// Package scraper fetches listing pages and runs them through extraction,
// demographic normalization and storage.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"homie/internal/analysis"
	"homie/internal/db"
	"homie/internal/demographics"
	"homie/internal/document"
	"homie/internal/extract"
	"homie/internal/models"
)

// Config holds scraper configuration
type Config struct {
	DelayBetween time.Duration
	// Refresh re-extracts listings that are already stored.
	Refresh bool
	// Analyze runs the upstream analysis for every saved listing.
	Analyze bool
}

// DefaultConfig returns default scraper settings
func DefaultConfig() Config {
	return Config{
		DelayBetween: 2 * time.Second,
	}
}

// Store persists extracted records.
type Store interface {
	SaveProperty(ctx context.Context, rec *models.PropertyRecord) error
	GetProperty(ctx context.Context, url string) (*models.PropertyRecord, error)
}

// Analyzer runs the per-listing analysis.
type Analyzer interface {
	Analyze(ctx context.Context, rec *models.PropertyRecord, refresh bool) (*analysis.Result, error)
}

// Summary counts the outcome of one Run.
type Summary struct {
	Saved    int           `json:"saved"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Analyzed int           `json:"analyzed"`
	Duration time.Duration `json:"duration"`
}

// Scraper orchestrates fetch, extraction and storage of listings.
type Scraper struct {
	fetcher    Fetcher
	extractor  *extract.Extractor
	normalizer *demographics.Normalizer
	store      Store
	analyzer   Analyzer
	config     Config
	log        *zap.Logger
}

// New creates a Scraper. fetcher may be nil when pages are supplied by the
// caller through Process; analyzer may be nil when Config.Analyze is off.
func New(fetcher Fetcher, extractor *extract.Extractor, normalizer *demographics.Normalizer, store Store, analyzer Analyzer, config Config, log *zap.Logger) *Scraper {
	if log == nil {
		log = zap.NewNop()
	}
	if normalizer == nil {
		normalizer = demographics.NewNormalizer(nil, nil, log)
	}
	return &Scraper{
		fetcher:    fetcher,
		extractor:  extractor,
		normalizer: normalizer,
		store:      store,
		analyzer:   analyzer,
		config:     config,
		log:        log,
	}
}

// Process extracts a record from page, normalizes its demographics and
// stores it.
func (s *Scraper) Process(ctx context.Context, page *Page) (*models.PropertyRecord, error) {
	doc, err := document.ParseString(page.HTML, page.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	rec, err := s.extractor.ExtractPropertyDetails(ctx, doc)
	if err != nil {
		return nil, err
	}

	s.normalize(ctx, rec)

	if s.store != nil {
		if err := s.store.SaveProperty(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to save property: %w", err)
		}
	}
	return rec, nil
}

func (s *Scraper) normalize(ctx context.Context, rec *models.PropertyRecord) {
	in := demographics.Input{Trusted: &rec.Demographics}
	if rec.HasSuburb() {
		in.Suburb = rec.Suburb
	}
	if rec.HasPostcode() {
		in.Postcode = rec.Postcode
	}
	if rec.Description != models.NoDescription {
		in.Text = rec.Description
	}

	result := s.normalizer.Normalize(ctx, in)
	rec.Demographics = result.Profile
	s.log.Debug("demographics normalized",
		zap.String("url", rec.URL),
		zap.String("source", result.Source),
		zap.Strings("defaults", result.Defaults),
	)
}

// Scrape fetches url and processes it.
func (s *Scraper) Scrape(ctx context.Context, url string) (*models.PropertyRecord, error) {
	if s.fetcher == nil {
		return nil, errors.New("no fetcher configured")
	}
	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.Process(ctx, page)
}

// Run scrapes urls one after another, pausing DelayBetween between fetches.
// Listings already stored are skipped unless Config.Refresh is set. Per-URL
// failures are logged and counted; only cancellation stops the run.
func (s *Scraper) Run(ctx context.Context, urls []string) (Summary, error) {
	var summary Summary
	start := time.Now()
	s.log.Info("starting scraper", zap.Int("urls", len(urls)))

	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		if !s.config.Refresh && s.stored(ctx, url) {
			s.log.Info("already scraped, skipping", zap.String("url", url))
			summary.Skipped++
			continue
		}

		rec, err := s.Scrape(ctx, url)
		if err != nil {
			s.log.Warn("scrape failed", zap.String("url", url), zap.Error(err))
			summary.Failed++
		} else {
			summary.Saved++
			if s.config.Analyze && s.analyzer != nil {
				if _, err := s.analyzer.Analyze(ctx, rec, s.config.Refresh); err != nil {
					s.log.Warn("analysis failed", zap.String("url", url), zap.Error(err))
				} else {
					summary.Analyzed++
				}
			}
		}

		// Respect rate limits
		if i < len(urls)-1 && s.config.DelayBetween > 0 {
			select {
			case <-ctx.Done():
				summary.Duration = time.Since(start)
				return summary, ctx.Err()
			case <-time.After(s.config.DelayBetween):
			}
		}
	}

	summary.Duration = time.Since(start)
	s.log.Info("scraping complete",
		zap.Int("saved", summary.Saved),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("analyzed", summary.Analyzed),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (s *Scraper) stored(ctx context.Context, url string) bool {
	if s.store == nil {
		return false
	}
	_, err := s.store.GetProperty(ctx, url)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		s.log.Warn("failed to check existing property", zap.String("url", url), zap.Error(err))
	}
	return err == nil
}
