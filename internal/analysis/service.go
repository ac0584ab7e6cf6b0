package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"homie/internal/demographics"
	"homie/internal/llm"
	"homie/internal/models"
)

// Analyzer produces the raw analysis reply for a listing.
type Analyzer interface {
	AnalyzeProperty(ctx context.Context, rec *models.PropertyRecord) (string, error)
}

// Store is the per-URL analysis cache.
type Store interface {
	Analysis(ctx context.Context, url string) (*models.SavedAnalysis, bool, error)
	SaveAnalysis(ctx context.Context, a *models.SavedAnalysis) error
}

// Result is an analysis with its report.
type Result struct {
	Saved  *models.SavedAnalysis `json:"saved"`
	Parsed *Parsed               `json:"parsed"`
	Report *Report               `json:"report"`
	Cached bool                  `json:"cached"`
}

// Service runs analyses through the per-URL cache.
type Service struct {
	analyzer   Analyzer
	store      Store
	normalizer *demographics.Normalizer
	forecaster *Forecaster
	currency   *CurrencyFormatter
	log        *zap.Logger
	now        func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithForecaster uses locality growth rates for report projections.
func WithForecaster(f *Forecaster) ServiceOption {
	return func(s *Service) { s.forecaster = f }
}

// WithCurrency sets the report currency formatter.
func WithCurrency(c *CurrencyFormatter) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.currency = c
		}
	}
}

// NewService creates an analysis service. normalizer may be nil.
func NewService(analyzer Analyzer, store Store, normalizer *demographics.Normalizer, log *zap.Logger, opts ...ServiceOption) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if normalizer == nil {
		normalizer = demographics.NewNormalizer(nil, nil, log)
	}
	s := &Service{
		analyzer:   analyzer,
		store:      store,
		normalizer: normalizer,
		currency:   defaultCurrency,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze returns the cached analysis for rec.URL unless refresh is set or
// none is cached, in which case it asks the analyzer and replaces the entry.
func (s *Service) Analyze(ctx context.Context, rec *models.PropertyRecord, refresh bool) (*Result, error) {
	if !refresh {
		if res, ok := s.cached(ctx, rec); ok {
			return res, nil
		}
	}

	raw, err := s.analyzer.AnalyzeProperty(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", rec.URL, err)
	}

	parsed, err := ParseResponse(raw)
	if err != nil {
		s.log.Warn("unparsable analysis reply", zap.String("url", rec.URL), zap.String("response_prefix", prefix(raw, 200)))
		return nil, fmt.Errorf("failed to parse analysis for %s: %w: %v", rec.URL, llm.ErrMalformedResponse, err)
	}

	norm := s.normalizer.Normalize(ctx, demographics.Input{
		Trusted:  &parsed.Analysis.Demographics,
		Suburb:   localityValue(rec.HasSuburb(), rec.Suburb),
		Postcode: localityValue(rec.HasPostcode(), rec.Postcode),
		Text:     raw,
	})
	parsed.Analysis.Demographics = norm.Profile

	encoded, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}
	now := s.now().UTC()
	saved := &models.SavedAnalysis{
		ID:        uuid.NewString(),
		URL:       rec.URL,
		Address:   rec.Address,
		Raw:       raw,
		Parsed:    string(encoded),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.store != nil {
		if err := s.store.SaveAnalysis(ctx, saved); err != nil {
			return nil, fmt.Errorf("failed to save analysis: %w", err)
		}
	}

	s.log.Info("analysis complete",
		zap.String("url", rec.URL),
		zap.String("format", parsed.Format),
		zap.String("demographics_source", norm.Source),
	)
	return &Result{Saved: saved, Parsed: parsed, Report: s.Report(ctx, rec, parsed)}, nil
}

func (s *Service) cached(ctx context.Context, rec *models.PropertyRecord) (*Result, bool) {
	if s.store == nil {
		return nil, false
	}
	saved, ok, err := s.store.Analysis(ctx, rec.URL)
	if err != nil {
		s.log.Warn("analysis cache read failed", zap.String("url", rec.URL), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	parsed, err := DecodeSaved(saved)
	if err != nil {
		s.log.Warn("cached analysis unreadable, re-analyzing", zap.String("url", rec.URL), zap.Error(err))
		return nil, false
	}
	return &Result{Saved: saved, Parsed: parsed, Report: s.Report(ctx, rec, parsed), Cached: true}, true
}

// DecodeSaved reads the parsed analysis of a cache entry, re-parsing the raw
// reply when the stored form is missing.
func DecodeSaved(saved *models.SavedAnalysis) (*Parsed, error) {
	if saved.Parsed != "" {
		var p Parsed
		if err := json.Unmarshal([]byte(saved.Parsed), &p); err == nil {
			return &p, nil
		}
	}
	p, err := ParseResponse(saved.Raw)
	if err != nil {
		return nil, err
	}
	p.Analysis.Demographics = demographics.Finalize(p.Analysis.Demographics)
	return p, nil
}

// Report builds the report for rec, using the locality growth rate for
// projections when a forecaster is configured and the lookup succeeds.
func (s *Service) Report(ctx context.Context, rec *models.PropertyRecord, parsed *Parsed) *Report {
	in := ReportInput{URL: rec.URL, Address: rec.Address, Price: rec.Price}
	if s.forecaster != nil && (rec.HasPostcode() || rec.HasSuburb()) {
		rate, err := s.forecaster.AnnualGrowthRate(ctx,
			localityValue(rec.HasSuburb(), rec.Suburb), localityValue(rec.HasPostcode(), rec.Postcode))
		if err != nil {
			s.log.Warn("growth rate unavailable, using forecast", zap.String("url", rec.URL), zap.Error(err))
		} else {
			in.AnnualRate = &rate
		}
	}
	return s.currency.BuildReport(in, parsed)
}

func localityValue(ok bool, v string) string {
	if !ok {
		return ""
	}
	return v
}

func prefix(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
