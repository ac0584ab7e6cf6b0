package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// GrowthSource estimates a locality's annual growth rate as a fraction.
type GrowthSource interface {
	AnnualGrowthRate(ctx context.Context, suburb, postcode string) (float64, error)
}

// GrowthCache stores growth rates per postcode.
type GrowthCache interface {
	GrowthRate(ctx context.Context, postcode string) (float64, bool, error)
	SaveGrowthRate(ctx context.Context, postcode, suburb string, rate float64) error
}

// Forecaster serves clamped growth rates through a postcode cache.
type Forecaster struct {
	source   GrowthSource
	cache    GrowthCache
	currency *CurrencyFormatter
	log      *zap.Logger
}

// NewForecaster creates a forecaster. cache may be nil.
func NewForecaster(source GrowthSource, cache GrowthCache, currency *CurrencyFormatter, log *zap.Logger) *Forecaster {
	if log == nil {
		log = zap.NewNop()
	}
	if currency == nil {
		currency = defaultCurrency
	}
	return &Forecaster{source: source, cache: cache, currency: currency, log: log}
}

// AnnualGrowthRate returns the clamped annual rate for a locality, reading
// and writing the cache by postcode.
func (f *Forecaster) AnnualGrowthRate(ctx context.Context, suburb, postcode string) (float64, error) {
	if f.cache != nil && postcode != "" {
		rate, ok, err := f.cache.GrowthRate(ctx, postcode)
		if err != nil {
			f.log.Warn("growth rate cache read failed", zap.String("postcode", postcode), zap.Error(err))
		} else if ok {
			return ClampAnnualRate(rate), nil
		}
	}

	raw, err := f.source.AnnualGrowthRate(ctx, suburb, postcode)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch growth rate: %w", err)
	}
	rate := ClampAnnualRate(raw)
	if rate != raw {
		f.log.Info("growth rate clamped", zap.String("postcode", postcode), zap.Float64("upstream", raw), zap.Float64("rate", rate))
	}

	if f.cache != nil && postcode != "" {
		if err := f.cache.SaveGrowthRate(ctx, postcode, suburb, rate); err != nil {
			f.log.Warn("growth rate cache write failed", zap.String("postcode", postcode), zap.Error(err))
		}
	}
	return rate, nil
}

// PriceForecast is a capped projection table for one listing price.
type PriceForecast struct {
	Price       float64      `json:"price"`
	Suburb      string       `json:"suburb,omitempty"`
	Postcode    string       `json:"postcode,omitempty"`
	AnnualRate  float64      `json:"annualRate"`
	Projections []Projection `json:"projections"`
}

// Forecast projects price over every horizon at the locality's rate.
func (f *Forecaster) Forecast(ctx context.Context, price float64, suburb, postcode string) (*PriceForecast, error) {
	rate, err := f.AnnualGrowthRate(ctx, suburb, postcode)
	if err != nil {
		return nil, err
	}
	return &PriceForecast{
		Price:       price,
		Suburb:      suburb,
		Postcode:    postcode,
		AnnualRate:  rate,
		Projections: f.currency.Project(price, rate),
	}, nil
}
