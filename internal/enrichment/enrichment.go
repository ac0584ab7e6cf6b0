// Package enrichment attaches school and market data that is not part of the
// listing page itself.
package enrichment

import (
	"context"

	"homie/internal/models"
)

// Provider supplies enrichment records for an extracted listing.
type Provider interface {
	SchoolData(ctx context.Context, rec *models.PropertyRecord) (*models.SchoolData, error)
	MarketTrends(ctx context.Context, rec *models.PropertyRecord) (*models.MarketTrends, error)
}

// Fallback asks Primary first and Secondary when Primary fails, per field.
type Fallback struct {
	Primary   Provider
	Secondary Provider
}

func (f Fallback) SchoolData(ctx context.Context, rec *models.PropertyRecord) (*models.SchoolData, error) {
	data, err := f.Primary.SchoolData(ctx, rec)
	if err == nil {
		return data, nil
	}
	return f.Secondary.SchoolData(ctx, rec)
}

func (f Fallback) MarketTrends(ctx context.Context, rec *models.PropertyRecord) (*models.MarketTrends, error) {
	trends, err := f.Primary.MarketTrends(ctx, rec)
	if err == nil {
		return trends, nil
	}
	return f.Secondary.MarketTrends(ctx, rec)
}
