package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"homie/internal/document"
	"homie/internal/models"
)

// ErrNotPropertyPage is returned when the document is not a listing details page.
var ErrNotPropertyPage = errors.New("not a property details page")

var listingPathSegments = []string{"/property-", "/properties/"}

const listingContainer = ".property-info"

// IsPropertyPage reports whether the document looks like a listing details page.
func IsPropertyPage(d *document.Document) bool {
	for _, segment := range listingPathSegments {
		if strings.Contains(d.URL(), segment) {
			return true
		}
	}
	return d.Has(listingContainer)
}

// ExtractPropertyDetails builds the full record for a listing page. The only
// error it returns is ErrNotPropertyPage; every field miss resolves to the
// field's sentinel.
func (e *Extractor) ExtractPropertyDetails(ctx context.Context, d *document.Document) (*models.PropertyRecord, error) {
	if !IsPropertyPage(d) {
		return nil, fmt.Errorf("%w: %s", ErrNotPropertyPage, d.URL())
	}

	rec := &models.PropertyRecord{
		URL:             d.URL(),
		Title:           e.Title(d),
		Price:           e.Price(d),
		Address:         e.Address(d),
		PropertyType:    e.PropertyType(d),
		Bedrooms:        e.Bedrooms(d),
		Bathrooms:       e.Bathrooms(d),
		ParkingSpaces:   e.ParkingSpaces(d),
		LandSize:        e.LandSize(d),
		Description:     e.Description(d),
		Features:        e.Features(d),
		NearbyAmenities: e.NearbyAmenities(d),
		InspectionTimes: e.InspectionTimes(d),
		AgentDetails:    e.AgentDetails(d),
		Images:          e.Images(d),
		Suburb:          e.Suburb(d),
		Postcode:        e.Postcode(d),
		LastSoldPrice:   e.LastSoldPrice(d),
		CouncilRates:    e.CouncilRates(d),
		WalkScore:       e.WalkScore(d),
		ExtractedAt:     e.now().UTC(),
	}
	if coords, ok := e.embedded.Coordinates(d); ok {
		rec.Coordinates = coords
	}

	e.log.Info("extracted property",
		zap.String("url", rec.URL),
		zap.String("address", rec.Address),
		zap.String("price", rec.Price),
		zap.String("bedrooms", rec.Bedrooms),
		zap.String("landSize", rec.LandSize),
	)

	// Enrichment is attached after the page-derived record is complete.
	rec.HistoricalPrices = e.HistoricalPrices(d)
	rec.Demographics = e.PageDemographics(d)
	e.attachEnrichment(ctx, rec)

	return rec, nil
}

func (e *Extractor) attachEnrichment(ctx context.Context, rec *models.PropertyRecord) {
	schools, err := e.enrich.SchoolData(ctx, rec)
	if err != nil {
		e.log.Warn("school enrichment failed", zap.String("url", rec.URL), zap.Error(err))
	} else {
		rec.SchoolData = schools
	}

	trends, err := e.enrich.MarketTrends(ctx, rec)
	if err != nil {
		e.log.Warn("market trend enrichment failed", zap.String("url", rec.URL), zap.Error(err))
	} else {
		rec.MarketTrends = trends
	}
}
