package enrichment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"homie/internal/analysis"
	"homie/internal/geo"
	"homie/internal/models"
)

var (
	// ErrNoLocation is returned when a listing has neither coordinates nor a
	// geocodable address.
	ErrNoLocation = errors.New("listing has no usable location")
	// ErrNoSchools is returned when no school lies within the search radius.
	ErrNoSchools = errors.New("no schools within radius")
)

// Geocoder resolves an address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lng float64, err error)
}

// GrowthSource returns the expected annual growth rate for a locality as a
// fraction, e.g. 0.035.
type GrowthSource interface {
	AnnualGrowthRate(ctx context.Context, suburb, postcode string) (float64, error)
}

const schoolsPerLevel = 3

// Live derives school data from a school dataset and market trends from a
// growth-rate source.
type Live struct {
	Schools  *geo.SchoolIndex
	Geocoder Geocoder
	Growth   GrowthSource
	RadiusKm float64
	Log      *zap.Logger
}

func (l *Live) logger() *zap.Logger {
	if l.Log == nil {
		return zap.NewNop()
	}
	return l.Log
}

func (l *Live) SchoolData(ctx context.Context, rec *models.PropertyRecord) (*models.SchoolData, error) {
	if l.Schools == nil {
		return nil, ErrNoSchools
	}
	lat, lng, err := l.locate(ctx, rec)
	if err != nil {
		return nil, err
	}

	primary := l.Schools.Nearest(lat, lng, geo.Primary, schoolsPerLevel, l.RadiusKm)
	secondary := l.Schools.Nearest(lat, lng, geo.Secondary, schoolsPerLevel, l.RadiusKm)
	if len(primary) == 0 && len(secondary) == 0 {
		return nil, fmt.Errorf("%w: %.1fkm of %s", ErrNoSchools, l.RadiusKm, rec.URL)
	}

	return &models.SchoolData{
		PrimarySchools:   toSchools(primary),
		SecondarySchools: toSchools(secondary),
	}, nil
}

func toSchools(nearby []geo.NearbySchool) []models.School {
	schools := make([]models.School, 0, len(nearby))
	for _, s := range nearby {
		schools = append(schools, models.School{
			Name:     s.Name,
			Distance: geo.FormatDistance(s.DistanceKm),
			Type:     s.Sector,
		})
	}
	return schools
}

func (l *Live) locate(ctx context.Context, rec *models.PropertyRecord) (float64, float64, error) {
	if rec.Coordinates != nil {
		return rec.Coordinates.Latitude, rec.Coordinates.Longitude, nil
	}
	if l.Geocoder == nil || rec.Address == models.AddressNotFound {
		return 0, 0, ErrNoLocation
	}
	lat, lng, err := l.Geocoder.Geocode(ctx, rec.Address)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to geocode %q: %w", rec.Address, err)
	}
	rec.Coordinates = &models.Coordinates{Latitude: lat, Longitude: lng}
	l.logger().Debug("geocoded listing", zap.String("address", rec.Address), zap.Float64("lat", lat), zap.Float64("lng", lng))
	return lat, lng, nil
}

func (l *Live) MarketTrends(ctx context.Context, rec *models.PropertyRecord) (*models.MarketTrends, error) {
	if l.Growth == nil {
		return nil, errors.New("no growth source configured")
	}
	if !rec.HasPostcode() && !rec.HasSuburb() {
		return nil, ErrNoLocation
	}
	var suburb, postcode string
	if rec.HasSuburb() {
		suburb = rec.Suburb
	}
	if rec.HasPostcode() {
		postcode = rec.Postcode
	}
	rate, err := l.Growth.AnnualGrowthRate(ctx, suburb, postcode)
	if err != nil {
		return nil, fmt.Errorf("failed to get growth rate: %w", err)
	}
	rate = analysis.ClampAnnualRate(rate)

	return &models.MarketTrends{
		AnnualGrowth: percent(rate),
		PredictedGrowth: models.PredictedGrowth{
			OneYear:   percent(analysis.CumulativeGrowth(rate, 1)),
			ThreeYear: percent(analysis.CumulativeGrowth(rate, 3)),
			FiveYear:  percent(analysis.CumulativeGrowth(rate, 5)),
		},
	}, nil
}

func percent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}
