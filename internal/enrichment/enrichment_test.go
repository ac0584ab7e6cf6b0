package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homie/internal/geo"
	"homie/internal/models"
)

func TestStatic(t *testing.T) {
	schools, err := Static{}.SchoolData(context.Background(), &models.PropertyRecord{})
	require.NoError(t, err)
	assert.True(t, schools.Simulated)
	require.Len(t, schools.PrimarySchools, 3)
	assert.Equal(t, "Parkview Primary School", schools.PrimarySchools[0].Name)
	assert.Equal(t, "0.8km", schools.PrimarySchools[0].Distance)

	trends, err := Static{}.MarketTrends(context.Background(), &models.PropertyRecord{})
	require.NoError(t, err)
	assert.True(t, trends.Simulated)
	assert.Equal(t, "$1,120,000", trends.MedianPrice)
	assert.Equal(t, "22.4%", trends.PredictedGrowth.FiveYear)
}

type fakeGeocoder struct {
	lat, lng float64
	err      error
	calls    int
}

func (g *fakeGeocoder) Geocode(_ context.Context, _ string) (float64, float64, error) {
	g.calls++
	return g.lat, g.lng, g.err
}

type fakeGrowth struct {
	rate float64
	err  error
}

func (g fakeGrowth) AnnualGrowthRate(_ context.Context, _, _ string) (float64, error) {
	return g.rate, g.err
}

func newtown() *models.PropertyRecord {
	return &models.PropertyRecord{
		URL:      "https://www.realestate.com.au/property-house-nsw-newtown-1",
		Address:  "12 King St, Newtown NSW 2042",
		Suburb:   "Newtown",
		Postcode: "2042",
	}
}

func TestLiveSchoolsFromCoordinates(t *testing.T) {
	geocoder := &fakeGeocoder{}
	live := &Live{Schools: geo.SampleSchools(), Geocoder: geocoder, RadiusKm: 5}
	rec := newtown()
	rec.Coordinates = &models.Coordinates{Latitude: -33.8975, Longitude: 151.1790}

	data, err := live.SchoolData(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, data.Simulated)
	require.NotEmpty(t, data.PrimarySchools)
	assert.Equal(t, "Newtown Public School", data.PrimarySchools[0].Name)
	assert.Equal(t, "0.0km", data.PrimarySchools[0].Distance)
	assert.LessOrEqual(t, len(data.PrimarySchools), 3)
	assert.Zero(t, geocoder.calls)
}

func TestLiveSchoolsGeocodes(t *testing.T) {
	geocoder := &fakeGeocoder{lat: -33.8820, lng: 151.2145}
	live := &Live{Schools: geo.SampleSchools(), Geocoder: geocoder, RadiusKm: 5}
	rec := newtown()

	data, err := live.SchoolData(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 1, geocoder.calls)
	assert.Equal(t, "Crown Street Public School", data.PrimarySchools[0].Name)
	require.NotNil(t, rec.Coordinates)
}

func TestLiveSchoolsOutOfRange(t *testing.T) {
	live := &Live{Schools: geo.SampleSchools(), RadiusKm: 5}
	rec := newtown()
	rec.Coordinates = &models.Coordinates{Latitude: -37.8136, Longitude: 144.9631}

	_, err := live.SchoolData(context.Background(), rec)
	assert.ErrorIs(t, err, ErrNoSchools)
}

func TestLiveMarketTrendsClamped(t *testing.T) {
	live := &Live{Growth: fakeGrowth{rate: 0.09}}

	trends, err := live.MarketTrends(context.Background(), newtown())
	require.NoError(t, err)
	assert.False(t, trends.Simulated)
	assert.Equal(t, "4.0%", trends.AnnualGrowth)
	assert.Equal(t, "4.0%", trends.PredictedGrowth.OneYear)
	assert.Equal(t, "12.5%", trends.PredictedGrowth.ThreeYear)
	assert.Equal(t, "21.7%", trends.PredictedGrowth.FiveYear)
}

type recordingGrowth struct {
	suburb, postcode string
}

func (g *recordingGrowth) AnnualGrowthRate(_ context.Context, suburb, postcode string) (float64, error) {
	g.suburb, g.postcode = suburb, postcode
	return 0.02, nil
}

func TestLiveMarketTrendsBlanksSentinels(t *testing.T) {
	growth := &recordingGrowth{}
	rec := newtown()
	rec.Suburb = models.SuburbNotFound

	_, err := (&Live{Growth: growth}).MarketTrends(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "", growth.suburb)
	assert.Equal(t, "2042", growth.postcode)
}

func TestFallbackPerField(t *testing.T) {
	provider := Fallback{
		Primary:   &Live{Schools: geo.SampleSchools(), Growth: fakeGrowth{err: errors.New("down")}},
		Secondary: Static{},
	}
	rec := newtown()
	rec.Coordinates = &models.Coordinates{Latitude: -33.8975, Longitude: 151.1790}

	schools, err := provider.SchoolData(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, schools.Simulated)

	trends, err := provider.MarketTrends(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, trends.Simulated)
}
