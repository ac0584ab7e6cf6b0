package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homie/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "homie.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func testRecord(url, suburb string) *models.PropertyRecord {
	return &models.PropertyRecord{
		URL:              url,
		Title:            "House in " + suburb,
		Price:            "$1,200,000",
		Address:          "12 Example St, " + suburb + " NSW 2042",
		PropertyType:     "House",
		Bedrooms:         "3",
		Bathrooms:        "2",
		ParkingSpaces:    models.CountNotAvailable,
		LandSize:         "450 m²",
		Description:      models.NoDescription,
		Features:         []string{"Air conditioning"},
		NearbyAmenities:  models.Amenities{},
		InspectionTimes:  []string{models.NoInspectionTimes},
		Images:           []string{},
		Suburb:           suburb,
		Postcode:         "2042",
		LastSoldPrice:    models.NotAvailable,
		CouncilRates:     models.NotAvailable,
		WalkScore:        models.NotAvailable,
		HistoricalPrices: []models.PricePoint{{Date: "12/03/2018", Price: "$900,000"}},
		ExtractedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestPropertyRoundTrip(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	rec := testRecord("https://www.realestate.com.au/property-house-nsw-newtown-1", "Newtown")
	require.NoError(t, database.SaveProperty(ctx, rec))

	got, err := database.GetProperty(ctx, rec.URL)
	require.NoError(t, err)
	assert.Equal(t, rec.Address, got.Address)
	assert.Equal(t, rec.HistoricalPrices, got.HistoricalPrices)
	assert.False(t, got.AgentDetails.Available())
	assert.Empty(t, got.NearbyAmenities)

	rec.Price = "Auction"
	require.NoError(t, database.SaveProperty(ctx, rec))
	got, err = database.GetProperty(ctx, rec.URL)
	require.NoError(t, err)
	assert.Equal(t, "Auction", got.Price)

	count, err := database.GetPropertyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetPropertyNotFound(t *testing.T) {
	database := openTestDB(t)

	_, err := database.GetProperty(context.Background(), "https://example.com/missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListProperties(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, suburb := range []string{"Newtown", "Glebe", "Newtown"} {
		at := base.Add(time.Duration(i) * time.Hour)
		database.now = func() time.Time { return at }
		rec := testRecord("https://www.realestate.com.au/property-"+string(rune('a'+i)), suburb)
		require.NoError(t, database.SaveProperty(ctx, rec))
	}

	all, err := database.ListProperties(ctx, models.PropertyFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, defaultListLimit, all.Limit)
	require.Len(t, all.Properties, 3)
	assert.Equal(t, "https://www.realestate.com.au/property-c", all.Properties[0].URL)

	newtown, err := database.ListProperties(ctx, models.PropertyFilter{Suburb: "newtown", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, newtown.Total)
	require.Len(t, newtown.Properties, 1)
	assert.Equal(t, "Newtown", newtown.Properties[0].Suburb)
}

func TestAnalysisUpsertKeepsID(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	url := "https://www.realestate.com.au/property-house-nsw-newtown-1"

	_, ok, err := database.Analysis(ctx, url)
	require.NoError(t, err)
	assert.False(t, ok)

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := &models.SavedAnalysis{
		ID: "first", URL: url, Address: "12 Example St", Raw: "one", Parsed: "{}",
		CreatedAt: created, UpdatedAt: created,
	}
	require.NoError(t, database.SaveAnalysis(ctx, first))

	second := &models.SavedAnalysis{
		ID: "second", URL: url, Address: "12 Example St", Raw: "two", Parsed: "{}",
		CreatedAt: created.Add(time.Hour), UpdatedAt: created.Add(time.Hour),
	}
	require.NoError(t, database.SaveAnalysis(ctx, second))

	got, ok, err := database.Analysis(ctx, url)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", got.ID)
	assert.Equal(t, "two", got.Raw)
	assert.True(t, got.CreatedAt.Equal(created))

	list, err := database.ListAnalyses(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = database.GetAnalysis(ctx, "https://example.com/other")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDemographicsCache(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	_, ok, err := database.Demographics(ctx, "2042")
	require.NoError(t, err)
	assert.False(t, ok)

	profile := models.DemographicProfile{
		AgeDistribution:    []models.AgeBand{{Range: "25-34", Percentage: 60}, {Range: "35-44", Percentage: 40}},
		EthnicDistribution: []models.EthnicShare{{Label: "Australian", Percentage: 100}},
		IncomeBrackets:     []models.IncomeBand{{Bracket: "$100k+", Percentage: 100}},
	}
	require.NoError(t, database.SaveDemographics(ctx, "2042", "Newtown", profile, "upstream"))

	got, ok, err := database.Demographics(ctx, "2042")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, profile, got)
}

func TestGrowthRateCache(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	_, ok, err := database.GrowthRate(ctx, "2042")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, database.SaveGrowthRate(ctx, "2042", "Newtown", 0.035))
	require.NoError(t, database.SaveGrowthRate(ctx, "2042", "Newtown", 0.02))

	rate, ok, err := database.GrowthRate(ctx, "2042")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.02, rate, 1e-9)
}
