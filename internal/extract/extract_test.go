package extract

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homie/internal/document"
	"homie/internal/models"
)

const listingURL = "https://www.realestate.com.au/property-house-nsw-newtown-143000001"

func page(t *testing.T, body string) *document.Document {
	t.Helper()
	d, err := document.ParseString("<html><head></head><body>"+body+"</body></html>", listingURL)
	require.NoError(t, err)
	return d
}

func TestBedroomsFromAriaLabel(t *testing.T) {
	d := page(t, `<ul><li aria-label="2 bedrooms">2</li><li aria-label="1 bathroom">1</li></ul>`)
	e := New(nil)

	assert.Equal(t, "2", e.Bedrooms(d))
	assert.Equal(t, "1", e.Bathrooms(d))
	assert.Equal(t, models.CountNotAvailable, e.ParkingSpaces(d))
}

func TestBedroomsFromFeatureText(t *testing.T) {
	d := page(t, `<div data-testid="property-features-feature-beds"><span class="property-features__feature-text">4</span></div>`)
	assert.Equal(t, "4", New(nil).Bedrooms(d))
}

func TestPriceChain(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"property price", `<span class="property-price">$1,250,000</span>`, "$1,250,000"},
		{"summary title", `<div data-testid="listing-details__summary-title">Auction</div>`, "Auction"},
		{"priority order", `<p class="price">$900k</p><span class="property-price">$950,000</span>`, "$950,000"},
		{"no price", `<div class="property-info"><h1>12 King St</h1></div>`, models.PriceNotSpecified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(nil).Price(page(t, tt.body)))
		})
	}
}

func TestAddressSuburbPostcode(t *testing.T) {
	d := page(t, `<h1 class="property-info-address">12 King St, Newtown NSW 2042</h1>`)
	e := New(nil)

	assert.Equal(t, "12 King St, Newtown NSW 2042", e.Address(d))
	assert.Equal(t, "Newtown NSW 2042", e.Suburb(d))
	assert.Equal(t, "2042", e.Postcode(d))
	assert.Equal(t, "12 King St, Newtown NSW 2042", e.Title(d))
}

func TestPostcodeFromPageText(t *testing.T) {
	d := page(t, `<p>Located in the inner west, postcode: 2204.</p>`)
	assert.Equal(t, "2204", New(nil).Postcode(d))
}

func TestLandSize(t *testing.T) {
	t.Run("feature text", func(t *testing.T) {
		d := page(t, `<div data-testid="property-features__land-size">336 m²</div>`)
		assert.Equal(t, "336 m²", New(nil).LandSize(d))
	})

	t.Run("structured data", func(t *testing.T) {
		d := page(t, `<script type="application/ld+json">{"@type":"House","floorSize":{"value":336,"unitText":"m²"}}</script>`)
		assert.Equal(t, "336 m²", New(nil).LandSize(d))
	})

	t.Run("client cache", func(t *testing.T) {
		inner, err := json.Marshal(map[string]interface{}{
			"details": map[string]interface{}{"listing": map[string]interface{}{
				"propertySizes": map[string]interface{}{
					"land": map[string]interface{}{"displayValue": "336", "sizeUnit": map[string]interface{}{"displayValue": "m²"}},
				},
			}},
		})
		require.NoError(t, err)
		cache, err := json.Marshal(map[string]interface{}{"listing-key": map[string]interface{}{"data": string(inner)}})
		require.NoError(t, err)
		exchange, err := json.Marshal(map[string]interface{}{
			"resi-property_listing-experience-web": map[string]interface{}{"urqlClientCache": string(cache)},
		})
		require.NoError(t, err)

		d := page(t, "<script>window.ArgonautExchange="+string(exchange)+";</script>")
		assert.Equal(t, "336 m²", New(nil).LandSize(d))
	})

	t.Run("labelled feature item", func(t *testing.T) {
		d := page(t, `<ul><li class="listing-feature">Land size 612 sqm</li></ul>`)
		assert.Equal(t, "612 sqm", New(nil).LandSize(d))
	})

	t.Run("description prose", func(t *testing.T) {
		d := page(t, `<div class="property-description__content">Set on a generous 1.2 hectares of gardens.</div>`)
		assert.Equal(t, "1.2 hectares", New(nil).LandSize(d))
	})
}

func TestPropertyType(t *testing.T) {
	t.Run("aria label", func(t *testing.T) {
		d := page(t, `<ul aria-label="Townhouse with 3 bedrooms"></ul>`)
		assert.Equal(t, "Townhouse", New(nil).PropertyType(d))
	})

	t.Run("url path", func(t *testing.T) {
		d, err := document.ParseString("<html><body></body></html>", "https://www.realestate.com.au/sold/apartment-nsw-sydney-1")
		require.NoError(t, err)
		assert.Equal(t, "Apartment", New(nil).PropertyType(d))
	})
}

func TestSentinelsOnEmptyPage(t *testing.T) {
	d, err := document.ParseString(`<html><body><div class="property-info"></div></body></html>`, "https://www.realestate.com.au/property-unknown-1")
	require.NoError(t, err)
	e := New(nil)

	assert.Equal(t, models.PriceNotSpecified, e.Price(d))
	assert.Equal(t, models.AddressNotFound, e.Address(d))
	assert.Equal(t, models.CountNotAvailable, e.Bedrooms(d))
	assert.Equal(t, models.CountNotAvailable, e.Bathrooms(d))
	assert.Equal(t, models.CountNotAvailable, e.ParkingSpaces(d))
	assert.Equal(t, models.NotSpecified, e.LandSize(d))
	assert.Equal(t, models.NotSpecified, e.PropertyType(d))
	assert.Equal(t, models.NoDescription, e.Description(d))
	assert.Equal(t, models.SuburbNotFound, e.Suburb(d))
	assert.Equal(t, models.PostcodeUnknown, e.Postcode(d))
	assert.Equal(t, models.NotAvailable, e.LastSoldPrice(d))
	assert.Equal(t, models.NotAvailable, e.CouncilRates(d))
	assert.Equal(t, models.NotAvailable, e.WalkScore(d))
	assert.Equal(t, "", e.Title(d))
	assert.Equal(t, []string{models.NoInspectionTimes}, e.InspectionTimes(d))
	assert.Empty(t, e.Features(d))
	assert.Empty(t, e.NearbyAmenities(d))
	assert.Empty(t, e.Images(d))
	assert.Empty(t, e.HistoricalPrices(d))
	assert.Equal(t, models.AgentDetails{}, e.AgentDetails(d))
}

func TestHistoryDeduplicatesAcrossPatterns(t *testing.T) {
	d := page(t, `
		<ul class="timeline"><li>12/03/2020 $500,000</li></ul>
		<div data-testid="description">The home last sold for $500,000 on 12/03/2020.</div>
	`)

	got := New(nil).HistoricalPrices(d)
	assert.Equal(t, []models.PricePoint{{Date: "12/03/2020", Price: "$500,000"}}, got)
}

func TestHistoryPairedSection(t *testing.T) {
	d := page(t, `
		<section data-testid="price-history">
			<div><time>Jun 2015</time><span class="price">$610,000</span></div>
			<div><time>08/11/2021</time><span class="price">$1,020,000</span></div>
		</section>
	`)

	got := New(nil).HistoricalPrices(d)
	assert.Equal(t, []models.PricePoint{
		{Date: "08/11/2021", Price: "$1,020,000"},
		{Date: "Jun 2015", Price: "$610,000"},
	}, got)
}

func TestSortHistory(t *testing.T) {
	points := []models.PricePoint{
		{Date: "Jan 2015", Price: "$1"},
		{Date: "sometime", Price: "$2"},
		{Date: "03/04/2020", Price: "$3"},
		{Date: "04/03/2020", Price: "$4"},
		{Date: "later", Price: "$5"},
	}

	dayFirst := sortHistory(points, DayFirst)
	assert.Equal(t, []string{"$3", "$4", "$1", "$2", "$5"}, prices(dayFirst))

	monthFirst := sortHistory(points, MonthFirst)
	assert.Equal(t, []string{"$4", "$3", "$1", "$2", "$5"}, prices(monthFirst))
}

func prices(points []models.PricePoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Price
	}
	return out
}

func TestParseHistoryDate(t *testing.T) {
	tests := []struct {
		in    string
		order DateOrder
		want  time.Time
		ok    bool
	}{
		{"12/03/2020", DayFirst, time.Date(2020, time.March, 12, 0, 0, 0, 0, time.UTC), true},
		{"12/03/2020", MonthFirst, time.Date(2020, time.December, 3, 0, 0, 0, 0, time.UTC), true},
		{"5-6-2019", DayFirst, time.Date(2019, time.June, 5, 0, 0, 0, 0, time.UTC), true},
		{"March  2018", DayFirst, time.Date(2018, time.March, 1, 0, 0, 0, 0, time.UTC), true},
		{"Sep 2010", MonthFirst, time.Date(2010, time.September, 1, 0, 0, 0, 0, time.UTC), true},
		{"last spring", DayFirst, time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseHistoryDate(tt.in, tt.order)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestImages(t *testing.T) {
	d := page(t, `
		<img class="gallery-image" src="/images/front.jpg">
		<img class="gallery-image" src="https://i2.au.reastatic.net/800x600/kitchen.jpg">
		<img class="hero-image" src="https://i2.au.reastatic.net/800x600/kitchen.jpg">
		<img class="hero-image" src="https://i2.au.reastatic.net/100x100/agent.jpg">
		<img class="hero-image" src="data:image/png;base64,AAAA">
		<div style="background-image: url('https://cdn.example.com/yard.jpg')"></div>
		<img data-src="https://cdn.example.com/lazy.jpg">
	`)

	assert.Equal(t, []string{
		"https://www.realestate.com.au/images/front.jpg",
		"https://i2.au.reastatic.net/800x600/kitchen.jpg",
		"https://cdn.example.com/yard.jpg",
		"https://cdn.example.com/lazy.jpg",
	}, New(nil).Images(d))
}

func TestCollections(t *testing.T) {
	d := page(t, `
		<ul>
			<li class="property-features__feature">Air conditioning</li>
			<li class="property-features__feature"> Dishwasher </li>
		</ul>
		<div data-testid="schools"><ul><li>Newtown Public School</li><li>Newtown High School</li></ul></div>
		<div data-testid="transport"></div>
		<div class="inspection-times">Saturday 10:00am</div>
		<div class="agent-info__name">Jane Citizen</div>
		<div class="agent-info__agency">Inner West Realty</div>
		<a href="tel:0290000000">02 9000 0000</a>
	`)
	e := New(nil)

	assert.Equal(t, []string{"Air conditioning", "Dishwasher"}, e.Features(d))
	assert.Equal(t, models.Amenities{
		models.AmenitySchools: {"Newtown Public School", "Newtown High School"},
	}, e.NearbyAmenities(d))
	assert.Equal(t, []string{"Saturday 10:00am"}, e.InspectionTimes(d))
	assert.Equal(t, models.AgentDetails{
		Name:   "Jane Citizen",
		Agency: "Inner West Realty",
		Phone:  "02 9000 0000",
	}, e.AgentDetails(d))
}

func TestScalarsFromText(t *testing.T) {
	d := page(t, `
		<div data-testid="last-sold">Last sold $845,000 in 2017</div>
		<p>Council rates: $1,850 per year</p>
		<div class="walk-score">Walk score 92 / 100</div>
	`)
	e := New(nil)

	assert.Equal(t, "$845,000", e.LastSoldPrice(d))
	assert.Equal(t, "$1,850", e.CouncilRates(d))
	assert.Equal(t, "92", e.WalkScore(d))
}

func TestPageDemographics(t *testing.T) {
	d := page(t, `
		<div data-testid="demographics-age">0-14: 18% 15-24 years: 12%</div>
		<div data-testid="demographics-country-of-birth">Australia: 61% England: 5.5%</div>
	`)

	got := New(nil).PageDemographics(d)
	assert.Equal(t, []models.AgeBand{
		{Range: "0-14", Percentage: 18},
		{Range: "15-24", Percentage: 12},
	}, got.AgeDistribution)
	assert.Equal(t, []models.EthnicShare{
		{Label: "Australia", Percentage: 61},
		{Label: "England", Percentage: 5.5},
	}, got.EthnicDistribution)
	assert.Empty(t, got.IncomeBrackets)
}

func TestExtractPropertyDetails(t *testing.T) {
	at := time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC)
	d := page(t, `
		<div class="property-info">
			<h1 class="property-info-address">12 King St, Newtown NSW 2042</h1>
			<span class="property-price">$1,250,000</span>
			<ul><li aria-label="3 bedrooms">3</li><li aria-label="2 bathrooms">2</li><li aria-label="1 car space">1</li></ul>
		</div>
		<div class="property-description__content">Light-filled terrace close to King St.</div>
	`)

	rec, err := New(nil, WithClock(func() time.Time { return at })).ExtractPropertyDetails(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, listingURL, rec.URL)
	assert.Equal(t, "$1,250,000", rec.Price)
	assert.Equal(t, "3", rec.Bedrooms)
	assert.Equal(t, "2", rec.Bathrooms)
	assert.Equal(t, "1", rec.ParkingSpaces)
	assert.Equal(t, "2042", rec.Postcode)
	assert.Equal(t, "Light-filled terrace close to King St.", rec.Description)
	assert.Equal(t, at, rec.ExtractedAt)
	require.NotNil(t, rec.SchoolData)
	assert.True(t, rec.SchoolData.Simulated)
	require.NotNil(t, rec.MarketTrends)
	assert.True(t, rec.MarketTrends.Simulated)
	assert.Empty(t, rec.HistoricalPrices)
}

func TestExtractRejectsOtherPages(t *testing.T) {
	d, err := document.ParseString(`<html><body><h1>Buy real estate</h1></body></html>`, "https://www.realestate.com.au/buy")
	require.NoError(t, err)

	_, err = New(nil).ExtractPropertyDetails(context.Background(), d)
	assert.True(t, errors.Is(err, ErrNotPropertyPage))
}

func TestIsPropertyPage(t *testing.T) {
	container, err := document.ParseString(`<html><body><div class="property-info"></div></body></html>`, "https://example.com/listing")
	require.NoError(t, err)
	assert.True(t, IsPropertyPage(container))

	byURL, err := document.ParseString(`<html><body></body></html>`, "https://www.realestate.com.au/properties/123")
	require.NoError(t, err)
	assert.True(t, IsPropertyPage(byURL))
}
