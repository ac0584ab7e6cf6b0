package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homie/internal/llm"
	"homie/internal/models"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{0, "$0"},
		{nil, "$0"},
		{"abc", "$0"},
		{"", "$0"},
		{1234567, "$1,234,567"},
		{1234567.6, "$1,234,568"},
		{"$850,000", "$850,000"},
		{models.Number(2300), "$2,300"},
		{-5400.0, "-$5,400"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.in), "%v", tt.in)
	}
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 1250000.0, ParsePrice("$1,250,000"))
	assert.Equal(t, 900000.0, ParsePrice("Offers over $900k"))
	assert.Equal(t, 1200000.0, ParsePrice("$1.2m - $1.3m"))
	assert.Equal(t, 900000.0, ParsePrice("$900,000 more or less"))
	assert.Zero(t, ParsePrice("Contact agent"))
}

func TestClampAnnualRate(t *testing.T) {
	assert.Equal(t, MaxAnnualRate, ClampAnnualRate(0.22))
	assert.Equal(t, MinAnnualRate, ClampAnnualRate(-0.3))
	assert.Equal(t, 0.025, ClampAnnualRate(0.025))
}

func TestProjectionNeverExceedsCap(t *testing.T) {
	// a 22% one-year forecast still compounds at 4%
	rate := AnnualRateFromForecast(22, 1)
	assert.Equal(t, MaxAnnualRate, rate)

	projections := NewCurrencyFormatter("en-AU").Project(1000000, 0.22)
	require.Len(t, projections, 3)
	assert.Equal(t, 1, projections[0].Years)
	assert.Equal(t, 1040000.0, projections[0].Price)
	assert.Equal(t, "$1,040,000", projections[0].Display)
	assert.Equal(t, 1216653.0, projections[2].Price)

	for _, p := range projections {
		effective := ProjectPrice(1, p.AnnualRate, 1) - 1
		assert.LessOrEqual(t, effective, MaxAnnualRate+1e-12)
		assert.GreaterOrEqual(t, effective, MinAnnualRate-1e-12)
	}
}

func TestAnnualRateFromForecast(t *testing.T) {
	assert.InDelta(t, 0.02, AnnualRateFromForecast(10.40808, 5), 1e-6)
	assert.Equal(t, MinAnnualRate, AnnualRateFromForecast(-150, 3))
	assert.Zero(t, AnnualRateFromForecast(10, 0))
}

func TestChartSizes(t *testing.T) {
	assert.Equal(t, 9.0, BarHeight(4.5))
	assert.Equal(t, 6.0, BarHeight(-3))
	assert.Equal(t, "#4CAF50", BarColor(4.5))
	assert.Equal(t, "#F44336", BarColor(-3))
	assert.Equal(t, 85.0, StatFill(85, 100))
	assert.Equal(t, 80.0, StatFill(8, 10))
	assert.Equal(t, 100.0, StatFill(120, 100))
	assert.Equal(t, 50.0, StatFill(50, 0))
	assert.Equal(t, 0.0, ClampPercent(-4))
}

const legacyReply = `1. Pros:
- Walking distance to the station
- 2. Large land size

2. Cons:
- Busy road
- Older kitchen

3. Financial Analysis: The estimated ROI: 5.5% with a payback period: 12-15 years. The property appears slightly undervalued. Monthly rental income: $2,600 per month.

4. Neighborhood Analysis:
   - Walkability score: 85/100
   - Transit score: 7/10

5. Demographics: 20-30: 30%, 30-40: 40%, 40+: 30%. Australia: 70%, China: 30%. Under $50k: 40%, Over $50k: 60%

6. Price Forecasts:
   - 1 year forecast growth: 4.5%
   - 3 year forecast growth: 12%
   - 5 year forecast growth: 22%
   - In 10 years: $2,000,000`

func TestParseLegacy(t *testing.T) {
	p, err := ParseResponse(legacyReply)
	require.NoError(t, err)

	assert.Equal(t, FormatLegacy, p.Format)
	assert.Equal(t, []string{"Walking distance to the station", "Large land size"}, p.Analysis.Pros)
	assert.Equal(t, []string{"Busy road", "Older kitchen"}, p.Analysis.Cons)
	assert.Contains(t, p.Analysis.FinancialAnalysis.Summary, "undervalued")

	require.Len(t, p.Forecasts, 4)
	assert.Equal(t, 1, p.Forecasts[0].Years)
	assert.Equal(t, 4.5, *p.Forecasts[0].Percent)
	assert.Equal(t, 10, p.Forecasts[3].Years)
	assert.Nil(t, p.Forecasts[3].Percent)
	assert.Equal(t, 2000000.0, *p.Forecasts[3].Value)
	assert.Equal(t, models.Number(22), p.Analysis.PriceForecasts.FiveYear)

	assert.Contains(t, p.KeyStats, KeyStat{Label: "Walkability score", Value: 85, Total: 100})
	assert.Contains(t, p.KeyStats, KeyStat{Label: "Transit score", Value: 7, Total: 10})
	for _, s := range p.KeyStats {
		assert.NotContains(t, s.Label, "year")
	}

	types := map[string]string{}
	for _, in := range p.Insights {
		types[in.Type] = in.Value
	}
	assert.Equal(t, "5.5", types[InsightROI])
	assert.Equal(t, "12-15", types[InsightPayback])
	assert.Equal(t, "undervalued", types[InsightValue])
	assert.Equal(t, "2600", types[InsightRental])
	assert.Equal(t, models.Number(12), p.Analysis.FinancialAnalysis.PaybackPeriodYears)

	assert.Len(t, p.Analysis.Demographics.AgeDistribution, 3)
	assert.Len(t, p.Analysis.Demographics.EthnicDistribution, 2)
	assert.Len(t, p.Analysis.Demographics.IncomeBrackets, 2)
}

const structuredReply = "Here is the analysis:\n```json\n" + `{
  "pros": ["Close to <b>schools</b>", "Quiet street"],
  "cons": ["Small yard"],
  "financialAnalysis": {"estimatedROI": "6.2%", "paybackPeriodYears": 14, "valuation": "fair", "monthlyRentalIncome": "$2,450", "monthlyExpenses": 900, "summary": "Solid yield & steady growth."},
  "neighborhoodAnalysis": {"walkabilityScore": 88, "transitScore": 72, "schoolQualityScore": 0, "safetyScore": 80, "summary": "Walkable."},
  "demographics": {"ageDistribution": [{"range": "20-30", "percentage": 60}, {"range": "30-40", "percentage": 60}],
                   "ethnicDistribution": [{"label": "Australia", "percentage": 100}],
                   "incomeBrackets": [{"bracket": "Under $50k", "percentage": 100}]},
  "schoolData": {"qualityScore": 75, "summary": "Good"},
  "priceForecasts": {"oneYear": 22, "threeYear": "15%", "fiveYear": -3}
}` + "\n```"

func TestParseStructured(t *testing.T) {
	p, err := ParseResponse(structuredReply)
	require.NoError(t, err)

	assert.Equal(t, FormatStructured, p.Format)
	assert.Equal(t, models.Number(6.2), p.Analysis.FinancialAnalysis.EstimatedROI)
	assert.Equal(t, models.Number(2450), p.Analysis.FinancialAnalysis.MonthlyRentalIncome)
	assert.Equal(t, models.Number(15), p.Analysis.PriceForecasts.ThreeYear)
	require.Len(t, p.Forecasts, 3)
	assert.Equal(t, -3.0, *p.Forecasts[2].Percent)
	assert.Len(t, p.KeyStats, 3)

	var valueInsight Insight
	for _, in := range p.Insights {
		if in.Type == InsightValue {
			valueInsight = in
		}
	}
	assert.Equal(t, "fair", valueInsight.Value)
}

func TestParseUnrecognized(t *testing.T) {
	_, err := ParseResponse("I cannot help with that.")
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestBuildReport(t *testing.T) {
	p, err := ParseResponse(structuredReply)
	require.NoError(t, err)

	r := NewCurrencyFormatter("en-AU").BuildReport(ReportInput{
		URL:     "https://www.realestate.com.au/property-house-nsw-newtown-1",
		Address: "12 King St, Newtown NSW 2042",
		Price:   "$1,000,000",
	}, p)

	assert.Equal(t, []string{"Close to schools", "Quiet street"}, r.Overview.Pros)
	assert.Equal(t, "Solid yield & steady growth.", r.Financial.Summary)
	assert.Equal(t, "$2,450", r.Financial.MonthlyRent)
	assert.Equal(t, "$1,000,000", r.Financial.ListPrice)

	require.Len(t, r.Financial.Bars, 3)
	assert.Equal(t, 44.0, r.Financial.Bars[0].HeightPx)
	assert.Equal(t, "#F44336", r.Financial.Bars[2].Color)

	// the 5 year forecast of -3% gives the annual rate
	require.Len(t, r.Financial.Projections, 3)
	assert.Less(t, r.Financial.Projections[0].Price, 1000000.0)

	require.Len(t, r.Neighborhood.Stats, 3)
	assert.Equal(t, 88.0, r.Neighborhood.Stats[0].Fill)

	require.Len(t, r.Demographics.Age, 2)
	assert.Equal(t, 60.0, r.Demographics.Age[0].Width)
}

func TestBuildReportRateOverride(t *testing.T) {
	p, err := ParseResponse(structuredReply)
	require.NoError(t, err)

	rate := 0.5
	r := defaultCurrency.BuildReport(ReportInput{Price: "$500,000", AnnualRate: &rate}, p)
	require.Len(t, r.Financial.Projections, 3)
	assert.Equal(t, 520000.0, r.Financial.Projections[0].Price)
	assert.Equal(t, MaxAnnualRate, r.Financial.Projections[0].AnnualRate)
}

func TestBuildReportWithoutPrice(t *testing.T) {
	p, err := ParseResponse(legacyReply)
	require.NoError(t, err)

	r := defaultCurrency.BuildReport(ReportInput{Price: models.PriceNotSpecified}, p)
	assert.Empty(t, r.Financial.Projections)
	assert.Empty(t, r.Financial.ListPrice)
}

type fakeAnalyzer struct {
	reply string
	err   error
	calls int
}

func (f *fakeAnalyzer) AnalyzeProperty(_ context.Context, _ *models.PropertyRecord) (string, error) {
	f.calls++
	return f.reply, f.err
}

type memoryStore struct {
	entries map[string]*models.SavedAnalysis
}

func (m *memoryStore) Analysis(_ context.Context, url string) (*models.SavedAnalysis, bool, error) {
	a, ok := m.entries[url]
	return a, ok, nil
}

func (m *memoryStore) SaveAnalysis(_ context.Context, a *models.SavedAnalysis) error {
	m.entries[a.URL] = a
	return nil
}

func listing() *models.PropertyRecord {
	return &models.PropertyRecord{
		URL:      "https://www.realestate.com.au/property-house-nsw-newtown-1",
		Address:  "12 King St, Newtown NSW 2042",
		Price:    "$1,000,000",
		Suburb:   models.SuburbNotFound,
		Postcode: models.PostcodeUnknown,
	}
}

func TestServiceCachesPerURL(t *testing.T) {
	analyzer := &fakeAnalyzer{reply: structuredReply}
	store := &memoryStore{entries: map[string]*models.SavedAnalysis{}}
	svc := NewService(analyzer, store, nil, nil)

	first, err := svc.Analyze(context.Background(), listing(), false)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.NotEmpty(t, first.Saved.ID)

	// age percentages 60/60 are rescaled
	ages := first.Parsed.Analysis.Demographics.AgeDistribution
	assert.InDelta(t, 100, ages[0].Percentage+ages[1].Percentage, 0.1)

	second, err := svc.Analyze(context.Background(), listing(), false)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, analyzer.calls)
	assert.Equal(t, first.Parsed.Analysis.Pros, second.Parsed.Analysis.Pros)

	_, err = svc.Analyze(context.Background(), listing(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, analyzer.calls)
}

func TestServiceUpstreamFailure(t *testing.T) {
	upstream := &llm.UpstreamError{Op: "analyze", StatusCode: 500, Err: errors.New("down")}
	svc := NewService(&fakeAnalyzer{err: upstream}, nil, nil, nil)

	_, err := svc.Analyze(context.Background(), listing(), false)
	assert.ErrorIs(t, err, llm.ErrUpstream)
}

func TestServiceMalformedReply(t *testing.T) {
	svc := NewService(&fakeAnalyzer{reply: "no analysis here"}, nil, nil, nil)

	_, err := svc.Analyze(context.Background(), listing(), false)
	assert.ErrorIs(t, err, llm.ErrMalformedResponse)
	assert.ErrorIs(t, err, llm.ErrUpstream)
}

type fixedGrowth struct {
	rate  float64
	calls int
}

func (f *fixedGrowth) AnnualGrowthRate(_ context.Context, _, _ string) (float64, error) {
	f.calls++
	return f.rate, nil
}

type growthCache map[string]float64

func (c growthCache) GrowthRate(_ context.Context, postcode string) (float64, bool, error) {
	r, ok := c[postcode]
	return r, ok, nil
}

func (c growthCache) SaveGrowthRate(_ context.Context, postcode, _ string, rate float64) error {
	c[postcode] = rate
	return nil
}

func TestForecasterClampsAndCaches(t *testing.T) {
	source := &fixedGrowth{rate: 0.12}
	cache := growthCache{}
	f := NewForecaster(source, cache, nil, nil)

	forecast, err := f.Forecast(context.Background(), 800000, "Newtown", "2042")
	require.NoError(t, err)
	assert.Equal(t, MaxAnnualRate, forecast.AnnualRate)
	assert.Equal(t, 832000.0, forecast.Projections[0].Price)
	assert.Equal(t, MaxAnnualRate, cache["2042"])

	_, err = f.AnnualGrowthRate(context.Background(), "Newtown", "2042")
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
}
