package analysis

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"homie/internal/models"
)

// Report is the display-ready form of a parsed analysis.
type Report struct {
	URL          string              `json:"url"`
	Address      string              `json:"address"`
	Format       string              `json:"format"`
	Overview     OverviewSection     `json:"overview"`
	Financial    FinancialSection    `json:"financial"`
	Neighborhood NeighborhoodSection `json:"neighborhood"`
	Demographics DemographicsSection `json:"demographics"`
}

type OverviewSection struct {
	Pros     []string  `json:"pros"`
	Cons     []string  `json:"cons"`
	Insights []Insight `json:"insights"`
}

type FinancialSection struct {
	Summary     string        `json:"summary"`
	Valuation   string        `json:"valuation,omitempty"`
	MonthlyRent string        `json:"monthlyRent,omitempty"`
	ListPrice   string        `json:"listPrice,omitempty"`
	Bars        []ForecastBar `json:"bars"`
	Projections []Projection  `json:"projections"`
}

// ForecastBar is one column of the forecast chart.
type ForecastBar struct {
	Years    int     `json:"years"`
	Percent  float64 `json:"percent"`
	HeightPx float64 `json:"heightPx"`
	Color    string  `json:"color"`
}

type NeighborhoodSection struct {
	Summary string     `json:"summary"`
	Stats   []StatCard `json:"stats"`
}

// StatCard is a score with its fill percentage.
type StatCard struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Total float64 `json:"total"`
	Fill  float64 `json:"fill"`
}

type DemographicsSection struct {
	Age       []Bar `json:"age"`
	Ethnicity []Bar `json:"ethnicity"`
	Income    []Bar `json:"income"`
}

// Bar is a labelled horizontal bar with its width in percent.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Width float64 `json:"width"`
}

// ReportInput carries the listing context a report needs besides the parsed reply.
type ReportInput struct {
	URL     string
	Address string
	Price   string
	// AnnualRate overrides the rate derived from the forecasts when set.
	AnnualRate *float64
}

var strictPolicy = bluemonday.StrictPolicy()

// cleanText strips any markup from upstream text and returns plain text.
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

func cleanAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if c := cleanText(item); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// BuildReport maps a parsed analysis onto report sections.
func (f *CurrencyFormatter) BuildReport(in ReportInput, p *Parsed) *Report {
	a := p.Analysis
	r := &Report{
		URL:     in.URL,
		Address: in.Address,
		Format:  p.Format,
		Overview: OverviewSection{
			Pros:     cleanAll(a.Pros),
			Cons:     cleanAll(a.Cons),
			Insights: make([]Insight, 0, len(p.Insights)),
		},
		Financial: FinancialSection{
			Summary:   cleanText(a.FinancialAnalysis.Summary),
			Valuation: a.FinancialAnalysis.Valuation,
			Bars:      []ForecastBar{},
		},
		Neighborhood: NeighborhoodSection{
			Summary: cleanText(a.NeighborhoodAnalysis.Summary),
			Stats:   []StatCard{},
		},
	}
	for _, insight := range p.Insights {
		insight.Text = cleanText(insight.Text)
		r.Overview.Insights = append(r.Overview.Insights, insight)
	}
	if a.FinancialAnalysis.MonthlyRentalIncome > 0 {
		r.Financial.MonthlyRent = f.Format(a.FinancialAnalysis.MonthlyRentalIncome)
	}

	for _, fc := range p.Forecasts {
		if fc.Percent == nil {
			continue
		}
		r.Financial.Bars = append(r.Financial.Bars, ForecastBar{
			Years:    fc.Years,
			Percent:  *fc.Percent,
			HeightPx: BarHeight(*fc.Percent),
			Color:    BarColor(*fc.Percent),
		})
	}

	r.Financial.Projections = []Projection{}
	if price := ParsePrice(in.Price); price > 0 {
		r.Financial.ListPrice = f.Format(price)
		rate := forecastRate(p.Forecasts)
		if in.AnnualRate != nil {
			rate = ClampAnnualRate(*in.AnnualRate)
		}
		r.Financial.Projections = f.Project(price, rate)
	}

	for _, s := range p.KeyStats {
		r.Neighborhood.Stats = append(r.Neighborhood.Stats, StatCard{
			Label: cleanText(s.Label),
			Value: s.Value,
			Total: s.Total,
			Fill:  StatFill(s.Value, s.Total),
		})
	}

	r.Demographics = demographicBars(a.Demographics)
	return r
}

// forecastRate derives an annual rate from the longest percentage forecast.
func forecastRate(forecasts []Forecast) float64 {
	var best *Forecast
	for i := range forecasts {
		fc := &forecasts[i]
		if fc.Percent == nil || fc.Years <= 0 {
			continue
		}
		if best == nil || fc.Years > best.Years {
			best = fc
		}
	}
	if best == nil {
		return 0
	}
	return AnnualRateFromForecast(*best.Percent, best.Years)
}

func demographicBars(p models.DemographicProfile) DemographicsSection {
	s := DemographicsSection{Age: []Bar{}, Ethnicity: []Bar{}, Income: []Bar{}}
	for _, b := range p.AgeDistribution {
		s.Age = append(s.Age, Bar{Label: cleanText(b.Range), Value: b.Percentage, Width: ClampPercent(b.Percentage)})
	}
	for _, e := range p.EthnicDistribution {
		s.Ethnicity = append(s.Ethnicity, Bar{Label: cleanText(e.Label), Value: e.Percentage, Width: ClampPercent(e.Percentage)})
	}
	for _, b := range p.IncomeBrackets {
		s.Income = append(s.Income, Bar{Label: cleanText(b.Bracket), Value: b.Percentage, Width: ClampPercent(b.Percentage)})
	}
	return s
}
