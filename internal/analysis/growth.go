package analysis

import "math"

// Annual growth rates are fractions. Whatever upstream forecasts, projections
// never compound faster or slower than these bounds.
const (
	MinAnnualRate = -0.015
	MaxAnnualRate = 0.04
)

// ProjectionYears are the horizons shown in reports and forecasts.
var ProjectionYears = []int{1, 3, 5}

// ClampAnnualRate bounds rate to [MinAnnualRate, MaxAnnualRate]. NaN is
// treated as zero growth.
func ClampAnnualRate(rate float64) float64 {
	if math.IsNaN(rate) {
		return 0
	}
	return math.Max(MinAnnualRate, math.Min(MaxAnnualRate, rate))
}

// ProjectPrice compounds price over years at the clamped rate.
func ProjectPrice(price, rate float64, years int) float64 {
	return price * math.Pow(1+ClampAnnualRate(rate), float64(years))
}

// CumulativeGrowth is the total fractional growth over years at the clamped rate.
func CumulativeGrowth(rate float64, years int) float64 {
	return math.Pow(1+ClampAnnualRate(rate), float64(years)) - 1
}

// AnnualRateFromForecast converts a total growth forecast in percent over
// years into a clamped annual rate.
func AnnualRateFromForecast(totalPercent float64, years int) float64 {
	if years <= 0 {
		return 0
	}
	base := 1 + totalPercent/100
	if base <= 0 {
		return MinAnnualRate
	}
	return ClampAnnualRate(math.Pow(base, 1/float64(years)) - 1)
}

// Projection is a listing price compounded over one horizon.
type Projection struct {
	Years      int     `json:"years"`
	AnnualRate float64 `json:"annualRate"`
	Price      float64 `json:"price"`
	Display    string  `json:"display"`
}

// Project returns capped projections of price for every horizon.
func (f *CurrencyFormatter) Project(price, rate float64) []Projection {
	rate = ClampAnnualRate(rate)
	out := make([]Projection, 0, len(ProjectionYears))
	for _, years := range ProjectionYears {
		projected := ProjectPrice(price, rate, years)
		out = append(out, Projection{
			Years:      years,
			AnnualRate: rate,
			Price:      math.Round(projected),
			Display:    f.Format(projected),
		})
	}
	return out
}
