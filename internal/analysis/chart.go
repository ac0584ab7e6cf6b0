package analysis

import "math"

const (
	positiveColor = "#4CAF50"
	negativeColor = "#F44336"
	pxPerPercent  = 2
)

// BarHeight maps a forecast percentage to a bar height in pixels.
func BarHeight(percent float64) float64 {
	return math.Abs(percent) * pxPerPercent
}

// BarColor is green for growth and red for decline.
func BarColor(percent float64) string {
	if percent < 0 {
		return negativeColor
	}
	return positiveColor
}

// StatFill is the filled share of a stat card, value over total as a
// percentage in 0..100. A non-positive total is read as 100.
func StatFill(value, total float64) float64 {
	if total <= 0 {
		total = 100
	}
	return ClampPercent(value / total * 100)
}

// ClampPercent bounds a bar width to 0..100.
func ClampPercent(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(0, math.Min(100, p))
}
