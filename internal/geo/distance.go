package geo

import (
	"fmt"
	"math"
)

const (
	// Earth radius in kilometers
	EarthRadiusKm = 6371.0
)

// Haversine calculates the great-circle distance between two points
// Returns distance in kilometers
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// FormatDistance renders kilometers the way listing pages do, e.g. "0.8km".
func FormatDistance(km float64) string {
	return fmt.Sprintf("%.1fkm", km)
}

// InAustralia reports whether a point falls inside the mainland and
// Tasmania bounding box.
func InAustralia(lat, lng float64) bool {
	return lat <= -9 && lat >= -44 && lng >= 112 && lng <= 154
}
