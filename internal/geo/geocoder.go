package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"homie/internal/httpclient"
)

// ErrNoGeocodeResult is returned when Nominatim finds nothing for an address.
var ErrNoGeocodeResult = errors.New("no geocode result")

// NominatimURL is the public Nominatim endpoint.
const NominatimURL = "https://nominatim.openstreetmap.org"

// Geocoder handles address geocoding using Nominatim
type Geocoder struct {
	client *httpclient.Client
}

// NominatimResult represents a geocoding result from Nominatim
type NominatimResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// NewGeocoder creates a Nominatim geocoder. Nominatim's usage policy allows
// one request per second, so the client is paced accordingly.
func NewGeocoder(baseURL string) *Geocoder {
	if baseURL == "" {
		baseURL = NominatimURL
	}
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = 10 * time.Second
	cfg.RequestsPerSecond = 1
	cfg.UserAgent = httpclient.ServiceUserAgent
	cfg.BaseURL = baseURL
	client := httpclient.New(cfg)
	client.Resty().SetHeader("Accept", "application/json")
	return &Geocoder{client: client}
}

// Geocode converts an address to coordinates
func (g *Geocoder) Geocode(ctx context.Context, address string) (lat, lng float64, err error) {
	req, err := g.client.Request(ctx)
	if err != nil {
		return 0, 0, err
	}

	var results []NominatimResult
	resp, err := req.
		SetQueryParams(map[string]string{
			"q":            address,
			"format":       "json",
			"limit":        "1",
			"countrycodes": "au",
		}).
		SetResult(&results).
		Get("/search")
	if err != nil {
		return 0, 0, fmt.Errorf("geocode request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, 0, fmt.Errorf("geocode: HTTP %d", resp.StatusCode())
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrNoGeocodeResult, address)
	}

	result := results[0]
	if lat, err = strconv.ParseFloat(result.Lat, 64); err != nil {
		return 0, 0, fmt.Errorf("failed to parse latitude: %w", err)
	}
	if lng, err = strconv.ParseFloat(result.Lon, 64); err != nil {
		return 0, 0, fmt.Errorf("failed to parse longitude: %w", err)
	}
	return lat, lng, nil
}
