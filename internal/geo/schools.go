package geo

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"homie/internal/httpclient"
)

// SchoolsDatasetURL is the NSW public schools master dataset.
const SchoolsDatasetURL = "https://data.cese.nsw.gov.au/data/dataset/027493b2-33ad-3f5b-8ed9-37cdca2b8571/resource/2ac19870-44f6-443d-a0c3-4c867f04c305/download/master_dataset.csv"

// Level is the schooling level a school offers.
type Level string

const (
	Primary   Level = "Primary"
	Secondary Level = "Secondary"
	Combined  Level = "Combined"
)

// School is one row of the schools dataset.
type School struct {
	Name      string
	Level     Level
	Sector    string // Public, Catholic, Private
	Suburb    string
	Latitude  float64
	Longitude float64
}

// Serves reports whether the school teaches the given level.
func (s School) Serves(level Level) bool {
	return s.Level == level || s.Level == Combined
}

// String returns school info as a string
func (s School) String() string {
	return fmt.Sprintf("%s (%s)", s.Name, s.Suburb)
}

// NearbySchool is a school with its distance from a query point.
type NearbySchool struct {
	School
	DistanceKm float64
}

// SchoolIndex holds school locations for nearest-school lookups.
type SchoolIndex struct {
	Schools []School
}

// ErrNoSchoolColumns is returned when a CSV lacks name or coordinate columns.
var ErrNoSchoolColumns = errors.New("schools csv: missing name or coordinate columns")

// LoadCSV reads a schools CSV. Column positions are detected from the header.
// Rows with unparsable coordinates or coordinates outside Australia are skipped.
func LoadCSV(r io.Reader) (*SchoolIndex, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("schools csv header: %w", err)
	}

	nameIdx, levelIdx, sectorIdx, suburbIdx, latIdx, lngIdx := -1, -1, -1, -1, -1, -1
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(col))
		switch {
		case strings.Contains(col, "school_name") || col == "school name" || col == "name":
			nameIdx = i
		case col == "level_of_schooling" || col == "level of schooling" || strings.Contains(col, "school_type"):
			levelIdx = i
		case strings.Contains(col, "sector") || col == "school_subtype" || col == "type":
			sectorIdx = i
		case strings.Contains(col, "suburb"):
			suburbIdx = i
		case col == "latitude" || col == "lat":
			latIdx = i
		case col == "longitude" || col == "long" || col == "lng":
			lngIdx = i
		}
	}
	if nameIdx == -1 || latIdx == -1 || lngIdx == -1 {
		return nil, ErrNoSchoolColumns
	}

	idx := &SchoolIndex{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if latIdx >= len(record) || lngIdx >= len(record) || nameIdx >= len(record) {
			continue
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(record[latIdx]), 64)
		if err != nil {
			continue
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(record[lngIdx]), 64)
		if err != nil {
			continue
		}
		if !InAustralia(lat, lng) {
			continue
		}

		school := School{
			Name:      strings.TrimSpace(record[nameIdx]),
			Sector:    "Public",
			Latitude:  lat,
			Longitude: lng,
		}
		if levelIdx >= 0 && levelIdx < len(record) {
			school.Level = parseLevel(record[levelIdx])
		}
		if sectorIdx >= 0 && sectorIdx < len(record) && strings.TrimSpace(record[sectorIdx]) != "" {
			school.Sector = strings.TrimSpace(record[sectorIdx])
		}
		if suburbIdx >= 0 && suburbIdx < len(record) {
			school.Suburb = strings.TrimSpace(record[suburbIdx])
		}
		idx.Schools = append(idx.Schools, school)
	}

	return idx, nil
}

func parseLevel(raw string) Level {
	raw = strings.ToLower(raw)
	switch {
	case strings.Contains(raw, "primary") && strings.Contains(raw, "secondary"),
		strings.Contains(raw, "central"), strings.Contains(raw, "combined"):
		return Combined
	case strings.Contains(raw, "secondary"), strings.Contains(raw, "high"):
		return Secondary
	case strings.Contains(raw, "primary"), strings.Contains(raw, "infants"):
		return Primary
	}
	return Combined
}

// LoadFile reads a schools CSV from disk.
func LoadFile(path string) (*SchoolIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCSV(f)
}

// FetchSchools downloads the schools dataset. It falls back to the built-in
// sample when the download fails or the CSV cannot be read.
func FetchSchools(ctx context.Context, client *httpclient.Client, url string) (*SchoolIndex, error) {
	req, err := client.Request(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := req.SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return SampleSchools(), nil
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != 200 {
		return SampleSchools(), nil
	}
	idx, err := LoadCSV(body)
	if err != nil || len(idx.Schools) == 0 {
		return SampleSchools(), nil
	}
	return idx, nil
}

// SampleSchools returns a small fixed set of Sydney schools.
func SampleSchools() *SchoolIndex {
	return &SchoolIndex{Schools: []School{
		{Name: "Sydney Boys High School", Level: Secondary, Sector: "Public", Suburb: "Moore Park", Latitude: -33.8929, Longitude: 151.2225},
		{Name: "Sydney Girls High School", Level: Secondary, Sector: "Public", Suburb: "Moore Park", Latitude: -33.8923, Longitude: 151.2219},
		{Name: "Fort Street High School", Level: Secondary, Sector: "Public", Suburb: "Petersham", Latitude: -33.8933, Longitude: 151.1547},
		{Name: "North Sydney Boys High School", Level: Secondary, Sector: "Public", Suburb: "Crows Nest", Latitude: -33.8267, Longitude: 151.2033},
		{Name: "North Sydney Girls High School", Level: Secondary, Sector: "Public", Suburb: "Crows Nest", Latitude: -33.8272, Longitude: 151.2028},
		{Name: "St Aloysius' College", Level: Combined, Sector: "Catholic", Suburb: "Milsons Point", Latitude: -33.8479, Longitude: 151.2115},
		{Name: "Crown Street Public School", Level: Primary, Sector: "Public", Suburb: "Surry Hills", Latitude: -33.8820, Longitude: 151.2145},
		{Name: "Bourke Street Public School", Level: Primary, Sector: "Public", Suburb: "Surry Hills", Latitude: -33.8890, Longitude: 151.2160},
		{Name: "Glebe Public School", Level: Primary, Sector: "Public", Suburb: "Glebe", Latitude: -33.8800, Longitude: 151.1860},
		{Name: "St Mary's Cathedral College", Level: Secondary, Sector: "Catholic", Suburb: "Sydney", Latitude: -33.8710, Longitude: 151.2130},
		{Name: "Newtown Public School", Level: Primary, Sector: "Public", Suburb: "Newtown", Latitude: -33.8975, Longitude: 151.1790},
		{Name: "Cammeray Public School", Level: Primary, Sector: "Public", Suburb: "Cammeray", Latitude: -33.8210, Longitude: 151.2110},
	}}
}

// Nearest returns up to n schools serving level within maxKm of the point,
// closest first. A maxKm of zero or less means no distance limit.
func (idx *SchoolIndex) Nearest(lat, lng float64, level Level, n int, maxKm float64) []NearbySchool {
	var found []NearbySchool
	for _, school := range idx.Schools {
		if !school.Serves(level) {
			continue
		}
		dist := Haversine(lat, lng, school.Latitude, school.Longitude)
		if maxKm > 0 && dist > maxKm {
			continue
		}
		found = append(found, NearbySchool{School: school, DistanceKm: dist})
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].DistanceKm < found[j].DistanceKm
	})
	if n > 0 && len(found) > n {
		found = found[:n]
	}
	return found
}
