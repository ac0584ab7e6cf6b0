package models

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Analysis is the structured investment analysis returned upstream.
type Analysis struct {
	Pros                 []string             `json:"pros"`
	Cons                 []string             `json:"cons"`
	FinancialAnalysis    FinancialAnalysis    `json:"financialAnalysis"`
	NeighborhoodAnalysis NeighborhoodAnalysis `json:"neighborhoodAnalysis"`
	Demographics         DemographicProfile   `json:"demographics"`
	SchoolData           SchoolAssessment     `json:"schoolData"`
	PriceForecasts       PriceForecasts       `json:"priceForecasts"`
}

type FinancialAnalysis struct {
	EstimatedROI        Number `json:"estimatedROI"`
	PaybackPeriodYears  Number `json:"paybackPeriodYears"`
	Valuation           string `json:"valuation"` // undervalued, overvalued or fair
	MonthlyRentalIncome Number `json:"monthlyRentalIncome"`
	MonthlyExpenses     Number `json:"monthlyExpenses"`
	Summary             string `json:"summary"`
}

type NeighborhoodAnalysis struct {
	WalkabilityScore   Number `json:"walkabilityScore"`
	TransitScore       Number `json:"transitScore"`
	SchoolQualityScore Number `json:"schoolQualityScore"`
	SafetyScore        Number `json:"safetyScore"`
	Summary            string `json:"summary"`
}

type SchoolAssessment struct {
	QualityScore Number `json:"qualityScore"`
	Summary      string `json:"summary"`
}

// PriceForecasts holds total forecast growth in percent per horizon.
type PriceForecasts struct {
	OneYear   Number `json:"oneYear"`
	ThreeYear Number `json:"threeYear"`
	FiveYear  Number `json:"fiveYear"`
}

// SavedAnalysis is the per-URL analysis cache row.
type SavedAnalysis struct {
	ID        string    `db:"id" json:"id"`
	URL       string    `db:"url" json:"url"`
	Address   string    `db:"address" json:"address"`
	Raw       string    `db:"raw" json:"raw"`
	Parsed    string    `db:"parsed" json:"-"` // JSON Analysis
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

var leadingNumber = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// Number is a float that also decodes from strings such as "4.5%" or "$2,300",
// taking the first number found. Missing or unparsable values decode to zero.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	if data[0] != '"' {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			*n = 0
			return nil
		}
		*n = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*n = Number(ParseNumber(s))
	return nil
}

// ParseNumber returns the first number in s, ignoring thousands separators.
func ParseNumber(s string) float64 {
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}
