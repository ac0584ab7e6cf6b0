package models

import "time"

// DemographicProfile is the normalized three-category distribution for a suburb.
type DemographicProfile struct {
	AgeDistribution    []AgeBand     `json:"ageDistribution"`
	EthnicDistribution []EthnicShare `json:"ethnicDistribution"`
	IncomeBrackets     []IncomeBand  `json:"incomeBrackets"`
}

type AgeBand struct {
	Range      string  `json:"range"`
	Percentage float64 `json:"percentage"`
}

type EthnicShare struct {
	Label      string  `json:"label"`
	Percentage float64 `json:"percentage"`
}

type IncomeBand struct {
	Bracket    string  `json:"bracket"`
	Percentage float64 `json:"percentage"`
}

// Complete reports whether all three categories carry data.
func (p DemographicProfile) Complete() bool {
	return len(p.AgeDistribution) > 0 && len(p.EthnicDistribution) > 0 && len(p.IncomeBrackets) > 0
}

// Empty reports whether no category carries data.
func (p DemographicProfile) Empty() bool {
	return len(p.AgeDistribution) == 0 && len(p.EthnicDistribution) == 0 && len(p.IncomeBrackets) == 0
}

// CachedDemographics is the per-postcode demographics cache row.
type CachedDemographics struct {
	Postcode  string    `db:"postcode" json:"postcode"`
	Suburb    string    `db:"suburb" json:"suburb"`
	Profile   string    `db:"profile" json:"-"` // JSON DemographicProfile
	Source    string    `db:"source" json:"source"`
	FetchedAt time.Time `db:"fetched_at" json:"fetched_at"`
}

// CachedGrowthRate is the per-postcode annual growth rate cache row.
type CachedGrowthRate struct {
	Postcode  string    `db:"postcode" json:"postcode"`
	Suburb    string    `db:"suburb" json:"suburb"`
	Rate      float64   `db:"rate" json:"rate"`
	FetchedAt time.Time `db:"fetched_at" json:"fetched_at"`
}
