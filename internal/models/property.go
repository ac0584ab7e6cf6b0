package models

import (
	"encoding/json"
	"time"
)

// Sentinel values returned by field extractors when nothing was found.
// Downstream code compares against these exact strings.
const (
	PriceNotSpecified = "Price not specified"
	AddressNotFound   = "Address not found"
	CountNotAvailable = "N/A"
	NotSpecified      = "Not specified"
	NoDescription     = "No description available"
	PostcodeUnknown   = "Unknown"
	NotAvailable      = "Not available"
	SuburbNotFound    = "Suburb not found"
	NoInspectionTimes = "No inspection times listed"
	NoNearbyAmenities = "No nearby amenities information"
	AgentNotAvailable = "Agent details not available"
)

// Amenity categories.
const (
	AmenitySchools   = "schools"
	AmenityTransport = "transport"
	AmenityShops     = "shops"
)

// PropertyRecord is the assembled output of one extraction pass.
type PropertyRecord struct {
	URL              string             `json:"url"`
	Title            string             `json:"title"`
	Price            string             `json:"price"`
	Address          string             `json:"address"`
	PropertyType     string             `json:"propertyType"`
	Bedrooms         string             `json:"bedrooms"`
	Bathrooms        string             `json:"bathrooms"`
	ParkingSpaces    string             `json:"parkingSpaces"`
	LandSize         string             `json:"landSize"`
	Description      string             `json:"description"`
	Features         []string           `json:"features"`
	NearbyAmenities  Amenities          `json:"nearbyAmenities"`
	InspectionTimes  []string           `json:"inspectionTimes"`
	AgentDetails     AgentDetails       `json:"agentDetails"`
	Images           []string           `json:"images"`
	Suburb           string             `json:"suburb"`
	Postcode         string             `json:"postcode"`
	LastSoldPrice    string             `json:"lastSoldPrice"`
	CouncilRates     string             `json:"councilRates"`
	WalkScore        string             `json:"walkScore"`
	Coordinates      *Coordinates       `json:"coordinates,omitempty"`
	HistoricalPrices []PricePoint       `json:"historicalPrices"`
	Demographics     DemographicProfile `json:"demographics"`
	SchoolData       *SchoolData        `json:"schoolData,omitempty"`
	MarketTrends     *MarketTrends      `json:"marketTrends,omitempty"`
	ExtractedAt      time.Time          `json:"extractedAt"`
}

// HasSuburb reports whether the suburb chain found a value.
func (r *PropertyRecord) HasSuburb() bool {
	return r.Suburb != "" && r.Suburb != SuburbNotFound
}

// HasPostcode reports whether the postcode chain found a value.
func (r *PropertyRecord) HasPostcode() bool {
	return r.Postcode != "" && r.Postcode != PostcodeUnknown
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PricePoint is one sale or price event.
type PricePoint struct {
	Date  string `json:"date"`
	Price string `json:"price"`
}

// Amenities maps a category (schools, transport, shops) to its listed items.
// An empty map serializes as the NoNearbyAmenities sentinel.
type Amenities map[string][]string

func (a Amenities) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return json.Marshal(NoNearbyAmenities)
	}
	return json.Marshal(map[string][]string(a))
}

func (a *Amenities) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Amenities{}
		return nil
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*a = m
	return nil
}

// AgentDetails holds the listing agent. All fields empty means not available.
type AgentDetails struct {
	Name   string `json:"name,omitempty"`
	Agency string `json:"agency,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

// Available reports whether any agent field was found.
func (a AgentDetails) Available() bool {
	return a.Name != "" || a.Agency != "" || a.Phone != ""
}

type agentFields AgentDetails

func (a AgentDetails) MarshalJSON() ([]byte, error) {
	if !a.Available() {
		return json.Marshal(AgentNotAvailable)
	}
	return json.Marshal(agentFields(a))
}

func (a *AgentDetails) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = AgentDetails{}
		return nil
	}
	var f agentFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = AgentDetails(f)
	return nil
}

// StoredProperty is the cache row for one extracted record.
type StoredProperty struct {
	URL          string    `db:"url" json:"url"`
	Title        string    `db:"title" json:"title"`
	Address      string    `db:"address" json:"address"`
	Suburb       string    `db:"suburb" json:"suburb"`
	Postcode     string    `db:"postcode" json:"postcode"`
	Price        string    `db:"price" json:"price"`
	PropertyType string    `db:"property_type" json:"property_type"`
	Record       string    `db:"record" json:"-"` // JSON PropertyRecord
	ExtractedAt  time.Time `db:"extracted_at" json:"extracted_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PropertyFilter paginates stored properties.
type PropertyFilter struct {
	Suburb   string `json:"suburb,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// PropertyListResponse is returned by the list endpoint.
type PropertyListResponse struct {
	Properties []StoredProperty `json:"properties"`
	Total      int              `json:"total"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}
