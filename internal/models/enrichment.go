package models

// SchoolData lists schools near a listing.
type SchoolData struct {
	Simulated        bool     `json:"simulated"`
	PrimarySchools   []School `json:"primarySchools"`
	SecondarySchools []School `json:"secondarySchools"`
	CatchmentZone    string   `json:"catchmentZone,omitempty"`
}

// School is one nearby school. Distance is display text such as "0.8km".
type School struct {
	Name     string  `json:"name"`
	Distance string  `json:"distance"`
	Ranking  float64 `json:"ranking,omitempty"`
	Type     string  `json:"type"`
}

// MarketTrends summarises the local market for a listing.
type MarketTrends struct {
	Simulated            bool            `json:"simulated"`
	MedianPrice          string          `json:"medianPrice,omitempty"`
	AnnualGrowth         string          `json:"annualGrowth,omitempty"`
	PredictedGrowth      PredictedGrowth `json:"predictedGrowth"`
	RentalYield          string          `json:"rentalYield,omitempty"`
	AverageDaysOnMarket  int             `json:"averageDaysOnMarket,omitempty"`
	AuctionClearanceRate string          `json:"auctionClearanceRate,omitempty"`
	SupplyDemandRatio    string          `json:"supplyDemandRatio,omitempty"`
	PropertyMarketCycle  string          `json:"propertyMarketCycle,omitempty"`
	FutureDevelopments   string          `json:"futureDevelopments,omitempty"`
}

type PredictedGrowth struct {
	OneYear   string `json:"oneYear"`
	ThreeYear string `json:"threeYear"`
	FiveYear  string `json:"fiveYear"`
}
