package enrichment

import (
	"context"

	"homie/internal/models"
)

// Static returns fixed placeholder data marked as simulated. It is the
// default provider and never fails.
type Static struct{}

func (Static) SchoolData(_ context.Context, _ *models.PropertyRecord) (*models.SchoolData, error) {
	return &models.SchoolData{
		Simulated: true,
		PrimarySchools: []models.School{
			{Name: "Parkview Primary School", Distance: "0.8km", Ranking: 8.6, Type: "Public"},
			{Name: "St Mary's Catholic Primary", Distance: "1.2km", Ranking: 9.1, Type: "Catholic"},
			{Name: "Greenwood Primary", Distance: "1.5km", Ranking: 7.9, Type: "Public"},
		},
		SecondarySchools: []models.School{
			{Name: "Westfield High School", Distance: "1.7km", Ranking: 8.2, Type: "Public"},
			{Name: "St John's College", Distance: "2.5km", Ranking: 9.4, Type: "Private"},
			{Name: "Greenwood Secondary College", Distance: "3.1km", Ranking: 7.5, Type: "Public"},
		},
		CatchmentZone: "Yes - Parkview Primary and Westfield High",
	}, nil
}

func (Static) MarketTrends(_ context.Context, _ *models.PropertyRecord) (*models.MarketTrends, error) {
	return &models.MarketTrends{
		Simulated:    true,
		MedianPrice:  "$1,120,000",
		AnnualGrowth: "7.1%",
		PredictedGrowth: models.PredictedGrowth{
			OneYear:   "4.5%",
			ThreeYear: "13.8%",
			FiveYear:  "22.4%",
		},
		RentalYield:          "3.2%",
		AverageDaysOnMarket:  28,
		AuctionClearanceRate: "68%",
		SupplyDemandRatio:    "High demand, limited supply",
		PropertyMarketCycle:  "Growth phase",
		FutureDevelopments:   "New shopping precinct and transport hub planned within 3km",
	}, nil
}
