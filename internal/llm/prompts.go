package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"homie/internal/models"
)

const analysisSystemPrompt = `You are a sophisticated real estate investment analyst providing comprehensive property investment analysis. Ensure your analysis includes detailed data points that can be used for visualization.

Respond with a single JSON object and nothing else, using exactly these keys:
{
  "pros": [string],
  "cons": [string],
  "financialAnalysis": {"estimatedROI": number, "paybackPeriodYears": number, "valuation": "undervalued" | "overvalued" | "fair", "monthlyRentalIncome": number, "monthlyExpenses": number, "summary": string},
  "neighborhoodAnalysis": {"walkabilityScore": number, "transitScore": number, "schoolQualityScore": number, "safetyScore": number, "summary": string},
  "demographics": {"ageDistribution": [{"range": string, "percentage": number}], "ethnicDistribution": [{"label": string, "percentage": number}], "incomeBrackets": [{"bracket": string, "percentage": number}]},
  "schoolData": {"qualityScore": number, "summary": string},
  "priceForecasts": {"oneYear": number, "threeYear": number, "fiveYear": number}
}
Scores are out of 100. Forecasts are total growth in percent. Percentages in each demographics list sum to 100.`

const analysisInstructions = `Provide your in-depth analysis following this structure:
1. Pros: List at least 5 pros about this property as an investment
2. Cons: List at least 3 cons about this property as an investment
3. Financial Analysis:
   - Estimated ROI and payback period
   - Assessment of current price relative to market (over/undervalued)
   - Estimated monthly rental income and expenses
4. Neighborhood Analysis:
   - Walkability score (out of 100)
   - Transit score (out of 100)
   - School quality score (out of 100)
   - Safety score (out of 100)
5. Demographics:
   - Age distribution (e.g., 20-30: 25%, 31-40: 30%, etc.)
   - Ethnicity distribution (e.g., Australia: 65%, China: 15%, etc.)
   - Income distribution (e.g., Under $50k: 20%, $50k-100k: 40%, etc.)
6. Price Forecasts:
   - 1 year forecast growth: X%
   - 3 year forecast growth: X%
   - 5 year forecast growth: X%

Ensure your analysis is based on the provided data while supplementing with your professional real estate market knowledge.`

const demographicsSystemPrompt = `You are an Australian census data assistant. Respond with a single JSON object and nothing else, using exactly these keys:
{"ageDistribution": [{"range": string, "percentage": number}], "ethnicDistribution": [{"label": string, "percentage": number}], "incomeBrackets": [{"bracket": string, "percentage": number}]}
Percentages in each list sum to 100. Use at most 5 ethnicity entries.`

const growthSystemPrompt = `You are an Australian residential property market analyst. Respond with a single JSON object and nothing else: {"annualGrowthRate": number} where the number is the expected average annual median price growth over the next five years, in percent.`

// AnalysisPrompt serializes a listing into the user prompt for an investment
// analysis. Sentinel fields are left out.
func AnalysisPrompt(rec *models.PropertyRecord) string {
	var details []string
	add := func(label, value string, sentinels ...string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		for _, s := range sentinels {
			if value == s {
				return
			}
		}
		details = append(details, fmt.Sprintf("%s: %s", label, value))
	}

	add("Address", rec.Address, models.AddressNotFound)
	add("Price", rec.Price, models.PriceNotSpecified)
	add("Beds", rec.Bedrooms, models.CountNotAvailable)
	add("Baths", rec.Bathrooms, models.CountNotAvailable)
	add("Parking", rec.ParkingSpaces, models.CountNotAvailable)
	add("Land Size", rec.LandSize, models.NotSpecified)
	add("Property Type", rec.PropertyType, models.NotSpecified)
	add("Suburb", rec.Suburb, models.SuburbNotFound)
	add("Postcode", rec.Postcode, models.PostcodeUnknown)
	add("Last Sold", rec.LastSoldPrice, models.NotAvailable)
	add("Council Rates", rec.CouncilRates, models.NotAvailable)
	if len(rec.Features) > 0 {
		add("Features", strings.Join(rec.Features, ", "))
	}
	if len(rec.HistoricalPrices) > 0 {
		add("Historical Prices", compactJSON(rec.HistoricalPrices))
	}
	if !rec.Demographics.Empty() {
		add("Demographics", compactJSON(rec.Demographics))
	}
	if rec.MarketTrends != nil {
		add("Market Trends", compactJSON(rec.MarketTrends))
	}

	return "As a sophisticated real estate investment advisor, analyze this property as an investment opportunity:\n\n" +
		strings.Join(details, "\n") + "\n\n" + analysisInstructions
}

func compactJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func locality(suburb, postcode string) string {
	switch {
	case suburb != "" && postcode != "":
		return fmt.Sprintf("%s %s", suburb, postcode)
	case postcode != "":
		return "postcode " + postcode
	default:
		return suburb
	}
}
