package llm

import (
	"context"
	"encoding/json"
	"errors"

	"homie/internal/embedded"
	"homie/internal/models"
)

// AnalyzeProperty asks for an investment analysis of a listing and returns
// the raw reply text.
func (c *Client) AnalyzeProperty(ctx context.Context, rec *models.PropertyRecord) (string, error) {
	return c.Complete(ctx, "analyze", analysisSystemPrompt, AnalysisPrompt(rec), true)
}

// FetchDemographics asks for the demographic profile of a locality. A reply
// missing any of the three categories is malformed.
func (c *Client) FetchDemographics(ctx context.Context, suburb, postcode string) (models.DemographicProfile, error) {
	const op = "demographics"
	content, err := c.Complete(ctx, op, demographicsSystemPrompt,
		"Give the current demographic profile of "+locality(suburb, postcode)+", Australia.", true)
	if err != nil {
		return models.DemographicProfile{}, err
	}

	var profile models.DemographicProfile
	if err := decodeObject(content, &profile); err != nil {
		return models.DemographicProfile{}, c.malformed(op, content, err.Error())
	}
	if !profile.Complete() {
		return models.DemographicProfile{}, c.malformed(op, content, "missing demographic category")
	}
	return profile, nil
}

// AnnualGrowthRate asks for the expected annual growth of a locality and
// returns it as a fraction. The value is not clamped.
func (c *Client) AnnualGrowthRate(ctx context.Context, suburb, postcode string) (float64, error) {
	const op = "growth_rate"
	content, err := c.Complete(ctx, op, growthSystemPrompt,
		"Expected annual growth rate for "+locality(suburb, postcode)+", Australia.", true)
	if err != nil {
		return 0, err
	}

	var out struct {
		AnnualGrowthRate *models.Number `json:"annualGrowthRate"`
	}
	if err := decodeObject(content, &out); err != nil {
		return 0, c.malformed(op, content, err.Error())
	}
	if out.AnnualGrowthRate == nil {
		return 0, c.malformed(op, content, "missing annualGrowthRate")
	}
	return float64(*out.AnnualGrowthRate) / 100, nil
}

var errNoObject = errors.New("no JSON object in reply")

// decodeObject decodes the first JSON object in content, tolerating prose or
// code fences around it.
func decodeObject(content string, v interface{}) error {
	obj, ok := embedded.FirstObject(content)
	if !ok {
		return errNoObject
	}
	return json.Unmarshal([]byte(obj), v)
}
