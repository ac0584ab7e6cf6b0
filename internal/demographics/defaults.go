package demographics

import (
	"regexp"

	"homie/internal/models"
)

// AgeRule selects a default age distribution when its pattern matches the
// source text. The last rule in a table has no pattern and always applies.
type AgeRule struct {
	Name    string
	Pattern *regexp.Regexp
	Bands   []models.AgeBand
}

type EthnicityRule struct {
	Name    string
	Pattern *regexp.Regexp
	Shares  []models.EthnicShare
}

type IncomeRule struct {
	Name    string
	Pattern *regexp.Regexp
	Bands   []models.IncomeBand
}

// AgeDefaults are tried in order.
var AgeDefaults = []AgeRule{
	{
		Name:    "young",
		Pattern: regexp.MustCompile(`(?i)young professionals|millennials|young families`),
		Bands: []models.AgeBand{
			{Range: "20-30", Percentage: 35},
			{Range: "30-40", Percentage: 40},
			{Range: "40-50", Percentage: 15},
			{Range: "50+", Percentage: 10},
		},
	},
	{
		Name:    "retirees",
		Pattern: regexp.MustCompile(`(?i)retirees|older population|senior`),
		Bands: []models.AgeBand{
			{Range: "Under 40", Percentage: 20},
			{Range: "40-60", Percentage: 30},
			{Range: "60+", Percentage: 50},
		},
	},
	{
		Name: "default",
		Bands: []models.AgeBand{
			{Range: "Under 30", Percentage: 25},
			{Range: "30-50", Percentage: 45},
			{Range: "50+", Percentage: 30},
		},
	},
}

var EthnicityDefaults = []EthnicityRule{
	{
		Name:    "diverse",
		Pattern: regexp.MustCompile(`(?i)diverse|multicultural|mixed demographics`),
		Shares: []models.EthnicShare{
			{Label: "White", Percentage: 40},
			{Label: "Hispanic", Percentage: 25},
			{Label: "Asian", Percentage: 20},
			{Label: "Black", Percentage: 10},
			{Label: "Other", Percentage: 5},
		},
	},
	{
		Name: "default",
		Shares: []models.EthnicShare{
			{Label: "White", Percentage: 65},
			{Label: "Hispanic", Percentage: 15},
			{Label: "Asian", Percentage: 10},
			{Label: "Black", Percentage: 8},
			{Label: "Other", Percentage: 2},
		},
	},
}

var IncomeDefaults = []IncomeRule{
	{
		Name:    "affluent",
		Pattern: regexp.MustCompile(`(?i)affluent|wealthy|high income|luxury`),
		Bands: []models.IncomeBand{
			{Bracket: "Under $75k", Percentage: 15},
			{Bracket: "$75k-$150k", Percentage: 40},
			{Bracket: "Over $150k", Percentage: 45},
		},
	},
	{
		Name:    "affordable",
		Pattern: regexp.MustCompile(`(?i)affordable|low income|budget|economical`),
		Bands: []models.IncomeBand{
			{Bracket: "Under $50k", Percentage: 45},
			{Bracket: "$50k-$100k", Percentage: 40},
			{Bracket: "Over $100k", Percentage: 15},
		},
	},
	{
		Name: "default",
		Bands: []models.IncomeBand{
			{Bracket: "Under $50k", Percentage: 30},
			{Bracket: "$50k-$100k", Percentage: 40},
			{Bracket: "$100k-$150k", Percentage: 20},
			{Bracket: "Over $150k", Percentage: 10},
		},
	},
}

// FillDefaults replaces every empty category of p with the first matching
// keyword default for text. It returns the names of the rules applied.
func FillDefaults(p models.DemographicProfile, text string) (models.DemographicProfile, []string) {
	var applied []string

	if len(p.AgeDistribution) == 0 {
		for _, rule := range AgeDefaults {
			if rule.Pattern == nil || rule.Pattern.MatchString(text) {
				p.AgeDistribution = append([]models.AgeBand(nil), rule.Bands...)
				applied = append(applied, "age:"+rule.Name)
				break
			}
		}
	}
	if len(p.EthnicDistribution) == 0 {
		for _, rule := range EthnicityDefaults {
			if rule.Pattern == nil || rule.Pattern.MatchString(text) {
				p.EthnicDistribution = append([]models.EthnicShare(nil), rule.Shares...)
				applied = append(applied, "ethnicity:"+rule.Name)
				break
			}
		}
	}
	if len(p.IncomeBrackets) == 0 {
		for _, rule := range IncomeDefaults {
			if rule.Pattern == nil || rule.Pattern.MatchString(text) {
				p.IncomeBrackets = append([]models.IncomeBand(nil), rule.Bands...)
				applied = append(applied, "income:"+rule.Name)
				break
			}
		}
	}

	return p, applied
}
