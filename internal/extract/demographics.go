package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"homie/internal/document"
	"homie/internal/models"
)

const (
	ageSections    = `[data-testid="demographics-age"], [class*="demographic"] [class*="age"], [class*="population-age"]`
	originSections = `[data-testid="demographics-country-of-birth"], [class*="demographic"] [class*="country"], [class*="ethnicity"], [class*="ancestry"]`
	incomeSections = `[data-testid="demographics-income"], [class*="demographic"] [class*="income"], [class*="median-income"]`
)

var (
	pageAgeBand    = regexp.MustCompile(`(\d+-\d+|\d+\+)\s*(?:years?)?:?\s*(\d+(?:\.\d+)?)%?`)
	pageOrigin     = regexp.MustCompile(`(?i)(Australia|England|China|India|New Zealand|Philippines|[A-Za-z][A-Za-z ]*):\s*(\d+(?:\.\d+)?)%?`)
	pageIncomeBand = regexp.MustCompile(`(?i)((?:Under |Over )?\$?[\d.]+k?(?:\s*-\s*\$?[\d.]+k?)?):?\s*([\d.]+)%`)
)

// PageDemographics reads demographic breakdowns published on the listing page
// itself. Categories without data are left empty.
func (e *Extractor) PageDemographics(d *document.Document) models.DemographicProfile {
	profile := models.DemographicProfile{
		AgeDistribution:    []models.AgeBand{},
		EthnicDistribution: []models.EthnicShare{},
		IncomeBrackets:     []models.IncomeBand{},
	}

	eachText(d, ageSections, func(text string) {
		for _, m := range pageAgeBand.FindAllStringSubmatch(text, -1) {
			profile.AgeDistribution = append(profile.AgeDistribution, models.AgeBand{
				Range:      m[1],
				Percentage: parsePercent(m[2]),
			})
		}
	})

	eachText(d, originSections, func(text string) {
		for _, m := range pageOrigin.FindAllStringSubmatch(text, -1) {
			label := strings.TrimSpace(m[1])
			if label == "" {
				continue
			}
			profile.EthnicDistribution = append(profile.EthnicDistribution, models.EthnicShare{
				Label:      label,
				Percentage: parsePercent(m[2]),
			})
		}
	})

	eachText(d, incomeSections, func(text string) {
		for _, m := range pageIncomeBand.FindAllStringSubmatch(text, -1) {
			profile.IncomeBrackets = append(profile.IncomeBrackets, models.IncomeBand{
				Bracket:    strings.TrimSpace(m[1]),
				Percentage: parsePercent(m[2]),
			})
		}
	})

	return profile
}

func eachText(d *document.Document, selector string, fn func(string)) {
	d.QuerySelectorAll(selector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			fn(text)
		}
	})
}

func parsePercent(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0
	}
	return f
}
