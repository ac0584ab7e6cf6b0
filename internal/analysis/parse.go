// Package analysis turns an upstream investment analysis into display-ready
// numbers: currency, capped growth projections, chart sizes and report
// sections.
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"homie/internal/demographics"
	"homie/internal/embedded"
	"homie/internal/models"
)

// ErrUnrecognized is returned when a reply is neither the JSON schema nor
// the legacy text layout.
var ErrUnrecognized = errors.New("analysis reply has no recognizable sections")

// Response formats.
const (
	FormatStructured = "structured"
	FormatLegacy     = "legacy"
)

// Forecast is one horizon of forecast growth. Percent is nil when only a
// projected dollar value was given.
type Forecast struct {
	Years   int      `json:"years"`
	Percent *float64 `json:"percent,omitempty"`
	Value   *float64 `json:"value,omitempty"`
}

// KeyStat is a "Label: value/total" score.
type KeyStat struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Total float64 `json:"total"`
}

// Insight types.
const (
	InsightROI     = "roi"
	InsightPayback = "payback"
	InsightValue   = "value"
	InsightRental  = "rental"
)

// Insight is one investment highlight.
type Insight struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Text  string `json:"text"`
}

// Parsed is an analysis reply in either format, reduced to one shape.
type Parsed struct {
	Format    string          `json:"format"`
	Analysis  models.Analysis `json:"analysis"`
	Forecasts []Forecast      `json:"forecasts"`
	KeyStats  []KeyStat       `json:"keyStats"`
	Insights  []Insight       `json:"insights"`
}

// ParseResponse reads an analysis reply. JSON replies following the schema
// are preferred; otherwise the legacy numbered text layout is parsed.
func ParseResponse(text string) (*Parsed, error) {
	if p, ok := parseStructured(text); ok {
		return p, nil
	}
	p := parseLegacy(text)
	if len(p.Analysis.Pros) == 0 && len(p.Analysis.Cons) == 0 && len(p.Forecasts) == 0 &&
		p.Analysis.FinancialAnalysis.Summary == "" && p.Analysis.NeighborhoodAnalysis.Summary == "" {
		return nil, ErrUnrecognized
	}
	return p, nil
}

func parseStructured(text string) (*Parsed, bool) {
	obj, ok := embedded.FirstObject(text)
	if !ok {
		return nil, false
	}
	var a models.Analysis
	if err := json.Unmarshal([]byte(obj), &a); err != nil {
		return nil, false
	}
	if len(a.Pros) == 0 && len(a.Cons) == 0 && a.FinancialAnalysis.Summary == "" && a.PriceForecasts == (models.PriceForecasts{}) {
		return nil, false
	}

	p := &Parsed{Format: FormatStructured, Analysis: a}
	for _, f := range []struct {
		years int
		pct   models.Number
	}{{1, a.PriceForecasts.OneYear}, {3, a.PriceForecasts.ThreeYear}, {5, a.PriceForecasts.FiveYear}} {
		pct := float64(f.pct)
		p.Forecasts = append(p.Forecasts, Forecast{Years: f.years, Percent: &pct})
	}

	n := a.NeighborhoodAnalysis
	for _, s := range []struct {
		label string
		value models.Number
	}{
		{"Walkability", n.WalkabilityScore},
		{"Transit", n.TransitScore},
		{"School quality", n.SchoolQualityScore},
		{"Safety", n.SafetyScore},
	} {
		if s.value > 0 {
			p.KeyStats = append(p.KeyStats, KeyStat{Label: s.label, Value: float64(s.value), Total: 100})
		}
	}

	fin := a.FinancialAnalysis
	if fin.EstimatedROI != 0 {
		p.Insights = append(p.Insights, roiInsight(trimFloat(float64(fin.EstimatedROI))))
	}
	if fin.PaybackPeriodYears > 0 {
		p.Insights = append(p.Insights, paybackInsight(trimFloat(float64(fin.PaybackPeriodYears))))
	}
	if v := valuation(fin.Valuation); v != "" {
		p.Insights = append(p.Insights, valueInsight(v))
	}
	if fin.MonthlyRentalIncome > 0 {
		p.Insights = append(p.Insights, rentalInsight(float64(fin.MonthlyRentalIncome)))
	}
	return p, true
}

var (
	listItemPrefix = regexp.MustCompile(`^-\s*|\d+\.\s*`)
	forecastGrowth = regexp.MustCompile(`(?i)(\d+)\s*(?:year|yr)(?:s)?(?:\s*forecast)?(?:\s*growth)?(?:\s*prediction)?:?\s*([\+\-]?\d+(?:\.\d+)?)%`)
	forecastValue  = regexp.MustCompile(`(?i)(?:in|after)\s*(\d+)\s*(?:year|yr)(?:s)?:?\s*\$\s*(\d+(?:,\d+)*(?:\.\d+)?)`)
	keyValue       = regexp.MustCompile(`(?i)([\w\s]+)(?:score|rating|index)?:\s*([\d\.]+)(?:\s*/\s*(\d+))?`)
	roiMention     = regexp.MustCompile(`(?i)ROI[:\s]+([\d\.]+)%`)
	paybackMention = regexp.MustCompile(`(?i)payback\s+period[:\s]+(\d+)(?:\s*-\s*(\d+))?\s+years`)
	undervalued    = regexp.MustCompile(`(?i)undervalued|under-valued|under valued`)
	overvalued     = regexp.MustCompile(`(?i)overvalued|over-valued|over valued`)
	fairlyValued   = regexp.MustCompile(`(?i)fair\s+value|fairly\s+valued|priced\s+correctly`)
	rentalMention  = regexp.MustCompile(`(?i)(?:monthly|annual|yearly)\s+rental\s+(?:income|revenue)[:\s]+[\$£€]?([\d,\.]+)`)
	hasLetter      = regexp.MustCompile(`[A-Za-z]`)
	financialBlock = regexp.MustCompile(`(?s)Financial Analysis:(.+)`)
	neighborBlock  = regexp.MustCompile(`(?s)Neighborhood Analysis:(.+)`)
)

var excludedStatWords = []string{"price", "income", "year", "age"}

func parseLegacy(text string) *Parsed {
	p := &Parsed{Format: FormatLegacy}
	a := &p.Analysis
	a.Pros = extractList(text, "Pros")
	a.Cons = extractList(text, "Cons")
	a.FinancialAnalysis.Summary = paragraph(financialBlock, text)
	a.NeighborhoodAnalysis.Summary = paragraph(neighborBlock, text)
	a.Demographics = demographics.Mine(text)

	p.Forecasts = extractForecasts(text)
	p.KeyStats = extractKeyStats(text)
	p.Insights = extractInsights(text)

	for _, in := range p.Insights {
		switch in.Type {
		case InsightROI:
			a.FinancialAnalysis.EstimatedROI = models.Number(models.ParseNumber(in.Value))
		case InsightPayback:
			a.FinancialAnalysis.PaybackPeriodYears = models.Number(models.ParseNumber(in.Value))
		case InsightValue:
			a.FinancialAnalysis.Valuation = in.Value
		case InsightRental:
			a.FinancialAnalysis.MonthlyRentalIncome = models.Number(models.ParseNumber(in.Value))
		}
	}
	for _, f := range p.Forecasts {
		if f.Percent == nil {
			continue
		}
		switch f.Years {
		case 1:
			a.PriceForecasts.OneYear = models.Number(*f.Percent)
		case 3:
			a.PriceForecasts.ThreeYear = models.Number(*f.Percent)
		case 5:
			a.PriceForecasts.FiveYear = models.Number(*f.Percent)
		}
	}
	return p
}

// untilBlankLine cuts s at the first blank line.
func untilBlankLine(s string) string {
	if end := strings.Index(s, "\n\n"); end >= 0 {
		return s[:end]
	}
	return s
}

// extractList returns the lines of the paragraph opened by marker, with
// bullet and numbering prefixes removed.
func extractList(text, marker string) []string {
	re := regexp.MustCompile(`(?s)` + regexp.QuoteMeta(marker) + `[^:]*:(.+)`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return []string{}
	}
	items := []string{}
	for _, line := range strings.Split(untilBlankLine(m[1]), "\n") {
		item := listItemPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func paragraph(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(untilBlankLine(m[1]))
}

func extractForecasts(text string) []Forecast {
	var out []Forecast
	seen := map[int]int{}
	for _, m := range forecastGrowth.FindAllStringSubmatch(text, -1) {
		years, _ := strconv.Atoi(m[1])
		pct, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		if _, dup := seen[years]; dup {
			continue
		}
		seen[years] = len(out)
		out = append(out, Forecast{Years: years, Percent: &pct})
	}
	for _, m := range forecastValue.FindAllStringSubmatch(text, -1) {
		years, _ := strconv.Atoi(m[1])
		value := models.ParseNumber(m[2])
		if i, ok := seen[years]; ok {
			if out[i].Value == nil {
				out[i].Value = &value
			}
			continue
		}
		seen[years] = len(out)
		out = append(out, Forecast{Years: years, Value: &value})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Years < out[j].Years })
	return out
}

func extractKeyStats(text string) []KeyStat {
	var stats []KeyStat
	for _, m := range keyValue.FindAllStringSubmatch(text, -1) {
		label := strings.TrimSpace(m[1])
		if !hasLetter.MatchString(label) || excludedStat(label) {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimRight(m[2], "."), 64)
		if err != nil {
			continue
		}
		total := 100.0
		if m[3] != "" {
			total, _ = strconv.ParseFloat(m[3], 64)
		}
		stats = append(stats, KeyStat{Label: lastLine(label), Value: value, Total: total})
	}
	return stats
}

func excludedStat(label string) bool {
	lower := strings.ToLower(label)
	for _, w := range excludedStatWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// lastLine keeps the label text on the line the value sits on.
func lastLine(label string) string {
	if i := strings.LastIndex(label, "\n"); i >= 0 {
		return strings.TrimSpace(label[i+1:])
	}
	return label
}

func extractInsights(text string) []Insight {
	var out []Insight
	if m := roiMention.FindStringSubmatch(text); m != nil {
		out = append(out, roiInsight(m[1]))
	}
	if m := paybackMention.FindStringSubmatch(text); m != nil {
		years := m[1]
		if m[2] != "" {
			years = m[1] + "-" + m[2]
		}
		out = append(out, paybackInsight(years))
	}
	if v := valuation(text); v != "" {
		out = append(out, valueInsight(v))
	}
	if m := rentalMention.FindStringSubmatch(text); m != nil {
		out = append(out, rentalInsight(models.ParseNumber(m[1])))
	}
	return out
}

// valuation classifies free text as undervalued, overvalued or fair.
func valuation(text string) string {
	switch {
	case undervalued.MatchString(text):
		return "undervalued"
	case overvalued.MatchString(text):
		return "overvalued"
	case fairlyValued.MatchString(text), strings.EqualFold(strings.TrimSpace(text), "fair"):
		return "fair"
	}
	return ""
}

func roiInsight(value string) Insight {
	return Insight{Type: InsightROI, Value: value, Text: fmt.Sprintf("Expected ROI: %s%%", value)}
}

func paybackInsight(years string) Insight {
	return Insight{Type: InsightPayback, Value: years, Text: fmt.Sprintf("Investment payback period: %s years", years)}
}

var valuationText = map[string]string{
	"undervalued": "Property appears to be undervalued compared to the market",
	"overvalued":  "Property appears to be overvalued compared to the market",
	"fair":        "Property appears to be fairly valued in the current market",
}

func valueInsight(v string) Insight {
	return Insight{Type: InsightValue, Value: v, Text: valuationText[v]}
}

func rentalInsight(amount float64) Insight {
	return Insight{
		Type:  InsightRental,
		Value: trimFloat(amount),
		Text:  "Estimated monthly rental income: " + FormatCurrency(amount),
	}
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
