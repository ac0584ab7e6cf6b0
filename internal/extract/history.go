package extract

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"homie/internal/document"
	"homie/internal/models"
)

var (
	historyDate  = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4}|\d{1,2}-\d{1,2}-\d{4}|[A-Za-z]{3,9}\s+\d{4})`)
	historyPrice = regexp.MustCompile(`\$\s*[\d,]+(\.\d+)?`)
	soldSentence = regexp.MustCompile(`(?i)sold\s+(?:for|at)\s+(\$\s*[\d,]+(\.\d+)?)\s+(?:in|on)\s+([A-Za-z]+\s+\d{4}|\d{1,2}/\d{1,2}/\d{4})`)
)

const (
	priceHistorySections = `[data-testid="price-history"], [class*="PriceHistory"], [class*="price-history"], [class*="LastSold"]`
	historyDates         = `[data-testid="date"], [class*="date"], .date, time`
	historyPrices        = `[data-testid="price"], [class*="price"], .price`
	timelineItems        = `[class*="Timeline"] li, [class*="timeline"] li, [class*="history-item"]`
	descriptionProse     = `[data-testid="description"], [class*="Description"]`
	lastSoldSections     = `[data-testid="last-sold"], [class*="LastSold"], [class*="last-sold"]`
)

// HistoricalPrices merges every price-history pattern on the page, removes
// duplicate (date, price) pairs and sorts the result newest first. It returns
// an empty slice when nothing matched.
func (e *Extractor) HistoricalPrices(d *document.Document) []models.PricePoint {
	var raw []models.PricePoint

	// paired date and price elements inside a history section
	d.QuerySelectorAll(priceHistorySections).Each(func(_ int, section *goquery.Selection) {
		dates := section.Find(historyDates)
		prices := section.Find(historyPrices)
		if dates.Length() == 0 || dates.Length() != prices.Length() {
			return
		}
		dates.Each(func(i int, s *goquery.Selection) {
			date := strings.TrimSpace(s.Text())
			price := strings.TrimSpace(prices.Eq(i).Text())
			if date != "" && price != "" {
				raw = append(raw, models.PricePoint{Date: date, Price: price})
			}
		})
	})

	// timeline entries carrying both a date and a price
	d.QuerySelectorAll(timelineItems).Each(func(_ int, s *goquery.Selection) {
		if p, ok := datedPrice(strings.TrimSpace(s.Text())); ok {
			raw = append(raw, p)
		}
	})

	// "sold for $X in/on DATE" sentences in the description
	if desc, ok := d.QuerySelector(descriptionProse); ok {
		for _, m := range soldSentence.FindAllStringSubmatch(desc.Text(), -1) {
			raw = append(raw, models.PricePoint{Date: m[3], Price: m[1]})
		}
	}

	d.QuerySelectorAll(lastSoldSections).Each(func(_ int, s *goquery.Selection) {
		if p, ok := datedPrice(s.Text()); ok {
			raw = append(raw, p)
		}
	})

	return sortHistory(dedupeHistory(raw), e.dates)
}

func datedPrice(text string) (models.PricePoint, bool) {
	date := historyDate.FindString(text)
	price := historyPrice.FindString(text)
	if date == "" || price == "" {
		return models.PricePoint{}, false
	}
	return models.PricePoint{Date: date, Price: price}, true
}

func dedupeHistory(points []models.PricePoint) []models.PricePoint {
	seen := make(map[models.PricePoint]bool, len(points))
	unique := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		if seen[p] {
			continue
		}
		seen[p] = true
		unique = append(unique, p)
	}
	return unique
}

// sortHistory orders points newest first. Points whose date cannot be parsed
// keep their discovery order after all parsed points.
func sortHistory(points []models.PricePoint, order DateOrder) []models.PricePoint {
	type dated struct {
		point models.PricePoint
		at    time.Time
		ok    bool
	}
	rows := make([]dated, len(points))
	for i, p := range points {
		at, ok := ParseHistoryDate(p.Date, order)
		rows[i] = dated{point: p, at: at, ok: ok}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ok != rows[j].ok {
			return rows[i].ok
		}
		if !rows[i].ok {
			return false
		}
		return rows[i].at.After(rows[j].at)
	})
	sorted := make([]models.PricePoint, len(rows))
	for i, r := range rows {
		sorted[i] = r.point
	}
	return sorted
}

var (
	dayFirstLayouts   = []string{"2/1/2006", "2-1-2006"}
	monthFirstLayouts = []string{"1/2/2006", "1-2-2006"}
	monthYearLayouts  = []string{"January 2006", "Jan 2006"}
)

// ParseHistoryDate reads the date shapes matched by the history patterns:
// numeric dates in the configured order, and "Month YYYY" forms.
func ParseHistoryDate(s string, order DateOrder) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	layouts := dayFirstLayouts
	if order == MonthFirst {
		layouts = monthFirstLayouts
	}
	for _, group := range [][]string{layouts, monthYearLayouts} {
		for _, layout := range group {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
