package analysis

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"homie/internal/models"
)

// DefaultLocale is used when a formatter is built from an unknown tag.
const DefaultLocale = "en-AU"

// CurrencyFormatter renders whole-dollar amounts with locale grouping.
type CurrencyFormatter struct {
	printer *message.Printer
}

// NewCurrencyFormatter creates a formatter for a BCP 47 locale such as "en-AU".
func NewCurrencyFormatter(locale string) *CurrencyFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	return &CurrencyFormatter{printer: message.NewPrinter(tag)}
}

var defaultCurrency = NewCurrencyFormatter(DefaultLocale)

// FormatCurrency formats v with the default locale.
func FormatCurrency(v interface{}) string {
	return defaultCurrency.Format(v)
}

// Format renders v with zero decimal places. Nil, zero, non-numeric and
// non-finite input all render as "$0".
func (f *CurrencyFormatter) Format(v interface{}) string {
	amount, ok := toAmount(v)
	if !ok {
		return "$0"
	}
	rounded := math.Round(amount)
	if rounded == 0 {
		return "$0"
	}
	if rounded < 0 {
		return "-$" + f.printer.Sprintf("%d", int64(-rounded))
	}
	return "$" + f.printer.Sprintf("%d", int64(rounded))
}

func toAmount(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case models.Number:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		if !strings.ContainsAny(x, "0123456789") {
			return 0, false
		}
		f = models.ParseNumber(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var listPrice = regexp.MustCompile(`\$\s*(\d[\d,]*(?:\.\d+)?)\s*([kKmM]\b)?`)

// ParsePrice reads the first dollar amount of a listing price such as
// "$1,250,000", "Offers over $900k" or "$1.2m - $1.3m". It returns zero
// when the price has no dollar amount.
func ParsePrice(price string) float64 {
	m := listPrice.FindStringSubmatch(price)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(m[2]) {
	case "k":
		v *= 1e3
	case "m":
		v *= 1e6
	}
	return v
}
