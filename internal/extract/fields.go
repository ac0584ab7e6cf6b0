package extract

import (
	"regexp"
	"strings"

	"homie/internal/document"
	"homie/internal/models"
)

var (
	digits          = regexp.MustCompile(`(\d+)`)
	bedroomLabel    = regexp.MustCompile(`(?i)(\d+)\s*bedroom`)
	bathroomLabel   = regexp.MustCompile(`(?i)(\d+)\s*bathroom`)
	carSpaceLabel   = regexp.MustCompile(`(?i)(\d+)\s*car\s*space`)
	landLabel       = regexp.MustCompile(`(?i)land size|land area|block size`)
	landFeatureSize = regexp.MustCompile(`(?i)(\d+[\d,.]*\s*(?:sqm|m²|acres?|ha))`)
	landProseSize   = regexp.MustCompile(`(?i)(\d+[\d,.]*\s*(?:sqm|m²|square\s*meters?|acres?|hectares?|ha))`)
	propertyTypeTag = regexp.MustCompile(`(?i)(Townhouse|House|Apartment|Unit|Villa|Land|Rural)`)
	addressPostcode = regexp.MustCompile(`\b(\d{4})\b`)
	pagePostcode    = regexp.MustCompile(`(?i)\bpostcode\s*:?\s*(\d{4})\b`)
	urlSuburb       = regexp.MustCompile(`/([^/]+),-[^/]+/property`)
	soldPrice       = regexp.MustCompile(`\$([\d,]+)`)
	lastSoldProse   = regexp.MustCompile(`(?i)last\s+sold\s+for\s+\$([\d,]+)`)
	councilRates    = regexp.MustCompile(`(?i)council\s+rates\s*:?\s*\$([\d,.]+)`)
	walkScore       = regexp.MustCompile(`(\d+)\s*/\s*100`)
)

// Rule tables. Row order is priority order.
var (
	priceChain = Chain{
		Field:    "price",
		Sentinel: models.PriceNotSpecified,
		Rules: []Rule{
			{Kind: Text, Selector: ".property-price"},
			{Kind: Text, Selector: `[data-testid="listing-details__summary-title"]`},
			{Kind: Text, Selector: ".price"},
			{Kind: Text, Selector: ".property-price.property-info__price"},
			{Kind: Text, Selector: ".property-info__price"},
			{Kind: Text, Selector: "span.property-price"},
			{Kind: Text, Selector: `span[class*="property-price"]`},
		},
	}

	addressChain = Chain{
		Field:    "address",
		Sentinel: models.AddressNotFound,
		Rules: []Rule{
			{Kind: Text, Selector: ".property-info-address"},
			{Kind: Text, Selector: "h1.property-info-address"},
			{Kind: Text, Selector: ".property-info__header h1, .property-info-address"},
			{Kind: Text, Selector: `[class*="property-info-address"]`},
		},
	}

	bedroomsChain = countChain("bedrooms", countMarkup{
		ariaSelector: `li[aria-label*="bedroom"], li[aria-label*="Bedroom"]`,
		ariaAll:      `li[aria-label*="bedroom"]`,
		label:        bedroomLabel,
		selectors: []string{
			`[data-testid="property-features-feature-beds"] .property-features__feature-text`,
			`.property-features__feature--beds .property-features__feature-text`,
			`.property-features__beds .property-features__feature-text`,
			`[data-testid="property-features__beds"]`,
			`.general-features [data-testid*="beds" i]`,
			`[class*="bedroomFeature"]`,
			`[class*="property-features"] [class*="bed"]`,
		},
		anywhere: "bedroom",
	})

	bathroomsChain = countChain("bathrooms", countMarkup{
		ariaSelector: `li[aria-label*="bathroom"], li[aria-label*="Bathroom"]`,
		ariaAll:      `li[aria-label*="bathroom"]`,
		label:        bathroomLabel,
		selectors: []string{
			`[data-testid="property-features-feature-baths"] .property-features__feature-text`,
			`.property-features__feature--baths .property-features__feature-text`,
			`.property-features__baths .property-features__feature-text`,
			`[data-testid="property-features__baths"]`,
			`.general-features [data-testid*="bath" i]`,
			`[class*="bathroomFeature"]`,
			`[class*="property-features"] [class*="bath"]`,
		},
	})

	parkingChain = countChain("parkingSpaces", countMarkup{
		ariaSelector: `li[aria-label*="car space"], li[aria-label*="Car space"]`,
		ariaAll:      `li[aria-label*="car space"], li[aria-label*="parking"]`,
		label:        carSpaceLabel,
		selectors: []string{
			`[data-testid="property-features-feature-parking"] .property-features__feature-text`,
			`.property-features__feature--parking .property-features__feature-text`,
			`.property-features__parking .property-features__feature-text`,
			`[data-testid="property-features__parking"]`,
			`.general-features [data-testid*="parking" i]`,
			`[class*="parkingFeature"]`,
			`[class*="property-features"] [class*="parking"]`,
			`[class*="property-features"] [class*="car"]`,
		},
	})

	landSizeChain = Chain{
		Field:    "landSize",
		Sentinel: models.NotSpecified,
		Rules: append(textRules(
			`[data-testid="property-features-feature-land-size"] .property-features__feature-text`,
			`.property-features__feature--land-size .property-features__feature-text`,
			`.property-features__land-size .property-features__feature-text`,
			`[data-testid="property-features__land-size"]`,
			`[class*="landSizeFeature"]`,
			`[class*="property-features"] [class*="land"]`,
			`[class*="property-features"] [class*="size"]`,
			`[class*="Text_Typography"][aria-label*="land size"]`,
			`[class*="Text_Typography"][aria-label*="Land size"]`,
			`li[data-testid*="land-size"]`,
			`li[data-testid*="Land size"]`,
		),
			Rule{Kind: Derived, Derive: func(e *Extractor, d *document.Document) (string, bool) {
				return e.embedded.LandSize(d)
			}},
			Rule{
				Kind:     Scan,
				Selector: `li[class*="feature"], li[class*="Feature"], [class*="FeatureListItem"]`,
				All:      true,
				Keywords: []string{"land size", "land area", "block size"},
				Fold:     true,
				Strip:    landLabel,
			},
			Rule{
				Kind:     Scan,
				Selector: `[class*="features"], [class*="feature"]`,
				All:      true,
				Keywords: []string{"land", "size", "sqm", "m²", "acre"},
				Fold:     true,
				Pattern:  landFeatureSize,
				Group:    1,
			},
			Rule{Kind: Derived, Derive: func(e *Extractor, d *document.Document) (string, bool) {
				return Rule{Pattern: landProseSize, Group: 1}.match(e.Description(d))
			}},
		),
	}

	propertyTypeChain = Chain{
		Field:    "propertyType",
		Sentinel: models.NotSpecified,
		Rules: append([]Rule{
			{
				Kind:     Text,
				Selector: `p.Text__Typography, p[class*="Text_Typography"]`,
				Keywords: []string{"House", "Townhouse", "Apartment", "Unit", "Villa", "Land", "Rural"},
			},
			{
				Kind:     Attr,
				Selector: `ul[aria-label*="Townhouse"], ul[aria-label*="House"], ul[aria-label*="Apartment"]`,
				Attr:     "aria-label",
				Pattern:  propertyTypeTag,
				Group:    1,
			},
			{Kind: Text, Selector: `[data-testid="listing-summary-property-type"]`},
			{Kind: Text, Selector: ".property-info__property-type"},
			{Kind: Text, Selector: `[class*="propertyType"]`},
			{Kind: Text, Selector: ".property-features__property-type"},
			{
				Kind: Vocabulary,
				Keywords: []string{
					"House", "Apartment", "Unit", "Townhouse", "Villa", "Land",
					"Rural", "Acreage", "Retirement", "Development", "Commercial",
				},
			},
		},
			urlTypeRule("/house-", "House"),
			urlTypeRule("/apartment-", "Apartment"),
			urlTypeRule("/unit-", "Unit"),
			urlTypeRule("/townhouse-", "Townhouse"),
			urlTypeRule("/villa-", "Villa"),
			urlTypeRule("/land-", "Land"),
		),
	}

	descriptionChain = Chain{
		Field:    "description",
		Sentinel: models.NoDescription,
		Rules: textRules(
			".property-description__content",
			`[data-testid="listing-details__description"]`,
			".description",
		),
	}

	suburbChain = Chain{
		Field:    "suburb",
		Sentinel: models.SuburbNotFound,
		Rules: []Rule{
			{Kind: Derived, Derive: func(e *Extractor, d *document.Document) (string, bool) {
				address := e.Address(d)
				if address == models.AddressNotFound {
					return "", false
				}
				parts := strings.Split(address, ",")
				if len(parts) < 2 {
					return "", false
				}
				suburb := strings.TrimSpace(parts[1])
				return suburb, suburb != ""
			}},
			{Kind: Derived, Derive: func(_ *Extractor, d *document.Document) (string, bool) {
				m := urlSuburb.FindStringSubmatch(d.URL())
				if m == nil || m[1] == "" {
					return "", false
				}
				return strings.ReplaceAll(m[1], "-", " "), true
			}},
			{Kind: Derived, Derive: func(e *Extractor, d *document.Document) (string, bool) {
				suburb, _, ok := e.embedded.Locality(d)
				return suburb, ok && suburb != ""
			}},
		},
	}

	postcodeChain = Chain{
		Field:    "postcode",
		Sentinel: models.PostcodeUnknown,
		Rules: []Rule{
			{Kind: Derived, Derive: func(e *Extractor, d *document.Document) (string, bool) {
				address := e.Address(d)
				if address == models.AddressNotFound {
					return "", false
				}
				return Rule{Pattern: addressPostcode, Group: 1}.match(address)
			}},
			{Kind: PageText, Pattern: pagePostcode, Group: 1},
			{Kind: Derived, Derive: func(e *Extractor, d *document.Document) (string, bool) {
				_, postcode, ok := e.embedded.Locality(d)
				return postcode, ok && postcode != ""
			}},
		},
	}

	lastSoldChain = Chain{
		Field:    "lastSoldPrice",
		Sentinel: models.NotAvailable,
		Rules: []Rule{
			{Kind: Scan, Selector: `[data-testid="last-sold"], .last-sold`, All: true, Pattern: soldPrice},
			{Kind: Derived, Derive: func(_ *Extractor, d *document.Document) (string, bool) {
				sel, ok := d.QuerySelector(".property-description__content")
				if !ok {
					return "", false
				}
				return Rule{Pattern: lastSoldProse, Group: 1, Prefix: "$"}.match(sel.Text())
			}},
		},
	}

	councilRatesChain = Chain{
		Field:    "councilRates",
		Sentinel: models.NotAvailable,
		Rules: []Rule{
			{Kind: PageText, Pattern: councilRates, Group: 1, Prefix: "$"},
		},
	}

	walkScoreChain = Chain{
		Field:    "walkScore",
		Sentinel: models.NotAvailable,
		Rules: []Rule{
			{Kind: Scan, Selector: `[data-testid="walk-score"], .walk-score`, All: true, Pattern: walkScore, Group: 1},
		},
	}

	titleChain = Chain{
		Field: "title",
		Rules: []Rule{{Kind: Text, Selector: "h1"}},
	}
)

// countMarkup describes where a numeric feature (beds, baths, car spaces)
// appears across markup generations.
type countMarkup struct {
	ariaSelector string
	ariaAll      string
	label        *regexp.Regexp
	selectors    []string
	anywhere     string
}

func countChain(field string, m countMarkup) Chain {
	rules := []Rule{
		{Kind: Attr, Selector: m.ariaSelector, Attr: "aria-label", Pattern: m.label, Group: 1, RawText: true},
		{Kind: Attr, Selector: m.ariaAll, Attr: "aria-label", All: true, Pattern: digits, Group: 1},
	}
	for _, sel := range m.selectors {
		rules = append(rules, Rule{Kind: Text, Selector: sel, Pattern: digits, Group: 1, RawText: true})
	}
	rules = append(rules, Rule{
		Kind:     Text,
		Selector: `ul.property-info__primary-features, ul[class*="primary-features"]`,
		Pattern:  m.label,
		Group:    1,
	})
	if m.anywhere != "" {
		rules = append(rules, Rule{Kind: Anywhere, Keywords: []string{m.anywhere}, Pattern: m.label, Group: 1})
	}
	return Chain{Field: field, Sentinel: models.CountNotAvailable, Rules: rules}
}

func textRules(selectors ...string) []Rule {
	rules := make([]Rule, 0, len(selectors))
	for _, sel := range selectors {
		rules = append(rules, Rule{Kind: Text, Selector: sel})
	}
	return rules
}

func urlTypeRule(segment, propertyType string) Rule {
	return Rule{Kind: URLPath, Keywords: []string{segment}, Value: propertyType}
}

func (e *Extractor) Price(d *document.Document) string { return e.resolve(priceChain, d) }
func (e *Extractor) Address(d *document.Document) string { return e.resolve(addressChain, d) }
func (e *Extractor) Bedrooms(d *document.Document) string { return e.resolve(bedroomsChain, d) }
func (e *Extractor) Bathrooms(d *document.Document) string { return e.resolve(bathroomsChain, d) }
func (e *Extractor) ParkingSpaces(d *document.Document) string { return e.resolve(parkingChain, d) }
func (e *Extractor) LandSize(d *document.Document) string { return e.resolve(landSizeChain, d) }
func (e *Extractor) PropertyType(d *document.Document) string { return e.resolve(propertyTypeChain, d) }
func (e *Extractor) Description(d *document.Document) string { return e.resolve(descriptionChain, d) }
func (e *Extractor) Suburb(d *document.Document) string { return e.resolve(suburbChain, d) }
func (e *Extractor) Postcode(d *document.Document) string { return e.resolve(postcodeChain, d) }
func (e *Extractor) LastSoldPrice(d *document.Document) string { return e.resolve(lastSoldChain, d) }
func (e *Extractor) CouncilRates(d *document.Document) string { return e.resolve(councilRatesChain, d) }
func (e *Extractor) WalkScore(d *document.Document) string { return e.resolve(walkScoreChain, d) }
func (e *Extractor) Title(d *document.Document) string { return e.resolve(titleChain, d) }
