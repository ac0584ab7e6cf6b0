package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"homie/internal/document"
	"homie/internal/models"
)

var (
	featureSelectors = []string{
		".general-features__feature",
		".property-features__feature",
		`[data-testid="property-features__list-item"]`,
	}

	inspectionSelectors = []string{
		".inspection-times",
		`[data-testid="listing-details__inspection"]`,
	}

	agentNameSelectors   = []string{".agent-info__name", `[data-testid="agent-name"]`}
	agentAgencySelectors = []string{".agent-info__agency", `[data-testid="agent-agency"]`}

	// gallery, hero and carousel images, in collection order
	imageSelectors = []string{
		`.gallery-image, img[data-testid="gallery-image"], [class*="GalleryContainer"] img`,
		`.hero-image, img[data-testid="hero-image"], [class*="HeroImage"] img`,
		`[class*="Carousel"] img, [class*="carousel"] img`,
	}
	imageDataAttrs = []string{"data-src", "data-image-src", "data-image-url"}

	backgroundImage = regexp.MustCompile(`(?i)background-image:\s*url\(['"]?([^'"()]+)['"]?\)`)
	imageDimensions = regexp.MustCompile(`(\d+)x(\d+)`)
)

const minImageDimension = 200

// Features returns the feature list of the first selector that matches.
func (e *Extractor) Features(d *document.Document) []string {
	features := []string{}
	for _, sel := range featureSelectors {
		nodes := d.QuerySelectorAll(sel)
		if nodes.Length() == 0 {
			continue
		}
		nodes.Each(func(_ int, s *goquery.Selection) {
			if f := strings.TrimSpace(s.Text()); f != "" {
				features = append(features, f)
			}
		})
		return features
	}
	return features
}

// NearbyAmenities returns list items per amenity section. Sections without
// items are left out.
func (e *Extractor) NearbyAmenities(d *document.Document) models.Amenities {
	amenities := models.Amenities{}
	for _, category := range []string{models.AmenitySchools, models.AmenityTransport, models.AmenityShops} {
		section, ok := d.QuerySelector(`[data-testid="` + category + `"]`)
		if !ok {
			continue
		}
		items := section.Find("li")
		if items.Length() == 0 {
			continue
		}
		items.Each(func(_ int, s *goquery.Selection) {
			amenities[category] = append(amenities[category], strings.TrimSpace(s.Text()))
		})
	}
	return amenities
}

// InspectionTimes returns the inspection list items, the container text when
// the container has no list, or the sentinel list.
func (e *Extractor) InspectionTimes(d *document.Document) []string {
	for _, sel := range inspectionSelectors {
		element, ok := d.QuerySelector(sel)
		if !ok {
			continue
		}
		items := element.Find("li")
		if items.Length() == 0 {
			return []string{strings.TrimSpace(element.Text())}
		}
		times := make([]string, 0, items.Length())
		items.Each(func(_ int, s *goquery.Selection) {
			times = append(times, strings.TrimSpace(s.Text()))
		})
		return times
	}
	return []string{models.NoInspectionTimes}
}

// AgentDetails reads the listing agent's name, agency and phone number.
func (e *Extractor) AgentDetails(d *document.Document) models.AgentDetails {
	var agent models.AgentDetails
	agent.Name = firstText(d, agentNameSelectors)
	agent.Agency = firstText(d, agentAgencySelectors)
	if phone, ok := d.QuerySelector(`a[href^="tel:"]`); ok {
		agent.Phone = strings.TrimSpace(phone.Text())
	}
	return agent
}

func firstText(d *document.Document, selectors []string) string {
	for _, sel := range selectors {
		if element, ok := d.QuerySelector(sel); ok {
			if text := strings.TrimSpace(element.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// Images collects unique absolute image URLs, dropping images whose URL
// carries dimensions no larger than 200px on both sides.
func (e *Extractor) Images(d *document.Document) []string {
	base, _ := url.Parse(d.URL())
	seen := map[string]bool{}
	images := []string{}

	add := func(raw string) {
		src := absoluteURL(base, raw)
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		images = append(images, src)
	}

	for _, sel := range imageSelectors {
		d.QuerySelectorAll(sel).Each(func(_ int, s *goquery.Selection) {
			add(firstAttr(s, "src", "data-src"))
		})
	}

	d.QuerySelectorAll(`[style*="background-image"]`).Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		if m := backgroundImage.FindStringSubmatch(style); m != nil {
			add(m[1])
		}
	})

	d.QuerySelectorAll(`[data-src], [data-image-src], [data-image-url]`).Each(func(_ int, s *goquery.Selection) {
		add(firstAttr(s, imageDataAttrs...))
	})

	filtered := images[:0]
	for _, src := range images {
		if largeEnough(src) {
			filtered = append(filtered, src)
		}
	}
	return filtered
}

func firstAttr(s *goquery.Selection, attrs ...string) string {
	for _, attr := range attrs {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func absoluteURL(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base == nil || ref.IsAbs() {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func largeEnough(src string) bool {
	m := imageDimensions.FindStringSubmatch(src)
	if m == nil {
		return true
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	return w > minImageDimension || h > minImageDimension
}
