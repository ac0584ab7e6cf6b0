// Package document wraps a parsed HTML page with the read-only lookups the
// extractors need: CSS selectors, XPath text scans and inline script payloads.
package document

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document is a parsed listing page together with the URL it was loaded from.
type Document struct {
	url  string
	doc  *goquery.Document
	root *html.Node
}

// Parse reads an HTML page.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &Document{
		url:  pageURL,
		doc:  goquery.NewDocumentFromNode(root),
		root: root,
	}, nil
}

// ParseString is Parse over an in-memory page.
func ParseString(page, pageURL string) (*Document, error) {
	return Parse(strings.NewReader(page), pageURL)
}

// URL returns the page URL.
func (d *Document) URL() string {
	return d.url
}

// QuerySelector returns the first element matching selector in document order.
// Invalid selectors match nothing.
func (d *Document) QuerySelector(selector string) (*goquery.Selection, bool) {
	sel := d.doc.Find(selector)
	if sel.Length() == 0 {
		return nil, false
	}
	return sel.First(), true
}

// QuerySelectorAll returns every element matching selector in document order.
func (d *Document) QuerySelectorAll(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Has reports whether any element matches selector.
func (d *Document) Has(selector string) bool {
	return d.doc.Find(selector).Length() > 0
}

// Text returns the text content of the body, or of the whole document when
// there is no body element.
func (d *Document) Text() string {
	if body := d.doc.Find("body"); body.Length() > 0 {
		return body.Text()
	}
	return d.doc.Text()
}

// ScriptsContaining returns the raw text of every inline script whose body
// contains marker. An empty marker returns all inline scripts.
func (d *Document) ScriptsContaining(marker string) []string {
	nodes, err := htmlquery.QueryAll(d.root, "//script")
	if err != nil {
		return nil
	}
	var payloads []string
	for _, n := range nodes {
		text := htmlquery.InnerText(n)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if marker == "" || strings.Contains(text, marker) {
			payloads = append(payloads, text)
		}
	}
	return payloads
}

// StructuredData returns the payloads of all JSON-LD scripts.
func (d *Document) StructuredData() []string {
	var payloads []string
	d.doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			payloads = append(payloads, text)
		}
	})
	return payloads
}

// FirstTextMatch walks elements containing keyword (case-insensitive) in
// document order and returns the first submatch of pattern found in an
// element's text content.
func (d *Document) FirstTextMatch(keyword string, pattern *regexp.Regexp) ([]string, bool) {
	expr := fmt.Sprintf(
		`//*[contains(translate(., 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), '%s')]`,
		strings.ToLower(keyword),
	)
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, false
	}
	for _, n := range nodes {
		if m := pattern.FindStringSubmatch(htmlquery.InnerText(n)); m != nil {
			return m, true
		}
	}
	return nil, false
}
