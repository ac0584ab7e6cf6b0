package scraper

import (
	"context"
	"errors"
	"strings"
)

// ErrBlocked is returned when the site answered with a bot challenge page.
var ErrBlocked = errors.New("blocked by bot protection")

const (
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
	acceptHTML       = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage   = "en-AU,en;q=0.9"

	// challenge pages carry the Kasada loader and little else
	challengeMarker  = "KPSDK"
	challengeMaxSize = 5000
)

// Page is the markup of one fetched listing.
type Page struct {
	URL  string
	HTML string
}

// Fetcher retrieves the rendered markup of a listing page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

func blocked(html string) bool {
	return len(html) < challengeMaxSize && strings.Contains(html, challengeMarker)
}
