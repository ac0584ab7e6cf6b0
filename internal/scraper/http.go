package scraper

import (
	"context"
	"fmt"
	"net/http"

	"homie/internal/httpclient"
)

// HTTPFetcher downloads listing pages directly with browser-like headers.
// Bot-protected pages usually need BrowserFetcher or ScrapingBeeFetcher.
type HTTPFetcher struct {
	client *httpclient.Client
}

// NewHTTPFetcher creates a direct fetcher.
func NewHTTPFetcher(cfg httpclient.Config) *HTTPFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = browserUserAgent
	}
	client := httpclient.New(cfg)
	client.Resty().
		SetHeader("Accept", acceptHTML).
		SetHeader("Accept-Language", acceptLanguage)
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := f.client.Request(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: HTTP %d", url, resp.StatusCode())
	}

	html := resp.String()
	if blocked(html) {
		return nil, fmt.Errorf("%s: %w", url, ErrBlocked)
	}
	return &Page{URL: url, HTML: html}, nil
}
