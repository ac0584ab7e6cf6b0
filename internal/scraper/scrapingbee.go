package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"homie/internal/httpclient"
)

const scrapingBeeURL = "https://app.scrapingbee.com/api/v1/"

// ScrapingBeeOptions configures the ScrapingBee request
type ScrapingBeeOptions struct {
	// RenderJS enables JavaScript rendering (needed for dynamic content)
	RenderJS bool
	// Premium uses premium proxies (residential IPs)
	Premium bool
	// Stealth uses stealth proxies. Costs 75 credits per request instead of 25.
	Stealth bool
	// Country sets the proxy country (e.g., "au" for Australia)
	Country string
	// WaitForSelector waits for a CSS selector before returning
	WaitForSelector string
	// Wait adds a fixed delay in milliseconds after page load
	Wait int
	// BlockResources blocks images, stylesheets, etc.
	BlockResources bool
}

// DefaultListingOptions returns options for a listing details page.
func DefaultListingOptions() ScrapingBeeOptions {
	return ScrapingBeeOptions{
		RenderJS:        true,
		Premium:         true,
		Country:         "au",
		WaitForSelector: ".property-info, h1",
		Wait:            3000,
		BlockResources:  true,
	}
}

// ScrapingBeeFetcher fetches pages through ScrapingBee's rendering proxy.
type ScrapingBeeFetcher struct {
	client *httpclient.Client
	apiKey string
	opts   ScrapingBeeOptions
	log    *zap.Logger
}

// NewScrapingBeeFetcher creates a ScrapingBee fetcher. An empty baseURL uses
// the public API endpoint.
func NewScrapingBeeFetcher(apiKey, baseURL string, opts ScrapingBeeOptions, log *zap.Logger) *ScrapingBeeFetcher {
	if baseURL == "" {
		baseURL = scrapingBeeURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg := httpclient.DefaultConfig()
	// stealth rendering can take up to three minutes
	cfg.Timeout = 180 * time.Second
	cfg.MaxRetries = 1
	cfg.BaseURL = baseURL
	return &ScrapingBeeFetcher{client: httpclient.New(cfg), apiKey: apiKey, opts: opts, log: log}
}

func (f *ScrapingBeeFetcher) params(targetURL string) map[string]string {
	params := map[string]string{
		"api_key": f.apiKey,
		"url":     targetURL,
	}
	if f.opts.RenderJS {
		params["render_js"] = "true"
	}
	if f.opts.Stealth {
		params["stealth_proxy"] = "true"
	} else if f.opts.Premium {
		params["premium_proxy"] = "true"
	}
	if f.opts.Country != "" {
		params["country_code"] = f.opts.Country
	}
	if f.opts.WaitForSelector != "" {
		params["wait_for"] = f.opts.WaitForSelector
	}
	if f.opts.Wait > 0 {
		params["wait"] = strconv.Itoa(f.opts.Wait)
	}
	if f.opts.BlockResources {
		params["block_resources"] = "true"
	}
	return params
}

func (f *ScrapingBeeFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := f.client.Request(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := req.SetQueryParams(f.params(url)).Get("")
	if err != nil {
		return nil, fmt.Errorf("ScrapingBee request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		// error details are in the body
		return nil, fmt.Errorf("ScrapingBee error (HTTP %d): %s", resp.StatusCode(), resp.String())
	}

	if cost := resp.Header().Get("Spb-Cost"); cost != "" {
		f.log.Debug("scrapingbee credits used", zap.String("url", url), zap.String("cost", cost))
	}

	html := resp.String()
	if blocked(html) {
		return nil, fmt.Errorf("%s: %w", url, ErrBlocked)
	}
	return &Page{URL: url, HTML: html}, nil
}
