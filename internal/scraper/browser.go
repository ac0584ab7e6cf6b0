package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const antiDetectionScript = `
	Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
	Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3, 4, 5]});
	Object.defineProperty(navigator, 'languages', {get: () => ['en-AU', 'en']});
	const originalQuery = window.navigator.permissions.query;
	window.navigator.permissions.query = (parameters) => (
		parameters.name === 'notifications' ?
			Promise.resolve({ state: Notification.permission }) :
			originalQuery(parameters)
	);
`

// BrowserConfig controls the headless Chrome fetcher.
type BrowserConfig struct {
	Headless bool
	// Settle is how long to wait after load for client rendering and the
	// bot check to finish.
	Settle  time.Duration
	Timeout time.Duration
}

// DefaultBrowserConfig returns headless settings for listing pages.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless: true,
		Settle:   8 * time.Second,
		Timeout:  45 * time.Second,
	}
}

// BrowserFetcher renders listing pages in headless Chrome.
type BrowserFetcher struct {
	config   BrowserConfig
	log      *zap.Logger
	once     sync.Once
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewBrowserFetcher creates a browser fetcher. Chrome is started on the
// first Fetch.
func NewBrowserFetcher(config BrowserConfig, log *zap.Logger) *BrowserFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &BrowserFetcher{config: config, log: log}
}

func (f *BrowserFetcher) start() {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		// Anti-detection flags
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-features", "IsolateOrigins,site-per-process"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(browserUserAgent),
	)
	f.allocCtx, f.cancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() {
	if f.cancel != nil {
		f.cancel()
	}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	f.once.Do(f.start)

	taskCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()
	taskCtx, cancel = context.WithTimeout(taskCtx, f.config.Timeout)
	defer cancel()

	// stop the render when the caller goes away
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html, location string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": acceptLanguage}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(antiDetectionScript, nil),
		chromedp.Sleep(f.config.Settle),
		chromedp.OuterHTML("html", &html),
		chromedp.Location(&location),
	)
	if err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	f.log.Debug("page rendered", zap.String("url", location), zap.Int("bytes", len(html)))

	if blocked(html) {
		return nil, fmt.Errorf("%s: %w", url, ErrBlocked)
	}
	if location == "" {
		location = url
	}
	return &Page{URL: location, HTML: html}, nil
}
