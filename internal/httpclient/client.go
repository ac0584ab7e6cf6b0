// Package httpclient builds the resty clients shared by the page fetchers,
// the geocoder and the upstream model client.
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Config controls timeouts, retry and pacing of one client.
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
	// RequestsPerSecond of zero or less disables pacing.
	RequestsPerSecond float64
	UserAgent         string
	BaseURL           string
}

// ServiceUserAgent identifies requests to public APIs whose usage policy asks
// for a descriptive user agent.
const ServiceUserAgent = "Homie/1.0 (property listing analysis)"

// DefaultConfig returns a client config with two retries and no user agent.
func DefaultConfig() Config {
	return Config{
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		MinWait:    500 * time.Millisecond,
		MaxWait:    5 * time.Second,
	}
}

// Client wraps resty with a rate limiter.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
}

// New creates a client. Retry decisions and waits follow go-retryablehttp's
// default policy: transport errors other than redirect, scheme and TLS
// failures, 429 and 5xx except 501 are retried, with exponential backoff
// between MinWait and MaxWait that honors Retry-After on 429 and 503.
func New(cfg Config) *Client {
	r := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.MinWait).
		SetRetryMaxWaitTime(cfg.MaxWait).
		AddRetryCondition(shouldRetry).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			return Backoff(cfg.MinWait, cfg.MaxWait, attempt(resp), rawResponse(resp)), nil
		})
	r.SetTransport(retryablehttp.NewClient().HTTPClient.Transport)
	if cfg.UserAgent != "" {
		r.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.BaseURL != "" {
		r.SetBaseURL(cfg.BaseURL)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{resty: r, limiter: limiter}
}

func shouldRetry(resp *resty.Response, err error) bool {
	raw := rawResponse(resp)
	if err == nil && raw == nil {
		return false
	}
	ctx := context.Background()
	if resp != nil && resp.Request != nil {
		ctx = resp.Request.Context()
	}
	retry, _ := retryablehttp.DefaultRetryPolicy(ctx, raw, err)
	return retry
}

// Backoff is the wait before retry attempt n (starting at 1).
func Backoff(minWait, maxWait time.Duration, n int, resp *http.Response) time.Duration {
	if n < 1 {
		n = 1
	}
	return retryablehttp.DefaultBackoff(minWait, maxWait, n-1, resp)
}

func attempt(resp *resty.Response) int {
	if resp == nil || resp.Request == nil {
		return 1
	}
	return resp.Request.Attempt
}

func rawResponse(resp *resty.Response) *http.Response {
	if resp == nil {
		return nil
	}
	return resp.RawResponse
}

// Resty exposes the underlying client for default headers and auth.
func (c *Client) Resty() *resty.Client {
	return c.resty
}

// Request waits for the rate limiter and returns a request bound to ctx.
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return c.resty.R().SetContext(ctx), nil
}
