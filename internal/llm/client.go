// Package llm calls an OpenAI-compatible chat completion endpoint for listing
// analysis, suburb demographics and growth-rate lookups.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"homie/internal/httpclient"
)

// Config holds upstream client settings.
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	MaxRetries        int
	MinBackoff        time.Duration
	MaxBackoff        time.Duration
	RequestsPerSecond float64
}

// DefaultConfig returns the settings the analysis prompt was tuned for.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o",
		Temperature: 0.3,
		MaxTokens:   2500,
		Timeout:     60 * time.Second,
		MaxRetries:  2,
		MinBackoff:  time.Second,
		MaxBackoff:  8 * time.Second,
	}
}

// Client is a chat completion client with bounded retry.
type Client struct {
	http *httpclient.Client
	cfg  Config
	log  *zap.Logger
}

// New creates a client. Retries are capped at two.
func New(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxRetries > 2 {
		cfg.MaxRetries = 2
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	client := httpclient.New(httpclient.Config{
		Timeout:           cfg.Timeout,
		MaxRetries:        cfg.MaxRetries,
		MinWait:           cfg.MinBackoff,
		MaxWait:           cfg.MaxBackoff,
		RequestsPerSecond: cfg.RequestsPerSecond,
		UserAgent:         httpclient.ServiceUserAgent,
		BaseURL:           strings.TrimRight(cfg.BaseURL, "/"),
	})
	client.Resty().
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey)

	return &Client{http: client, cfg: cfg, log: log}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

// Complete sends one system and one user message and returns the reply text.
// With jsonMode the endpoint is asked for a JSON object.
func (c *Client) Complete(ctx context.Context, op, system, user string, jsonMode bool) (string, error) {
	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	if jsonMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	req, err := c.http.Request(ctx)
	if err != nil {
		return "", c.failed(&UpstreamError{Op: op, Err: err})
	}
	resp, err := req.SetBody(body).Post("/chat/completions")
	if err != nil {
		return "", c.failed(&UpstreamError{Op: op, Err: err})
	}

	var out chatResponse
	decodeErr := json.Unmarshal(resp.Body(), &out)

	if resp.StatusCode() != http.StatusOK {
		cause := errors.New(http.StatusText(resp.StatusCode()))
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			cause = errors.New(out.Error.Message)
		}
		return "", c.failed(&UpstreamError{Op: op, StatusCode: resp.StatusCode(), Err: cause})
	}
	if decodeErr != nil {
		return "", c.malformed(op, resp.String(), fmt.Sprintf("decode body: %v", decodeErr))
	}
	if out.Error != nil {
		return "", c.failed(&UpstreamError{Op: op, StatusCode: resp.StatusCode(), Err: errors.New(out.Error.Message)})
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", c.malformed(op, resp.String(), "no choices")
	}

	return out.Choices[0].Message.Content, nil
}

func (c *Client) failed(err *UpstreamError) error {
	c.log.Error("upstream call failed",
		zap.String("op", err.Op),
		zap.Int("status", err.StatusCode),
		zap.Error(err.Err),
	)
	return err
}

const responsePrefixLen = 200

func (c *Client) malformed(op, body, detail string) error {
	prefix := body
	if len(prefix) > responsePrefixLen {
		prefix = prefix[:responsePrefixLen]
	}
	c.log.Warn("malformed upstream response",
		zap.String("op", op),
		zap.String("detail", detail),
		zap.String("response_prefix", prefix),
	)
	return malformed(op, detail)
}
