// Package gateway is the typed client of the marketplace REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coziyoo-seed/internal/middleware"
	"coziyoo-seed/internal/retry"

	"github.com/rs/zerolog"
)

const maxResponseBody = 1 << 20

var errUnexpectedStatus = errors.New("unexpected response status")

// Config holds the immutable settings of a Client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	CountryCode string
	Language    string
	OrderRetry  retry.Policy
	UserAgent   string
}

// Client calls the marketplace API. It holds no mutable state and is safe to
// share between callers.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	countryCode string
	language    string
	orderRetry  retry.Policy
	logger      zerolog.Logger
}

// NewClient creates a gateway client. A nil transport uses http.DefaultTransport.
func NewClient(cfg Config, transport http.RoundTripper, logger zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if err := cfg.OrderRetry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid order retry policy: %w", err)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "coziyoo-seed"
	}

	logger = logger.With().Str("component", "gateway").Logger()

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: middleware.Chain(transport,
				middleware.DefaultHeaders(map[string]string{
					"Content-Type": "application/json",
					"Accept":       "application/json",
					"User-Agent":   cfg.UserAgent,
				}),
				middleware.Logging(logger),
			),
		},
		countryCode: cfg.CountryCode,
		language:    cfg.Language,
		orderRetry:  cfg.OrderRetry,
		logger:      logger,
	}, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// postJSON sends payload and returns the status and raw body.
func (c *Client) postJSON(ctx context.Context, path string, headers map[string]string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response of %s: %w", path, err)
	}
	return resp.StatusCode, raw, nil
}

func decodeData[T any](raw []byte) (T, error) {
	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to decode response: %w", err)
	}
	return env.Data, nil
}
