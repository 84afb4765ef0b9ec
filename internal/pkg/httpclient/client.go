// Package httpclient provides a rate-limited HTTP client with retry logic
// for outbound JSON calls.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/archon-research/recruitment/internal/pkg/retry"
)

// Config holds the configuration for the HTTP client.
type Config struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	RateLimit      rate.Limit
	RateBurst      int
}

// DefaultConfig returns sensible defaults for the HTTP client.
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		RateLimit:      rate.Limit(20),
		RateBurst:      5,
	}
}

// Request describes a single outbound call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string

	// Body is encoded as JSON when non-nil.
	Body any
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected HTTP status %d: %s", e.StatusCode, e.Body)
}

// Client wraps an HTTP client with retry logic and rate limiting.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     retry.Policy
	logger     *slog.Logger
}

// NewClient creates a new HTTP client with the given configuration.
// Zero values in cfg fall back to DefaultConfig.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaults.RateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = defaults.RateBurst
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(cfg.RateLimit, cfg.RateBurst),
		logger:     logger.With("component", "httpclient"),
	}
	c.policy = retry.Policy{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		BackoffFactor:  cfg.BackoffFactor,
		Jitter:         true,
		IsRetryable:    IsRetryable,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			c.logger.Warn("request failed, retrying",
				"attempt", attempt,
				"maxRetries", cfg.MaxRetries,
				"backoff", backoff,
				"error", err,
			)
		},
	}
	return c
}

// Do performs the request with rate limiting and retries. When result is
// non-nil and the response has a body, it is decoded as JSON into result.
func (c *Client) Do(ctx context.Context, req Request, result any) error {
	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	return retry.DoVoid(ctx, c.policy, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return WrapNonRetryable(fmt.Errorf("rate limiter: %w", err))
		}
		return c.doSingleRequest(ctx, req, payload, result)
	})
}

func (c *Client) doSingleRequest(ctx context.Context, req Request, payload []byte, result any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return WrapNonRetryable(fmt.Errorf("creating request: %w", err))
	}

	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if resp.StatusCode >= 400 {
		return WrapNonRetryable(&StatusError{StatusCode: resp.StatusCode, Body: string(respBody)})
	}

	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return WrapNonRetryable(fmt.Errorf("parsing response: %w", err))
	}
	return nil
}

// NonRetryableError wraps errors that should not be retried.
type NonRetryableError struct {
	err error
}

func (e *NonRetryableError) Error() string {
	return e.err.Error()
}

func (e *NonRetryableError) Unwrap() error {
	return e.err
}

// WrapNonRetryable wraps an error to indicate it should not be retried.
func WrapNonRetryable(err error) error {
	return &NonRetryableError{err: err}
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var nonRetryable *NonRetryableError
	return !errors.As(err, &nonRetryable)
}
