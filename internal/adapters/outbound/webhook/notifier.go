// Package webhook implements the Notifier port by POSTing events as JSON to
// an HTTP endpoint.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/archon-research/recruitment/internal/pkg/httpclient"
	"github.com/archon-research/recruitment/internal/ports/outbound"
)

// Compile-time check that Notifier implements outbound.Notifier
var _ outbound.Notifier = (*Notifier)(nil)

// Header names sent with every delivery.
const (
	HeaderEventType = "X-Recruitment-Event"
	HeaderEventID   = "X-Recruitment-Event-Id"
)

// Config holds webhook notifier configuration.
type Config struct {
	// URL receives a POST per event.
	URL string
	// Headers are added to every request (e.g. an authorization token).
	Headers map[string]string
	// Client configures timeouts, retries and rate limiting.
	Client httpclient.Config
}

// ConfigDefaults returns a config with default client settings.
func ConfigDefaults() Config {
	return Config{
		Client: httpclient.DefaultConfig(),
	}
}

// Notifier delivers events to a webhook endpoint.
type Notifier struct {
	url     string
	headers map[string]string
	client  *httpclient.Client
	logger  *slog.Logger
}

// NewNotifier creates a new webhook notifier.
func NewNotifier(cfg Config, logger *slog.Logger) (*Notifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook URL is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid webhook URL %q", cfg.URL)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "webhook-notifier")

	return &Notifier{
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  httpclient.NewClient(cfg.Client, logger),
		logger:  logger,
	}, nil
}

// Publish POSTs the event to the webhook.
func (n *Notifier) Publish(ctx context.Context, event outbound.Event) error {
	headers := make(map[string]string, len(n.headers)+2)
	for k, v := range n.headers {
		headers[k] = v
	}
	headers[HeaderEventType] = string(event.EventType())
	headers[HeaderEventID] = event.GetID().String()

	err := n.client.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		URL:     n.url,
		Headers: headers,
		Body:    event,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}

	n.logger.Debug("webhook delivered", "eventType", event.EventType(), "eventId", event.GetID().String())
	return nil
}

// Close is a no-op; the underlying HTTP client holds no dedicated resources.
func (n *Notifier) Close() error {
	return nil
}
