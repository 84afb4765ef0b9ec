// Package sns implements the Notifier port using AWS SNS.
//
// Every application event is published as a JSON message to a single topic.
// Subscribers filter on message attributes:
//   - eventType: "STATUS_CHANGE", "APPLICATION_CREATED" or "APPLICATION_DELETED"
//   - jobTitle: the offer the application belongs to
//   - newStatus: the status after a status change (status change events only)
//
// FIFO topics (ARN ending in ".fifo") are grouped by job title and
// deduplicated by event ID.
package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"

	"github.com/archon-research/recruitment/internal/pkg/retry"
	"github.com/archon-research/recruitment/internal/ports/outbound"
)

// Compile-time check that Notifier implements outbound.Notifier
var _ outbound.Notifier = (*Notifier)(nil)

// ErrClosed is returned when publishing through a closed notifier.
var ErrClosed = errors.New("sns notifier is closed")

// SNSPublisher defines the subset of SNS client methods used by Notifier.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Config holds configuration for the SNS notifier.
type Config struct {
	// TopicARN is the topic every event is published to.
	TopicARN string

	// MaxRetries is the maximum number of retry attempts for transient failures.
	MaxRetries int

	// InitialBackoff is the initial delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum delay between retries.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier applied to backoff after each retry.
	BackoffFactor float64

	// Logger is the structured logger for the notifier.
	Logger *slog.Logger
}

// ConfigDefaults returns a config with default values.
func ConfigDefaults() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		Logger:         slog.Default(),
	}
}

// Notifier publishes application events to AWS SNS.
type Notifier struct {
	client SNSPublisher
	config Config
	fifo   bool
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewNotifier creates a new SNS notifier.
func NewNotifier(client SNSPublisher, config Config) (*Notifier, error) {
	if client == nil {
		return nil, errors.New("sns client is required")
	}
	if config.TopicARN == "" {
		return nil, errors.New("topic ARN is required")
	}

	defaults := ConfigDefaults()
	if config.MaxRetries == 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = defaults.BackoffFactor
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &Notifier{
		client: client,
		config: config,
		fifo:   strings.HasSuffix(config.TopicARN, ".fifo"),
		logger: config.Logger.With("component", "sns-notifier"),
	}, nil
}

// Publish publishes an event to the configured topic.
func (n *Notifier) Publish(ctx context.Context, event outbound.Event) error {
	n.mu.RLock()
	closed := n.closed
	n.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	input, err := n.buildInput(event)
	if err != nil {
		return err
	}

	policy := retry.Policy{
		MaxRetries:     n.config.MaxRetries,
		InitialBackoff: n.config.InitialBackoff,
		MaxBackoff:     n.config.MaxBackoff,
		BackoffFactor:  n.config.BackoffFactor,
		IsRetryable:    isRetryableError,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			n.logger.Warn("publish failed, retrying",
				"attempt", attempt,
				"maxRetries", n.config.MaxRetries,
				"backoff", backoff,
				"error", err,
				"eventType", event.EventType(),
				"eventId", event.GetID().String(),
			)
		},
	}

	err = retry.DoVoid(ctx, policy, func(ctx context.Context) error {
		_, err := n.client.Publish(ctx, input)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}

	n.logger.Debug("event published", "eventType", event.EventType(), "eventId", event.GetID().String())
	return nil
}

func (n *Notifier) buildInput(event outbound.Event) (*sns.PublishInput, error) {
	messageBytes, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	key := event.GetApplicationKey()
	attributes := map[string]types.MessageAttributeValue{
		"eventType": {
			DataType:    aws.String("String"),
			StringValue: aws.String(string(event.EventType())),
		},
	}
	// SNS rejects empty attribute values.
	if key.JobTitle != "" {
		attributes["jobTitle"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(key.JobTitle),
		}
	}
	if sc, ok := event.(outbound.StatusChangeEvent); ok && sc.NewStatus != "" {
		attributes["newStatus"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(string(sc.NewStatus)),
		}
	}

	input := &sns.PublishInput{
		TopicArn:          aws.String(n.config.TopicARN),
		Message:           aws.String(string(messageBytes)),
		MessageAttributes: attributes,
	}
	if n.fifo {
		input.MessageGroupId = aws.String(key.JobTitle)
		input.MessageDeduplicationId = aws.String(event.GetID().String())
	}
	return input, nil
}

// isRetryableError determines if an error should trigger a retry.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Request problems will fail the same way again.
	var invalidParam *types.InvalidParameterException
	if errors.As(err, &invalidParam) {
		return false
	}
	var notFound *types.NotFoundException
	if errors.As(err, &notFound) {
		return false
	}
	var authErr *types.AuthorizationErrorException
	if errors.As(err, &authErr) {
		return false
	}

	// Untyped API errors, e.g. from SNS-compatible endpoints.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidParameter", "InvalidParameterValue", "ValidationError", "NotFound", "AuthorizationError", "InvalidClientTokenId":
			return false
		}
	}

	// Throttling, internal errors and network issues are transient.
	return true
}

// Close marks the notifier as closed and prevents further publishing.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		n.logger.Info("SNS notifier closed")
	}
	return nil
}
