// Package redis implements the Notifier port using Redis pub/sub.
//
// Events are published as JSON to a channel per event type, in the format
// prefix:events:eventType. Each event is also pushed onto a capped,
// expiring history list per application (prefix:history:jobTitle:email) so
// late subscribers can catch up.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/archon-research/recruitment/internal/domain/entity"
	"github.com/archon-research/recruitment/internal/ports/outbound"
)

// Compile-time check that Notifier implements outbound.Notifier
var _ outbound.Notifier = (*Notifier)(nil)

// Config holds Redis notifier configuration.
type Config struct {
	// Addr is the Redis server address (e.g., "localhost:6379")
	Addr string
	// Password for Redis authentication (empty for no auth)
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// ChannelPrefix is prepended to all channel and key names
	ChannelPrefix string
	// HistorySize is how many events are kept per application (0 disables history)
	HistorySize int64
	// HistoryTTL is how long a history list lives after its last event
	HistoryTTL time.Duration
}

// ConfigDefaults returns sensible defaults for the Redis notifier.
func ConfigDefaults() Config {
	return Config{
		Addr:          "localhost:6379",
		Password:      "",
		DB:            0,
		ChannelPrefix: "recruitment",
		HistorySize:   50,
		HistoryTTL:    7 * 24 * time.Hour,
	}
}

// Notifier publishes application events to Redis.
type Notifier struct {
	client        *redis.Client
	channelPrefix string
	historySize   int64
	historyTTL    time.Duration
	logger        *slog.Logger
}

// NewNotifier creates a new Redis notifier.
func NewNotifier(cfg Config, logger *slog.Logger) (*Notifier, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.ChannelPrefix == "" {
		cfg.ChannelPrefix = ConfigDefaults().ChannelPrefix
	}
	if cfg.HistorySize > 0 && cfg.HistoryTTL <= 0 {
		cfg.HistoryTTL = ConfigDefaults().HistoryTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "redis-notifier")

	return &Notifier{
		client:        client,
		channelPrefix: cfg.ChannelPrefix,
		historySize:   cfg.HistorySize,
		historyTTL:    cfg.HistoryTTL,
		logger:        logger,
	}, nil
}

// Ping checks the Redis connection.
func (n *Notifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (n *Notifier) Close() error {
	return n.client.Close()
}

// Channel returns the pub/sub channel events of the given type are sent to.
func (n *Notifier) Channel(eventType outbound.EventType) string {
	return fmt.Sprintf("%s:events:%s", n.channelPrefix, eventType)
}

// historyKey returns the list key holding an application's recent events.
func (n *Notifier) historyKey(key entity.ApplicationKey) string {
	return fmt.Sprintf("%s:history:%s:%s", n.channelPrefix, key.JobTitle, key.CandidateEmail)
}

// Publish sends the event to its channel and records it in the
// application's history in a single transaction.
func (n *Notifier) Publish(ctx context.Context, event outbound.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := n.Channel(event.EventType())
	var published *redis.IntCmd

	_, err = n.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		published = pipe.Publish(ctx, channel, payload)
		if n.historySize > 0 {
			key := n.historyKey(event.GetApplicationKey())
			pipe.LPush(ctx, key, payload)
			pipe.LTrim(ctx, key, 0, n.historySize-1)
			pipe.Expire(ctx, key, n.historyTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	n.logger.Debug("event published",
		"channel", channel,
		"eventId", event.GetID().String(),
		"subscribers", published.Val(),
	)
	return nil
}

// History returns the most recent events recorded for an application,
// newest first.
func (n *Notifier) History(ctx context.Context, key entity.ApplicationKey) ([]json.RawMessage, error) {
	items, err := n.client.LRange(ctx, n.historyKey(key), 0, -1).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	result := make([]json.RawMessage, len(items))
	for i, item := range items {
		result[i] = json.RawMessage(item)
	}
	return result, nil
}
