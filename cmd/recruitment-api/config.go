package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/archon-research/recruitment/internal/pkg/env"
)

// Store backends.
const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
)

// Notifier names accepted in NOTIFIERS.
const (
	notifierLog     = "log"
	notifierSNS     = "sns"
	notifierRedis   = "redis"
	notifierWebhook = "webhook"
)

var knownNotifiers = []string{notifierLog, notifierSNS, notifierRedis, notifierWebhook}

// Config is the process configuration, read from the environment.
type Config struct {
	HTTPAddr      string
	HTTPRateLimit float64
	HTTPRateBurst int

	StoreBackend   string
	DatabaseURL    string
	MigrationsDir  string
	MigrateOnStart bool

	Notifiers     []string
	NotifyTimeout time.Duration

	SNSTopicARN string
	AWSRegion   string
	SNSEndpoint string

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RedisChannelPrefix string

	WebhookURL string

	OTLPEndpoint string
	TraceStdout  bool
	Environment  string

	ShutdownTimeout time.Duration
}

// loadConfig reads the configuration from environment variables and validates it.
func loadConfig() (Config, error) {
	var (
		cfg  Config
		err  error
		errs []error
	)

	cfg.HTTPAddr = env.Get("HTTP_ADDR", ":8080")
	if cfg.HTTPRateLimit, err = env.GetFloat("HTTP_RATE_LIMIT", 100); err != nil {
		errs = append(errs, err)
	}
	if cfg.HTTPRateBurst, err = env.GetInt("HTTP_RATE_BURST", 200); err != nil {
		errs = append(errs, err)
	}

	cfg.StoreBackend = strings.ToLower(env.Get("STORE_BACKEND", backendMemory))
	cfg.DatabaseURL = env.Get("DATABASE_URL", "")
	cfg.MigrationsDir = env.Get("MIGRATIONS_DIR", "db/migrations")
	if cfg.MigrateOnStart, err = env.GetBool("MIGRATE_ON_START", true); err != nil {
		errs = append(errs, err)
	}

	cfg.Notifiers = env.GetList("NOTIFIERS", notifierLog)
	if cfg.NotifyTimeout, err = env.GetDuration("NOTIFY_TIMEOUT", 5*time.Second); err != nil {
		errs = append(errs, err)
	}

	cfg.SNSTopicARN = env.Get("SNS_TOPIC_ARN", "")
	cfg.AWSRegion = env.Get("AWS_REGION", "eu-west-1")
	cfg.SNSEndpoint = env.Get("AWS_SNS_ENDPOINT", "")

	cfg.RedisAddr = env.Get("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = env.Get("REDIS_PASSWORD", "")
	if cfg.RedisDB, err = env.GetInt("REDIS_DB", 0); err != nil {
		errs = append(errs, err)
	}
	cfg.RedisChannelPrefix = env.Get("REDIS_CHANNEL_PREFIX", "recruitment")

	cfg.WebhookURL = env.Get("WEBHOOK_URL", "")

	cfg.OTLPEndpoint = env.Get("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	if cfg.TraceStdout, err = env.GetBool("TRACE_STDOUT", false); err != nil {
		errs = append(errs, err)
	}
	cfg.Environment = env.Get("ENVIRONMENT", "development")

	if cfg.ShutdownTimeout, err = env.GetDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error

	switch c.StoreBackend {
	case backendMemory:
	case backendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q (want %s or %s)", c.StoreBackend, backendMemory, backendPostgres))
	}

	for _, name := range c.Notifiers {
		if !slices.Contains(knownNotifiers, name) {
			errs = append(errs, fmt.Errorf("unknown notifier %q in NOTIFIERS (want any of %s)", name, strings.Join(knownNotifiers, ",")))
		}
	}
	if c.hasNotifier(notifierSNS) && c.SNSTopicARN == "" {
		errs = append(errs, errors.New("SNS_TOPIC_ARN is required for the sns notifier"))
	}
	if c.hasNotifier(notifierWebhook) && c.WebhookURL == "" {
		errs = append(errs, errors.New("WEBHOOK_URL is required for the webhook notifier"))
	}

	if c.HTTPRateLimit < 0 {
		errs = append(errs, errors.New("HTTP_RATE_LIMIT must not be negative"))
	}

	return errors.Join(errs...)
}

func (c Config) hasNotifier(name string) bool {
	return slices.Contains(c.Notifiers, name)
}
