// Package main runs the recruitment API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"sync/atomic"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"

	"github.com/archon-research/recruitment/db/migrator"
	httpadapter "github.com/archon-research/recruitment/internal/adapters/inbound/http"
	"github.com/archon-research/recruitment/internal/adapters/outbound/lognotify"
	"github.com/archon-research/recruitment/internal/adapters/outbound/memory"
	"github.com/archon-research/recruitment/internal/adapters/outbound/postgres"
	redisnotify "github.com/archon-research/recruitment/internal/adapters/outbound/redis"
	snsnotify "github.com/archon-research/recruitment/internal/adapters/outbound/sns"
	"github.com/archon-research/recruitment/internal/adapters/outbound/telemetry"
	"github.com/archon-research/recruitment/internal/adapters/outbound/webhook"
	"github.com/archon-research/recruitment/internal/application"
	"github.com/archon-research/recruitment/internal/pkg/env"
	"github.com/archon-research/recruitment/internal/ports/outbound"
)

const serviceName = "recruitment-api"

// Build-time variables
var (
	GitCommit string
	GitBranch string
	BuildTime string
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if GitCommit == "" {
					GitCommit = setting.Value
				}
			case "vcs.time":
				if BuildTime == "" {
					BuildTime = setting.Value
				}
			}
		}
	}
}

func main() {
	showVersion := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s\n", serviceName)
		fmt.Printf("  Commit:     %s\n", GitCommit)
		fmt.Printf("  Branch:     %s\n", GitBranch)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load environment
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	logger := env.NewLogger(os.Stdout, slog.LevelInfo)
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("recruitment api failed", "error", err)
		os.Exit(1)
	}
}

// run wires every component and serves until ctx is cancelled.
func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	logger.Info("starting "+serviceName,
		"commit", GitCommit,
		"branch", GitBranch,
		"buildTime", BuildTime,
		"storeBackend", cfg.StoreBackend,
		"notifiers", cfg.Notifiers,
	)

	// Telemetry
	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		ServiceName:    serviceName,
		ServiceVersion: GitCommit,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Stdout:         cfg.TraceStdout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	shutdownMetrics, err := telemetry.InitMetrics(ctx, telemetry.MetricConfig{
		ServiceName:    serviceName,
		ServiceVersion: GitCommit,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Warn("failed to shut down tracer", "error", err)
		}
		if err := shutdownMetrics(shutdownCtx); err != nil {
			logger.Warn("failed to shut down metrics", "error", err)
		}
	}()

	metrics, err := telemetry.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	// Store
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// Notifiers
	notifier, err := buildNotifier(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Warn("failed to close notifiers", "error", err)
		}
	}()

	// Service
	service, err := application.NewRecruitmentService(application.RecruitmentConfig{
		NotifyTimeout: cfg.NotifyTimeout,
		Metrics:       metrics,
		Logger:        logger,
	}, store, notifier)
	if err != nil {
		return fmt.Errorf("failed to create recruitment service: %w", err)
	}

	// HTTP
	var shuttingDown atomic.Bool
	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Addr:      cfg.HTTPAddr,
		RateLimit: cfg.HTTPRateLimit,
		RateBurst: cfg.HTTPRateBurst,
		Logger:    logger,
	},
		httpadapter.NewHandler(service, logger),
		httpadapter.NewHealthHandler(service, &shuttingDown, logger),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("received shutdown signal, draining requests", "timeout", cfg.ShutdownTimeout)
	}

	shuttingDown.Store(true)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("http server failed: %w", err)
	}

	logger.Info(serviceName + " stopped")
	return nil
}

// openStore creates the configured store backend. The returned function
// releases its resources.
func openStore(ctx context.Context, cfg Config, logger *slog.Logger) (outbound.RecruitmentStore, func(), error) {
	if cfg.StoreBackend != backendPostgres {
		logger.Info("using in-memory store")
		return memory.NewStore(logger), func() {}, nil
	}

	pool, err := postgres.OpenPool(ctx, postgres.DefaultDBConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	logger.Info("connected to PostgreSQL")

	if cfg.MigrateOnStart {
		if err := migrator.New(pool, cfg.MigrationsDir, logger).ApplyAll(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	txm, err := postgres.NewTxManager(pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	storeConfig := postgres.StoreConfigDefaults()
	storeConfig.Logger = logger
	store, err := postgres.NewStore(pool, txm, storeConfig)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

// buildNotifier creates every notifier named in cfg.Notifiers and fans out to them.
func buildNotifier(ctx context.Context, cfg Config, logger *slog.Logger) (*application.FanoutNotifier, error) {
	var (
		notifiers []outbound.Notifier
		errs      []error
	)

	for _, name := range cfg.Notifiers {
		n, err := newNotifier(ctx, name, cfg, logger)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s notifier: %w", name, err))
			continue
		}
		notifiers = append(notifiers, n)
		logger.Info("notifier enabled", "notifier", name)
	}

	fanout := application.NewFanoutNotifier(notifiers...)
	if err := errors.Join(errs...); err != nil {
		_ = fanout.Close()
		return nil, err
	}
	if fanout.Len() == 0 {
		logger.Warn("no notifiers configured, events will be dropped")
	}
	return fanout, nil
}

func newNotifier(ctx context.Context, name string, cfg Config, logger *slog.Logger) (outbound.Notifier, error) {
	switch name {
	case notifierLog:
		return lognotify.NewNotifier(logger), nil

	case notifierSNS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := awssns.NewFromConfig(awsCfg, func(o *awssns.Options) {
			if cfg.SNSEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.SNSEndpoint)
			}
		})
		snsConfig := snsnotify.ConfigDefaults()
		snsConfig.TopicARN = cfg.SNSTopicARN
		snsConfig.Logger = logger
		return snsnotify.NewNotifier(client, snsConfig)

	case notifierRedis:
		redisConfig := redisnotify.ConfigDefaults()
		redisConfig.Addr = cfg.RedisAddr
		redisConfig.Password = cfg.RedisPassword
		redisConfig.DB = cfg.RedisDB
		redisConfig.ChannelPrefix = cfg.RedisChannelPrefix
		n, err := redisnotify.NewNotifier(redisConfig, logger)
		if err != nil {
			return nil, err
		}
		if err := n.Ping(ctx); err != nil {
			_ = n.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return n, nil

	case notifierWebhook:
		webhookConfig := webhook.ConfigDefaults()
		webhookConfig.URL = cfg.WebhookURL
		return webhook.NewNotifier(webhookConfig, logger)

	default:
		return nil, fmt.Errorf("unknown notifier %q", name)
	}
}
