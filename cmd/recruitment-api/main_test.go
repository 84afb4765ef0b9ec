package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/archon-research/recruitment/internal/adapters/outbound/memory"
	"github.com/archon-research/recruitment/internal/testutil"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "NOTIFIERS", "HTTP_ADDR", "NOTIFY_TIMEOUT", "SHUTDOWN_TIMEOUT", "HTTP_RATE_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreBackend != backendMemory {
		t.Errorf("expected memory backend, got %q", cfg.StoreBackend)
	}
	if len(cfg.Notifiers) != 1 || cfg.Notifiers[0] != notifierLog {
		t.Errorf("expected [log] notifiers, got %v", cfg.Notifiers)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.NotifyTimeout != 5*time.Second {
		t.Errorf("expected 5s notify timeout, got %v", cfg.NotifyTimeout)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected 10s shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
	if cfg.HTTPRateLimit != 100 || cfg.HTTPRateBurst != 200 {
		t.Errorf("unexpected rate limit %v/%d", cfg.HTTPRateLimit, cfg.HTTPRateBurst)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown backend",
			env:     map[string]string{"STORE_BACKEND": "mongo"},
			wantErr: "unknown STORE_BACKEND",
		},
		{
			name:    "postgres without url",
			env:     map[string]string{"STORE_BACKEND": "postgres", "DATABASE_URL": ""},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "unknown notifier",
			env:     map[string]string{"NOTIFIERS": "log,carrier-pigeon"},
			wantErr: "unknown notifier",
		},
		{
			name:    "sns without topic",
			env:     map[string]string{"NOTIFIERS": "sns", "SNS_TOPIC_ARN": ""},
			wantErr: "SNS_TOPIC_ARN is required",
		},
		{
			name:    "webhook without url",
			env:     map[string]string{"NOTIFIERS": "webhook", "WEBHOOK_URL": ""},
			wantErr: "WEBHOOK_URL is required",
		},
		{
			name:    "malformed duration",
			env:     map[string]string{"NOTIFY_TIMEOUT": "soon"},
			wantErr: "NOTIFY_TIMEOUT",
		},
		{
			name:    "negative rate limit",
			env:     map[string]string{"HTTP_RATE_LIMIT": "-1"},
			wantErr: "HTTP_RATE_LIMIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORE_BACKEND", "")
			t.Setenv("NOTIFIERS", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := loadConfig()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuildNotifier(t *testing.T) {
	ctx := context.Background()
	logger := testutil.DiscardLogger()

	fanout, err := buildNotifier(ctx, Config{Notifiers: []string{notifierLog, notifierWebhook}, WebhookURL: "http://localhost:9999/hook"}, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fanout.Len() != 2 {
		t.Errorf("expected 2 notifiers, got %d", fanout.Len())
	}

	if _, err := buildNotifier(ctx, Config{Notifiers: []string{notifierWebhook}, WebhookURL: "ftp://example.com"}, logger); err == nil {
		t.Error("expected error for invalid webhook URL")
	}

	empty, err := buildNotifier(ctx, Config{}, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty.Len() != 0 {
		t.Errorf("expected no notifiers, got %d", empty.Len())
	}
}

func TestOpenStore_Memory(t *testing.T) {
	store, closeStore, err := openStore(context.Background(), Config{StoreBackend: backendMemory}, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeStore()

	if _, ok := store.(*memory.Store); !ok {
		t.Errorf("expected *memory.Store, got %T", store)
	}
}

func TestRun_GracefulShutdown(t *testing.T) {
	cfg := Config{
		HTTPAddr:        "127.0.0.1:0",
		StoreBackend:    backendMemory,
		Notifiers:       []string{notifierLog},
		NotifyTimeout:   time.Second,
		ShutdownTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, cfg, testutil.DiscardLogger())
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}
