package env

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	t.Setenv("ENV_TEST_SET", "value")
	if got := Get("ENV_TEST_SET", "default"); got != "value" {
		t.Errorf("expected value, got %q", got)
	}
	if got := Get("ENV_TEST_UNSET", "default"); got != "default" {
		t.Errorf("expected default, got %q", got)
	}
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{name: "unset uses default", value: "", want: 7},
		{name: "parsed", value: "42", want: 42},
		{name: "surrounding space", value: " 3 ", want: 3},
		{name: "garbage", value: "many", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENV_TEST_INT", tt.value)
			got, err := GetInt("ENV_TEST_INT", 7)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "ENV_TEST_INT") {
					t.Errorf("expected error to name the variable, got %q", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestGetDuration(t *testing.T) {
	t.Setenv("ENV_TEST_DURATION", "")
	got, err := GetDuration("ENV_TEST_DURATION", 5*time.Second)
	if err != nil || got != 5*time.Second {
		t.Errorf("expected default 5s, got %v (err %v)", got, err)
	}

	t.Setenv("ENV_TEST_DURATION", "250ms")
	got, err = GetDuration("ENV_TEST_DURATION", 5*time.Second)
	if err != nil || got != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v (err %v)", got, err)
	}

	t.Setenv("ENV_TEST_DURATION", "10")
	if _, err := GetDuration("ENV_TEST_DURATION", time.Second); err == nil {
		t.Error("expected error for duration without unit")
	}
}

func TestGetFloatAndBool(t *testing.T) {
	t.Setenv("ENV_TEST_FLOAT", "2.5")
	f, err := GetFloat("ENV_TEST_FLOAT", 1)
	if err != nil || f != 2.5 {
		t.Errorf("expected 2.5, got %v (err %v)", f, err)
	}

	t.Setenv("ENV_TEST_BOOL", "true")
	b, err := GetBool("ENV_TEST_BOOL", false)
	if err != nil || !b {
		t.Errorf("expected true, got %v (err %v)", b, err)
	}

	t.Setenv("ENV_TEST_BOOL", "maybe")
	if _, err := GetBool("ENV_TEST_BOOL", false); err == nil {
		t.Error("expected error for invalid bool")
	}
}

func TestGetList(t *testing.T) {
	t.Setenv("ENV_TEST_LIST", " log, sns ,,redis ")
	got := GetList("ENV_TEST_LIST", "log")
	want := []string{"log", "sns", "redis"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	t.Setenv("ENV_TEST_LIST", "")
	if got := GetList("ENV_TEST_LIST", "log"); len(got) != 1 || got[0] != "log" {
		t.Errorf("expected default [log], got %v", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)
			if got := ParseLogLevel(slog.LevelInfo); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewLogger_Format(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")

	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("hello", "key", "value")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}

	t.Setenv("LOG_FORMAT", "")
	buf.Reset()
	NewLogger(&buf, slog.LevelInfo).Info("hello", "key", "value")
	if !strings.Contains(buf.String(), "key=value") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}
