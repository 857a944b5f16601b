package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"AUDD_API_TOKEN", "AUDD_ENDPOINT", "AUDD_RETURN", "OUTPUT_DIR", "LOG_LEVEL", "HTTP_TIMEOUT", "REDIS_DB", "LISTEN_ADDR"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIToken != DefaultAPIToken {
		t.Errorf("APIToken = %q, want %q", cfg.APIToken, DefaultAPIToken)
	}
	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("Endpoint = %q, want %q", cfg.Endpoint, DefaultEndpoint)
	}
	if cfg.Return != DefaultReturn {
		t.Errorf("Return = %q, want %q", cfg.Return, DefaultReturn)
	}
	if cfg.OutputDir != "" {
		t.Errorf("OutputDir = %q, want empty", cfg.OutputDir)
	}
	if cfg.HTTPTimeout != DefaultTimeout {
		t.Errorf("HTTPTimeout = %v, want %v", cfg.HTTPTimeout, DefaultTimeout)
	}
	if cfg.ListenAddr != DefaultListen {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, DefaultListen)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUDD_API_TOKEN", "secret")
	t.Setenv("AUDD_RETURN", "spotify")
	t.Setenv("HTTP_TIMEOUT", "30s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIToken != "secret" {
		t.Errorf("APIToken = %q, want secret", cfg.APIToken)
	}
	if cfg.Return != "spotify" {
		t.Errorf("Return = %q, want spotify", cfg.Return)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB = %d, want 3", cfg.RedisDB)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad timeout", key: "HTTP_TIMEOUT", val: "soon"},
		{name: "bad redis db", key: "REDIS_DB", val: "one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HTTP_TIMEOUT", "")
			t.Setenv("REDIS_DB", "")
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q: expected error", tt.key, tt.val)
			}
		})
	}
}

func TestGetDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL_DEFAULT", "postgres://default")
	t.Setenv("DATABASE_URL_STAGING", "postgres://staging")
	os.Unsetenv("DATABASE_URL_MISSING")

	tests := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{name: "default", id: "", want: "postgres://default"},
		{name: "named", id: "staging", want: "postgres://staging"},
		{name: "missing", id: "missing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetDatabaseURL(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetDatabaseURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("GetDatabaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"ERROR", slog.LevelError},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
