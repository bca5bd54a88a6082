package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeout != 5*time.Second {
		t.Errorf("expected read timeout 5s, got %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level info, got %s", cfg.LogLevel)
	}
	if cfg.RateLimit.RPS != 50 || cfg.RateLimit.Burst != 100 {
		t.Errorf("unexpected rate limit: %+v", cfg.RateLimit)
	}
	if cfg.Engagement.Enabled() {
		t.Error("expected engagement disabled without account id")
	}
	if cfg.Engagement.Timeout != 5*time.Second {
		t.Errorf("expected engagement timeout 5s, got %s", cfg.Engagement.Timeout)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "forms-prod")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("ENGAGEMENT_ACCOUNT_ID", "TEST-123")
	t.Setenv("ENGAGEMENT_PASSCODE", "secret")
	t.Setenv("RATE_LIMIT_RPS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.HTTP.Port)
	}
	if cfg.TraceProject != "forms-prod" {
		t.Errorf("expected trace project forms-prod, got %s", cfg.TraceProject)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("unexpected origins: %v", cfg.HTTP.AllowedOrigins)
	}
	if !cfg.Engagement.Enabled() {
		t.Error("expected engagement enabled")
	}
	if cfg.RateLimit.RPS != 0 {
		t.Errorf("expected rps 0, got %v", cfg.RateLimit.RPS)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	if err := os.Unsetenv("LOG_LEVEL"); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug from .env, got %s", cfg.LogLevel)
	}
}

func TestLoadRequiresPasscodeWithAccount(t *testing.T) {
	t.Setenv("ENGAGEMENT_ACCOUNT_ID", "TEST-123")
	t.Setenv("ENGAGEMENT_PASSCODE", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when passcode is missing")
	}
}
