package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("DEFAULT_OWNER_ID", "")
	t.Setenv("FITBIT_REDIRECT_URL", "")
	t.Setenv("APP_URL", "https://relay.example.com")

	cfg := Load()
	if cfg.DefaultOwnerID != PlaceholderOwnerID {
		t.Fatalf("expected placeholder owner, got %q", cfg.DefaultOwnerID)
	}
	if cfg.FitbitRedirectURL != "https://relay.example.com/api/fitbit/callback" {
		t.Fatalf("unexpected redirect url %q", cfg.FitbitRedirectURL)
	}
	if cfg.S3Bucket != "" {
		t.Fatalf("expected storage to be unconfigured")
	}
}

func TestLoadAgentOverrides(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "30s")
	t.Setenv("SYNC_BATCH_SIZE", "not-a-number")
	t.Setenv("FITBIT_PUSH_ENABLED", "false")

	cfg := LoadAgent()
	if cfg.SyncInterval != 30*time.Second {
		t.Fatalf("expected 30s, got %s", cfg.SyncInterval)
	}
	if cfg.SyncBatchSize != 100 {
		t.Fatalf("invalid batch size should fall back to 100, got %d", cfg.SyncBatchSize)
	}
	if cfg.FitbitPushEnabled {
		t.Fatal("expected fitbit push disabled")
	}
	if cfg.FitbitPushInterval != 5*time.Minute {
		t.Fatalf("expected 5m push interval, got %s", cfg.FitbitPushInterval)
	}
}

func TestEnvList(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	got := envList("CORS_ORIGINS", []string{"*"})
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", got)
	}
}

func TestSanitizedDropsSecrets(t *testing.T) {
	cfg := &Config{
		AppEnv:             "production",
		FitbitClientSecret: "secret",
		TokenEncryptionKey: "key",
		FitbitStateSecret:  "state",
		S3SecretKey:        "s3",
		SentryDSN:          "dsn",
	}
	s := cfg.Sanitized()
	if s.FitbitClientSecret != "" || s.TokenEncryptionKey != "" || s.FitbitStateSecret != "" || s.S3SecretKey != "" || s.SentryDSN != "" {
		t.Fatalf("sanitized config leaks secrets: %+v", s)
	}
	if s.AppEnv != "production" {
		t.Fatal("expected public fields kept")
	}
}
