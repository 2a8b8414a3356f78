package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWithLookuper_Defaults(t *testing.T) {
	cfg, err := LoadWithLookuper(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
	if cfg.ClinicAPI.BaseURL != "http://localhost:8000/api" {
		t.Fatalf("unexpected api url %q", cfg.ClinicAPI.BaseURL)
	}
	if cfg.Session.Backend != StorageRedis || cfg.Session.IdleTTL != 30*time.Minute {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if !cfg.Audit.Enabled || cfg.Audit.Workers != 4 {
		t.Fatalf("unexpected audit config: %+v", cfg.Audit)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env")
	}
}

func TestLoadWithLookuper_Overrides(t *testing.T) {
	cfg, err := LoadWithLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"CLINIC_API_URL":  "https://api.clinic.test",
		"STORAGE_BACKEND": "memory",
		"AUDIT_WORKERS":   "0",
		"AUTH_RATE_LIMIT": "2.5",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ClinicAPI.BaseURL != "https://api.clinic.test" || cfg.Session.Backend != StorageMemory {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Audit.Workers != 1 {
		t.Fatalf("expected workers clamped to 1, got %d", cfg.Audit.Workers)
	}
	if cfg.AuthRateLimit != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %v", cfg.AuthRateLimit)
	}
}

func TestLoadWithLookuper_RejectsUnknownBackend(t *testing.T) {
	_, err := LoadWithLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORAGE_BACKEND": "localstorage",
	}))
	if err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadWithLookuper_RejectsShortSecret(t *testing.T) {
	_, err := LoadWithLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"SESSION_SECRET": "short",
	}))
	if err == nil {
		t.Fatalf("expected error for short session secret")
	}
}

func TestLoadWithLookuper_DefaultSecretOutsideDevelopment(t *testing.T) {
	_, err := LoadWithLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV": "production",
	}))
	if err == nil {
		t.Fatalf("expected error for default session secret in production")
	}

	cfg, err := LoadWithLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":            "production",
		"SESSION_SECRET": "a-real-secret-from-the-vault",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("expected production env")
	}
}

func TestLoadWithLookuper_AuditRetention(t *testing.T) {
	cfg, err := LoadWithLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"AUDIT_RETENTION": "0s",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Audit.Retention != 0 {
		t.Fatalf("expected retention disabled, got %v", cfg.Audit.Retention)
	}
}
