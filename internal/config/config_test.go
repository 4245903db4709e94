package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Confirmation.ExpiryWindow != 7*24*time.Hour {
		t.Errorf("Expected 7 day expiry window, got %s", cfg.Confirmation.ExpiryWindow)
	}
	if cfg.Retention.ConfirmationGrace != 90*24*time.Hour {
		t.Errorf("Expected 90 day confirmation grace, got %s", cfg.Retention.ConfirmationGrace)
	}
	if cfg.Vault.Enabled {
		t.Error("Expected Vault disabled by default")
	}
	if cfg.Vault.KeyName != "competency-notes" {
		t.Errorf("Expected default key name, got %s", cfg.Vault.KeyName)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CONFIRMATION_EXPIRY_WINDOW", "48h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RETENTION_ENABLE_AUDIT_PRUNING", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port override, got %s", cfg.Server.Port)
	}
	if cfg.Confirmation.ExpiryWindow != 48*time.Hour {
		t.Errorf("Expected 48h expiry window, got %s", cfg.Confirmation.ExpiryWindow)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Expected trimmed origin list, got %v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Retention.EnableAuditPruning {
		t.Error("Expected audit pruning enabled")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Expected error without JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "unit-test-secret")
	t.Setenv("CONFIRMATION_EXPIRY_WINDOW", "-1h")
	if _, err := Load(); err == nil {
		t.Error("Expected error for non-positive expiry window")
	}
	t.Setenv("CONFIRMATION_EXPIRY_WINDOW", "")

	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_PASSWORD", "")
	if _, err := Load(); err == nil {
		t.Error("Expected error for missing DB password in production")
	}
	t.Setenv("APP_ENV", "development")

	t.Setenv("VAULT_ENABLED", "true")
	t.Setenv("VAULT_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Error("Expected error for missing Vault token when enabled")
	}
}
