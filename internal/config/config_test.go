package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "INKWELL_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/inkwell.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false by default")
	}
	if cfg.UseRedis() {
		t.Error("UseRedis() = true without a Redis URL")
	}
	if cfg.RateLimitWindow != 10 || cfg.RateLimitMax != 10 {
		t.Errorf("rate limit defaults = %d/%d, want 10/10",
			cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	if cfg.WebhookWorkers != 3 {
		t.Errorf("WebhookWorkers = %d, want 3", cfg.WebhookWorkers)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "INKWELL_SESSION_SECRET", "custom-secret-key-32-bytes-long!")
	setEnv(t, "INKWELL_DB_PATH", "/custom/path.db")
	setEnv(t, "INKWELL_SERVER_HOST", "0.0.0.0")
	setEnv(t, "INKWELL_SERVER_PORT", "3000")
	setEnv(t, "INKWELL_ENV", "production")
	setEnv(t, "INKWELL_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true in production")
	}
	if !cfg.UseRedis() {
		t.Error("UseRedis() = false with a Redis URL set")
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when INKWELL_SESSION_SECRET is not set")
	}
}

func TestLoad_SessionSecretTooShort(t *testing.T) {
	os.Clearenv()
	setEnv(t, "INKWELL_SESSION_SECRET", "short")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a short session secret")
	}
}

func TestLoad_KnownWeakSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "INKWELL_SESSION_SECRET", "change-me-to-32-byte-secret-key!")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a known default secret")
	}
}
