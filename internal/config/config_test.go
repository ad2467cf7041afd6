package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func loadFrom(t *testing.T, dir string) Config {
	t.Helper()
	cfg, err := load(filepath.Join(dir, ".env"), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := loadFrom(t, t.TempDir())

	if cfg.Server.Port != 3000 || cfg.Addr() != ":3000" {
		t.Fatalf("unexpected port %d", cfg.Server.Port)
	}
	if cfg.Development() {
		t.Fatal("expected production by default")
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "data/users.db" || !cfg.Database.AutoMigrate {
		t.Fatalf("unexpected database defaults %+v", cfg.Database)
	}
	if cfg.RateLimit.Max != 100 || cfg.RateLimit.Window != time.Minute {
		t.Fatalf("unexpected rate limit defaults %+v", cfg.RateLimit)
	}
	if len(cfg.CORS.AllowedOrigins) != 4 || cfg.CORS.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected origins %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Log.Dir != "logs" || cfg.Log.Archive.Interval != time.Hour || cfg.Log.Archive.Bucket != "" {
		t.Fatalf("unexpected log defaults %+v", cfg.Log)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("NODE_ENV", "development")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg := loadFrom(t, t.TempDir())
	if cfg.Server.Port != 8081 {
		t.Fatalf("expected port override, got %d", cfg.Server.Port)
	}
	if !cfg.Development() {
		t.Fatal("expected NODE_ENV fallback to select development")
	}
	if cfg.RateLimit.Max != 5 || cfg.RateLimit.Window != 30*time.Second {
		t.Fatalf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %q", cfg.CORS.AllowedOrigins)
	}
	if cfg.Database.AutoMigrate {
		t.Fatal("expected auto migrate disabled")
	}
}

func TestAppEnvWinsOverNodeEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("NODE_ENV", "development")
	if loadFrom(t, t.TempDir()).Development() {
		t.Fatal("expected APP_ENV to take precedence")
	}
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "LOG_DIR=/var/log/users-api\nDB_PATH=/tmp/from-dotenv.db\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DB_PATH", "/tmp/from-env.db")
	t.Cleanup(func() { _ = os.Unsetenv("LOG_DIR") })

	cfg := loadFrom(t, dir)
	if cfg.Log.Dir != "/var/log/users-api" {
		t.Fatalf("expected LOG_DIR from .env, got %q", cfg.Log.Dir)
	}
	if cfg.Database.Path != "/tmp/from-env.db" {
		t.Fatalf("expected process env to win over .env, got %q", cfg.Database.Path)
	}
}

func TestInvalidDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := load(filepath.Join(t.TempDir(), ".env"), t.TempDir()); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}
