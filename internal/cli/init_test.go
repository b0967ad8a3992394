package cli

import (
	"os"
	"path/filepath"
	"testing"

	"salesengine/internal/config"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("SALESENGINE_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("SALESENGINE_TEST_VALUE", "")
	os.Unsetenv("SALESENGINE_TEST_VALUE")

	if err := LoadEnvFile(envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("SALESENGINE_TEST_VALUE"); got != "from-file" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "csv")
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")

	cfg, err := LoadAndValidateConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("unexpected port %q", cfg.Port)
	}

	t.Setenv("DATA_BACKEND", "postgres")
	if _, err := LoadAndValidateConfig(); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}

func TestInitSQLite(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "error"})

	repo, err := InitSQLite(logger, filepath.Join(t.TempDir(), "sales.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
