package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Commit.DuplicateWindow != 10*time.Second {
		t.Fatalf("expected 10s duplicate window, got %s", cfg.Commit.DuplicateWindow)
	}
	if cfg.Commit.ClaimLease != time.Minute {
		t.Fatalf("expected 1m claim lease, got %s", cfg.Commit.ClaimLease)
	}
	if cfg.Commit.OrderNumberLength != 8 {
		t.Fatalf("expected order number length 8, got %d", cfg.Commit.OrderNumberLength)
	}
	if cfg.Tables.Orders != "orders" || cfg.Tables.OrderItems != "order_items" {
		t.Fatalf("unexpected table defaults: %+v", cfg.Tables)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PEDIDOS_TABLES_ORDERS", "orders-prod")
	t.Setenv("PEDIDOS_COMMIT_DUPLICATE_WINDOW", "30s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Tables.Orders != "orders-prod" {
		t.Fatalf("expected env table override, got %s", cfg.Tables.Orders)
	}
	if cfg.Commit.DuplicateWindow != 30*time.Second {
		t.Fatalf("expected 30s, got %s", cfg.Commit.DuplicateWindow)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "log:\n  level: debug\ncache:\n  redis_addr: localhost:6379\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug level, got %s", cfg.Log.Level)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" {
		t.Fatalf("expected redis addr from file, got %q", cfg.Cache.RedisAddr)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

// chdir switches the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
