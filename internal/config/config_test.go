package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFallsBackToDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("FILTEREXPR_CONFIG", filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned an error for a missing file: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want default :8080", cfg.Server.Addr)
	}
	if cfg.Limits.MaxExpressionBytes != 4096 {
		t.Errorf("Limits.MaxExpressionBytes = %d, want default 4096", cfg.Limits.MaxExpressionBytes)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "server:\n  addr: \":9999\"\nlimits:\n  max_expression_bytes: 128\n  max_json_bytes: 2048\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write fixture config: %v", err)
	}
	t.Setenv("FILTEREXPR_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %q, want :9999", cfg.Server.Addr)
	}
	if cfg.Limits.MaxExpressionBytes != 128 {
		t.Errorf("Limits.MaxExpressionBytes = %d, want 128", cfg.Limits.MaxExpressionBytes)
	}
	if cfg.Limits.MaxJSONBytes != 2048 {
		t.Errorf("Limits.MaxJSONBytes = %d, want 2048", cfg.Limits.MaxJSONBytes)
	}
}
