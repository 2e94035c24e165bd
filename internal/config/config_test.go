package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{"SPECGUARD_LOG_LEVEL", "SPECGUARD_NO_CACHE", "SPECGUARD_CACHE_TTL", "SPECGUARD_HISTORY"}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	p := Path(root)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	root := filepath.Join(t.TempDir(), "svc")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" || !cfg.Cache.Enabled || cfg.Cache.TTL != time.Hour {
		t.Errorf("defaults = %+v", cfg)
	}
	if !cfg.History.Enabled || cfg.Report.File != "compliance-report.md" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.ProjectName != "svc" {
		t.Errorf("ProjectName = %q, want directory name", cfg.ProjectName)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeConfig(t, root, `
project_name: payments
log_level: debug
cache:
  ttl: 15m
history:
  enabled: false
`)

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProjectName != "payments" || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Cache.TTL != 15*time.Minute {
		t.Errorf("TTL = %v", cfg.Cache.TTL)
	}
	if !cfg.Cache.Enabled {
		t.Error("unspecified cache.enabled should keep its default")
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeConfig(t, root, "cache: [")
	if _, err := Load(root); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeConfig(t, root, "log_level: warn\n")

	t.Setenv("SPECGUARD_LOG_LEVEL", "error")
	t.Setenv("SPECGUARD_NO_CACHE", "true")
	t.Setenv("SPECGUARD_CACHE_TTL", "30s")
	t.Setenv("SPECGUARD_HISTORY", "0")

	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "error" || cfg.Cache.Enabled || cfg.Cache.TTL != 30*time.Second || cfg.History.Enabled {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadBadEnvFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPECGUARD_CACHE_TTL", "soon")
	t.Setenv("SPECGUARD_NO_CACHE", "maybe")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.TTL != time.Hour || !cfg.Cache.Enabled {
		t.Errorf("cfg = %+v", cfg)
	}
}
