// Package config loads tool settings from .specify/governance.yaml with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RelPath is the config file location relative to the project root.
const RelPath = ".specify/governance.yaml"

// CacheConfig controls the guide discovery cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// HistoryConfig controls run history recording.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ReportConfig controls the markdown report.
type ReportConfig struct {
	File string `yaml:"file"`
}

// Config holds all specguard settings.
type Config struct {
	ProjectName string        `yaml:"project_name"`
	LogLevel    string        `yaml:"log_level"`
	Cache       CacheConfig   `yaml:"cache"`
	History     HistoryConfig `yaml:"history"`
	Report      ReportConfig  `yaml:"report"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Report: ReportConfig{
			File: "compliance-report.md",
		},
	}
}

// Path returns the config file path for projectRoot.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, filepath.FromSlash(RelPath))
}

// Load returns defaults overlaid with the project's config file, then with
// SPECGUARD_* environment variables. A missing file is not an error;
// invalid YAML is.
func Load(projectRoot string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(projectRoot))
	switch {
	case err == nil:
		// YAML overwrites only specified fields.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", RelPath, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", RelPath, err)
	}

	cfg.applyEnv()

	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = time.Hour
	}
	if cfg.Report.File == "" {
		cfg.Report.File = "compliance-report.md"
	}
	if cfg.ProjectName == "" {
		if abs, err := filepath.Abs(projectRoot); err == nil {
			cfg.ProjectName = filepath.Base(abs)
		}
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getenv("SPECGUARD_LOG_LEVEL", c.LogLevel)
	if getenvBool("SPECGUARD_NO_CACHE", false) {
		c.Cache.Enabled = false
	}
	c.Cache.TTL = getenvDuration("SPECGUARD_CACHE_TTL", c.Cache.TTL)
	c.History.Enabled = getenvBool("SPECGUARD_HISTORY", c.History.Enabled)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
