// Package project reads and writes the per-project settings file
// .specify/project.json.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// RelPath is the project config location relative to the project root.
const RelPath = ".specify/project.json"

// DefaultDivision applies when the config is missing, unreadable or silent.
const DefaultDivision = "SE"

var validDivision = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// fallbackDivisions are offered when the references tree has no division
// subdirectories.
var fallbackDivisions = []string{"DS", "Platform", "SE"}

// Config is the decoded project.json. Keys other than division are kept so
// they survive a rewrite.
type Config map[string]any

// Division returns the configured division or DefaultDivision.
func (c Config) Division() string {
	if s, ok := c["division"].(string); ok && s != "" {
		return s
	}
	return DefaultDivision
}

func path(root string) string {
	return filepath.Join(root, filepath.FromSlash(RelPath))
}

// Read loads the project config. A missing or corrupt file yields a config
// holding only the default division.
func Read(root string) Config {
	data, err := os.ReadFile(path(root))
	if err != nil {
		return Config{"division": DefaultDivision}
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil || c == nil {
		return Config{"division": DefaultDivision}
	}
	if _, ok := c["division"]; !ok {
		c["division"] = DefaultDivision
	}
	return c
}

// Division is shorthand for Read(root).Division().
func Division(root string) string {
	return Read(root).Division()
}

// ValidateName checks the division identifier format.
func ValidateName(division string) error {
	if division == "" {
		return fmt.Errorf("division must be a non-empty string")
	}
	if !validDivision.MatchString(division) {
		return fmt.Errorf("invalid division format: %s", division)
	}
	return nil
}

// WriteDivision stores division in project.json, keeping other keys.
// Uses atomic write (tmp + rename).
func WriteDivision(root, division string) error {
	if err := ValidateName(division); err != nil {
		return err
	}

	dir := filepath.Dir(path(root))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	existing := Config{}
	if data, err := os.ReadFile(path(root)); err == nil {
		// A corrupt file is replaced rather than merged.
		if err := json.Unmarshal(data, &existing); err != nil || existing == nil {
			existing = Config{}
		}
	}
	existing["division"] = division

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project config: %w", err)
	}
	data = append(data, '\n')

	tmp := strings.TrimSuffix(path(root), ".json") + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write project config: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write project config: %w", err)
	}
	if err := os.Rename(tmp, path(root)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write project config: %w", err)
	}
	return nil
}

// KnownDivisions lists the non-hidden subdirectories of context/references,
// sorted. When there are none it returns the built-in set.
func KnownDivisions(root string) []string {
	entries, err := os.ReadDir(filepath.Join(root, "context", "references"))
	if err != nil {
		return append([]string(nil), fallbackDivisions...)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallbackDivisions...)
	}
	sort.Strings(out)
	return out
}

// CheckKnown reports whether division is one of KnownDivisions.
func CheckKnown(root, division string) error {
	known := KnownDivisions(root)
	for _, d := range known {
		if d == division {
			return nil
		}
	}
	return fmt.Errorf("invalid division '%s'. Valid options: %s", division, strings.Join(known, ", "))
}
