package guide

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/specguard/internal/rule"
)

const validGuide = `---
title: API Guide
rules:
  - id: api-routes
    type: file_exists
    description: API routes module exists
    path: src/api/routes.py
  - id: flask-dep
    type: dependency_present
    description: Flask is declared
    file: requirements.txt
    package: flask
    version: ">=2.0"
  - id: auth-doc
    type: text_includes
    description: README documents auth
    file: README.md
    text: authentication
    case_sensitive: false
---
# API Guide

Body text.
`

func writeGuide(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractRulesDocumentOrder(t *testing.T) {
	path := writeGuide(t, t.TempDir(), "api-guide.md", validGuide)

	defs, err := ExtractRules(path)
	if err != nil {
		t.Fatalf("ExtractRules: %v", err)
	}
	want := []string{"api-routes", "flask-dep", "auth-doc"}
	if len(defs) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(defs))
	}
	for i, id := range want {
		if defs[i].ID() != id {
			t.Errorf("defs[%d].ID() = %q, want %q", i, defs[i].ID(), id)
		}
		if defs[i].Index != i {
			t.Errorf("defs[%d].Index = %d", i, defs[i].Index)
		}
		if defs[i].Line == 0 {
			t.Errorf("defs[%d].Line not recorded", i)
		}
	}
	if defs[2].Fields["case_sensitive"] != false {
		t.Errorf("case_sensitive = %v", defs[2].Fields["case_sensitive"])
	}
}

func TestExtractRulesNoFrontmatter(t *testing.T) {
	path := writeGuide(t, t.TempDir(), "plain.md", "# Just markdown\n\n---\nnot frontmatter\n---\n")

	defs, err := ExtractRules(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(defs) != 0 {
		t.Errorf("expected no rules, got %d", len(defs))
	}
}

func TestExtractRulesNoRulesKey(t *testing.T) {
	path := writeGuide(t, t.TempDir(), "meta.md", "---\ntitle: Only metadata\n---\nbody\n")

	defs, err := ExtractRules(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(defs) != 0 {
		t.Errorf("expected no rules, got %d", len(defs))
	}
}

func TestExtractRulesParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"malformed yaml", "---\nrules: [unclosed\n---\n", "malformed YAML"},
		{"scalar frontmatter", "---\njust a string\n---\n", "must be a YAML mapping"},
		{"list frontmatter", "---\n- a\n- b\n---\n", "must be a YAML mapping, got list"},
		{"rules not a list", "---\nrules:\n  id: x\n---\n", "'rules' in frontmatter must be a list, got mapping"},
		{"rules null", "---\nrules:\n---\n", "got null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeGuide(t, t.TempDir(), "bad.md", tt.content)
			_, err := ExtractRules(path)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantMsg)
			}
			if pe.Path != path {
				t.Errorf("Path = %q, want %q", pe.Path, path)
			}
			if !strings.Contains(pe.Example, "rules:") {
				t.Error("parse error should carry a syntax example")
			}
		})
	}
}

func TestExtractRulesRuleScopedErrors(t *testing.T) {
	content := `---
rules:
  - id: good
    type: file_exists
    description: ok
    path: a
  - id: missing-path
    type: file_exists
    description: no path
---
`
	path := writeGuide(t, t.TempDir(), "g.md", content)

	_, err := ExtractRules(path)
	var re *RuleError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RuleError, got %T: %v", err, err)
	}
	if re.RuleID != "missing-path" || re.Index != 1 {
		t.Errorf("RuleID/Index = %q/%d", re.RuleID, re.Index)
	}
	if re.Line != 7 {
		t.Errorf("Line = %d, want 7", re.Line)
	}
	var se *rule.SchemaError
	if !errors.As(err, &se) || se.Field != "path" {
		t.Errorf("expected schema error on path, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing-path") {
		t.Errorf("error should name the rule: %v", err)
	}
}

func TestExtractRulesMissingIDUsesIndex(t *testing.T) {
	content := "---\nrules:\n  - type: file_exists\n    description: d\n    path: a\n---\n"
	path := writeGuide(t, t.TempDir(), "g.md", content)

	_, err := ExtractRules(path)
	if err == nil || !strings.Contains(err.Error(), "rules[0]") {
		t.Fatalf("expected index-scoped error, got %v", err)
	}
}

func TestExtractRulesNonMappingEntry(t *testing.T) {
	path := writeGuide(t, t.TempDir(), "g.md", "---\nrules:\n  - just-a-string\n---\n")

	_, err := ExtractRules(path)
	var re *RuleError
	if !errors.As(err, &re) || re.Index != 0 {
		t.Fatalf("expected RuleError at index 0, got %v", err)
	}
}

func TestExtractRulesDuplicateID(t *testing.T) {
	content := `---
rules:
  - {id: dup, type: file_exists, description: a, path: a}
  - {id: dup, type: file_exists, description: b, path: b}
---
`
	path := writeGuide(t, t.TempDir(), "g.md", content)

	_, err := ExtractRules(path)
	if err == nil || !strings.Contains(err.Error(), "duplicate id") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestExtractRulesMissingFile(t *testing.T) {
	if _, err := ExtractRules(filepath.Join(t.TempDir(), "nope.md")); err == nil {
		t.Fatal("expected error for missing guide")
	}
}

func TestParseRulesAliases(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			"aliased entry",
			`---
base: &r {id: readme, type: file_exists, description: d, path: README.md}
rules:
  - *r
  - {id: other, type: file_exists, description: d, path: b}
---
`,
			[]string{"readme", "other"},
		},
		{
			"aliased list",
			`---
shared: &all
  - {id: a, type: file_exists, description: d, path: a}
  - {id: b, type: file_exists, description: d, path: b}
rules: *all
---
`,
			[]string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs, err := ParseRules([]byte(tt.content))
			if err != nil {
				t.Fatalf("ParseRules: %v", err)
			}
			if len(defs) != len(tt.want) {
				t.Fatalf("expected %d rules, got %d", len(tt.want), len(defs))
			}
			for i, id := range tt.want {
				if defs[i].ID() != id {
					t.Errorf("defs[%d].ID() = %q, want %q", i, defs[i].ID(), id)
				}
			}
		})
	}
}

func TestRuleErrorWithoutPath(t *testing.T) {
	_, err := ParseRules([]byte(`---
rules:
  - just-a-string
---
`))
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.HasPrefix(err.Error(), ":") {
		t.Errorf("error without a path has a bare location prefix: %q", err.Error())
	}
	if !strings.HasPrefix(err.Error(), "rules[0]") {
		t.Errorf("error = %q, want it to start with rules[0]", err.Error())
	}
}

func TestSplitFrontmatterBody(t *testing.T) {
	block, body, ok := SplitFrontmatter([]byte("---\na: 1\n---\nbody\n"))
	if !ok {
		t.Fatal("expected frontmatter")
	}
	if string(block) != "a: 1" {
		t.Errorf("block = %q", block)
	}
	if string(body) != "body\n" {
		t.Errorf("body = %q", body)
	}
}

func TestID(t *testing.T) {
	if got := ID("/p/context/references/api-guide.md"); got != "api-guide" {
		t.Errorf("ID = %q", got)
	}
}
