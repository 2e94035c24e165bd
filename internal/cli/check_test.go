package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/specguard/internal/logging"
	"github.com/ppiankov/specguard/internal/waiver"
)

const testGuide = `---
rules:
  - id: readme-present
    type: file_exists
    description: Project must have a README
    path: README.md
  - id: license-present
    type: file_exists
    description: Project must have a LICENSE
    path: LICENSE
---
# Repository hygiene
`

// setupProject points the CLI at a fresh project tree and resets flag state.
func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	rootDir = root
	settings = nil
	logger = logging.Discard()
	checkGuides = nil
	checkNoCache = false
	checkFormat = "text"
	checkBranch = "main"
	checkWatch = false
	checkMetrics = false
	waiveRules = nil
	waiveBy = ""
	waiversVerbose = false
	t.Cleanup(func() {
		rootDir = "."
		settings = nil
	})
	return root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCheckOnce_AllPass(t *testing.T) {
	root := setupProject(t)
	writeFile(t, root, "context/references/hygiene.md", testGuide)
	writeFile(t, root, "README.md", "# demo\n")
	writeFile(t, root, "LICENSE", "MIT\n")

	var buf bytes.Buffer
	failed, err := checkOnce(&buf)
	if err != nil {
		t.Fatalf("checkOnce failed: %v", err)
	}
	if failed {
		t.Error("expected a passing run")
	}
	out := buf.String()
	if !strings.Contains(out, "Found 1 guide(s)") {
		t.Errorf("missing guide count:\n%s", out)
	}
	if !strings.Contains(out, "All rules passed!") {
		t.Errorf("missing success message:\n%s", out)
	}

	data, err := os.ReadFile(filepath.Join(root, "compliance-report.md"))
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(data), "✅ COMPLIANT (2 passed)") {
		t.Errorf("unexpected report:\n%s", data)
	}
	if !strings.Contains(string(data), "main") {
		t.Error("report missing branch")
	}
}

func TestCheckOnce_FailureThenWaived(t *testing.T) {
	root := setupProject(t)
	writeFile(t, root, "context/references/hygiene.md", testGuide)
	writeFile(t, root, "README.md", "# demo\n")

	var buf bytes.Buffer
	failed, err := checkOnce(&buf)
	if err != nil {
		t.Fatalf("checkOnce failed: %v", err)
	}
	if !failed {
		t.Fatal("missing LICENSE should fail the run")
	}
	if !strings.Contains(buf.String(), "license-present") {
		t.Errorf("failed rule not listed:\n%s", buf.String())
	}

	store := waiver.NewStore(root)
	if _, err := store.Create("License pending legal review", []string{"license-present"}, ""); err != nil {
		t.Fatal(err)
	}

	settings = nil
	buf.Reset()
	failed, err = checkOnce(&buf)
	if err != nil {
		t.Fatalf("checkOnce failed: %v", err)
	}
	if failed {
		t.Errorf("waived failure should not fail the run:\n%s", buf.String())
	}
	data, err := os.ReadFile(filepath.Join(root, "compliance-report.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "W-001") {
		t.Errorf("report does not mention the waiver:\n%s", data)
	}
}

func TestCheckOnce_NoGuides(t *testing.T) {
	setupProject(t)

	var buf bytes.Buffer
	failed, err := checkOnce(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !failed {
		t.Error("a project without guides should fail")
	}
	if !strings.Contains(buf.String(), "No implementation guides found") {
		t.Errorf("missing warning:\n%s", buf.String())
	}
}

func TestCheckOnce_NoGuidesJSON(t *testing.T) {
	setupProject(t)
	checkFormat = "json"

	var buf bytes.Buffer
	failed, err := checkOnce(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !failed {
		t.Error("a project without guides should fail")
	}
	var got struct {
		Verdict string `json:"verdict"`
		Results []any  `json:"results"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got.Verdict != "NO RULES" || got.Results == nil || len(got.Results) != 0 {
		t.Errorf("summary = %+v", got)
	}
}

func TestCheckOnce_ExplicitGuideJSON(t *testing.T) {
	root := setupProject(t)
	writeFile(t, root, "docs/hygiene.md", testGuide)
	writeFile(t, root, "README.md", "# demo\n")
	checkGuides = []string{"docs/hygiene.md"}
	checkFormat = "json"
	checkMetrics = true

	var buf bytes.Buffer
	failed, err := checkOnce(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !failed {
		t.Error("expected failure for missing LICENSE")
	}

	var got struct {
		Verdict string `json:"verdict"`
		Counts  struct {
			Total  int `json:"total"`
			Failed int `json:"failed"`
		} `json:"counts"`
		Metrics *struct {
			RulesCount int `json:"rules_count"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got.Counts.Total != 2 || got.Counts.Failed != 1 {
		t.Errorf("counts = %+v", got.Counts)
	}
	if got.Verdict != "PARTIAL" {
		t.Errorf("verdict = %q", got.Verdict)
	}
	if got.Metrics == nil {
		t.Error("metrics missing with --metrics")
	}
}

func TestCheckOnce_RecordsHistory(t *testing.T) {
	root := setupProject(t)
	writeFile(t, root, "context/references/hygiene.md", testGuide)

	if _, err := checkOnce(&bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	historyLimit = 5
	historyFormat = "text"
	cmd := historyCmd
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	defer cmd.SetOut(nil)
	if err := runHistory(cmd, nil); err != nil {
		t.Fatalf("runHistory failed: %v", err)
	}
	if !strings.Contains(buf.String(), "PARTIAL") {
		t.Errorf("history missing run:\n%s", buf.String())
	}
}

func TestResolveGuides_Absolute(t *testing.T) {
	root := setupProject(t)
	abs := filepath.Join(root, "a.md")
	checkGuides = []string{abs, "b.md"}

	got, err := resolveGuides(nil, root)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != abs || got[1] != filepath.Join(root, "b.md") {
		t.Errorf("resolveGuides = %v", got)
	}
}
