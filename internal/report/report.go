// Package report renders compliance results as a markdown document and as
// terminal/JSON summaries.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/specguard/internal/compliance"
)

// DefaultFile is the report file name in the project root.
const DefaultFile = "compliance-report.md"

// Generator renders and writes the compliance report of one project.
type Generator struct {
	root string
	file string
	now  func() time.Time
}

// NewGenerator returns a generator writing to file under projectRoot. An
// empty file selects DefaultFile.
func NewGenerator(projectRoot, file string) *Generator {
	if file == "" {
		file = DefaultFile
	}
	return &Generator{root: projectRoot, file: file, now: time.Now}
}

// Path returns the report file path.
func (g *Generator) Path() string {
	if filepath.IsAbs(g.file) {
		return g.file
	}
	return filepath.Join(g.root, g.file)
}

// Overall returns the overall status line for the summary section.
func Overall(c compliance.Counts) string {
	switch {
	case c.Fail > 0:
		return "⚠️ PARTIAL (failures found)"
	case c.Error > 0:
		return "⚠️ PARTIAL (errors encountered)"
	case c.Total == 0:
		return "❓ NO RULES (no guides found)"
	default:
		return fmt.Sprintf("✅ COMPLIANT (%d passed)", c.Pass)
	}
}

// Generate renders results as markdown. projectName defaults to the base
// name of the project root; branch is omitted when empty.
func (g *Generator) Generate(results []compliance.Result, projectName, branch string) string {
	if projectName == "" {
		if abs, err := filepath.Abs(g.root); err == nil {
			projectName = filepath.Base(abs)
		} else {
			projectName = filepath.Base(g.root)
		}
	}

	var b strings.Builder
	g.header(&b, projectName, branch)
	summary(&b, results)
	guides(&b, results)
	passed(&b, results)
	failed(&b, results)
	waived(&b, results)
	errored(&b, results)
	return b.String()
}

// Write replaces the report file with content and returns its path.
func (g *Generator) Write(content string) (string, error) {
	path := g.Path()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", path, err)
	}
	return path, nil
}

// GenerateAndWrite renders results and writes the report.
func (g *Generator) GenerateAndWrite(results []compliance.Result, projectName, branch string) (string, error) {
	return g.Write(g.Generate(results, projectName, branch))
}

func (g *Generator) header(b *strings.Builder, projectName, branch string) {
	b.WriteString("# Compliance Report\n\n")
	fmt.Fprintf(b, "**Project**: %s\n", projectName)
	if branch != "" {
		fmt.Fprintf(b, "**Branch**: %s\n", branch)
	}
	fmt.Fprintf(b, "**Generated**: %s\n\n", g.now().UTC().Format(compliance.TimestampFormat))
}

func summary(b *strings.Builder, results []compliance.Result) {
	c := compliance.Count(results)
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(b, "**Overall Status**: %s\n\n", Overall(c))
	b.WriteString("| Metric | Count |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(b, "| Total Rules | %d |\n", c.Total)
	fmt.Fprintf(b, "| ✅ Passed | %d |\n", c.Pass)
	fmt.Fprintf(b, "| ❌ Failed | %d |\n", c.Fail)
	fmt.Fprintf(b, "| 🚫 Waived | %d |\n", c.Waived)
	fmt.Fprintf(b, "| ⚠️ Errors | %d |\n\n", c.Error)
}

// guides lists every guide that was read, including missing ones but not
// those that failed to parse.
func guides(b *strings.Builder, results []compliance.Result) {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range results {
		if r.Status == compliance.StatusError && r.RuleID != compliance.DiscoveryErrorID {
			continue
		}
		if !seen[r.GuideID] {
			seen[r.GuideID] = true
			ids = append(ids, r.GuideID)
		}
	}
	if len(ids) == 0 {
		return
	}
	sort.Strings(ids)
	b.WriteString("## Guides Checked\n\n")
	for _, id := range ids {
		fmt.Fprintf(b, "- %s\n", id)
	}
	b.WriteString("\n")
}

func sorted(results []compliance.Result, s compliance.Status) []compliance.Result {
	out := compliance.Filter(results, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].RuleID < out[j].RuleID })
	return out
}

func passed(b *strings.Builder, results []compliance.Result) {
	rs := sorted(results, compliance.StatusPass)
	if len(rs) == 0 {
		return
	}
	b.WriteString("## ✅ Passed Rules\n\n")
	for _, r := range rs {
		fmt.Fprintf(b, "- **%s** (%s)\n", r.RuleID, r.GuideID)
		fmt.Fprintf(b, "  - Message: %s\n", r.Message)
	}
	b.WriteString("\n")
}

func failed(b *strings.Builder, results []compliance.Result) {
	rs := sorted(results, compliance.StatusFail)
	if len(rs) == 0 {
		return
	}
	b.WriteString("## ❌ Failed Rules\n\n")
	for _, r := range rs {
		fmt.Fprintf(b, "- **%s** (%s)\n", r.RuleID, r.GuideID)
		fmt.Fprintf(b, "  - Type: %s\n", r.RuleType)
		fmt.Fprintf(b, "  - Message: %s\n", r.Message)
		fmt.Fprintf(b, "  - Details: %s\n", r.Target)
		fmt.Fprintf(b, "\n  **Recommendation**: Review the implementation guide for %s to understand the requirement for %s.\n",
			r.GuideID, r.RuleID)
		fmt.Fprintf(b, "  Alternatively, create a waiver if this failure is intentional: `%s`\n\n", WaiveCommand(r.RuleID))
	}
}

func waived(b *strings.Builder, results []compliance.Result) {
	rs := sorted(results, compliance.StatusWaived)
	if len(rs) == 0 {
		return
	}
	b.WriteString("## 🚫 Waived Rules\n\n")
	for _, r := range rs {
		fmt.Fprintf(b, "- **%s** (waiver: %s)\n", r.RuleID, r.WaiverID)
		fmt.Fprintf(b, "  - Guide: %s\n", r.GuideID)
		fmt.Fprintf(b, "  - Status: %s\n", r.Message)
	}
	b.WriteString("\n")
}

func errored(b *strings.Builder, results []compliance.Result) {
	rs := sorted(results, compliance.StatusError)
	if len(rs) == 0 {
		return
	}
	b.WriteString("## ⚠️ Errors\n\n")
	for _, r := range rs {
		fmt.Fprintf(b, "- **%s**: %s\n", strings.ToUpper(r.RuleType), r.Message)
		if r.Hint != "" {
			b.WriteString("  - Expected frontmatter:\n\n")
			writeIndented(b, "```yaml\n"+r.Hint+"\n```", "    ")
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
}

func writeIndented(b *strings.Builder, text, indent string) {
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(indent + line + "\n")
	}
}

// WaiveCommand is the command line that records a waiver for ruleID.
func WaiveCommand(ruleID string) string {
	return fmt.Sprintf(`specguard waive "<reason>" --rule %s`, ruleID)
}
