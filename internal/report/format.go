package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/specguard/internal/compliance"
	"github.com/ppiankov/specguard/internal/metrics"
)

// Summary is the outcome of one check run as shown on the terminal.
type Summary struct {
	Project    string                `json:"project"`
	Branch     string                `json:"branch,omitempty"`
	Verdict    string                `json:"verdict"`
	Counts     compliance.Counts     `json:"counts"`
	Results    []compliance.Result   `json:"results"`
	ReportPath string                `json:"report_path,omitempty"`
	Metrics    *metrics.CheckMetrics `json:"metrics,omitempty"`
}

// NewSummary tallies results into a Summary.
func NewSummary(project, branch string, results []compliance.Result) *Summary {
	c := compliance.Count(results)
	if results == nil {
		results = []compliance.Result{}
	}
	return &Summary{
		Project: project,
		Branch:  branch,
		Verdict: Verdict(c),
		Counts:  c,
		Results: results,
	}
}

// Verdict is the overall status without decoration: COMPLIANT, PARTIAL or
// NO RULES.
func Verdict(c compliance.Counts) string {
	switch {
	case c.Failed():
		return "PARTIAL"
	case c.Total == 0:
		return "NO RULES"
	default:
		return "COMPLIANT"
	}
}

// FormatText renders a summary for the terminal.
func FormatText(s *Summary) string {
	var b strings.Builder

	fmt.Fprintln(&b, "Compliance Check Results")
	fmt.Fprintf(&b, "  %s Passed: %d\n", compliance.StatusPass.Emoji(), s.Counts.Pass)
	fmt.Fprintf(&b, "  %s Failed: %d\n", compliance.StatusFail.Emoji(), s.Counts.Fail)
	fmt.Fprintf(&b, "  %s Waived: %d\n", compliance.StatusWaived.Emoji(), s.Counts.Waived)
	fmt.Fprintf(&b, "  %s Errors: %d\n", compliance.StatusError.Emoji(), s.Counts.Error)

	var problems []compliance.Result
	for _, r := range s.Results {
		if r.Status == compliance.StatusFail || r.Status == compliance.StatusError {
			problems = append(problems, r)
		}
	}
	if len(problems) > 0 {
		fmt.Fprintln(&b)
		for _, r := range problems {
			fmt.Fprintf(&b, "  %-5s %-30s %-20s %s\n",
				strings.ToUpper(string(r.Status)), r.RuleID, "("+r.GuideID+")", r.Message)
			if r.Hint != "" {
				fmt.Fprintln(&b, "        Expected frontmatter:")
				for _, line := range strings.Split(r.Hint, "\n") {
					fmt.Fprintln(&b, "          "+line)
				}
			}
		}
	}

	fmt.Fprintln(&b)
	if s.ReportPath != "" {
		fmt.Fprintf(&b, "Report: %s\n", s.ReportPath)
	}
	fmt.Fprintf(&b, "Rules Checked: %d\n", s.Counts.Total)
	fmt.Fprintf(&b, "Status: %s\n", Overall(s.Counts))

	if s.Metrics != nil {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, s.Metrics.Summary())
	}
	return b.String()
}

// FormatJSON renders a summary as JSON.
func FormatJSON(s *Summary) (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	return string(data), nil
}
