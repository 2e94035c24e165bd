// Package compliance runs guide rules against a project and cross-references
// failures with recorded waivers.
package compliance

// Status is the final classification of one rule in a run.
type Status string

const (
	StatusPass   Status = "pass"
	StatusFail   Status = "fail"
	StatusWaived Status = "waived"
	StatusError  Status = "error"
)

// Emoji returns the status marker used in reports.
func (s Status) Emoji() string {
	switch s {
	case StatusPass:
		return "✅"
	case StatusFail:
		return "❌"
	case StatusWaived:
		return "🚫"
	case StatusError:
		return "⚠️"
	default:
		return "❓"
	}
}

// Synthetic rule ids for results that describe a guide rather than a rule.
const (
	DiscoveryErrorID = "discovery-error"
	ParseErrorID     = "parse-error"
)

// TimestampFormat is the UTC layout of Result.Timestamp.
const TimestampFormat = "2006-01-02T15:04:05Z"

// Result is the outcome of one rule, or one broken guide, in a run.
type Result struct {
	RuleID    string `json:"rule_id"`
	RuleType  string `json:"rule_type"`
	Status    Status `json:"status"`
	Message   string `json:"message"`
	Target    string `json:"target"`
	GuideID   string `json:"guide_id"`
	Division  string `json:"division,omitempty"`
	WaiverID  string `json:"waiver_id,omitempty"`
	// Hint shows the expected syntax when a guide could not be parsed.
	Hint      string `json:"hint,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Counts tallies results per status.
type Counts struct {
	Total  int `json:"total"`
	Pass   int `json:"passed"`
	Fail   int `json:"failed"`
	Waived int `json:"waived"`
	Error  int `json:"errors"`
}

// Count tallies results per status.
func Count(results []Result) Counts {
	c := Counts{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			c.Pass++
		case StatusFail:
			c.Fail++
		case StatusWaived:
			c.Waived++
		case StatusError:
			c.Error++
		}
	}
	return c
}

// Compliant reports whether the run had rules and none failed or errored.
func (c Counts) Compliant() bool {
	return c.Total > 0 && c.Fail == 0 && c.Error == 0
}

// Failed reports whether the run should exit non-zero.
func (c Counts) Failed() bool {
	return c.Fail > 0 || c.Error > 0
}

// Filter returns the results with the given status, in run order.
func Filter(results []Result, s Status) []Result {
	var out []Result
	for _, r := range results {
		if r.Status == s {
			out = append(out, r)
		}
	}
	return out
}
