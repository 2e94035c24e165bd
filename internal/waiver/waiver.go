// Package waiver records formal exceptions to compliance rules in an
// append-only markdown log.
package waiver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxReasonLength is the maximum reason length in characters, after trimming.
const MaxReasonLength = 500

// TimestampFormat is the UTC layout stamped on every waiver.
const TimestampFormat = "2006-01-02T15:04:05Z"

var idPattern = regexp.MustCompile(`^W-(\d+)`)

// Waiver is one immutable exception entry.
type Waiver struct {
	ID           string   `json:"waiver_id"`
	Reason       string   `json:"reason"`
	Timestamp    string   `json:"timestamp"`
	RelatedRules []string `json:"related_rules"`
	CreatedBy    string   `json:"created_by,omitempty"`
}

// Covers reports whether the waiver names ruleID among its related rules.
func (w Waiver) Covers(ruleID string) bool {
	for _, r := range w.RelatedRules {
		if r == ruleID {
			return true
		}
	}
	return false
}

// ValidationError collects the problems that prevent a waiver from being created.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("waiver validation failed: %s", strings.Join(e.Errors, "; "))
}

func (e *ValidationError) add(msg string) {
	e.Errors = append(e.Errors, msg)
}

// NextID returns the id following the highest numeric suffix among existing
// ids, or W-001 when there are none. Ids past 999 widen naturally.
func NextID(existing []string) string {
	highest := 0
	for _, id := range existing {
		m := idPattern.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("W-%03d", highest+1)
}

// normalize trims the inputs and checks them against the creation
// constraints. It returns a *ValidationError listing every problem.
func normalize(reason string, rules []string, createdBy string) (string, []string, string, error) {
	ve := &ValidationError{}

	reason = strings.TrimSpace(reason)
	switch n := utf8.RuneCountInString(reason); {
	case n == 0:
		ve.add("reason is required")
	case n > MaxReasonLength:
		ve.add(fmt.Sprintf("reason is %d characters, maximum is %d", n, MaxReasonLength))
	}

	var out []string
	for i, r := range rules {
		r = strings.TrimSpace(r)
		switch {
		case r == "":
			ve.add(fmt.Sprintf("related_rules[%d]: must not be empty", i))
		case strings.ContainsAny(r, ",]\r\n"):
			ve.add(fmt.Sprintf("related_rules[%d]: %q must not contain ',', ']' or line breaks", i, r))
		default:
			out = append(out, r)
		}
	}

	createdBy = strings.TrimSpace(createdBy)

	if len(ve.Errors) > 0 {
		return "", nil, "", ve
	}
	return reason, out, createdBy, nil
}
