// Package rule defines the closed set of compliance rule kinds declared in
// guide frontmatter, their per-kind schema, and the engine that evaluates them
// against a project tree.
package rule

// Kind identifies a rule variant. The set is closed: every Kind has exactly
// one entry in the registry.
type Kind string

const (
	KindFileExists        Kind = "file_exists"
	KindDependencyPresent Kind = "dependency_present"
	KindTextIncludes      Kind = "text_includes"
)

// Base holds the fields every rule carries.
type Base struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Division    string `json:"division,omitempty"`
}

// Info returns the common rule fields.
func (b Base) Info() Base { return b }

// Rule is a typed, immutable compliance check. Implemented only by
// FileExists, DependencyPresent and TextIncludes.
type Rule interface {
	Info() Base
	Kind() Kind
	// Target describes what the rule inspects, relative to the project root.
	Target() string
	Evaluate(projectRoot string) Outcome
	isRule()
}

// State classifies a single evaluation.
type State int

const (
	StatePass State = iota
	StateFail
	StateError
)

func (s State) String() string {
	switch s {
	case StatePass:
		return "pass"
	case StateFail:
		return "fail"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the result of evaluating one rule. Missing or unreadable files
// are failures, not errors; StateError is reserved for evaluation that could
// not complete.
type Outcome struct {
	State   State
	Message string
	Details string
	Err     error
}

// Passed reports whether the rule requirement was satisfied.
func (o Outcome) Passed() bool { return o.State == StatePass }

func pass(message, details string) Outcome {
	return Outcome{State: StatePass, Message: message, Details: details}
}

func fail(message, details string) Outcome {
	return Outcome{State: StateFail, Message: message, Details: details}
}

func errored(err error) Outcome {
	return Outcome{
		State:   StateError,
		Message: "Error evaluating rule",
		Details: "Error: " + err.Error(),
		Err:     err,
	}
}
