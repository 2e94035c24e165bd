package rule

import (
	"fmt"
	"log/slog"
)

// Evaluation is the engine's record of one evaluated rule.
type Evaluation struct {
	RuleID      string  `json:"rule_id"`
	Kind        Kind    `json:"rule_type"`
	Description string  `json:"description"`
	Outcome     Outcome `json:"-"`
}

// Error reports whether evaluation itself broke, as opposed to the rule failing.
func (e Evaluation) Error() bool { return e.Outcome.State == StateError }

// Engine evaluates a batch of registered rules against one project root.
type Engine struct {
	root  string
	rules []Rule
	log   *slog.Logger
	trace func(Rule) func()
}

// NewEngine creates an engine rooted at projectRoot.
func NewEngine(projectRoot string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{root: projectRoot, log: logger}
}

// Register queues a rule for EvaluateAll.
func (e *Engine) Register(r Rule) {
	e.rules = append(e.rules, r)
}

// Trace installs fn to be called before each evaluation in EvaluateAll. The
// function fn returns, if non-nil, is called once that evaluation finishes.
func (e *Engine) Trace(fn func(Rule) func()) {
	e.trace = fn
}

// Rules returns the registered rules in registration order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// EvaluateAll evaluates every registered rule in order. A rule whose
// evaluation breaks yields an error entry; the rest of the batch still runs.
func (e *Engine) EvaluateAll() []Evaluation {
	out := make([]Evaluation, 0, len(e.rules))
	for _, r := range e.rules {
		info := r.Info()
		var done func()
		if e.trace != nil {
			done = e.trace(r)
		}
		o := Evaluate(r, e.root)
		if done != nil {
			done()
		}
		if o.State == StateError {
			e.log.Warn("rule evaluation failed", "rule_id", info.ID, "error", o.Err)
		} else {
			e.log.Debug("rule evaluated", "rule_id", info.ID, "state", o.State.String())
		}
		out = append(out, Evaluation{
			RuleID:      info.ID,
			Kind:        r.Kind(),
			Description: info.Description,
			Outcome:     o,
		})
	}
	return out
}

// Evaluate runs a single rule, converting a panic inside the rule into an
// error outcome.
func Evaluate(r Rule, projectRoot string) (o Outcome) {
	defer func() {
		if p := recover(); p != nil {
			o = errored(fmt.Errorf("panic: %v", p))
		}
	}()
	return r.Evaluate(projectRoot)
}
