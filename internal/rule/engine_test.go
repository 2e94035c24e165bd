package rule

import (
	"strings"
	"testing"
)

type panicRule struct{ Base }

func (panicRule) Kind() Kind              { return KindFileExists }
func (panicRule) Target() string          { return "" }
func (panicRule) Evaluate(string) Outcome { panic("boom") }
func (panicRule) isRule()                 {}

func TestEvaluateAllIsolatesBrokenRule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "hello")

	e := NewEngine(root, nil)
	e.Register(FileExists{Base: Base{ID: "readme"}, Path: "README.md"})
	e.Register(panicRule{Base: Base{ID: "broken", Description: "always panics"}})
	e.Register(FileExists{Base: Base{ID: "license"}, Path: "LICENSE"})

	got := e.EvaluateAll()
	if len(got) != 3 {
		t.Fatalf("expected 3 evaluations, got %d", len(got))
	}

	if got[0].RuleID != "readme" || !got[0].Outcome.Passed() {
		t.Errorf("readme: %+v", got[0])
	}
	if !got[1].Error() || got[1].Outcome.Passed() {
		t.Errorf("broken rule should be an error entry, got %+v", got[1])
	}
	if !strings.Contains(got[1].Outcome.Details, "boom") {
		t.Errorf("error details should carry panic text, got %q", got[1].Outcome.Details)
	}
	if got[1].Description != "always panics" {
		t.Errorf("Description = %q", got[1].Description)
	}
	if got[2].RuleID != "license" || got[2].Outcome.State != StateFail {
		t.Errorf("license: %+v", got[2])
	}
}

func TestEngineRulesCopy(t *testing.T) {
	e := NewEngine("/tmp", nil)
	e.Register(FileExists{Base: Base{ID: "a"}, Path: "a"})
	rules := e.Rules()
	rules[0] = nil
	if e.Rules()[0] == nil {
		t.Error("Rules() must return a copy")
	}
}

func TestEngineTrace(t *testing.T) {
	e := NewEngine(t.TempDir(), nil)
	e.Register(FileExists{Base: Base{ID: "a"}, Path: "a"})
	e.Register(panicRule{Base: Base{ID: "b"}})

	var events []string
	e.Trace(func(r Rule) func() {
		id := r.Info().ID
		events = append(events, "start "+id)
		return func() { events = append(events, "end "+id) }
	})
	e.EvaluateAll()

	want := "start a,end a,start b,end b"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("trace = %q, want %q", got, want)
	}
}
