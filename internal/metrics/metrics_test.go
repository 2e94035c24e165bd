package metrics

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// fakeClock advances by step on every call.
func fakeClock(step time.Duration) func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now := t
		t = t.Add(step)
		return now
	}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollectorRun(t *testing.T) {
	c := NewCollector(quiet())
	c.now = fakeClock(10 * time.Millisecond)

	// Each clock read is 10ms after the previous one.
	run := c.StartCheck()
	run.GuidesCount = 2

	c.EndRule(c.StartRule("a", "file_exists"))
	c.EndRule(c.StartRule("b", "text_includes"))
	run.RulesCount = 2

	got := c.EndCheck()
	if got == nil {
		t.Fatal("EndCheck returned nil")
	}
	if got.Duration != 50*time.Millisecond {
		t.Errorf("Duration = %v", got.Duration)
	}
	if len(got.Rules) != 2 {
		t.Fatalf("recorded %d rules", len(got.Rules))
	}
	if got.Rules[0].Duration != 10*time.Millisecond {
		t.Errorf("rule duration = %v", got.Rules[0].Duration)
	}
	if got.AvgRuleDuration() != 10*time.Millisecond {
		t.Errorf("avg = %v", got.AvgRuleDuration())
	}
	if c.EndCheck() != nil {
		t.Error("a second EndCheck should find no run in progress")
	}
}

func TestEndCheckWithoutStart(t *testing.T) {
	c := NewCollector(quiet())
	if c.EndCheck() != nil {
		t.Error("expected nil")
	}
	// Rules timed outside a run are not recorded anywhere.
	c.EndRule(c.StartRule("x", "file_exists"))
	c.EndRule(nil)
}

func TestAvgRuleDurationEmpty(t *testing.T) {
	var m CheckMetrics
	if m.AvgRuleDuration() != 0 {
		t.Error("expected zero average")
	}
}

func TestSummary(t *testing.T) {
	m := &CheckMetrics{
		Duration:    1500 * time.Microsecond,
		GuidesCount: 3,
		RulesCount:  4,
		Rules: []RuleMetrics{
			{Duration: time.Millisecond},
			{Duration: 3 * time.Millisecond},
		},
	}
	s := m.Summary()
	for _, want := range []string{
		"Total Duration: 1.50ms",
		"Guides: 3",
		"Rules Evaluated: 4",
		"Avg Rule Time: 2.00ms",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}
