// Package metrics times compliance runs and the rule evaluations inside them.
// A Collector is created per run and handed to the checker explicitly.
package metrics

import (
	"fmt"
	"log/slog"
	"time"
)

// RuleMetrics times one rule evaluation.
type RuleMetrics struct {
	RuleID   string        `json:"rule_id"`
	RuleType string        `json:"rule_type"`
	Duration time.Duration `json:"-"`

	start time.Time
}

// DurationMS returns the evaluation time in milliseconds.
func (r RuleMetrics) DurationMS() float64 { return ms(r.Duration) }

// CheckMetrics summarizes one completed compliance run.
type CheckMetrics struct {
	Started     time.Time     `json:"started_at"`
	Duration    time.Duration `json:"-"`
	GuidesCount int           `json:"guides_count"`
	RulesCount  int           `json:"rules_count"`
	Rules       []RuleMetrics `json:"rules"`
}

// DurationMS returns the total run time in milliseconds.
func (c *CheckMetrics) DurationMS() float64 { return ms(c.Duration) }

// AvgRuleDuration is the mean of the recorded rule durations, zero when none
// were recorded.
func (c *CheckMetrics) AvgRuleDuration() time.Duration {
	if len(c.Rules) == 0 {
		return 0
	}
	var total time.Duration
	for _, r := range c.Rules {
		total += r.Duration
	}
	return total / time.Duration(len(c.Rules))
}

// Summary renders the human-readable block printed after a check.
func (c *CheckMetrics) Summary() string {
	return fmt.Sprintf("Compliance Check Metrics:\n"+
		"  Total Duration: %.2fms\n"+
		"  Guides: %d\n"+
		"  Rules Evaluated: %d\n"+
		"  Avg Rule Time: %.2fms",
		c.DurationMS(), c.GuidesCount, c.RulesCount, ms(c.AvgRuleDuration()))
}

// Collector accumulates metrics for the run in progress. It is not safe for
// concurrent use; runs are sequential.
type Collector struct {
	current *CheckMetrics
	now     func() time.Time
	log     *slog.Logger
}

// NewCollector returns a collector that logs through logger (slog.Default()
// when nil).
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{now: time.Now, log: logger}
}

// StartCheck begins a run, discarding any run that was never ended.
func (c *Collector) StartCheck() *CheckMetrics {
	c.current = &CheckMetrics{Started: c.now()}
	c.log.Debug("metrics collection started")
	return c.current
}

// StartRule begins timing one rule evaluation.
func (c *Collector) StartRule(ruleID, ruleType string) *RuleMetrics {
	return &RuleMetrics{RuleID: ruleID, RuleType: ruleType, start: c.now()}
}

// EndRule stops timing and records the evaluation on the current run, if any.
func (c *Collector) EndRule(m *RuleMetrics) {
	if m == nil {
		return
	}
	m.Duration = c.now().Sub(m.start)
	if c.current == nil {
		return
	}
	c.current.Rules = append(c.current.Rules, *m)
	c.log.Debug("rule timed", "rule_id", m.RuleID, "duration_ms", m.DurationMS())
}

// EndCheck completes the current run and returns its metrics, or nil when no
// run was started.
func (c *Collector) EndCheck() *CheckMetrics {
	if c.current == nil {
		return nil
	}
	done := c.current
	c.current = nil
	done.Duration = c.now().Sub(done.Started)
	c.log.Info("compliance check finished",
		"duration_ms", done.DurationMS(),
		"guides", done.GuidesCount,
		"rules", done.RulesCount,
		"avg_rule_ms", ms(done.AvgRuleDuration()),
	)
	return done
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
