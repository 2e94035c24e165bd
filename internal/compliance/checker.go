package compliance

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/ppiankov/specguard/internal/cache"
	"github.com/ppiankov/specguard/internal/guide"
	"github.com/ppiankov/specguard/internal/metrics"
	"github.com/ppiankov/specguard/internal/project"
	"github.com/ppiankov/specguard/internal/rule"
	"github.com/ppiankov/specguard/internal/waiver"
)

// Config configures a Checker.
type Config struct {
	Root     string
	UseCache bool
	CacheTTL time.Duration
	// Division is attached to results whose rule declares none. Empty reads
	// the project config.
	Division string
	Logger   *slog.Logger
}

// Checker orchestrates discovery, parsing, evaluation and waiver
// cross-referencing for one project.
type Checker struct {
	root     string
	cache    *cache.Manager
	waivers  *waiver.Store
	division string
	log      *slog.Logger
	now      func() time.Time
}

// NewChecker returns a checker for cfg.Root.
func NewChecker(cfg Config) *Checker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	division := cfg.Division
	if division == "" {
		division = project.Division(cfg.Root)
	}
	c := &Checker{
		root:     cfg.Root,
		waivers:  waiver.NewStore(cfg.Root),
		division: division,
		log:      logger,
		now:      time.Now,
	}
	if cfg.UseCache {
		c.cache = cache.NewManager(cfg.Root, cfg.CacheTTL)
	}
	return c
}

// Root returns the project root.
func (c *Checker) Root() string { return c.root }

// Discover lists the project's guides, serving from the cache when it is
// enabled and still valid. Non-empty discoveries are saved back.
func (c *Checker) Discover() ([]string, error) {
	if c.cache != nil {
		if guides, ok := c.cache.Guides(); ok {
			c.log.Debug("using cached guides", "count", len(guides))
			return guides, nil
		}
	}

	guides, err := guide.Discover(c.root)
	if err != nil {
		return nil, fmt.Errorf("discover guides: %w", err)
	}
	c.log.Debug("discovered guides", "count", len(guides))

	if c.cache != nil && len(guides) > 0 {
		if err := c.cache.Save(guides); err != nil {
			c.log.Warn("cannot save guide cache", "path", c.cache.Path(), "error", err)
		}
	}
	return guides, nil
}

// Run checks every guide in order and returns one result per rule, plus one
// error result per missing or unparseable guide. A nil guides list triggers
// discovery. A nil collector gets a fresh one. Only discovery and waiver log
// failures are returned as errors.
func (c *Checker) Run(guides []string, mc *metrics.Collector) ([]Result, *metrics.CheckMetrics, error) {
	if mc == nil {
		mc = metrics.NewCollector(c.log)
	}
	c.log.Info("starting compliance check", "root", c.root)
	run := mc.StartCheck()

	if guides == nil {
		var err error
		if guides, err = c.Discover(); err != nil {
			mc.EndCheck()
			return nil, nil, err
		}
	}
	run.GuidesCount = len(guides)

	ws, err := c.waivers.List()
	if err != nil {
		mc.EndCheck()
		return nil, nil, err
	}
	covering := waiver.ByRule(ws)
	c.log.Debug("loaded waivers", "waivers", len(ws), "covered_rules", len(covering))

	var results []Result
	for _, path := range guides {
		results = append(results, c.checkGuide(path, covering, mc)...)
	}

	run.RulesCount = len(results)
	done := mc.EndCheck()
	return results, done, nil
}

func (c *Checker) checkGuide(path string, covering map[string]waiver.Waiver, mc *metrics.Collector) []Result {
	id := guide.ID(path)

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		c.log.Warn("guide file not found", "guide", path)
		return []Result{c.result(Result{
			RuleID:   DiscoveryErrorID,
			RuleType: "discovery",
			Status:   StatusError,
			Message:  fmt.Sprintf("Guide file not found: %s", path),
			Target:   path,
			GuideID:  id,
		})}
	}

	defs, err := guide.ExtractRules(path)
	if err != nil {
		c.log.Warn("cannot parse guide", "guide", path, "error", err)
		res := Result{
			RuleID:   ParseErrorID,
			RuleType: "parsing",
			Status:   StatusError,
			Message:  fmt.Sprintf("Failed to parse guide: %v", err),
			Target:   path,
			GuideID:  id,
		}
		var pe *guide.ParseError
		if errors.As(err, &pe) {
			res.Hint = pe.Example
		}
		return []Result{c.result(res)}
	}
	c.log.Debug("extracted rules", "guide", id, "count", len(defs))

	// Definitions that cannot be built keep their position as error results.
	slots := make([]*Result, len(defs))
	eng := rule.NewEngine(c.root, c.log)
	eng.Trace(func(r rule.Rule) func() {
		m := mc.StartRule(r.Info().ID, string(r.Kind()))
		return func() { mc.EndRule(m) }
	})
	for i, d := range defs {
		r, err := rule.Create(d)
		if err != nil {
			res := c.result(Result{
				RuleID:   orUnknown(d.ID()),
				RuleType: orUnknown(string(d.Kind())),
				Status:   StatusError,
				Message:  fmt.Sprintf("Error evaluating rule: %v", err),
				GuideID:  id,
			})
			slots[i] = &res
			continue
		}
		eng.Register(r)
	}

	rules := eng.Rules()
	evals := eng.EvaluateAll()
	out := make([]Result, 0, len(defs))
	next := 0
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
			continue
		}
		res := c.classify(rules[next], evals[next], id, covering)
		c.log.Debug("rule checked", "guide", id, "rule_id", res.RuleID, "status", string(res.Status))
		out = append(out, res)
		next++
	}
	return out
}

// classify maps an evaluation onto a status. Only failures can be waived.
func (c *Checker) classify(r rule.Rule, ev rule.Evaluation, guideID string, covering map[string]waiver.Waiver) Result {
	division := r.Info().Division
	if division == "" {
		division = c.division
	}
	res := Result{
		RuleID:   ev.RuleID,
		RuleType: string(ev.Kind),
		Message:  ev.Outcome.Message,
		Target:   ev.Outcome.Details,
		GuideID:  guideID,
		Division: division,
	}

	switch ev.Outcome.State {
	case rule.StatePass:
		res.Status = StatusPass
	case rule.StateError:
		res.Status = StatusError
		res.Message = fmt.Sprintf("Error evaluating rule: %v", ev.Outcome.Err)
		res.Target = ""
	default:
		if w, ok := covering[ev.RuleID]; ok {
			res.Status = StatusWaived
			res.WaiverID = w.ID
			res.Message = fmt.Sprintf("%s %s waived by %s", StatusWaived.Emoji(), ev.RuleID, w.ID)
		} else {
			res.Status = StatusFail
		}
	}
	return c.result(res)
}

func (c *Checker) result(r Result) Result {
	r.Timestamp = c.now().UTC().Format(TimestampFormat)
	return r
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
