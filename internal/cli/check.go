package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/specguard/internal/compliance"
	"github.com/ppiankov/specguard/internal/guide"
	"github.com/ppiankov/specguard/internal/history"
	"github.com/ppiankov/specguard/internal/metrics"
	"github.com/ppiankov/specguard/internal/report"
	"github.com/ppiankov/specguard/internal/watch"
)

var (
	checkGuides  []string
	checkNoCache bool
	checkFormat  string
	checkBranch  string
	checkWatch   bool
	checkMetrics bool
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringArrayVar(&checkGuides, "guide", nil, "Guide file to check (repeatable; default: discover)")
	checkCmd.Flags().BoolVar(&checkNoCache, "no-cache", false, "Bypass the guide discovery cache")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
	checkCmd.Flags().StringVar(&checkBranch, "branch", "", "Branch name for the report (default: from .git/HEAD)")
	checkCmd.Flags().BoolVar(&checkWatch, "watch", false, "Re-run the check whenever a guide changes")
	checkCmd.Flags().BoolVar(&checkMetrics, "metrics", false, "Print timing metrics after the results")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the project against its guide rules",
	Long: "Discovers guides, evaluates every rule they declare, applies waivers\n" +
		"to failed rules, and writes compliance-report.md.\n\n" +
		"Exit code 0 if no rule failed or errored, 1 otherwise (or when no\n" +
		"guides exist). Use in CI to gate merges on compliance.",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkFormat != "text" && checkFormat != "json" {
		return fmt.Errorf("unknown format %q (text|json)", checkFormat)
	}
	out := cmd.OutOrStdout()

	if checkWatch {
		return watchCheck(cmd.Context(), out)
	}

	failed, err := checkOnce(out)
	if err != nil {
		return err
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

// checkOnce runs one compliance check, writes the report, records history
// and prints the summary. failed is true when the run should exit non-zero.
func checkOnce(out io.Writer) (failed bool, err error) {
	cfg, err := loadSettings()
	if err != nil {
		return false, err
	}
	root := projectRoot()
	p := newPainter(out)

	checker := compliance.NewChecker(compliance.Config{
		Root:     root,
		UseCache: cfg.Cache.Enabled && !checkNoCache,
		CacheTTL: cfg.Cache.TTL,
		Logger:   logger,
	})

	guides, err := resolveGuides(checker, root)
	if err != nil {
		return false, err
	}
	if len(guides) == 0 {
		if checkFormat == "json" {
			logger.Warn("no implementation guides found", "looked_in", "context/references/, specs/")
			branch := checkBranch
			if branch == "" {
				branch = gitBranch(root)
			}
			s, err := report.FormatJSON(report.NewSummary(cfg.ProjectName, branch, nil))
			if err != nil {
				return false, err
			}
			fmt.Fprintln(out, s)
			return true, nil
		}
		fmt.Fprintln(out, p.yellow("⚠")+"  No implementation guides found")
		fmt.Fprintln(out, p.dim("Looking in: context/references/, specs/"))
		return true, nil
	}
	if checkFormat == "text" {
		fmt.Fprintln(out, p.dim(fmt.Sprintf("Found %d guide(s)", len(guides))))
	}

	results, m, err := checker.Run(guides, metrics.NewCollector(logger))
	if err != nil {
		return false, err
	}

	branch := checkBranch
	if branch == "" {
		branch = gitBranch(root)
	}
	gen := report.NewGenerator(root, cfg.Report.File)
	reportPath, err := gen.GenerateAndWrite(results, cfg.ProjectName, branch)
	if err != nil {
		return false, err
	}

	summary := report.NewSummary(cfg.ProjectName, branch, results)
	summary.ReportPath = relTo(root, reportPath)
	if checkMetrics {
		summary.Metrics = m
	}

	if cfg.History.Enabled {
		recordHistory(m, summary)
	}

	switch checkFormat {
	case "json":
		s, err := report.FormatJSON(summary)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, s)
	default:
		fmt.Fprintln(out)
		fmt.Fprint(out, report.FormatText(summary))
		fmt.Fprintln(out)
		switch {
		case summary.Counts.Fail > 0:
			fmt.Fprintln(out, p.yellow("⚠ Some rules failed - see report for details"))
		case summary.Counts.Error > 0:
			fmt.Fprintln(out, p.yellow("⚠ Some errors occurred during evaluation"))
		default:
			fmt.Fprintln(out, p.green("✓ All rules passed!"))
		}
	}

	return summary.Counts.Failed(), nil
}

// resolveGuides returns the --guide paths made absolute, or discovers guides.
func resolveGuides(checker *compliance.Checker, root string) ([]string, error) {
	if len(checkGuides) == 0 {
		return checker.Discover()
	}
	guides := make([]string, len(checkGuides))
	for i, g := range checkGuides {
		if !filepath.IsAbs(g) {
			g = filepath.Join(root, g)
		}
		guides[i] = g
	}
	return guides, nil
}

func recordHistory(m *metrics.CheckMetrics, s *report.Summary) {
	if m == nil {
		return
	}
	store, err := history.Open(history.DefaultPath(projectRoot()))
	if err != nil {
		logger.Warn("cannot open run history", "error", err)
		return
	}
	defer store.Close()

	run := history.NewRun(m.Started, m.Duration, m.GuidesCount, s.Branch, s.Counts, s.Verdict)
	if _, err := store.Record(context.Background(), run); err != nil {
		logger.Warn("cannot record run history", "error", err)
	}
}

// watchCheck runs the check, then again after every guide change, until
// interrupted.
func watchCheck(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := projectRoot()
	p := newPainter(out)
	run := func() {
		if _, err := checkOnce(out); err != nil {
			fmt.Fprintf(out, "%s %v\n", p.red("Error:"), err)
		}
		fmt.Fprintln(out, p.dim(fmt.Sprintf("[%s] watching for guide changes (Ctrl+C to stop)",
			time.Now().Format(time.TimeOnly))))
	}
	run()

	var dirs []string
	for _, d := range guide.TrackedDirs() {
		dirs = append(dirs, filepath.Join(root, d))
	}
	return watch.New(dirs, run, logger).Run(ctx)
}

func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
