package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/specguard/internal/history"
)

var (
	historyLimit  int
	historyFormat string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show (0 for all)")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "Output format (text|json)")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent compliance runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	store, err := history.Open(history.DefaultPath(projectRoot()))
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runs, err := store.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}

	if historyFormat == "json" {
		if runs == nil {
			runs = []history.Run{}
		}
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal history: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No compliance runs recorded.")
		return nil
	}

	fmt.Fprintf(out, "%-20s %-10s %-6s %-6s %-6s %-6s %-6s %-8s %s\n",
		"STARTED", "VERDICT", "TOTAL", "PASS", "FAIL", "WAIVED", "ERROR", "TIME", "BRANCH")
	for _, r := range runs {
		fmt.Fprintf(out, "%-20s %-10s %-6d %-6d %-6d %-6d %-6d %-8s %s\n",
			r.StartedAt.Format("2006-01-02T15:04:05Z"), r.Verdict,
			r.Total, r.Pass, r.Fail, r.Waived, r.Error,
			(time.Duration(r.DurationMS) * time.Millisecond).String(), r.Branch)
	}
	return nil
}
