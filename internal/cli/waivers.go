package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/specguard/internal/waiver"
)

var waiversVerbose bool

func init() {
	rootCmd.AddCommand(waiversCmd)
	waiversCmd.AddCommand(waiversListCmd)
	waiversCmd.AddCommand(waiversShowCmd)
	waiversListCmd.Flags().BoolVarP(&waiversVerbose, "verbose", "v", false, "Show every field of every waiver")
}

var waiversCmd = &cobra.Command{
	Use:   "waivers",
	Short: "Inspect recorded compliance waivers",
}

var waiversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all waivers in the order they were recorded",
	Args:  cobra.NoArgs,
	RunE:  runWaiversList,
}

var waiversShowCmd = &cobra.Command{
	Use:   "show <waiver-id>",
	Short: "Show one waiver",
	Args:  cobra.ExactArgs(1),
	RunE:  runWaiversShow,
}

func runWaiversList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	p := newPainter(out)

	ws, err := waiver.NewStore(projectRoot()).List()
	if err != nil {
		return err
	}
	if len(ws) == 0 {
		fmt.Fprintln(out, p.yellow("⚠")+"  No waivers found")
		fmt.Fprintln(out, p.dim("Run 'specguard waive' to create a waiver"))
		return nil
	}

	fmt.Fprintf(out, "%s (%d total)\n\n", p.bold("Compliance Waivers"), len(ws))

	if waiversVerbose {
		for _, w := range ws {
			printWaiver(out, p, w)
			fmt.Fprintln(out)
		}
		return nil
	}

	fmt.Fprintf(out, "%-8s %-60s %-20s\n", "ID", "REASON", "TIMESTAMP")
	for _, w := range ws {
		reason := strings.ReplaceAll(w.Reason, "\n", " ")
		if r := []rune(reason); len(r) > 60 {
			reason = string(r[:57]) + "..."
		}
		fmt.Fprintf(out, "%s %-60s %-20s\n", p.cyan(fmt.Sprintf("%-8s", w.ID)), reason, w.Timestamp)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, p.dim("Use 'specguard waivers show <id>' for detailed information"))
	return nil
}

func runWaiversShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	id := args[0]
	if !strings.HasPrefix(id, "W-") {
		return fmt.Errorf("waiver ID must start with 'W-' (e.g., W-001)")
	}

	w, err := waiver.NewStore(projectRoot()).Get(id)
	if err != nil {
		return err
	}
	if w == nil {
		return fmt.Errorf("waiver %s not found (run 'specguard waivers list' to see all waivers)", id)
	}
	printWaiver(out, newPainter(out), *w)
	return nil
}

func printWaiver(out io.Writer, p painter, w waiver.Waiver) {
	fmt.Fprintf(out, "%s %s\n", p.bold("Waiver"), p.cyan(w.ID))
	fmt.Fprintf(out, "  Reason:    %s\n", w.Reason)
	fmt.Fprintf(out, "  Timestamp: %s\n", w.Timestamp)
	if w.CreatedBy != "" {
		fmt.Fprintf(out, "  By:        %s\n", w.CreatedBy)
	}
	if len(w.RelatedRules) > 0 {
		fmt.Fprintf(out, "  Rules:     %s\n", strings.Join(w.RelatedRules, ", "))
	}
}
