package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/specguard/internal/waiver"
)

var (
	waiveRules []string
	waiveBy    string
)

func init() {
	rootCmd.AddCommand(waiveCmd)
	waiveCmd.Flags().StringSliceVar(&waiveRules, "rule", nil, "Rule id the waiver covers (repeatable or comma-separated)")
	waiveCmd.Flags().StringVar(&waiveBy, "by", "", "Who is recording the waiver")
}

var waiveCmd = &cobra.Command{
	Use:   "waive <reason>",
	Short: "Record a formal compliance waiver",
	Long: "Appends an immutable, timestamped waiver to .specify/waivers.md.\n" +
		"Failed rules named with --rule are reported as WAIVED on the next check.\n" +
		"The reason is mandatory (1-500 characters).",
	Example: `  specguard waive "Disabling MFA for service account per ticket #1234" --rule mfa-enabled`,
	Args:    cobra.ExactArgs(1),
	RunE:    runWaive,
}

func runWaive(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	p := newPainter(out)
	root := projectRoot()

	store := waiver.NewStore(root)
	w, err := store.Create(args[0], waiveRules, waiveBy)
	if err != nil {
		return err
	}
	logger.Info("waiver recorded", "waiver_id", w.ID, "rules", len(w.RelatedRules))

	fmt.Fprintln(out, p.green("✓ Waiver recorded"))
	fmt.Fprintf(out, "ID:        %s\n", w.ID)
	fmt.Fprintf(out, "Reason:    %s\n", w.Reason)
	fmt.Fprintf(out, "Timestamp: %s\n", w.Timestamp)
	if w.CreatedBy != "" {
		fmt.Fprintf(out, "By:        %s\n", w.CreatedBy)
	}
	if len(w.RelatedRules) > 0 {
		fmt.Fprintf(out, "Rules:     %s\n", strings.Join(w.RelatedRules, ", "))
	} else {
		fmt.Fprintln(out, p.yellow("No --rule given: this waiver does not cover any rule."))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, p.dim("Waiver stored in: "+relTo(root, store.Path())))
	return nil
}
