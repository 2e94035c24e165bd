package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/specguard/internal/rule"
)

const version = "0.3.0"

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		kinds := make([]string, 0, 3)
		for _, k := range rule.Kinds() {
			kinds = append(kinds, string(k))
		}
		info := map[string]any{
			"version":    version,
			"name":       "specguard",
			"rule_types": kinds,
		}
		out, _ := json.MarshalIndent(info, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	},
}
