package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/specguard/internal/cache"
)

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the guide discovery cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the guide discovery cache",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	m := cache.NewManager(projectRoot(), 0)
	if err := m.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", relTo(projectRoot(), m.Path()))
	return nil
}
