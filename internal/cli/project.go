package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/specguard/internal/project"
)

var divisionForce bool

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(divisionCmd)
	divisionCmd.AddCommand(divisionSetCmd)
	divisionSetCmd.Flags().BoolVar(&divisionForce, "force", false, "Accept a division with no guides directory")
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Show or change project settings in .specify/project.json",
}

var divisionCmd = &cobra.Command{
	Use:   "division",
	Short: "Print the project's division",
	Long: "Prints the division recorded in .specify/project.json (default SE).\n" +
		"Rules without their own division are reported under it.",
	Args: cobra.NoArgs,
	RunE: runDivisionShow,
}

var divisionSetCmd = &cobra.Command{
	Use:   "set <division>",
	Short: "Record the project's division",
	Args:  cobra.ExactArgs(1),
	RunE:  runDivisionSet,
}

func runDivisionShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	root := projectRoot()
	fmt.Fprintf(out, "Division: %s\n", project.Division(root))
	fmt.Fprintf(out, "Known:    %s\n", strings.Join(project.KnownDivisions(root), ", "))
	return nil
}

func runDivisionSet(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	division := args[0]

	if err := project.ValidateName(division); err != nil {
		return err
	}
	if !divisionForce {
		if err := project.CheckKnown(root, division); err != nil {
			return fmt.Errorf("%w (use --force to set it anyway)", err)
		}
	}
	if err := project.WriteDivision(root, division); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Division set to %s\n", division)
	return nil
}
