package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationReport summarizes a validated scenario directory.
type ValidationReport struct {
	Valid     bool     `json:"valid"`
	Scenarios []string `json:"scenarios,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario-dir>",
		Short: "Check scenario files without running them",
		Long: `Validate loads the litmus scenarios in a directory and reports
structural problems: unknown operations, undeclared variables, bad
orderings and malformed CUE. Nothing is executed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(rootOpts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	scenarios, err := loadScenarios(dir, "", formatter)
	if err != nil {
		return err
	}

	report := ValidationReport{Valid: true}
	for i := range scenarios {
		report.Scenarios = append(report.Scenarios, scenarios[i].Name)
	}

	if rootOpts.Format == "json" {
		return formatter.Success(report)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d scenario(s) valid\n", len(report.Scenarios))
	for _, name := range report.Scenarios {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
	return nil
}
