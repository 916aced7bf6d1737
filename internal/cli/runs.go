package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/weftlabs/weft/internal/store"
)

// NewRunsCommand creates the runs command group for the archive.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect archived exploration runs",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "weft.db", "SQLite archive database")

	cmd.AddCommand(newRunsListCommand(rootOpts, &dbPath))
	cmd.AddCommand(newRunsShowCommand(rootOpts, &dbPath))
	return cmd
}

func openArchive(dbPath string, formatter *OutputFormatter) (*store.Store, error) {
	archive, err := store.Open(dbPath)
	if err != nil {
		formatter.Error("E_STORE", err.Error())
		return nil, WrapExitError(ExitCommandError, "opening archive", err)
	}
	return archive, nil
}

func newRunsListCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "list <scenario>",
		Short:         "List archived runs for a scenario, newest first",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}

			archive, err := openArchive(*dbPath, formatter)
			if err != nil {
				return err
			}
			defer archive.Close()

			runs, err := archive.ListRuns(context.Background(), args[0])
			if err != nil {
				formatter.Error("E_STORE", err.Error())
				return WrapExitError(ExitCommandError, "listing runs", err)
			}

			if rootOpts.Format == "json" {
				return formatter.Success(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no runs archived for %s\n", args[0])
				return nil
			}
			for _, run := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  policy %s seed %d  executions %d blocked %d\n",
					run.ID, run.CreatedAt, run.Policy, run.Seed, run.Executions, run.Blocked)
			}
			return nil
		},
	}
}

func newRunsShowCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show one archived run with its outcome histogram",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}

			archive, err := openArchive(*dbPath, formatter)
			if err != nil {
				return err
			}
			defer archive.Close()

			run, err := archive.ReadRun(context.Background(), args[0])
			if err != nil {
				code := ExitCommandError
				if errors.Is(err, store.ErrRunNotFound) {
					code = ExitFailure
				}
				formatter.Error("E_STORE", err.Error())
				return WrapExitError(code, "reading run", err)
			}

			if rootOpts.Format == "json" {
				return formatter.Success(run)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s\n", run.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "scenario %s\n", run.Scenario)
			fmt.Fprintf(cmd.OutOrStdout(), "policy %s seed %d\n", run.Policy, run.Seed)
			fmt.Fprintf(cmd.OutOrStdout(), "executions %d blocked %d\n", run.Executions, run.Blocked)

			keys := make([]string, 0, len(run.Outcomes))
			for k := range run.Outcomes {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  %d\n", k, run.Outcomes[k])
			}
			return nil
		},
	}
}
