package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftlabs/weft/internal/config"
	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/litmus"
	"github.com/weftlabs/weft/internal/store"
)

type runOptions struct {
	scenario    string
	policy      string
	seed        int64
	runs        int
	dbPath      string
	printGraphs bool
}

// RunReport is the JSON payload for one explored scenario.
type RunReport struct {
	Scenario   string         `json:"scenario"`
	Policy     string         `json:"policy"`
	Seed       int64          `json:"seed"`
	Executions uint64         `json:"executions"`
	Blocked    uint64         `json:"blocked"`
	Outcomes   map[string]int `json:"outcomes"`
	RunID      string         `json:"run_id,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <scenario-dir>",
		Short: "Explore scenarios and report their reachable final states",
		Long: `Run loads the litmus scenarios in a directory and explores each one
for the configured number of executions, printing the histogram of
final states. Results can be archived to a SQLite database for later
comparison.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.scenario, "scenario", "", "run only the named scenario")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "scheduling policy (wf|rr|random)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "base schedule seed")
	cmd.Flags().IntVar(&opts.runs, "runs", 0, "number of executions per scenario")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "archive results to this SQLite database")
	cmd.Flags().BoolVar(&opts.printGraphs, "print-graphs", false, "dump the final execution graph per scenario")

	return cmd
}

// mergeRunFlags layers explicitly set flags over the loaded config.
func mergeRunFlags(cfg *config.Config, opts *runOptions, cmd *cobra.Command) {
	if cmd.Flags().Changed("policy") {
		cfg.Policy = opts.policy
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = opts.seed
	}
	if cmd.Flags().Changed("runs") {
		cfg.MaxExecutions = opts.runs
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = opts.dbPath
	}
	if cmd.Flags().Changed("print-graphs") {
		cfg.PrintGraphs = opts.printGraphs
	}
}

func runRun(rootOpts *RootOptions, opts *runOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	cfg, err := loadConfig(rootOpts)
	if err != nil {
		formatter.Error("E_CONFIG", err.Error())
		return WrapExitError(ExitCommandError, "loading config", err)
	}
	mergeRunFlags(&cfg, opts, cmd)
	if err := cfg.Validate(); err != nil {
		formatter.Error("E_CONFIG", err.Error())
		return WrapExitError(ExitCommandError, "invalid parameters", err)
	}
	log := newLogger(rootOpts, cfg)

	scenarios, err := loadScenarios(dir, opts.scenario, formatter)
	if err != nil {
		return err
	}

	var archive *store.Store
	if cfg.DBPath != "" {
		archive, err = store.Open(cfg.DBPath)
		if err != nil {
			formatter.Error("E_STORE", err.Error())
			return WrapExitError(ExitCommandError, "opening archive", err)
		}
		defer archive.Close()
	}

	reports := make([]RunReport, 0, len(scenarios))
	for i := range scenarios {
		scn := &scenarios[i]
		formatter.VerboseLog("exploring %s (%d executions)", scn.Name, cfg.MaxExecutions)
		if cfg.PrintScheduleSeed {
			log.Info("schedule seed", "scenario", scn.Name, "seed", cfg.Seed)
		}

		runner := litmus.NewRunner(engine.Policy(cfg.Policy), cfg.Seed, cfg.MaxExecutions, litmus.WithLogger(log))
		res, err := runner.Explore(scn)
		if err != nil {
			formatter.Error("E_RUN", err.Error())
			return WrapExitError(ExitFailure, "exploration failed", err)
		}

		report := RunReport{
			Scenario:   res.Scenario,
			Policy:     string(res.Policy),
			Seed:       res.Seed,
			Executions: res.Executions,
			Blocked:    res.Blocked,
			Outcomes:   res.Outcomes,
		}
		if archive != nil {
			id, err := archive.SaveResult(context.Background(), res)
			if err != nil {
				formatter.Error("E_STORE", err.Error())
				return WrapExitError(ExitCommandError, "archiving result", err)
			}
			report.RunID = id
		}
		reports = append(reports, report)

		if rootOpts.Format == "text" {
			formatter.Text(res.Format())
			if report.RunID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "archived as %s\n", report.RunID)
			}
			if cfg.PrintGraphs {
				fmt.Fprintln(cmd.OutOrStdout(), runner.DumpGraph())
			}
		}
	}

	if rootOpts.Format == "json" {
		return formatter.Success(reports)
	}
	return nil
}

// loadScenarios loads a scenario directory and applies the optional
// name filter, mapping loader failures onto exit codes.
func loadScenarios(dir, only string, formatter *OutputFormatter) ([]litmus.Scenario, error) {
	scenarios, err := litmus.LoadDir(dir)
	if err != nil {
		var loadErr *litmus.LoadError
		if errors.As(err, &loadErr) {
			formatter.Error(loadErr.Code, loadErr.Message)
			code := ExitCommandError
			if loadErr.Code == litmus.ErrCodeInvalid {
				code = ExitFailure
			}
			return nil, WrapExitError(code, "loading scenarios", err)
		}
		formatter.Error("E_LOAD", err.Error())
		return nil, WrapExitError(ExitCommandError, "loading scenarios", err)
	}

	if only == "" {
		return scenarios, nil
	}
	for i := range scenarios {
		if scenarios[i].Name == only {
			return scenarios[i : i+1], nil
		}
	}
	err = fmt.Errorf("scenario %q not found in %s", only, dir)
	formatter.Error("E_LOAD", err.Error())
	return nil, WrapExitError(ExitCommandError, "loading scenarios", err)
}
