package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/litmus"
)

type estimateOptions struct {
	scenario string
	seed     int64
	runs     int
}

// EstimateReport is the JSON payload for one sampled scenario.
type EstimateReport struct {
	Scenario         string `json:"scenario"`
	Runs             uint64 `json:"runs"`
	Blocked          uint64 `json:"blocked"`
	DistinctOutcomes int    `json:"distinct_outcomes"`
}

// NewEstimateCommand creates the estimate command.
func NewEstimateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &estimateOptions{}

	cmd := &cobra.Command{
		Use:   "estimate <scenario-dir>",
		Short: "Sample schedules to gauge a scenario's state space",
		Long: `Estimate runs each scenario under randomized schedules and reports
how many distinct final states the sample surfaced. Use it to size the
execution budget before a full run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.scenario, "scenario", "", "estimate only the named scenario")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "base schedule seed")
	cmd.Flags().IntVar(&opts.runs, "runs", 0, "number of sampled executions per scenario")

	return cmd
}

func runEstimate(rootOpts *RootOptions, opts *estimateOptions, dir string, cmd *cobra.Command) error {
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
	if cmd.Flags().Changed("seed") {
		cfg.Seed = opts.seed
	}
	if cmd.Flags().Changed("runs") {
		cfg.EstimationMax = opts.runs
	}
	if cfg.EstimationMax <= 0 {
		err := fmt.Errorf("runs must be positive, got %d", cfg.EstimationMax)
		formatter.Error("E_CONFIG", err.Error())
		return WrapExitError(ExitCommandError, "invalid parameters", err)
	}
	log := newLogger(rootOpts, cfg)

	scenarios, err := loadScenarios(dir, opts.scenario, formatter)
	if err != nil {
		return err
	}

	reports := make([]EstimateReport, 0, len(scenarios))
	for i := range scenarios {
		scn := &scenarios[i]

		// Estimation always samples randomly; deterministic policies
		// would visit the same schedule every run.
		runner := litmus.NewRunner(engine.PolicyRandom, cfg.Seed, cfg.EstimationMax, litmus.WithLogger(log))
		est, err := runner.Estimate(scn)
		if err != nil {
			formatter.Error("E_RUN", err.Error())
			return WrapExitError(ExitFailure, "estimation failed", err)
		}

		reports = append(reports, EstimateReport{
			Scenario:         est.Scenario,
			Runs:             est.Runs,
			Blocked:          est.Blocked,
			DistinctOutcomes: est.DistinctOutcomes,
		})
		if rootOpts.Format == "text" {
			fmt.Fprintf(cmd.OutOrStdout(), "scenario %s: %d distinct outcomes in %d sampled executions (%d blocked)\n",
				est.Scenario, est.DistinctOutcomes, est.Runs, est.Blocked)
		}
	}

	if rootOpts.Format == "json" {
		return formatter.Success(reports)
	}
	return nil
}
