package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rmab-sim/rmab-sim/rb"
	"github.com/rmab-sim/rmab-sim/rb/trace"
)

var (
	// CLI flags shared by the subcommands
	logLevel     string // Log verbosity level
	instancePath string // Path to an instance YAML file; empty = built-in example
	seed         int64  // Master seed for all RNG subsystems
	horizon      int    // Number of simulated periods
	policyName   string // Which policy drives the run
	tieBreak     string // FTVA tie-break rule
	traceLevel   string // Decision trace verbosity
	numArms      int    // Override for the instance's arm count (0 = keep)
)

// Policy names accepted by the run command.
const (
	PolicyLPPriority = "lp-priority"
	PolicyWhittle    = "whittle"
	PolicyRandomTB   = "random-tb"
	PolicyFTVA       = "ftva"
)

var validPolicies = map[string]bool{
	PolicyLPPriority: true,
	PolicyWhittle:    true,
	PolicyRandomTB:   true,
	PolicyFTVA:       true,
}

// IsValidPolicy returns true if the given name is a recognized policy.
func IsValidPolicy(name string) bool {
	return validPolicies[name]
}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "rmab-sim",
	Short: "Simulator and policy solver for restless multi-armed bandits",
}

// loadInstance resolves the instance from the --instance flag or falls back
// to the built-in example, and validates it.
func loadInstance() (*InstanceConfig, error) {
	var cfg *InstanceConfig
	if instancePath == "" {
		cfg = ExampleInstance()
		logrus.Infof("No instance file given, using built-in instance %q", cfg.Name)
	} else {
		var err error
		if cfg, err = LoadInstanceConfig(instancePath); err != nil {
			return nil, err
		}
	}
	if numArms > 0 {
		cfg.NumArms = numArms
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", logLevel)
	}
	logrus.SetLevel(level)
	return nil
}

// analyzeCmd solves the single-arm relaxation and prints the resulting
// occupation measure, priority orderings, and Whittle indices.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Solve the single-arm LP and Whittle index for an instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		cfg, err := loadInstance()
		if err != nil {
			return err
		}
		model, err := cfg.Model()
		if err != nil {
			return err
		}
		analyzer, err := rb.NewAnalyzer(model, cfg.ActFrac)
		if err != nil {
			return err
		}

		res, err := analyzer.SolvePriorityLP()
		if err != nil {
			return err
		}
		fmt.Printf("instance: %s (S=%d, act_frac=%v)\n", cfg.Name, cfg.SspaSize, cfg.ActFrac)
		fmt.Printf("LP value:          %.6f\n", res.Value)
		fmt.Printf("optimal subsidy:   %.6f\n", res.Subsidy)
		fmt.Printf("average reward:    %.6f\n", res.AvgReward)
		fmt.Printf("occupation measure y:\n")
		for s, row := range res.Y {
			fmt.Printf("  state %d: passive=%.6f active=%.6f\n", s, row[0], row[1])
		}
		fmt.Printf("LP priority list:  %v\n", res.PriorityList)

		wr, err := analyzer.SolveWhittle()
		if err != nil {
			return err
		}
		fmt.Printf("Whittle indices:   %v\n", wr.Indices)
		fmt.Printf("Whittle priority:  %v\n", wr.PriorityList)
		fmt.Printf("indexable:         %v\n", wr.Indexable)
		if !wr.Indexable {
			logrus.Warnf("instance is not indexable; the Whittle priority list has no optimality guarantee")
		}
		return nil
	},
}

// runCmd simulates the chosen policy on the instance.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a policy on an instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		if !IsValidPolicy(policyName) {
			return fmt.Errorf("unknown policy %q (valid: lp-priority, whittle, random-tb, ftva)", policyName)
		}
		if !rb.IsValidTieBreak(tieBreak) {
			return fmt.Errorf("unknown tie-break rule %q", tieBreak)
		}
		if !trace.IsValidLevel(traceLevel) {
			return fmt.Errorf("unknown trace level %q", traceLevel)
		}
		cfg, err := loadInstance()
		if err != nil {
			return err
		}
		model, err := cfg.Model()
		if err != nil {
			return err
		}
		analyzer, err := rb.NewAnalyzer(model, cfg.ActFrac)
		if err != nil {
			return err
		}

		prng := rb.NewPartitionedRNG(seed)
		initStates, err := cfg.InitStates()
		if err != nil {
			return err
		}
		bandit, err := rb.NewBandit(model, cfg.NumArms, initStates, prng.ForSubsystem(rb.SubsystemTransition))
		if err != nil {
			return err
		}
		rt := trace.NewRunTrace(trace.Config{Level: trace.Level(traceLevel)})

		logrus.Infof("Running %s on %q: N=%d, act_frac=%v, horizon=%d, seed=%d",
			policyName, cfg.Name, cfg.NumArms, cfg.ActFrac, horizon, seed)

		var metrics *rb.RunMetrics
		switch policyName {
		case PolicyLPPriority, PolicyWhittle, PolicyRandomTB:
			policy, err := buildStepPolicy(model, analyzer, cfg, prng)
			if err != nil {
				return err
			}
			if metrics, err = rb.RunPolicy(bandit, policy, horizon, rt); err != nil {
				return err
			}
		case PolicyFTVA:
			policy, err := buildFTVAPolicy(model, analyzer, cfg, prng)
			if err != nil {
				return err
			}
			if metrics, err = rb.RunFTVA(bandit, policy, horizon, rt); err != nil {
				return err
			}
		}

		fmt.Printf("average reward:      %.6f\n", metrics.AverageReward())
		fmt.Printf("p50/p99 reward:      %.6f / %.6f\n", metrics.RewardPercentile(50), metrics.RewardPercentile(99))
		fmt.Printf("average activated:   %.3f (budget %.3f)\n", metrics.AverageActivated(), float64(cfg.NumArms)*cfg.ActFrac)
		fmt.Printf("final state fracs:   %v\n", metrics.FinalStateFracs)
		if summary := trace.Summarize(rt); summary.Steps > 0 {
			fmt.Printf("traced steps:        %d (mean good arms %.2f)\n", summary.Steps, summary.MeanGoodArms)
		}
		logrus.Info("Simulation complete.")
		return nil
	},
}

// buildStepPolicy constructs one of the budgeted non-coupling policies.
func buildStepPolicy(model *rb.Model, analyzer *rb.Analyzer, cfg *InstanceConfig, prng *rb.PartitionedRNG) (rb.StepPolicy, error) {
	rng := prng.ForSubsystem(rb.SubsystemPolicy)
	switch policyName {
	case PolicyLPPriority:
		res, err := analyzer.SolvePriorityLP()
		if err != nil {
			return nil, err
		}
		return rb.NewPriorityPolicy(model.NumStates(), res.PriorityList, cfg.NumArms, cfg.ActFrac, rng)
	case PolicyWhittle:
		wr, err := analyzer.SolveWhittle()
		if err != nil {
			return nil, err
		}
		if !wr.Indexable {
			logrus.Warnf("instance is not indexable; proceeding with the approximate Whittle priority list")
		}
		return rb.NewPriorityPolicy(model.NumStates(), wr.PriorityList, cfg.NumArms, cfg.ActFrac, rng)
	case PolicyRandomTB:
		res, err := analyzer.SolvePriorityLP()
		if err != nil {
			return nil, err
		}
		return rb.NewRandomTBPolicy(res.Y, cfg.NumArms, cfg.ActFrac, rng)
	}
	return nil, fmt.Errorf("unknown policy %q", policyName)
}

// buildFTVAPolicy constructs the FTVA coupling policy; priority-flavoured
// tie-break rules reuse the LP priority list.
func buildFTVAPolicy(model *rb.Model, analyzer *rb.Analyzer, cfg *InstanceConfig, prng *rb.PartitionedRNG) (*rb.FTVAPolicy, error) {
	res, err := analyzer.SolvePriorityLP()
	if err != nil {
		return nil, err
	}
	ftvaCfg := rb.FTVAConfig{
		N:        cfg.NumArms,
		ActFrac:  cfg.ActFrac,
		TieBreak: rb.TieBreak(tieBreak),
	}
	if rb.TieBreak(tieBreak) == rb.TieBreakPriority || rb.TieBreak(tieBreak) == rb.TieBreakGoodnessPriority {
		ftvaCfg.TieBreakPriority = res.PriorityList
	}
	return rb.NewFTVAPolicy(model, res.Y, ftvaCfg, prng.ForSubsystem(rb.SubsystemPolicy))
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log verbosity level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&instancePath, "instance", "", "Path to an instance YAML file (empty = built-in example)")
	rootCmd.PersistentFlags().IntVar(&numArms, "num-arms", 0, "Override the instance's arm count (0 = keep)")

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for all RNG subsystems")
	runCmd.Flags().IntVar(&horizon, "horizon", 1000, "Number of simulated periods")
	runCmd.Flags().StringVar(&policyName, "policy", PolicyFTVA, "Policy to run (lp-priority, whittle, random-tb, ftva)")
	runCmd.Flags().StringVar(&tieBreak, "tie-break", string(rb.TieBreakGoodness), "FTVA tie-break rule (goodness, naive, priority, goodness-priority)")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.LevelNone), "Decision trace level (none, decisions)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
}
