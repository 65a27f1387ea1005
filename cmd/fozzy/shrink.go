package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ariacomputecompany/fozzy/pkg/engine"
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/shrink"
)

var shrinkCmd = &cobra.Command{
	Use:   "shrink",
	Args:  cobra.NoArgs,
	Short: "Bisect a scenario's step list to the smallest sequence reproducing its outcome",
	Long: `Runs ddmin-style delta debugging against a scenario's step list:
repeatedly drops chunks of steps and re-runs, keeping a reduction only
when it still reproduces the outcome the original scenario produced.`,
	RunE: shrinkScenario,
}

func init() {
	shrinkCmd.Flags().String("scenario", "", "path to scenario YAML file (required)")
	shrinkCmd.Flags().Int64("seed", 0, "seed override (0 = use scenario/config default)")
	shrinkCmd.Flags().String("preserve", "outcome", "what to preserve while shrinking: outcome, leak")
	shrinkCmd.Flags().String("outcome", "fail", "outcome to preserve when --preserve=outcome (pass|fail|crash|timeout|deadlock|drift)")
	shrinkCmd.Flags().Int("max-trials", 0, "cap on engine runs (0 = unbounded, bounded only by fixed-point)")
	shrinkCmd.Flags().String("out", "", "path to write the reduced scenario YAML (default: stdout)")
	shrinkCmd.Flags().Bool("det", false, "reject any host capability backend during shrink trials")
}

func shrinkScenario(cmd *cobra.Command, _ []string) error {
	scenarioPath, _ := cmd.Flags().GetString("scenario")
	if scenarioPath == "" {
		return fozzyerr.Newf(fozzyerr.KindValidation, "fozzy.shrink", "--scenario is required")
	}
	seedFlag, _ := cmd.Flags().GetInt64("seed")
	preserveKind, _ := cmd.Flags().GetString("preserve")
	wantOutcome, _ := cmd.Flags().GetString("outcome")
	maxTrials, _ := cmd.Flags().GetInt("max-trials")
	outPath, _ := cmd.Flags().GetString("out")
	det, _ := cmd.Flags().GetBool("det")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := loadScenario(scenarioPath, nil)
	if err != nil {
		return err
	}
	seed := resolveSeed(seedFlag, s, cfg)

	pred, err := buildPredicate(preserveKind, wantOutcome)
	if err != nil {
		return err
	}

	eng := engine.New()
	shrinker := shrink.New(eng)
	opts := shrink.Options{
		Seed:      seed,
		EngOpts:   engine.Options{Det: det || cfg.Determinism.Strict},
		MaxTrials: maxTrials,
	}

	result, err := shrinker.Run(s, opts, pred)
	if err != nil {
		return fozzyerr.New(fozzyerr.KindInternal, "fozzy.shrink", err)
	}

	fmt.Fprintf(os.Stderr, "shrink: %d trials, fixpoint=%v, reduced to %d step(s), outcome=%s\n",
		result.Trials, result.Fixpoint, len(result.Reduced.Spec.Steps), result.Outcome)

	data, err := yaml.Marshal(result.Reduced)
	if err != nil {
		return fozzyerr.New(fozzyerr.KindInternal, "fozzy.shrink", err)
	}
	if outPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(outPath, data, 0644)
}

func buildPredicate(kind, wantOutcome string) (shrink.Predicate, error) {
	switch kind {
	case "outcome":
		outcome, err := parseOutcome(wantOutcome)
		if err != nil {
			return nil, err
		}
		return shrink.PreserveOutcome(outcome), nil
	case "leak":
		return shrink.PreserveLeakClass(true), nil
	default:
		return nil, fozzyerr.Newf(fozzyerr.KindValidation, "fozzy.shrink", "unknown --preserve %q (want outcome|leak)", kind)
	}
}

func parseOutcome(s string) (engine.Outcome, error) {
	switch engine.Outcome(s) {
	case engine.OutcomePass, engine.OutcomeFail, engine.OutcomeCrash, engine.OutcomeTimeout, engine.OutcomeDeadlock, engine.OutcomeDrift:
		return engine.Outcome(s), nil
	default:
		return "", fozzyerr.Newf(fozzyerr.KindValidation, "fozzy.shrink", "unknown outcome %q", s)
	}
}
