package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ariacomputecompany/fozzy/pkg/engine"
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/fuzzdriver"
)

var fuzzCmd = &cobra.Command{
	Use:   "fuzz",
	Args:  cobra.NoArgs,
	Short: "Run mutated variants of a corpus scenario through the lightweight engine entrypoint",
	Long: `Fuzz repeatedly mutates a corpus scenario's step budgets and
scripted-fixture fields, biasing samples toward the thresholds most
likely to expose a boundary bug, and runs each mutation through
Engine.RunLite. Unlike run/replay/shrink, fuzz never writes a report,
trace, or manifest — a round's only output is a logged outcome.`,
	RunE: runFuzzDriver,
}

func init() {
	fuzzCmd.Flags().String("scenario", "", "path to the corpus scenario YAML file (required)")
	fuzzCmd.Flags().Int("rounds", 100, "number of fuzz rounds")
	fuzzCmd.Flags().Int64("seed", 1, "session seed; each round derives its own sub-seed from it")
	fuzzCmd.Flags().String("log", "fozzy_fuzz_log.jsonl", "JSONL round log path")
	fuzzCmd.Flags().Bool("det", true, "reject any host capability backend during fuzz rounds")
	fuzzCmd.Flags().Bool("stop-on-fail", false, "stop the session as soon as a round outcome is not pass")
}

func runFuzzDriver(cmd *cobra.Command, _ []string) error {
	scenarioPath, _ := cmd.Flags().GetString("scenario")
	if scenarioPath == "" {
		return fozzyerr.Newf(fozzyerr.KindValidation, "fozzy.fuzz", "--scenario is required")
	}
	rounds, _ := cmd.Flags().GetInt("rounds")
	seed, _ := cmd.Flags().GetInt64("seed")
	logPath, _ := cmd.Flags().GetString("log")
	det, _ := cmd.Flags().GetBool("det")
	stopOnFail, _ := cmd.Flags().GetBool("stop-on-fail")

	corpus, err := loadScenario(scenarioPath, nil)
	if err != nil {
		return err
	}

	cfg := fuzzdriver.Config{
		Rounds:  rounds,
		Seed:    seed,
		LogPath: logPath,
		EngOpts: engine.Options{Det: det},
	}
	if stopOnFail {
		cfg.StopOnAny = []engine.Outcome{
			engine.OutcomeFail, engine.OutcomeCrash, engine.OutcomeTimeout,
			engine.OutcomeDeadlock, engine.OutcomeDrift,
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := fuzzdriver.NewRunner(cfg, corpus)
	results, err := runner.Run(ctx)
	if err != nil {
		return fozzyerr.New(fozzyerr.KindInternal, "fozzy.fuzz", err)
	}

	passed := 0
	for _, r := range results {
		if r.Outcome == engine.OutcomePass {
			passed++
		}
	}
	fmt.Printf("fuzz: %d/%d rounds passed\n", passed, len(results))
	if passed != len(results) {
		return fozzyerr.Newf(fozzyerr.KindAssertion, "fozzy.fuzz", "%d of %d rounds did not pass", len(results)-passed, len(results))
	}
	return nil
}
