package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ariacomputecompany/fozzy/pkg/engine"
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/reporting"
	"github.com/ariacomputecompany/fozzy/pkg/trace"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Args:  cobra.NoArgs,
	Short: "Re-execute a scenario against a previously recorded .fozzy trace",
	Long: `Loads a scenario YAML file and a .fozzy trace, and replays the
scenario against the trace's decision log. Any divergence between what
the engine attempts next and what the trace recorded surfaces as a
drift outcome, not a panic.`,
	RunE: replayScenario,
}

func init() {
	replayCmd.Flags().String("scenario", "", "path to scenario YAML file (required)")
	replayCmd.Flags().String("trace", "", "path to .fozzy trace file (required)")
	replayCmd.Flags().Bool("strict", false, "fail on stale-schema trace warnings instead of just reporting them")
	replayCmd.Flags().Bool("det", false, "reject any host capability backend")
}

func replayScenario(cmd *cobra.Command, _ []string) error {
	scenarioPath, _ := cmd.Flags().GetString("scenario")
	tracePath, _ := cmd.Flags().GetString("trace")
	strict, _ := cmd.Flags().GetBool("strict")
	det, _ := cmd.Flags().GetBool("det")
	if scenarioPath == "" || tracePath == "" {
		return fozzyerr.Newf(fozzyerr.KindValidation, "fozzy.replay", "--scenario and --trace are both required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := loadScenario(scenarioPath, nil)
	if err != nil {
		return err
	}

	tr, err := trace.ReadFile(tracePath)
	if err != nil {
		return err
	}
	warnings, err := trace.Verify(tr, strict)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "warning:", w.Message)
	}

	digest, err := s.Digest()
	if err != nil {
		return err
	}
	if digest != tr.Header.ScenarioDigest && tr.Header.ScenarioDigest != "" {
		return fozzyerr.Newf(fozzyerr.KindDrift, "fozzy.replay", "scenario digest %s does not match trace's recorded digest %s", digest, tr.Header.ScenarioDigest)
	}

	runID := trace.NewRunID()
	logger := reporting.NewLogger(reporting.LoggerConfig{Level: logLevel(), Format: reporting.LogFormat(cfg.Framework.LogFormat), Output: os.Stdout}).
		WithRun(runID, tr.Header.Seed)

	opts := engine.Options{Det: det || cfg.Determinism.Strict}
	eng := engine.New()
	start := time.Now()
	logger.Info("replay starting")
	result, err := eng.Replay(s, tr.Header.Seed, tr.Decisions, opts)
	end := time.Now()
	if err != nil {
		return fozzyerr.New(fozzyerr.KindInternal, "fozzy.replay", err)
	}

	report := reporting.BuildReport(runID, s.Metadata.Name, tr.Header.Seed, "replay", start, end, result)

	progress := reporting.NewProgressReporter(reporting.FormatText, logger)
	progress.ReportCompleted(report)

	return outcomeError(result.Outcome, result.Detail)
}
