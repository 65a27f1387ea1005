package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ariacomputecompany/fozzy/pkg/config"
	"github.com/ariacomputecompany/fozzy/pkg/engine"
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/reporting"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
	"github.com/ariacomputecompany/fozzy/pkg/scenario/parser"
	"github.com/ariacomputecompany/fozzy/pkg/scenario/validator"
	"github.com/ariacomputecompany/fozzy/pkg/trace"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Execute a scenario from scratch, recording its decisions",
	Long:  `Loads a scenario YAML file, drives it to a verdict, and writes a report/trace/manifest.`,
	RunE:  runScenario,
}

func init() {
	runCmd.Flags().String("scenario", "", "path to scenario YAML file (required)")
	runCmd.Flags().StringArray("set", []string{}, "override scenario values (e.g. --set seed=7)")
	runCmd.Flags().Int64("seed", 0, "seed override (0 = use scenario/config default)")
	runCmd.Flags().Bool("det", false, "reject any host capability backend")
	runCmd.Flags().String("format", "text", "progress output format (text, json)")
	runCmd.Flags().String("out", "", "output directory override")
	runCmd.Flags().String("fs-host-root", "", "host directory backing fs_read with backend=host (fs_write always writes the overlay)")
	runCmd.Flags().String("proc-image", "", "docker image backing proc_spawn with backend=host")
	runCmd.Flags().Bool("dry-run", false, "validate the scenario without executing it")
	runCmd.Flags().Bool("no-trace", false, "skip writing a .fozzy trace file")
	runCmd.Flags().Bool("no-manifest", false, "skip writing a run manifest")
	runCmd.Flags().Bool("fail-on-leak", false, "downgrade an otherwise-passing run to fail if it leaks more than the leak budget")
	runCmd.Flags().Int64("leak-budget", -1, "override the scenario's resources.leak_budget (-1 = use the scenario's own value)")
}

func runScenario(cmd *cobra.Command, _ []string) error {
	scenarioPath, _ := cmd.Flags().GetString("scenario")
	if scenarioPath == "" {
		return fozzyerr.Newf(fozzyerr.KindValidation, "fozzy.run", "--scenario is required")
	}
	setFlags, _ := cmd.Flags().GetStringArray("set")
	seedFlag, _ := cmd.Flags().GetInt64("seed")
	det, _ := cmd.Flags().GetBool("det")
	format, _ := cmd.Flags().GetString("format")
	outOverride, _ := cmd.Flags().GetString("out")
	fsHostRoot, _ := cmd.Flags().GetString("fs-host-root")
	procImage, _ := cmd.Flags().GetString("proc-image")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noTrace, _ := cmd.Flags().GetBool("no-trace")
	noManifest, _ := cmd.Flags().GetBool("no-manifest")
	failOnLeak, _ := cmd.Flags().GetBool("fail-on-leak")
	leakBudgetFlag, _ := cmd.Flags().GetInt64("leak-budget")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if outOverride != "" {
		cfg.Reporting.OutputDir = outOverride
	}

	s, err := loadScenario(scenarioPath, setFlags)
	if err != nil {
		return err
	}

	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel(),
		Format: reporting.LogFormat(cfg.Framework.LogFormat),
		Output: os.Stdout,
	})
	logger.Info("scenario parsed", "name", s.Metadata.Name, "steps", len(s.Spec.Steps))

	v := validator.New()
	if err := v.Validate(s); err != nil {
		return err
	}
	logger.Info("scenario validated")

	if dryRun {
		fmt.Println("scenario is valid (dry-run)")
		return nil
	}

	seed := resolveSeed(seedFlag, s, cfg)
	runID := trace.NewRunID()
	logger = logger.WithRun(runID, seed)

	opts := engine.Options{
		Det:         det || cfg.Determinism.Strict,
		FSHostRoot:  fsHostRoot,
		HTTPTimeout: cfg.Capability.HostTimeout,
		HTTPCeiling: int64(cfg.Capability.HTTPBodyCeilingBytes),
		ProcImage:   procImage,
		ProcCeiling: int64(cfg.Capability.ProcOutputCeilingBytes),
		FailOnLeak:  failOnLeak,
	}
	if leakBudgetFlag >= 0 {
		opts.LeakBudget = &leakBudgetFlag
	}

	eng := engine.New()
	start := time.Now()
	logger.Info("run starting")
	result, runErr := eng.Run(s, seed, opts)
	end := time.Now()
	if runErr != nil {
		return fozzyerr.New(fozzyerr.KindInternal, "fozzy.run", runErr)
	}

	report := reporting.BuildReport(runID, s.Metadata.Name, seed, "record", start, end, result)

	storage, err := reporting.NewStorage(cfg.Reporting.OutputDir, cfg.Reporting.KeepLastN, logger)
	if err != nil {
		return err
	}
	reportPath, err := storage.SaveReport(report, reporting.CollisionPolicy(cfg.Reporting.Collision))
	if err != nil {
		logger.Warn("failed to save report", "error", err)
	}

	artifacts := []trace.Artifact{{Type: "report", Path: reportPath}}
	if failOnLeak && len(report.Leaks) > 0 {
		leaksPath, err := storage.WriteLeaksArtifact(runID, report.Leaks)
		if err != nil {
			logger.Warn("failed to write leaks artifact", "error", err)
		} else {
			artifacts = append(artifacts, trace.Artifact{Type: "memory_leaks", Path: leaksPath})
		}
	}
	if !noTrace {
		tracePath, err := writeTrace(cfg, s, seed, runID, result)
		if err != nil {
			logger.Warn("failed to write trace", "error", err)
		} else {
			artifacts = append(artifacts, trace.Artifact{Type: "trace", Path: tracePath})
		}
	}
	if !noManifest {
		manifestPath := filepath.Join(cfg.Reporting.OutputDir, runID+"-manifest.json")
		m := trace.BuildManifest(runID, seed, result.Outcome, capabilitiesUsed(s), artifacts, commit)
		if _, err := trace.WriteManifest(manifestPath, m, trace.CollisionPolicy(cfg.Reporting.Collision)); err != nil {
			logger.Warn("failed to write manifest", "error", err)
		}
	}

	progress := reporting.NewProgressReporter(reporting.OutputFormat(format), logger)
	progress.ReportCompleted(report)

	return outcomeError(result.Outcome, result.Detail)
}

// writeTrace builds and writes the .fozzy trace for a completed run.
func writeTrace(cfg *config.Config, s *scenario.Scenario, seed int64, runID string, result *engine.RunResult) (string, error) {
	digest, err := s.Digest()
	if err != nil {
		return "", err
	}
	tr, err := trace.Build(seed, digest, commit, cfg.Reporting.Collision, result.Decisions, result.Events, time.Now())
	if err != nil {
		return "", err
	}
	path := filepath.Join(cfg.Reporting.OutputDir, runID+".fozzy")
	return trace.Write(path, tr, trace.CollisionPolicy(cfg.Reporting.Collision))
}
