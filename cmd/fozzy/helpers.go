package main

import (
	"os"

	"github.com/ariacomputecompany/fozzy/pkg/config"
	"github.com/ariacomputecompany/fozzy/pkg/engine"
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/reporting"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
	"github.com/ariacomputecompany/fozzy/pkg/scenario/parser"
)

// loadScenario reads scenarioPath, parses it, and applies any
// "key=value" overrides from --set flags.
func loadScenario(scenarioPath string, setFlags []string) (*scenario.Scenario, error) {
	data, err := os.ReadFile(scenarioPath)
	if err != nil {
		return nil, fozzyerr.Newf(fozzyerr.KindParse, "fozzy.loadScenario", "read scenario file: %v", err)
	}

	p := parser.New()
	s, err := p.Parse(data)
	if err != nil {
		return nil, err
	}

	if len(setFlags) > 0 {
		overrides, err := parser.ParseSetFlags(setFlags)
		if err != nil {
			return nil, err
		}
		if err := parser.ApplyOverrides(s, overrides); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// resolveSeed picks the effective seed: an explicit --seed flag wins,
// then the scenario's own pinned seed, then the config default.
func resolveSeed(seedFlag int64, s *scenario.Scenario, cfg *config.Config) int64 {
	if seedFlag != 0 {
		return seedFlag
	}
	if s.Spec.Seed != 0 {
		return s.Spec.Seed
	}
	return cfg.Determinism.DefaultSeed
}

func logLevel() reporting.LogLevel {
	if verbose {
		return reporting.LogLevelDebug
	}
	return reporting.LogLevelInfo
}

// capabilitiesUsed reports which capability domains a scenario's steps
// actually exercise, for a manifest's capabilities field.
func capabilitiesUsed(s *scenario.Scenario) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, step := range s.Spec.Steps {
		switch step.Kind {
		case scenario.StepFSWrite, scenario.StepFSRead, scenario.StepFSSnapshot, scenario.StepFSRestore:
			add("fs")
		case scenario.StepHTTPRequest:
			add("http")
		case scenario.StepProcSpawn:
			add("proc")
		case scenario.StepNetSend, scenario.StepNetDeliver, scenario.StepNetRecv:
			add("net")
		case scenario.StepMemAlloc, scenario.StepMemFree:
			add("mem")
		}
	}
	return out
}

// outcomeError maps a non-pass RunResult outcome to a kind-tagged error
// so the CLI's exit code reflects the run's verdict, not just its own
// plumbing. A pass outcome returns nil.
func outcomeError(outcome engine.Outcome, detail string) error {
	switch outcome {
	case engine.OutcomePass:
		return nil
	case engine.OutcomeFail:
		return fozzyerr.Newf(fozzyerr.KindAssertion, "fozzy.run", "scenario failed: %s", detail)
	case engine.OutcomeCrash:
		return fozzyerr.Newf(fozzyerr.KindInternal, "fozzy.run", "scenario crashed: %s", detail)
	case engine.OutcomeTimeout:
		return fozzyerr.Newf(fozzyerr.KindTimeout, "fozzy.run", "scenario timed out: %s", detail)
	case engine.OutcomeDeadlock:
		return fozzyerr.Newf(fozzyerr.KindDeadlock, "fozzy.run", "scenario deadlocked: %s", detail)
	case engine.OutcomeDrift:
		return fozzyerr.Newf(fozzyerr.KindDrift, "fozzy.run", "replay drift: %s", detail)
	default:
		return fozzyerr.Newf(fozzyerr.KindInternal, "fozzy.run", "unrecognized outcome %q", outcome)
	}
}
