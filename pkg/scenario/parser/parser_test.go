package parser

import (
	"testing"

	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
)

const echoScenarioYAML = `
apiVersion: fozzy/v1
kind: Scenario
metadata:
  name: deterministic-echo
spec:
  seed: 1
  scripts:
    proc:
      - command: "echo hi"
        stdout: "hi"
        exit_code: 0
  steps:
    - kind: proc_spawn
      command: "echo hi"
    - kind: eq
      value: "hi"
      budget: 0
`

func TestParseValidScenario(t *testing.T) {
	p := New()
	s, err := p.Parse([]byte(echoScenarioYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Metadata.Name != "deterministic-echo" {
		t.Fatalf("unexpected name %q", s.Metadata.Name)
	}
	if len(s.Spec.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(s.Spec.Steps))
	}
	if len(s.Spec.Scripts.Proc) != 1 || s.Spec.Scripts.Proc[0].Stdout != "hi" {
		t.Fatalf("expected proc matcher to parse, got %+v", s.Spec.Scripts.Proc)
	}
}

func TestParseInvalidYAMLIsParseError(t *testing.T) {
	p := New()
	_, err := p.Parse([]byte("not: [valid yaml"))
	if fozzyerr.KindOf(err) != fozzyerr.KindParse {
		t.Fatalf("expected parse error kind, got %v", err)
	}
}

func TestApplyOverridesSeed(t *testing.T) {
	p := New()
	s, err := p.Parse([]byte(echoScenarioYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := ApplyOverrides(s, map[string]string{"seed": "42"}); err != nil {
		t.Fatalf("apply overrides: %v", err)
	}
	if s.Spec.Seed != 42 {
		t.Fatalf("expected seed 42, got %d", s.Spec.Seed)
	}
}

func TestApplyOverridesUnknownKey(t *testing.T) {
	p := New()
	s, _ := p.Parse([]byte(echoScenarioYAML))
	err := ApplyOverrides(s, map[string]string{"bogus.key": "x"})
	if fozzyerr.KindOf(err) != fozzyerr.KindParse {
		t.Fatalf("expected parse error for unknown override key, got %v", err)
	}
}

func TestParseSetFlags(t *testing.T) {
	overrides, err := ParseSetFlags([]string{"seed=5", "scheduler_policy=pct"})
	if err != nil {
		t.Fatalf("parse set flags: %v", err)
	}
	if overrides["seed"] != "5" || overrides["scheduler_policy"] != "pct" {
		t.Fatalf("unexpected overrides: %+v", overrides)
	}
}

func TestParseSetFlagsMalformed(t *testing.T) {
	_, err := ParseSetFlags([]string{"no-equals-sign"})
	if fozzyerr.KindOf(err) != fozzyerr.KindParse {
		t.Fatalf("expected parse error, got %v", err)
	}
}
