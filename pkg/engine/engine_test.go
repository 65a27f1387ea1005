package engine

import (
	"testing"

	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
)

func echoScenario() *scenario.Scenario {
	return &scenario.Scenario{
		APIVersion: "fozzy/v1",
		Kind:       "Scenario",
		Metadata:   scenario.Metadata{Name: "deterministic-echo"},
		Spec: scenario.Spec{
			Seed: 1,
			Scripts: scenario.Scripts{
				Proc: []scenario.ProcMatcher{
					{Command: "echo hi", Stdout: "hi", ExitCode: 0},
				},
			},
			Steps: []scenario.Step{
				{Kind: scenario.StepProcSpawn, Command: "echo hi"},
				{Kind: scenario.StepEq, Value: "hi"},
			},
		},
	}
}

func TestDeterministicEchoPasses(t *testing.T) {
	e := New()
	res, err := e.Run(echoScenario(), 1, Options{Det: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != OutcomePass {
		t.Fatalf("expected pass, got %s (%s)", res.Outcome, res.Detail)
	}

	var procResults int
	for _, d := range res.Decisions {
		if d.Kind == decisionlog.KindProcResult {
			procResults++
		}
	}
	if procResults != 1 {
		t.Fatalf("expected exactly one proc_result decision, got %d", procResults)
	}
}

func TestReplayMatchesRecord(t *testing.T) {
	e := New()
	recorded, err := e.Run(echoScenario(), 1, Options{Det: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	replayed, err := e.Replay(echoScenario(), 1, recorded.Decisions, Options{Det: true})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replayed.Outcome != OutcomePass {
		t.Fatalf("expected replay to pass, got %s", replayed.Outcome)
	}
}

func TestReplayDriftOnTamperedLabel(t *testing.T) {
	e := New()
	recorded, err := e.Run(echoScenario(), 1, Options{Det: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	tampered := append([]decisionlog.Decision(nil), recorded.Decisions...)
	tampered[0].Label = "corrupted-label"

	replayed, err := e.Replay(echoScenario(), 1, tampered, Options{Det: true})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replayed.Outcome != OutcomeDrift {
		t.Fatalf("expected drift, got %s", replayed.Outcome)
	}
}

func TestExplicitFailStopsRun(t *testing.T) {
	s := &scenario.Scenario{
		Metadata: scenario.Metadata{Name: "fails-at-step"},
		Spec: scenario.Spec{
			Steps: []scenario.Step{
				{Kind: scenario.StepOK},
				{Kind: scenario.StepFail},
				{Kind: scenario.StepOK},
			},
		},
	}
	e := New()
	res, err := e.Run(s, 1, Options{Det: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != OutcomeFail || res.FailedAt != 1 {
		t.Fatalf("expected fail at step 1, got %s at %d", res.Outcome, res.FailedAt)
	}
}

func TestLeakDetection(t *testing.T) {
	s := &scenario.Scenario{
		Metadata: scenario.Metadata{Name: "leaky"},
		Spec: scenario.Spec{
			Steps: []scenario.Step{
				{Kind: scenario.StepMemAlloc, Budget: 1, Key: "site-a"},
				{Kind: scenario.StepMemAlloc, Budget: 1, Key: "site-b"},
				{Kind: scenario.StepInvariant, Target: "no_leak"},
			},
		},
	}
	e := New()
	res, err := e.Run(s, 1, Options{Det: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != OutcomeFail {
		t.Fatalf("expected fail from no_leak invariant, got %s", res.Outcome)
	}
	if len(Leaks(res.Allocs)) != 2 {
		t.Fatalf("expected 2 leaks, got %d", len(Leaks(res.Allocs)))
	}
}

func TestEmptyScenarioPasses(t *testing.T) {
	s := &scenario.Scenario{Metadata: scenario.Metadata{Name: "empty"}}
	e := New()
	res, err := e.Run(s, 1, Options{Det: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != OutcomePass {
		t.Fatalf("expected pass, got %s", res.Outcome)
	}
	if len(res.Decisions) != 0 {
		t.Fatalf("expected empty decision log, got %d entries", len(res.Decisions))
	}
}

// TestLeakBudgetEnforcementFailsOverBudget is spec.md §8 end-to-end
// scenario 5: 3 allocations, 1 freed, leak budget 1. With FailOnLeak
// the 2 surviving leaks exceed the budget and the run fails even
// though every step itself passed.
func TestLeakBudgetEnforcementFailsOverBudget(t *testing.T) {
	s := &scenario.Scenario{
		Metadata: scenario.Metadata{Name: "leak-budget"},
		Spec: scenario.Spec{
			Resources: scenario.ResourceCeilings{LeakBudget: 1},
			Steps: []scenario.Step{
				{Kind: scenario.StepMemAlloc, Budget: 1, Key: "a"},
				{Kind: scenario.StepMemAlloc, Budget: 1, Key: "b"},
				{Kind: scenario.StepMemAlloc, Budget: 1, Key: "c"},
				{Kind: scenario.StepMemFree, Value: "1"},
			},
		},
	}
	e := New()
	res, err := e.Run(s, 1, Options{Det: true, FailOnLeak: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != OutcomeFail {
		t.Fatalf("expected fail from leak budget enforcement, got %s (%s)", res.Outcome, res.Detail)
	}
	if len(Leaks(res.Allocs)) != 2 {
		t.Fatalf("expected 2 leaks, got %d", len(Leaks(res.Allocs)))
	}
}

// TestLeakBudgetNotEnforcedByDefault confirms FailOnLeak is opt-in: the
// same leaky scenario without it still passes.
func TestLeakBudgetNotEnforcedByDefault(t *testing.T) {
	s := &scenario.Scenario{
		Metadata: scenario.Metadata{Name: "leak-budget-off"},
		Spec: scenario.Spec{
			Resources: scenario.ResourceCeilings{LeakBudget: 0},
			Steps: []scenario.Step{
				{Kind: scenario.StepMemAlloc, Budget: 1, Key: "a"},
			},
		},
	}
	e := New()
	res, err := e.Run(s, 1, Options{Det: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != OutcomePass {
		t.Fatalf("expected pass since FailOnLeak was not requested, got %s", res.Outcome)
	}
}

// TestEventuallyBudgetExpiryTimesOut is the partition-never-heals edge
// case: eventually's predicate never holds, so the outcome must be
// timeout, not a plain fail.
func TestEventuallyBudgetExpiryTimesOut(t *testing.T) {
	s := &scenario.Scenario{
		Metadata: scenario.Metadata{Name: "partition-never-heals"},
		Spec: scenario.Spec{
			Nodes: []scenario.Node{{ID: "a"}, {ID: "b"}},
			Steps: []scenario.Step{
				{Kind: scenario.StepPartition, Node: "a", Target: "b"},
				{Kind: scenario.StepEventually, Target: "all", Key: "k", Value: "1", Budget: 10},
			},
		},
	}
	e := New()
	res, err := e.Run(s, 1, Options{Det: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != OutcomeTimeout {
		t.Fatalf("expected timeout, got %s (%s)", res.Outcome, res.Detail)
	}
}
