package shrink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariacomputecompany/fozzy/pkg/engine"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
)

// tenStepOnlyStepFourFails builds the scenario from the "shrink a
// failing sequence" testable property: 10 steps where only step 4
// (0-indexed 3) triggers fail.
func tenStepOnlyStepFourFails() *scenario.Scenario {
	steps := make([]scenario.Step, 0, 10)
	for i := 0; i < 10; i++ {
		if i == 3 {
			steps = append(steps, scenario.Step{Kind: scenario.StepFail})
			continue
		}
		steps = append(steps, scenario.Step{Kind: scenario.StepOK})
	}
	return &scenario.Scenario{
		Metadata: scenario.Metadata{Name: "only-step-four-fails"},
		Spec:     scenario.Spec{Steps: steps},
	}
}

func TestShrinkReducesFailingSequenceToOneStep(t *testing.T) {
	eng := engine.New()
	s := New(eng)

	res, err := s.Run(tenStepOnlyStepFourFails(), Options{Seed: 1, EngOpts: engine.Options{Det: true}}, PreserveOutcome(engine.OutcomeFail))
	require.NoError(t, err)
	require.Len(t, res.Reduced.Spec.Steps, 1)
	assert.Equal(t, scenario.StepFail, res.Reduced.Spec.Steps[0].Kind, "surviving step must be the failing one")
	assert.Equal(t, engine.OutcomeFail, res.Outcome)
}

func TestShrinkReplayReproducesFail(t *testing.T) {
	eng := engine.New()
	s := New(eng)

	res, err := s.Run(tenStepOnlyStepFourFails(), Options{Seed: 1, EngOpts: engine.Options{Det: true}}, PreserveOutcome(engine.OutcomeFail))
	require.NoError(t, err)

	replayed, err := eng.Replay(res.Reduced, 1, res.LastRun.Decisions, engine.Options{Det: true})
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeFail, replayed.Outcome, "replay of the reduced scenario must still fail")
}

func TestShrinkRejectsNonInterestingOriginal(t *testing.T) {
	eng := engine.New()
	s := New(eng)

	allPass := &scenario.Scenario{
		Metadata: scenario.Metadata{Name: "all-pass"},
		Spec:     scenario.Spec{Steps: []scenario.Step{{Kind: scenario.StepOK}}},
	}

	_, err := s.Run(allPass, Options{Seed: 1, EngOpts: engine.Options{Det: true}}, PreserveOutcome(engine.OutcomeFail))
	assert.Error(t, err, "shrink must reject a scenario that never satisfies the predicate")
}

func TestShrinkOnMinimalScenarioIsFixedPoint(t *testing.T) {
	eng := engine.New()
	s := New(eng)

	minimal := &scenario.Scenario{
		Metadata: scenario.Metadata{Name: "minimal"},
		Spec:     scenario.Spec{Steps: []scenario.Step{{Kind: scenario.StepFail}}},
	}

	res, err := s.Run(minimal, Options{Seed: 1, EngOpts: engine.Options{Det: true}}, PreserveOutcome(engine.OutcomeFail))
	require.NoError(t, err)
	require.Len(t, res.Reduced.Spec.Steps, 1)
	assert.True(t, res.Fixpoint, "already-minimal scenario must terminate at a fixed point")
}

func TestShrinkBudgetExhaustionStopsEarly(t *testing.T) {
	eng := engine.New()
	s := New(eng)

	res, err := s.Run(tenStepOnlyStepFourFails(), Options{Seed: 1, EngOpts: engine.Options{Det: true}, MaxTrials: 2}, PreserveOutcome(engine.OutcomeFail))
	require.NoError(t, err)
	assert.False(t, res.Fixpoint, "budget exhaustion must not report as a fixed point")
	assert.Equal(t, engine.OutcomeFail, res.Outcome, "cut-short result must still satisfy the predicate")
}
