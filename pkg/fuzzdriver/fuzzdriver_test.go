package fuzzdriver_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariacomputecompany/fozzy/pkg/engine"
	"github.com/ariacomputecompany/fozzy/pkg/fuzzdriver"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
)

func corpusScenario() *scenario.Scenario {
	return &scenario.Scenario{
		Metadata: scenario.Metadata{Name: "mem-fuzz-corpus"},
		Spec: scenario.Spec{
			Seed:      1,
			Resources: scenario.ResourceCeilings{MemLimitMB: 64, MemFailAfter: 64},
			Steps: []scenario.Step{
				{Kind: scenario.StepMemAlloc, Budget: 32},
				{Kind: scenario.StepOK},
			},
		},
	}
}

func TestSamplerIsDeterministicForASeed(t *testing.T) {
	a := fuzzdriver.NewSampler(7)
	b := fuzzdriver.NewSampler(7)
	sa := fuzzdriver.Mutate(corpusScenario(), a)
	sb := fuzzdriver.Mutate(corpusScenario(), b)
	assert.Equal(t, sa.Spec.Steps[0].Budget, sb.Spec.Steps[0].Budget, "same seed must produce the same mutation")
}

func TestMutateNeverModifiesCorpus(t *testing.T) {
	corpus := corpusScenario()
	original := corpus.Spec.Steps[0].Budget
	fuzzdriver.Mutate(corpus, fuzzdriver.NewSampler(42))
	assert.Equal(t, original, corpus.Spec.Steps[0].Budget, "Mutate must not touch the corpus in place")
}

func TestRunnerProducesOneResultPerRound(t *testing.T) {
	dir := t.TempDir()
	r := fuzzdriver.NewRunner(fuzzdriver.Config{
		Rounds:  5,
		Seed:    1,
		LogPath: filepath.Join(dir, "fuzz_log.jsonl"),
		EngOpts: engine.Options{Det: true},
	}, corpusScenario())

	results, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, rr := range results {
		assert.Equal(t, i, rr.Round, "round index must match position")
		assert.NotEmpty(t, rr.Outcome, "round %d must classify to an outcome", i)
	}
}

func TestRunnerStopsEarlyOnRequestedOutcome(t *testing.T) {
	r := fuzzdriver.NewRunner(fuzzdriver.Config{
		Rounds:    50,
		Seed:      1,
		EngOpts:   engine.Options{Det: true},
		StopOnAny: []engine.Outcome{engine.OutcomePass, engine.OutcomeFail, engine.OutcomeCrash, engine.OutcomeTimeout, engine.OutcomeDeadlock, engine.OutcomeDrift},
	}, corpusScenario())

	results, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1, "session must stop right after round 0 since every outcome is in StopOnAny")
}
