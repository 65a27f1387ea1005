package fuzzdriver

import "github.com/ariacomputecompany/fozzy/pkg/scenario"

// Mutate returns a deep-enough copy of corpus with its numeric step
// parameters and scripted-fixture fields resampled by sampler. corpus
// itself is never modified — each fuzz round starts from the same seed
// scenario and diverges only in what Mutate draws.
//
// Grounded on the teacher's pkg/fuzz/generator.go (build a scenario
// around sampled fault parameters); narrowed here to perturbing an
// existing corpus scenario's step budgets and fixture tables rather
// than synthesizing a fresh topology/fault list from scratch, since
// fozzy has no live target tiers to select among.
func Mutate(corpus *scenario.Scenario, sampler *Sampler) *scenario.Scenario {
	mutated := *corpus
	mutated.Spec.Steps = append([]scenario.Step(nil), corpus.Spec.Steps...)
	mutated.Spec.Scripts = mutateScripts(corpus.Spec.Scripts, sampler)

	memCeiling := float64(corpus.Spec.Resources.MemLimitMB)
	if memCeiling <= 0 {
		memCeiling = 1024
	}

	for i, st := range mutated.Spec.Steps {
		switch st.Kind {
		case scenario.StepMemAlloc:
			// Bias allocations around the ceiling itself, the boundary
			// most likely to trigger (or narrowly miss) mem_fail.
			mutated.Spec.Steps[i].Budget = int64(sampler.triangular(1, memCeiling*1.5, memCeiling))
		case scenario.StepSleep, scenario.StepAdvanceTime:
			mutated.Spec.Steps[i].Budget = sampler.logUniform(1, 10_000)
		case scenario.StepEventually, scenario.StepNever:
			mutated.Spec.Steps[i].Budget = sampler.logUniform(1, 5_000)
		case scenario.StepSetRNG:
			mutated.Spec.Steps[i].Budget = sampler.logUniform(0, 1<<32)
		}
	}
	return &mutated
}

func mutateScripts(s scenario.Scripts, sampler *Sampler) scenario.Scripts {
	out := s
	out.HTTP = append([]scenario.HTTPMatcher(nil), s.HTTP...)
	for i := range out.HTTP {
		if sampler.coin(0.3) {
			out.HTTP[i].StatusCode = sampler.pick([]int{200, 400, 404, 500, 503})
		}
	}
	out.Proc = append([]scenario.ProcMatcher(nil), s.Proc...)
	for i := range out.Proc {
		if sampler.coin(0.3) {
			out.Proc[i].ExitCode = sampler.pick([]int{0, 0, 0, 1, 2, 127})
		}
	}
	if s.Net.Policy != "" {
		// Bias the drop probability toward the extremes (near-0 and
		// near-1), where off-by-one delivery-order bugs tend to live,
		// rather than a uniform sample that spends most of its budget
		// in the uninteresting middle.
		mode := 0.0
		if sampler.coin(0.5) {
			mode = 1.0
		}
		out.Net.DropP = sampler.triangular(0, 1, mode)
	}
	return out
}
