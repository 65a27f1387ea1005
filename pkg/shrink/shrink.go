// Package shrink implements ddmin-style delta-debugging over a
// scenario's step list: given a scenario whose run is "interesting"
// (triggers some outcome or metric condition), it finds a
// subsequence of steps that is still interesting and no larger
// (smaller whenever some chunk can be dropped). Grounded on the teacher's pkg/fuzz round-trial loop
// (sampler.go/runner.go: generate a candidate, run it, record
// pass/fail, repeat), generalized from "sample a new random fault
// mix each round" to "bisect an existing step buffer each round."
package shrink

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/ariacomputecompany/fozzy/pkg/engine"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
)

// Predicate reports whether res is still "interesting" — the
// condition the shrinker must preserve while reducing. Outcome-class,
// metric-preserving, and memory-aware shrinks are all just different
// Predicates.
type Predicate func(res *engine.RunResult) bool

// PreserveOutcome preserves the original run's outcome class.
func PreserveOutcome(want engine.Outcome) Predicate {
	return func(res *engine.RunResult) bool { return res != nil && res.Outcome == want }
}

// PreserveLeakClass preserves whether a run produced any unfreed
// allocation at all, independent of which allocations they are.
func PreserveLeakClass(hadLeak bool) Predicate {
	return func(res *engine.RunResult) bool {
		if res == nil {
			return false
		}
		return (len(engine.Leaks(res.Allocs)) > 0) == hadLeak
	}
}

// PreserveMetric preserves a direction ("increase" or "decrease")
// against a baseline value extracted from a run by metric.
func PreserveMetric(metric func(*engine.RunResult) int64, baseline int64, direction string) Predicate {
	return func(res *engine.RunResult) bool {
		if res == nil {
			return false
		}
		v := metric(res)
		if direction == "decrease" {
			return v <= baseline
		}
		return v >= baseline
	}
}

// And preserves only when every predicate holds.
func And(preds ...Predicate) Predicate {
	return func(res *engine.RunResult) bool {
		for _, p := range preds {
			if !p(res) {
				return false
			}
		}
		return true
	}
}

// AllocBytes sums every allocation's SizeMB, a ready-made metric for
// PreserveMetric (e.g. "alloc_bytes >= Y").
func AllocBytes(res *engine.RunResult) int64 {
	var total int64
	for _, a := range res.Allocs {
		total += a.SizeMB
	}
	return total
}

// EventCount is a ready-made metric counting a run's emitted events.
func EventCount(res *engine.RunResult) int64 { return int64(len(res.Events)) }

// Options configures a shrink run.
type Options struct {
	Seed      int64
	EngOpts   engine.Options
	MaxTrials int // 0 means unbounded (bounded only by fixed-point termination)
}

// Result is what a shrink produces.
type Result struct {
	Reduced  *scenario.Scenario
	Trials   int
	Outcome  engine.Outcome
	LastRun  *engine.RunResult
	Fixpoint bool // true if termination was fixed-point, false if budget exhaustion
}

// Shrinker bisects a scenario's step list against an Engine.
type Shrinker struct {
	eng   *engine.Engine
	cache map[string]*engine.RunResult
}

// New builds a Shrinker driving trials through eng.
func New(eng *engine.Engine) *Shrinker {
	return &Shrinker{eng: eng, cache: make(map[string]*engine.RunResult)}
}

// Run minimizes s's step list while pred holds, using classical
// ddmin over chunks with bisection. The original scenario must
// already satisfy pred (the status-preservation guard below verifies
// this before any reduction is attempted).
func (s *Shrinker) Run(orig *scenario.Scenario, opts Options, pred Predicate) (*Result, error) {
	baseline, err := s.trial(orig, allIndices(len(orig.Spec.Steps)), opts)
	if err != nil {
		return nil, err
	}
	if !pred(baseline) {
		return nil, fmt.Errorf("shrink: original scenario does not satisfy the preservation predicate")
	}

	active := allIndices(len(orig.Spec.Steps))
	trials := 1
	fixpoint := true

	granularity := 2
	for len(active) >= 2 {
		if opts.MaxTrials > 0 && trials >= opts.MaxTrials {
			fixpoint = false
			break
		}

		chunkSize := (len(active) + granularity - 1) / granularity
		reducedThisPass := false

		for start := 0; start < len(active); start += chunkSize {
			end := start + chunkSize
			if end > len(active) {
				end = len(active)
			}
			candidate := complement(active, start, end)
			if len(candidate) == 0 {
				continue
			}

			trials++
			res, err := s.trial(orig, candidate, opts)
			if err != nil {
				return nil, err
			}
			if pred(res) {
				active = candidate
				if granularity > 2 {
					granularity--
				}
				reducedThisPass = true
				break
			}
			if opts.MaxTrials > 0 && trials >= opts.MaxTrials {
				fixpoint = false
				break
			}
		}

		if !reducedThisPass {
			if granularity >= len(active) {
				break
			}
			granularity *= 2
			if granularity > len(active) {
				granularity = len(active)
			}
		}
	}

	final, err := s.trial(orig, active, opts)
	if err != nil {
		return nil, err
	}
	if !pred(final) {
		return nil, fmt.Errorf("shrink: status-preservation guard failed on final candidate")
	}

	return &Result{
		Reduced:  project(orig, active),
		Trials:   trials,
		Outcome:  final.Outcome,
		LastRun:  final,
		Fixpoint: fixpoint,
	}, nil
}

// trial runs (or retrieves from cache) the engine against the
// projection of orig onto indices. The cache is keyed by a
// fingerprint of the index set, so re-visiting the same candidate
// during bisection skips a full parse/validate/drive cycle.
func (s *Shrinker) trial(orig *scenario.Scenario, indices []int, opts Options) (*engine.RunResult, error) {
	key := fingerprint(indices)
	if cached, ok := s.cache[key]; ok {
		return cached, nil
	}
	res, err := s.eng.Run(project(orig, indices), opts.Seed, opts.EngOpts)
	if err != nil {
		return nil, err
	}
	s.cache[key] = res
	return res, nil
}

// project builds a trial view of orig containing only the steps at
// indices, in order. This re-slices by index rather than deep-cloning
// the scenario; every Step value referenced is the original's own, not
// a copy of its nested maps/slices.
func project(orig *scenario.Scenario, indices []int) *scenario.Scenario {
	view := *orig
	steps := make([]scenario.Step, len(indices))
	for i, idx := range indices {
		steps[i] = orig.Spec.Steps[idx]
	}
	view.Spec.Steps = steps
	return &view
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// complement returns active with the half-open range [start,end) removed.
func complement(active []int, start, end int) []int {
	out := make([]int, 0, len(active)-(end-start))
	out = append(out, active[:start]...)
	out = append(out, active[end:]...)
	return out
}

// fingerprint hashes an index set into a cache key.
func fingerprint(indices []int) string {
	h := sha256.New()
	buf := make([]byte, 8)
	for _, idx := range indices {
		binary.LittleEndian.PutUint64(buf, uint64(idx))
		h.Write(buf)
	}
	return string(h.Sum(nil))
}
