package engine

import (
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
)

// assertResult is the verdict of evaluating a single assertion step.
type assertResult struct {
	ok     bool
	detail string
}

// evalAssertion evaluates an assertion step against ctx's current state,
// polling the scheduler for eventually/never so pending net deliveries
// have a chance to settle before the budget expires.
func (e *Engine) evalAssertion(ctx *ExecCtx, step *scenario.Step, idx int) (assertResult, error) {
	switch step.Kind {
	case scenario.StepOK:
		return assertResult{ok: ctx.LastErr == nil}, nil

	case scenario.StepEq:
		return assertResult{ok: ctx.LastValue == valueString(step.Value), detail: ctx.LastValue}, nil

	case scenario.StepNe:
		return assertResult{ok: ctx.LastValue != valueString(step.Value), detail: ctx.LastValue}, nil

	case scenario.StepThrows, scenario.StepRejects:
		if ctx.LastErr == nil {
			return assertResult{ok: false, detail: "no error produced"}, nil
		}
		wantKind := valueString(step.Value)
		if wantKind == "" {
			return assertResult{ok: true}, nil
		}
		return assertResult{ok: string(fozzyerr.KindOf(ctx.LastErr)) == wantKind, detail: string(fozzyerr.KindOf(ctx.LastErr))}, nil

	case scenario.StepFail:
		return assertResult{ok: false, detail: "explicit fail"}, nil

	case scenario.StepKV:
		return assertResult{ok: e.kvHolds(ctx, step)}, nil

	case scenario.StepInvariant:
		return assertResult{ok: e.invariantHolds(ctx, step)}, nil

	case scenario.StepEventually:
		return e.pollBudget(ctx, step, idx, true)

	case scenario.StepNever:
		return e.pollBudget(ctx, step, idx, false)
	}

	return assertResult{}, fozzyerr.Newf(fozzyerr.KindInternal, "engine.evalAssertion", "unhandled assertion kind %q", step.Kind)
}

// pollBudget drains pending scheduler tasks (advancing virtual time)
// until pred holds (wantTrue) or the virtual-time budget expires. For
// eventually, success is pred becoming true within budget; budget
// expiry without it holding is a KindTimeout error, not a plain
// assertion mismatch, so drive's classifyError can route it to
// OutcomeTimeout. For never, success is pred staying false across the
// whole budget; pred becoming true early is a genuine assertion
// mismatch (OutcomeFail), since it isn't a timing failure.
func (e *Engine) pollBudget(ctx *ExecCtx, step *scenario.Step, idx int, wantTrue bool) (assertResult, error) {
	deadline := ctx.Sub.Clock.Now() + step.Budget

	for {
		holds := e.kvHolds(ctx, step)
		if wantTrue && holds {
			return assertResult{ok: true}, nil
		}
		if !wantTrue && holds {
			return assertResult{ok: false, detail: "predicate became true"}, nil
		}
		if ctx.Sub.Clock.Now() >= deadline {
			break
		}
		if ctx.Sched.Len() == 0 {
			ctx.Sub.Clock.Advance(1)
			continue
		}
		_, ok, err := ctx.Sched.Next(ctx.DLog, ctx.Sub.RNG, ctx.Sub.Clock)
		if err != nil {
			return assertResult{}, err
		}
		if !ok {
			ctx.Sub.Clock.Advance(1)
		}
	}

	if wantTrue {
		return assertResult{}, fozzyerr.Newf(fozzyerr.KindTimeout, "engine.pollBudget",
			"eventually predicate on key %q (target %q) did not hold within budget %d", step.Key, step.Target, step.Budget)
	}
	return assertResult{ok: true}, nil
}

// kvHolds reports whether step's key/value predicate currently holds.
// step.Target == "all" checks every known node (kv_present_on_all);
// otherwise only step.Node is checked.
func (e *Engine) kvHolds(ctx *ExecCtx, step *scenario.Step) bool {
	want := valueString(step.Value)
	if step.Target == "all" {
		if len(ctx.KV) == 0 {
			return false
		}
		for _, m := range ctx.KV {
			if m[step.Key] != want {
				return false
			}
		}
		return true
	}
	return ctx.KV[step.Node][step.Key] == want
}

// invariantHolds evaluates a named structural invariant. The set of
// names is fixed: alloc_monotonic (allocation ids strictly increase) and
// no_leak (every allocation has been freed).
func (e *Engine) invariantHolds(ctx *ExecCtx, step *scenario.Step) bool {
	switch step.Target {
	case "alloc_monotonic":
		var last int64 = -1
		for _, a := range sortedAllocs(ctx.Allocs) {
			if a.ID <= last {
				return false
			}
			last = a.ID
		}
		return true
	case "no_leak":
		return len(Leaks(ctx.Allocs)) == 0
	default:
		return true
	}
}

func sortedAllocs(allocs map[int64]*Allocation) []*Allocation {
	out := make([]*Allocation, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, a)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ID < out[j-1].ID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
