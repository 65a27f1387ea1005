// Package engine drives a scenario's step sequence against the
// deterministic substrate, scheduler, decision log, and capability
// layer, producing a RunResult classified by outcome. Grounded on the
// teacher's pkg/core/orchestrator.Orchestrator: same "load input, step a
// state machine to a terminal state, produce a result" shape, with the
// chaos-test discover/warmup/inject/cooldown/teardown phases replaced by
// fozzy's parse/validate/init/schedule/assert/report lifecycle.
package engine

import (
	"fmt"
	"time"

	capfs "github.com/ariacomputecompany/fozzy/pkg/capability/fs"
	caphttp "github.com/ariacomputecompany/fozzy/pkg/capability/http"
	capproc "github.com/ariacomputecompany/fozzy/pkg/capability/proc"
	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
	"github.com/ariacomputecompany/fozzy/pkg/scenario/validator"

	dockerclient "github.com/docker/docker/client"
)

// Options configures a single run or replay. A failed assertion always
// terminates the run immediately (spec's "mark outcome fail and break");
// there is no continue-past-failure mode.
type Options struct {
	Det         bool // --det: reject any host capability backend
	FSHostRoot  string
	HTTPTimeout time.Duration
	HTTPCeiling int64
	ProcImage   string
	ProcCeiling int64

	// FailOnLeak enables end-of-run leak-budget enforcement: a run that
	// would otherwise pass is downgraded to fail if it leaks more
	// allocations than the effective budget allows. Off by default so
	// a scenario with no explicit no_leak invariant keeps passing.
	FailOnLeak bool
	// LeakBudget overrides the scenario's resources.leak_budget when
	// non-nil. Only consulted when FailOnLeak is set.
	LeakBudget *int64
}

// RunResult is what the engine contract promises external collaborators:
// run/replay/shrink all return (or are built from) a RunResult.
type RunResult struct {
	Outcome   Outcome
	State     State
	FailedAt  int
	Detail    string
	Events    []Event
	Allocs    map[int64]*Allocation
	Decisions []decisionlog.Decision
}

// Engine ties every component together for one run.
type Engine struct {
	validator *validator.Validator
	procHost  *capproc.HostBackend
	docker    *dockerclient.Client
}

// New returns an Engine with a freshly constructed validator. The docker
// client is created when a run or replay starts with Options.ProcImage
// set, since most runs never touch a host backend.
func New() *Engine {
	return &Engine{validator: validator.New()}
}

// Run executes s from scratch in record mode.
func (e *Engine) Run(s *scenario.Scenario, seed int64, opts Options) (*RunResult, error) {
	if err := e.validator.Validate(s); err != nil {
		return nil, err
	}

	dlog := decisionlog.NewRecorder()
	ctx := NewExecCtx(s, seed, opts.Det)
	ctx.DLog = dlog
	e.wireHostBackends(ctx, opts)

	return e.driveRecovered(ctx, s, opts)
}

// RunLite executes s through Run and returns only the outcome and its
// detail, not the RunResult carrying the full event/decision/allocation
// history. It exists for the fuzz driver, which cares only about
// pass/fail classification: a caller with only an Outcome in hand cannot
// accidentally wire a fuzz trial into pkg/reporting or pkg/trace the way
// a real run's RunResult could be.
func (e *Engine) RunLite(s *scenario.Scenario, seed int64, opts Options) (Outcome, string, error) {
	result, err := e.Run(s, seed, opts)
	if err != nil {
		return "", "", err
	}
	return result.Outcome, result.Detail, nil
}

// Replay re-executes s against a previously recorded decision sequence.
// Any divergence surfaces as a drift error from the decision log itself.
func (e *Engine) Replay(s *scenario.Scenario, seed int64, decisions []decisionlog.Decision, opts Options) (*RunResult, error) {
	if err := e.validator.Validate(s); err != nil {
		return nil, err
	}

	dlog := decisionlog.NewReplayer(decisions)
	ctx := NewExecCtx(s, seed, opts.Det)
	ctx.DLog = dlog
	e.wireHostBackends(ctx, opts)

	result, err := e.driveRecovered(ctx, s, opts)
	if err != nil {
		if fozzyerr.KindOf(err) == fozzyerr.KindDrift {
			return &RunResult{Outcome: OutcomeDrift, Detail: err.Error()}, nil
		}
		return nil, err
	}
	return result, nil
}

func (e *Engine) wireHostBackends(ctx *ExecCtx, opts Options) {
	if opts.FSHostRoot != "" {
		ctx.FSHost = capfs.NewHostBackend(opts.FSHostRoot)
	}
	if opts.HTTPCeiling > 0 {
		ctx.HTTPHost = caphttp.NewHostBackend(opts.HTTPTimeout, opts.HTTPCeiling)
	}
	if opts.ProcImage != "" && e.procHost == nil {
		if cli, err := dockerclient.NewClientWithOpts(dockerclient.FromEnv); err == nil {
			e.docker = cli
			e.procHost = capproc.NewHostBackend(cli, opts.ProcImage, opts.ProcCeiling)
		}
	}
}

// driveRecovered wraps drive with a panic guard: an unexpected panic
// inside a capability backend or dispatch path is an outcome, not a
// process crash the caller has to handle separately.
func (e *Engine) driveRecovered(ctx *ExecCtx, s *scenario.Scenario, opts Options) (result *RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = &RunResult{
				Outcome: OutcomeCrash,
				State:   StateFailed,
				Detail:  fozzyerr.Newf(fozzyerr.KindInternal, "engine.drive", "panic: %v", r).Error(),
				Events:  ctx.Events,
				Allocs:  ctx.Allocs,
			}
			err = nil
		}
	}()
	return e.drive(ctx, s, opts)
}

// drive runs the outer loop: pick/dispatch steps in scenario order until
// exhausted or a fatal/failing condition terminates the run early.
func (e *Engine) drive(ctx *ExecCtx, s *scenario.Scenario, opts Options) (*RunResult, error) {
	for idx := range s.Spec.Steps {
		step := &s.Spec.Steps[idx]

		var err error
		switch {
		case step.Kind.IsControl():
			err = e.dispatchControl(ctx, step, idx)
		case step.Kind.IsEffect():
			err = e.dispatchEffect(ctx, step, idx)
		case step.Kind.IsAssertion():
			res, aerr := e.evalAssertion(ctx, step, idx)
			if aerr != nil {
				err = aerr
				break
			}
			ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), res.detail)
			if !res.ok {
				return &RunResult{
					Outcome:   OutcomeFail,
					State:     StateFailed,
					FailedAt:  idx,
					Detail:    res.detail,
					Events:    ctx.Events,
					Allocs:    ctx.Allocs,
					Decisions: ctx.DLog.Entries(),
				}, nil
			}
		}

		if err != nil {
			return e.classifyError(ctx, idx, err)
		}
	}

	if opts.FailOnLeak {
		leaks := Leaks(ctx.Allocs)
		budget := int64(s.Spec.Resources.LeakBudget)
		if opts.LeakBudget != nil {
			budget = *opts.LeakBudget
		}
		if int64(len(leaks)) > budget {
			return &RunResult{
				Outcome:   OutcomeFail,
				State:     StateFailed,
				FailedAt:  len(s.Spec.Steps) - 1,
				Detail:    fmt.Sprintf("leaks=%d > budget=%d", len(leaks), budget),
				Events:    ctx.Events,
				Allocs:    ctx.Allocs,
				Decisions: ctx.DLog.Entries(),
			}, nil
		}
	}

	return &RunResult{
		Outcome:   OutcomePass,
		State:     StateCompleted,
		FailedAt:  -1,
		Events:    ctx.Events,
		Allocs:    ctx.Allocs,
		Decisions: ctx.DLog.Entries(),
	}, nil
}

// classifyError maps a dispatch-time error to an outcome class per
// spec's propagation policy: drift/checksum/determinism-violation/
// internal are fatal immediately (returned as an error so the caller —
// CLI or shrinker — can distinguish "run produced a verdict" from "the
// run itself is broken"); timeout/deadlock/oom finalize as an outcome.
func (e *Engine) classifyError(ctx *ExecCtx, idx int, err error) (*RunResult, error) {
	kind := fozzyerr.KindOf(err)
	switch kind {
	case fozzyerr.KindDrift, fozzyerr.KindChecksum, fozzyerr.KindDeterminismViolation, fozzyerr.KindInternal:
		return nil, err
	case fozzyerr.KindTimeout:
		return e.terminal(ctx, idx, OutcomeTimeout, err), nil
	case fozzyerr.KindOOM:
		return e.terminal(ctx, idx, OutcomeFail, err), nil
	default:
		return e.terminal(ctx, idx, OutcomeFail, err), nil
	}
}

func (e *Engine) terminal(ctx *ExecCtx, idx int, outcome Outcome, err error) *RunResult {
	return &RunResult{
		Outcome:   outcome,
		State:     StateFailed,
		FailedAt:  idx,
		Detail:    err.Error(),
		Events:    ctx.Events,
		Allocs:    ctx.Allocs,
		Decisions: ctx.DLog.Entries(),
	}
}
