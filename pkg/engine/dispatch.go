package engine

import (
	"context"
	"errors"
	"strconv"

	"github.com/ariacomputecompany/fozzy/pkg/capability"
	capfs "github.com/ariacomputecompany/fozzy/pkg/capability/fs"
	caphttp "github.com/ariacomputecompany/fozzy/pkg/capability/http"
	"github.com/ariacomputecompany/fozzy/pkg/capability/mem"
	capproc "github.com/ariacomputecompany/fozzy/pkg/capability/proc"
	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
	"github.com/ariacomputecompany/fozzy/pkg/scheduler"
)

var errNoSnapshot = errors.New("fs_restore with no prior fs_snapshot")

// dispatchEffect executes an effect step, mutating ctx. The result (if
// any) is left in ctx.LastValue / ctx.LastErr for a following assertion
// step to inspect.
func (e *Engine) dispatchEffect(ctx *ExecCtx, step *scenario.Step, idx int) error {
	ctx.LastValue, ctx.LastErr = "", nil

	switch step.Kind {
	case scenario.StepFSWrite:
		ctx.FS.Write(step.Path, valueString(step.Value))
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), step.Path)
		return nil

	case scenario.StepFSRead:
		if paramString(step.Params, "backend") == "host" {
			if ctx.Det {
				return capability.DeterminismViolation("engine.dispatchEffect", "fs")
			}
			v, err := capfs.ResolveRead(ctx.DLog, capfs.Label("read", idx), ctx.FSHost, step.Path)
			ctx.LastValue, ctx.LastErr = v, err
			ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), step.Path)
			return nil
		}
		v, ok := ctx.FS.Read(step.Path)
		if !ok {
			ctx.LastErr = fozzyerr.Newf(fozzyerr.KindCapability, "engine.dispatchEffect", "no fs fixture for %q", step.Path)
		}
		ctx.LastValue = v
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), step.Path)
		return nil

	case scenario.StepFSSnapshot:
		ctx.FSTokens = append(ctx.FSTokens, ctx.FS.Snapshot())
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), "")
		return nil

	case scenario.StepFSRestore:
		if len(ctx.FSTokens) == 0 {
			return fozzyerr.New(fozzyerr.KindInternal, "engine.dispatchEffect", errNoSnapshot)
		}
		tok := ctx.FSTokens[len(ctx.FSTokens)-1]
		ctx.FSTokens = ctx.FSTokens[:len(ctx.FSTokens)-1]
		ctx.FS.Restore(tok)
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), "")
		return nil

	case scenario.StepHTTPRequest:
		method := paramString(step.Params, "method")
		if method == "" {
			method = "GET"
		}
		call := func() (caphttp.Response, error) { return ctx.HTTP.Match(method, step.Target) }
		if paramString(step.Params, "backend") == "host" {
			if ctx.Det {
				return capability.DeterminismViolation("engine.dispatchEffect", "http")
			}
			call = func() (caphttp.Response, error) {
				return ctx.HTTPHost.Do(method, step.Target, valueString(step.Value))
			}
		}
		resp, err := caphttp.ResolveDo(ctx.DLog, caphttp.Label(method, step.Target, idx), call)
		ctx.LastValue, ctx.LastErr = resp.Body, err
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), step.Target)
		return nil

	case scenario.StepProcSpawn:
		call := func() (capproc.Result, error) { return ctx.Proc.Match(step.Command) }
		if paramString(step.Params, "backend") == "host" {
			if ctx.Det {
				return capability.DeterminismViolation("engine.dispatchEffect", "proc")
			}
			call = func() (capproc.Result, error) {
				return e.procHost.Run(context.Background(), []string{"sh", "-c", step.Command})
			}
		}
		res, err := capproc.ResolveDo(ctx.DLog, capproc.Label(step.Command, idx), call)
		ctx.LastValue, ctx.LastErr = res.Stdout, err
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), step.Command)
		return nil

	case scenario.StepNetSend:
		readyTick := ctx.Sub.Clock.Now() + step.Budget
		from, to := step.Node, step.Target
		task := ctx.Sched.Enqueue(to, idx, readyTick, 0, "net_deliver", func(d *scheduler.DistState) bool {
			return d.EdgePasses(from, to)
		})
		ctx.Pending[task.ID] = pendingMessage{From: from, To: to, Key: step.Key, Value: valueString(step.Value), Version: task.ID}
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), from+"->"+to)
		return nil

	case scenario.StepNetDeliver:
		task, ok, err := ctx.Sched.Next(ctx.DLog, ctx.Sub.RNG, ctx.Sub.Clock)
		if err != nil {
			return err
		}
		if !ok {
			ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), "no-pending")
			return nil
		}
		msg, known := ctx.Pending[task.ID]
		delete(ctx.Pending, task.ID)
		if !known {
			ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), "unknown-task")
			return nil
		}
		delivered, err := ctx.Net.Decide(ctx.DLog, ctx.Sub.RNG, msg.From, msg.To, idx)
		if err != nil {
			return err
		}
		detail := strconv.FormatBool(delivered)
		if delivered {
			if ctx.KV[msg.To] == nil {
				ctx.KV[msg.To] = make(map[string]string)
			}
			if ctx.KVVersion[msg.To] == nil {
				ctx.KVVersion[msg.To] = make(map[string]int64)
			}
			// Per-key version ordering: a write only lands if its
			// send-order version is not older than the version
			// currently in KV for this key, so dfs/random reordering
			// during delivery cannot let a stale write clobber a
			// fresher one for the same key.
			if cur, exists := ctx.KVVersion[msg.To][msg.Key]; !exists || msg.Version >= cur {
				ctx.KV[msg.To][msg.Key] = msg.Value
				ctx.KVVersion[msg.To][msg.Key] = msg.Version
			} else {
				detail = "stale"
			}
		}
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), detail)
		return nil

	case scenario.StepNetRecv:
		ctx.LastValue = ctx.KV[step.Node][step.Key]
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), step.Key)
		return nil

	case scenario.StepMemAlloc:
		id := ctx.Sub.Alloc.Next()
		if err := ctx.Mem.Alloc(step.Budget); err != nil {
			ctx.LastErr = err
			d := decisionlog.Decision{Kind: mem.DecisionKind, Label: mem.Label("alloc", idx), Payload: err.Error()}
			if _, derr := ctx.DLog.Resolve(d); derr != nil {
				return derr
			}
			ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), "failed")
			return nil
		}
		ctx.Allocs[id] = &Allocation{ID: id, CallsiteKey: step.Key, SizeMB: step.Budget, TAlloc: ctx.Sub.Clock.Now(), OriginStep: idx}
		ctx.LastValue = strconv.FormatInt(id, 10)
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), ctx.LastValue)
		return nil

	case scenario.StepMemFree:
		id, err := strconv.ParseInt(valueString(step.Value), 10, 64)
		if err != nil {
			return fozzyerr.New(fozzyerr.KindValidation, "engine.dispatchEffect", err)
		}
		a, ok := ctx.Allocs[id]
		if !ok {
			return fozzyerr.Newf(fozzyerr.KindValidation, "engine.dispatchEffect", "free of unknown allocation id %d", id)
		}
		ctx.Mem.Free(a.SizeMB)
		a.Freed = true
		a.TFree = ctx.Sub.Clock.Now()
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), "")
		return nil

	case scenario.StepSleep:
		ctx.Sub.Clock.Advance(step.Budget)
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), "")
		return nil

	case scenario.StepAdvanceTime:
		ctx.Sub.Clock.AdvanceTo(step.Budget)
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), "")
		return nil

	case scenario.StepSetRNG:
		ctx.Sub.RNG = ctx.Sub.RNG.Fork(uint64(step.Budget))
		ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), "")
		return nil
	}

	return fozzyerr.Newf(fozzyerr.KindInternal, "engine.dispatchEffect", "unhandled effect kind %q", step.Kind)
}

// dispatchControl executes a control step, mutating the scheduler's
// distributed topology state.
func (e *Engine) dispatchControl(ctx *ExecCtx, step *scenario.Step, idx int) error {
	dist := ctx.Sched.Dist()
	switch step.Kind {
	case scenario.StepPartition:
		dist.Partition(step.Node, step.Target)
	case scenario.StepHeal:
		dist.Heal(step.Node, step.Target)
	case scenario.StepCrash:
		dist.Crash(step.Node)
	case scenario.StepRestart:
		dist.Restart(step.Node)
	case scenario.StepInjectFault:
		label := step.Node + "#" + strconv.Itoa(idx)
		d := decisionlog.Decision{Kind: decisionlog.KindFaultFire, Label: label, Payload: step.Target}
		if _, err := ctx.DLog.Resolve(d); err != nil {
			return err
		}
	default:
		return fozzyerr.Newf(fozzyerr.KindInternal, "engine.dispatchControl", "unhandled control kind %q", step.Kind)
	}
	ctx.emit(ctx.Sub.Clock.Now(), idx, string(step.Kind), step.Node)
	return nil
}
