package engine

import (
	"github.com/ariacomputecompany/fozzy/pkg/capability/fs"
	caphttp "github.com/ariacomputecompany/fozzy/pkg/capability/http"
	capnet "github.com/ariacomputecompany/fozzy/pkg/capability/net"
	"github.com/ariacomputecompany/fozzy/pkg/capability/mem"
	"github.com/ariacomputecompany/fozzy/pkg/capability/proc"
	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
	"github.com/ariacomputecompany/fozzy/pkg/scheduler"
	"github.com/ariacomputecompany/fozzy/pkg/substrate"
)

// pendingMessage is an in-flight net_send awaiting delivery. Version is
// the sending task's scheduler-assigned id, which is monotonic in send
// order; it lets delivery enforce per-key version ordering even when
// the scheduler's pick policy (dfs/random) delivers two sends for the
// same key out of send order.
type pendingMessage struct {
	From, To string
	Key      string
	Value    string
	Version  int64
}

// ExecCtx is the engine's mutable execution state: virtual time, RNG,
// task queue, per-node KV state, fs overlay, http/proc script cursors,
// network inboxes, and the memory ledger. Owned exclusively by the
// engine; never cloned on the hot path.
type ExecCtx struct {
	Scenario *scenario.Scenario
	Sub      *substrate.Substrate
	Sched    *scheduler.Scheduler
	DLog     *decisionlog.Log

	FS       *fs.Overlay
	FSHost   *fs.HostBackend
	HTTP     *caphttp.Matchers
	HTTPHost *caphttp.HostBackend
	Proc     *proc.Matchers
	Net      *capnet.Policy
	Mem      *mem.Ledger

	Det bool // --det: host backends are rejected

	Allocs     map[int64]*Allocation
	Events     []Event
	KV         map[string]map[string]string // node -> key -> value
	KVVersion  map[string]map[string]int64  // node -> key -> version of the write currently in KV
	Pending    map[int64]pendingMessage     // task id -> message awaiting delivery
	LastValue  string
	LastErr    error
	FSTokens   []fs.Token
}

// NewExecCtx builds a fresh ExecCtx for s, seeded for seed.
func NewExecCtx(s *scenario.Scenario, seed int64, det bool) *ExecCtx {
	nodes := make([]string, len(s.Spec.Nodes))
	for i, n := range s.Spec.Nodes {
		nodes[i] = n.ID
	}

	kv := make(map[string]map[string]string)
	for _, n := range nodes {
		kv[n] = make(map[string]string)
	}
	if len(nodes) == 0 {
		kv[""] = make(map[string]string)
	}

	return &ExecCtx{
		Scenario:  s,
		Sub:       substrate.New(seed),
		Sched:     scheduler.New(scheduler.Policy(s.Spec.SchedulerPolicy), s.Spec.PCTDepth, nodes),
		FS:        fs.NewOverlay(fixtureMap(s.Spec.Scripts.FS)),
		HTTP:      caphttp.NewMatchers(s.Spec.Scripts.HTTP),
		Proc:      proc.NewMatchers(s.Spec.Scripts.Proc),
		Net:       capnet.NewPolicy(s.Spec.Scripts.Net),
		Mem:       mem.NewLedger(s.Spec.Resources, s.Spec.Scripts.Mem),
		Det:       det,
		Allocs:    make(map[int64]*Allocation),
		KV:        kv,
		KVVersion: make(map[string]map[string]int64),
		Pending:   make(map[int64]pendingMessage),
	}
}

func fixtureMap(fixtures []scenario.FSFixture) map[string]string {
	out := make(map[string]string, len(fixtures))
	for _, f := range fixtures {
		out[f.Path] = f.Content
	}
	return out
}

func (c *ExecCtx) emit(tick int64, stepIndex int, kind, detail string) {
	c.Events = append(c.Events, Event{Tick: tick, StepIndex: stepIndex, Kind: kind, Detail: detail})
}
