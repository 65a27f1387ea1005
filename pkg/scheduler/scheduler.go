// Package scheduler implements fozzy's deterministic task scheduler: an
// indexed priority queue plus a pluggable deterministic pick policy, with
// a symmetric partition/crash matrix for distributed-mode eligibility.
package scheduler

import (
	"fmt"
	"sort"

	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/substrate"
)

// Scheduler picks the next runnable task deterministically.
type Scheduler struct {
	queue      *Queue
	dist       *DistState
	pick       picker
	nextTaskID int64
}

// New creates a Scheduler for the given policy and distributed topology.
// An empty nodes slice models single-node mode.
func New(policy Policy, pctDepth int, nodes []string) *Scheduler {
	return &Scheduler{
		queue: NewQueue(),
		dist:  NewDistState(nodes),
		pick:  newPicker(policy, pctDepth),
	}
}

// Dist exposes the distributed topology state so control steps
// (partition/heal/crash/restart) can mutate it.
func (s *Scheduler) Dist() *DistState {
	return s.dist
}

// Enqueue adds a new task, assigning it a monotonic id.
func (s *Scheduler) Enqueue(node string, stepIndex int, readyTick, priority int64, kind string, precondition func(*DistState) bool) *Task {
	t := &Task{
		ID:           s.nextTaskID,
		Node:         node,
		StepIndex:    stepIndex,
		ReadyTick:    readyTick,
		Priority:     priority,
		Kind:         kind,
		Precondition: precondition,
	}
	s.nextTaskID++
	s.queue.Push(t)
	return t
}

// Len reports the number of queued (not-yet-picked) tasks.
func (s *Scheduler) Len() int { return s.queue.Len() }

// Next picks the next runnable task. It advances clock to the chosen
// task's ready tick (time only moves forward in response to a scheduled
// effect, never spontaneously) and records a sched_pick decision.
//
// Returns (task, true, nil) on a successful pick, (nil, false, nil) when
// the eligible set is empty (a deadlock finding — reported, not fatal),
// and a non-nil error only on drift.
func (s *Scheduler) Next(dlog *decisionlog.Log, rng *substrate.RNG, clock *substrate.Clock) (*Task, bool, error) {
	eligible := s.eligibleTasks()
	if len(eligible) == 0 {
		return nil, false, nil
	}

	minTick := eligible[0].ReadyTick
	for _, t := range eligible[1:] {
		if t.ReadyTick < minTick {
			minTick = t.ReadyTick
		}
	}

	var candidates []*Task
	for _, t := range eligible {
		if t.ReadyTick == minTick {
			candidates = append(candidates, t)
		}
	}

	chosen := s.pick.pick(candidates, rng.Pick)

	label := fmt.Sprintf("%s#%d", chosen.Kind, chosen.ID)
	d := decisionlog.Decision{Kind: decisionlog.KindSchedPick, Label: label, Payload: chosen.ID}
	if _, err := dlog.Resolve(d); err != nil {
		return nil, false, err
	}

	clock.AdvanceTo(chosen.ReadyTick)
	s.queue.Cancel(chosen.ID)
	return chosen, true, nil
}

// eligibleTasks returns every queued task whose node is live and whose
// precondition currently passes, in queue order.
func (s *Scheduler) eligibleTasks() []*Task {
	var out []*Task
	for _, t := range s.queue.Peek() {
		if !s.dist.IsLive(t.Node) {
			continue
		}
		if !t.eligible(s.dist) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return taskHeap(out).Less(i, j) })
	return out
}

// Cancel removes a pending task and reports whether it was found.
func (s *Scheduler) Cancel(id int64) bool {
	return s.queue.Cancel(id)
}
