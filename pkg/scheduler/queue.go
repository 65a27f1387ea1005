package scheduler

import "container/heap"

// taskHeap orders tasks by (ReadyTick, Priority, Insertion) — the
// ordering invariant of spec.md §5: ties never break on host time.
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].ReadyTick != h[j].ReadyTick {
		return h[i].ReadyTick < h[j].ReadyTick
	}
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].Insertion < h[j].Insertion
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x interface{}) {
	*h = append(*h, x.(*Task))
}

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Queue is a priority queue of Tasks. Pop is O(log n); Cancel finds the
// task's heap slot by a linear scan and then removes it in O(log n).
type Queue struct {
	heap      taskHeap
	insertion int64
	byID      map[int64]*Task
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	q := &Queue{byID: make(map[int64]*Task)}
	heap.Init(&q.heap)
	return q
}

// Push enqueues a task, assigning it the next insertion sequence.
func (q *Queue) Push(t *Task) {
	t.Insertion = q.insertion
	q.insertion++
	heap.Push(&q.heap, t)
	q.byID[t.ID] = t
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int { return q.heap.Len() }

// PopEligible pops the highest-priority task whose precondition currently
// holds against s, skipping and re-queuing ineligible tasks in their
// original relative order. Returns nil if no task is currently eligible —
// the caller reports that as a deadlock finding, not a fatal error.
func (q *Queue) PopEligible(s *DistState) *Task {
	var skipped []*Task
	var found *Task

	for q.heap.Len() > 0 {
		t := heap.Pop(&q.heap).(*Task)
		if t.eligible(s) {
			found = t
			break
		}
		skipped = append(skipped, t)
	}

	for _, t := range skipped {
		heap.Push(&q.heap, t)
	}

	if found != nil {
		delete(q.byID, found.ID)
	}
	return found
}

// Cancel removes a queued task by id, if present. Used when cancellation
// propagates to a task that has not yet run.
func (q *Queue) Cancel(id int64) bool {
	t, ok := q.byID[id]
	if !ok {
		return false
	}
	for i, cand := range q.heap {
		if cand == t {
			heap.Remove(&q.heap, i)
			break
		}
	}
	delete(q.byID, id)
	return true
}

// Peek returns all currently queued tasks without removing them, ordered
// arbitrarily (callers needing order should drain via PopEligible).
func (q *Queue) Peek() []*Task {
	out := make([]*Task, len(q.heap))
	copy(out, q.heap)
	return out
}
