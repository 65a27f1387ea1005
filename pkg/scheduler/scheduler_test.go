package scheduler

import (
	"testing"

	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/substrate"
)

func TestFIFOOrdering(t *testing.T) {
	s := New(PolicyFIFO, 0, nil)
	s.Enqueue("", 0, 0, 0, "a", nil)
	s.Enqueue("", 1, 0, 0, "b", nil)
	s.Enqueue("", 2, 0, 0, "c", nil)

	dlog := decisionlog.NewRecorder()
	sub := substrate.New(1)

	var order []string
	for s.Len() > 0 {
		task, ok, err := s.Next(dlog, sub.RNG, sub.Clock)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			t.Fatalf("expected a task")
		}
		order = append(order, task.Kind)
	}

	if order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("expected FIFO order a,b,c, got %v", order)
	}
}

func TestReadyTickOrderingBeatsInsertion(t *testing.T) {
	s := New(PolicyFIFO, 0, nil)
	s.Enqueue("", 0, 10, 0, "late", nil)
	s.Enqueue("", 1, 5, 0, "early", nil)

	dlog := decisionlog.NewRecorder()
	sub := substrate.New(1)

	task, ok, err := s.Next(dlog, sub.RNG, sub.Clock)
	if err != nil || !ok {
		t.Fatalf("next: %v %v", ok, err)
	}
	if task.Kind != "early" {
		t.Fatalf("expected earliest ready tick to be picked first, got %s", task.Kind)
	}
	if sub.Clock.Now() != 5 {
		t.Fatalf("expected clock advanced to 5, got %d", sub.Clock.Now())
	}
}

func TestEmptyEligibleSetIsDeadlockNotError(t *testing.T) {
	s := New(PolicyFIFO, 0, []string{"a", "b"})
	s.Enqueue("a", 0, 0, 0, "x", nil)
	s.Dist().Crash("a")

	dlog := decisionlog.NewRecorder()
	sub := substrate.New(1)

	task, ok, err := s.Next(dlog, sub.RNG, sub.Clock)
	if err != nil {
		t.Fatalf("expected no error on empty eligible set, got %v", err)
	}
	if ok || task != nil {
		t.Fatalf("expected no eligible task")
	}
}

func TestPartitionBlocksPrecondition(t *testing.T) {
	s := New(PolicyFIFO, 0, []string{"a", "b"})
	dist := s.Dist()
	dist.Partition("a", "b")

	s.Enqueue("a", 0, 0, 0, "send-to-b", func(d *DistState) bool {
		return d.EdgePasses("a", "b")
	})

	dlog := decisionlog.NewRecorder()
	sub := substrate.New(1)

	_, ok, err := s.Next(dlog, sub.RNG, sub.Clock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected task blocked by partition to be ineligible")
	}

	dist.Heal("a", "b")
	task, ok, err := s.Next(dlog, sub.RNG, sub.Clock)
	if err != nil || !ok {
		t.Fatalf("expected task eligible after heal: ok=%v err=%v", ok, err)
	}
	if task.Kind != "send-to-b" {
		t.Fatalf("unexpected task %s", task.Kind)
	}
}

func TestRecordReplayDeterminism(t *testing.T) {
	build := func() *Scheduler {
		s := New(PolicyRandom, 0, nil)
		s.Enqueue("", 0, 0, 0, "a", nil)
		s.Enqueue("", 1, 0, 0, "b", nil)
		s.Enqueue("", 2, 0, 0, "c", nil)
		return s
	}

	recSub := substrate.New(99)
	recLog := decisionlog.NewRecorder()
	s1 := build()
	var recordedOrder []string
	for s1.Len() > 0 {
		task, ok, err := s1.Next(recLog, recSub.RNG, recSub.Clock)
		if err != nil || !ok {
			t.Fatalf("record: ok=%v err=%v", ok, err)
		}
		recordedOrder = append(recordedOrder, task.Kind)
	}

	replaySub := substrate.New(99)
	replayLog := decisionlog.NewReplayer(recLog.Entries())
	s2 := build()
	var replayedOrder []string
	for s2.Len() > 0 {
		task, ok, err := s2.Next(replayLog, replaySub.RNG, replaySub.Clock)
		if err != nil || !ok {
			t.Fatalf("replay: ok=%v err=%v", ok, err)
		}
		replayedOrder = append(replayedOrder, task.Kind)
	}

	if len(recordedOrder) != len(replayedOrder) {
		t.Fatalf("length mismatch")
	}
	for i := range recordedOrder {
		if recordedOrder[i] != replayedOrder[i] {
			t.Fatalf("order diverged at %d: %v vs %v", i, recordedOrder, replayedOrder)
		}
	}
}

func TestQueueCancel(t *testing.T) {
	q := NewQueue()
	q.Push(&Task{ID: 1, Kind: "x"})
	q.Push(&Task{ID: 2, Kind: "y"})

	if !q.Cancel(1) {
		t.Fatalf("expected cancel to find task 1")
	}
	if q.Cancel(1) {
		t.Fatalf("expected second cancel of same id to fail")
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 task remaining, got %d", q.Len())
	}
}
