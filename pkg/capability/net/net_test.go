package net

import (
	"testing"

	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
	"github.com/ariacomputecompany/fozzy/pkg/substrate"
)

func TestPolicyRecordReplayAgree(t *testing.T) {
	p := NewPolicy(scenario.NetTopology{DropP: 0.5})

	recLog := decisionlog.NewRecorder()
	recRNG := substrate.NewRNG(7)
	delivered, err := p.Decide(recLog, recRNG, "a", "b", 0)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}

	replayLog := decisionlog.NewReplayer(recLog.Entries())
	replayRNG := substrate.NewRNG(7)
	replayed, err := p.Decide(replayLog, replayRNG, "a", "b", 0)
	if err != nil {
		t.Fatalf("replay decide: %v", err)
	}

	if delivered != replayed {
		t.Fatalf("record/replay diverged: %v vs %v", delivered, replayed)
	}
}

func TestPolicyZeroDropAlwaysDelivers(t *testing.T) {
	p := NewPolicy(scenario.NetTopology{DropP: 0})
	dlog := decisionlog.NewRecorder()
	rng := substrate.NewRNG(1)

	for i := 0; i < 20; i++ {
		delivered, err := p.Decide(dlog, rng, "a", "b", i)
		if err != nil {
			t.Fatalf("decide: %v", err)
		}
		if !delivered {
			t.Fatalf("expected delivery with zero drop probability")
		}
	}
}
