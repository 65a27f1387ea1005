package mem

import (
	"testing"

	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
)

func TestLedgerFailsAfterLimit(t *testing.T) {
	l := NewLedger(scenario.ResourceCeilings{MemLimitMB: 100}, scenario.MemPolicy{})

	if err := l.Alloc(60); err != nil {
		t.Fatalf("first alloc: %v", err)
	}
	err := l.Alloc(60)
	if err == nil {
		t.Fatalf("expected second alloc to exceed limit")
	}
	if fozzyerr.KindOf(err) != fozzyerr.KindOOM {
		t.Fatalf("expected OOM kind, got %v", fozzyerr.KindOf(err))
	}
}

func TestLedgerFreeReclaims(t *testing.T) {
	l := NewLedger(scenario.ResourceCeilings{MemLimitMB: 100}, scenario.MemPolicy{})
	if err := l.Alloc(60); err != nil {
		t.Fatalf("alloc: %v", err)
	}
	l.Free(60)
	if l.Allocated() != 0 {
		t.Fatalf("expected 0 allocated after free, got %d", l.Allocated())
	}
	if err := l.Alloc(60); err != nil {
		t.Fatalf("realloc after free: %v", err)
	}
}

func TestLedgerFailAfterCount(t *testing.T) {
	l := NewLedger(scenario.ResourceCeilings{MemFailAfter: 1}, scenario.MemPolicy{})
	if err := l.Alloc(1); err != nil {
		t.Fatalf("first alloc: %v", err)
	}
	if err := l.Alloc(1); err == nil {
		t.Fatalf("expected second alloc to exceed fail-after budget")
	}
}

func TestPressureWaveAppliesAndClamps(t *testing.T) {
	l := NewLedger(scenario.ResourceCeilings{}, scenario.MemPolicy{PressureWave: []float64{1, 2}})
	if l.Pressure(0) != 1 {
		t.Fatalf("expected wave[0]=1")
	}
	if l.Pressure(1) != 2 {
		t.Fatalf("expected wave[1]=2")
	}
	if l.Pressure(5) != 2 {
		t.Fatalf("expected clamp to last wave value")
	}
}

func TestHostBackendHoldRelease(t *testing.T) {
	h := NewHostBackend()
	handle := h.Hold(1)
	if err := h.Release(handle); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := h.Release(999); err == nil {
		t.Fatalf("expected invalid handle error")
	}
}
