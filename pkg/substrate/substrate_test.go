package substrate

import "testing"

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)

	for i := 0; i < 100; i++ {
		va := a.DrawU64()
		vb := b.DrawU64()
		if va != vb {
			t.Fatalf("draw %d diverged: %d != %d", i, va, vb)
		}
	}
}

func TestRNGDifferentSeedsDiverge(t *testing.T) {
	a := NewRNG(1)
	b := NewRNG(2)

	same := 0
	for i := 0; i < 20; i++ {
		if a.DrawU64() == b.DrawU64() {
			same++
		}
	}
	if same == 20 {
		t.Fatalf("expected different seeds to diverge at least once")
	}
}

func TestDrawRangeBounds(t *testing.T) {
	r := NewRNG(7)
	for i := 0; i < 1000; i++ {
		v := r.DrawRange(10, 20)
		if v < 10 || v >= 20 {
			t.Fatalf("DrawRange out of bounds: %d", v)
		}
	}
}

func TestPickBounds(t *testing.T) {
	r := NewRNG(7)
	for i := 0; i < 1000; i++ {
		v := r.Pick(5)
		if v < 0 || v >= 5 {
			t.Fatalf("Pick out of bounds: %d", v)
		}
	}
}

func TestPickPanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on Pick(0)")
		}
	}()
	NewRNG(1).Pick(0)
}

func TestForkIsIndependentAndDeterministic(t *testing.T) {
	parent1 := NewRNG(5)
	parent2 := NewRNG(5)

	child1 := parent1.Fork(3)
	child2 := parent2.Fork(3)

	for i := 0; i < 10; i++ {
		if child1.DrawU64() != child2.DrawU64() {
			t.Fatalf("forked children with identical label diverged at draw %d", i)
		}
	}
}

func TestClockMonotonic(t *testing.T) {
	c := NewClock()
	if c.Now() != 0 {
		t.Fatalf("expected clock to start at 0")
	}
	c.Advance(5)
	if c.Now() != 5 {
		t.Fatalf("expected tick 5, got %d", c.Now())
	}
	c.Advance(-10) // negative deltas are clamped, never roll time back
	if c.Now() != 5 {
		t.Fatalf("expected clock to stay at 5 after negative advance, got %d", c.Now())
	}
	c.AdvanceTo(3)
	if c.Now() != 5 {
		t.Fatalf("AdvanceTo with a past target must not roll back, got %d", c.Now())
	}
	c.AdvanceTo(100)
	if c.Now() != 100 {
		t.Fatalf("expected tick 100, got %d", c.Now())
	}
}

func TestAllocCounterStrictlyIncreasing(t *testing.T) {
	a := NewAllocCounter()
	prev := int64(0)
	for i := 0; i < 100; i++ {
		id := a.Next()
		if id <= prev {
			t.Fatalf("allocation ids must strictly increase: %d <= %d", id, prev)
		}
		prev = id
	}
}
