// Package substrate provides the seeded RNG, virtual clock, and
// allocation-id counter that every other core component builds on. Every
// observable outcome of a run must be a pure function of (seed, decision
// log), so nothing in this package ever reads host time or host entropy.
package substrate

// Substrate bundles the three sources of derived, seed-stable state a run
// needs: randomness, virtual time, and allocation ids. It has the same
// lifetime as the ExecCtx that owns it — created at engine entry, mutated
// in place, dropped at exit.
type Substrate struct {
	RNG   *RNG
	Clock *Clock
	Alloc *AllocCounter
}

// New creates a Substrate seeded for a single run.
func New(seed int64) *Substrate {
	return &Substrate{
		RNG:   NewRNG(seed),
		Clock: NewClock(),
		Alloc: NewAllocCounter(),
	}
}
