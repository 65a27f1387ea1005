package substrate

// RNG is a seeded, counter-based stream generator. Given the same seed and
// the same sequence of draws, it produces bit-identical output on every
// run — the property the decision log's replay mode depends on. It is
// deliberately not math/rand: math/rand's algorithm is not part of the Go
// compatibility guarantee across versions, and a replay taken today must
// still replay identically a year from now.
type RNG struct {
	seed    uint64
	counter uint64
}

// NewRNG seeds a stream generator. A zero seed is valid and deterministic.
func NewRNG(seed int64) *RNG {
	return &RNG{seed: uint64(seed)}
}

// splitmix64 is the reference mixing function: cheap, well-distributed,
// and stable across Go versions because we own the implementation.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// DrawU64 returns the next 64-bit value in the stream and advances the
// counter. Every draw is a candidate decision: callers in the engine and
// scheduler record it through the decision log unless it is purely
// internal bookkeeping invisible to user code.
func (r *RNG) DrawU64() uint64 {
	r.counter++
	return splitmix64(r.seed ^ splitmix64(r.counter))
}

// DrawRange returns a value in [lo, hi) (hi must be > lo).
func (r *RNG) DrawRange(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	span := uint64(hi - lo)
	return lo + int64(r.DrawU64()%span)
}

// Pick returns a deterministic index into [0, n). Panics if n <= 0: an
// empty choice set is a scheduler bug (an empty eligible set is reported
// as a deadlock finding before Pick is ever called), not a valid draw.
func (r *RNG) Pick(n int) int {
	if n <= 0 {
		panic("substrate: Pick called with n <= 0")
	}
	return int(r.DrawU64() % uint64(n))
}

// Float64 returns a value in [0.0, 1.0).
func (r *RNG) Float64() float64 {
	// 53 bits of mantissa, matching math.Float64frombits-style generators.
	return float64(r.DrawU64()>>11) / (1 << 53)
}

// Fork derives a new, independent-looking stream seeded from this RNG's
// seed and label; the parent's draw counter plays no part, so forking at
// any point with the same label yields the same stream. Forking does not
// perturb the parent's sequence (drawing from the parent advances its
// counter, which would itself need to be a recorded decision).
func (r *RNG) Fork(label uint64) *RNG {
	return &RNG{seed: splitmix64(r.seed ^ label)}
}
