package scheduler

// Policy is a deterministic task-selection strategy. Every Pick draws
// from the substrate RNG exclusively (never host randomness) so it is
// fully recordable.
type Policy string

const (
	PolicyFIFO            Policy = "fifo"
	PolicyBFS             Policy = "bfs"
	PolicyDFS             Policy = "dfs"
	PolicyRandom          Policy = "random"
	PolicyPCT             Policy = "pct"
	PolicyCoverageGuided  Policy = "coverage_guided"
)

// picker selects one task out of a set of eligible candidates, given a
// draw source. Only random and pct use the draw source; fifo, bfs, and
// dfs are positional (queue order already encodes them) and
// coverage_guided picks by seen-count, so those four ignore it.
type picker interface {
	pick(candidates []*Task, draw func(n int) int) *Task
}

type fifoPicker struct{}

func (fifoPicker) pick(candidates []*Task, _ func(int) int) *Task {
	return candidates[0]
}

// bfsPicker takes the first candidate in queue order (like fifo);
// dfsPicker takes the last.
type bfsPicker struct{}

func (bfsPicker) pick(candidates []*Task, _ func(int) int) *Task {
	return candidates[0]
}

type dfsPicker struct{}

func (dfsPicker) pick(candidates []*Task, _ func(int) int) *Task {
	return candidates[len(candidates)-1]
}

type randomPicker struct{}

func (randomPicker) pick(candidates []*Task, draw func(int) int) *Task {
	return candidates[draw(len(candidates))]
}

// pctPicker implements probabilistic concurrency testing: with
// probability proportional to 1/depth it makes a "priority-changing"
// random choice, otherwise it defers to FIFO order. This is a compact
// approximation of PCT's bug-depth-d guarantee suitable for a bounded
// task set.
type pctPicker struct {
	depth int
}

func (p pctPicker) pick(candidates []*Task, draw func(int) int) *Task {
	if p.depth <= 0 {
		return candidates[0]
	}
	// 1-in-depth chance of a random reorder; otherwise FIFO.
	if draw(p.depth) == 0 && len(candidates) > 1 {
		return candidates[draw(len(candidates))]
	}
	return candidates[0]
}

// coverageGuidedPicker prefers the candidate whose Kind has been seen
// least often, biasing exploration toward under-sampled schedule shapes.
type coverageGuidedPicker struct {
	seen map[string]int
}

func newCoverageGuidedPicker() *coverageGuidedPicker {
	return &coverageGuidedPicker{seen: make(map[string]int)}
}

func (p *coverageGuidedPicker) pick(candidates []*Task, draw func(int) int) *Task {
	best := candidates[0]
	bestCount := p.seen[best.Kind]
	for _, c := range candidates[1:] {
		if n := p.seen[c.Kind]; n < bestCount {
			best, bestCount = c, n
		}
	}
	p.seen[best.Kind]++
	return best
}

func newPicker(policy Policy, pctDepth int) picker {
	switch policy {
	case PolicyBFS:
		return bfsPicker{}
	case PolicyDFS:
		return dfsPicker{}
	case PolicyRandom:
		return randomPicker{}
	case PolicyPCT:
		return pctPicker{depth: pctDepth}
	case PolicyCoverageGuided:
		return newCoverageGuidedPicker()
	default:
		return fifoPicker{}
	}
}
