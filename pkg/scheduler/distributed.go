package scheduler

// DistState models the distributed topology's live/partition state. In
// single-node mode it degenerates to one always-live node with no
// partition edges, so the same code path drives both modes.
type DistState struct {
	nodes     []string
	crashed   map[string]bool
	partition map[edge]bool // symmetric: only the canonical (a<b) key is stored
}

type edge struct{ a, b string }

func canonicalEdge(a, b string) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// NewDistState creates distributed state for the given node ids. A nil or
// empty slice models single-node mode.
func NewDistState(nodes []string) *DistState {
	return &DistState{
		nodes:     nodes,
		crashed:   make(map[string]bool),
		partition: make(map[edge]bool),
	}
}

// IsLive reports whether node is not crashed. A node not present in the
// topology (single-node mode's implicit node) is always live.
func (d *DistState) IsLive(node string) bool {
	if node == "" {
		return true
	}
	return !d.crashed[node]
}

// Crash marks a node as crashed.
func (d *DistState) Crash(node string) {
	d.crashed[node] = true
}

// Restart marks a previously crashed node as live again.
func (d *DistState) Restart(node string) {
	delete(d.crashed, node)
}

// Partition marks the edge between a and b as cut.
func (d *DistState) Partition(a, b string) {
	d.partition[canonicalEdge(a, b)] = true
}

// Heal marks the edge between a and b as passable again.
func (d *DistState) Heal(a, b string) {
	delete(d.partition, canonicalEdge(a, b))
}

// HealAll clears every partition edge.
func (d *DistState) HealAll() {
	d.partition = make(map[edge]bool)
}

// EdgePasses reports whether traffic between a and b is currently
// permitted: both nodes live and the edge not partitioned. Single-node
// mode (empty node names) always passes.
func (d *DistState) EdgePasses(a, b string) bool {
	if a == "" && b == "" {
		return true
	}
	if !d.IsLive(a) || !d.IsLive(b) {
		return false
	}
	return !d.partition[canonicalEdge(a, b)]
}

// Nodes returns the declared node ids.
func (d *DistState) Nodes() []string {
	return d.nodes
}
