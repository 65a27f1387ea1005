// Package net implements fozzy's net capability: message delivery against
// a scripted topology (partition/drop policy), with decisions always
// derivable — net_deliver and net_drop never touch a real socket, so
// they never carry a host-observed payload. Grounded on the teacher's
// pkg/injection/l3l4 and pkg/injection/firewall, which shape live packet
// flow against iptables-style rules; generalized here to shape virtual
// message delivery against the scenario's NetTopology.
package net

import (
	"fmt"

	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
	"github.com/ariacomputecompany/fozzy/pkg/substrate"
)

// Policy decides whether a message between two nodes is delivered.
type Policy struct {
	dropP float64
}

// NewPolicy builds a net policy from a scenario's topology fixture.
func NewPolicy(topo scenario.NetTopology) *Policy {
	return &Policy{dropP: topo.DropP}
}

// Decide draws from rng and records a net_deliver or net_drop decision,
// recomputing identically in record and replay mode via dlog.Resolve:
// delivery is fully derivable from (policy, rng state), so it is never
// host-observed.
func (p *Policy) Decide(dlog *decisionlog.Log, rng *substrate.RNG, from, to string, stepIndex int) (bool, error) {
	label := fmt.Sprintf("%s->%s#%d", from, to, stepIndex)
	draw := rng.Float64()
	deliver := draw >= p.dropP

	kind := decisionlog.KindNetDeliver
	if !deliver {
		kind = decisionlog.KindNetDrop
	}

	d := decisionlog.Decision{Kind: kind, Label: label, Payload: draw}
	resolved, err := dlog.Resolve(d)
	if err != nil {
		return false, err
	}
	return resolved.Kind == decisionlog.KindNetDeliver, nil
}
