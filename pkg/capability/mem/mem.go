// Package mem implements fozzy's memory capability: a scripted pressure
// wave and allocation ledger by default, and a host backend that
// actually holds live bytes for stress scenarios. Grounded on the
// teacher's pkg/injection/stress (CPU/memory stress injection via
// Docker) generalized from "stress a target container's memory" to
// "track a run's own virtual allocation budget and optionally hold real
// bytes to exercise it."
package mem

import (
	"fmt"

	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
)

// Ledger tracks a scenario's virtual memory budget: a scripted pressure
// wave plus a running total of allocations made by mem_alloc/mem_free
// steps, failing allocations once the configured ceiling is crossed.
type Ledger struct {
	limitMB    int64
	failAfter  int64
	allocated  int64
	allocCount int64
	wave       []float64
}

// NewLedger builds a ledger from resource ceilings and a scenario's
// pressure-wave fixture.
func NewLedger(ceilings scenario.ResourceCeilings, policy scenario.MemPolicy) *Ledger {
	return &Ledger{
		limitMB:   int64(ceilings.MemLimitMB),
		failAfter: int64(ceilings.MemFailAfter),
		wave:      policy.PressureWave,
	}
}

// Pressure returns the scripted pressure-wave multiplier at allocation
// index i, clamped to the wave's last value once the wave is exhausted.
// 0 (no wave configured) always means no added pressure.
func (l *Ledger) Pressure(i int) float64 {
	if len(l.wave) == 0 {
		return 1.0
	}
	if i >= len(l.wave) {
		return l.wave[len(l.wave)-1]
	}
	return l.wave[i]
}

// Alloc records an allocation of sizeMB, applying the scripted pressure
// multiplier, and fails deterministically once the ledger's fail-after
// count is reached or the total would exceed the configured limit.
func (l *Ledger) Alloc(sizeMB int64) error {
	effective := int64(float64(sizeMB) * l.Pressure(int(l.allocCount)))
	l.allocCount++

	if l.failAfter > 0 && l.allocCount > l.failAfter {
		return fozzyerr.Newf(fozzyerr.KindOOM, "mem.Ledger.Alloc", "allocation %d exceeds fail-after budget of %d", l.allocCount, l.failAfter)
	}
	if l.limitMB > 0 && l.allocated+effective > l.limitMB {
		return fozzyerr.Newf(fozzyerr.KindOOM, "mem.Ledger.Alloc", "allocation of %dMB would exceed limit of %dMB (currently %dMB)", effective, l.limitMB, l.allocated)
	}

	l.allocated += effective
	return nil
}

// Free releases sizeMB from the ledger, clamping at zero.
func (l *Ledger) Free(sizeMB int64) {
	l.allocated -= sizeMB
	if l.allocated < 0 {
		l.allocated = 0
	}
}

// Allocated reports the ledger's current total in MB.
func (l *Ledger) Allocated() int64 { return l.allocated }

// HostBackend holds real memory so a scenario can exercise actual
// process-level pressure instead of only the virtual ledger.
type HostBackend struct {
	blocks [][]byte
}

// NewHostBackend returns an empty host-backed allocator.
func NewHostBackend() *HostBackend {
	return &HostBackend{}
}

// Hold allocates and zero-fills sizeMB of real memory, returning a
// handle (the block's index) used to free it later.
func (h *HostBackend) Hold(sizeMB int64) int {
	block := make([]byte, sizeMB*1024*1024)
	for i := range block {
		block[i] = 0
	}
	h.blocks = append(h.blocks, block)
	return len(h.blocks) - 1
}

// Release frees the block at handle, replacing it with nil so indices
// stay stable for any remaining handles.
func (h *HostBackend) Release(handle int) error {
	if handle < 0 || handle >= len(h.blocks) {
		return fozzyerr.Newf(fozzyerr.KindCapability, "mem.HostBackend.Release", "invalid handle %d", handle)
	}
	h.blocks[handle] = nil
	return nil
}

// DecisionKind is the mem capability's decision kind for OOM outcomes
// (mem_fail). A successful ledger allocation is not logged; a failed one
// is logged under this kind.
const DecisionKind = decisionlog.KindMemFail

// Label builds the decision-log label for a mem effect at a step index.
func Label(op string, stepIndex int) string {
	return fmt.Sprintf("mem_%s#%d", op, stepIndex)
}
