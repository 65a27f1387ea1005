// Package capability implements the shared (scripted_call, replay_call)
// contract every virtualized backend (fs, http, proc, net, memory)
// honors. http and proc route both their scripted (fixture-matched) and
// host (real subprocess/HTTP) results through ResolveHost uniformly:
// record mode calls through and appends the outcome as a decision,
// replay mode retrieves it from the log without calling through at all.
// This keeps a trace self-contained — replaying a proc_spawn doesn't
// need the scenario's fixture table still matching, only its own log —
// and matches the one-entry-per-call-site shape traces are expected to
// have. --det only gates which call is allowed to run in record mode
// (host is rejected); it has no bearing on whether the result is
// logged. fs overlay reads/writes and successful mem ledger allocations
// stay out of the log: they're reconstructible purely from the step
// sequence already being replayed. A failed ledger allocation is logged
// as a mem_fail decision.
package capability

import (
	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
)

// HostResult is the generic shape every host backend's captured result
// takes in the decision log: the call either produced Payload or failed
// with Err set.
type HostResult struct {
	Payload interface{} `json:"payload,omitempty"`
	Err     string      `json:"err,omitempty"`
}

// ResolveHost runs call() in record mode, appending its outcome as a
// decision, or — in replay mode — retrieves the previously recorded
// outcome without invoking call at all. This is the single place a host
// backend is actually reached; the scripted http and proc matchers are
// routed through it too.
func ResolveHost(dlog *decisionlog.Log, kind decisionlog.Kind, label string, call func() (interface{}, error)) (interface{}, error) {
	if dlog.Mode() == decisionlog.ModeReplay {
		d, err := dlog.Expect(kind, label)
		if err != nil {
			return nil, err
		}
		hr, ok := d.Payload.(HostResult)
		if !ok {
			hr = decodeHostResult(d.Payload)
		}
		if hr.Err != "" {
			return nil, fozzyerr.Newf(fozzyerr.KindCapability, "capability.ResolveHost", "%s", hr.Err)
		}
		return hr.Payload, nil
	}

	payload, callErr := call()
	hr := HostResult{Payload: payload}
	if callErr != nil {
		hr.Err = callErr.Error()
	}
	if err := dlog.Append(decisionlog.Decision{Kind: kind, Label: label, Payload: hr}); err != nil {
		return nil, err
	}
	if callErr != nil {
		return nil, fozzyerr.New(fozzyerr.KindCapability, "capability.ResolveHost", callErr)
	}
	return payload, nil
}

// decodeHostResult rebuilds a HostResult from its JSON round-trip shape
// (map[string]interface{}) — a trace loaded from disk deserializes
// Decision.Payload generically, so HostResult's static type is lost.
func decodeHostResult(payload interface{}) HostResult {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return HostResult{}
	}
	hr := HostResult{Payload: m["payload"]}
	if errStr, ok := m["err"].(string); ok {
		hr.Err = errStr
	}
	return hr
}

// DeterminismViolation is returned when a scenario requests a host
// backend while running under --det.
func DeterminismViolation(op, capability string) error {
	return fozzyerr.Newf(fozzyerr.KindDeterminismViolation, op, "capability %q requested a host backend under --det", capability)
}
