package proc

import (
	"github.com/ariacomputecompany/fozzy/pkg/capability"
	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
)

// ResolveDo wraps a host call through capability.ResolveHost and decodes
// the result back into a Result regardless of whether it arrived as a
// live Go value (same-process record/replay) or via a JSON round trip
// (trace loaded from disk).
func ResolveDo(dlog *decisionlog.Log, label string, do func() (Result, error)) (Result, error) {
	payload, err := capability.ResolveHost(dlog, decisionlog.KindProcResult, label, func() (interface{}, error) {
		return do()
	})
	if err != nil {
		return Result{}, err
	}
	return decodeResult(payload), nil
}

func decodeResult(payload interface{}) Result {
	if r, ok := payload.(Result); ok {
		return r
	}
	m, ok := payload.(map[string]interface{})
	if !ok {
		return Result{}
	}
	res := Result{}
	if s, ok := m["stdout"].(string); ok {
		res.Stdout = s
	}
	if s, ok := m["stderr"].(string); ok {
		res.Stderr = s
	}
	if ec, ok := m["exit_code"].(float64); ok {
		res.ExitCode = int(ec)
	}
	return res
}
