package http

import (
	"github.com/ariacomputecompany/fozzy/pkg/capability"
	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
)

// ResolveDo wraps a host call through capability.ResolveHost and decodes
// the result back into a Response regardless of whether it arrived as a
// live Go value (same-process record/replay) or via a JSON round trip
// (trace loaded from disk).
func ResolveDo(dlog *decisionlog.Log, label string, do func() (Response, error)) (Response, error) {
	payload, err := capability.ResolveHost(dlog, decisionlog.KindHTTPResult, label, func() (interface{}, error) {
		return do()
	})
	if err != nil {
		return Response{}, err
	}
	return decodeResponse(payload), nil
}

func decodeResponse(payload interface{}) Response {
	if r, ok := payload.(Response); ok {
		return r
	}
	m, ok := payload.(map[string]interface{})
	if !ok {
		return Response{}
	}
	resp := Response{}
	if sc, ok := m["status_code"].(float64); ok {
		resp.StatusCode = int(sc)
	}
	if b, ok := m["body"].(string); ok {
		resp.Body = b
	}
	return resp
}
