// Package http implements fozzy's http capability: a scripted matcher
// table by default, and a real HTTP client as the host backend. Grounded
// on the teacher's pkg/injection/l3l4 and pkg/injection/firewall (which
// shape live network traffic against a rule table) generalized from
// "match packets against iptables rules" to "match requests against
// scenario-declared matchers."
package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
)

// Response is the scripted/host-agnostic result shape for an http effect.
type Response struct {
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
}

// Matchers is the scripted http backend: a list of request matchers drawn
// straight from the scenario's script fixtures, tried in order.
type Matchers struct {
	table []scenario.HTTPMatcher
}

// NewMatchers builds a scripted backend from a scenario's http fixtures.
func NewMatchers(table []scenario.HTTPMatcher) *Matchers {
	return &Matchers{table: table}
}

// Match finds the first fixture whose method and URL match the request
// and returns the canned response. Returns a capability error if no
// fixture matches — an unscripted request is a scenario authoring bug,
// not a transient failure.
func (m *Matchers) Match(method, url string) (Response, error) {
	for _, fx := range m.table {
		if fx.Method == method && fx.URL == url {
			return Response{StatusCode: fx.StatusCode, Body: fx.Body}, nil
		}
	}
	return Response{}, fozzyerr.Newf(fozzyerr.KindCapability, "http.Matchers.Match", "no scripted fixture for %s %s", method, url)
}

// HostBackend issues real HTTP requests with a byte-ceiling on the
// response body, enforced per spec.md's capability ceilings.
type HostBackend struct {
	client      *http.Client
	bodyCeiling int64
}

// NewHostBackend returns a backend bounded by a per-request timeout and
// a response body ceiling in bytes.
func NewHostBackend(timeout time.Duration, bodyCeilingBytes int64) *HostBackend {
	return &HostBackend{
		client:      &http.Client{Timeout: timeout},
		bodyCeiling: bodyCeilingBytes,
	}
}

// Do issues a real request and returns its response, with the body
// truncated at the body ceiling.
func (h *HostBackend) Do(method, url string, body string) (Response, error) {
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	if err != nil {
		return Response{}, fozzyerr.New(fozzyerr.KindCapability, "http.HostBackend.Do", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Response{}, fozzyerr.New(fozzyerr.KindCapability, "http.HostBackend.Do", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, h.bodyCeiling+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return Response{}, fozzyerr.New(fozzyerr.KindCapability, "http.HostBackend.Do", err)
	}
	if int64(len(data)) > h.bodyCeiling {
		data = data[:h.bodyCeiling]
	}

	return Response{StatusCode: resp.StatusCode, Body: string(data)}, nil
}

// Label builds the decision-log label for an http effect at a step index.
func Label(method, url string, stepIndex int) string {
	return fmt.Sprintf("http_%s_%s#%d", method, url, stepIndex)
}
