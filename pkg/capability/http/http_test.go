package http

import (
	"testing"

	"github.com/ariacomputecompany/fozzy/pkg/scenario"
)

func TestMatchersFindsFixture(t *testing.T) {
	m := NewMatchers([]scenario.HTTPMatcher{
		{Method: "GET", URL: "/health", StatusCode: 200, Body: "ok"},
	})

	resp, err := m.Match("GET", "/health")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if resp.StatusCode != 200 || resp.Body != "ok" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestMatchersRejectsUnscripted(t *testing.T) {
	m := NewMatchers(nil)
	if _, err := m.Match("GET", "/nope"); err == nil {
		t.Fatalf("expected error for unscripted request")
	}
}

func TestLabelIsStable(t *testing.T) {
	if Label("GET", "/x", 3) != Label("GET", "/x", 3) {
		t.Fatalf("expected stable label")
	}
}
