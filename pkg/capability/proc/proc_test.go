package proc

import (
	"testing"

	"github.com/ariacomputecompany/fozzy/pkg/scenario"
)

func TestMatchersFindsFixture(t *testing.T) {
	m := NewMatchers([]scenario.ProcMatcher{
		{Command: "echo hi", Stdout: "hi\n", ExitCode: 0},
	})

	res, err := m.Match("echo hi")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Stdout != "hi\n" || res.ExitCode != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestMatchersRejectsUnscripted(t *testing.T) {
	m := NewMatchers(nil)
	if _, err := m.Match("rm -rf /"); err == nil {
		t.Fatalf("expected error for unscripted command")
	}
}
