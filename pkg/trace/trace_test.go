package trace_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/engine"
	"github.com/ariacomputecompany/fozzy/pkg/trace"
)

func sampleTrace(t *testing.T) *trace.Trace {
	t.Helper()
	decisions := []decisionlog.Decision{
		{Kind: decisionlog.KindProcResult, Label: "proc:0:echo hi", Payload: "hi"},
	}
	events := []engine.Event{
		{Tick: 0, StepIndex: 0, Kind: "proc_spawn", Detail: "echo hi"},
	}
	tr, err := trace.Build(42, "deadbeef", "abc123", string(trace.CollisionOverwrite), decisions, events, time.Unix(1700000000, 0).UTC())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return tr
}

func TestWriteReadVerifyRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.fozzy")

	tr := sampleTrace(t)
	written, err := trace.Write(path, tr, trace.CollisionOverwrite)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := trace.ReadFile(written)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	warnings, err := trace.Verify(loaded, false)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no stale-schema warnings, got %+v", warnings)
	}
	if loaded.Header.Seed != 42 || loaded.Header.ScenarioDigest != "deadbeef" {
		t.Fatalf("header mismatch: %+v", loaded.Header)
	}
	if len(loaded.Decisions) != 1 || len(loaded.Events) != 1 {
		t.Fatalf("body mismatch: %+v", loaded)
	}
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.fozzy")

	tr := sampleTrace(t)
	written, err := trace.Write(path, tr, trace.CollisionOverwrite)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := trace.ReadFile(written)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	loaded.Decisions[0].Payload = "tampered"

	if _, err := trace.Verify(loaded, false); err == nil {
		t.Fatalf("expected a checksum mismatch on a tampered decision payload")
	}
}

func TestVerifyRejectsOutOfRangeVersion(t *testing.T) {
	tr := sampleTrace(t)
	tr.Header.Version = trace.MaxVersion + 1
	if _, err := trace.Verify(tr, false); err == nil {
		t.Fatalf("expected an error for an out-of-range trace version")
	}
}

func TestVerifyWarnsOnStaleSchemaUnderStrict(t *testing.T) {
	tr := sampleTrace(t)
	tr.Header.ScenarioDigest = ""

	warnings, err := trace.Verify(tr, false)
	if err != nil {
		t.Fatalf("non-strict verify should not fail: %v", err)
	}
	if len(warnings) == 0 {
		t.Fatalf("expected a stale-schema warning for missing scenario_digest")
	}

	if _, err := trace.Verify(tr, true); err == nil {
		t.Fatalf("expected strict verify to turn the warning into an error")
	}
}

func TestWriteCollisionPoliciesProduceDistinctPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.fozzy")
	tr := sampleTrace(t)

	first, err := trace.Write(path, tr, trace.CollisionOverwrite)
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	second, err := trace.Write(path, tr, trace.CollisionAppend)
	if err != nil {
		t.Fatalf("append write: %v", err)
	}
	if first == second {
		t.Fatalf("expected append policy to avoid colliding with %q", first)
	}
	if _, err := trace.Write(path, tr, trace.CollisionError); err == nil {
		t.Fatalf("expected error policy to reject an existing path")
	}
}

func TestToDecisionLogFeedsReplay(t *testing.T) {
	tr := sampleTrace(t)
	log := tr.ToDecisionLog()
	if log.Mode() != decisionlog.ModeReplay {
		t.Fatalf("expected a replay-mode log")
	}
	if log.Remaining() != 1 {
		t.Fatalf("expected 1 unconsumed decision, got %d", log.Remaining())
	}
}

func TestManifestRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	m := trace.BuildManifest("run-1", 42, engine.OutcomePass, []string{"proc"}, []trace.Artifact{
		{Type: "trace", Path: "run-1.fozzy"},
	}, "abc123")

	written, err := trace.WriteManifest(path, m, trace.CollisionOverwrite)
	if err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	loaded, err := trace.ReadManifest(written)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if loaded.Schema != trace.ManifestSchema || loaded.RunID != "run-1" || len(loaded.Artifacts) != 1 {
		t.Fatalf("manifest mismatch: %+v", loaded)
	}
}

func TestReadManifestRejectsWrongSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte(`{"schema":"something.else.v1"}`), 0644); err != nil {
		t.Fatalf("write raw manifest: %v", err)
	}
	if _, err := trace.ReadManifest(path); err == nil {
		t.Fatalf("expected an error for a mismatched manifest schema")
	}
}
