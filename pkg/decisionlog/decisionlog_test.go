package decisionlog

import (
	"testing"

	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
)

func TestRecordThenReplayRoundTrip(t *testing.T) {
	rec := NewRecorder()
	if err := rec.Append(Decision{Kind: KindProcResult, Label: "proc_spawn#0", Payload: "hi"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := rec.Append(Decision{Kind: KindSchedPick, Label: "task-1"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries := rec.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	replay := NewReplayer(entries)
	d, err := replay.Expect(KindProcResult, "proc_spawn#0")
	if err != nil {
		t.Fatalf("expect: %v", err)
	}
	if d.Payload != "hi" {
		t.Fatalf("expected payload hi, got %v", d.Payload)
	}

	if _, err := replay.Expect(KindSchedPick, "task-1"); err != nil {
		t.Fatalf("expect: %v", err)
	}

	if replay.Remaining() != 0 {
		t.Fatalf("expected all decisions consumed, %d remaining", replay.Remaining())
	}
}

func TestExpectDriftOnMismatch(t *testing.T) {
	replay := NewReplayer([]Decision{{Kind: KindProcResult, Label: "proc_spawn#0", Payload: "hi"}})

	_, err := replay.Expect(KindProcResult, "proc_spawn#0-wrong-label")
	if fozzyerr.KindOf(err) != fozzyerr.KindDrift {
		t.Fatalf("expected drift error, got %v", err)
	}

	var driftErr *DriftError
	var fe *fozzyerr.Error
	if !asError(err, &fe) {
		t.Fatalf("expected fozzyerr.Error")
	}
	driftErr, ok := fe.Err.(*DriftError)
	if !ok {
		t.Fatalf("expected underlying *DriftError, got %T", fe.Err)
	}
	if driftErr.Index != 0 {
		t.Fatalf("expected drift at index 0, got %d", driftErr.Index)
	}
}

func TestExpectDriftWhenExhausted(t *testing.T) {
	replay := NewReplayer(nil)
	_, err := replay.Expect(KindRNGDraw, "draw#0")
	if fozzyerr.KindOf(err) != fozzyerr.KindDrift {
		t.Fatalf("expected drift error when log is exhausted, got %v", err)
	}
}

func TestAppendRejectedInReplayMode(t *testing.T) {
	replay := NewReplayer(nil)
	err := replay.Append(Decision{Kind: KindRNGDraw, Label: "x"})
	if fozzyerr.KindOf(err) != fozzyerr.KindInternal {
		t.Fatalf("expected internal error appending in replay mode, got %v", err)
	}
}

func TestFinalizeIsDeterministic(t *testing.T) {
	build := func() *Log {
		l := NewRecorder()
		_ = l.Append(Decision{Kind: KindRNGDraw, Label: "a", Payload: 1})
		_ = l.Append(Decision{Kind: KindTimeTick, Label: "b", Payload: 2})
		return l
	}

	b1, c1, err := build().Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	b2, c2, err := build().Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if string(b1) != string(b2) {
		t.Fatalf("expected identical canonical bytes across identical logs")
	}
	if c1 != c2 {
		t.Fatalf("expected identical checksums across identical logs")
	}
}

func asError(err error, target **fozzyerr.Error) bool {
	fe, ok := err.(*fozzyerr.Error)
	if !ok {
		return false
	}
	*target = fe
	return true
}
