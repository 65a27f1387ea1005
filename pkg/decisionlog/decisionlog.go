// Package decisionlog implements the append-only record of every
// non-deterministic choice the engine makes. It is the single source of
// nondeterminism: anything not in the log must be derivable from
// (scenario, seed, prior decisions), and anything derivable must not be
// in the log.
package decisionlog

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
)

// Kind tags the category of non-deterministic choice a Decision records.
type Kind string

const (
	KindSchedPick  Kind = "sched_pick"
	KindNetDeliver Kind = "net_deliver"
	KindNetDrop    Kind = "net_drop"
	KindRNGDraw    Kind = "rng_draw"
	KindTimeTick   Kind = "time_tick"
	KindHTTPResult Kind = "http_result"
	KindProcResult Kind = "proc_result"
	KindMemFail    Kind = "mem_fail"
	KindFaultFire  Kind = "fault_fire"
)

// Decision is a single recorded non-deterministic choice.
type Decision struct {
	Kind    Kind        `json:"kind"`
	Label   string      `json:"label"`
	Payload interface{} `json:"payload,omitempty"`
}

// Mode selects whether the log is the authority (record) or the source of
// truth supplied by a prior run (replay).
type Mode int

const (
	ModeRecord Mode = iota
	ModeReplay
)

// DriftError reports a replay-time mismatch between the recorded decision
// and what the engine attempted to make next.
type DriftError struct {
	Index    int
	Expected Decision
	Actual   Decision
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("decision log drift at index %d: expected %+v, got %+v", e.Index, e.Expected, e.Actual)
}

// Log is the append-only ordered sequence of decisions for one run.
type Log struct {
	mu      sync.Mutex
	mode    Mode
	entries []Decision // record mode: what has been appended so far
	source  []Decision // replay mode: what a prior run recorded
	cursor  int        // replay mode: next index to consume
}

// NewRecorder returns a Log in record mode.
func NewRecorder() *Log {
	return &Log{mode: ModeRecord}
}

// NewReplayer returns a Log in replay mode, sourcing decisions from a
// previously recorded sequence (e.g. loaded from a trace file).
func NewReplayer(source []Decision) *Log {
	return &Log{mode: ModeReplay, source: source}
}

// Mode reports whether this log is recording or replaying.
func (l *Log) Mode() Mode {
	return l.mode
}

// Append records a decision in record mode. Calling Append in replay mode
// is an internal invariant violation — replay consumes decisions via
// Expect, it never originates them.
func (l *Log) Append(d Decision) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mode != ModeRecord {
		return fozzyerr.New(fozzyerr.KindInternal, "decisionlog.Append", fmt.Errorf("log is not in record mode"))
	}
	l.entries = append(l.entries, d)
	return nil
}

// Expect consumes the next decision in replay mode and verifies it matches
// the kind and label the engine expected to make next. A mismatch is
// reported as a fatal DriftError carrying (expected, actual, index).
func (l *Log) Expect(kind Kind, label string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mode != ModeReplay {
		return Decision{}, fozzyerr.New(fozzyerr.KindInternal, "decisionlog.Expect", fmt.Errorf("log is not in replay mode"))
	}

	if l.cursor >= len(l.source) {
		actual := Decision{Kind: kind, Label: label}
		err := &DriftError{Index: l.cursor, Expected: Decision{}, Actual: actual}
		return Decision{}, fozzyerr.New(fozzyerr.KindDrift, "decisionlog.Expect", err)
	}

	expected := l.source[l.cursor]
	actual := Decision{Kind: kind, Label: label}

	if expected.Kind != kind || expected.Label != label {
		err := &DriftError{Index: l.cursor, Expected: expected, Actual: actual}
		return Decision{}, fozzyerr.New(fozzyerr.KindDrift, "decisionlog.Expect", err)
	}

	l.cursor++
	return expected, nil
}

// Remaining reports how many recorded decisions in replay mode have not
// yet been consumed — used by the testable property "every decision in
// the log is consumed exactly once during replay."
func (l *Log) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode != ModeReplay {
		return 0
	}
	return len(l.source) - l.cursor
}

// Entries returns a copy of the decisions recorded so far (record mode)
// or supplied (replay mode, regardless of cursor position).
func (l *Log) Entries() []Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	var src []Decision
	if l.mode == ModeRecord {
		src = l.entries
	} else {
		src = l.source
	}
	out := make([]Decision, len(src))
	copy(out, src)
	return out
}

// Len reports the number of decisions currently recorded/sourced.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == ModeRecord {
		return len(l.entries)
	}
	return len(l.source)
}

// Resolve is the uniform entrypoint for a decision that the engine can
// always recompute deterministically (sched_pick, rng_draw, time_tick,
// net_deliver, net_drop, fault_fire). In record mode it appends d and
// returns it unchanged. In replay mode it does not trust the caller's
// freshly computed d at all: it consumes the next recorded decision via
// Expect and returns THAT, so a caller which already matched kind/label
// gets back the authoritative (possibly payload-bearing) recorded entry.
// A kind/label mismatch surfaces as the same DriftError Expect produces.
func (l *Log) Resolve(d Decision) (Decision, error) {
	if l.mode == ModeRecord {
		if err := l.Append(d); err != nil {
			return Decision{}, err
		}
		return d, nil
	}
	return l.Expect(d.Kind, d.Label)
}

// Finalize canonicalizes the decision log (stable key order via
// encoding/json's struct-field ordering, compact encoding) and returns
// the bytes plus their sha256 checksum.
func (l *Log) Finalize() (bytes []byte, checksum [32]byte, err error) {
	entries := l.Entries()
	bytes, err = json.Marshal(entries)
	if err != nil {
		return nil, [32]byte{}, fozzyerr.New(fozzyerr.KindInternal, "decisionlog.Finalize", err)
	}
	return bytes, sha256.Sum256(bytes), nil
}
