// Package trace implements fozzy's .fozzy trace file: a self-contained,
// replayable record of one run. A trace is a single-line JSON header
// (format/version/seed/scenario digest/commit/checksum) followed by the
// decision log and event timeline that header describes. A .fozzy file
// can be verified on its own; replaying it through Engine.Replay takes
// the scenario it was recorded from, but not that scenario's fixture
// table, since recorded capability results come from the trace.
//
// Grounded on pkg/reporting/storage.go's atomic-save pattern (temp file
// + rename, collision policy), extended with a header/checksum/version
// envelope a plain report file doesn't need: a trace is a replay
// contract across fozzy versions, a report is a point-in-time summary.
package trace

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/engine"
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
)

// Format is the fixed magic value every trace header carries.
const Format = "fozzy-trace"

// MinVersion and MaxVersion bound the header versions verify/replay
// accept. A trace outside this range is rejected outright rather than
// guessed at.
const (
	MinVersion     = 1
	MaxVersion     = 1
	CurrentVersion = 1
)

// Header is the trace file's single-line JSON preamble. Checksum covers
// the canonical encoding of everything that follows the header: the
// decision log plus the event timeline.
type Header struct {
	Format          string    `json:"format"`
	Version         int       `json:"version"`
	Seed            int64     `json:"seed"`
	ScenarioDigest  string    `json:"scenario_digest"`
	Commit          string    `json:"commit,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	Checksum        string    `json:"checksum"`
	CollisionPolicy string    `json:"collision_policy,omitempty"`
}

// body is the canonical (post-header) payload a trace's checksum covers.
type body struct {
	Decisions []decisionlog.Decision `json:"decisions"`
	Events    []engine.Event         `json:"events"`
}

// Trace is a fully decoded .fozzy file: header plus the decision log and
// event timeline it describes.
type Trace struct {
	Header    Header
	Decisions []decisionlog.Decision
	Events    []engine.Event
}

// NewRunID mints a fresh run identifier. Grounded on google/uuid, already
// a pack dependency, used here rather than a hand-rolled random string
// since a run id needs to be collision-resistant across machines, not
// just within one process.
func NewRunID() string {
	return uuid.NewString()
}

// Build assembles a Trace from a completed run, computing its checksum
// over the canonical (compact, stable-key-order) encoding of decisions
// and events. commit is the fozzy build's commit/version string;
// collisionPolicy records which policy produced this file's path, so a
// later reader can tell overwrite-prone traces from append-only ones.
func Build(seed int64, scenarioDigest, commit, collisionPolicy string, decisions []decisionlog.Decision, events []engine.Event, createdAt time.Time) (*Trace, error) {
	checksum, err := checksumBody(decisions, events)
	if err != nil {
		return nil, err
	}
	return &Trace{
		Header: Header{
			Format:          Format,
			Version:         CurrentVersion,
			Seed:            seed,
			ScenarioDigest:  scenarioDigest,
			Commit:          commit,
			CreatedAt:       createdAt,
			Checksum:        checksum,
			CollisionPolicy: collisionPolicy,
		},
		Decisions: decisions,
		Events:    events,
	}, nil
}

func checksumBody(decisions []decisionlog.Decision, events []engine.Event) (string, error) {
	if decisions == nil {
		decisions = []decisionlog.Decision{}
	}
	if events == nil {
		events = []engine.Event{}
	}
	data, err := json.Marshal(body{Decisions: decisions, Events: events})
	if err != nil {
		return "", fozzyerr.New(fozzyerr.KindInternal, "trace.checksumBody", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// prettyEnv, when set to a non-empty value other than "0"/"false", opts
// the body encoding into indented JSON. The header stays single-line
// regardless: verify/replay only need to read one line to decide
// whether the rest of the file is worth parsing at all.
const prettyEnv = "FOZZY_TRACE_PRETTY"

func prettyRequested() bool {
	v := os.Getenv(prettyEnv)
	return v != "" && v != "0" && v != "false"
}

// Encode renders t as the bytes a .fozzy file holds: a header line
// followed by its body.
func Encode(t *Trace) ([]byte, error) {
	headerLine, err := json.Marshal(t.Header)
	if err != nil {
		return nil, fozzyerr.New(fozzyerr.KindInternal, "trace.Encode", err)
	}

	b := body{Decisions: t.Decisions, Events: t.Events}
	var bodyBytes []byte
	if prettyRequested() {
		bodyBytes, err = json.MarshalIndent(b, "", "  ")
	} else {
		bodyBytes, err = json.Marshal(b)
	}
	if err != nil {
		return nil, fozzyerr.New(fozzyerr.KindInternal, "trace.Encode", err)
	}

	var buf bytes.Buffer
	buf.Write(headerLine)
	buf.WriteByte('\n')
	buf.Write(bodyBytes)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Decode parses raw .fozzy file bytes into a Trace, without verifying
// its checksum or version range — callers that need those guarantees
// call Verify on the result.
func Decode(data []byte) (*Trace, error) {
	reader := bufio.NewReader(bytes.NewReader(data))
	headerLine, err := reader.ReadString('\n')
	if err != nil {
		return nil, fozzyerr.Newf(fozzyerr.KindParse, "trace.Decode", "read header line: %v", err)
	}

	var h Header
	if err := json.Unmarshal([]byte(headerLine), &h); err != nil {
		return nil, fozzyerr.Newf(fozzyerr.KindParse, "trace.Decode", "parse header: %v", err)
	}

	rest, err := readAll(reader)
	if err != nil {
		return nil, fozzyerr.Newf(fozzyerr.KindParse, "trace.Decode", "read body: %v", err)
	}

	var b body
	if err := json.Unmarshal(rest, &b); err != nil {
		return nil, fozzyerr.Newf(fozzyerr.KindParse, "trace.Decode", "parse body: %v", err)
	}

	return &Trace{Header: h, Decisions: b.Decisions, Events: b.Events}, nil
}

func readAll(r *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r)
	return buf.Bytes(), err
}

// Warning is a non-fatal finding surfaced by Verify (e.g. a stale
// schema). Under --strict a caller should treat warnings as errors.
type Warning struct {
	Message string
}

// Verify checks a decoded Trace's version range and checksum, and
// reports stale-schema warnings for optional fields the header is
// missing. strict promotes warnings to a returned error instead of
// just reporting them.
func Verify(t *Trace, strict bool) ([]Warning, error) {
	if t.Header.Format != Format {
		return nil, fozzyerr.Newf(fozzyerr.KindValidation, "trace.Verify", "unrecognized trace format %q", t.Header.Format)
	}
	if t.Header.Version < MinVersion || t.Header.Version > MaxVersion {
		return nil, fozzyerr.Newf(fozzyerr.KindValidation, "trace.Verify", "trace version %d outside supported range [%d, %d]", t.Header.Version, MinVersion, MaxVersion)
	}

	want, err := checksumBody(t.Decisions, t.Events)
	if err != nil {
		return nil, err
	}
	if want != t.Header.Checksum {
		return nil, fozzyerr.Newf(fozzyerr.KindChecksum, "trace.Verify", "checksum mismatch: header says %s, body hashes to %s", t.Header.Checksum, want)
	}

	var warnings []Warning
	if t.Header.ScenarioDigest == "" {
		warnings = append(warnings, Warning{Message: "trace is missing scenario_digest (stale schema)"})
	}
	if t.Header.Commit == "" {
		warnings = append(warnings, Warning{Message: "trace is missing commit (stale schema)"})
	}
	if t.Header.CreatedAt.IsZero() {
		warnings = append(warnings, Warning{Message: "trace is missing created_at (stale schema)"})
	}

	if strict && len(warnings) > 0 {
		return warnings, fozzyerr.Newf(fozzyerr.KindValidation, "trace.Verify", "%d stale-schema warning(s) under --strict: %s", len(warnings), warnings[0].Message)
	}
	return warnings, nil
}

// ToDecisionLog builds a replay-mode decisionlog.Log sourced from t's
// decisions. Engine.Replay itself takes the raw Decisions slice.
func (t *Trace) ToDecisionLog() *decisionlog.Log {
	return decisionlog.NewReplayer(t.Decisions)
}

// String renders a Header for diagnostics.
func (h Header) String() string {
	return fmt.Sprintf("%s v%d seed=%d digest=%s commit=%s", h.Format, h.Version, h.Seed, h.ScenarioDigest, h.Commit)
}
