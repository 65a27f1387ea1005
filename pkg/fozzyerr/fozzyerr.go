// Package fozzyerr defines fozzy's stable error-kind taxonomy. Every error
// that crosses a package boundary in the engine carries one of these kinds
// so the CLI can convert kind to exit code without inspecting error text.
package fozzyerr

import (
	"errors"
	"fmt"
)

// Kind is a stable error classification, independent of the Go error type
// used to represent it.
type Kind string

const (
	KindParse                 Kind = "parse"
	KindValidation            Kind = "validation"
	KindDrift                 Kind = "drift"
	KindChecksum              Kind = "checksum"
	KindCapability            Kind = "capability"
	KindDeterminismViolation  Kind = "determinism-violation"
	KindTimeout               Kind = "timeout"
	KindDeadlock              Kind = "deadlock"
	KindOOM                   Kind = "oom"
	KindAssertion             Kind = "assertion"
	KindInternal              Kind = "internal"
)

// Error is a kind-tagged error. It wraps an underlying cause the way the
// rest of the codebase wraps errors with fmt.Errorf("...: %w", err).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a kind-tagged error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a kind-tagged error from a format string.
func Newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err, walking the unwrap chain. Returns
// KindInternal if err carries no Kind — an error escaping the engine
// without a kind tag is itself an internal-invariant violation.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// ExitCode converts a Kind to the CLI contract's exit code:
// 0 success, 1 test/engine failure, 2 CLI/parse/usage error.
func ExitCode(kind Kind) int {
	switch kind {
	case "":
		return 0
	case KindParse, KindValidation:
		return 2
	default:
		return 1
	}
}
