// Package fs implements fozzy's fs capability: a scripted copy-on-write
// overlay by default, and a host backend sandboxed to the root directory
// it is constructed with, opt-in and rejected under --det. Grounded on the teacher's sidecar
// container-overlay idea (pkg/injection/sidecar in the teacher),
// generalized from "overlay a container's filesystem" to "overlay a
// virtual path namespace" addressed by cheap version tokens instead of
// full copies.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
)

// layer is one copy-on-write write, linked to its parent. A chain of
// layers is the overlay's structural-sharing representation: Snapshot
// just captures the current *layer pointer (O(1)); Restore rewinds to
// it (O(1)); neither copies the map.
type layer struct {
	path    string
	content string
	parent  *layer
}

// Token is a cheap, opaque snapshot handle.
type Token struct {
	at *layer
}

// Overlay is the scripted fs backend: a copy-on-write path namespace.
type Overlay struct {
	head *layer
}

// NewOverlay returns an empty overlay, optionally seeded with fixtures.
func NewOverlay(fixtures map[string]string) *Overlay {
	o := &Overlay{}
	for path, content := range fixtures {
		o.write(path, content)
	}
	return o
}

func (o *Overlay) write(path, content string) {
	o.head = &layer{path: path, content: content, parent: o.head}
}

// Write records a write in the overlay. Always succeeds: the scripted
// backend has no host quota.
func (o *Overlay) Write(path, content string) {
	o.write(path, content)
}

// Read returns the most recent content written to path, walking the
// layer chain back to the root.
func (o *Overlay) Read(path string) (string, bool) {
	for l := o.head; l != nil; l = l.parent {
		if l.path == path {
			return l.content, true
		}
	}
	return "", false
}

// Snapshot returns a cheap version token for the current overlay state.
func (o *Overlay) Snapshot() Token {
	return Token{at: o.head}
}

// Restore rewinds the overlay to a previously captured token.
func (o *Overlay) Restore(t Token) {
	o.head = t.at
}

// HostBackend performs real filesystem reads/writes sandboxed to a root
// directory, rejecting any path that escapes it. Opt-in; rejected under
// --det by the caller before HostBackend is ever constructed.
type HostBackend struct {
	root string
}

// NewHostBackend returns a backend sandboxed to root.
func NewHostBackend(root string) *HostBackend {
	return &HostBackend{root: root}
}

// resolve joins path under root and rejects any escape via "..".
func (h *HostBackend) resolve(path string) (string, error) {
	full := filepath.Join(h.root, path)
	rel, err := filepath.Rel(h.root, full)
	if err != nil {
		return "", fozzyerr.New(fozzyerr.KindCapability, "fs.HostBackend.resolve", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fozzyerr.Newf(fozzyerr.KindCapability, "fs.HostBackend.resolve", "path %q escapes sandbox root", path)
	}
	return full, nil
}

// Read performs a real, host-backed read. Every call is wrapped in
// capability.ResolveHost by the caller (pkg/engine) so the result is
// captured as a decision in record mode and supplied from the log in
// replay mode without touching disk again.
func (h *HostBackend) Read(path string) (string, error) {
	full, err := h.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fozzyerr.New(fozzyerr.KindCapability, "fs.HostBackend.Read", err)
	}
	return string(data), nil
}

// Write performs a real, host-backed write.
func (h *HostBackend) Write(path, content string) error {
	full, err := h.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fozzyerr.New(fozzyerr.KindCapability, "fs.HostBackend.Write", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return fozzyerr.New(fozzyerr.KindCapability, "fs.HostBackend.Write", err)
	}
	return nil
}

// Label builds the decision-log label for an fs effect at a given step index.
func Label(op string, stepIndex int) string {
	return fmt.Sprintf("fs_%s#%d", op, stepIndex)
}

// DecisionKind is the fs capability's decision kind (shared with proc/http
// in spirit, but fs host reads are modeled as proc_result-shaped
// HostResult payloads under a distinct label namespace rather than a
// dedicated kind — spec.md's Decision kind enum has no fs-specific
// entry, so fs host reads ride the same generic capability channel).
const DecisionKind = decisionlog.KindProcResult
