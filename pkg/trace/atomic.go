package trace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
)

// CollisionPolicy controls what happens when a trace or manifest write
// targets a path that already exists. Mirrors pkg/reporting's policy of
// the same name; kept as its own type so pkg/trace has no dependency on
// pkg/reporting for what is, here, a different artifact.
type CollisionPolicy string

const (
	CollisionError     CollisionPolicy = "error"
	CollisionOverwrite CollisionPolicy = "overwrite"
	CollisionAppend    CollisionPolicy = "append"
)

// resolveCollision applies policy against an existing file at path,
// returning the path the caller should actually write to.
func resolveCollision(path string, policy CollisionPolicy) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return path, nil
	}
	switch policy {
	case CollisionOverwrite, "":
		return path, nil
	case CollisionAppend:
		ext := filepath.Ext(path)
		base := path[:len(path)-len(ext)]
		for i := 1; ; i++ {
			candidate := fmt.Sprintf("%s-%d%s", base, i, ext)
			if _, err := os.Stat(candidate); err != nil {
				return candidate, nil
			}
		}
	default:
		return "", fozzyerr.Newf(fozzyerr.KindInternal, "trace.resolveCollision", "%q already exists (collision policy %q)", path, policy)
	}
}

// writeAtomic writes data to path via a temp file in the same directory
// followed by an atomic rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fozzyerr.Newf(fozzyerr.KindInternal, "trace.writeAtomic", "create directory: %v", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fozzyerr.Newf(fozzyerr.KindInternal, "trace.writeAtomic", "create temp file: %v", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fozzyerr.Newf(fozzyerr.KindInternal, "trace.writeAtomic", "write temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fozzyerr.Newf(fozzyerr.KindInternal, "trace.writeAtomic", "close temp file: %v", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fozzyerr.Newf(fozzyerr.KindInternal, "trace.writeAtomic", "rename into place: %v", err)
	}
	return nil
}

// Write encodes t and writes it atomically to path, applying policy if
// path already exists. Returns the path actually written (which may
// differ from path under CollisionAppend).
func Write(path string, t *Trace, policy CollisionPolicy) (string, error) {
	resolved, err := resolveCollision(path, policy)
	if err != nil {
		return "", err
	}
	data, err := Encode(t)
	if err != nil {
		return "", err
	}
	if err := writeAtomic(resolved, data); err != nil {
		return "", err
	}
	return resolved, nil
}

// ReadFile loads and decodes a .fozzy file from disk without verifying
// it; call Verify on the result to check version/checksum.
func ReadFile(path string) (*Trace, error) {
	data, err := readFileBytes(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func readFileBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fozzyerr.Newf(fozzyerr.KindInternal, "trace.readFileBytes", "read file: %v", err)
	}
	return data, nil
}
