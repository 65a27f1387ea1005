package trace

import (
	"encoding/json"

	"github.com/ariacomputecompany/fozzy/pkg/engine"
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
)

// ManifestSchema is the fixed schema identifier every manifest carries,
// so a consumer can tell a fozzy manifest from any other JSON file
// without guessing at its shape.
const ManifestSchema = "fozzy.run_manifest.v1"

// Artifact points at one file a run produced (its report, its trace,
// any ancillary dump).
type Artifact struct {
	Type string `json:"type"` // "report" | "trace" | ...
	Path string `json:"path"`
}

// ManifestVersions pins the schema and build identifiers a manifest was
// written under, so an old manifest can be told apart from a new one
// without parsing its body.
type ManifestVersions struct {
	Schema string `json:"schema"`
	Commit string `json:"commit,omitempty"`
}

// Manifest is the fixed-schema index of everything one run produced.
type Manifest struct {
	Schema       string           `json:"schema"`
	RunID        string           `json:"run_id"`
	Seed         int64            `json:"seed"`
	Outcome      engine.Outcome   `json:"outcome"`
	Capabilities []string         `json:"capabilities,omitempty"`
	Artifacts    []Artifact       `json:"artifacts"`
	Versions     ManifestVersions `json:"versions"`
}

// BuildManifest assembles a Manifest for one completed run.
// capabilities lists the capability kinds the scenario actually
// exercised (fs/http/proc/net/mem), not every capability fozzy supports.
func BuildManifest(runID string, seed int64, outcome engine.Outcome, capabilities []string, artifacts []Artifact, commit string) *Manifest {
	if artifacts == nil {
		artifacts = []Artifact{}
	}
	return &Manifest{
		Schema:       ManifestSchema,
		RunID:        runID,
		Seed:         seed,
		Outcome:      outcome,
		Capabilities: capabilities,
		Artifacts:    artifacts,
		Versions:     ManifestVersions{Schema: ManifestSchema, Commit: commit},
	}
}

// WriteManifest marshals m as indented JSON and writes it atomically to
// path, applying policy if path already exists.
func WriteManifest(path string, m *Manifest, policy CollisionPolicy) (string, error) {
	resolved, err := resolveCollision(path, policy)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fozzyerr.New(fozzyerr.KindInternal, "trace.WriteManifest", err)
	}
	if err := writeAtomic(resolved, data); err != nil {
		return "", err
	}
	return resolved, nil
}

// ReadManifest loads and validates a manifest's schema tag.
func ReadManifest(path string) (*Manifest, error) {
	data, err := readFileBytes(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fozzyerr.Newf(fozzyerr.KindParse, "trace.ReadManifest", "parse manifest: %v", err)
	}
	if m.Schema != ManifestSchema {
		return nil, fozzyerr.Newf(fozzyerr.KindValidation, "trace.ReadManifest", "unrecognized manifest schema %q, want %q", m.Schema, ManifestSchema)
	}
	return &m, nil
}
