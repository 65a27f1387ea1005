// Package scenario defines fozzy's declarative scenario model: the
// immutable, validated description of a test universe that the engine
// drives to a verdict. Field shapes (apiVersion/kind/metadata/spec,
// loosely-typed params) are kept from the teacher's YAML scenario model,
// re-purposed from "chaos test against live containers" to "deterministic
// step/effect/control sequence against a virtualized substrate."
package scenario

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Scenario is immutable after Parse.
type Scenario struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Metadata   Metadata `yaml:"metadata"`
	Spec       Spec     `yaml:"spec"`
}

// Metadata carries identifying information, not behavior.
type Metadata struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// Spec is the behavioral body of a scenario.
type Spec struct {
	// Seed pins the substrate's RNG/clock origin. 0 means "use the
	// process default seed."
	Seed int64 `yaml:"seed,omitempty"`

	// Nodes declares the distributed topology (empty = single-node).
	Nodes []Node `yaml:"nodes,omitempty"`

	// Steps is the ordered sequence the engine drives.
	Steps []Step `yaml:"steps"`

	// Scripts supply deterministic backends for fs/http/proc.
	Scripts Scripts `yaml:"scripts,omitempty"`

	// SchedulerPolicy selects the scheduler's pick policy.
	SchedulerPolicy string `yaml:"scheduler_policy,omitempty"` // fifo|bfs|dfs|random|pct|coverage_guided
	PCTDepth        int    `yaml:"pct_depth,omitempty"`

	// Invariants lists invariant names. The engine does not evaluate this
	// list; invariants are checked only where an invariant_check step runs.
	Invariants []string `yaml:"invariants,omitempty"`

	// Resources are ceilings enforced by the memory capability.
	Resources ResourceCeilings `yaml:"resources,omitempty"`
}

// Node declares one virtual node in distributed mode.
type Node struct {
	ID string `yaml:"id"`
}

// ResourceCeilings bounds the memory capability's ledger.
type ResourceCeilings struct {
	MemLimitMB   int `yaml:"mem_limit_mb,omitempty"`
	MemFailAfter int `yaml:"mem_fail_after,omitempty"`
	LeakBudget   int `yaml:"leak_budget,omitempty"`
}

// Scripts bundle every capability's scripted-backend fixtures.
type Scripts struct {
	FS   []FSFixture   `yaml:"fs,omitempty"`
	HTTP []HTTPMatcher `yaml:"http,omitempty"`
	Proc []ProcMatcher `yaml:"proc,omitempty"`
	Net  NetTopology   `yaml:"net,omitempty"`
	Mem  MemPolicy     `yaml:"mem,omitempty"`
}

// FSFixture seeds the copy-on-write overlay with an initial file.
type FSFixture struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}

// HTTPMatcher produces a fixed response for a matching request.
type HTTPMatcher struct {
	Method     string `yaml:"method"`
	URL        string `yaml:"url"`
	StatusCode int    `yaml:"status_code"`
	Body       string `yaml:"body"`
}

// ProcMatcher produces a fixed (stdout, stderr, exit) tuple for a command.
type ProcMatcher struct {
	Command  string `yaml:"command"`
	Stdout   string `yaml:"stdout"`
	Stderr   string `yaml:"stderr"`
	ExitCode int    `yaml:"exit_code"`
}

// NetTopology configures delivery policy for the net capability.
type NetTopology struct {
	Policy string `yaml:"policy,omitempty"` // reliable_fifo|lossy_random|pct
	DropP  float64 `yaml:"drop_p,omitempty"`
}

// MemPolicy configures the memory capability's pressure-wave schedule.
type MemPolicy struct {
	// PressureWave is a multiplier schedule applied to
	// effective_alloc_bytes, e.g. [1.0, 1.5, 2.0]; past its end the last
	// multiplier keeps applying.
	PressureWave []float64 `yaml:"pressure_wave,omitempty"`
}

// Validate checks the minimal shape invariants a Scenario must satisfy
// before the engine will accept it. Deeper semantic validation (duplicate
// node ids, unknown node references, etc.) lives in
// pkg/scenario/validator.
func (s *Scenario) Validate() error {
	if s.Metadata.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}
	if len(s.Spec.Steps) == 0 {
		return nil // an empty scenario is valid: it passes with an empty log
	}
	for i, step := range s.Spec.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

// Digest returns a stable hex-encoded sha256 over the scenario's
// canonical JSON encoding, used by traces to bind a recorded run to the
// exact scenario body that produced it (same canonicalize-then-hash
// shape as decisionlog.Log.Finalize, applied to the scenario instead of
// the decision log).
func (s *Scenario) Digest() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("digest scenario: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
