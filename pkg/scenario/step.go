package scenario

import "fmt"

// StepKind tags which of the three step variants (assertion/effect/control)
// a Step is, and doubles as its compact schedule label.
type StepKind string

const (
	// Assertions
	StepOK         StepKind = "ok"
	StepEq         StepKind = "eq"
	StepNe         StepKind = "ne"
	StepThrows     StepKind = "throws"
	StepRejects    StepKind = "rejects"
	StepEventually StepKind = "eventually"
	StepNever      StepKind = "never"
	StepFail       StepKind = "fail"
	StepKV         StepKind = "kv_assert"
	StepInvariant  StepKind = "invariant_check"

	// Effects
	StepFSWrite     StepKind = "fs_write"
	StepFSRead      StepKind = "fs_read"
	StepFSSnapshot  StepKind = "fs_snapshot"
	StepFSRestore   StepKind = "fs_restore"
	StepHTTPRequest StepKind = "http_request"
	StepProcSpawn   StepKind = "proc_spawn"
	StepNetSend     StepKind = "net_send"
	StepNetDeliver  StepKind = "net_deliver"
	StepNetRecv     StepKind = "net_recv"
	StepMemAlloc    StepKind = "mem_alloc"
	StepMemFree     StepKind = "mem_free"
	StepSleep       StepKind = "sleep"
	StepAdvanceTime StepKind = "advance_time"
	StepSetRNG      StepKind = "set_rng"

	// Control
	StepPartition   StepKind = "partition"
	StepHeal        StepKind = "heal"
	StepCrash       StepKind = "crash"
	StepRestart     StepKind = "restart"
	StepInjectFault StepKind = "inject_fault"
)

// Step is a single scenario entry. Kind selects which of the shared
// generic fields below the step uses; several may be set together.
type Step struct {
	Kind StepKind `yaml:"kind"`

	// Node scopes this step to a single node in distributed mode. Empty
	// means "the only node" in single-node mode.
	Node string `yaml:"node,omitempty"`

	// Generic fields shared across several kinds, kept loosely typed the
	// way the teacher's Fault.Params is: params are interpreted per-kind.
	Target  string                 `yaml:"target,omitempty"`
	Path    string                 `yaml:"path,omitempty"`
	Key     string                 `yaml:"key,omitempty"`
	Value   interface{}            `yaml:"value,omitempty"`
	Budget  int64                  `yaml:"budget,omitempty"` // virtual ticks, for eventually/never
	Params  map[string]interface{} `yaml:"params,omitempty"`
	Command string                 `yaml:"command,omitempty"`
}

// Validate checks that a Step's Kind is recognized and its minimally
// required fields are present.
func (s *Step) Validate() error {
	switch s.Kind {
	case "":
		return fmt.Errorf("kind is required")
	case StepEventually, StepNever:
		if s.Budget <= 0 {
			return fmt.Errorf("%s requires a positive budget", s.Kind)
		}
	case StepProcSpawn:
		if s.Command == "" {
			return fmt.Errorf("%s requires a command", s.Kind)
		}
	case StepFSWrite, StepFSRead:
		if s.Path == "" {
			return fmt.Errorf("%s requires a path", s.Kind)
		}
	case StepSleep, StepAdvanceTime:
		if s.Budget < 0 {
			return fmt.Errorf("%s requires a non-negative budget", s.Kind)
		}
	}
	return nil
}

// IsAssertion reports whether Kind is one of the assertion variants.
func (k StepKind) IsAssertion() bool {
	switch k {
	case StepOK, StepEq, StepNe, StepThrows, StepRejects, StepEventually, StepNever, StepFail, StepKV, StepInvariant:
		return true
	}
	return false
}

// IsControl reports whether Kind is one of the control variants.
func (k StepKind) IsControl() bool {
	switch k {
	case StepPartition, StepHeal, StepCrash, StepRestart, StepInjectFault:
		return true
	}
	return false
}

// IsEffect reports whether Kind is one of the effect variants.
func (k StepKind) IsEffect() bool {
	return !k.IsAssertion() && !k.IsControl() && k != ""
}
