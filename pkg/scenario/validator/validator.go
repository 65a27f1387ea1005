// Package validator enforces the scenario shape invariants of
// spec.md §3 before the engine ever sees a scenario: validation errors
// never enter the engine. Grounded on the teacher's
// pkg/scenario/validator, re-scoped to the step/effect/control model.
package validator

import (
	"fmt"

	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
)

// Validator checks semantic correctness beyond the Scenario's own
// structural Validate().
type Validator struct{}

// New creates a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate runs every semantic check and returns the first failure,
// tagged fozzyerr.KindValidation.
func (v *Validator) Validate(s *scenario.Scenario) error {
	if err := s.Validate(); err != nil {
		return fozzyerr.New(fozzyerr.KindValidation, "validator.Validate", err)
	}

	if err := v.checkUniqueNodeIDs(s); err != nil {
		return fozzyerr.New(fozzyerr.KindValidation, "validator.Validate", err)
	}
	if err := v.checkNodeReferences(s); err != nil {
		return fozzyerr.New(fozzyerr.KindValidation, "validator.Validate", err)
	}
	if err := v.checkSchedulerPolicy(s); err != nil {
		return fozzyerr.New(fozzyerr.KindValidation, "validator.Validate", err)
	}
	if err := v.checkResourceCeilings(s); err != nil {
		return fozzyerr.New(fozzyerr.KindValidation, "validator.Validate", err)
	}

	return nil
}

func (v *Validator) checkUniqueNodeIDs(s *scenario.Scenario) error {
	seen := make(map[string]bool, len(s.Spec.Nodes))
	for _, n := range s.Spec.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node id must not be empty")
		}
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}
	return nil
}

func (v *Validator) checkNodeReferences(s *scenario.Scenario) error {
	if len(s.Spec.Nodes) == 0 {
		return nil // single-node mode: Step.Node is ignored
	}
	known := make(map[string]bool, len(s.Spec.Nodes))
	for _, n := range s.Spec.Nodes {
		known[n.ID] = true
	}
	for i, step := range s.Spec.Steps {
		if step.Node != "" && !known[step.Node] {
			return fmt.Errorf("steps[%d] references unknown node %q", i, step.Node)
		}
	}
	return nil
}

func (v *Validator) checkSchedulerPolicy(s *scenario.Scenario) error {
	switch s.Spec.SchedulerPolicy {
	case "", "fifo", "bfs", "dfs", "random", "pct", "coverage_guided":
		return nil
	default:
		return fmt.Errorf("unknown scheduler_policy %q", s.Spec.SchedulerPolicy)
	}
}

func (v *Validator) checkResourceCeilings(s *scenario.Scenario) error {
	if s.Spec.Resources.MemLimitMB < 0 {
		return fmt.Errorf("resources.mem_limit_mb must be >= 0")
	}
	if s.Spec.Resources.MemFailAfter < 0 {
		return fmt.Errorf("resources.mem_fail_after must be >= 0")
	}
	if s.Spec.Resources.LeakBudget < 0 {
		return fmt.Errorf("resources.leak_budget must be >= 0")
	}
	return nil
}
