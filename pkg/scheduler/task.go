package scheduler

// Task is a unit of schedulable work: one scenario step bound to a node.
type Task struct {
	ID         int64
	Node       string
	StepIndex  int
	ReadyTick  int64
	Priority   int64
	Kind       string // compact schedule label, from scenario.StepKind
	Insertion  int64  // insertion sequence, the final tiebreaker
	Precondition func(s *DistState) bool
}

// eligible reports whether s currently permits this task to run. A nil
// Precondition is always eligible.
func (t *Task) eligible(s *DistState) bool {
	if t.Precondition == nil {
		return true
	}
	return t.Precondition(s)
}
