package scenario

import "testing"

func TestValidateRequiresName(t *testing.T) {
	s := &Scenario{}
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for missing metadata.name")
	}
}

func TestValidateEmptyStepsIsOK(t *testing.T) {
	s := &Scenario{Metadata: Metadata{Name: "empty"}}
	if err := s.Validate(); err != nil {
		t.Fatalf("empty scenario should validate: %v", err)
	}
}

func TestStepValidateEventuallyRequiresBudget(t *testing.T) {
	st := Step{Kind: StepEventually}
	if err := st.Validate(); err == nil {
		t.Fatalf("expected error for eventually without budget")
	}
	st.Budget = 10
	if err := st.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStepKindClassification(t *testing.T) {
	if !StepEq.IsAssertion() {
		t.Fatalf("eq should be an assertion")
	}
	if !StepPartition.IsControl() {
		t.Fatalf("partition should be control")
	}
	if !StepFSWrite.IsEffect() {
		t.Fatalf("fs_write should be an effect")
	}
	if StepEq.IsControl() || StepEq.IsEffect() {
		t.Fatalf("eq misclassified")
	}
}
