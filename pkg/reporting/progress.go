package reporting

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ariacomputecompany/fozzy/pkg/engine"
)

// OutputFormat is a progress stream's rendering.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ProgressReporter streams a run's lifecycle/event progress to stdout
// as it happens, independent of the final Report written at the end.
// Grounded on the teacher's progress.go event-stream shape
// (state/fault/criterion/completion events dispatched by format),
// narrowed to fozzy's lifecycle state + step event vocabulary.
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{format: format, logger: logger}
}

// ReportState reports a lifecycle state transition.
func (pr *ProgressReporter) ReportState(state engine.State) {
	switch pr.format {
	case FormatJSON:
		pr.emitJSON("state", map[string]interface{}{"state": state.String()})
	default:
		fmt.Printf("[%s] state: %s\n", time.Now().Format("15:04:05"), state)
	}
}

// ReportEvent reports a single step event as it's emitted.
func (pr *ProgressReporter) ReportEvent(ev engine.Event) {
	switch pr.format {
	case FormatJSON:
		pr.emitJSON("step_event", ev)
	default:
		fmt.Printf("[%s] step %d: %s %s\n", time.Now().Format("15:04:05"), ev.StepIndex, ev.Kind, ev.Detail)
	}
}

// ReportCompleted reports a run's terminal report.
func (pr *ProgressReporter) ReportCompleted(report *Report) {
	switch pr.format {
	case FormatJSON:
		pr.emitJSON("completed", report)
	default:
		pr.printTextSummary(report)
	}
}

func (pr *ProgressReporter) emitJSON(event string, payload interface{}) {
	data, err := json.Marshal(struct {
		Event     string      `json:"event"`
		Timestamp time.Time   `json:"timestamp"`
		Payload   interface{} `json:"payload"`
	}{event, time.Now(), payload})
	if err != nil {
		pr.logger.Error("failed to marshal progress event", "error", err)
		return
	}
	fmt.Println(string(data))
}

func (pr *ProgressReporter) printTextSummary(report *Report) {
	fmt.Printf("\n[run %s] %s\n", report.RunID, report.Outcome)
	fmt.Printf("  scenario: %s\n", report.ScenarioName)
	fmt.Printf("  duration: %s\n", report.Duration)
	if report.Outcome != "pass" {
		fmt.Printf("  failed at step %d: %s\n", report.FailedAt, report.Detail)
	}
	if len(report.Leaks) > 0 {
		fmt.Printf("  leaked allocations: %d\n", len(report.Leaks))
	}
	fmt.Println()
}
