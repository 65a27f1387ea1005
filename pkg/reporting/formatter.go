package reporting

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
)

// ReportFormat is a report rendering target. JSON is handled directly
// by Storage.SaveReport; Formatter only renders the human-facing text
// view.
type ReportFormat string

const (
	ReportFormatText ReportFormat = "text"
	ReportFormatJSON ReportFormat = "json"
)

// Formatter renders a Report into a human-facing view.
type Formatter struct {
	logger *Logger
}

// NewFormatter creates a new report formatter.
func NewFormatter(logger *Logger) *Formatter {
	return &Formatter{logger: logger}
}

// GenerateReport renders report in format to outputPath.
func (f *Formatter) GenerateReport(report *Report, format ReportFormat, outputPath string) error {
	switch format {
	case ReportFormatText:
		return f.generateTextReport(report, outputPath)
	case ReportFormatJSON:
		return fozzyerr.Newf(fozzyerr.KindValidation, "reporting.GenerateReport", "json format is written by Storage.SaveReport, not Formatter")
	default:
		return fozzyerr.Newf(fozzyerr.KindValidation, "reporting.GenerateReport", "unsupported report format %q", format)
	}
}

func (f *Formatter) generateTextReport(report *Report, outputPath string) error {
	var buf bytes.Buffer
	f.writeTextSummary(&buf, report)

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fozzyerr.Newf(fozzyerr.KindInternal, "reporting.generateTextReport", "write text report: %v", err)
	}
	f.logger.Info("text report generated", "path", outputPath)
	return nil
}

func (f *Formatter) writeTextSummary(buf *bytes.Buffer, report *Report) {
	buf.WriteString(strings.Repeat("=", 72) + "\n")
	fmt.Fprintf(buf, "  fozzy run report: %s\n", report.ScenarioName)
	buf.WriteString(strings.Repeat("=", 72) + "\n\n")

	fmt.Fprintf(buf, "run id:   %s\n", report.RunID)
	fmt.Fprintf(buf, "seed:     %d\n", report.Seed)
	fmt.Fprintf(buf, "mode:     %s\n", report.Mode)
	fmt.Fprintf(buf, "outcome:  %s\n", report.Outcome)
	if report.Outcome != "pass" {
		fmt.Fprintf(buf, "failed at step %d: %s\n", report.FailedAt, report.Detail)
	}
	fmt.Fprintf(buf, "duration: %s\n\n", report.Duration)

	fmt.Fprintf(buf, "events:    %d\n", len(report.Events))
	fmt.Fprintf(buf, "decisions: %d\n", len(report.Decisions))
	fmt.Fprintf(buf, "allocs:    %d (%d leaked)\n", len(report.Allocs), len(report.Leaks))

	if len(report.Leaks) > 0 {
		buf.WriteString("\nleaked allocations:\n")
		for _, a := range report.Leaks {
			fmt.Fprintf(buf, "  #%d %s  %dMB  allocated@t=%d (step %d)\n", a.ID, a.CallsiteKey, a.SizeMB, a.TAlloc, a.OriginStep)
		}
	}

	if len(report.Errors) > 0 {
		buf.WriteString("\nerrors:\n")
		for _, e := range report.Errors {
			fmt.Fprintf(buf, "  - %s\n", e)
		}
	}
	buf.WriteString("\n" + strings.Repeat("=", 72) + "\n")
}
