package reporting_test

import (
	"os"
	"testing"
	"time"

	"github.com/ariacomputecompany/fozzy/pkg/engine"
	"github.com/ariacomputecompany/fozzy/pkg/reporting"
)

func testLogger() *reporting.Logger {
	return reporting.NewLogger(reporting.LoggerConfig{Level: reporting.LogLevelError, Format: reporting.LogFormatJSON, Output: os.Stderr})
}

func sampleReport() *reporting.Report {
	start := time.Now().Add(-time.Minute)
	end := time.Now()
	res := &engine.RunResult{
		Outcome:  engine.OutcomePass,
		FailedAt: -1,
		Events:   []engine.Event{{Tick: 0, StepIndex: 0, Kind: "ok", Detail: ""}},
		Allocs:   map[int64]*engine.Allocation{},
	}
	return reporting.BuildReport("run-1", "smoke-scenario", 1, "record", start, end, res)
}

func TestSaveLoadReportRoundTrips(t *testing.T) {
	dir := t.TempDir()
	logger := testLogger()

	storage, err := reporting.NewStorage(dir, 0, logger)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	report := sampleReport()
	path, err := storage.SaveReport(report, reporting.CollisionOverwrite)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := storage.LoadReport(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.RunID != report.RunID || loaded.Outcome != report.Outcome {
		t.Fatalf("round trip mismatch: %+v vs %+v", loaded, report)
	}
}

func TestSaveReportCollisionError(t *testing.T) {
	dir := t.TempDir()
	logger := testLogger()
	storage, err := reporting.NewStorage(dir, 0, logger)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	report := sampleReport()
	if _, err := storage.SaveReport(report, reporting.CollisionOverwrite); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := storage.SaveReport(report, reporting.CollisionError); err == nil {
		t.Fatalf("expected an error on a colliding path under CollisionError")
	}
}

func TestSaveReportCollisionAppend(t *testing.T) {
	dir := t.TempDir()
	logger := testLogger()
	storage, err := reporting.NewStorage(dir, 0, logger)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	report := sampleReport()
	first, err := storage.SaveReport(report, reporting.CollisionOverwrite)
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := storage.SaveReport(report, reporting.CollisionAppend)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if first == second {
		t.Fatalf("expected append policy to produce a distinct path, got %q twice", first)
	}
}

func TestListReportsKeepsMostRecent(t *testing.T) {
	dir := t.TempDir()
	logger := testLogger()
	storage, err := reporting.NewStorage(dir, 1, logger)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	r1 := sampleReport()
	r1.RunID = "run-a"
	r1.StartTime = time.Now().Add(-2 * time.Hour)
	if _, err := storage.SaveReport(r1, reporting.CollisionOverwrite); err != nil {
		t.Fatalf("save r1: %v", err)
	}

	r2 := sampleReport()
	r2.RunID = "run-b"
	r2.StartTime = time.Now()
	if _, err := storage.SaveReport(r2, reporting.CollisionOverwrite); err != nil {
		t.Fatalf("save r2: %v", err)
	}

	summaries, err := storage.ListReports()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 1 || summaries[0].RunID != "run-b" {
		t.Fatalf("expected only the most recent report to survive cleanup, got %+v", summaries)
	}
}

func TestGenerateTextReport(t *testing.T) {
	dir := t.TempDir()
	logger := testLogger()
	formatter := reporting.NewFormatter(logger)

	outPath := dir + "/report.txt"
	if err := formatter.GenerateReport(sampleReport(), reporting.ReportFormatText, outPath); err != nil {
		t.Fatalf("generate: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read generated report: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected a non-empty text report")
	}
}
