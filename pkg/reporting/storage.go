package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
)

// CollisionPolicy controls what SaveReport does when the target path
// already exists: error out, overwrite it, or append a numeric suffix.
type CollisionPolicy string

const (
	CollisionError     CollisionPolicy = "error"
	CollisionOverwrite CollisionPolicy = "overwrite"
	CollisionAppend    CollisionPolicy = "append"
)

// Storage handles persistence of run reports.
type Storage struct {
	outputDir string
	keepLastN int
	logger    *Logger
}

// NewStorage creates a new storage instance, creating outputDir if needed.
func NewStorage(outputDir string, keepLastN int, logger *Logger) (*Storage, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fozzyerr.Newf(fozzyerr.KindInternal, "reporting.NewStorage", "create output directory: %v", err)
	}
	return &Storage{outputDir: outputDir, keepLastN: keepLastN, logger: logger}, nil
}

// SaveReport writes report atomically (temp file + rename) and applies
// policy if the target filename already exists. Grounded on the
// teacher's storage.go naming scheme, as run-<timestamp>-<id>.json,
// extended with atomicity and a collision policy since a trace/report
// file is a replay contract, not just a human-facing artifact.
func (s *Storage) SaveReport(report *Report, policy CollisionPolicy) (string, error) {
	timestamp := report.StartTime.Format("20060102-150405")
	filename := fmt.Sprintf("run-%s-%s.json", timestamp, report.RunID)
	path := filepath.Join(s.outputDir, filename)

	path, err := resolveCollision(path, policy)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fozzyerr.Newf(fozzyerr.KindInternal, "reporting.SaveReport", "marshal report: %v", err)
	}

	if err := writeAtomic(path, data); err != nil {
		return "", err
	}

	s.logger.Info("report saved", "path", path)

	if s.keepLastN > 0 {
		if err := s.cleanupOldReports(); err != nil {
			s.logger.Warn("failed to cleanup old reports", "error", err)
		}
	}

	return path, nil
}

// resolveCollision applies policy against an existing file at path,
// returning the path SaveReport should actually write to.
func resolveCollision(path string, policy CollisionPolicy) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return path, nil // doesn't exist, nothing to resolve
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
		return "", fozzyerr.Newf(fozzyerr.KindInternal, "reporting.resolveCollision", "%q already exists (collision policy %q)", path, policy)
	}
}

// writeAtomic writes data to path via a temp file in the same
// directory followed by an atomic rename, so a concurrent reader never
// observes a partially written file. Grounded on the teacher's
// storage.go save pattern, extended with the temp-file indirection the
// teacher's plain os.WriteFile didn't need.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fozzyerr.Newf(fozzyerr.KindInternal, "reporting.writeAtomic", "create temp file: %v", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fozzyerr.Newf(fozzyerr.KindInternal, "reporting.writeAtomic", "write temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fozzyerr.Newf(fozzyerr.KindInternal, "reporting.writeAtomic", "close temp file: %v", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fozzyerr.Newf(fozzyerr.KindInternal, "reporting.writeAtomic", "rename into place: %v", err)
	}
	return nil
}

// LoadReport loads a report from a JSON file.
func (s *Storage) LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fozzyerr.Newf(fozzyerr.KindInternal, "reporting.LoadReport", "read report file: %v", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fozzyerr.Newf(fozzyerr.KindInternal, "reporting.LoadReport", "unmarshal report: %v", err)
	}
	return &report, nil
}

// ListReports lists every report in the output directory, newest first.
func (s *Storage) ListReports() ([]ReportSummary, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fozzyerr.Newf(fozzyerr.KindInternal, "reporting.ListReports", "read output directory: %v", err)
	}

	summaries := make([]ReportSummary, 0)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.outputDir, entry.Name())
		report, err := s.LoadReport(path)
		if err != nil {
			s.logger.Warn("failed to load report", "path", path, "error", err)
			continue
		}
		summaries = append(summaries, ReportSummary{
			RunID:        report.RunID,
			ScenarioName: report.ScenarioName,
			StartTime:    report.StartTime,
			Duration:     report.Duration,
			Outcome:      report.Outcome,
			Filepath:     path,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartTime.After(summaries[j].StartTime)
	})
	return summaries, nil
}

// FindReportByRunID finds a report by run id.
func (s *Storage) FindReportByRunID(runID string) (*Report, error) {
	summaries, err := s.ListReports()
	if err != nil {
		return nil, err
	}
	for _, summary := range summaries {
		if summary.RunID == runID {
			return s.LoadReport(summary.Filepath)
		}
	}
	return nil, fozzyerr.Newf(fozzyerr.KindInternal, "reporting.FindReportByRunID", "no report for run id %q", runID)
}

// cleanupOldReports removes reports beyond the most recent keepLastN.
func (s *Storage) cleanupOldReports() error {
	summaries, err := s.ListReports()
	if err != nil {
		return err
	}
	if len(summaries) <= s.keepLastN {
		return nil
	}
	for _, summary := range summaries[s.keepLastN:] {
		if err := os.Remove(summary.Filepath); err != nil {
			s.logger.Warn("failed to delete old report", "path", summary.Filepath, "error", err)
		} else {
			s.logger.Debug("deleted old report", "path", summary.Filepath)
		}
	}
	return nil
}

// GetOutputDir returns the output directory path.
func (s *Storage) GetOutputDir() string { return s.outputDir }

// LeaksArtifact is the memory.leaks.json body: the live (never-freed)
// allocation ids from a run that enforced a leak budget.
type LeaksArtifact struct {
	RunID string  `json:"run_id"`
	Leaks []int64 `json:"leaks"`
}

// WriteLeaksArtifact writes memory.leaks.json listing report's leaked
// allocation ids, atomically the same way SaveReport writes the report
// itself. Named per fozzy's own artifact naming rather than a generic
// "report" filename, since it stands alongside the run's report/trace/
// manifest as its own artifact type.
func (s *Storage) WriteLeaksArtifact(runID string, leaks []AllocSummary) (string, error) {
	ids := make([]int64, len(leaks))
	for i, l := range leaks {
		ids[i] = l.ID
	}
	data, err := json.MarshalIndent(LeaksArtifact{RunID: runID, Leaks: ids}, "", "  ")
	if err != nil {
		return "", fozzyerr.Newf(fozzyerr.KindInternal, "reporting.WriteLeaksArtifact", "marshal leaks: %v", err)
	}
	path := filepath.Join(s.outputDir, "memory.leaks.json")
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}
