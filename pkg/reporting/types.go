package reporting

import (
	"time"

	"github.com/ariacomputecompany/fozzy/pkg/decisionlog"
	"github.com/ariacomputecompany/fozzy/pkg/engine"
)

// Report is a complete, human/machine-consumable record of one engine
// run or replay. It is the JSON-serializable projection of an
// engine.RunResult plus the run metadata the engine itself doesn't
// track (scenario name, seed, wall-clock timing).
type Report struct {
	RunID        string    `json:"run_id"`
	ScenarioName string    `json:"scenario_name"`
	Seed         int64     `json:"seed"`
	Mode         string    `json:"mode"` // "record" | "replay"
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Duration     string    `json:"duration"`

	Outcome  engine.Outcome `json:"outcome"`
	FailedAt int            `json:"failed_at"`
	Detail   string         `json:"detail,omitempty"`

	Events    []engine.Event          `json:"events,omitempty"`
	Allocs    []AllocSummary          `json:"allocs,omitempty"`
	Decisions []decisionlog.Decision  `json:"decisions,omitempty"`
	Leaks     []AllocSummary          `json:"leaks,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// AllocSummary is the JSON-friendly, order-stable projection of an
// engine.Allocation (the engine keys allocations by id in a map, which
// json.Marshal would emit with unstable key order).
type AllocSummary struct {
	ID          int64  `json:"id"`
	CallsiteKey string `json:"callsite_key"`
	SizeMB      int64  `json:"size_mb"`
	TAlloc      int64  `json:"t_alloc"`
	TFree       int64  `json:"t_free,omitempty"`
	Freed       bool   `json:"freed"`
	OriginStep  int    `json:"origin_step"`
}

// BuildReport projects res (plus metadata the engine doesn't itself
// carry) into a Report ready for SaveReport/GenerateReport.
func BuildReport(runID, scenarioName string, seed int64, mode string, start, end time.Time, res *engine.RunResult) *Report {
	r := &Report{
		RunID:        runID,
		ScenarioName: scenarioName,
		Seed:         seed,
		Mode:         mode,
		StartTime:    start,
		EndTime:      end,
		Duration:     end.Sub(start).String(),
		Outcome:      res.Outcome,
		FailedAt:     res.FailedAt,
		Detail:       res.Detail,
		Events:       res.Events,
		Decisions:    res.Decisions,
	}
	for _, a := range sortedAllocations(res.Allocs) {
		r.Allocs = append(r.Allocs, toSummary(a))
	}
	for _, a := range engine.Leaks(res.Allocs) {
		r.Leaks = append(r.Leaks, toSummary(a))
	}
	return r
}

func toSummary(a *engine.Allocation) AllocSummary {
	return AllocSummary{
		ID:          a.ID,
		CallsiteKey: a.CallsiteKey,
		SizeMB:      a.SizeMB,
		TAlloc:      a.TAlloc,
		TFree:       a.TFree,
		Freed:       a.Freed,
		OriginStep:  a.OriginStep,
	}
}

func sortedAllocations(allocs map[int64]*engine.Allocation) []*engine.Allocation {
	out := make([]*engine.Allocation, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, a)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ID < out[j-1].ID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// ReportSummary is a lightweight index entry for ListReports, avoiding
// a full decode of every report file's decisions/events on a listing.
type ReportSummary struct {
	RunID        string         `json:"run_id"`
	ScenarioName string         `json:"scenario_name"`
	StartTime    time.Time      `json:"start_time"`
	Duration     string         `json:"duration"`
	Outcome      engine.Outcome `json:"outcome"`
	Filepath     string         `json:"filepath"`
}
