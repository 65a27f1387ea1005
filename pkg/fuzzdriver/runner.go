package fuzzdriver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ariacomputecompany/fozzy/pkg/engine"
	"github.com/ariacomputecompany/fozzy/pkg/fozzyerr"
	"github.com/ariacomputecompany/fozzy/pkg/scenario"
)

// RoundResult is one entry in the JSONL fuzz log. Grounded on the
// teacher's pkg/fuzz RoundResult shape (session/seed/round/result/
// elapsed), narrowed to fozzy's outcome vocabulary in place of chaos
// pass/fail/dry-run strings.
type RoundResult struct {
	Session  string         `json:"session"`
	Seed     int64          `json:"seed"`
	Round    int            `json:"round"`
	Outcome  engine.Outcome `json:"outcome"`
	Detail   string         `json:"detail,omitempty"`
	ElapsedS float64        `json:"elapsed_s"`
}

// Config holds the settings for one fuzz session.
type Config struct {
	Rounds    int
	Seed      int64 // session seed; each round derives its own sub-seed from it
	LogPath   string
	EngOpts   engine.Options
	StopOnAny []engine.Outcome // round outcomes that should halt the session early
}

// Runner drives repeated Mutate -> RunLite rounds against a corpus
// scenario, appending each round's verdict to a JSONL log.
type Runner struct {
	cfg    Config
	corpus *scenario.Scenario
	eng    *engine.Engine
}

// NewRunner builds a Runner for corpus.
func NewRunner(cfg Config, corpus *scenario.Scenario) *Runner {
	return &Runner{cfg: cfg, corpus: corpus, eng: engine.New()}
}

// Run executes cfg.Rounds rounds (or until ctx is cancelled, or a
// StopOnAny outcome fires) and returns every round's result in order.
func (r *Runner) Run(ctx context.Context) ([]RoundResult, error) {
	var logFile *os.File
	if r.cfg.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(r.cfg.LogPath), 0755); err != nil {
			return nil, fozzyerr.Newf(fozzyerr.KindInternal, "fuzzdriver.Run", "create log directory: %v", err)
		}
		f, err := os.OpenFile(r.cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fozzyerr.Newf(fozzyerr.KindInternal, "fuzzdriver.Run", "open log: %v", err)
		}
		defer f.Close()
		logFile = f
	}

	session := r.corpus.Metadata.Name
	results := make([]RoundResult, 0, r.cfg.Rounds)

	for round := 0; round < r.cfg.Rounds; round++ {
		select {
		case <-ctx.Done():
			return results, nil
		default:
		}

		roundSeed := r.cfg.Seed + int64(round)
		sampler := NewSampler(roundSeed)
		candidate := Mutate(r.corpus, sampler)

		start := time.Now()
		outcome, detail, err := r.eng.RunLite(candidate, roundSeed, r.cfg.EngOpts)
		elapsed := time.Since(start).Seconds()
		if err != nil {
			return results, err
		}

		rr := RoundResult{Session: session, Seed: roundSeed, Round: round, Outcome: outcome, Detail: detail, ElapsedS: elapsed}
		results = append(results, rr)

		if logFile != nil {
			if err := appendJSONL(logFile, rr); err != nil {
				return results, err
			}
		}

		for _, stop := range r.cfg.StopOnAny {
			if outcome == stop {
				return results, nil
			}
		}
	}
	return results, nil
}

func appendJSONL(f *os.File, rr RoundResult) error {
	data, err := json.Marshal(rr)
	if err != nil {
		return fozzyerr.New(fozzyerr.KindInternal, "fuzzdriver.appendJSONL", err)
	}
	data = append(data, '\n')
	_, err = f.Write(data)
	if err != nil {
		return fozzyerr.New(fozzyerr.KindInternal, "fuzzdriver.appendJSONL", err)
	}
	return nil
}
