// Package audit records engine decisions and workflow runs so routing
// behavior stays explainable after the fact: which rule fired for which
// test, which step broke a run, and what got skipped because of it.
package audit

import (
	"time"

	"janus/internal/decision"
	"janus/internal/workflow"
)

// DefaultDBPath is the default relative path for the SQLite DB
// (per-workspace). Open() creates the parent dir (e.g. .janus).
const DefaultDBPath = ".janus/janus.db"

// DecisionRecord is one routing verdict as persisted.
type DecisionRecord struct {
	ID         int64
	TestID     string
	Module     string
	Engine     string
	Confidence int
	Source     string
	Rule       string
	Reason     string
	FromCache  bool
	DecidedAt  time.Time
}

// RunRecord is one workflow execution as persisted.
type RunRecord struct {
	ID       int64
	RunID    string
	Workflow string
	Status   string
	Started  time.Time
	Duration time.Duration
	Steps    []StepRecord
}

// StepRecord is one step outcome inside a run.
type StepRecord struct {
	Name         string
	Engine       string
	Status       string
	FailureKind  string
	Error        string
	SkippedAfter string
	Duration     time.Duration
}

// Store is the audit persistence facade. The CLI and orchestrator callers
// use only this interface; the implementation is SQLite or in-memory.
type Store interface {
	RecordDecision(meta decision.TestMetadata, dec decision.Decision) error
	RecordRun(res *workflow.Result) error
	ListDecisions(limit int) ([]DecisionRecord, error)
	ListRuns(limit int) ([]RunRecord, error)
	Close() error
}

// runToRecord flattens a workflow result for persistence.
func runToRecord(res *workflow.Result) RunRecord {
	rec := RunRecord{
		RunID:    res.RunID,
		Workflow: res.Workflow,
		Status:   string(res.Status),
		Started:  res.Started,
		Duration: res.Duration,
	}
	for _, s := range res.Steps {
		rec.Steps = append(rec.Steps, StepRecord{
			Name:         s.Name,
			Engine:       string(s.Engine),
			Status:       string(s.Status),
			FailureKind:  string(s.Kind),
			Error:        s.Error,
			SkippedAfter: s.SkippedAfter,
			Duration:     s.Duration,
		})
	}
	return rec
}
