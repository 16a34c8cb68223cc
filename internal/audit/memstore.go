package audit

import (
	"sync"
	"time"

	"janus/internal/decision"
	"janus/internal/workflow"
)

// MemStore implements Store in memory, for tests and one-off CLI calls
// that should not touch disk.
type MemStore struct {
	mu        sync.Mutex
	decisions []DecisionRecord
	runs      []RunRecord
	nextID    int64
}

// NewMemStore returns an empty in-memory audit store.
func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Close() error { return nil }

func (s *MemStore) RecordDecision(meta decision.TestMetadata, dec decision.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.decisions = append(s.decisions, DecisionRecord{
		ID:         s.nextID,
		TestID:     meta.TestID,
		Module:     meta.Module,
		Engine:     string(dec.Engine),
		Confidence: dec.Confidence,
		Source:     string(dec.Source),
		Rule:       dec.MatchedRule,
		Reason:     dec.Reason,
		FromCache:  dec.FromCache,
		DecidedAt:  time.Now().UTC(),
	})
	return nil
}

func (s *MemStore) RecordRun(res *workflow.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec := runToRecord(res)
	rec.ID = s.nextID
	s.runs = append(s.runs, rec)
	return nil
}

func (s *MemStore) ListDecisions(limit int) ([]DecisionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lastN(s.decisions, limit, 50), nil
}

func (s *MemStore) ListRuns(limit int) ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lastN(s.runs, limit, 20), nil
}

// lastN returns up to limit records, newest first.
func lastN[T any](records []T, limit, fallback int) []T {
	if limit <= 0 {
		limit = fallback
	}
	out := make([]T, 0, limit)
	for i := len(records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, records[i])
	}
	return out
}
