package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"janus/internal/decision"
	"janus/internal/workflow"
)

var schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	test_id     TEXT NOT NULL,
	module      TEXT,
	engine      TEXT NOT NULL,
	confidence  INTEGER NOT NULL,
	source      TEXT NOT NULL,
	rule        TEXT,
	reason      TEXT,
	from_cache  INTEGER NOT NULL DEFAULT 0,
	decided_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL UNIQUE,
	workflow    TEXT NOT NULL,
	status      TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_steps (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        INTEGER NOT NULL REFERENCES runs(id),
	seq           INTEGER NOT NULL,
	name          TEXT NOT NULL,
	engine        TEXT,
	status        TEXT NOT NULL,
	failure_kind  TEXT,
	error         TEXT,
	skipped_after TEXT,
	duration_ms   INTEGER NOT NULL
);
`

// SQLStore implements Store with SQLite.
type SQLStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and applies the schema.
// Creates the parent directory (e.g. .janus) if it does not exist.
func Open(path string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) RecordDecision(meta decision.TestMetadata, dec decision.Decision) error {
	_, err := s.db.Exec(
		`INSERT INTO decisions (test_id, module, engine, confidence, source, rule, reason, from_cache, decided_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.TestID, meta.Module, string(dec.Engine), dec.Confidence,
		string(dec.Source), dec.MatchedRule, dec.Reason, boolInt(dec.FromCache),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

func (s *SQLStore) RecordRun(res *workflow.Result) error {
	rec := runToRecord(res)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	r, err := tx.Exec(
		`INSERT INTO runs (run_id, workflow, status, started_at, duration_ms) VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, rec.Workflow, rec.Status,
		rec.Started.UTC().Format(time.RFC3339), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	runID, err := r.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	for i, step := range rec.Steps {
		if _, err := tx.Exec(
			`INSERT INTO run_steps (run_id, seq, name, engine, status, failure_kind, error, skipped_after, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, step.Name, step.Engine, step.Status,
			step.FailureKind, step.Error, step.SkippedAfter, step.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("record step %q: %w", step.Name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) ListDecisions(limit int) ([]DecisionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, test_id, module, engine, confidence, source, rule, reason, from_cache, decided_at
		 FROM decisions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		var fromCache int
		var decidedAt string
		var module, rule, reason sql.NullString
		if err := rows.Scan(&rec.ID, &rec.TestID, &module, &rec.Engine, &rec.Confidence,
			&rec.Source, &rule, &reason, &fromCache, &decidedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		rec.Module = module.String
		rec.Rule = rule.String
		rec.Reason = reason.String
		rec.FromCache = fromCache != 0
		rec.DecidedAt, _ = time.Parse(time.RFC3339, decidedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, run_id, workflow, status, started_at, duration_ms
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started string
		var durMS int64
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Workflow, &rec.Status, &started, &durMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Started, _ = time.Parse(time.RFC3339, started)
		rec.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		steps, err := s.listSteps(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Steps = steps
	}
	return out, nil
}

func (s *SQLStore) listSteps(runID int64) ([]StepRecord, error) {
	rows, err := s.db.Query(
		`SELECT name, engine, status, failure_kind, error, skipped_after, duration_ms
		 FROM run_steps WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var rec StepRecord
		var eng, kind, errMsg, after sql.NullString
		var durMS int64
		if err := rows.Scan(&rec.Name, &eng, &rec.Status, &kind, &errMsg, &after, &durMS); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		rec.Engine = eng.String
		rec.FailureKind = kind.String
		rec.Error = errMsg.String
		rec.SkippedAfter = after.String
		rec.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
