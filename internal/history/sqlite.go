package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	target_id TEXT NOT NULL,
	locator TEXT,
	commit_sha TEXT,
	started_at INTEGER NOT NULL,
	finished_at INTEGER,
	outcome TEXT,
	failed_stage TEXT,
	error_message TEXT,
	overall INTEGER,
	approval TEXT,
	degraded INTEGER,
	fingerprint TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target_id, started_at);
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	payload BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
`

var runColumns = []string{
	"run_id", "target_id", "locator", "commit_sha", "started_at", "finished_at",
	"outcome", "failed_stage", "error_message", "overall", "approval", "degraded", "fingerprint",
}

// SQLiteStore persists runs and events.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Open opens or creates the database at path. Use ":memory:" for an
// in-memory database.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, historyErr(err, "failed to create history directory").WithContext("path", path).Build()
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, historyErr(err, "could not open history database").WithContext("path", path).Build()
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, historyErr(err, "failed to initialize history schema").Build()
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Append adds an event to a run's log.
func (s *SQLiteStore) Append(ctx context.Context, runID, eventType string, payload any) error {
	data, err := marshalPayload(eventType, payload)
	if err != nil {
		return err
	}
	query, args, err := sq.Insert("events").
		Columns("run_id", "event_type", "timestamp", "payload").
		Values(runID, eventType, s.now().UnixMilli(), data).
		ToSql()
	if err != nil {
		return historyErr(err, "failed to build insert").Build()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return historyErr(err, "failed to append event").WithContext("run_id", runID).Build()
	}
	return nil
}

// SaveRun inserts or replaces a run summary.
func (s *SQLiteStore) SaveRun(ctx context.Context, r Run) error {
	var finished any
	if !r.FinishedAt.IsZero() {
		finished = r.FinishedAt.UnixMilli()
	}
	query, args, err := sq.Insert("runs").
		Options("OR REPLACE").
		Columns(runColumns...).
		Values(r.RunID, r.TargetID, r.Locator, r.Commit, r.StartedAt.UnixMilli(), finished,
			r.Outcome, r.FailedStage, r.ErrorMessage, r.Overall, r.Approval, r.Degraded, r.Fingerprint).
		ToSql()
	if err != nil {
		return historyErr(err, "failed to build insert").Build()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return historyErr(err, "failed to save run").WithContext("run_id", r.RunID).Build()
	}
	return nil
}

// Runs lists a target's runs, newest first. limit <= 0 returns all.
func (s *SQLiteStore) Runs(ctx context.Context, targetID string, limit int) ([]Run, error) {
	b := sq.Select(runColumns...).From("runs").OrderBy("started_at DESC", "run_id")
	if targetID != "" {
		b = b.Where(sq.Eq{"target_id": targetID})
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, historyErr(err, "failed to build query").Build()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, historyErr(err, "failed to query runs").Build()
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, historyErr(err, "failed to iterate runs").Build()
	}
	return out, nil
}

// Latest returns the newest run of a target, or nil when none is recorded.
func (s *SQLiteStore) Latest(ctx context.Context, targetID string) (*Run, error) {
	runs, err := s.Runs(ctx, targetID, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

// Events returns a run's events in append order.
func (s *SQLiteStore) Events(ctx context.Context, runID string) ([]Event, error) {
	query, args, err := sq.Select("id", "run_id", "event_type", "timestamp", "payload").
		From("events").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, historyErr(err, "failed to build query").Build()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, historyErr(err, "failed to query events").Build()
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var e Event
		var ts int64
		if err := rows.Scan(&e.ID, &e.RunID, &e.Type, &ts, &e.Payload); err != nil {
			return nil, historyErr(err, "failed to scan event").Build()
		}
		e.Timestamp = time.UnixMilli(ts)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, historyErr(err, "failed to iterate events").Build()
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		r                                              Run
		locator, commit, outcome, stage, msg, approval sql.NullString
		fingerprint                                    sql.NullString
		started                                        int64
		finished, overall, degraded                    sql.NullInt64
	)
	if err := rows.Scan(&r.RunID, &r.TargetID, &locator, &commit, &started, &finished,
		&outcome, &stage, &msg, &overall, &approval, &degraded, &fingerprint); err != nil {
		return Run{}, historyErr(err, "failed to scan run").Build()
	}
	r.Locator = locator.String
	r.Commit = commit.String
	r.StartedAt = time.UnixMilli(started)
	if finished.Valid {
		r.FinishedAt = time.UnixMilli(finished.Int64)
	}
	r.Outcome = outcome.String
	r.FailedStage = stage.String
	r.ErrorMessage = msg.String
	r.Overall = int(overall.Int64)
	r.Approval = approval.String
	r.Degraded = int(degraded.Int64)
	r.Fingerprint = fingerprint.String
	return r, nil
}

func historyErr(err error, msg string) *errors.ErrorBuilder {
	return errors.WrapError(err, errors.CategoryHistory, msg)
}
