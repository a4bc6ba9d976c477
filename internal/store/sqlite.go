package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/roadaudit/internal/audit"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS audit_runs (
	id          TEXT PRIMARY KEY,
	boundary    TEXT NOT NULL,
	segments    INTEGER NOT NULL,
	summary     TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS audit_events (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL REFERENCES audit_runs(id),
	segment_id     TEXT NOT NULL,
	road_name      TEXT NOT NULL,
	from_status    TEXT NOT NULL,
	to_status      TEXT NOT NULL,
	severity       TEXT NOT NULL,
	outside_before INTEGER NOT NULL,
	outside_after  INTEGER NOT NULL,
	total          INTEGER NOT NULL,
	at             DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_audit_runs_boundary ON audit_runs(boundary);
CREATE INDEX IF NOT EXISTS idx_audit_events_run_id ON audit_events(run_id);
CREATE INDEX IF NOT EXISTS idx_audit_events_segment_id ON audit_events(segment_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, boundary string, segments int) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_runs (id, boundary, segments, started_at) VALUES (?, ?, ?, ?)`,
		id, boundary, segments, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return &Run{ID: id, Boundary: boundary, Segments: segments, StartedAt: now}, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID, summary string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE audit_runs SET summary = ?, finished_at = ? WHERE id = ?`,
		summary, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, boundary, segments, summary, started_at, finished_at FROM audit_runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, boundary, segments, summary, started_at, finished_at
		 FROM audit_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs")
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, runID string, ev audit.TransitionEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events
			(id, run_id, segment_id, road_name, from_status, to_status, severity,
			 outside_before, outside_after, total, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), runID, ev.SegmentID, ev.RoadName,
		string(ev.From), string(ev.To), string(ev.Severity),
		ev.OutsideBefore, ev.OutsideAfter, ev.Total, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: append event for run %s", runID)
}

func (s *SQLiteStore) ListEvents(ctx context.Context, runID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, segment_id, road_name, from_status, to_status, severity,
		        outside_before, outside_after, total, at
		 FROM audit_events WHERE run_id = ? ORDER BY at, id`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list events for run %s", runID)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(
			&ev.ID, &ev.RunID, &ev.SegmentID, &ev.RoadName,
			&ev.FromStatus, &ev.ToStatus, &ev.Severity,
			&ev.OutsideBefore, &ev.OutsideAfter, &ev.Total, &ev.At,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		events = append(events, ev)
	}
	return events, eris.Wrapf(rows.Err(), "sqlite: list events for run %s", runID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var summary sql.NullString
	var finished sql.NullTime
	if err := row.Scan(&r.ID, &r.Boundary, &r.Segments, &summary, &r.StartedAt, &finished); err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrap(err, "sqlite: run not found")
		}
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if summary.Valid {
		r.Summary = summary.String
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s %s not found", kind, id)
	}
	return nil
}
