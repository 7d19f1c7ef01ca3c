package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists entries to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS load_history (
        id TEXT PRIMARY KEY,
        ts INTEGER NOT NULL,
        duration_ms INTEGER NOT NULL,
        outcome TEXT NOT NULL,
        snapshot_id TEXT,
        records INTEGER NOT NULL,
        runs INTEGER NOT NULL,
        error TEXT
    );
    CREATE INDEX IF NOT EXISTS load_history_ts ON load_history (ts);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the entry to the database.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO load_history (id, ts, duration_ms, outcome, snapshot_id, records, runs, error)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UnixNano(), e.DurationMS, string(e.Outcome), e.SnapshotID, e.Records, e.Runs, e.Error)
	return err
}

// Query returns entries matching q, oldest first.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Entry, error) {
	var args []any
	query := `SELECT id, ts, duration_ms, outcome, snapshot_id, records, runs, error FROM load_history WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.Outcome != "" {
		query += ` AND outcome = ?`
		args = append(args, string(q.Outcome))
	}
	query += ` ORDER BY ts`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	res := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			ts      int64
			outcome string
			snap    sql.NullString
			errStr  sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &e.DurationMS, &outcome, &snap, &e.Records, &e.Runs, &errStr); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		e.Outcome = Outcome(outcome)
		e.SnapshotID = snap.String
		e.Error = errStr.String
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return q.trim(res), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
