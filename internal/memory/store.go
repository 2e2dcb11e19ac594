package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// IOError wraps a persistence-layer failure. The in-memory index stays
// consistent when one occurs; callers decide whether to retry or proceed
// without durability.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("memory store %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Store is the durable, record-oriented backing for the conversation index.
// Each record is an entry plus its derived keyword set; the two are written
// in a single transaction so a crash can never leave an entry present
// without its keywords indexed, or the reverse.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (or creates) the store at dbPath and initializes the
// schema. WAL mode allows concurrent readers while a single writer appends.
func OpenStore(ctx context.Context, dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}

	// SQLite does not support multiple writers; funnel everything through
	// one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &IOError{Op: "open", Err: err}
	}

	s := &Store{db: db, path: dbPath}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the on-disk location of the store.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id         TEXT PRIMARY KEY,
		ts         INTEGER NOT NULL,
		query      TEXT NOT NULL,
		sanitized  TEXT NOT NULL,
		answer     TEXT NOT NULL DEFAULT '',
		tools_used TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS entry_keywords (
		entry_id TEXT NOT NULL,
		keyword  TEXT NOT NULL,
		PRIMARY KEY (entry_id, keyword),
		FOREIGN KEY (entry_id) REFERENCES entries(id)
	);

	CREATE INDEX IF NOT EXISTS idx_keywords ON entry_keywords(keyword);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return &IOError{Op: "init schema", Err: err}
	}
	return nil
}

// Append durably writes an entry and its keyword set as one unit.
func (s *Store) Append(ctx context.Context, entry Entry) error {
	tools, err := json.Marshal(entry.ToolsUsed)
	if err != nil {
		return &IOError{Op: "append", Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &IOError{Op: "append", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries (id, ts, query, sanitized, answer, tools_used) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.UnixNano(), entry.Query, entry.Sanitized, entry.Answer, string(tools),
	)
	if err != nil {
		return &IOError{Op: "append", Err: err}
	}

	for _, kw := range entry.Keywords {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO entry_keywords (entry_id, keyword) VALUES (?, ?)`,
			entry.ID, kw,
		); err != nil {
			return &IOError{Op: "append", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &IOError{Op: "append", Err: err}
	}
	return nil
}

// LoadAll reads every entry in insertion order, keywords included.
func (s *Store) LoadAll(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, query, sanitized, answer, tools_used FROM entries ORDER BY ts ASC, rowid ASC`)
	if err != nil {
		return nil, &IOError{Op: "load", Err: err}
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		var tools string
		if err := rows.Scan(&e.ID, &ts, &e.Query, &e.Sanitized, &e.Answer, &tools); err != nil {
			return nil, &IOError{Op: "load", Err: err}
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		if err := json.Unmarshal([]byte(tools), &e.ToolsUsed); err != nil {
			return nil, &IOError{Op: "load", Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &IOError{Op: "load", Err: err}
	}

	if len(entries) == 0 {
		return entries, nil
	}

	// Sorted keyword order mirrors Tokenize, so a persisted entry reloads
	// byte-for-byte identical.
	kwRows, err := s.db.QueryContext(ctx, `SELECT entry_id, keyword FROM entry_keywords ORDER BY keyword ASC`)
	if err != nil {
		return nil, &IOError{Op: "load", Err: err}
	}
	defer kwRows.Close()

	byID := make(map[string]int, len(entries))
	for i, e := range entries {
		byID[e.ID] = i
	}
	for kwRows.Next() {
		var id, kw string
		if err := kwRows.Scan(&id, &kw); err != nil {
			return nil, &IOError{Op: "load", Err: err}
		}
		if i, ok := byID[id]; ok {
			entries[i].Keywords = append(entries[i].Keywords, kw)
		}
	}
	if err := kwRows.Err(); err != nil {
		return nil, &IOError{Op: "load", Err: err}
	}
	return entries, nil
}
