// Package docstore persists the remote copy of the hydration record in SQLite.
// It backs `hydro serve`: one JSON document per key, replaced wholesale.
package docstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fakeyudi/hydro/internal/hydration"

	_ "modernc.org/sqlite"
)

// DefaultKey names the single document served at /state.
const DefaultKey = "state"

// ErrNotFound is returned by Get when no document is stored under the key.
var ErrNotFound = errors.New("document not found")

// Document is a stored record with its bookkeeping.
type Document struct {
	Key       string
	State     hydration.State
	Revision  int64
	UpdatedAt time.Time
}

// Store manages the SQLite database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and initializes the schema.
func New(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		key         TEXT PRIMARY KEY,
		body        TEXT NOT NULL,
		last_update INTEGER NOT NULL DEFAULT 0,
		revision    INTEGER NOT NULL DEFAULT 1,
		updated_at  TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the document stored under key.
func (s *Store) Get(key string) (*Document, error) {
	var (
		body, updated string
		doc           = Document{Key: key}
	)
	err := s.db.QueryRow(
		`SELECT body, revision, updated_at FROM documents WHERE key = ?`, key,
	).Scan(&body, &doc.Revision, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(body), &doc.State); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	doc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &doc, nil
}

// Put replaces the document under key and returns its new revision.
func (s *Store) Put(key string, st hydration.State) (int64, error) {
	body, err := json.Marshal(st)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", key, err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var rev int64
	err = retryOnContention(func() error {
		return s.db.QueryRow(
			`INSERT INTO documents (key, body, last_update, revision, updated_at)
			 VALUES (?, ?, ?, 1, ?)
			 ON CONFLICT(key) DO UPDATE SET
			   body = excluded.body,
			   last_update = excluded.last_update,
			   revision = documents.revision + 1,
			   updated_at = excluded.updated_at
			 RETURNING revision`,
			key, string(body), st.LastUpdate, now,
		).Scan(&rev)
	})
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}
	return rev, nil
}

// Delete removes the document under key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	return retryOnContention(func() error {
		_, err := s.db.Exec(`DELETE FROM documents WHERE key = ?`, key)
		return err
	})
}
