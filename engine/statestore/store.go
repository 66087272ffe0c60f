// Package statestore implements the Workflow State Store (C9): durable
// upsert-by-id persistence backed by an embedded modernc.org/sqlite
// database, grounded on Heikkila-Pty-Ltd-cortex's internal/store/store.go
// (schema-at-Open, parameterized statements, sql.ErrNoRows -> typed error)
// and generalized over pkg/repo.Repository[T, ID] instead of that
// teacher's one-struct-per-table shape, since the workflow needs five
// interchangeable logical collections (`workflow_state`, `embedded_chunk`,
// `prompt`, `blob`, `report`) addressed only by string id rather than a
// fixed relational schema per entity.
package statestore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
`

// Store is the embedded-SQLite-backed document store. One documents table
// holds every logical collection, keyed by (collection, id); the generic
// CollectionRepo narrows it to a single collection and Go type.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database file at path and ensures the
// schema exists. path may be ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("statestore: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("statestore: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
