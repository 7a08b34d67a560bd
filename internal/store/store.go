package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for documents, the object
// inventory, resolved references and warnings.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
  id              INTEGER PRIMARY KEY,
  docname         TEXT NOT NULL UNIQUE,
  path            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  hash            TEXT NOT NULL,
  source          TEXT NOT NULL,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS objects (
  id              INTEGER PRIMARY KEY,
  document_id     INTEGER NOT NULL REFERENCES documents(id),
  name            TEXT NOT NULL,
  display_name    TEXT NOT NULL,
  object_type     TEXT NOT NULL,
  anchor          TEXT NOT NULL,
  priority        INTEGER NOT NULL DEFAULT 1,
  line            INTEGER NOT NULL,
  signature       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS references_ (
  id              INTEGER PRIMARY KEY,
  document_id     INTEGER NOT NULL REFERENCES documents(id),
  line            INTEGER NOT NULL,
  col             INTEGER NOT NULL,
  end_col         INTEGER NOT NULL,
  role            TEXT NOT NULL,
  target          TEXT NOT NULL,
  title           TEXT NOT NULL DEFAULT '',
  resolved        BOOLEAN NOT NULL DEFAULT 0,
  target_docname  TEXT NOT NULL DEFAULT '',
  target_anchor   TEXT NOT NULL DEFAULT '',
  target_name     TEXT NOT NULL DEFAULT '',
  target_type     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS warnings (
  id              INTEGER PRIMARY KEY,
  document_id     INTEGER NOT NULL REFERENCES documents(id),
  line            INTEGER NOT NULL,
  type            TEXT NOT NULL,
  subtype         TEXT NOT NULL DEFAULT '',
  message         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_objects_document ON objects(document_id);
CREATE INDEX IF NOT EXISTS idx_objects_name ON objects(name);
CREATE INDEX IF NOT EXISTS idx_objects_anchor ON objects(anchor);
CREATE INDEX IF NOT EXISTS idx_references_document ON references_(document_id);
CREATE INDEX IF NOT EXISTS idx_references_target ON references_(target_docname, target_anchor);
CREATE INDEX IF NOT EXISTS idx_warnings_document ON warnings(document_id);
`

// derivedTables are rebuilt from the symbol tree; documents are the input.
var derivedTables = []string{"objects", "references_", "warnings"}

// DeleteDocumentData removes everything derived from a document, keeping
// the document row.
func (s *Store) DeleteDocumentData(documentID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := deleteDerivedTx(tx, []int64{documentID}); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDocument removes a document and its derived data.
func (s *Store) DeleteDocument(documentID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := deleteDerivedTx(tx, []int64{documentID}); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM documents WHERE id = ?", documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return tx.Commit()
}

func deleteDerivedTx(tx *sql.Tx, documentIDs []int64) error {
	if len(documentIDs) == 0 {
		return nil
	}
	placeholders := placeholderList(len(documentIDs))
	args := int64sToArgs(documentIDs)
	for _, table := range derivedTables {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE document_id IN ("+placeholders+")", args...); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

// GetMetadata returns the value stored under key, or "" when there is
// none.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, nil
}

// SetMetadata stores value under key.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}
