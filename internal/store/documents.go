package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// --- Documents ---

// InsertDocument inserts a document and sets its ID.
func (s *Store) InsertDocument(d *Document) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO documents (docname, path, kind, hash, source, last_indexed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.Docname, d.Path, d.Kind, d.Hash, d.Source, d.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert document %s: %w", d.Docname, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	d.ID = id
	return id, nil
}

const documentColumns = "id, docname, path, kind, hash, source, last_indexed"

func scanDocument(row rowScanner) (*Document, error) {
	d := &Document{}
	var lastIndexed sql.NullTime
	if err := row.Scan(&d.ID, &d.Docname, &d.Path, &d.Kind, &d.Hash, &d.Source, &lastIndexed); err != nil {
		return nil, err
	}
	if lastIndexed.Valid {
		d.LastIndexed = lastIndexed.Time
	}
	return d, nil
}

func (s *Store) queryDocument(query string, args ...any) (*Document, error) {
	d, err := scanDocument(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	return d, nil
}

// DocumentByName returns the document with the given docname, or nil.
func (s *Store) DocumentByName(docname string) (*Document, error) {
	return s.queryDocument("SELECT "+documentColumns+" FROM documents WHERE docname = ?", docname)
}

// DocumentByPath returns the document read from path, or nil.
func (s *Store) DocumentByPath(path string) (*Document, error) {
	return s.queryDocument("SELECT "+documentColumns+" FROM documents WHERE path = ?", path)
}

// Documents returns every document ordered by docname.
func (s *Store) Documents() ([]*Document, error) {
	rows, err := s.db.Query("SELECT " + documentColumns + " FROM documents ORDER BY docname")
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()
	var docs []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// TouchDocument records that a document was indexed again unchanged.
func (s *Store) TouchDocument(documentID int64, at time.Time) error {
	_, err := s.db.Exec("UPDATE documents SET last_indexed = ? WHERE id = ?", at, documentID)
	if err != nil {
		return fmt.Errorf("touch document: %w", err)
	}
	return nil
}

// --- Derived rows ---

func (s *Store) InsertObject(o *Object) (int64, error) {
	return insertObjectTx(s.db, o)
}

func (s *Store) InsertReference(r *Reference) (int64, error) {
	return insertReferenceTx(s.db, r)
}

func (s *Store) InsertWarning(w *Warning) (int64, error) {
	return insertWarningTx(s.db, w)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func lastID(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertObjectTx(x execer, o *Object) (int64, error) {
	id, err := lastID(x.Exec(
		`INSERT INTO objects (document_id, name, display_name, object_type, anchor, priority, line, signature)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.DocumentID, o.Name, o.DisplayName, o.ObjectType, o.Anchor, o.Priority, o.Line, o.Signature,
	))
	if err != nil {
		return 0, fmt.Errorf("insert object %s: %w", o.Name, err)
	}
	o.ID = id
	return id, nil
}

func insertReferenceTx(x execer, r *Reference) (int64, error) {
	id, err := lastID(x.Exec(
		`INSERT INTO references_ (document_id, line, col, end_col, role, target, title,
		   resolved, target_docname, target_anchor, target_name, target_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.DocumentID, r.Line, r.Col, r.EndCol, r.Role, r.Target, r.Title,
		r.Resolved, r.TargetDocname, r.TargetAnchor, r.TargetName, r.TargetType,
	))
	if err != nil {
		return 0, fmt.Errorf("insert reference %s: %w", r.Target, err)
	}
	r.ID = id
	return id, nil
}

func insertWarningTx(x execer, w *Warning) (int64, error) {
	id, err := lastID(x.Exec(
		`INSERT INTO warnings (document_id, line, type, subtype, message) VALUES (?, ?, ?, ?, ?)`,
		w.DocumentID, w.Line, w.Type, w.Subtype, w.Message,
	))
	if err != nil {
		return 0, fmt.Errorf("insert warning: %w", err)
	}
	w.ID = id
	return id, nil
}
