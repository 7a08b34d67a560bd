package store

import (
	"fmt"
	"strings"
)

// ObjectFilter narrows Objects. Zero fields match everything.
type ObjectFilter struct {
	Docname    string
	ObjectType string
	// NamePrefix matches qualified names starting with it.
	NamePrefix string
	// Name matches the qualified name exactly.
	Name string
}

const objectColumns = `o.id, o.document_id, o.name, o.display_name, o.object_type, o.anchor, o.priority, o.line, o.signature`

func scanObject(row rowScanner) (*Object, error) {
	o := &Object{}
	err := row.Scan(&o.ID, &o.DocumentID, &o.Name, &o.DisplayName, &o.ObjectType, &o.Anchor, &o.Priority, &o.Line, &o.Signature)
	return o, err
}

// ObjectWithDoc is an object together with the docname it is declared in.
type ObjectWithDoc struct {
	Object
	Docname string
}

// Objects returns the inventory entries matching f, ordered by name.
func (s *Store) Objects(f ObjectFilter) ([]*ObjectWithDoc, error) {
	var where []string
	var args []any
	if f.Docname != "" {
		where = append(where, "d.docname = ?")
		args = append(args, f.Docname)
	}
	if f.ObjectType != "" {
		where = append(where, "o.object_type = ?")
		args = append(args, f.ObjectType)
	}
	if f.Name != "" {
		where = append(where, "o.name = ?")
		args = append(args, f.Name)
	}
	if f.NamePrefix != "" {
		where = append(where, "o.name LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(f.NamePrefix)+"%")
	}
	query := "SELECT " + objectColumns + ", d.docname FROM objects o JOIN documents d ON d.id = o.document_id"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY o.name, d.docname, o.line"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()
	var res []*ObjectWithDoc
	for rows.Next() {
		o := &ObjectWithDoc{}
		err := rows.Scan(&o.ID, &o.DocumentID, &o.Name, &o.DisplayName, &o.ObjectType, &o.Anchor, &o.Priority, &o.Line, &o.Signature, &o.Docname)
		if err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

// ObjectByAnchor returns the object with the anchor in docname, or nil.
func (s *Store) ObjectByAnchor(docname, anchor string) (*Object, error) {
	rows, err := s.db.Query(
		"SELECT "+objectColumns+" FROM objects o JOIN documents d ON d.id = o.document_id WHERE d.docname = ? AND o.anchor = ?",
		docname, anchor)
	if err != nil {
		return nil, fmt.Errorf("query object by anchor: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	o, err := scanObject(rows)
	if err != nil {
		return nil, fmt.Errorf("scan object: %w", err)
	}
	return o, nil
}

const referenceColumns = `r.id, r.document_id, r.line, r.col, r.end_col, r.role, r.target, r.title,
  r.resolved, r.target_docname, r.target_anchor, r.target_name, r.target_type`

// ReferenceWithDoc is a reference together with the docname it occurs in.
type ReferenceWithDoc struct {
	Reference
	Docname string
}

func (s *Store) queryReferences(where string, args ...any) ([]*ReferenceWithDoc, error) {
	query := "SELECT " + referenceColumns + ", d.docname FROM references_ r JOIN documents d ON d.id = r.document_id"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY d.docname, r.line, r.col"
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query references: %w", err)
	}
	defer rows.Close()
	var res []*ReferenceWithDoc
	for rows.Next() {
		r := &ReferenceWithDoc{}
		err := rows.Scan(&r.ID, &r.DocumentID, &r.Line, &r.Col, &r.EndCol, &r.Role, &r.Target, &r.Title,
			&r.Resolved, &r.TargetDocname, &r.TargetAnchor, &r.TargetName, &r.TargetType, &r.Docname)
		if err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// ReferencesByDocument returns the references occurring in docname.
func (s *Store) ReferencesByDocument(docname string) ([]*ReferenceWithDoc, error) {
	return s.queryReferences("d.docname = ?", docname)
}

// ReferencesTo returns the resolved references targeting the anchor in
// docname.
func (s *Store) ReferencesTo(docname, anchor string) ([]*ReferenceWithDoc, error) {
	return s.queryReferences("r.resolved = 1 AND r.target_docname = ? AND r.target_anchor = ?", docname, anchor)
}

// UnresolvedReferences returns every reference without a target.
func (s *Store) UnresolvedReferences() ([]*ReferenceWithDoc, error) {
	return s.queryReferences("r.resolved = 0")
}

// WarningWithDoc is a warning together with its docname.
type WarningWithDoc struct {
	Warning
	Docname string
}

// Warnings returns the warnings of the given documents, or of all
// documents when none are given.
func (s *Store) Warnings(docnames ...string) ([]*WarningWithDoc, error) {
	query := "SELECT w.id, w.document_id, w.line, w.type, w.subtype, w.message, d.docname FROM warnings w JOIN documents d ON d.id = w.document_id"
	if len(docnames) > 0 {
		query += " WHERE d.docname IN (" + placeholderList(len(docnames)) + ")"
	}
	query += " ORDER BY d.docname, w.line, w.id"
	rows, err := s.db.Query(query, stringsToArgs(docnames)...)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()
	var res []*WarningWithDoc
	for rows.Next() {
		w := &WarningWithDoc{}
		if err := rows.Scan(&w.ID, &w.DocumentID, &w.Line, &w.Type, &w.Subtype, &w.Message, &w.Docname); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
