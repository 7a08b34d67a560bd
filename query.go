package cppdomain

import (
	"fmt"

	"github.com/jward/cppdomain/internal/store"
)

// QueryBuilder answers editor and CLI questions from the persisted build.
// It only needs the Store, so it works on a database without replaying
// the documents.
type QueryBuilder struct {
	store *store.Store
}

// NewQueryBuilder wraps an open Store.
func NewQueryBuilder(s *Store) *QueryBuilder {
	return &QueryBuilder{store: s}
}

// Location is a position in a document.
type Location struct {
	Docname string
	Path    string
	Line    int
	Col     int
	EndCol  int
}

// Hover describes the declaration at a position.
type Hover struct {
	Name       string
	ObjectType string
	Signature  string
	Docname    string
	Line       int
	// Resolved is false for references whose target is unknown. Name then
	// holds the target as written, qualified with its scope when known.
	Resolved bool
}

// Objects returns the inventory entries matching f.
func (q *QueryBuilder) Objects(f ObjectFilter) ([]*StoredObject, error) {
	return q.store.Objects(f)
}

// Warnings returns the stored warnings of the given documents, or of
// every document.
func (q *QueryBuilder) Warnings(docnames ...string) ([]*StoredWarning, error) {
	return q.store.Warnings(docnames...)
}

// UnresolvedReferences returns every reference without a target.
func (q *QueryBuilder) UnresolvedReferences() ([]*StoredReference, error) {
	return q.store.UnresolvedReferences()
}

// referenceAt returns the reference spanning (line, col) in the document
// at path.
func (q *QueryBuilder) referenceAt(path string, line, col int) (*store.Document, *StoredReference, error) {
	doc, err := q.store.DocumentByPath(path)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup document: %w", err)
	}
	if doc == nil {
		return nil, nil, nil
	}
	refs, err := q.store.ReferencesByDocument(doc.Docname)
	if err != nil {
		return nil, nil, err
	}
	for _, r := range refs {
		if r.Line == line && r.Col <= col && col < r.EndCol {
			return doc, r, nil
		}
	}
	return doc, nil, nil
}

// objectsOnLine returns the objects declared on line of a document,
// leaving out parameters.
func (q *QueryBuilder) objectsOnLine(docname string, line int) ([]*StoredObject, error) {
	objs, err := q.store.Objects(ObjectFilter{Docname: docname})
	if err != nil {
		return nil, err
	}
	var res []*StoredObject
	for _, o := range objs {
		if o.Line == line && o.ObjectType != "templateParam" && o.ObjectType != "functionParam" {
			res = append(res, o)
		}
	}
	return res, nil
}

// DefinitionAt finds where the name at (path, line, col) is declared. On
// a reference that is its target; on a declaration it is the declaration
// itself.
func (q *QueryBuilder) DefinitionAt(path string, line, col int) ([]Location, error) {
	doc, ref, err := q.referenceAt(path, line, col)
	if err != nil {
		return nil, fmt.Errorf("definition at: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	if ref != nil {
		if !ref.Resolved {
			return nil, nil
		}
		loc, err := q.objectLocation(ref.TargetDocname, ref.TargetAnchor)
		if err != nil {
			return nil, fmt.Errorf("definition at: %w", err)
		}
		if loc == nil {
			return nil, nil
		}
		return []Location{*loc}, nil
	}

	objs, err := q.objectsOnLine(doc.Docname, line)
	if err != nil {
		return nil, fmt.Errorf("definition at: %w", err)
	}
	var locations []Location
	for _, o := range objs {
		locations = append(locations, Location{Docname: doc.Docname, Path: doc.Path, Line: o.Line})
	}
	return locations, nil
}

func (q *QueryBuilder) objectLocation(docname, anchor string) (*Location, error) {
	obj, err := q.store.ObjectByAnchor(docname, anchor)
	if err != nil || obj == nil {
		return nil, err
	}
	doc, err := q.store.DocumentByName(docname)
	if err != nil || doc == nil {
		return nil, err
	}
	return &Location{Docname: docname, Path: doc.Path, Line: obj.Line}, nil
}

// HoverAt describes what is at (path, line, col): the target of a
// reference, or a declaration on that line.
func (q *QueryBuilder) HoverAt(path string, line, col int) (*Hover, error) {
	doc, ref, err := q.referenceAt(path, line, col)
	if err != nil {
		return nil, fmt.Errorf("hover at: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	if ref != nil {
		if !ref.Resolved {
			name := ref.TargetName
			if name == "" {
				name = ref.Target
			}
			return &Hover{Name: name, Docname: doc.Docname, Line: ref.Line}, nil
		}
		obj, err := q.store.ObjectByAnchor(ref.TargetDocname, ref.TargetAnchor)
		if err != nil {
			return nil, fmt.Errorf("hover at: %w", err)
		}
		if obj == nil {
			return nil, nil
		}
		return hoverFor(obj, ref.TargetDocname), nil
	}

	objs, err := q.objectsOnLine(doc.Docname, line)
	if err != nil {
		return nil, fmt.Errorf("hover at: %w", err)
	}
	if len(objs) == 0 {
		return nil, nil
	}
	return hoverFor(&objs[0].Object, doc.Docname), nil
}

func hoverFor(o *store.Object, docname string) *Hover {
	return &Hover{
		Name:       o.DisplayName,
		ObjectType: o.ObjectType,
		Signature:  o.Signature,
		Docname:    docname,
		Line:       o.Line,
		Resolved:   true,
	}
}

// ReferencesTo finds the references resolved to any object named name.
func (q *QueryBuilder) ReferencesTo(name string) ([]Location, error) {
	objs, err := q.store.Objects(ObjectFilter{Name: name})
	if err != nil {
		return nil, fmt.Errorf("references to: %w", err)
	}
	var locations []Location
	paths := map[string]string{}
	for _, o := range objs {
		refs, err := q.store.ReferencesTo(o.Docname, o.Anchor)
		if err != nil {
			return nil, fmt.Errorf("references to: %w", err)
		}
		for _, r := range refs {
			path, ok := paths[r.Docname]
			if !ok {
				if doc, err := q.store.DocumentByName(r.Docname); err == nil && doc != nil {
					path = doc.Path
				}
				paths[r.Docname] = path
			}
			locations = append(locations, Location{Docname: r.Docname, Path: path, Line: r.Line, Col: r.Col, EndCol: r.EndCol})
		}
	}
	return locations, nil
}
