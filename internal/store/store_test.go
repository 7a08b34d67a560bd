package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestDocument inserts a document and returns it with ID set.
func insertTestDocument(t *testing.T, s *Store, docname string) *Document {
	t.Helper()
	d := &Document{
		Docname:     docname,
		Path:        "/docs/" + docname + ".rst",
		Kind:        "directives",
		Hash:        ContentHash([]byte(docname)),
		Source:      ".. cpp:class:: " + docname,
		LastIndexed: time.Now().Truncate(time.Second),
	}
	id, err := s.InsertDocument(d)
	require.NoError(t, err)
	require.Positive(t, id)
	return d
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"documents", "objects", "references_", "warnings", "metadata"} {
		var name string
		err := s.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

// =============================================================================
// Documents
// =============================================================================

func TestDocuments_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	b := insertTestDocument(t, s, "b")
	insertTestDocument(t, s, "a")

	got, err := s.DocumentByName("b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, b.Path, got.Path)
	assert.Equal(t, b.Hash, got.Hash)
	assert.Equal(t, b.Source, got.Source)

	byPath, err := s.DocumentByPath("/docs/b.rst")
	require.NoError(t, err)
	require.NotNil(t, byPath)
	assert.Equal(t, "b", byPath.Docname)

	missing, err := s.DocumentByName("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := s.Documents()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Docname)
	assert.Equal(t, "b", all[1].Docname)
}

func TestDocuments_UniqueDocname(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestDocument(t, s, "a")
	_, err := s.InsertDocument(&Document{Docname: "a", Path: "/other", Kind: "header", Hash: "x"})
	assert.Error(t, err)
}

func TestDeleteDocument_RemovesDerivedRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestDocument(t, s, "a")
	b := insertTestDocument(t, s, "b")

	for _, d := range []*Document{a, b} {
		_, err := s.InsertObject(&Object{DocumentID: d.ID, Name: "X", DisplayName: "X", ObjectType: "class", Anchor: "_CPPv41X", Priority: 1})
		require.NoError(t, err)
		_, err = s.InsertReference(&Reference{DocumentID: d.ID, Line: 1, Role: "class", Target: "X"})
		require.NoError(t, err)
		_, err = s.InsertWarning(&Warning{DocumentID: d.ID, Line: 1, Type: "cpp", Message: "m"})
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteDocumentData(a.ID))
	objs, err := s.Objects(ObjectFilter{})
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "b", objs[0].Docname)

	doc, err := s.DocumentByName("a")
	require.NoError(t, err)
	assert.NotNil(t, doc, "DeleteDocumentData keeps the document")

	require.NoError(t, s.DeleteDocument(b.ID))
	objs, err = s.Objects(ObjectFilter{})
	require.NoError(t, err)
	assert.Empty(t, objs)
	warnings, err := s.Warnings()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	doc, err = s.DocumentByName("b")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

// =============================================================================
// Queries
// =============================================================================

func TestObjects_Filter(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestDocument(t, s, "a")
	b := insertTestDocument(t, s, "b")

	for _, o := range []*Object{
		{DocumentID: a.ID, Name: "N::A", DisplayName: "N::A", ObjectType: "class", Anchor: "_CPPv4N1N1AE", Line: 3},
		{DocumentID: a.ID, Name: "N::A::f", DisplayName: "N::A::f", ObjectType: "function", Anchor: "_CPPv4N1N1A1fEv", Line: 5},
		{DocumentID: b.ID, Name: "N_x", DisplayName: "N_x", ObjectType: "member", Anchor: "_CPPv43N_x", Line: 1},
	} {
		o.Priority = 1
		_, err := s.InsertObject(o)
		require.NoError(t, err)
	}

	all, err := s.Objects(ObjectFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	byType, err := s.Objects(ObjectFilter{ObjectType: "function"})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "N::A::f", byType[0].Name)

	// '_' is not a wildcard
	byPrefix, err := s.Objects(ObjectFilter{NamePrefix: "N_"})
	require.NoError(t, err)
	require.Len(t, byPrefix, 1)
	assert.Equal(t, "N_x", byPrefix[0].Name)

	byDoc, err := s.Objects(ObjectFilter{Docname: "a", NamePrefix: "N::"})
	require.NoError(t, err)
	assert.Len(t, byDoc, 2)

	o, err := s.ObjectByAnchor("a", "_CPPv4N1N1A1fEv")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, 5, o.Line)

	o, err = s.ObjectByAnchor("b", "_CPPv4N1N1A1fEv")
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestReferences_Queries(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestDocument(t, s, "a")
	b := insertTestDocument(t, s, "b")

	_, err := s.InsertReference(&Reference{
		DocumentID: b.ID, Line: 4, Col: 2, EndCol: 20, Role: "class", Target: "N::A",
		Resolved: true, TargetDocname: "a", TargetAnchor: "_CPPv4N1N1AE", TargetName: "N::A", TargetType: "class",
	})
	require.NoError(t, err)
	_, err = s.InsertReference(&Reference{DocumentID: a.ID, Line: 9, Role: "func", Target: "missing"})
	require.NoError(t, err)

	to, err := s.ReferencesTo("a", "_CPPv4N1N1AE")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "b", to[0].Docname)
	assert.Equal(t, 4, to[0].Line)

	unresolved, err := s.UnresolvedReferences()
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "missing", unresolved[0].Target)

	inB, err := s.ReferencesByDocument("b")
	require.NoError(t, err)
	require.Len(t, inB, 1)
	assert.True(t, inB[0].Resolved)
}

func TestWarnings_ByDocument(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestDocument(t, s, "a")
	b := insertTestDocument(t, s, "b")
	_, err := s.InsertWarning(&Warning{DocumentID: b.ID, Line: 2, Type: "duplicate_declaration", Subtype: "cpp", Message: "dup"})
	require.NoError(t, err)
	_, err = s.InsertWarning(&Warning{DocumentID: a.ID, Line: 7, Type: "cpp", Subtype: "xref", Message: "unresolved"})
	require.NoError(t, err)

	all, err := s.Warnings()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Docname)

	onlyB, err := s.Warnings("b")
	require.NoError(t, err)
	require.Len(t, onlyB, 1)
	assert.Equal(t, "duplicate_declaration", onlyB[0].Type)
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("config_hash")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("config_hash", "abc"))
	require.NoError(t, s.SetMetadata("config_hash", "def"))
	v, err = s.GetMetadata("config_hash")
	require.NoError(t, err)
	assert.Equal(t, "def", v)
}

func TestComputeInventoryHash_OrderIndependent(t *testing.T) {
	t.Parallel()
	docs := map[int64]string{1: "a", 2: "b"}
	x := &Object{DocumentID: 1, Name: "A", ObjectType: "class", Anchor: "_CPPv41A", Line: 1}
	y := &Object{DocumentID: 2, Name: "f", ObjectType: "function", Anchor: "_CPPv41fv", Line: 3}

	h1 := ComputeInventoryHash([]*Object{x, y}, docs)
	h2 := ComputeInventoryHash([]*Object{y, x}, docs)
	assert.Equal(t, h1, h2)

	moved := *y
	moved.Line = 30
	assert.Equal(t, h1, ComputeInventoryHash([]*Object{x, &moved}, docs), "lines do not matter")

	moved.DocumentID = 1
	assert.NotEqual(t, h1, ComputeInventoryHash([]*Object{x, &moved}, docs))
}
