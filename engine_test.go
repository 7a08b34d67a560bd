package cppdomain

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppdomain/internal/config"
	"github.com/jward/cppdomain/internal/runtime"
	"github.com/jward/cppdomain/internal/store"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	e, err := New(dbPath, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

// rst joins lines into a directive document.
func rst(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func directivesSource(docname, text string) Source {
	return Source{
		Docname: docname,
		Path:    "/docs/" + docname + ".rst",
		Kind:    runtime.KindDirectives,
		Text:    []byte(text),
	}
}

func update(t *testing.T, e *Engine, sources ...Source) {
	t.Helper()
	require.NoError(t, e.Update(context.Background(), sources...))
}

func objectNames(t *testing.T, e *Engine) []string {
	t.Helper()
	objs, err := e.Objects()
	require.NoError(t, err)
	var names []string
	for _, o := range objs {
		names = append(names, o.Name)
	}
	return names
}

func output(t *testing.T, e *Engine, docname string) *Output {
	t.Helper()
	out, ok, err := e.Output(docname)
	require.NoError(t, err)
	require.True(t, ok, "no output for %s", docname)
	return out
}

var vectorDoc = rst(
	".. cpp:class:: Vector",
	"",
	"   .. cpp:function:: void push_back(int value)",
	"",
	"   Use :cpp:func:`push_back` to add.",
	"",
	".. cpp:function:: int size()",
)

func TestNew_CreatesStore(t *testing.T) {
	e := newTestEngine(t)
	require.NotNil(t, e.Store())

	// the schema is in place
	_, err := e.Store().InsertDocument(&store.Document{Docname: "x", Path: "/x.rst", Kind: runtime.KindDirectives, Hash: "h"})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/dir/db.sqlite")
	require.Error(t, err)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MaximumSignatureLineLength = -1
	_, err := New(filepath.Join(t.TempDir(), "test.db"), WithConfig(cfg))
	require.Error(t, err)
}

func TestClose(t *testing.T) {
	e, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, e.Close())
}

func TestQuery_ReturnsQueryBuilder(t *testing.T) {
	e := newTestEngine(t)
	require.NotNil(t, e.Query())
}

func TestDocname(t *testing.T) {
	e := newTestEngine(t, WithRoot("/proj/docs"))

	name, ok := e.Docname("/proj/docs/api/vector.rst")
	require.True(t, ok)
	assert.Equal(t, "api/vector", name)

	name, ok = e.Docname("/proj/docs/include/vector.hpp")
	require.True(t, ok)
	assert.Equal(t, "include/vector.hpp", name)

	_, ok = e.Docname("/proj/docs/main.go")
	assert.False(t, ok)
}

func TestUpdate_ReadsDeclarations(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", vectorDoc))

	assert.Equal(t, []string{"Vector", "Vector::push_back", "Vector::push_back::value", "size"}, objectNames(t, e))

	stored, err := e.Query().Objects(ObjectFilter{Docname: "a"})
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestUpdate_SkipsUnchanged(t *testing.T) {
	e := newTestEngine(t)
	src := directivesSource("a", vectorDoc)
	update(t, e, src)

	doc1, err := e.Store().DocumentByName("a")
	require.NoError(t, err)
	require.NotNil(t, doc1)

	update(t, e, src)
	doc2, err := e.Store().DocumentByName("a")
	require.NoError(t, err)
	assert.Equal(t, doc1.ID, doc2.ID, "unchanged documents keep their row")
}

func TestUpdate_ReplacesChanged(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", vectorDoc))
	update(t, e, directivesSource("a", rst(".. cpp:class:: List")))

	assert.Equal(t, []string{"List"}, objectNames(t, e))
	stored, err := e.Query().Objects(ObjectFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "List", stored[0].Name)
}

func TestRemoveDocuments(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", vectorDoc), directivesSource("b", rst(".. cpp:class:: List")))

	require.NoError(t, e.RemoveDocuments(context.Background(), "a"))
	assert.Equal(t, []string{"List"}, objectNames(t, e))
	docs, err := e.Documents()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, docs)

	d, err := e.Store().DocumentByName("a")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestIndexFiles_SkipsUnsupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(t, WithRoot(dir))

	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))
	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))

	docs, err := e.Store().Documents()
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIndexFiles_ReportsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(t, WithRoot(dir))

	good := filepath.Join(dir, "a.rst")
	require.NoError(t, os.WriteFile(good, []byte(vectorDoc), 0o644))
	err := e.IndexFiles(context.Background(), []string{good, filepath.Join(dir, "missing.rst")})
	require.Error(t, err)

	// the readable file is still indexed
	assert.Contains(t, objectNames(t, e), "Vector")
}

func TestIndexDirectory_DirectivesAndHeaders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "api"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "include"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api", "vector.rst"), []byte(vectorDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "include", "math.h"), []byte("int add(int a, int b);\n"), 0o644))

	e := newTestEngine(t, WithRoot(dir))
	require.NoError(t, e.IndexDirectory(context.Background(), dir))

	docs, err := e.Documents()
	require.NoError(t, err)
	assert.Equal(t, []string{"api/vector", "include/math.h"}, docs)

	objs, err := e.Objects()
	require.NoError(t, err)
	var add *Object
	for i := range objs {
		if objs[i].Name == "add" {
			add = &objs[i]
		}
	}
	require.NotNil(t, add)
	assert.Equal(t, "include/math.h", add.Docname)
	assert.Equal(t, "function", add.ObjectType)
}

func TestIndexDirectory_SkipsHiddenAndBuildDirs(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{".git", "build", "node_modules"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, sub, "x.rst"), []byte(".. cpp:class:: Hidden\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rst"), []byte(".. cpp:class:: Visible\n"), 0o644))

	e := newTestEngine(t, WithRoot(dir))
	require.NoError(t, e.IndexDirectory(context.Background(), dir))
	assert.Equal(t, []string{"Visible"}, objectNames(t, e))
}

func TestIndexDirectory_RemovesDeletedFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.rst")
	b := filepath.Join(dir, "b.rst")
	require.NoError(t, os.WriteFile(a, []byte(".. cpp:class:: A\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(".. cpp:class:: B\n"), 0o644))

	e := newTestEngine(t, WithRoot(dir))
	require.NoError(t, e.IndexDirectory(context.Background(), dir))
	assert.Equal(t, []string{"A", "B"}, objectNames(t, e))

	require.NoError(t, os.Remove(b))
	require.NoError(t, e.IndexDirectory(context.Background(), dir))
	assert.Equal(t, []string{"A"}, objectNames(t, e))
}

func TestLoad_ReplaysStoredDocuments(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	e1, err := New(dbPath)
	require.NoError(t, err)
	update(t, e1, directivesSource("a", vectorDoc))
	want, err := e1.Objects()
	require.NoError(t, err)
	require.NoError(t, e1.Close())

	e2, err := New(dbPath)
	require.NoError(t, err)
	defer e2.Close()
	assert.False(t, e2.ConfigChanged())

	got, err := e2.Objects()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	out := output(t, e2, "a")
	require.Len(t, out.References, 1)
	assert.True(t, out.References[0].Resolved)
}

func TestLoad_ConfigChangeRewritesStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	e1, err := New(dbPath)
	require.NoError(t, err)
	update(t, e1, directivesSource("a", vectorDoc))
	require.NoError(t, e1.Close())

	cfg := config.Default()
	cfg.AddFunctionParentheses = false
	e2, err := New(dbPath, WithConfig(cfg))
	require.NoError(t, err)
	defer e2.Close()
	assert.True(t, e2.ConfigChanged())

	require.NoError(t, e2.Load(context.Background()))
	assert.False(t, e2.ConfigChanged())

	refs, err := e2.Store().ReferencesByDocument("a")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "push_back", refs[0].Title)
}

func TestDump(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", vectorDoc))
	dump, err := e.Dump()
	require.NoError(t, err)
	assert.Contains(t, dump, "Vector")
	assert.Contains(t, dump, "push_back")
}
