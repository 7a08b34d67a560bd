package cppdomain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppdomain/internal/store"
)

// findModuleRoot walks up from cwd to find go.mod, returning the repo root.
func findModuleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find module root")
		}
		dir = parent
	}
}

// writeFile writes src below dir and returns the path.
func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestIntegration_HeaderAndDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "include/net/socket.hpp", rst(
		"#pragma once",
		"",
		"namespace net {",
		"",
		"/// A connected stream socket.",
		"class Socket {",
		"public:",
		"    /// Writes len bytes, see :cpp:func:`close`.",
		"    long write(const char *buf, unsigned long len);",
		"    void close();",
		"};",
		"",
		"}  // namespace net",
	))
	guide := writeFile(t, dir, "docs/guide.rst", rst(
		".. cpp:namespace:: net",
		"",
		"Open a :cpp:class:`Socket` and call :cpp:func:`Socket::write`.",
		"",
		".. cpp:function:: Socket connect(const char *host, int port)",
		"",
		"   Returns a :cpp:class:`Socket`.",
	))

	e := newTestEngine(t, WithRoot(dir))
	require.NoError(t, e.IndexDirectory(context.Background(), dir))

	docs, err := e.Documents()
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/guide", "include/net/socket.hpp"}, docs)

	warnings, err := e.Warnings()
	require.NoError(t, err)
	assert.Empty(t, warnings)

	locs, err := e.Query().DefinitionAt(guide, 3, 8)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "include/net/socket.hpp", locs[0].Docname)
	assert.Equal(t, 6, locs[0].Line)

	refs, err := e.Query().ReferencesTo("net::Socket")
	require.NoError(t, err)
	assert.Len(t, refs, 2)

	res, _, err := e.ResolveXRef("func", "close", "net::Socket")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "include/net/socket.hpp", res.Docname)
}

func TestIntegration_IncrementalReindex(t *testing.T) {
	dir := t.TempDir()
	api := writeFile(t, dir, "api.rst", rst(".. cpp:function:: void alpha()"))
	guide := writeFile(t, dir, "guide.rst", rst("Call :cpp:func:`beta`."))

	e := newTestEngine(t, WithRoot(dir))
	require.NoError(t, e.IndexFiles(context.Background(), []string{api, guide}))

	out := output(t, e, "guide")
	require.Len(t, out.References, 1)
	assert.False(t, out.References[0].Resolved)

	// only the changed document is read again; the other one is resolved
	// against the new inventory
	writeFile(t, dir, "api.rst", rst(".. cpp:function:: void alpha()", "", ".. cpp:function:: void beta()"))
	require.NoError(t, e.IndexFiles(context.Background(), []string{api, guide}))

	out = output(t, e, "guide")
	require.Len(t, out.References, 1)
	assert.True(t, out.References[0].Resolved)
	assert.Empty(t, out.Warnings)

	unresolved, err := e.Query().UnresolvedReferences()
	require.NoError(t, err)
	assert.Empty(t, unresolved)
}

func TestIntegration_ReopenAnswersFromStore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "cppdomain.db")
	path := writeFile(t, dir, "a.rst", vectorDoc)

	e1, err := New(dbPath, WithRoot(dir))
	require.NoError(t, err)
	require.NoError(t, e1.IndexFiles(context.Background(), []string{path}))
	require.NoError(t, e1.Close())

	s, err := store.NewStore(dbPath)
	require.NoError(t, err)
	defer s.Close()
	q := NewQueryBuilder(s)

	locs, err := q.DefinitionAt(path, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, []Location{{Docname: "a", Path: path, Line: 3}}, locs)
}

func TestIntegration_IndexOwnTestdata(t *testing.T) {
	root := filepath.Join(findModuleRoot(t), "testdata", "cpp")
	if _, err := os.Stat(root); err != nil {
		t.Skip("no testdata")
	}

	serial := newTestEngine(t, WithRoot(root), WithParallel(false))
	require.NoError(t, serial.IndexDirectory(context.Background(), root))
	parallel := newTestEngine(t, WithRoot(root), WithWorkers(3))
	require.NoError(t, parallel.IndexDirectory(context.Background(), root))

	want, err := serial.Objects()
	require.NoError(t, err)
	got, err := parallel.Objects()
	require.NoError(t, err)
	assert.NotEmpty(t, want)
	assert.Equal(t, want, got)
}
