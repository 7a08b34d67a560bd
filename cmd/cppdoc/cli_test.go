package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so commands run in one
// process do not see each other's flags.
func resetFlags() {
	flagDB, flagFormat, flagConfig = "", "json", ""
	flagWorkers, flagVerbose = 0, 0
	flagForce = false
	flagLimit, flagOffset = 50, 0
	flagScope, flagDoc, flagType, flagPrefix = "", "", "", ""
	flagHTML = false
	errorHandled = false
}

// runCLI runs the root command with args and returns what it wrote to
// stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	saved := stdout
	stdout = &buf
	defer func() { stdout = saved }()

	resetFlags()
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// decode unmarshals the results of a JSON envelope into v.
func decode(t *testing.T, out string, v any) CLIResult {
	t.Helper()
	var env struct {
		CLIResult
		Results json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	if v != nil {
		require.NoError(t, json.Unmarshal(env.Results, v), out)
	}
	return env.CLIResult
}

// setupProject writes a small documentation tree, makes it the working
// directory and builds it.
func setupProject(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	files := map[string]string{
		"api.rst": strings.Join([]string{
			".. cpp:class:: Vector",
			"",
			"   .. cpp:function:: void push_back(int value)",
			"",
		}, "\n"),
		"guide.rst": "Use :cpp:func:`Vector::push_back` or :cpp:func:`reserve`.\n",
	}
	for name, text := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
	}
	t.Chdir(dir)

	_, err = runCLI(t, "index", dir)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, ".cppdoc", "index.db"))
	return dir
}

func TestCLI_Documents(t *testing.T) {
	setupProject(t)

	out, err := runCLI(t, "query", "documents")
	require.NoError(t, err)
	var docs []CLIDocument
	res := decode(t, out, &docs)
	assert.Equal(t, "documents", res.Command)
	require.Len(t, docs, 2)
	assert.Equal(t, "api", docs[0].Docname)
	assert.Equal(t, "guide", docs[1].Docname)
	assert.Equal(t, "directives", docs[0].Kind)
}

func TestCLI_Objects(t *testing.T) {
	setupProject(t)

	out, err := runCLI(t, "query", "objects", "--type", "function")
	require.NoError(t, err)
	var objs []CLIObject
	res := decode(t, out, &objs)
	require.Len(t, objs, 1)
	assert.Equal(t, "Vector::push_back", objs[0].Name)
	assert.Equal(t, "_CPPv4N6Vector9push_backEi", objs[0].Anchor)
	assert.Equal(t, 3, objs[0].Line)
	require.NotNil(t, res.TotalCount)
	assert.Equal(t, 1, *res.TotalCount)
}

func TestCLI_Resolve(t *testing.T) {
	setupProject(t)

	out, err := runCLI(t, "query", "resolve", "func", "push_back", "--scope", "Vector")
	require.NoError(t, err)
	var r CLIResolution
	decode(t, out, &r)
	assert.Equal(t, "api", r.Docname)
	assert.Equal(t, "_CPPv4N6Vector9push_backEi", r.Anchor)
	assert.Equal(t, "push_back()", r.Title)

	out, err = runCLI(t, "query", "resolve", "func", "push_back")
	require.Error(t, err)
	res := decode(t, out, nil)
	assert.Contains(t, res.Error, "reference target not found: push_back")
}

func TestCLI_UnresolvedAndWarnings(t *testing.T) {
	setupProject(t)

	out, err := runCLI(t, "query", "unresolved")
	require.NoError(t, err)
	var refs []CLIReference
	decode(t, out, &refs)
	require.Len(t, refs, 1)
	assert.Equal(t, "guide", refs[0].Docname)
	assert.Equal(t, "reserve", refs[0].Target)

	out, err = runCLI(t, "query", "warnings", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "guide:1: WARNING: cpp:func reference target not found: reserve")
}

func TestCLI_DefinitionAndHover(t *testing.T) {
	dir := setupProject(t)

	out, err := runCLI(t, "query", "definition", "guide.rst", "1", "10")
	require.NoError(t, err)
	var locs []CLILocation
	decode(t, out, &locs)
	require.Len(t, locs, 1)
	assert.Equal(t, "api", locs[0].Docname)
	assert.Equal(t, filepath.Join(dir, "api.rst"), locs[0].File)
	assert.Equal(t, 3, locs[0].Line)

	out, err = runCLI(t, "query", "hover", "guide.rst", "1", "10")
	require.NoError(t, err)
	var h CLIHover
	decode(t, out, &h)
	assert.True(t, h.Resolved)
	assert.Equal(t, "Vector::push_back", h.Name)
	assert.Equal(t, "function", h.ObjectType)
}

func TestCLI_Declarations(t *testing.T) {
	setupProject(t)

	out, err := runCLI(t, "query", "declarations", "api", "--html")
	require.NoError(t, err)
	var decls []CLIDeclaration
	decode(t, out, &decls)
	require.Len(t, decls, 2)
	assert.Equal(t, "Vector", decls[0].Name)
	assert.Contains(t, decls[0].Rendered, `id="_CPPv46Vector"`)
	assert.Equal(t, "Vector::push_back", decls[1].Name)

	_, err = runCLI(t, "query", "declarations", "nowhere")
	assert.ErrorContains(t, err, "unknown document")
}

func TestCLI_Symbols(t *testing.T) {
	setupProject(t)

	out, err := runCLI(t, "query", "symbols", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Vector")
	assert.Contains(t, out, "push_back")
}

func TestCLI_MissingDatabase(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	t.Chdir(dir)

	out, err := runCLI(t, "query", "objects")
	require.Error(t, err)
	res := decode(t, out, nil)
	assert.Equal(t, "objects", res.Command)
	assert.Contains(t, res.Error, "database not found")
}

func TestCLI_Parse(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := runCLI(t, "parse", "function", "void f(int i)")
	require.NoError(t, err)
	var decls []CLIDeclaration
	decode(t, out, &decls)
	require.Len(t, decls, 1)
	assert.Equal(t, "f", decls[0].Name)
	assert.Equal(t, "void f(int i)", decls[0].Rendered)
	require.NotEmpty(t, decls[0].IDs)
	assert.Equal(t, "_CPPv41fi", decls[0].IDs[0])

	out, err = runCLI(t, "parse", "--html", "class", "A")
	require.NoError(t, err)
	decode(t, out, &decls)
	assert.Contains(t, decls[0].Rendered, `id="_CPPv41A"`)

	_, err = runCLI(t, "parse", "function", "void (")
	assert.Error(t, err)
}

func TestCLI_InvalidFormat(t *testing.T) {
	_, err := runCLI(t, "query", "objects", "--format", "yaml")
	assert.ErrorContains(t, err, "invalid format")
}
