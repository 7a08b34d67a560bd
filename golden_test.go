package cppdomain

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden test format.
type goldenFile struct {
	Definitions []goldenDef     `json:"definitions,omitempty"`
	References  []goldenRef     `json:"references,omitempty"`
	Unresolved  []goldenLoc     `json:"unresolved,omitempty"`
	Warnings    []goldenWarning `json:"warnings,omitempty"`
}

type goldenDef struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Doc    string `json:"doc"`
	Line   int    `json:"line"`
	Anchor string `json:"anchor,omitempty"`
}

type goldenRef struct {
	From goldenLoc    `json:"from"`
	To   goldenTarget `json:"to"`
}

type goldenLoc struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

type goldenTarget struct {
	Name string `json:"name"`
	Doc  string `json:"doc"`
	Line int    `json:"line"`
}

type goldenWarning struct {
	Doc     string `json:"doc"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// TestGolden runs every testdata/cpp/<level>/ directory: src/ is indexed
// and the result compared with golden.json.
func TestGolden(t *testing.T) {
	root := filepath.Join("testdata", "cpp")
	levels, err := os.ReadDir(root)
	if err != nil {
		t.Skip("no testdata directory found")
	}

	for _, level := range levels {
		if !level.IsDir() {
			continue
		}
		testDir := filepath.Join(root, level.Name())
		goldenPath := filepath.Join(testDir, "golden.json")
		srcDir := filepath.Join(testDir, "src")
		if _, err := os.Stat(goldenPath); err != nil {
			continue
		}

		t.Run(level.Name(), func(t *testing.T) {
			runGoldenTest(t, srcDir, goldenPath)
		})
	}
}

func runGoldenTest(t *testing.T, srcDir, goldenPath string) {
	t.Helper()

	goldenData, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	var golden goldenFile
	require.NoError(t, json.Unmarshal(goldenData, &golden))

	srcDir, err = filepath.Abs(srcDir)
	require.NoError(t, err)
	engine := newTestEngine(t, WithRoot(srcDir))
	require.NoError(t, engine.IndexDirectory(context.Background(), srcDir))

	t.Run("definitions", func(t *testing.T) {
		verifyDefinitions(t, engine, golden.Definitions)
	})
	t.Run("references", func(t *testing.T) {
		verifyReferences(t, engine, srcDir, golden.References)
	})
	t.Run("unresolved", func(t *testing.T) {
		verifyUnresolved(t, engine, srcDir, golden.Unresolved)
	})
	t.Run("warnings", func(t *testing.T) {
		verifyWarnings(t, engine, golden.Warnings)
	})
}

func verifyDefinitions(t *testing.T, engine *Engine, expected []goldenDef) {
	t.Helper()
	stored, err := engine.Query().Objects(ObjectFilter{})
	require.NoError(t, err)

	type defKey struct {
		Name string
		Type string
		Doc  string
		Line int
	}
	anchors := make(map[defKey]string)
	for _, o := range stored {
		anchors[defKey{o.Name, o.ObjectType, o.Docname, o.Line}] = o.Anchor
	}

	for _, exp := range expected {
		anchor, ok := anchors[defKey{exp.Name, exp.Type, exp.Doc, exp.Line}]
		if !assert.True(t, ok, "missing definition: %+v", exp) {
			continue
		}
		if exp.Anchor != "" {
			assert.Equal(t, exp.Anchor, anchor, "anchor of %s", exp.Name)
		}
	}
}

func verifyReferences(t *testing.T, engine *Engine, srcDir string, expected []goldenRef) {
	t.Helper()
	q := engine.Query()

	for _, exp := range expected {
		fromFile := filepath.Join(srcDir, exp.From.File)
		locs, err := q.DefinitionAt(fromFile, exp.From.Line, exp.From.Col)
		require.NoError(t, err, "error resolving reference from %s:%d:%d", exp.From.File, exp.From.Line, exp.From.Col)

		found := false
		for _, loc := range locs {
			if loc.Docname != exp.To.Doc || loc.Line != exp.To.Line {
				continue
			}
			hover, err := q.HoverAt(fromFile, exp.From.Line, exp.From.Col)
			require.NoError(t, err)
			if hover != nil && hover.Name == exp.To.Name {
				found = true
				break
			}
		}
		assert.True(t, found, "reference from %s:%d:%d should resolve to %s in %s:%d (got %v)",
			exp.From.File, exp.From.Line, exp.From.Col, exp.To.Name, exp.To.Doc, exp.To.Line, locs)
	}
}

func verifyUnresolved(t *testing.T, engine *Engine, srcDir string, expected []goldenLoc) {
	t.Helper()
	q := engine.Query()

	for _, exp := range expected {
		path := filepath.Join(srcDir, exp.File)
		hover, err := q.HoverAt(path, exp.Line, exp.Col)
		require.NoError(t, err)
		if assert.NotNil(t, hover, "no reference at %s:%d:%d", exp.File, exp.Line, exp.Col) {
			assert.False(t, hover.Resolved, "reference at %s:%d:%d should not resolve", exp.File, exp.Line, exp.Col)
		}
	}
}

func verifyWarnings(t *testing.T, engine *Engine, expected []goldenWarning) {
	t.Helper()
	warnings, err := engine.Warnings()
	require.NoError(t, err)

	var actual []goldenWarning
	for _, w := range warnings {
		actual = append(actual, goldenWarning{Doc: w.Docname, Line: w.Line, Message: w.Message})
	}
	assert.ElementsMatch(t, expected, actual)
}
