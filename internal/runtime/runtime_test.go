package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/risor-io/risor/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- File kind detection tests ---

func TestKindForFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"index.rst", KindDirectives, true},
		{"notes.txt", KindDirectives, true},
		{"vector.h", KindHeader, true},
		{"vector.hpp", KindHeader, true},
		{"VECTOR.HXX", KindHeader, true},
		{"algo.hh", KindHeader, true},
		{"main.cpp", "", false},
		{"README.md", "", false},
		{"Makefile", "", false},
	}
	for _, tt := range tests {
		got, ok := KindForFile(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestParserForLanguage(t *testing.T) {
	t.Parallel()

	for _, lang := range []string{"c", "cpp"} {
		l, ok := ParserForLanguage(lang)
		assert.True(t, ok, lang)
		assert.NotNil(t, l, lang)
	}
	_, ok := ParserForLanguage("go")
	assert.False(t, ok)

	lang, ok := LanguageForFile("a/b.h")
	require.True(t, ok)
	assert.Equal(t, "cpp", lang)
}

// --- Script evaluation tests ---

func TestRunSource_ReturnsFinalExpression(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	result, err := rt.RunSource(context.Background(), `x := 40 + offset
x`, map[string]any{"offset": 2})
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.Interface())
}

func TestRunScript_MissingFile(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(t.TempDir())
	_, err := rt.RunScript(context.Background(), "nope.risor", nil)
	assert.Error(t, err)
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()
	mapFS := fstest.MapFS{
		"conf/conf.risor": &fstest.MapFile{Data: []byte(`conf := {}`)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	src, err := rt.LoadScript("/conf/conf.risor")
	require.NoError(t, err)
	assert.Equal(t, "conf := {}", src)
}

// --- Configuration tests ---

func writeConf(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.risor")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestLoadConfig_AllSettings(t *testing.T) {
	t.Parallel()
	path := writeConf(t, `
prefixes := ["ns::", "ns::detail::"]
conf := {
	"cpp_index_common_prefix": prefixes,
	"cpp_maximum_signature_line_length": 60,
	"cpp_id_attributes": ["API_EXPORT"],
	"cpp_paren_attributes": ["ALIGNED"],
	"add_function_parentheses": false,
	"cpp_debug_lookup": true,
	"cpp_debug_show_tree": false,
	"cpp_external_roots": ["std", "boost"]
}
conf
`)
	cfg, err := LoadConfig(context.Background(), path)
	require.NoError(t, err)

	// longest shared prefix first
	assert.Equal(t, []string{"ns::detail::", "ns::"}, cfg.IndexCommonPrefix)
	assert.Equal(t, 60, cfg.MaximumSignatureLineLength)
	assert.Equal(t, []string{"API_EXPORT"}, cfg.IDAttributes)
	assert.Equal(t, []string{"ALIGNED"}, cfg.ParenAttributes)
	assert.False(t, cfg.AddFunctionParentheses)
	assert.True(t, cfg.DebugLookup)
	assert.Equal(t, []string{"std", "boost"}, cfg.ExternalRoots)
}

func TestLoadConfig_DefaultsForMissingKeys(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig(context.Background(), writeConf(t, "c := {\"cpp_maximum_signature_line_length\": 80}\nc"))
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.MaximumSignatureLineLength)
	assert.True(t, cfg.AddFunctionParentheses)
	assert.Equal(t, []string{"std"}, cfg.ExternalRoots)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"unknown key", "c := {\"cpp_unknown\": 1}\nc"},
		{"not a map", "c := [\"cpp_index_common_prefix\"]\nc"},
		{"wrong type", "c := {\"cpp_id_attributes\": \"API\"}\nc"},
		{"wrong element type", "c := {\"cpp_id_attributes\": [1]}\nc"},
		{"negative length", "c := {\"cpp_maximum_signature_line_length\": -1}\nc"},
		{"syntax error", `{"a": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(context.Background(), writeConf(t, tt.src))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_ImportsHelpers(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "project.risor"), []byte(`
func roots() {
	return ["std", "fmt"]
}
`), 0644))
	conf := filepath.Join(dir, "conf.risor")
	require.NoError(t, os.WriteFile(conf, []byte(`
import project
conf := {"cpp_external_roots": project.roots()}
conf
`), 0644))

	cfg, err := LoadConfig(context.Background(), conf)
	require.NoError(t, err)
	assert.Equal(t, []string{"std", "fmt"}, cfg.ExternalRoots)
}

func TestConfigFromObject_NonMap(t *testing.T) {
	t.Parallel()
	_, err := ConfigFromObject(object.NewString("x"))
	assert.Error(t, err)
}

// --- Builtin tests ---

func TestParseSignature_Builtin(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	result, err := rt.RunSource(context.Background(), `
info := parse_signature("function", "void ns::f(int a)")
info`, nil)
	require.NoError(t, err)

	info, ok := result.Interface().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ns::f", info["name"])
	assert.Equal(t, "function", info["object_type"])
	assert.Equal(t, "void ns::f(int a)", info["display"])
	ids, ok := info["ids"].([]any)
	require.True(t, ok)
	require.Len(t, ids, 4)
	assert.Equal(t, "_CPPv4N2ns1fEi", ids[0])
}

func TestParseSignature_Errors(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	_, err := rt.RunSource(context.Background(), `parse_signature("function", "void (")`, nil)
	assert.Error(t, err)
	_, err = rt.RunSource(context.Background(), `parse_signature("namespace", "ns")`, nil)
	assert.Error(t, err)
	_, err = rt.RunSource(context.Background(), `parse_signature("function")`, nil)
	assert.Error(t, err)
}

func TestParseSignature_TemplateHasNoV1ID(t *testing.T) {
	t.Parallel()
	info, err := parseSignature("class", "template<typename T> Vector")
	require.NoError(t, err)
	assert.Equal(t, "Vector", info.name)
	assert.Equal(t, "class", info.objectType)
	assert.Len(t, info.ids, 3)
}

func TestLog_Builtin(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	_, err := rt.RunSource(context.Background(), `log("info", "loading")
log("debug", 42)`, nil)
	require.NoError(t, err)

	_, err = rt.RunSource(context.Background(), `log("loud", "x")`, nil)
	assert.Error(t, err)
}
