package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppdomain/internal/parser"
)

func TestParseStandalone(t *testing.T) {
	t.Parallel()

	sym, err := ParseStandalone("cpp:function", "void ns::f(int a)", parser.DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, sym.Declaration)
	assert.Equal(t, StandaloneDocname, sym.Docname)
	assert.Equal(t, "function", sym.Declaration.DirectiveType)
	assert.Equal(t, "ns::f", sym.QualifiedName())
	assert.Equal(t, []string{"_CPPv4N2ns1fEi", "_CPPv3N2ns1fEi", "_CPPv2N2ns1fEi", "ns::f__i"}, sym.Declaration.IDs())
}

func TestParseStandalone_Anonymous(t *testing.T) {
	t.Parallel()

	sym, err := ParseStandalone("class", "@data::Inner", parser.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "[anonymous]::Inner", sym.QualifiedName())
	// anonymous names have no id before version 3
	assert.Len(t, sym.Declaration.IDs(), 2)
}

func TestParseStandalone_Errors(t *testing.T) {
	t.Parallel()

	_, err := ParseStandalone("namespace", "ns", parser.DefaultConfig())
	assert.ErrorContains(t, err, `unknown declaration kind "namespace"`)

	_, err = ParseStandalone("function", "void (", parser.DefaultConfig())
	assert.Error(t, err)

	_, err = ParseStandalone("member", "int a b", parser.DefaultConfig())
	assert.Error(t, err)
}
