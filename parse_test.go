package cppdomain

import (
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppdomain/internal/config"
)

func TestParseDeclaration(t *testing.T) {
	t.Parallel()

	d, err := ParseDeclaration("cpp:function", "void ns::f(int a)", config.Default())
	require.NoError(t, err)
	assert.Equal(t, "function", d.Directive)
	assert.Equal(t, "function", d.ObjectType)
	assert.Equal(t, "ns::f", d.Name)
	require.Len(t, d.IDs, 4)
	assert.Equal(t, "_CPPv4N2ns1fEi", d.IDs[0])
	assert.Equal(t, "void ns::f(int a)", DeclarationTerminal(d, termenv.Ascii))
}

func TestParseDeclaration_Errors(t *testing.T) {
	t.Parallel()

	_, err := ParseDeclaration("function", "void (", config.Default())
	assert.Error(t, err)
	_, err = ParseDeclaration("namespace", "ns", config.Default())
	assert.ErrorContains(t, err, "unknown declaration kind")
}
