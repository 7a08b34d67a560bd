package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.True(t, c.AddFunctionParentheses)
	assert.Equal(t, []string{"std"}, c.ExternalRoots)
	require.NoError(t, c.Validate())
	assert.True(t, c.Parser().AllowFallbackExpressionParsing)
}

func TestNormalize_LongestFirst(t *testing.T) {
	c := Config{IndexCommonPrefix: []string{"awesome::", "awesome::very::", "a::"}}
	c.Normalize()
	assert.Equal(t, []string{"awesome::very::", "awesome::", "a::"}, c.IndexCommonPrefix)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.MaximumSignatureLineLength = -1
	assert.Error(t, c.Validate())

	c = Default()
	c.ExternalRoots = append(c.ExternalRoots, "")
	assert.Error(t, c.Validate())
}

func TestHash_IgnoresDebugToggles(t *testing.T) {
	a := Default()
	b := Default()
	b.DebugLookup = true
	b.DebugShowTree = true
	assert.Equal(t, a.Hash(), b.Hash())

	b.MaximumSignatureLineLength = 80
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestParser_Attributes(t *testing.T) {
	c := Default()
	c.IDAttributes = []string{"MY_EXPORT"}
	c.ParenAttributes = []string{"MY_ALIGN"}
	p := c.Parser()
	assert.Equal(t, []string{"MY_EXPORT"}, p.IDAttributes)
	assert.Equal(t, []string{"MY_ALIGN"}, p.ParenAttributes)
}
