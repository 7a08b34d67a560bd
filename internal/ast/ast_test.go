package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ident(name string) *Identifier { return &Identifier{Name: name} }

func qualified(names ...string) *NestedName {
	n := &NestedName{}
	for _, name := range names {
		n.Names = append(n.Names, &NestedNameElement{IdentOrOp: ident(name)})
		n.Templates = append(n.Templates, false)
	}
	return n
}

func TestNestedName_ID(t *testing.T) {
	tests := []struct {
		name    *NestedName
		version int
		want    string
	}{
		{qualified("f"), 1, "f"},
		{qualified("f"), 4, "1f"},
		{qualified("ns", "f"), 1, "ns::f"},
		{qualified("ns", "f"), 2, "N2ns1fE"},
		{qualified("std", "vector"), 4, "NSt6vectorE"},
		{qualified("size_t"), 1, "s"},
		{qualified("Vector", "~Vector"), 4, "N6VectorD0E"},
	}
	for _, tt := range tests {
		got, err := tt.name.ID(tt.version)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s v%d", String(tt.name), tt.version)
	}
}

func TestNestedName_AnonymousHasNoOldID(t *testing.T) {
	n := qualified("@a", "x")

	_, err := n.ID(2)
	require.Error(t, err)
	assert.True(t, IsNoOldID(err))
	assert.Contains(t, err.Error(), "version 2")

	id, err := n.ID(3)
	require.NoError(t, err)
	assert.Equal(t, "NUt1_a1xE", id)
}

func TestNestedName_Format(t *testing.T) {
	n := qualified("@outer", "value")
	assert.Equal(t, "@outer::value", String(n))
	assert.Equal(t, "[anonymous]::value", DisplayString(n))

	n.Rooted = true
	assert.Equal(t, "::@outer::value", String(n))

	var missing *NestedName
	assert.Equal(t, "", String(missing))
	assert.Equal(t, "", DisplayString(nil))
}

func TestSameName(t *testing.T) {
	assert.True(t, SameName(ident("f"), ident("f")))
	assert.False(t, SameName(ident("f"), ident("g")))
	assert.True(t, SameName(&OperatorBuiltin{Op: "+"}, &OperatorBuiltin{Op: "+"}))
	assert.False(t, SameName(&OperatorBuiltin{Op: "+"}, ident("+")))
	assert.True(t, SameName(nil, nil))
	assert.False(t, SameName(ident("f"), nil))
}

func TestNewCharLiteral(t *testing.T) {
	tests := []struct {
		prefix, data string
		id           string
	}{
		{"", "a", "c97"},
		{"", `\n`, "c10"},
		{"", `\101`, "c65"},
		{"", `\0`, "c0"},
		{"u8", "a", "c97"},
		{"u", `\x41`, "Ds65"},
		{"U", "é", "Di233"},
		{"L", "z", "w122"},
	}
	for _, tt := range tests {
		c, err := NewCharLiteral(tt.prefix, tt.data)
		require.NoError(t, err, tt.data)
		assert.Equal(t, tt.id, c.id(4), tt.data)
		assert.Equal(t, tt.prefix+"'"+tt.data+"'", String(c))
	}

	_, err := NewCharLiteral("", "ab")
	assert.ErrorContains(t, err, "multiple characters")
	_, err = NewCharLiteral("", `\q`)
	assert.Error(t, err)
}

func TestSigNode_Astext(t *testing.T) {
	root := NewSignature()
	root.Add(SigKeywordType, "void").Add(SigSpace, " ")
	root.Child(SigMainName).Add(SigName, "f")
	params := root.Child(SigParamList)
	params.Child(SigParam).Add(SigKeywordType, "int").Add(SigSpace, " ").Add(SigName, "a")
	params.Child(SigParam).Add(SigKeywordType, "char")

	assert.Equal(t, "void f(int a, char)", root.Astext())
	assert.Equal(t, 4, root.Len())

	var kinds []string
	root.Walk(func(n *SigNode) {
		if n.Kind == SigParam {
			kinds = append(kinds, n.Kind.String())
		}
	})
	assert.Equal(t, []string{"param", "param"}, kinds)
	assert.Equal(t, "unknown", SigKind(99).String())
}

func TestLookupKey_String(t *testing.T) {
	key := LookupKey{
		{Name: &NestedNameElement{IdentOrOp: ident("A")}, ID: "_CPPv41A"},
		{Name: &NestedNameElement{IdentOrOp: ident("inner")}},
	}
	assert.Equal(t, "A#_CPPv41A/inner", key.String())
	assert.Equal(t, "", LookupKey(nil).String())
}
