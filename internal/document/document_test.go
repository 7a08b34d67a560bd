package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `Vectors
=======

.. cpp:namespace-push:: util

.. cpp:class:: template<typename T> Vector
   :no-index-entry:

   A growable array, see :cpp:func:` + "`push_back`" + `.

   .. cpp:function:: void push_back(const T &value)
                     void push_back(T &&value)
      :single-line-parameter-list:

      Appends. Use :cpp:func:` + "`~Vector::size`" + ` and :cpp:class:` + "`the vector <util::Vector>`" + `.

.. cpp:namespace-pop::
`

func TestParse_Structure(t *testing.T) {
	doc := Parse("vectors", sample)
	require.Len(t, doc.Nodes, 4)

	title, ok := doc.Nodes[0].(*Paragraph)
	require.True(t, ok)
	assert.Equal(t, []string{"Vectors", "======="}, title.Lines)

	push := doc.Nodes[1].(*Directive)
	assert.Equal(t, "namespace-push", push.Kind)
	assert.Equal(t, []Signature{{Text: "util", Line: 4, Col: 24}}, push.Signatures)

	class := doc.Nodes[2].(*Directive)
	assert.Equal(t, "class", class.Kind)
	assert.Equal(t, 6, class.Line)
	assert.True(t, class.Flag("no-index-entry"))
	assert.False(t, class.Flag("noroot"))
	require.Len(t, class.Content, 2)

	fn := class.Content[1].(*Directive)
	assert.Equal(t, "function", fn.Kind)
	assert.Equal(t, 3, fn.Col)
	require.Len(t, fn.Signatures, 2)
	assert.Equal(t, "void push_back(const T &value)", fn.Signatures[0].Text)
	assert.Equal(t, Signature{Text: "void push_back(T &&value)", Line: 12, Col: 21}, fn.Signatures[1])
	assert.True(t, fn.Flag("single-line-parameter-list"))
	require.Len(t, fn.Content, 1)

	pop := doc.Nodes[3].(*Directive)
	assert.Equal(t, "namespace-pop", pop.Kind)
	assert.Empty(t, pop.Signatures)
}

func TestParse_Refs(t *testing.T) {
	doc := Parse("vectors", sample)
	refs := doc.Refs()
	require.Len(t, refs, 3)

	assert.Equal(t, "func", refs[0].Role)
	assert.Equal(t, "push_back", refs[0].Target)
	assert.Equal(t, 9, refs[0].Line)

	assert.Equal(t, "~Vector::size", refs[1].Target)
	assert.Empty(t, refs[1].Title)

	assert.Equal(t, "class", refs[2].Role)
	assert.Equal(t, "util::Vector", refs[2].Target)
	assert.Equal(t, "the vector", refs[2].Title)
}

func TestParse_TemplateArgsAreNotTitles(t *testing.T) {
	doc := Parse("d", "See :cpp:class:`Vector<int>`.\n")
	refs := doc.Refs()
	require.Len(t, refs, 1)
	assert.Equal(t, "Vector<int>", refs[0].Target)
	assert.Empty(t, refs[0].Title)
}

func TestParse_OptionValues(t *testing.T) {
	doc := Parse("d", ".. cpp:alias:: A\n   B\n   :maxdepth: 2\n   :noroot:\n")
	require.Len(t, doc.Nodes, 1)
	alias := doc.Nodes[0].(*Directive)
	assert.Len(t, alias.Signatures, 2)
	assert.Equal(t, "2", alias.Options["maxdepth"])
	assert.True(t, alias.Flag("noroot"))
}

func TestWalk_Stack(t *testing.T) {
	doc := Parse("vectors", sample)
	var depths []int
	doc.Walk(func(n Node, stack []*Directive) {
		if d, ok := n.(*Directive); ok {
			depths = append(depths, len(stack))
			if d.Kind == "function" {
				require.Len(t, stack, 1)
				assert.Equal(t, "class", stack[0].Kind)
			}
		}
	})
	assert.Equal(t, []int{0, 0, 1, 0}, depths)
}

func TestAt(t *testing.T) {
	doc := Parse("vectors", sample)

	ref, _, _ := doc.At(9, 27)
	require.NotNil(t, ref)
	assert.Equal(t, "push_back", ref.Target)

	_, dir, sig := doc.At(12, 30)
	require.NotNil(t, dir)
	assert.Equal(t, "function", dir.Kind)
	assert.Equal(t, "void push_back(T &&value)", sig.Text)

	ref, dir, _ = doc.At(1, 0)
	assert.Nil(t, ref)
	assert.Nil(t, dir)
}

func TestObjectType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind string
		want string
		ok   bool
	}{
		{"struct", "class", true},
		{"var", "member", true},
		{"enum-class", "enum", true},
		{"enumerator", "enumerator", true},
		{"namespace", "", false},
		{"alias", "", false},
	}
	for _, tt := range tests {
		got, ok := ObjectType(tt.kind)
		assert.Equal(t, tt.ok, ok, tt.kind)
		assert.Equal(t, tt.want, got, tt.kind)
	}
}

func TestNewParagraph(t *testing.T) {
	t.Parallel()
	p := NewParagraph(10, []int{4, 3}, []string{"Returns the size.", "See :cpp:func:`grow`."})
	assert.Equal(t, 10, p.Line)
	assert.Equal(t, 4, p.Col)
	assert.Equal(t, []string{"Returns the size.", "See :cpp:func:`grow`."}, p.Lines)
	require.Len(t, p.Refs, 1)
	r := p.Refs[0]
	assert.Equal(t, "grow", r.Target)
	assert.Equal(t, 11, r.Line)
	assert.Equal(t, 7, r.Col)
}
