package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppdomain/internal/document"
)

const vectorHeader = `#pragma once

namespace util {

/// A growable array, see :cpp:func:` + "`util::Vector::size`" + `.
template<typename T>
class Vector : public Base {
public:
    Vector();
    /// Number of elements.
    int size() const;
    void push_back(const T &value);
    T *data;
private:
    int capacity_;
};

enum class Color : int { Red, Green = 2 };

using Index = unsigned long;
typedef int Count;

inline int twice(int x) { return 2 * x; }

} // namespace util

void util::outside() {}
`

func scanVector(t *testing.T) *document.Document {
	t.Helper()
	doc, err := ScanHeader(context.Background(), "util/vector.h", []byte(vectorHeader), "cpp")
	require.NoError(t, err)
	assert.Equal(t, "util/vector.h", doc.Name)
	return doc
}

func directives(nodes []document.Node) []*document.Directive {
	var res []*document.Directive
	for _, n := range nodes {
		if d, ok := n.(*document.Directive); ok {
			res = append(res, d)
		}
	}
	return res
}

func kinds(ds []*document.Directive) []string {
	res := make([]string, len(ds))
	for i, d := range ds {
		res[i] = d.Kind
	}
	return res
}

func firstSig(d *document.Directive) string {
	if len(d.Signatures) == 0 {
		return ""
	}
	return d.Signatures[0].Text
}

func TestScanHeader_TopLevel(t *testing.T) {
	t.Parallel()
	doc := scanVector(t)

	top := directives(doc.Nodes)
	assert.Equal(t, []string{"namespace-push", "class", "enum-class", "type", "type", "function", "namespace-pop"}, kinds(top))

	assert.Equal(t, "util", firstSig(top[0]))
	assert.Equal(t, 3, top[0].Line)
	assert.Equal(t, "template<typename T> Vector : public Base", firstSig(top[1]))
	assert.Equal(t, "Color : int", firstSig(top[2]))
	assert.Equal(t, "Index = unsigned long", firstSig(top[3]))
	assert.Equal(t, "int Count", firstSig(top[4]))
	assert.Equal(t, "inline int twice(int x)", firstSig(top[5]))
}

func TestScanHeader_ClassMembers(t *testing.T) {
	t.Parallel()
	doc := scanVector(t)
	class := directives(doc.Nodes)[1]

	members := directives(class.Content)
	assert.Equal(t, []string{"function", "function", "function", "member"}, kinds(members))
	assert.Equal(t, "Vector()", firstSig(members[0]))
	assert.Equal(t, "int size() const", firstSig(members[1]))
	assert.Equal(t, "void push_back(const T &value)", firstSig(members[2]))
	assert.Equal(t, "T *data", firstSig(members[3]))

	for _, m := range members {
		assert.NotContains(t, firstSig(m), "capacity_", "private members are skipped")
	}
}

func TestScanHeader_DocComments(t *testing.T) {
	t.Parallel()
	doc := scanVector(t)
	class := directives(doc.Nodes)[1]

	require.NotEmpty(t, class.Content)
	p, ok := class.Content[0].(*document.Paragraph)
	require.True(t, ok, "doc comment becomes the first content node")
	assert.Equal(t, 5, p.Line)
	require.Len(t, p.Refs, 1)
	assert.Equal(t, "func", p.Refs[0].Role)
	assert.Equal(t, "util::Vector::size", p.Refs[0].Target)
	assert.Equal(t, 5, p.Refs[0].Line)
	assert.Equal(t, 26, p.Refs[0].Col)

	size := directives(class.Content)[1]
	require.NotEmpty(t, size.Content)
	sp, ok := size.Content[0].(*document.Paragraph)
	require.True(t, ok)
	assert.Equal(t, []string{"Number of elements."}, sp.Lines)
}

func TestScanHeader_Enumerators(t *testing.T) {
	t.Parallel()
	doc := scanVector(t)
	enum := directives(doc.Nodes)[2]

	enumerators := directives(enum.Content)
	require.Len(t, enumerators, 2)
	assert.Equal(t, "enumerator", enumerators[0].Kind)
	assert.Equal(t, "Red", firstSig(enumerators[0]))
	assert.Equal(t, "Green = 2", firstSig(enumerators[1]))
}

func TestScanHeader_StructDefaultsToPublic(t *testing.T) {
	t.Parallel()
	src := `struct Point {
    int x, y;
    /* plain comment */ double norm() const;
};
`
	doc, err := ScanHeader(context.Background(), "point.h", []byte(src), "cpp")
	require.NoError(t, err)

	top := directives(doc.Nodes)
	require.Len(t, top, 1)
	assert.Equal(t, "struct", top[0].Kind)

	members := directives(top[0].Content)
	require.Len(t, members, 2)
	assert.Equal(t, "member", members[0].Kind)
	var sigs []string
	for _, s := range members[0].Signatures {
		sigs = append(sigs, s.Text)
	}
	assert.Equal(t, []string{"int x", "int y"}, sigs)
	assert.Equal(t, "double norm() const", firstSig(members[1]))
}

func TestScanHeader_ExternC(t *testing.T) {
	t.Parallel()
	src := `extern "C" {
int c_api(void *handle);
extern int c_errno;
}
`
	doc, err := ScanHeader(context.Background(), "capi.h", []byte(src), "cpp")
	require.NoError(t, err)

	top := directives(doc.Nodes)
	assert.Equal(t, []string{"function", "var"}, kinds(top))
	assert.Equal(t, "int c_api(void *handle)", firstSig(top[0]))
	assert.Equal(t, "extern int c_errno", firstSig(top[1]))
}

func TestScanHeader_UnsupportedLanguage(t *testing.T) {
	t.Parallel()
	_, err := ScanHeader(context.Background(), "x.h", []byte("int x;"), "go")
	assert.Error(t, err)
}
