package cppdomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppdomain/internal/config"
)

func warningMessages(ws []Warning) []string {
	res := make([]string, len(ws))
	for i, w := range ws {
		res[i] = w.Message
	}
	return res
}

func TestDeclarations_Output(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", vectorDoc))

	out := output(t, e, "a")
	require.Len(t, out.Declarations, 3)

	vec := out.Declarations[0]
	assert.Equal(t, "Vector", vec.Name)
	assert.Equal(t, "class", vec.Directive)
	assert.Equal(t, "class", vec.ObjectType)
	assert.Equal(t, 1, vec.Line)
	assert.Equal(t, "_CPPv46Vector", vec.IDs[0])
	assert.Equal(t, "Vector (C++ class)", vec.IndexEntry)

	pb := out.Declarations[1]
	assert.Equal(t, "Vector::push_back", pb.Name)
	assert.Equal(t, 3, pb.Line)
	assert.Equal(t, 21, pb.Col)
	assert.Equal(t, "_CPPv4N6Vector9push_backEi", pb.IDs[0])
	assert.Equal(t, "Vector::push_back (C++ function)", pb.IndexEntry)
	require.NotNil(t, pb.Signature)
	assert.Contains(t, pb.Signature.Astext(), "push_back")

	assert.Equal(t, "size", out.Declarations[2].Name)
	assert.Equal(t, "_CPPv44sizev", out.Declarations[2].IDs[0])
	assert.Empty(t, out.Warnings)
}

func TestDeclarations_StructShownAsStruct(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst(".. cpp:struct:: Point")))

	out := output(t, e, "a")
	require.Len(t, out.Declarations, 1)
	assert.Equal(t, "class", out.Declarations[0].ObjectType)
	assert.Equal(t, "Point (C++ struct)", out.Declarations[0].IndexEntry)
}

func TestDeclarations_IndexCommonPrefix(t *testing.T) {
	cfg := config.Default()
	cfg.IndexCommonPrefix = []string{"Vector::"}
	e := newTestEngine(t, WithConfig(cfg))
	update(t, e, directivesSource("a", vectorDoc))

	out := output(t, e, "a")
	assert.Equal(t, "push_back (C++ function)", out.Declarations[1].IndexEntry)
	assert.Equal(t, "Vector (C++ class)", out.Declarations[0].IndexEntry)
}

func TestDeclarations_NoIndex(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst(
		".. cpp:class:: Hidden",
		"   :no-index:",
		"",
		".. cpp:class:: Unlisted",
		"   :no-index-entry:",
	)))

	out := output(t, e, "a")
	require.Len(t, out.Declarations, 2)
	assert.Empty(t, out.Declarations[0].IDs)
	assert.Empty(t, out.Declarations[0].IndexEntry)
	assert.NotEmpty(t, out.Declarations[1].IDs)
	assert.Empty(t, out.Declarations[1].IndexEntry)

	// both still declare their names
	assert.Equal(t, []string{"Hidden", "Unlisted"}, objectNames(t, e))
	names, err := e.Names()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Unlisted": "a"}, names)
}

func TestDeclarations_MultipleSignatures(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst(
		".. cpp:function:: void f(int)",
		"                  void f(double)",
	)))

	out := output(t, e, "a")
	require.Len(t, out.Declarations, 2)
	assert.Equal(t, 1, out.Declarations[0].Line)
	assert.Equal(t, 2, out.Declarations[1].Line)
	assert.NotEqual(t, out.Declarations[0].IDs[0], out.Declarations[1].IDs[0])
}

func TestDeclarations_DuplicateInDocument(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst(
		".. cpp:class:: A",
		"",
		".. cpp:class:: A",
	)))

	out := output(t, e, "a")
	require.Len(t, out.Declarations, 2)
	assert.Empty(t, out.Declarations[1].IDs)
	require.Len(t, out.Warnings, 1)
	w := out.Warnings[0]
	assert.Equal(t, WarnDuplicate, w.Type)
	assert.Equal(t, 3, w.Line)
	assert.Equal(t, "Duplicate C++ declaration, also defined at a:1.\nDeclaration is '.. cpp:class:: A'.", w.Message)
	assert.Equal(t, []string{"A"}, objectNames(t, e))
}

func TestDeclarations_ParseError(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst(
		".. cpp:function:: void (",
		"",
		"   .. cpp:member:: int x",
	)))

	out := output(t, e, "a")
	require.NotEmpty(t, out.Warnings)
	assert.Equal(t, WarnParse, out.Warnings[0].Type)
	assert.Equal(t, 1, out.Warnings[0].Line)

	// the content lives in a scope standing in for the broken declaration
	assert.Equal(t, []string{phonyName + "::x"}, objectNames(t, e))
}

func TestDeclarations_InsideFunction(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst(
		".. cpp:function:: void f()",
		"",
		"   .. cpp:class:: Local",
	)))

	out := output(t, e, "a")
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, WarnDirective, out.Warnings[0].Type)
	assert.Contains(t, out.Warnings[0].Message, "C++ declarations inside functions are not supported.")
	assert.Equal(t, []string{"f"}, objectNames(t, e))
}

func TestDeclarations_UnknownDirective(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst(".. cpp:macro:: FOO")))

	out := output(t, e, "a")
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, `Unknown directive type "cpp:macro".`, out.Warnings[0].Message)
}

func TestNamespaces(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst(
		".. cpp:namespace:: lib",
		"",
		".. cpp:class:: Widget",
		"",
		".. cpp:namespace-push:: detail",
		"",
		".. cpp:function:: void helper()",
		"",
		".. cpp:namespace-pop::",
		"",
		".. cpp:function:: void run()",
		"",
		".. cpp:namespace-pop::",
		"",
		".. cpp:function:: void top()",
		"",
		".. cpp:namespace-pop::",
	)))

	assert.Equal(t, []string{"lib::Widget", "lib::detail::helper", "lib::run", "top"}, objectNames(t, e))
	out := output(t, e, "a")
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, WarnNamespace, out.Warnings[0].Type)
	assert.Equal(t, 17, out.Warnings[0].Line)
	assert.Equal(t, "C++ namespace pop on empty stack. Defaulting to global scope.", out.Warnings[0].Message)
}

func TestNamespaces_NullResetsToGlobal(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst(
		".. cpp:namespace:: lib",
		"",
		".. cpp:namespace:: nullptr",
		"",
		".. cpp:class:: Global",
	)))
	assert.Equal(t, []string{"Global"}, objectNames(t, e))
}

func TestNamespaces_AreDocumentLocal(t *testing.T) {
	e := newTestEngine(t)
	update(t, e,
		directivesSource("a", rst(".. cpp:namespace:: lib")),
		directivesSource("b", rst(".. cpp:class:: Global")),
	)
	assert.Equal(t, []string{"Global"}, objectNames(t, e))
}

func TestEnumerators_InjectedForUnscopedEnums(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst(
		".. cpp:enum:: Color",
		"",
		"   .. cpp:enumerator:: red",
		"",
		".. cpp:enum-class:: Shape",
		"",
		"   .. cpp:enumerator:: circle",
	)))

	objs, err := e.Objects()
	require.NoError(t, err)
	anchors := map[string]string{}
	for _, o := range objs {
		anchors[o.Name] = o.Anchor
	}
	assert.Contains(t, anchors, "Color::red")
	assert.Contains(t, anchors, "red")
	assert.Equal(t, "_CPPv4N5Color3redE", anchors["Color::red"])
	assert.Equal(t, anchors["Color::red"], anchors["red"])

	assert.Contains(t, anchors, "Shape::circle")
	assert.NotContains(t, anchors, "circle")
}

func TestEnumerators_QualifiedName(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst(
		".. cpp:enum:: E",
		"",
		".. cpp:enumerator:: E::A",
	)))

	assert.ElementsMatch(t, []string{"E", "E::A", "A"}, objectNames(t, e))
	out := output(t, e, "a")
	assert.Empty(t, out.Warnings)
}

func TestEnumerators_ExistingNameIsKept(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst(
		".. cpp:member:: int red",
		"",
		".. cpp:enum:: Color",
		"",
		"   .. cpp:enumerator:: red",
	)))

	objs, err := e.Objects()
	require.NoError(t, err)
	var reds []Object
	for _, o := range objs {
		if o.Name == "red" {
			reds = append(reds, o)
		}
	}
	require.Len(t, reds, 1)
	assert.Equal(t, "member", reds[0].ObjectType)
}

func TestExpressions(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst(
		".. cpp:class:: Vector",
		"",
		"The value :cpp:expr:`sizeof(Vector) + 1` and the type :cpp:texpr:`const Vector &`.",
		"",
		"Broken: :cpp:expr:`1 +`.",
	)))

	out := output(t, e, "a")
	require.Len(t, out.Expressions, 3)
	assert.Equal(t, "expr", out.Expressions[0].Role)
	assert.Equal(t, "sizeof(Vector) + 1", out.Expressions[0].Text)
	require.NotNil(t, out.Expressions[0].Signature)
	assert.Equal(t, "texpr", out.Expressions[1].Role)
	require.NotNil(t, out.Expressions[1].Signature)
	assert.Nil(t, out.Expressions[2].Signature)

	// expressions are not role references
	assert.Empty(t, out.References)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, WarnParse, out.Warnings[0].Type)
	assert.Contains(t, out.Warnings[0].Message, `Unparseable C++ expression: "1 +"`)
}

func TestUnknownRole(t *testing.T) {
	e := newTestEngine(t)
	update(t, e, directivesSource("a", rst("See :cpp:macro:`FOO`.")))

	out := output(t, e, "a")
	assert.Empty(t, out.References)
	assert.Equal(t, []string{`Unknown C++ role "macro".`}, warningMessages(out.Warnings))
}
