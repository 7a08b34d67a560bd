package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cppdomain/internal/ast"
)

// topLevel places a declaration directly under the root scope so its ids
// can be computed without a symbol table.
type topLevel struct{ decl *ast.Declaration }

func (o topLevel) FullNestedName() *ast.NestedName     { return o.decl.Name() }
func (o topLevel) Decl() *ast.Declaration              { return o.decl }
func (o topLevel) ParentDeclaration() *ast.Declaration { return o.decl }
func (o topLevel) LookupKey() ast.LookupKey            { return nil }

func parseDecl(t *testing.T, objectType, text string) *ast.Declaration {
	t.Helper()
	p := New(text, DefaultConfig())
	decl, err := p.ParseDeclaration(objectType, objectType)
	require.NoError(t, err)
	require.NoError(t, p.AssertEnd(true))
	decl.Symbol = topLevel{decl}
	return decl
}

// checkIDs compares the ids of decl without their version prefix. A
// missing version repeats the previous one; "" means no id exists.
func checkIDs(t *testing.T, decl *ast.Declaration, want map[int]string) {
	t.Helper()
	prefixes := map[int]string{2: "_CPPv2", 3: "_CPPv3", 4: "_CPPv4"}
	expected := ""
	for v := 1; v <= ast.MaxIDVersion; v++ {
		if id, ok := want[v]; ok {
			expected = id
		}
		got, err := decl.ID(v)
		if expected == "" {
			require.Error(t, err, "version %d", v)
			assert.True(t, ast.IsNoOldID(err))
			continue
		}
		require.NoError(t, err, "version %d", v)
		assert.Equal(t, prefixes[v]+expected, got, "version %d", v)
	}
}

func TestParseDeclaration_IDs(t *testing.T) {
	tests := []struct {
		objectType string
		text       string
		ids        map[int]string
	}{
		{"function", "void f(int i)", map[int]string{1: "f__i", 2: "1fi"}},
		{"function", "int get_value() const", map[int]string{1: "get_valueC", 2: "NK9get_valueEv"}},
		{"function", "operator bool() const", map[int]string{1: "castto-b-operatorC", 2: "NKcvbEv"}},
		{"function", "template<typename T> void f()", map[int]string{1: "", 2: "I0E1fv", 4: "I0E1fvv"}},
		{"member", "int a", map[int]string{1: "a__i", 2: "1a"}},
		{"member", "const std::string &name = 42", map[int]string{1: "name__ssCR", 2: "4name"}},
		{"class", "A", map[int]string{1: "A", 2: "1A"}},
		{"class", "template<typename ...T> A", map[int]string{1: "", 2: "IDpE1A"}},
		{"class", "template<int T> A", map[int]string{1: "", 2: "I_iE1A"}},
		{"type", "A = B", map[int]string{1: "", 2: "1A"}},
		{"enum", "A", map[int]string{1: "", 2: "1A"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			decl := parseDecl(t, tt.objectType, tt.text)
			assert.Equal(t, tt.text, ast.String(decl))
			checkIDs(t, decl, tt.ids)
		})
	}
}

func TestParseDeclaration_RoundTrip(t *testing.T) {
	tests := []struct {
		objectType string
		text       string
	}{
		{"function", "virtual void f() const override = 0"},
		{"function", "static constexpr int f(int a, int b = 2) noexcept"},
		{"function", "auto f() -> int"},
		{"function", "void f(int (*cb)(int))"},
		{"function", "A &operator=(const A &other)"},
		{"function", "void f(...)"},
		{"member", "int A::* p"},
		{"member", "std::vector<int> v"},
		{"member", "unsigned long long x"},
		{"member", "int arr[10]"},
		{"member", "static thread_local int x"},
		{"member", "int x{5}"},
		{"class", "A final : public B, private virtual C"},
		{"class", "template<typename T, typename U = int> Pair"},
		{"union", "U"},
		{"enum", "E : unsigned int"},
		{"enumerator", "A = std::numeric_limits<unsigned long>::max()"},
		{"concept", "template<typename T> Addable"},
		{"type", "std::vector<int> IntVector"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			decl := parseDecl(t, tt.objectType, tt.text)
			assert.Equal(t, tt.text, ast.String(decl))
		})
	}
}

func TestParseDeclaration_Errors(t *testing.T) {
	tests := []struct {
		objectType string
		text       string
		contains   string
	}{
		{"member", "long short a", "Can not have both"},
		{"member", "unsigned float a", "Can not have both"},
		{"member", "_Complex int a", "Can not have both"},
		{"function", "void f(", ""},
		{"class", "template<typename T", "Error in template parameter list."},
		{"concept", "A", "Missing template parameter list for concept."},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			p := New(tt.text, DefaultConfig())
			decl, err := p.ParseDeclaration(tt.objectType, tt.objectType)
			if err == nil {
				err = p.AssertEnd(true)
			}
			require.Error(t, err, "parsed as %q", ast.String(decl))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParseDeclaration_Visibility(t *testing.T) {
	decl := parseDecl(t, "function", "protected void f()")
	assert.Equal(t, "protected", decl.Visibility)
	assert.Equal(t, "protected void f()", ast.String(decl))

	decl = parseDecl(t, "member", "public int a")
	assert.Equal(t, "public", decl.Visibility)
	assert.Equal(t, "int a", ast.String(decl))
}

func TestParseDeclaration_Semicolon(t *testing.T) {
	decl := parseDecl(t, "member", "int a;")
	assert.True(t, decl.Semicolon)
	assert.Equal(t, "int a;", ast.String(decl))
}

func TestParseDeclaration_TemplateConsistency(t *testing.T) {
	p := New("A<int>", DefaultConfig())
	decl, err := p.ParseDeclaration("class", "class")
	require.NoError(t, err)
	require.NotNil(t, decl.TemplatePrefix)
	assert.Len(t, decl.TemplatePrefix.Templates, 1)
	assert.Equal(t, "template<> A<int>", ast.String(decl))
	require.Len(t, p.Warnings, 1)
	assert.Contains(t, p.Warnings[0], "Too many template argument lists")

	p = New("template<typename T> template<typename U> template<typename V> A", DefaultConfig())
	_, err = p.ParseDeclaration("class", "class")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Too few template argument lists")
}

func TestParseDeclaration_TrailingRequires(t *testing.T) {
	decl := parseDecl(t, "function", "template<typename T> void f() requires C<T>")
	require.NotNil(t, decl.TrailingRequires)
	checkIDs(t, decl, map[int]string{1: "", 4: "I0EIQ1CI1TEE1fvv"})
}

func TestParseDeclaration_RValueReference(t *testing.T) {
	decl := parseDecl(t, "function", "void f(A &&a)")
	assert.Equal(t, "void f(A &&a)", ast.String(decl))
	checkIDs(t, decl, map[int]string{1: "f__ARR", 2: "1fRR1A", 4: "1fO1A"})
}

func TestParseDeclaration_Fallback(t *testing.T) {
	p := New("int a = @@@", DefaultConfig())
	decl, err := p.ParseDeclaration("member", "member")
	require.NoError(t, err)
	require.NoError(t, p.AssertEnd(true))
	assert.Equal(t, "int a = @@@", ast.String(decl))
	require.Len(t, p.Warnings, 1)
	assert.Contains(t, p.Warnings[0], "Using fallback parser")

	cfg := DefaultConfig()
	cfg.AllowFallbackExpressionParsing = false
	p = New("int a = @@@", cfg)
	_, err = p.ParseDeclaration("member", "member")
	require.Error(t, err)
}

func TestParseDeclaration_Attributes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IDAttributes = []string{"MY_EXPORT"}
	cfg.ParenAttributes = []string{"MY_ALIGN"}

	for _, text := range []string{
		"[[nodiscard]] int f()",
		"MY_EXPORT int f()",
		"MY_ALIGN(16) int f()",
		"__attribute__((deprecated)) int f()",
	} {
		t.Run(text, func(t *testing.T) {
			p := New(text, cfg)
			decl, err := p.ParseDeclaration("function", "function")
			require.NoError(t, err)
			require.NoError(t, p.AssertEnd(true))
			assert.Equal(t, text, ast.String(decl))
		})
	}

	p := New("MY_EXPORT int f()", DefaultConfig())
	_, err := p.ParseDeclaration("function", "function")
	if err == nil {
		err = p.AssertEnd(true)
	}
	assert.Error(t, err)
}

func TestParseNamespaceObject(t *testing.T) {
	p := New("A::B", DefaultConfig())
	ns, err := p.ParseNamespaceObject()
	require.NoError(t, err)
	require.NoError(t, p.AssertEnd(false))
	assert.Equal(t, "A::B", ast.String(ns.NestedName))
	assert.Nil(t, ns.TemplatePrefix)
}

func TestParseXRefObject(t *testing.T) {
	p := New("A::f()", DefaultConfig())
	ns, decl, err := p.ParseXRefObject()
	require.NoError(t, err)
	require.NotNil(t, ns)
	assert.Nil(t, decl)
	assert.Equal(t, "A::f", ast.String(ns.NestedName))

	// shorthand references never warn about missing parameter lists
	p = New("A<int>::f", DefaultConfig())
	ns, _, err = p.ParseXRefObject()
	require.NoError(t, err)
	require.NotNil(t, ns.TemplatePrefix)
	assert.Empty(t, p.Warnings)

	p = New("void f(int)", DefaultConfig())
	ns, decl, err = p.ParseXRefObject()
	require.NoError(t, err)
	assert.Nil(t, ns)
	require.NotNil(t, decl)
	assert.Equal(t, "void f(int)", ast.String(decl))

	p = New("f(", DefaultConfig())
	_, _, err = p.ParseXRefObject()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error in cross-reference.")
}

func TestParseExpression(t *testing.T) {
	tests := []string{
		"5",
		"0x1F",
		"1.5f",
		"42_km",
		`"abc"`,
		"'a'",
		"true",
		"nullptr",
		"this",
		"a + b * c",
		"a * b + c",
		"a - b - c",
		"a && b || c",
		"a ? b : c",
		"a = b",
		"a += 1",
		"f(1, 2)",
		"a[0]",
		"a.b",
		"a->b",
		"a++",
		"-a",
		"!a",
		"not a",
		"sizeof(int)",
		"sizeof...(Ts)",
		"alignof(int)",
		"noexcept(f())",
		"static_cast<int>(x)",
		"typeid(int)",
		"(int)x",
		"(a + b)",
		"(... + args)",
		"(args + ...)",
		"(args + ... + 0)",
		"new int",
		"delete [] p",
		"::delete p",
		"A{1, 2}",
		"a, b",
		"std::vector<int>::size_type",
		"x .* pm",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			p := New(text, DefaultConfig())
			n, err := p.ParseExpression()
			require.NoError(t, err)
			assert.Equal(t, text, ast.String(n))
		})
	}
}

func TestParseExpression_Precedence(t *testing.T) {
	p := New("a + b * c - d", DefaultConfig())
	n, err := p.ParseExpression()
	require.NoError(t, err)

	sum, ok := n.(*ast.BinOpExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"+", "-"}, sum.Ops)
	require.Len(t, sum.Exprs, 3)
	prod, ok := sum.Exprs[1].(*ast.BinOpExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"*"}, prod.Ops)

	p = New("a & b && c", DefaultConfig())
	n, err = p.ParseExpression()
	require.NoError(t, err)
	and, ok := n.(*ast.BinOpExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"&&"}, and.Ops)
	bitand, ok := and.Exprs[0].(*ast.BinOpExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"&"}, bitand.Ops)
}

func TestParseExpression_Type(t *testing.T) {
	p := New("const int *", DefaultConfig())
	n, err := p.ParseExpression()
	require.NoError(t, err)
	_, ok := n.(*ast.Type)
	assert.True(t, ok)
	assert.Equal(t, "const int*", ast.String(n))
}

func TestParseTemplateArguments(t *testing.T) {
	decl := parseDecl(t, "member", "std::array<int, 3> a")
	typ := decl.Body.(*ast.TypeWithInit).Type
	name := typ.DeclSpecs.Trailing.(*ast.TypeName).Name
	args := name.Last().TemplateArgs
	require.NotNil(t, args)
	require.Len(t, args.Args, 2)
	_, isType := args.Args[0].(*ast.Type)
	assert.True(t, isType)
	_, isConst := args.Args[1].(*ast.TemplateArgConstant)
	assert.True(t, isConst)

	// Ts... parses as a type with a pack declarator, which leaves nothing
	// for the list-level expansion
	decl = parseDecl(t, "class", "template<typename ...Ts> A<Ts...>")
	args = decl.Name().Last().TemplateArgs
	require.NotNil(t, args)
	require.Len(t, args.Args, 1)
	assert.False(t, args.PackExpansion)
	arg, isType := args.Args[0].(*ast.Type)
	require.True(t, isType)
	_, isPack := arg.Decl.(*ast.DeclaratorParamPack)
	assert.True(t, isPack)
	assert.Equal(t, "A<Ts...>", ast.String(decl.Name()))
}

func TestParseTemplateIntroduction(t *testing.T) {
	decl := parseDecl(t, "function", "Sortable{T, ...Us} void sort(T &t)")
	require.NotNil(t, decl.TemplatePrefix)
	intro, ok := decl.TemplatePrefix.Templates[0].(*ast.TemplateIntroduction)
	require.True(t, ok)
	require.Len(t, intro.List, 2)
	assert.False(t, intro.List[0].ParameterPack)
	assert.True(t, intro.List[1].ParameterPack)
	assert.Equal(t, "Sortable{T, ...Us} void sort(T &t)", ast.String(decl))
}
