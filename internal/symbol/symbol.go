// Package symbol implements the hierarchical symbol table: one tree per
// build (or per shard of a parallel build) that declarations are added to,
// looked up in, cleared per document and merged.
package symbol

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/jward/cppdomain/internal/ast"
)

var log = commonlog.GetLogger("cppdomain.symbol")

// ReasonTemplateParamInQualified is returned by FindName when a qualified
// lookup went through a template parameter. Such names cannot be resolved
// and should not be warned about.
const ReasonTemplateParamInQualified = "templateParamInQualified"

// DuplicateSymbolError reports a declaration whose identity is already
// declared at another location. Symbol is the symbol that is kept.
type DuplicateSymbolError struct {
	Symbol      *Symbol
	Declaration *ast.Declaration
	Docname     string
	Line        int
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("duplicate declaration %q at %s:%d, also defined at %s:%d",
		ast.String(e.Declaration), e.Docname, e.Line, e.Symbol.Docname, e.Symbol.Line)
}

// Symbol is a node of the tree. The root has no name and no declaration.
// A symbol without a declaration is a pure scope, created for a qualified
// name or a namespace directive.
type Symbol struct {
	Parent         *Symbol
	IdentOrOp      ast.IdentOrOp
	TemplateParams ast.TemplateParamList
	TemplateArgs   *ast.TemplateArgs
	Declaration    *ast.Declaration
	Docname        string
	Line           int

	children []*Symbol
	// pinned scopes were opened by a namespace directive and survive
	// ClearDoc even when empty
	pinned bool

	// set on the root only
	debugLookup bool
}

// New returns an empty root.
func New() *Symbol {
	return &Symbol{}
}

// newSymbol creates a symbol and attaches it to parent. A detached symbol
// (attach false) still knows its parent, so ids can be computed before it
// is decided whether the symbol is kept.
func newSymbol(parent *Symbol, identOrOp ast.IdentOrOp, templateParams ast.TemplateParamList,
	templateArgs *ast.TemplateArgs, decl *ast.Declaration, docname string, line int, attach bool,
) *Symbol {
	// template<typename T> class A and template<typename T> int A<T>::f()
	// must share the symbol for A.
	if templateArgs != nil && !isSpecialization(templateParams, templateArgs) {
		templateArgs = nil
	}
	s := &Symbol{
		Parent:         parent,
		IdentOrOp:      identOrOp,
		TemplateParams: templateParams,
		TemplateArgs:   templateArgs,
		Declaration:    decl,
		Docname:        docname,
		Line:           line,
	}
	s.assertInvariants()
	if attach && parent != nil {
		parent.children = append(parent.children, s)
	}
	if decl != nil {
		decl.Symbol = s
	}
	s.addTemplateAndFunctionParams()
	return s
}

func (s *Symbol) assertInvariants() {
	if s.Parent == nil {
		if s.IdentOrOp != nil || s.TemplateParams != nil || s.TemplateArgs != nil || s.Declaration != nil || s.Docname != "" {
			panic("internal error: root symbol with a name or declaration")
		}
		return
	}
	if s.IdentOrOp == nil {
		panic("internal error: symbol without a name")
	}
	if s.Declaration != nil && s.Docname == "" {
		panic("internal error: declaration without a docname")
	}
}

// isSpecialization reports whether args does not exactly repeat the names
// of params. Packs must be expanded in the arguments.
func isSpecialization(params ast.TemplateParamList, args *ast.TemplateArgs) bool {
	if params == nil {
		return true
	}
	ps := params.Params()
	if len(ps) != len(args.Args) {
		return true
	}
	if len(ps) == 0 {
		return true
	}
	for i, p := range ps {
		argText := ast.String(args.Args[i])
		argPack := strings.HasSuffix(argText, "...")
		if argPack {
			argText = strings.TrimSuffix(argText, "...")
		} else if args.PackExpansion && i == len(ps)-1 {
			argPack = true
		}
		if p.IsPack() != argPack {
			return true
		}
		if ast.String(p.Name()) != argText {
			return true
		}
	}
	return false
}

func (s *Symbol) fillEmpty(decl *ast.Declaration, docname string, line int) {
	if s.Declaration != nil || s.Docname != "" {
		panic("internal error: filling a symbol that has a declaration")
	}
	s.Declaration = decl
	decl.Symbol = s
	s.Docname = docname
	s.Line = line
	s.assertInvariants()
	s.addTemplateAndFunctionParams()
}

// addTemplateAndFunctionParams adds a child per named template parameter
// and, for functions, per named function parameter.
func (s *Symbol) addTemplateAndFunctionParams() {
	if s.TemplateParams != nil {
		for _, tp := range s.TemplateParams.Params() {
			if tp.Identifier() == nil {
				continue
			}
			var decl *ast.Declaration
			if s.Declaration != nil {
				decl = ast.NewTemplateParamDeclaration(tp)
			}
			s.addSymbols(ast.SimpleName(tp.Identifier()), nil, decl, s.Docname, s.Line)
		}
	}
	if s.Declaration == nil {
		return
	}
	for _, fp := range s.Declaration.FunctionParams() {
		if fp.Arg == nil {
			continue
		}
		nn := fp.Arg.Name()
		if nn == nil {
			continue
		}
		if nn.Rooted || len(nn.Names) != 1 {
			panic("internal error: qualified function parameter name")
		}
		s.addSymbols(nn, nil, ast.NewFunctionParamDeclaration(fp), s.Docname, s.Line)
	}
}

// Remove detaches s from its parent.
func (s *Symbol) Remove() {
	if s.Parent == nil {
		return
	}
	siblings := s.Parent.children
	for i, c := range siblings {
		if c == s {
			s.Parent.children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	s.Parent = nil
}

// Children returns the direct children in declaration order.
func (s *Symbol) Children() []*Symbol {
	return s.children
}

// ChildrenRecurseAnon returns the children, descending into anonymous
// entities as if their members were declared here.
func (s *Symbol) ChildrenRecurseAnon() []*Symbol {
	var res []*Symbol
	for _, c := range s.children {
		res = append(res, c)
		if c.IdentOrOp.IsAnon() {
			res = append(res, c.ChildrenRecurseAnon()...)
		}
	}
	return res
}

// Walk calls fn for s and every descendant, depth first.
func (s *Symbol) Walk(fn func(*Symbol)) {
	fn(s)
	for _, c := range s.children {
		c.Walk(fn)
	}
}

// All returns s and every descendant, depth first.
func (s *Symbol) All() []*Symbol {
	var res []*Symbol
	s.Walk(func(c *Symbol) { res = append(res, c) })
	return res
}

// Root returns the root of the tree s is in.
func (s *Symbol) Root() *Symbol {
	for s.Parent != nil {
		s = s.Parent
	}
	return s
}

// SetDebugLookup turns lookup tracing on or off for the whole tree.
func (s *Symbol) SetDebugLookup(on bool) {
	s.Root().debugLookup = on
}

func (s *Symbol) tracing() bool {
	return s.Root().debugLookup
}

func (s *Symbol) ancestry() []*Symbol {
	var res []*Symbol
	for c := s; c.Parent != nil; c = c.Parent {
		res = append(res, c)
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res
}

// FullNestedName is the qualified name of s from the root.
func (s *Symbol) FullNestedName() *ast.NestedName {
	res := &ast.NestedName{}
	for _, c := range s.ancestry() {
		res.Names = append(res.Names, &ast.NestedNameElement{IdentOrOp: c.IdentOrOp, TemplateArgs: c.TemplateArgs})
		res.Templates = append(res.Templates, false)
	}
	return res
}

// Decl returns the declaration of s, or nil.
func (s *Symbol) Decl() *ast.Declaration {
	return s.Declaration
}

// ParentDeclaration returns the declaration of the parent, or nil.
func (s *Symbol) ParentDeclaration() *ast.Declaration {
	if s.Parent == nil {
		return nil
	}
	return s.Parent.Declaration
}

// LookupKey captures the path to s so it can be found again with
// DirectLookup after the tree has changed.
func (s *Symbol) LookupKey() ast.LookupKey {
	var key ast.LookupKey
	for _, c := range s.ancestry() {
		step := ast.LookupStep{
			Name:           &ast.NestedNameElement{IdentOrOp: c.IdentOrOp, TemplateArgs: c.TemplateArgs},
			TemplateParams: c.TemplateParams,
		}
		if c.Declaration != nil {
			step.ID = c.Declaration.NewestID()
		}
		key = append(key, step)
	}
	return key
}

// String is a one-line description used in dumps and traces.
func (s *Symbol) String() string {
	var b strings.Builder
	if s.Parent == nil {
		b.WriteString("::")
	} else {
		if s.TemplateParams != nil {
			b.WriteString(ast.String(s.TemplateParams))
		}
		b.WriteString(ast.String(s.IdentOrOp))
		if s.TemplateArgs != nil {
			b.WriteString(ast.String(s.TemplateArgs))
		}
		if s.Declaration != nil {
			fmt.Fprintf(&b, ": {%s} %s", s.Declaration.ObjectType, ast.String(s.Declaration))
		}
	}
	if s.Docname != "" {
		fmt.Fprintf(&b, "\t(%s:%d)", s.Docname, s.Line)
	}
	return b.String()
}

// Dump renders the subtree, one symbol per line.
func (s *Symbol) Dump(indent int) string {
	var b strings.Builder
	s.dump(&b, indent)
	return b.String()
}

func (s *Symbol) dump(b *strings.Builder, indent int) {
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteString(s.String())
	b.WriteByte('\n')
	for _, c := range s.children {
		c.dump(b, indent+1)
	}
}
