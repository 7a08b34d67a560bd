package symbol

import (
	"github.com/jward/cppdomain/internal/ast"
)

// queryDocname marks the throwaway symbol FindDeclaration builds to compute
// the id of the declaration it looks for.
const queryDocname = "<query>"

// LookupOptions control FindName, FindDeclaration and FindIdentifier.
type LookupOptions struct {
	// Type is the kind of entity that is looked for, e.g. "class" or
	// "any". A lookup for a class from inside one of its constructors
	// finds the class rather than the constructor.
	Type string
	// TemplateShorthand lets a name without template parameters match a
	// templated symbol.
	TemplateShorthand bool
	// MatchSelf lets the scope the lookup starts in match the name.
	MatchSelf bool
	// RecurseInAnon looks through anonymous entities.
	RecurseInAnon bool
	// Siblings are the symbols of one multi-signature directive in
	// declaration order. A scope that is among them is searched together
	// with the scopes of the symbols declared before it.
	Siblings []*Symbol
}

type query struct {
	identOrOp      ast.IdentOrOp
	templateParams ast.TemplateParamList
	templateArgs   *ast.TemplateArgs

	templateShorthand          bool
	matchSelf                  bool
	recurseInAnon              bool
	correctPrimaryTemplateArgs bool
	siblings                   []*Symbol
}

func (q *query) matches(s *Symbol) bool {
	if s.IdentOrOp == nil || !ast.SameName(s.IdentOrOp, q.identOrOp) {
		return false
	}
	if (s.TemplateParams == nil) != (q.templateParams == nil) {
		// a query with parameters must match parameters
		if q.templateParams != nil {
			return false
		}
		if !q.templateShorthand {
			return false
		}
	}
	if q.templateParams != nil && ast.String(s.TemplateParams) != ast.String(q.templateParams) {
		return false
	}
	if (s.TemplateArgs == nil) != (q.templateArgs == nil) {
		return false
	}
	if s.TemplateArgs != nil && ast.String(s.TemplateArgs) != ast.String(q.templateArgs) {
		return false
	}
	return true
}

// siblingsAbove returns the directive siblings declared before s, nearest
// first.
func siblingsAbove(s *Symbol, siblings []*Symbol) []*Symbol {
	for i, c := range siblings {
		if c != s {
			continue
		}
		res := make([]*Symbol, 0, i)
		for j := i - 1; j >= 0; j-- {
			res = append(res, siblings[j])
		}
		return res
	}
	return nil
}

func (s *Symbol) scopes(siblings []*Symbol) []*Symbol {
	return append([]*Symbol{s}, siblingsAbove(s, siblings)...)
}

func (s *Symbol) findNamedSymbols(q query) []*Symbol {
	if q.correctPrimaryTemplateArgs && q.templateParams != nil && q.templateArgs != nil {
		// template<typename T> int A<T>::var is looked up as A
		if !isSpecialization(q.templateParams, q.templateArgs) {
			q.templateArgs = nil
		}
	}
	var res []*Symbol
	for _, scope := range s.scopes(q.siblings) {
		if q.matchSelf && q.matches(scope) {
			res = append(res, scope)
		}
		children := scope.children
		if q.recurseInAnon {
			children = scope.ChildrenRecurseAnon()
		}
		for _, c := range children {
			if q.matches(c) {
				res = append(res, c)
			}
		}
	}
	return res
}

func (s *Symbol) findFirstNamedSymbol(q query) *Symbol {
	q.siblings = nil
	res := s.findNamedSymbols(q)
	if len(res) == 0 {
		return nil
	}
	return res[0]
}

// FindIdentifier finds the first child (or s itself with matchSelf) named
// identOrOp, ignoring template parameters and arguments.
func (s *Symbol) FindIdentifier(identOrOp ast.IdentOrOp, matchSelf, recurseInAnon bool, siblings []*Symbol) *Symbol {
	for _, scope := range s.scopes(siblings) {
		if matchSelf && scope.IdentOrOp != nil && ast.SameName(scope.IdentOrOp, identOrOp) {
			return scope
		}
		children := scope.children
		if recurseInAnon {
			children = scope.ChildrenRecurseAnon()
		}
		for _, c := range children {
			if ast.SameName(c.IdentOrOp, identOrOp) {
				return c
			}
		}
	}
	return nil
}

type lookupResult struct {
	symbols        []*Symbol
	parent         *Symbol
	identOrOp      ast.IdentOrOp
	templateParams ast.TemplateParamList
	templateArgs   *ast.TemplateArgs
}

type lookupParams struct {
	// strict requires a template parameter list for every template
	// argument list, plus optionally one for the declaration itself.
	strict bool
	// climb walks up from s until the first name component is visible.
	climb bool
	typ   string

	templateShorthand          bool
	matchSelf                  bool
	recurseInAnon              bool
	correctPrimaryTemplateArgs bool
	siblings                   []*Symbol
}

// missingFunc is called when a qualifier of a nested name is not found. It
// may create the scope, or return nil and optionally a failure reason.
type missingFunc func(parent *Symbol, identOrOp ast.IdentOrOp, params ast.TemplateParamList, args *ast.TemplateArgs) (*Symbol, string)

func (s *Symbol) symbolLookup(name *ast.NestedName, templateDecls []ast.TemplateParamList, onMissing missingFunc, p lookupParams) (*lookupResult, string) {
	numTemplates := name.NumTemplates()
	if p.strict {
		if numTemplates != len(templateDecls) && numTemplates+1 != len(templateDecls) {
			panic("internal error: template parameter lists do not match the nested name " + ast.String(name))
		}
	} else if len(templateDecls) > numTemplates+1 {
		panic("internal error: too many template parameter lists for " + ast.String(name))
	}

	names := name.Names
	parent := s
	if name.Rooted {
		parent = s.Root()
	}
	if p.climb {
		first := names[0]
		if !first.IsOperator() {
			for parent.Parent != nil {
				if parent.FindIdentifier(first.IdentOrOp, p.matchSelf, p.recurseInAnon, p.siblings) != nil {
					// from inside a constructor a reference to the class
					// must walk one extra step up
					ctor := len(names) == 1 && p.typ == "class" && p.matchSelf &&
						parent.Parent != nil && ast.SameName(parent.Parent.IdentOrOp, first.IdentOrOp)
					if !ctor {
						break
					}
				}
				parent = parent.Parent
			}
		}
	}
	if parent.tracing() {
		log.Debugf("lookup %s from %s", ast.String(name), parent)
	}

	matchSelf := p.matchSelf
	next := 0
	for _, elem := range names[:len(names)-1] {
		var params ast.TemplateParamList
		if elem.TemplateArgs != nil && next < len(templateDecls) {
			params = templateDecls[next]
			next++
		}
		sym := parent.findFirstNamedSymbol(query{
			identOrOp:                  elem.IdentOrOp,
			templateParams:             params,
			templateArgs:               elem.TemplateArgs,
			templateShorthand:          p.templateShorthand,
			matchSelf:                  matchSelf,
			recurseInAnon:              p.recurseInAnon,
			correctPrimaryTemplateArgs: p.correctPrimaryTemplateArgs,
		})
		if sym == nil {
			var reason string
			sym, reason = onMissing(parent, elem.IdentOrOp, params, elem.TemplateArgs)
			if sym == nil {
				return nil, reason
			}
		}
		// having matched a qualifier, the rest must be below it
		matchSelf = false
		parent = sym
	}

	last := names[len(names)-1]
	var params ast.TemplateParamList
	if next < len(templateDecls) {
		if next+1 != len(templateDecls) {
			panic("internal error: unused template parameter lists for " + ast.String(name))
		}
		params = templateDecls[next]
	}
	symbols := parent.findNamedSymbols(query{
		identOrOp:         last.IdentOrOp,
		templateParams:    params,
		templateArgs:      last.TemplateArgs,
		templateShorthand: p.templateShorthand,
		matchSelf:         matchSelf,
		recurseInAnon:     p.recurseInAnon,
		siblings:          p.siblings,
	})
	if parent.tracing() {
		for _, sym := range symbols {
			log.Debugf("  candidate %s", sym)
		}
	}
	return &lookupResult{
		symbols:        symbols,
		parent:         parent,
		identOrOp:      last.IdentOrOp,
		templateParams: params,
		templateArgs:   last.TemplateArgs,
	}, ""
}

func templateDecls(prefix *ast.TemplatePrefix) []ast.TemplateParamList {
	if prefix == nil {
		return nil
	}
	return prefix.Templates
}

// addSymbols walks name from s, creating scopes as needed, and adds decl
// (which may be nil) at the last component.
func (s *Symbol) addSymbols(name *ast.NestedName, decls []ast.TemplateParamList, decl *ast.Declaration, docname string, line int) (*Symbol, error) {
	create := func(parent *Symbol, identOrOp ast.IdentOrOp, params ast.TemplateParamList, args *ast.TemplateArgs) (*Symbol, string) {
		return newSymbol(parent, identOrOp, params, args, nil, "", 0, true), ""
	}
	res, _ := s.symbolLookup(name, decls, create, lookupParams{strict: true, correctPrimaryTemplateArgs: true})
	makeSymbol := func(attach bool) *Symbol {
		return newSymbol(res.parent, res.identOrOp, res.templateParams, res.templateArgs, decl, docname, line, attach)
	}
	if len(res.symbols) == 0 {
		return makeSymbol(true), nil
	}
	if decl == nil {
		return res.symbols[0], nil
	}

	var noDecl, withDecl []*Symbol
	for _, sym := range res.symbols {
		if sym.Declaration == nil {
			noDecl = append(noDecl, sym)
		} else {
			withDecl = append(withDecl, sym)
		}
	}

	// The candidate stays detached until it is accepted; ids need its
	// place in the tree.
	var cand *Symbol
	if len(withDecl) > 0 {
		cand = makeSymbol(false)
		duplicate := func(existing *Symbol) (*Symbol, error) {
			if existing.Docname == docname && existing.Line == line {
				// the same directive read again
				return existing, nil
			}
			return existing, &DuplicateSymbolError{Symbol: existing, Declaration: decl, Docname: docname, Line: line}
		}
		if decl.ObjectType != ast.ObjectFunction {
			return duplicate(withDecl[0])
		}
		// overloads are told apart by id
		candID := decl.NewestID()
		for _, sym := range withDecl {
			if sym.Declaration.ObjectType != ast.ObjectFunction || sym.Declaration.NewestID() == candID {
				return duplicate(sym)
			}
		}
	}
	if len(noDecl) == 0 {
		if cand == nil {
			return makeSymbol(true), nil
		}
		cand.Parent.children = append(cand.Parent.children, cand)
		return cand, nil
	}
	// a scope opened earlier, e.g. by a namespace directive, is now
	// declared
	sym := noDecl[0]
	sym.fillEmpty(decl, docname, line)
	return sym, nil
}

// AddName creates the chain of scopes named by name, without declarations.
// The last scope is kept by ClearDoc even when it becomes empty.
func (s *Symbol) AddName(name *ast.NestedName, prefix *ast.TemplatePrefix) *Symbol {
	res, _ := s.addSymbols(name, templateDecls(prefix), nil, "", 0)
	res.pinned = true
	return res
}

// AddDeclaration adds decl below s. A declaration with the identity of an
// existing one at another location fails with a *DuplicateSymbolError
// carrying the existing symbol, which is also returned.
func (s *Symbol) AddDeclaration(decl *ast.Declaration, docname string, line int) (*Symbol, error) {
	if decl == nil || docname == "" {
		panic("internal error: AddDeclaration needs a declaration and a docname")
	}
	return s.addSymbols(decl.Name(), templateDecls(decl.TemplatePrefix), decl, docname, line)
}

// AddChild attaches decl directly below s under identOrOp, without any
// lookup or duplicate check. It is used for the enumerators of an unscoped
// enum, which are visible in the scope enclosing the enum as well.
func (s *Symbol) AddChild(identOrOp ast.IdentOrOp, decl *ast.Declaration, docname string, line int) *Symbol {
	if decl == nil || docname == "" {
		panic("internal error: AddChild needs a declaration and a docname")
	}
	return newSymbol(s, identOrOp, nil, nil, decl, docname, line, true)
}

// FindName looks name up from s, climbing to enclosing scopes unless the
// name is rooted. When nothing is found the reason may be
// ReasonTemplateParamInQualified.
func (s *Symbol) FindName(name *ast.NestedName, decls []ast.TemplateParamList, opts LookupOptions) ([]*Symbol, string) {
	onMissing := func(parent *Symbol, _ ast.IdentOrOp, _ ast.TemplateParamList, _ *ast.TemplateArgs) (*Symbol, string) {
		if parent.Declaration != nil && parent.Declaration.ObjectType == ast.ObjectTemplateParam {
			return nil, ReasonTemplateParamInQualified
		}
		return nil, ""
	}
	res, reason := s.symbolLookup(name, decls, onMissing, lookupParams{
		climb:             true,
		typ:               opts.Type,
		templateShorthand: opts.TemplateShorthand,
		matchSelf:         opts.MatchSelf,
		recurseInAnon:     opts.RecurseInAnon,
		siblings:          opts.Siblings,
	})
	if res == nil {
		return nil, reason
	}
	if len(res.symbols) > 0 {
		return res.symbols, ""
	}
	if res.parent.Declaration != nil && res.parent.Declaration.ObjectType == ast.ObjectTemplateParam {
		return nil, ReasonTemplateParamInQualified
	}
	// try again without template parameters and arguments
	sym := res.parent.findFirstNamedSymbol(query{
		identOrOp:         res.identOrOp,
		templateShorthand: opts.TemplateShorthand,
		matchSelf:         opts.MatchSelf,
		recurseInAnon:     opts.RecurseInAnon,
	})
	if sym == nil {
		return nil, ""
	}
	return []*Symbol{sym}, ""
}

// FindDeclaration finds the symbol declaring exactly decl, comparing
// newest ids among the symbols with its name.
func (s *Symbol) FindDeclaration(decl *ast.Declaration, opts LookupOptions) *Symbol {
	none := func(*Symbol, ast.IdentOrOp, ast.TemplateParamList, *ast.TemplateArgs) (*Symbol, string) {
		return nil, ""
	}
	res, _ := s.symbolLookup(decl.Name(), templateDecls(decl.TemplatePrefix), none, lookupParams{
		climb:             true,
		typ:               opts.Type,
		templateShorthand: opts.TemplateShorthand,
		matchSelf:         opts.MatchSelf,
		recurseInAnon:     opts.RecurseInAnon,
	})
	if res == nil || len(res.symbols) == 0 {
		return nil
	}
	// never attached, so the tree is left alone
	newSymbol(res.parent, res.identOrOp, res.templateParams, res.templateArgs, decl, queryDocname, 0, false)
	queryID := decl.NewestID()
	for _, sym := range res.symbols {
		if sym.Declaration != nil && sym.Declaration.NewestID() == queryID {
			return sym
		}
	}
	return nil
}

// DirectLookup follows a key captured with LookupKey. Steps with an id
// match the declaration with that id, pure scopes match by name.
func (s *Symbol) DirectLookup(key ast.LookupKey) *Symbol {
	cur := s
	for _, step := range key {
		var next *Symbol
		if step.ID != "" {
			for _, c := range cur.children {
				if c.Declaration != nil && c.Declaration.NewestID() == step.ID {
					next = c
					break
				}
			}
		} else {
			next = cur.findFirstNamedSymbol(query{
				identOrOp:      step.Name.IdentOrOp,
				templateParams: step.TemplateParams,
				templateArgs:   step.Name.TemplateArgs,
			})
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}
