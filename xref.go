package cppdomain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/document"
	"github.com/jward/cppdomain/internal/parser"
	"github.com/jward/cppdomain/internal/symbol"
)

// objectTypeRoles lists, per object type, the roles that may link to it.
// The first role is the one a generic reference is reported as.
var objectTypeRoles = map[string][]string{
	ast.ObjectClass:         {"class", "struct", "identifier", "type"},
	ast.ObjectUnion:         {"union", "identifier", "type"},
	ast.ObjectFunction:      {"func", "identifier", "type"},
	ast.ObjectMember:        {"member", "var", "identifier"},
	ast.ObjectType:          {"identifier", "type"},
	ast.ObjectConcept:       {"concept", "identifier"},
	ast.ObjectEnum:          {"enum", "identifier", "type"},
	ast.ObjectEnumerator:    {"enumerator", "identifier"},
	ast.ObjectFunctionParam: {"identifier", "member", "var"},
	ast.ObjectTemplateParam: {"identifier", "class", "struct", "union", "member", "var", "type"},
}

// roleObjectTypes is objectTypeRoles inverted.
var roleObjectTypes = func() map[string][]string {
	order := []string{
		ast.ObjectClass, ast.ObjectUnion, ast.ObjectFunction, ast.ObjectMember, ast.ObjectType,
		ast.ObjectConcept, ast.ObjectEnum, ast.ObjectEnumerator, ast.ObjectFunctionParam, ast.ObjectTemplateParam,
	}
	res := map[string][]string{}
	for _, objectType := range order {
		for _, role := range objectTypeRoles[objectType] {
			res[role] = append(res[role], objectType)
		}
	}
	return res
}()

func roleAccepts(role, objectType string) bool {
	if role == "any" {
		return true
	}
	for _, t := range roleObjectTypes[role] {
		if t == objectType {
			return true
		}
	}
	return false
}

var anonIdentifierRE = regexp.MustCompile(`(@[a-zA-Z0-9_])[a-zA-Z0-9_]*\b`)

type roleText struct {
	title    string
	target   string
	explicit bool
	// disabled references ("!" prefix) are shown but never linked
	disabled bool
}

// processRole derives the title and target of a role occurrence the way
// it is displayed: anonymous names are shown as "[anonymous]", "~" keeps
// only the last component of the title and func roles get their
// parentheses normalized.
func processRole(role string, ref *document.Ref, addFunctionParentheses bool) roleText {
	rt := roleText{target: ref.Target, title: ref.Title, explicit: ref.Title != ""}
	if strings.HasPrefix(rt.target, "!") {
		rt.disabled = true
		rt.target = rt.target[1:]
	}
	if !rt.explicit {
		rt.title = rt.target
	}

	if role == "func" {
		if !rt.explicit {
			rt.title = strings.TrimSuffix(rt.title, "()")
			if addFunctionParentheses {
				rt.title += "()"
			}
		}
		rt.target = strings.TrimSuffix(rt.target, "()")
	}

	if !rt.explicit {
		rt.title = anonIdentifierRE.ReplaceAllString(rt.title, "[anonymous]")
	}
	if role == "any" {
		if !rt.explicit {
			rt.title = strings.TrimSuffix(rt.title, "()")
		}
		rt.target = strings.TrimSuffix(rt.target, "()")
	}
	if !rt.explicit {
		rt.target = strings.TrimLeft(rt.target, "~")
		if strings.HasPrefix(rt.title, "~") {
			rt.title = rt.title[1:]
			if i := strings.LastIndex(rt.title, "::"); i != -1 {
				rt.title = rt.title[i+2:]
			}
		}
	}
	return rt
}

// pendingRef is a reference recorded while reading, resolved once all
// shards are merged.
type pendingRef struct {
	role     string
	target   string
	title    string
	explicit bool
	disabled bool

	line, col, endCol int

	// scope is the key of the symbol the reference occurs in
	scope    ast.LookupKey
	siblings []ast.LookupKey
	// signature refs link names inside described signatures and
	// expressions. They are not part of the document's references.
	signature bool
	source    *document.Ref
}

// Reference is a role occurrence of a document and, when resolved, its
// target.
type Reference struct {
	Docname string
	Line    int
	Col     int
	EndCol  int
	Role    string
	// Target is the processed target text.
	Target string
	Title  string

	Resolved bool
	// Disabled is set for "!" references, which never link.
	Disabled      bool
	TargetDocname string
	TargetAnchor  string
	// TargetName is the display name of the target. For unresolved
	// references it is the target qualified with the enclosing scope.
	TargetName string
	TargetType string
}

// Expression is an expr or texpr role occurrence.
type Expression struct {
	Docname string
	Line    int
	Col     int
	Role    string
	Text    string
	// Signature is the rendered expression with its names linked, nil
	// when the text could not be parsed.
	Signature *SigNode
}

// Resolution is the target of a resolved reference.
type Resolution struct {
	Docname string
	Anchor  string
	// DisplayName is the qualified name of the target, or the whole
	// declaration for references written as a declaration.
	DisplayName string
	ObjectType  string
	// Title is the text the reference is shown with.
	Title string
	// Role is the role a generic reference resolves as, e.g. "cpp:class".
	// Only ResolveAny sets it.
	Role string
}

type warnFunc func(typ, subtype, msg string)

// scopeSymbol finds the symbol a reference was written in, falling back
// to the root when the scope is gone.
func (e *Engine) scopeSymbol(key ast.LookupKey) *symbol.Symbol {
	if len(key) == 0 {
		return e.root
	}
	if s := e.root.DirectLookup(key); s != nil {
		return s
	}
	e.log.Debugf("scope %s not found, looking up from the root", key)
	return e.root
}

func (e *Engine) siblingSymbols(keys []ast.LookupKey) []*symbol.Symbol {
	var res []*symbol.Symbol
	for _, k := range keys {
		if s := e.root.DirectLookup(k); s != nil {
			res = append(res, s)
		}
	}
	return res
}

// isExternal reports whether name lives in one of the configured
// external roots, whose missing targets are not reported.
func (e *Engine) isExternal(name string) bool {
	name = strings.TrimLeft(name, ":")
	for _, root := range e.cfg.ExternalRoots {
		if name == root || strings.HasPrefix(name, root+"::") {
			return true
		}
	}
	return false
}

// resolve finds the target of p in the merged tree. warn may be nil.
// Caller holds e.mu.
func (e *Engine) resolve(p *pendingRef, warn warnFunc) *Resolution {
	if warn == nil {
		warn = func(string, string, string) {}
	}
	typ := p.role
	target := p.target
	if typ == "any" || typ == "func" {
		target += "()"
	}

	ns, decl, err := parser.New(target, e.cfg.Parser()).ParseXRefObject()
	if err != nil {
		shown, shownErr := target, err
		if typ == "any" || typ == "func" {
			// the error without the added parentheses is the one to show
			bare := strings.TrimSuffix(target, "()")
			if _, _, err2 := parser.New(bare, e.cfg.Parser()).ParseXRefObject(); err2 != nil {
				shown, shownErr = bare, err2
			}
		}
		warn(WarnRef, typ, fmt.Sprintf("Unparseable C++ cross-reference: %q\n%v", shown, shownErr))
		return nil
	}

	parent := e.scopeSymbol(p.scope)
	opts := symbol.LookupOptions{Type: typ, TemplateShorthand: true, MatchSelf: true, RecurseInAnon: true}
	var (
		s    *symbol.Symbol
		name *ast.NestedName
	)
	if ns != nil {
		name = ns.NestedName
		var decls []ast.TemplateParamList
		if ns.TemplatePrefix != nil {
			decls = ns.TemplatePrefix.Templates
		}
		if !name.Rooted && len(name.Names) == 1 {
			opts.Siblings = e.siblingSymbols(p.siblings)
		}
		syms, reason := parent.FindName(name, decls, opts)
		if len(syms) == 0 {
			if typ == "identifier" && reason == symbol.ReasonTemplateParamInQualified {
				// e.g. T::typeOfSomething, nothing to link
				return nil
			}
		} else {
			s = syms[0]
		}
	} else {
		name = decl.Name()
		s = parent.FindDeclaration(decl, opts)
	}
	if s == nil || s.Declaration == nil {
		text := ast.String(name)
		if !e.isExternal(text) {
			warn(WarnRef, typ, fmt.Sprintf("cpp:%s reference target not found: %s", typ, strings.TrimSuffix(target, "()")))
		}
		return nil
	}

	declaration := s.Declaration
	if !roleAccepts(typ, declaration.ObjectType) {
		warn(WarnRef, typ, fmt.Sprintf("cpp:%s targets a %s (%s).", typ, declaration.ObjectType, ast.String(s.FullNestedName())))
	}

	var display string
	if ns != nil {
		display = s.QualifiedName()
	} else {
		display = ast.DisplayString(decl)
	}

	title := p.title
	if typ != "identifier" && !p.explicit && declaration.ObjectType == ast.ObjectFunction {
		addFP := e.cfg.AddFunctionParentheses
		parens := 0
		switch {
		case ns != nil:
			if addFP && typ == "any" {
				parens++
			}
			if addFP && typ == "func" && strings.HasSuffix(title, "operator()") {
				parens++
			}
			if (typ == "any" || typ == "func") && strings.HasSuffix(title, "operator") && strings.HasSuffix(display, "operator()") {
				parens++
			}
		case addFP:
			if typ == "any" && strings.HasSuffix(display, "()") {
				parens++
			} else if typ == "func" && !strings.HasSuffix(display, "()") {
				title = strings.TrimSuffix(title, "()")
			}
		default:
			if strings.HasSuffix(display, "()") {
				parens++
			}
		}
		title += strings.Repeat("()", parens)
	}

	return &Resolution{
		Docname:     s.Docname,
		Anchor:      declaration.NewestID(),
		DisplayName: display,
		ObjectType:  declaration.ObjectType,
		Title:       title,
	}
}

// resolveDocument resolves the references and aliases of one document.
// It only reads the tree, so documents can be resolved concurrently.
func (e *Engine) resolveDocument(st *docState) {
	st.resetResolve()
	for _, p := range st.refs {
		p := p
		warn := func(typ, subtype, msg string) {
			w := Warning{Docname: st.Docname, Line: p.line, Type: typ, Subtype: subtype, Message: msg}
			e.log.Warning(w.String())
			st.resolveWarnings = append(st.resolveWarnings, w)
		}
		var res *Resolution
		if !p.disabled {
			res = e.resolve(p, warn)
		}
		if p.signature {
			continue
		}
		ref := &Reference{
			Docname:  st.Docname,
			Line:     p.line,
			Col:      p.col,
			EndCol:   p.endCol,
			Role:     p.role,
			Target:   p.target,
			Title:    p.title,
			Disabled: p.disabled,
		}
		if res != nil {
			ref.Resolved = true
			ref.Title = res.Title
			ref.TargetDocname = res.Docname
			ref.TargetAnchor = res.Anchor
			ref.TargetName = res.DisplayName
			ref.TargetType = res.ObjectType
		} else if q, ok := e.fullQualifiedName(p.scope, p.target); ok {
			ref.TargetName = q
		}
		st.references = append(st.references, ref)
	}
	for _, a := range st.aliases {
		st.aliasOut = append(st.aliasOut, e.expandAlias(st, a))
	}
	st.resolved = true
}

// ResolveXRef resolves target the way a role in a document would from
// inside scope, a qualified name such as "ns::Vector". An empty scope
// resolves from the global scope. Warnings a document would get for the
// reference are returned alongside; a nil Resolution means unresolved.
func (e *Engine) ResolveXRef(role, target, scope string) (*Resolution, []Warning, error) {
	if role != "any" && len(roleObjectTypes[role]) == 0 {
		return nil, nil, fmt.Errorf("unknown C++ role %q", role)
	}
	if err := e.rlock(); err != nil {
		return nil, nil, err
	}
	defer e.mu.RUnlock()

	key, err := e.scopeKey(scope)
	if err != nil {
		return nil, nil, err
	}
	rt := processRole(role, &document.Ref{Role: role, Target: target}, e.cfg.AddFunctionParentheses)
	if rt.disabled {
		return nil, nil, nil
	}
	p := &pendingRef{role: role, target: rt.target, title: rt.title, explicit: rt.explicit, scope: key}
	var warnings []Warning
	res := e.resolve(p, func(typ, subtype, msg string) {
		warnings = append(warnings, Warning{Line: 0, Type: typ, Subtype: subtype, Message: msg})
	})
	return res, warnings, nil
}

// ResolveAny resolves target as a generic reference and reports which
// role it resolved as. Nothing is reported for unresolved targets.
func (e *Engine) ResolveAny(target, scope string) (*Resolution, error) {
	res, _, err := e.ResolveXRef("any", target, scope)
	if err != nil || res == nil {
		return nil, err
	}
	if res.ObjectType == ast.ObjectTemplateParam {
		res.Role = "cpp:templateParam"
	} else {
		res.Role = "cpp:" + objectTypeRoles[res.ObjectType][0]
	}
	return res, nil
}

// scopeKey turns a qualified scope name into a lookup key.
func (e *Engine) scopeKey(scope string) (ast.LookupKey, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" || scope == "::" {
		return nil, nil
	}
	p := parser.New(scope, e.cfg.Parser())
	ns, err := p.ParseNamespaceObject()
	if err == nil {
		err = p.AssertEnd(false)
	}
	if err != nil {
		return nil, fmt.Errorf("parse scope %q: %w", scope, err)
	}
	var decls []ast.TemplateParamList
	if ns.TemplatePrefix != nil {
		decls = ns.TemplatePrefix.Templates
	}
	syms, _ := e.root.FindName(ns.NestedName, decls, symbol.LookupOptions{
		Type:              "any",
		TemplateShorthand: true,
		MatchSelf:         true,
		RecurseInAnon:     true,
	})
	if len(syms) == 0 {
		return nil, fmt.Errorf("scope %q not found", scope)
	}
	return syms[0].LookupKey(), nil
}
