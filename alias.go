package cppdomain

import (
	"fmt"
	"strconv"

	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/document"
	"github.com/jward/cppdomain/internal/parser"
	"github.com/jward/cppdomain/internal/symbol"
)

// pendingAlias is an alias directive waiting for the merged tree.
type pendingAlias struct {
	line     int
	sigs     []document.Signature
	scope    ast.LookupKey
	maxdepth int
	noroot   bool
}

// Alias is an alias directive expanded into the declarations it names.
type Alias struct {
	Docname string
	Line    int
	Entries []AliasEntry
}

// AliasEntry is one rendered declaration of an alias. Depth is the
// nesting below the named declarations. Entries for names that could not
// be parsed or found only carry Text.
type AliasEntry struct {
	Depth      int
	Text       string
	Name       string
	ObjectType string
	Docname    string
	Anchor     string
	Signature  *SigNode
}

func (r *reader) alias(d *document.Directive) {
	maxdepth := 1
	if v, ok := d.Options["maxdepth"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			r.warn(d.Line, WarnAlias, "cpp", "Error in C++ alias declaration. Invalid 'maxdepth' %q, must be a non-negative integer.", v)
		} else {
			maxdepth = n
		}
	}
	noroot := d.Flag("noroot")
	if noroot && maxdepth == 1 {
		r.warn(d.Line, WarnAlias, "cpp", "Error in C++ alias declaration. Requested 'noroot' but 'maxdepth' 1. "+
			"When skipping the root declaration, need 'maxdepth' 0 for infinite or at least 2.")
	}
	r.st.aliases = append(r.st.aliases, &pendingAlias{
		line:     d.Line,
		sigs:     d.Signatures,
		scope:    r.parent.LookupKey(),
		maxdepth: maxdepth,
		noroot:   noroot,
	})
}

// expandAlias renders the declarations an alias names from the merged
// tree. Caller holds e.mu.
func (e *Engine) expandAlias(st *docState, a *pendingAlias) *Alias {
	out := &Alias{Docname: st.Docname, Line: a.line}
	warn := func(format string, args ...any) {
		w := Warning{Docname: st.Docname, Line: a.line, Type: WarnAlias, Subtype: "cpp", Message: fmt.Sprintf(format, args...)}
		e.log.Warning(w.String())
		st.resolveWarnings = append(st.resolveWarnings, w)
	}

	parent := e.scopeSymbol(a.scope)
	for _, sig := range a.sigs {
		ns, decl, err := parser.New(sig.Text, e.cfg.Parser()).ParseXRefObject()
		if err != nil {
			warn("%v", err)
			out.Entries = append(out.Entries, AliasEntry{Text: sig.Text})
			continue
		}

		opts := symbol.LookupOptions{Type: "any", TemplateShorthand: true, MatchSelf: true, RecurseInAnon: true}
		var (
			found []*symbol.Symbol
			shown string
		)
		if ns != nil {
			var decls []ast.TemplateParamList
			if ns.TemplatePrefix != nil {
				decls = ns.TemplatePrefix.Templates
			}
			found, _ = parent.FindName(ns.NestedName, decls, opts)
			shown = ast.String(ns.NestedName)
		} else {
			if s := parent.FindDeclaration(decl, opts); s != nil {
				found = []*symbol.Symbol{s}
			}
			shown = ast.String(decl)
		}

		n := 0
		for _, s := range found {
			if s.Declaration != nil {
				found[n] = s
				n++
			}
		}
		found = found[:n]
		if len(found) == 0 {
			warn("Can not find C++ declaration for alias '%s'.", shown)
			out.Entries = append(out.Entries, AliasEntry{Text: sig.Text})
			continue
		}
		for _, s := range found {
			out.Entries = e.aliasEntries(out.Entries, s, 0, a.maxdepth, a.noroot)
		}
	}
	return out
}

// aliasEntries appends s and, depending on maxdepth, its descendants.
// maxdepth 0 recurses without limit and 1 renders s alone.
func (e *Engine) aliasEntries(entries []AliasEntry, s *symbol.Symbol, depth, maxdepth int, skipThis bool) []AliasEntry {
	recurse := true
	switch maxdepth {
	case 0:
	case 1:
		recurse = false
	default:
		maxdepth--
	}

	childDepth := depth
	if !skipThis {
		sig := ast.NewSignature()
		s.Declaration.Describe(sig, ast.ModeMarkName, ast.DescribeOptions{})
		entries = append(entries, AliasEntry{
			Depth:      depth,
			Text:       ast.DisplayString(s.Declaration),
			Name:       qualifiedDisplayName(s),
			ObjectType: s.Declaration.ObjectType,
			Docname:    s.Docname,
			Anchor:     s.Declaration.NewestID(),
			Signature:  sig,
		})
		childDepth++
	}
	if !recurse {
		return entries
	}
	for _, c := range s.Children() {
		if c.Declaration == nil {
			continue
		}
		if t := c.Declaration.ObjectType; t == ast.ObjectTemplateParam || t == ast.ObjectFunctionParam {
			continue
		}
		entries = e.aliasEntries(entries, c, childDepth, maxdepth, false)
	}
	return entries
}
