package symbol

import (
	"sort"

	"github.com/jward/cppdomain/internal/ast"
)

// ClearDoc removes every declaration made in docname. Symbols left with
// neither a declaration nor children by this are removed as well, except
// scopes opened with AddName. Scopes that were already empty stay.
func (s *Symbol) ClearDoc(docname string) {
	if s.tracing() {
		log.Debugf("clear_doc %s, tree before:\n%s", docname, s.Dump(1))
	}
	s.clearDoc(docname)
}

// clearDoc reports whether anything below s was removed.
func (s *Symbol) clearDoc(docname string) bool {
	changed := false
	kept := s.children[:0]
	for _, c := range s.children {
		cleared := c.clearDoc(docname)
		if c.Declaration != nil && c.Docname == docname {
			c.Declaration = nil
			c.Docname = ""
			c.Line = 0
			cleared = true
		}
		if cleared {
			changed = true
			if c.Declaration == nil && len(c.children) == 0 && !c.pinned {
				c.Parent = nil
				continue
			}
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(s.children); i++ {
		s.children[i] = nil
	}
	s.children = kept
	return changed
}

// Docnames returns the sorted set of documents with declarations in the
// subtree.
func (s *Symbol) Docnames() []string {
	seen := map[string]bool{}
	s.Walk(func(c *Symbol) {
		if c.Docname != "" {
			seen[c.Docname] = true
		}
	})
	res := make([]string, 0, len(seen))
	for d := range seen {
		res = append(res, d)
	}
	sort.Strings(res)
	return res
}

// MergeWith moves the subtree of other into s. Scopes with the same name
// are combined, declarations are matched by id and anything without a
// match is grafted. other is consumed. When docnames is non-nil only
// declarations from those documents are taken.
//
// A declaration conflicting with one from another location does not stop
// the merge: the one with the smaller (docname, line) is kept and every
// conflict is returned. Children are kept sorted by location, so merging
// shards in any order gives the same tree.
func (s *Symbol) MergeWith(other *Symbol, docnames []string) []*DuplicateSymbolError {
	if docnames != nil {
		allowed := map[string]bool{}
		for _, d := range docnames {
			allowed[d] = true
		}
		for _, d := range other.Docnames() {
			if !allowed[d] {
				other.clearDoc(d)
			}
		}
	}
	if s.tracing() {
		log.Debugf("merge_with, tree before:\n%s\nother:\n%s", s.Dump(1), other.Dump(1))
	}
	var conflicts []*DuplicateSymbolError
	s.mergeWith(other, &conflicts)
	if s.tracing() {
		log.Debugf("merge_with, tree after:\n%s", s.Dump(1))
	}
	return conflicts
}

func (s *Symbol) adopt(c *Symbol) {
	c.Parent = s
	s.children = append(s.children, c)
	c.assertInvariants()
}

// isParamOf reports whether c is the symbol of a template or function
// parameter of the declaration at p.
func isParamOf(c, p *Symbol) bool {
	d := c.Declaration
	if d == nil || p.Declaration == nil {
		return false
	}
	if d.ObjectType != ast.ObjectTemplateParam && d.ObjectType != ast.ObjectFunctionParam {
		return false
	}
	return c.Docname == p.Docname && c.Line == p.Line
}

func (s *Symbol) mergeWith(other *Symbol, conflicts *[]*DuplicateSymbolError) {
	children := other.children
	other.children = nil
	for _, oc := range children {
		candidates := s.findNamedSymbols(query{
			identOrOp:      oc.IdentOrOp,
			templateParams: oc.TemplateParams,
			templateArgs:   oc.TemplateArgs,
		})
		if len(candidates) == 0 {
			s.adopt(oc)
			continue
		}
		if oc.Declaration == nil {
			candidates[0].pinned = candidates[0].pinned || oc.pinned
			candidates[0].mergeWith(oc, conflicts)
			continue
		}

		// an empty scope is taken unless a declaration with the same id
		// exists
		var ours *Symbol
		queryID := oc.Declaration.NewestID()
		for _, c := range candidates {
			if c.Declaration == nil {
				ours = c
				continue
			}
			if c.Declaration.NewestID() == queryID {
				ours = c
				break
			}
		}
		if ours == nil {
			// an overload
			s.adopt(oc)
			continue
		}

		ours.pinned = ours.pinned || oc.pinned
		switch {
		case ours.Declaration == nil:
			ours.takeDeclaration(oc)
		case ours.Docname == oc.Docname && ours.Line == oc.Line:
			// the same directive merged twice, drop the copy of its
			// parameters
			oc.dropParams(oc)
		case less(oc, ours):
			dup := &DuplicateSymbolError{Symbol: ours, Declaration: ours.Declaration, Docname: ours.Docname, Line: ours.Line}
			ours.dropParams(ours)
			ours.takeDeclaration(oc)
			*conflicts = append(*conflicts, dup)
		default:
			*conflicts = append(*conflicts, &DuplicateSymbolError{
				Symbol: ours, Declaration: oc.Declaration, Docname: oc.Docname, Line: oc.Line,
			})
			oc.dropParams(oc)
		}
		ours.mergeWith(oc, conflicts)
	}
	s.sortChildren()
}

// takeDeclaration moves the declaration of other to s. Its parameter
// symbols follow in the recursive merge.
func (s *Symbol) takeDeclaration(other *Symbol) {
	s.Declaration = other.Declaration
	s.Declaration.Symbol = s
	s.Docname = other.Docname
	s.Line = other.Line
	other.Declaration = nil
	other.Docname = ""
	other.Line = 0
	s.assertInvariants()
}

// dropParams removes the parameter symbols of the declaration at owner
// from s.
func (s *Symbol) dropParams(owner *Symbol) {
	kept := s.children[:0]
	for _, c := range s.children {
		if isParamOf(c, owner) {
			c.Parent = nil
			continue
		}
		kept = append(kept, c)
	}
	s.children = kept
}

func less(a, b *Symbol) bool {
	if a.Docname != b.Docname {
		return a.Docname < b.Docname
	}
	return a.Line < b.Line
}

type sortKey struct {
	docname  string
	line     int
	identity string
}

// location is where s was declared or, for a pure scope, where the first
// declaration below it is. Empty scopes have no location.
func (s *Symbol) location() (string, int, bool) {
	if s.Declaration != nil {
		return s.Docname, s.Line, true
	}
	found := false
	var docname string
	var line int
	for _, c := range s.children {
		d, l, ok := c.location()
		if !ok {
			continue
		}
		if !found || d < docname || (d == docname && l < line) {
			docname, line, found = d, l, true
		}
	}
	return docname, line, found
}

func (s *Symbol) sortKey() sortKey {
	docname, line, _ := s.location()
	identity := ast.String(s.IdentOrOp)
	if s.TemplateParams != nil {
		identity = ast.String(s.TemplateParams) + identity
	}
	if s.TemplateArgs != nil {
		identity += ast.String(s.TemplateArgs)
	}
	return sortKey{docname: docname, line: line, identity: identity}
}

func (k sortKey) less(o sortKey) bool {
	if k.docname != o.docname {
		return k.docname < o.docname
	}
	if k.line != o.line {
		return k.line < o.line
	}
	// symbols sharing a location come from one document and keep their
	// order, empty scopes may come from anywhere
	return k.docname == "" && k.identity < o.identity
}

// sortChildren orders the children by location.
func (s *Symbol) sortChildren() {
	keys := make(map[*Symbol]sortKey, len(s.children))
	for _, c := range s.children {
		keys[c] = c.sortKey()
	}
	sort.SliceStable(s.children, func(i, j int) bool {
		return keys[s.children[i]].less(keys[s.children[j]])
	})
}
