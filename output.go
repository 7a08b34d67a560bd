package cppdomain

import (
	"fmt"
	"sort"

	"github.com/muesli/termenv"

	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/render"
)

// Output is everything the build produced for one document.
type Output struct {
	Docname      string
	Declarations []*Declaration
	References   []*Reference
	Expressions  []*Expression
	Aliases      []*Alias
	Warnings     []Warning
}

// Documents returns the docnames of the build in order.
func (e *Engine) Documents() ([]string, error) {
	if err := e.rlock(); err != nil {
		return nil, err
	}
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.docs))
	for name := range e.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Output returns the results of a document. It reports false for unknown
// docnames.
func (e *Engine) Output(docname string) (*Output, bool, error) {
	if err := e.rlock(); err != nil {
		return nil, false, err
	}
	defer e.mu.RUnlock()
	st := e.docs[docname]
	if st == nil {
		return nil, false, nil
	}
	return &Output{
		Docname:      docname,
		Declarations: st.decls,
		References:   st.references,
		Expressions:  st.exprs,
		Aliases:      st.aliasOut,
		Warnings:     st.warnings(),
	}, true, nil
}

// Warnings returns the warnings of every document, ordered by docname and
// line.
func (e *Engine) Warnings() ([]Warning, error) {
	if err := e.rlock(); err != nil {
		return nil, err
	}
	defer e.mu.RUnlock()
	var res []Warning
	for _, st := range sortedStates(e.docs) {
		res = append(res, st.warnings()...)
	}
	return res, nil
}

// linker links signature names to "<docname>.html#<anchor>". Caller holds
// e.mu.
func (e *Engine) linker() render.Linker {
	return render.LinkerFunc(func(target string, scope ast.LookupKey) (string, bool) {
		res := e.resolve(&pendingRef{role: "identifier", target: target, title: target, explicit: true, scope: scope}, nil)
		if res == nil {
			return "", false
		}
		return fmt.Sprintf("%s.html#%s", res.Docname, res.Anchor), true
	})
}

// DeclarationHTML renders a declaration with its anchors, linking the
// names in it.
func (e *Engine) DeclarationHTML(d *Declaration) (string, error) {
	if err := e.rlock(); err != nil {
		return "", err
	}
	defer e.mu.RUnlock()
	return render.HTML(d.Signature, d.IDs, e.linker()), nil
}

// DeclarationTerminal renders a declaration for a terminal with the given
// color profile.
func DeclarationTerminal(d *Declaration, profile termenv.Profile) string {
	return render.Terminal(d.Signature, profile)
}

// UnlinkedHTML renders a declaration with its anchors but without linking
// the names in it, for declarations parsed outside of a build.
func UnlinkedHTML(d *Declaration) string {
	return render.HTML(d.Signature, d.IDs, nil)
}
