package cppdomain

import (
	"strings"

	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/render"
	"github.com/jward/cppdomain/internal/symbol"
)

// Object is an inventory entry: a declaration of the merged tree.
type Object struct {
	Name        string
	DisplayName string
	ObjectType  string
	Docname     string
	Anchor      string
	Priority    int
	Line        int
	// Signature is the declaration rendered as plain text.
	Signature string
}

func qualifiedDisplayName(s *symbol.Symbol) string {
	return s.QualifiedName()
}

// objects lists every declaration of the tree in tree order. Caller holds
// e.mu.
func (e *Engine) objects() []Object {
	var res []Object
	for _, s := range e.root.All() {
		if s.Declaration == nil {
			continue
		}
		full := s.FullNestedName()
		res = append(res, Object{
			Name:        strings.TrimLeft(ast.String(full), ":"),
			DisplayName: strings.TrimLeft(ast.DisplayString(full), ":"),
			ObjectType:  s.Declaration.ObjectType,
			Docname:     s.Docname,
			Anchor:      s.Declaration.NewestID(),
			Priority:    1,
			Line:        s.Line,
			Signature:   signatureText(s.Declaration),
		})
	}
	return res
}

func signatureText(decl *ast.Declaration) string {
	switch decl.ObjectType {
	case ast.ObjectTemplateParam, ast.ObjectFunctionParam:
		return ast.DisplayString(decl)
	}
	sig := ast.NewSignature()
	decl.Describe(sig, ast.ModeLastIsName, ast.DescribeOptions{})
	return render.Text(sig)
}

// Objects returns every declaration of the build in tree order.
func (e *Engine) Objects() ([]Object, error) {
	if err := e.rlock(); err != nil {
		return nil, err
	}
	defer e.mu.RUnlock()
	return e.objects(), nil
}

// Names returns the names inventory: qualified display names mapped to
// the document that declares them first.
func (e *Engine) Names() (map[string]string, error) {
	if err := e.rlock(); err != nil {
		return nil, err
	}
	defer e.mu.RUnlock()
	res := make(map[string]string, len(e.names))
	for k, v := range e.names {
		res[k] = v
	}
	return res, nil
}

// FullQualifiedName qualifies target with the scope a reference was
// written in. It reports false for the global scope and for scopes that
// no longer exist.
func (e *Engine) FullQualifiedName(scope LookupKey, target string) (string, bool) {
	if err := e.rlock(); err != nil {
		return "", false
	}
	defer e.mu.RUnlock()
	return e.fullQualifiedName(scope, target)
}

func (e *Engine) fullQualifiedName(scope ast.LookupKey, target string) (string, bool) {
	if len(scope) == 0 {
		return "", false
	}
	parent := e.root.DirectLookup(scope)
	if parent == nil {
		return "", false
	}
	return ast.String(parent.FullNestedName()) + "::" + target, true
}
