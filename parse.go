package cppdomain

import (
	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/render"
	"github.com/jward/cppdomain/internal/symbol"
)

// ParseDeclaration parses one signature of a declaration directive on its
// own, outside of any document. kind is the directive kind with or without
// the "cpp:" prefix, e.g. "function". The result carries the ids of every
// version that can encode the declaration, newest first.
func ParseDeclaration(kind, sig string, cfg Config) (*Declaration, error) {
	sym, err := symbol.ParseStandalone(kind, sig, cfg.Parser())
	if err != nil {
		return nil, err
	}
	decl := sym.Declaration

	out := ast.NewSignature()
	decl.Describe(out, ast.ModeLastIsName, ast.DescribeOptions{
		MultiLineParams: render.Overlong(sig, cfg.MaximumSignatureLineLength),
	})
	return &Declaration{
		Directive:  decl.DirectiveType,
		ObjectType: decl.ObjectType,
		Name:       sym.QualifiedName(),
		IDs:        decl.IDs(),
		Signature:  out,
	}, nil
}
