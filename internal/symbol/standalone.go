package symbol

import (
	"fmt"
	"strings"

	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/document"
	"github.com/jward/cppdomain/internal/parser"
)

// StandaloneDocname owns declarations parsed outside of any document.
const StandaloneDocname = "<standalone>"

// ParseStandalone parses sig as the signature of a cpp:<kind> directive and
// adds it alone to a fresh tree, so its qualified name and ids can be
// computed. kind may carry the "cpp:" prefix.
func ParseStandalone(kind, sig string, cfg parser.Config) (*Symbol, error) {
	kind = strings.TrimPrefix(kind, "cpp:")
	objectType, ok := document.ObjectType(kind)
	if !ok {
		return nil, fmt.Errorf("unknown declaration kind %q", kind)
	}
	p := parser.New(sig, cfg)
	decl, err := p.ParseDeclaration(objectType, kind)
	if err == nil {
		err = p.AssertEnd(true)
	}
	if err != nil {
		return nil, err
	}
	return New().AddDeclaration(decl, StandaloneDocname, 0)
}

// QualifiedName is the display form of the symbol's full name without the
// leading root qualifier.
func (s *Symbol) QualifiedName() string {
	return strings.TrimLeft(ast.DisplayString(s.FullNestedName()), ":")
}
