// Package parser turns declaration, cross-reference and expression text
// into ast nodes. It is a backtracking recursive-descent parser: every
// alternative records the scanner position and restores it when the
// alternative fails, and failures of several alternatives are folded into
// one scan.DefinitionError.
package parser

import (
	"fmt"
	"regexp"

	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/scan"
)

// Config controls the parts of the grammar that depend on the project.
type Config struct {
	// IDAttributes are macro-like names accepted as attributes.
	IDAttributes []string
	// ParenAttributes are names accepted as attributes with a balanced
	// parenthesized argument.
	ParenAttributes []string
	// AllowFallbackExpressionParsing lets expressions the grammar cannot
	// handle be kept as raw text, with a warning, instead of failing.
	AllowFallbackExpressionParsing bool
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{AllowFallbackExpressionParsing: true}
}

// DefinitionParser parses one definition string.
type DefinitionParser struct {
	*scan.Scanner
	cfg Config
}

// New creates a parser over definition.
func New(definition string, cfg Config) *DefinitionParser {
	return &DefinitionParser{Scanner: scan.New(definition, "C++"), cfg: cfg}
}

type naming int

const (
	unnamed naming = iota
	named
	namedMaybe
	namedSingle
)

var requiresWord = regexp.MustCompile(`^requires\b`)

func multi(header string, causes ...scan.Cause) error {
	return scan.MultiError(causes, header)
}

var objectTypes = map[string]bool{
	"class": true, "union": true, "function": true, "member": true,
	"type": true, "concept": true, "enum": true, "enumerator": true,
}

var directiveTypes = map[string]bool{
	"class": true, "struct": true, "union": true, "function": true,
	"member": true, "var": true, "type": true, "concept": true, "enum": true,
	"enum-struct": true, "enum-class": true, "enumerator": true,
}

// ParseDeclaration parses a declaration of the given object type. The
// directive type refines the object type (struct vs class, scoped enums).
// The caller is expected to call AssertEnd afterwards.
func (p *DefinitionParser) ParseDeclaration(objectType, directiveType string) (*ast.Declaration, error) {
	if !objectTypes[objectType] {
		panic(fmt.Sprintf("internal error: unknown object type %q", objectType))
	}
	if !directiveTypes[directiveType] {
		panic(fmt.Sprintf("internal error: unknown directive type %q", directiveType))
	}
	decl := &ast.Declaration{ObjectType: objectType, DirectiveType: directiveType}

	p.SkipWS()
	if p.Match(scan.Visibility) {
		decl.Visibility = p.Matched()
	}

	var memberInstantiation bool
	switch objectType {
	case "type", "concept", "member", "function", "class", "union":
		prefix, inst, err := p.parseTemplateDeclarationPrefix(objectType)
		if err != nil {
			return nil, err
		}
		decl.TemplatePrefix = prefix
		memberInstantiation = inst
	}

	var err error
	switch objectType {
	case "type":
		decl.Body, err = p.parseTypeDeclaration(decl.TemplatePrefix != nil)
	case "concept":
		decl.Body, err = p.parseConcept()
	case "member":
		decl.Body, err = p.parseTypeWithInit(named, "member")
	case "function":
		decl.Body, err = p.parseType(named, "function")
		if err == nil {
			decl.TrailingRequires, err = p.parseRequiresClause()
		}
	case "class":
		decl.Body, err = p.parseClass()
	case "union":
		decl.Body, err = p.parseUnion()
	case "enum":
		decl.Body, err = p.parseEnum()
	case "enumerator":
		decl.Body, err = p.parseEnumerator()
	}
	if err != nil {
		return nil, err
	}
	decl.TemplatePrefix, err = p.checkTemplateConsistency(decl.Name(), decl.TemplatePrefix, false, memberInstantiation)
	if err != nil {
		return nil, err
	}
	p.SkipWS()
	decl.Semicolon = p.SkipString(";")
	return decl, nil
}

// parseTypeDeclaration tries a typedef-like declaration first and falls
// back to an alias declaration. Templated types can only be aliases.
func (p *DefinitionParser) parseTypeDeclaration(templated bool) (ast.Body, error) {
	var causes []scan.Cause
	pos := p.Pos
	if !templated {
		t, err := p.parseType(named, "type")
		if err == nil {
			return t, nil
		}
		causes = append(causes, scan.Cause{Err: err, Header: "If typedef-like declaration"})
		p.Pos = pos
	}
	pos = p.Pos
	u, err := p.parseTypeUsing()
	if err != nil {
		p.Pos = pos
		causes = append(causes, scan.Cause{Err: err, Header: "If type alias or template alias"})
		return nil, multi("Error in type declaration.", causes...)
	}
	return u, nil
}

// ParseNamespaceObject parses the argument of a namespace directive: a
// nested name with an optional template prefix.
func (p *DefinitionParser) ParseNamespaceObject() (*ast.Namespace, error) {
	prefix, _, err := p.parseTemplateDeclarationPrefix("namespace")
	if err != nil {
		return nil, err
	}
	name, err := p.parseNestedName(false)
	if err != nil {
		return nil, err
	}
	prefix, err = p.checkTemplateConsistency(name, prefix, false, false)
	if err != nil {
		return nil, err
	}
	return &ast.Namespace{NestedName: name, TemplatePrefix: prefix}, nil
}

// ParseXRefObject parses a reference target. A target is first read as a
// shorthand name (returned as a Namespace); if that fails it is read as a
// full function declaration. Trailing "()" is ignored in both forms. The
// end of input is asserted.
func (p *DefinitionParser) ParseXRefObject() (*ast.Namespace, *ast.Declaration, error) {
	pos := p.Pos
	ns, err1 := p.parseShorthandXRef()
	if err1 == nil {
		return ns, nil, nil
	}
	p.Pos = pos
	decl, err2 := p.ParseDeclaration("function", "function")
	if err2 == nil {
		p.SkipWS()
		p.SkipString("()")
		err2 = p.AssertEnd(false)
	}
	if err2 != nil {
		return nil, nil, multi("Error in cross-reference.",
			scan.Cause{Err: err1, Header: "If shorthand ref"},
			scan.Cause{Err: err2, Header: "If full function ref"})
	}
	return nil, decl, nil
}

func (p *DefinitionParser) parseShorthandXRef() (*ast.Namespace, error) {
	prefix, _, err := p.parseTemplateDeclarationPrefix("xref")
	if err != nil {
		return nil, err
	}
	name, err := p.parseNestedName(false)
	if err != nil {
		return nil, err
	}
	p.SkipWS()
	p.SkipString("()")
	if err := p.AssertEnd(false); err != nil {
		return nil, err
	}
	prefix, err = p.checkTemplateConsistency(name, prefix, true, false)
	if err != nil {
		return nil, err
	}
	return &ast.Namespace{NestedName: name, TemplatePrefix: prefix}, nil
}

// ParseExpression parses an expression, or failing that a type, up to the
// end of input. The result is an ast.Expr or an *ast.Type.
func (p *DefinitionParser) ParseExpression() (ast.Node, error) {
	pos := p.Pos
	expr, errExpr := p.parseExpression()
	if errExpr == nil {
		p.SkipWS()
		if errExpr = p.AssertEnd(false); errExpr == nil {
			return expr, nil
		}
	}
	p.Pos = pos
	typ, errType := p.parseType(unnamed, "")
	if errType == nil {
		p.SkipWS()
		if errType = p.AssertEnd(false); errType == nil {
			return typ, nil
		}
	}
	return nil, multi("Error when parsing (type) expression.",
		scan.Cause{Err: errExpr, Header: "If expression"},
		scan.Cause{Err: errType, Header: "If type"})
}
