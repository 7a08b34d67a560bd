package parser

import (
	"strings"

	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/scan"
)

func (p *DefinitionParser) parseOperator() (ast.IdentOrOp, error) {
	p.SkipWS()
	if p.Match(scan.Operator) {
		// "operator[ ]" and "operator()" are the same operators as "[]" and "()"
		return &ast.OperatorBuiltin{Op: strings.Join(strings.Fields(p.Matched()), "")}, nil
	}
	for _, op := range []string{"new", "delete"} {
		if !p.SkipWord(op) {
			continue
		}
		p.SkipWS()
		if p.SkipString("[") {
			p.SkipWS()
			if !p.SkipString("]") {
				return nil, p.Fail(`Expected "]" after "operator %s["`, op)
			}
			op += "[]"
		}
		return &ast.OperatorBuiltin{Op: op}, nil
	}
	if p.SkipString(`""`) {
		p.SkipWS()
		if !p.Match(scan.Identifier) {
			return nil, p.Fail("Expected user-defined literal suffix.")
		}
		return &ast.OperatorLiteral{Ident: &ast.Identifier{Name: p.Matched()}}, nil
	}
	// a conversion function: the rest is a type
	typ, err := p.parseType(unnamed, "operatorCast")
	if err != nil {
		return nil, err
	}
	return &ast.OperatorType{Type: typ}, nil
}

// parseTemplateArgumentTail reads what may follow a template argument:
// "...>", ">" or ",".
func (p *DefinitionParser) parseTemplateArgumentTail() (end, pack bool, err error) {
	p.SkipWS()
	switch {
	case p.SkipStringAndWS("..."):
		if !p.SkipString(">") {
			return false, false, p.Fail(`Expected ">" after "..." in template argument list.`)
		}
		return true, true, nil
	case p.SkipString(">"):
		return true, false, nil
	case p.SkipString(","):
		return false, false, nil
	}
	return false, false, p.Fail(`Expected "...>", ">" or "," in template argument list.`)
}

// parseTemplateArgumentList returns nil, nil when no '<' is at the cursor.
// Each argument is tried as a type first and then as a constant
// expression.
func (p *DefinitionParser) parseTemplateArgumentList() (*ast.TemplateArgs, error) {
	p.SkipWS()
	if !p.SkipStringAndWS("<") {
		return nil, nil
	}
	if p.SkipString(">") {
		return &ast.TemplateArgs{Args: []ast.TemplateArg{}}, nil
	}
	res := &ast.TemplateArgs{}
	for {
		pos := p.Pos
		var arg ast.TemplateArg
		typ, errType := p.parseType(unnamed, "")
		end, pack := false, false
		if errType == nil {
			end, pack, errType = p.parseTemplateArgumentTail()
			arg = typ
		}
		if errType != nil {
			p.Pos = pos
			value, errValue := p.parseConstantExpression(true)
			if errValue == nil {
				end, pack, errValue = p.parseTemplateArgumentTail()
				arg = &ast.TemplateArgConstant{Value: value}
			}
			if errValue != nil {
				p.Pos = pos
				return nil, multi("Error in parsing template argument list.",
					scan.Cause{Err: errType, Header: "If type argument"},
					scan.Cause{Err: errValue, Header: "If non-type argument"})
			}
		}
		res.Args = append(res.Args, arg)
		if pack {
			res.PackExpansion = true
		}
		if end {
			return res, nil
		}
	}
}

// parseNestedName parses [::]a<...>::template b::c. With memberPointer
// set the name must be followed by "::" and the trailing "::" (before
// '*') is consumed.
func (p *DefinitionParser) parseNestedName(memberPointer bool) (*ast.NestedName, error) {
	res := &ast.NestedName{}
	p.SkipWS()
	res.Rooted = p.SkipString("::")
	for {
		p.SkipWS()
		template := false
		if len(res.Names) > 0 {
			template = p.SkipWordAndWS("template")
		}
		var identOrOp ast.IdentOrOp
		if p.SkipWordAndWS("operator") {
			op, err := p.parseOperator()
			if err != nil {
				return nil, err
			}
			identOrOp = op
		} else {
			if !p.Match(scan.Identifier) {
				if memberPointer && len(res.Names) > 0 {
					break
				}
				return nil, p.Fail("Expected identifier in nested name.")
			}
			ident := p.Matched()
			if scan.Keywords[ident] {
				return nil, p.Fail("Expected identifier in nested name, got keyword: %s", ident)
			}
			identOrOp = &ast.Identifier{Name: ident}
		}
		res.Templates = append(res.Templates, template)

		// greedy, but a '<' may also be a less-than in an expression
		pos := p.Pos
		args, err := p.parseTemplateArgumentList()
		if err != nil {
			p.Pos = pos
			args = nil
			p.OtherErrors = append(p.OtherErrors, err)
		}
		res.Names = append(res.Names, &ast.NestedNameElement{IdentOrOp: identOrOp, TemplateArgs: args})

		p.SkipWS()
		if !p.SkipString("::") {
			if memberPointer {
				return nil, p.Fail("Expected '::' in pointer to member (function).")
			}
			break
		}
	}
	return res, nil
}
