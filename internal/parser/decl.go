package parser

import (
	"fmt"

	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/scan"
)

func (p *DefinitionParser) parseClass() (*ast.Class, error) {
	attrs, err := p.parseAttributeList()
	if err != nil {
		return nil, err
	}
	name, err := p.parseNestedName(false)
	if err != nil {
		return nil, err
	}
	res := &ast.Class{ClassName: name, Attrs: attrs}
	p.SkipWS()
	res.Final = p.SkipWordAndWS("final")
	p.SkipWS()
	if !p.SkipString(":") {
		return res, nil
	}
	for {
		p.SkipWS()
		base := &ast.BaseClass{}
		base.Virtual = p.SkipWordAndWS("virtual")
		if p.Match(scan.Visibility) {
			base.Visibility = p.Matched()
			p.SkipWS()
		}
		if !base.Virtual {
			base.Virtual = p.SkipWordAndWS("virtual")
		}
		if base.Name, err = p.parseNestedName(false); err != nil {
			return nil, err
		}
		p.SkipWS()
		base.Pack = p.SkipString("...")
		res.Bases = append(res.Bases, base)
		p.SkipWS()
		if !p.SkipString(",") {
			return res, nil
		}
	}
}

func (p *DefinitionParser) parseUnion() (*ast.Union, error) {
	attrs, err := p.parseAttributeList()
	if err != nil {
		return nil, err
	}
	name, err := p.parseNestedName(false)
	if err != nil {
		return nil, err
	}
	return &ast.Union{UnionName: name, Attrs: attrs}, nil
}

func (p *DefinitionParser) parseEnum() (*ast.Enum, error) {
	attrs, err := p.parseAttributeList()
	if err != nil {
		return nil, err
	}
	name, err := p.parseNestedName(false)
	if err != nil {
		return nil, err
	}
	res := &ast.Enum{EnumName: name, Attrs: attrs}
	p.SkipWS()
	if p.SkipString(":") {
		if res.UnderlyingType, err = p.parseType(unnamed, ""); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (p *DefinitionParser) parseEnumerator() (*ast.Enumerator, error) {
	name, err := p.parseNestedName(false)
	if err != nil {
		return nil, err
	}
	attrs, err := p.parseAttributeList()
	if err != nil {
		return nil, err
	}
	res := &ast.Enumerator{EnumeratorName: name, Attrs: attrs}
	p.SkipWS()
	if p.SkipString("=") {
		p.SkipWS()
		value, err := p.parseExpressionFallback("", func() (ast.Expr, error) {
			return p.parseConstantExpression(false)
		}, true)
		if err != nil {
			return nil, err
		}
		res.Init = &ast.Initializer{Value: value, HasAssign: true}
	}
	return res, nil
}

func (p *DefinitionParser) parseConcept() (*ast.Concept, error) {
	name, err := p.parseNestedName(false)
	if err != nil {
		return nil, err
	}
	p.SkipWS()
	init, err := p.parseInitializer("member", true)
	if err != nil {
		return nil, err
	}
	return &ast.Concept{ConceptName: name, Init: init}, nil
}

// parseTemplateParameter parses one entry of a template parameter list:
// a type parameter, a template template parameter, or a non-type or
// constrained type parameter.
func (p *DefinitionParser) parseTemplateParameter() (ast.TemplateParam, error) {
	p.SkipWS()
	var nested *ast.TemplateParams
	if p.SkipWord("template") {
		params, err := p.parseTemplateParameterList()
		if err != nil {
			return nil, err
		}
		nested = params
	}

	pos := p.Pos
	param, errType := p.parseTypeParameter(nested)
	if errType == nil {
		return param, nil
	}
	if nested != nil {
		return nil, errType
	}
	p.Pos = pos
	typed, errNonType := p.parseTypeWithInit(namedMaybe, "templateParam")
	if errNonType == nil {
		p.SkipWS()
		return &ast.TemplateParamNonType{Param: typed, ParameterPack: p.SkipString("...")}, nil
	}
	p.Pos = pos
	return nil, multi("Error when parsing template parameter.",
		scan.Cause{Err: errType, Header: "If unconstrained type parameter or template type parameter"},
		scan.Cause{Err: errNonType, Header: "If constrained type parameter or non-type parameter"})
}

func (p *DefinitionParser) parseTypeParameter(nested *ast.TemplateParams) (ast.TemplateParam, error) {
	data := &ast.TemplateKeyParamPackIDDefault{}
	p.SkipWS()
	switch {
	case p.SkipWordAndWS("typename"):
		data.Key = "typename"
	case p.SkipWordAndWS("class"):
		data.Key = "class"
	case nested != nil:
		return nil, p.Fail("Expected 'typename' or 'class' after template template parameter list.")
	default:
		return nil, p.Fail("Expected 'typename' or 'class' in the beginning of template type parameter.")
	}
	p.SkipWS()
	data.ParameterPack = p.SkipString("...")
	p.SkipWS()
	if p.Match(scan.Identifier) {
		data.Ident = &ast.Identifier{Name: p.Matched()}
	}
	p.SkipWS()
	if !data.ParameterPack && p.SkipString("=") {
		def, err := p.parseType(unnamed, "")
		if err != nil {
			return nil, err
		}
		data.Default = def
	} else if c := p.Current(); p.EOF() || c != ',' && c != '>' {
		return nil, p.Fail(`Expected "," or ">" after (template) type parameter.`)
	}
	if nested != nil {
		return &ast.TemplateParamTemplateType{NestedParams: nested, Data: data}, nil
	}
	return &ast.TemplateParamType{Data: data}, nil
}

// parseTemplateParameterList parses <...> after "template", including a
// requires clause that follows the closing '>'.
func (p *DefinitionParser) parseTemplateParameterList() (*ast.TemplateParams, error) {
	res := &ast.TemplateParams{List: []ast.TemplateParam{}}
	p.SkipWS()
	if !p.SkipString("<") {
		return nil, p.Fail("Expected '<' after 'template'")
	}
	for {
		pos := p.Pos
		param, errParam := p.parseTemplateParameter()
		if errParam == nil {
			res.List = append(res.List, param)
		} else {
			p.Pos = pos
		}
		p.SkipWS()
		if p.SkipString(">") {
			clause, err := p.parseRequiresClause()
			if err != nil {
				return nil, err
			}
			res.RequiresClause = clause
			return res, nil
		}
		if p.SkipString(",") {
			continue
		}
		var causes []scan.Cause
		if errParam != nil {
			causes = append(causes, scan.Cause{Err: errParam, Header: "If parameter"})
		}
		causes = append(causes, scan.Cause{Err: p.Fail(`Expected "," or ">".`), Header: "If no parameter"})
		return nil, multi("Error in template parameter list.", causes...)
	}
}

// parseTemplateIntroduction parses Concept{A, ...B}. It returns nil, nil
// when the cursor is not at a concept name followed by '{'.
func (p *DefinitionParser) parseTemplateIntroduction() (*ast.TemplateIntroduction, error) {
	pos := p.Pos
	concept, err := p.parseNestedName(false)
	if err != nil {
		p.Pos = pos
		return nil, nil
	}
	p.SkipWS()
	if !p.SkipString("{") {
		p.Pos = pos
		return nil, nil
	}
	res := &ast.TemplateIntroduction{Concept: concept}
	for {
		p.SkipWS()
		pack := p.SkipString("...")
		p.SkipWS()
		if !p.Match(scan.Identifier) {
			return nil, p.Fail("Expected identifier in template introduction list.")
		}
		ident := p.Matched()
		if scan.Keywords[ident] {
			return nil, p.Fail("Expected identifier in template introduction list, got keyword: %s", ident)
		}
		res.List = append(res.List, &ast.TemplateIntroductionParameter{
			Ident:         &ast.Identifier{Name: ident},
			ParameterPack: pack,
		})
		p.SkipWS()
		if p.SkipString("}") {
			return res, nil
		}
		if !p.SkipString(",") {
			return nil, p.Fail(`Error in template introduction list. Expected ",", or "}".`)
		}
	}
}

// parseRequiresClause returns nil, nil when no requires clause follows.
// Its operands are primary expressions joined by || and &&.
func (p *DefinitionParser) parseRequiresClause() (*ast.RequiresClause, error) {
	p.SkipWS()
	if !p.SkipWord("requires") {
		return nil, nil
	}
	or, err := p.parseConstraintChain("||", "or", func() (ast.Expr, error) {
		return p.parseConstraintChain("&&", "and", p.parsePrimaryExpression)
	})
	if err != nil {
		return nil, err
	}
	return &ast.RequiresClause{Expr: or}, nil
}

func (p *DefinitionParser) parseConstraintChain(op, word string, operand func() (ast.Expr, error)) (ast.Expr, error) {
	first, err := operand()
	if err != nil {
		return nil, err
	}
	exprs := []ast.Expr{first}
	var ops []string
	for {
		p.SkipWS()
		switch {
		case p.SkipString(op):
			ops = append(ops, op)
		case p.SkipWord(word):
			ops = append(ops, word)
		default:
			if len(ops) == 0 {
				return first, nil
			}
			return &ast.BinOpExpr{Exprs: exprs, Ops: ops}, nil
		}
		e, err := operand()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
}

// parseTemplateDeclarationPrefix reads any number of template parameter
// lists and template introductions. memberInstantiation reports a member
// declaration where "template" was not followed by a parameter list (an
// explicit instantiation); the cursor is then left after the keyword.
func (p *DefinitionParser) parseTemplateDeclarationPrefix(objectType string) (prefix *ast.TemplatePrefix, memberInstantiation bool, err error) {
	var templates []ast.TemplateParamList
	for {
		p.SkipWS()
		pos := p.Pos
		var params ast.TemplateParamList
		if p.SkipWord("template") {
			after := p.Pos
			list, err := p.parseTemplateParameterList()
			if err != nil {
				if objectType == "member" && len(templates) == 0 {
					p.Pos = after
					return nil, true, nil
				}
				return nil, false, err
			}
			if objectType == "concept" && list.RequiresClause != nil {
				return nil, false, p.Fail("requires-clause not allowed for concept")
			}
			params = list
		} else {
			intro, err := p.parseTemplateIntroduction()
			if err != nil {
				return nil, false, err
			}
			if intro == nil {
				break
			}
			params = intro
		}
		if objectType == "concept" && len(templates) > 0 {
			p.Pos = pos
			return nil, false, p.Fail("More than 1 template parameter list for concept.")
		}
		templates = append(templates, params)
	}
	if len(templates) == 0 {
		if objectType == "concept" {
			return nil, false, p.Fail("Missing template parameter list for concept.")
		}
		return nil, false, nil
	}
	return &ast.TemplatePrefix{Templates: templates}, false, nil
}

// checkTemplateConsistency compares the number of template argument lists
// in name with the number of template parameter lists in prefix. Missing
// parameter lists are prepended as empty "template<>" lists, with a
// warning unless the declaration is a shorthand reference or an explicit
// member instantiation.
func (p *DefinitionParser) checkTemplateConsistency(name *ast.NestedName, prefix *ast.TemplatePrefix, fullSpecShorthand, memberInstantiation bool) (*ast.TemplatePrefix, error) {
	numArgs := name.NumTemplates()
	numParams := 0
	if prefix != nil {
		numParams = len(prefix.Templates)
	}
	if numArgs+1 < numParams {
		return nil, p.Fail("Too few template argument lists compared to parameter lists. Argument lists: %d, Parameter lists: %d.",
			numArgs, numParams)
	}
	if numArgs <= numParams {
		return prefix, nil
	}
	numExtra := numArgs - numParams
	if !fullSpecShorthand && !memberInstantiation {
		msg := fmt.Sprintf("Too many template argument lists compared to parameter lists. Argument lists: %d, Parameter lists: %d, Extra empty parameters lists prepended: %d. Declaration:\n\t",
			numArgs, numParams, numExtra)
		if prefix != nil {
			msg += ast.String(prefix) + "\n\t"
		}
		p.Warn("%s", msg+ast.String(name))
	}
	templates := make([]ast.TemplateParamList, 0, numExtra+numParams)
	for i := 0; i < numExtra; i++ {
		templates = append(templates, &ast.TemplateParams{List: []ast.TemplateParam{}})
	}
	if prefix != nil {
		templates = append(templates, prefix.Templates...)
	}
	return &ast.TemplatePrefix{Templates: templates}, nil
}
