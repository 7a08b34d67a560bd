package parser

import (
	"fmt"
	"strings"

	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/scan"
)

// parseAttribute returns nil, nil when no attribute starts at the cursor.
func (p *DefinitionParser) parseAttribute() (ast.Attribute, error) {
	p.SkipWS()
	start := p.Pos
	if p.SkipStringAndWS("[") {
		if !p.SkipString("[") {
			p.Pos = start
		} else {
			arg, err := p.BalancedTokenSeq("]")
			if err != nil {
				return nil, err
			}
			if !p.SkipStringAndWS("]") {
				return nil, p.Fail("Expected ']' in end of attribute.")
			}
			if !p.SkipStringAndWS("]") {
				return nil, p.Fail("Expected ']' in end of attribute after [[...]")
			}
			return &ast.CPPAttribute{Arg: arg}, nil
		}
	}

	if p.SkipWordAndWS("__attribute__") {
		return p.parseGNUAttribute()
	}

	for _, id := range p.cfg.IDAttributes {
		if p.SkipWordAndWS(id) {
			return &ast.IDAttribute{ID: id}, nil
		}
	}
	for _, id := range p.cfg.ParenAttributes {
		if !p.SkipStringAndWS(id) {
			continue
		}
		if !p.SkipString("(") {
			return nil, p.Fail("Expected '(' after user-defined paren-attribute.")
		}
		arg, err := p.BalancedTokenSeq(")")
		if err != nil {
			return nil, err
		}
		if !p.SkipString(")") {
			return nil, p.Fail("Expected ')' to end user-defined paren-attribute.")
		}
		return &ast.ParenAttribute{ID: id, Arg: arg}, nil
	}
	return nil, nil
}

func (p *DefinitionParser) parseGNUAttribute() (ast.Attribute, error) {
	if !p.SkipStringAndWS("(") {
		return nil, p.Fail("Expected '(' after '__attribute__'.")
	}
	if !p.SkipStringAndWS("(") {
		return nil, p.Fail("Expected '(' after '__attribute__('.")
	}
	res := &ast.GNUAttributeList{}
	for {
		if p.Match(scan.Identifier) {
			name := p.Matched()
			args, err := p.parseParenExpressionList()
			if err != nil {
				return nil, err
			}
			res.Attrs = append(res.Attrs, &ast.GNUAttribute{Name: name, Args: args})
		}
		if p.SkipStringAndWS(",") {
			continue
		}
		if p.SkipStringAndWS(")") {
			break
		}
		return nil, p.Fail("Expected identifier, ')', or ',' in __attribute__.")
	}
	if !p.SkipStringAndWS(")") {
		return nil, p.Fail("Expected ')' after '__attribute__((...)'")
	}
	return res, nil
}

func (p *DefinitionParser) parseAttributeList() (ast.AttributeList, error) {
	var res ast.AttributeList
	for {
		attr, err := p.parseAttribute()
		if err != nil {
			return nil, err
		}
		if attr == nil {
			return res, nil
		}
		res = append(res, attr)
	}
}

var fundamentalTypes = map[string]bool{
	"auto": true, "void": true, "bool": true, "char": true, "wchar_t": true,
	"char8_t": true, "char16_t": true, "char32_t": true, "int": true,
	"__int64": true, "__int128": true, "float": true, "double": true,
	"__float80": true, "_Float64x": true, "__float128": true, "_Float128": true,
}

// noModifiers are the types that take no modifier, signedness or width.
var noModifiers = map[string]bool{
	"auto": true, "void": true, "bool": true, "wchar_t": true, "char8_t": true,
	"char16_t": true, "char32_t": true, "__float80": true, "_Float64x": true,
	"__float128": true, "_Float128": true,
}

// parseSimpleTypeSpecifiers reads a run of fundamental type keywords in
// any order and validates the combination. It returns nil, nil when there
// is none.
func (p *DefinitionParser) parseSimpleTypeSpecifiers() (*ast.FundamentalType, error) {
	var modifier, signedness, typ string
	var width, names []string
	conflict := func(a, b string) error {
		return p.Fail("Can not have both %s and %s.", a, b)
	}

	p.SkipWS()
	for p.Match(scan.SimpleTypeSpecifier) {
		t := p.Matched()
		names = append(names, t)
		switch {
		case fundamentalTypes[t]:
			if typ != "" {
				return nil, conflict(t, typ)
			}
			typ = t
		case t == "signed" || t == "unsigned":
			if signedness != "" {
				return nil, conflict(t, signedness)
			}
			signedness = t
		case t == "short":
			if len(width) != 0 {
				return nil, conflict(t, width[0])
			}
			width = append(width, t)
		case t == "long":
			if len(width) != 0 && width[0] != "long" {
				return nil, conflict(t, width[0])
			}
			if len(width) == 2 {
				return nil, p.Fail("Can not have more than two long.")
			}
			width = append(width, t)
		case t == "_Imaginary" || t == "_Complex":
			if modifier != "" {
				return nil, conflict(t, modifier)
			}
			modifier = t
		}
		p.SkipWS()
	}
	if len(names) == 0 {
		return nil, nil
	}

	widthText := strings.Join(width, " ")
	switch {
	case noModifiers[typ]:
		if modifier != "" {
			return nil, conflict(typ, modifier)
		}
		if signedness != "" {
			return nil, conflict(typ, signedness)
		}
		if len(width) != 0 {
			return nil, conflict(typ, widthText)
		}
	case typ == "char":
		if modifier != "" {
			return nil, conflict(typ, modifier)
		}
		if len(width) != 0 {
			return nil, conflict(typ, widthText)
		}
	case typ == "int":
		if modifier != "" {
			return nil, conflict(typ, modifier)
		}
	case typ == "__int64" || typ == "__int128":
		if modifier != "" {
			return nil, conflict(typ, modifier)
		}
		if len(width) != 0 {
			return nil, conflict(typ, widthText)
		}
	case typ == "float":
		if signedness != "" {
			return nil, conflict(typ, signedness)
		}
		if len(width) != 0 {
			return nil, conflict(typ, widthText)
		}
	case typ == "double":
		if signedness != "" {
			return nil, conflict(typ, signedness)
		}
		if len(width) > 1 || len(width) == 1 && width[0] != "long" {
			return nil, conflict(typ, widthText)
		}
	case typ == "":
		if modifier != "" {
			return nil, p.Fail("Can not have %s without a floating point type.", modifier)
		}
	default:
		panic("internal error: unhandled fundamental type " + typ)
	}

	var canon []string
	if modifier != "" {
		canon = append(canon, modifier)
	}
	if signedness != "" {
		canon = append(canon, signedness)
	}
	canon = append(canon, width...)
	if typ != "" {
		canon = append(canon, typ)
	}
	return &ast.FundamentalType{Names: names, CanonNames: canon}, nil
}

func (p *DefinitionParser) parseTrailingTypeSpec() (ast.TrailingTypeSpec, error) {
	p.SkipWS()
	fund, err := p.parseSimpleTypeSpecifiers()
	if err != nil {
		return nil, err
	}
	if fund != nil {
		return fund, nil
	}

	p.SkipWS()
	if p.SkipWordAndWS("decltype") {
		if !p.SkipStringAndWS("(") {
			return nil, p.Fail("Expected '(' after 'decltype'.")
		}
		if p.SkipWordAndWS("auto") {
			if !p.SkipString(")") {
				return nil, p.Fail("Expected ')' after 'decltype(auto'.")
			}
			return &ast.DecltypeAuto{}, nil
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		p.SkipWS()
		if !p.SkipString(")") {
			return nil, p.Fail("Expected ')' after 'decltype(<expr>'.")
		}
		return &ast.Decltype{Expr: e}, nil
	}

	res := &ast.TypeName{}
	p.SkipWS()
	for _, k := range []string{"class", "struct", "enum", "union", "typename"} {
		if p.SkipWordAndWS(k) {
			res.Prefix = k
			break
		}
	}
	if res.Name, err = p.parseNestedName(false); err != nil {
		return nil, err
	}
	p.SkipWS()
	if p.SkipWord("auto") {
		res.Placeholder = "auto"
	} else if p.SkipWordAndWS("decltype") {
		if !p.SkipStringAndWS("(") {
			return nil, p.Fail("Expected '(' after 'decltype' in placeholder type specifier.")
		}
		if !p.SkipWordAndWS("auto") {
			return nil, p.Fail("Expected 'auto' after 'decltype(' in placeholder type specifier.")
		}
		if !p.SkipStringAndWS(")") {
			return nil, p.Fail("Expected ')' after 'decltype(auto' in placeholder type specifier.")
		}
		res.Placeholder = "decltype(auto)"
	}
	return res, nil
}

// parseParametersAndQualifiers returns nil, nil when there is no parameter
// list and one is not required.
func (p *DefinitionParser) parseParametersAndQualifiers(paramMode string) (*ast.ParamsQual, error) {
	if paramMode == "new" {
		return nil, nil
	}
	p.SkipWS()
	if !p.SkipString("(") {
		if paramMode == "function" {
			return nil, p.Fail(`Expecting "(" in parameters-and-qualifiers.`)
		}
		return nil, nil
	}
	res := &ast.ParamsQual{}
	p.SkipWS()
	if !p.SkipString(")") {
		for {
			p.SkipWS()
			if p.SkipString("...") {
				res.Args = append(res.Args, &ast.FunctionParameter{Ellipsis: true})
				p.SkipWS()
				if !p.SkipString(")") {
					return nil, p.Fail(`Expected ")" after "..." in parameters-and-qualifiers.`)
				}
				break
			}
			arg, err := p.parseTypeWithInit(namedSingle, "")
			if err != nil {
				return nil, err
			}
			res.Args = append(res.Args, &ast.FunctionParameter{Arg: arg})
			p.SkipWS()
			if p.SkipString(",") {
				continue
			}
			if p.SkipString(")") {
				break
			}
			return nil, p.Fail(`Expecting "," or ")" in parameters-and-qualifiers, got "%c".`, p.Current())
		}
	}

	p.SkipWS()
	res.Const = p.SkipWordAndWS("const")
	res.Volatile = p.SkipWordAndWS("volatile")
	if !res.Const {
		res.Const = p.SkipWordAndWS("const")
	}
	if p.SkipString("&&") {
		res.RefQual = "&&"
	} else if p.SkipString("&") {
		res.RefQual = "&"
	}

	p.SkipWS()
	if p.SkipString("noexcept") {
		res.ExceptionSpec = &ast.NoexceptSpec{}
		if p.SkipStringAndWS("(") {
			e, err := p.parseConstantExpression(false)
			if err != nil {
				return nil, err
			}
			p.SkipWS()
			if !p.SkipString(")") {
				return nil, p.Fail("Expecting ')' to end 'noexcept'.")
			}
			res.ExceptionSpec.Expr = e
		}
	}

	p.SkipWS()
	if p.SkipString("->") {
		ret, err := p.parseType(unnamed, "")
		if err != nil {
			return nil, err
		}
		res.TrailingReturn = ret
	}

	p.SkipWS()
	res.Override = p.SkipWordAndWS("override")
	res.Final = p.SkipWordAndWS("final")
	if !res.Override {
		res.Override = p.SkipWordAndWS("override")
	}
	attrs, err := p.parseAttributeList()
	if err != nil {
		return nil, err
	}
	res.Attrs = attrs

	p.SkipWS()
	// a function pointer must not swallow the initializer of its variable
	if paramMode == "function" && p.SkipString("=") {
		p.SkipWS()
		for _, w := range []string{"0", "delete", "default"} {
			if p.SkipWordAndWS(w) {
				res.Initializer = w
				break
			}
		}
		if res.Initializer == "" {
			return nil, p.Fail(`Expected "0" or "delete" or "default" in initializer-specifier.`)
		}
	}
	return res, nil
}

func (p *DefinitionParser) parseDeclSpecsSimple(outer string, typed bool) (*ast.SimpleDeclSpecs, error) {
	s := &ast.SimpleDeclSpecs{}
	memberOrFunction := outer == "member" || outer == "function"
	for {
		p.SkipWS()
		if !s.Const && typed && p.SkipWord("const") {
			s.Const = true
			continue
		}
		if !s.Volatile && typed && p.SkipWord("volatile") {
			s.Volatile = true
			continue
		}
		if s.Storage == "" {
			if memberOrFunction {
				if p.SkipWord("static") {
					s.Storage = "static"
					continue
				}
				if p.SkipWord("extern") {
					s.Storage = "extern"
					continue
				}
			}
			if outer == "member" && p.SkipWord("mutable") {
				s.Storage = "mutable"
				continue
			}
			if p.SkipWord("register") {
				s.Storage = "register"
				continue
			}
		}
		if !s.Inline && memberOrFunction && p.SkipWord("inline") {
			s.Inline = true
			continue
		}
		if !s.Constexpr && memberOrFunction && p.SkipWord("constexpr") {
			s.Constexpr = true
			continue
		}
		if outer == "member" {
			if !s.Constinit && p.SkipWord("constinit") {
				s.Constinit = true
				continue
			}
			if !s.ThreadLocal && p.SkipWord("thread_local") {
				s.ThreadLocal = true
				continue
			}
		}
		if outer == "function" {
			if !s.Consteval && p.SkipWord("consteval") {
				s.Consteval = true
				continue
			}
			if !s.Friend && p.SkipWord("friend") {
				s.Friend = true
				continue
			}
			if !s.Virtual && p.SkipWord("virtual") {
				s.Virtual = true
				continue
			}
			if s.ExplicitSpec == nil && p.SkipWordAndWS("explicit") {
				s.ExplicitSpec = &ast.ExplicitSpec{}
				if p.SkipString("(") {
					e, err := p.parseConstantExpression(false)
					if err != nil {
						return nil, err
					}
					p.SkipWS()
					if !p.SkipString(")") {
						return nil, p.Fail("Expected ')' to end explicit specifier.")
					}
					s.ExplicitSpec.Expr = e
				}
				continue
			}
		}
		attr, err := p.parseAttribute()
		if err != nil {
			return nil, err
		}
		if attr != nil {
			s.Attrs = append(s.Attrs, attr)
			continue
		}
		return s, nil
	}
}

func (p *DefinitionParser) parseDeclSpecs(outer string, typed bool) (*ast.DeclSpecs, error) {
	switch outer {
	case "", "type", "member", "function", "templateParam":
	default:
		panic(fmt.Sprintf("internal error: unknown outer %q", outer))
	}
	left, err := p.parseDeclSpecsSimple(outer, typed)
	if err != nil {
		return nil, err
	}
	res := &ast.DeclSpecs{Outer: outer, Left: left, Right: &ast.SimpleDeclSpecs{}}
	if !typed {
		return res, nil
	}
	if res.Trailing, err = p.parseTrailingTypeSpec(); err != nil {
		return nil, err
	}
	if res.Right, err = p.parseDeclSpecsSimple(outer, typed); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *DefinitionParser) parseDeclaratorNameSuffix(nm naming, paramMode string, typed bool) (ast.Declarator, error) {
	var declID *ast.NestedName
	switch nm {
	case namedMaybe:
		pos := p.Pos
		name, err := p.parseNestedName(false)
		if err != nil {
			p.Pos = pos
		} else {
			declID = name
		}
	case namedSingle:
		if p.Match(scan.Identifier) {
			declID = ast.SimpleName(&ast.Identifier{Name: p.Matched()})
			// a member pointer would continue with '::'
			p.SkipWS()
			if p.Current() == ':' {
				return nil, p.Fail("Unexpected ':' after identifier.")
			}
		}
	case named:
		name, err := p.parseNestedName(false)
		if err != nil {
			return nil, err
		}
		declID = name
	}

	var arrayOps []*ast.Array
	for {
		p.SkipWS()
		if !typed || !p.SkipString("[") {
			break
		}
		p.SkipWS()
		if p.SkipString("]") {
			arrayOps = append(arrayOps, &ast.Array{})
			continue
		}
		size, err := p.parseExpressionFallback("]", p.parseExpression, true)
		if err != nil {
			return nil, err
		}
		if !p.SkipString("]") {
			return nil, p.Fail("Expected ']' in end of array operator.")
		}
		arrayOps = append(arrayOps, &ast.Array{Size: size})
	}

	paramQual, err := p.parseParametersAndQualifiers(paramMode)
	if err != nil {
		return nil, err
	}
	if paramQual == nil && len(arrayOps) == 0 && nm != unnamed && paramMode == "type" && typed {
		p.SkipWS()
		if p.SkipString(":") {
			size, err := p.parseConstantExpression(false)
			if err != nil {
				return nil, err
			}
			return &ast.DeclaratorNameBitField{DeclID: declID, Size: size}, nil
		}
	}
	return &ast.DeclaratorNameParamQual{DeclID: declID, ArrayOps: arrayOps, ParamQual: paramQual}, nil
}

func (p *DefinitionParser) parsePtrQualifiers(withAttrs bool) (volatile, isConst bool, attrs ast.AttributeList, err error) {
	for {
		if !volatile && p.SkipWordAndWS("volatile") {
			volatile = true
			continue
		}
		if !isConst && p.SkipWordAndWS("const") {
			isConst = true
			continue
		}
		if withAttrs {
			attr, err := p.parseAttribute()
			if err != nil {
				return false, false, nil, err
			}
			if attr != nil {
				attrs = append(attrs, attr)
				continue
			}
		}
		return volatile, isConst, attrs, nil
	}
}

// parseDeclarator parses the declarator part of a type. typed means
// pointer, reference, array and pack operators are allowed.
func (p *DefinitionParser) parseDeclarator(nm naming, paramMode string, typed bool) (ast.Declarator, error) {
	switch paramMode {
	case "type", "function", "operatorCast", "new":
	default:
		panic(fmt.Sprintf("internal error: unknown paramMode %q", paramMode))
	}
	var causes []scan.Cause
	p.SkipWS()
	if typed && p.SkipString("*") {
		p.SkipWS()
		volatile, isConst, attrs, err := p.parsePtrQualifiers(true)
		if err != nil {
			return nil, err
		}
		next, err := p.parseDeclarator(nm, paramMode, typed)
		if err != nil {
			return nil, err
		}
		return ast.NewDeclaratorPtr(next, volatile, isConst, attrs), nil
	}
	if typed && p.Current() == '&' {
		rvalue := p.SkipString("&&")
		if !rvalue {
			p.SkipString("&")
		}
		attrs, err := p.parseAttributeList()
		if err != nil {
			return nil, err
		}
		next, err := p.parseDeclarator(nm, paramMode, typed)
		if err != nil {
			return nil, err
		}
		return ast.NewDeclaratorRef(next, rvalue, attrs), nil
	}
	if typed && p.SkipString("...") {
		next, err := p.parseDeclarator(nm, paramMode, false)
		if err != nil {
			return nil, err
		}
		return ast.NewDeclaratorParamPack(next), nil
	}
	if typed && p.Current() == '(' {
		if paramMode == "operatorCast" {
			// cast operators returning function pointers are not supported
			return &ast.DeclaratorNameParamQual{}, nil
		}
		pos := p.Pos
		res, errParamQual := p.parseDeclaratorNameSuffix(nm, paramMode, typed)
		if errParamQual == nil {
			return res, nil
		}
		causes = append(causes, scan.Cause{Err: errParamQual, Header: "If declarator-id with parameters-and-qualifiers"})
		p.Pos = pos
		paren, errParen := p.parseParenDeclarator(nm, paramMode, typed)
		if errParen == nil {
			return paren, nil
		}
		p.Pos = pos
		causes = append(causes, scan.Cause{Err: errParen, Header: "If parenthesis in noptr-declarator"})
		return nil, multi("Error in declarator", causes...)
	}
	if typed {
		pos := p.Pos
		memPtr, err := p.parseMemberPointerDeclarator(nm, paramMode)
		if err == nil {
			return memPtr, nil
		}
		p.Pos = pos
		causes = append(causes, scan.Cause{Err: err, Header: "If pointer to member declarator"})
	}
	pos := p.Pos
	res, err := p.parseDeclaratorNameSuffix(nm, paramMode, typed)
	if err != nil {
		p.Pos = pos
		causes = append(causes, scan.Cause{Err: err, Header: "If declarator-id"})
		return nil, multi("Error in declarator or parameters-and-qualifiers", causes...)
	}
	// a '<' here usually means template arguments that did not parse
	if p.Current() == '<' && len(causes) > 0 {
		p.OtherErrors = append(p.OtherErrors, multi("", causes...))
	}
	return res, nil
}

// parseParenDeclarator parses "( ptr-declarator )" followed by the rest of
// the declarator.
func (p *DefinitionParser) parseParenDeclarator(nm naming, paramMode string, typed bool) (ast.Declarator, error) {
	p.SkipString("(")
	inner, err := p.parseDeclarator(nm, paramMode, typed)
	if err != nil {
		return nil, err
	}
	if !p.SkipString(")") {
		return nil, p.Fail(`Expected ')' in "( ptr-declarator )"`)
	}
	next, err := p.parseDeclarator(unnamed, "type", typed)
	if err != nil {
		return nil, err
	}
	return &ast.DeclaratorParen{Inner: inner, Next: next}, nil
}

func (p *DefinitionParser) parseMemberPointerDeclarator(nm naming, paramMode string) (ast.Declarator, error) {
	name, err := p.parseNestedName(true)
	if err != nil {
		return nil, err
	}
	p.SkipWS()
	if !p.SkipString("*") {
		return nil, p.Fail("Expected '*' in pointer to member declarator.")
	}
	p.SkipWS()
	volatile, isConst, _, err := p.parsePtrQualifiers(false)
	if err != nil {
		return nil, err
	}
	next, err := p.parseDeclarator(nm, paramMode, true)
	if err != nil {
		return nil, err
	}
	return ast.NewDeclaratorMemPtr(name, isConst, volatile, next), nil
}

// parseInitializer returns nil, nil when there is no initializer. outer is
// "member", "templateParam" or "" for function parameters.
func (p *DefinitionParser) parseInitializer(outer string, allowFallback bool) (*ast.Initializer, error) {
	p.SkipWS()
	if outer == "member" {
		braced, err := p.parseBracedInitList()
		if err != nil {
			return nil, err
		}
		if braced != nil {
			return &ast.Initializer{Value: braced}, nil
		}
	}
	if !p.SkipString("=") {
		return nil, nil
	}
	braced, err := p.parseBracedInitList()
	if err != nil {
		return nil, err
	}
	if braced != nil {
		return &ast.Initializer{Value: braced, HasAssign: true}, nil
	}

	var end string
	switch outer {
	case "member":
	case "templateParam":
		end = ",>"
	case "":
		end = ",)"
	default:
		return nil, p.Fail("Internal error, initializer for outer '%s' not implemented.", outer)
	}
	inTemplate := outer == "templateParam"
	value, err := p.parseExpressionFallback(end, func() (ast.Expr, error) {
		return p.parseAssignmentExpression(inTemplate)
	}, allowFallback)
	if err != nil {
		return nil, err
	}
	return &ast.Initializer{Value: value, HasAssign: true}, nil
}

// parseType parses decl-specifiers followed by a declarator. For the
// "type" and "function" outers a declaration without decl-specifiers (a
// bare name, a constructor) is tried first.
func (p *DefinitionParser) parseType(nm naming, outer string) (*ast.Type, error) {
	switch outer {
	case "", "type", "member", "function", "operatorCast", "templateParam":
	default:
		panic(fmt.Sprintf("internal error: unknown outer %q", outer))
	}
	if outer == "type" || outer == "function" {
		return p.parseOuterType(outer)
	}
	paramMode := "type"
	switch outer {
	case "member":
		nm = named
	case "operatorCast":
		paramMode = "operatorCast"
		outer = ""
	case "templateParam":
		nm = namedSingle
	}
	specs, err := p.parseDeclSpecs(outer, true)
	if err != nil {
		return nil, err
	}
	decl, err := p.parseDeclarator(nm, paramMode, true)
	if err != nil {
		return nil, err
	}
	return &ast.Type{DeclSpecs: specs, Decl: decl}, nil
}

func (p *DefinitionParser) parseOuterType(outer string) (*ast.Type, error) {
	start := p.Pos
	untyped, errUntyped := p.parseUntypedOuterType(outer)
	if errUntyped == nil {
		return untyped, nil
	}
	p.Pos = start
	specs, errTyped := p.parseDeclSpecs(outer, true)
	var decl ast.Declarator
	if errTyped == nil {
		decl, errTyped = p.parseDeclarator(named, outer, true)
	}
	if errTyped == nil {
		return &ast.Type{DeclSpecs: specs, Decl: decl}, nil
	}
	p.Pos = start
	if outer == "type" {
		return nil, multi("Type must be either just a name or a typedef-like declaration.",
			scan.Cause{Err: errUntyped, Header: "If just a name"},
			scan.Cause{Err: errTyped, Header: "If typedef-like declaration"})
	}
	return nil, multi("Error when parsing function declaration.",
		scan.Cause{Err: errUntyped, Header: "If the function has no return type"},
		scan.Cause{Err: errTyped, Header: "If the function has a return type"})
}

func (p *DefinitionParser) parseUntypedOuterType(outer string) (*ast.Type, error) {
	specs, err := p.parseDeclSpecs(outer, false)
	if err != nil {
		return nil, err
	}
	decl, err := p.parseDeclarator(named, outer, false)
	if err != nil {
		return nil, err
	}
	mustEnd := true
	if outer == "function" {
		// a trailing requires clause may follow
		p.SkipWS()
		if p.Match(requiresWord) {
			p.Pos -= len("requires")
			mustEnd = false
		}
	}
	if mustEnd {
		if err := p.AssertEnd(true); err != nil {
			return nil, err
		}
	}
	return &ast.Type{DeclSpecs: specs, Decl: decl}, nil
}

// parseTypeWithInit parses a type followed by an optional initializer.
// For template parameters the "initializer" may also be a default type,
// which makes the parameter a constrained type parameter.
func (p *DefinitionParser) parseTypeWithInit(nm naming, outer string) (ast.TypedParam, error) {
	typ, err := p.parseType(nm, outer)
	if err != nil {
		return nil, err
	}
	if outer != "templateParam" {
		init, err := p.parseInitializer(outer, true)
		if err != nil {
			return nil, err
		}
		return &ast.TypeWithInit{Type: typ, Init: init}, nil
	}

	pos := p.Pos
	init, errExpr := p.parseInitializer(outer, false)
	if errExpr == nil {
		if init == nil {
			return &ast.TypeWithInit{Type: typ}, nil
		}
		// the expression must have consumed the whole default argument
		p.SkipWS()
		if p.Current() == ',' || p.Current() == '>' {
			return &ast.TypeWithInit{Type: typ, Init: init}, nil
		}
	}
	p.Pos = pos
	if !p.SkipString("=") {
		return &ast.TypeWithInit{Type: typ}, nil
	}
	typeInit, errType := p.parseType(unnamed, "")
	if errType != nil {
		if errExpr == nil {
			return nil, errType
		}
		return nil, multi("Error in non-type template parameter or constrained template parameter.",
			scan.Cause{Err: errExpr, Header: "If default template argument is an expression"},
			scan.Cause{Err: errType, Header: "If default template argument is a type"})
	}
	return &ast.ConstrainedTypeWithInit{Type: typ, Init: typeInit}, nil
}

func (p *DefinitionParser) parseTypeUsing() (*ast.TypeUsing, error) {
	name, err := p.parseNestedName(false)
	if err != nil {
		return nil, err
	}
	p.SkipWS()
	if !p.SkipString("=") {
		return &ast.TypeUsing{TypeName: name}, nil
	}
	typ, err := p.parseType(unnamed, "")
	if err != nil {
		return nil, err
	}
	return &ast.TypeUsing{TypeName: name, Type: typ}, nil
}
