package parser

import (
	"regexp"
	"strings"

	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/scan"
)

func (p *DefinitionParser) skipOp(op string) bool {
	if strings.ContainsRune("abcnox", rune(op[0])) {
		return p.SkipWord(op)
	}
	return p.SkipString(op)
}

func (p *DefinitionParser) udl(lit ast.Expr) ast.Expr {
	if !p.Match(scan.UDLIdentifier) {
		return lit
	}
	return &ast.UserDefinedLiteral{Literal: lit, Ident: &ast.Identifier{Name: p.Matched()}}
}

// parseString consumes a double-quoted string literal, or returns "" when
// the cursor is not at one.
func (p *DefinitionParser) parseString() (string, error) {
	if p.Current() != '"' {
		return "", nil
	}
	start := p.Pos
	p.Pos++
	escape := false
	for {
		if p.EOF() {
			return "", p.Fail("Unexpected end during inside string.")
		}
		c := p.Current()
		p.Pos++
		switch {
		case escape:
			escape = false
		case c == '\\':
			escape = true
		case c == '"':
			return p.Definition[start:p.Pos], nil
		}
	}
}

// parseLiteral returns nil, nil when no literal starts at the cursor.
func (p *DefinitionParser) parseLiteral() (ast.Expr, error) {
	p.SkipWS()
	switch {
	case p.SkipWord("nullptr"):
		return &ast.PointerLiteral{}, nil
	case p.SkipWord("true"):
		return &ast.BooleanLiteral{Value: true}, nil
	case p.SkipWord("false"):
		return &ast.BooleanLiteral{Value: false}, nil
	}
	pos := p.Pos
	if p.Match(scan.FloatLiteral) {
		hasSuffix := p.Match(scan.FloatSuffix)
		lit := &ast.NumberLiteral{Data: p.Definition[pos:p.Pos]}
		if hasSuffix {
			return lit, nil
		}
		return p.udl(lit), nil
	}
	for _, re := range []*regexp.Regexp{scan.BinaryLiteral, scan.HexLiteral, scan.IntegerLiteral, scan.OctalLiteral} {
		if p.Match(re) {
			hasSuffix := p.Match(scan.IntegerSuffix)
			lit := &ast.NumberLiteral{Data: p.Definition[pos:p.Pos]}
			if hasSuffix {
				return lit, nil
			}
			return p.udl(lit), nil
		}
	}
	str, err := p.parseString()
	if err != nil {
		return nil, err
	}
	if str != "" {
		return p.udl(&ast.StringLiteral{Data: str}), nil
	}
	if p.Match(scan.CharLiteral) {
		lit, err := ast.NewCharLiteral(p.Group(1), p.Group(2))
		if err != nil {
			return nil, p.Fail("Can not handle character literal. Internal error was: %s", err)
		}
		return p.udl(lit), nil
	}
	return nil, nil
}

func (p *DefinitionParser) parseFoldOrParenExpression() (ast.Expr, error) {
	if p.Current() != '(' {
		return nil, nil
	}
	p.Pos++
	p.SkipWS()
	if p.SkipStringAndWS("...") {
		// ( ... op expr )
		if !p.Match(scan.FoldOperator) {
			return nil, p.Fail("Expected fold operator after '...' in fold expression.")
		}
		op := p.Matched()
		right, err := p.parseCastExpression()
		if err != nil {
			return nil, err
		}
		if !p.SkipString(")") {
			return nil, p.Fail("Expected ')' in end of fold expression.")
		}
		return &ast.FoldExpr{Op: op, Right: right}, nil
	}

	pos := p.Pos
	left, op, errFold := p.parseFoldHead()
	if errFold != nil {
		p.Pos = pos
		res, errExpr := p.parseExpression()
		if errExpr == nil {
			p.SkipWS()
			if !p.SkipString(")") {
				errExpr = p.Fail("Expected ')' in end of parenthesized expression.")
			}
		}
		if errExpr != nil {
			return nil, multi("Error in fold expression or parenthesized expression.",
				scan.Cause{Err: errFold, Header: "If fold expression"},
				scan.Cause{Err: errExpr, Header: "If parenthesized expression"})
		}
		return &ast.ParenExpr{Expr: res}, nil
	}

	if p.SkipString(")") {
		return &ast.FoldExpr{Left: left, Op: op}, nil
	}
	if !p.Match(scan.FoldOperator) {
		return nil, p.Fail("Expected fold operator or ')' after '...' in fold expression.")
	}
	if op != p.Matched() {
		return nil, p.Fail("Operators are different in binary fold: '%s' and '%s'.", op, p.Matched())
	}
	right, err := p.parseCastExpression()
	if err != nil {
		return nil, err
	}
	p.SkipWS()
	if !p.SkipString(")") {
		return nil, p.Fail("Expected ')' to end binary fold expression.")
	}
	return &ast.FoldExpr{Left: left, Op: op, Right: right}, nil
}

// parseFoldHead parses "expr op ..." of a right or binary fold.
func (p *DefinitionParser) parseFoldHead() (ast.Expr, string, error) {
	p.SkipWS()
	left, err := p.parseCastExpression()
	if err != nil {
		return nil, "", err
	}
	p.SkipWS()
	if !p.Match(scan.FoldOperator) {
		return nil, "", p.Fail("Expected fold operator after left expression in fold expression.")
	}
	op := p.Matched()
	p.SkipWS()
	if !p.SkipStringAndWS("...") {
		return nil, "", p.Fail("Expected '...' after fold operator in fold expression.")
	}
	return left, op, nil
}

func (p *DefinitionParser) parsePrimaryExpression() (ast.Expr, error) {
	p.SkipWS()
	lit, err := p.parseLiteral()
	if err != nil || lit != nil {
		return lit, err
	}
	p.SkipWS()
	if p.SkipWord("this") {
		return &ast.ThisLiteral{}, nil
	}
	res, err := p.parseFoldOrParenExpression()
	if err != nil || res != nil {
		return res, err
	}
	nn, err := p.parseNestedName(false)
	if err != nil {
		return nil, err
	}
	return &ast.IDExpression{Name: nn}, nil
}

// parseInitializerList parses open clause, clause... close. ok is false
// when open is not at the cursor.
func (p *DefinitionParser) parseInitializerList(name, open, close string) (exprs []ast.Expr, trailingComma, ok bool, err error) {
	p.SkipWS()
	if !p.SkipStringAndWS(open) {
		return nil, false, false, nil
	}
	if p.SkipString(close) {
		return []ast.Expr{}, false, true, nil
	}
	for {
		p.SkipWS()
		e, err := p.parseInitializerClause()
		if err != nil {
			return nil, false, false, err
		}
		p.SkipWS()
		if p.SkipString("...") {
			e = &ast.PackExpansionExpr{Expr: e}
		}
		exprs = append(exprs, e)
		p.SkipWS()
		if p.SkipString(close) {
			break
		}
		if !p.SkipStringAndWS(",") {
			return nil, false, false, p.Fail("Error in %s, expected ',' or '%s'.", name, close)
		}
		if close == "}" && p.Current() == '}' {
			p.Pos++
			trailingComma = true
			break
		}
	}
	return exprs, trailingComma, true, nil
}

func (p *DefinitionParser) parseParenExpressionList() (*ast.ParenExprList, error) {
	exprs, _, ok, err := p.parseInitializerList("parenthesized expression-list", "(", ")")
	if err != nil || !ok {
		return nil, err
	}
	return &ast.ParenExprList{Exprs: exprs}, nil
}

func (p *DefinitionParser) parseBracedInitList() (*ast.BracedInitList, error) {
	exprs, trailingComma, ok, err := p.parseInitializerList("braced-init-list", "{", "}")
	if err != nil || !ok {
		return nil, err
	}
	return &ast.BracedInitList{Exprs: exprs, TrailingComma: trailingComma}, nil
}

func (p *DefinitionParser) parseInitializerClause() (ast.Expr, error) {
	braced, err := p.parseBracedInitList()
	if err != nil {
		return nil, err
	}
	if braced != nil {
		return braced, nil
	}
	return p.parseAssignmentExpression(false)
}

// parseExpressionListOrBracedInitList returns nil, nil when neither form
// starts at the cursor.
func (p *DefinitionParser) parseExpressionListOrBracedInitList() (ast.ExprList, error) {
	paren, err := p.parseParenExpressionList()
	if err != nil {
		return nil, err
	}
	if paren != nil {
		return paren, nil
	}
	braced, err := p.parseBracedInitList()
	if err != nil || braced == nil {
		return nil, err
	}
	return braced, nil
}

var explicitCasts = []string{"dynamic_cast", "static_cast", "reinterpret_cast", "const_cast"}

type prefixKind int

const (
	prefixExpr prefixKind = iota
	prefixCast
	prefixTypeID
	prefixTypeOperatorCast
)

func (p *DefinitionParser) parseExplicitCast(cast string) (ast.Expr, error) {
	if !p.SkipString("<") {
		return nil, p.Fail("Expected '<' after '%s'.", cast)
	}
	typ, err := p.parseType(unnamed, "")
	if err != nil {
		return nil, err
	}
	p.SkipWS()
	if !p.SkipStringAndWS(">") {
		return nil, p.Fail("Expected '>' after type in '%s'.", cast)
	}
	if !p.SkipString("(") {
		return nil, p.Fail("Expected '(' in '%s'.", cast)
	}
	e, err := p.parseExpressionFallback(")", p.parseExpression, true)
	if err != nil {
		return nil, err
	}
	p.SkipWS()
	if !p.SkipString(")") {
		return nil, p.Fail("Expected ')' to end '%s'.", cast)
	}
	return &ast.ExplicitCast{Cast: cast, Type: typ, Expr: e}, nil
}

func (p *DefinitionParser) parseTypeID() (ast.Expr, error) {
	if !p.SkipStringAndWS("(") {
		return nil, p.Fail("Expected '(' after 'typeid'.")
	}
	pos := p.Pos
	typ, errType := p.parseType(unnamed, "")
	if errType == nil {
		if p.SkipString(")") {
			return &ast.TypeID{Operand: typ, IsType: true}, nil
		}
		errType = p.Fail("Expected ')' to end 'typeid' of type.")
	}
	p.Pos = pos
	e, errExpr := p.parseExpressionFallback(")", p.parseExpression, true)
	if errExpr == nil {
		if p.SkipString(")") {
			return &ast.TypeID{Operand: e, IsType: false}, nil
		}
		errExpr = p.Fail("Expected ')' to end 'typeid' of expression.")
	}
	p.Pos = pos
	return nil, multi("Error in 'typeid(...)'. Expected type or expression.",
		scan.Cause{Err: errType, Header: "If type"},
		scan.Cause{Err: errExpr, Header: "If expression"})
}

func (p *DefinitionParser) parsePostfixPrefix() (ast.TemplateArg, prefixKind, error) {
	p.SkipWS()
	for _, c := range explicitCasts {
		if p.SkipWordAndWS(c) {
			e, err := p.parseExplicitCast(c)
			return e, prefixCast, err
		}
	}
	if p.SkipWordAndWS("typeid") {
		e, err := p.parseTypeID()
		return e, prefixTypeID, err
	}

	pos := p.Pos
	primary, errOuter := p.parsePrimaryExpression()
	if errOuter == nil {
		return primary, prefixExpr, nil
	}
	p.Pos = pos
	// a functional cast: type(args) or type{args}
	typ, errInner := p.parseType(unnamed, "operatorCast")
	if errInner == nil {
		p.SkipWS()
		if p.Current() == '(' || p.Current() == '{' {
			return typ, prefixTypeOperatorCast, nil
		}
		errInner = p.Fail("Expecting '(' or '{' after type in cast expression.")
	}
	p.Pos = pos
	return nil, 0, multi("Error in postfix expression, expected primary expression or type.",
		scan.Cause{Err: errOuter, Header: "If primary expression"},
		scan.Cause{Err: errInner, Header: "If type"})
}

func (p *DefinitionParser) parsePostfixExpression() (ast.Expr, error) {
	prefix, kind, err := p.parsePostfixPrefix()
	if err != nil {
		return nil, err
	}
	var postfixes []ast.Postfix
	for {
		p.SkipWS()
		if kind != prefixTypeOperatorCast {
			if p.SkipStringAndWS("[") {
				e, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				p.SkipWS()
				if !p.SkipString("]") {
					return nil, p.Fail("Expected ']' in end of postfix expression.")
				}
				postfixes = append(postfixes, &ast.PostfixArray{Expr: e})
				continue
			}
			if p.SkipString(".") {
				switch {
				case p.SkipString("*"):
					// leave .* for the binary operator
					p.Pos -= 2
				case p.SkipString(".."):
					p.Pos -= 3
				default:
					name, err := p.parseNestedName(false)
					if err != nil {
						return nil, err
					}
					postfixes = append(postfixes, &ast.PostfixMember{Name: name})
					continue
				}
			}
			if p.SkipString("->") {
				if p.SkipString("*") {
					p.Pos -= 3
				} else {
					name, err := p.parseNestedName(false)
					if err != nil {
						return nil, err
					}
					postfixes = append(postfixes, &ast.PostfixMemberOfPointer{Name: name})
					continue
				}
			}
			if p.SkipString("++") {
				postfixes = append(postfixes, &ast.PostfixInc{})
				continue
			}
			if p.SkipString("--") {
				postfixes = append(postfixes, &ast.PostfixDec{})
				continue
			}
		}
		lst, err := p.parseExpressionListOrBracedInitList()
		if err != nil {
			return nil, err
		}
		if lst != nil {
			postfixes = append(postfixes, &ast.PostfixCall{List: lst})
			continue
		}
		break
	}
	if len(postfixes) == 0 {
		if e, ok := prefix.(ast.Expr); ok {
			return e, nil
		}
	}
	return &ast.PostfixExpr{Prefix: prefix, Postfixes: postfixes}, nil
}

func (p *DefinitionParser) parseUnaryExpression() (ast.Expr, error) {
	p.SkipWS()
	for _, op := range ast.UnaryOperators {
		if p.skipOp(op) {
			e, err := p.parseCastExpression()
			if err != nil {
				return nil, err
			}
			return &ast.UnaryOpExpr{Op: op, Expr: e}, nil
		}
	}
	if p.SkipWordAndWS("sizeof") {
		return p.parseSizeof()
	}
	if p.SkipWordAndWS("alignof") {
		if !p.SkipStringAndWS("(") {
			return nil, p.Fail("Expecting '(' after 'alignof'.")
		}
		typ, err := p.parseType(unnamed, "")
		if err != nil {
			return nil, err
		}
		p.SkipWS()
		if !p.SkipString(")") {
			return nil, p.Fail("Expecting ')' to end 'alignof'.")
		}
		return &ast.AlignofExpr{Type: typ}, nil
	}
	if p.SkipWordAndWS("noexcept") {
		if !p.SkipStringAndWS("(") {
			return nil, p.Fail("Expecting '(' after 'noexcept'.")
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		p.SkipWS()
		if !p.SkipString(")") {
			return nil, p.Fail("Expecting ')' to end 'noexcept'.")
		}
		return &ast.NoexceptExpr{Expr: e}, nil
	}

	pos := p.Pos
	rooted := p.SkipString("::")
	p.SkipWS()
	if p.SkipWordAndWS("new") {
		if p.SkipStringAndWS("(") {
			return nil, p.Fail("Sorry, neither new-placement nor parenthesised type-id in new-epression is supported yet.")
		}
		specs, err := p.parseDeclSpecs("", true)
		if err != nil {
			return nil, err
		}
		decl, err := p.parseDeclarator(unnamed, "new", true)
		if err != nil {
			return nil, err
		}
		lst, err := p.parseExpressionListOrBracedInitList()
		if err != nil {
			return nil, err
		}
		return &ast.NewExpr{Rooted: rooted, Type: &ast.Type{DeclSpecs: specs, Decl: decl}, InitList: lst}, nil
	}
	p.Pos = pos

	rooted = p.SkipString("::")
	p.SkipWS()
	if p.SkipWordAndWS("delete") {
		array := p.SkipStringAndWS("[")
		if array && !p.SkipStringAndWS("]") {
			return nil, p.Fail("Expected ']' in array delete-expression.")
		}
		e, err := p.parseCastExpression()
		if err != nil {
			return nil, err
		}
		return &ast.DeleteExpr{Rooted: rooted, Array: array, Expr: e}, nil
	}
	p.Pos = pos
	return p.parsePostfixExpression()
}

func (p *DefinitionParser) parseSizeof() (ast.Expr, error) {
	if p.SkipStringAndWS("...") {
		if !p.SkipStringAndWS("(") {
			return nil, p.Fail("Expecting '(' after 'sizeof...'.")
		}
		if !p.Match(scan.Identifier) {
			return nil, p.Fail("Expecting identifier for 'sizeof...'.")
		}
		ident := &ast.Identifier{Name: p.Matched()}
		p.SkipWS()
		if !p.SkipString(")") {
			return nil, p.Fail("Expecting ')' to end 'sizeof...'.")
		}
		return &ast.SizeofParamPack{Ident: ident}, nil
	}
	if p.SkipStringAndWS("(") {
		typ, err := p.parseType(unnamed, "")
		if err != nil {
			return nil, err
		}
		p.SkipWS()
		if !p.SkipString(")") {
			return nil, p.Fail("Expecting ')' to end 'sizeof'.")
		}
		return &ast.SizeofType{Type: typ}, nil
	}
	e, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	return &ast.SizeofExpr{Expr: e}, nil
}

func (p *DefinitionParser) parseCastExpression() (ast.Expr, error) {
	pos := p.Pos
	p.SkipWS()
	if !p.SkipString("(") {
		return p.parseUnaryExpression()
	}
	typ, err := p.parseType(unnamed, "")
	if err == nil && !p.SkipString(")") {
		err = p.Fail("Expected ')' in cast expression.")
	}
	if err == nil {
		var e ast.Expr
		if e, err = p.parseCastExpression(); err == nil {
			return &ast.CastExpr{Type: typ, Expr: e}, nil
		}
	}
	p.Pos = pos
	unary, errUnary := p.parseUnaryExpression()
	if errUnary != nil {
		return nil, multi("Error in cast expression.",
			scan.Cause{Err: err, Header: "If type cast expression"},
			scan.Cause{Err: errUnary, Header: "If unary expression"})
	}
	return unary, nil
}

// binFrame is a pending chain of operands at one precedence level.
type binFrame struct {
	level int
	exprs []ast.Expr
	ops   []string
}

func (f *binFrame) reduce(last ast.Expr) ast.Expr {
	return &ast.BinOpExpr{Exprs: append(f.exprs, last), Ops: f.ops}
}

// parseLogicalOrExpression parses the binary operator levels from || down
// to the pointer-to-member operators. Operators are read left to right
// with an explicit stack of open levels, so each level yields one flat
// BinOpExpr and the Go stack depth does not grow with the number of
// levels.
func (p *DefinitionParser) parseLogicalOrExpression(inTemplate bool) (ast.Expr, error) {
	operand, err := p.parseCastExpression()
	if err != nil {
		return nil, err
	}
	var stack []*binFrame
	for {
		op, level, rhs, ok := p.parseBinOpTail(inTemplate)
		if !ok {
			break
		}
		for len(stack) > 0 && stack[len(stack)-1].level > level {
			operand = stack[len(stack)-1].reduce(operand)
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 && stack[len(stack)-1].level == level {
			top := stack[len(stack)-1]
			top.exprs = append(top.exprs, operand)
			top.ops = append(top.ops, op)
		} else {
			stack = append(stack, &binFrame{level: level, exprs: []ast.Expr{operand}, ops: []string{op}})
		}
		operand = rhs
	}
	for i := len(stack) - 1; i >= 0; i-- {
		operand = stack[i].reduce(operand)
	}
	return operand, nil
}

// parseBinOpTail reads one binary operator and its right operand. The
// tightest binding operators are tried first; an operator whose right
// operand does not parse is backed out and the next candidate is tried.
func (p *DefinitionParser) parseBinOpTail(inTemplate bool) (string, int, ast.Expr, bool) {
	p.SkipWS()
	if inTemplate && p.Current() == '>' {
		return "", 0, nil, false
	}
	pos := p.Pos
	for level := len(ast.BinaryOperators) - 1; level >= 0; level-- {
		for _, op := range ast.BinaryOperators[level] {
			if !p.skipOp(op) {
				continue
			}
			if op == "&" && p.Current() == '&' {
				// part of &&
				p.Pos = pos
				break
			}
			rhs, err := p.parseCastExpression()
			if err == nil {
				return op, level, rhs, true
			}
			p.Pos = pos
		}
	}
	return "", 0, nil, false
}

func (p *DefinitionParser) parseConditionalExpressionTail(head ast.Expr, inTemplate bool) (ast.Expr, error) {
	p.SkipWS()
	if !p.SkipString("?") {
		return nil, nil
	}
	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.SkipWS()
	if !p.SkipString(":") {
		return nil, p.Fail(`Expected ":" after then-expression in conditional expression.`)
	}
	els, err := p.parseAssignmentExpression(inTemplate)
	if err != nil {
		return nil, err
	}
	return &ast.ConditionalExpr{If: head, Then: then, Else: els}, nil
}

func (p *DefinitionParser) parseAssignmentExpression(inTemplate bool) (ast.Expr, error) {
	left, err := p.parseLogicalOrExpression(inTemplate)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseConditionalExpressionTail(left, inTemplate)
	if err != nil || cond != nil {
		return cond, err
	}
	for _, op := range ast.AssignmentOperators {
		if !p.skipOp(op) {
			continue
		}
		right, err := p.parseInitializerClause()
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentExpr{Left: left, Op: op, Right: right}, nil
	}
	return left, nil
}

func (p *DefinitionParser) parseConstantExpression(inTemplate bool) (ast.Expr, error) {
	left, err := p.parseLogicalOrExpression(inTemplate)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseConditionalExpressionTail(left, inTemplate)
	if err != nil || cond != nil {
		return cond, err
	}
	return left, nil
}

func (p *DefinitionParser) parseExpression() (ast.Expr, error) {
	first, err := p.parseAssignmentExpression(false)
	if err != nil {
		return nil, err
	}
	exprs := []ast.Expr{first}
	for {
		p.SkipWS()
		if !p.SkipString(",") {
			break
		}
		e, err := p.parseAssignmentExpression(false)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	if len(exprs) == 1 {
		return first, nil
	}
	return &ast.CommaExpr{Exprs: exprs}, nil
}

var fallbackBrackets = map[byte]byte{'(': ')', '{': '}', '[': ']', '<': '>'}

// parseExpressionFallback runs parse, and if that fails and fallback is
// allowed, keeps the raw text up to the first unnested byte of end.
func (p *DefinitionParser) parseExpressionFallback(end string, parse func() (ast.Expr, error), allow bool) (ast.Expr, error) {
	prev := p.Pos
	e, err := parse()
	if err == nil {
		return e, nil
	}
	if !allow || !p.cfg.AllowFallbackExpressionParsing {
		return nil, err
	}
	p.Warn("Parsing of expression failed. Using fallback parser. Error was:\n%s", err)
	p.Pos = prev

	p.SkipWS()
	start := p.Pos
	var value string
	if p.Match(scan.StringLiteral) {
		value = p.Matched()
	} else {
		var symbols []byte
		for !p.EOF() {
			c := p.Current()
			if len(symbols) == 0 && strings.IndexByte(end, c) >= 0 {
				break
			}
			if closer, ok := fallbackBrackets[c]; ok {
				symbols = append(symbols, closer)
			} else if len(symbols) > 0 && c == symbols[len(symbols)-1] {
				symbols = symbols[:len(symbols)-1]
			}
			p.Pos++
		}
		if end != "" && p.EOF() {
			return nil, p.Fail("Could not find end of expression starting at %d.", start)
		}
		value = p.Definition[start:p.Pos]
	}
	return &ast.FallbackExpr{Text: strings.TrimSpace(value)}, nil
}
