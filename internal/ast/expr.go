package ast

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Expr is any expression node.
type Expr interface {
	Node
	describer
	ider
	expr()
}

func formatExprs(exprs []Expr, display bool) []string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.format(display)
	}
	return parts
}

func exprIDs(exprs []Expr, version int) string {
	var b strings.Builder
	for _, e := range exprs {
		b.WriteString(e.id(version))
	}
	return b.String()
}

// isWordOp reports whether op is spelled as a keyword (and, bitor, ...).
func isWordOp(op string) bool {
	return op != "" && strings.ContainsRune("abcnox", rune(op[0]))
}

func describeOp(w writer, op string) {
	if isWordOp(op) {
		w.keyword(op)
	} else {
		w.op(op)
	}
}

// PointerLiteral is nullptr.
type PointerLiteral struct{}

func (*PointerLiteral) expr()                                  {}
func (*PointerLiteral) format(bool) string                     { return "nullptr" }
func (*PointerLiteral) id(int) string                          { return "LDnE" }
func (*PointerLiteral) describe(out *SigNode, _ Mode, _ *describeCtx) { writer{out}.keyword("nullptr") }

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	Value bool
}

func (*BooleanLiteral) expr() {}

func (b *BooleanLiteral) format(bool) string {
	if b.Value {
		return "true"
	}
	return "false"
}

func (b *BooleanLiteral) id(int) string {
	if b.Value {
		return "L1E"
	}
	return "L0E"
}

func (b *BooleanLiteral) describe(out *SigNode, _ Mode, _ *describeCtx) {
	writer{out}.keyword(String(b))
}

// NumberLiteral is an integer or floating literal, kept as written.
type NumberLiteral struct {
	Data string
}

func (*NumberLiteral) expr()                  {}
func (n *NumberLiteral) format(bool) string   { return n.Data }
func (n *NumberLiteral) id(int) string        { return "L" + strings.ReplaceAll(n.Data, "'", "") + "E" }
func (n *NumberLiteral) describe(out *SigNode, _ Mode, _ *describeCtx) {
	out.Add(SigNumber, n.Data)
}

// StringLiteral is a string literal including its quotes.
type StringLiteral struct {
	Data string
}

func (*StringLiteral) expr()                {}
func (s *StringLiteral) format(bool) string { return s.Data }

func (s *StringLiteral) id(int) string {
	// The length ignores escapes.
	return fmt.Sprintf("LA%d_KcE", len(s.Data)-2)
}

func (s *StringLiteral) describe(out *SigNode, _ Mode, _ *describeCtx) {
	out.Add(SigString, s.Data)
}

// CharLiteral is a character literal with an optional encoding prefix.
type CharLiteral struct {
	Prefix string
	Data   string
	typ    string
	value  int
}

// NewCharLiteral decodes data, which is the text between the quotes.
func NewCharLiteral(prefix, data string) (*CharLiteral, error) {
	c := &CharLiteral{Prefix: prefix, Data: data, typ: charPrefixID[prefix]}
	if !strings.HasPrefix(data, `\`) {
		r, size := utf8.DecodeRuneInString(data)
		if size != len(data) {
			return nil, fmt.Errorf("character literal %q decodes to multiple characters", data)
		}
		c.value = int(r)
		return c, nil
	}
	esc := data[1:]
	switch {
	case esc != "" && esc[0] >= '0' && esc[0] <= '7':
		v, err := strconv.ParseUint(esc, 8, 32)
		if err != nil {
			return nil, fmt.Errorf("decode character literal %q: %w", data, err)
		}
		c.value = int(v)
	default:
		r, _, tail, err := strconv.UnquoteChar(data, '\'')
		if err != nil {
			return nil, fmt.Errorf("decode character literal %q: %w", data, err)
		}
		if tail != "" {
			return nil, fmt.Errorf("character literal %q decodes to multiple characters", data)
		}
		c.value = int(r)
	}
	return c, nil
}

func (*CharLiteral) expr() {}

func (c *CharLiteral) format(bool) string {
	return c.Prefix + "'" + c.Data + "'"
}

func (c *CharLiteral) id(int) string {
	return c.typ + strconv.Itoa(c.value)
}

func (c *CharLiteral) describe(out *SigNode, _ Mode, _ *describeCtx) {
	if c.Prefix != "" {
		writer{out}.keyword(c.Prefix)
	}
	out.Add(SigChar, "'"+c.Data+"'")
}

// UserDefinedLiteral is a literal followed by a literal-operator suffix.
type UserDefinedLiteral struct {
	Literal Expr
	Ident   *Identifier
}

func (*UserDefinedLiteral) expr() {}

func (u *UserDefinedLiteral) format(display bool) string {
	return u.Literal.format(display) + u.Ident.format(display)
}

func (u *UserDefinedLiteral) id(version int) string {
	return "clL_Zli" + u.Ident.id(version) + "E" + u.Literal.id(version) + "E"
}

func (u *UserDefinedLiteral) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	u.Literal.describe(out, mode, ctx)
	u.Ident.describeName(out, ModeUDL, ctx, "", "")
}

// ThisLiteral is the this keyword.
type ThisLiteral struct{}

func (*ThisLiteral) expr()              {}
func (*ThisLiteral) format(bool) string { return "this" }
func (*ThisLiteral) id(int) string      { return "fpT" }
func (*ThisLiteral) describe(out *SigNode, _ Mode, _ *describeCtx) {
	writer{out}.keyword("this")
}

// FoldExpr is a unary or binary fold. Left or Right is nil for unary folds.
type FoldExpr struct {
	Left  Expr
	Op    string
	Right Expr
}

func (*FoldExpr) expr() {}

func (f *FoldExpr) format(display bool) string {
	var b strings.Builder
	b.WriteString("(")
	if f.Left != nil {
		b.WriteString(f.Left.format(display))
		b.WriteString(" " + f.Op + " ")
	}
	b.WriteString("...")
	if f.Right != nil {
		b.WriteString(" " + f.Op + " ")
		b.WriteString(f.Right.format(display))
	}
	b.WriteString(")")
	return b.String()
}

func (f *FoldExpr) id(version int) string {
	if version < 3 {
		noOldID(version)
	}
	if version == 3 {
		return String(f)
	}
	var b strings.Builder
	switch {
	case f.Left == nil:
		b.WriteString("fl")
	case f.Right == nil:
		b.WriteString("fr")
	default:
		// Binary folds are always encoded as left folds.
		b.WriteString("fL")
	}
	b.WriteString(operatorIDv2[f.Op])
	if f.Left != nil {
		b.WriteString(f.Left.id(version))
	}
	if f.Right != nil {
		b.WriteString(f.Right.id(version))
	}
	return b.String()
}

func (f *FoldExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.punct("(")
	if f.Left != nil {
		f.Left.describe(out, mode, ctx)
		w.space()
		w.op(f.Op)
		w.space()
	}
	w.punct("...")
	if f.Right != nil {
		w.space()
		w.op(f.Op)
		w.space()
		f.Right.describe(out, mode, ctx)
	}
	w.punct(")")
}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	Expr Expr
}

func (*ParenExpr) expr()                          {}
func (p *ParenExpr) format(display bool) string   { return "(" + p.Expr.format(display) + ")" }
func (p *ParenExpr) id(version int) string        { return p.Expr.id(version) }
func (p *ParenExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.punct("(")
	p.Expr.describe(out, mode, ctx)
	w.punct(")")
}

// IDExpression is a (possibly qualified) name used as an expression.
type IDExpression struct {
	Name *NestedName
}

func (*IDExpression) expr()                        {}
func (i *IDExpression) format(display bool) string { return i.Name.format(display) }
func (i *IDExpression) id(version int) string      { return i.Name.id(version) }
func (i *IDExpression) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	i.Name.describe(out, mode, ctx)
}

// Postfix is one postfix operation applied to a PostfixExpr prefix.
type Postfix interface {
	Node
	describer
	postfixID(prefixID string, version int) string
}

// PostfixArray is a subscript, [expr].
type PostfixArray struct {
	Expr Expr
}

func (p *PostfixArray) format(display bool) string { return "[" + p.Expr.format(display) + "]" }
func (p *PostfixArray) postfixID(prefix string, version int) string {
	return "ix" + prefix + p.Expr.id(version)
}
func (p *PostfixArray) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.punct("[")
	p.Expr.describe(out, mode, ctx)
	w.punct("]")
}

// PostfixMember is member access, .name.
type PostfixMember struct {
	Name *NestedName
}

func (p *PostfixMember) format(display bool) string { return "." + p.Name.format(display) }
func (p *PostfixMember) postfixID(prefix string, version int) string {
	return "dt" + prefix + p.Name.id(version)
}
func (p *PostfixMember) describe(out *SigNode, _ Mode, ctx *describeCtx) {
	writer{out}.punct(".")
	p.Name.describe(out, ModeNoneIsName, ctx)
}

// PostfixMemberOfPointer is member access through a pointer, ->name.
type PostfixMemberOfPointer struct {
	Name *NestedName
}

func (p *PostfixMemberOfPointer) format(display bool) string { return "->" + p.Name.format(display) }
func (p *PostfixMemberOfPointer) postfixID(prefix string, version int) string {
	return "pt" + prefix + p.Name.id(version)
}
func (p *PostfixMemberOfPointer) describe(out *SigNode, _ Mode, ctx *describeCtx) {
	writer{out}.op("->")
	p.Name.describe(out, ModeNoneIsName, ctx)
}

// PostfixInc is x++.
type PostfixInc struct{}

func (*PostfixInc) format(bool) string                           { return "++" }
func (*PostfixInc) postfixID(prefix string, _ int) string       { return "pp" + prefix }
func (*PostfixInc) describe(out *SigNode, _ Mode, _ *describeCtx) { writer{out}.op("++") }

// PostfixDec is x--.
type PostfixDec struct{}

func (*PostfixDec) format(bool) string                           { return "--" }
func (*PostfixDec) postfixID(prefix string, _ int) string       { return "mm" + prefix }
func (*PostfixDec) describe(out *SigNode, _ Mode, _ *describeCtx) { writer{out}.op("--") }

// ExprList is a parenthesized expression list or a braced-init-list.
type ExprList interface {
	Node
	describer
	ider
	Items() []Expr
}

// PostfixCall is a call, (args) or {args}.
type PostfixCall struct {
	List ExprList
}

func (p *PostfixCall) format(display bool) string { return p.List.format(display) }
func (p *PostfixCall) postfixID(prefix string, version int) string {
	return "cl" + prefix + exprIDs(p.List.Items(), version) + "E"
}
func (p *PostfixCall) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	p.List.describe(out, mode, ctx)
}

// PostfixExpr is a prefix expression (or a type, for functional casts)
// followed by postfix operations.
type PostfixExpr struct {
	Prefix   TemplateArg
	Postfixes []Postfix
}

func (*PostfixExpr) expr() {}

func (p *PostfixExpr) format(display bool) string {
	var b strings.Builder
	b.WriteString(p.Prefix.format(display))
	for _, pf := range p.Postfixes {
		b.WriteString(pf.format(display))
	}
	return b.String()
}

func (p *PostfixExpr) id(version int) string {
	id := p.Prefix.id(version)
	for _, pf := range p.Postfixes {
		id = pf.postfixID(id, version)
	}
	return id
}

func (p *PostfixExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	p.Prefix.describe(out, mode, ctx)
	for _, pf := range p.Postfixes {
		pf.describe(out, mode, ctx)
	}
}

// ExplicitCast is one of the named casts, static_cast<T>(e) etc.
type ExplicitCast struct {
	Cast string
	Type *Type
	Expr Expr
}

func (*ExplicitCast) expr() {}

func (c *ExplicitCast) format(display bool) string {
	return c.Cast + "<" + c.Type.format(display) + ">(" + c.Expr.format(display) + ")"
}

func (c *ExplicitCast) id(version int) string {
	return ExplicitCasts[c.Cast] + c.Type.id(version) + c.Expr.id(version)
}

func (c *ExplicitCast) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.keyword(c.Cast)
	w.punct("<")
	c.Type.describe(out, mode, ctx)
	w.punct(">")
	w.punct("(")
	c.Expr.describe(out, mode, ctx)
	w.punct(")")
}

// TypeID is typeid(type) or typeid(expr).
type TypeID struct {
	Operand TemplateArg
	IsType  bool
}

func (*TypeID) expr()                          {}
func (t *TypeID) format(display bool) string   { return "typeid(" + t.Operand.format(display) + ")" }
func (t *TypeID) id(version int) string {
	if t.IsType {
		return "ti" + t.Operand.id(version)
	}
	return "te" + t.Operand.id(version)
}
func (t *TypeID) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.keyword("typeid")
	w.punct("(")
	t.Operand.describe(out, mode, ctx)
	w.punct(")")
}

// UnaryOpExpr is a prefix operator applied to an expression.
type UnaryOpExpr struct {
	Op   string
	Expr Expr
}

func (*UnaryOpExpr) expr() {}

func (u *UnaryOpExpr) format(display bool) string {
	if u.Op[0] == 'c' || u.Op[0] == 'n' {
		return u.Op + " " + u.Expr.format(display)
	}
	return u.Op + u.Expr.format(display)
}

func (u *UnaryOpExpr) id(version int) string {
	return unaryOperatorIDv2[u.Op] + u.Expr.id(version)
}

func (u *UnaryOpExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	if u.Op[0] == 'c' || u.Op[0] == 'n' {
		w.keyword(u.Op)
		w.space()
	} else {
		w.op(u.Op)
	}
	u.Expr.describe(out, mode, ctx)
}

// SizeofParamPack is sizeof...(name).
type SizeofParamPack struct {
	Ident *Identifier
}

func (*SizeofParamPack) expr()                        {}
func (s *SizeofParamPack) format(display bool) string { return "sizeof...(" + s.Ident.format(display) + ")" }
func (s *SizeofParamPack) id(version int) string      { return "sZ" + s.Ident.id(version) }
func (s *SizeofParamPack) describe(out *SigNode, _ Mode, ctx *describeCtx) {
	w := writer{out}
	w.keyword("sizeof")
	w.punct("...")
	w.punct("(")
	s.Ident.describeName(out, ModeMarkType, ctx, "", "")
	w.punct(")")
}

// SizeofType is sizeof(type).
type SizeofType struct {
	Type *Type
}

func (*SizeofType) expr()                        {}
func (s *SizeofType) format(display bool) string { return "sizeof(" + s.Type.format(display) + ")" }
func (s *SizeofType) id(version int) string      { return "st" + s.Type.id(version) }
func (s *SizeofType) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.keyword("sizeof")
	w.punct("(")
	s.Type.describe(out, mode, ctx)
	w.punct(")")
}

// SizeofExpr is sizeof expr.
type SizeofExpr struct {
	Expr Expr
}

func (*SizeofExpr) expr()                        {}
func (s *SizeofExpr) format(display bool) string { return "sizeof " + s.Expr.format(display) }
func (s *SizeofExpr) id(version int) string      { return "sz" + s.Expr.id(version) }
func (s *SizeofExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.keyword("sizeof")
	w.space()
	s.Expr.describe(out, mode, ctx)
}

// AlignofExpr is alignof(type).
type AlignofExpr struct {
	Type *Type
}

func (*AlignofExpr) expr()                        {}
func (a *AlignofExpr) format(display bool) string { return "alignof(" + a.Type.format(display) + ")" }
func (a *AlignofExpr) id(version int) string      { return "at" + a.Type.id(version) }
func (a *AlignofExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.keyword("alignof")
	w.punct("(")
	a.Type.describe(out, mode, ctx)
	w.punct(")")
}

// NoexceptExpr is noexcept(expr).
type NoexceptExpr struct {
	Expr Expr
}

func (*NoexceptExpr) expr()                        {}
func (n *NoexceptExpr) format(display bool) string { return "noexcept(" + n.Expr.format(display) + ")" }
func (n *NoexceptExpr) id(version int) string      { return "nx" + n.Expr.id(version) }
func (n *NoexceptExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.keyword("noexcept")
	w.punct("(")
	n.Expr.describe(out, mode, ctx)
	w.punct(")")
}

// NewExpr is a new-expression without placement.
type NewExpr struct {
	Rooted   bool
	Type     *Type
	InitList ExprList
}

func (*NewExpr) expr() {}

func (n *NewExpr) format(display bool) string {
	var b strings.Builder
	if n.Rooted {
		b.WriteString("::")
	}
	b.WriteString("new ")
	b.WriteString(n.Type.format(display))
	if n.InitList != nil {
		b.WriteString(n.InitList.format(display))
	}
	return b.String()
}

func (n *NewExpr) id(version int) string {
	// The array part is in the type mangling, so na is not used.
	res := "nw_" + n.Type.id(version)
	if n.InitList != nil {
		return res + n.InitList.id(version)
	}
	return res + "E"
}

func (n *NewExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	if n.Rooted {
		w.punct("::")
	}
	w.keyword("new")
	w.space()
	n.Type.describe(out, mode, ctx)
	if n.InitList != nil {
		n.InitList.describe(out, mode, ctx)
	}
}

// DeleteExpr is delete expr or delete[] expr.
type DeleteExpr struct {
	Rooted bool
	Array  bool
	Expr   Expr
}

func (*DeleteExpr) expr() {}

func (d *DeleteExpr) format(display bool) string {
	var b strings.Builder
	if d.Rooted {
		b.WriteString("::")
	}
	b.WriteString("delete ")
	if d.Array {
		b.WriteString("[] ")
	}
	b.WriteString(d.Expr.format(display))
	return b.String()
}

func (d *DeleteExpr) id(version int) string {
	id := "dl"
	if d.Array {
		id = "da"
	}
	if d.Rooted {
		id = "gs" + id
	}
	return id + d.Expr.id(version)
}

func (d *DeleteExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	if d.Rooted {
		w.punct("::")
	}
	w.keyword("delete")
	w.space()
	if d.Array {
		w.punct("[]")
		w.space()
	}
	d.Expr.describe(out, mode, ctx)
}

// CastExpr is a C-style cast, (type)expr.
type CastExpr struct {
	Type *Type
	Expr Expr
}

func (*CastExpr) expr() {}

func (c *CastExpr) format(display bool) string {
	return "(" + c.Type.format(display) + ")" + c.Expr.format(display)
}

func (c *CastExpr) id(version int) string {
	return "cv" + c.Type.id(version) + c.Expr.id(version)
}

func (c *CastExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.punct("(")
	c.Type.describe(out, mode, ctx)
	w.punct(")")
	c.Expr.describe(out, mode, ctx)
}

// BinOpExpr is a left-associative chain of operators of one precedence
// level: Exprs[0] Ops[0] Exprs[1] ...
type BinOpExpr struct {
	Exprs []Expr
	Ops   []string
}

func (*BinOpExpr) expr() {}

func (b *BinOpExpr) format(display bool) string {
	var sb strings.Builder
	sb.WriteString(b.Exprs[0].format(display))
	for i, op := range b.Ops {
		sb.WriteString(" " + op + " ")
		sb.WriteString(b.Exprs[i+1].format(display))
	}
	return sb.String()
}

func (b *BinOpExpr) id(version int) string {
	if version < 2 {
		noOldID(version)
	}
	var sb strings.Builder
	for i, op := range b.Ops {
		sb.WriteString(operatorIDv2[op])
		sb.WriteString(b.Exprs[i].id(version))
	}
	sb.WriteString(b.Exprs[len(b.Exprs)-1].id(version))
	return sb.String()
}

func (b *BinOpExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	b.Exprs[0].describe(out, mode, ctx)
	for i, op := range b.Ops {
		w.space()
		describeOp(w, op)
		w.space()
		b.Exprs[i+1].describe(out, mode, ctx)
	}
}

// ConditionalExpr is cond ? then : else.
type ConditionalExpr struct {
	If, Then, Else Expr
}

func (*ConditionalExpr) expr() {}

func (c *ConditionalExpr) format(display bool) string {
	return c.If.format(display) + " ? " + c.Then.format(display) + " : " + c.Else.format(display)
}

func (c *ConditionalExpr) id(version int) string {
	return operatorIDv2["?"] + c.If.id(version) + c.Then.id(version) + c.Else.id(version)
}

func (c *ConditionalExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	c.If.describe(out, mode, ctx)
	w.space()
	w.op("?")
	w.space()
	c.Then.describe(out, mode, ctx)
	w.space()
	w.op(":")
	w.space()
	c.Else.describe(out, mode, ctx)
}

// BracedInitList is {a, b,}.
type BracedInitList struct {
	Exprs         []Expr
	TrailingComma bool
}

func (*BracedInitList) expr()           {}
func (b *BracedInitList) Items() []Expr { return b.Exprs }

func (b *BracedInitList) format(display bool) string {
	res := "{" + strings.Join(formatExprs(b.Exprs, display), ", ")
	if b.TrailingComma {
		res += ","
	}
	return res + "}"
}

func (b *BracedInitList) id(version int) string {
	return "il" + exprIDs(b.Exprs, version) + "E"
}

func (b *BracedInitList) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.punct("{")
	for i, e := range b.Exprs {
		if i > 0 {
			w.punct(",")
			w.space()
		}
		e.describe(out, mode, ctx)
	}
	if b.TrailingComma {
		w.punct(",")
	}
	w.punct("}")
}

// ParenExprList is (a, b).
type ParenExprList struct {
	Exprs []Expr
}

func (*ParenExprList) expr()           {}
func (p *ParenExprList) Items() []Expr { return p.Exprs }

func (p *ParenExprList) format(display bool) string {
	return "(" + strings.Join(formatExprs(p.Exprs, display), ", ") + ")"
}

func (p *ParenExprList) id(version int) string {
	return "pi" + exprIDs(p.Exprs, version) + "E"
}

func (p *ParenExprList) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.punct("(")
	for i, e := range p.Exprs {
		if i > 0 {
			w.punct(",")
			w.space()
		}
		e.describe(out, mode, ctx)
	}
	w.punct(")")
}

// AssignmentExpr is left op right for an assignment operator.
type AssignmentExpr struct {
	Left  Expr
	Op    string
	Right Expr
}

func (*AssignmentExpr) expr() {}

func (a *AssignmentExpr) format(display bool) string {
	return a.Left.format(display) + " " + a.Op + " " + a.Right.format(display)
}

func (a *AssignmentExpr) id(version int) string {
	return operatorIDv2[a.Op] + a.Left.id(version) + a.Right.id(version)
}

func (a *AssignmentExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	a.Left.describe(out, mode, ctx)
	w.space()
	describeOp(w, a.Op)
	w.space()
	a.Right.describe(out, mode, ctx)
}

// CommaExpr is a, b, c.
type CommaExpr struct {
	Exprs []Expr
}

func (*CommaExpr) expr() {}

func (c *CommaExpr) format(display bool) string {
	return strings.Join(formatExprs(c.Exprs, display), ", ")
}

func (c *CommaExpr) id(version int) string {
	var b strings.Builder
	for _, e := range c.Exprs[:len(c.Exprs)-1] {
		b.WriteString(operatorIDv2[","])
		b.WriteString(e.id(version))
	}
	b.WriteString(c.Exprs[len(c.Exprs)-1].id(version))
	return b.String()
}

func (c *CommaExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	for i, e := range c.Exprs {
		if i > 0 {
			w.punct(",")
			w.space()
		}
		e.describe(out, mode, ctx)
	}
}

// PackExpansionExpr is expr...
type PackExpansionExpr struct {
	Expr Expr
}

func (*PackExpansionExpr) expr()                        {}
func (p *PackExpansionExpr) format(display bool) string { return p.Expr.format(display) + "..." }
func (p *PackExpansionExpr) id(version int) string      { return "sp" + p.Expr.id(version) }
func (p *PackExpansionExpr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	p.Expr.describe(out, mode, ctx)
	writer{out}.punct("...")
}

// FallbackExpr holds expression text the parser could only scan, not
// understand.
type FallbackExpr struct {
	Text string
}

func (*FallbackExpr) expr()                {}
func (f *FallbackExpr) format(bool) string { return f.Text }
func (f *FallbackExpr) id(int) string      { return f.Text }
func (f *FallbackExpr) describe(out *SigNode, _ Mode, _ *describeCtx) {
	out.Add(SigText, f.Text)
}
