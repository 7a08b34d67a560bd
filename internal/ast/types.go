package ast

import (
	"strings"
)

// Attribute is one attribute in a declaration: [[...]], __attribute__((...))
// or a user-configured id or paren attribute.
type Attribute interface {
	Node
	describer
}

// CPPAttribute is a standard attribute, [[arg]].
type CPPAttribute struct {
	Arg string
}

func (a *CPPAttribute) format(bool) string { return "[[" + a.Arg + "]]" }
func (a *CPPAttribute) describe(out *SigNode, _ Mode, _ *describeCtx) {
	w := writer{out}
	w.punct("[[")
	w.text(a.Arg)
	w.punct("]]")
}

// GNUAttribute is one entry of a GNU attribute list.
type GNUAttribute struct {
	Name string
	Args *ParenExprList
}

func (a *GNUAttribute) format(display bool) string {
	if a.Args == nil {
		return a.Name
	}
	return a.Name + a.Args.format(display)
}

// GNUAttributeList is __attribute__((a, b(1))).
type GNUAttributeList struct {
	Attrs []*GNUAttribute
}

func (l *GNUAttributeList) format(display bool) string {
	parts := make([]string, len(l.Attrs))
	for i, a := range l.Attrs {
		parts[i] = a.format(display)
	}
	return "__attribute__((" + strings.Join(parts, ", ") + "))"
}

func (l *GNUAttributeList) describe(out *SigNode, _ Mode, _ *describeCtx) {
	out.Add(SigText, String(l))
}

// IDAttribute is a user-configured bare attribute such as a visibility macro.
type IDAttribute struct {
	ID string
}

func (a *IDAttribute) format(bool) string { return a.ID }
func (a *IDAttribute) describe(out *SigNode, _ Mode, _ *describeCtx) {
	writer{out}.name(a.ID)
}

// ParenAttribute is a user-configured attribute taking a balanced argument.
type ParenAttribute struct {
	ID  string
	Arg string
}

func (a *ParenAttribute) format(bool) string { return a.ID + "(" + a.Arg + ")" }
func (a *ParenAttribute) describe(out *SigNode, _ Mode, _ *describeCtx) {
	w := writer{out}
	w.name(a.ID)
	w.punct("(")
	w.text(a.Arg)
	w.punct(")")
}

// AttributeList is a possibly empty run of attributes.
type AttributeList []Attribute

func (l AttributeList) format(display bool) string {
	parts := make([]string, len(l))
	for i, a := range l {
		parts[i] = a.format(display)
	}
	return strings.Join(parts, " ")
}

func (l AttributeList) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	for i, a := range l {
		if i > 0 {
			writer{out}.space()
		}
		a.describe(out, mode, ctx)
	}
}

// TrailingTypeSpec is the type named in a decl-specifier-seq.
type TrailingTypeSpec interface {
	Node
	describer
	ider
}

// FundamentalType is a run of simple type specifiers such as
// "unsigned long int". CanonNames holds them in canonical order.
type FundamentalType struct {
	Names      []string
	CanonNames []string
}

func (f *FundamentalType) format(bool) string { return strings.Join(f.Names, " ") }

func (f *FundamentalType) id(version int) string {
	if version == 1 {
		res := make([]string, len(f.CanonNames))
		for i, n := range f.CanonNames {
			if id, ok := fundamentalIDv1[n]; ok {
				res[i] = id
			} else {
				res[i] = n
			}
		}
		return strings.Join(res, "-")
	}
	txt := strings.Join(f.CanonNames, " ")
	id, ok := fundamentalIDv2[txt]
	if !ok {
		panic("internal error: no id for fundamental type " + txt)
	}
	return id
}

func (f *FundamentalType) describe(out *SigNode, _ Mode, _ *describeCtx) {
	w := writer{out}
	for i, n := range f.Names {
		if i > 0 {
			w.space()
		}
		w.ktype(n)
	}
}

// DecltypeAuto is decltype(auto).
type DecltypeAuto struct{}

func (*DecltypeAuto) format(bool) string { return "decltype(auto)" }

func (*DecltypeAuto) id(version int) string {
	if version == 1 {
		noOldID(version)
	}
	return "Dc"
}

func (*DecltypeAuto) describe(out *SigNode, _ Mode, _ *describeCtx) {
	describeDecltypeAuto(writer{out})
}

func describeDecltypeAuto(w writer) {
	w.keyword("decltype")
	w.punct("(")
	w.keyword("auto")
	w.punct(")")
}

// Decltype is decltype(expr).
type Decltype struct {
	Expr Expr
}

func (d *Decltype) format(display bool) string { return "decltype(" + d.Expr.format(display) + ")" }

func (d *Decltype) id(version int) string {
	if version == 1 {
		noOldID(version)
	}
	return "DT" + d.Expr.id(version) + "E"
}

func (d *Decltype) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.keyword("decltype")
	w.punct("(")
	d.Expr.describe(out, mode, ctx)
	w.punct(")")
}

// TypeName is a named type with an optional elaborated-type prefix
// (class, struct, enum, union, typename) and an optional placeholder
// (auto or decltype(auto)) for constrained placeholder types.
type TypeName struct {
	Prefix      string
	Name        *NestedName
	Placeholder string
}

func (t *TypeName) format(display bool) string {
	var b strings.Builder
	if t.Prefix != "" {
		b.WriteString(t.Prefix + " ")
	}
	b.WriteString(t.Name.format(display))
	if t.Placeholder != "" {
		b.WriteString(" " + t.Placeholder)
	}
	return b.String()
}

func (t *TypeName) id(version int) string { return t.Name.id(version) }

func (t *TypeName) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	if t.Prefix != "" {
		w.keyword(t.Prefix)
		w.space()
	}
	t.Name.describe(out, mode, ctx)
	switch t.Placeholder {
	case "auto":
		w.space()
		w.keyword("auto")
	case "decltype(auto)":
		w.space()
		describeDecltypeAuto(w)
	}
}

// ExplicitSpec is explicit or explicit(expr).
type ExplicitSpec struct {
	Expr Expr
}

func (e *ExplicitSpec) format(display bool) string {
	if e.Expr == nil {
		return "explicit"
	}
	return "explicit(" + e.Expr.format(display) + ")"
}

func (e *ExplicitSpec) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.keyword("explicit")
	if e.Expr != nil {
		w.punct("(")
		e.Expr.describe(out, mode, ctx)
		w.punct(")")
	}
}

// SimpleDeclSpecs are the non-type decl-specifiers on one side of the type.
type SimpleDeclSpecs struct {
	Storage      string
	ThreadLocal  bool
	Inline       bool
	Virtual      bool
	ExplicitSpec *ExplicitSpec
	Consteval    bool
	Constexpr    bool
	Constinit    bool
	Volatile     bool
	Const        bool
	Friend       bool
	Attrs        AttributeList
}

// Merge returns the union of s and other.
func (s *SimpleDeclSpecs) Merge(other *SimpleDeclSpecs) *SimpleDeclSpecs {
	if other == nil {
		return s
	}
	res := &SimpleDeclSpecs{
		Storage:      s.Storage,
		ThreadLocal:  s.ThreadLocal || other.ThreadLocal,
		Inline:       s.Inline || other.Inline,
		Virtual:      s.Virtual || other.Virtual,
		ExplicitSpec: s.ExplicitSpec,
		Consteval:    s.Consteval || other.Consteval,
		Constexpr:    s.Constexpr || other.Constexpr,
		Constinit:    s.Constinit || other.Constinit,
		Volatile:     s.Volatile || other.Volatile,
		Const:        s.Const || other.Const,
		Friend:       s.Friend || other.Friend,
	}
	if res.Storage == "" {
		res.Storage = other.Storage
	}
	if res.ExplicitSpec == nil {
		res.ExplicitSpec = other.ExplicitSpec
	}
	res.Attrs = append(append(AttributeList{}, s.Attrs...), other.Attrs...)
	return res
}

func (s *SimpleDeclSpecs) words(display bool) []string {
	var res []string
	if len(s.Attrs) != 0 {
		res = append(res, s.Attrs.format(display))
	}
	if s.Storage != "" {
		res = append(res, s.Storage)
	}
	if s.ThreadLocal {
		res = append(res, "thread_local")
	}
	if s.Inline {
		res = append(res, "inline")
	}
	if s.Friend {
		res = append(res, "friend")
	}
	if s.Virtual {
		res = append(res, "virtual")
	}
	if s.ExplicitSpec != nil {
		res = append(res, s.ExplicitSpec.format(display))
	}
	if s.Consteval {
		res = append(res, "consteval")
	}
	if s.Constexpr {
		res = append(res, "constexpr")
	}
	if s.Constinit {
		res = append(res, "constinit")
	}
	if s.Volatile {
		res = append(res, "volatile")
	}
	if s.Const {
		res = append(res, "const")
	}
	return res
}

func (s *SimpleDeclSpecs) format(display bool) string {
	return strings.Join(s.words(display), " ")
}

func (s *SimpleDeclSpecs) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	s.Attrs.describe(out, mode, ctx)
	addSpace := len(s.Attrs) != 0
	add := func(text string) {
		if addSpace {
			w.space()
		}
		w.keyword(text)
		addSpace = true
	}
	if s.Storage != "" {
		add(s.Storage)
	}
	if s.ThreadLocal {
		add("thread_local")
	}
	if s.Inline {
		add("inline")
	}
	if s.Friend {
		add("friend")
	}
	if s.Virtual {
		add("virtual")
	}
	if s.ExplicitSpec != nil {
		if addSpace {
			w.space()
		}
		s.ExplicitSpec.describe(out, mode, ctx)
		addSpace = true
	}
	if s.Consteval {
		add("consteval")
	}
	if s.Constexpr {
		add("constexpr")
	}
	if s.Constinit {
		add("constinit")
	}
	if s.Volatile {
		add("volatile")
	}
	if s.Const {
		add("const")
	}
}

// DeclSpecs is a full decl-specifier-seq: specifiers left of the type, the
// type itself and specifiers right of it (as in "int const").
type DeclSpecs struct {
	Outer    string
	Left     *SimpleDeclSpecs
	Right    *SimpleDeclSpecs
	Trailing TrailingTypeSpec
}

// All merges the left and right specifiers.
func (d *DeclSpecs) All() *SimpleDeclSpecs {
	return d.Left.Merge(d.Right)
}

func (d *DeclSpecs) format(display bool) string {
	var b strings.Builder
	b.WriteString(d.Left.format(display))
	if d.Trailing != nil {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(d.Trailing.format(display))
	}
	if d.Right != nil {
		if r := d.Right.format(display); r != "" {
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			b.WriteString(r)
		}
	}
	return b.String()
}

func (d *DeclSpecs) id(version int) string {
	all := d.All()
	var b strings.Builder
	if version == 1 {
		b.WriteString(d.Trailing.id(version))
		if all.Volatile {
			b.WriteString("V")
		}
		if all.Const {
			b.WriteString("C")
		}
		return b.String()
	}
	if all.Volatile {
		b.WriteString("V")
	}
	if all.Const {
		b.WriteString("K")
	}
	if d.Trailing != nil {
		b.WriteString(d.Trailing.id(version))
	}
	return b.String()
}

func (d *DeclSpecs) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	n := out.Len()
	d.Left.describe(out, mode, ctx)
	addSpace := out.Len() != n
	if d.Trailing == nil {
		return
	}
	if addSpace {
		w.space()
	}
	n = out.Len()
	d.Trailing.describe(out, mode, ctx)
	addSpace = out.Len() != n
	if d.Right != nil && d.Right.format(false) != "" {
		if addSpace {
			w.space()
		}
		d.Right.describe(out, mode, ctx)
	}
}

// Array is one array dimension; Size is nil for [].
type Array struct {
	Size Expr
}

func (a *Array) format(display bool) string {
	if a.Size == nil {
		return "[]"
	}
	return "[" + a.Size.format(display) + "]"
}

func (a *Array) id(version int) string {
	switch {
	case version == 1:
		return "A"
	case a.Size == nil:
		return "A_"
	case version == 2:
		return "A" + String(a.Size) + "_"
	}
	return "A" + a.Size.id(version) + "_"
}

func (a *Array) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.punct("[")
	if a.Size != nil {
		a.Size.describe(out, mode, ctx)
	}
	w.punct("]")
}

// NoexceptSpec is noexcept or noexcept(expr).
type NoexceptSpec struct {
	Expr Expr
}

func (n *NoexceptSpec) format(display bool) string {
	if n.Expr == nil {
		return "noexcept"
	}
	return "noexcept(" + n.Expr.format(display) + ")"
}

func (n *NoexceptSpec) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.keyword("noexcept")
	if n.Expr != nil {
		w.punct("(")
		n.Expr.describe(out, mode, ctx)
		w.punct(")")
	}
}

// FunctionParameter is one entry of a parameter list. Arg is nil for a
// C-style variadic ellipsis. Arg is a *TypeWithInit or a
// *ConstrainedTypeWithInit.
type FunctionParameter struct {
	Arg      TypedParam
	Ellipsis bool
}

// TypedParam is the shape shared by the two kinds of typed parameter.
type TypedParam interface {
	Node
	describer
	ider
	Name() *NestedName
	IsPack() bool
	declID(version int, objectType string, owner Owner) string
}

func (p *FunctionParameter) Name() *NestedName {
	if p.Arg == nil {
		return nil
	}
	return p.Arg.Name()
}

func (p *FunctionParameter) format(display bool) string {
	if p.Ellipsis {
		return "..."
	}
	return p.Arg.format(display)
}

func (p *FunctionParameter) id(version int) string {
	if p.Ellipsis {
		return "z"
	}
	return p.Arg.id(version)
}

// declID anchors a parameter symbol at its function.
func (p *FunctionParameter) declID(version int, _ string, owner Owner) string {
	if owner != nil {
		return owner.ParentDeclaration().id(version, false)
	}
	return p.id(version)
}

func (p *FunctionParameter) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	if p.Ellipsis {
		writer{out}.punct("...")
		return
	}
	p.Arg.describe(out, mode, ctx)
}

// ParamsQual is a function parameter list with everything that may follow
// it: cv and ref qualifiers, noexcept, trailing return, virt-specifiers,
// attributes and a pure/deleted/defaulted initializer.
type ParamsQual struct {
	Args           []*FunctionParameter
	Volatile       bool
	Const          bool
	RefQual        string
	ExceptionSpec  *NoexceptSpec
	TrailingReturn *Type
	Override       bool
	Final          bool
	Attrs          AttributeList
	Initializer    string
}

func (p *ParamsQual) modifiersID(version int) string {
	var b strings.Builder
	if p.Volatile {
		b.WriteString("V")
	}
	if p.Const {
		if version == 1 {
			b.WriteString("C")
		} else {
			b.WriteString("K")
		}
	}
	switch p.RefQual {
	case "&&":
		b.WriteString("O")
	case "&":
		b.WriteString("R")
	}
	return b.String()
}

func (p *ParamsQual) paramID(version int) string {
	if version == 1 {
		if len(p.Args) == 0 {
			return ""
		}
		parts := make([]string, len(p.Args))
		for i, a := range p.Args {
			parts[i] = a.id(version)
		}
		return "__" + strings.Join(parts, ".")
	}
	if len(p.Args) == 0 {
		return "v"
	}
	var b strings.Builder
	for _, a := range p.Args {
		b.WriteString(a.id(version))
	}
	return b.String()
}

func (p *ParamsQual) format(display bool) string {
	var b strings.Builder
	b.WriteString("(")
	for i, a := range p.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.format(display))
	}
	b.WriteString(")")
	if p.Volatile {
		b.WriteString(" volatile")
	}
	if p.Const {
		b.WriteString(" const")
	}
	if p.RefQual != "" {
		b.WriteString(" " + p.RefQual)
	}
	if p.ExceptionSpec != nil {
		b.WriteString(" " + p.ExceptionSpec.format(display))
	}
	if p.TrailingReturn != nil {
		b.WriteString(" -> " + p.TrailingReturn.format(display))
	}
	if p.Final {
		b.WriteString(" final")
	}
	if p.Override {
		b.WriteString(" override")
	}
	if len(p.Attrs) != 0 {
		b.WriteString(" " + p.Attrs.format(display))
	}
	if p.Initializer != "" {
		b.WriteString(" = " + p.Initializer)
	}
	return b.String()
}

func (p *ParamsQual) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	list := out.Child(SigParamList)
	list.MultiLine = ctx != nil && ctx.opts.MultiLineParams
	for _, a := range p.Args {
		param := list.Child(SigParam)
		a.describe(param, ModeParam, ctx)
	}
	anno := func(text string) {
		w.space()
		w.keyword(text)
	}
	if p.Volatile {
		anno("volatile")
	}
	if p.Const {
		anno("const")
	}
	if p.RefQual != "" {
		w.space()
		w.punct(p.RefQual)
	}
	if p.ExceptionSpec != nil {
		w.space()
		p.ExceptionSpec.describe(out, mode, ctx)
	}
	if p.TrailingReturn != nil {
		w.space()
		w.op("->")
		w.space()
		p.TrailingReturn.describe(out, mode, ctx)
	}
	if p.Final {
		anno("final")
	}
	if p.Override {
		anno("override")
	}
	if len(p.Attrs) != 0 {
		w.space()
		p.Attrs.describe(out, mode, ctx)
	}
	if p.Initializer != "" {
		w.space()
		w.punct("=")
		w.space()
		if p.Initializer == "0" {
			out.Add(SigNumber, "0")
		} else {
			w.keyword(p.Initializer)
		}
	}
}

// Declarator is the part of a declaration after the decl-specifiers.
type Declarator interface {
	Node
	describer
	// Name is the declared name, or nil for abstract declarators.
	Name() *NestedName
	IsPack() bool
	FunctionParams() []*FunctionParameter
	TrailingReturn() *Type
	IsFunctionType() bool

	requireSpaceAfterDeclSpecs() bool
	modifiersID(version int) string
	paramID(version int) string
	ptrSuffixID(version int) string
	typeID(version int, returnTypeID string) string
}

// DeclaratorNameParamQual is the innermost declarator: a name, array
// dimensions and an optional function parameter list.
type DeclaratorNameParamQual struct {
	DeclID    *NestedName
	ArrayOps  []*Array
	ParamQual *ParamsQual
}

func (d *DeclaratorNameParamQual) Name() *NestedName { return d.DeclID }
func (d *DeclaratorNameParamQual) IsPack() bool      { return false }

func (d *DeclaratorNameParamQual) FunctionParams() []*FunctionParameter {
	if d.ParamQual == nil {
		return nil
	}
	return d.ParamQual.Args
}

func (d *DeclaratorNameParamQual) TrailingReturn() *Type {
	if d.ParamQual == nil {
		return nil
	}
	return d.ParamQual.TrailingReturn
}

func (d *DeclaratorNameParamQual) IsFunctionType() bool             { return d.ParamQual != nil }
func (d *DeclaratorNameParamQual) requireSpaceAfterDeclSpecs() bool { return d.DeclID != nil }

func (d *DeclaratorNameParamQual) modifiersID(version int) string {
	if d.ParamQual == nil {
		panic("internal error: modifiers id requested for non-function " + String(d))
	}
	return d.ParamQual.modifiersID(version)
}

func (d *DeclaratorNameParamQual) paramID(version int) string {
	if d.ParamQual == nil {
		return ""
	}
	return d.ParamQual.paramID(version)
}

func (d *DeclaratorNameParamQual) ptrSuffixID(version int) string {
	var b strings.Builder
	for _, a := range d.ArrayOps {
		b.WriteString(a.id(version))
	}
	return b.String()
}

func (d *DeclaratorNameParamQual) typeID(version int, returnTypeID string) string {
	var b strings.Builder
	b.WriteString(d.ptrSuffixID(version))
	if d.ParamQual != nil {
		b.WriteString(d.modifiersID(version))
		b.WriteString("F")
		b.WriteString(returnTypeID)
		b.WriteString(d.paramID(version))
		b.WriteString("E")
	} else {
		b.WriteString(returnTypeID)
	}
	return b.String()
}

func (d *DeclaratorNameParamQual) format(display bool) string {
	var b strings.Builder
	if d.DeclID != nil {
		b.WriteString(d.DeclID.format(display))
	}
	for _, a := range d.ArrayOps {
		b.WriteString(a.format(display))
	}
	if d.ParamQual != nil {
		b.WriteString(d.ParamQual.format(display))
	}
	return b.String()
}

func (d *DeclaratorNameParamQual) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	if d.DeclID != nil {
		d.DeclID.describe(out, mode, ctx)
	}
	for _, a := range d.ArrayOps {
		a.describe(out, mode, ctx)
	}
	if d.ParamQual != nil {
		d.ParamQual.describe(out, mode, ctx)
	}
}

// DeclaratorNameBitField is a named bit-field, name : size.
type DeclaratorNameBitField struct {
	DeclID *NestedName
	Size   Expr
}

func (d *DeclaratorNameBitField) Name() *NestedName                    { return d.DeclID }
func (d *DeclaratorNameBitField) IsPack() bool                         { return false }
func (d *DeclaratorNameBitField) FunctionParams() []*FunctionParameter { return nil }
func (d *DeclaratorNameBitField) TrailingReturn() *Type                { return nil }
func (d *DeclaratorNameBitField) IsFunctionType() bool                 { return false }
func (d *DeclaratorNameBitField) requireSpaceAfterDeclSpecs() bool     { return d.DeclID != nil }
func (d *DeclaratorNameBitField) modifiersID(int) string               { return "" }
func (d *DeclaratorNameBitField) paramID(int) string                   { return "" }
func (d *DeclaratorNameBitField) ptrSuffixID(int) string               { return "" }

func (d *DeclaratorNameBitField) typeID(_ int, returnTypeID string) string {
	return returnTypeID
}

func (d *DeclaratorNameBitField) format(display bool) string {
	res := ""
	if d.DeclID != nil {
		res = d.DeclID.format(display)
	}
	return res + " : " + d.Size.format(display)
}

func (d *DeclaratorNameBitField) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	if d.DeclID != nil {
		d.DeclID.describe(out, mode, ctx)
	}
	w.space()
	w.punct(":")
	w.space()
	d.Size.describe(out, mode, ctx)
}

// wrapped holds the methods declarator wrappers delegate to Next.
type wrapped struct {
	Next Declarator
}

func (d wrapped) Name() *NestedName                    { return d.Next.Name() }
func (d wrapped) IsPack() bool                         { return d.Next.IsPack() }
func (d wrapped) FunctionParams() []*FunctionParameter { return d.Next.FunctionParams() }
func (d wrapped) TrailingReturn() *Type                { return d.Next.TrailingReturn() }
func (d wrapped) IsFunctionType() bool                 { return d.Next.IsFunctionType() }
func (d wrapped) modifiersID(version int) string       { return d.Next.modifiersID(version) }
func (d wrapped) paramID(version int) string           { return d.Next.paramID(version) }

// DeclaratorPtr is a pointer declarator, * cv next.
type DeclaratorPtr struct {
	wrapped
	Volatile bool
	Const    bool
	Attrs    AttributeList
}

// NewDeclaratorPtr wraps next in a pointer declarator.
func NewDeclaratorPtr(next Declarator, volatile, isConst bool, attrs AttributeList) *DeclaratorPtr {
	return &DeclaratorPtr{wrapped: wrapped{next}, Volatile: volatile, Const: isConst, Attrs: attrs}
}

func (d *DeclaratorPtr) requireSpaceAfterDeclSpecs() bool {
	return d.Next.requireSpaceAfterDeclSpecs()
}

func (d *DeclaratorPtr) cv(constID string) string {
	res := ""
	if d.Volatile {
		res += "V"
	}
	if d.Const {
		res += constID
	}
	return res
}

func (d *DeclaratorPtr) ptrSuffixID(version int) string {
	if version == 1 {
		return "P" + d.cv("C") + d.Next.ptrSuffixID(version)
	}
	return d.Next.ptrSuffixID(version) + "P" + d.cv("C")
}

func (d *DeclaratorPtr) typeID(version int, returnTypeID string) string {
	// The pointer is part of the return type of whatever Next declares.
	return d.Next.typeID(version, "P"+d.cv("C")+returnTypeID)
}

func (d *DeclaratorPtr) format(display bool) string {
	var b strings.Builder
	b.WriteString("*")
	b.WriteString(d.Attrs.format(display))
	if len(d.Attrs) != 0 && (d.Volatile || d.Const) {
		b.WriteString(" ")
	}
	if d.Volatile {
		b.WriteString("volatile")
	}
	if d.Const {
		if d.Volatile {
			b.WriteString(" ")
		}
		b.WriteString("const")
	}
	if (d.Const || d.Volatile || len(d.Attrs) > 0) && d.Next.requireSpaceAfterDeclSpecs() {
		b.WriteString(" ")
	}
	b.WriteString(d.Next.format(display))
	return b.String()
}

func (d *DeclaratorPtr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.punct("*")
	d.Attrs.describe(out, mode, ctx)
	if len(d.Attrs) != 0 && (d.Volatile || d.Const) {
		w.space()
	}
	if d.Volatile {
		w.keyword("volatile")
	}
	if d.Const {
		if d.Volatile {
			w.space()
		}
		w.keyword("const")
	}
	if (d.Const || d.Volatile || len(d.Attrs) > 0) && d.Next.requireSpaceAfterDeclSpecs() {
		w.space()
	}
	d.Next.describe(out, mode, ctx)
}

// DeclaratorRef is an lvalue (&) or rvalue (&&) reference declarator.
type DeclaratorRef struct {
	wrapped
	RValue bool
	Attrs  AttributeList
}

// NewDeclaratorRef wraps next in a reference declarator.
func NewDeclaratorRef(next Declarator, rvalue bool, attrs AttributeList) *DeclaratorRef {
	return &DeclaratorRef{wrapped: wrapped{next}, RValue: rvalue, Attrs: attrs}
}

func (d *DeclaratorRef) token() string {
	if d.RValue {
		return "&&"
	}
	return "&"
}

// refID is R or O. Mangling versions before 4 spell an rvalue reference as
// a reference to a reference.
func (d *DeclaratorRef) refID(version int) string {
	switch {
	case !d.RValue:
		return "R"
	case version < 4:
		return "RR"
	}
	return "O"
}

func (d *DeclaratorRef) requireSpaceAfterDeclSpecs() bool {
	return d.Next.requireSpaceAfterDeclSpecs()
}

func (d *DeclaratorRef) ptrSuffixID(version int) string {
	if version == 1 {
		return d.refID(version) + d.Next.ptrSuffixID(version)
	}
	return d.Next.ptrSuffixID(version) + d.refID(version)
}

func (d *DeclaratorRef) typeID(version int, returnTypeID string) string {
	return d.Next.typeID(version, d.refID(version)+returnTypeID)
}

func (d *DeclaratorRef) format(display bool) string {
	res := d.token() + d.Attrs.format(display)
	if len(d.Attrs) != 0 && d.Next.requireSpaceAfterDeclSpecs() {
		res += " "
	}
	return res + d.Next.format(display)
}

func (d *DeclaratorRef) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.punct(d.token())
	d.Attrs.describe(out, mode, ctx)
	if len(d.Attrs) != 0 && d.Next.requireSpaceAfterDeclSpecs() {
		w.space()
	}
	d.Next.describe(out, mode, ctx)
}

// DeclaratorParamPack is ...next.
type DeclaratorParamPack struct {
	wrapped
}

// NewDeclaratorParamPack wraps next in a pack declarator.
func NewDeclaratorParamPack(next Declarator) *DeclaratorParamPack {
	return &DeclaratorParamPack{wrapped{next}}
}

func (d *DeclaratorParamPack) IsPack() bool                     { return true }
func (d *DeclaratorParamPack) requireSpaceAfterDeclSpecs() bool { return false }

func (d *DeclaratorParamPack) ptrSuffixID(version int) string {
	if version == 1 {
		return "Dp" + d.Next.ptrSuffixID(version)
	}
	return d.Next.ptrSuffixID(version) + "Dp"
}

func (d *DeclaratorParamPack) typeID(version int, returnTypeID string) string {
	return d.Next.typeID(version, "Dp"+returnTypeID)
}

func (d *DeclaratorParamPack) format(display bool) string {
	res := d.Next.format(display)
	if d.Next.Name() != nil {
		res = " " + res
	}
	return "..." + res
}

func (d *DeclaratorParamPack) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.punct("...")
	if d.Next.Name() != nil {
		w.space()
	}
	d.Next.describe(out, mode, ctx)
}

// DeclaratorMemPtr is a pointer to member, Class::* cv next.
type DeclaratorMemPtr struct {
	wrapped
	ClassName *NestedName
	Const     bool
	Volatile  bool
}

// NewDeclaratorMemPtr wraps next in a pointer-to-member declarator.
func NewDeclaratorMemPtr(className *NestedName, isConst, volatile bool, next Declarator) *DeclaratorMemPtr {
	return &DeclaratorMemPtr{wrapped: wrapped{next}, ClassName: className, Const: isConst, Volatile: volatile}
}

func (d *DeclaratorMemPtr) requireSpaceAfterDeclSpecs() bool { return true }

func (d *DeclaratorMemPtr) modifiersID(version int) string {
	if version == 1 {
		noOldID(version)
	}
	return d.Next.modifiersID(version)
}

func (d *DeclaratorMemPtr) paramID(version int) string {
	if version == 1 {
		noOldID(version)
	}
	return d.Next.paramID(version)
}

func (d *DeclaratorMemPtr) ptrSuffixID(version int) string {
	if version == 1 {
		noOldID(version)
	}
	return d.Next.ptrSuffixID(version) + "M" + d.ClassName.id(version)
}

func (d *DeclaratorMemPtr) typeID(version int, returnTypeID string) string {
	next := ""
	if d.Volatile {
		next += "V"
	}
	if d.Const {
		next += "K"
	}
	next += "M" + d.ClassName.id(version) + returnTypeID
	return d.Next.typeID(version, next)
}

func (d *DeclaratorMemPtr) format(display bool) string {
	var b strings.Builder
	b.WriteString(d.ClassName.format(display))
	b.WriteString("::*")
	if d.Volatile {
		b.WriteString("volatile")
	}
	if d.Const {
		if d.Volatile {
			b.WriteString(" ")
		}
		b.WriteString("const")
	}
	if d.Next.requireSpaceAfterDeclSpecs() {
		b.WriteString(" ")
	}
	b.WriteString(d.Next.format(display))
	return b.String()
}

func (d *DeclaratorMemPtr) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	d.ClassName.describe(out, ModeMarkType, ctx)
	w.punct("::")
	w.punct("*")
	if d.Volatile {
		w.keyword("volatile")
	}
	if d.Const {
		if d.Volatile {
			w.space()
		}
		w.keyword("const")
	}
	if d.Next.requireSpaceAfterDeclSpecs() {
		w.space()
	}
	d.Next.describe(out, mode, ctx)
}

// DeclaratorParen is (inner)next, as in function pointers.
type DeclaratorParen struct {
	Inner Declarator
	Next  Declarator
}

func (d *DeclaratorParen) Name() *NestedName                    { return d.Inner.Name() }
func (d *DeclaratorParen) IsPack() bool                         { return d.Inner.IsPack() || d.Next.IsPack() }
func (d *DeclaratorParen) FunctionParams() []*FunctionParameter { return d.Inner.FunctionParams() }
func (d *DeclaratorParen) TrailingReturn() *Type                { return d.Inner.TrailingReturn() }
func (d *DeclaratorParen) IsFunctionType() bool                 { return d.Inner.IsFunctionType() }
func (d *DeclaratorParen) requireSpaceAfterDeclSpecs() bool     { return true }
func (d *DeclaratorParen) modifiersID(version int) string       { return d.Inner.modifiersID(version) }
func (d *DeclaratorParen) paramID(version int) string           { return d.Inner.paramID(version) }

func (d *DeclaratorParen) ptrSuffixID(version int) string {
	if version == 1 {
		noOldID(version)
	}
	return d.Inner.ptrSuffixID(version) + d.Next.ptrSuffixID(version)
}

func (d *DeclaratorParen) typeID(version int, returnTypeID string) string {
	// Inner applies to everything outside the parentheses.
	return d.Inner.typeID(version, d.Next.typeID(version, returnTypeID))
}

func (d *DeclaratorParen) format(display bool) string {
	return "(" + d.Inner.format(display) + ")" + d.Next.format(display)
}

func (d *DeclaratorParen) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.punct("(")
	d.Inner.describe(out, mode, ctx)
	w.punct(")")
	d.Next.describe(out, ModeNoneIsName, ctx)
}

// Type is decl-specifiers plus a declarator. It is both a type-id (in
// template arguments, casts and parameters) and the body of function and
// typedef declarations.
type Type struct {
	DeclSpecs *DeclSpecs
	Decl      Declarator
}

func (t *Type) Name() *NestedName                    { return t.Decl.Name() }
func (t *Type) IsPack() bool                         { return t.Decl.IsPack() }
func (t *Type) FunctionParams() []*FunctionParameter { return t.Decl.FunctionParams() }
func (t *Type) TrailingReturn() *Type                { return t.Decl.TrailingReturn() }

// DeclarationPrefix is the keyword a type declaration is shown with.
func (t *Type) DeclarationPrefix() string {
	if t.DeclSpecs.Trailing != nil {
		return "typedef"
	}
	return "type"
}

func (t *Type) format(display bool) string {
	specs := t.DeclSpecs.format(display)
	if t.Decl.requireSpaceAfterDeclSpecs() && specs != "" {
		specs += " "
	}
	return specs + t.Decl.format(display)
}

// id is the type encoding.
func (t *Type) id(version int) string {
	return t.declID(version, "", nil)
}

func (t *Type) declID(version int, objectType string, owner Owner) string {
	var b strings.Builder
	if version == 1 {
		switch objectType {
		case "function":
			b.WriteString(owner.FullNestedName().id(version))
			b.WriteString(t.Decl.paramID(version))
			b.WriteString(t.Decl.modifiersID(version))
			if t.DeclSpecs.Left.Constexpr || (t.DeclSpecs.Right != nil && t.DeclSpecs.Right.Constexpr) {
				b.WriteString("CE")
			}
		case "type":
			b.WriteString(owner.FullNestedName().id(version))
		case "":
			if t.Decl.IsFunctionType() {
				noOldID(version)
			}
			b.WriteString(t.DeclSpecs.id(version))
			b.WriteString(t.Decl.ptrSuffixID(version))
			b.WriteString(t.Decl.paramID(version))
		default:
			panic("internal error: type declared as " + objectType)
		}
		return b.String()
	}
	switch objectType {
	case "function":
		modifiers := t.Decl.modifiersID(version)
		b.WriteString(owner.FullNestedName().idWith(version, modifiers))
		if version >= 4 {
			// Templates overload on the return type as well.
			if d := owner.Decl(); d != nil && d.TemplatePrefix != nil {
				b.WriteString(t.Decl.ptrSuffixID(version))
				if tr := t.TrailingReturn(); tr != nil {
					b.WriteString(tr.id(version))
				} else {
					b.WriteString(t.DeclSpecs.id(version))
				}
			}
		}
		b.WriteString(t.Decl.paramID(version))
	case "type":
		b.WriteString(owner.FullNestedName().id(version))
	case "":
		// For non-function types the return type is the innermost type,
		// e.g., int for int*.
		b.WriteString(t.Decl.typeID(version, t.DeclSpecs.id(version)))
	default:
		panic("internal error: type declared as " + objectType)
	}
	return b.String()
}

func (t *Type) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	t.DeclSpecs.describe(out, ModeMarkType, ctx)
	if t.Decl.requireSpaceAfterDeclSpecs() && t.DeclSpecs.format(false) != "" {
		writer{out}.space()
	}
	// A parameter type that declares no new name must not link its name.
	if mode == ModeMarkType {
		mode = ModeNoneIsName
	}
	t.Decl.describe(out, mode, ctx)
}

// Initializer is = value, or a braced-init-list without the =.
type Initializer struct {
	Value     Expr
	HasAssign bool
}

func (i *Initializer) format(display bool) string {
	if i.HasAssign {
		return " = " + i.Value.format(display)
	}
	return i.Value.format(display)
}

func (i *Initializer) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	if i.HasAssign {
		w.space()
		w.punct("=")
		w.space()
	}
	i.Value.describe(out, mode, ctx)
}

// TypeWithInit is a typed entity with an optional initializer: variables,
// members, function parameters and non-type template parameters.
type TypeWithInit struct {
	Type *Type
	Init *Initializer
}

func (t *TypeWithInit) Name() *NestedName { return t.Type.Name() }
func (t *TypeWithInit) IsPack() bool      { return t.Type.IsPack() }

func (t *TypeWithInit) format(display bool) string {
	res := t.Type.format(display)
	if t.Init != nil {
		res += t.Init.format(display)
	}
	return res
}

func (t *TypeWithInit) id(version int) string { return t.Type.id(version) }

func (t *TypeWithInit) declID(version int, objectType string, owner Owner) string {
	if objectType != "member" {
		return t.Type.declID(version, objectType, owner)
	}
	if version == 1 {
		return owner.FullNestedName().id(version) + "__" + t.Type.id(version)
	}
	return owner.FullNestedName().id(version)
}

func (t *TypeWithInit) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	t.Type.describe(out, mode, ctx)
	if t.Init != nil {
		t.Init.describe(out, mode, ctx)
	}
}

// ConstrainedTypeWithInit is a constrained type parameter such as
// "std::integral auto T = int".
type ConstrainedTypeWithInit struct {
	Type *Type
	Init *Type
}

func (t *ConstrainedTypeWithInit) Name() *NestedName { return t.Type.Name() }
func (t *ConstrainedTypeWithInit) IsPack() bool      { return t.Type.IsPack() }

func (t *ConstrainedTypeWithInit) format(display bool) string {
	res := t.Type.format(display)
	if t.Init != nil {
		res += " = " + t.Init.format(display)
	}
	return res
}

// Defaults are not part of the id.
func (t *ConstrainedTypeWithInit) id(version int) string { return t.Type.id(version) }

func (t *ConstrainedTypeWithInit) declID(version int, objectType string, owner Owner) string {
	return t.Type.declID(version, objectType, owner)
}

func (t *ConstrainedTypeWithInit) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	t.Type.describe(out, mode, ctx)
	if t.Init != nil {
		w := writer{out}
		w.space()
		w.punct("=")
		w.space()
		t.Init.describe(out, mode, ctx)
	}
}

// TypeUsing is an alias declaration, using name = type. Type is nil when
// only the name is documented.
type TypeUsing struct {
	TypeName *NestedName
	Type     *Type
}

func (t *TypeUsing) Name() *NestedName { return t.TypeName }

func (t *TypeUsing) format(display bool) string {
	res := t.TypeName.format(display)
	if t.Type != nil {
		res += " = " + t.Type.format(display)
	}
	return res
}

func (t *TypeUsing) declID(version int, _ string, owner Owner) string {
	if version == 1 {
		noOldID(version)
	}
	return owner.FullNestedName().id(version)
}

func (t *TypeUsing) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	t.TypeName.describe(out, mode, ctx)
	if t.Type != nil {
		w := writer{out}
		w.space()
		w.punct("=")
		w.space()
		t.Type.describe(out, ModeMarkType, ctx)
	}
}
