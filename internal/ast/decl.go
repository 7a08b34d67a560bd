package ast

import (
	"strings"
)

// Object types a Declaration can have.
const (
	ObjectType          = "type"
	ObjectConcept       = "concept"
	ObjectMember        = "member"
	ObjectFunction      = "function"
	ObjectClass         = "class"
	ObjectUnion         = "union"
	ObjectEnum          = "enum"
	ObjectEnumerator    = "enumerator"
	ObjectTemplateParam = "templateParam"
	ObjectFunctionParam = "functionParam"
)

// Body is what a Declaration declares.
type Body interface {
	Node
	describer
	Name() *NestedName
	declID(version int, objectType string, owner Owner) string
}

// BaseClass is one entry of a base-clause.
type BaseClass struct {
	Name       *NestedName
	Visibility string
	Virtual    bool
	Pack       bool
}

func (b *BaseClass) format(display bool) string {
	var sb strings.Builder
	if b.Visibility != "" {
		sb.WriteString(b.Visibility + " ")
	}
	if b.Virtual {
		sb.WriteString("virtual ")
	}
	sb.WriteString(b.Name.format(display))
	if b.Pack {
		sb.WriteString("...")
	}
	return sb.String()
}

func (b *BaseClass) describe(out *SigNode, _ Mode, ctx *describeCtx) {
	w := writer{out}
	if b.Visibility != "" {
		w.keyword(b.Visibility)
		w.space()
	}
	if b.Virtual {
		w.keyword("virtual")
		w.space()
	}
	b.Name.describe(out, ModeMarkType, ctx)
	if b.Pack {
		w.punct("...")
	}
}

func attrsPrefix(attrs AttributeList, display bool) string {
	if len(attrs) == 0 {
		return ""
	}
	return attrs.format(display) + " "
}

func describeAttrsPrefix(out *SigNode, attrs AttributeList, mode Mode, ctx *describeCtx) {
	attrs.describe(out, mode, ctx)
	if len(attrs) != 0 {
		writer{out}.space()
	}
}

// Class is a class or struct declaration.
type Class struct {
	ClassName *NestedName
	Final     bool
	Bases     []*BaseClass
	Attrs     AttributeList
}

func (c *Class) Name() *NestedName { return c.ClassName }

func (c *Class) declID(version int, _ string, owner Owner) string {
	return owner.FullNestedName().id(version)
}

func (c *Class) format(display bool) string {
	var b strings.Builder
	b.WriteString(attrsPrefix(c.Attrs, display))
	b.WriteString(c.ClassName.format(display))
	if c.Final {
		b.WriteString(" final")
	}
	if len(c.Bases) > 0 {
		b.WriteString(" : ")
		for i, base := range c.Bases {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(base.format(display))
		}
	}
	return b.String()
}

func (c *Class) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	describeAttrsPrefix(out, c.Attrs, mode, ctx)
	c.ClassName.describe(out, mode, ctx)
	if c.Final {
		w.space()
		w.keyword("final")
	}
	if len(c.Bases) > 0 {
		w.space()
		w.punct(":")
		w.space()
		for i, base := range c.Bases {
			if i > 0 {
				w.punct(",")
				w.space()
			}
			base.describe(out, mode, ctx)
		}
	}
}

// Union is a union declaration.
type Union struct {
	UnionName *NestedName
	Attrs     AttributeList
}

func (u *Union) Name() *NestedName { return u.UnionName }

func (u *Union) declID(version int, _ string, owner Owner) string {
	if version == 1 {
		noOldID(version)
	}
	return owner.FullNestedName().id(version)
}

func (u *Union) format(display bool) string {
	return attrsPrefix(u.Attrs, display) + u.UnionName.format(display)
}

func (u *Union) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	describeAttrsPrefix(out, u.Attrs, mode, ctx)
	u.UnionName.describe(out, mode, ctx)
}

// Enum is an enum declaration. Whether it is scoped comes from the
// directive, not from the signature.
type Enum struct {
	EnumName       *NestedName
	UnderlyingType *Type
	Attrs          AttributeList
}

func (e *Enum) Name() *NestedName { return e.EnumName }

func (e *Enum) declID(version int, _ string, owner Owner) string {
	if version == 1 {
		noOldID(version)
	}
	return owner.FullNestedName().id(version)
}

func (e *Enum) format(display bool) string {
	res := attrsPrefix(e.Attrs, display) + e.EnumName.format(display)
	if e.UnderlyingType != nil {
		res += " : " + e.UnderlyingType.format(display)
	}
	return res
}

func (e *Enum) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	describeAttrsPrefix(out, e.Attrs, mode, ctx)
	e.EnumName.describe(out, mode, ctx)
	if e.UnderlyingType != nil {
		w := writer{out}
		w.space()
		w.punct(":")
		w.space()
		e.UnderlyingType.describe(out, ModeNoneIsName, ctx)
	}
}

// Enumerator is one enumerator with an optional value.
type Enumerator struct {
	EnumeratorName *NestedName
	Init           *Initializer
	Attrs          AttributeList
}

func (e *Enumerator) Name() *NestedName { return e.EnumeratorName }

func (e *Enumerator) declID(version int, _ string, owner Owner) string {
	if version == 1 {
		noOldID(version)
	}
	return owner.FullNestedName().id(version)
}

func (e *Enumerator) format(display bool) string {
	res := e.EnumeratorName.format(display)
	if len(e.Attrs) != 0 {
		res += " " + e.Attrs.format(display)
	}
	if e.Init != nil {
		res += e.Init.format(display)
	}
	return res
}

func (e *Enumerator) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	e.EnumeratorName.describe(out, mode, ctx)
	if len(e.Attrs) != 0 {
		writer{out}.space()
		e.Attrs.describe(out, mode, ctx)
	}
	if e.Init != nil {
		e.Init.describe(out, ModeMarkType, ctx)
	}
}

// Concept is concept Name = constraint.
type Concept struct {
	ConceptName *NestedName
	Init        *Initializer
}

func (c *Concept) Name() *NestedName { return c.ConceptName }

func (c *Concept) declID(version int, _ string, owner Owner) string {
	if version == 1 {
		noOldID(version)
	}
	return owner.FullNestedName().id(version)
}

func (c *Concept) format(display bool) string {
	res := c.ConceptName.format(display)
	if c.Init != nil {
		res += c.Init.format(display)
	}
	return res
}

func (c *Concept) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	c.ConceptName.describe(out, mode, ctx)
	if c.Init != nil {
		c.Init.describe(out, mode, ctx)
	}
}

// Namespace is the target of a namespace directive: a name and the
// template parameters in scope.
type Namespace struct {
	NestedName     *NestedName
	TemplatePrefix *TemplatePrefix
}

func (n *Namespace) format(display bool) string {
	res := n.NestedName.format(display)
	if n.TemplatePrefix != nil {
		res = n.TemplatePrefix.format(display) + res
	}
	return res
}

// Declaration is one parsed declaration. Symbol is set when it is added to
// a symbol tree.
type Declaration struct {
	ObjectType       string
	DirectiveType    string
	Visibility       string
	TemplatePrefix   *TemplatePrefix
	Body             Body
	TrailingRequires *RequiresClause
	Semicolon        bool

	Symbol Owner
	// EnumeratorScopedSymbol is set on the copy of an unscoped enumerator
	// that is injected into the enclosing scope: it points at the
	// enumerator's symbol inside the enum so both share one anchor.
	EnumeratorScopedSymbol Owner

	newestID string
}

// Clone returns a copy without symbol back-references. The AST itself is
// immutable, so the nodes are shared.
func (d *Declaration) Clone() *Declaration {
	return &Declaration{
		ObjectType:       d.ObjectType,
		DirectiveType:    d.DirectiveType,
		Visibility:       d.Visibility,
		TemplatePrefix:   d.TemplatePrefix,
		Body:             d.Body,
		TrailingRequires: d.TrailingRequires,
		Semicolon:        d.Semicolon,
	}
}

// NewTemplateParamDeclaration wraps a template parameter so it can be
// attached to a symbol of its own.
func NewTemplateParamDeclaration(p TemplateParam) *Declaration {
	return &Declaration{ObjectType: ObjectTemplateParam, Body: p}
}

// NewFunctionParamDeclaration wraps a named function parameter.
func NewFunctionParamDeclaration(p *FunctionParameter) *Declaration {
	return &Declaration{ObjectType: ObjectFunctionParam, Body: p}
}

// Name is the declared name.
func (d *Declaration) Name() *NestedName {
	return d.Body.Name()
}

// FunctionParams returns the parameters of a function declaration, or nil
// for other kinds.
func (d *Declaration) FunctionParams() []*FunctionParameter {
	if d.ObjectType != ObjectFunction {
		return nil
	}
	if t, ok := d.Body.(*Type); ok {
		return t.FunctionParams()
	}
	return nil
}

// HasFunctionParams reports whether the declaration is a function, even one
// with an empty parameter list.
func (d *Declaration) HasFunctionParams() bool {
	if d.ObjectType != ObjectFunction {
		return false
	}
	t, ok := d.Body.(*Type)
	return ok && t.Decl.IsFunctionType()
}

// ID returns the anchor id in the given mangling version. Old versions fail
// with a *NoOldIDError for declarations they cannot encode.
func (d *Declaration) ID(version int) (id string, err error) {
	defer recoverNoOldID(&err)
	return d.id(version, true), nil
}

// IDs returns the ids of every version that can encode d, newest first.
func (d *Declaration) IDs() []string {
	var ids []string
	for v := MaxIDVersion; v >= 1; v-- {
		id, err := d.ID(v)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// NewestID returns the id in the newest version. It is cached, so the
// declaration must not change afterwards.
func (d *Declaration) NewestID() string {
	if d.newestID == "" {
		d.newestID = d.id(MaxIDVersion, true)
	}
	return d.newestID
}

func (d *Declaration) id(version int, prefixed bool) string {
	if version == 1 {
		if d.TemplatePrefix != nil || d.TrailingRequires != nil {
			noOldID(version)
		}
		if d.ObjectType == ObjectEnumerator && d.EnumeratorScopedSymbol != nil {
			return d.EnumeratorScopedSymbol.Decl().id(version, true)
		}
		return d.Body.declID(version, d.ObjectType, d.Symbol)
	}
	if d.ObjectType == ObjectEnumerator && d.EnumeratorScopedSymbol != nil {
		return d.EnumeratorScopedSymbol.Decl().id(version, prefixed)
	}
	var b strings.Builder
	if prefixed {
		b.WriteString(idPrefix[version])
	}
	// The requires clause of the last template parameter list is encoded
	// after the lists, as a conjunction with the trailing requires clause.
	var requiresInLast *RequiresClause
	if d.TemplatePrefix != nil {
		b.WriteString(d.TemplatePrefix.idExceptRequiresInLast(version))
		requiresInLast = d.TemplatePrefix.RequiresClauseInLast()
	}
	if requiresInLast != nil || d.TrailingRequires != nil {
		if version < 4 {
			noOldID(version)
		}
		b.WriteString("IQ")
		if requiresInLast != nil && d.TrailingRequires != nil {
			b.WriteString("aa")
		}
		if requiresInLast != nil {
			b.WriteString(requiresInLast.Expr.id(version))
		}
		if d.TrailingRequires != nil {
			b.WriteString(d.TrailingRequires.Expr.id(version))
		}
		b.WriteString("E")
	}
	b.WriteString(d.Body.declID(version, d.ObjectType, d.Symbol))
	return b.String()
}

func (d *Declaration) format(display bool) string {
	var b strings.Builder
	if d.Visibility != "" && d.Visibility != "public" {
		b.WriteString(d.Visibility + " ")
	}
	if d.TemplatePrefix != nil {
		b.WriteString(d.TemplatePrefix.format(display))
	}
	b.WriteString(d.Body.format(display))
	if d.TrailingRequires != nil {
		b.WriteString(" " + d.TrailingRequires.format(display))
	}
	if d.Semicolon {
		b.WriteString(";")
	}
	return b.String()
}

// Describe renders the declaration into out, one SigLine per template
// parameter list followed by the declarator line and, if present, the
// trailing requires clause. Names are resolved from the declaration's own
// symbol, which must be set.
func (d *Declaration) Describe(out *SigNode, mode Mode, opts DescribeOptions) {
	if d.Symbol == nil {
		panic("internal error: describing a declaration without a symbol")
	}
	ctx := &describeCtx{owner: d.Symbol, opts: opts}
	if d.TemplatePrefix != nil {
		d.TemplatePrefix.describe(out, ctx, opts.TParamLineSpec)
	}
	main := out.Child(SigLine)
	w := writer{main}
	if d.Visibility != "" && d.Visibility != "public" {
		w.keyword(d.Visibility)
		w.space()
	}
	switch d.ObjectType {
	case ObjectType:
		if t, ok := d.Body.(*Type); ok {
			w.keyword(t.DeclarationPrefix())
		} else {
			w.keyword("using")
		}
		w.space()
	case ObjectConcept:
		w.keyword("concept")
		w.space()
	case ObjectMember, ObjectFunction:
	case ObjectClass:
		w.keyword(d.DirectiveType)
		w.space()
	case ObjectUnion:
		w.keyword("union")
		w.space()
	case ObjectEnum:
		w.keyword("enum")
		w.space()
		switch d.DirectiveType {
		case "enum-class":
			w.keyword("class")
			w.space()
		case "enum-struct":
			w.keyword("struct")
			w.space()
		}
	case ObjectEnumerator:
		w.keyword("enumerator")
		w.space()
	default:
		panic("internal error: cannot describe a " + d.ObjectType)
	}
	d.Body.describe(main, mode, ctx)
	last := main
	if d.TrailingRequires != nil {
		last = out.Child(SigLine)
		d.TrailingRequires.describe(last, ModeMarkType, ctx)
	}
	if d.Semicolon {
		writer{last}.punct(";")
	}
}
