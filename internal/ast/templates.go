package ast

import "strings"

// TemplateParam is one parameter of a template parameter list or of a
// template introduction.
type TemplateParam interface {
	Node
	describer
	// Name is the parameter name as a single-element nested name, or nil
	// for unnamed parameters.
	Name() *NestedName
	Identifier() *Identifier
	IsPack() bool
	paramID(version int) string
	declID(version int, objectType string, owner Owner) string
}

// paramAnchor is the id of a template parameter symbol: the id of the
// declaration it belongs to.
func paramAnchor(version int, owner Owner) string {
	return owner.ParentDeclaration().id(version, false)
}

func identName(ident *Identifier) *NestedName {
	if ident == nil {
		return nil
	}
	return SimpleName(ident)
}

// TemplateKeyParamPackIDDefault is the common part of type and template
// template parameters: typename... Name = Default.
type TemplateKeyParamPackIDDefault struct {
	Key           string
	Ident         *Identifier
	ParameterPack bool
	Default       *Type
}

func (d *TemplateKeyParamPackIDDefault) id(int) string {
	if d.ParameterPack {
		return "Dp"
	}
	return "0"
}

func (d *TemplateKeyParamPackIDDefault) format(display bool) string {
	var b strings.Builder
	b.WriteString(d.Key)
	if d.ParameterPack {
		if d.Ident != nil {
			b.WriteString(" ")
		}
		b.WriteString("...")
	}
	if d.Ident != nil {
		if !d.ParameterPack {
			b.WriteString(" ")
		}
		b.WriteString(d.Ident.format(display))
	}
	if d.Default != nil {
		b.WriteString(" = " + d.Default.format(display))
	}
	return b.String()
}

func (d *TemplateKeyParamPackIDDefault) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.keyword(d.Key)
	if d.ParameterPack {
		if d.Ident != nil {
			w.space()
		}
		w.punct("...")
	}
	if d.Ident != nil {
		if !d.ParameterPack {
			w.space()
		}
		d.Ident.describeName(out, mode, ctx, "", "")
	}
	if d.Default != nil {
		w.space()
		w.punct("=")
		w.space()
		d.Default.describe(out, ModeMarkType, ctx)
	}
}

// TemplateParamType is typename T or class... Ts.
type TemplateParamType struct {
	Data *TemplateKeyParamPackIDDefault
}

func (p *TemplateParamType) Name() *NestedName          { return identName(p.Data.Ident) }
func (p *TemplateParamType) Identifier() *Identifier    { return p.Data.Ident }
func (p *TemplateParamType) IsPack() bool               { return p.Data.ParameterPack }
func (p *TemplateParamType) paramID(version int) string { return p.Data.id(version) }
func (p *TemplateParamType) format(display bool) string { return p.Data.format(display) }

func (p *TemplateParamType) declID(version int, _ string, owner Owner) string {
	if owner != nil {
		return paramAnchor(version, owner)
	}
	return p.paramID(version)
}

func (p *TemplateParamType) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	p.Data.describe(out, mode, ctx)
}

// TemplateParamTemplateType is a template template parameter,
// template<typename> class C.
type TemplateParamTemplateType struct {
	NestedParams *TemplateParams
	Data         *TemplateKeyParamPackIDDefault
}

func (p *TemplateParamTemplateType) Name() *NestedName       { return identName(p.Data.Ident) }
func (p *TemplateParamTemplateType) Identifier() *Identifier { return p.Data.Ident }
func (p *TemplateParamTemplateType) IsPack() bool            { return p.Data.ParameterPack }

func (p *TemplateParamTemplateType) paramID(version int) string {
	return p.NestedParams.listID(version, false) + p.Data.id(version)
}

func (p *TemplateParamTemplateType) format(display bool) string {
	return p.NestedParams.format(display) + p.Data.format(display)
}

func (p *TemplateParamTemplateType) declID(version int, _ string, owner Owner) string {
	if owner != nil {
		return paramAnchor(version, owner)
	}
	return p.paramID(version)
}

func (p *TemplateParamTemplateType) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	p.NestedParams.describe(out, ModeNoneIsName, ctx)
	writer{out}.space()
	p.Data.describe(out, mode, ctx)
}

// TemplateParamNonType is a non-type or constrained type parameter.
type TemplateParamNonType struct {
	Param         TypedParam
	ParameterPack bool
}

func (p *TemplateParamNonType) Name() *NestedName { return p.Param.Name() }
func (p *TemplateParamNonType) IsPack() bool      { return p.Param.IsPack() || p.ParameterPack }

func (p *TemplateParamNonType) Identifier() *Identifier {
	name := p.Param.Name()
	if name == nil {
		return nil
	}
	if len(name.Names) != 1 || name.Names[0].TemplateArgs != nil {
		panic("internal error: template parameter name " + String(name) + " is not an identifier")
	}
	ident, ok := name.Names[0].IdentOrOp.(*Identifier)
	if !ok {
		panic("internal error: template parameter name " + String(name) + " is not an identifier")
	}
	return ident
}

func (p *TemplateParamNonType) paramID(version int) string {
	res := "_"
	if p.ParameterPack {
		res += "Dp"
	}
	return res + p.Param.id(version)
}

func (p *TemplateParamNonType) format(display bool) string {
	res := p.Param.format(display)
	if p.ParameterPack {
		res += "..."
	}
	return res
}

func (p *TemplateParamNonType) declID(version int, _ string, owner Owner) string {
	if owner != nil {
		return paramAnchor(version, owner)
	}
	return p.paramID(version)
}

func (p *TemplateParamNonType) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	p.Param.describe(out, mode, ctx)
	if p.ParameterPack {
		writer{out}.punct("...")
	}
}

// TemplateParamList is a template parameter list or a template
// introduction; a TemplatePrefix holds a chain of them.
type TemplateParamList interface {
	Node
	Params() []TemplateParam
	listID(version int, excludeRequires bool) string
	describeIntroducer(parent *SigNode, mode Mode, ctx *describeCtx, lineSpec bool)
}

// RequiresClause is requires expr.
type RequiresClause struct {
	Expr Expr
}

func (r *RequiresClause) format(display bool) string { return "requires " + r.Expr.format(display) }

func (r *RequiresClause) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.keyword("requires")
	w.space()
	r.Expr.describe(out, mode, ctx)
}

// TemplateParams is template<...> with an optional requires clause.
type TemplateParams struct {
	List           []TemplateParam
	RequiresClause *RequiresClause
}

func (t *TemplateParams) Params() []TemplateParam { return t.List }

func (t *TemplateParams) listID(version int, excludeRequires bool) string {
	var b strings.Builder
	b.WriteString("I")
	for _, p := range t.List {
		b.WriteString(p.paramID(version))
	}
	b.WriteString("E")
	if !excludeRequires && t.RequiresClause != nil {
		b.WriteString("IQ" + t.RequiresClause.Expr.id(version) + "E")
	}
	return b.String()
}

func (t *TemplateParams) format(display bool) string {
	parts := make([]string, len(t.List))
	for i, p := range t.List {
		parts[i] = p.format(display)
	}
	res := "template<" + strings.Join(parts, ", ") + "> "
	if t.RequiresClause != nil {
		res += t.RequiresClause.format(display) + " "
	}
	return res
}

func (t *TemplateParams) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	w := writer{out}
	w.keyword("template")
	w.punct("<")
	for i, p := range t.List {
		if i > 0 {
			w.punct(",")
			w.space()
		}
		p.describe(out, mode, ctx)
	}
	w.punct(">")
	if t.RequiresClause != nil {
		w.space()
		t.RequiresClause.describe(out, mode, ctx)
	}
}

func (t *TemplateParams) describeIntroducer(parent *SigNode, mode Mode, ctx *describeCtx, lineSpec bool) {
	line := parent.Child(SigLine)
	w := writer{line}
	w.keyword("template")
	w.punct("<")
	for i, p := range t.List {
		if i > 0 {
			w.punct(",")
			w.space()
		}
		if lineSpec {
			line = parent.Child(SigLine)
			w = writer{line}
		}
		p.describe(line, mode, ctx)
	}
	if lineSpec && len(t.List) > 0 {
		line = parent.Child(SigLine)
		w = writer{line}
	}
	w.punct(">")
	if t.RequiresClause != nil {
		t.RequiresClause.describe(parent.Child(SigLine), ModeMarkType, ctx)
	}
}

// TemplateIntroductionParameter is one name in Concept{A, ...B}.
type TemplateIntroductionParameter struct {
	Ident         *Identifier
	ParameterPack bool
}

func (p *TemplateIntroductionParameter) Name() *NestedName       { return SimpleName(p.Ident) }
func (p *TemplateIntroductionParameter) Identifier() *Identifier { return p.Ident }
func (p *TemplateIntroductionParameter) IsPack() bool            { return p.ParameterPack }

func (p *TemplateIntroductionParameter) paramID(int) string {
	if p.ParameterPack {
		return "Dp"
	}
	return "0"
}

// argID is the id of the parameter used as an argument of the implied
// constraint.
func (p *TemplateIntroductionParameter) argID(version int) string {
	res := p.Ident.id(version)
	if p.ParameterPack {
		return "sp" + res
	}
	return res
}

func (p *TemplateIntroductionParameter) format(display bool) string {
	res := p.Ident.format(display)
	if p.ParameterPack {
		return "..." + res
	}
	return res
}

func (p *TemplateIntroductionParameter) declID(version int, _ string, owner Owner) string {
	if owner != nil {
		return paramAnchor(version, owner)
	}
	return p.paramID(version)
}

func (p *TemplateIntroductionParameter) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	if p.ParameterPack {
		writer{out}.punct("...")
	}
	p.Ident.describeName(out, mode, ctx, "", "")
}

// TemplateIntroduction is the concepts TS shorthand Concept{A, B}.
type TemplateIntroduction struct {
	Concept *NestedName
	List    []*TemplateIntroductionParameter
}

func (t *TemplateIntroduction) Params() []TemplateParam {
	res := make([]TemplateParam, len(t.List))
	for i, p := range t.List {
		res[i] = p
	}
	return res
}

func (t *TemplateIntroduction) listID(version int, _ bool) string {
	var b strings.Builder
	b.WriteString("I")
	for _, p := range t.List {
		b.WriteString(p.paramID(version))
	}
	b.WriteString("E")
	// Encoded like a constant template argument, X expr E.
	b.WriteString("X")
	b.WriteString(t.Concept.id(version))
	b.WriteString("I")
	for _, p := range t.List {
		b.WriteString(p.argID(version))
	}
	b.WriteString("E")
	b.WriteString("E")
	return b.String()
}

func (t *TemplateIntroduction) format(display bool) string {
	parts := make([]string, len(t.List))
	for i, p := range t.List {
		parts[i] = p.format(display)
	}
	return t.Concept.format(display) + "{" + strings.Join(parts, ", ") + "} "
}

func (t *TemplateIntroduction) describeIntroducer(parent *SigNode, _ Mode, ctx *describeCtx, _ bool) {
	line := parent.Child(SigLine)
	w := writer{line}
	t.Concept.describe(line, ModeMarkType, ctx)
	w.punct("{")
	for i, p := range t.List {
		if i > 0 {
			w.punct(",")
			w.space()
		}
		p.describe(line, ModeLastIsName, ctx)
	}
	w.punct("}")
}

// TemplatePrefix is the chain of template parameter lists before a
// declaration, one per templated scope.
type TemplatePrefix struct {
	Templates []TemplateParamList
}

// RequiresClauseInLast returns the requires clause of the last list.
func (t *TemplatePrefix) RequiresClauseInLast() *RequiresClause {
	if t == nil || len(t.Templates) == 0 {
		return nil
	}
	last, ok := t.Templates[len(t.Templates)-1].(*TemplateParams)
	if !ok {
		return nil
	}
	return last.RequiresClause
}

// idExceptRequiresInLast leaves the last requires clause to the
// declaration, which combines it with a trailing requires clause.
func (t *TemplatePrefix) idExceptRequiresInLast(version int) string {
	var b strings.Builder
	for i, tl := range t.Templates {
		b.WriteString(tl.listID(version, i == len(t.Templates)-1))
	}
	return b.String()
}

func (t *TemplatePrefix) format(display bool) string {
	var b strings.Builder
	for _, tl := range t.Templates {
		b.WriteString(tl.format(display))
	}
	return b.String()
}

func (t *TemplatePrefix) describe(parent *SigNode, ctx *describeCtx, lineSpec bool) {
	for _, tl := range t.Templates {
		tl.describeIntroducer(parent, ModeLastIsName, ctx, lineSpec)
	}
}
