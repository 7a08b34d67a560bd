package ast

import (
	"fmt"
	"strings"
)

// ider is implemented by nodes that take part in type or expression
// mangling.
type ider interface {
	id(version int) string
}

// IdentOrOp is the name part of a nested-name element: an identifier or
// one of the operator forms.
type IdentOrOp interface {
	Node
	ider
	IsAnon() bool
	describeName(out *SigNode, mode Mode, ctx *describeCtx, prefix, templateArgs string)
}

// SameName reports whether two identifiers or operators are equal.
func SameName(a, b IdentOrOp) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Identifier:
		y, ok := b.(*Identifier)
		return ok && x.Name == y.Name
	case *OperatorBuiltin:
		y, ok := b.(*OperatorBuiltin)
		return ok && x.Op == y.Op
	case *OperatorLiteral:
		y, ok := b.(*OperatorLiteral)
		return ok && x.Ident.Name == y.Ident.Name
	case *OperatorType:
		y, ok := b.(*OperatorType)
		return ok && String(x.Type) == String(y.Type)
	}
	return false
}

// Identifier is a plain name. Names starting with @ denote anonymous
// entities.
type Identifier struct {
	Name string
}

func (i *Identifier) IsAnon() bool {
	return strings.HasPrefix(i.Name, "@")
}

func (i *Identifier) format(display bool) string {
	if display && i.IsAnon() {
		return "[anonymous]"
	}
	return i.Name
}

func (i *Identifier) id(version int) string {
	if i.IsAnon() && version < 3 {
		noOldID(version)
	}
	if version == 1 {
		if i.Name == "size_t" {
			return "s"
		}
		return i.Name
	}
	switch {
	case i.Name == "std":
		return "St"
	case strings.HasPrefix(i.Name, "~"):
		return "D0"
	case i.IsAnon():
		return fmt.Sprintf("Ut%d_%s", len(i.Name)-1, i.Name[1:])
	}
	return fmt.Sprintf("%d%s", len(i.Name), i.Name)
}

func (i *Identifier) describeName(out *SigNode, mode Mode, ctx *describeCtx, prefix, templateArgs string) {
	text := i.Name
	if i.IsAnon() {
		text = "[anonymous]"
	}
	switch mode {
	case ModeMarkType:
		xref(out, prefix+i.Name+templateArgs, ctx).Add(SigName, text)
	case ModeLastIsName:
		out.Child(SigMainName).Add(SigName, text)
	case ModeNoneIsName, ModeParam:
		out.Add(SigName, text)
	case ModeUDL:
		xref(out, `operator""`+i.Name, ctx).Add(SigName, text)
	default:
		out.Add(SigName, text)
	}
}

// OperatorBuiltin is a symbolic or keyword operator such as operator+= or
// operator new[].
type OperatorBuiltin struct {
	Op string
}

func (o *OperatorBuiltin) IsAnon() bool { return false }

func (o *OperatorBuiltin) spaced() bool {
	switch o.Op {
	case "new", "new[]", "delete", "delete[]":
		return true
	}
	return strings.ContainsRune("abcnox", rune(o.Op[0]))
}

func (o *OperatorBuiltin) format(bool) string {
	if o.spaced() {
		return "operator " + o.Op
	}
	return "operator" + o.Op
}

func (o *OperatorBuiltin) id(version int) string {
	if version == 1 {
		id, ok := operatorIDv1[o.Op]
		if !ok {
			noOldID(version)
		}
		return id
	}
	id, ok := operatorIDv2[o.Op]
	if !ok {
		panic(fmt.Sprintf("internal error: no id for operator %q", o.Op))
	}
	return id
}

func (o *OperatorBuiltin) describeIdentifier(out *SigNode) {
	w := writer{out}
	w.keyword("operator")
	if o.spaced() {
		w.space()
	}
	w.op(o.Op)
}

func (o *OperatorBuiltin) describeName(out *SigNode, mode Mode, ctx *describeCtx, prefix, templateArgs string) {
	describeOperator(out, mode, ctx, prefix, templateArgs, o, func(n *SigNode) { o.describeIdentifier(n) })
}

// OperatorLiteral is a literal operator, operator""suffix.
type OperatorLiteral struct {
	Ident *Identifier
}

func (o *OperatorLiteral) IsAnon() bool { return false }

func (o *OperatorLiteral) format(display bool) string {
	return `operator""` + o.Ident.format(display)
}

func (o *OperatorLiteral) id(version int) string {
	if version == 1 {
		noOldID(version)
	}
	return "li" + o.Ident.id(version)
}

func (o *OperatorLiteral) describeName(out *SigNode, mode Mode, ctx *describeCtx, prefix, templateArgs string) {
	describeOperator(out, mode, ctx, prefix, templateArgs, o, func(n *SigNode) {
		writer{n}.keyword("operator")
		n.Add(SigString, `""`)
		o.Ident.describeName(n, ModeMarkType, ctx, "", "")
	})
}

// OperatorType is a conversion operator, operator T.
type OperatorType struct {
	Type *Type
}

func (o *OperatorType) IsAnon() bool { return false }

func (o *OperatorType) format(display bool) string {
	return "operator " + o.Type.format(display)
}

func (o *OperatorType) id(version int) string {
	if version == 1 {
		return "castto-" + o.Type.id(version) + "-operator"
	}
	return "cv" + o.Type.id(version)
}

func (o *OperatorType) describeName(out *SigNode, mode Mode, ctx *describeCtx, prefix, templateArgs string) {
	describeOperator(out, mode, ctx, prefix, templateArgs, o, func(n *SigNode) {
		w := writer{n}
		w.keyword("operator")
		w.space()
		o.Type.describe(n, ModeMarkType, ctx)
	})
}

func describeOperator(out *SigNode, mode Mode, ctx *describeCtx, prefix, templateArgs string, op IdentOrOp, ident func(*SigNode)) {
	switch mode {
	case ModeLastIsName:
		ident(out.Child(SigMainName))
	case ModeMarkType:
		// The whole operator becomes one link, so a conversion operator's
		// type is not linked separately.
		tmp := &SigNode{Kind: SigRoot}
		ident(tmp)
		r := xref(out, prefix+String(op)+templateArgs, ctx)
		r.Child(SigMainName).Add(SigName, tmp.Astext())
	default:
		ident(out.Child(SigAddName))
	}
}

// TemplateArg is a type or constant template argument.
type TemplateArg interface {
	Node
	describer
	ider
}

// TemplateArgConstant is a non-type template argument.
type TemplateArgConstant struct {
	Value Expr
}

func (c *TemplateArgConstant) format(display bool) string {
	return c.Value.format(display)
}

func (c *TemplateArgConstant) id(version int) string {
	switch version {
	case 1:
		return strings.ReplaceAll(String(c), " ", "-")
	case 2:
		return "X" + String(c) + "E"
	}
	return "X" + c.Value.id(version) + "E"
}

func (c *TemplateArgConstant) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	describeNode(c.Value, out, mode, ctx)
}

// TemplateArgs is an explicit template argument list, <A, B...>.
type TemplateArgs struct {
	Args          []TemplateArg
	PackExpansion bool
}

func (t *TemplateArgs) format(display bool) string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.format(display)
	}
	res := strings.Join(parts, ", ")
	if t.PackExpansion {
		res += "..."
	}
	return "<" + res + ">"
}

func (t *TemplateArgs) id(version int) string {
	if version == 1 {
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.id(version)
		}
		return ":" + strings.Join(parts, ".") + ":"
	}
	var b strings.Builder
	b.WriteString("I")
	for i, a := range t.Args {
		if i == len(t.Args)-1 && t.PackExpansion {
			b.WriteString("J")
		}
		b.WriteString(a.id(version))
	}
	if t.PackExpansion {
		b.WriteString("E")
	}
	b.WriteString("E")
	return b.String()
}

func (t *TemplateArgs) describe(out *SigNode, _ Mode, ctx *describeCtx) {
	w := writer{out}
	w.punct("<")
	for i, a := range t.Args {
		if i > 0 {
			w.punct(",")
			w.space()
		}
		a.describe(out, ModeMarkType, ctx)
	}
	if t.PackExpansion {
		w.punct("...")
	}
	w.punct(">")
}

// NestedNameElement is one ::-separated component of a nested name.
type NestedNameElement struct {
	IdentOrOp    IdentOrOp
	TemplateArgs *TemplateArgs
}

// IsOperator reports whether the element names an operator.
func (e *NestedNameElement) IsOperator() bool {
	_, ok := e.IdentOrOp.(*Identifier)
	return !ok
}

func (e *NestedNameElement) format(display bool) string {
	res := e.IdentOrOp.format(display)
	if e.TemplateArgs != nil {
		res += e.TemplateArgs.format(display)
	}
	return res
}

func (e *NestedNameElement) id(version int) string {
	res := e.IdentOrOp.id(version)
	if e.TemplateArgs != nil {
		res += e.TemplateArgs.id(version)
	}
	return res
}

func (e *NestedNameElement) describeElement(out *SigNode, mode Mode, ctx *describeCtx, prefix string) {
	targs := ""
	if e.TemplateArgs != nil {
		targs = String(e.TemplateArgs)
	}
	e.IdentOrOp.describeName(out, mode, ctx, prefix, targs)
	if e.TemplateArgs != nil {
		e.TemplateArgs.describe(out, ModeMarkType, ctx)
	}
}

// NestedName is a possibly qualified name such as ::a::b<int>::c.
// Templates[i] records a 'template' disambiguator before element i.
type NestedName struct {
	Names     []*NestedNameElement
	Templates []bool
	Rooted    bool
}

// SimpleName builds an unqualified single-element name.
func SimpleName(ident IdentOrOp) *NestedName {
	return &NestedName{
		Names:     []*NestedNameElement{{IdentOrOp: ident}},
		Templates: []bool{false},
	}
}

// NumTemplates counts the elements that carry template arguments.
func (n *NestedName) NumTemplates() int {
	count := 0
	for _, e := range n.Names {
		if e.TemplateArgs != nil {
			count++
		}
	}
	return count
}

// Last returns the final element.
func (n *NestedName) Last() *NestedNameElement {
	return n.Names[len(n.Names)-1]
}

func (n *NestedName) format(display bool) string {
	var parts []string
	if n.Rooted {
		parts = append(parts, "")
	}
	for i, e := range n.Names {
		if n.Templates[i] {
			parts = append(parts, "template "+e.format(display))
		} else {
			parts = append(parts, e.format(display))
		}
	}
	return strings.Join(parts, "::")
}

// ID returns the mangled form of the name.
func (n *NestedName) ID(version int) (id string, err error) {
	defer recoverNoOldID(&err)
	return n.idWith(version, ""), nil
}

func (n *NestedName) id(version int) string {
	return n.idWith(version, "")
}

func (n *NestedName) idWith(version int, modifiers string) string {
	if version == 1 {
		if short, ok := shorthandIDv1[String(n)]; ok {
			return short
		}
		parts := make([]string, len(n.Names))
		for i, e := range n.Names {
			parts[i] = e.id(version)
		}
		return strings.Join(parts, "::")
	}
	var b strings.Builder
	wrap := len(n.Names) > 1 || modifiers != ""
	if wrap {
		b.WriteString("N")
		b.WriteString(modifiers)
	}
	for _, e := range n.Names {
		b.WriteString(e.id(version))
	}
	if wrap {
		b.WriteString("E")
	}
	return b.String()
}

func (n *NestedName) describe(out *SigNode, mode Mode, ctx *describeCtx) {
	switch mode {
	case ModeNoneIsName, ModeParam:
		if n.Rooted {
			writer{out}.punct("::")
		}
		for i, e := range n.Names {
			if i > 0 {
				writer{out}.punct("::")
			}
			e.describeElement(out, mode, ctx, "")
		}
		return
	}

	// Each element links to the complete prefix up to and including it.
	// Only the identifier part is a link so template arguments can link on
	// their own. In lastIsName mode the template parameter lists are
	// threaded into the targets so that they resolve to the right
	// specialization.
	var templateParams []TemplateParamList
	if mode == ModeLastIsName && ctx != nil && ctx.owner != nil {
		if d := ctx.owner.Decl(); d != nil && d.TemplatePrefix != nil {
			templateParams = d.TemplatePrefix.Templates
		}
	}
	names := n.Names
	if mode == ModeLastIsName {
		names = names[:len(names)-1]
	}
	dest := out
	if mode == ModeLastIsName {
		dest = &SigNode{Kind: SigAddName}
	}
	iTemplateParams := 0
	templateParamsPrefix := ""
	prefix := ""
	if n.Rooted {
		prefix += "::"
		if mode == ModeLastIsName && len(names) == 0 {
			writer{out}.punct("::")
		} else {
			writer{dest}.punct("::")
		}
	}
	for i, e := range names {
		if i > 0 {
			writer{dest}.punct("::")
			prefix += "::"
		}
		if n.Templates[i] {
			writer{dest}.keyword("template")
			writer{dest}.space()
		}
		txt := String(e)
		if txt != "" {
			if e.TemplateArgs != nil && iTemplateParams < len(templateParams) {
				templateParamsPrefix += String(templateParams[iTemplateParams])
				iTemplateParams++
			}
			e.describeElement(dest, ModeMarkType, ctx, templateParamsPrefix+prefix)
		}
		prefix += txt
	}
	if mode == ModeLastIsName {
		if len(n.Names) > 1 {
			writer{dest}.punct("::")
			out.Children = append(out.Children, dest)
		}
		if n.Templates[len(n.Templates)-1] {
			writer{out}.keyword("template")
			writer{out}.space()
		}
		n.Last().describeElement(out, mode, ctx, "")
	}
}
