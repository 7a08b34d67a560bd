package ast

// Mode selects how a node describes itself.
type Mode int

const (
	// ModeLastIsName renders a full signature with the declared name
	// emphasized.
	ModeLastIsName Mode = iota
	// ModeNoneIsName renders names as plain text.
	ModeNoneIsName
	// ModeMarkType renders names as references so they can be linked.
	ModeMarkType
	// ModeMarkName renders the declared name as a reference as well.
	ModeMarkName
	// ModeParam renders a function or template parameter name.
	ModeParam
	// ModeUDL renders the suffix of a user-defined literal.
	ModeUDL
)

// DescribeOptions tune how a declaration is described.
type DescribeOptions struct {
	// TParamLineSpec puts every template parameter list on its own line.
	TParamLineSpec bool
	// MultiLineParams renders function parameters one per line.
	MultiLineParams bool
}

// describer is implemented by every node that can describe itself.
type describer interface {
	describe(out *SigNode, mode Mode, ctx *describeCtx)
}

type describeCtx struct {
	owner Owner
	opts  DescribeOptions
}

func (c *describeCtx) scope() LookupKey {
	if c == nil || c.owner == nil {
		return nil
	}
	return c.owner.LookupKey()
}

func describeNode(n Node, out *SigNode, mode Mode, ctx *describeCtx) {
	if isNil(n) {
		return
	}
	if d, ok := n.(describer); ok {
		d.describe(out, mode, ctx)
		return
	}
	out.Add(SigText, String(n))
}

// DescribeExpr describes an expression or type (the expr roles) with every
// name rendered as a reference resolved from owner.
func DescribeExpr(n Node, out *SigNode, owner Owner) {
	describeNode(n, out, ModeMarkType, &describeCtx{owner: owner})
}

// xref appends a reference node targeting target and returns it so the
// caller can fill in the visible text.
func xref(out *SigNode, target string, ctx *describeCtx) *SigNode {
	r := out.Child(SigRef)
	r.Target = target
	r.Scope = ctx.scope()
	return r
}
