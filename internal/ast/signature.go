package ast

import "strings"

// SigKind classifies a fragment of a described signature.
type SigKind int

const (
	SigRoot SigKind = iota
	SigLine
	SigText
	SigSpace
	SigName
	SigKeyword
	SigKeywordType
	SigOperator
	SigPunctuation
	SigNumber
	SigString
	SigChar
	SigMainName
	SigAddName
	SigRef
	SigParamList
	SigParam
	SigInline
)

var sigKindNames = [...]string{
	"root", "line", "text", "space", "name", "keyword", "keyword-type",
	"operator", "punctuation", "number", "string", "char", "main-name",
	"add-name", "ref", "param-list", "param", "inline",
}

func (k SigKind) String() string {
	if int(k) < len(sigKindNames) {
		return sigKindNames[k]
	}
	return "unknown"
}

// SigNode is a node of a described signature. Leaf kinds carry Text;
// container kinds (root, line, names, refs, parameter lists) carry
// Children.
type SigNode struct {
	Kind     SigKind
	Text     string
	Children []*SigNode

	// Target and Scope are set on SigRef nodes: the reference text and the
	// scope it must be resolved from.
	Target string
	Scope  LookupKey

	// MultiLine is set on SigParamList nodes whose parameters should be
	// rendered one per line.
	MultiLine bool
}

// NewSignature returns an empty root node.
func NewSignature() *SigNode {
	return &SigNode{Kind: SigRoot}
}

// Add appends a leaf and returns n for chaining.
func (n *SigNode) Add(kind SigKind, text string) *SigNode {
	n.Children = append(n.Children, &SigNode{Kind: kind, Text: text})
	return n
}

// Child appends and returns a new container node.
func (n *SigNode) Child(kind SigKind) *SigNode {
	c := &SigNode{Kind: kind}
	n.Children = append(n.Children, c)
	return c
}

// Astext flattens the node to plain text.
func (n *SigNode) Astext() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *SigNode) writeText(b *strings.Builder) {
	switch n.Kind {
	case SigSpace:
		b.WriteByte(' ')
		return
	case SigParamList:
		b.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			c.writeText(b)
		}
		b.WriteByte(')')
		return
	}
	b.WriteString(n.Text)
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// Walk calls fn for n and every descendant in document order.
func (n *SigNode) Walk(fn func(*SigNode)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Len reports the number of direct children.
func (n *SigNode) Len() int {
	return len(n.Children)
}

// writer is a thin helper that keeps describe functions compact.
type writer struct {
	n *SigNode
}

func (w writer) text(s string)    { w.n.Add(SigText, s) }
func (w writer) space()           { w.n.Add(SigSpace, " ") }
func (w writer) keyword(s string) { w.n.Add(SigKeyword, s) }
func (w writer) ktype(s string)   { w.n.Add(SigKeywordType, s) }
func (w writer) op(s string)      { w.n.Add(SigOperator, s) }
func (w writer) punct(s string)   { w.n.Add(SigPunctuation, s) }
func (w writer) name(s string)    { w.n.Add(SigName, s) }
