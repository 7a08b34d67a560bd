// Package document reads directive documents: reStructuredText-like files
// in which ".. cpp:<kind>:: <signature>" blocks declare C++ entities and
// ":cpp:<role>:`target`" roles refer to them.
//
//	.. cpp:class:: template<typename T> Vector
//	   :no-index-entry:
//
//	   .. cpp:function:: void push_back(const T &value)
//	                     void push_back(T &&value)
//
//	      Appends to the end, see :cpp:func:`~Vector::size`.
//
// Positions are 1-based lines and 0-based byte columns of the original
// text.
package document

import (
	"regexp"
	"strings"
)

// Node is a Directive or a Paragraph.
type Node interface {
	Pos() (line, col int)
}

// Signature is one line of a directive's argument.
type Signature struct {
	Text string
	Line int
	Col  int
}

// Directive is a ".. cpp:kind::" block.
type Directive struct {
	Kind       string
	Line       int
	Col        int
	Signatures []Signature
	Options    map[string]string
	Content    []Node
}

func (d *Directive) Pos() (int, int) { return d.Line, d.Col }

// Flag reports whether the option name was given.
func (d *Directive) Flag(name string) bool {
	_, ok := d.Options[name]
	return ok
}

// Paragraph is a run of text lines with the references found in them.
type Paragraph struct {
	Line  int
	Col   int
	Lines []string
	Refs  []*Ref
}

func (p *Paragraph) Pos() (int, int) { return p.Line, p.Col }

// Ref is a ":cpp:role:`...`" occurrence. Title is the explicit title of
// the "title <target>" form, empty otherwise. Modifiers are kept on
// Target: a leading "~" asks for a shortened title and a leading "!"
// suppresses the link.
type Ref struct {
	Role   string
	Target string
	Title  string
	Line   int
	Col    int
	EndCol int
}

// Document is a parsed file. Name is the docname the declarations in it
// are recorded under.
type Document struct {
	Name  string
	Nodes []Node
}

var (
	directiveRE = regexp.MustCompile(`^\.\.\s+cpp:([a-z][a-z-]*)::(?:\s+(.*))?$`)
	optionRE    = regexp.MustCompile(`^:([a-z][a-z-]*):(?:\s+(.*))?$`)
	roleRE      = regexp.MustCompile(":cpp:([a-z]+):`([^`]+)`")
	titleRE     = regexp.MustCompile(`^(.+?)\s+<([^<>]+)>$`)
)

type srcLine struct {
	n    int
	text string
}

func (l srcLine) blank() bool {
	return strings.TrimSpace(l.text) == ""
}

func (l srcLine) indent() int {
	return len(l.text) - len(strings.TrimLeft(l.text, " "))
}

func (l srcLine) trimmed() string {
	return strings.TrimSpace(l.text)
}

// Parse reads src. It never fails: text that is not a recognizable
// directive is kept as paragraphs.
func Parse(name string, src string) *Document {
	raw := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	lines := make([]srcLine, len(raw))
	for i, text := range raw {
		lines[i] = srcLine{n: i + 1, text: strings.ReplaceAll(text, "\t", "        ")}
	}
	return &Document{Name: name, Nodes: parseBlock(lines)}
}

func parseBlock(lines []srcLine) []Node {
	var nodes []Node
	for i := 0; i < len(lines); {
		l := lines[i]
		if l.blank() {
			i++
			continue
		}
		if m := directiveRE.FindStringSubmatch(l.trimmed()); m != nil {
			d, next := parseDirective(lines, i, m)
			nodes = append(nodes, d)
			i = next
			continue
		}
		p := &Paragraph{Line: l.n, Col: l.indent()}
		for i < len(lines) && !lines[i].blank() && !directiveRE.MatchString(lines[i].trimmed()) {
			p.Lines = append(p.Lines, lines[i].trimmed())
			p.Refs = append(p.Refs, findRefs(lines[i])...)
			i++
		}
		nodes = append(nodes, p)
	}
	return nodes
}

func parseDirective(lines []srcLine, i int, m []string) (*Directive, int) {
	l := lines[i]
	indent := l.indent()
	d := &Directive{Kind: m[1], Line: l.n, Col: indent, Options: map[string]string{}}
	if arg := strings.TrimSpace(m[2]); arg != "" {
		d.Signatures = append(d.Signatures, Signature{Text: arg, Line: l.n, Col: strings.Index(l.text, arg)})
	}
	inside := func(j int) bool {
		return j < len(lines) && !lines[j].blank() && lines[j].indent() > indent
	}

	j := i + 1
	for ; inside(j) && !optionRE.MatchString(lines[j].trimmed()); j++ {
		d.Signatures = append(d.Signatures, Signature{Text: lines[j].trimmed(), Line: lines[j].n, Col: lines[j].indent()})
	}
	for ; inside(j); j++ {
		om := optionRE.FindStringSubmatch(lines[j].trimmed())
		if om == nil {
			break
		}
		d.Options[om[1]] = strings.TrimSpace(om[2])
	}

	end := j
	for k := j; k < len(lines); k++ {
		if lines[k].blank() {
			continue
		}
		if lines[k].indent() <= indent {
			break
		}
		end = k + 1
	}
	d.Content = parseBlock(lines[j:end])
	return d, end
}

func findRefs(l srcLine) []*Ref {
	var refs []*Ref
	for _, loc := range roleRE.FindAllStringSubmatchIndex(l.text, -1) {
		r := &Ref{
			Role:   l.text[loc[2]:loc[3]],
			Target: l.text[loc[4]:loc[5]],
			Line:   l.n,
			Col:    loc[0],
			EndCol: loc[1],
		}
		if tm := titleRE.FindStringSubmatch(r.Target); tm != nil {
			r.Title, r.Target = tm[1], tm[2]
		}
		refs = append(refs, r)
	}
	return refs
}

// Walk calls fn for every node, parents before their content. The stack
// holds the enclosing directives, innermost last.
func (d *Document) Walk(fn func(n Node, stack []*Directive)) {
	walk(d.Nodes, nil, fn)
}

func walk(nodes []Node, stack []*Directive, fn func(Node, []*Directive)) {
	for _, n := range nodes {
		fn(n, stack)
		if dir, ok := n.(*Directive); ok {
			walk(dir.Content, append(stack[:len(stack):len(stack)], dir), fn)
		}
	}
}

// Refs returns every reference in the document in order.
func (d *Document) Refs() []*Ref {
	var refs []*Ref
	d.Walk(func(n Node, _ []*Directive) {
		if p, ok := n.(*Paragraph); ok {
			refs = append(refs, p.Refs...)
		}
	})
	return refs
}

// At returns the reference or the directive signature at line and col.
func (d *Document) At(line, col int) (*Ref, *Directive, *Signature) {
	var ref *Ref
	var dir *Directive
	var sig *Signature
	d.Walk(func(n Node, _ []*Directive) {
		switch n := n.(type) {
		case *Paragraph:
			for _, r := range n.Refs {
				if r.Line == line && col >= r.Col && col < r.EndCol {
					ref = r
				}
			}
		case *Directive:
			for i := range n.Signatures {
				s := &n.Signatures[i]
				if s.Line == line && col >= s.Col && col <= s.Col+len(s.Text) {
					dir, sig = n, s
				}
			}
		}
	})
	return ref, dir, sig
}

// declarationKinds maps declaration directive kinds to the object type
// they declare.
var declarationKinds = map[string]string{
	"class":       "class",
	"struct":      "class",
	"union":       "union",
	"function":    "function",
	"member":      "member",
	"var":         "member",
	"type":        "type",
	"concept":     "concept",
	"enum":        "enum",
	"enum-struct": "enum",
	"enum-class":  "enum",
	"enumerator":  "enumerator",
}

// ObjectType returns the object type declared by a directive kind. ok is
// false for namespace and alias directives and for unknown kinds.
func ObjectType(kind string) (objectType string, ok bool) {
	objectType, ok = declarationKinds[kind]
	return objectType, ok
}

// NewParagraph builds a paragraph from text found outside a directive
// document, such as a documentation comment. cols holds the column each
// of texts starts at; references are located in the original text.
func NewParagraph(line int, cols []int, texts []string) *Paragraph {
	p := &Paragraph{Line: line}
	if len(cols) > 0 {
		p.Col = cols[0]
	}
	for i, text := range texts {
		p.Lines = append(p.Lines, strings.TrimSpace(text))
		l := srcLine{n: line + i, text: strings.Repeat(" ", cols[i]) + text}
		p.Refs = append(p.Refs, findRefs(l)...)
	}
	return p
}
