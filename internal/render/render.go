// Package render turns described signatures into text, HTML and terminal
// output. References are linked through a Linker supplied by the caller,
// which usually resolves them against the symbol table of a build.
package render

import (
	"html"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/jward/cppdomain/internal/ast"
)

// Indent prefixes every parameter of a multi-line parameter list.
const Indent = "    "

// Linker resolves the target of a reference fragment. ok is false when the
// reference cannot be linked and should be rendered as plain text.
type Linker interface {
	Link(target string, scope ast.LookupKey) (url string, ok bool)
}

// LinkerFunc adapts a function to a Linker.
type LinkerFunc func(target string, scope ast.LookupKey) (string, bool)

func (f LinkerFunc) Link(target string, scope ast.LookupKey) (string, bool) {
	return f(target, scope)
}

// Width is the display width of the single-line text of sig.
func Width(sig *ast.SigNode) int {
	return runewidth.StringWidth(sig.Astext())
}

// Overlong reports whether a signature written as text is wider than
// limit columns. A limit of 0 means none.
func Overlong(text string, limit int) bool {
	return limit > 0 && runewidth.StringWidth(text) > limit
}

// Text renders sig as plain text, one output line per signature line.
// Multi-line parameter lists put every parameter on its own line.
func Text(sig *ast.SigNode) string {
	var b strings.Builder
	for i, line := range lines(sig) {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeText(&b, line)
	}
	return b.String()
}

// lines returns the line nodes of sig. A fragment that is not inside a
// line, as produced for expressions, forms a line of its own.
func lines(sig *ast.SigNode) []*ast.SigNode {
	if sig.Kind != ast.SigRoot {
		return []*ast.SigNode{sig}
	}
	var res []*ast.SigNode
	var loose *ast.SigNode
	for _, c := range sig.Children {
		if c.Kind == ast.SigLine {
			loose = nil
			res = append(res, c)
			continue
		}
		if loose == nil {
			loose = &ast.SigNode{Kind: ast.SigLine}
			res = append(res, loose)
		}
		loose.Children = append(loose.Children, c)
	}
	return res
}

func writeText(b *strings.Builder, n *ast.SigNode) {
	switch n.Kind {
	case ast.SigSpace:
		b.WriteByte(' ')
		return
	case ast.SigParamList:
		writeParams(b, n, writeText)
		return
	}
	b.WriteString(n.Text)
	for _, c := range n.Children {
		writeText(b, c)
	}
}

func writeParams(b *strings.Builder, list *ast.SigNode, write func(*strings.Builder, *ast.SigNode)) {
	b.WriteByte('(')
	if list.MultiLine && len(list.Children) > 0 {
		for i, p := range list.Children {
			b.WriteString("\n" + Indent)
			write(b, p)
			if i < len(list.Children)-1 {
				b.WriteByte(',')
			}
		}
		b.WriteString("\n)")
		return
	}
	for i, p := range list.Children {
		if i > 0 {
			b.WriteString(", ")
		}
		write(b, p)
	}
	b.WriteByte(')')
}

var htmlClasses = map[ast.SigKind]string{
	ast.SigName:        "n",
	ast.SigKeyword:     "k",
	ast.SigKeywordType: "kt",
	ast.SigOperator:    "o",
	ast.SigPunctuation: "p",
	ast.SigNumber:      "m",
	ast.SigString:      "s",
	ast.SigChar:        "sc",
	ast.SigMainName:    "sig-name descname",
	ast.SigAddName:     "sig-prename descclassname",
	ast.SigParam:       "sig-param",
}

// HTML renders sig as a sequence of sig-line spans. ids, newest first,
// become the anchors of the first line. linker may be nil.
func HTML(sig *ast.SigNode, ids []string, linker Linker) string {
	var b strings.Builder
	b.WriteString(`<dt class="sig sig-object cpp"`)
	if len(ids) > 0 {
		b.WriteString(` id="` + html.EscapeString(ids[0]) + `"`)
	}
	b.WriteByte('>')
	for _, id := range ids[min(1, len(ids)):] {
		b.WriteString(`<span id="` + html.EscapeString(id) + `"></span>`)
	}
	for i, line := range lines(sig) {
		if i > 0 {
			b.WriteString("<br />")
		}
		b.WriteString(`<span class="sig-line">`)
		h := htmlWriter{linker: linker}
		h.write(&b, line)
		b.WriteString(`</span>`)
	}
	if len(ids) > 0 {
		b.WriteString(`<a class="headerlink" href="#` + html.EscapeString(ids[0]) + `">¶</a>`)
	}
	b.WriteString("</dt>")
	return b.String()
}

type htmlWriter struct {
	linker Linker
}

func (h htmlWriter) write(b *strings.Builder, n *ast.SigNode) {
	switch n.Kind {
	case ast.SigSpace:
		b.WriteByte(' ')
		return
	case ast.SigText:
		b.WriteString(html.EscapeString(n.Text))
		return
	case ast.SigParamList:
		b.WriteString(`<span class="sig-paren">`)
		writeParams(b, n, h.write)
		b.WriteString(`</span>`)
		return
	case ast.SigRef:
		if h.linker != nil {
			if url, ok := h.linker.Link(n.Target, n.Scope); ok {
				b.WriteString(`<a class="reference internal" href="` + html.EscapeString(url) +
					`" title="` + html.EscapeString(n.Target) + `">`)
				h.children(b, n)
				b.WriteString("</a>")
				return
			}
		}
		h.children(b, n)
		return
	case ast.SigLine, ast.SigRoot, ast.SigInline:
		h.children(b, n)
		return
	}
	class, ok := htmlClasses[n.Kind]
	if !ok {
		b.WriteString(html.EscapeString(n.Text))
		h.children(b, n)
		return
	}
	b.WriteString(`<span class="` + class + `">`)
	b.WriteString(html.EscapeString(n.Text))
	h.children(b, n)
	b.WriteString("</span>")
}

func (h htmlWriter) children(b *strings.Builder, n *ast.SigNode) {
	for _, c := range n.Children {
		h.write(b, c)
	}
}

// Terminal renders sig like Text, with keywords, names and literals
// styled for the given color profile. termenv.Ascii gives plain text.
func Terminal(sig *ast.SigNode, profile termenv.Profile) string {
	t := termWriter{p: profile}
	var b strings.Builder
	for i, line := range lines(sig) {
		if i > 0 {
			b.WriteByte('\n')
		}
		t.write(&b, line)
	}
	return b.String()
}

type termWriter struct {
	p termenv.Profile
}

func (t termWriter) style(kind ast.SigKind, text string) string {
	s := t.p.String(text)
	switch kind {
	case ast.SigKeyword:
		s = s.Foreground(t.p.Color("5")).Bold()
	case ast.SigKeywordType:
		s = s.Foreground(t.p.Color("4"))
	case ast.SigNumber, ast.SigString, ast.SigChar:
		s = s.Foreground(t.p.Color("2"))
	default:
		return text
	}
	return s.String()
}

func (t termWriter) write(b *strings.Builder, n *ast.SigNode) {
	switch n.Kind {
	case ast.SigSpace:
		b.WriteByte(' ')
	case ast.SigParamList:
		writeParams(b, n, t.write)
	case ast.SigMainName:
		var inner strings.Builder
		t.children(&inner, n)
		b.WriteString(t.p.String(inner.String()).Bold().String())
	case ast.SigRef:
		var inner strings.Builder
		t.children(&inner, n)
		b.WriteString(t.p.String(inner.String()).Underline().String())
	default:
		b.WriteString(t.style(n.Kind, n.Text))
		t.children(b, n)
	}
}

func (t termWriter) children(b *strings.Builder, n *ast.SigNode) {
	for _, c := range n.Children {
		t.write(b, c)
	}
}
