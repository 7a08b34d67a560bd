package runtime

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/tliron/commonlog"

	"github.com/jward/cppdomain/internal/document"
)

// ScanHeader parses a C/C++ header with tree-sitter and turns its public
// declarations into a directive document, as if each had been written as
// a ".. cpp:kind::" block at the position it occurs at:
//
//   - namespaces become namespace-push/namespace-pop pairs
//   - classes, structs and unions become directives whose content holds
//     their public members
//   - function declarations and inline definitions become function
//     directives; out-of-class member definitions are skipped
//   - variables, typedefs, alias declarations, enums and concepts map to
//     var, type, enum and concept directives
//
// Documentation comments ("///", "//!", "/**", "/*!") directly above a
// declaration become a paragraph in its content, so references written in
// them are resolved. Declarations tree-sitter could not parse are skipped.
func ScanHeader(ctx context.Context, name string, src []byte, lang string) (*document.Document, error) {
	grammar, ok := ParserForLanguage(lang)
	if !ok {
		return nil, fmt.Errorf("runtime: unsupported header language %q", lang)
	}
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(grammar)

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("runtime: parsing header %s: %w", name, err)
	}
	defer tree.Close()

	h := &headerScanner{src: src, log: commonlog.GetLogger("cppdomain.header")}
	h.collectComments(tree.RootNode())
	return &document.Document{Name: name, Nodes: h.items(tree.RootNode(), "")}, nil
}

type headerScanner struct {
	src      []byte
	log      commonlog.Logger
	comments [][2]uint32
	inClass  bool
}

func (h *headerScanner) collectComments(n *sitter.Node) {
	if n.Type() == "comment" {
		h.comments = append(h.comments, [2]uint32{n.StartByte(), n.EndByte()})
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		h.collectComments(n.Child(i))
	}
}

// text returns the source between start and end with comments removed
// and whitespace collapsed.
func (h *headerScanner) text(start, end uint32) string {
	var b strings.Builder
	i := sort.Search(len(h.comments), func(i int) bool { return h.comments[i][1] > start })
	pos := start
	for ; i < len(h.comments) && h.comments[i][0] < end; i++ {
		if h.comments[i][0] > pos {
			b.Write(h.src[pos:h.comments[i][0]])
		}
		b.WriteByte(' ')
		pos = h.comments[i][1]
	}
	if pos < end {
		b.Write(h.src[pos:end])
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func (h *headerScanner) nodeText(n *sitter.Node) string {
	return h.text(n.StartByte(), n.EndByte())
}

func (h *headerScanner) directive(kind string, n *sitter.Node, sigs ...string) *document.Directive {
	line, col := int(n.StartPoint().Row)+1, int(n.StartPoint().Column)
	d := &document.Directive{Kind: kind, Line: line, Col: col, Options: map[string]string{}}
	for _, s := range sigs {
		d.Signatures = append(d.Signatures, document.Signature{Text: s, Line: line, Col: col})
	}
	return d
}

// items converts the declarations directly inside a translation unit,
// declaration list or preprocessor block.
func (h *headerScanner) items(n *sitter.Node, tmpl string) []document.Node {
	var res []document.Node
	var doc *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "comment" {
			if isDocComment(h.nodeSource(c)) {
				doc = c
			} else {
				doc = nil
			}
			continue
		}
		nodes := h.item(c, tmpl)
		if doc != nil && len(nodes) == 1 {
			if d, ok := nodes[0].(*document.Directive); ok && d.Kind != "namespace-push" {
				d.Content = append([]document.Node{h.commentParagraph(doc)}, d.Content...)
			}
		}
		doc = nil
		res = append(res, nodes...)
	}
	return res
}

func (h *headerScanner) item(n *sitter.Node, tmpl string) []document.Node {
	if n.HasError() {
		h.log.Debugf("skipping unparsable declaration at %d:%d", n.StartPoint().Row+1, n.StartPoint().Column)
		return nil
	}
	switch n.Type() {
	case "namespace_definition":
		return h.namespace(n)
	case "linkage_specification":
		body := n.ChildByFieldName("body")
		if body == nil {
			return nil
		}
		if body.Type() == "declaration_list" {
			return h.items(body, "")
		}
		return h.item(body, "")
	case "template_declaration":
		return h.template(n, tmpl)
	case "class_specifier", "struct_specifier", "union_specifier":
		return h.class(n, tmpl)
	case "enum_specifier":
		return h.enum(n)
	case "function_definition":
		return h.functionDefinition(n, tmpl)
	case "declaration", "field_declaration":
		return h.declaration(n, tmpl)
	case "type_definition":
		return h.typedef(n)
	case "alias_declaration":
		return h.alias(n, tmpl)
	case "concept_definition":
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		return []document.Node{h.directive("concept", n, tmpl+h.nodeText(name))}
	case "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif", "preproc_elifdef":
		return h.items(n, tmpl)
	}
	return nil
}

func (h *headerScanner) namespace(n *sitter.Node) []document.Node {
	name := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	// anonymous namespaces hold internal linkage only
	if name == nil || body == nil {
		return nil
	}
	res := []document.Node{h.directive("namespace-push", n, h.nodeText(name))}
	res = append(res, h.items(body, "")...)
	pop := &document.Directive{
		Kind:    "namespace-pop",
		Line:    int(n.EndPoint().Row) + 1,
		Col:     int(n.EndPoint().Column),
		Options: map[string]string{},
	}
	return append(res, pop)
}

func (h *headerScanner) template(n *sitter.Node, tmpl string) []document.Node {
	params := n.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	prefix := tmpl + "template" + h.nodeText(params) + " "
	var res []document.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.StartByte() == params.StartByte() || c.Type() == "requires_clause" {
			continue
		}
		res = append(res, h.item(c, prefix)...)
	}
	return res
}

func (h *headerScanner) class(n *sitter.Node, tmpl string) []document.Node {
	name := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	if name == nil || body == nil {
		return nil
	}
	kind := strings.TrimSuffix(n.Type(), "_specifier")
	sig := tmpl + h.nodeText(name)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "virtual_specifier":
			sig += " " + h.nodeText(c)
		case "base_class_clause":
			sig += " " + h.nodeText(c)
		}
	}
	d := h.directive(kind, n, sig)
	d.Content = h.classBody(body, kind == "class")
	return []document.Node{d}
}

func (h *headerScanner) classBody(body *sitter.Node, private bool) []document.Node {
	saved := h.inClass
	h.inClass = true
	defer func() { h.inClass = saved }()

	var res []document.Node
	var doc *sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		switch c.Type() {
		case "access_specifier":
			private = strings.TrimSpace(strings.TrimSuffix(h.nodeText(c), ":")) != "public"
			doc = nil
			continue
		case "comment":
			if isDocComment(h.nodeSource(c)) {
				doc = c
			} else {
				doc = nil
			}
			continue
		}
		if private {
			doc = nil
			continue
		}
		nodes := h.item(c, "")
		if doc != nil && len(nodes) == 1 {
			if d, ok := nodes[0].(*document.Directive); ok {
				d.Content = append([]document.Node{h.commentParagraph(doc)}, d.Content...)
			}
		}
		doc = nil
		res = append(res, nodes...)
	}
	return res
}

func (h *headerScanner) enum(n *sitter.Node) []document.Node {
	name := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	if name == nil || body == nil {
		return nil
	}
	kind := "enum"
	for i := 0; i < int(n.ChildCount()); i++ {
		switch n.Child(i).Type() {
		case "class":
			kind = "enum-class"
		case "struct":
			kind = "enum-struct"
		}
	}
	sig := h.nodeText(name)
	if base := n.ChildByFieldName("base"); base != nil {
		sig += " : " + h.nodeText(base)
	}
	d := h.directive(kind, n, sig)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		if c.Type() != "enumerator" {
			continue
		}
		d.Content = append(d.Content, h.directive("enumerator", c, h.nodeText(c)))
	}
	return []document.Node{d}
}

func (h *headerScanner) functionDefinition(n *sitter.Node, tmpl string) []document.Node {
	decl := n.ChildByFieldName("declarator")
	fd := functionDeclarator(decl)
	if fd == nil || isQualified(fd) {
		return nil
	}
	end := n.EndByte()
	if body := n.ChildByFieldName("body"); body != nil {
		end = body.StartByte()
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "field_initializer_list" && c.StartByte() < end {
			end = c.StartByte()
		}
	}
	sig := strings.TrimSuffix(h.text(n.StartByte(), end), ";")
	return []document.Node{h.directive("function", n, tmpl+strings.TrimSpace(sig))}
}

func (h *headerScanner) declaration(n *sitter.Node, tmpl string) []document.Node {
	var res []document.Node
	if typ := n.ChildByFieldName("type"); typ != nil {
		switch typ.Type() {
		case "class_specifier", "struct_specifier", "union_specifier":
			res = append(res, h.class(typ, tmpl)...)
		case "enum_specifier":
			res = append(res, h.enum(typ)...)
		}
	}
	var declarators []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) == "declarator" {
			declarators = append(declarators, n.Child(i))
		}
	}
	if len(declarators) == 0 {
		return res
	}
	if fd := functionDeclarator(declarators[0]); fd != nil {
		if isQualified(fd) || len(declarators) > 1 {
			return res
		}
		sig := strings.TrimSuffix(h.nodeText(n), ";")
		return append(res, h.directive("function", n, tmpl+strings.TrimSpace(sig)))
	}

	kind := "var"
	if h.inClass {
		kind = "member"
	}
	if len(declarators) == 1 {
		sig := strings.TrimSuffix(h.nodeText(n), ";")
		return append(res, h.directive(kind, n, tmpl+strings.TrimSpace(sig)))
	}
	prefix := h.text(n.StartByte(), declarators[0].StartByte())
	d := h.directive(kind, n)
	for _, decl := range declarators {
		d.Signatures = append(d.Signatures, document.Signature{
			Text: tmpl + prefix + " " + h.nodeText(decl),
			Line: int(decl.StartPoint().Row) + 1,
			Col:  int(decl.StartPoint().Column),
		})
	}
	return append(res, d)
}

func (h *headerScanner) typedef(n *sitter.Node) []document.Node {
	typ := n.ChildByFieldName("type")
	if typ == nil {
		return nil
	}
	d := h.directive("type", n)
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) != "declarator" {
			continue
		}
		c := n.Child(i)
		d.Signatures = append(d.Signatures, document.Signature{
			Text: h.nodeText(typ) + " " + h.nodeText(c),
			Line: int(c.StartPoint().Row) + 1,
			Col:  int(c.StartPoint().Column),
		})
	}
	if len(d.Signatures) == 0 {
		return nil
	}
	return []document.Node{d}
}

func (h *headerScanner) alias(n *sitter.Node, tmpl string) []document.Node {
	name := n.ChildByFieldName("name")
	typ := n.ChildByFieldName("type")
	if name == nil || typ == nil {
		return nil
	}
	return []document.Node{h.directive("type", n, tmpl+h.nodeText(name)+" = "+h.nodeText(typ))}
}

// functionDeclarator returns the function declarator inside pointer and
// reference declarators, or nil when n declares no function.
func functionDeclarator(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "function_declarator":
			return n
		case "pointer_declarator", "attributed_declarator":
			n = n.ChildByFieldName("declarator")
		case "reference_declarator":
			// no declarator field
			if n.NamedChildCount() == 0 {
				return nil
			}
			n = n.NamedChild(int(n.NamedChildCount()) - 1)
		default:
			return nil
		}
	}
	return nil
}

func isQualified(fd *sitter.Node) bool {
	name := fd.ChildByFieldName("declarator")
	return name != nil && name.Type() == "qualified_identifier"
}

func (h *headerScanner) nodeSource(n *sitter.Node) string {
	return string(h.src[n.StartByte():n.EndByte()])
}

func isDocComment(s string) bool {
	for _, p := range []string{"///", "//!", "/**", "/*!"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// commentParagraph strips comment markers from a documentation comment,
// keeping the columns of the remaining text.
func (h *headerScanner) commentParagraph(c *sitter.Node) *document.Paragraph {
	raw := strings.Split(h.nodeSource(c), "\n")
	cols := make([]int, 0, len(raw))
	texts := make([]string, 0, len(raw))
	for i, l := range raw {
		base := 0
		if i == 0 {
			base = int(c.StartPoint().Column)
		}
		text := strings.TrimRight(l, " \t\r")
		off := len(text) - len(strings.TrimLeft(text, " \t"))
		text = text[off:]
		for _, marker := range []string{"///", "//!", "/**", "/*!", "*/", "*"} {
			if strings.HasPrefix(text, marker) {
				text = text[len(marker):]
				off += len(marker)
				break
			}
		}
		text = strings.TrimSuffix(text, "*/")
		trimmed := strings.TrimLeft(text, " \t")
		off += len(text) - len(trimmed)
		cols = append(cols, base+off)
		texts = append(texts, strings.TrimRight(trimmed, " \t"))
	}
	return document.NewParagraph(int(c.StartPoint().Row)+1, cols, texts)
}
