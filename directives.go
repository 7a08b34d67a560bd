package cppdomain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/config"
	"github.com/jward/cppdomain/internal/document"
	"github.com/jward/cppdomain/internal/parser"
	"github.com/jward/cppdomain/internal/render"
	"github.com/jward/cppdomain/internal/symbol"
)

// phonyName stands in for a declaration that could not be parsed, so the
// content below it still has a scope to live in.
const phonyName = "PhonyNameDueToError"

func phonyNestedName() *ast.NestedName {
	return ast.SimpleName(&ast.Identifier{Name: phonyName})
}

var idRE = regexp.MustCompile(`^[a-zA-Z0-9_]*$`)

// Declaration is one signature of a declaration directive as it appears
// in the output of its document.
type Declaration struct {
	Docname    string
	Line       int
	Col        int
	Directive  string
	ObjectType string
	// Name is the qualified display name.
	Name string
	// IDs are the anchors of the signature, newest first. It is empty when
	// the newest id was already used in the document or with :no-index:.
	IDs []string
	// IndexEntry is the general index text, empty when there is none.
	IndexEntry string
	Signature  *SigNode
}

// reader builds the shard of one document: a private symbol tree with the
// declarations of the document, together with the references and aliases
// that are resolved once every shard is merged.
type reader struct {
	cfg config.Config
	log commonlog.Logger
	st  *docState

	root       *symbol.Symbol
	parent     *symbol.Symbol
	namespaces []*symbol.Symbol
	// anchors are the ids used in the document so far
	anchors map[string]bool
}

func readDocument(cfg config.Config, log commonlog.Logger, st *docState) *symbol.Symbol {
	root := symbol.New()
	root.SetDebugLookup(cfg.DebugLookup)
	st.resetRead()
	r := &reader{
		cfg:     cfg,
		log:     log,
		st:      st,
		root:    root,
		parent:  root,
		anchors: map[string]bool{},
	}
	r.nodes(st.doc.Nodes, nil)
	return root
}

func (r *reader) warn(line int, typ, subtype, format string, args ...any) {
	w := Warning{Docname: r.st.Docname, Line: line, Type: typ, Subtype: subtype, Message: fmt.Sprintf(format, args...)}
	r.log.Warning(w.String())
	r.st.readWarnings = append(r.st.readWarnings, w)
}

// nodes reads a block. siblings are the symbols of the directive the block
// belongs to.
func (r *reader) nodes(nodes []document.Node, siblings []*symbol.Symbol) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *document.Paragraph:
			for _, ref := range n.Refs {
				r.ref(ref, siblings)
			}
		case *document.Directive:
			r.directive(n)
		}
	}
}

func (r *reader) directive(d *document.Directive) {
	switch d.Kind {
	case "namespace":
		r.namespace(d)
	case "namespace-push":
		r.namespacePush(d)
	case "namespace-pop":
		r.namespacePop(d)
	case "alias":
		r.alias(d)
	default:
		objectType, ok := document.ObjectType(d.Kind)
		if !ok {
			r.warn(d.Line, WarnDirective, "cpp", "Unknown directive type \"cpp:%s\".", d.Kind)
			return
		}
		r.declaration(d, objectType)
	}
}

func signatureTexts(d *document.Directive) []string {
	res := make([]string, len(d.Signatures))
	for i, s := range d.Signatures {
		res[i] = s.Text
	}
	return res
}

// displayObjectType is the kind shown to readers. Classes and structs are
// the same object type and differ only in how they are shown.
func displayObjectType(directive, objectType string) string {
	if objectType == ast.ObjectClass {
		return directive
	}
	return objectType
}

func (r *reader) declaration(d *document.Directive, objectType string) {
	if pd := r.parent.Declaration; pd != nil && pd.ObjectType == ast.ObjectFunction {
		r.warn(d.Line, WarnDirective, "cpp",
			"C++ declarations inside functions are not supported. Parent function: %s\nDirective name: %s\nDirective arg: %s",
			ast.String(r.parent.FullNestedName()), "cpp:"+d.Kind, strings.Join(signatureTexts(d), "\n"))
		r.parent.AddName(phonyNestedName(), nil)
		return
	}

	var (
		last     *symbol.Symbol
		siblings []*symbol.Symbol
	)
	seen := map[string]bool{}
	for _, sig := range d.Signatures {
		p := parser.New(sig.Text, r.cfg.Parser())
		decl, err := p.ParseDeclaration(objectType, d.Kind)
		if err == nil {
			err = p.AssertEnd(true)
		}
		if err != nil {
			r.warn(sig.Line, WarnParse, "cpp", "%v", err)
			last = r.parent.AddName(phonyNestedName(), nil)
			siblings = append(siblings, last)
			continue
		}

		sym, err := r.parent.AddDeclaration(decl, r.st.Docname, sig.Line)
		var dup *symbol.DuplicateSymbolError
		if errors.As(err, &dup) {
			// continue in the symbol that was there first
			sym = dup.Symbol
			r.warn(sig.Line, WarnDuplicate, "cpp", "Duplicate C++ declaration, also defined at %s:%d.\nDeclaration is '.. cpp:%s:: %s'.",
				dup.Symbol.Docname, dup.Symbol.Line, displayObjectType(d.Kind, objectType), sig.Text)
		}
		last = sym
		siblings = append(siblings, sym)

		if decl.ObjectType == ast.ObjectEnumerator {
			r.injectEnumerator(decl, sig.Line)
		}

		out := ast.NewSignature()
		decl.Describe(out, ast.ModeLastIsName, ast.DescribeOptions{
			TParamLineSpec:  d.Flag("tparam-line-spec"),
			MultiLineParams: !d.Flag("single-line-parameter-list") && render.Overlong(sig.Text, r.cfg.MaximumSignatureLineLength),
		})
		r.signatureRefs(out, sig, siblings)

		text := ast.String(decl)
		if seen[text] {
			continue
		}
		seen[text] = true
		entry := &Declaration{
			Docname:    r.st.Docname,
			Line:       sig.Line,
			Col:        sig.Col,
			Directive:  d.Kind,
			ObjectType: decl.ObjectType,
			Name:       ownerSymbol(decl).QualifiedName(),
			Signature:  out,
		}
		if !d.Flag("no-index") {
			r.targetAndIndex(d, sig, decl, entry)
		}
		r.st.decls = append(r.st.decls, entry)
	}

	if len(d.Content) == 0 {
		return
	}
	if last == nil {
		r.nodes(d.Content, nil)
		return
	}
	saved := r.parent
	r.parent = last
	r.nodes(d.Content, siblings)
	r.parent = saved
}

func ownerSymbol(decl *ast.Declaration) *symbol.Symbol {
	return decl.Symbol.(*symbol.Symbol)
}

func inConcept(s *symbol.Symbol) bool {
	for p := s.Parent; p != nil; p = p.Parent {
		if p.Declaration != nil && p.Declaration.ObjectType == ast.ObjectConcept {
			return true
		}
	}
	return false
}

func (r *reader) targetAndIndex(d *document.Directive, sig document.Signature, decl *ast.Declaration, entry *Declaration) {
	ids := decl.IDs()
	newest := ids[0]
	if !idRE.MatchString(newest) {
		r.warn(sig.Line, WarnID, "cpp", "Index id generation for C++ object %q failed, please report as bug (id=%s).",
			ast.String(decl), newest)
	}

	if !inConcept(ownerSymbol(decl)) && !d.Flag("no-index-entry") {
		stripped := entry.Name
		for _, prefix := range r.cfg.IndexCommonPrefix {
			if strings.HasPrefix(entry.Name, prefix) {
				stripped = entry.Name[len(prefix):]
				break
			}
		}
		entry.IndexEntry = fmt.Sprintf("%s (C++ %s)", stripped, displayObjectType(d.Kind, decl.ObjectType))
	}

	if r.anchors[newest] {
		return
	}
	// the first declaration of a name wins
	if _, ok := r.st.names[entry.Name]; !ok {
		r.st.names[entry.Name] = r.st.Docname
	}
	entry.IDs = append(entry.IDs, newest)
	for _, id := range ids[1:] {
		if !r.anchors[id] {
			entry.IDs = append(entry.IDs, id)
		}
	}
	for _, id := range entry.IDs {
		r.anchors[id] = true
	}
}

// injectEnumerator makes an enumerator of an unscoped enum visible in the
// scope enclosing the enum, unless that scope already has the name.
func (r *reader) injectEnumerator(decl *ast.Declaration, line int) {
	sym := ownerSymbol(decl)
	enum := sym.Parent
	if enum == nil || enum.Parent == nil {
		return
	}
	ed := enum.Declaration
	if ed == nil || ed.ObjectType != ast.ObjectEnum || ed.DirectiveType != "enum" {
		return
	}
	target := enum.Parent
	if target.FindIdentifier(sym.IdentOrOp, false, true, nil) != nil {
		return
	}
	clone := decl.Clone()
	clone.EnumeratorScopedSymbol = sym
	target.AddChild(sym.IdentOrOp, clone, r.st.Docname, line)
}

// signatureRefs records the names linked from a described signature.
// They are resolved like identifier roles, from the scope they were
// described in.
func (r *reader) signatureRefs(out *ast.SigNode, sig document.Signature, siblings []*symbol.Symbol) {
	sibKeys := lookupKeys(siblings)
	out.Walk(func(n *ast.SigNode) {
		if n.Kind != ast.SigRef {
			return
		}
		r.st.refs = append(r.st.refs, &pendingRef{
			role:      "identifier",
			target:    n.Target,
			title:     n.Astext(),
			explicit:  true,
			line:      sig.Line,
			col:       sig.Col,
			endCol:    sig.Col + len(sig.Text),
			scope:     n.Scope,
			siblings:  sibKeys,
			signature: true,
		})
	})
}

func lookupKeys(syms []*symbol.Symbol) []ast.LookupKey {
	if len(syms) == 0 {
		return nil
	}
	res := make([]ast.LookupKey, len(syms))
	for i, s := range syms {
		res[i] = s.LookupKey()
	}
	return res
}

func (r *reader) ref(ref *document.Ref, siblings []*symbol.Symbol) {
	if ref.Role == "expr" || ref.Role == "texpr" {
		r.expression(ref)
		return
	}
	if ref.Role != "any" && len(roleObjectTypes[ref.Role]) == 0 {
		r.warn(ref.Line, WarnRef, ref.Role, "Unknown C++ role %q.", ref.Role)
		return
	}
	rt := processRole(ref.Role, ref, r.cfg.AddFunctionParentheses)
	r.st.refs = append(r.st.refs, &pendingRef{
		role:     ref.Role,
		target:   rt.target,
		title:    rt.title,
		explicit: rt.explicit,
		disabled: rt.disabled,
		line:     ref.Line,
		col:      ref.Col,
		endCol:   ref.EndCol,
		scope:    r.parent.LookupKey(),
		siblings: lookupKeys(siblings),
		source:   ref,
	})
}

func (r *reader) expression(ref *document.Ref) {
	text := strings.ReplaceAll(ref.Target, "\n", " ")
	e := &Expression{Docname: r.st.Docname, Line: ref.Line, Col: ref.Col, Role: ref.Role, Text: text}
	r.st.exprs = append(r.st.exprs, e)

	p := parser.New(text, r.cfg.Parser())
	node, err := p.ParseExpression()
	if err != nil {
		r.warn(ref.Line, WarnParse, "cpp", "Unparseable C++ expression: %q\n%v", text, err)
		return
	}
	e.Signature = &ast.SigNode{Kind: ast.SigInline}
	ast.DescribeExpr(node, e.Signature, r.parent)
	e.Signature.Walk(func(n *ast.SigNode) {
		if n.Kind != ast.SigRef {
			return
		}
		r.st.refs = append(r.st.refs, &pendingRef{
			role:      "identifier",
			target:    n.Target,
			title:     n.Astext(),
			explicit:  true,
			line:      ref.Line,
			col:       ref.Col,
			endCol:    ref.EndCol,
			scope:     n.Scope,
			signature: true,
		})
	})
}

func directiveArg(d *document.Directive) string {
	return strings.Join(signatureTexts(d), " ")
}

func isNullNamespace(arg string) bool {
	switch strings.TrimSpace(arg) {
	case "NULL", "0", "nullptr":
		return true
	}
	return false
}

func (r *reader) parseNamespace(d *document.Directive) *ast.Namespace {
	p := parser.New(directiveArg(d), r.cfg.Parser())
	ns, err := p.ParseNamespaceObject()
	if err == nil {
		err = p.AssertEnd(false)
	}
	if err != nil {
		r.warn(d.Line, WarnParse, "cpp", "%v", err)
		return &ast.Namespace{NestedName: phonyNestedName()}
	}
	return ns
}

func (r *reader) namespace(d *document.Directive) {
	if isNullNamespace(directiveArg(d)) {
		r.parent = r.root
		r.namespaces = nil
		return
	}
	ns := r.parseNamespace(d)
	sym := r.root.AddName(ns.NestedName, ns.TemplatePrefix)
	r.parent = sym
	r.namespaces = []*symbol.Symbol{sym}
}

func (r *reader) namespacePush(d *document.Directive) {
	if isNullNamespace(directiveArg(d)) {
		return
	}
	ns := r.parseNamespace(d)
	sym := r.parent.AddName(ns.NestedName, ns.TemplatePrefix)
	r.namespaces = append(r.namespaces, sym)
	r.parent = sym
}

func (r *reader) namespacePop(d *document.Directive) {
	if len(r.namespaces) == 0 {
		r.warn(d.Line, WarnNamespace, "cpp", "C++ namespace pop on empty stack. Defaulting to global scope.")
	} else {
		r.namespaces = r.namespaces[:len(r.namespaces)-1]
	}
	if n := len(r.namespaces); n > 0 {
		r.parent = r.namespaces[n-1]
	} else {
		r.parent = r.root
	}
}
