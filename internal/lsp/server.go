// Package lsp serves hover and go-to-definition for C++ documentation
// over the language server protocol. Open documents are kept in the build
// as they are edited, so answers follow unsaved text.
package lsp

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/jward/cppdomain"
	"github.com/jward/cppdomain/internal/runtime"
)

const lsName = "cppdoc"

// Server is a language server over one Engine.
type Server struct {
	engine  *cppdomain.Engine
	handler protocol.Handler
	server  *server.Server
	version string
	log     commonlog.Logger

	rootDir string
}

// NewServer creates a server answering from engine. The engine's root
// decides the docnames of opened files.
func NewServer(engine *cppdomain.Engine, version string) *Server {
	ls := &Server{
		engine:  engine,
		version: version,
		log:     commonlog.GetLogger("cppdomain.lsp"),
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentHover:      ls.textDocumentHover,
		TextDocumentDefinition: ls.textDocumentDefinition,
	}
	ls.server = server.NewServer(&ls.handler, lsName, false)
	return ls
}

// RunStdio serves on stdin and stdout until the client disconnects.
func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if params.RootPath != nil && *params.RootPath != "" {
		ls.rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			ls.rootDir = path
		}
	}

	capabilities := ls.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	if ls.rootDir == "" {
		return nil
	}
	if err := ls.engine.IndexDirectory(context.Background(), ls.rootDir); err != nil {
		ls.log.Errorf("indexing %s: %s", ls.rootDir, err)
	}
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	ls.update(ctx, params.TextDocument.URI, []byte(params.TextDocument.Text))
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
		ls.update(ctx, params.TextDocument.URI, []byte(whole.Text))
	}
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		ls.update(ctx, params.TextDocument.URI, []byte(*params.Text))
		return nil
	}
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	text, err := os.ReadFile(path)
	if err != nil {
		ls.log.Warningf("reading %s: %s", path, err)
		return nil
	}
	ls.update(ctx, params.TextDocument.URI, text)
	return nil
}

// update feeds the text of a document into the build and publishes its
// warnings. Files that are not documents are ignored.
func (ls *Server) update(ctx *glsp.Context, uri protocol.DocumentUri, text []byte) {
	path, err := uriToPath(uri)
	if err != nil {
		return
	}
	kind, ok := runtime.KindForFile(path)
	if !ok {
		return
	}
	docname, ok := ls.engine.Docname(path)
	if !ok {
		return
	}
	src := cppdomain.Source{Docname: docname, Path: path, Kind: kind, Text: text}
	if err := ls.engine.Update(context.Background(), src); err != nil {
		ls.log.Errorf("updating %s: %s", path, err)
		return
	}
	ls.publishDiagnostics(ctx, uri, docname)
}

func (ls *Server) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, docname string) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	out, ok, err := ls.engine.Output(docname)
	if err != nil || !ok {
		return
	}
	source := lsName
	severity := protocol.DiagnosticSeverityWarning
	diagnostics := []protocol.Diagnostic{}
	for _, w := range out.Warnings {
		line := protocol.UInteger(0)
		if w.Line > 0 {
			line = protocol.UInteger(w.Line - 1)
		}
		code := protocol.IntegerOrString{Value: w.Type}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line},
				End:   protocol.Position{Line: line + 1},
			},
			Severity: &severity,
			Code:     &code,
			Source:   &source,
			Message:  w.Message,
		})
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func (ls *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	h, err := ls.engine.Query().HoverAt(path, int(params.Position.Line)+1, int(params.Position.Character))
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: hoverMarkdown(h),
		},
	}, nil
}

func hoverMarkdown(h *cppdomain.Hover) string {
	if !h.Resolved {
		return fmt.Sprintf("`%s` (unresolved C++ reference)", h.Name)
	}
	var b strings.Builder
	if h.Signature != "" {
		fmt.Fprintf(&b, "```cpp\n%s\n```\n\n", h.Signature)
	}
	fmt.Fprintf(&b, "C++ %s `%s`, declared in %s:%d", h.ObjectType, h.Name, h.Docname, h.Line)
	return b.String()
}

func (ls *Server) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	locs, err := ls.engine.Query().DefinitionAt(path, int(params.Position.Line)+1, int(params.Position.Character))
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, nil
	}
	res := make([]protocol.Location, 0, len(locs))
	for _, loc := range locs {
		line := protocol.UInteger(loc.Line - 1)
		res = append(res, protocol.Location{
			URI: pathToURI(loc.Path),
			Range: protocol.Range{
				Start: protocol.Position{Line: line},
				End:   protocol.Position{Line: line},
			},
		})
	}
	return res, nil
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func pathToURI(path string) protocol.DocumentUri {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
