package runtime

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
)

// Document kinds.
const (
	KindDirectives = "directives"
	KindHeader     = "header"
)

// extToKind maps file extensions to document kinds.
var extToKind = map[string]string{
	".rst": KindDirectives,
	".txt": KindDirectives,
	".h":   KindHeader,
	".hh":  KindHeader,
	".hpp": KindHeader,
	".hxx": KindHeader,
	".h++": KindHeader,
}

// extToLanguage maps header extensions to grammar names. Plain ".h" is
// read as C++, which parses C headers as well.
var extToLanguage = map[string]string{
	".h":   "cpp",
	".hh":  "cpp",
	".hpp": "cpp",
	".hxx": "cpp",
	".h++": "cpp",
}

var (
	langToGrammar map[string]*sitter.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			"c":   c.GetLanguage(),
			"cpp": cpp.GetLanguage(),
		}
	})
}

// KindForFile returns the document kind of a path based on its extension.
// Returns ("", false) if the extension is not recognized.
func KindForFile(path string) (string, bool) {
	kind, ok := extToKind[strings.ToLower(filepath.Ext(path))]
	return kind, ok
}

// LanguageForFile returns the grammar name used to scan a header.
func LanguageForFile(path string) (string, bool) {
	lang, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// ParserForLanguage returns the tree-sitter Language for a grammar name.
// Returns (nil, false) if the language is not supported.
func ParserForLanguage(lang string) (*sitter.Language, bool) {
	initGrammars()
	l, ok := langToGrammar[lang]
	return l, ok
}
