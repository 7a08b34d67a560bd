package scan

import "regexp"

// Anchored compiles pattern so that it only matches at the cursor.
func Anchored(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:` + pattern + `)`)
}

const (
	digitSeq = `[0-9]+('[0-9]+)*`
	hexSeq   = `[0-9a-fA-F]+('[0-9a-fA-F]+)*`
	decExp   = `[eE][+-]?` + digitSeq
	hexExp   = `[pP][+-]?` + digitSeq
)

// Lexical grammars shared by the parser.
var (
	// Identifier matches ordinary identifiers (optionally a destructor name
	// with a leading ~) and the @-prefixed names used for anonymous entities.
	Identifier = Anchored(`(~?\b[a-zA-Z_]|@[a-zA-Z0-9_])[a-zA-Z0-9_]*\b`)

	// AnonIdentifier finds anonymous entity names inside arbitrary text.
	AnonIdentifier = regexp.MustCompile(`(@[a-zA-Z0-9_])[a-zA-Z0-9_]*\b`)

	// UDLIdentifier is the suffix of a user-defined literal.
	UDLIdentifier = Anchored(`[a-zA-Z_][a-zA-Z0-9_]*\b`)

	IntegerLiteral = Anchored(`[1-9][0-9]*('[0-9]+)*`)
	OctalLiteral   = Anchored(`0[0-7]*('[0-7]+)*`)
	HexLiteral     = Anchored(`0[xX]` + hexSeq)
	BinaryLiteral  = Anchored(`0[bB][01]+('[01]+)*`)

	// IntegerSuffix accepts u/U with an optional l/ll in either order. The
	// trailing word boundary separates built-in suffixes from user-defined
	// literal suffixes.
	IntegerSuffix = Anchored(`(([uU](l|ll|L|LL)?)|((l|ll|L|LL)[uU]?))\b`)

	FloatLiteral = Anchored(`[+-]?(` +
		digitSeq + decExp +
		`|(` + digitSeq + `)?\.` + digitSeq + `(` + decExp + `)?` +
		`|` + digitSeq + `\.(` + decExp + `)?` +
		`|0[xX]` + hexSeq + hexExp +
		`|0[xX](` + hexSeq + `)?\.` + hexSeq + `(` + hexExp + `)?` +
		`|0[xX]` + hexSeq + `\.(` + hexExp + `)?` +
		`)`)

	FloatSuffix = Anchored(`[fFlL]\b`)

	// CharLiteral captures the encoding prefix in group 1 and the
	// (possibly escaped) character in group 2.
	CharLiteral = Anchored(`((?:u8)|u|U|L)?'(` +
		`[^\\']` +
		`|\\(['"?\\abfnrtv]|[0-7]{1,3}|x[0-9a-fA-F]{2}|u[0-9a-fA-F]{4}|U[0-9a-fA-F]{8})` +
		`)'`)

	// StringLiteral is used by the fallback expression scanner.
	StringLiteral = Anchored(`[LuU8]?('([^'\\]*(\\.[^'\\]*)*)'|"([^"\\]*(\\.[^"\\]*)*)")`)

	Visibility = Anchored(`\b(public|private|protected)\b`)

	// Operator matches the symbolic overloadable operators. Longer tokens
	// come first so that <<= wins over << and <=> over <=.
	Operator = Anchored(`\[\s*\]` +
		`|\(\s*\)` +
		`|\+\+|--` +
		`|->\*?|,` +
		`|(<<|>>)=?|&&|\|\|` +
		`|<=>` +
		`|[!<>=/*%+|&^~-]=?` +
		`|\b(and|and_eq|bitand|bitor|compl|not|not_eq|or|or_eq|xor|xor_eq)\b`)

	FoldOperator = Anchored(`->\*|\.\*|,|(<<|>>)=?|&&|\|\||!=|[<>=/*%+|&^~-]=?`)

	SimpleTypeSpecifier = Anchored(`\b(auto|void|bool|signed|unsigned|short|long|char|wchar_t|char(8|16|32)_t|int|__int(64|128)|float|double|__float80|_Float64x|__float128|_Float128|_Complex|_Imaginary)\b`)

	// ValidID is the character set allowed in generated anchors.
	ValidID = regexp.MustCompile(`^[a-zA-Z0-9_]*$`)
)

// Keywords cannot be used as identifiers in nested names.
var Keywords = toSet(
	"alignas", "alignof", "and", "and_eq", "asm", "auto", "bitand", "bitor",
	"bool", "break", "case", "catch", "char", "char8_t", "char16_t", "char32_t",
	"class", "compl", "concept", "const", "consteval", "constexpr", "constinit",
	"const_cast", "continue", "decltype", "default", "delete", "do", "double",
	"dynamic_cast", "else", "enum", "explicit", "export", "extern", "false",
	"float", "for", "friend", "goto", "if", "inline", "int", "long", "mutable",
	"namespace", "new", "noexcept", "not", "not_eq", "nullptr", "operator", "or",
	"or_eq", "private", "protected", "public", "register", "reinterpret_cast",
	"requires", "return", "short", "signed", "sizeof", "static",
	"static_assert", "static_cast", "struct", "switch", "template", "this",
	"thread_local", "throw", "true", "try", "typedef", "typeid", "typename",
	"union", "unsigned", "using", "virtual", "void", "volatile", "wchar_t",
	"while", "xor", "xor_eq",
)

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
