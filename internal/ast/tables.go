package ast

// recoverNoOldID converts a noOldID panic into an error.
func recoverNoOldID(err *error) {
	if r := recover(); r != nil {
		e, ok := r.(*NoOldIDError)
		if !ok {
			panic(r)
		}
		*err = e
	}
}

var shorthandIDv1 = map[string]string{
	"std::string":   "ss",
	"std::ostream":  "os",
	"std::istream":  "is",
	"std::iostream": "ios",
	"std::vector":   "v",
	"std::map":      "m",
}

var fundamentalIDv1 = map[string]string{
	"char":          "c",
	"signed char":   "c",
	"unsigned char": "C",
	"int":           "i",
	"signed int":    "i",
	"unsigned int":  "U",
	"long":          "l",
	"signed long":   "l",
	"unsigned long": "L",
	"bool":          "b",
}

var fundamentalIDv2 = map[string]string{
	"void":                   "v",
	"bool":                   "b",
	"char":                   "c",
	"signed char":            "a",
	"unsigned char":          "h",
	"wchar_t":                "w",
	"char32_t":               "Di",
	"char16_t":               "Ds",
	"char8_t":                "Du",
	"short":                  "s",
	"short int":              "s",
	"signed short":           "s",
	"signed short int":       "s",
	"unsigned short":         "t",
	"unsigned short int":     "t",
	"int":                    "i",
	"signed":                 "i",
	"signed int":             "i",
	"unsigned":               "j",
	"unsigned int":           "j",
	"long":                   "l",
	"long int":               "l",
	"signed long":            "l",
	"signed long int":        "l",
	"unsigned long":          "m",
	"unsigned long int":      "m",
	"long long":              "x",
	"long long int":          "x",
	"signed long long":       "x",
	"signed long long int":   "x",
	"__int64":                "x",
	"signed __int64":         "x",
	"unsigned long long":     "y",
	"unsigned long long int": "y",
	"unsigned __int64":       "y",
	"__int128":               "n",
	"signed __int128":        "n",
	"unsigned __int128":      "o",
	"float":                  "f",
	"double":                 "d",
	"long double":            "e",
	"__float80":              "e",
	"_Float64x":              "e",
	"__float128":             "g",
	"_Float128":              "g",
	"_Complex float":         "Cf",
	"_Complex double":        "Cd",
	"_Complex long double":   "Ce",
	"_Imaginary float":       "f",
	"_Imaginary double":      "d",
	"_Imaginary long double": "e",
	"auto":                   "Da",
	"decltype(auto)":         "Dc",
	"std::nullptr_t":         "Dn",
}

var operatorIDv1 = map[string]string{
	"new":      "new-operator",
	"new[]":    "new-array-operator",
	"delete":   "delete-operator",
	"delete[]": "delete-array-operator",
	"~":        "inv-operator",
	"+":        "add-operator",
	"-":        "sub-operator",
	"*":        "mul-operator",
	"/":        "div-operator",
	"%":        "mod-operator",
	"&":        "and-operator",
	"|":        "or-operator",
	"^":        "xor-operator",
	"=":        "assign-operator",
	"+=":       "add-assign-operator",
	"-=":       "sub-assign-operator",
	"*=":       "mul-assign-operator",
	"/=":       "div-assign-operator",
	"%=":       "mod-assign-operator",
	"&=":       "and-assign-operator",
	"|=":       "or-assign-operator",
	"^=":       "xor-assign-operator",
	"<<":       "lshift-operator",
	">>":       "rshift-operator",
	"<<=":      "lshift-assign-operator",
	">>=":      "rshift-assign-operator",
	"==":       "eq-operator",
	"!=":       "neq-operator",
	"<":        "lt-operator",
	">":        "gt-operator",
	"<=":       "lte-operator",
	">=":       "gte-operator",
	"!":        "not-operator",
	"&&":       "sand-operator",
	"||":       "sor-operator",
	"++":       "inc-operator",
	"--":       "dec-operator",
	",":        "comma-operator",
	"->*":      "pointer-by-pointer-operator",
	"->":       "pointer-operator",
	"()":       "call-operator",
	"[]":       "subscript-operator",
}

var operatorIDv2 = map[string]string{
	"new":      "nw",
	"new[]":    "na",
	"delete":   "dl",
	"delete[]": "da",
	"~":        "co",
	"compl":    "co",
	"+":        "pl",
	"-":        "mi",
	"*":        "ml",
	"/":        "dv",
	"%":        "rm",
	"&":        "an",
	"bitand":   "an",
	"|":        "or",
	"bitor":    "or",
	"^":        "eo",
	"xor":      "eo",
	"=":        "aS",
	"+=":       "pL",
	"-=":       "mI",
	"*=":       "mL",
	"/=":       "dV",
	"%=":       "rM",
	"&=":       "aN",
	"and_eq":   "aN",
	"|=":       "oR",
	"or_eq":    "oR",
	"^=":       "eO",
	"xor_eq":   "eO",
	"<<":       "ls",
	">>":       "rs",
	"<<=":      "lS",
	">>=":      "rS",
	"==":       "eq",
	"!=":       "ne",
	"not_eq":   "ne",
	"<":        "lt",
	">":        "gt",
	"<=":       "le",
	">=":       "ge",
	"<=>":      "ss",
	"!":        "nt",
	"not":      "nt",
	"&&":       "aa",
	"and":      "aa",
	"||":       "oo",
	"or":       "oo",
	"++":       "pp",
	"--":       "mm",
	",":        "cm",
	"->*":      "pm",
	"->":       "pt",
	"()":       "cl",
	"[]":       "ix",
	".*":       "ds",
	"?":        "qu",
}

var unaryOperatorIDv2 = map[string]string{
	"++":    "pp_",
	"--":    "mm_",
	"*":     "de",
	"&":     "ad",
	"+":     "ps",
	"-":     "ng",
	"!":     "nt",
	"not":   "nt",
	"~":     "co",
	"compl": "co",
}

var charPrefixID = map[string]string{
	"":   "c",
	"u8": "c",
	"u":  "Ds",
	"U":  "Di",
	"L":  "w",
}

// ExplicitCasts maps the named cast keywords to their mangled form.
var ExplicitCasts = map[string]string{
	"dynamic_cast":     "dc",
	"static_cast":      "sc",
	"const_cast":       "cc",
	"reinterpret_cast": "rc",
}

// BinaryOperators lists the binary operators from lowest to highest
// precedence.
var BinaryOperators = [][]string{
	{"||", "or"},
	{"&&", "and"},
	{"|", "bitor"},
	{"^", "xor"},
	{"&", "bitand"},
	{"==", "!=", "not_eq"},
	{"<=>", "<=", ">=", "<", ">"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
	{".*", "->*"},
}

// UnaryOperators lists the prefix operators in matching order.
var UnaryOperators = []string{"++", "--", "*", "&", "+", "-", "!", "not", "~", "compl"}

// AssignmentOperators lists the assignment operators in matching order.
var AssignmentOperators = []string{
	"=", "*=", "/=", "%=", "+=", "-=", ">>=", "<<=", "&=", "and_eq",
	"^=", "|=", "xor_eq", "or_eq",
}
