package cppdomain

import (
	"fmt"
	"sort"
)

// Warning types. Subtype is "cpp" unless noted.
const (
	WarnParse     = "parse"
	WarnDuplicate = "duplicate_declaration"
	// WarnRef reports unresolved or mismatched references. Subtype is the
	// role.
	WarnRef       = "ref"
	WarnNamespace = "namespace"
	WarnAlias     = "alias"
	WarnDirective = "directive"
	WarnID        = "id"
)

// Warning is a build diagnostic. Building never fails on malformed input;
// everything the build could not make sense of ends up here.
type Warning struct {
	Docname string
	Line    int
	Type    string
	Subtype string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: WARNING: %s [%s.%s]", w.Docname, w.Line, w.Message, w.Type, w.Subtype)
}

func sortWarnings(ws []Warning) {
	sort.SliceStable(ws, func(i, j int) bool {
		if ws[i].Docname != ws[j].Docname {
			return ws[i].Docname < ws[j].Docname
		}
		return ws[i].Line < ws[j].Line
	})
}
