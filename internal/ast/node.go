// Package ast defines the closed set of syntax nodes produced by the
// declaration parser. Every node knows how to print itself, how to mangle
// itself into versioned anchor ids and how to describe itself into a
// renderer-agnostic signature tree.
package ast

import (
	"errors"
	"strconv"
	"strings"
)

// MaxIDVersion is the newest id mangling scheme. It never fails.
const MaxIDVersion = 4

var idPrefix = [...]string{"", "", "_CPPv2", "_CPPv3", "_CPPv4"}

// NoOldIDError reports that a declaration cannot be expressed in an older
// mangling scheme.
type NoOldIDError struct {
	Version int
}

func (e *NoOldIDError) Error() string {
	return "declaration has no id in mangling version " + strconv.Itoa(e.Version)
}

// IsNoOldID reports whether err is a NoOldIDError.
func IsNoOldID(err error) bool {
	var e *NoOldIDError
	return errors.As(err, &e)
}

// noOldID aborts id generation; Declaration.ID turns it back into an error.
func noOldID(version int) {
	panic(&NoOldIDError{Version: version})
}

// Node is implemented by every syntax node. The method set is unexported so
// the variants are closed to this package.
type Node interface {
	format(display bool) string
}

// String renders n as canonical source text.
func String(n Node) string {
	if isNil(n) {
		return ""
	}
	return n.format(false)
}

// DisplayString renders n for humans: anonymous names become [anonymous].
func DisplayString(n Node) string {
	if isNil(n) {
		return ""
	}
	return n.format(true)
}

// Owner is the symbol-table node a declaration is attached to. It lets ids
// and signatures see the fully qualified name without this package
// depending on the symbol table.
type Owner interface {
	FullNestedName() *NestedName
	Decl() *Declaration
	ParentDeclaration() *Declaration
	LookupKey() LookupKey
}

// LookupStep is one level of a LookupKey.
type LookupStep struct {
	Name           *NestedNameElement
	TemplateParams TemplateParamList
	// ID is the newest id of the declaration at this step, or "" when the
	// step is a pure scope.
	ID string
}

// LookupKey is a structural path from the root of a symbol tree. It stays
// valid across insertions, merges and clears of unrelated documents.
type LookupKey []LookupStep

func (k LookupKey) String() string {
	parts := make([]string, len(k))
	for i, st := range k {
		parts[i] = String(st.Name)
		if st.ID != "" {
			parts[i] += "#" + st.ID
		}
	}
	return strings.Join(parts, "/")
}

func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *NestedName:
		return v == nil
	case *TemplateArgs:
		return v == nil
	case *Type:
		return v == nil
	case *Initializer:
		return v == nil
	case *TemplateParams:
		return v == nil
	case *NestedNameElement:
		return v == nil
	case *TemplatePrefix:
		return v == nil
	case *Declaration:
		return v == nil
	case *Identifier:
		return v == nil
	}
	return false
}
