package cppdomain

import (
	"github.com/jward/cppdomain/internal/ast"
	"github.com/jward/cppdomain/internal/config"
	"github.com/jward/cppdomain/internal/store"
	"github.com/jward/cppdomain/internal/symbol"
)

// Public type aliases for internal types used in the Engine API. These are
// Go type aliases (=), so no conversion is needed.

type Config = config.Config
type Symbol = symbol.Symbol
type LookupKey = ast.LookupKey
type SigNode = ast.SigNode

type Store = store.Store
type StoredObject = store.ObjectWithDoc
type StoredReference = store.ReferenceWithDoc
type StoredWarning = store.WarningWithDoc
type ObjectFilter = store.ObjectFilter
