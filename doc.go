// Package cppdomain builds a cross-referenced index of C++ API
// documentation. Documents declare C++ entities with directives such as
//
//	.. cpp:function:: template<typename T> void swap(T &a, T &b) noexcept
//
// and link to them with roles such as :cpp:func:`swap`. Headers can be
// indexed directly; their declarations are scanned with tree-sitter.
//
// # Pipeline
//
// A build runs in phases:
//
//  1. Prepare: documents whose content hash changed are cleared from the
//     symbol tree and the store.
//
//  2. Read: every changed document is parsed and read into a private shard
//     tree, in parallel unless [WithParallel] is false.
//
//  3. Merge: shards are merged into the tree in docname order. Duplicate
//     declarations keep the earliest (docname, line) and warn on the other.
//
//  4. Resolve: references, expressions and aliases are resolved against the
//     merged tree, again on a worker pool.
//
//  5. Persist: objects, references and warnings of the affected documents
//     are committed to SQLite. When the object inventory is unchanged only
//     the changed documents are written.
//
// # Usage
//
//	e, err := cppdomain.New("cppdomain.db", cppdomain.WithRoot("docs"))
//	if err != nil { ... }
//	defer e.Close()
//
//	err = e.IndexDirectory(ctx, "docs")
//	res, warnings, err := e.ResolveXRef("func", "swap", "")
//
//	q := e.Query()
//	locs, err := q.DefinitionAt("docs/api.rst", 10, 5)
//
// # Queries
//
// The [Engine] answers from memory: [Engine.Objects], [Engine.Output],
// [Engine.ResolveXRef] and [Engine.ResolveAny]. The [QueryBuilder] answers
// from the store only, for tools that open the database without reading
// the documents again.
package cppdomain
