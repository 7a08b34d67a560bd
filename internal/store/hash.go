package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ContentHash is the hex SHA-256 of a document's source.
func ContentHash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// ComputeInventoryHash computes a deterministic hash of an object
// inventory. It covers what references can resolve to (name, type,
// document and anchor); lines and rendered signatures do not affect it.
func ComputeInventoryHash(objects []*Object, docnames map[int64]string) string {
	keys := make([]string, len(objects))
	for i, o := range objects {
		keys[i] = fmt.Sprintf("%s\x00%s\x00%s\x00%s", o.Name, o.ObjectType, docnames[o.DocumentID], o.Anchor)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "object:%s\n", k)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
