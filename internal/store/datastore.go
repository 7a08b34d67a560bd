package store

// DataStore is the interface for writing build results. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// resolution) implement it.
type DataStore interface {
	InsertObject(o *Object) (int64, error)
	InsertReference(r *Reference) (int64, error)
	InsertWarning(w *Warning) (int64, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
