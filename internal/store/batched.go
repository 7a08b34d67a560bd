package store

import "sync"

// BatchedStore buffers build results in memory using fake (negative) IDs
// so resolution workers can write without touching SQLite. CommitBatch
// writes a batch in one transaction.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
type BatchedStore struct {
	mu sync.Mutex

	// DocumentIDs are the documents whose derived rows the batch replaces.
	DocumentIDs []int64

	Objects    []Object
	References []Reference
	Warnings   []Warning

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a batch replacing the derived rows of the given
// documents.
func NewBatchedStore(documentIDs ...int64) *BatchedStore {
	return &BatchedStore{
		DocumentIDs: documentIDs,
		nextFakeID:  -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertObject(o *Object) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o.ID = b.allocFakeID()
	b.Objects = append(b.Objects, *o)
	return o.ID, nil
}

func (b *BatchedStore) InsertReference(r *Reference) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r.ID = b.allocFakeID()
	b.References = append(b.References, *r)
	return r.ID, nil
}

func (b *BatchedStore) InsertWarning(w *Warning) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w.ID = b.allocFakeID()
	b.Warnings = append(b.Warnings, *w)
	return w.ID, nil
}

// Len is the number of buffered rows.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Objects) + len(b.References) + len(b.Warnings)
}
