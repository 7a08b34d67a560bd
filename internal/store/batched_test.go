package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_FakeIDs(t *testing.T) {
	t.Parallel()
	batch := NewBatchedStore()

	id1, err := batch.InsertObject(&Object{Name: "A"})
	require.NoError(t, err)
	id2, err := batch.InsertWarning(&Warning{Message: "w"})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), id1)
	assert.Equal(t, int64(-2), id2)
	assert.Equal(t, 2, batch.Len())
}

func TestBatchedStore_ConcurrentInserts(t *testing.T) {
	t.Parallel()
	batch := NewBatchedStore()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				_, _ = batch.InsertReference(&Reference{Target: "x"})
			}
		}()
	}
	wg.Wait()

	require.Len(t, batch.References, 400)
	seen := map[int64]bool{}
	for _, r := range batch.References {
		assert.False(t, seen[r.ID], "duplicate fake id %d", r.ID)
		seen[r.ID] = true
	}
}

func TestCommitBatch_ReplacesDocumentRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestDocument(t, s, "a")
	b := insertTestDocument(t, s, "b")

	// rows from a previous build
	_, err := s.InsertObject(&Object{DocumentID: a.ID, Name: "Old", DisplayName: "Old", ObjectType: "class", Anchor: "_CPPv43Old", Priority: 1})
	require.NoError(t, err)
	_, err = s.InsertObject(&Object{DocumentID: b.ID, Name: "Kept", DisplayName: "Kept", ObjectType: "class", Anchor: "_CPPv44Kept", Priority: 1})
	require.NoError(t, err)

	batch := NewBatchedStore(a.ID)
	_, err = batch.InsertObject(&Object{DocumentID: a.ID, Name: "New", DisplayName: "New", ObjectType: "class", Anchor: "_CPPv43New", Priority: 1})
	require.NoError(t, err)
	_, err = batch.InsertReference(&Reference{DocumentID: a.ID, Line: 2, Role: "class", Target: "Kept",
		Resolved: true, TargetDocname: "b", TargetAnchor: "_CPPv44Kept", TargetName: "Kept", TargetType: "class"})
	require.NoError(t, err)
	_, err = batch.InsertWarning(&Warning{DocumentID: a.ID, Line: 1, Type: "cpp", Message: "w"})
	require.NoError(t, err)

	require.NoError(t, s.CommitBatch(batch))

	objs, err := s.Objects(ObjectFilter{})
	require.NoError(t, err)
	var names []string
	for _, o := range objs {
		names = append(names, o.Name)
		assert.Positive(t, o.ID)
	}
	assert.Equal(t, []string{"Kept", "New"}, names)

	refs, err := s.ReferencesTo("b", "_CPPv44Kept")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "a", refs[0].Docname)

	for _, o := range batch.Objects {
		assert.Positive(t, o.ID, "committed rows carry real ids")
	}
}

func TestCommitBatch_RollsBackOnError(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestDocument(t, s, "a")
	_, err := s.InsertObject(&Object{DocumentID: a.ID, Name: "Old", DisplayName: "Old", ObjectType: "class", Anchor: "x", Priority: 1})
	require.NoError(t, err)

	batch := NewBatchedStore(a.ID)
	// violates the foreign key on documents
	_, err = batch.InsertObject(&Object{DocumentID: 9999, Name: "Bad", DisplayName: "Bad", ObjectType: "class", Anchor: "y", Priority: 1})
	require.NoError(t, err)
	require.Error(t, s.CommitBatch(batch))

	objs, err := s.Objects(ObjectFilter{})
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "Old", objs[0].Name)
}
