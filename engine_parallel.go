package cppdomain

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jward/cppdomain/internal/document"
	"github.com/jward/cppdomain/internal/store"
	"github.com/jward/cppdomain/internal/symbol"
)

func (e *Engine) workerCount(items int) int {
	n := runtime.NumCPU()
	if e.workers > 0 {
		n = e.workers
	}
	n = min(n, items)
	if n < 1 {
		n = 1
	}
	return n
}

// forEach runs fn for every index in [0, n), on a worker pool when
// parallel mode is on. The returned errors are in index order.
func (e *Engine) forEach(ctx context.Context, n int, fn func(i int) error) []error {
	errs := make([]error, n)
	if !e.useParallel || n < 2 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				continue
			}
			errs[i] = fn(i)
		}
		return errs
	}

	workCh := make(chan int, n)
	for i := 0; i < n; i++ {
		workCh <- i
	}
	close(workCh)

	var wg sync.WaitGroup
	for range e.workerCount(n) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				errs[i] = fn(i)
			}
		}()
	}
	wg.Wait()
	return errs
}

func firstErrors(what string, errs []error) error {
	var (
		first error
		count int
	)
	for _, err := range errs {
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		}
		count++
	}
	if count == 0 {
		return nil
	}
	return fmt.Errorf("%s had %d error(s): %w", what, count, first)
}

// readShards parses the documents and reads each into a private tree.
// Shards come back in the order of states, nil for documents that could
// not be parsed.
//
//	Phase B (parallel): every worker reads whole documents into shards,
//	                    touching nothing but the document's own state.
func (e *Engine) readShards(ctx context.Context, states []*docState) ([]*symbol.Symbol, error) {
	shards := make([]*symbol.Symbol, len(states))
	errs := e.forEach(ctx, len(states), func(i int) error {
		st := states[i]
		doc, err := parseSource(ctx, st.Source)
		if err != nil {
			st.doc = &document.Document{Name: st.Docname}
			st.resetRead()
			return fmt.Errorf("parse %s: %w", st.Docname, err)
		}
		st.doc = doc
		shards[i] = readDocument(e.cfg, e.log, st)
		return nil
	})
	for i, err := range errs {
		if err != nil {
			if derr := e.store.DeleteDocumentData(states[i].id); derr != nil {
				e.log.Errorf("clear %s: %s", states[i].Docname, derr)
			}
		}
	}
	return shards, firstErrors("reading", errs)
}

// resolveAndPersist resolves the documents of resolveSet against the
// merged tree and writes the documents of persistSet to the store.
//
//	Phase D (parallel): resolution only reads the tree; every worker fills
//	                    the batch of its document.
//	Phase E (serial):   batches are committed to SQLite.
func (e *Engine) resolveAndPersist(ctx context.Context, resolveSet, persistSet []*docState, objects []Object) error {
	persist := make(map[string]bool, len(persistSet))
	for _, st := range persistSet {
		persist[st.Docname] = true
	}
	byDoc := map[string][]Object{}
	for _, o := range objects {
		byDoc[o.Docname] = append(byDoc[o.Docname], o)
	}

	// documents that need writing but not resolving still get a batch
	work := append([]*docState(nil), resolveSet...)
	inWork := make(map[string]bool, len(work))
	for _, st := range work {
		inWork[st.Docname] = true
	}
	for _, st := range persistSet {
		if !inWork[st.Docname] {
			work = append(work, st)
		}
	}

	batches := make([]*store.BatchedStore, len(work))
	errs := e.forEach(ctx, len(work), func(i int) error {
		st := work[i]
		if inWork[st.Docname] {
			e.resolveDocument(st)
		}
		if persist[st.Docname] {
			batches[i] = e.batch(st, byDoc[st.Docname])
		}
		return nil
	})

	// ---- Phase E: Serial commit ----
	for i, b := range batches {
		if b == nil {
			continue
		}
		if err := e.store.CommitBatch(b); err != nil {
			errs[i] = fmt.Errorf("commit %s: %w", work[i].Docname, err)
		}
	}
	return firstErrors("resolution", errs)
}

// batch buffers the derived rows of a document.
func (e *Engine) batch(st *docState, objects []Object) *store.BatchedStore {
	b := store.NewBatchedStore(st.id)
	writeRows(b, st, objects)
	return b
}

// writeRows writes the objects, references and warnings of a document.
func writeRows(ds store.DataStore, st *docState, objects []Object) {
	for _, o := range objects {
		ds.InsertObject(&store.Object{
			DocumentID:  st.id,
			Name:        o.Name,
			DisplayName: o.DisplayName,
			ObjectType:  o.ObjectType,
			Anchor:      o.Anchor,
			Priority:    o.Priority,
			Line:        o.Line,
			Signature:   o.Signature,
		})
	}
	for _, r := range st.references {
		ds.InsertReference(&store.Reference{
			DocumentID:    st.id,
			Line:          r.Line,
			Col:           r.Col,
			EndCol:        r.EndCol,
			Role:          r.Role,
			Target:        r.Target,
			Title:         r.Title,
			Resolved:      r.Resolved,
			TargetDocname: r.TargetDocname,
			TargetAnchor:  r.TargetAnchor,
			TargetName:    r.TargetName,
			TargetType:    r.TargetType,
		})
	}
	for _, w := range st.warnings() {
		ds.InsertWarning(&store.Warning{
			DocumentID: st.id,
			Line:       w.Line,
			Type:       w.Type,
			Subtype:    w.Subtype,
			Message:    w.Message,
		})
	}
}
