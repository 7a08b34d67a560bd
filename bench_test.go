package cppdomain

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

// benchCorpus builds n documents of a realistic API reference: a class
// with overloaded members and templates per document, cross-linked with
// the neighboring documents.
func benchCorpus(n int) []Source {
	srcs := make([]Source, n)
	for i := 0; i < n; i++ {
		var b strings.Builder
		fmt.Fprintf(&b, ".. cpp:namespace:: lib%d\n\n", i%4)
		fmt.Fprintf(&b, ".. cpp:class:: template<typename T, typename Alloc = std::allocator<T>> Container%d\n\n", i)
		b.WriteString("   .. cpp:function:: void push_back(const T &value)\n\n")
		b.WriteString("   .. cpp:function:: void push_back(T &&value)\n\n")
		b.WriteString("   .. cpp:function:: template<typename... Args> T &emplace_back(Args&&... args)\n\n")
		b.WriteString("   .. cpp:function:: std::size_t size() const noexcept\n\n")
		b.WriteString("   .. cpp:member:: T *data\n\n")
		b.WriteString("   Grows with :cpp:func:`push_back` and :cpp:func:`emplace_back`.\n\n")
		fmt.Fprintf(&b, ".. cpp:enum-class:: Mode%d : unsigned\n\n", i)
		b.WriteString("   .. cpp:enumerator:: fast = 1\n\n")
		b.WriteString("   .. cpp:enumerator:: safe = 2\n\n")
		fmt.Fprintf(&b, "See :cpp:class:`Container%d` and :cpp:func:`lib%d::Container%d::size`.\n",
			(i+1)%n, (i+1)%4, (i+1)%n)
		srcs[i] = directivesSource(fmt.Sprintf("api/doc%03d", i), b.String())
	}
	return srcs
}

func newBenchEngine(b *testing.B, opts ...Option) *Engine {
	b.Helper()
	e, err := New(filepath.Join(b.TempDir(), "bench.db"), opts...)
	if err != nil {
		b.Fatal(err)
	}
	return e
}

func benchmarkUpdate(b *testing.B, opts ...Option) {
	ctx := context.Background()
	srcs := benchCorpus(64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		e := newBenchEngine(b, opts...)
		b.StartTimer()

		if err := e.Update(ctx, srcs...); err != nil {
			e.Close()
			b.Fatal(err)
		}

		b.StopTimer()
		e.Close()
		b.StartTimer()
	}
}

// BenchmarkUpdate_Serial measures a full build of 64 documents on one
// goroutine.
func BenchmarkUpdate_Serial(b *testing.B) {
	benchmarkUpdate(b, WithParallel(false))
}

// BenchmarkUpdate_Parallel measures the same build with sharded reading
// and resolution.
func BenchmarkUpdate_Parallel(b *testing.B) {
	benchmarkUpdate(b, WithParallel(true))
}

// BenchmarkUpdate_Incremental measures rebuilding after one document
// changed without changing the inventory.
func BenchmarkUpdate_Incremental(b *testing.B) {
	ctx := context.Background()
	srcs := benchCorpus(64)
	e := newBenchEngine(b)
	defer e.Close()
	if err := e.Update(ctx, srcs...); err != nil {
		b.Fatal(err)
	}

	changed := srcs[10]
	base := string(changed.Text)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		changed.Text = []byte(fmt.Sprintf("%s\nRevision %d.\n", base, i))
		if err := e.Update(ctx, changed); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkResolveXRef(b *testing.B) {
	e := newBenchEngine(b)
	defer e.Close()
	if err := e.Update(context.Background(), benchCorpus(64)...); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, _, err := e.ResolveXRef("func", "size", "lib1::Container5")
		if err != nil {
			b.Fatal(err)
		}
		if res == nil {
			b.Fatal("expected a resolution")
		}
	}
}

func BenchmarkQueryDefinitionAt(b *testing.B) {
	e := newBenchEngine(b)
	defer e.Close()
	if err := e.Update(context.Background(), benchCorpus(16)...); err != nil {
		b.Fatal(err)
	}
	q := e.Query()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// the push_back reference inside Container0
		if _, err := q.DefinitionAt("/docs/api/doc000.rst", 15, 15); err != nil {
			b.Fatal(err)
		}
	}
}
