package cppdomain

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mergeCorpus declares overlapping names across documents so the merge
// order decides the winners.
func mergeCorpus() []Source {
	var srcs []Source
	for i := 0; i < 8; i++ {
		srcs = append(srcs, directivesSource(fmt.Sprintf("doc%d", i), rst(
			".. cpp:namespace:: lib",
			"",
			fmt.Sprintf(".. cpp:class:: Type%d", i),
			"",
			"   .. cpp:function:: void run(int)",
			"",
			".. cpp:class:: Shared",
			"",
			fmt.Sprintf("   .. cpp:member:: int field%d", i),
			"",
			fmt.Sprintf("See :cpp:class:`Type%d`, :cpp:class:`Type%d` and :cpp:func:`Shared::missing`.", (i+1)%8, i),
		)))
	}
	return srcs
}

type buildResult struct {
	Objects  []Object
	Warnings []Warning
	Refs     map[string][]*Reference
}

func build(t *testing.T, srcs []Source, opts ...Option) buildResult {
	t.Helper()
	e := newTestEngine(t, opts...)
	update(t, e, srcs...)
	objs, err := e.Objects()
	require.NoError(t, err)
	warnings, err := e.Warnings()
	require.NoError(t, err)
	refs := map[string][]*Reference{}
	docs, err := e.Documents()
	require.NoError(t, err)
	for _, d := range docs {
		refs[d] = output(t, e, d).References
	}
	return buildResult{Objects: objs, Warnings: warnings, Refs: refs}
}

func TestMerge_SerialAndParallelAgree(t *testing.T) {
	srcs := mergeCorpus()
	serial := build(t, srcs, WithParallel(false))
	parallel := build(t, srcs, WithParallel(true), WithWorkers(4))

	if diff := cmp.Diff(serial, parallel); diff != "" {
		t.Errorf("parallel build differs from serial (-serial +parallel):\n%s", diff)
	}
}

func TestMerge_InputOrderDoesNotMatter(t *testing.T) {
	srcs := mergeCorpus()
	reversed := make([]Source, len(srcs))
	for i, s := range srcs {
		reversed[len(srcs)-1-i] = s
	}

	forward := build(t, srcs)
	backward := build(t, reversed)
	if diff := cmp.Diff(forward, backward); diff != "" {
		t.Errorf("build depends on input order (-forward +backward):\n%s", diff)
	}
}

func TestMerge_SharedScopeAcrossDocuments(t *testing.T) {
	res := build(t, mergeCorpus())

	var shared []Object
	for _, o := range res.Objects {
		if o.Name == "lib::Shared" {
			shared = append(shared, o)
		}
	}
	require.Len(t, shared, 1)
	assert.Equal(t, "doc0", shared[0].Docname)

	// every document contributes a member to the one class
	members := 0
	for _, o := range res.Objects {
		if o.ObjectType == "member" {
			members++
		}
	}
	assert.Equal(t, 8, members)

	for _, refs := range res.Refs {
		require.Len(t, refs, 3)
		assert.True(t, refs[0].Resolved)
		assert.True(t, refs[1].Resolved)
		assert.False(t, refs[2].Resolved)
	}
}

func TestMerge_DuplicateAcrossDocuments(t *testing.T) {
	e := newTestEngine(t)
	update(t, e,
		directivesSource("b", rst("", ".. cpp:class:: A")),
		directivesSource("a", rst(".. cpp:class:: A")),
	)

	objs, err := e.Objects()
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "a", objs[0].Docname)

	assert.Empty(t, output(t, e, "a").Warnings)
	warnings := output(t, e, "b").Warnings
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnDuplicate, warnings[0].Type)
	assert.Equal(t, 2, warnings[0].Line)
	assert.Equal(t, "Duplicate C++ declaration, also defined at a:1.\nDeclaration is '.. cpp:class:: A'.", warnings[0].Message)

	names, err := e.Names()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "a"}, names)
}

func TestMerge_LoserRecoversWhenWinnerChanges(t *testing.T) {
	e := newTestEngine(t)
	update(t, e,
		directivesSource("a", rst(".. cpp:class:: A")),
		directivesSource("b", rst(".. cpp:class:: A", "", "See :cpp:class:`A`.")),
	)
	require.Len(t, output(t, e, "b").Warnings, 1)

	update(t, e, directivesSource("a", rst(".. cpp:class:: Other")))

	objs, err := e.Objects()
	require.NoError(t, err)
	docnames := map[string]string{}
	for _, o := range objs {
		docnames[o.Name] = o.Docname
	}
	assert.Equal(t, map[string]string{"A": "b", "Other": "a"}, docnames)

	out := output(t, e, "b")
	assert.Empty(t, out.Warnings)
	require.Len(t, out.References, 1)
	assert.Equal(t, "b", out.References[0].TargetDocname)

	stored, err := e.Query().Objects(ObjectFilter{Name: "A"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "b", stored[0].Docname)
}

func TestMerge_ReferencesFollowRemovedTargets(t *testing.T) {
	e := newTestEngine(t)
	update(t, e,
		directivesSource("api", rst(".. cpp:class:: Vector")),
		directivesSource("guide", rst("Read :cpp:class:`Vector`.")),
	)
	require.True(t, output(t, e, "guide").References[0].Resolved)

	require.NoError(t, e.RemoveDocuments(context.Background(), "api"))

	out := output(t, e, "guide")
	require.Len(t, out.References, 1)
	assert.False(t, out.References[0].Resolved)
	assert.Equal(t, []string{"cpp:class reference target not found: Vector"}, warningMessages(out.Warnings))

	unresolved, err := e.Query().UnresolvedReferences()
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "guide", unresolved[0].Docname)
}
