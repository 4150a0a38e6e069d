package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreyAkinshin/testbridge/internal/testtree"
)

func mustDecode(t *testing.T, in string) Node {
	t.Helper()
	p, err := Decode([]byte(in))
	require.NoError(t, err)
	return p.Root
}

func TestBuild_Scenario(t *testing.T) {
	reg := testtree.NewRegistry()
	top := Build(mustDecode(t, sampleTree), reg)

	require.NotNil(t, top)
	assert.Equal(t, 1, reg.Roots().Len())
	_, hasRange := top.Range()
	assert.False(t, hasRange)

	children := top.Children().All()
	require.Len(t, children, 2)

	r1, ok := children[0].Range()
	require.True(t, ok)
	assert.Equal(t, testtree.Range{Start: testtree.Position{Line: 11}, End: testtree.Position{Line: 12}}, r1)

	r2, ok := children[1].Range()
	require.True(t, ok)
	assert.Equal(t, testtree.Range{Start: testtree.Position{Line: 29}, End: testtree.Position{Line: 30}}, r2)
	assert.Equal(t, "/src/a.py", children[1].File())
	assert.Equal(t, "test_two", children[1].Label())
}

// shapeOf returns id -> ordered child ids for a discovered tree.
func shapeOf(n Node, out map[string][]string) {
	h := HeaderOf(n)
	out[h.ID] = []string{}
	if b, ok := n.(*Branch); ok {
		for _, c := range b.Children {
			out[h.ID] = append(out[h.ID], HeaderOf(c).ID)
			shapeOf(c, out)
		}
	}
}

func TestBuild_PreservesShapeAndRanges(t *testing.T) {
	in := `{"id": "root", "displayName": "root", "kind": "folder", "filePath": "/", "children": [
		{"id": "pkg", "displayName": "pkg", "kind": "folder", "filePath": "/pkg", "children": [
			{"id": "file", "displayName": "test_x.py", "kind": "file", "filePath": "/pkg/test_x.py", "children": [
				{"id": "cls", "displayName": "XTests", "kind": "class", "filePath": "/pkg/test_x.py", "children": [
					{"id": "cls.a", "displayName": "a", "kind": "testCase", "filePath": "/pkg/test_x.py", "lineNumber": 3},
					{"id": "cls.b", "displayName": "b", "kind": "testCase", "filePath": "/pkg/test_x.py", "lineNumber": 9}
				]},
				{"id": "empty", "displayName": "Empty", "kind": "class", "filePath": "/pkg/test_x.py", "children": []}
			]}
		]},
		{"id": "top", "displayName": "top", "kind": "testCase", "filePath": "/t.py", "lineNumber": 1}
	]}`
	discovered := mustDecode(t, in)

	reg := testtree.NewRegistry()
	Build(discovered, reg)

	want := map[string][]string{}
	shapeOf(discovered, want)

	got := map[string][]string{}
	withRange := 0
	reg.Walk(func(n *testtree.Node) bool {
		got[n.ID()] = []string{}
		for _, c := range n.Children().All() {
			got[n.ID()] = append(got[n.ID()], c.ID())
		}
		if _, ok := n.Range(); ok {
			withRange++
		}
		return true
	})

	assert.Equal(t, want, got)
	assert.Equal(t, 3, withRange, "exactly the test cases carry a range")
	assert.Equal(t, testtree.Stats{Nodes: 8, Leaves: 4}, reg.Stats(), "the empty class counts as a leaf node")

	empty, ok := reg.Find("empty")
	require.True(t, ok)
	assert.True(t, empty.IsContainer())
	assert.False(t, empty.Runnable())
	top, ok := reg.Find("top")
	require.True(t, ok)
	assert.True(t, top.Runnable())
}

func TestBuild_Additive(t *testing.T) {
	reg := testtree.NewRegistry()
	reg.Roots().Add(reg.CreateNode("other", "other", ""))

	Build(mustDecode(t, sampleTree), reg)
	assert.Equal(t, 2, reg.Roots().Len())

	assert.Nil(t, Build(nil, reg))
	assert.Equal(t, 2, reg.Roots().Len())
}

func execReturning(out string, cancelled bool, err error) ExecFunc {
	return func(context.Context) (string, bool, error) { return out, cancelled, err }
}

func seededRegistry() *testtree.Registry {
	reg := testtree.NewRegistry()
	reg.Roots().Add(reg.CreateNode("stale", "stale", ""))
	return reg
}

func TestDiscover_ReplacesRoots(t *testing.T) {
	reg := seededRegistry()

	res, err := Discover(context.Background(), execReturning(sampleTree, false, nil), reg, Options{Replace: true, Logger: zerolog.Nop()})
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Roots().Len())
	_, ok := reg.Find("stale")
	assert.False(t, ok)
	assert.Equal(t, "root", res.Root.ID())
	assert.Equal(t, testtree.Stats{Nodes: 3, Leaves: 2}, res.Stats)
}

func TestDiscover_AdditiveWithoutReplace(t *testing.T) {
	reg := seededRegistry()

	_, err := Discover(context.Background(), execReturning(sampleTree, false, nil), reg, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Roots().Len())
}

func TestDiscover_FailureLeavesTreeUntouched(t *testing.T) {
	tests := map[string]ExecFunc{
		"process error":  execReturning("", false, errors.New("spawn failed")),
		"malformed json": execReturning(`{"id":`, false, nil),
		"error envelope": execReturning(`{"status": "error", "errors": ["boom"]}`, false, nil),
	}

	for name, exec := range tests {
		t.Run(name, func(t *testing.T) {
			reg := seededRegistry()
			_, err := Discover(context.Background(), exec, reg, Options{Replace: true, Logger: zerolog.Nop()})
			require.Error(t, err)

			_, ok := reg.Find("stale")
			assert.True(t, ok)
			assert.Equal(t, 1, reg.Roots().Len())
		})
	}
}

func TestDiscover_Cancelled(t *testing.T) {
	reg := seededRegistry()
	res, err := Discover(context.Background(), execReturning("", true, nil), reg, Options{Replace: true, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, 1, reg.Roots().Len())
}

func TestDiscover_EmptyOutputClearsWhenReplacing(t *testing.T) {
	reg := seededRegistry()
	res, err := Discover(context.Background(), execReturning("", false, nil), reg, Options{Replace: true, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Nil(t, res.Root)
	assert.Equal(t, 0, reg.Roots().Len())
}

func TestDiscover_WarningsFromErrorEnvelope(t *testing.T) {
	reg := testtree.NewRegistry()
	out := `{"status": "error", "errors": ["syntax error in b.py"], "tests": ` + sampleTree + `}`
	res, err := Discover(context.Background(), execReturning(out, false, nil), reg, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, []string{"syntax error in b.py"}, res.Warnings)
	assert.Equal(t, 1, reg.Roots().Len())
}
