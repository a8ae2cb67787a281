package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/cgprof/internal/callgrind"
)

const callProfile = `events: Ir
fl=(1) file1.c
fn=(1) main
16 20
cfn=(2) func1
calls=1 50
16 400
cfi=(2) file2.c
cfn=(3) func2
calls=3 20
16 400

fn=(2)
51 100
cfi=(2)
cfn=(3)
calls=2 20
51 300

fl=(2)
fn=(3)
20 700
`

func parse(t *testing.T, input string) *callgrind.Result {
	t.Helper()
	res, err := callgrind.NewReaderParser("test", strings.NewReader(input)).Parse(context.Background())
	require.NoError(t, err)
	return res
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	stats, err := Load(ctx, store, parse(t, callProfile))
	require.NoError(t, err)

	// 3 DEFINES + 3 CALLS + 3 BELONGS.
	assert.Equal(t, &GraphStats{FileCount: 2, FunctionCount: 3, ClusterCount: 1, EdgeCount: 9}, stats)

	fn, err := store.GetFunction(ctx, "(1)__(1)")
	require.NoError(t, err)
	require.NotNil(t, fn)
	assert.Equal(t, "main", fn.Name)
	assert.Equal(t, "file1.c", fn.File)
	assert.Equal(t, uint64(16), fn.FirstLine)
	assert.Equal(t, 1, fn.LineCount)
	assert.Equal(t, uint64(20), fn.Events["Ir"])

	file, err := store.GetFile(ctx, "(2)")
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "file2.c", file.Name)

	edges, err := store.GetAllEdges(ctx)
	require.NoError(t, err)
	var calls []Edge
	for _, e := range edges {
		if e.Kind == EdgeKindCalls {
			calls = append(calls, e)
		}
	}
	assert.Equal(t, []Edge{
		{SourceID: "(1)__(1)", TargetID: "(1)__(2)", Kind: EdgeKindCalls, Calls: 1, Cost: 400},
		{SourceID: "(1)__(1)", TargetID: "(2)__(3)", Kind: EdgeKindCalls, Calls: 3, Cost: 400},
		{SourceID: "(1)__(2)", TargetID: "(2)__(3)", Kind: EdgeKindCalls, Calls: 2, Cost: 300},
	}, calls)

	chains, err := store.GetCalls(ctx, "(2)__(3)", DirectionCallers, 1)
	require.NoError(t, err)
	assert.Len(t, chains, 2)

	clusters, err := store.GetClusters(ctx)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "(1)__(1)", clusters[0].Name)
}

func TestLoad_CallerWithoutEntry(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	res := parse(t, "events: Ir\nfl=a.c\nfn=main\ncfn=f\ncalls=1 3\n5 100\n")
	_, err := Load(ctx, store, res)
	require.NoError(t, err)

	caller, err := store.GetFunction(ctx, "a.c__main")
	require.NoError(t, err)
	require.NotNil(t, caller, "caller gets a placeholder node")
	assert.Equal(t, "main", caller.Name)
	assert.Empty(t, caller.Events)
	assert.Zero(t, caller.LineCount)
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, NewMemStore(), parse(t, callProfile))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFunctionNode_DefaultScope(t *testing.T) {
	node := NewFunctionNode(callgrind.ScopeKey{File: callgrind.DefaultID, Function: callgrind.DefaultID}, &callgrind.Entry{
		Lines:  []uint64{3, 1},
		Events: map[string]uint64{"Ir": 9},
	})
	assert.Equal(t, "(0)__(0)", node.Key)
	assert.Equal(t, "(0)", node.Name, "blank names fall back to ids")
	assert.Equal(t, uint64(3), node.FirstLine)
	assert.Equal(t, 2, node.LineCount)
}
