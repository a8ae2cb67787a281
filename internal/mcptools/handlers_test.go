package mcptools

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/cgprof/internal/graph"
)

// fixturePath returns the absolute path of a callgrind fixture. Tests run
// from internal/mcptools/, so fixtures live under ../callgrind/testdata.
func fixturePath(t *testing.T, name string) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("..", "callgrind", "testdata", name))
	require.NoError(t, err)
	return abs
}

// loadedService returns a service with callgrind-2.out already parsed.
func loadedService(t *testing.T) *ProfileService {
	t.Helper()
	svc := NewProfileService(MemStoreFactory, zerolog.Nop())
	t.Cleanup(func() { _ = svc.Close() })

	_, _, err := svc.ParseProfile(context.Background(), nil, ParseProfileInput{Path: fixturePath(t, "callgrind-2.out")})
	require.NoError(t, err)
	return svc
}

func TestParseProfile(t *testing.T) {
	svc := NewProfileService(MemStoreFactory, zerolog.Nop())
	defer func() { _ = svc.Close() }()

	_, out, err := svc.ParseProfile(context.Background(), nil, ParseProfileInput{Path: fixturePath(t, "callgrind-2.out")})
	require.NoError(t, err)

	assert.Equal(t, []string{"Instructions"}, out.Events)
	assert.Equal(t, 3, out.Entries)
	assert.Equal(t, 3, out.Calls)
	assert.Equal(t, 23, out.LinesRead)
	assert.Zero(t, out.ErrorCount)
	assert.Equal(t, graph.GraphStats{FileCount: 2, FunctionCount: 3, ClusterCount: 1, EdgeCount: 9}, out.Stats)
}

func TestParseProfile_Errors(t *testing.T) {
	svc := NewProfileService(MemStoreFactory, zerolog.Nop())
	defer func() { _ = svc.Close() }()
	ctx := context.Background()

	_, out, err := svc.ParseProfile(ctx, nil, ParseProfileInput{Path: fixturePath(t, "errors.out")})
	require.NoError(t, err)
	assert.Equal(t, 4, out.ErrorCount)
	assert.Empty(t, out.Errors, "lines are omitted unless requested")

	_, out, err = svc.ParseProfile(ctx, nil, ParseProfileInput{Path: fixturePath(t, "errors.out"), IncludeErrors: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"ob=/usr/bin/prog", "jump=3 12", "11 7 extra", "totals: 12"}, out.Errors)
}

func TestParseProfile_BadInput(t *testing.T) {
	svc := NewProfileService(MemStoreFactory, zerolog.Nop())
	ctx := context.Background()

	_, _, err := svc.ParseProfile(ctx, nil, ParseProfileInput{})
	assert.ErrorContains(t, err, "path is required")

	_, _, err = svc.ParseProfile(ctx, nil, ParseProfileInput{Path: fixturePath(t, "does-not-exist.out")})
	assert.Error(t, err)

	_, _, err = svc.GetClusters(ctx, nil, GetClustersInput{})
	assert.ErrorIs(t, err, ErrNoProfile, "failed parse leaves nothing loaded")
}

func TestParseProfile_StoreFactoryFails(t *testing.T) {
	boom := errors.New("boom")
	svc := NewProfileService(func() (graph.Store, error) { return nil, boom }, zerolog.Nop())

	_, _, err := svc.ParseProfile(context.Background(), nil, ParseProfileInput{Path: fixturePath(t, "callgrind-1.out")})
	assert.ErrorIs(t, err, boom)
}

func TestParseProfile_ReplacesPrevious(t *testing.T) {
	svc := loadedService(t)
	ctx := context.Background()

	_, _, err := svc.ParseProfile(ctx, nil, ParseProfileInput{Path: fixturePath(t, "callgrind-1.out")})
	require.NoError(t, err)

	_, out, err := svc.QueryFunctions(ctx, nil, QueryFunctionsInput{})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "file.f__main", out.Functions[0].Key)
}

func TestQueryFunctions(t *testing.T) {
	svc := loadedService(t)
	ctx := context.Background()

	_, out, err := svc.QueryFunctions(ctx, nil, QueryFunctionsInput{Query: "FUNC"})
	require.NoError(t, err)
	require.Equal(t, 2, out.Total)
	assert.Equal(t, "file1.c__func1", out.Functions[0].Key)
	assert.Equal(t, "file2.c__func2", out.Functions[1].Key)

	_, out, err = svc.QueryFunctions(ctx, nil, QueryFunctionsInput{Query: "nothing"})
	require.NoError(t, err)
	assert.Zero(t, out.Total)
	assert.NotNil(t, out.Functions)
}

func TestTopFunctions(t *testing.T) {
	svc := loadedService(t)
	ctx := context.Background()

	_, out, err := svc.TopFunctions(ctx, nil, TopFunctionsInput{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "Instructions", out.Event, "defaults to the first event")
	require.Len(t, out.Functions, 2)
	assert.Equal(t, "func2", out.Functions[0].Name)
	assert.Equal(t, uint64(700), out.Functions[0].Events["Instructions"])
	assert.Equal(t, "func1", out.Functions[1].Name)

	_, out, err = svc.TopFunctions(ctx, nil, TopFunctionsInput{Event: "__callcost"})
	require.NoError(t, err)
	require.Len(t, out.Functions, 2)
	assert.Equal(t, uint64(700), out.Functions[0].Events["__callcost"])
}

func TestGetCalls(t *testing.T) {
	svc := loadedService(t)
	ctx := context.Background()

	_, out, err := svc.GetCalls(ctx, nil, GetCallsInput{Key: "file1.c__main"})
	require.NoError(t, err)
	require.Len(t, out.Chains, 2)
	assert.Equal(t, []string{"file1.c__main", "file1.c__func1"}, out.Chains[0].Nodes)
	assert.Equal(t, []string{"file1.c__main", "file2.c__func2"}, out.Chains[1].Nodes)

	_, out, err = svc.GetCalls(ctx, nil, GetCallsInput{Key: "file2.c__func2", Direction: "CALLERS", MaxDepth: 1})
	require.NoError(t, err)
	assert.Len(t, out.Chains, 2)

	_, out, err = svc.GetCalls(ctx, nil, GetCallsInput{Key: "file2.c__func2"})
	require.NoError(t, err)
	assert.Empty(t, out.Chains)
	assert.NotNil(t, out.Chains)

	_, _, err = svc.GetCalls(ctx, nil, GetCallsInput{})
	assert.ErrorContains(t, err, "key is required")

	_, _, err = svc.GetCalls(ctx, nil, GetCallsInput{Key: "nope__nope"})
	assert.ErrorContains(t, err, "unknown function key")
}

func TestGetClusters(t *testing.T) {
	svc := loadedService(t)

	_, out, err := svc.GetClusters(context.Background(), nil, GetClustersInput{})
	require.NoError(t, err)
	require.Len(t, out.Clusters, 1)
	assert.Equal(t, "file1.c__main", out.Clusters[0].Name)
	assert.Len(t, out.Clusters[0].Members, 3)
}

func TestQueryTools_NoProfile(t *testing.T) {
	svc := NewProfileService(MemStoreFactory, zerolog.Nop())
	ctx := context.Background()

	_, _, err := svc.QueryFunctions(ctx, nil, QueryFunctionsInput{})
	assert.ErrorIs(t, err, ErrNoProfile)
	_, _, err = svc.TopFunctions(ctx, nil, TopFunctionsInput{})
	assert.ErrorIs(t, err, ErrNoProfile)
	_, _, err = svc.GetCalls(ctx, nil, GetCallsInput{Key: "a__b"})
	assert.ErrorIs(t, err, ErrNoProfile)
	assert.NoError(t, svc.Close())
}
