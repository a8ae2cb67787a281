package graph

import (
	"context"
	"io"
	"sort"
)

// Store is the interface for the call graph backend.
// Implementations: KuzuStore (persistent, cgo), MemStore (in-process, tests).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations.
	AddFile(ctx context.Context, node FileNode) error
	AddFunction(ctx context.Context, node FunctionNode) error
	AddCluster(ctx context.Context, node ClusterNode) error
	AddEdge(ctx context.Context, edge Edge) error

	// Read operations.
	GetFile(ctx context.Context, id string) (*FileNode, error)
	GetFunction(ctx context.Context, key string) (*FunctionNode, error)
	QueryFunctions(ctx context.Context, query string, limit int) ([]FunctionNode, error)
	TopFunctions(ctx context.Context, event string, limit int) ([]FunctionNode, error)
	GetAllEdges(ctx context.Context) ([]Edge, error)

	// Graph traversal.
	GetCalls(ctx context.Context, key string, direction Direction, maxDepth int) ([]CallChain, error)
	GetClusters(ctx context.Context) ([]ClusterNode, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}

// Direction controls call traversal direction.
type Direction string

const (
	DirectionCallees Direction = "callees" // what does this function call?
	DirectionCallers Direction = "callers" // what calls this function?
)

// rankByEvent sorts functions by descending event value, then by key, and
// truncates to limit (limit <= 0 keeps all). Functions without the event are
// dropped.
func rankByEvent(fns []FunctionNode, event string, limit int) []FunctionNode {
	out := make([]FunctionNode, 0, len(fns))
	for _, fn := range fns {
		if _, ok := fn.Events[event]; ok {
			out = append(out, fn)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := out[i].Events[event], out[j].Events[event]
		if vi != vj {
			return vi > vj
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
