package graph

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu        sync.RWMutex
	files     map[string]FileNode
	functions map[string]FunctionNode // key: FunctionNode.Key
	edges     []Edge
	clusters  []ClusterNode
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		files:     make(map[string]FileNode),
		functions: make(map[string]FunctionNode),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddFile stores a file node keyed by its id.
func (m *MemStore) AddFile(_ context.Context, node FileNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[node.ID] = node
	return nil
}

// AddFunction stores a function node keyed by its scope key.
func (m *MemStore) AddFunction(_ context.Context, node FunctionNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.functions[node.Key] = node
	return nil
}

// AddCluster appends a cluster to the internal slice.
func (m *MemStore) AddCluster(_ context.Context, node ClusterNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clusters = append(m.clusters, node)
	return nil
}

// AddEdge appends an edge to the internal slice.
func (m *MemStore) AddEdge(_ context.Context, edge Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, edge)
	return nil
}

// GetFile returns the file node for the given id, or nil if not found.
func (m *MemStore) GetFile(_ context.Context, id string) (*FileNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// GetFunction returns the function for the given key, or nil if not found.
func (m *MemStore) GetFunction(_ context.Context, key string) (*FunctionNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.functions[key]
	if !ok {
		return nil, nil
	}
	return &fn, nil
}

// QueryFunctions returns functions whose name contains query
// (case-insensitive), ordered by key, up to limit results. A limit <= 0
// returns all matches.
func (m *MemStore) QueryFunctions(_ context.Context, query string, limit int) ([]FunctionNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lowerQuery := strings.ToLower(query)
	var results []FunctionNode
	for _, fn := range m.functions {
		if strings.Contains(strings.ToLower(fn.Name), lowerQuery) {
			results = append(results, fn)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Key < results[j].Key })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// TopFunctions returns the functions with the highest total for event.
func (m *MemStore) TopFunctions(_ context.Context, event string, limit int) ([]FunctionNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]FunctionNode, 0, len(m.functions))
	for _, fn := range m.functions {
		all = append(all, fn)
	}
	return rankByEvent(all, event, limit), nil
}

// GetCalls performs a BFS on CALLS edges from key in the given direction,
// up to maxDepth hops. It returns one CallChain per reachable function.
func (m *MemStore) GetCalls(_ context.Context, key string, direction Direction, maxDepth int) ([]CallChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if maxDepth <= 0 {
		return nil, nil
	}

	// BFS state: each entry tracks the path from key to the current node.
	type bfsEntry struct {
		id   string
		path []string
	}

	visited := map[string]bool{key: true}
	queue := []bfsEntry{{id: key, path: []string{key}}}
	var chains []CallChain

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var nextQueue []bfsEntry
		for _, entry := range queue {
			for _, nb := range m.neighbors(entry.id, direction) {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				newPath := make([]string, len(entry.path), len(entry.path)+1)
				copy(newPath, entry.path)
				newPath = append(newPath, nb)
				chains = append(chains, CallChain{
					Nodes: newPath,
					Depth: len(newPath) - 1,
				})
				nextQueue = append(nextQueue, bfsEntry{id: nb, path: newPath})
			}
		}
		queue = nextQueue
	}

	return chains, nil
}

// neighbors returns keys reachable from id in one CALLS hop along direction.
func (m *MemStore) neighbors(id string, direction Direction) []string {
	var result []string
	for _, e := range m.edges {
		if e.Kind != EdgeKindCalls {
			continue
		}
		switch direction {
		case DirectionCallees:
			if e.SourceID == id {
				result = append(result, e.TargetID)
			}
		case DirectionCallers:
			if e.TargetID == id {
				result = append(result, e.SourceID)
			}
		}
	}
	return result
}

// GetClusters returns all stored clusters.
func (m *MemStore) GetClusters(_ context.Context) ([]ClusterNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ClusterNode, len(m.clusters))
	copy(out, m.clusters)
	return out, nil
}

// GetAllEdges returns a copy of all edges in the store.
func (m *MemStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out, nil
}

// Stats returns counts of all node and edge types in the graph.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &GraphStats{
		FileCount:     len(m.files),
		FunctionCount: len(m.functions),
		ClusterCount:  len(m.clusters),
		EdgeCount:     len(m.edges),
	}, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
