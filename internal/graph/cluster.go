package graph

import (
	"context"
	"sort"
)

// ComputeClusters finds weakly connected components of the call graph
// (CALLS edges only) and stores them as ClusterNodes.
//
// Algorithm:
//  1. Build an undirected adjacency list from CALLS edges among the given functions.
//  2. Find connected components via BFS.
//  3. For each component with >= 2 functions, compute a cohesion score and store the cluster.
func ComputeClusters(ctx context.Context, store Store, functions []FunctionNode) ([]ClusterNode, error) {
	adj, inbound, err := buildAdjacency(ctx, store, functions)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(functions))
	for _, fn := range functions {
		keys = append(keys, fn.Key)
	}
	sort.Strings(keys)

	visited := make(map[string]bool, len(keys))
	var clusters []ClusterNode

	for _, key := range keys {
		if visited[key] {
			continue
		}
		component := bfsComponent(key, adj, visited)
		if len(component) < 2 {
			continue
		}
		sort.Strings(component)
		cluster := ClusterNode{
			Name:          clusterName(component, inbound),
			CohesionScore: computeCohesion(component, adj),
			Members:       component,
		}
		if err := store.AddCluster(ctx, cluster); err != nil {
			return nil, err
		}
		for _, member := range component {
			edge := Edge{
				SourceID: member,
				TargetID: cluster.Name,
				Kind:     EdgeKindBelongs,
			}
			if err := store.AddEdge(ctx, edge); err != nil {
				return nil, err
			}
		}
		clusters = append(clusters, cluster)
	}

	return clusters, nil
}

// buildAdjacency constructs an undirected adjacency list from CALLS edges in
// a single pass over all edges. inbound records which functions are called
// by another member; self-calls are ignored.
func buildAdjacency(ctx context.Context, store Store, functions []FunctionNode) (map[string]map[string]bool, map[string]bool, error) {
	adj := make(map[string]map[string]bool, len(functions))
	for _, fn := range functions {
		adj[fn.Key] = make(map[string]bool)
	}
	inbound := make(map[string]bool)

	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range edges {
		if e.Kind != EdgeKindCalls || e.SourceID == e.TargetID {
			continue
		}
		if adj[e.SourceID] != nil && adj[e.TargetID] != nil {
			adj[e.SourceID][e.TargetID] = true
			adj[e.TargetID][e.SourceID] = true
			inbound[e.TargetID] = true
		}
	}

	return adj, inbound, nil
}

// bfsComponent performs BFS from start on the adjacency list and returns
// all reachable nodes. It marks visited nodes as it goes.
func bfsComponent(start string, adj map[string]map[string]bool, visited map[string]bool) []string {
	var component []string
	queue := []string{start}
	visited[start] = true

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		component = append(component, node)
		for neighbor := range adj[node] {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}

	return component
}

// computeCohesion returns the density of a component: the number of distinct
// undirected internal edges over the n*(n-1)/2 possible ones.
func computeCohesion(component []string, adj map[string]map[string]bool) float64 {
	n := len(component)
	if n < 2 {
		return 0
	}
	memberSet := make(map[string]bool, n)
	for _, m := range component {
		memberSet[m] = true
	}

	internalEdges := 0
	for _, m := range component {
		for neighbor := range adj[m] {
			// Count each undirected edge once.
			if memberSet[neighbor] && m < neighbor {
				internalEdges++
			}
		}
	}
	return float64(internalEdges) / float64(n*(n-1)/2)
}

// clusterName names a sorted component after its first root: a member no
// other member calls. Fully cyclic components fall back to the first member.
func clusterName(component []string, inbound map[string]bool) string {
	for _, m := range component {
		if !inbound[m] {
			return m
		}
	}
	return component[0]
}
