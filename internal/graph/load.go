package graph

import (
	"context"
	"fmt"

	"github.com/dusk-indust/cgprof/internal/callgrind"
)

// Load writes a parsed profile into store: one File node per distinct file
// id, one Function node per profile entry with a DEFINES edge from its file,
// and one CALLS edge per recorded call. Clusters are computed last.
//
// Callers that appear only as the current scope of a call block have no
// profile entry; they get an empty Function node named after their ids so
// that every CALLS edge has both endpoints.
func Load(ctx context.Context, store Store, res *callgrind.Result) (*GraphStats, error) {
	if err := store.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("graph: init schema: %w", err)
	}

	files := make(map[string]bool)
	functions := make(map[string]FunctionNode)
	var order []string

	addFunction := func(node FunctionNode) error {
		if !files[node.FileID] {
			files[node.FileID] = true
			name := node.File
			if name == "" {
				name = node.FileID
			}
			if err := store.AddFile(ctx, FileNode{ID: node.FileID, Name: name}); err != nil {
				return fmt.Errorf("graph: add file %s: %w", node.FileID, err)
			}
		}
		if err := store.AddFunction(ctx, node); err != nil {
			return fmt.Errorf("graph: add function %s: %w", node.Key, err)
		}
		if err := store.AddEdge(ctx, Edge{SourceID: node.FileID, TargetID: node.Key, Kind: EdgeKindDefines}); err != nil {
			return fmt.Errorf("graph: add DEFINES %s: %w", node.Key, err)
		}
		functions[node.Key] = node
		order = append(order, node.Key)
		return nil
	}

	for _, key := range res.Profile.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := addFunction(NewFunctionNode(key, res.Profile[key])); err != nil {
			return nil, err
		}
	}

	for _, call := range res.Calls {
		for _, key := range []callgrind.ScopeKey{call.Caller, call.Callee} {
			if _, ok := functions[key.String()]; ok {
				continue
			}
			if err := addFunction(NewFunctionNode(key, nil)); err != nil {
				return nil, err
			}
		}
		edge := Edge{
			SourceID: call.Caller.String(),
			TargetID: call.Callee.String(),
			Kind:     EdgeKindCalls,
			Calls:    call.Calls,
			Cost:     call.Cost,
		}
		if err := store.AddEdge(ctx, edge); err != nil {
			return nil, fmt.Errorf("graph: add CALLS %s -> %s: %w", edge.SourceID, edge.TargetID, err)
		}
	}

	nodes := make([]FunctionNode, 0, len(order))
	for _, key := range order {
		nodes = append(nodes, functions[key])
	}
	if _, err := ComputeClusters(ctx, store, nodes); err != nil {
		return nil, fmt.Errorf("graph: compute clusters: %w", err)
	}

	return store.Stats(ctx)
}

// NewFunctionNode converts a profile entry to a graph node. A nil entry
// yields a node with no lines and no events, named after its ids.
func NewFunctionNode(key callgrind.ScopeKey, e *callgrind.Entry) FunctionNode {
	node := FunctionNode{
		Key:        key.String(),
		FileID:     key.File,
		FunctionID: key.Function,
		File:       key.File,
		Name:       key.Function,
		Events:     map[string]uint64{},
	}
	if e == nil {
		return node
	}
	if e.FileName != "" {
		node.File = e.FileName
	}
	if e.FunctionName != "" {
		node.Name = e.FunctionName
	}
	node.LineCount = len(e.Lines)
	if len(e.Lines) > 0 {
		node.FirstLine = e.Lines[0]
	}
	for ev, v := range e.Events {
		node.Events[ev] = v
	}
	return node
}
