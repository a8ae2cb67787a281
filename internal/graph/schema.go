package graph

// --- Enums ---

// NodeKind classifies nodes in the call graph.
type NodeKind string

const (
	NodeKindFile     NodeKind = "file"
	NodeKindFunction NodeKind = "function"
	NodeKindCluster  NodeKind = "cluster"
)

// EdgeKind classifies relationships between nodes.
type EdgeKind string

const (
	EdgeKindDefines EdgeKind = "DEFINES" // file -> function
	EdgeKindCalls   EdgeKind = "CALLS"   // caller function -> callee function
	EdgeKindBelongs EdgeKind = "BELONGS" // function -> cluster
)

// --- Models ---

// FileNode is a source file declared by fl=, cfl= or cfi=.
type FileNode struct {
	ID   string `json:"id"` // compressed id, or the name when none was given
	Name string `json:"name"`
}

// FunctionNode is one profile entry: a function within a file.
type FunctionNode struct {
	Key        string            `json:"key"` // "fileId__functionId"
	FileID     string            `json:"fileId"`
	FunctionID string            `json:"functionId"`
	File       string            `json:"file"`
	Name       string            `json:"name"`
	LineCount  int               `json:"lineCount"`
	FirstLine  uint64            `json:"firstLine"`
	Events     map[string]uint64 `json:"events"`
}

// ClusterNode is a group of functions connected by CALLS edges.
type ClusterNode struct {
	Name          string   `json:"name"`
	CohesionScore float64  `json:"cohesionScore"`
	Members       []string `json:"members"` // function keys
}

// Edge represents a relationship between two nodes. Calls and Cost are only
// set on CALLS edges.
type Edge struct {
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Kind     EdgeKind `json:"kind"`
	Calls    uint64   `json:"calls,omitempty"`
	Cost     uint64   `json:"cost,omitempty"`
}

// GraphStats summarizes a call graph.
type GraphStats struct {
	FileCount     int `json:"fileCount"`
	FunctionCount int `json:"functionCount"`
	ClusterCount  int `json:"clusterCount"`
	EdgeCount     int `json:"edgeCount"`
}

// CallChain is an ordered sequence of function keys along CALLS edges.
type CallChain struct {
	Nodes []string `json:"nodes"` // function keys in order
	Depth int      `json:"depth"`
}
