package mcptools

import "github.com/dusk-indust/cgprof/internal/graph"

// --- MCP Tool Input Types ---
// The MCP Go SDK generates JSON schemas from these struct tags.

// ParseProfileInput is the input for the parse_profile MCP tool.
type ParseProfileInput struct {
	Path          string `json:"path" jsonschema:"the path of the callgrind or cachegrind output file"`
	IncludeErrors bool   `json:"includeErrors,omitempty" jsonschema:"return the unrecognized lines verbatim"`
}

// ParseProfileOutput is the result of the parse_profile MCP tool.
type ParseProfileOutput struct {
	Source     string           `json:"source"`
	Events     []string         `json:"events"`
	Entries    int              `json:"entries"`
	Calls      int              `json:"calls"`
	LinesRead  int              `json:"linesRead"`
	ErrorCount int              `json:"errorCount"`
	Errors     []string         `json:"errors,omitempty"`
	Stats      graph.GraphStats `json:"stats"`
}

// QueryFunctionsInput is the input for the query_functions MCP tool.
type QueryFunctionsInput struct {
	Query string `json:"query" jsonschema:"substring of the function name, case-insensitive"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// QueryFunctionsOutput is the result of the query_functions MCP tool.
type QueryFunctionsOutput struct {
	Functions []graph.FunctionNode `json:"functions"`
	Total     int                  `json:"total"`
}

// TopFunctionsInput is the input for the top_functions MCP tool.
type TopFunctionsInput struct {
	Event string `json:"event,omitempty" jsonschema:"event to rank by (default: the first declared event)"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// TopFunctionsOutput is the result of the top_functions MCP tool.
type TopFunctionsOutput struct {
	Event     string               `json:"event"`
	Functions []graph.FunctionNode `json:"functions"`
}

// GetCallsInput is the input for the get_calls MCP tool.
type GetCallsInput struct {
	Key       string `json:"key" jsonschema:"function key in the form file__function, as returned by query_functions"`
	Direction string `json:"direction,omitempty" jsonschema:"callees (what it calls) or callers (what calls it). Default: callees"`
	MaxDepth  int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 5)"`
}

// GetCallsOutput is the result of the get_calls MCP tool.
type GetCallsOutput struct {
	Chains []graph.CallChain `json:"chains"`
}

// GetClustersInput is the input for the get_clusters MCP tool.
type GetClustersInput struct{}

// GetClustersOutput is the result of the get_clusters MCP tool.
type GetClustersOutput struct {
	Clusters []graph.ClusterNode `json:"clusters"`
}
