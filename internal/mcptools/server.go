package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewProfileMCPServer creates an MCP server with the profile tools registered.
func NewProfileMCPServer(svc *ProfileService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "cgprof",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_profile",
		Description: "Parse a callgrind or cachegrind output file and load its call graph. Replaces any previously loaded profile. Returns entry, call and error counts plus graph statistics.",
	}, svc.ParseProfile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_functions",
		Description: "Search the loaded profile for functions whose name contains a substring. Returns function keys, files, first lines and event totals.",
	}, svc.QueryFunctions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "top_functions",
		Description: "Rank the functions of the loaded profile by an event total, highest first.",
	}, svc.TopFunctions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_calls",
		Description: "Traverse the call graph from a function key towards its callees or callers. Returns call chains up to the specified depth.",
	}, svc.GetCalls)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_clusters",
		Description: "Return the groups of functions connected by calls, with a cohesion score for each group.",
	}, svc.GetClusters)

	return server
}

// RunMCPServer serves the MCP server over streamable HTTP at addr until ctx
// is canceled.
func RunMCPServer(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunMCPServerStdio runs the MCP server on stdio, blocking until stdin is
// closed or ctx is canceled.
func RunMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
