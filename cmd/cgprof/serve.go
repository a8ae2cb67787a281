package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cgerrors "github.com/dusk-indust/cgprof/internal/errors"
	"github.com/dusk-indust/cgprof/internal/mcptools"
)

func newServeMCPCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve profile tools over the Model Context Protocol",
		Long: `Run an MCP server exposing parse_profile, query_functions, top_functions,
get_calls and get_clusters. Uses stdio unless --addr is set, in which case
it serves streamable HTTP on that address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := mcptools.NewProfileService(mcptools.MemStoreFactory, a.logger)
			defer cgerrors.DeferClose(a.logger, svc, "failed to close profile service")
			server := mcptools.NewProfileMCPServer(svc)

			if addr == "" {
				a.logger.Info().Msg("serving MCP on stdio")
				return mcptools.RunMCPServerStdio(ctx, server)
			}
			a.logger.Info().Str("addr", addr).Msg("serving MCP over HTTP")
			return mcptools.RunMCPServer(ctx, server, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default: stdio)")
	return cmd
}
