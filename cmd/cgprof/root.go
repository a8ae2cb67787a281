package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dusk-indust/cgprof/internal/config"
	"github.com/dusk-indust/cgprof/internal/logging"
)

// app carries the resolved configuration and logger shared by subcommands.
type app struct {
	configDir string
	logLevel  string
	pretty    bool

	cfg    config.ProjectConfig
	logger zerolog.Logger
}

// NewRootCommand builds the cgprof command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "cgprof",
		Short: "Inspect Callgrind and Cachegrind profiles",
		Long: `cgprof parses callgrind/cachegrind output into a per-function profile
with caller->callee cost attribution, then ranks, traverses, diagrams or
exports it (JSON, Mermaid, pprof). Profiles can be indexed into a graph
store and a DuckDB database, or served to agents over MCP.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.PersistentFlags().StringVar(&a.configDir, "config-dir", ".", "Directory containing cgprof.yml")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: trace|debug|info|warn|error|off (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&a.pretty, "pretty-logs", false, "Human-readable log output (overrides config)")

	rootCmd.AddCommand(
		newParseCommand(a),
		newTopCommand(a),
		newDiagramCommand(a),
		newPprofCommand(a),
		newCallsCommand(a, "callers"),
		newCallsCommand(a, "callees"),
		newIndexCommand(a),
		newProfilesCommand(a),
		newInitCommand(a),
		newServeMCPCommand(a),
	)

	return rootCmd
}

// setup loads cgprof.yml, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg.WithDefaults()
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("pretty-logs") {
		a.cfg.PrettyLogs = a.pretty
	}

	a.logger = logging.NewWithComponent(logging.Config{
		Level:  a.cfg.LogLevel,
		Pretty: a.cfg.PrettyLogs,
		Output: cmd.ErrOrStderr(),
	}, "cgprof")
	return nil
}
