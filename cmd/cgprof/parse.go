package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/cgprof/internal/batch"
	"github.com/dusk-indust/cgprof/internal/callgrind"
	cgerrors "github.com/dusk-indust/cgprof/internal/errors"
	"github.com/dusk-indust/cgprof/internal/export"
	"github.com/dusk-indust/cgprof/internal/graph"
)

func newParseCommand(a *app) *cobra.Command {
	var (
		withErrors bool
		format     string
		output     string
		progress   bool
	)
	cmd := &cobra.Command{
		Use:   "parse <file>...",
		Short: "Parse profiles and print them as JSON, Mermaid or pprof",
		Long: `Parse one or more callgrind files concurrently. JSON output is one export
object per file (an array when several files are given). Mermaid and pprof
output accept a single file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = a.cfg.Format
			}
			if format != "json" && len(args) > 1 {
				return fmt.Errorf("--format %s accepts a single file", format)
			}

			var onProgress func(batch.ProgressEvent)
			if progress {
				var mu sync.Mutex
				stderr := cmd.ErrOrStderr()
				onProgress = func(ev batch.ProgressEvent) {
					mu.Lock()
					defer mu.Unlock()
					fmt.Fprintln(stderr, batch.FormatProgress(ev))
				}
			}

			results, err := batch.NewFanOut(a.cfg.Concurrency, a.logger, onProgress).Run(cmd.Context(), args)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				exports := make([]*export.ProfileExport, 0, len(results))
				for _, r := range results {
					exp := export.BuildProfileExport(r.Path, r.Result)
					if !withErrors {
						exp.Errors = nil
					}
					exports = append(exports, exp)
				}
				if len(exports) == 1 {
					return export.WriteJSON(cmd.OutOrStdout(), exports[0])
				}
				return export.WriteJSON(cmd.OutOrStdout(), exports)
			case "mermaid":
				return writeMermaid(cmd.Context(), cmd.OutOrStdout(), results[0].Result)
			case "pprof":
				return writePprofFile(a, cmd.OutOrStdout(), output, results[0].Result)
			default:
				return fmt.Errorf("unknown format %q (want json, mermaid or pprof)", format)
			}
		},
	}
	cmd.Flags().BoolVar(&withErrors, "errors", false, "Include unrecognized lines in JSON output")
	cmd.Flags().StringVar(&format, "format", "", "Output format: json|mermaid|pprof (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file for pprof format")
	cmd.Flags().BoolVar(&progress, "progress", false, "Print per-file progress to stderr")
	return cmd
}

// parseFile runs a single parse session over path.
func parseFile(ctx context.Context, a *app, path string) (*callgrind.Result, error) {
	return callgrind.NewParser(path, callgrind.WithLogger(a.logger)).Parse(ctx)
}

// loadMemGraph parses path and loads it into an in-memory call graph.
func loadMemGraph(ctx context.Context, a *app, path string) (*graph.MemStore, *callgrind.Result, error) {
	res, err := parseFile(ctx, a, path)
	if err != nil {
		return nil, nil, err
	}
	store := graph.NewMemStore()
	if _, err := graph.Load(ctx, store, res); err != nil {
		return nil, nil, err
	}
	return store, res, nil
}

func writeMermaid(ctx context.Context, w io.Writer, res *callgrind.Result) error {
	store := graph.NewMemStore()
	if _, err := graph.Load(ctx, store, res); err != nil {
		return err
	}
	diagram, err := export.GenerateMermaid(ctx, store)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, diagram)
	return err
}

// writePprofFile writes res as gzip-compressed pprof to path, or to stdout
// when path is empty or "-".
func writePprofFile(a *app, stdout io.Writer, path string, res *callgrind.Result) error {
	if path == "" || path == "-" {
		return export.WritePprof(stdout, res)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer cgerrors.DeferClose(a.logger, f, "failed to close pprof output")
	if err := export.WritePprof(f, res); err != nil {
		return err
	}
	a.logger.Info().Str("path", path).Msg("pprof profile written")
	return nil
}
