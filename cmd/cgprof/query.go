package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/cgprof/internal/graph"
)

func newTopCommand(a *app) *cobra.Command {
	var (
		event string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "top <file>",
		Short: "Rank functions by an event's inclusive cost",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, res, err := loadMemGraph(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}

			if event == "" {
				event = a.cfg.Event
			}
			if event == "" {
				if len(res.Events) == 0 {
					return fmt.Errorf("%s declares no events; pass --event", args[0])
				}
				event = res.Events[0]
			}
			if limit <= 0 {
				limit = a.cfg.TopLimit
			}

			fns, err := store.TopFunctions(cmd.Context(), event, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "%s\tFUNCTION\tFILE\tKEY\n", strings.ToUpper(event))
			for _, fn := range fns {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", fn.Events[event], fn.Name, fn.File, fn.Key)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&event, "event", "", "Event to rank by (default: config, then first declared event)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows (default from config)")
	return cmd
}

func newDiagramCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diagram <file>",
		Short: "Print the call graph as a Mermaid flowchart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parseFile(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			return writeMermaid(cmd.Context(), cmd.OutOrStdout(), res)
		},
	}
}

// newCallsCommand builds the "callers" or "callees" traversal command.
func newCallsCommand(a *app, name string) *cobra.Command {
	direction := graph.Direction(name)
	var depth int
	cmd := &cobra.Command{
		Use:   name + " <file> <function>",
		Short: fmt.Sprintf("List the %s of a function as call chains", name),
		Long: fmt.Sprintf(`List the %s of a function, one call chain per line.
The function is given by its scope key (e.g. "file.c__main") or by its
name when that name is unique in the profile.`, name),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, _, err := loadMemGraph(ctx, a, args[0])
			if err != nil {
				return err
			}
			key, err := resolveFunction(ctx, store, args[1])
			if err != nil {
				return err
			}

			chains, err := store.GetCalls(ctx, key, direction, depth)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			sep := " -> "
			if direction == graph.DirectionCallers {
				sep = " <- "
			}
			for _, chain := range chains {
				fmt.Fprintln(out, strings.Join(chain.Nodes, sep))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 5, "Maximum traversal depth")
	return cmd
}

// resolveFunction maps a scope key or a unique function name to a key.
func resolveFunction(ctx context.Context, store graph.Store, ref string) (string, error) {
	fn, err := store.GetFunction(ctx, ref)
	if err != nil {
		return "", err
	}
	if fn != nil {
		return fn.Key, nil
	}

	candidates, err := store.QueryFunctions(ctx, ref, 0)
	if err != nil {
		return "", err
	}
	var keys []string
	for _, c := range candidates {
		if c.Name == ref {
			keys = append(keys, c.Key)
		}
	}
	switch len(keys) {
	case 0:
		return "", fmt.Errorf("no function matches %q", ref)
	case 1:
		return keys[0], nil
	default:
		return "", fmt.Errorf("function name %q is ambiguous: %s", ref, strings.Join(keys, ", "))
	}
}
