//go:build cgo

package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/cgprof/internal/database"
	cgerrors "github.com/dusk-indust/cgprof/internal/errors"
	"github.com/dusk-indust/cgprof/internal/graph"
)

func newIndexCommand(a *app) *cobra.Command {
	var noGraph bool
	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Store a profile in the DuckDB history and the Kuzu call graph",
		Long: `Parse a profile, append it to the DuckDB profile history and rebuild the
on-disk Kuzu call graph from it. Paths come from cgprof.yml (graphPath,
databasePath).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, err := parseFile(ctx, a, args[0])
			if err != nil {
				return err
			}

			db, err := database.Open(a.cfg.DatabasePath, a.logger)
			if err != nil {
				return err
			}
			defer cgerrors.DeferClose(a.logger, db, "failed to close database")

			id, err := db.SaveResult(ctx, args[0], res)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stored profile %s (%d entries, %d calls, %d errors)\n",
				id, len(res.Profile), len(res.Calls), len(res.Errors))

			if noGraph {
				return nil
			}

			// The graph holds only the most recently indexed profile.
			for _, p := range []string{a.cfg.GraphPath, a.cfg.GraphPath + ".wal"} {
				if err := os.RemoveAll(p); err != nil {
					return fmt.Errorf("reset graph: %w", err)
				}
			}
			store, err := graph.NewKuzuFileStore(a.cfg.GraphPath)
			if err != nil {
				return fmt.Errorf("open graph: %w", err)
			}
			defer cgerrors.DeferClose(a.logger, store, "failed to close graph store")

			stats, err := graph.Load(ctx, store, res)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Graph %s: %d files, %d functions, %d clusters, %d edges\n",
				a.cfg.GraphPath, stats.FileCount, stats.FunctionCount, stats.ClusterCount, stats.EdgeCount)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noGraph, "no-graph", false, "Only store the profile in the database")
	return cmd
}

func newProfilesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List profiles stored by index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(a.cfg.DatabasePath); err != nil {
				return fmt.Errorf("no database found at %s\nRun 'cgprof index <file>' first", a.cfg.DatabasePath)
			}
			db, err := database.Open(a.cfg.DatabasePath, a.logger)
			if err != nil {
				return err
			}
			defer cgerrors.DeferClose(a.logger, db, "failed to close database")

			profiles, err := db.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSOURCE\tEVENTS\tENTRIES\tERRORS")
			for _, p := range profiles {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
					p.ID, p.CreatedAt.Format("2006-01-02 15:04:05"), p.Source,
					strings.Join(p.Events, ","), p.EntryCount, p.ErrorCount)
			}
			return tw.Flush()
		},
	}
}
