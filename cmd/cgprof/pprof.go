package main

import (
	"github.com/spf13/cobra"
)

func newPprofCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "pprof <file>",
		Short: "Convert a profile to pprof format",
		Long: `Convert a callgrind profile to a gzip-compressed pprof profile with one
sample type per declared event. Writes to stdout unless -o is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parseFile(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			return writePprofFile(a, cmd.OutOrStdout(), output, res)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file ("-" for stdout)`)
	return cmd
}
