package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/cgprof/internal/config"
)

func newInitCommand(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a cgprof.yml with default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.Write(a.configDir, config.ProjectConfig{}.WithDefaults(), force)
			if err != nil {
				return err
			}
			a.logger.Debug().Str("path", path).Msg("config written")
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing cgprof.yml")
	return cmd
}
