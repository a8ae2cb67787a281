//go:build !cgo

package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var errNoCgo = errors.New("this command needs the Kuzu and DuckDB backends; rebuild with CGO_ENABLED=1")

func newIndexCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index <file>",
		Short: "Store a profile in the DuckDB history and the Kuzu call graph (requires cgo)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, _ []string) error {
			return errNoCgo
		},
	}
}

func newProfilesCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List profiles stored by index (requires cgo)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return errNoCgo
		},
	}
}
