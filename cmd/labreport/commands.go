package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkoosis/labreport/internal/version"
	"github.com/dkoosis/labreport/pkg/reporter"
)

// NewReportersCmd lists the registered report formats.
func NewReportersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reporters",
		Short: "List the available report formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range reporter.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// NewVersionCmd prints build information.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		},
	}
}
