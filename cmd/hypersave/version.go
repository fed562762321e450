package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tis24dev/hypersave/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hypersave version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hypersave %s\n", version.String())
			if version.Commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", version.Commit)
			}
			if version.Date != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "built:  %s\n", version.Date)
			}
		},
	}
}
