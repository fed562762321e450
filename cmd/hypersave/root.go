package main

import (
	"github.com/spf13/cobra"
)

// globalFlags holds the persistent command-line flags.
type globalFlags struct {
	configPath string
	debug      bool
	dryRun     bool
	noColor    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "hypersave",
		Short:         "Encrypted VM backup pipeline with verified rotation",
		Long:          "hypersave exports virtual machines, archives them encrypted, uploads the archives\nto remote targets, verifies every remote copy and only then rotates old backups.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "/etc/hypersave/config.yaml", "path to the configuration file")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "log every action without executing it")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored console output")

	root.AddCommand(newBackupCmd(flags))
	root.AddCommand(newCheckConfigCmd(flags))
	root.AddCommand(newVersionCmd())

	return root
}
