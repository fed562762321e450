package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tis24dev/hypersave/internal/config"
)

func newCheckConfigCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration file and print the effective policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK: %s\n\n", flags.configPath)

			wildcard := cfg.Wildcard()
			fmt.Fprintf(out, "Policy defaults: running_only=%t skip_checksum=%t skip_verify=%t\n",
				wildcard.RunningOnly, wildcard.SkipChecksum, wildcard.SkipVerify)
			for _, vm := range cfg.VMs {
				if vm.ID == config.WildcardID {
					continue
				}
				fmt.Fprintf(out, "  VM %s: exclude=%t skip_checksum=%t skip_verify=%t\n",
					vm.ID, vm.Exclude, vm.SkipChecksum, vm.SkipVerify)
			}

			fmt.Fprintf(out, "\nLocal: archives=%s exports=%s retention=%d\n",
				cfg.Local.ArchivePath, cfg.Local.ExportPath, cfg.Local.Retention)

			if len(cfg.Remotes) == 0 {
				fmt.Fprintln(out, "Remotes: none configured")
			}
			for _, r := range cfg.Remotes {
				fmt.Fprintf(out, "Remote %s (%s): %s:%s retention=%d\n",
					r.Name, r.Type, r.Name, r.Path, r.Retention)
			}

			if cfg.Notify.Enabled {
				fmt.Fprintf(out, "Notifications: %s:%d -> %v\n",
					cfg.Notify.SMTPHost, cfg.Notify.SMTPPort, cfg.Notify.To)
			} else {
				fmt.Fprintln(out, "Notifications: disabled")
			}
			return nil
		},
	}
}
