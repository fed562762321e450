package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tis24dev/hypersave/internal/archive"
	"github.com/tis24dev/hypersave/internal/config"
	"github.com/tis24dev/hypersave/internal/hypervisor"
	"github.com/tis24dev/hypersave/internal/logging"
	"github.com/tis24dev/hypersave/internal/metrics"
	"github.com/tis24dev/hypersave/internal/notify"
	"github.com/tis24dev/hypersave/internal/pipeline"
	"github.com/tis24dev/hypersave/internal/remote"
	"github.com/tis24dev/hypersave/internal/types"
	"github.com/tis24dev/hypersave/internal/version"
	"github.com/tis24dev/hypersave/pkg/utils"
)

func newBackupCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Run the full backup pipeline once",
		RunE: func(cmd *cobra.Command, args []string) error {
			code := runBackup(cmd.Context(), flags)
			if code != types.ExitSuccess {
				os.Exit(code.Int())
			}
			return nil
		},
	}
}

func runBackup(ctx context.Context, flags *globalFlags) (code types.ExitCode) {
	level := types.LogLevelInfo
	if flags.debug {
		level = types.LogLevelDebug
	}
	logger := logging.New(level, !flags.noColor)

	defer func() {
		if r := recover(); r != nil {
			logger.Critical("Unhandled panic: %v", r)
			code = types.ExitPanicError
		}
	}()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		logger.Critical("Configuration error: %v", err)
		return types.ExitConfigError
	}
	cfg.DryRun = flags.dryRun
	if !flags.debug {
		logger.SetLevel(types.ParseLogLevel(cfg.LogLevel))
	}

	if err := resolveSecrets(cfg); err != nil {
		logger.Critical("%v", err)
		return types.ExitConfigError
	}

	logger.Info("hypersave %s starting (config: %s)", version.String(), flags.configPath)
	if cfg.DryRun {
		logger.Warning("Dry-run mode: no export, archive, upload or deletion will be executed")
	}

	// The run context is created up front so the per-run log file can capture
	// every pipeline line from the first stage on.
	run := pipeline.NewRunContext(cfg, time.Now())
	if err := utils.EnsureDir(cfg.LogPath); err != nil {
		logger.Critical("Cannot create log directory %s: %v", cfg.LogPath, err)
		return types.ExitConfigError
	}
	if err := logger.OpenLogFile(run.LogFile); err != nil {
		logger.Critical("%v", err)
		return types.ExitConfigError
	}
	defer logger.CloseLogFile()

	hv := hypervisor.NewCommandClient(cfg.Hypervisor.Binary, logger)

	var archiver archive.Archiver
	if cfg.Archive.Tool != "" {
		archiver = archive.NewToolArchiver(cfg.Archive.Tool, cfg.Archive.Password, cfg.Archive.Extension, logger)
	} else {
		archiver = archive.NewBuiltinArchiver(cfg.Archive.Password, logger)
	}

	var sync remote.SyncClient
	if len(cfg.Remotes) > 0 {
		sync = remote.NewRcloneClient(cfg.BandwidthLimit, logger)
	}

	stats, runErr := pipeline.New(cfg, logger, hv, archiver, sync).Run(ctx, run)
	if runErr != nil {
		logger.Error("Backup run failed: %v", runErr)
	}

	if err := metrics.NewPrometheusExporter(cfg.MetricsTextfileDir, logger).Export(stats); err != nil {
		logger.Warning("Metrics export failed: %v", err)
	}

	notifier := notify.NewEmailNotifier(cfg.Notify, logger)
	if err := notifier.SendRunReport(ctx, stats, run.LogFile, cfg.DryRun); err != nil {
		logger.Warning("Notification failed: %v", err)
	}

	logger.Info("Backup run %s finished: %s", stats.RunID, stats.ExitCode)
	return stats.ExitCode
}

// resolveSecrets pulls secrets from the environment, falling back to an
// interactive prompt for the archive password when stdin is a terminal.
func resolveSecrets(cfg *config.Config) error {
	err := cfg.ResolveSecrets()
	if err == nil {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return err
	}

	fmt.Fprintf(os.Stderr, "Archive password (%s not set): ", cfg.Archive.PasswordEnv)
	pw, perr := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if perr != nil {
		return fmt.Errorf("cannot read archive password: %w", perr)
	}
	if strings.TrimSpace(string(pw)) == "" {
		return err
	}
	cfg.Archive.Password = strings.TrimSpace(string(pw))
	return nil
}
