// Package metrics writes run statistics in Prometheus textfile format for
// collection by node_exporter.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tis24dev/hypersave/internal/logging"
	"github.com/tis24dev/hypersave/internal/pipeline"
)

// PrometheusExporter writes run metrics to hypersave.prom in a node_exporter
// textfile collector directory.
type PrometheusExporter struct {
	textfileDir string
	logger      *logging.Logger
}

// NewPrometheusExporter creates an exporter for the provided directory.
// An empty directory disables exporting.
func NewPrometheusExporter(textfileDir string, logger *logging.Logger) *PrometheusExporter {
	return &PrometheusExporter{
		textfileDir: strings.TrimRight(textfileDir, "/"),
		logger:      logger,
	}
}

// Export writes the run's metrics snapshot atomically (tmp file + rename).
func (pe *PrometheusExporter) Export(stats *pipeline.RunStats) error {
	if pe == nil || stats == nil || pe.textfileDir == "" {
		return nil
	}

	if err := os.MkdirAll(pe.textfileDir, 0o755); err != nil {
		return fmt.Errorf("create metrics directory %s: %w", pe.textfileDir, err)
	}

	tmpPath := filepath.Join(pe.textfileDir, "hypersave.prom.tmp")
	finalPath := filepath.Join(pe.textfileDir, "hypersave.prom")

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create metrics file %s: %w", tmpPath, err)
	}
	defer f.Close()

	writeMetric := func(name, help string, value string) {
		fmt.Fprintf(f, "# HELP %s %s\n", name, help)
		fmt.Fprintf(f, "# TYPE %s gauge\n", name)
		fmt.Fprintf(f, "%s %s\n", name, value)
	}

	rotationSkipped := 0
	if stats.RotationSkipped {
		rotationSkipped = 1
	}

	writeMetric("hypersave_start_time_seconds", "Unix timestamp of run start",
		fmt.Sprintf("%d", stats.StartTime.Unix()))
	writeMetric("hypersave_end_time_seconds", "Unix timestamp of run end",
		fmt.Sprintf("%d", stats.EndTime.Unix()))
	writeMetric("hypersave_duration_seconds", "Duration of the last run in seconds",
		fmt.Sprintf("%.2f", stats.Duration.Seconds()))
	writeMetric("hypersave_exit_code", "Exit code of the last run",
		fmt.Sprintf("%d", stats.ExitCode.Int()))
	writeMetric("hypersave_vms_selected", "Virtual machines selected for backup",
		fmt.Sprintf("%d", stats.VMsSelected))
	writeMetric("hypersave_archives_created", "Archives created by the last run",
		fmt.Sprintf("%d", stats.Archived))
	writeMetric("hypersave_archive_bytes", "Total size of archives created by the last run",
		fmt.Sprintf("%d", stats.ArchiveBytes))
	writeMetric("hypersave_upload_failures", "Upload failures in the last run",
		fmt.Sprintf("%d", stats.UploadFailures))
	writeMetric("hypersave_verify_failures", "Verification failures in the last run",
		fmt.Sprintf("%d", stats.VerifyFailures))
	writeMetric("hypersave_rotation_skipped", "1 when rotation was suppressed by the verification gate",
		fmt.Sprintf("%d", rotationSkipped))
	writeMetric("hypersave_backups_deleted", "Backup generations deleted by rotation (local + remote)",
		fmt.Sprintf("%d", stats.LocalDeleted+stats.RemoteDeleted))

	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync metrics file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close metrics file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("publish metrics file: %w", err)
	}

	pe.logger.Debug("Metrics written to %s", finalPath)
	return nil
}
