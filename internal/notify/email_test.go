package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/tis24dev/hypersave/internal/config"
	"github.com/tis24dev/hypersave/internal/logging"
	"github.com/tis24dev/hypersave/internal/pipeline"
	"github.com/tis24dev/hypersave/internal/types"
)

func testLogger() *logging.Logger {
	return logging.New(types.LogLevelNone, false)
}

func enabledConfig() config.NotifyConfig {
	return config.NotifyConfig{
		Enabled:  true,
		SMTPHost: "mail.example.com",
		SMTPPort: 587,
		From:     "backup@example.com",
		To:       []string{"ops@example.com"},
	}
}

func okStats() *pipeline.RunStats {
	return &pipeline.RunStats{
		RunID:       "2024-03-01_02-00-00",
		Hostname:    "hv01",
		Duration:    95 * time.Second,
		VMsTotal:    4,
		VMsSelected: 3,
		VMsExcluded: 1,
		Exported:    3,
		Archived:    3,
		Checksummed: 3,
		Uploads:     6,
		ExitCode:    types.ExitSuccess,
	}
}

func writeRunLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(path, []byte("[ts] PHASE    Backup run starting\n"), 0644))
	return path
}

func TestSendRunReport(t *testing.T) {
	n := NewEmailNotifier(enabledConfig(), testLogger())

	var sent *mail.Msg
	n.send = func(ctx context.Context, msg *mail.Msg) error {
		sent = msg
		return nil
	}

	require.NoError(t, n.SendRunReport(context.Background(), okStats(), writeRunLog(t), false))
	require.NotNil(t, sent)
	assert.Equal(t, "hypersave OK: run 2024-03-01_02-00-00 on hv01", sent.GetGenHeader(mail.HeaderSubject)[0])
}

func TestSendRunReportDisabled(t *testing.T) {
	n := NewEmailNotifier(config.NotifyConfig{Enabled: false}, testLogger())
	n.send = func(ctx context.Context, msg *mail.Msg) error {
		t.Fatal("send must not be called when notifications are disabled")
		return nil
	}

	assert.False(t, n.IsEnabled())
	assert.NoError(t, n.SendRunReport(context.Background(), okStats(), "/nonexistent.log", false))
}

func TestSendRunReportDryRun(t *testing.T) {
	n := NewEmailNotifier(enabledConfig(), testLogger())
	called := false
	n.send = func(ctx context.Context, msg *mail.Msg) error {
		called = true
		return nil
	}

	require.NoError(t, n.SendRunReport(context.Background(), okStats(), "/nonexistent.log", true))
	assert.False(t, called, "dry run skips delivery")
}

func TestSendRunReportDeliveryFailure(t *testing.T) {
	n := NewEmailNotifier(enabledConfig(), testLogger())
	n.send = func(ctx context.Context, msg *mail.Msg) error {
		return errors.New("connection refused")
	}

	err := n.SendRunReport(context.Background(), okStats(), writeRunLog(t), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email delivery failed")
}

func TestBuildSubject(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*pipeline.RunStats)
		want   string
	}{
		{"ok", func(s *pipeline.RunStats) {}, "hypersave OK: run 2024-03-01_02-00-00 on hv01"},
		{"failed", func(s *pipeline.RunStats) {
			s.ExitCode = types.ExitExportError
		}, "hypersave FAILED: run 2024-03-01_02-00-00 on hv01"},
		{"nothing to do", func(s *pipeline.RunStats) {
			s.NothingToDo = true
		}, "hypersave nothing to do: run 2024-03-01_02-00-00 on hv01"},
		{"verify failure downgrades to warning", func(s *pipeline.RunStats) {
			s.VerifyFailures = 1
			s.RotationSkipped = true
		}, "hypersave WARNING: run 2024-03-01_02-00-00 on hv01"},
		{"upload failure downgrades to warning", func(s *pipeline.RunStats) {
			s.UploadFailures = 2
		}, "hypersave WARNING: run 2024-03-01_02-00-00 on hv01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := okStats()
			tt.mutate(stats)
			assert.Equal(t, tt.want, buildSubject(stats))
		})
	}
}

func TestBuildReportBody(t *testing.T) {
	stats := okStats()
	stats.ArchiveBytes = 3 * 1024 * 1024 * 1024
	body := BuildReportBody(stats, writeRunLog(t))

	assert.Contains(t, body, "Backup run 2024-03-01_02-00-00 on hv01")
	assert.Contains(t, body, "Duration: 1m35s")
	assert.Contains(t, body, "Virtual machines: 3 selected of 4 (1 excluded)")
	assert.Contains(t, body, "3.0 GB")
	assert.Contains(t, body, "----- run log -----")
	assert.Contains(t, body, "Backup run starting")
}

func TestBuildReportBodyRotationSkipped(t *testing.T) {
	stats := okStats()
	stats.VerifyFailures = 1
	stats.RotationSkipped = true

	body := BuildReportBody(stats, "/nonexistent.log")
	assert.Contains(t, body, "Rotation: SKIPPED")
	assert.Contains(t, body, "run log unavailable")
}

func TestBuildReportBodyNothingToDo(t *testing.T) {
	stats := okStats()
	stats.NothingToDo = true

	body := BuildReportBody(stats, "/nonexistent.log")
	assert.Contains(t, body, "No virtual machines were eligible")
	assert.NotContains(t, body, "Uploads:")
}
