// Package notify sends the end-of-run email: a short summary followed by the
// full run log. Notification failures are logged and swallowed; they never
// fail a run whose backup work is already durable.
package notify

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/wneessen/go-mail"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tis24dev/hypersave/internal/config"
	"github.com/tis24dev/hypersave/internal/logging"
	"github.com/tis24dev/hypersave/internal/pipeline"
	"github.com/tis24dev/hypersave/pkg/utils"
)

// EmailNotifier delivers run reports over SMTP.
type EmailNotifier struct {
	config config.NotifyConfig
	logger *logging.Logger

	// send is swappable for tests.
	send func(ctx context.Context, msg *mail.Msg) error
}

// NewEmailNotifier creates an email notifier from the notification settings.
func NewEmailNotifier(cfg config.NotifyConfig, logger *logging.Logger) *EmailNotifier {
	n := &EmailNotifier{config: cfg, logger: logger}
	n.send = n.smtpSend
	return n
}

// IsEnabled returns whether email notifications are enabled.
func (n *EmailNotifier) IsEnabled() bool {
	return n.config.Enabled
}

func (n *EmailNotifier) smtpSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(n.config.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if n.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.config.Username),
			mail.WithPassword(n.config.Password),
		)
	}

	client, err := mail.NewClient(n.config.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("cannot create SMTP client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// SendRunReport emails the run summary plus the full run log. dryRun skips
// delivery with a log line. All errors are returned for logging only; the
// caller must not escalate them.
func (n *EmailNotifier) SendRunReport(ctx context.Context, stats *pipeline.RunStats, logFilePath string, dryRun bool) error {
	if !n.config.Enabled {
		n.logger.Debug("Email notifications disabled, skipping report")
		return nil
	}

	subject := buildSubject(stats)
	body := BuildReportBody(stats, logFilePath)

	if dryRun {
		n.logger.Info("[DRY RUN] Would send email %q to %s", subject, strings.Join(n.config.To, ", "))
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(n.config.From); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", n.config.From, err)
	}
	if err := msg.To(n.config.To...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := n.send(ctx, msg); err != nil {
		return fmt.Errorf("email delivery failed: %w", err)
	}

	n.logger.Info("Run report emailed to %s", strings.Join(n.config.To, ", "))
	return nil
}

func buildSubject(stats *pipeline.RunStats) string {
	outcome := "OK"
	switch {
	case !stats.Succeeded():
		outcome = "FAILED"
	case stats.NothingToDo:
		outcome = "nothing to do"
	case stats.RotationSkipped || stats.VerifyFailures > 0 || stats.UploadFailures > 0:
		outcome = "WARNING"
	}
	return fmt.Sprintf("hypersave %s: run %s on %s", outcome, stats.RunID, stats.Hostname)
}

// BuildReportBody renders the notification body: a summary block followed by
// the complete run log.
func BuildReportBody(stats *pipeline.RunStats, logFilePath string) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	b.WriteString("Backup run " + stats.RunID + " on " + stats.Hostname + "\n")
	b.WriteString("Duration: " + utils.FormatDuration(stats.Duration) + "\n")
	b.WriteString("Result: " + stats.ExitCode.String() + "\n\n")

	if stats.NothingToDo {
		b.WriteString("No virtual machines were eligible for backup.\n")
	} else {
		p.Fprintf(&b, "Virtual machines: %d selected of %d (%d excluded)\n", stats.VMsSelected, stats.VMsTotal, stats.VMsExcluded)
		p.Fprintf(&b, "Exported: %d, archived: %d (%s)\n", stats.Exported, stats.Archived, utils.FormatBytes(stats.ArchiveBytes))
		p.Fprintf(&b, "Checksums: %d written, %d skipped, %d failed\n", stats.Checksummed, stats.ChecksumSkipped, stats.ChecksumFailures)
		p.Fprintf(&b, "Uploads: %d completed, %d failed\n", stats.Uploads, stats.UploadFailures)
		p.Fprintf(&b, "Verifications: %d passed, %d skipped, %d failed\n", stats.Verifications, stats.VerifySkipped, stats.VerifyFailures)
		if stats.RotationSkipped {
			b.WriteString("Rotation: SKIPPED (verification failures this run)\n")
		} else {
			p.Fprintf(&b, "Rotation: %d remote, %d local, %d log file(s) deleted\n", stats.RemoteDeleted, stats.LocalDeleted, stats.LogsDeleted)
		}
	}

	b.WriteString("\n----- run log -----\n")
	if logData, err := os.ReadFile(logFilePath); err == nil {
		b.Write(logData)
	} else {
		fmt.Fprintf(&b, "(run log unavailable: %v)\n", err)
	}
	return b.String()
}
