package archive

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tis24dev/hypersave/internal/logging"
)

// ToolArchiver shells out to a 7-Zip compatible binary. Archives are
// AES-encrypted with header encryption on (-mhe=on) so even file names inside
// the archive are unreadable without the password, at maximum compression.
type ToolArchiver struct {
	binary    string
	password  string
	extension string
	logger    *logging.Logger

	execCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewToolArchiver creates an archiver backed by the given external binary.
func NewToolArchiver(binary, password, extension string, logger *logging.Logger) *ToolArchiver {
	return &ToolArchiver{
		binary:      binary,
		password:    password,
		extension:   extension,
		logger:      logger,
		execCommand: defaultExecCommand,
	}
}

func defaultExecCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Extension returns the configured archive extension.
func (a *ToolArchiver) Extension() string {
	return a.extension
}

// Compress archives sourceDir into destFile with the external tool.
func (a *ToolArchiver) Compress(ctx context.Context, sourceDir, destFile string) error {
	args := []string{
		"a",
		"-mx=9",
		"-mhe=on",
		"-p" + a.password,
		destFile,
		sourceDir,
	}

	a.logger.Debug("Running archiver: %s a -mx=9 -mhe=on -p*** %s %s", a.binary, destFile, sourceDir)

	out, err := a.execCommand(ctx, a.binary, args...)
	if err != nil {
		return fmt.Errorf("archiver failed for %s: %w (output: %s)", sourceDir, err, sanitizeOutput(out, a.password))
	}
	return nil
}

// sanitizeOutput trims tool output for error messages and makes sure the
// password never leaks into logs even if the tool echoes its arguments.
func sanitizeOutput(out []byte, password string) string {
	s := strings.TrimSpace(string(out))
	if password != "" {
		s = strings.ReplaceAll(s, password, "***")
	}
	if len(s) > 500 {
		s = s[:500] + "..."
	}
	if s == "" {
		return "<none>"
	}
	return s
}
