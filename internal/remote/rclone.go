package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tis24dev/hypersave/internal/logging"
)

// RcloneClient implements SyncClient by shelling out to rclone.
//
// The bandwidth limit string is passed straight to --bwlimit and may use
// rclone's timetable syntax (e.g. "18:00,1M 23:00,off") to throttle uploads
// during a defined evening window and run unrestricted otherwise.
type RcloneClient struct {
	binary         string
	bandwidthLimit string
	logger         *logging.Logger

	execCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewRcloneClient creates a client using the rclone binary found in PATH.
func NewRcloneClient(bandwidthLimit string, logger *logging.Logger) *RcloneClient {
	return &RcloneClient{
		binary:         "rclone",
		bandwidthLimit: bandwidthLimit,
		logger:         logger,
		execCommand:    defaultExecCommand,
	}
}

func defaultExecCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (c *RcloneClient) run(ctx context.Context, args ...string) ([]byte, error) {
	c.logger.Debug("Running: %s %s", c.binary, strings.Join(args, " "))
	out, err := c.execCommand(ctx, c.binary, args...)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return out, fmt.Errorf("rclone operation timeout")
	}
	return out, err
}

// Copy uploads localPath into remoteDir, honoring the bandwidth schedule.
func (c *RcloneClient) Copy(ctx context.Context, localPath, remoteDir string) error {
	args := []string{"copy"}
	if c.bandwidthLimit != "" {
		args = append(args, "--bwlimit", c.bandwidthLimit)
	}
	args = append(args, "--progress", "--stats", "10s", localPath, remoteDir)

	out, err := c.run(ctx, args...)
	if err != nil {
		return fmt.Errorf("rclone copy failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// List returns the entries directly under remoteDir via "rclone lsjson".
func (c *RcloneClient) List(ctx context.Context, remoteDir string) ([]Entry, error) {
	out, err := c.run(ctx, "lsjson", remoteDir)
	if err != nil {
		return nil, fmt.Errorf("rclone lsjson failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	var entries []Entry
	if err := json.Unmarshal(out, &entries); err != nil {
		return nil, fmt.Errorf("rclone lsjson returned invalid JSON: %w", err)
	}
	return entries, nil
}

// Compare checks localPath against its copy under remoteDir via
// "rclone check", scoped to the single file with --include.
func (c *RcloneClient) Compare(ctx context.Context, localPath, remoteDir string) error {
	args := []string{
		"check",
		"--one-way",
		"--include", filepath.Base(localPath),
		filepath.Dir(localPath),
		remoteDir,
	}

	out, err := c.run(ctx, args...)
	if err != nil {
		return fmt.Errorf("rclone check failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Purge recursively deletes remoteDir via "rclone purge".
func (c *RcloneClient) Purge(ctx context.Context, remoteDir string) error {
	out, err := c.run(ctx, "purge", remoteDir)
	if err != nil {
		return fmt.Errorf("rclone purge failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
