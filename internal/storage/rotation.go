// Package storage applies retention policies to local and remote backup
// generations. Run IDs are time-sortable strings, so sorting entry names
// descending yields newest-first and retention keeps the first N.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/tis24dev/hypersave/internal/config"
	"github.com/tis24dev/hypersave/internal/logging"
	"github.com/tis24dev/hypersave/internal/remote"
)

// Rotator deletes backup generations beyond the configured retention counts.
// All deletion failures are logged and skipped, never escalated: rotation is
// best-effort cleanup.
type Rotator struct {
	sync   remote.SyncClient
	logger *logging.Logger
	dryRun bool
}

// NewRotator creates a rotator. sync may be nil when no remotes are configured.
func NewRotator(sync remote.SyncClient, logger *logging.Logger, dryRun bool) *Rotator {
	return &Rotator{sync: sync, logger: logger, dryRun: dryRun}
}

// RemoteBase returns the rclone URI of a remote target's base path.
func RemoteBase(rc config.RemoteConfig) string {
	return fmt.Sprintf("%s:%s", rc.Name, rc.Path)
}

// RemoteRunDir returns the rclone URI of one run's folder on a remote target.
func RemoteRunDir(rc config.RemoteConfig, runID string) string {
	return fmt.Sprintf("%s:%s", rc.Name, path.Join(rc.Path, runID))
}

// RotateRemote keeps the newest rc.Retention run folders under the remote's
// base path and purges the rest. Returns the number of purged entries.
func (r *Rotator) RotateRemote(ctx context.Context, rc config.RemoteConfig) (int, error) {
	if rc.Retention <= 0 {
		r.logger.Warning("Remote %s: retention disabled (count %d), keeping everything", rc.Name, rc.Retention)
		return 0, nil
	}

	base := RemoteBase(rc)
	entries, err := r.sync.List(ctx, base)
	if err != nil {
		return 0, fmt.Errorf("cannot list remote %s: %w", rc.Name, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	victims := beyondRetention(names, rc.Retention)
	if len(victims) == 0 {
		r.logger.Info("Remote %s: %d backup(s) within retention %d, nothing to delete", rc.Name, len(names), rc.Retention)
		return 0, nil
	}

	deleted := 0
	for _, name := range victims {
		target := fmt.Sprintf("%s:%s", rc.Name, path.Join(rc.Path, name))
		if r.dryRun {
			r.logger.Info("[DRY RUN] Would purge remote backup: %s", target)
			deleted++
			continue
		}
		if err := r.sync.Purge(ctx, target); err != nil {
			r.logger.Warning("Failed to purge %s: %v", target, err)
			continue
		}
		r.logger.Info("Deleted old remote backup: %s", target)
		deleted++
	}
	return deleted, nil
}

// RotateLocal keeps the newest retention run folders under archiveRoot,
// never touching the reserved folder names (export scratch space and logs).
// Returns the number of deleted entries.
func (r *Rotator) RotateLocal(ctx context.Context, archiveRoot string, retention int, reserved []string) (int, error) {
	if retention <= 0 {
		r.logger.Warning("Local storage: retention disabled (count %d), keeping everything", retention)
		return 0, nil
	}

	dirEntries, err := os.ReadDir(archiveRoot)
	if err != nil {
		return 0, fmt.Errorf("cannot list local archive root %s: %w", archiveRoot, err)
	}

	reservedSet := make(map[string]bool, len(reserved))
	for _, name := range reserved {
		reservedSet[name] = true
	}

	names := []string{}
	for _, e := range dirEntries {
		if !e.IsDir() || reservedSet[e.Name()] {
			continue
		}
		names = append(names, e.Name())
	}

	victims := beyondRetention(names, retention)
	if len(victims) == 0 {
		r.logger.Info("Local storage: %d backup(s) within retention %d, nothing to delete", len(names), retention)
		return 0, nil
	}

	deleted := 0
	for _, name := range victims {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		target := filepath.Join(archiveRoot, name)
		if r.dryRun {
			r.logger.Info("[DRY RUN] Would delete local backup: %s", target)
			deleted++
			continue
		}
		if err := os.RemoveAll(target); err != nil {
			r.logger.Warning("Failed to delete %s: %v", target, err)
			continue
		}
		r.logger.Info("Deleted old local backup: %s", target)
		deleted++
	}
	return deleted, nil
}

// RotateLogs applies the local retention count to per-run log files.
func (r *Rotator) RotateLogs(ctx context.Context, logRoot string, retention int) (int, error) {
	if retention <= 0 {
		return 0, nil
	}

	matches, err := filepath.Glob(filepath.Join(logRoot, "*.log"))
	if err != nil {
		return 0, fmt.Errorf("cannot list log files in %s: %w", logRoot, err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}

	deleted := 0
	for _, name := range beyondRetention(names, retention) {
		target := filepath.Join(logRoot, name)
		if r.dryRun {
			r.logger.Info("[DRY RUN] Would delete log file: %s", target)
			deleted++
			continue
		}
		if err := os.Remove(target); err != nil {
			r.logger.Warning("Failed to delete %s: %v", target, err)
			continue
		}
		r.logger.Debug("Deleted old log file: %s", target)
		deleted++
	}
	return deleted, nil
}

// beyondRetention sorts names descending (newest first for time-sortable run
// IDs) and returns everything past the first keep entries.
func beyondRetention(names []string, keep int) []string {
	if len(names) <= keep {
		return nil
	}
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Sort(sort.Reverse(sort.StringSlice(sorted)))
	return sorted[keep:]
}
