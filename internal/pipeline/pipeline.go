package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tis24dev/hypersave/internal/archive"
	"github.com/tis24dev/hypersave/internal/checksum"
	"github.com/tis24dev/hypersave/internal/config"
	"github.com/tis24dev/hypersave/internal/hypervisor"
	"github.com/tis24dev/hypersave/internal/logging"
	"github.com/tis24dev/hypersave/internal/remote"
	"github.com/tis24dev/hypersave/internal/storage"
	"github.com/tis24dev/hypersave/internal/types"
	"github.com/tis24dev/hypersave/pkg/utils"
)

// StageError represents a fatal pipeline error with its stage and exit code.
type StageError struct {
	Stage string
	Err   error
	Code  types.ExitCode
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Pipeline sequences one backup run over the external collaborators.
// Stages run strictly in order; no stage starts before the previous one
// finished for all its items.
type Pipeline struct {
	cfg      *config.Config
	logger   *logging.Logger
	hv       hypervisor.Client
	archiver archive.Archiver
	sync     remote.SyncClient
	rotator  *storage.Rotator
	now      func() time.Time
}

// New creates a pipeline. sync may be nil only when no remotes are configured.
func New(cfg *config.Config, logger *logging.Logger, hv hypervisor.Client, archiver archive.Archiver, sync remote.SyncClient) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		logger:   logger,
		hv:       hv,
		archiver: archiver,
		sync:     sync,
		rotator:  storage.NewRotator(sync, logger, cfg.DryRun),
		now:      time.Now,
	}
}

// Run executes every stage of the given run. The returned stats are always
// valid, also when err is non-nil. Cleanup of the export scratch folder runs
// on every path, including fatal ones and the "nothing to do" short-circuit.
func (p *Pipeline) Run(ctx context.Context, run *RunContext) (stats *RunStats, err error) {
	stats = &RunStats{RunID: run.ID, StartTime: run.StartTime, ExitCode: types.ExitSuccess}
	if hostname, herr := os.Hostname(); herr == nil {
		stats.Hostname = hostname
	}

	defer func() {
		p.cleanupStage(run)
		stats.EndTime = p.now()
		stats.Duration = stats.EndTime.Sub(stats.StartTime)
		if err != nil {
			var stageErr *StageError
			if errors.As(err, &stageErr) {
				stats.ExitCode = stageErr.Code
			} else {
				stats.ExitCode = types.ExitGenericError
			}
		}
	}()

	p.logger.Phase("Backup run %s starting", run.ID)

	selected, err := p.selectStage(ctx, stats)
	if err != nil {
		return stats, err
	}
	if len(selected) == 0 {
		stats.NothingToDo = true
		p.logger.Info("No virtual machines eligible for backup, nothing to do")
		return stats, nil
	}

	if err = p.exportStage(ctx, run, selected, stats); err != nil {
		return stats, err
	}
	if err = p.archiveStage(ctx, run, stats); err != nil {
		return stats, err
	}
	p.checksumStage(ctx, run, stats)
	p.uploadStage(ctx, run, stats)
	p.verifyStage(ctx, run, stats)
	p.rotateStage(ctx, run, stats)

	return stats, nil
}

// selectStage decides the VM set for this run: the global running-only policy
// first, then the per-VM exclusion list. Pure selection, no side effects.
func (p *Pipeline) selectStage(ctx context.Context, stats *RunStats) ([]hypervisor.VirtualMachine, error) {
	p.logger.Phase("Selecting virtual machines")

	vms, err := p.hv.ListVMs(ctx)
	if err != nil {
		return nil, &StageError{Stage: "selection", Err: err, Code: types.ExitHypervisorError}
	}
	stats.VMsTotal = len(vms)

	wildcard := p.cfg.Wildcard()
	if wildcard.RunningOnly {
		running := 0
		for _, vm := range vms {
			if vm.Running() {
				running++
			}
		}
		if running == 0 {
			p.logger.Info("Running-only policy active and no virtual machine is running")
			return nil, nil
		}
	}

	selected := []hypervisor.VirtualMachine{}
	for _, vm := range vms {
		if wildcard.RunningOnly && !vm.Running() {
			continue
		}
		if p.cfg.PolicyFor(vm.ID).Exclude {
			p.logger.Skip("VM %s (%s) is excluded from backup", vm.Name, vm.ID)
			stats.VMsExcluded++
			continue
		}
		selected = append(selected, vm)
	}
	stats.VMsSelected = len(selected)
	p.logger.Info("Selected %d of %d virtual machine(s)", len(selected), len(vms))
	return selected, nil
}

// exportStage exports each selected VM into the run's export folder.
// Any export failure is fatal: downstream archiving depends on export
// completeness.
func (p *Pipeline) exportStage(ctx context.Context, run *RunContext, selected []hypervisor.VirtualMachine, stats *RunStats) error {
	p.logger.Phase("Exporting %d virtual machine(s)", len(selected))

	if !p.cfg.DryRun {
		if err := utils.EnsureDir(run.ExportDir); err != nil {
			return &StageError{Stage: "export", Err: err, Code: types.ExitExportError}
		}
	}

	for _, vm := range selected {
		dest := filepath.Join(run.ExportDir, vm.Name+archive.NameDelimiter+vm.ID)
		p.logger.Step("Exporting VM %s (%s)", vm.Name, vm.ID)

		if p.cfg.DryRun {
			p.logger.Info("[DRY RUN] Would export VM %s to %s", vm.ID, dest)
		} else if err := p.hv.ExportVM(ctx, vm.ID, dest); err != nil {
			return &StageError{Stage: "export", Err: err, Code: types.ExitExportError}
		}

		run.Exports = append(run.Exports, ExportedVM{VM: vm, Dir: dest})
		stats.Exported++
	}
	return nil
}

// archiveStage compresses each exported VM folder into one encrypted archive
// and records the typed descriptor that later stages use instead of
// re-parsing file names.
func (p *Pipeline) archiveStage(ctx context.Context, run *RunContext, stats *RunStats) error {
	p.logger.Phase("Archiving %d export(s)", len(run.Exports))

	if !p.cfg.DryRun {
		if err := utils.EnsureDir(run.ArchiveDir); err != nil {
			return &StageError{Stage: "archive", Err: err, Code: types.ExitArchiveError}
		}
	}

	for _, exp := range run.Exports {
		desc := archive.Descriptor{
			VMID:   exp.VM.ID,
			VMName: exp.VM.Name,
			RunID:  run.ID,
			Ext:    p.archiver.Extension(),
		}
		dest := run.ArchivePath(desc)
		p.logger.Step("Archiving %s -> %s", filepath.Base(exp.Dir), desc.FileName())

		if p.cfg.DryRun {
			p.logger.Info("[DRY RUN] Would create archive %s", dest)
		} else {
			if err := p.archiver.Compress(ctx, exp.Dir, dest); err != nil {
				return &StageError{Stage: "archive", Err: err, Code: types.ExitArchiveError}
			}
			if size, serr := utils.GetFileSize(dest); serr == nil {
				stats.ArchiveBytes += size
			}
		}

		run.Archives = append(run.Archives, desc)
		stats.Archived++
	}
	return nil
}

// checksumStage writes a digest sidecar per archive, honoring the global and
// per-VM skip flags. Per-archive failures are logged, never fatal.
func (p *Pipeline) checksumStage(ctx context.Context, run *RunContext, stats *RunStats) {
	p.logger.Phase("Generating archive checksums")

	if p.cfg.Wildcard().SkipChecksum {
		p.logger.Skip("Checksum generation disabled globally")
		stats.ChecksumSkipped = len(run.Archives)
		return
	}

	for _, desc := range run.Archives {
		if p.cfg.PolicyFor(desc.VMID).SkipChecksum {
			p.logger.Skip("Checksum skipped for VM %s by policy", desc.VMID)
			stats.ChecksumSkipped++
			continue
		}

		if p.cfg.DryRun {
			p.logger.Info("[DRY RUN] Would checksum %s (%s)", desc.FileName(), p.cfg.Checksum.Algorithm)
			continue
		}

		p.logger.Step("Checksumming %s (%s)", desc.FileName(), p.cfg.Checksum.Algorithm)
		if _, err := checksum.WriteSidecar(ctx, p.logger, run.ArchivePath(desc), p.cfg.Checksum.Algorithm); err != nil {
			p.logger.Error("Checksum of %s failed: %v", desc.FileName(), err)
			stats.ChecksumFailures++
			continue
		}
		stats.Checksummed++
	}
}

// uploadStage copies every archive to every remote target. Loop nesting is
// archives outer, remotes inner, matching the verification stage so ledger
// keys line up deterministically. Upload failures are logged but never
// recorded in the ledger: verification is the authoritative check.
func (p *Pipeline) uploadStage(ctx context.Context, run *RunContext, stats *RunStats) {
	p.logger.Phase("Uploading archives to remote targets")

	if len(p.cfg.Remotes) == 0 {
		p.logger.Skip("No remote targets configured, skipping upload")
		return
	}

	for _, desc := range run.Archives {
		local := run.ArchivePath(desc)
		for _, rc := range p.cfg.Remotes {
			dest := storage.RemoteRunDir(rc, run.ID)
			p.logger.Step("Uploading %s -> %s (%s)", desc.FileName(), dest, rc.Type)

			if p.cfg.DryRun {
				p.logger.Info("[DRY RUN] Would upload %s to %s", desc.FileName(), dest)
				continue
			}

			if err := p.sync.Copy(ctx, local, dest); err != nil {
				p.logger.Error("Upload of %s to %s failed: %v", desc.FileName(), rc.Name, err)
				stats.UploadFailures++
				continue
			}
			stats.Uploads++
		}
	}
}

// verifyStage compares every archive against every remote copy and records
// the aggregate outcome in the run's ledger. Skip paths record nothing:
// an absent ledger entry is not a failure for the rotation gate.
func (p *Pipeline) verifyStage(ctx context.Context, run *RunContext, stats *RunStats) {
	p.logger.Phase("Verifying remote copies")

	if len(p.cfg.Remotes) == 0 {
		p.logger.Skip("No remote targets configured, skipping verification")
		return
	}
	if p.cfg.Wildcard().SkipVerify {
		p.logger.Skip("Remote verification disabled globally")
		stats.VerifySkipped = len(run.Archives)
		return
	}
	if p.cfg.DryRun {
		p.logger.Info("[DRY RUN] Would verify %d archive(s) against %d remote(s)", len(run.Archives), len(p.cfg.Remotes))
		return
	}

	for _, desc := range run.Archives {
		if p.cfg.PolicyFor(desc.VMID).SkipVerify {
			p.logger.Skip("Verification skipped for VM %s by policy", desc.VMID)
			stats.VerifySkipped++
			continue
		}

		local := run.ArchivePath(desc)
		for _, rc := range p.cfg.Remotes {
			dest := storage.RemoteRunDir(rc, run.ID)
			if err := p.sync.Compare(ctx, local, dest); err != nil {
				run.Ledger.Record(desc.FileName(), false)
				p.logger.Error("Verification of %s on %s failed: %v", desc.FileName(), rc.Name, err)
				stats.VerifyFailures++
				continue
			}
			run.Ledger.Record(desc.FileName(), true)
			p.logger.Step("Verified %s on %s", desc.FileName(), rc.Name)
			stats.Verifications++
		}
	}
}

// rotateStage enforces retention, remote then local, gated run-wide on the
// verification ledger: one failed check anywhere suppresses every deletion.
func (p *Pipeline) rotateStage(ctx context.Context, run *RunContext, stats *RunStats) {
	p.logger.Phase("Applying retention policies")

	if run.Ledger.HasFailures() {
		p.logger.Warning("Verification failures recorded this run: skipping ALL rotation, local and remote")
		stats.RotationSkipped = true
		return
	}

	for _, rc := range p.cfg.Remotes {
		deleted, err := p.rotator.RotateRemote(ctx, rc)
		stats.RemoteDeleted += deleted
		if err != nil {
			p.logger.Warning("Remote rotation for %s failed: %v", rc.Name, err)
		}
	}

	deleted, err := p.rotator.RotateLocal(ctx, p.cfg.Local.ArchivePath, p.cfg.Local.Retention, p.cfg.ReservedDirNames())
	stats.LocalDeleted += deleted
	if err != nil {
		p.logger.Warning("Local rotation failed: %v", err)
	}

	logsDeleted, err := p.rotator.RotateLogs(ctx, p.cfg.LogPath, p.cfg.Local.Retention)
	stats.LogsDeleted += logsDeleted
	if err != nil {
		p.logger.Warning("Log rotation failed: %v", err)
	}
}

// cleanupStage deletes the run's export scratch folder. Exported VM data is
// transient and never retained.
func (p *Pipeline) cleanupStage(run *RunContext) {
	p.logger.Phase("Cleaning up export scratch space")

	if p.cfg.DryRun {
		p.logger.Info("[DRY RUN] Would delete export folder %s", run.ExportDir)
		return
	}
	if err := os.RemoveAll(run.ExportDir); err != nil {
		p.logger.Warning("Failed to delete export folder %s: %v", run.ExportDir, err)
		return
	}
	p.logger.Info("Deleted export folder %s", run.ExportDir)
}
