package pipeline

import (
	"path/filepath"
	"time"

	"github.com/tis24dev/hypersave/internal/archive"
	"github.com/tis24dev/hypersave/internal/config"
	"github.com/tis24dev/hypersave/internal/hypervisor"
)

// RunIDFormat renders run IDs that sort lexically in chronological order.
// Retention relies on this: sorting folder names descending is newest-first.
const RunIDFormat = "2006-01-02_15-04-05"

// ExportedVM pairs a selected VM with the folder its export landed in.
type ExportedVM struct {
	VM  hypervisor.VirtualMachine
	Dir string
}

// RunContext is the mutable state of one backup run. It is created at run
// start, mutated only by the export, archive and verification stages, and
// discarded at run end (persisted only through the log).
type RunContext struct {
	ID        string
	StartTime time.Time

	// ExportDir is this run's scratch folder for raw VM exports, deleted by
	// the cleanup stage.
	ExportDir string

	// ArchiveDir is this run's durable archive folder, subject to local
	// retention.
	ArchiveDir string

	// LogFile is this run's log file path.
	LogFile string

	Exports  []ExportedVM
	Archives []archive.Descriptor
	Ledger   *Ledger
}

// NewRunContext derives a run's identity and folder layout from its start time.
func NewRunContext(cfg *config.Config, start time.Time) *RunContext {
	id := start.Format(RunIDFormat)
	return &RunContext{
		ID:         id,
		StartTime:  start,
		ExportDir:  filepath.Join(cfg.Local.ExportPath, id),
		ArchiveDir: filepath.Join(cfg.Local.ArchivePath, id),
		LogFile:    filepath.Join(cfg.LogPath, id+".log"),
		Ledger:     NewLedger(),
	}
}

// ArchivePath returns the local path of an archive produced this run.
func (r *RunContext) ArchivePath(d archive.Descriptor) string {
	return filepath.Join(r.ArchiveDir, d.FileName())
}
