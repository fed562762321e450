package pipeline

import (
	"time"

	"github.com/tis24dev/hypersave/internal/types"
)

// RunStats aggregates the outcome of one run for the notification summary
// and the metrics textfile.
type RunStats struct {
	RunID     string
	Hostname  string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	NothingToDo bool

	VMsTotal    int
	VMsSelected int
	VMsExcluded int

	Exported     int
	Archived     int
	ArchiveBytes int64

	Checksummed      int
	ChecksumSkipped  int
	ChecksumFailures int

	Uploads        int
	UploadFailures int

	Verifications  int
	VerifySkipped  int
	VerifyFailures int

	RotationSkipped bool
	RemoteDeleted   int
	LocalDeleted    int
	LogsDeleted     int

	ExitCode types.ExitCode
}

// Succeeded reports whether the run finished without a fatal error.
func (s *RunStats) Succeeded() bool {
	return s.ExitCode == types.ExitSuccess
}
