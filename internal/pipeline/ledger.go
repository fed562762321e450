// Package pipeline implements the backup run state machine: selection,
// export, archive, checksum, upload, verification, rotation and cleanup, in
// that order, with rotation gated on the verification ledger.
package pipeline

import "sync"

// VerifyStatus is the aggregate verification outcome for one archive.
type VerifyStatus int

const (
	// StatusUnverified - no verification result recorded for this archive.
	StatusUnverified VerifyStatus = iota

	// StatusVerified - every recorded check for this archive passed.
	StatusVerified

	// StatusFailed - at least one check for this archive failed.
	StatusFailed
)

// String returns the string representation of the verification status.
func (s VerifyStatus) String() string {
	switch s {
	case StatusVerified:
		return "verified"
	case StatusFailed:
		return "failed"
	default:
		return "unverified"
	}
}

// Ledger records per-archive verification outcomes for the current run.
//
// Entries merge monotonically: once an archive is Failed, a later successful
// check against a different remote can never flip it back to Verified. The
// rotation gate reads the finalized ledger, so this stickiness is what keeps
// destructive rotation away from runs with any failed check.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]VerifyStatus
}

// NewLedger creates an empty verification ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]VerifyStatus)}
}

// Record merges one check result for an archive. Failed is sticky.
func (l *Ledger) Record(archiveName string, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !ok {
		l.entries[archiveName] = StatusFailed
		return
	}
	if l.entries[archiveName] == StatusFailed {
		return
	}
	l.entries[archiveName] = StatusVerified
}

// Status returns the aggregate status for an archive. Archives with no
// recorded checks are Unverified.
func (l *Ledger) Status(archiveName string) VerifyStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries[archiveName]
}

// HasFailures reports whether any archive failed verification this run.
// An empty ledger (verification skipped or no remotes) has no failures.
func (l *Ledger) HasFailures() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, status := range l.entries {
		if status == StatusFailed {
			return true
		}
	}
	return false
}

// Len returns the number of archives with a recorded status.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
