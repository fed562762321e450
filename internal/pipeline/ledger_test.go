package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerRecordAndStatus(t *testing.T) {
	l := NewLedger()

	assert.Equal(t, StatusUnverified, l.Status("a.7z"))
	assert.False(t, l.HasFailures())
	assert.Equal(t, 0, l.Len())

	l.Record("a.7z", true)
	assert.Equal(t, StatusVerified, l.Status("a.7z"))
	assert.False(t, l.HasFailures())

	l.Record("b.7z", false)
	assert.Equal(t, StatusFailed, l.Status("b.7z"))
	assert.True(t, l.HasFailures())
	assert.Equal(t, 2, l.Len())
}

func TestLedgerFailureIsSticky(t *testing.T) {
	l := NewLedger()

	// A failed check against one remote must never be overwritten by a later
	// successful check against a different remote.
	l.Record("vm_1.7z", false)
	l.Record("vm_1.7z", true)
	l.Record("vm_1.7z", true)

	assert.Equal(t, StatusFailed, l.Status("vm_1.7z"))
	assert.True(t, l.HasFailures())
}

func TestLedgerEmptyMeansNoFailures(t *testing.T) {
	// Skipped verification records nothing; an empty ledger passes the
	// rotation gate.
	l := NewLedger()
	assert.False(t, l.HasFailures())
}

func TestVerifyStatusString(t *testing.T) {
	assert.Equal(t, "unverified", StatusUnverified.String())
	assert.Equal(t, "verified", StatusVerified.String())
	assert.Equal(t, "failed", StatusFailed.String())
}
