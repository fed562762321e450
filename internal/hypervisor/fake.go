package hypervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FakeClient is an in-memory implementation for unit tests.
type FakeClient struct {
	VMs []VirtualMachine

	// ExportErr, when set, is returned by every ExportVM call.
	ExportErr error

	// Exports records (id, destPath) pairs in call order.
	Exports [][2]string
}

// NewFake returns an empty fake client.
func NewFake() *FakeClient {
	return &FakeClient{}
}

// ListVMs returns the configured VM set in insertion order.
func (f *FakeClient) ListVMs(ctx context.Context) ([]VirtualMachine, error) {
	out := make([]VirtualMachine, len(f.VMs))
	copy(out, f.VMs)
	return out, nil
}

// ExportVM records the call and materializes a small placeholder export tree
// so downstream stages have real files to work on.
func (f *FakeClient) ExportVM(ctx context.Context, id, destPath string) error {
	f.Exports = append(f.Exports, [2]string{id, destPath})
	if f.ExportErr != nil {
		return f.ExportErr
	}
	if err := os.MkdirAll(destPath, 0755); err != nil {
		return err
	}
	content := fmt.Sprintf("disk image for %s\n", id)
	return os.WriteFile(filepath.Join(destPath, "disk.img"), []byte(content), 0644)
}
