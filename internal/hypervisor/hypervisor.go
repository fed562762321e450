// Package hypervisor wraps the hypervisor CLI used to enumerate and export
// virtual machines.
package hypervisor

import (
	"context"

	"github.com/tis24dev/hypersave/internal/types"
)

// VirtualMachine describes one VM as reported by the hypervisor.
type VirtualMachine struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	State types.VMState `json:"state"`
}

// Running reports whether the VM is powered on.
func (vm VirtualMachine) Running() bool {
	return vm.State == types.VMStateRunning
}

// Client is the narrow interface over the hypervisor used by the pipeline.
// Keep it small so it stays mockable.
type Client interface {
	// ListVMs enumerates all virtual machines with their current power state.
	ListVMs(ctx context.Context) ([]VirtualMachine, error)

	// ExportVM exports the VM's data into destPath. The directory is created
	// by the hypervisor tool; it must not exist beforehand.
	ExportVM(ctx context.Context, id, destPath string) error
}
