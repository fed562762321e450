// Command hypersave exports virtual machines from a hypervisor host,
// compresses each export into an encrypted archive, checksums it, uploads it
// to remote storage, verifies the remote copies and enforces retention.
// Rotation never runs after a failed verification.
package main

import (
	"fmt"
	"os"

	"github.com/tis24dev/hypersave/internal/types"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(types.ExitGenericError.Int())
	}
}
