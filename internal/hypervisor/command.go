package hypervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tis24dev/hypersave/internal/logging"
)

// CommandClient shells out to the configured hypervisor CLI.
//
// The CLI contract is:
//
//	<binary> list               -> JSON array of {"id","name","state"} on stdout
//	<binary> export <id> <dest> -> exit 0 on success
type CommandClient struct {
	binary string
	logger *logging.Logger

	execCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCommandClient creates a client for the given hypervisor binary.
func NewCommandClient(binary string, logger *logging.Logger) *CommandClient {
	return &CommandClient{
		binary:      binary,
		logger:      logger,
		execCommand: defaultExecCommand,
	}
}

func defaultExecCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ListVMs enumerates all virtual machines via "<binary> list".
func (c *CommandClient) ListVMs(ctx context.Context) ([]VirtualMachine, error) {
	out, err := c.execCommand(ctx, c.binary, "list")
	if err != nil {
		return nil, fmt.Errorf("hypervisor list failed: %w (output: %s)", err, firstLine(out))
	}

	var vms []VirtualMachine
	if err := json.Unmarshal(out, &vms); err != nil {
		return nil, fmt.Errorf("hypervisor list returned invalid JSON: %w", err)
	}

	c.logger.Debug("Hypervisor reported %d virtual machine(s)", len(vms))
	return vms, nil
}

// ExportVM exports one VM via "<binary> export <id> <dest>".
func (c *CommandClient) ExportVM(ctx context.Context, id, destPath string) error {
	out, err := c.execCommand(ctx, c.binary, "export", id, destPath)
	if err != nil {
		return fmt.Errorf("hypervisor export of %s failed: %w (output: %s)", id, err, firstLine(out))
	}
	return nil
}

// firstLine trims tool output to its first line for error messages.
func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "<none>"
	}
	return s
}
