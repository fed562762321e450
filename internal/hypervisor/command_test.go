package hypervisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tis24dev/hypersave/internal/logging"
	"github.com/tis24dev/hypersave/internal/types"
)

func testLogger() *logging.Logger {
	return logging.New(types.LogLevelNone, false)
}

func TestCommandClientListVMs(t *testing.T) {
	c := NewCommandClient("hvctl", testLogger())

	var gotArgs []string
	c.execCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte(`[
			{"id": "vm-1", "name": "web", "state": "running"},
			{"id": "vm-2", "name": "db_primary", "state": "stopped"}
		]`), nil
	}

	vms, err := c.ListVMs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"hvctl", "list"}, gotArgs)

	require.Len(t, vms, 2)
	assert.Equal(t, VirtualMachine{ID: "vm-1", Name: "web", State: types.VMStateRunning}, vms[0])
	assert.True(t, vms[0].Running())
	assert.False(t, vms[1].Running())
}

func TestCommandClientListVMsCommandFailure(t *testing.T) {
	c := NewCommandClient("hvctl", testLogger())
	c.execCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("connection refused\nsecond line"), errors.New("exit status 1")
	}

	_, err := c.ListVMs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NotContains(t, err.Error(), "second line", "only the first output line is reported")
}

func TestCommandClientListVMsInvalidJSON(t *testing.T) {
	c := NewCommandClient("hvctl", testLogger())
	c.execCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("not json"), nil
	}

	_, err := c.ListVMs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestCommandClientExportVM(t *testing.T) {
	c := NewCommandClient("hvctl", testLogger())

	var gotArgs []string
	c.execCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return nil, nil
	}

	require.NoError(t, c.ExportVM(context.Background(), "vm-1", "/srv/backups/exported/run/web_vm-1"))
	assert.Equal(t, []string{"hvctl", "export", "vm-1", "/srv/backups/exported/run/web_vm-1"}, gotArgs)
}

func TestCommandClientExportVMFailure(t *testing.T) {
	c := NewCommandClient("hvctl", testLogger())
	c.execCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("disk busy"), errors.New("exit status 3")
	}

	err := c.ExportVM(context.Background(), "vm-1", "/tmp/dest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vm-1")
	assert.Contains(t, err.Error(), "disk busy")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "<none>", firstLine(nil))
	assert.Equal(t, "<none>", firstLine([]byte("  \n  ")))
	assert.Equal(t, "only", firstLine([]byte("only")))
	assert.Equal(t, "first", firstLine([]byte("first\nsecond\nthird")))
}
