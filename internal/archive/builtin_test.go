package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinArchiverExtension(t *testing.T) {
	a := NewBuiltinArchiver("pw", toolTestLogger())
	assert.Equal(t, "tar.zst.age", a.Extension())
}

func TestBuiltinArchiverProducesAgeEnvelope(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "disks"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "disks", "disk.img"), []byte("raw disk data"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "manifest.json"), []byte(`{"vm":"web"}`), 0644))

	dest := filepath.Join(t.TempDir(), "web_vm-1.tar.zst.age")
	a := NewBuiltinArchiver("pw", toolTestLogger())
	require.NoError(t, a.Compress(context.Background(), src, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "age-encryption.org/v1"),
		"archive must open with the age format header")
	assert.NotContains(t, string(data), "raw disk data", "payload must be encrypted")
}

func TestBuiltinArchiverRemovesPartialFileOnError(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "web_vm-1.tar.zst.age")
	a := NewBuiltinArchiver("pw", toolTestLogger())

	err := a.Compress(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), dest)
	require.Error(t, err)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "partial archive must be removed")
}

func TestBuiltinArchiverHonorsCancellation(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "disk.img"), []byte("data"), 0644))
	dest := filepath.Join(t.TempDir(), "web_vm-1.tar.zst.age")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewBuiltinArchiver("pw", toolTestLogger())
	err := a.Compress(ctx, src, dest)
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}
