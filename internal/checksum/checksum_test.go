package checksum

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tis24dev/hypersave/internal/logging"
	"github.com/tis24dev/hypersave/internal/types"
)

func testLogger() *logging.Logger {
	return logging.New(types.LogLevelNone, false)
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDigestKnownValues(t *testing.T) {
	tests := []struct {
		algorithm types.DigestAlgorithm
		expected  string
	}{
		{types.DigestSHA256, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
		{types.DigestSHA512, "309ecc489c12d6eb4cc40f50c902f2b4d0ed77ee511a7c7a9bcd3ca86d4cd86f989dd35bc5ff499670da34255b45b0cfd830e81f605dcf7dc5542e93ae9cd76f"},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm.String(), func(t *testing.T) {
			path := writeTestFile(t, "archive.7z", "hello world")
			digest, err := Digest(context.Background(), testLogger(), path, tt.algorithm)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, digest)
		})
	}
}

func TestDigestBlake2b(t *testing.T) {
	path := writeTestFile(t, "archive.7z", "hello world")
	digest, err := Digest(context.Background(), testLogger(), path, types.DigestBLAKE2b)
	require.NoError(t, err)
	assert.Len(t, digest, 64, "BLAKE2b-256 yields 32 bytes, 64 hex chars")
}

func TestDigestUnsupportedAlgorithm(t *testing.T) {
	path := writeTestFile(t, "archive.7z", "data")
	_, err := Digest(context.Background(), testLogger(), path, types.DigestAlgorithm("md5"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported digest algorithm")
}

func TestDigestMissingFile(t *testing.T) {
	_, err := Digest(context.Background(), testLogger(), filepath.Join(t.TempDir(), "missing.7z"), types.DigestSHA256)
	assert.Error(t, err)
}

func TestDigestCancelledContext(t *testing.T) {
	path := writeTestFile(t, "archive.7z", "data")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Digest(ctx, testLogger(), path, types.DigestSHA256)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteSidecarFormat(t *testing.T) {
	path := writeTestFile(t, "web_vm-1.7z", "hello world")

	sidecar, err := WriteSidecar(context.Background(), testLogger(), path, types.DigestSHA256)
	require.NoError(t, err)
	assert.Equal(t, path+".txt", sidecar)

	data, err := os.ReadFile(sidecar)
	require.NoError(t, err)
	assert.Equal(t,
		"SHA256: b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9  web_vm-1.7z\n",
		string(data))
}

func TestVerifySidecar(t *testing.T) {
	path := writeTestFile(t, "web_vm-1.7z", "hello world")
	_, err := WriteSidecar(context.Background(), testLogger(), path, types.DigestSHA256)
	require.NoError(t, err)

	ok, err := VerifySidecar(context.Background(), testLogger(), path, types.DigestSHA256)
	require.NoError(t, err)
	assert.True(t, ok)

	// Corrupt the archive: verification must fail without erroring.
	require.NoError(t, os.WriteFile(path, []byte("tampered"), 0644))
	ok, err = VerifySidecar(context.Background(), testLogger(), path, types.DigestSHA256)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifySidecarMissingOrMalformed(t *testing.T) {
	path := writeTestFile(t, "web_vm-1.7z", "data")

	_, err := VerifySidecar(context.Background(), testLogger(), path, types.DigestSHA256)
	assert.Error(t, err, "missing sidecar")

	require.NoError(t, os.WriteFile(path+".txt", []byte("garbage"), 0644))
	_, err = VerifySidecar(context.Background(), testLogger(), path, types.DigestSHA256)
	assert.Error(t, err, "malformed sidecar")
}
