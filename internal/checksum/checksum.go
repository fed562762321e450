// Package checksum computes archive digests and writes them to sidecar files.
package checksum

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/tis24dev/hypersave/internal/logging"
	"github.com/tis24dev/hypersave/internal/types"
)

func newHash(algorithm types.DigestAlgorithm) (hash.Hash, error) {
	switch algorithm {
	case types.DigestSHA256:
		return sha256.New(), nil
	case types.DigestSHA512:
		return sha512.New(), nil
	case types.DigestBLAKE2b:
		return blake2b.New256(nil)
	default:
		return nil, fmt.Errorf("unsupported digest algorithm: %s", algorithm)
	}
}

// Digest computes the hex digest of a file under the given algorithm.
func Digest(ctx context.Context, logger *logging.Logger, filePath string, algorithm types.DigestAlgorithm) (string, error) {
	logger.Debug("Generating %s checksum for: %s", algorithm, filePath)

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}

	// Copy in chunks with context checking so a cancelled run stops promptly
	// even on very large archives.
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := file.Read(buf)
		if n > 0 {
			if _, werr := h.Write(buf[:n]); werr != nil {
				return "", fmt.Errorf("failed to write to hash: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	digest := hex.EncodeToString(h.Sum(nil))
	logger.Debug("Generated checksum: %s", digest)
	return digest, nil
}

// WriteSidecar computes the digest of archivePath and persists it next to the
// archive as "{archive}.txt" with an algorithm-labeled digest line:
//
//	SHA256: <hex>  <archive_name>
//
// It returns the sidecar path.
func WriteSidecar(ctx context.Context, logger *logging.Logger, archivePath string, algorithm types.DigestAlgorithm) (string, error) {
	digest, err := Digest(ctx, logger, archivePath, algorithm)
	if err != nil {
		return "", err
	}

	sidecarPath := archivePath + ".txt"
	line := fmt.Sprintf("%s: %s  %s\n", strings.ToUpper(algorithm.String()), digest, filepath.Base(archivePath))
	if err := os.WriteFile(sidecarPath, []byte(line), 0644); err != nil {
		return "", fmt.Errorf("failed to write checksum sidecar: %w", err)
	}
	return sidecarPath, nil
}

// VerifySidecar recomputes the archive digest and compares it against the
// sidecar written by WriteSidecar.
func VerifySidecar(ctx context.Context, logger *logging.Logger, archivePath string, algorithm types.DigestAlgorithm) (bool, error) {
	data, err := os.ReadFile(archivePath + ".txt")
	if err != nil {
		return false, fmt.Errorf("failed to read checksum sidecar: %w", err)
	}

	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return false, fmt.Errorf("malformed checksum sidecar for %s", archivePath)
	}
	expected := fields[1]

	actual, err := Digest(ctx, logger, archivePath, algorithm)
	if err != nil {
		return false, err
	}

	if actual != expected {
		logger.Warning("Checksum mismatch for %s: expected %s, got %s", filepath.Base(archivePath), expected, actual)
		return false, nil
	}
	return true, nil
}
