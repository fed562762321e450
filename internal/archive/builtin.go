package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"github.com/klauspost/compress/zstd"

	"github.com/tis24dev/hypersave/internal/logging"
)

// BuiltinExtension is the extension produced by the builtin archiver.
// Read inside-out: a tar stream, zstd-compressed, wrapped in an age envelope.
const BuiltinExtension = "tar.zst.age"

// BuiltinArchiver creates archives without any external tool: tar the export
// folder, compress with zstd at the highest level and encrypt the result with
// an age scrypt (passphrase) recipient. Archives decrypt with the stock age
// CLI and the configured password.
type BuiltinArchiver struct {
	password string
	logger   *logging.Logger
}

// NewBuiltinArchiver creates the builtin tar+zstd+age archiver.
func NewBuiltinArchiver(password string, logger *logging.Logger) *BuiltinArchiver {
	return &BuiltinArchiver{password: password, logger: logger}
}

// Extension returns the builtin archive extension.
func (a *BuiltinArchiver) Extension() string {
	return BuiltinExtension
}

// Compress archives sourceDir into destFile. On failure the partially written
// destination file is removed.
func (a *BuiltinArchiver) Compress(ctx context.Context, sourceDir, destFile string) (err error) {
	recipient, err := age.NewScryptRecipient(a.password)
	if err != nil {
		return fmt.Errorf("initialize age recipient: %w", err)
	}

	out, err := os.OpenFile(destFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(destFile)
		}
	}()

	encWriter, err := age.Encrypt(out, recipient)
	if err != nil {
		return fmt.Errorf("initialize age encryption: %w", err)
	}

	zstdWriter, err := zstd.NewWriter(encWriter, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("initialize zstd writer: %w", err)
	}

	a.logger.Debug("Creating archive: %s -> %s (tar+zstd+age, streaming)", sourceDir, destFile)

	if err = a.writeTar(ctx, sourceDir, zstdWriter); err != nil {
		return fmt.Errorf("write tar stream: %w", err)
	}
	if err = zstdWriter.Close(); err != nil {
		return fmt.Errorf("finalize zstd stream: %w", err)
	}
	if err = encWriter.Close(); err != nil {
		return fmt.Errorf("finalize age envelope: %w", err)
	}
	return nil
}

func (a *BuiltinArchiver) writeTar(ctx context.Context, sourceDir string, w io.Writer) error {
	tarWriter := tar.NewWriter(w)
	err := a.addToTar(ctx, tarWriter, sourceDir)
	if closeErr := tarWriter.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (a *BuiltinArchiver) addToTar(ctx context.Context, tarWriter *tar.Writer, sourceDir string) error {
	return filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return fmt.Errorf("access %s: %w", path, err)
		}

		relPath, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		linkInfo, err := os.Lstat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		var linkTarget string
		if linkInfo.Mode()&os.ModeSymlink != 0 {
			linkTarget, err = os.Readlink(path)
			if err != nil {
				return fmt.Errorf("read symlink %s: %w", path, err)
			}
		}

		header, err := tar.FileInfoHeader(linkInfo, linkTarget)
		if err != nil {
			return fmt.Errorf("tar header for %s: %w", path, err)
		}
		header.Format = tar.FormatPAX

		// Forward slashes with "./" prefix, Unix tar convention.
		name := strings.ReplaceAll(relPath, string(filepath.Separator), "/")
		if !strings.HasPrefix(name, "./") {
			name = "./" + name
		}
		header.Name = name

		if err := tarWriter.WriteHeader(header); err != nil {
			return fmt.Errorf("write tar header: %w", err)
		}

		if linkInfo.Mode().IsRegular() {
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer file.Close()

			if _, err := io.Copy(tarWriter, file); err != nil {
				return fmt.Errorf("archive %s: %w", path, err)
			}
		}
		return nil
	})
}
