package archive

import "context"

// Archiver compresses an exported VM folder into a single encrypted archive.
type Archiver interface {
	// Compress archives sourceDir into destFile. The destination directory
	// must already exist.
	Compress(ctx context.Context, sourceDir, destFile string) error

	// Extension returns the file extension (without leading dot) this
	// archiver produces, e.g. "7z" or "tar.zst.age".
	Extension() string
}
