// Package remote wraps the remote-sync tool (rclone) behind a narrow
// interface: upload, list, compare and purge.
package remote

import (
	"context"
	"time"
)

// Entry is one entry under a remote path.
type Entry struct {
	Name    string    `json:"Name"`
	Size    int64     `json:"Size"`
	IsDir   bool      `json:"IsDir"`
	ModTime time.Time `json:"ModTime"`
}

// SyncClient is the sync-tool interface used by the upload, verification and
// rotation stages.
type SyncClient interface {
	// Copy uploads a local file into the remote directory URI.
	Copy(ctx context.Context, localPath, remoteDir string) error

	// List returns the entries directly under a remote path.
	List(ctx context.Context, remoteDir string) ([]Entry, error)

	// Compare checks a local file against its copy under remoteDir.
	// A nil error means the contents match.
	Compare(ctx context.Context, localPath, remoteDir string) error

	// Purge recursively deletes a remote path.
	Purge(ctx context.Context, remoteDir string) error
}
