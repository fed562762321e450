package remote

import (
	"context"
	"path"
	"sort"
	"time"
)

// FakeSyncClient is an in-memory implementation for unit tests.
type FakeSyncClient struct {
	// Dirs maps a remote directory URI to the file names stored under it.
	Dirs map[string][]string

	// CopyErr and CompareErr, when set, decide per-call failures.
	CopyErr    func(localPath, remoteDir string) error
	CompareErr func(localPath, remoteDir string) error
	PurgeErr   error

	// Call records, in call order.
	Copies   [][2]string
	Compares [][2]string
	Purges   []string
}

// NewFakeSync returns an empty fake sync client.
func NewFakeSync() *FakeSyncClient {
	return &FakeSyncClient{Dirs: map[string][]string{}}
}

// Copy records the upload and stores the file name under remoteDir.
func (f *FakeSyncClient) Copy(ctx context.Context, localPath, remoteDir string) error {
	f.Copies = append(f.Copies, [2]string{localPath, remoteDir})
	if f.CopyErr != nil {
		if err := f.CopyErr(localPath, remoteDir); err != nil {
			return err
		}
	}
	f.Dirs[remoteDir] = append(f.Dirs[remoteDir], path.Base(localPath))
	return nil
}

// List returns the entries under remoteDir. A URI present as a key of Dirs is
// listed as files; child directories are derived from deeper keys.
func (f *FakeSyncClient) List(ctx context.Context, remoteDir string) ([]Entry, error) {
	seen := map[string]Entry{}
	for _, name := range f.Dirs[remoteDir] {
		seen[name] = Entry{Name: name, ModTime: time.Now()}
	}
	prefix := remoteDir + "/"
	for key := range f.Dirs {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			child := key[len(prefix):]
			if i := indexByte(child, '/'); i >= 0 {
				child = child[:i]
			}
			seen[child] = Entry{Name: child, IsDir: true}
		}
	}

	out := make([]Entry, 0, len(seen))
	for _, e := range seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// Compare succeeds when the file was previously copied to remoteDir.
func (f *FakeSyncClient) Compare(ctx context.Context, localPath, remoteDir string) error {
	f.Compares = append(f.Compares, [2]string{localPath, remoteDir})
	if f.CompareErr != nil {
		if err := f.CompareErr(localPath, remoteDir); err != nil {
			return err
		}
	}
	name := path.Base(localPath)
	for _, stored := range f.Dirs[remoteDir] {
		if stored == name {
			return nil
		}
	}
	return &NotUploadedError{Name: name, RemoteDir: remoteDir}
}

// Purge records the deletion and drops every key at or under remoteDir.
func (f *FakeSyncClient) Purge(ctx context.Context, remoteDir string) error {
	f.Purges = append(f.Purges, remoteDir)
	if f.PurgeErr != nil {
		return f.PurgeErr
	}
	delete(f.Dirs, remoteDir)
	prefix := remoteDir + "/"
	for key := range f.Dirs {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(f.Dirs, key)
		}
	}
	return nil
}

// NotUploadedError reports a Compare against a file that was never copied.
type NotUploadedError struct {
	Name      string
	RemoteDir string
}

func (e *NotUploadedError) Error() string {
	return "file " + e.Name + " not present under " + e.RemoteDir
}
