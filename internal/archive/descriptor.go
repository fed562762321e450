// Package archive produces one encrypted archive per exported virtual
// machine and defines the naming contract that ties an archive file back to
// the VM it came from.
package archive

import (
	"fmt"
	"strings"
)

// NameDelimiter separates the VM display name from the VM identifier in
// archive and export folder names.
const NameDelimiter = "_"

// Descriptor identifies one archive: which VM it belongs to, which run
// produced it and the archive file extension. It is created once by the
// archive stage and threaded through checksum, upload and verification so
// those stages never have to re-parse file names.
type Descriptor struct {
	VMID   string
	VMName string
	RunID  string
	Ext    string
}

// BaseName returns the archive base name without extension:
// "{vm_name}_{vm_id}". The identifier is always the token after the LAST
// delimiter, so VM names containing the delimiter stay parseable.
func (d Descriptor) BaseName() string {
	return d.VMName + NameDelimiter + d.VMID
}

// FileName returns the archive file name: "{vm_name}_{vm_id}.{ext}".
func (d Descriptor) FileName() string {
	return d.BaseName() + "." + d.Ext
}

// SidecarName returns the checksum sidecar file name for this archive.
func (d Descriptor) SidecarName() string {
	return d.FileName() + ".txt"
}

// ParseFileName recovers a Descriptor from an archive file name produced by
// this package. ext must be the configured archive extension (it may contain
// dots, e.g. "tar.zst.age"). The VM identifier is the token after the last
// delimiter of the base name.
func ParseFileName(fileName, ext, runID string) (Descriptor, error) {
	suffix := "." + ext
	if !strings.HasSuffix(fileName, suffix) {
		return Descriptor{}, fmt.Errorf("archive name %q does not end in %q", fileName, suffix)
	}
	base := strings.TrimSuffix(fileName, suffix)

	idx := strings.LastIndex(base, NameDelimiter)
	if idx <= 0 || idx == len(base)-1 {
		return Descriptor{}, fmt.Errorf("archive name %q does not encode a VM identifier", fileName)
	}

	return Descriptor{
		VMName: base[:idx],
		VMID:   base[idx+1:],
		RunID:  runID,
		Ext:    ext,
	}, nil
}
