package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorNames(t *testing.T) {
	d := Descriptor{VMID: "vm-1", VMName: "web", RunID: "2024-03-01_02-00-00", Ext: "7z"}

	assert.Equal(t, "web_vm-1", d.BaseName())
	assert.Equal(t, "web_vm-1.7z", d.FileName())
	assert.Equal(t, "web_vm-1.7z.txt", d.SidecarName())
}

func TestParseFileNameRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		vmName string
		vmID   string
		ext    string
	}{
		{"simple", "web", "vm-1", "7z"},
		{"delimiter in VM name", "db_primary", "vm-7", "7z"},
		{"multiple delimiters", "my_old_db", "104", "7z"},
		{"dotted extension", "web", "vm-1", "tar.zst.age"},
		{"delimiter in name and dotted ext", "db_primary", "vm-7", "tar.zst.age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Descriptor{VMID: tt.vmID, VMName: tt.vmName, RunID: "2024-03-01_02-00-00", Ext: tt.ext}
			out, err := ParseFileName(in.FileName(), tt.ext, in.RunID)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestParseFileNameErrors(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		ext      string
	}{
		{"wrong extension", "web_vm-1.7z", "tar.zst.age"},
		{"no delimiter", "web.7z", "7z"},
		{"empty name before delimiter", "_vm-1.7z", "7z"},
		{"empty id after delimiter", "web_.7z", "7z"},
		{"bare extension", ".7z", "7z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFileName(tt.fileName, tt.ext, "2024-03-01_02-00-00")
			assert.Error(t, err)
		})
	}
}
