package registry

import (
	"testing"

	"github.com/kohakuhub/kohakuhub/pkg/lakefs"
	"github.com/kohakuhub/kohakuhub/pkg/lfs"
)

const testOID = "a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"

func TestRemapAddress(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{
			name: "inline blob under old prefix",
			addr: "s3://hub/hf-model-alice-m/config.json",
			want: "s3://hub/hf-model-bob-m/config.json",
		},
		{
			name: "nested path",
			addr: "s3://hub/hf-model-alice-m/sub/dir/w.bin",
			want: "s3://hub/hf-model-bob-m/sub/dir/w.bin",
		},
		{
			name: "shared lfs object untouched",
			addr: "s3://hub/lfs/a6/65/" + testOID,
			want: "s3://hub/lfs/a6/65/" + testOID,
		},
		{
			name: "non-s3 address untouched",
			addr: "local://something",
			want: "local://something",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := remapAddress(tt.addr, "hf-model-alice-m", "hf-model-bob-m")
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeEntry(t *testing.T) {
	svc := &Service{bucket: "hub"}

	t.Run("directory", func(t *testing.T) {
		entry := svc.treeEntry(lakefs.ObjectStat{Path: "weights/", PathType: "common_prefix"})
		if entry.Type != "directory" || entry.Path != "weights" {
			t.Errorf("got %+v", entry)
		}
	})

	t.Run("regular file", func(t *testing.T) {
		entry := svc.treeEntry(lakefs.ObjectStat{
			Path:            "config.json",
			PathType:        "object",
			PhysicalAddress: "s3://hub/hf-model-alice-m/config.json",
			Checksum:        "abc123",
			SizeBytes:       42,
		})
		if entry.Type != "file" || entry.LFS != nil || entry.Size != 42 || entry.OID != "abc123" {
			t.Errorf("got %+v", entry)
		}
	})

	t.Run("lfs file", func(t *testing.T) {
		entry := svc.treeEntry(lakefs.ObjectStat{
			Path:            "model.safetensors",
			PathType:        "object",
			PhysicalAddress: "s3://hub/" + lfs.KeyForOID(testOID),
			Checksum:        testOID,
			SizeBytes:       1 << 30,
		})
		if entry.LFS == nil {
			t.Fatal("expected lfs info")
		}
		if entry.LFS.OID != testOID || entry.LFS.Size != 1<<30 {
			t.Errorf("got %+v", entry.LFS)
		}
		if entry.LFS.PointerSize != len(lfs.PointerText(testOID, 1<<30)) {
			t.Errorf("got pointer size %d", entry.LFS.PointerSize)
		}
	})
}
