package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAtomic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs", "r1")
	path := filepath.Join(dir, "manifest.json")

	require.NoError(t, WriteAtomic(Default, path, []byte(`{"v":1}`), 0o644))
	require.NoError(t, WriteAtomic(Default, path, []byte(`{"v":2}`), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))

	entries, err := Default.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "manifest.json", entries[0].Name())
}

func TestWriteAtomic_Faults(t *testing.T) {
	custom := errors.New("disk full")

	tests := []struct {
		name string
		rule Rule
		want error
	}{
		{"Write", Rule{Match: "blob", Ops: OpWrite, AfterBytes: 3}, ErrInjected},
		{"WriteCustomError", Rule{Match: "blob", Ops: OpWrite, Err: custom}, custom},
		{"Sync", Rule{Match: "blob", Ops: OpSync}, ErrInjected},
		{"Rename", Rule{Match: "blob", Ops: OpRename}, ErrInjected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "blob.bin")
			require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

			ffs := NewFaultyFS(nil, tt.rule)
			err := WriteAtomic(ffs, path, []byte("payload"), 0o644)
			require.ErrorIs(t, err, tt.want)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "old", string(data))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temporary file must be removed")
		})
	}
}

func TestFaultyFS_Unmatched(t *testing.T) {
	ffs := NewFaultyFS(OS{})
	ffs.Inject(Rule{Match: "other", Ops: OpWrite | OpSync | OpRename})

	path := filepath.Join(t.TempDir(), "plain.bin")
	require.NoError(t, WriteAtomic(ffs, path, []byte("plain"), 0o600))

	info, err := ffs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
}
