package securefs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) *SecureFS {
	t.Helper()
	sfs, err := New(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sfs.Close() })
	return sfs
}

func TestNewCreatesBaseDir(t *testing.T) {
	t.Parallel()

	sfs := newTestFS(t)
	info, err := os.Stat(sfs.BaseDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.True(t, filepath.IsAbs(sfs.BaseDir()))
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want error
	}{
		{"audio_1.mp3", nil},
		{"", ErrInvalidPath},
		{".", ErrInvalidPath},
		{"..", ErrPathTraversal},
		{"../etc/passwd", ErrInvalidPath},
		{"sub/file.mp3", ErrInvalidPath},
		{`sub\file.mp3`, ErrInvalidPath},
		{"/abs.mp3", ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, ValidateName(tt.name), tt.want)
		})
	}
}

func TestWriteFileExclusive(t *testing.T) {
	t.Parallel()

	sfs := newTestFS(t)
	data := []byte("ID3 fake mp3 bytes")

	require.NoError(t, sfs.WriteFileExclusive("audio_a.mp3", data, 0o640))

	got, err := os.ReadFile(filepath.Join(sfs.BaseDir(), "audio_a.mp3"))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	entries, err := sfs.ReadDir()
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not be left behind")
	assert.Equal(t, "audio_a.mp3", entries[0].Name())
}

func TestWriteFileExclusiveNeverOverwrites(t *testing.T) {
	t.Parallel()

	sfs := newTestFS(t)
	require.NoError(t, sfs.WriteFileExclusive("audio_a.mp3", []byte("first"), 0o640))

	err := sfs.WriteFileExclusive("audio_a.mp3", []byte("second"), 0o640)
	require.ErrorIs(t, err, ErrExists)

	got, err := os.ReadFile(filepath.Join(sfs.BaseDir(), "audio_a.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	entries, err := sfs.ReadDir()
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), TempPrefix), "leftover temp file %s", e.Name())
	}
}

func TestWriteFileExclusiveRejectsTraversal(t *testing.T) {
	t.Parallel()

	sfs := newTestFS(t)
	err := sfs.WriteFileExclusive("../escape.mp3", []byte("x"), 0o640)
	require.ErrorIs(t, err, ErrInvalidPath)

	_, statErr := os.Stat(filepath.Join(filepath.Dir(sfs.BaseDir()), "escape.mp3"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRemoveAndLstat(t *testing.T) {
	t.Parallel()

	sfs := newTestFS(t)
	require.NoError(t, sfs.WriteFileExclusive("audio_b.mp3", []byte("12345"), 0o640))

	info, err := sfs.Lstat("audio_b.mp3")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())

	require.NoError(t, sfs.Remove("audio_b.mp3"))
	_, err = sfs.Lstat("audio_b.mp3")
	require.Error(t, err)

	require.ErrorIs(t, sfs.Remove("../x"), ErrInvalidPath)
}
