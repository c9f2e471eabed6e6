package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/packrat/pkg/errors"
	"github.com/arthur-debert/packrat/pkg/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFileDryRun(t *testing.T) {
	rec := progress.NewRecorder()
	s := newNativeSyncer(rec)

	src := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, src, "content")
	dest := filepath.Join(t.TempDir(), "out", "file.txt")

	size, err := s.CopyFile(Request{Source: src, Dest: dest, DryRun: true})
	require.NoError(t, err)
	assert.Zero(t, size)

	// Zero filesystem mutation: not even the parent directory.
	_, statErr := os.Stat(filepath.Dir(dest))
	assert.True(t, os.IsNotExist(statErr))

	require.Len(t, rec.Lines, 1)
	assert.Contains(t, rec.Lines[0], "Would copy")
}

func TestCopyFileSourceMissing(t *testing.T) {
	s := newNativeSyncer(nil)
	dest := filepath.Join(t.TempDir(), "y")

	_, err := s.CopyFile(Request{Source: "/missing/x", Dest: dest})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSourceNotFound))

	// No file created at the destination.
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCopyFileNative(t *testing.T) {
	s := newNativeSyncer(nil)

	src := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, src, "hello")
	dest := filepath.Join(t.TempDir(), "deep", "nested", "file.txt")

	size, err := s.CopyFile(Request{Source: src, Dest: dest})
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestCopyFilePreservePermissions(t *testing.T) {
	s := newNativeSyncer(nil)

	src := filepath.Join(t.TempDir(), "script.sh")
	writeFile(t, src, "#!/bin/sh\n")
	require.NoError(t, os.Chmod(src, 0750))
	dest := filepath.Join(t.TempDir(), "script.sh")

	_, err := s.CopyFile(Request{Source: src, Dest: dest, PreservePermissions: true})
	require.NoError(t, err)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0750), info.Mode().Perm())
}

func TestCopyFileWithTool(t *testing.T) {
	// The fake mirrors rsync's single-file contract: copy $2 to $3.
	installFakeRsync(t, `cp "$2" "$3"`)

	s := New(Options{})
	require.True(t, s.Available())

	src := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, src, "via tool")
	dest := filepath.Join(t.TempDir(), "file.txt")

	size, err := s.CopyFile(Request{Source: src, Dest: dest})
	require.NoError(t, err)
	assert.Equal(t, int64(len("via tool")), size)
}

func TestCopyFileToolFailure(t *testing.T) {
	installFakeRsync(t, `echo "rsync: some error" >&2; exit 23`)
	rec := progress.NewRecorder()

	s := New(Options{Reporter: rec})

	src := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, src, "content")
	dest := filepath.Join(t.TempDir(), "file.txt")

	_, err := s.CopyFile(Request{Source: src, Dest: dest})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrMirrorToolFailed))

	// Single-file tool failures are also reported on the text channel.
	require.NotEmpty(t, rec.Lines)
	assert.Contains(t, rec.Lines[0], "rsync failed")
}
