package sync

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCountWalking(t *testing.T) {
	t.Run("empty source", func(t *testing.T) {
		src := t.TempDir()
		s := newNativeSyncer(nil)

		assert.Equal(t, 0, s.EstimateCount(Request{Source: src, Dest: t.TempDir()}))
	})

	t.Run("files and subdirectories", func(t *testing.T) {
		src := t.TempDir()
		writeFile(t, filepath.Join(src, "a.txt"), "a")
		writeFile(t, filepath.Join(src, "b.txt"), "b")
		writeFile(t, filepath.Join(src, "c.txt"), "c")
		writeFile(t, filepath.Join(src, "sub", "d.txt"), "d")
		writeFile(t, filepath.Join(src, "sub", "e.txt"), "e")

		s := newNativeSyncer(nil)

		// Directories are recursed into, not counted.
		assert.Equal(t, 5, s.EstimateCount(Request{Source: src, Dest: t.TempDir()}))
	})

	t.Run("exclusions applied", func(t *testing.T) {
		src := t.TempDir()
		writeFile(t, filepath.Join(src, "a.txt"), "a")
		writeFile(t, filepath.Join(src, "b.log"), "b")
		writeFile(t, filepath.Join(src, "node_modules", "dep.js"), "x")

		s := newNativeSyncer(nil)
		req := Request{Source: src, Dest: t.TempDir(), Exclude: []string{"node_modules"}}

		// b.log falls to the baseline *.log exclusion, node_modules to the
		// caller pattern; only a.txt remains.
		assert.Equal(t, 1, s.EstimateCount(req))
	})

	t.Run("unreadable source defaults to 1", func(t *testing.T) {
		s := newNativeSyncer(nil)

		assert.Equal(t, 1, s.EstimateCount(Request{Source: "/does/not/exist", Dest: t.TempDir()}))
	})
}

func TestEstimateCountWithTool(t *testing.T) {
	t.Run("counts file lines only", func(t *testing.T) {
		installFakeRsync(t, `printf 'sending incremental file list\ndocs/\ndocs/a.txt\ndocs/b.txt\n'`)
		src := t.TempDir()
		writeFile(t, filepath.Join(src, "seed"), "s")

		s := New(Options{})
		assert.Equal(t, 2, s.EstimateCount(Request{Source: src, Dest: t.TempDir()}))
	})

	t.Run("invocation failure defaults to 1", func(t *testing.T) {
		installFakeRsync(t, `exit 12`)
		src := t.TempDir()

		s := New(Options{})
		assert.Equal(t, 1, s.EstimateCount(Request{Source: src, Dest: t.TempDir()}))
	})
}
