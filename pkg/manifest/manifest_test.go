package manifest_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/packrat/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup", "packrat-manifest.toml")

	created := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	in := &manifest.Manifest{
		CreatedAt:    created,
		Machine:      "laptop",
		Sets:         []string{"dotfiles", "apps", "brew", "Documents"},
		LaunchAgents: []string{"com.example.agent"},
		SkippedFiles: 3,
	}

	require.NoError(t, manifest.Write(path, in))

	out, err := manifest.Read(path)
	require.NoError(t, err)
	assert.True(t, created.Equal(out.CreatedAt))
	assert.Equal(t, "laptop", out.Machine)
	assert.Equal(t, in.Sets, out.Sets)
	assert.Equal(t, in.LaunchAgents, out.LaunchAgents)
	assert.Equal(t, 3, out.SkippedFiles)
}

func TestReadMissing(t *testing.T) {
	_, err := manifest.Read(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANIFEST_READ")
}
