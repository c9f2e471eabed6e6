// Package manifest reads and writes the backup manifest: a small TOML
// file at the backup root recording when the backup ran, from which
// machine, and what it contains.
package manifest

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/packrat/pkg/errors"
)

// Manifest describes one backup run.
type Manifest struct {
	CreatedAt    time.Time `toml:"created_at"`
	Machine      string    `toml:"machine"`
	Sets         []string  `toml:"sets"`
	LaunchAgents []string  `toml:"launch_agents,omitempty"`
	SkippedFiles int       `toml:"skipped_files,omitempty"`
}

// Write marshals the manifest to path, creating parent directories.
func Write(path string, m *Manifest) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, errors.ErrManifestWrite, "cannot marshal manifest")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create directory for %s", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrManifestWrite, "cannot write %s", path)
	}
	return nil
}

// Read loads the manifest at path.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestRead, "cannot read %s", path)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestRead, "cannot parse %s", path)
	}
	return &m, nil
}
