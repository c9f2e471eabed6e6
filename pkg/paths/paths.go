// Package paths provides centralized path handling for packrat.
// It implements XDG Base Directory specification compliance and
// provides a consistent API for all path operations in the codebase.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/packrat/pkg/errors"
)

// Environment variable names
const (
	// EnvBackupRoot is the primary environment variable for the backup destination
	EnvBackupRoot = "PACKRAT_BACKUP_ROOT"

	// EnvConfigDir overrides the XDG config directory for packrat
	EnvConfigDir = "PACKRAT_CONFIG_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default directories and files
const (
	// PackratDirName is the directory name for packrat-specific files
	PackratDirName = "packrat"

	// ConfigFileName is the name of the main configuration file
	ConfigFileName = "packrat.toml"

	// DotfilesDir is the subdirectory of the backup root holding dotfiles
	DotfilesDir = "dotfiles"

	// AppsDir is the subdirectory of the backup root holding app configs
	AppsDir = "apps"

	// BrewDir is the subdirectory of the backup root holding Homebrew lists
	BrewDir = "brew"

	// ManifestFileName is the backup manifest written at the backup root
	ManifestFileName = "packrat-manifest.toml"
)

// Paths resolves all filesystem locations packrat reads or writes.
type Paths struct {
	home       string
	backupRoot string
	configDir  string
}

// New resolves paths from the environment. backupRoot may be empty here and
// supplied later from config; commands that need it validate before use.
func New(backupRoot string) (*Paths, error) {
	home, err := GetHomeDirectory()
	if err != nil {
		return nil, err
	}

	if backupRoot == "" {
		backupRoot = os.Getenv(EnvBackupRoot)
	}
	if backupRoot != "" {
		backupRoot, err = ExpandHome(backupRoot)
		if err != nil {
			return nil, err
		}
	}

	configDir := os.Getenv(EnvConfigDir)
	if configDir == "" {
		configDir = filepath.Join(xdg.ConfigHome, PackratDirName)
	}

	return &Paths{
		home:       home,
		backupRoot: backupRoot,
		configDir:  configDir,
	}, nil
}

// Home returns the user's home directory.
func (p *Paths) Home() string { return p.home }

// BackupRoot returns the backup destination root, which may be empty if
// neither the environment nor the config supplied one.
func (p *Paths) BackupRoot() string { return p.backupRoot }

// SetBackupRoot overrides the backup root, typically from loaded config.
func (p *Paths) SetBackupRoot(root string) error {
	expanded, err := ExpandHome(root)
	if err != nil {
		return err
	}
	p.backupRoot = expanded
	return nil
}

// ConfigDir returns the packrat config directory.
func (p *Paths) ConfigDir() string { return p.configDir }

// ConfigFile returns the path of the main configuration file.
func (p *Paths) ConfigFile() string { return filepath.Join(p.configDir, ConfigFileName) }

// DotfilesRoot returns the backup subdirectory for dotfiles.
func (p *Paths) DotfilesRoot() string { return filepath.Join(p.backupRoot, DotfilesDir) }

// AppsRoot returns the backup subdirectory for application configs.
func (p *Paths) AppsRoot() string { return filepath.Join(p.backupRoot, AppsDir) }

// BrewRoot returns the backup subdirectory for Homebrew lists.
func (p *Paths) BrewRoot() string { return filepath.Join(p.backupRoot, BrewDir) }

// ManifestFile returns the path of the backup manifest.
func (p *Paths) ManifestFile() string { return filepath.Join(p.backupRoot, ManifestFileName) }

// InHome resolves a home-relative path like ".zshrc" or ".config/nvim".
func (p *Paths) InHome(rel string) string { return filepath.Join(p.home, rel) }

// GetHomeDirectory returns the user's home directory.
// It first tries os.UserHomeDir(), then falls back to the HOME environment variable.
// If both fail, it returns an error rather than using dangerous defaults.
func GetHomeDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err == nil && homeDir != "" {
		return homeDir, nil
	}

	homeDir = os.Getenv(EnvHome)
	if homeDir != "" {
		return homeDir, nil
	}

	return "", errors.New(errors.ErrFileAccess, "unable to determine home directory: neither os.UserHomeDir() nor HOME environment variable are available")
}

// ExpandHome expands the ~ character to the user's home directory.
// Returns an error if home directory cannot be determined.
func ExpandHome(path string) (string, error) {
	if path == "~" {
		return GetHomeDirectory()
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := GetHomeDirectory()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, path[2:]), nil
	}

	return path, nil
}
