// Package config loads packrat's layered configuration: embedded
// defaults, then the user's packrat.toml (or .yaml), then PACKRAT_*
// environment variables, each layer overriding the previous one.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/packrat/pkg/errors"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// App is one application whose configuration directory is mirrored
// under <backup_root>/apps/<name>/.
type App struct {
	Name    string   `koanf:"name" toml:"name"`
	Path    string   `koanf:"path" toml:"path"`
	Exclude []string `koanf:"exclude" toml:"exclude,omitempty"`
}

// Brew controls the Homebrew package-list backup.
type Brew struct {
	Enabled bool `koanf:"enabled" toml:"enabled"`
}

// LaunchAgents controls the LaunchAgents plist backup.
type LaunchAgents struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Path    string `koanf:"path" toml:"path"`
}

// Config is the fully merged packrat configuration. The toml tags let
// the config command print the merged result in config-file form.
type Config struct {
	BackupRoot   string       `koanf:"backup_root" toml:"backup_root"`
	Machine      string       `koanf:"machine" toml:"machine"`
	Dotfiles     []string     `koanf:"dotfiles" toml:"dotfiles"`
	HomeTrees    []string     `koanf:"home_trees" toml:"home_trees"`
	Exclude      []string     `koanf:"exclude" toml:"exclude"`
	Apps         []App        `koanf:"apps" toml:"apps"`
	Brew         Brew         `koanf:"brew" toml:"brew"`
	LaunchAgents LaunchAgents `koanf:"launch_agents" toml:"launch_agents"`
}

// Load merges the configuration layers. configFile may point at a
// missing file; defaults and environment still apply then.
func Load(configFile string) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults.
	if err := k.Load(rawbytes.Provider(defaultConfig), toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load embedded defaults")
	}

	// 2. User config file, if present. A sibling .yaml is accepted when
	// the .toml does not exist.
	for _, candidate := range configCandidates(configFile) {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		parser := parserFor(candidate)
		if err := k.Load(file.Provider(candidate), parser); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", candidate)
		}
		break
	}

	// 3. Environment overrides: PACKRAT_BACKUP_ROOT → backup_root, etc.
	envProvider := env.Provider("PACKRAT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PACKRAT_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}
	return &cfg, nil
}

func configCandidates(configFile string) []string {
	if configFile == "" {
		return nil
	}
	ext := filepath.Ext(configFile)
	base := strings.TrimSuffix(configFile, ext)
	return []string{configFile, base + ".yaml", base + ".yml"}
}

func parserFor(path string) koanf.Parser {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

// AppFor returns the configured app entry with the given name.
func (c *Config) AppFor(name string) (App, bool) {
	for _, app := range c.Apps {
		if app.Name == name {
			return app, true
		}
	}
	return App{}, false
}
