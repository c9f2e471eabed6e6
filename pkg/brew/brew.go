// Package brew enumerates and replays Homebrew packages. Backups write
// plain-text lists (formulae, casks, taps) so a restore works even on a
// machine where only brew itself is installed.
package brew

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/packrat/pkg/errors"
	"github.com/arthur-debert/packrat/pkg/logging"
	"github.com/rs/zerolog"
)

// List file names written under <backup_root>/brew/.
const (
	FormulaeFile = "formulae.txt"
	CasksFile    = "casks.txt"
	TapsFile     = "taps.txt"
)

// Runner shells out to brew.
type Runner struct {
	logger   zerolog.Logger
	lookPath func(file string) (string, error)
	run      func(args ...string) ([]byte, error)
}

// Options configures a Runner; the zero value uses the real brew binary.
type Options struct {
	Logger zerolog.Logger

	// Run executes brew with the given arguments and returns its stdout.
	// Overridable for tests.
	Run func(args ...string) ([]byte, error)

	LookPath func(file string) (string, error)
}

// New creates a Runner.
func New(opts Options) *Runner {
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("brew")
	}

	run := opts.Run
	if run == nil {
		run = func(args ...string) ([]byte, error) {
			logging.LogCommand("brew", args)
			return exec.Command("brew", args...).Output()
		}
	}

	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	return &Runner{logger: logger, lookPath: lookPath, run: run}
}

// Available reports whether brew is installed.
func (r *Runner) Available() bool {
	_, err := r.lookPath("brew")
	return err == nil
}

// Formulae returns top-level installed formulae (leaves), so a restore
// does not pin every transitive dependency.
func (r *Runner) Formulae() ([]string, error) {
	return r.list("leaves")
}

// Casks returns installed casks.
func (r *Runner) Casks() ([]string, error) {
	return r.list("list", "--cask", "-1")
}

// Taps returns configured taps.
func (r *Runner) Taps() ([]string, error) {
	return r.list("tap")
}

func (r *Runner) list(args ...string) ([]string, error) {
	output, err := r.run(args...)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrBrewList, "brew %s failed", strings.Join(args, " "))
	}

	var names []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// Dump writes the formulae, cask, and tap lists into dir.
func (r *Runner) Dump(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", dir)
	}

	lists := []struct {
		file string
		get  func() ([]string, error)
	}{
		{FormulaeFile, r.Formulae},
		{CasksFile, r.Casks},
		{TapsFile, r.Taps},
	}

	for _, l := range lists {
		names, err := l.get()
		if err != nil {
			return err
		}
		path := filepath.Join(dir, l.file)
		content := strings.Join(names, "\n")
		if len(names) > 0 {
			content += "\n"
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path)
		}
		r.logger.Info().Str("file", path).Int("count", len(names)).Msg("Wrote package list")
	}
	return nil
}

// Restore replays the lists from dir: taps first, then formulae, then
// casks. Individual failures are logged and skipped; one missing
// package must not abort a machine restore.
func (r *Runner) Restore(dir string) error {
	taps, err := readList(filepath.Join(dir, TapsFile))
	if err != nil {
		return err
	}
	for _, tap := range taps {
		if _, err := r.run("tap", tap); err != nil {
			r.logger.Warn().Err(err).Str("tap", tap).Msg("Failed to tap, continuing")
		}
	}

	formulae, err := readList(filepath.Join(dir, FormulaeFile))
	if err != nil {
		return err
	}
	for _, formula := range formulae {
		if _, err := r.run("install", formula); err != nil {
			r.logger.Warn().Err(err).Str("formula", formula).Msg("Failed to install, continuing")
		}
	}

	casks, err := readList(filepath.Join(dir, CasksFile))
	if err != nil {
		return err
	}
	for _, cask := range casks {
		if _, err := r.run("install", "--cask", cask); err != nil {
			r.logger.Warn().Err(err).Str("cask", cask).Msg("Failed to install, continuing")
		}
	}
	return nil
}

// readList reads one name per line, ignoring blanks. A missing list
// file is an empty list: older backups may predate a list kind.
func readList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", path)
	}

	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}
