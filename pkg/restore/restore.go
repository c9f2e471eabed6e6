// Package restore replays a backup onto the current machine: dotfiles,
// app config trees, launch agents, and home directories back into the
// home directory, plus Homebrew packages reinstalled from the saved
// lists.
package restore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/packrat/pkg/backup"
	"github.com/arthur-debert/packrat/pkg/brew"
	"github.com/arthur-debert/packrat/pkg/config"
	"github.com/arthur-debert/packrat/pkg/errors"
	"github.com/arthur-debert/packrat/pkg/logging"
	"github.com/arthur-debert/packrat/pkg/manifest"
	"github.com/arthur-debert/packrat/pkg/paths"
	"github.com/arthur-debert/packrat/pkg/progress"
	"github.com/arthur-debert/packrat/pkg/sync"
	"github.com/rs/zerolog"
)

// Options configures a restore Runner.
type Options struct {
	Config   *config.Config
	Paths    *paths.Paths
	Syncer   *sync.Syncer
	Brew     *brew.Runner
	Reporter progress.Reporter
	Logger   zerolog.Logger
	DryRun   bool

	// SkipBrew restores files only, leaving package installation to the
	// user. Reinstalling formulae can take a long time.
	SkipBrew bool
}

// Runner executes restores.
type Runner struct {
	cfg      *config.Config
	paths    *paths.Paths
	syncer   *sync.Syncer
	brew     *brew.Runner
	reporter progress.Reporter
	logger   zerolog.Logger
	dryRun   bool
	skipBrew bool
}

// Result summarizes one restore run.
type Result struct {
	// Manifest is the backup's manifest, nil when the backup predates
	// manifests.
	Manifest *manifest.Manifest

	// Dotfiles is the number of dotfiles restored.
	Dotfiles int

	// Apps and Trees list the set names that were restored.
	Apps  []string
	Trees []string

	// Agents is the number of launch agent plists restored.
	Agents int

	// BrewRestored reports whether the Homebrew lists were replayed.
	BrewRestored bool

	// Soft collects non-fatal per-set errors; the run continues past them.
	Soft []error
}

// New creates a restore Runner.
func New(opts Options) (*Runner, error) {
	if opts.Config == nil || opts.Paths == nil {
		return nil, errors.New(errors.ErrInvalidInput, "restore requires config and paths")
	}

	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("restore")
	}

	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.NewSilentReporter()
	}

	syncer := opts.Syncer
	if syncer == nil {
		syncer = sync.New(sync.Options{Reporter: reporter, Logger: logger})
	}

	brewRunner := opts.Brew
	if brewRunner == nil {
		brewRunner = brew.New(brew.Options{Logger: logger})
	}

	return &Runner{
		cfg:      opts.Config,
		paths:    opts.Paths,
		syncer:   syncer,
		brew:     brewRunner,
		reporter: reporter,
		logger:   logger,
		dryRun:   opts.DryRun,
		skipBrew: opts.SkipBrew,
	}, nil
}

// Run executes the full restore. Like backup, individual sets fail
// soft: one unreadable app directory must not abort rebuilding a
// machine.
func (r *Runner) Run() (*Result, error) {
	root := r.paths.BackupRoot()
	if root == "" {
		return nil, errors.New(errors.ErrConfigValid, "no backup root configured: set backup_root or PACKRAT_BACKUP_ROOT")
	}
	if _, err := os.Stat(root); err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceNotFound, "backup root %s does not exist", root)
	}

	done := logging.LogOperationStart(r.logger, "restore")
	defer done()

	result := &Result{}

	if m, err := manifest.Read(r.paths.ManifestFile()); err == nil {
		result.Manifest = m
		r.logger.Info().
			Str("machine", m.Machine).
			Time("created_at", m.CreatedAt).
			Strs("sets", m.Sets).
			Msg("Restoring from backup")
	} else {
		r.logger.Debug().Err(err).Msg("No readable manifest, restoring from config")
	}

	r.restoreDotfiles(result)
	r.restoreApps(result)
	r.restoreLaunchAgents(result)
	r.restoreHomeTrees(result)
	r.restoreBrew(result)

	return result, nil
}

func (r *Runner) restoreDotfiles(result *Result) {
	for _, rel := range r.cfg.Dotfiles {
		src := filepath.Join(r.paths.DotfilesRoot(), rel)

		_, err := r.syncer.CopyFile(sync.Request{
			Source:              src,
			Dest:                r.paths.InHome(rel),
			DryRun:              r.dryRun,
			PreservePermissions: true,
		})
		switch {
		case err == nil:
			result.Dotfiles++
		case errors.IsErrorCode(err, errors.ErrSourceNotFound):
			// The backup may predate this dotfile being configured.
			r.logger.Debug().Str("file", rel).Msg("Dotfile not in backup, skipping")
		default:
			result.Soft = append(result.Soft, err)
			r.logger.Warn().Err(err).Str("file", rel).Msg("Dotfile restore failed")
		}
	}
}

func (r *Runner) restoreApps(result *Result) {
	for _, app := range r.cfg.Apps {
		src := filepath.Join(r.paths.AppsRoot(), app.Name)
		if _, err := os.Stat(src); err != nil {
			r.logger.Debug().Str("app", app.Name).Msg("App not in backup, skipping")
			continue
		}

		// Restores never delete: files the user created since the backup
		// stay in place.
		_, err := r.syncer.CopyTree(sync.Request{
			Source:              src,
			Dest:                r.paths.InHome(app.Path),
			DryRun:              r.dryRun,
			ProgressID:          "app:" + app.Name,
			PreservePermissions: true,
		})
		if err != nil {
			result.Soft = append(result.Soft, err)
			r.logger.Warn().Err(err).Str("app", app.Name).Msg("App restore failed")
			continue
		}
		result.Apps = append(result.Apps, app.Name)
	}
}

func (r *Runner) restoreLaunchAgents(result *Result) {
	if !r.cfg.LaunchAgents.Enabled {
		return
	}

	srcDir := filepath.Join(r.paths.BackupRoot(), backup.LaunchAgentsDir)
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		r.logger.Debug().Str("dir", srcDir).Msg("No launch agents in backup, skipping")
		return
	}

	destDir := r.paths.InHome(r.cfg.LaunchAgents.Path)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".plist") {
			continue
		}

		_, err := r.syncer.CopyFile(sync.Request{
			Source:              filepath.Join(srcDir, entry.Name()),
			Dest:                filepath.Join(destDir, entry.Name()),
			DryRun:              r.dryRun,
			PreservePermissions: true,
		})
		if err != nil {
			result.Soft = append(result.Soft, err)
			r.logger.Warn().Err(err).Str("plist", entry.Name()).Msg("Launch agent restore failed")
			continue
		}
		result.Agents++
	}
}

func (r *Runner) restoreHomeTrees(result *Result) {
	for _, tree := range r.cfg.HomeTrees {
		// CopyTree treats a missing source as a no-op, but the result
		// should only list trees the backup actually holds.
		src := filepath.Join(r.paths.BackupRoot(), tree)
		if _, err := os.Stat(src); err != nil {
			r.logger.Debug().Str("tree", tree).Msg("Tree not in backup, skipping")
			continue
		}

		_, err := r.syncer.CopyTree(sync.Request{
			Source:              src,
			Dest:                r.paths.InHome(tree),
			Exclude:             r.cfg.Exclude,
			DryRun:              r.dryRun,
			ProgressID:          "tree:" + tree,
			PreservePermissions: true,
		})
		if err != nil {
			result.Soft = append(result.Soft, err)
			r.logger.Warn().Err(err).Str("tree", tree).Msg("Tree restore failed")
			continue
		}
		result.Trees = append(result.Trees, tree)
	}
}

func (r *Runner) restoreBrew(result *Result) {
	if !r.cfg.Brew.Enabled || r.skipBrew {
		return
	}
	if _, err := os.Stat(r.paths.BrewRoot()); err != nil {
		r.logger.Debug().Msg("No brew lists in backup, skipping")
		return
	}
	if !r.brew.Available() {
		r.logger.Warn().Msg("brew not installed, cannot replay package lists")
		return
	}
	if r.dryRun {
		r.reporter.Puts("Would reinstall Homebrew packages from " + r.paths.BrewRoot())
		return
	}
	if err := r.brew.Restore(r.paths.BrewRoot()); err != nil {
		result.Soft = append(result.Soft, err)
		r.logger.Warn().Err(err).Msg("Homebrew restore failed")
		return
	}
	result.BrewRestored = true
}
