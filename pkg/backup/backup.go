// Package backup orchestrates a full machine backup: dotfiles, app
// config trees, launch agents, Homebrew package lists, and selected
// home directories, all mirrored under the backup root through the
// sync engine.
package backup

import (
	"fmt"
	"path/filepath"
	sysync "sync"
	"time"

	"golang.org/x/sync/errgroup"

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

// Options configures a backup Runner.
type Options struct {
	Config   *config.Config
	Paths    *paths.Paths
	Syncer   *sync.Syncer
	Brew     *brew.Runner
	Reporter progress.Reporter
	Logger   zerolog.Logger
	DryRun   bool
}

// Runner executes backups.
type Runner struct {
	cfg      *config.Config
	paths    *paths.Paths
	syncer   *sync.Syncer
	brew     *brew.Runner
	reporter progress.Reporter
	logger   zerolog.Logger
	dryRun   bool
}

// Result summarizes one backup run.
type Result struct {
	// Dotfiles is the number of dotfiles copied.
	Dotfiles int

	// Apps and Trees list the set names that were mirrored.
	Apps  []string
	Trees []string

	// AgentLabels are the launch agent labels found in backed-up plists.
	AgentLabels []string

	// Bytes is the byte total reported by batch-mode tree transfers.
	Bytes int64

	// Skipped counts files the fallback copier had to skip.
	Skipped int

	// Soft collects non-fatal per-set errors; the run continues past them.
	Soft []error
}

// New creates a backup Runner.
func New(opts Options) (*Runner, error) {
	if opts.Config == nil || opts.Paths == nil {
		return nil, errors.New(errors.ErrInvalidInput, "backup requires config and paths")
	}

	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("backup")
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
	}, nil
}

// Run executes the full backup. Individual sets fail soft: a broken app
// directory or brew invocation is recorded in the result and the run
// continues, because a partial backup beats no backup.
func (r *Runner) Run() (*Result, error) {
	if r.paths.BackupRoot() == "" {
		return nil, errors.New(errors.ErrConfigValid, "no backup root configured: set backup_root or PACKRAT_BACKUP_ROOT")
	}

	done := logging.LogOperationStart(r.logger, "backup")
	defer done()

	result := &Result{}

	r.backupDotfiles(result)
	r.backupApps(result)
	r.backupLaunchAgents(result)
	r.backupBrew(result)
	r.backupHomeTrees(result)

	if !r.dryRun {
		if err := r.writeManifest(result); err != nil {
			result.Soft = append(result.Soft, err)
		}
	}
	return result, nil
}

func (r *Runner) backupDotfiles(result *Result) {
	for _, rel := range r.cfg.Dotfiles {
		src := r.paths.InHome(rel)
		dest := filepath.Join(r.paths.DotfilesRoot(), rel)

		_, err := r.syncer.CopyFile(sync.Request{
			Source:              src,
			Dest:                dest,
			DryRun:              r.dryRun,
			PreservePermissions: true,
		})
		switch {
		case err == nil:
			result.Dotfiles++
		case errors.IsErrorCode(err, errors.ErrSourceNotFound):
			// Not every machine has every dotfile.
			r.logger.Debug().Str("file", rel).Msg("Dotfile absent, skipping")
		default:
			result.Soft = append(result.Soft, err)
			r.logger.Warn().Err(err).Str("file", rel).Msg("Dotfile backup failed")
		}
	}
}

func (r *Runner) backupApps(result *Result) {
	for _, app := range r.cfg.Apps {
		exclude := append([]string{}, r.cfg.Exclude...)
		exclude = append(exclude, app.Exclude...)

		_, err := r.syncer.CopyTree(sync.Request{
			Source:              r.paths.InHome(app.Path),
			Dest:                filepath.Join(r.paths.AppsRoot(), app.Name),
			Exclude:             exclude,
			DeleteExtraneous:    true,
			DryRun:              r.dryRun,
			ProgressID:          "app:" + app.Name,
			PreservePermissions: true,
		})
		if err != nil {
			result.Soft = append(result.Soft, err)
			r.logger.Warn().Err(err).Str("app", app.Name).Msg("App backup failed")
			continue
		}
		result.Apps = append(result.Apps, app.Name)
	}
}

func (r *Runner) backupBrew(result *Result) {
	if !r.cfg.Brew.Enabled {
		return
	}
	if !r.brew.Available() {
		r.logger.Debug().Msg("brew not installed, skipping package lists")
		return
	}
	if r.dryRun {
		r.reporter.Puts(fmt.Sprintf("Would dump Homebrew package lists to %s", r.paths.BrewRoot()))
		return
	}
	if err := r.brew.Dump(r.paths.BrewRoot()); err != nil {
		result.Soft = append(result.Soft, err)
		r.logger.Warn().Err(err).Msg("Homebrew dump failed")
	}
}

// backupHomeTrees mirrors the configured home directories concurrently,
// one subprocess and one progress id per tree.
func (r *Runner) backupHomeTrees(result *Result) {
	var (
		group errgroup.Group
		mu    sysync.Mutex
	)

	for _, tree := range r.cfg.HomeTrees {
		tree := tree
		group.Go(func() error {
			res, err := r.syncer.CopyTree(sync.Request{
				Source:              r.paths.InHome(tree),
				Dest:                filepath.Join(r.paths.BackupRoot(), tree),
				Exclude:             r.cfg.Exclude,
				DeleteExtraneous:    true,
				DryRun:              r.dryRun,
				ProgressID:          "tree:" + tree,
				PreservePermissions: true,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Soft = append(result.Soft, err)
				r.logger.Warn().Err(err).Str("tree", tree).Msg("Tree backup failed")
				return nil
			}
			result.Trees = append(result.Trees, tree)
			result.Bytes += res.Bytes
			result.Skipped += res.Skipped
			return nil
		})
	}
	_ = group.Wait()
}

func (r *Runner) writeManifest(result *Result) error {
	sets := []string{"dotfiles"}
	sets = append(sets, result.Apps...)
	if r.cfg.Brew.Enabled {
		sets = append(sets, "brew")
	}
	sets = append(sets, result.Trees...)

	machine := r.cfg.Machine
	if machine == "" {
		machine = hostname()
	}

	return manifest.Write(r.paths.ManifestFile(), &manifest.Manifest{
		CreatedAt:    time.Now().UTC(),
		Machine:      machine,
		Sets:         sets,
		LaunchAgents: result.AgentLabels,
		SkippedFiles: result.Skipped,
	})
}
