package sync

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/arthur-debert/packrat/pkg/errors"
)

// CopyTree mirrors a directory tree. Strategy selection, in priority
// order: dry run (report, no mutation); missing source (successful
// no-op — callers probe optional directories); rsync streaming with
// live progress when a progress id was requested; rsync batch with a
// parsed byte summary; native recursive fallback when rsync is absent.
//
// A non-zero rsync exit during a tree copy is a soft failure: it is
// reported through the progress reporter but the call still succeeds.
// One bad subtree must not abort an entire backup run.
func (s *Syncer) CopyTree(req Request) (TreeResult, error) {
	logger := s.logger.With().
		Str("source", req.Source).
		Str("dest", req.Dest).
		Logger()

	if req.DryRun {
		s.reporter.Puts(fmt.Sprintf("Would sync %s to %s", req.Source, req.Dest))
		return TreeResult{}, nil
	}

	if _, err := os.Stat(req.Source); err != nil {
		logger.Debug().Msg("Source tree missing, nothing to sync")
		return TreeResult{}, nil
	}

	patterns := treePatterns(req.Exclude)

	switch {
	case s.Available() && req.ProgressID != "" && len(patterns) > 0:
		return s.copyTreeStreaming(req, patterns)
	case s.Available():
		return s.copyTreeBatch(req, patterns)
	default:
		return s.copyTreeNative(req, patterns)
	}
}

func (s *Syncer) copyTreeStreaming(req Request, patterns PatternSet) (TreeResult, error) {
	label := filepath.Base(req.Source)

	count := s.EstimateCount(req)
	if count == 0 {
		// Nothing to transfer, but the destination directory must exist.
		if err := os.MkdirAll(req.Dest, 0755); err != nil {
			return TreeResult{}, errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", req.Dest)
		}
		s.reporter.Puts(fmt.Sprintf("%s: nothing to sync", label))
		return TreeResult{}, nil
	}

	s.reporter.Start(req.ProgressID, label, count)

	args := append([]string{"--out-format=%n"}, treeArgs(req, patterns)...)
	err := s.runStreaming(args, func(event fileEvent) {
		s.reporter.Increment(req.ProgressID)
		if !event.Repeat {
			s.reporter.SetDetail(req.ProgressID, event.Path)
		}
	})
	if err != nil {
		if errors.IsErrorCode(err, errors.ErrSubprocessTimeout) {
			return TreeResult{}, err
		}
		// Soft failure: report and keep going.
		s.reporter.Puts(fmt.Sprintf("rsync failed for %s: %v", req.Source, err))
		s.logger.Warn().Err(err).Str("source", req.Source).Msg("rsync tree copy failed")
	}
	return TreeResult{}, nil
}

func (s *Syncer) copyTreeBatch(req Request, patterns PatternSet) (TreeResult, error) {
	args := append([]string{"--stats"}, treeArgs(req, patterns)...)
	cmd := exec.Command(mirrorTool, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		s.reporter.Puts(fmt.Sprintf("rsync failed for %s: %v", req.Source, err))
		s.logger.Warn().Err(err).Str("source", req.Source).Msg("rsync tree copy failed")
		return TreeResult{}, nil
	}
	return TreeResult{Bytes: parseSummaryBytes(string(output))}, nil
}

// copyTreeNative is the best-effort recursive fallback for machines
// without rsync. Per-file copy failures (sockets, permission-denied
// entries) are counted and logged at debug, not surfaced: the goal is
// mirroring as much of a personal home directory as possible, not an
// atomic transfer. Live progress degrades to a start/finish signal.
func (s *Syncer) copyTreeNative(req Request, patterns PatternSet) (TreeResult, error) {
	if req.ProgressID != "" {
		s.reporter.Start(req.ProgressID, filepath.Base(req.Source), 1)
		defer s.reporter.Increment(req.ProgressID)
	}

	skipped, err := s.copyDirRecursive(req.Source, req.Dest, patterns, req.PreservePermissions)
	if err != nil {
		return TreeResult{}, err
	}
	if skipped > 0 {
		s.logger.Info().Int("skipped", skipped).Str("source", req.Source).Msg("Some files could not be copied")
	}
	return TreeResult{Skipped: skipped}, nil
}

func (s *Syncer) copyDirRecursive(source, dest string, patterns PatternSet, preservePerms bool) (int, error) {
	entries, err := os.ReadDir(source)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrDirListFailed, "cannot list %s", source)
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return 0, errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", dest)
	}

	skipped := 0
	for _, entry := range entries {
		name := entry.Name()
		if patterns.Match(name) {
			continue
		}

		srcPath := filepath.Join(source, name)
		dstPath := filepath.Join(dest, name)

		switch {
		case entry.IsDir():
			sub, err := s.copyDirRecursive(srcPath, dstPath, patterns, preservePerms)
			if err != nil {
				return skipped, err
			}
			skipped += sub
		case entry.Type()&os.ModeSymlink != 0:
			if err := copySymlink(srcPath, dstPath); err != nil {
				s.logger.Debug().Err(err).Str("path", srcPath).Msg("Skipping symlink")
				skipped++
			}
		case !entry.Type().IsRegular():
			// Sockets, fifos, devices: nothing sensible to copy.
			skipped++
		default:
			if err := copyFileNative(srcPath, dstPath, preservePerms); err != nil {
				s.logger.Debug().Err(err).Str("path", srcPath).Msg("Skipping file")
				skipped++
			}
		}
	}
	return skipped, nil
}

func copySymlink(source, dest string) error {
	target, err := os.Readlink(source)
	if err != nil {
		return err
	}
	_ = os.Remove(dest)
	return os.Symlink(target, dest)
}
