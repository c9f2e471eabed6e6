package sync

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/arthur-debert/packrat/pkg/errors"
	"github.com/arthur-debert/packrat/pkg/logging"
)

// CopyFile copies a single file. With rsync available the copy is
// delegated to it in archive mode, which skips files whose content and
// timestamp already match — the incremental behavior backups want.
// Unlike tree copies, a missing source is an error here: callers use it
// to detect whether a file needs creating. Returns the destination's
// resulting size.
func (s *Syncer) CopyFile(req Request) (int64, error) {
	logger := logging.GetLogger("sync.copyfile")

	if req.DryRun {
		s.reporter.Puts(fmt.Sprintf("Would copy %s to %s", req.Source, req.Dest))
		return 0, nil
	}

	if _, err := os.Stat(req.Source); err != nil {
		return 0, errors.Newf(errors.ErrSourceNotFound, "source file does not exist: %s", req.Source)
	}

	if err := os.MkdirAll(filepath.Dir(req.Dest), 0755); err != nil {
		return 0, errors.Wrapf(err, errors.ErrDirCreate, "cannot create parent directory for %s", req.Dest)
	}

	if s.Available() {
		if err := s.copyFileWithTool(req); err != nil {
			s.reporter.Puts(fmt.Sprintf("rsync failed for %s: %v", req.Source, err))
			return 0, err
		}
	} else {
		if err := copyFileNative(req.Source, req.Dest, req.PreservePermissions); err != nil {
			return 0, err
		}
	}

	info, err := os.Stat(req.Dest)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat copied file %s", req.Dest)
	}

	logger.Debug().
		Str("source", req.Source).
		Str("dest", req.Dest).
		Int64("size", info.Size()).
		Msg("File copied")
	return info.Size(), nil
}

func (s *Syncer) copyFileWithTool(req Request) error {
	args := []string{"-a", req.Source, req.Dest}
	logging.LogCommand(mirrorTool, args)

	cmd := exec.Command(mirrorTool, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		code := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		return errors.Wrapf(err, errors.ErrMirrorToolFailed, "rsync exited with status %d", code).
			WithDetail("exitCode", code).
			WithDetail("output", string(output))
	}
	return nil
}

// copyFileNative is the byte-copy fallback. It does not preserve
// permissions automatically; when asked it copies the source's
// permission bits onto the destination afterwards.
func copyFileNative(source, dest string, preservePerms bool) error {
	in, err := os.Open(source)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCopyFailed, "cannot open %s", source)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCopyFailed, "cannot create %s", dest)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, errors.ErrCopyFailed, "cannot copy %s to %s", source, dest)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrCopyFailed, "cannot finish writing %s", dest)
	}

	if preservePerms {
		info, err := os.Stat(source)
		if err != nil {
			return errors.Wrapf(err, errors.ErrCopyFailed, "cannot stat %s for permissions", source)
		}
		if err := os.Chmod(dest, info.Mode().Perm()); err != nil {
			return errors.Wrapf(err, errors.ErrCopyFailed, "cannot set permissions on %s", dest)
		}
	}
	return nil
}
