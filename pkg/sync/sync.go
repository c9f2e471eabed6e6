// Package sync implements packrat's mirroring primitive: copy a source
// directory tree or single file to a destination, using rsync when it is
// installed and a recursive fallback copy when it is not. It supports
// exclusion filtering, dry-run simulation, pre-flight transfer counting,
// and live progress driven by rsync's streamed output.
package sync

import (
	"os/exec"
	"time"

	"github.com/arthur-debert/packrat/pkg/logging"
	"github.com/arthur-debert/packrat/pkg/progress"
	"github.com/rs/zerolog"
)

// mirrorTool is the external mirroring utility packrat prefers.
const mirrorTool = "rsync"

// defaultInactivityTimeout is how long a streaming transfer may go
// without any subprocess output before it is treated as hung. It bounds
// silence, not total duration; large trees legitimately run for minutes.
const defaultInactivityTimeout = 5 * time.Minute

// Request describes one synchronization call. It is immutable per call.
type Request struct {
	// Source is the file or directory tree to copy.
	Source string

	// Dest is the destination path.
	Dest string

	// Exclude holds caller-supplied exclusion patterns, applied to path
	// segments. Tree transfers union these with DefaultTreeExcludes.
	Exclude []string

	// DeleteExtraneous removes destination files absent from the source.
	DeleteExtraneous bool

	// DryRun reports the intended action without touching the filesystem.
	DryRun bool

	// ProgressID, when non-empty, keys live progress updates for this
	// transfer on the reporter.
	ProgressID string

	// PreservePermissions copies the source's permission bits onto the
	// destination. rsync's archive mode does this automatically; the
	// fallback path only does it when this is set.
	PreservePermissions bool
}

// TreeResult summarizes a completed tree transfer.
type TreeResult struct {
	// Bytes is the transferred byte total parsed from rsync's summary in
	// batch mode; zero in the other strategies.
	Bytes int64

	// Skipped counts files the fallback copier could not read or write
	// (sockets, permission-denied entries). Always zero on rsync paths.
	Skipped int
}

// Options configures a Syncer.
type Options struct {
	// Reporter receives progress signals. Defaults to a silent reporter.
	Reporter progress.Reporter

	Logger zerolog.Logger

	// LookPath resolves the mirroring utility on the search path.
	// Overridable for tests; defaults to exec.LookPath.
	LookPath func(file string) (string, error)

	// InactivityTimeout overrides the streaming silence ceiling.
	InactivityTimeout time.Duration
}

// Syncer copies files and trees. One Syncer may serve concurrent
// transfers of distinct source/dest pairs; each owns its own subprocess
// and progress id.
type Syncer struct {
	reporter          progress.Reporter
	logger            zerolog.Logger
	lookPath          func(file string) (string, error)
	inactivityTimeout time.Duration
}

// New creates a Syncer.
func New(opts Options) *Syncer {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.NewSilentReporter()
	}

	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("sync")
	}

	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	timeout := opts.InactivityTimeout
	if timeout <= 0 {
		timeout = defaultInactivityTimeout
	}

	return &Syncer{
		reporter:          reporter,
		logger:            logger,
		lookPath:          lookPath,
		inactivityTimeout: timeout,
	}
}

// Available reports whether the external mirroring utility is installed.
// Absence is a normal state, not an error: every operation degrades to a
// native fallback.
func (s *Syncer) Available() bool {
	_, err := s.lookPath(mirrorTool)
	return err == nil
}
