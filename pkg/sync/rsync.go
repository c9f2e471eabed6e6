package sync

import (
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/arthur-debert/packrat/pkg/errors"
	"github.com/arthur-debert/packrat/pkg/logging"
)

// ensureTrailingSlash normalizes the source path for rsync. "dir" and
// "dir/" mean different things to rsync; the contents-only copy packrat
// wants requires the trailing separator.
func ensureTrailingSlash(path string) string {
	return strings.TrimRight(path, "/") + "/"
}

// treeArgs builds the shared flag set for a tree transfer: archive mode,
// optional delete-extraneous, one --exclude per pattern, normalized
// source, destination.
func treeArgs(req Request, patterns PatternSet) []string {
	args := []string{"-a"}
	if req.DeleteExtraneous {
		args = append(args, "--delete")
	}
	args = append(args, rsyncExcludeArgs(patterns)...)
	args = append(args, ensureTrailingSlash(req.Source), req.Dest)
	return args
}

// Summary phrasings vary across rsync versions and verbosity levels:
//
//	Total transferred file size: 1,234 bytes
//	Total file size: 1234 bytes
//	total size is 1,234  speedup is 2.50
var (
	transferredSizeRe = regexp.MustCompile(`(?i)total transferred file size:\s*([\d,]+)`)
	totalSizeRe       = regexp.MustCompile(`(?i)total (?:file )?size(?: is)?:?\s*([\d,]+)`)
)

// parseSummaryBytes extracts the transferred byte total from rsync's
// summary output, preferring the --stats "transferred" figure over the
// overall size line. Returns 0 when no phrasing matches.
func parseSummaryBytes(output string) int64 {
	for _, re := range []*regexp.Regexp{transferredSizeRe, totalSizeRe} {
		if m := re.FindStringSubmatch(output); m != nil {
			digits := strings.ReplaceAll(m[1], ",", "")
			if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

// runStreaming launches rsync with one output line per transferred path
// and consumes its stdout incrementally, invoking onEvent per observed
// file. It enforces the inactivity timeout: a stretch with no output at
// all is treated as a hung subprocess and kills it.
func (s *Syncer) runStreaming(args []string, onEvent func(fileEvent)) error {
	logger := logging.GetLogger("sync.rsync")
	logging.LogCommand(mirrorTool, args)

	cmd := exec.Command(mirrorTool, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, errors.ErrMirrorToolFailed, "cannot open rsync stdout")
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, errors.ErrMirrorToolFailed, "cannot start rsync")
	}

	type chunk struct {
		data []byte
		err  error
	}
	chunks := make(chan chunk, 1)
	go func() {
		defer close(chunks)
		buf := make([]byte, 4096)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				chunks <- chunk{data: data}
			}
			if err != nil {
				if err != io.EOF {
					chunks <- chunk{err: err}
				}
				return
			}
		}
	}()

	parser := &streamParser{}
	timer := time.NewTimer(s.inactivityTimeout)
	defer timer.Stop()

read:
	for {
		select {
		case c, ok := <-chunks:
			if !ok {
				break read
			}
			if c.err != nil {
				logger.Warn().Err(c.err).Msg("rsync stdout read failed")
				break read
			}
			for _, event := range parser.Feed(c.data) {
				onEvent(event)
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(s.inactivityTimeout)
		case <-timer.C:
			_ = cmd.Process.Kill()
			go func() {
				for range chunks {
				}
			}()
			_ = cmd.Wait()
			return errors.Newf(errors.ErrSubprocessTimeout,
				"rsync produced no output for %s", s.inactivityTimeout).
				WithDetail("args", args)
		}
	}

	for _, event := range parser.Flush() {
		onEvent(event)
	}

	if err := cmd.Wait(); err != nil {
		code := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		return errors.Wrapf(err, errors.ErrMirrorToolFailed, "rsync exited with status %d", code).
			WithDetail("exitCode", code).
			WithDetail("stderr", strings.TrimSpace(stderr.String()))
	}
	return nil
}
