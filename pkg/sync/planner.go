package sync

import (
	"os"
	"os/exec"
	"path/filepath"
)

// EstimateCount computes how many files a tree transfer would copy,
// ahead of running it, so a progress bar can be sized. With rsync the
// count comes from a dry run with flags matching the real transfer;
// without it, from a manual walk applying the same exclusions. Accuracy
// is best effort: any invocation failure yields 1 so a progress bar
// still renders instead of the transfer looking like a no-op.
func (s *Syncer) EstimateCount(req Request) int {
	patterns := treePatterns(req.Exclude)

	if s.Available() {
		return s.estimateWithTool(req, patterns)
	}
	return s.estimateByWalking(req.Source, patterns)
}

func (s *Syncer) estimateWithTool(req Request, patterns PatternSet) int {
	args := append([]string{"--dry-run", "--out-format=%n"}, treeArgs(req, patterns)...)
	logger := s.logger.With().Str("source", req.Source).Logger()

	cmd := exec.Command(mirrorTool, args...)
	output, err := cmd.Output()
	if err != nil {
		logger.Debug().Err(err).Msg("dry-run estimate failed, defaulting to 1")
		return 1
	}

	parser := &streamParser{}
	count := len(parser.Feed(output))
	count += len(parser.Flush())
	return count
}

func (s *Syncer) estimateByWalking(source string, patterns PatternSet) int {
	count, err := countFiles(source, patterns)
	if err != nil {
		s.logger.Debug().Err(err).Str("source", source).Msg("walk estimate failed, defaulting to 1")
		return 1
	}
	return count
}

// countFiles counts regular files under root, descending into
// directories but not counting them, and skipping excluded segments.
func countFiles(root string, patterns PatternSet) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		if patterns.Match(entry.Name()) {
			continue
		}
		if entry.IsDir() {
			sub, err := countFiles(filepath.Join(root, entry.Name()), patterns)
			if err != nil {
				return 0, err
			}
			count += sub
		} else {
			count++
		}
	}
	return count, nil
}
