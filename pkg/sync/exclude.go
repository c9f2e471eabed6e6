package sync

import (
	"regexp"
	"strings"
)

// DefaultTreeExcludes is the baseline exclusion set unioned with caller
// patterns on every tree transfer: sockets, lock files, and the common
// cache/tmp/log directory name variants that have no business on a
// backup drive.
var DefaultTreeExcludes = []string{
	"*.sock",
	"*.lock",
	".cache",
	"Cache",
	"Caches",
	"tmp",
	".tmp",
	"*.log",
	"logs",
}

type patternKind int

const (
	// literalPattern matches a segment exactly or by containment. The
	// containment is intentionally broad so a pattern like "node_modules"
	// catches the directory anywhere it appears.
	literalPattern patternKind = iota

	// globPattern is a wildcard pattern compiled once into an anchored
	// regular expression.
	globPattern
)

// Pattern is one exclusion rule, analyzed at construction time so the
// per-segment match never re-inspects the raw string.
type Pattern struct {
	raw  string
	kind patternKind
	re   *regexp.Regexp
}

// CompilePattern analyzes a single raw pattern.
func CompilePattern(raw string) Pattern {
	if !strings.Contains(raw, "*") {
		return Pattern{raw: raw, kind: literalPattern}
	}

	// Escape regexp metacharacters, then turn the escaped wildcard back
	// into a match-anything and anchor the whole expression.
	expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(raw), `\*`, ".*") + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		// QuoteMeta output always compiles; treat the impossible as literal.
		return Pattern{raw: raw, kind: literalPattern}
	}
	return Pattern{raw: raw, kind: globPattern, re: re}
}

// Match reports whether a path segment (a file or directory basename)
// is excluded by this pattern.
func (p Pattern) Match(name string) bool {
	switch p.kind {
	case globPattern:
		return p.re.MatchString(name)
	default:
		return name == p.raw || strings.Contains(name, p.raw)
	}
}

// Raw returns the original pattern text, as handed to rsync.
func (p Pattern) Raw() string { return p.raw }

// IsGlob reports whether the pattern contains wildcards.
func (p Pattern) IsGlob() bool { return p.kind == globPattern }

// PatternSet is a compiled set of exclusion rules.
type PatternSet []Pattern

// CompilePatterns compiles raw patterns, dropping duplicates.
func CompilePatterns(raw []string) PatternSet {
	seen := make(map[string]struct{}, len(raw))
	set := make(PatternSet, 0, len(raw))
	for _, r := range raw {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		set = append(set, CompilePattern(r))
	}
	return set
}

// Match reports whether any pattern excludes the given path segment.
func (s PatternSet) Match(name string) bool {
	for _, p := range s {
		if p.Match(name) {
			return true
		}
	}
	return false
}

// treePatterns unions the baseline excludes with caller patterns for a
// tree transfer.
func treePatterns(extra []string) PatternSet {
	raw := make([]string, 0, len(DefaultTreeExcludes)+len(extra))
	raw = append(raw, DefaultTreeExcludes...)
	raw = append(raw, extra...)
	return CompilePatterns(raw)
}

// rsyncExcludeArgs renders the set as one --exclude flag per pattern.
// Literal patterns are wrapped in wildcards so rsync's exact-name
// matching lines up with the containment semantics of Pattern.Match —
// the fallback walker and the rsync paths must exclude the same files.
func rsyncExcludeArgs(set PatternSet) []string {
	args := make([]string, 0, len(set))
	for _, p := range set {
		if p.IsGlob() {
			args = append(args, "--exclude="+p.raw)
		} else {
			args = append(args, "--exclude=*"+p.raw+"*")
		}
	}
	return args
}
