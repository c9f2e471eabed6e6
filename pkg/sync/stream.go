package sync

import (
	"strings"
	"unicode/utf8"
)

// maxDetailLength bounds the detail text forwarded to the reporter.
const maxDetailLength = 120

// infoPrefixes are rsync output lines that describe the run rather than
// a transferred path. They never count toward progress.
var infoPrefixes = []string{
	"sending incremental file list",
	"building file list",
	"receiving incremental file list",
	"receiving file list",
	"created directory",
	"deleting ",
	"sent ",
	"total size is",
	"cannot delete non-empty directory",
}

// fileEvent is one transferred file observed in the subprocess stream.
type fileEvent struct {
	// Path is the sanitized path as reported by rsync.
	Path string

	// Repeat is true when the path equals the previous event's, in which
	// case the detail line does not need updating again.
	Repeat bool
}

// streamParser turns the mirroring utility's chunked stdout into
// file-transferred events. It buffers partial lines across chunks so
// callers can feed arbitrary byte slices as they arrive.
type streamParser struct {
	buffer     string
	lastDetail string
}

// Feed consumes one chunk and returns zero or more events for the
// complete lines it contained.
func (p *streamParser) Feed(chunk []byte) []fileEvent {
	p.buffer += string(chunk)

	var events []fileEvent
	for {
		idx := strings.IndexByte(p.buffer, '\n')
		if idx < 0 {
			break
		}
		line := p.buffer[:idx]
		p.buffer = p.buffer[idx+1:]

		if event, ok := p.parseLine(line); ok {
			events = append(events, event)
		}
	}
	return events
}

// Flush processes any trailing partial line after the stream has ended.
func (p *streamParser) Flush() []fileEvent {
	if p.buffer == "" {
		return nil
	}
	line := p.buffer
	p.buffer = ""
	if event, ok := p.parseLine(line); ok {
		return []fileEvent{event}
	}
	return nil
}

func (p *streamParser) parseLine(line string) (fileEvent, bool) {
	line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	if line == "" {
		return fileEvent{}, false
	}

	for _, prefix := range infoPrefixes {
		if strings.HasPrefix(line, prefix) {
			return fileEvent{}, false
		}
	}

	// Directories are reported with a trailing separator; only files
	// count toward progress.
	if strings.HasSuffix(line, "/") {
		return fileEvent{}, false
	}

	line = sanitizeDetail(line)
	if line == "" {
		return fileEvent{}, false
	}

	repeat := line == p.lastDetail
	p.lastDetail = line
	return fileEvent{Path: line, Repeat: repeat}, true
}

// sanitizeDetail bounds and cleans a line before it reaches the
// reporter: invalid UTF-8 dropped, length capped.
func sanitizeDetail(line string) string {
	if !utf8.ValidString(line) {
		line = strings.ToValidUTF8(line, "")
	}
	if len(line) > maxDetailLength {
		cut := maxDetailLength
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		line = line[:cut]
	}
	return strings.TrimSpace(line)
}
