package sync

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(p *streamParser, chunks ...string) []fileEvent {
	var events []fileEvent
	for _, c := range chunks {
		events = append(events, p.Feed([]byte(c))...)
	}
	events = append(events, p.Flush()...)
	return events
}

func paths(events []fileEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Path)
	}
	return out
}

func TestStreamParserWholeLines(t *testing.T) {
	p := &streamParser{}
	events := feedAll(p, "sending incremental file list\na.txt\ndocs/\ndocs/b.txt\n")

	assert.Equal(t, []string{"a.txt", "docs/b.txt"}, paths(events))
}

func TestStreamParserChunkBoundaries(t *testing.T) {
	// The same stream arbitrarily re-chunked must yield the same events.
	stream := "sending incremental file list\nphotos/summer.jpg\nphotos/\nphotos/winter.jpg\n"

	for _, size := range []int{1, 3, 7, 1024} {
		p := &streamParser{}
		var events []fileEvent
		for i := 0; i < len(stream); i += size {
			end := i + size
			if end > len(stream) {
				end = len(stream)
			}
			events = append(events, p.Feed([]byte(stream[i:end]))...)
		}
		events = append(events, p.Flush()...)

		assert.Equal(t, []string{"photos/summer.jpg", "photos/winter.jpg"}, paths(events),
			"chunk size %d", size)
	}
}

func TestStreamParserSkipsInformational(t *testing.T) {
	p := &streamParser{}
	events := feedAll(p,
		"sending incremental file list\n",
		"created directory /mnt/backup/docs\n",
		"deleting old/stale.txt\n",
		"sent 1,234 bytes  received 56 bytes\n",
		"total size is 9,999  speedup is 8.13\n",
		"real.txt\n",
	)

	assert.Equal(t, []string{"real.txt"}, paths(events))
}

func TestStreamParserSkipsBlankAndDirs(t *testing.T) {
	p := &streamParser{}
	events := feedAll(p, "\n\n./\nsub/dir/\nfile.txt\n   \n")

	assert.Equal(t, []string{"file.txt"}, paths(events))
}

func TestStreamParserDedupRepeats(t *testing.T) {
	p := &streamParser{}
	events := feedAll(p, "a.txt\na.txt\nb.txt\na.txt\n")

	require.Len(t, events, 4)
	assert.False(t, events[0].Repeat)
	assert.True(t, events[1].Repeat)
	assert.False(t, events[2].Repeat)
	assert.False(t, events[3].Repeat)
}

func TestStreamParserFlushPartialLine(t *testing.T) {
	p := &streamParser{}
	events := p.Feed([]byte("unterminated.txt"))
	assert.Empty(t, events)

	// The trailing partial line surfaces on Flush, once the stream ends.
	events = p.Flush()
	assert.Equal(t, []string{"unterminated.txt"}, paths(events))
	assert.Empty(t, p.Flush())
}

func TestStreamParserCRLF(t *testing.T) {
	p := &streamParser{}
	events := feedAll(p, "a.txt\r\nb.txt\r\n")
	assert.Equal(t, []string{"a.txt", "b.txt"}, paths(events))
}

func TestSanitizeDetail(t *testing.T) {
	t.Run("invalid utf8 dropped", func(t *testing.T) {
		got := sanitizeDetail("file\xff\xfename.txt")
		assert.True(t, strings.Contains(got, "filename.txt") || got == "filename.txt")
	})

	t.Run("long lines truncated", func(t *testing.T) {
		long := strings.Repeat("a", 500)
		got := sanitizeDetail(long)
		assert.LessOrEqual(t, len(got), maxDetailLength)
	})

	t.Run("multibyte boundary preserved", func(t *testing.T) {
		long := strings.Repeat("é", 200)
		got := sanitizeDetail(long)
		assert.LessOrEqual(t, len(got), maxDetailLength)
		for _, r := range got {
			assert.Equal(t, 'é', r)
		}
	})
}
