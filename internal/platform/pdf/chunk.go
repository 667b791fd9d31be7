package pdf

import (
	"regexp"
	"strings"
)

// Chunk size limits, in characters.
const (
	DefaultChunkSize    = 2000
	DefaultMaxChunkSize = 8000
)

var newlineRuns = regexp.MustCompile(`\n+`)

// Chunk splits text into paragraphs on newline runs and greedily packs them
// into chunks of at most size characters, starting a new chunk whenever the
// next paragraph would overflow the current one. Chunks longer than maxSize
// (a single huge paragraph) are cut into maxSize slices.
func Chunk(text string, size, maxSize int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if maxSize < size {
		maxSize = DefaultMaxChunkSize
	}

	var paragraphs []string
	for _, p := range newlineRuns.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return nil
	}

	var packed []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			packed = append(packed, s)
		}
		current.Reset()
		currentLen = 0
	}

	for _, p := range paragraphs {
		pLen := len([]rune(p))
		if currentLen > 0 && currentLen+pLen > size {
			flush()
		}
		current.WriteString(p)
		current.WriteByte('\n')
		currentLen += pLen + 1
	}
	flush()

	chunks := make([]string, 0, len(packed))
	for _, c := range packed {
		chunks = append(chunks, splitRunes(c, maxSize)...)
	}
	return chunks
}

func splitRunes(s string, n int) []string {
	r := []rune(s)
	if len(r) <= n {
		return []string{s}
	}
	out := make([]string, 0, len(r)/n+1)
	for start := 0; start < len(r); start += n {
		end := min(start+n, len(r))
		out = append(out, string(r[start:end]))
	}
	return out
}
