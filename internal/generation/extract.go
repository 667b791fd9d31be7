package generation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes Markdown code fence lines (with or without a
// language tag) anywhere in s and trims surrounding whitespace.
func StripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// FirstObject returns the first well-formed JSON object embedded in s after
// stripping code fences. Prose before and after the object is ignored.
func FirstObject(s string) (json.RawMessage, error) {
	return firstBalanced(StripCodeFences(s), '{', '}')
}

// FirstArray returns the first well-formed JSON array embedded in s.
func FirstArray(s string) (json.RawMessage, error) {
	return firstBalanced(StripCodeFences(s), '[', ']')
}

// firstBalanced scans for open, finds its matching close while respecting
// JSON string literals, and returns the first candidate that is valid JSON.
func firstBalanced(s string, open, closing byte) (json.RawMessage, error) {
	for start := strings.IndexByte(s, open); start >= 0; {
		if end := matchClose(s, start, open, closing); end > 0 {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return json.RawMessage(candidate), nil
			}
		}

		next := strings.IndexByte(s[start+1:], open)
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, fmt.Errorf("%w: no JSON %c...%c found", ErrInvalidResponse, open, closing)
}

func matchClose(s string, start int, open, closing byte) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
