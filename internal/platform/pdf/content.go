package pdf

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// tjSpaceThreshold is the TJ kerning offset (in thousandths of an em)
// beyond which a gap is rendered as a space.
const tjSpaceThreshold = -200

// textFromContent recovers the text shown by a page content stream. It reads
// string operands of the text-showing operators (Tj, TJ, ' and ") and turns
// line-positioning operators into newlines. Font encodings are not decoded,
// so only simple single-byte fonts yield readable text.
func textFromContent(content []byte) string {
	var out strings.Builder
	var operands []string
	var array []string
	inArray := false

	newline := func() {
		s := out.String()
		if len(s) > 0 && s[len(s)-1] != '\n' {
			out.WriteByte('\n')
		}
	}

	for i := 0; i < len(content); {
		c := content[i]
		switch {
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case c == '(':
			s, next := readLiteral(content, i)
			i = next
			if inArray {
				array = append(array, s)
			} else {
				operands = append(operands, s)
			}
		case c == '<' && i+1 < len(content) && content[i+1] == '<':
			i += 2
		case c == '>' && i+1 < len(content) && content[i+1] == '>':
			i += 2
		case c == '<':
			s, next := readHex(content, i)
			i = next
			if inArray {
				array = append(array, s)
			} else {
				operands = append(operands, s)
			}
		case c == '[':
			inArray = true
			array = array[:0]
			i++
		case c == ']':
			inArray = false
			operands = append(operands, strings.Join(array, ""))
			i++
		case isDelimiterOrSpace(c):
			i++
		default:
			start := i
			for i < len(content) && !isDelimiterOrSpace(content[i]) && !strings.ContainsRune("()<>[]%", rune(content[i])) {
				i++
			}
			if i == start {
				i++
				continue
			}
			token := string(content[start:i])
			if inArray {
				if n, err := strconv.ParseFloat(token, 64); err == nil && n <= tjSpaceThreshold {
					array = append(array, " ")
				}
				continue
			}
			switch token {
			case "Tj", "TJ":
				for _, s := range operands {
					out.WriteString(s)
				}
			case "'", "\"":
				newline()
				if len(operands) > 0 {
					out.WriteString(operands[len(operands)-1])
				}
			case "Td", "TD", "T*", "ET":
				newline()
			}
			if _, err := strconv.ParseFloat(token, 64); err != nil && !strings.HasPrefix(token, "/") {
				operands = operands[:0]
			}
		}
	}
	return strings.TrimSpace(out.String())
}

func isDelimiterOrSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

// readLiteral parses a balanced (...) string starting at content[start].
func readLiteral(content []byte, start int) (string, int) {
	var b strings.Builder
	depth := 0
	i := start
	for i < len(content) {
		c := content[i]
		switch {
		case c == '\\' && i+1 < len(content):
			i++
			e := content[i]
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '\n', '\r':
			default:
				if e >= '0' && e <= '7' {
					j := i
					for j < len(content) && j < i+3 && content[j] >= '0' && content[j] <= '7' {
						j++
					}
					v, _ := strconv.ParseUint(string(content[i:j]), 8, 8)
					b.WriteByte(byte(v))
					i = j
					continue
				}
				b.WriteByte(e)
			}
		case c == '(':
			depth++
			if depth > 1 {
				b.WriteByte(c)
			}
		case c == ')':
			depth--
			if depth == 0 {
				return b.String(), i + 1
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
		i++
	}
	return b.String(), i
}

// readHex parses a <...> hex string starting at content[start].
func readHex(content []byte, start int) (string, int) {
	end := start + 1
	for end < len(content) && content[end] != '>' {
		end++
	}
	digits := strings.Map(func(r rune) rune {
		if isDelimiterOrSpace(byte(r)) {
			return -1
		}
		return r
	}, string(content[start+1:min(end, len(content))]))
	if len(digits)%2 == 1 {
		digits += "0"
	}
	decoded, err := hex.DecodeString(digits)
	if err != nil {
		return "", end + 1
	}
	return string(decoded), end + 1
}
