package gettext

import "strings"

// DefaultWrapWidth is the column at which Fold wraps when no width is given.
const DefaultWrapWidth = 68

// Escape backslash-escapes the control bytes 0x00-0x1F, the double quote
// and the backslash.
func Escape(s string) string {
	i := 0
	for ; i < len(s); i++ {
		if needsEscape(s[i]) {
			break
		}
	}
	if i == len(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	b.WriteString(s[:i])
	for ; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\a':
			b.WriteString(`\a`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\v':
			b.WriteString(`\v`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if c < 0x20 {
				b.WriteByte('\\')
				b.WriteByte('0' + c>>6)
				b.WriteByte('0' + (c>>3)&7)
				b.WriteByte('0' + c&7)
				continue
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

func needsEscape(c byte) bool { return c < 0x20 || c == '"' || c == '\\' }

// Unescape reverses C-style backslash escaping.
// Unknown escapes decode to the escaped character itself
// and a trailing lone backslash is kept.
func Unescape(s string) string {
	i := strings.IndexByte(s, '\\')
	if i == -1 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:i])
	for i < len(s) {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			b.WriteByte('\\')
			break
		}
		i++
		c = s[i]
		switch c {
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			var v byte
			n := 0
			for ; n < 3 && i < len(s) && s[i] >= '0' && s[i] <= '7'; n++ {
				v = v<<3 | (s[i] - '0')
				i++
			}
			b.WriteByte(v)
			continue
		case 'x':
			var v byte
			n := 0
			for i+1 < len(s) && n < 2 {
				d, ok := hexDigit(s[i+1])
				if !ok {
					break
				}
				v = v<<4 | d
				i++
				n++
			}
			if n == 0 {
				b.WriteByte('x')
			} else {
				b.WriteByte(v)
			}
		default:
			// \\ \" \' \? and anything unknown.
			b.WriteByte(c)
		}
		i++
	}
	return b.String()
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// Quote returns s escaped and framed in double quotes.
func Quote(s string) string { return `"` + Escape(s) + `"` }

// SplitHardBreaks splits escaped text into hard segments.
//
// A maximal run of backslashes directly followed by 'n' is a line break
// marker only if the run has odd length: the last backslash and the 'n'
// form the marker and the remaining backslashes stay as escaped pairs.
// An even run is a sequence of escaped backslashes followed by a plain 'n'.
// Raw newline characters split as well.
// The returned segments don't contain the markers.
func SplitHardBreaks(escaped string) []string {
	var segments []string
	start := 0
	for i := 0; i < len(escaped); i++ {
		switch escaped[i] {
		case '\n':
			segments = append(segments, escaped[start:i])
			start = i + 1
		case '\\':
			j := i
			for j < len(escaped) && escaped[j] == '\\' {
				j++
			}
			if j < len(escaped) && escaped[j] == 'n' && (j-i)%2 == 1 {
				segments = append(segments, escaped[start:j-1])
				start = j + 1
				i = j
				continue
			}
			i = j - 1
		}
	}
	return append(segments, escaped[start:])
}

// Fold encodes a logical string into the fragments of a PO value.
//
// The text is split into hard segments at line breaks and every segment is
// word-wrapped at width columns of escaped text, breaking after spaces
// only. Every fragment except the last ends in a line break and a trailing
// empty fragment is dropped. width <= 0 selects DefaultWrapWidth.
// Unfold(Fold(s, w)) == s for any s.
func Fold(logical string, width int) []string {
	if width <= 0 {
		width = DefaultWrapWidth
	}
	var lines []string
	for _, segment := range SplitHardBreaks(Escape(logical)) {
		wrapped := wrap(segment, width)
		wrapped[len(wrapped)-1] += `\n`
		lines = append(lines, wrapped...)
	}

	last := strings.TrimSuffix(lines[len(lines)-1], `\n`)
	if last == "" && len(lines) > 1 {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] = last
	}

	for i, l := range lines {
		lines[i] = Unescape(l)
	}
	return lines
}

// Unfold joins fragments back into the logical string.
func Unfold(fragments []string) string {
	switch len(fragments) {
	case 0:
		return ""
	case 1:
		return fragments[0]
	}
	return strings.Join(fragments, "")
}

// wrap breaks s after spaces so that no line exceeds width
// unless a single word is longer than width.
// The space stays at the end of the line it terminates.
func wrap(s string, width int) []string {
	var lines []string
	for len(s) > width {
		i := strings.LastIndexByte(s[:width+1], ' ')
		if i == -1 {
			// Word longer than width, break at the next space.
			i = strings.IndexByte(s[width+1:], ' ')
			if i == -1 {
				break
			}
			i += width + 1
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return append(lines, s)
}
