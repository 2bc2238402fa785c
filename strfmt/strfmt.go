// Package strfmt formats indented multi-line text blocks.
package strfmt

import "strings"

// Dedent strips the blank lines around s and the indentation
// shared by all of its non-blank lines. Spaces and tabs count
// as one column each, blank lines don't affect the indentation.
func Dedent(s string) string {
	lines := strings.Split(s, "\n")
	indent := -1
	for _, l := range lines {
		if isBlank(l) {
			continue
		}
		if n := indentation(l); indent < 0 || n < indent {
			indent = n
		}
	}

	var b strings.Builder
	b.Grow(len(s))
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if !isBlank(l) {
			l = l[indent:]
		}
		b.WriteString(l)
	}
	return strings.TrimSpace(b.String())
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func indentation(s string) int { return len(s) - len(strings.TrimLeft(s, " \t")) }
