package model

import "strings"

// Sanitize removes characters that break line-oriented consumers of the
// dataset. Control characters U+0000-U+001F and U+007F are dropped and the
// Unicode line/paragraph separators U+2028 and U+2029 become a space.
//
// Newlines are control characters too, so multi-line text collapses.
func Sanitize(s string) string {
	if s == "" {
		return s
	}

	return strings.Map(func(r rune) rune {
		switch {
		case r == '\u2028', r == '\u2029':
			return ' '
		case r <= 0x1F, r == 0x7F:
			return -1
		default:
			return r
		}
	}, s)
}
